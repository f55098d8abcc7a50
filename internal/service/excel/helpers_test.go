package excel_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"proforma/internal/service/excel"
)

type sheetRows struct {
	name string
	rows [][]any
}

func buildWorkbook(t *testing.T, sheets ...sheetRows) *excelize.File {
	t.Helper()

	wb := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else if _, err := wb.NewSheet(s.name); err != nil {
			t.Fatalf("NewSheet %s failed: %v", s.name, err)
		}
		for r, row := range s.rows {
			if len(row) == 0 {
				continue
			}
			vals := append([]any{}, row...)
			if err := wb.SetSheetRow(s.name, fmt.Sprintf("A%d", r+1), &vals); err != nil {
				t.Fatalf("SetSheetRow %s failed: %v", s.name, err)
			}
		}
	}
	return wb
}

func loadBuilt(t *testing.T, sheets ...sheetRows) *excel.Workbook {
	t.Helper()

	f := buildWorkbook(t, sheets...)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	wb, err := excel.LoadWorkbook(bytes.NewReader(buf.Bytes()), "book.xlsx")
	if err != nil {
		t.Fatalf("LoadWorkbook failed: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func months2025() []any {
	out := []any{nil, nil}
	for _, m := range []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"} {
		out = append(out, m+"-2025")
	}
	return out
}

func valueRow(label string, v float64) []any {
	row := []any{nil, label}
	for i := 0; i < 12; i++ {
		row = append(row, v)
	}
	return row
}

func statementSheet(name string) sheetRows {
	return sheetRows{name: name, rows: [][]any{
		{"Sunrise Storage"},
		{},
		months2025(),
		{nil, "Income"},
		valueRow("Rental Income", 1100),
		valueRow("Bad Debt", 100),
		valueRow("Total Operating Income", 1000),
		{nil, "Expenses"},
		valueRow("Payroll", 300),
		valueRow("Utilities", 100),
		valueRow("Total Operating Expense", 400),
		valueRow("Net Operating Income", 600),
	}}
}

func budgetSheet(name string) sheetRows {
	return sheetRows{name: name, rows: [][]any{
		{"Budget Comparison"},
		{nil, nil, "PTD Actual", "PTD Budget", "Variance", "%Var", "YTD Actual", "YTD Budget", "YTD Variance", "YTD %Var"},
		{"4000", "Rental Income", 1000, 900, 100, 0.1111, 9000, 8000, 1000, 0.125},
	}}
}
