package parser

import (
	"fmt"
	"time"

	"proforma/internal/model"
)

// cells 构造一行：string -> Text，数值 -> Number，nil -> Empty
func cells(vals ...any) []model.Cell {
	out := make([]model.Cell, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = model.EmptyCell()
		case string:
			out[i] = model.TextCell(x)
		case int:
			out[i] = model.NumberCell(float64(x))
		case float64:
			out[i] = model.NumberCell(x)
		case time.Time:
			out[i] = model.DateCell(x)
		default:
			panic(fmt.Sprintf("unsupported cell %T", v))
		}
	}
	return out
}

func monthLabels(year int, month time.Month) []any {
	out := make([]any, 12)
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = t.AddDate(0, i, 0).Format("Jan-2006")
	}
	return out
}

func pad(n int, tail ...any) []any {
	return append(make([]any, n), tail...)
}

func repeat(v float64) []any {
	out := make([]any, 12)
	for i := range out {
		out[i] = v
	}
	return out
}

// spaced 在每个数值前插入 "$" 占位列
func spaced(v float64) []any {
	out := make([]any, 0, 24)
	for i := 0; i < 12; i++ {
		out = append(out, "$", v)
	}
	return out
}

func line(label string, values []any) []model.Cell {
	return cells(append([]any{nil, label}, values...)...)
}

// statementGrid 一个典型的 T12 报表：月份带在第 3 行 C 列起，标签在 B 列
//
//	income:  Rental 1100, Bad Debt 100 (备抵), Truck 0
//	expense: Payroll 300, Utilities 100
func statementGrid(values func(float64) []any) model.Grid {
	if values == nil {
		values = repeat
	}
	return model.Grid{
		cells("Sunrise Storage", nil, "Trailing 12 Month Income Statement"),
		cells(),
		cells(append([]any{nil, nil}, monthLabels(2025, time.January)...)...),
		line("Income", nil),
		line("Rental Income", values(1100)),
		line("Bad Debt", values(100)),
		line("Truck Rental", values(0)),
		line("Ancillary", nil),
		line("Total Operating Income", values(999999)),
		cells(),
		line("Expenses", nil),
		line("Payroll", values(300)),
		line("Utilities", values(100)),
		line("Total Operating Expense", values(1)),
		cells(),
		line("Net Operating Income", values(5)),
	}
}
