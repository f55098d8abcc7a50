package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/service/excel"
	"proforma/internal/store"
)

func monthRow() []any {
	row := []any{nil, nil}
	for _, m := range []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"} {
		row = append(row, m+"-2025")
	}
	return row
}

func valueRow(label string, v float64) []any {
	row := []any{nil, label}
	for i := 0; i < 12; i++ {
		row = append(row, v)
	}
	return row
}

func statementPayload(name string) model.SheetPayload {
	return model.SheetPayload{Name: name, Grid: [][]any{
		{"Sunrise Storage"},
		{},
		monthRow(),
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

func budgetPayload() model.SheetPayload {
	return model.SheetPayload{Name: "Budget", Grid: [][]any{
		{"Budget Comparison"},
		{nil, nil, "PTD Actual", "PTD Budget", "Variance", "%Var", "YTD Actual", "YTD Budget", "YTD Variance", "YTD %Var"},
		{"4000", "Rental Income", 1000.0, 900.0, 100.0, 0.1111, 9000.0, 8000.0, 1000.0, 0.125},
	}}
}

func moveLogPayload() model.SheetPayload {
	return model.SheetPayload{Name: "Move Activity", Grid: [][]any{
		{"Unit", "Tenant", "Move-In Date", "Move-Out Date"},
		{"A101", "Lee", "9/3/2025", nil},
		{"A102", "Park", "10/1/2025", "10/20/2025"},
	}}
}

func workbook(t *testing.T, payloads ...model.SheetPayload) *excel.Workbook {
	t.Helper()
	wb, err := excel.FromPayloads(payloads)
	if err != nil {
		t.Fatalf("FromPayloads failed: %v", err)
	}
	return wb
}

func TestNormalize_StatementBudgetMoves(t *testing.T) {
	t.Parallel()

	wb := workbook(t, statementPayload("T12"), budgetPayload(), moveLogPayload())
	var events []string
	c := NewCoordinator(nil, parser.ScanOptions{}, nil)
	run, err := c.Normalize(context.Background(), wb, NormalizeOptions{
		Filename: "owner.xlsx",
		Period:   "Oct 2025",
		Progress: func(e ProgressEvent) { events = append(events, e.Type) },
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	res := run.Result
	if res.Detected == nil || res.Detected.MonthRow != 3 || res.Detected.MonthStartCol != 3 || res.Detected.LabelCol != 2 {
		t.Fatalf("detected=%+v", res.Detected)
	}
	if res.Series.NOI[0] != 600 || res.Series.TOI[11] != 1000 {
		t.Fatalf("totals noi=%v toi=%v", res.Series.NOI[0], res.Series.TOI[11])
	}
	if res.Tokens["RENTINCCMBUD"] != 900 {
		t.Fatalf("RENTINCCMBUD=%v, want 900", res.Tokens["RENTINCCMBUD"])
	}
	if res.Tokens["MOVEINS"] != 1 || res.Tokens["MOVEOUTS"] != 1 {
		t.Fatalf("moves in=%v out=%v", res.Tokens["MOVEINS"], res.Tokens["MOVEOUTS"])
	}
	if run.Report.ProcessedSheets != 3 || run.Report.TotalSheets != 3 {
		t.Fatalf("report=%+v", run.Report)
	}
	if len(events) == 0 || events[0] != "start" || events[len(events)-1] != "done" {
		t.Fatalf("events=%v", events)
	}
	if m := run.Months(); m == nil || m[0] != "jan-2025" {
		t.Fatalf("months=%v", m)
	}
}

func TestNormalize_NoBandIsNotAnError(t *testing.T) {
	t.Parallel()

	wb := workbook(t, model.SheetPayload{Name: "Notes", Grid: [][]any{{"nothing", "here"}}})
	run, err := NewCoordinator(nil, parser.ScanOptions{}, nil).Normalize(context.Background(), wb, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if run.Layout != nil || run.Result.Detected != nil {
		t.Fatalf("expected no layout, got %+v", run.Layout)
	}
	if len(run.Result.Lines) != 0 || !run.Result.Series.NOI.IsZero() {
		t.Fatalf("expected empty series, got %+v", run.Result.Lines)
	}
	if run.Report.SkippedSheets != 1 {
		t.Fatalf("skipped=%d, want 1", run.Report.SkippedSheets)
	}
}

func TestNormalize_FallbackStatement(t *testing.T) {
	t.Parallel()

	p := statementPayload("Data")
	// 去掉锚点，只留月份带与科目
	p.Grid = [][]any{monthRow(), valueRow("Rental Income", 500)}
	wb := workbook(t, p)

	run, err := NewCoordinator(nil, parser.ScanOptions{}, nil).Normalize(context.Background(), wb, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if run.Layout == nil || run.Layout.SheetName != "Data" {
		t.Fatalf("layout=%+v", run.Layout)
	}
	if len(run.Report.Sheets) != 1 || len(run.Report.Sheets[0].Errors) == 0 {
		t.Fatalf("missing anchors should be reported: %+v", run.Report.Sheets)
	}
}

func TestNormalize_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCoordinator(nil, parser.ScanOptions{}, nil).Normalize(ctx, workbook(t, statementPayload("T12")), NormalizeOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestNormalize_EmptyWorkbook(t *testing.T) {
	t.Parallel()

	_, err := NewCoordinator(nil, parser.ScanOptions{}, nil).Normalize(context.Background(), &excel.Workbook{}, NormalizeOptions{})
	if !errors.Is(err, excel.ErrNoSheets) {
		t.Fatalf("err=%v, want ErrNoSheets", err)
	}
}

func TestNormalize_AuditWritesStore(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "proforma.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	wb := workbook(t, statementPayload("T12"), budgetPayload())
	run, err := NewCoordinator(st, parser.ScanOptions{}, nil).Normalize(context.Background(), wb, NormalizeOptions{
		Filename: "owner.xlsx",
		Facility: "Sunrise",
		Period:   "Sep 2025",
		Audit:    true,
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	log, err := st.GetImportLog(run.Result.RunID)
	if err != nil {
		t.Fatalf("GetImportLog failed: %v", err)
	}
	if log.Status != store.RunCompleted || log.ProcessedSheets != 2 || log.Operation != "normalize" {
		t.Fatalf("import log=%+v", log)
	}

	metas, err := st.ListSheetMeta(log.ID)
	if err != nil {
		t.Fatalf("ListSheetMeta failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("sheet metas=%d, want 2", len(metas))
	}
	if metas[0].SheetName != "T12" || metas[0].LayoutJSON == "" || metas[0].TotalRows != 12 {
		t.Fatalf("statement meta=%+v", metas[0])
	}

	prov, err := st.ListProvenance(log.ID)
	if err != nil {
		t.Fatalf("ListProvenance failed: %v", err)
	}
	if len(prov) != len(run.Result.Provenance) {
		t.Fatalf("provenance rows=%d, want %d", len(prov), len(run.Result.Provenance))
	}

	facility, period, err := st.GetLastPeriod()
	if err != nil || facility != "Sunrise" || period != "Sep 2025" {
		t.Fatalf("last period=%q/%q err=%v", facility, period, err)
	}
}
