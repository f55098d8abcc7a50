package excel_test

import (
	"testing"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/service/excel"
)

func TestRecognizeSheetTypes(t *testing.T) {
	t.Parallel()

	wb := loadBuilt(t,
		statementSheet("T12 Income Statement"),
		budgetSheet("Budget"),
		sheetRows{name: "Aging", rows: [][]any{
			{"Delinquency Aging"},
			{"0-10 Days", 100, 1},
			{"11-30 Days", 50, 1},
			{"31-60 Days", 0, 0},
			{"61-90 Days", 0, 0},
			{"91-120 Days", 0, 0},
		}},
		sheetRows{name: "Moves", rows: [][]any{
			{"Unit", "Tenant", "Move In Date", "Move Out Date"},
			{"A1", "Lee", "9/3/2025", nil},
		}},
		sheetRows{name: "Notes", rows: [][]any{{"prepared by accounting"}}},
	)

	got := excel.NewRecognizer(parser.ScanOptions{}).RecognizeWorkbook(wb)
	want := []model.SheetType{
		model.SheetTypeStatement,
		model.SheetTypeBudget,
		model.SheetTypeAging,
		model.SheetTypeMoveLog,
		model.SheetTypeUnknown,
	}
	if len(got) != len(want) {
		t.Fatalf("recognitions=%d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Type != w {
			t.Fatalf("sheet %s type=%s score=%.2f missing=%v, want %s", got[i].SheetName, got[i].Type, got[i].Score, got[i].MissingFields, w)
		}
	}
	if got[0].Score != 1 {
		t.Fatalf("statement score=%v, want 1", got[0].Score)
	}
}

func TestRecognizeStatementMissingAnchors(t *testing.T) {
	t.Parallel()

	s := statementSheet("Sheet A")
	s.rows = s.rows[:5]
	wb := loadBuilt(t, s)

	r := excel.NewRecognizer(parser.ScanOptions{}).RecognizeWorkbook(wb)[0]
	if r.Type != model.SheetTypeUnknown {
		t.Fatalf("type=%s score=%v, want unknown", r.Type, r.Score)
	}
	if len(r.MissingFields) == 0 {
		t.Fatalf("expected missing fields")
	}
}
