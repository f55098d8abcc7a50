package parser

import (
	"errors"
	"testing"

	"proforma/internal/model"
)

func budgetGrid() model.Grid {
	return model.Grid{
		cells("Budget Comparison", nil, "Sunrise Storage"),
		cells(nil, nil, "PTD Actual", "PTD Budget", "Variance", "% Var", "YTD Actual", "YTD Budget", "YTD Variance", "YTD %Var"),
		cells("4000", "Rental Income", 1000, 900, 100, 0.1111, 9000, 8000, 1000, 0.125),
		cells("4100", "Late Fees", nil, 50, nil, nil, 500, 450, 50, "11.11%"),
		cells("5000", "Payroll", 300, 320, -20, -0.0625, 3100, 3200, -100, -0.03125),
	}
}

func TestExtractBudget_Tokens(t *testing.T) {
	t.Parallel()

	res, err := ExtractBudget("Budget", budgetGrid())
	if err != nil {
		t.Fatalf("ExtractBudget() error = %v", err)
	}
	if res.HeaderRow != 2 || res.HeaderCol != 3 {
		t.Fatalf("header at %d/%d, want 2/3", res.HeaderRow, res.HeaderCol)
	}
	want := map[string]float64{
		"RENTINCCM":        1000,
		"RENTINCCMBUD":     900,
		"RENTINCCMVARPER":  11.11,
		"RENTINCYTDVARPER": 12.5,
		"LATEFEEYTDVARPER": 11.11,
		"PAYROLLCMVAR":     -20,
	}
	for tok, v := range want {
		if got, ok := res.Tokens[tok]; !ok || got != v {
			t.Fatalf("%s=%v (present=%v), want %v", tok, got, ok, v)
		}
	}
	if _, ok := res.Tokens["LATEFEECM"]; ok {
		t.Fatalf("blank cell must not produce a token")
	}
	if len(res.Found)+len(res.Missing) != BudgetLineCount() {
		t.Fatalf("found=%d missing=%d, want total %d", len(res.Found), len(res.Missing), BudgetLineCount())
	}
}

func TestExtractBudget_HeaderNotFound(t *testing.T) {
	t.Parallel()

	g := model.Grid{cells(nil, "PTD Actual", "PTD Budget", "%Var")}
	if _, err := ExtractBudget("Budget", g); !errors.Is(err, ErrHeaderRowNotFound) {
		t.Fatalf("err=%v, want ErrHeaderRowNotFound", err)
	}
}

func TestBackfillCurrentMonth(t *testing.T) {
	t.Parallel()

	res, err := ExtractBudget("Budget", budgetGrid())
	if err != nil {
		t.Fatalf("ExtractBudget() error = %v", err)
	}
	statements := model.Grid{
		cells("Account", nil, "Current Month", "Year To Date"),
		cells(nil, "Rental Income", 1111, 9999),
		cells(nil, "Late Fees", 60, 560),
	}
	if n := BackfillCurrentMonth(&res, "Statements", statements); n != 1 {
		t.Fatalf("backfilled=%d, want 1", n)
	}
	if res.Tokens["RENTINCCM"] != 1000 {
		t.Fatalf("existing value overwritten: %v", res.Tokens["RENTINCCM"])
	}
	if res.Tokens["LATEFEECM"] != 60 || res.Tokens["LATEFEECMVAR"] != 10 || res.Tokens["LATEFEECMVARPER"] != 20 {
		t.Fatalf("late fee backfill cm=%v var=%v per=%v", res.Tokens["LATEFEECM"], res.Tokens["LATEFEECMVAR"], res.Tokens["LATEFEECMVARPER"])
	}
}

func TestBudgetLineCount(t *testing.T) {
	t.Parallel()

	if BudgetLineCount() != 33 {
		t.Fatalf("lines=%d, want 33", BudgetLineCount())
	}
	seen := map[string]bool{}
	for _, l := range budgetLines {
		if seen[l.BaseKey] {
			t.Fatalf("duplicate base key %s", l.BaseKey)
		}
		seen[l.BaseKey] = true
	}
}
