package parser

import (
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
)

func setCell(t *testing.T, g model.Grid, ref string, c model.Cell) model.Grid {
	t.Helper()
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		t.Fatalf("bad ref %s: %v", ref, err)
	}
	for len(g) < row {
		g = append(g, nil)
	}
	for len(g[row-1]) < col {
		g[row-1] = append(g[row-1], model.EmptyCell())
	}
	g[row-1][col-1] = c
	return g
}

func agingGrid(t *testing.T) model.Grid {
	t.Helper()
	var g model.Grid
	for i, b := range DefaultAgingLayout().Buckets {
		n := float64(i + 1)
		row := strconv.Itoa(b.Row)
		g = setCell(t, g, "K"+row, model.TextCell(b.Label+" Days"))
		g = setCell(t, g, "L"+row, model.NumberCell(100*n))
		g = setCell(t, g, "M"+row, model.NumberCell(n))
		g = setCell(t, g, "N"+row, model.NumberCell(0.1))
	}
	return g
}

func TestExtractAging_BucketsAndTotals(t *testing.T) {
	t.Parallel()

	res, err := ExtractAging("Aging", agingGrid(t), AgingLayout{})
	if err != nil {
		t.Fatalf("ExtractAging() error = %v", err)
	}
	want := map[string]float64{
		"DELQ0TO10DOL":     100,
		"DELQ361PLUSUNITS": 8,
		"DELQ31TO60PCT":    10,
		"DELQTOTALDOL":     3600,
		"DELQTOTALUNITS":   36,
		"DELQTOTALPCT":     80,
		"DELQOVER30DOL":    3300,
		"DELQOVER30UNITS":  33,
	}
	for tok, v := range want {
		if got := res.Tokens[tok]; got != v {
			t.Fatalf("%s=%v, want %v", tok, got, v)
		}
	}
	if len(res.Provenance.Skipped()) != 0 {
		t.Fatalf("unexpected label warnings: %+v", res.Provenance.Skipped())
	}
}

func TestExtractAging_UnexpectedLabelNoted(t *testing.T) {
	t.Parallel()

	g := setCell(t, agingGrid(t), "K12", model.TextCell("Prepaid"))
	res, err := ExtractAging("Aging", g, AgingLayout{})
	if err != nil {
		t.Fatalf("ExtractAging() error = %v", err)
	}
	if len(res.Provenance.Skipped()) != 1 {
		t.Fatalf("notes=%+v, want one label warning", res.Provenance.Skipped())
	}
	if res.Tokens["DELQ0TO10DOL"] != 100 {
		t.Fatalf("value must still be read")
	}
}

func TestExtractAging_BadColumn(t *testing.T) {
	t.Parallel()

	layout := DefaultAgingLayout()
	layout.DollarsCol = "1L"
	if _, err := ExtractAging("Aging", nil, layout); err == nil {
		t.Fatalf("expected column error")
	}
}
