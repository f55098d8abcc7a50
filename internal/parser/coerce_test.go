package parser

import (
	"testing"
	"time"

	"proforma/internal/model"
)

func TestParseNumber_FinancialFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"$ 1,000", 1000, true},
		{"(250.00)", -250, true},
		{"($1,250)", -1250, true},
		{"75-", -75, true},
		{"12.5%", 12.5, true},
		{"− 40", -40, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
		{"Rental Income", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseNumber(%q)=(%v,%v), want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCoerceNumber_NeverFails(t *testing.T) {
	t.Parallel()

	if got := CoerceNumber(model.TextCell("garbage")); got != 0 {
		t.Fatalf("garbage=%v, want 0", got)
	}
	if got := CoerceNumber(model.EmptyCell()); got != 0 {
		t.Fatalf("empty=%v, want 0", got)
	}
	if got := CoerceNumber(model.DateCell(time.Now())); got != 0 {
		t.Fatalf("date=%v, want 0", got)
	}
	if got := CoerceNumber(model.NumberCell(42.5)); got != 42.5 {
		t.Fatalf("number=%v, want 42.5", got)
	}
}

func TestCoerceMonthToken_Formats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cell model.Cell
		want model.MonthToken
	}{
		{model.TextCell("Oct-25"), "oct-2025"},
		{model.TextCell("Oct-2025"), "oct-2025"},
		{model.TextCell("October 2025"), "oct-2025"},
		{model.TextCell("Sept 2025"), "sep-2025"},
		{model.TextCell("oct '25"), "oct-2025"},
		{model.TextCell("10/2025"), "oct-2025"},
		{model.TextCell("2025-10"), "oct-2025"},
		{model.NumberCell(45931), "oct-2025"}, // 2025-10-01
		{model.DateCell(time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)), "oct-2025"},
	}
	for _, tc := range cases {
		got, ok := CoerceMonthToken(tc.cell)
		if !ok || got != tc.want {
			t.Fatalf("CoerceMonthToken(%v)=(%q,%v), want %q", tc.cell, got, ok, tc.want)
		}
	}
}

func TestCoerceMonthToken_Rejects(t *testing.T) {
	t.Parallel()

	for _, c := range []model.Cell{
		model.TextCell("Total"),
		model.TextCell("13/2025"),
		model.TextCell("Mayor 2025"),
		model.NumberCell(1200),
		model.NumberCell(2025),
		model.EmptyCell(),
	} {
		if tok, ok := CoerceMonthToken(c); ok {
			t.Fatalf("CoerceMonthToken(%v)=%q, want rejection", c, tok)
		}
	}
}

func TestExcelSerialToTime(t *testing.T) {
	t.Parallel()

	got := ExcelSerialToTime(45931.75)
	want := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("serial=%v, want %v", got, want)
	}
}

func TestCoerceDate_TextAndSerial(t *testing.T) {
	t.Parallel()

	if d, ok := CoerceDate(model.TextCell("3/14/2025")); !ok || d.Month() != time.March || d.Day() != 14 {
		t.Fatalf("text date=%v ok=%v", d, ok)
	}
	if d, ok := CoerceDate(model.NumberCell(45931)); !ok || d.Month() != time.October {
		t.Fatalf("serial date=%v ok=%v", d, ok)
	}
	if _, ok := CoerceDate(model.TextCell("soon")); ok {
		t.Fatalf("expected rejection")
	}
}
