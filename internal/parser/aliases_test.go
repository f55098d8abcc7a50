package parser

import (
	"testing"

	"proforma/internal/model"
)

func TestAliasTable_NoConflicts(t *testing.T) {
	t.Parallel()

	if _, err := buildAliasIndex(aliasTable); err != nil {
		t.Fatalf("buildAliasIndex() error = %v", err)
	}

	conflicting := []aliasEntry{
		{Key: "A", Aliases: []string{"Rent"}},
		{Key: "B", Aliases: []string{"rent"}},
	}
	if _, err := buildAliasIndex(conflicting); err == nil {
		t.Fatalf("expected conflict error")
	}

	split := []aliasEntry{
		{Key: "A", Section: model.SectionIncome, Aliases: []string{"Insurance"}},
		{Key: "B", Section: model.SectionExpense, Aliases: []string{"insurance"}},
	}
	idx, err := buildAliasIndex(split)
	if err != nil {
		t.Fatalf("cross-section alias rejected: %v", err)
	}
	if len(idx["insurance"]) != 2 {
		t.Fatalf("index=%+v", idx["insurance"])
	}
}

func TestCanonicalizeLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		section model.Section
		key     string
		mapped  bool
	}{
		{"Bad Debt", model.SectionIncome, model.KeyBadDebt, true},
		{"  RENTAL INCOME ", model.SectionIncome, model.KeyRentalIncome, true},
		{"Repairs and Maintenance", model.SectionExpense, model.KeyRepairs, true},
		{"Salaries & Wages", model.SectionExpense, model.KeyPayroll, true},
		{"Storage Lock Sales", model.SectionIncome, "Storage Lock Sales", false},
		{"Insurance", model.SectionIncome, model.KeyTenantInsurance, true},
		{"Insurance", model.SectionExpense, model.KeyPropertyInsurance, true},
		{"Payroll", model.SectionIncome, "Payroll", false},
		{"Payroll", model.SectionOther, model.KeyPayroll, true},
		{"Total Income", model.SectionExpense, model.KeyTotalOperatingIncome, true},
	}
	for _, tc := range cases {
		got := CanonicalizeLabel(tc.raw, tc.section)
		if got.Key != tc.key || got.Mapped != tc.mapped {
			t.Fatalf("CanonicalizeLabel(%q, %s)=%+v, want key=%q mapped=%v", tc.raw, tc.section, got, tc.key, tc.mapped)
		}
	}
	if got := CanonicalizeLabel("Payroll", model.SectionIncome); got.Note == "" {
		t.Fatalf("cross-section alias must carry a note: %+v", got)
	}
}

func TestDestinationLabels_KeyFirst(t *testing.T) {
	t.Parallel()

	labels := DestinationLabels(model.KeyBadDebt)
	if len(labels) < 2 || labels[0] != model.KeyBadDebt {
		t.Fatalf("labels=%v", labels)
	}
	if got := DestinationLabels("Custom Line"); len(got) != 1 || got[0] != "Custom Line" {
		t.Fatalf("unknown key labels=%v", got)
	}
}

func TestKeySection(t *testing.T) {
	t.Parallel()

	if KeySection(model.KeyRentalIncome) != model.SectionIncome {
		t.Fatalf("rental income must be income")
	}
	if KeySection(model.KeyUtilities) != model.SectionExpense {
		t.Fatalf("utilities must be expense")
	}
	if KeySection("whatever") != model.SectionOther {
		t.Fatalf("unknown key must be other")
	}
}

func TestFieldMapper_Hint(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper()
	if got := m.Hint("Rental Incme"); got != model.KeyRentalIncome {
		t.Fatalf("Hint()=%q, want %q", got, model.KeyRentalIncome)
	}
	if got := m.Hint(""); got != "" {
		t.Fatalf("empty hint=%q", got)
	}
}
