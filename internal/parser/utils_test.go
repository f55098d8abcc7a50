package parser

import "testing"

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Repairs & Maint.":                    "repairs and maint",
		"  Bad Debt/Rental Refunds ":          "bad debt rental refunds",
		"Rental Income (1% monthly increase)": "rental income (1% monthly increase)",
		"Café   Sales":                        "cafe sales",
		"Write-Offs":                          "write offs",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestNormalizeHeaderKey(t *testing.T) {
	t.Parallel()

	if got := NormalizeHeaderKey(" YTD  %Var "); got != "ytd%var" {
		t.Fatalf("got=%q", got)
	}
	if NormalizeHeaderKey("% Var") != NormalizeHeaderKey("%Var") {
		t.Fatalf("expected whitespace-insensitive header keys")
	}
}

func TestNormalizeAnchorText(t *testing.T) {
	t.Parallel()

	if got := NormalizeAnchorText("  Total   OPERATING Income "); got != "total operating income" {
		t.Fatalf("got=%q", got)
	}
}
