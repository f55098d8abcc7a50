package exporter

import "testing"

func TestFormatToken(t *testing.T) {
	for _, tc := range []struct {
		token string
		value float64
		want  string
	}{
		{"NOICM", 1234567.4, "$1,234,567"},
		{"NOICMVAR", -2500, "($2,500)"},
		{"TOTINCCM", 999.5, "$1,000"},
		{"NOICMVARPER", 12.345, "12.35%"},
		{"DELQOVER30PCT", -3.1, "-3.10%"},
		{"DELQTOTALUNITS", 12, "12"},
		{"MOVEINSYTD", 1042, "1,042"},
		{"NETMOVES", -7, "-7"},
		{"RENTINCCM", 0, "$0"},
	} {
		if got := FormatToken(tc.token, tc.value); got != tc.want {
			t.Fatalf("FormatToken(%s, %v)=%q, want %q", tc.token, tc.value, got, tc.want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	out := FormatTokens(map[string]float64{"NOICM": 600, "NOICMVARPER": 10})
	if out["NOICM"] != "$600" || out["NOICMVARPER"] != "10.00%" {
		t.Fatalf("unexpected: %v", out)
	}
}

func TestFormatValues_Mixed(t *testing.T) {
	got := FormatValues(map[string]any{
		"NOICM":       600.0,
		"NOICMVARPER": 12.5,
		"FACILITY":    "Sunrise",
		"IGNORED":     true,
	})
	want := map[string]string{"NOICM": "$600", "NOICMVARPER": "12.50%", "FACILITY": "Sunrise"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s=%q, want %q", k, got[k], v)
		}
	}
}
