package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
)

func writeStatement(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	band := []any{nil, nil}
	for _, m := range []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"} {
		band = append(band, m+"-2025")
	}
	row := func(label string, v float64) []any {
		out := []any{nil, label}
		for i := 0; i < 12; i++ {
			out = append(out, v)
		}
		return out
	}
	rows := [][]any{
		band,
		{nil, "Income"},
		row("Rental Income", 1100),
		row("Total Operating Income", 1100),
		{nil, "Expenses"},
		row("Payroll", 300),
		row("Total Operating Expense", 300),
		row("Net Operating Income", 800),
	}
	for i, r := range rows {
		if err := f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+3), &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	base := []string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "--data-dir", t.TempDir(), "--log-level", "error"}
	rootCmd.SetArgs(append(base, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestNormalizeCommand_SingleFile(t *testing.T) {
	path := writeStatement(t, t.TempDir(), "t12.xlsx")

	out := execute(t, "normalize", path)
	var res model.NormalizeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Detected == nil || res.Detected.MonthRow != 3 {
		t.Fatalf("detected=%+v", res.Detected)
	}
	if res.Series.NOI[0] != 800 {
		t.Fatalf("noi=%v, want 800", res.Series.NOI[0])
	}
}

func TestExportCommand_BatchWritesOnePerFile(t *testing.T) {
	in := t.TempDir()
	a := writeStatement(t, in, "north.xlsx")
	b := writeStatement(t, in, "south.xlsx")
	outDir := t.TempDir()

	out := execute(t, "export", "--out", outDir, a, b)
	lines := strings.Fields(strings.TrimSpace(out))
	if len(lines) != 2 {
		t.Fatalf("output=%q", out)
	}
	for _, want := range []string{"Proforma_north_Dec-2025.xlsx", "Proforma_south_Dec-2025.xlsx"} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Fatalf("missing %s: %v", want, err)
		}
	}
}

func TestReportCommand_TokensFile(t *testing.T) {
	dir := t.TempDir()
	tokens := filepath.Join(dir, "tokens.json")
	if err := os.WriteFile(tokens, []byte(`{"NOICM": 600, "MOVEINS": 3}`), 0644); err != nil {
		t.Fatalf("write tokens: %v", err)
	}

	out := execute(t, "report", "--tokens", tokens, "--facility", "Sunrise", "--period", "Sep 2025", "--out", dir)
	want := filepath.Join(dir, "Owner_Report_Sunrise_Sep-2025.pptx")
	if strings.TrimSpace(out) != want {
		t.Fatalf("output=%q, want %q", out, want)
	}
	if fi, err := os.Stat(want); err != nil || fi.Size() == 0 {
		t.Fatalf("report not written: %v", err)
	}
}
