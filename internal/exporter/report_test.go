package exporter

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/unidoc/unioffice/presentation"
)

func slideTexts(ppt *presentation.Presentation) []string {
	var out []string
	for _, s := range ppt.Slides() {
		for _, p := range slideParagraphs(s.X()) {
			if text, _ := paragraphText(p); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func TestReplaceTokens_DefaultReport(t *testing.T) {
	ppt := NewDefaultReport()
	tokens := PlaceholderTokens(ppt)
	if len(tokens) == 0 {
		t.Fatalf("default report should carry placeholders")
	}

	res := ReplaceTokens(ppt, map[string]string{"NOICM": "$600", "MOVEINS": "12"})
	if res.Replaced["NOICM"] != 1 || res.Replaced["MOVEINS"] != 1 {
		t.Fatalf("unexpected replaced: %v", res.Replaced)
	}
	for _, m := range res.Missing {
		if m == "NOICM" {
			t.Fatalf("NOICM reported missing")
		}
	}
	if len(res.Missing) != len(tokens)-2 {
		t.Fatalf("missing=%v tokens=%v", res.Missing, tokens)
	}

	joined := strings.Join(slideTexts(ppt), "\n")
	if !strings.Contains(joined, "Net Operating Income: $600") || !strings.Contains(joined, "Move-ins: 12") {
		t.Fatalf("tokens not substituted:\n%s", joined)
	}
	if !strings.Contains(joined, "{{NOICMBUD}}") {
		t.Fatalf("missing tokens should stay in place:\n%s", joined)
	}
}

func TestReplaceTokens_SplitRuns(t *testing.T) {
	ppt := presentation.New()
	para := ppt.AddSlide().AddTextBox().AddParagraph()
	para.AddRun().SetText("NOI is {{NO")
	para.AddRun().SetText("ICM}} this month")

	res := ReplaceTokens(ppt, map[string]string{"NOICM": "$600"})
	if res.Replaced["NOICM"] != 1 {
		t.Fatalf("split placeholder not merged: %+v", res)
	}
	if got := slideTexts(ppt); !reflect.DeepEqual(got, []string{"NOI is $600 this month"}) {
		t.Fatalf("unexpected text: %v", got)
	}
}

func TestReportRenderer_RoundTrip(t *testing.T) {
	t.Setenv(EnvReportTemplatePath, "")

	var buf bytes.Buffer
	res, err := NewReportRenderer("").Render(&buf, map[string]string{"NETMOVES": "5"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if res.Slides != len(defaultReportSlides) {
		t.Fatalf("slides=%d", res.Slides)
	}

	ppt, err := ReadReport(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if !strings.Contains(strings.Join(slideTexts(ppt), "\n"), "Net: 5") {
		t.Fatalf("substitution lost after save")
	}
	for _, tok := range PlaceholderTokens(ppt) {
		if tok == "NETMOVES" {
			t.Fatalf("NETMOVES still present after render")
		}
	}
}
