package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"proforma/internal/model"
	"proforma/internal/parser"
)

type fakeGenerator struct {
	text   string
	err    error
	block  bool
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testFields = []parser.RequiredField{
	{Field: model.KeyTotalOperatingIncome},
	{Field: model.KeyNetOperatingIncome},
}

func TestSuggest_Disabled(t *testing.T) {
	s := NewSuggester(nil, 0, quietLogger())
	got, err := s.Suggest(context.Background(), []string{"Total Rev"}, testFields)
	if err != nil || len(got) != 0 {
		t.Fatalf("disabled suggester: %v %v", got, err)
	}
}

func TestSuggest_FiltersUnknownFieldsAndHeaders(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `[
		{"header": "Total Rev", "field": "Total Operating Income", "confidence": 0.7, "reason": "abbrev"},
		{"header": "NOI Final", "field": "Net Operating Income", "confidence": 1.4},
		{"header": "Total Rev", "field": "Net Operating Income", "confidence": 0.9},
		{"header": "Sundry", "field": "Made Up Field", "confidence": 0.9},
		{"header": "Never Asked", "field": "Net Operating Income", "confidence": 0.9}
	]` + "\n```"}
	s := NewSuggester(gen, time.Second, quietLogger())

	got, err := s.Suggest(context.Background(), []string{"Total Rev", "NOI Final", "Sundry"}, testFields)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Header != "NOI Final" || got[0].Confidence != 1 {
		t.Fatalf("confidence should clamp and sort first: %+v", got[0])
	}
	if got[1].Field != model.KeyTotalOperatingIncome || got[1].Reason != "abbrev" {
		t.Fatalf("first answer per header wins: %+v", got[1])
	}
	if gen.prompt == "" {
		t.Fatalf("prompt not sent")
	}
}

func TestSuggest_RepairsTruncatedJSON(t *testing.T) {
	gen := &fakeGenerator{text: `{"suggestions": [{"header": "Total Rev", "field": "Total Operating Income", "confidence": 0.8},`}
	s := NewSuggester(gen, time.Second, quietLogger())

	got, err := s.Suggest(context.Background(), []string{"Total Rev"}, testFields)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 1 || got[0].Field != model.KeyTotalOperatingIncome {
		t.Fatalf("got %+v", got)
	}
}

func TestSuggest_GeneratorErrorYieldsEmpty(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := NewSuggester(&fakeGenerator{err: boom}, time.Second, quietLogger())

	got, err := s.Suggest(context.Background(), []string{"Total Rev"}, testFields)
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestSuggest_Timeout(t *testing.T) {
	s := NewSuggester(&fakeGenerator{block: true}, 20*time.Millisecond, quietLogger())

	start := time.Now()
	got, err := s.Suggest(context.Background(), []string{"Total Rev"}, testFields)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), "", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestDecodeSuggestions_Garbage(t *testing.T) {
	if _, err := decodeSuggestions(`{"answer": 42}`); err == nil {
		t.Fatalf("expected error for object without suggestions")
	}
}
