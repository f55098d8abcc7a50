package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"proforma/internal/parser"
)

// DefaultTimeout 单次建议的超时
const DefaultTimeout = 20 * time.Second

// Suggestion 一条 AI 表头建议；只作为提示返回，不会自动采纳
type Suggestion struct {
	Header     string  `json:"header"`
	Field      string  `json:"field"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Suggester 为模糊匹配未能自动采纳的表头请求 AI 建议
type Suggester struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewSuggester gen 为空时 Suggest 恒返回空结果
func NewSuggester(gen Generator, timeout time.Duration, logger *slog.Logger) *Suggester {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Suggester{gen: gen, timeout: timeout, logger: logger}
}

// Enabled 是否配置了生成后端
func (s *Suggester) Enabled() bool {
	return s != nil && s.gen != nil
}

const systemPrompt = `You map spreadsheet column headers from self-storage operating statements to a fixed list of canonical fields.
Answer with a JSON array only. Each element: {"header": string, "field": string, "confidence": number between 0 and 1, "reason": string}.
Use only field names from the provided list. Omit headers you cannot map.`

type promptInput struct {
	Headers []string `json:"headers"`
	Fields  []string `json:"fields"`
}

// Suggest 失败（超时、网络、无法解析）时返回空结果与错误，调用方只记录不中断；
// 结果中的 field 必须属于 fields，其余丢弃。
func (s *Suggester) Suggest(ctx context.Context, headers []string, fields []parser.RequiredField) ([]Suggestion, error) {
	out := []Suggestion{}
	if !s.Enabled() || len(headers) == 0 {
		return out, nil
	}
	if fields == nil {
		fields = parser.DefaultRequiredFields()
	}

	known := make(map[string]bool, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		known[f.Field] = true
		names = append(names, f.Field)
	}
	asked := make(map[string]bool, len(headers))
	for _, h := range headers {
		asked[h] = true
	}

	prompt, err := json.Marshal(promptInput{Headers: headers, Fields: names})
	if err != nil {
		return out, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	text, err := s.gen.Generate(ctx, systemPrompt, string(prompt))
	if err != nil {
		s.logger.Warn("header suggestion failed", "headers", len(headers), "elapsed", time.Since(started), "error", err)
		return out, err
	}

	raw, err := decodeSuggestions(text)
	if err != nil {
		s.logger.Warn("header suggestion unparseable", "error", err, "response_len", len(text))
		return out, err
	}

	seen := map[string]bool{}
	for _, sg := range raw {
		sg.Header = strings.TrimSpace(sg.Header)
		sg.Field = strings.TrimSpace(sg.Field)
		if !asked[sg.Header] || !known[sg.Field] || seen[sg.Header] {
			continue
		}
		seen[sg.Header] = true
		sg.Confidence = min(max(sg.Confidence, 0), 1)
		out = append(out, sg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	s.logger.Debug("header suggestions", "asked", len(headers), "returned", len(out), "elapsed", time.Since(started))
	return out, nil
}

// decodeSuggestions 依次尝试：标准 JSON、json-repair 修复、hjson 宽松解析；
// 同时接受裸数组与 {"suggestions": [...]} 两种外形。
func decodeSuggestions(text string) ([]Suggestion, error) {
	text = stripFence(text)

	if out, err := unmarshalSuggestions([]byte(text)); err == nil {
		return out, nil
	}
	if repaired, err := jsonrepair.RepairJSON(text); err == nil {
		if out, err := unmarshalSuggestions([]byte(repaired)); err == nil {
			return out, nil
		}
	}

	var loose any
	if err := hjson.Unmarshal([]byte(text), &loose); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	b, err := json.Marshal(loose)
	if err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return unmarshalSuggestions(b)
}

func unmarshalSuggestions(b []byte) ([]Suggestion, error) {
	var arr []Suggestion
	if err := json.Unmarshal(b, &arr); err == nil {
		return arr, nil
	}
	var wrapped struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Suggestions == nil {
		return nil, fmt.Errorf("no suggestions array in response")
	}
	return wrapped.Suggestions, nil
}

// stripFence 去掉 ```json 代码块包裹
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
