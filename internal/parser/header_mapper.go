package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultConfidenceThreshold 自动采纳表头映射的默认置信度
const DefaultConfidenceThreshold = 0.88

// 映射状态
const (
	MappingAuto   = "auto"
	MappingManual = "manual"
	MappingNone   = "none"
)

// 缩写前缀（"rev" -> "revenue"）按此比例计分
const prefixCredit = 0.95

// Scorer 相似度打分，返回 [0,1]
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc 函数适配器
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// RequiredField 必填字段及其同义词
type RequiredField struct {
	Field    string   `json:"field"`
	Synonyms []string `json:"synonyms"`
}

// HeaderMapping 单个上传表头的映射建议
type HeaderMapping struct {
	Header         string  `json:"header"`
	Field          string  `json:"field,omitempty"`
	Suggestion     string  `json:"suggestion,omitempty"`
	MatchedSynonym string  `json:"matchedSynonym,omitempty"`
	Score          float64 `json:"score"`
	Status         string  `json:"status"`
}

// HeaderMapper 上传表头到必填字段的模糊映射（仅用于向导建议，需人工确认）
type HeaderMapper struct {
	fields    []RequiredField
	scorer    Scorer
	threshold float64
}

// NewHeaderMapper 创建表头映射器；scorer 为空时使用 DefaultScorer，threshold<=0 时使用默认值
func NewHeaderMapper(fields []RequiredField, scorer Scorer, threshold float64) *HeaderMapper {
	if scorer == nil {
		scorer = ScorerFunc(DefaultScore)
	}
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if fields == nil {
		fields = DefaultRequiredFields()
	}
	return &HeaderMapper{fields: fields, scorer: scorer, threshold: threshold}
}

// DefaultRequiredFields 以规范科目及其别名作为同义词
func DefaultRequiredFields() []RequiredField {
	out := make([]RequiredField, 0, len(aliasTable))
	for _, e := range aliasTable {
		syn := make([]string, 0, len(e.Aliases)+1)
		syn = append(syn, e.Key)
		syn = append(syn, e.Aliases...)
		out = append(out, RequiredField{Field: e.Key, Synonyms: syn})
	}
	return out
}

// Map 逐个表头给出映射建议
func (m *HeaderMapper) Map(headers []string) []HeaderMapping {
	out := make([]HeaderMapping, 0, len(headers))
	for _, h := range headers {
		out = append(out, m.Best(h))
	}
	return out
}

// Best 对单个表头取所有字段所有同义词的最高分
func (m *HeaderMapper) Best(header string) HeaderMapping {
	res := HeaderMapping{Header: header, Status: MappingNone}
	if strings.TrimSpace(header) == "" {
		return res
	}

	for _, f := range m.fields {
		for _, syn := range f.Synonyms {
			s := m.scorer.Score(header, syn)
			if s > res.Score {
				res.Score = s
				res.Suggestion = f.Field
				res.MatchedSynonym = syn
			}
		}
	}

	switch {
	case res.Score >= m.threshold:
		res.Status = MappingAuto
		res.Field = res.Suggestion
	case res.Score > 0:
		res.Status = MappingManual
	}
	return res
}

// DefaultScore 取编辑距离相似度与词元重合度（支持缩写前缀）的较大者
func DefaultScore(a, b string) float64 {
	na, nb := NormalizeLabel(a), NormalizeLabel(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return max(editSimilarity(na, nb), tokenSimilarity(na, nb))
}

func editSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// tokenSimilarity Dice 系数；a 中的词若是 b 中某词的前缀（至少 3 个字符）按 prefixCredit 计分
func tokenSimilarity(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	used := make([]bool, len(tb))
	matched := 0.0
	for _, x := range ta {
		best, bestIdx := 0.0, -1
		for j, y := range tb {
			if used[j] {
				continue
			}
			credit := 0.0
			switch {
			case x == y:
				credit = 1
			case len(x) >= 3 && strings.HasPrefix(y, x):
				credit = prefixCredit
			}
			if credit > best {
				best, bestIdx = credit, j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			matched += best
		}
	}
	return 2 * matched / float64(len(ta)+len(tb))
}
