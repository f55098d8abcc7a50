package parser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/schollz/closestmatch"

	"proforma/internal/model"
)

// LabelMatch 行标签的规范化结果
type LabelMatch struct {
	Key          string `json:"key"`
	MatchedAlias string `json:"matchedAlias,omitempty"`
	Mapped       bool   `json:"mapped"`
	Note         string `json:"note,omitempty"`
}

// CanonicalizeLabel 精确别名匹配，优先取行所在区间的科目；未收录的标签原样保留（不丢数据）。
// 别名只属于另一区间时不映射，原样保留并在 Note 中说明。
// section 为空或 SectionOther 时不限区间，按表内顺序取第一个。
func CanonicalizeLabel(raw string, section model.Section) LabelMatch {
	label := strings.TrimSpace(raw)
	cands := aliasIndex[NormalizeLabel(label)]
	for _, m := range cands {
		if m.section == section || m.section == model.SectionTotal || section == "" || section == model.SectionOther {
			return LabelMatch{Key: m.key, MatchedAlias: m.alias, Mapped: true}
		}
	}
	if len(cands) > 0 {
		return LabelMatch{
			Key:  label,
			Note: fmt.Sprintf("alias of %s line %q ignored in %s section", cands[0].section, cands[0].key, section),
		}
	}
	return LabelMatch{Key: label}
}

// FieldMapper 行标签映射器：精确映射 + 未映射标签的近似提示（仅供审计参考，不参与映射）
type FieldMapper struct {
	once   sync.Once
	hints  *closestmatch.ClosestMatch
	byNorm map[string]string
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// Map 规范化一个行标签
func (m *FieldMapper) Map(raw string, section model.Section) LabelMatch {
	return CanonicalizeLabel(raw, section)
}

// Hint 返回与未映射标签最接近的规范科目；没有可比项时返回空串
func (m *FieldMapper) Hint(raw string) string {
	m.once.Do(m.buildHints)
	n := NormalizeLabel(raw)
	if n == "" || m.hints == nil {
		return ""
	}
	closest := m.hints.Closest(n)
	if closest == "" {
		return ""
	}
	return m.byNorm[closest]
}

func (m *FieldMapper) buildHints() {
	m.byNorm = make(map[string]string, len(aliasIndex))
	words := make([]string, 0, len(aliasIndex))
	for n, matches := range aliasIndex {
		m.byNorm[n] = matches[0].key
		words = append(words, n)
	}
	if len(words) == 0 {
		return
	}
	m.hints = closestmatch.New(words, []int{2, 3})
}
