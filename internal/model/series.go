package model

// Series 12 个月的数值序列，顺序与月份带一致
type Series [12]float64

// IsZero 12 个月均为 0
func (s Series) IsZero() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// Add 逐月相加
func (s Series) Add(o Series) Series {
	for i := range s {
		s[i] += o[i]
	}
	return s
}

// Sub 逐月相减
func (s Series) Sub(o Series) Series {
	for i := range s {
		s[i] -= o[i]
	}
	return s
}

// SeriesMap 规范科目（或原始标签）到 12 月序列
type SeriesMap map[string]Series

// Totals 汇总序列：toi/toe/noi
type Totals struct {
	TOI Series `json:"toi"`
	TOE Series `json:"toe"`
	NOI Series `json:"noi"`
}

// Section 行所在的报表区间
type Section string

const (
	SectionIncome  Section = "income"
	SectionExpense Section = "expense"
	SectionTotal   Section = "total"
	SectionOther   Section = "other"
)

// SeriesLine 一条提取结果行（保留顺序与来源）
type SeriesLine struct {
	Key          string  `json:"key"`
	RawLabel     string  `json:"rawLabel"`
	Section      Section `json:"section"`
	Mapped       bool    `json:"mapped"`
	MatchedAlias string  `json:"matchedAlias,omitempty"`
	SourceRow    int     `json:"sourceRow"`
	Values       Series  `json:"values"`
	// BaseKey 跨区间拆分后的原始科目；未拆分时为空
	BaseKey string `json:"baseKey,omitempty"`
}

// LookupKey 在目标模板中反查行时使用的科目
func (l SeriesLine) LookupKey() string {
	if l.BaseKey != "" {
		return l.BaseKey
	}
	return l.Key
}
