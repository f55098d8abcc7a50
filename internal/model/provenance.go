package model

// ProvenanceEntry 一次可审计的决策：哪个 token 来自哪里、为何被跳过
type ProvenanceEntry struct {
	Token        string `json:"token"`
	SourceSheet  string `json:"sourceSheet,omitempty"`
	SourceCell   string `json:"sourceCell,omitempty"`
	MatchedAlias string `json:"matchedAlias,omitempty"`
	ComputedFrom string `json:"computedFrom,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Provenance 决策记录列表
type Provenance []ProvenanceEntry

// Add 追加一条记录
func (p *Provenance) Add(e ProvenanceEntry) {
	*p = append(*p, e)
}

// Skipped 过滤出被跳过（带 Note 且无 SourceCell）的条目
func (p Provenance) Skipped() []ProvenanceEntry {
	out := make([]ProvenanceEntry, 0)
	for _, e := range p {
		if e.Note != "" && e.SourceCell == "" {
			out = append(out, e)
		}
	}
	return out
}
