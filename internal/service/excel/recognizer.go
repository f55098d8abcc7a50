package excel

import (
	"strings"

	"proforma/internal/model"
	"proforma/internal/parser"
)

// 低于该分数的 sheet 视为 unknown
const minRecognitionScore = 0.5

// 表头文本扫描行数
const probeRows = 60

type requirement struct {
	Key   string
	Match func(p *sheetProbe) bool
}

type sheetRule struct {
	Type         model.SheetType
	Requirements []requirement
	NameBoost    func(sheetName string) float64
}

// sheetProbe 一次性计算的 sheet 特征，供所有规则复用
type sheetProbe struct {
	name   string
	texts  map[string]struct{}
	band   bool
	layout model.LayoutDescriptor
}

func (p *sheetProbe) hasText(want string) bool {
	_, ok := p.texts[parser.NormalizeAnchorText(want)]
	return ok
}

func (p *sheetProbe) containsText(subs ...string) bool {
	for t := range p.texts {
		all := true
		for _, s := range subs {
			if !strings.Contains(t, s) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (p *sheetProbe) anchorFound(kind model.AnchorKind) bool {
	return p.band && p.layout.AnchorSources[kind] == model.AnchorFound
}

// Recognizer 工作簿 sheet 识别器
type Recognizer struct {
	rules []*sheetRule
	scan  parser.ScanOptions
}

// NewRecognizer 创建识别器
func NewRecognizer(scan parser.ScanOptions) *Recognizer {
	return &Recognizer{rules: defaultSheetRules(), scan: scan}
}

// RecognizeWorkbook 识别工作簿内每个 sheet 的类型（按工作簿顺序返回）
func (r *Recognizer) RecognizeWorkbook(wb *Workbook) []model.SheetRecognition {
	if wb == nil {
		return []model.SheetRecognition{}
	}
	out := make([]model.SheetRecognition, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		out = append(out, r.Recognize(s))
	}
	return out
}

// Recognize 识别单个 sheet
func (r *Recognizer) Recognize(s model.Sheet) model.SheetRecognition {
	p := r.probe(s)

	bestType := model.SheetTypeUnknown
	bestScore := 0.0
	bestMissing := []string{}
	for _, rule := range r.rules {
		score, missing := scoreRule(rule, p)
		if score > bestScore {
			bestType = rule.Type
			bestScore = score
			bestMissing = missing
		}
	}
	if bestScore < minRecognitionScore {
		bestType = model.SheetTypeUnknown
	}
	return model.SheetRecognition{
		SheetName:     s.Name,
		Type:          bestType,
		Score:         bestScore,
		MissingFields: bestMissing,
	}
}

func (r *Recognizer) probe(s model.Sheet) *sheetProbe {
	p := &sheetProbe{name: s.Name, texts: make(map[string]struct{})}
	for i := 0; i < min(len(s.Grid), probeRows); i++ {
		for _, c := range s.Grid[i] {
			if c.Kind != model.CellText {
				continue
			}
			if t := parser.NormalizeAnchorText(c.Str); t != "" {
				p.texts[t] = struct{}{}
			}
		}
	}
	// 锚点可能在 probeRows 之外，布局推断扫描整个网格
	p.layout, p.band = parser.DetectLayout(s.Name, s.Grid, parser.LayoutOptions{Scan: r.scan})
	return p
}

func scoreRule(rule *sheetRule, p *sheetProbe) (float64, []string) {
	hit := 0
	missing := make([]string, 0, len(rule.Requirements))
	for _, req := range rule.Requirements {
		if req.Match(p) {
			hit++
		} else {
			missing = append(missing, req.Key)
		}
	}

	if len(rule.Requirements) == 0 {
		return 0, missing
	}

	score := float64(hit) / float64(len(rule.Requirements))
	if rule.NameBoost != nil && hit > 0 {
		score += rule.NameBoost(p.name)
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, missing
}

func defaultSheetRules() []*sheetRule {
	reqExact := func(key string) requirement {
		return requirement{
			Key:   key,
			Match: func(p *sheetProbe) bool { return p.hasText(key) },
		}
	}
	reqContains := func(key string, subs ...string) requirement {
		return requirement{
			Key:   key,
			Match: func(p *sheetProbe) bool { return p.containsText(subs...) },
		}
	}
	reqAnchor := func(key string, kind model.AnchorKind) requirement {
		return requirement{
			Key:   key,
			Match: func(p *sheetProbe) bool { return p.anchorFound(kind) },
		}
	}
	boostByKeyword := func(v float64, keywords ...string) func(string) float64 {
		return func(sheetName string) float64 {
			name := strings.ToLower(sheetName)
			for _, kw := range keywords {
				if strings.Contains(name, kw) {
					return v
				}
			}
			return 0
		}
	}

	statement := []requirement{
		{Key: "12-month band", Match: func(p *sheetProbe) bool { return p.band }},
		reqAnchor("Income", model.AnchorIncome),
		reqAnchor("Total Operating Income", model.AnchorTotalIncome),
		reqAnchor("Expenses", model.AnchorExpense),
		reqAnchor("Total Operating Expense", model.AnchorTotalExpense),
	}

	budget := []requirement{
		reqExact("PTD Actual"),
		reqExact("PTD Budget"),
		reqExact("Variance"),
		reqContains("%Var", "%"),
		reqExact("YTD Actual"),
		reqExact("YTD Budget"),
		reqExact("YTD Variance"),
	}

	aging := []requirement{
		reqContains("0-10", "0-10"),
		reqContains("11-30", "11-30"),
		reqContains("31-60", "31-60"),
		reqContains("61-90", "61-90"),
		reqContains("91-120", "91-120"),
	}

	moveLog := []requirement{
		reqContains("Move In", "move", "in"),
		reqContains("Move Out", "move", "out"),
		reqContains("Unit", "unit"),
	}

	return []*sheetRule{
		{
			Type:         model.SheetTypeStatement,
			Requirements: statement,
			NameBoost:    boostByKeyword(0.2, "12 month", "t12", "trailing", "income statement", "operating statement", "p&l"),
		},
		{
			Type:         model.SheetTypeBudget,
			Requirements: budget,
			NameBoost:    boostByKeyword(0.2, "budget"),
		},
		{
			Type:         model.SheetTypeAging,
			Requirements: aging,
			NameBoost:    boostByKeyword(0.2, "aging", "delinquen"),
		},
		{
			Type:         model.SheetTypeMoveLog,
			Requirements: moveLog,
			NameBoost:    boostByKeyword(0.2, "move"),
		},
	}
}
