package exporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/unidoc/unioffice/presentation"
	"github.com/unidoc/unioffice/schema/soo/dml"
	"github.com/unidoc/unioffice/schema/soo/pml"
)

// EnvReportTemplatePath 业主报告模板路径环境变量
const EnvReportTemplatePath = "PROFORMA_REPORT_TEMPLATE_PPTX"

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// ReportResult 报告渲染结果
type ReportResult struct {
	Replaced map[string]int `json:"replaced"`
	// Missing 模板中出现但没有取值的 token，原样保留
	Missing []string `json:"missing"`
	Slides  int      `json:"slides"`
}

// ReportRenderer 业主报告渲染器
type ReportRenderer struct {
	templatePath string
}

// NewReportRenderer templatePath 为空时依次尝试环境变量与内置模板
func NewReportRenderer(templatePath string) *ReportRenderer {
	return &ReportRenderer{templatePath: templatePath}
}

// TemplatePath 配置的模板路径（可能为空）
func (r *ReportRenderer) TemplatePath() string { return r.templatePath }

// Render 替换模板中的 {{TOKEN}} 并写出 pptx
func (r *ReportRenderer) Render(w io.Writer, tokens map[string]string) (ReportResult, error) {
	ppt, err := r.open()
	if err != nil {
		return ReportResult{}, err
	}
	res := ReplaceTokens(ppt, tokens)
	if err := ppt.Save(w); err != nil {
		return res, fmt.Errorf("save report: %w", err)
	}
	return res, nil
}

func (r *ReportRenderer) open() (*presentation.Presentation, error) {
	for _, p := range []string{strings.TrimSpace(r.templatePath), strings.TrimSpace(os.Getenv(EnvReportTemplatePath))} {
		if p == "" {
			continue
		}
		ppt, err := presentation.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open report template %s: %w", p, err)
		}
		return ppt, nil
	}
	return NewDefaultReport(), nil
}

// ReadReport 从内存读取 pptx（上传的模板）
func ReadReport(data []byte) (*presentation.Presentation, error) {
	ppt, err := presentation.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read report template: %w", err)
	}
	return ppt, nil
}

// defaultReportSlides 内置报告：每页标题 + 若干行
var defaultReportSlides = []struct {
	title string
	lines []string
}{
	{"Operating Summary", []string{
		"Total Operating Income: {{TOTINCCM}}",
		"Total Operating Expense: {{TOTEXPCM}}",
		"Net Operating Income: {{NOICM}} (budget {{NOICMBUD}}, variance {{NOICMVAR}} / {{NOICMVARPER}})",
		"Year to date NOI: {{NOIYTD}} vs budget {{NOIYTDBUD}}",
	}},
	{"Delinquency", []string{
		"Total delinquent: {{DELQTOTALDOL}} across {{DELQTOTALUNITS}} units",
		"Over 30 days: {{DELQOVER30DOL}} ({{DELQOVER30PCT}})",
	}},
	{"Occupancy Activity", []string{
		"Move-ins: {{MOVEINS}}  Move-outs: {{MOVEOUTS}}  Net: {{NETMOVES}}",
		"Year to date net: {{NETMOVESYTD}}",
	}},
}

// NewDefaultReport 生成内置报告模板
func NewDefaultReport() *presentation.Presentation {
	ppt := presentation.New()
	for _, s := range defaultReportSlides {
		slide := ppt.AddSlide()
		title := slide.AddTextBox()
		title.AddParagraph().AddRun().SetText(s.title)
		body := slide.AddTextBox()
		for _, line := range s.lines {
			body.AddParagraph().AddRun().SetText(line)
		}
	}
	return ppt
}

// ReplaceTokens 逐段替换占位符。同一段落内被拆成多个 run 的占位符先合并再匹配，
// 合并后的文本写回第一个 run，其余 run 清空。
func ReplaceTokens(ppt *presentation.Presentation, tokens map[string]string) ReportResult {
	res := ReportResult{Replaced: map[string]int{}, Missing: []string{}}
	missing := map[string]bool{}

	slides := ppt.Slides()
	res.Slides = len(slides)
	for _, slide := range slides {
		for _, p := range slideParagraphs(slide.X()) {
			replaceParagraph(p, tokens, &res, missing)
		}
	}

	for k := range missing {
		res.Missing = append(res.Missing, k)
	}
	sort.Strings(res.Missing)
	return res
}

// PlaceholderTokens 列出模板中出现的全部 token（去重排序）
func PlaceholderTokens(ppt *presentation.Presentation) []string {
	seen := map[string]bool{}
	for _, slide := range ppt.Slides() {
		for _, p := range slideParagraphs(slide.X()) {
			text, _ := paragraphText(p)
			for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
				seen[m[1]] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func replaceParagraph(p *dml.CT_TextParagraph, tokens map[string]string, res *ReportResult, missing map[string]bool) {
	text, runs := paragraphText(p)
	if len(runs) == 0 || !strings.Contains(text, "{{") {
		return
	}
	changed := false
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := tokens[key]
		if !ok {
			missing[key] = true
			return m
		}
		res.Replaced[key]++
		changed = true
		return v
	})
	if !changed {
		return
	}
	runs[0].T = out
	for _, r := range runs[1:] {
		r.T = ""
	}
}

func paragraphText(p *dml.CT_TextParagraph) (string, []*dml.CT_RegularTextRun) {
	var b strings.Builder
	var runs []*dml.CT_RegularTextRun
	for _, eg := range p.EG_TextRun {
		if eg == nil || eg.R == nil {
			continue
		}
		runs = append(runs, eg.R)
		b.WriteString(eg.R.T)
	}
	return b.String(), runs
}

func slideParagraphs(sld *pml.Sld) []*dml.CT_TextParagraph {
	if sld == nil || sld.CSld == nil || sld.CSld.SpTree == nil {
		return nil
	}
	var out []*dml.CT_TextParagraph
	collectGroup(sld.CSld.SpTree, &out)
	return out
}

func collectGroup(g *pml.CT_GroupShape, out *[]*dml.CT_TextParagraph) {
	for _, choice := range g.Choice {
		if choice == nil {
			continue
		}
		for _, sp := range choice.Sp {
			if sp == nil || sp.TxBody == nil {
				continue
			}
			*out = append(*out, sp.TxBody.P...)
		}
		for _, sub := range choice.GrpSp {
			if sub != nil {
				collectGroup(sub, out)
			}
		}
	}
}
