package exporter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
	"proforma/internal/parser"
)

// DefaultTemplateSheet 内置模板的 sheet 名
const DefaultTemplateSheet = "Proforma"

// EnvTemplatePath 外部模板路径环境变量
const EnvTemplatePath = "PROFORMA_TEMPLATE_XLSX"

// 内置模板版式（1-based 行号）
const (
	templateTitleRow = 1
	templateBandRow  = 3
	templateLabelCol = 2 // B
	templateStartCol = 3 // C
)

// TemplateSource 模板来源
type TemplateSource string

const (
	TemplateFromConfig  TemplateSource = "config"
	TemplateFromEnv     TemplateSource = "env"
	TemplateFromBuiltin TemplateSource = "builtin"
)

func defaultSectionKeys(section model.Section) []string {
	out := []string{}
	for _, k := range parser.CanonicalKeys() {
		if parser.KeySection(k) == section {
			out = append(out, k)
		}
	}
	return out
}

// defaultTemplateRows 内置模板的锚点行（1-based）
func defaultTemplateRows() (income, totalIncome, expense, totalExpense, netIncome int) {
	nIncome := len(defaultSectionKeys(model.SectionIncome))
	nExpense := len(defaultSectionKeys(model.SectionExpense))
	income = templateBandRow + 1
	totalIncome = income + nIncome + 1
	expense = totalIncome + 2
	totalExpense = expense + nExpense + 1
	netIncome = totalExpense + 2
	return
}

// DefaultTemplateFallbacks 内置模板的锚点回退行（0-based）
func DefaultTemplateFallbacks() parser.AnchorFallbacks {
	inc, toi, exp, toe, noi := defaultTemplateRows()
	return parser.AnchorFallbacks{
		model.AnchorIncome:       inc - 1,
		model.AnchorTotalIncome:  toi - 1,
		model.AnchorExpense:      exp - 1,
		model.AnchorTotalExpense: toe - 1,
		model.AnchorNetIncome:    noi - 1,
	}
}

// NewDefaultTemplate 生成内置模板：B 列标签、C 列起连续 12 个月，合计行带 SUM 公式。
// start 无效时从当年 1 月开始。
func NewDefaultTemplate(start model.MonthToken) (*excelize.File, error) {
	year, month, ok := start.YearMonth()
	if !ok {
		year, month = time.Now().Year(), time.January
	}

	f := excelize.NewFile()
	sheet := DefaultTemplateSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	formula := func(col, row int, expr string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellFormula(sheet, cell, expr)
	}
	colName := func(col int) string {
		name, _ := excelize.ColumnNumberToName(col)
		return name
	}

	if err := set(templateLabelCol, templateTitleRow, "Pro Forma Operating Statement"); err != nil {
		return nil, err
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < parser.BandSize; i++ {
		label := model.MonthTokenOf(first.AddDate(0, i, 0)).Label()
		if err := set(templateStartCol+i, templateBandRow, label); err != nil {
			return nil, err
		}
	}

	inc, toi, exp, toe, noi := defaultTemplateRows()
	sections := []struct {
		header, total string
		headerRow     int
		totalRow      int
		keys          []string
	}{
		{"Income", model.KeyTotalOperatingIncome, inc, toi, defaultSectionKeys(model.SectionIncome)},
		{"Expenses", model.KeyTotalOperatingExpense, exp, toe, defaultSectionKeys(model.SectionExpense)},
	}
	for _, s := range sections {
		if err := set(templateLabelCol, s.headerRow, s.header); err != nil {
			return nil, err
		}
		for i, k := range s.keys {
			if err := set(templateLabelCol, s.headerRow+1+i, k); err != nil {
				return nil, err
			}
		}
		if err := set(templateLabelCol, s.totalRow, s.total); err != nil {
			return nil, err
		}
		for m := 0; m < parser.BandSize; m++ {
			c := colName(templateStartCol + m)
			expr := fmt.Sprintf("SUM(%s%d:%s%d)", c, s.headerRow+1, c, s.totalRow-1)
			if err := formula(templateStartCol+m, s.totalRow, expr); err != nil {
				return nil, err
			}
		}
	}

	if err := set(templateLabelCol, noi, model.KeyNetOperatingIncome); err != nil {
		return nil, err
	}
	for m := 0; m < parser.BandSize; m++ {
		c := colName(templateStartCol + m)
		if err := formula(templateStartCol+m, noi, fmt.Sprintf("%s%d-%s%d", c, toi, c, toe)); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 38)
	return f, nil
}

// openTemplateWorkbook 优先使用配置的外部模板，其次环境变量，最后内置模板
func openTemplateWorkbook(path string, start model.MonthToken) (*excelize.File, TemplateSource, error) {
	if p := strings.TrimSpace(path); p != "" {
		f, err := excelize.OpenFile(p)
		if err != nil {
			return nil, "", fmt.Errorf("open template %s: %w", p, err)
		}
		return f, TemplateFromConfig, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvTemplatePath)); v != "" {
		f, err := excelize.OpenFile(v)
		if err != nil {
			return nil, "", fmt.Errorf("open template %s: %w", v, err)
		}
		return f, TemplateFromEnv, nil
	}
	f, err := NewDefaultTemplate(start)
	if err != nil {
		return nil, "", fmt.Errorf("build default template: %w", err)
	}
	return f, TemplateFromBuiltin, nil
}

// TemplateAvailable 外部模板是否可用（状态接口展示）
func TemplateAvailable(path string) (TemplateSource, bool) {
	return lookupTemplate(path, EnvTemplatePath)
}

// ReportTemplateAvailable 报告模板是否可用
func ReportTemplateAvailable(path string) (TemplateSource, bool) {
	return lookupTemplate(path, EnvReportTemplatePath)
}

// lookupTemplate 配置路径优先，其次环境变量，都为空时为内置模板
func lookupTemplate(path, env string) (TemplateSource, bool) {
	for _, c := range []struct {
		p   string
		src TemplateSource
	}{
		{strings.TrimSpace(path), TemplateFromConfig},
		{strings.TrimSpace(os.Getenv(env)), TemplateFromEnv},
	} {
		if c.p == "" {
			continue
		}
		if _, err := os.Stat(c.p); err == nil {
			return c.src, true
		}
		return c.src, false
	}
	return TemplateFromBuiltin, true
}
