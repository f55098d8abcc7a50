package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/service/excel"
)

// ProjectOptions 写入选项
type ProjectOptions struct {
	// Fallbacks 模板专属的锚点回退行；外部模板通常为空
	Fallbacks parser.AnchorFallbacks
	Scan      parser.ScanOptions
	// Months 非空时用源报表的月份重写目标月份带
	Months *[12]model.MonthToken
	// Lines 源报表的提取行；给出序列键的来源区间与反查科目，为空时按科目表推断
	Lines  []model.SeriesLine
	Logger *slog.Logger
}

// WrittenLine 一条写入记录（行号 1-based）
type WrittenLine struct {
	Key     string  `json:"key"`
	Row     int     `json:"row"`
	Label   string  `json:"label"`
	Section string  `json:"section"`
	Total   float64 `json:"total"`
}

// ProjectionReport 写入结果
type ProjectionReport struct {
	Layout     model.LayoutDescriptor `json:"layout"`
	Written    []WrittenLine          `json:"written"`
	Skipped    []string               `json:"skipped"`
	Aggregates model.Totals           `json:"aggregates"`
	Flattened  int                    `json:"flattened"`
	Provenance model.Provenance       `json:"provenance"`
}

type destination struct {
	key   string
	row   int
	label string
	sec   model.Section
}

// Project 将规范序列写入模板 sheet：
// 重新推断目标布局，按别名反查目标行，先展平目标单元格的公式，再写入取整后的数值。
// 目标行不存在的科目跳过并记录；锚点无法确定时返回 ErrLayoutUnresolved，不写入任何单元格。
func Project(f *excelize.File, sheet string, series model.SeriesMap, aggregates *model.Totals, opts ProjectOptions) (ProjectionReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := ProjectionReport{Written: []WrittenLine{}, Skipped: []string{}, Provenance: model.Provenance{}}

	g, err := excel.SheetGrid(f, sheet)
	if err != nil {
		return report, fmt.Errorf("read template sheet %q: %w", sheet, err)
	}
	l, ok := parser.DetectLayout(sheet, g, parser.LayoutOptions{Scan: opts.Scan, Fallbacks: opts.Fallbacks})
	if !ok {
		return report, fmt.Errorf("%w: no month band in template sheet %q", parser.ErrLayoutUnresolved, sheet)
	}
	if err := parser.ValidateAnchors(l, len(g)); err != nil {
		return report, err
	}
	report.Layout = l

	dests := resolveDestinations(g, l, series, lineOrigins(opts.Lines), &report)
	for _, d := range report.Skipped {
		logger.Warn("destination row not found", "sheet", sheet, "key", d)
	}

	aggRows := []int{l.TotalIncomeAnchorRow, l.TotalExpenseAnchorRow}
	if l.NetIncomeAnchorRow >= 0 {
		aggRows = append(aggRows, l.NetIncomeAnchorRow)
	}
	rows := make([]int, 0, len(dests)+len(aggRows))
	for _, d := range dests {
		rows = append(rows, d.row)
	}
	rows = append(rows, aggRows...)

	cells := make([]string, 0, len(rows)*parser.BandSize)
	for _, r := range rows {
		for i := 0; i < parser.BandSize; i++ {
			cells = append(cells, model.Ref{Row: r, Col: l.ValueColumn(i)}.A1())
		}
	}
	flattened, uncached, err := flattenFormulas(f, sheet, cells)
	if err != nil {
		return report, fmt.Errorf("flatten formulas: %w", err)
	}
	report.Flattened = flattened
	for _, cell := range uncached {
		report.Provenance.Add(model.ProvenanceEntry{
			Token:       cell,
			SourceSheet: sheet,
			SourceCell:  cell,
			Note:        "formula without cached value written as 0",
		})
	}

	var toi, toe model.Series
	for _, d := range dests {
		values := series[d.key]
		if err := writeRow(f, sheet, l, d.row, values); err != nil {
			return report, err
		}
		switch {
		case inRange(d.row, l.IncomeRange):
			toi = toi.Add(values)
		case inRange(d.row, l.ExpenseRange):
			toe = toe.Add(values)
		}
		report.Written = append(report.Written, WrittenLine{Key: d.key, Row: d.row + 1, Label: d.label, Section: string(d.sec), Total: sum(values)})
		report.Provenance.Add(model.ProvenanceEntry{
			Token:        d.key,
			SourceSheet:  sheet,
			SourceCell:   model.Ref{Row: d.row, Col: l.LabelColumn}.A1(),
			MatchedAlias: d.label,
			ComputedFrom: "written to " + rowSpan(l, d.row),
		})
	}

	agg := model.Totals{TOI: toi, TOE: toe, NOI: toi.Sub(toe)}
	computedFrom := "sum of written lines"
	if aggregates != nil {
		agg = *aggregates
		computedFrom = "supplied aggregates"
	}
	report.Aggregates = agg

	writes := []struct {
		key    string
		row    int
		values model.Series
	}{
		{model.KeyTotalOperatingIncome, l.TotalIncomeAnchorRow, agg.TOI},
		{model.KeyTotalOperatingExpense, l.TotalExpenseAnchorRow, agg.TOE},
		{model.KeyNetOperatingIncome, l.NetIncomeAnchorRow, agg.NOI},
	}
	for _, w := range writes {
		if w.row < 0 {
			report.Provenance.Add(model.ProvenanceEntry{Token: w.key, SourceSheet: sheet, Note: "no destination row in template"})
			continue
		}
		if err := writeRow(f, sheet, l, w.row, w.values); err != nil {
			return report, err
		}
		report.Provenance.Add(model.ProvenanceEntry{
			Token:        w.key,
			SourceSheet:  sheet,
			SourceCell:   model.Ref{Row: w.row, Col: l.LabelColumn}.A1(),
			ComputedFrom: computedFrom,
		})
	}

	if opts.Months != nil {
		if err := relabelBand(f, sheet, l, *opts.Months); err != nil {
			return report, err
		}
	}
	return report, nil
}

type lineOrigin struct {
	lookup string
	sec    model.Section
}

// lineOrigins 序列键 -> 来源区间与反查科目；同一键取第一条
func lineOrigins(lines []model.SeriesLine) map[string]lineOrigin {
	out := make(map[string]lineOrigin, len(lines))
	for _, ln := range lines {
		if _, ok := out[ln.Key]; !ok {
			out[ln.Key] = lineOrigin{lookup: ln.LookupKey(), sec: ln.Section}
		}
	}
	return out
}

// resolveDestinations 为每个科目找到目标行：区间已确定时只在所属区间内查找，否则在整列查找
func resolveDestinations(g model.Grid, l model.LayoutDescriptor, series model.SeriesMap, origins map[string]lineOrigin, report *ProjectionReport) []destination {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := parser.KeyOrder(keys[i]), parser.KeyOrder(keys[j])
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})

	anchorRows := map[int]bool{}
	for _, r := range []int{l.IncomeAnchorRow, l.TotalIncomeAnchorRow, l.ExpenseAnchorRow, l.TotalExpenseAnchorRow, l.NetIncomeAnchorRow} {
		if r >= 0 {
			anchorRows[r] = true
		}
	}
	used := map[int]string{}

	out := make([]destination, 0, len(keys))
	for _, key := range keys {
		if model.IsTotalsKey(key) {
			report.Provenance.Add(model.ProvenanceEntry{Token: key, SourceSheet: l.SheetName, Note: "totals are written from aggregates"})
			continue
		}
		lookup, sec := key, parser.KeySection(key)
		if o, ok := origins[key]; ok {
			lookup = o.lookup
			if o.sec == model.SectionIncome || o.sec == model.SectionExpense {
				sec = o.sec
			}
		}
		labels := parser.DestinationLabels(lookup)

		from, to := l.MonthBandRow+1, len(g)-1
		switch sec {
		case model.SectionIncome:
			if lo, hi, ok := l.IncomeRange(); ok {
				from, to = lo, hi
			}
		case model.SectionExpense:
			if lo, hi, ok := l.ExpenseRange(); ok {
				from, to = lo, hi
			}
		}
		row, label := findLabelInRange(g, l.LabelColumn, labels, from, to, anchorRows)

		if row < 0 {
			report.Skipped = append(report.Skipped, key)
			report.Provenance.Add(model.ProvenanceEntry{Token: key, SourceSheet: l.SheetName, Note: "destination row not found; line skipped"})
			continue
		}
		if prev, ok := used[row]; ok {
			report.Skipped = append(report.Skipped, key)
			report.Provenance.Add(model.ProvenanceEntry{
				Token:       key,
				SourceSheet: l.SheetName,
				Note:        fmt.Sprintf("destination row %d already written by %q; line skipped", row+1, prev),
			})
			continue
		}
		used[row] = key
		out = append(out, destination{key: key, row: row, label: label, sec: sec})
	}
	return out
}

// findLabelInRange 按 labels 的顺序优先匹配（规范名优先于别名）
func findLabelInRange(g model.Grid, labelCol int, labels []string, from, to int, skip map[int]bool) (int, string) {
	for _, want := range labels {
		n := parser.NormalizeLabel(want)
		for r := from; r <= to && r < len(g); r++ {
			if skip[r] {
				continue
			}
			if parser.NormalizeLabel(parser.CoerceLabel(g.At(r, labelCol))) == n {
				return r, want
			}
		}
	}
	return -1, ""
}

func writeRow(f *excelize.File, sheet string, l model.LayoutDescriptor, row int, values model.Series) error {
	for i, v := range values {
		cell := model.Ref{Row: row, Col: l.ValueColumn(i)}.A1()
		if err := setCellValueAndClearFormula(f, sheet, cell, math.Round(v)); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func relabelBand(f *excelize.File, sheet string, l model.LayoutDescriptor, months [12]model.MonthToken) error {
	for i, m := range months {
		if !m.Valid() {
			continue
		}
		cell := model.Ref{Row: l.MonthBandRow, Col: l.MonthBandStartCol + i}.A1()
		if err := setCellValueAndClearFormula(f, sheet, cell, m.Label()); err != nil {
			return fmt.Errorf("relabel %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func inRange(row int, rng func() (int, int, bool)) bool {
	from, to, ok := rng()
	return ok && row >= from && row <= to
}

func rowSpan(l model.LayoutDescriptor, row int) string {
	return fmt.Sprintf("%s:%s",
		model.Ref{Row: row, Col: l.ValueColumn(0)}.A1(),
		model.Ref{Row: row, Col: l.ValueColumn(parser.BandSize - 1)}.A1())
}

func sum(s model.Series) float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}
