package parser

import "proforma/internal/model"

// 用于步长判断的样本行数
const strideSampleRows = 8

// LayoutOptions 布局推断选项
type LayoutOptions struct {
	Scan      ScanOptions
	Fallbacks AnchorFallbacks
}

// DetectLayout 推断单个 sheet 的布局；找不到月份带时返回 false
func DetectLayout(sheetName string, g model.Grid, opts LayoutOptions) (model.LayoutDescriptor, bool) {
	band, ok := LocateMonthBand(g, opts.Scan)
	if !ok {
		return model.LayoutDescriptor{SheetName: sheetName}, false
	}

	labelCol, detected := DetectLabelColumn(g, band.Row, band.StartCol, opts.Scan)
	anchors := ResolveAnchors(g, labelCol, band.Row+1, opts.Fallbacks)

	l := model.LayoutDescriptor{
		SheetName:             sheetName,
		MonthBandRow:          band.Row,
		MonthBandStartCol:     band.StartCol,
		MonthTokens:           band.Tokens,
		LabelColumn:           labelCol,
		LabelColumnDetected:   detected,
		IncomeAnchorRow:       anchors.Row(model.AnchorIncome),
		TotalIncomeAnchorRow:  anchors.Row(model.AnchorTotalIncome),
		ExpenseAnchorRow:      anchors.Row(model.AnchorExpense),
		TotalExpenseAnchorRow: anchors.Row(model.AnchorTotalExpense),
		NetIncomeAnchorRow:    anchors.Row(model.AnchorNetIncome),
		AnchorSources:         anchors.Sources,
	}

	s := DetectStride(g, band.StartCol, strideSamples(g, l))
	l.ValueColumnStride = s.Stride
	l.ValueColumnOffset = s.Offset
	return l, true
}

// strideSamples 取收入、费用区间内带标签的前几行；区间未知时取月份带下方的行
func strideSamples(g model.Grid, l model.LayoutDescriptor) []int {
	rows := make([]int, 0, strideSampleRows)
	collect := func(from, to int) {
		for r := from; r <= to && len(rows) < strideSampleRows; r++ {
			if CoerceLabel(g.At(r, l.LabelColumn)) != "" {
				rows = append(rows, r)
			}
		}
	}
	if from, to, ok := l.IncomeRange(); ok {
		collect(from, to)
	}
	if from, to, ok := l.ExpenseRange(); ok {
		collect(from, to)
	}
	if len(rows) == 0 {
		collect(l.MonthBandRow+1, min(len(g)-1, l.MonthBandRow+strideSampleRows*2))
	}
	return rows
}
