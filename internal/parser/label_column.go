package parser

import "proforma/internal/model"

// DefaultLabelColumn 标签列缺省值（B 列）
const DefaultLabelColumn = 1

// DetectLabelColumn 从月份带起始列左侧逐列向左，统计带下方窗口内的文本单元格数，
// 首个达到阈值的列即为标签列；都不满足时回退到 B 列。
func DetectLabelColumn(g model.Grid, bandRow, bandStartCol int, opts ScanOptions) (int, bool) {
	opts = opts.withDefaults()

	from := bandRow + 1
	to := min(len(g)-1, bandRow+opts.LabelWindow)
	for col := bandStartCol - 1; col >= 0; col-- {
		hits := 0
		for r := from; r <= to; r++ {
			if isLabelCell(g.At(r, col)) {
				hits++
			}
		}
		if hits >= opts.LabelMinHits {
			return col, true
		}
	}
	return DefaultLabelColumn, false
}

func isLabelCell(c model.Cell) bool {
	if c.Kind != model.CellText || c.IsEmpty() {
		return false
	}
	if IsCurrencySpacer(c) {
		return false
	}
	return !IsNumeric(c)
}
