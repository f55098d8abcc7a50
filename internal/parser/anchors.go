package parser

import (
	"errors"
	"fmt"

	"proforma/internal/model"
)

// ErrLayoutUnresolved 锚点既未找到、回退行也不可用时返回，禁止写入到错误的行
var ErrLayoutUnresolved = errors.New("layout unresolved")

// anchorOrder 锚点在报表中自上而下的顺序
var anchorOrder = []model.AnchorKind{
	model.AnchorIncome,
	model.AnchorTotalIncome,
	model.AnchorExpense,
	model.AnchorTotalExpense,
	model.AnchorNetIncome,
}

// 每个锚点可接受的文本（逐一精确匹配，不做模糊匹配）
var anchorVariants = map[model.AnchorKind][]string{
	model.AnchorIncome:       {"Income", "Revenue", "Revenues", "Operating Income", "Operating Revenue"},
	model.AnchorTotalIncome:  {"Total Operating Income", "Total Income", "Total Revenue", "Total Revenues", "Total Operating Revenue"},
	model.AnchorExpense:      {"Expenses", "Expense", "Operating Expenses", "Operating Expense"},
	model.AnchorTotalExpense: {"Total Operating Expense", "Total Operating Expenses", "Total Expenses", "Total Expense"},
	model.AnchorNetIncome:    {"Net Operating Income", "NOI", "Net Income"},
}

// AnchorFallbacks 按模板提供的回退行（0-based）；未提供的锚点没有回退
type AnchorFallbacks map[model.AnchorKind]int

// AnchorResolution 锚点解析结果；未解析的行为 -1
type AnchorResolution struct {
	Rows    map[model.AnchorKind]int
	Sources map[model.AnchorKind]model.AnchorSource
}

// Row 返回锚点行，未解析时为 -1
func (a AnchorResolution) Row(kind model.AnchorKind) int {
	if r, ok := a.Rows[kind]; ok {
		return r
	}
	return -1
}

// FindAnchorRow 在标签列 fromRow 起向下精确查找目标文本
func FindAnchorRow(g model.Grid, labelCol int, target string, fromRow int) (int, bool) {
	want := NormalizeAnchorText(target)
	if want == "" {
		return -1, false
	}
	if fromRow < 0 {
		fromRow = 0
	}
	for r := fromRow; r < len(g); r++ {
		c := g.At(r, labelCol)
		if c.Kind != model.CellText {
			continue
		}
		if NormalizeAnchorText(c.Str) == want {
			return r, true
		}
	}
	return -1, false
}

func findAnyAnchor(g model.Grid, labelCol int, kind model.AnchorKind, fromRow int) (int, bool) {
	best := -1
	for _, v := range anchorVariants[kind] {
		if r, ok := FindAnchorRow(g, labelCol, v, fromRow); ok && (best < 0 || r < best) {
			best = r
		}
	}
	return best, best >= 0
}

// ResolveAnchors 依次定位五个锚点，每个锚点从上一个锚点之后开始查找。
// 查找失败时使用 fallbacks 中的行，否则记为 missing。
func ResolveAnchors(g model.Grid, labelCol, fromRow int, fallbacks AnchorFallbacks) AnchorResolution {
	res := AnchorResolution{
		Rows:    make(map[model.AnchorKind]int, len(anchorOrder)),
		Sources: make(map[model.AnchorKind]model.AnchorSource, len(anchorOrder)),
	}

	cursor := fromRow
	for _, kind := range anchorOrder {
		if r, ok := findAnyAnchor(g, labelCol, kind, cursor); ok {
			res.Rows[kind] = r
			res.Sources[kind] = model.AnchorFound
			cursor = r + 1
			continue
		}
		if r, ok := fallbacks[kind]; ok {
			res.Rows[kind] = r
			res.Sources[kind] = model.AnchorFallback
			if r >= cursor {
				cursor = r + 1
			}
			continue
		}
		res.Rows[kind] = -1
		res.Sources[kind] = model.AnchorMissing
	}
	return res
}

// ValidateAnchors 写入前校验：四个区间锚点必须存在、落在网格内且自上而下有序；
// 净收益锚点可缺省，存在时必须位于总费用之后。
func ValidateAnchors(l model.LayoutDescriptor, rows int) error {
	required := []struct {
		kind model.AnchorKind
		row  int
	}{
		{model.AnchorIncome, l.IncomeAnchorRow},
		{model.AnchorTotalIncome, l.TotalIncomeAnchorRow},
		{model.AnchorExpense, l.ExpenseAnchorRow},
		{model.AnchorTotalExpense, l.TotalExpenseAnchorRow},
	}

	prev := l.MonthBandRow
	for _, a := range required {
		if a.row < 0 {
			return fmt.Errorf("%w: %s anchor not found in %q and no fallback row", ErrLayoutUnresolved, a.kind, l.SheetName)
		}
		if a.row >= rows {
			return fmt.Errorf("%w: %s row %d is outside %q (%d rows)", ErrLayoutUnresolved, a.kind, a.row+1, l.SheetName, rows)
		}
		if a.row <= prev {
			return fmt.Errorf("%w: %s row %d is not below row %d in %q", ErrLayoutUnresolved, a.kind, a.row+1, prev+1, l.SheetName)
		}
		prev = a.row
	}
	if l.NetIncomeAnchorRow >= 0 && (l.NetIncomeAnchorRow >= rows || l.NetIncomeAnchorRow <= l.TotalExpenseAnchorRow) {
		return fmt.Errorf("%w: net income row %d is out of order in %q", ErrLayoutUnresolved, l.NetIncomeAnchorRow+1, l.SheetName)
	}
	return nil
}
