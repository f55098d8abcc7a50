package model

// AnchorSource 锚点行的来源
type AnchorSource string

const (
	AnchorFound    AnchorSource = "found"
	AnchorFallback AnchorSource = "fallback"
	AnchorMissing  AnchorSource = "missing"
)

// AnchorKind 结构性锚点
type AnchorKind string

const (
	AnchorIncome       AnchorKind = "income"
	AnchorTotalIncome  AnchorKind = "totalIncome"
	AnchorExpense      AnchorKind = "expense"
	AnchorTotalExpense AnchorKind = "totalExpense"
	AnchorNetIncome    AnchorKind = "netIncome"
)

// LayoutDescriptor 单个 sheet 的推断布局（0-based，-1 表示未找到）
//
// 每次调用重新推断，不跨请求缓存。
type LayoutDescriptor struct {
	SheetName             string                      `json:"sheetName"`
	MonthBandRow          int                         `json:"monthBandRow"`
	MonthBandStartCol     int                         `json:"monthBandStartCol"`
	MonthTokens           [12]MonthToken              `json:"monthTokens"`
	LabelColumn           int                         `json:"labelColumn"`
	LabelColumnDetected   bool                        `json:"labelColumnDetected"`
	IncomeAnchorRow       int                         `json:"incomeAnchorRow"`
	TotalIncomeAnchorRow  int                         `json:"totalIncomeAnchorRow"`
	ExpenseAnchorRow      int                         `json:"expenseAnchorRow"`
	TotalExpenseAnchorRow int                         `json:"totalExpenseAnchorRow"`
	NetIncomeAnchorRow    int                         `json:"netIncomeAnchorRow"`
	ValueColumnStride     int                         `json:"valueColumnStride"`
	ValueColumnOffset     int                         `json:"valueColumnOffset"`
	AnchorSources         map[AnchorKind]AnchorSource `json:"anchorSources"`
}

// ValueColumn 第 i 个月的数值列（0-based）
func (l LayoutDescriptor) ValueColumn(i int) int {
	stride := l.ValueColumnStride
	if stride < 1 {
		stride = 1
	}
	return l.MonthBandStartCol + l.ValueColumnOffset + i*stride
}

// IncomeRange 收入区间（不含锚点行本身）
func (l LayoutDescriptor) IncomeRange() (from, to int, ok bool) {
	return openRange(l.IncomeAnchorRow, l.TotalIncomeAnchorRow)
}

// ExpenseRange 费用区间（不含锚点行本身）
func (l LayoutDescriptor) ExpenseRange() (from, to int, ok bool) {
	return openRange(l.ExpenseAnchorRow, l.TotalExpenseAnchorRow)
}

func openRange(start, end int) (int, int, bool) {
	if start < 0 || end < 0 || end <= start {
		return 0, 0, false
	}
	return start + 1, end - 1, true
}

// Detected 对外展示的布局摘要（1-based）
type Detected struct {
	SheetName     string       `json:"sheetName"`
	MonthRow      int          `json:"monthRow"`
	MonthStartCol int          `json:"monthStartCol"`
	Months        []MonthToken `json:"months"`
	LabelCol      int          `json:"labelCol"`
}

// Detected 转为 1-based 的对外摘要
func (l LayoutDescriptor) Detected() *Detected {
	months := make([]MonthToken, len(l.MonthTokens))
	copy(months, l.MonthTokens[:])
	return &Detected{
		SheetName:     l.SheetName,
		MonthRow:      l.MonthBandRow + 1,
		MonthStartCol: l.MonthBandStartCol + 1,
		Months:        months,
		LabelCol:      l.LabelColumn + 1,
	}
}

// LayoutSummary 对外展示的完整布局（1-based，0 表示未找到）
type LayoutSummary struct {
	Detected
	IncomeRow       int                         `json:"incomeRow"`
	TotalIncomeRow  int                         `json:"totalIncomeRow"`
	ExpenseRow      int                         `json:"expenseRow"`
	TotalExpenseRow int                         `json:"totalExpenseRow"`
	NetIncomeRow    int                         `json:"netIncomeRow"`
	Stride          int                         `json:"stride"`
	Offset          int                         `json:"offset"`
	AnchorSources   map[AnchorKind]AnchorSource `json:"anchorSources"`
}

// Summary 转为 1-based 的对外形式
func (l LayoutDescriptor) Summary() *LayoutSummary {
	return &LayoutSummary{
		Detected:        *l.Detected(),
		IncomeRow:       l.IncomeAnchorRow + 1,
		TotalIncomeRow:  l.TotalIncomeAnchorRow + 1,
		ExpenseRow:      l.ExpenseAnchorRow + 1,
		TotalExpenseRow: l.TotalExpenseAnchorRow + 1,
		NetIncomeRow:    l.NetIncomeAnchorRow + 1,
		Stride:          l.ValueColumnStride,
		Offset:          l.ValueColumnOffset,
		AnchorSources:   l.AnchorSources,
	}
}
