package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"proforma/internal/model"
)

// ErrHeaderRowNotFound 固定表头行不存在
var ErrHeaderRowNotFound = errors.New("header row not found")

// 预算对比表的 8 个列头（固定相对顺序）与对应 token 后缀
var (
	budgetHeaders  = [8]string{"PTD Actual", "PTD Budget", "Variance", "%Var", "YTD Actual", "YTD Budget", "YTD Variance", "YTD %Var"}
	budgetSuffixes = [8]string{"CM", "CMBUD", "CMVAR", "CMVARPER", "YTD", "YTDBUD", "YTDVAR", "YTDVARPER"}
)

// 百分比列
var percentColumns = map[int]bool{3: true, 7: true}

// 表头扫描上限
const maxHeaderScanRows = 60

type budgetLine struct {
	BaseKey string
	Labels  []string
}

// budgetLines 预算对比表已知科目
var budgetLines = []budgetLine{
	{"RENTINC", []string{"Rental Income", "Rent Income", "Rental Revenue"}},
	{"DISC", []string{"Discounts", "Rent Discounts", "Discounts Given"}},
	{"BADDEBT", []string{"Bad Debt", "Bad Debts", "Rental Refunds"}},
	{"ADMINFEE", []string{"Administrative Fees", "Admin Fees"}},
	{"LATEFEE", []string{"Late Fees", "Late Fee"}},
	{"LIENFEE", []string{"Lien Fees", "Lien Fee"}},
	{"MERCH", []string{"Merchandise Sales", "Merchandise"}},
	{"INSINC", []string{"Insurance Income", "Tenant Insurance"}},
	{"TRUCK", []string{"Truck Rental", "Truck Rental Income"}},
	{"OTHINC", []string{"Other Income", "Miscellaneous Income"}},
	{"TOTINC", []string{"Total Income", "Total Operating Income", "Total Revenue"}},
	{"PAYROLL", []string{"Payroll", "Salaries & Wages", "Wages"}},
	{"PAYTAX", []string{"Payroll Taxes"}},
	{"BENEFITS", []string{"Employee Benefits", "Benefits"}},
	{"PROPTAX", []string{"Property Taxes", "Real Estate Taxes"}},
	{"INSEXP", []string{"Property Insurance", "Insurance Expense", "Insurance"}},
	{"ELEC", []string{"Electricity", "Electric"}},
	{"WATER", []string{"Water & Sewer", "Water"}},
	{"TRASH", []string{"Trash Removal", "Trash"}},
	{"PHONE", []string{"Telephone", "Telephone & Internet"}},
	{"REPAIRS", []string{"Repairs & Maintenance", "Maintenance"}},
	{"LANDSCAPE", []string{"Landscaping", "Landscaping & Snow Removal"}},
	{"SNOW", []string{"Snow Removal"}},
	{"SECURITY", []string{"Security", "Alarm Monitoring"}},
	{"ADVERT", []string{"Advertising", "Advertising & Marketing", "Marketing"}},
	{"OFFICE", []string{"Office Supplies", "Office Expense", "Postage"}},
	{"CCFEES", []string{"Credit Card Fees", "Bank Fees", "Merchant Fees"}},
	{"SOFTWARE", []string{"Software", "Computer & Software"}},
	{"PROFFEES", []string{"Legal & Professional", "Professional Fees", "Legal Fees"}},
	{"MGMTFEE", []string{"Management Fees", "Management Fee"}},
	{"COGS", []string{"Cost of Goods Sold", "Cost of Sales"}},
	{"TOTEXP", []string{"Total Expenses", "Total Operating Expense", "Total Operating Expenses"}},
	{"NOI", []string{"Net Operating Income", "NOI", "Net Income"}},
}

// BudgetResult 预算对比提取结果
type BudgetResult struct {
	Tokens     map[string]float64 `json:"tokens"`
	HeaderRow  int                `json:"headerRow"`
	HeaderCol  int                `json:"headerCol"`
	Found      []string           `json:"found"`
	Missing    []string           `json:"missing"`
	Provenance model.Provenance   `json:"provenance"`
}

// BudgetLineCount 已知科目数
func BudgetLineCount() int { return len(budgetLines) }

// FindBudgetHeader 查找 8 个列头按固定顺序连续出现的行与起始列
func FindBudgetHeader(g model.Grid) (row, col int, ok bool) {
	want := make([]string, len(budgetHeaders))
	for i, h := range budgetHeaders {
		want[i] = NormalizeHeaderKey(h)
	}

	for r := 0; r < min(len(g), maxHeaderScanRows); r++ {
		for c := 0; c+len(want) <= len(g[r]); c++ {
			matched := true
			for i, w := range want {
				if NormalizeHeaderKey(CoerceLabel(g.At(r, c+i))) != w {
					matched = false
					break
				}
			}
			if matched {
				return r, c, true
			}
		}
	}
	return -1, -1, false
}

// ExtractBudget 读取每个已知科目的 8 个数值，token 为 {baseKey}{suffix}
func ExtractBudget(sheetName string, g model.Grid) (BudgetResult, error) {
	hr, hc, ok := FindBudgetHeader(g)
	if !ok {
		return BudgetResult{}, fmt.Errorf("%w: budget comparison headers in %q", ErrHeaderRowNotFound, sheetName)
	}

	res := BudgetResult{
		Tokens:     make(map[string]float64),
		HeaderRow:  hr + 1,
		HeaderCol:  hc + 1,
		Found:      []string{},
		Missing:    []string{},
		Provenance: model.Provenance{},
	}

	for _, line := range budgetLines {
		r, ok := findLabelRow(g, line.Labels, hr+1, hc)
		if !ok {
			res.Missing = append(res.Missing, line.BaseKey)
			continue
		}
		res.Found = append(res.Found, line.BaseKey)
		for i, suffix := range budgetSuffixes {
			c := g.At(r, hc+i)
			if c.IsEmpty() {
				continue
			}
			token := line.BaseKey + suffix
			if percentColumns[i] {
				res.Tokens[token] = CoercePercent(c)
			} else {
				res.Tokens[token] = CoerceNumber(c)
			}
			res.Provenance.Add(model.ProvenanceEntry{
				Token:        token,
				SourceSheet:  sheetName,
				SourceCell:   model.Ref{Row: r, Col: hc + i}.A1(),
				ComputedFrom: budgetHeaders[i],
			})
		}
	}
	return res, nil
}

// BackfillCurrentMonth 用财务报表的 "Current Month" 列补齐缺失的当月实际数，
// 同时重算当月差异与差异率。返回补齐的科目数。
func BackfillCurrentMonth(res *BudgetResult, sheetName string, statements model.Grid) int {
	if res == nil {
		return 0
	}
	if res.Tokens == nil {
		res.Tokens = make(map[string]float64)
	}
	hr, hc, ok := findCurrentMonthColumn(statements)
	if !ok {
		return 0
	}

	filled := 0
	for _, line := range budgetLines {
		cm := line.BaseKey + "CM"
		if _, ok := res.Tokens[cm]; ok {
			continue
		}
		r, ok := findLabelRow(statements, line.Labels, hr+1, hc)
		if !ok {
			continue
		}
		c := statements.At(r, hc)
		if !IsNumeric(c) {
			continue
		}
		actual := decimal.NewFromFloat(CoerceNumber(c))
		res.Tokens[cm] = actual.InexactFloat64()
		res.Provenance.Add(model.ProvenanceEntry{
			Token:        cm,
			SourceSheet:  sheetName,
			SourceCell:   model.Ref{Row: r, Col: hc}.A1(),
			ComputedFrom: "statements Current Month",
		})

		if bud, ok := res.Tokens[line.BaseKey+"CMBUD"]; ok {
			budget := decimal.NewFromFloat(bud)
			variance := actual.Sub(budget)
			res.Tokens[line.BaseKey+"CMVAR"] = variance.Round(2).InexactFloat64()
			pct := decimal.Zero
			if !budget.IsZero() {
				pct = variance.Div(budget.Abs()).Mul(decimal.NewFromInt(100))
			}
			res.Tokens[line.BaseKey+"CMVARPER"] = pct.Round(2).InexactFloat64()
		}
		filled++
	}
	return filled
}

func findCurrentMonthColumn(g model.Grid) (int, int, bool) {
	for r := 0; r < min(len(g), maxHeaderScanRows); r++ {
		for c := range g[r] {
			if strings.Contains(NormalizeAnchorText(CoerceLabel(g[r][c])), "current month") {
				return r, c, true
			}
		}
	}
	return -1, -1, false
}

// findLabelRow 在 beforeCol 左侧的任意文本单元格中精确匹配科目标签
func findLabelRow(g model.Grid, labels []string, fromRow, beforeCol int) (int, bool) {
	want := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		want[NormalizeLabel(l)] = struct{}{}
	}
	for r := fromRow; r < len(g); r++ {
		for c := 0; c < beforeCol && c < len(g[r]); c++ {
			cell := g[r][c]
			if cell.Kind != model.CellText {
				continue
			}
			if _, ok := want[NormalizeLabel(cell.Str)]; ok {
				return r, true
			}
		}
	}
	return -1, false
}

// CoercePercent 百分比单元格：文本 "12.5%" 取 12.5；数值在 [-1,1] 内视为比例并乘以 100
func CoercePercent(c model.Cell) float64 {
	if c.Kind == model.CellText && strings.Contains(c.Str, "%") {
		return CoerceNumber(c)
	}
	v := CoerceNumber(c)
	if v >= -1 && v <= 1 {
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(4).InexactFloat64()
	}
	return v
}
