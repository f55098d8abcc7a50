package importer

import (
	"context"
	"fmt"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/service/excel"
)

// PickSheet 按识别结果选出某角色的 sheet；未识别时回退到 probe 命中的第一个 sheet
func PickSheet(wb *excel.Workbook, t model.SheetType, scan parser.ScanOptions, probe func(model.Grid) bool) (model.Sheet, bool) {
	if wb == nil || len(wb.Sheets) == 0 {
		return model.Sheet{}, false
	}
	resolved := excel.ResolveWorkbook(wb, excel.ResolveOptions{Scan: scan})
	if name := resolved.Sheets[t]; name != "" {
		if s, ok := wb.Sheet(name); ok {
			return s, true
		}
	}
	for _, s := range wb.Sheets {
		if probe != nil && probe(s.Grid) {
			return s, true
		}
	}
	return model.Sheet{}, false
}

func hasBudgetHeader(g model.Grid) bool {
	_, _, ok := parser.FindBudgetHeader(g)
	return ok
}

func hasBand(scan parser.ScanOptions) func(model.Grid) bool {
	return func(g model.Grid) bool {
		_, ok := parser.LocateMonthBand(g, scan)
		return ok
	}
}

// BudgetTokens 提取预算对比 token；statements 非空时用其 "Current Month" 列补齐当月实际数
func BudgetTokens(wb, statements *excel.Workbook, scan parser.ScanOptions) (parser.BudgetResult, error) {
	sheet, ok := PickSheet(wb, model.SheetTypeBudget, scan, hasBudgetHeader)
	if !ok {
		return parser.BudgetResult{}, fmt.Errorf("%w: no budget comparison sheet", parser.ErrHeaderRowNotFound)
	}
	res, err := parser.ExtractBudget(sheet.Name, sheet.Grid)
	if err != nil {
		return res, err
	}
	if statements == nil {
		return res, nil
	}
	for _, s := range statements.Sheets {
		if parser.BackfillCurrentMonth(&res, s.Name, s.Grid) > 0 {
			break
		}
	}
	return res, nil
}

// AgingTokens 提取账龄 token；未识别出账龄 sheet 时使用第一个 sheet（版式固定）
func AgingTokens(wb *excel.Workbook, scan parser.ScanOptions) (parser.AgingResult, error) {
	sheet, ok := PickSheet(wb, model.SheetTypeAging, scan, nil)
	if !ok {
		if wb == nil || len(wb.Sheets) == 0 {
			return parser.AgingResult{}, excel.ErrNoSheets
		}
		sheet = wb.Sheets[0]
	}
	return parser.ExtractAging(sheet.Name, sheet.Grid, parser.AgingLayout{})
}

// ReportSources 业主报告的取数来源；任一为空则跳过
type ReportSources struct {
	Book       *excel.Workbook
	Budget     *excel.Workbook
	Aging      *excel.Workbook
	Statements *excel.Workbook
	Facility   string
	Period     string
	Audit      bool
}

// ReportTokens 合并主工作簿（经营报表及其中的预算、账龄、迁入迁出 sheet）与单独文件的 token；
// 后处理的来源覆盖先处理的同名 token
func (c *Coordinator) ReportTokens(ctx context.Context, src ReportSources) (map[string]float64, error) {
	if src.Book == nil && src.Budget == nil && src.Aging == nil {
		return nil, excel.ErrNoSheets
	}
	values := map[string]float64{}
	if src.Book != nil {
		run, err := c.Normalize(ctx, src.Book, NormalizeOptions{
			Filename:  src.Book.Filename,
			Facility:  src.Facility,
			Period:    src.Period,
			Audit:     src.Audit,
			Operation: "report",
		})
		if err != nil {
			return nil, err
		}
		mergeTokens(values, run.Result.Tokens)
	}
	if src.Budget != nil {
		res, err := BudgetTokens(src.Budget, src.Statements, c.scan)
		if err != nil {
			return nil, err
		}
		mergeTokens(values, res.Tokens)
	}
	if src.Aging != nil {
		res, err := AgingTokens(src.Aging, c.scan)
		if err != nil {
			return nil, err
		}
		mergeTokens(values, res.Tokens)
	}
	return values, nil
}
