package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/service/excel"
	"proforma/internal/store"
)

// Coordinator 规范化协调器：识别 -> 布局 -> 提取 -> 审计
//
// 每次运行使用请求内的网格，不共享可变状态，可并发调用。
type Coordinator struct {
	store  *store.Store
	scan   parser.ScanOptions
	logger *slog.Logger
}

// NewCoordinator st 为空时不写审计
func NewCoordinator(st *store.Store, scan parser.ScanOptions, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: st, scan: scan, logger: logger}
}

// NormalizeOptions 规范化选项
type NormalizeOptions struct {
	Filename  string
	Facility  string
	Period    string
	Overrides map[string]model.SheetType
	Audit     bool
	Progress  func(ProgressEvent)
	Operation string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`    // start/sheet_start/sheet_done/warning/done/error
	Message   string    `json:"message"` // 事件消息
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Run 一次规范化的完整产物
type Run struct {
	Result *model.NormalizeResult
	Report *parser.ImportReport
	// Layout 经营报表的 0-based 布局；未找到月份带时为 nil
	Layout  *model.LayoutDescriptor
	Resolve model.ResolveResult
	Budget  *parser.BudgetResult
	Aging   *parser.AgingResult
	MoveLog *parser.MoveLogResult
}

// Months 源报表月份带（导出时重写目标月份）
func (r *Run) Months() *[12]model.MonthToken {
	if r == nil || r.Layout == nil {
		return nil
	}
	m := r.Layout.MonthTokens
	return &m
}

type runContext struct {
	wb     *excel.Workbook
	opts   NormalizeOptions
	run    *Run
	period model.MonthToken
}

// Normalize 同步执行一次规范化。结构性缺失（无月份带、无锚点）不返回错误，
// 以空结果与决策记录体现；只有 ctx 取消或工作簿为空时返回错误。
func (c *Coordinator) Normalize(ctx context.Context, wb *excel.Workbook, opts NormalizeOptions) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, excel.ErrNoSheets
	}
	if opts.Filename == "" {
		opts.Filename = wb.Filename
	}
	if opts.Operation == "" {
		opts.Operation = "normalize"
	}
	startTime := time.Now()

	runID := uuid.NewString()
	rc := &runContext{
		wb:   wb,
		opts: opts,
		run: &Run{
			Result: &model.NormalizeResult{
				RunID:         runID,
				Facility:      opts.Facility,
				Period:        opts.Period,
				SeriesByLabel: model.SeriesMap{},
				Lines:         []model.SeriesLine{},
				Tokens:        map[string]float64{},
				Provenance:    model.Provenance{},
			},
			Report: &parser.ImportReport{
				RunID:       runID,
				Filename:    opts.Filename,
				TotalSheets: len(wb.Sheets),
				Sheets:      []parser.ParseResult{},
			},
		},
	}
	if p, ok := parser.CoerceMonthToken(model.TextCell(opts.Period)); ok {
		rc.period = p
	}

	c.send(opts.Progress, ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("开始处理 %s", opts.Filename),
		Data: map[string]any{
			"runId":       runID,
			"totalSheets": len(wb.Sheets),
		},
	})

	rc.run.Resolve = excel.ResolveWorkbook(wb, excel.ResolveOptions{Overrides: opts.Overrides, Scan: c.scan})
	rc.run.Result.Recognition = rc.run.Resolve.Recognition

	steps := []struct {
		sheetType model.SheetType
		process   func(*runContext, model.Sheet) parser.ParseResult
	}{
		{model.SheetTypeStatement, c.processStatement},
		{model.SheetTypeBudget, c.processBudget},
		{model.SheetTypeAging, c.processAging},
		{model.SheetTypeMoveLog, c.processMoveLog},
	}
	handled := map[string]bool{}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := rc.run.Resolve.Sheets[step.sheetType]
		if name == "" && step.sheetType == model.SheetTypeStatement {
			name = c.fallbackStatement(wb)
		}
		if name == "" {
			continue
		}
		sheet, ok := wb.Sheet(name)
		if !ok {
			continue
		}
		c.send(opts.Progress, ProgressEvent{
			Type:    "sheet_start",
			Message: fmt.Sprintf("正在解析 Sheet: %s", name),
			Data:    map[string]any{"sheetName": name, "sheetType": step.sheetType},
		})

		sheetStart := time.Now()
		res := step.process(rc, sheet)
		res.SheetName = name
		res.SheetType = step.sheetType
		res.Duration = time.Since(sheetStart)
		c.recordSheetResult(rc, res)
		handled[name] = true

		evt := ProgressEvent{Type: "sheet_done", Message: fmt.Sprintf("Sheet \"%s\" 处理完成", name), Data: res}
		if res.Status == parser.StatusError {
			evt.Type = "warning"
			evt.Message = fmt.Sprintf("Sheet \"%s\" 处理失败", name)
		}
		c.send(opts.Progress, evt)
	}

	for _, s := range wb.Sheets {
		if handled[s.Name] {
			continue
		}
		t := recognizedType(rc.run.Resolve.Recognition, s.Name)
		reason := "未选用"
		if t == model.SheetTypeUnknown {
			reason = "无法识别 Sheet 类型"
		}
		c.recordSheetResult(rc, parser.ParseResult{
			SheetName: s.Name,
			SheetType: t,
			Status:    parser.StatusSkipped,
			Errors:    []string{reason},
		})
	}

	rc.run.Report.Duration = time.Since(startTime)
	if opts.Audit {
		c.audit(rc)
	}

	c.logger.Info("normalize finished",
		"run_id", runID,
		"file", opts.Filename,
		"sheets", rc.run.Report.TotalSheets,
		"processed", rc.run.Report.ProcessedSheets,
		"lines", rc.run.Report.TotalLines,
		"tokens", len(rc.run.Result.Tokens),
		"elapsed", rc.run.Report.Duration,
	)
	c.send(opts.Progress, ProgressEvent{Type: "done", Message: "处理完成", Data: rc.run.Report})
	return rc.run, nil
}

// fallbackStatement 未识别出经营报表时，取第一个存在月份带的 sheet
func (c *Coordinator) fallbackStatement(wb *excel.Workbook) string {
	probe := hasBand(c.scan)
	for _, s := range wb.Sheets {
		if probe(s.Grid) {
			return s.Name
		}
	}
	return ""
}

func (c *Coordinator) processStatement(rc *runContext, sheet model.Sheet) parser.ParseResult {
	res := rc.run.Result
	l, ok := parser.DetectLayout(sheet.Name, sheet.Grid, parser.LayoutOptions{Scan: c.scan})
	if !ok {
		res.Provenance.Add(model.ProvenanceEntry{
			Token:       model.KeyTotalOperatingIncome,
			SourceSheet: sheet.Name,
			Note:        "no 12-month band found; nothing extracted",
		})
		return parser.ParseResult{Status: parser.StatusSkipped, Errors: []string{"未找到 12 个月的月份带"}}
	}

	rc.run.Layout = &l
	res.Detected = l.Detected()
	res.Layout = l.Summary()

	ex := parser.ExtractSeries(sheet.Grid, l)
	res.SeriesByLabel = ex.Series
	res.Series = ex.Totals
	res.Lines = ex.Lines
	res.Provenance = append(res.Provenance, ex.Provenance...)

	out := parser.ParseResult{Status: parser.StatusProcessed, Lines: len(ex.Lines), SkippedRows: len(ex.Provenance.Skipped())}
	for _, kind := range []model.AnchorKind{
		model.AnchorIncome, model.AnchorTotalIncome, model.AnchorExpense, model.AnchorTotalExpense, model.AnchorNetIncome,
	} {
		if l.AnchorSources[kind] == model.AnchorMissing {
			out.Errors = append(out.Errors, fmt.Sprintf("锚点 %s 未找到", kind))
		}
	}
	if rc.period == "" {
		rc.period = l.MonthTokens[len(l.MonthTokens)-1]
	}
	return out
}

func (c *Coordinator) processBudget(rc *runContext, sheet model.Sheet) parser.ParseResult {
	b, err := parser.ExtractBudget(sheet.Name, sheet.Grid)
	if err != nil {
		return parser.ParseResult{Status: parser.StatusError, Errors: []string{err.Error()}}
	}
	if rc.run.Layout != nil {
		if st, ok := rc.wb.Sheet(rc.run.Layout.SheetName); ok {
			parser.BackfillCurrentMonth(&b, st.Name, st.Grid)
		}
	}
	rc.run.Budget = &b
	mergeTokens(rc.run.Result.Tokens, b.Tokens)
	rc.run.Result.Provenance = append(rc.run.Result.Provenance, b.Provenance...)
	return parser.ParseResult{Status: parser.StatusProcessed, Tokens: len(b.Tokens), Lines: len(b.Found)}
}

func (c *Coordinator) processAging(rc *runContext, sheet model.Sheet) parser.ParseResult {
	a, err := parser.ExtractAging(sheet.Name, sheet.Grid, parser.AgingLayout{})
	if err != nil {
		return parser.ParseResult{Status: parser.StatusError, Errors: []string{err.Error()}}
	}
	rc.run.Aging = &a
	mergeTokens(rc.run.Result.Tokens, a.Tokens)
	rc.run.Result.Provenance = append(rc.run.Result.Provenance, a.Provenance...)
	return parser.ParseResult{Status: parser.StatusProcessed, Tokens: len(a.Tokens)}
}

func (c *Coordinator) processMoveLog(rc *runContext, sheet model.Sheet) parser.ParseResult {
	m, err := parser.ExtractMoveLog(sheet.Name, sheet.Grid, rc.period)
	if err != nil {
		status := parser.StatusError
		if errors.Is(err, parser.ErrHeaderRowNotFound) {
			status = parser.StatusSkipped
		}
		return parser.ParseResult{Status: status, Errors: []string{err.Error()}}
	}
	rc.run.MoveLog = &m
	mergeTokens(rc.run.Result.Tokens, m.Tokens)
	rc.run.Result.Provenance = append(rc.run.Result.Provenance, m.Provenance...)
	return parser.ParseResult{Status: parser.StatusProcessed, Tokens: len(m.Tokens), Lines: len(m.Months)}
}

func mergeTokens(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] = v
	}
}

func recognizedType(recognition []model.SheetRecognition, name string) model.SheetType {
	for _, r := range recognition {
		if r.SheetName == name {
			return r.Type
		}
	}
	return model.SheetTypeUnknown
}

// recordSheetResult 记录 Sheet 处理结果
func (c *Coordinator) recordSheetResult(rc *runContext, result parser.ParseResult) {
	report := rc.run.Report
	report.Sheets = append(report.Sheets, result)

	switch result.Status {
	case parser.StatusProcessed:
		report.ProcessedSheets++
		report.TotalLines += result.Lines
	case parser.StatusSkipped:
		report.SkippedSheets++
	}
}

// send 补齐时间戳后回调；回调为空时丢弃
func (c *Coordinator) send(progress func(ProgressEvent), event ProgressEvent) {
	if progress == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	progress(event)
}

// Scan 布局扫描参数
func (c *Coordinator) Scan() parser.ScanOptions {
	return c.scan
}
