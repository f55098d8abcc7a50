package exporter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
	"proforma/internal/parser"
)

// AuditSheet 审计 sheet 名
const AuditSheet = "Audit"

// Exporter Pro Forma 导出器
//
// 只改写模板中的数值单元格；sheet、样式、列宽以及非目标单元格的公式原样保留。
type Exporter struct {
	templatePath string
	sheetName    string
	scan         parser.ScanOptions
	logger       *slog.Logger
}

// NewExporter 创建导出器；templatePath 为空时依次尝试环境变量与内置模板
func NewExporter(templatePath, sheetName string, scan parser.ScanOptions, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		templatePath: templatePath,
		sheetName:    sheetName,
		scan:         scan,
		logger:       logger,
	}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Facility string
	Period   string
	Series   model.SeriesMap
	// Lines 提取行；用于确定每个序列键的来源区间
	Lines      []model.SeriesLine
	Aggregates *model.Totals
	// Months 源报表的月份带；非空时重写目标月份带
	Months   *[12]model.MonthToken
	Audit    bool
	Progress ProgressFunc
	// Provenance 上游（提取/预算/账龄）的决策记录，写入审计 sheet
	Provenance model.Provenance
}

// ExportResult 导出结果
type ExportResult struct {
	File     *excelize.File
	Filename string
	Sheet    string
	Source   TemplateSource
	Report   ProjectionReport
}

// Export 打开模板并写入序列；调用方负责关闭 File
func (e *Exporter) Export(opts ExportOptions) (*ExportResult, error) {
	reportProgress(opts.Progress, 5, "打开模板")
	var start model.MonthToken
	if opts.Months != nil {
		start = opts.Months[0]
	}
	f, src, err := openTemplateWorkbook(e.templatePath, start)
	if err != nil {
		return nil, err
	}

	sheet := e.targetSheet(f, src)
	var fallbacks parser.AnchorFallbacks
	if src == TemplateFromBuiltin {
		fallbacks = DefaultTemplateFallbacks()
	}

	reportProgress(opts.Progress, 30, "推断模板布局")
	report, err := Project(f, sheet, opts.Series, opts.Aggregates, ProjectOptions{
		Fallbacks: fallbacks,
		Scan:      e.scan,
		Months:    opts.Months,
		Lines:     opts.Lines,
		Logger:    e.logger,
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 80, "写入完成")

	if opts.Audit {
		all := append(model.Provenance{}, opts.Provenance...)
		all = append(all, report.Provenance...)
		if err := writeAuditSheet(f, all); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	reportProgress(opts.Progress, 100, "完成")

	e.logger.Info("proforma exported",
		"sheet", sheet,
		"template", string(src),
		"written", len(report.Written),
		"skipped", len(report.Skipped),
		"flattened", report.Flattened,
	)
	return &ExportResult{
		File:     f,
		Filename: ExportFilename(opts.Facility, opts.Period),
		Sheet:    sheet,
		Source:   src,
		Report:   report,
	}, nil
}

func (e *Exporter) targetSheet(f *excelize.File, src TemplateSource) string {
	if src == TemplateFromBuiltin {
		return DefaultTemplateSheet
	}
	if name := strings.TrimSpace(e.sheetName); name != "" {
		return name
	}
	if idx, err := f.GetSheetIndex(DefaultTemplateSheet); err == nil && idx >= 0 {
		return DefaultTemplateSheet
	}
	return f.GetSheetName(0)
}

// ExportFilename 导出文件名：Proforma_{facility}_{period}.xlsx，空段省略
func ExportFilename(facility, period string) string {
	return outputFilename("Proforma", facility, period) + ".xlsx"
}

// ReportFilename 业主报告文件名：Owner_Report_{facility}_{period}.pptx
func ReportFilename(facility, period string) string {
	return outputFilename("Owner_Report", facility, period) + ".pptx"
}

func outputFilename(prefix, facility, period string) string {
	parts := []string{prefix}
	if f := strings.Join(strings.Fields(facility), "_"); f != "" {
		parts = append(parts, f)
	}
	if p := strings.TrimSpace(period); p != "" {
		p = strings.NewReplacer(" ", "-", "/", "-", "\\", "-").Replace(p)
		parts = append(parts, p)
	}
	return strings.Join(parts, "_")
}

var auditHeader = []any{"Token", "Source Sheet", "Source Cell", "Matched Alias", "Computed From", "Note"}

// writeAuditSheet 以表格形式输出全部决策记录；已存在同名 sheet 时覆盖
func writeAuditSheet(f *excelize.File, entries model.Provenance) error {
	if idx, err := f.GetSheetIndex(AuditSheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(AuditSheet); err != nil {
			return fmt.Errorf("reset audit sheet: %w", err)
		}
	}
	if _, err := f.NewSheet(AuditSheet); err != nil {
		return fmt.Errorf("create audit sheet: %w", err)
	}
	header := auditHeader
	if err := f.SetSheetRow(AuditSheet, "A1", &header); err != nil {
		return err
	}
	for i, e := range entries {
		row := []any{e.Token, e.SourceSheet, e.SourceCell, e.MatchedAlias, e.ComputedFrom, e.Note}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(AuditSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(AuditSheet, "A", "A", 36)
	_ = f.SetColWidth(AuditSheet, "B", "F", 22)
	return nil
}
