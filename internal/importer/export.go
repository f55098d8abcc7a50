package importer

import (
	"proforma/internal/exporter"
)

// ExportOptions 用本次运行的序列填充导出选项；period 为空时取月份带的最后一个月。
// 未找到月份带时不传合计，由模板已写入的行重算（均为 0）。
func (r *Run) ExportOptions(facility, period string) exporter.ExportOptions {
	if period == "" && r.Layout != nil {
		period = r.Layout.MonthTokens[len(r.Layout.MonthTokens)-1].Label()
	}
	opts := exporter.ExportOptions{
		Facility:   facility,
		Period:     period,
		Series:     r.Result.SeriesByLabel,
		Lines:      r.Result.Lines,
		Months:     r.Months(),
		Provenance: r.Result.Provenance,
	}
	if r.Layout != nil {
		totals := r.Result.Series
		opts.Aggregates = &totals
	}
	return opts
}
