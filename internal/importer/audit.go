package importer

import (
	"strings"

	"proforma/internal/model"
	"proforma/internal/parser"
	"proforma/internal/store"
)

// audit 写入运行记录、sheet 布局与决策记录；失败只记日志，不影响结果
func (c *Coordinator) audit(rc *runContext) {
	if c.store == nil {
		return
	}
	run := rc.run
	logger := c.logger.With("run_id", run.Report.RunID)

	id, err := c.store.CreateImportLog(run.Report.RunID, rc.opts.Operation, rc.opts.Filename, rc.opts.Facility, rc.opts.Period)
	if err != nil {
		logger.Error("audit: create import log failed", "error", err)
		return
	}

	failed := 0
	for _, res := range run.Report.Sheets {
		meta := model.SheetMeta{
			SheetName:    res.SheetName,
			SheetType:    string(res.SheetType),
			Confidence:   recognitionScore(run.Resolve.Recognition, res.SheetName),
			ImportedRows: res.Lines,
			Status:       res.Status,
			ErrorMessage: strings.Join(res.Errors, "; "),
			ImportLogID:  id,
			SourceFile:   rc.opts.Filename,
		}
		if s, ok := rc.wb.Sheet(res.SheetName); ok {
			meta.TotalRows = s.Grid.Rows()
			meta.TotalColumns = s.Grid.Width()
		}
		if run.Layout != nil && run.Layout.SheetName == res.SheetName {
			meta.LayoutJSON = store.BuildLayoutJSON(run.Layout.Summary())
		}
		if res.Status == parser.StatusError {
			failed++
		}
		if err := c.store.InsertSheetMeta(meta); err != nil {
			logger.Error("audit: insert sheet meta failed", "sheet", res.SheetName, "error", err)
		}
	}

	if err := c.store.InsertProvenance(id, run.Result.Provenance); err != nil {
		logger.Error("audit: insert provenance failed", "error", err)
	}

	status := store.RunCompleted
	msg := ""
	if failed > 0 && run.Report.ProcessedSheets == 0 {
		status = store.RunFailed
		msg = "no sheet processed"
	}
	if err := c.store.UpdateImportLog(id, store.ImportLogUpdate{
		TotalSheets:     run.Report.TotalSheets,
		ProcessedSheets: run.Report.ProcessedSheets,
		SkippedSheets:   run.Report.SkippedSheets,
		TotalLines:      run.Report.TotalLines,
		Status:          status,
		ErrorMessage:    msg,
	}); err != nil {
		logger.Error("audit: update import log failed", "error", err)
	}

	if rc.opts.Facility != "" || rc.opts.Period != "" {
		if err := c.store.SetLastPeriod(rc.opts.Facility, rc.opts.Period); err != nil {
			logger.Warn("audit: remember last period failed", "error", err)
		}
	}
}

func recognitionScore(recognition []model.SheetRecognition, name string) float64 {
	for _, r := range recognition {
		if r.SheetName == name {
			return r.Score
		}
	}
	return 0
}
