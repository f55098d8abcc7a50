package parser

import (
	"time"

	"proforma/internal/model"
)

// 单表处理状态
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

// ParseResult 单个 Sheet 的处理结果
type ParseResult struct {
	SheetName   string          `json:"sheetName"`
	SheetType   model.SheetType `json:"sheetType"`
	Status      string          `json:"status"` // processed/skipped/error
	Lines       int             `json:"lines"`
	SkippedRows int             `json:"skippedRows"`
	Tokens      int             `json:"tokens"`
	Errors      []string        `json:"errors,omitempty"`
	Duration    time.Duration   `json:"duration"`
}

// ImportReport 一次规范化运行的汇总报告
type ImportReport struct {
	RunID           string        `json:"runId"`
	Filename        string        `json:"filename"`
	TotalSheets     int           `json:"totalSheets"`
	ProcessedSheets int           `json:"processedSheets"`
	SkippedSheets   int           `json:"skippedSheets"`
	TotalLines      int           `json:"totalLines"`
	Duration        time.Duration `json:"duration"`
	Sheets          []ParseResult `json:"sheets"`
}
