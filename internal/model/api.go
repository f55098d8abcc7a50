package model

// SheetPayload JSON 入参中的单个 sheet
type SheetPayload struct {
	Name string  `json:"name"`
	Grid [][]any `json:"grid"`
}

// NormalizeRequest normalize/export 接口请求体
//
// 支持 {sheets:[...]} 与单 sheet 的 {grid, name} 两种形式。
type NormalizeRequest struct {
	Sheets   []SheetPayload `json:"sheets"`
	Grid     [][]any        `json:"grid"`
	Name     string         `json:"name"`
	Facility string         `json:"facility"`
	Period   string         `json:"period"`
	// StatementSheet 手工指定经营报表 sheet，跳过自动识别
	StatementSheet string `json:"statementSheet,omitempty"`
}

// Payloads 两种请求形式统一为 sheet 列表
func (r NormalizeRequest) Payloads() []SheetPayload {
	if len(r.Sheets) > 0 {
		return r.Sheets
	}
	if r.Grid == nil {
		return nil
	}
	name := r.Name
	if name == "" {
		name = "Sheet1"
	}
	return []SheetPayload{{Name: name, Grid: r.Grid}}
}

// NormalizeResult normalize 的完整结果
type NormalizeResult struct {
	RunID         string             `json:"runId"`
	Facility      string             `json:"facility,omitempty"`
	Period        string             `json:"period,omitempty"`
	Detected      *Detected          `json:"detected"`
	Layout        *LayoutSummary     `json:"layout,omitempty"`
	SeriesByLabel SeriesMap          `json:"seriesByLabel"`
	Series        Totals             `json:"series"`
	Lines         []SeriesLine       `json:"lines"`
	Recognition   []SheetRecognition `json:"recognition,omitempty"`
	Tokens        map[string]float64 `json:"tokens,omitempty"`
	Provenance    Provenance         `json:"provenance"`
}
