package model

// ResolveResult 解析阶段产物：各角色选中的 sheet
type ResolveResult struct {
	Sheets        map[SheetType]string `json:"sheets"`
	Recognition   []SheetRecognition   `json:"recognition"`
	UnknownSheets []string             `json:"unknownSheets"`
	UnusedSheets  []string             `json:"unusedSheets"`
}

// Statement 选中的经营报表 sheet 名，未识别时为空
func (r ResolveResult) Statement() string {
	return r.Sheets[SheetTypeStatement]
}
