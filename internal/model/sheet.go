package model

// SheetType 工作表类型（用于输入容错识别）
type SheetType string

const (
	SheetTypeUnknown SheetType = "unknown"

	SheetTypeStatement SheetType = "statement" // 12 个月经营报表
	SheetTypeBudget    SheetType = "budget"    // 预算对比
	SheetTypeAging     SheetType = "aging"     // 欠租账龄
	SheetTypeMoveLog   SheetType = "move_log"  // 迁入迁出记录
)

// SheetRecognition 单个 sheet 的识别结果
type SheetRecognition struct {
	SheetName     string    `json:"sheetName"`
	Type          SheetType `json:"type"`
	Score         float64   `json:"score"`
	MissingFields []string  `json:"missingFields"`
}

// SheetMeta sheet 处理元信息（审计落库）
type SheetMeta struct {
	SheetName    string
	SheetType    string
	Confidence   float64
	TotalRows    int
	TotalColumns int
	ImportedRows int
	LayoutJSON   string
	Status       string
	ErrorMessage string
	ImportLogID  int64
	SourceFile   string
}
