package model

import "github.com/xuri/excelize/v2"

// Grid 行优先的二维单元格数组（内部 0-based）
type Grid [][]Cell

// At 越界时返回空单元格
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Cell{}
	}
	return g[row][col]
}

// Rows 行数
func (g Grid) Rows() int { return len(g) }

// Width 最长行的列数
func (g Grid) Width() int {
	w := 0
	for _, r := range g {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Sheet 具名工作表
type Sheet struct {
	Name string
	Grid Grid
}

// Ref 0-based 网格坐标
type Ref struct {
	Row int
	Col int
}

// A1 转为表格记法（1-based）
func (r Ref) A1() string {
	name, err := excelize.CoordinatesToCellName(r.Col+1, r.Row+1)
	if err != nil {
		return ""
	}
	return name
}

// ColumnName 0-based 列号转字母（1 -> "B"）
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return ""
	}
	return name
}
