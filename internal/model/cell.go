package model

import (
	"strconv"
	"strings"
	"time"
)

// CellKind 单元格取值类别
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellDate
)

func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell 网格中的一个值；不保留公式，只保留其缓存结果
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
	Time time.Time
}

func EmptyCell() Cell { return Cell{} }

func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Str: s}
}

func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// IsEmpty 无值；只含空白的文本也视为空
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// String 不带格式的显示值
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellText:
		return c.Str
	case CellDate:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}
