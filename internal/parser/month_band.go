package parser

import "proforma/internal/model"

const (
	// BandSize 月份带长度
	BandSize = 12
	// 11 个相邻对中至少 9 个相差恰好一个月
	minSequentialPairs = 9
)

// ScanOptions 布局扫描边界
type ScanOptions struct {
	MaxScanRows  int
	MaxScanCols  int
	LabelWindow  int
	LabelMinHits int
}

// DefaultScanOptions 默认扫描边界
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxScanRows:  160,
		MaxScanCols:  60,
		LabelWindow:  80,
		LabelMinHits: 5,
	}
}

func (o ScanOptions) withDefaults() ScanOptions {
	d := DefaultScanOptions()
	if o.MaxScanRows <= 0 {
		o.MaxScanRows = d.MaxScanRows
	}
	if o.MaxScanCols <= 0 {
		o.MaxScanCols = d.MaxScanCols
	}
	if o.LabelWindow <= 0 {
		o.LabelWindow = d.LabelWindow
	}
	if o.LabelMinHits <= 0 {
		o.LabelMinHits = d.LabelMinHits
	}
	return o
}

// MonthBand 定位到的月份带（0-based）
type MonthBand struct {
	Row      int
	StartCol int
	Tokens   [BandSize]model.MonthToken
}

// LocateMonthBand 扫描网格，返回第一处（行优先、再列优先）连续 12 个月的月份带
func LocateMonthBand(g model.Grid, opts ScanOptions) (MonthBand, bool) {
	opts = opts.withDefaults()

	maxRow := min(len(g), opts.MaxScanRows)
	for r := 0; r < maxRow; r++ {
		row := g[r]
		lastStart := min(len(row)-BandSize, opts.MaxScanCols)
		for c := 0; c <= lastStart; c++ {
			tokens, ok := readBand(row, c)
			if !ok {
				continue
			}
			if !IsSequentialBand(tokens) {
				continue
			}
			return MonthBand{Row: r, StartCol: c, Tokens: tokens}, true
		}
	}
	return MonthBand{}, false
}

func readBand(row []model.Cell, start int) ([BandSize]model.MonthToken, bool) {
	var tokens [BandSize]model.MonthToken
	for i := 0; i < BandSize; i++ {
		tok, ok := CoerceMonthToken(row[start+i])
		if !ok {
			return tokens, false
		}
		tokens[i] = tok
	}
	return tokens, true
}

// IsSequentialBand 至少 9/11 个相邻对相差恰好一个月
func IsSequentialBand(tokens [BandSize]model.MonthToken) bool {
	hits := 0
	for i := 1; i < BandSize; i++ {
		if d, ok := model.MonthDelta(tokens[i-1], tokens[i]); ok && d == 1 {
			hits++
		}
	}
	return hits >= minSequentialPairs
}
