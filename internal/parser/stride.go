package parser

import "proforma/internal/model"

// Stride 月份数值列的间隔与偏移
type Stride struct {
	Stride int `json:"stride"`
	Offset int `json:"offset"`
}

var contiguous = Stride{Stride: 1, Offset: 0}

// DetectStride 依据样本行判断是否存在 "$" 占位列：
//
//	(a) startCol-1 为 "$" 且 startCol 不是   -> {2, 0}
//	(b) startCol 为 "$" 且 startCol+1 不是   -> {2, 1}
//	(c) 其它                                 -> {1, 0}
//
// 三种情况按顺序在全部样本行上检查。
func DetectStride(g model.Grid, startCol int, sampleRows []int) Stride {
	for _, r := range sampleRows {
		if startCol > 0 && IsCurrencySpacer(g.At(r, startCol-1)) && !IsCurrencySpacer(g.At(r, startCol)) {
			return Stride{Stride: 2, Offset: 0}
		}
	}
	for _, r := range sampleRows {
		if IsCurrencySpacer(g.At(r, startCol)) && !IsCurrencySpacer(g.At(r, startCol+1)) {
			return Stride{Stride: 2, Offset: 1}
		}
	}
	return contiguous
}
