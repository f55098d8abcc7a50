package exporter

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// flattenFormulas 将目标单元格中的公式替换为其缓存值，避免写入后残留的公式覆盖结果。
// 不计算公式：没有缓存值的单元格写 0，并在 uncached 中返回。
func flattenFormulas(f *excelize.File, sheet string, cells []string) (flattened int, uncached []string, err error) {
	for _, cell := range cells {
		formula, err := f.GetCellFormula(sheet, cell)
		if err != nil {
			return flattened, uncached, err
		}
		if strings.TrimSpace(formula) == "" {
			continue
		}

		cached, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
		s := strings.TrimSpace(cached)
		if err != nil || s == "" {
			if err := setCellValueAndClearFormula(f, sheet, cell, 0); err != nil {
				return flattened, uncached, err
			}
			uncached = append(uncached, cell)
			flattened++
			continue
		}

		var v any = s
		if num, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil && !math.IsNaN(num) && !math.IsInf(num, 0) {
			v = num
		}
		if err := setCellValueAndClearFormula(f, sheet, cell, v); err != nil {
			return flattened, uncached, err
		}
		flattened++
	}
	return flattened, uncached, nil
}

func setCellValueAndClearFormula(f *excelize.File, sheet, cell string, value any) error {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	return f.SetCellFormula(sheet, cell, "")
}
