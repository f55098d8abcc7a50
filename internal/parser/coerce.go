package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"proforma/internal/model"
)

// Excel 序列日期的合理区间（约 1954-10 至 2119-01）
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	monthNameRe  = regexp.MustCompile(`^([a-z]{3,9})\.?[\s\-/']*(\d{4}|\d{2})$`)
	monthSlashRe = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	yearMonthRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
)

var fullMonthNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"02-Jan-06",
}

// CoerceNumber 将任意单元格转为数值；无法解析时返回 0，从不报错
func CoerceNumber(c model.Cell) float64 {
	switch c.Kind {
	case model.CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0
		}
		return c.Num
	case model.CellText:
		v, _ := ParseNumber(c.Str)
		return v
	default:
		return 0
	}
}

// ParseNumber 解析财务文本：忽略货币符号、千分位与空白，"(x)" 与尾随负号表示负数
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "%", "", "\u2212", "-").Replace(s)
	if strings.HasSuffix(s, "-") && len(s) > 1 {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	for _, ch := range s {
		if (ch < '0' || ch > '9') && ch != '.' && ch != '-' && ch != '+' && ch != 'e' && ch != 'E' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// IsNumeric 单元格是否为数值或可解析为数值的文本
func IsNumeric(c model.Cell) bool {
	switch c.Kind {
	case model.CellNumber:
		return true
	case model.CellText:
		_, ok := ParseNumber(c.Str)
		return ok
	default:
		return false
	}
}

// IsCurrencySpacer 单独的 "$" 占位单元格
func IsCurrencySpacer(c model.Cell) bool {
	return c.Kind == model.CellText && strings.TrimSpace(c.Str) == "$"
}

// ExcelSerialToTime 序列日期（1899-12-30 纪元）转时间
func ExcelSerialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	return excelEpoch.AddDate(0, 0, int(days))
}

// CoerceMonthToken 尝试将单元格识别为月份；不是月份时返回 false
func CoerceMonthToken(c model.Cell) (model.MonthToken, bool) {
	switch c.Kind {
	case model.CellNumber:
		if c.Num < minExcelSerial || c.Num > maxExcelSerial {
			return "", false
		}
		return model.MonthTokenOf(ExcelSerialToTime(c.Num)), true
	case model.CellDate:
		return model.MonthTokenOf(c.Time), true
	case model.CellText:
		return parseMonthText(c.Str)
	default:
		return "", false
	}
}

func parseMonthText(s string) (model.MonthToken, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}

	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		month := monthFromName(m[1])
		year := expandYear(m[2])
		return buildToken(year, month)
	}
	if m := monthSlashRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return buildToken(year, month)
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return buildToken(year, month)
	}
	return "", false
}

func monthFromName(name string) int {
	for i, full := range fullMonthNames {
		if strings.HasPrefix(full, name) && len(name) >= 3 {
			return i + 1
		}
	}
	return 0
}

func expandYear(s string) int {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if len(s) == 2 {
		return 2000 + y
	}
	return y
}

func buildToken(year, month int) (model.MonthToken, bool) {
	if month < 1 || month > 12 || year < 1900 || year > 2199 {
		return "", false
	}
	return model.NewMonthToken(year, time.Month(month)), true
}

// CoerceDate 识别日期单元格（原生日期、序列日期或常见文本格式）
func CoerceDate(c model.Cell) (time.Time, bool) {
	switch c.Kind {
	case model.CellDate:
		return c.Time, true
	case model.CellNumber:
		if c.Num < minExcelSerial || c.Num > maxExcelSerial {
			return time.Time{}, false
		}
		return ExcelSerialToTime(c.Num), true
	case model.CellText:
		s := strings.TrimSpace(c.Str)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// CoerceLabel 单元格的标签文本（去除首尾空白）
func CoerceLabel(c model.Cell) string {
	switch c.Kind {
	case model.CellText:
		return strings.TrimSpace(c.Str)
	case model.CellNumber, model.CellDate:
		return c.String()
	default:
		return ""
	}
}
