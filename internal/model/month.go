package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthAbbrev = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// MonthToken 规范化的月份标识，形如 "oct-2025"
type MonthToken string

// NewMonthToken 由年月构造规范 token
func NewMonthToken(year int, month time.Month) MonthToken {
	if month < time.January || month > time.December {
		return ""
	}
	return MonthToken(fmt.Sprintf("%s-%04d", monthAbbrev[month-1], year))
}

// MonthTokenOf 取时间所在月份
func MonthTokenOf(t time.Time) MonthToken {
	return NewMonthToken(t.Year(), t.Month())
}

// MonthAbbrevIndex 三字母小写缩写 -> 1..12，未知返回 0
func MonthAbbrevIndex(abbr string) int {
	abbr = strings.ToLower(abbr)
	for i, m := range monthAbbrev {
		if m == abbr {
			return i + 1
		}
	}
	return 0
}

// YearMonth 拆分规范 token；非规范形式 ok=false
func (m MonthToken) YearMonth() (year int, month time.Month, ok bool) {
	s := string(m)
	if len(s) != 8 || s[3] != '-' {
		return 0, 0, false
	}
	idx := MonthAbbrevIndex(s[:3])
	if idx == 0 || s[:3] != monthAbbrev[idx-1] {
		return 0, 0, false
	}
	y, err := strconv.Atoi(s[4:])
	if err != nil {
		return 0, 0, false
	}
	return y, time.Month(idx), true
}

// Valid 是否为规范形式
func (m MonthToken) Valid() bool {
	_, _, ok := m.YearMonth()
	return ok
}

// Label 展示形式 "Oct-2025"
func (m MonthToken) Label() string {
	y, mon, ok := m.YearMonth()
	if !ok {
		return string(m)
	}
	return fmt.Sprintf("%s-%04d", strings.ToUpper(monthAbbrev[mon-1][:1])+monthAbbrev[mon-1][1:], y)
}

// MonthDelta b 与 a 相差的月数；仅对规范形式定义
func MonthDelta(a, b MonthToken) (int, bool) {
	ay, am, ok := a.YearMonth()
	if !ok {
		return 0, false
	}
	by, bm, ok := b.YearMonth()
	if !ok {
		return 0, false
	}
	return (by*12 + int(bm)) - (ay*12 + int(am)), true
}

// AddMonths 向后（n<0 向前）偏移 n 个月；无效 token 原样返回
func (m MonthToken) AddMonths(n int) MonthToken {
	y, mon, ok := m.YearMonth()
	if !ok {
		return m
	}
	idx := y*12 + int(mon) - 1 + n
	return NewMonthToken(idx/12, time.Month(idx%12+1))
}
