package exporter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatTokens 按 token 后缀格式化数值：
// PER/PCT 为百分比（两位小数），UNITS 与迁入迁出计数为整数，其余为整数金额，负数加括号。
func FormatTokens(values map[string]float64) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = FormatToken(k, v)
	}
	return out
}

// FormatValues JSON 解码得到的混合取值：数字按后缀格式化，字符串原样保留，其余忽略
func FormatValues(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch x := v.(type) {
		case float64:
			out[k] = FormatToken(k, x)
		case string:
			out[k] = x
		}
	}
	return out
}

// FormatToken 格式化单个 token
func FormatToken(token string, v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case isPercentToken(token):
		return d.Round(2).StringFixed(2) + "%"
	case isCountToken(token):
		return groupThousands(d.Round(0).String())
	default:
		r := d.Round(0)
		s := "$" + groupThousands(r.Abs().String())
		if r.IsNegative() {
			return "(" + s + ")"
		}
		return s
	}
}

func isPercentToken(token string) bool {
	t := strings.ToUpper(token)
	return strings.HasSuffix(t, "PER") || strings.HasSuffix(t, "PCT")
}

func isCountToken(token string) bool {
	t := strings.ToUpper(token)
	if strings.HasSuffix(t, "UNITS") {
		return true
	}
	for _, p := range []string{"MOVEINS", "MOVEOUTS", "NETMOVES"} {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// groupThousands 为整数字符串加千分位（保留负号）
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
