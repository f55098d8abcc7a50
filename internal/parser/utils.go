package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeLabel 科目标签规范化：小写、& 转 and、去除括号外标点、压缩空白
//
// "Repairs & Maint." -> "repairs and maint"
// "Rental Income (1% monthly increase)" -> "rental income (1% monthly increase)"
func NormalizeLabel(s string) string {
	s = strings.ToLower(stripMarks(s))
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
			b.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(r)
		case depth == 0 && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return CollapseSpaces(b.String())
}

// NormalizeAnchorText 锚点文本规范化：仅小写与压缩空白
func NormalizeAnchorText(s string) string {
	return CollapseSpaces(strings.ToLower(s))
}

// NormalizeHeaderKey 表头规范化：小写并去除全部空白（"% Var" 与 "%Var" 等价）
func NormalizeHeaderKey(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(s), "")
}

// CollapseSpaces 去除首尾空白，连续空白合并为一个空格
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

