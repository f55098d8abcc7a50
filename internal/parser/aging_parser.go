package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
)

// AgingBucket 账龄分段在固定报表中的位置（行号 1-based）
type AgingBucket struct {
	Label string
	Token string
	Row   int
}

// AgingLayout 账龄报表单元格映射。供应商报表版式固定，故按坐标读取。
type AgingLayout struct {
	Buckets     []AgingBucket
	LabelCol    string
	DollarsCol  string
	UnitsCol    string
	PercentCol  string
	TotalPrefix string
}

// DefaultAgingLayout 默认的供应商账龄版式
func DefaultAgingLayout() AgingLayout {
	return AgingLayout{
		Buckets: []AgingBucket{
			{Label: "0-10", Token: "DELQ0TO10", Row: 12},
			{Label: "11-30", Token: "DELQ11TO30", Row: 13},
			{Label: "31-60", Token: "DELQ31TO60", Row: 14},
			{Label: "61-90", Token: "DELQ61TO90", Row: 15},
			{Label: "91-120", Token: "DELQ91TO120", Row: 16},
			{Label: "121-180", Token: "DELQ121TO180", Row: 17},
			{Label: "181-360", Token: "DELQ181TO360", Row: 18},
			{Label: "361+", Token: "DELQ361PLUS", Row: 19},
		},
		LabelCol:    "K",
		DollarsCol:  "L",
		UnitsCol:    "M",
		PercentCol:  "N",
		TotalPrefix: "DELQTOTAL",
	}
}

// AgingResult 账龄提取结果
type AgingResult struct {
	Tokens     map[string]float64 `json:"tokens"`
	Provenance model.Provenance   `json:"provenance"`
}

const over30Prefix = "DELQOVER30"

// ExtractAging 按固定坐标读取各分段的金额、单元数与占比，并汇总合计与 30 天以上逾期
func ExtractAging(sheetName string, g model.Grid, layout AgingLayout) (AgingResult, error) {
	if len(layout.Buckets) == 0 {
		layout = DefaultAgingLayout()
	}
	labelCol, err := columnIndex(layout.LabelCol)
	if err != nil {
		return AgingResult{}, err
	}
	cols := make([]int, 3)
	for i, name := range []string{layout.DollarsCol, layout.UnitsCol, layout.PercentCol} {
		if cols[i], err = columnIndex(name); err != nil {
			return AgingResult{}, err
		}
	}
	suffixes := [3]string{"DOL", "UNITS", "PCT"}

	res := AgingResult{Tokens: make(map[string]float64), Provenance: model.Provenance{}}
	var totals, over30 [3]decimal.Decimal
	for _, b := range layout.Buckets {
		r := b.Row - 1
		if label := CoerceLabel(g.At(r, labelCol)); label != "" && !bucketLabelMatches(label, b.Label) {
			res.Provenance.Add(model.ProvenanceEntry{
				Token:       b.Token,
				SourceSheet: sheetName,
				Note:        fmt.Sprintf("row %d label %q does not look like bucket %s", b.Row, label, b.Label),
			})
		}

		pastThirty := b.Token != "DELQ0TO10" && b.Token != "DELQ11TO30"
		for i, c := range cols {
			cell := g.At(r, c)
			var v float64
			if i == 2 {
				v = CoercePercent(cell)
			} else {
				v = CoerceNumber(cell)
			}
			token := b.Token + suffixes[i]
			res.Tokens[token] = v
			res.Provenance.Add(model.ProvenanceEntry{
				Token:       token,
				SourceSheet: sheetName,
				SourceCell:  model.Ref{Row: r, Col: c}.A1(),
			})

			d := decimal.NewFromFloat(v)
			totals[i] = totals[i].Add(d)
			if pastThirty {
				over30[i] = over30[i].Add(d)
			}
		}
	}

	for i, s := range suffixes {
		res.Tokens[layout.TotalPrefix+s] = totals[i].Round(4).InexactFloat64()
		res.Tokens[over30Prefix+s] = over30[i].Round(4).InexactFloat64()
		res.Provenance.Add(model.ProvenanceEntry{
			Token:        layout.TotalPrefix + s,
			SourceSheet:  sheetName,
			ComputedFrom: "sum of all buckets",
		})
		res.Provenance.Add(model.ProvenanceEntry{
			Token:        over30Prefix + s,
			SourceSheet:  sheetName,
			ComputedFrom: "sum of buckets past 30 days",
		})
	}
	return res, nil
}

func bucketLabelMatches(label, bucket string) bool {
	norm := func(s string) string {
		s = strings.ToLower(s)
		s = strings.NewReplacer(" ", "", "days", "", "day", "", "–", "-", "plus", "+").Replace(s)
		return s
	}
	return strings.Contains(norm(label), norm(bucket))
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("aging column %q: %w", name, err)
	}
	return n - 1, nil
}
