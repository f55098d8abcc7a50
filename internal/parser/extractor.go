package parser

import (
	"fmt"

	"proforma/internal/model"
)

var defaultMapper = NewFieldMapper()

// Extraction 经营报表的提取结果
type Extraction struct {
	Series     model.SeriesMap    `json:"seriesByLabel"`
	Lines      []model.SeriesLine `json:"lines"`
	Order      []string           `json:"order"`
	Totals     model.Totals       `json:"series"`
	Provenance model.Provenance   `json:"provenance"`
}

// ExtractSeries 逐行读取收入区间与费用区间（均不含锚点行）的 12 个月数值。
//
// 汇总由已保存的序列求和得出，不读取报表中的合计行；noi = toi - toe。
func ExtractSeries(g model.Grid, l model.LayoutDescriptor) Extraction {
	ex := Extraction{
		Series:     model.SeriesMap{},
		Lines:      []model.SeriesLine{},
		Order:      []string{},
		Provenance: model.Provenance{},
	}

	var toi, toe model.Series
	seen := map[string]model.Section{}
	if from, to, ok := l.IncomeRange(); ok {
		toi = extractSection(g, l, from, to, model.SectionIncome, seen, &ex)
	} else {
		ex.Provenance.Add(model.ProvenanceEntry{
			Token:       model.KeyTotalOperatingIncome,
			SourceSheet: l.SheetName,
			Note:        "income section not resolved; no income lines extracted",
		})
	}
	if from, to, ok := l.ExpenseRange(); ok {
		toe = extractSection(g, l, from, to, model.SectionExpense, seen, &ex)
	} else {
		ex.Provenance.Add(model.ProvenanceEntry{
			Token:       model.KeyTotalOperatingExpense,
			SourceSheet: l.SheetName,
			Note:        "expense section not resolved; no expense lines extracted",
		})
	}

	ex.Totals = model.Totals{TOI: toi, TOE: toe, NOI: toi.Sub(toe)}
	ex.Provenance.Add(model.ProvenanceEntry{
		Token:        model.KeyTotalOperatingIncome,
		SourceSheet:  l.SheetName,
		ComputedFrom: fmt.Sprintf("sum of %d income lines", countSection(ex.Lines, model.SectionIncome)),
	})
	ex.Provenance.Add(model.ProvenanceEntry{
		Token:        model.KeyTotalOperatingExpense,
		SourceSheet:  l.SheetName,
		ComputedFrom: fmt.Sprintf("sum of %d expense lines", countSection(ex.Lines, model.SectionExpense)),
	})
	ex.Provenance.Add(model.ProvenanceEntry{
		Token:        model.KeyNetOperatingIncome,
		SourceSheet:  l.SheetName,
		ComputedFrom: "toi - toe",
	})
	return ex
}

// extractSection 同一区间内的重复行合并；另一区间已出现的同名行以 ScopedKey 单独保存
func extractSection(g model.Grid, l model.LayoutDescriptor, from, to int, section model.Section, seen map[string]model.Section, ex *Extraction) model.Series {
	var sum model.Series
	for r := from; r <= to; r++ {
		labelRef := model.Ref{Row: r, Col: l.LabelColumn}
		label := CoerceLabel(g.At(r, l.LabelColumn))
		if label == "" {
			continue
		}

		values, numeric := readValues(g, l, r)
		if !numeric {
			// 子标题行
			continue
		}

		match := defaultMapper.Map(label, section)
		if model.IsTotalsKey(match.Key) {
			ex.Provenance.Add(model.ProvenanceEntry{
				Token:        match.Key,
				SourceSheet:  l.SheetName,
				MatchedAlias: match.MatchedAlias,
				Note:         fmt.Sprintf("totals row %s ignored; totals are recomputed", labelRef.A1()),
			})
			continue
		}
		if model.IsContraKey(match.Key) {
			for i, v := range values {
				if v > 0 {
					values[i] = -v
				}
			}
		}
		if values.IsZero() {
			ex.Provenance.Add(model.ProvenanceEntry{
				Token:        match.Key,
				SourceSheet:  l.SheetName,
				MatchedAlias: match.MatchedAlias,
				Note:         fmt.Sprintf("all-zero row %s dropped", labelRef.A1()),
			})
			continue
		}

		entry := model.ProvenanceEntry{
			Token:        match.Key,
			SourceSheet:  l.SheetName,
			SourceCell:   labelRef.A1(),
			MatchedAlias: match.MatchedAlias,
			ComputedFrom: fmt.Sprintf("row %d %s:%s", r+1, model.ColumnName(l.ValueColumn(0)), model.ColumnName(l.ValueColumn(BandSize-1))),
		}
		if !match.Mapped {
			entry.Note = joinNote("unmapped label kept as-is", match.Note)
			if hint := defaultMapper.Hint(label); hint != "" {
				entry.Note += "; closest canonical line: " + hint
			}
		}

		key, baseKey := match.Key, ""
		if prevSec, ok := seen[key]; ok && prevSec != section {
			key, baseKey = model.ScopedKey(match.Key, section), match.Key
			entry.Token = key
			entry.Note = joinNote(entry.Note, fmt.Sprintf("same line already in %s section; kept separately", prevSec))
		}
		if prev, ok := ex.Series[key]; ok {
			ex.Series[key] = prev.Add(values)
			entry.Note = joinNote(entry.Note, "merged with earlier row of the same line")
		} else {
			ex.Series[key] = values
			ex.Order = append(ex.Order, key)
			if baseKey == "" {
				seen[key] = section
			}
		}
		ex.Provenance.Add(entry)

		ex.Lines = append(ex.Lines, model.SeriesLine{
			Key:          key,
			RawLabel:     label,
			Section:      section,
			Mapped:       match.Mapped,
			MatchedAlias: match.MatchedAlias,
			SourceRow:    r + 1,
			Values:       values,
			BaseKey:      baseKey,
		})
		sum = sum.Add(values)
	}
	return sum
}

func readValues(g model.Grid, l model.LayoutDescriptor, row int) (model.Series, bool) {
	var values model.Series
	numeric := false
	for i := 0; i < BandSize; i++ {
		c := g.At(row, l.ValueColumn(i))
		if IsNumeric(c) {
			numeric = true
		}
		values[i] = CoerceNumber(c)
	}
	return values, numeric
}

func countSection(lines []model.SeriesLine, section model.Section) int {
	n := 0
	for _, ln := range lines {
		if ln.Section == section {
			n++
		}
	}
	return n
}

func joinNote(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
