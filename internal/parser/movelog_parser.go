package parser

import (
	"fmt"
	"sort"
	"strings"

	"proforma/internal/model"
)

// MoveMonth 单月入住/退租次数
type MoveMonth struct {
	Month    model.MonthToken `json:"month"`
	MoveIns  int              `json:"moveIns"`
	MoveOuts int              `json:"moveOuts"`
}

// MoveLogResult 入住/退租日志提取结果
type MoveLogResult struct {
	Period     model.MonthToken   `json:"period"`
	Months     []MoveMonth        `json:"months"`
	Tokens     map[string]float64 `json:"tokens"`
	Provenance model.Provenance   `json:"provenance"`
}

// ExtractMoveLog 按月统计 "Move In" / "Move Out" 两列中的日期。
// period 为空时取日志中出现的最后一个月份。
func ExtractMoveLog(sheetName string, g model.Grid, period model.MonthToken) (MoveLogResult, error) {
	hr, inCol, outCol, ok := findMoveLogHeader(g)
	if !ok {
		return MoveLogResult{}, fmt.Errorf("%w: move in/out columns in %q", ErrHeaderRowNotFound, sheetName)
	}

	counts := map[model.MonthToken]*MoveMonth{}
	bump := func(m model.MonthToken) *MoveMonth {
		mm, ok := counts[m]
		if !ok {
			mm = &MoveMonth{Month: m}
			counts[m] = mm
		}
		return mm
	}

	for r := hr + 1; r < len(g); r++ {
		if t, ok := CoerceDate(g.At(r, inCol)); ok {
			bump(model.MonthTokenOf(t)).MoveIns++
		}
		if outCol >= 0 {
			if t, ok := CoerceDate(g.At(r, outCol)); ok {
				bump(model.MonthTokenOf(t)).MoveOuts++
			}
		}
	}

	res := MoveLogResult{
		Months:     make([]MoveMonth, 0, len(counts)),
		Tokens:     make(map[string]float64),
		Provenance: model.Provenance{},
	}
	for _, mm := range counts {
		res.Months = append(res.Months, *mm)
	}
	sort.Slice(res.Months, func(i, j int) bool {
		d, _ := model.MonthDelta(res.Months[i].Month, res.Months[j].Month)
		return d > 0
	})

	if period == "" && len(res.Months) > 0 {
		period = res.Months[len(res.Months)-1].Month
	}
	res.Period = period
	if period == "" {
		return res, nil
	}

	var cur MoveMonth
	var ytdIn, ytdOut int
	py, _, _ := period.YearMonth()
	for _, mm := range res.Months {
		y, _, _ := mm.Month.YearMonth()
		d, ok := model.MonthDelta(mm.Month, period)
		if !ok || y != py || d < 0 {
			continue
		}
		ytdIn += mm.MoveIns
		ytdOut += mm.MoveOuts
		if d == 0 {
			cur = mm
		}
	}

	res.Tokens["MOVEINS"] = float64(cur.MoveIns)
	res.Tokens["MOVEOUTS"] = float64(cur.MoveOuts)
	res.Tokens["NETMOVES"] = float64(cur.MoveIns - cur.MoveOuts)
	res.Tokens["MOVEINSYTD"] = float64(ytdIn)
	res.Tokens["MOVEOUTSYTD"] = float64(ytdOut)
	res.Tokens["NETMOVESYTD"] = float64(ytdIn - ytdOut)
	for _, tok := range []string{"MOVEINS", "MOVEOUTS", "NETMOVES"} {
		res.Provenance.Add(model.ProvenanceEntry{
			Token:        tok,
			SourceSheet:  sheetName,
			ComputedFrom: "count of dates in " + period.Label(),
		})
	}
	return res, nil
}

func findMoveLogHeader(g model.Grid) (row, inCol, outCol int, ok bool) {
	for r := 0; r < min(len(g), maxHeaderScanRows); r++ {
		inCol, outCol = -1, -1
		for c, cell := range g[r] {
			h := NormalizeLabel(CoerceLabel(cell))
			switch {
			case inCol < 0 && isMoveHeader(h, "in"):
				inCol = c
			case outCol < 0 && isMoveHeader(h, "out"):
				outCol = c
			}
		}
		if inCol >= 0 {
			return r, inCol, outCol, true
		}
	}
	return -1, -1, -1, false
}

func isMoveHeader(h, dir string) bool {
	h = strings.ReplaceAll(h, " ", "")
	return strings.HasPrefix(h, "move"+dir) || strings.HasPrefix(h, "moved"+dir)
}
