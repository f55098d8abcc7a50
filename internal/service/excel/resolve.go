package excel

import (
	"sort"

	"proforma/internal/model"
	"proforma/internal/parser"
)

// ResolveOptions ResolveWorkbook 的选项
type ResolveOptions struct {
	Overrides map[string]model.SheetType
	Scan      parser.ScanOptions
}

type resolveCandidate struct {
	sheetName string
	score     float64
	index     int
	forced    bool
}

// resolvedTypes 每种角色最多选中一个 sheet
var resolvedTypes = []model.SheetType{
	model.SheetTypeStatement,
	model.SheetTypeBudget,
	model.SheetTypeAging,
	model.SheetTypeMoveLog,
}

// ResolveWorkbook 根据“识别结果 + 用户 override”为每种角色选择 sheet
func ResolveWorkbook(wb *Workbook, opts ResolveOptions) model.ResolveResult {
	rec := NewRecognizer(opts.Scan)
	recognition := rec.RecognizeWorkbook(wb)

	applyOverrides(recognition, opts.Overrides)
	forced := forcedSheetsByType(opts.Overrides)

	result := model.ResolveResult{
		Sheets:        make(map[model.SheetType]string),
		Recognition:   recognition,
		UnknownSheets: []string{},
		UnusedSheets:  []string{},
	}

	selected := make(map[string]struct{})
	for _, t := range resolvedTypes {
		if picked := pickBestSheet(recognition, forced, t); picked != "" {
			result.Sheets[t] = picked
			selected[picked] = struct{}{}
		}
	}

	for _, r := range recognition {
		if r.Type == model.SheetTypeUnknown {
			result.UnknownSheets = append(result.UnknownSheets, r.SheetName)
			continue
		}
		if _, ok := selected[r.SheetName]; ok {
			continue
		}
		result.UnusedSheets = append(result.UnusedSheets, r.SheetName)
	}
	return result
}

func applyOverrides(recognition []model.SheetRecognition, overrides map[string]model.SheetType) {
	if len(overrides) == 0 {
		return
	}
	for i, r := range recognition {
		t, ok := overrides[r.SheetName]
		if !ok {
			continue
		}
		recognition[i] = model.SheetRecognition{
			SheetName:     r.SheetName,
			Type:          t,
			Score:         1.0,
			MissingFields: []string{},
		}
	}
}

func forcedSheetsByType(overrides map[string]model.SheetType) map[model.SheetType]map[string]struct{} {
	out := make(map[model.SheetType]map[string]struct{})
	for sheetName, t := range overrides {
		if _, ok := out[t]; !ok {
			out[t] = make(map[string]struct{})
		}
		out[t][sheetName] = struct{}{}
	}
	return out
}

func pickBestSheet(recognition []model.SheetRecognition, forced map[model.SheetType]map[string]struct{}, sheetType model.SheetType) string {
	cands := make([]resolveCandidate, 0)
	for i, r := range recognition {
		if r.Type != sheetType {
			continue
		}
		_, isForced := forced[sheetType][r.SheetName]
		cands = append(cands, resolveCandidate{
			sheetName: r.SheetName,
			score:     r.Score,
			index:     i,
			forced:    isForced,
		})
	}
	if len(cands) == 0 {
		return ""
	}
	return bestCandidate(cands)
}

func bestCandidate(cands []resolveCandidate) string {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].forced != cands[j].forced {
			return cands[i].forced
		}
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].index < cands[j].index
	})
	return cands[0].sheetName
}
