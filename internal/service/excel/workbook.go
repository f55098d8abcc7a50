package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"proforma/internal/model"
)

var (
	// ErrWorkbookUnreadable 文件损坏或不是受支持的工作簿
	ErrWorkbookUnreadable = errors.New("workbook unreadable")
	// ErrUnsupportedFormat 既不是 xlsx 也不是 xls
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
	// ErrNoSheets 工作簿没有任何 sheet
	ErrNoSheets = errors.New("workbook has no sheets")
)

// 文件头魔数
var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// isoDateLayouts JSON 网格中被识别为日期的字符串格式
var isoDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Workbook 已加载为网格的工作簿（sheet 保持原顺序）
type Workbook struct {
	Filename string
	Sheets   []model.Sheet

	file *excelize.File
}

// LoadWorkbook 读取 xlsx/xlsm（excelize）或 xls（extrame/xls）为网格
func LoadWorkbook(r io.Reader, filename string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}

	switch detectFormat(filename, data) {
	case "xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
		}
		wb, err := FromExcelize(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		wb.Filename = filename
		return wb, nil
	case "xls":
		return loadXLS(data, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func detectFormat(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".xls":
		return "xls"
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return "xlsx"
	case bytes.HasPrefix(data, oleMagic):
		return "xls"
	}
	return ""
}

// FromExcelize 将已打开的 excelize 工作簿转为网格；调用方仍可通过 File() 访问原对象
func FromExcelize(f *excelize.File) (*Workbook, error) {
	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}
	wb := &Workbook{Sheets: make([]model.Sheet, 0, len(names)), file: f}
	for _, name := range names {
		g, err := SheetGrid(f, name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrWorkbookUnreadable, name, err)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: name, Grid: g})
	}
	return wb, nil
}

// SheetGrid 读取单个 sheet 的原始缓存值（不按显示格式渲染）
func SheetGrid(f *excelize.File, sheet string) (model.Grid, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return GridFromRows(rows), nil
}

// GridFromRows 字符串行转网格：可直接解析的数字为 Number，其余非空为 Text
func GridFromRows(rows [][]string) model.Grid {
	g := make(model.Grid, len(rows))
	for r, row := range rows {
		g[r] = make([]model.Cell, len(row))
		for c, v := range row {
			g[r][c] = rawCell(v)
		}
	}
	return g
}

func rawCell(v string) model.Cell {
	s := strings.TrimSpace(v)
	if s == "" {
		return model.EmptyCell()
	}
	// "NaN"、"Inf" 之类的文本保留为 Text
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return model.NumberCell(n)
	}
	return model.TextCell(v)
}

func loadXLS(data []byte, filename string) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	if book.NumSheets() == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{Filename: filename, Sheets: make([]model.Sheet, 0, book.NumSheets())}
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			vals := make([]string, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				vals[c] = row.Col(c)
			}
			rows = append(rows, vals)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: sheet.Name, Grid: GridFromRows(rows)})
	}
	if len(wb.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	return wb, nil
}

// GridFromJSON JSON 网格转网格：数字为 Number，ISO 日期字符串为 Date，其余字符串为 Text，null 为 Empty
func GridFromJSON(rows [][]any) model.Grid {
	g := make(model.Grid, len(rows))
	for r, row := range rows {
		g[r] = make([]model.Cell, len(row))
		for c, v := range row {
			g[r][c] = jsonCell(v)
		}
	}
	return g
}

func jsonCell(v any) model.Cell {
	switch x := v.(type) {
	case nil:
		return model.EmptyCell()
	case float64:
		return model.NumberCell(x)
	case float32:
		return model.NumberCell(float64(x))
	case int:
		return model.NumberCell(float64(x))
	case int64:
		return model.NumberCell(float64(x))
	case bool:
		if x {
			return model.NumberCell(1)
		}
		return model.NumberCell(0)
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return model.DateCell(t)
			}
		}
		return model.TextCell(x)
	default:
		return model.TextCell(fmt.Sprint(x))
	}
}

// FromPayloads JSON sheet 列表转工作簿
func FromPayloads(payloads []model.SheetPayload) (*Workbook, error) {
	if len(payloads) == 0 {
		return nil, ErrNoSheets
	}
	wb := &Workbook{Sheets: make([]model.Sheet, 0, len(payloads))}
	for i, p := range payloads {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: name, Grid: GridFromJSON(p.Grid)})
	}
	return wb, nil
}

// Sheet 按名称查找
func (w *Workbook) Sheet(name string) (model.Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return model.Sheet{}, false
}

// SheetNames 工作簿顺序的 sheet 名
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		out[i] = s.Name
	}
	return out
}

// File 返回底层 excelize 工作簿；非 xlsx 来源时为 nil
func (w *Workbook) File() *excelize.File {
	return w.file
}

// Close 关闭底层文件
func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}
