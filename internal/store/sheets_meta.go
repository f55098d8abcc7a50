package store

import (
	"encoding/json"
	"fmt"

	"proforma/internal/model"
)

// InsertSheetMeta 写入 sheet 识别与布局（用于追溯）
func (s *Store) InsertSheetMeta(meta model.SheetMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO sheets_meta (
			sheet_name, sheet_type, confidence,
			total_rows, total_columns,
			imported_rows,
			layout_json,
			status, error_message,
			import_log_id,
			source_file
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.SheetName, meta.SheetType, meta.Confidence,
		meta.TotalRows, meta.TotalColumns,
		meta.ImportedRows,
		meta.LayoutJSON,
		meta.Status, meta.ErrorMessage,
		meta.ImportLogID,
		meta.SourceFile,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sheets_meta: %w", err)
	}
	return nil
}

// ListSheetMeta 某次运行的 sheet 记录（写入顺序）
func (s *Store) ListSheetMeta(importLogID int64) ([]model.SheetMeta, error) {
	rows, err := s.db.Query(`
		SELECT sheet_name, sheet_type, confidence, total_rows, total_columns, imported_rows,
			layout_json, status, error_message, import_log_id, source_file
		FROM sheets_meta WHERE import_log_id = ? ORDER BY id
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("query sheets_meta failed: %w", err)
	}
	defer rows.Close()

	out := []model.SheetMeta{}
	for rows.Next() {
		var m model.SheetMeta
		if err := rows.Scan(
			&m.SheetName, &m.SheetType, &m.Confidence, &m.TotalRows, &m.TotalColumns, &m.ImportedRows,
			&m.LayoutJSON, &m.Status, &m.ErrorMessage, &m.ImportLogID, &m.SourceFile,
		); err != nil {
			return nil, fmt.Errorf("scan sheets_meta failed: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BuildLayoutJSON 将布局序列化为 JSON；失败时返回空串
func BuildLayoutJSON(layout any) string {
	if layout == nil {
		return ""
	}
	b, err := json.Marshal(layout)
	if err != nil {
		return ""
	}
	return string(b)
}
