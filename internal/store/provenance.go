package store

import (
	"fmt"

	"proforma/internal/model"
)

// InsertProvenance 批量写入决策记录（保持原顺序）
func (s *Store) InsertProvenance(importLogID int64, entries model.Provenance) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO provenance (
			import_log_id, seq, token,
			source_sheet, source_cell, matched_alias,
			computed_from, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(
			importLogID, i, e.Token,
			e.SourceSheet, e.SourceCell, e.MatchedAlias,
			e.ComputedFrom, e.Note,
		); err != nil {
			return fmt.Errorf("failed to insert provenance %q: %w", e.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListProvenance 某次运行的决策记录
func (s *Store) ListProvenance(importLogID int64) (model.Provenance, error) {
	rows, err := s.db.Query(`
		SELECT token, source_sheet, source_cell, matched_alias, computed_from, note
		FROM provenance WHERE import_log_id = ? ORDER BY seq
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("query provenance failed: %w", err)
	}
	defer rows.Close()

	out := model.Provenance{}
	for rows.Next() {
		var e model.ProvenanceEntry
		if err := rows.Scan(&e.Token, &e.SourceSheet, &e.SourceCell, &e.MatchedAlias, &e.ComputedFrom, &e.Note); err != nil {
			return nil, fmt.Errorf("scan provenance failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountProvenance 决策记录总数（状态接口展示）
func (s *Store) CountProvenance() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM provenance`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count provenance failed: %w", err)
	}
	return n, nil
}
