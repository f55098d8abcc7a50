package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// 运行状态
const (
	RunProcessing = "processing"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// ImportLog 一次运行的审计记录
type ImportLog struct {
	ID              int64      `json:"id"`
	RunID           string     `json:"runId"`
	Operation       string     `json:"operation"`
	Filename        string     `json:"filename"`
	Facility        string     `json:"facility"`
	Period          string     `json:"period"`
	TotalSheets     int        `json:"totalSheets"`
	ProcessedSheets int        `json:"processedSheets"`
	SkippedSheets   int        `json:"skippedSheets"`
	TotalLines      int        `json:"totalLines"`
	Status          string     `json:"status"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// ImportLogUpdate 运行结束时的汇总
type ImportLogUpdate struct {
	TotalSheets     int
	ProcessedSheets int
	SkippedSheets   int
	TotalLines      int
	Status          string
	ErrorMessage    string
}

// CreateImportLog 创建运行记录，返回 import_log_id
func (s *Store) CreateImportLog(runID, operation, filename, facility, period string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (run_id, operation, filename, facility, period, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, operation, filename, facility, period, RunProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 写入运行汇总并标记完成时间
func (s *Store) UpdateImportLog(id int64, u ImportLogUpdate) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			total_sheets = ?,
			processed_sheets = ?,
			skipped_sheets = ?,
			total_lines = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, u.TotalSheets, u.ProcessedSheets, u.SkippedSheets, u.TotalLines, u.Status, u.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

const importLogColumns = `id, run_id, operation, filename, facility, period,
	total_sheets, processed_sheets, skipped_sheets, total_lines,
	status, error_message, created_at, completed_at`

func scanImportLog(row interface{ Scan(...any) error }) (*ImportLog, error) {
	var (
		it        ImportLog
		completed sql.NullTime
	)
	if err := row.Scan(
		&it.ID, &it.RunID, &it.Operation, &it.Filename, &it.Facility, &it.Period,
		&it.TotalSheets, &it.ProcessedSheets, &it.SkippedSheets, &it.TotalLines,
		&it.Status, &it.ErrorMessage, &it.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		it.CompletedAt = &t
	}
	return &it, nil
}

// GetImportLog 按 run_id 查询
func (s *Store) GetImportLog(runID string) (*ImportLog, error) {
	row := s.db.QueryRow(`SELECT `+importLogColumns+` FROM import_logs WHERE run_id = ?`, runID)
	it, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import log %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return it, nil
}

// ListImportLogs 最近的运行记录（新的在前）
func (s *Store) ListImportLogs(limit int) ([]*ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+importLogColumns+` FROM import_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []*ImportLog{}
	for rows.Next() {
		it, err := scanImportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

// CountImportLogs 运行总数
func (s *Store) CountImportLogs() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM import_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count import logs failed: %w", err)
	}
	return n, nil
}
