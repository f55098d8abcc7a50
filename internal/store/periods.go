package store

import "fmt"

// PeriodStat 各物业/期间的运行统计
type PeriodStat struct {
	Facility string `json:"facility"`
	Period   string `json:"period"`

	Runs      int    `json:"runs"`
	Failed    int    `json:"failed"`
	LastRunID string `json:"lastRunId"`
}

// ListPeriods 按物业、期间汇总运行记录（最近运行的在前）
func (s *Store) ListPeriods() ([]PeriodStat, error) {
	rows, err := s.db.Query(`
		SELECT
			facility,
			period,
			COUNT(1) AS runs,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed,
			(SELECT l2.run_id FROM import_logs l2
			  WHERE l2.facility = l.facility AND l2.period = l.period
			  ORDER BY l2.id DESC LIMIT 1) AS last_run_id
		FROM import_logs l
		GROUP BY facility, period
		ORDER BY MAX(id) DESC
	`, RunFailed)
	if err != nil {
		return nil, fmt.Errorf("query periods failed: %w", err)
	}
	defer rows.Close()

	out := []PeriodStat{}
	for rows.Next() {
		var it PeriodStat
		if err := rows.Scan(&it.Facility, &it.Period, &it.Runs, &it.Failed, &it.LastRunID); err != nil {
			return nil, fmt.Errorf("scan periods failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods failed: %w", err)
	}
	return out, nil
}
