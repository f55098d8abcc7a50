package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	keyLastFacility = "last_facility"
	keyLastPeriod   = "last_period"
)

// GetConfig 获取配置项；不存在时返回 ErrNotFound
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("config key %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// GetLastPeriod 最近一次运行的物业与期间
func (s *Store) GetLastPeriod() (facility, period string, err error) {
	facility, err = s.GetConfig(keyLastFacility)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", "", fmt.Errorf("failed to get last facility: %w", err)
	}
	period, err = s.GetConfig(keyLastPeriod)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", "", fmt.Errorf("failed to get last period: %w", err)
	}
	return facility, period, nil
}

// SetLastPeriod 记录最近一次运行的物业与期间
func (s *Store) SetLastPeriod(facility, period string) error {
	if err := s.SetConfig(keyLastFacility, facility); err != nil {
		return err
	}
	return s.SetConfig(keyLastPeriod, period)
}
