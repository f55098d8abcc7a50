package config

import (
	"time"

	"proforma/internal/parser"
)

// ScanOptions 布局扫描边界；未配置的项由 parser 使用默认值
func (c *AppConfig) ScanOptions() parser.ScanOptions {
	return parser.ScanOptions{
		MaxScanRows:  c.Layout.MaxScanRows,
		MaxScanCols:  c.Layout.MaxScanCols,
		LabelWindow:  c.Layout.LabelWindow,
		LabelMinHits: c.Layout.LabelMinHits,
	}
}

// ConfidenceThreshold 表头自动映射阈值，非法值回退默认
func (c *AppConfig) ConfidenceThreshold() float64 {
	t := c.Mapping.ConfidenceThreshold
	if t <= 0 || t > 1 {
		return parser.DefaultConfidenceThreshold
	}
	return t
}

// AITimeout AI 建议的超时
func (c *AppConfig) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// AIEnabled 开关打开且配置了 key
func (c *AppConfig) AIEnabled() bool {
	return c.AI.Enabled && c.AI.APIKey != ""
}
