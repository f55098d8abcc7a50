package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// 环境变量覆盖
const (
	EnvTemplatePath       = "PROFORMA_TEMPLATE_XLSX"
	EnvReportTemplatePath = "PROFORMA_REPORT_TEMPLATE_PPTX"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvPort               = "PROFORMA_PORT"
	EnvLogLevel           = "PROFORMA_LOG_LEVEL"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Excel   ExcelConfig   `toml:"excel"`
	Report  ReportConfig  `toml:"report"`
	Layout  LayoutConfig  `toml:"layout"`
	Mapping MappingConfig `toml:"mapping"`
	AI      AIConfig      `toml:"ai"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int   `toml:"port"`
	DevMode     bool  `toml:"dev_mode"`
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir  string `toml:"data_dir"`
	AuditLog bool   `toml:"audit_log"`
}

// ExcelConfig Excel 导出相关配置
type ExcelConfig struct {
	TemplatePath string `toml:"template_path"`
	SheetName    string `toml:"sheet_name"`
}

// ReportConfig 业主报告（pptx）配置
type ReportConfig struct {
	TemplatePath string `toml:"template_path"`
}

// LayoutConfig 布局扫描边界
type LayoutConfig struct {
	MaxScanRows  int `toml:"max_scan_rows"`
	MaxScanCols  int `toml:"max_scan_cols"`
	LabelWindow  int `toml:"label_window"`
	LabelMinHits int `toml:"label_min_hits"`
}

// MappingConfig 表头映射配置
type MappingConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// AIConfig 表头建议（可选）
type AIConfig struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// APIKey 仅从环境变量读取，不写回配置文件
	APIKey string `toml:"-"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxUploadMB: 32,
		},
		Data: DataConfig{
			DataDir:  "data",
			AuditLog: true,
		},
		Layout: LayoutConfig{
			MaxScanRows:  160,
			MaxScanCols:  60,
			LabelWindow:  80,
			LabelMinHits: 5,
		},
		Mapping: MappingConfig{
			ConfidenceThreshold: 0.88,
		},
		AI: AIConfig{
			Enabled:        false,
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 加载可执行文件同目录下的 config.toml 与 .env
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	// .env 不存在时忽略；已设置的环境变量优先
	_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	_ = godotenv.Load()

	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定文件加载配置；文件不存在时使用默认配置
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case !os.IsNotExist(err):
		return nil, info, err
	}

	applyEnv(config, &info)
	return config, info, nil
}

func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := strings.TrimSpace(os.Getenv(EnvTemplatePath)); v != "" {
		config.Excel.TemplatePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvReportTemplatePath)); v != "" {
		config.Report.TemplatePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); v != "" {
		config.AI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			config.Server.Port = p
			info.PortSpecified = true
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.Logging.Level = v
	}
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return SaveConfigTo(config, filepath.Join(exeDir, "config.toml"))
}

// SaveConfigTo 保存配置到指定文件
func SaveConfigTo(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, _ := GetExeDir()
	if exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}
