package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvTemplatePath, "")
	t.Setenv(EnvPort, "")

	cfg, info, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if info.FileFound || info.PortSpecified {
		t.Fatalf("unexpected info: %+v", info)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port || cfg.Mapping.ConfidenceThreshold != 0.88 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFrom_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[server]
port = 9000

[excel]
template_path = "from-file.xlsx"
sheet_name = "Pro Forma"

[layout]
max_scan_rows = 40

[mapping]
confidence_threshold = 0.95

[logging]
level = "debug"
format = "json"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvTemplatePath, "/tmp/from-env.xlsx")
	t.Setenv(EnvGeminiAPIKey, "k")
	t.Setenv(EnvPort, "")

	cfg, info, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if !info.FileFound || !info.PortSpecified || cfg.Server.Port != 9000 {
		t.Fatalf("port not loaded: %+v %+v", info, cfg.Server)
	}
	if cfg.Excel.TemplatePath != "/tmp/from-env.xlsx" || cfg.Excel.SheetName != "Pro Forma" {
		t.Fatalf("excel config: %+v", cfg.Excel)
	}
	if cfg.AI.APIKey != "k" || cfg.AIEnabled() {
		t.Fatalf("ai should need both key and switch: %+v", cfg.AI)
	}

	scan := cfg.ScanOptions()
	if scan.MaxScanRows != 40 || scan.MaxScanCols != 60 {
		t.Fatalf("scan options: %+v", scan)
	}
	if cfg.ConfidenceThreshold() != 0.95 {
		t.Fatalf("threshold=%v", cfg.ConfidenceThreshold())
	}
}

func TestLoadConfigFrom_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := LoadConfigFrom(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveConfigTo_RoundTrip(t *testing.T) {
	t.Setenv(EnvTemplatePath, "")
	t.Setenv(EnvGeminiAPIKey, "")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Report.TemplatePath = "owner.pptx"
	cfg.AI.APIKey = "secret"
	if err := SaveConfigTo(cfg, path); err != nil {
		t.Fatalf("SaveConfigTo: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if bytes.Contains(raw, []byte("secret")) {
		t.Fatalf("api key must not be persisted")
	}

	got, _, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if got.Report.TemplatePath != "owner.pptx" {
		t.Fatalf("report template lost: %+v", got.Report)
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf), "exporter")

	logger.Info("hidden")
	logger.Warn("shown", "sheet", "T12")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["component"] != "exporter" || rec["sheet"] != "T12" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}
