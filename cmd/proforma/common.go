package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"proforma/internal/config"
	"proforma/internal/importer"
	"proforma/internal/service/excel"
	"proforma/internal/store"
)

// expandFiles 展开 glob；无匹配时按普通路径处理
func expandFiles(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("no files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found")
	}
	return files, nil
}

func loadWorkbookFile(path string) (*excel.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return excel.LoadWorkbook(f, filepath.Base(path))
}

// loadOptionalWorkbook path 为空时返回 nil
func loadOptionalWorkbook(path string) (*excel.Workbook, error) {
	if path == "" {
		return nil, nil
	}
	return loadWorkbookFile(path)
}

// openStore 未开启审计时返回 nil
func openStore(cfg *config.AppConfig) (*store.Store, error) {
	if !cfg.Data.AuditLog {
		return nil, nil
	}
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return store.New(filepath.Join(dir, "proforma.db"))
}

// newCoordinator 调用方负责关闭返回的 store
func newCoordinator(cfg *config.AppConfig) (*importer.Coordinator, *store.Store, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return importer.NewCoordinator(st, cfg.ScanOptions(), config.Component(logger, "importer")), st, nil
}

// runBatch 并发处理互不相关的文件；每个文件使用独立的网格
func runBatch(ctx context.Context, files []string, desc string, fn func(ctx context.Context, path string) error) error {
	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionClearOnFinish(),
		)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range files {
		g.Go(func() error {
			if err := fn(ctx, path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// writeJSONFile 写入 dir/name，返回路径
func writeJSONFile(dir, name string, v any) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func baseName(path string) string {
	b := filepath.Base(path)
	return b[:len(b)-len(filepath.Ext(b))]
}
