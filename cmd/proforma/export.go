package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"proforma/internal/config"
	"proforma/internal/exporter"
	"proforma/internal/importer"
	"proforma/internal/util"
)

func exportCmd() *cobra.Command {
	var (
		facility      string
		period        string
		sheet         string
		templatePath  string
		templateSheet string
		outDir        string
		audit         bool
		open          bool
	)
	cmd := &cobra.Command{
		Use:   "export [files...]",
		Short: "Re-project operating statements onto the proforma template",
		Long: `Normalize each workbook and write its series into the proforma template
(config excel.template_path, $PROFORMA_TEMPLATE_XLSX, or the built-in template).
Formulas in destination and total rows are replaced by literal values.

Examples:
  proforma export --facility "Sunrise Storage" --period "Sep 2025" T12.xlsx
  proforma export --out ./proformas ~/Downloads/*.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}
			coord, st, err := newCoordinator(appConfig)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			if templatePath == "" {
				templatePath = appConfig.Excel.TemplatePath
			}
			if templateSheet == "" {
				templateSheet = appConfig.Excel.SheetName
			}
			exp := exporter.NewExporter(templatePath, templateSheet, appConfig.ScanOptions(), config.Component(logger, "exporter"))

			var (
				mu      sync.Mutex
				written []string
			)
			err = runBatch(cmd.Context(), files, "exporting", func(ctx context.Context, path string) error {
				name := facility
				if name == "" && len(files) > 1 {
					name = baseName(path)
				}
				out, err := exportOne(ctx, coord, exp, path, name, period, sheet, audit, outDir)
				if err != nil {
					return err
				}
				mu.Lock()
				written = append(written, out)
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
				if open {
					if err := util.OpenWithFallback(p); err != nil {
						logger.Warn("open export failed", "file", p, "error", err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&facility, "facility", "", "facility name (default: file name when exporting several files)")
	cmd.Flags().StringVar(&period, "period", "", "report period (default: last month of the band)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "statement sheet name (skips sheet recognition)")
	cmd.Flags().StringVar(&templatePath, "template", "", "proforma template .xlsx (overrides config)")
	cmd.Flags().StringVar(&templateSheet, "template-sheet", "", "template sheet to write (default: Proforma or the first sheet)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&audit, "audit-sheet", true, "append an Audit sheet with every extraction decision")
	cmd.Flags().BoolVar(&open, "open", false, "open the exported workbook(s)")
	return cmd
}

func exportOne(ctx context.Context, coord *importer.Coordinator, exp *exporter.Exporter, path, facility, period, sheet string, audit bool, outDir string) (string, error) {
	wb, err := loadWorkbookFile(path)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	run, err := coord.Normalize(ctx, wb, importer.NormalizeOptions{
		Facility:  facility,
		Period:    period,
		Overrides: statementOverride(sheet),
		Audit:     appConfig.Data.AuditLog,
		Operation: "export",
	})
	if err != nil {
		return "", err
	}
	if run.Layout == nil {
		logger.Warn("no 12-month band found; exporting an empty proforma", "file", path)
	}

	opts := run.ExportOptions(facility, period)
	opts.Audit = audit
	res, err := exp.Export(opts)
	if err != nil {
		return "", err
	}
	defer res.File.Close()

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	out := filepath.Join(outDir, res.Filename)
	if err := res.File.SaveAs(out); err != nil {
		return "", fmt.Errorf("save %s: %w", out, err)
	}
	logger.Info("exported", "file", path, "out", out, "written", len(res.Report.Written), "skipped", len(res.Report.Skipped))
	return out, nil
}
