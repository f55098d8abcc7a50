package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"proforma/internal/exporter"
	"proforma/internal/importer"
	"proforma/internal/service/excel"
	"proforma/internal/util"
)

func reportCmd() *cobra.Command {
	var (
		book, budget, aging, statements string
		tokensFile                      string
		facility, period                string
		templatePath                    string
		outDir                          string
		open                            bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the owner report (.pptx) from statement, budget and aging tokens",
		Long: `Collect tokens from the given workbooks (and/or a JSON token file) and substitute
them into the {{TOKEN}} placeholders of the report template.

Examples:
  proforma report --file package.xlsx --period "Sep 2025"
  proforma report --budget budget.xlsx --aging aging.xlsx --tokens extra.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := importer.ReportSources{Facility: facility, Period: period, Audit: appConfig.Data.AuditLog}
			defer func() {
				for _, wb := range []*excel.Workbook{src.Book, src.Budget, src.Aging, src.Statements} {
					if wb != nil {
						_ = wb.Close()
					}
				}
			}()
			for _, f := range []struct {
				path string
				dst  **excel.Workbook
			}{
				{book, &src.Book},
				{budget, &src.Budget},
				{aging, &src.Aging},
				{statements, &src.Statements},
			} {
				wb, err := loadOptionalWorkbook(f.path)
				if err != nil {
					return fmt.Errorf("%s: %w", f.path, err)
				}
				*f.dst = wb
			}

			tokens := map[string]string{}
			if src.Book != nil || src.Budget != nil || src.Aging != nil {
				coord, st, err := newCoordinator(appConfig)
				if err != nil {
					return err
				}
				if st != nil {
					defer st.Close()
				}
				values, err := coord.ReportTokens(cmd.Context(), src)
				if err != nil {
					return err
				}
				tokens = exporter.FormatTokens(values)
			}
			if tokensFile != "" {
				extra, err := readTokenFile(tokensFile)
				if err != nil {
					return err
				}
				for k, v := range extra {
					tokens[k] = v
				}
			}
			if len(tokens) == 0 {
				return fmt.Errorf("no token source: pass --file, --budget, --aging or --tokens")
			}

			if templatePath == "" {
				templatePath = appConfig.Report.TemplatePath
			}
			var buf bytes.Buffer
			res, err := exporter.NewReportRenderer(templatePath).Render(&buf, tokens)
			if err != nil {
				return err
			}
			if len(res.Missing) > 0 {
				logger.Warn("placeholders without values", "tokens", res.Missing)
			}

			if err := ensureDir(outDir); err != nil {
				return err
			}
			out := filepath.Join(outDir, exporter.ReportFilename(facility, period))
			if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if open {
				if err := util.OpenWithFallback(out); err != nil {
					logger.Warn("open report failed", "file", out, "error", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&book, "file", "", "workbook with the statement (and optionally budget/aging/move sheets)")
	cmd.Flags().StringVar(&budget, "budget", "", "budget comparison workbook")
	cmd.Flags().StringVar(&aging, "aging", "", "delinquency aging workbook")
	cmd.Flags().StringVar(&statements, "statements", "", "financial statements workbook for Current Month backfill")
	cmd.Flags().StringVar(&tokensFile, "tokens", "", "JSON object of extra token values (numbers are formatted by suffix)")
	cmd.Flags().StringVar(&facility, "facility", "", "facility name")
	cmd.Flags().StringVar(&period, "period", "", "report period")
	cmd.Flags().StringVar(&templatePath, "template", "", "report template .pptx (overrides config)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&open, "open", false, "open the rendered report")
	return cmd
}

func readTokenFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return exporter.FormatValues(raw), nil
}
