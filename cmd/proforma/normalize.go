package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"proforma/internal/importer"
	"proforma/internal/model"
)

func normalizeCmd() *cobra.Command {
	var (
		facility string
		period   string
		sheet    string
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "normalize [files...]",
		Short: "Infer the layout of operating statements and print the canonical 12-month series",
		Long: `Infer the month band, label column and section anchors of each workbook and extract
the canonical series with provenance.

Examples:
  # Single file to stdout
  proforma normalize ~/Downloads/T12_Sep2025.xlsx

  # Several files, one JSON per file
  proforma normalize --out ./normalized ~/Downloads/*.xlsx`,
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

			var (
				mu      sync.Mutex
				results = map[string]*model.NormalizeResult{}
			)
			err = runBatch(cmd.Context(), files, "normalizing", func(ctx context.Context, path string) error {
				wb, err := loadWorkbookFile(path)
				if err != nil {
					return err
				}
				defer wb.Close()

				run, err := coord.Normalize(ctx, wb, importer.NormalizeOptions{
					Facility:  facility,
					Period:    period,
					Overrides: statementOverride(sheet),
					Audit:     appConfig.Data.AuditLog,
				})
				if err != nil {
					return err
				}
				if outDir != "" {
					_, err := writeJSONFile(outDir, baseName(path)+".json", run.Result)
					return err
				}
				mu.Lock()
				results[path] = run.Result
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outDir != "" {
				fmt.Fprintf(out, "wrote %d file(s) to %s\n", len(files), filepath.Clean(outDir))
				return nil
			}
			if len(files) == 1 {
				return writeJSON(out, results[files[0]])
			}
			return writeJSON(out, results)
		},
	}
	cmd.Flags().StringVar(&facility, "facility", "", "facility name")
	cmd.Flags().StringVar(&period, "period", "", "report period, e.g. \"Sep 2025\" (default: last month of the band)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "statement sheet name (skips sheet recognition)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write one JSON file per input into this directory")
	return cmd
}

func statementOverride(sheet string) map[string]model.SheetType {
	if sheet == "" {
		return nil
	}
	return map[string]model.SheetType{sheet: model.SheetTypeStatement}
}
