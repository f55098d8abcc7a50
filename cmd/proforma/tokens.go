package main

import (
	"github.com/spf13/cobra"

	"proforma/internal/exporter"
	"proforma/internal/importer"
)

func budgetCmd() *cobra.Command {
	var (
		statements string
		formatted  bool
	)
	cmd := &cobra.Command{
		Use:   "budget FILE",
		Short: "Extract budget-comparison tokens (PTD/YTD actual, budget, variance)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbookFile(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			st, err := loadOptionalWorkbook(statements)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			res, err := importer.BudgetTokens(wb, st, appConfig.ScanOptions())
			if err != nil {
				return err
			}
			if len(res.Missing) > 0 {
				logger.Debug("budget lines not found", "missing", res.Missing)
			}
			return printTokens(cmd, res.Tokens, formatted)
		},
	}
	cmd.Flags().StringVar(&statements, "statements", "", "financial statements workbook used to backfill Current Month actuals")
	cmd.Flags().BoolVar(&formatted, "formatted", false, "print report-formatted strings instead of numbers")
	return cmd
}

func agingCmd() *cobra.Command {
	var formatted bool
	cmd := &cobra.Command{
		Use:   "aging FILE",
		Short: "Extract delinquency aging tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbookFile(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			res, err := importer.AgingTokens(wb, appConfig.ScanOptions())
			if err != nil {
				return err
			}
			return printTokens(cmd, res.Tokens, formatted)
		},
	}
	cmd.Flags().BoolVar(&formatted, "formatted", false, "print report-formatted strings instead of numbers")
	return cmd
}

func printTokens(cmd *cobra.Command, tokens map[string]float64, formatted bool) error {
	if formatted {
		return writeJSON(cmd.OutOrStdout(), exporter.FormatTokens(tokens))
	}
	return writeJSON(cmd.OutOrStdout(), tokens)
}
