package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	v1 "proforma/internal/api/v1"
	"proforma/internal/config"
)

var version = "dev"

var (
	cfgFile   string
	logLevel  string
	logFormat string
	dataDir   string

	// 由 PersistentPreRunE 填充
	appConfig *config.AppConfig
	logger    *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "proforma",
		Short: "Normalize 12-month operating statements and re-project them onto a proforma template",
		Long: `proforma reads loosely structured property-management spreadsheets (trailing-12 income
statements, budget comparisons, aging and move-activity reports), infers where the month band,
labels and section totals live, and writes the canonical series into a fixed proforma template.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	v1.Version = version

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.toml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(budgetCmd())
	rootCmd.AddCommand(agingCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgFile != "" {
		cfg, _, err = config.LoadConfigFrom(cfgFile)
	} else {
		cfg, _, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if dataDir != "" {
		cfg.Data.DataDir = dataDir
	}

	appConfig = cfg
	logger = config.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "proforma", version)
		},
	}
}
