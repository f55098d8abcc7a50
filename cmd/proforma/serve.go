package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proforma/internal/server"
	"proforma/internal/util"
)

func serveCmd() *cobra.Command {
	var (
		port     int
		devMode  bool
		open     bool
		autoPort bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := appConfig
			if port > 0 {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if autoPort {
				p, err := util.FindAvailablePort(cfg.Server.Port, 20)
				if err != nil {
					return err
				}
				if p != cfg.Server.Port {
					logger.Warn("port busy, using next free port", "wanted", cfg.Server.Port, "port", p)
				}
				cfg.Server.Port = p
			}

			srv, err := server.NewServer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "==========================================")
			fmt.Fprintln(out, "  proforma - operating statement normalizer")
			fmt.Fprintln(out, "==========================================")

			url := fmt.Sprintf("http://localhost:%d/api/status", cfg.Server.Port)
			if open {
				if err := util.OpenWithFallback(url); err != nil {
					fmt.Fprintf(out, "无法自动打开浏览器，请手动访问: %s\n", url)
				}
			}
			fmt.Fprintf(out, "服务启动中，监听端口 %d，按 Ctrl+C 停止服务...\n", cfg.Server.Port)
			return srv.Run(cmd.Context(), fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "development mode (gin debug logging)")
	cmd.Flags().BoolVar(&open, "open", false, "open the status page in a browser")
	cmd.Flags().BoolVar(&autoPort, "auto-port", true, "fall forward to the next free port when busy")
	return cmd
}
