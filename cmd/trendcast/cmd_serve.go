package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"TrendCast/internal/di"
	"TrendCast/pkg/config"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		envFiles   []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forecast HTTP service",
		Long: `Run the HTTP API (GET /api/forecast, GET /api/instruments, /healthz, /metrics)
until SIGINT or SIGTERM. TRENDCAST_* environment variables override the file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath, envFiles...)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()
			return app.Run(context.Background())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML configuration")
	cmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Dotenv files loaded before the config (missing files are skipped)")
	return cmd
}
