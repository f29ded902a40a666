package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cuido/cuidosvc/internal/app"
	"github.com/cuido/cuidosvc/internal/config"
	"github.com/cuido/cuidosvc/internal/logging"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cuidosvc",
		Short: "Cuido caregiving API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(configPath, app.Run)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(configPath, app.Run)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Migrate the schema and seed default route policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(configPath, app.Migrate)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sweep-tokens",
		Short: "Delete expired password reset codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(configPath, app.SweepOnce)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify database and Redis connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(configPath, app.Check)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withRuntime loads config, builds the logger and runs fn until SIGINT or
// SIGTERM.
func withRuntime(path string, fn func(context.Context, *config.Config, *zap.Logger) error) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "cuidosvc")
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, cfg, log); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}
