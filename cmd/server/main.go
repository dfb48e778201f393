package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mindtrack",
	Short: "Mood and sleep tracking service",
	Long: `mindtrack records one mood and one sleep entry per user and day,
and serves history, statistics and dashboards over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults to $CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger every command shares.
func setup() (*config.Config, *internal.ZapLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger, nil
}
