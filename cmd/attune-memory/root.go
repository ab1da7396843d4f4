package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/attune-ai-sub009/internal/config"
	"github.com/Zeeeepa/attune-ai-sub009/pkg/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "attune-memory",
	Short: "Attune short-term memory - ephemeral coordination store for agent swarms",
	Long: `attune-memory operates the shared short-term memory store used by
Attune agents to coordinate: key/value data with expiry, pattern staging
and promotion, task queues, and event timelines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// defaultConfigPath returns the default config file location.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "attune-memory.yaml"
	}
	return filepath.Join(home, ".attune", "memory.yaml")
}

// loadConfig resolves the configuration for a command invocation.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = defaultConfigPath()
	}
	return config.NewLoader().LoadWithDefaults(path)
}

// newLogger builds a slog.Logger from the log configuration.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default ~/.attune/memory.yaml)")
	rootCmd.Version = version.String()

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statsCmd)
}
