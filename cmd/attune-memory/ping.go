package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/attune-ai-sub009/internal/memory"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Probe backend liveness",
	Long: `Connects to the configured backend and issues a liveness probe.
Exits non-zero when the backend is unreachable.`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	store, err := memory.NewShortTermMemory(&cfg.Memory, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if !store.Ping(cmd.Context()) {
		return fmt.Errorf("backend did not respond to ping")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "PONG (%s backend)\n", store.Stats().Mode)
	return nil
}
