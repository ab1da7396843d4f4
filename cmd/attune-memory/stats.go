package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/attune-ai-sub009/internal/memory"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print backend mode and retry counters as JSON",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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

	store.Ping(cmd.Context())

	out, err := json.MarshalIndent(store.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
