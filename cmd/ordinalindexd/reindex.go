package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akaitrade/ordinalindex/pkg/checkpoint"
	"github.com/akaitrade/ordinalindex/pkg/log"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Force a full recreate of the ordinal index on next start",
	Long: `reindex invalidates the checkpoint watermark so the next run of
"serve" wipes the KV store and rebuilds it from genesis via the chain
component's replay callbacks.`,
	RunE: runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	comps, err := wire(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	if err := comps.cp.Store(checkpoint.Wrong); err != nil {
		return fmt.Errorf("invalidate checkpoint: %w", err)
	}
	log.Logger.Info().Msg("checkpoint invalidated; next serve will recreate from genesis")
	return nil
}
