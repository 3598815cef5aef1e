package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akaitrade/ordinalindex/pkg/checkpoint"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current checkpoint watermark",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	comps, err := wire(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	seq, err := comps.cp.Load()
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	if checkpoint.IsWrong(seq) {
		fmt.Println("checkpoint: none (a recreate will run on next serve)")
		return nil
	}
	fmt.Printf("last_indexed: %d\n", seq)
	fmt.Printf("total_names: %d\n", comps.core.TotalNames())
	fmt.Printf("total_tokens: %d\n", comps.core.TotalTokens())
	fmt.Printf("total_inscriptions: %d\n", comps.core.TotalInscriptions())
	return nil
}
