package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-products/config"
)

func newGenerateConfigCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write a default YAML configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if err := cfg.WriteFile(outPath); err != nil {
				return err
			}
			fmt.Printf("wrote default configuration to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "scraper.yaml", "Destination path")
	return cmd
}
