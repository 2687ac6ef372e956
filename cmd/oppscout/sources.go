package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/report"
)

// NewSourcesCmd creates the sources command.
func NewSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the source registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(cmd)
			registry, err := config.ResolveRegistry(cfg.Crawl.SourcesFile)
			if err != nil {
				return fmt.Errorf("load sources: %w", err)
			}
			return report.WriteSources(cmd.OutOrStdout(), registry)
		},
	}
}
