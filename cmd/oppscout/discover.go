package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/report"
	"github.com/use-agent/oppscout/simhash"
	"github.com/use-agent/oppscout/store"
)

// discoverOptions holds the flags of the discover command.
type discoverOptions struct {
	sources  []string
	format   string
	collapse bool
	persist  bool
	timeout  time.Duration
}

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	opts := &discoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery and print the ranked opportunities",
		Long: `Discover crawls every enabled source once, or only the sources named with
--source, and prints the opportunities whose success probability is above 0.3,
highest first.

Examples:
  # Crawl every enabled source
  oppscout discover

  # Crawl two sources and write a markdown report
  oppscout discover --source screen_australia --source vicscreen --format markdown > report.md

  # Merge near-duplicates and keep the records in the local store
  oppscout discover --collapse --persist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiscover(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.sources, "source", "s", nil, "Source ID to crawl (repeatable; default: all enabled)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatText), "Output format: text, json, markdown")
	cmd.Flags().BoolVar(&opts.collapse, "collapse", false, "Merge near-duplicate opportunities")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Save the opportunities to the local store")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Abort the run after this long (0 = no limit)")

	return cmd
}

func runDiscover(cmd *cobra.Command, opts *discoverOptions) error {
	cfg := loadConfig(cmd)
	// Logs go to stderr so the report can be piped.
	logger := initLogger(cfg.Log, os.Stderr)

	writer, err := report.New(report.Format(opts.format), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	registry, err := config.ResolveRegistry(cfg.Crawl.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	selected, err := config.SelectSources(registry, opts.sources)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	discoverer, fetcher := newDiscoverer(cfg, logger)
	defer fetcher.Close()

	res := discoverer.Run(ctx, selected)
	if opts.collapse {
		res.Opportunities = simhash.Collapse(res.Opportunities, simhash.DefaultThreshold)
	}

	if opts.persist {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		// The crawl context may already be spent; saving gets its own deadline.
		saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := st.Save(saveCtx, res.RunID, res.Opportunities)
		if err != nil {
			return err
		}
		logger.Info("opportunities saved", "count", n, "path", st.Path())
	}

	return writer.Write(report.FromResult(res))
}
