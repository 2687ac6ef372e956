package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/discovery"
	"github.com/use-agent/oppscout/scraper"
)

// NewRootCmd creates the root command for oppscout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oppscout",
		Short: "Discover funding opportunities across grant bodies",
		Long: `oppscout crawls a registry of funding bodies, extracts grant opportunities
from their pages and feeds, and scores each one for relevance and likely success.

Configuration is read from OPPSCOUT_* environment variables. The flags below
override the matching variables.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("sources-file", "", "YAML source registry replacing the built-in one")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "Log format: json or text")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewSourcesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if v := flagValue(cmd, "sources-file"); v != "" {
		cfg.Crawl.SourcesFile = v
	}
	if v := flagValue(cmd, "log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := flagValue(cmd, "log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg
}

// flagValue looks name up on cmd and its parents' persistent flags.
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// initLogger builds a slog logger from the LogConfig and installs it as
// the default.
func initLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
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

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func fetcherConfig(cfg config.CrawlConfig) scraper.FetcherConfig {
	return scraper.FetcherConfig{
		Timeout:         cfg.RequestTimeout,
		MaxConns:        cfg.MaxConns,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		UserAgent:       cfg.UserAgent,
	}
}

func limiterConfig(cfg config.CrawlConfig) scraper.LimiterConfig {
	return scraper.LimiterConfig{
		Ceiling:   cfg.RequestCeiling,
		Cooldown:  cfg.Cooldown,
		JitterMin: cfg.JitterMin,
		JitterMax: cfg.JitterMax,
	}
}

// newDiscoverer wires the shared fetcher and the per-run limiter settings.
// The caller closes the returned fetcher.
func newDiscoverer(cfg *config.Config, logger *slog.Logger) (*discovery.Discoverer, *scraper.Fetcher) {
	fetcher := scraper.NewFetcher(fetcherConfig(cfg.Crawl))
	d := discovery.New(fetcher,
		discovery.WithLimiterConfig(limiterConfig(cfg.Crawl)),
		discovery.WithLogger(logger),
	)
	return d, fetcher
}
