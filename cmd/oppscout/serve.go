package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/oppscout/api"
	"github.com/use-agent/oppscout/api/handler"
	"github.com/use-agent/oppscout/cache"
	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/store"
	"github.com/use-agent/oppscout/webhook"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery HTTP API",
		Long: `Serve exposes discovery over HTTP:

  GET  /api/v1/health         liveness and store status (no auth)
  GET  /api/v1/sources        the source registry
  GET  /api/v1/opportunities  stored records, filtered by query parameters
  POST /api/v1/discover       run a discovery and return ranked records

Requests are authenticated with the X-API-Key header unless
OPPSCOUT_AUTH_ENABLED=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(loadConfig(cmd))
		},
	}
}

func runServe(cfg *config.Config) error {
	// ── 1. Structured logging ───────────────────────────────────────
	logger := initLogger(cfg.Log, os.Stdout)
	logger.Info("oppscout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConns", cfg.Crawl.MaxConns,
	)

	// ── 2. Source registry ──────────────────────────────────────────
	registry, err := config.ResolveRegistry(cfg.Crawl.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	// ── 3. Discovery pipeline ───────────────────────────────────────
	discoverer, fetcher := newDiscoverer(cfg, logger)
	defer fetcher.Close()

	// ── 4. Cache, store and webhooks ────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	deps := &handler.Deps{
		Runner:    discoverer,
		Registry:  registry,
		Cache:     cc,
		Webhooks:  webhook.NewSender(logger),
		Webhook:   cfg.Webhook,
		Timeout:   cfg.Server.DiscoverTimeout,
		Logger:    logger,
		StartTime: time.Now(),
		Version:   getVersion(),
	}

	if cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			// The API still serves discovery without persistence.
			logger.Warn("store unavailable, persistence disabled", "path", cfg.Store.Path, "error", err)
		} else {
			defer st.Close()
			deps.Store = st
			logger.Info("store opened", "path", st.Path())
		}
	}

	// ── 5. Router and HTTP server ───────────────────────────────────
	router := api.NewRouter(cfg, deps)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr, "sources", len(registry))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced shutdown", "error", err)
	} else {
		logger.Info("HTTP server drained gracefully")
	}

	slog.Info("oppscout stopped")
	return nil
}
