package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherkit/gather/api"
	"github.com/gatherkit/gather/api/handler"
	"github.com/gatherkit/gather/browser"
	"github.com/gatherkit/gather/cache"
	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/embed"
	"github.com/gatherkit/gather/extract"
	"github.com/gatherkit/gather/limiter"
	"github.com/gatherkit/gather/scraper"
	"github.com/gatherkit/gather/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)

	// run owns every defer (browser teardown included); os.Exit lives
	// out here so those defers always fire before the process dies.
	if err := run(cfg); err != nil {
		slog.Error("gather exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("gather stopped")
}

func run(cfg *config.Config) error {
	slog.Info("gather starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Scraper.MaxConcurrent,
	)

	// ── 3. Launch the shared browser ────────────────────────────────
	// Startup is fail-fast: without a browser the service cannot do
	// anything useful, so a launch failure kills the process.
	pool, err := browser.New(cfg.Browser)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer pool.Close()
	slog.Info("browser warm", "browser", pool.String())

	// ── 4. Assemble the scrape pipeline ─────────────────────────────
	lim := limiter.New(cfg.Scraper.MaxConcurrent)
	ex := extract.NewReadability()
	cc := cache.New(cfg.Cache.MaxEntries)
	fetcher := scraper.NewRodFetcher(pool, cfg.Scraper.BlockedResourceTypes)
	sc := scraper.New(fetcher, lim, ex, cc, cfg.Scraper)

	// ── 5. Callback delivery ────────────────────────────────────────
	cb := webhook.NewClient(cfg.Webhook)

	// ── 6. Optional embedding backend ───────────────────────────────
	// handler.Embed checks its Embedder for nil, so the disabled case
	// must pass an untyped nil rather than a nil *embed.Service.
	var em handler.Embedder
	if cfg.Embed.Model != "" {
		svc, err := embed.NewService(context.Background(), cfg.Embed)
		if err != nil {
			return fmt.Errorf("initialise embedding backend: %w", err)
		}
		em = svc
		slog.Info("embedding enabled", "model", cfg.Embed.Model, "baseURL", cfg.Embed.BaseURL)
	}

	// ── 7. Setup router and HTTP server ─────────────────────────────
	router := api.NewRouter(sc, pool, cb, em, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// ── 8. Serve until shutdown ─────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// pool.Close() runs via defer and kills Chrome, on the error path too.
	return serve(srv, quit)
}

// serve runs the HTTP server until a shutdown signal arrives or the
// listener fails, then drains in-flight requests. Listen failures (port
// already bound, permission denied) are returned rather than exiting
// from the goroutine, so the caller's deferred teardown still runs.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	// Give in-flight batches 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
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
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
