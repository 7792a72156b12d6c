package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/brecher/internal/adapters/http/api"
	"github.com/okian/brecher/internal/adapters/http/swagger"
	app "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/auth"
	"github.com/okian/brecher/internal/config"
	"github.com/okian/brecher/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 30 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	statsRefreshInterval = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		// Use stderr since the logger may not be available yet
		os.Stderr.WriteString("brecher: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWithFormat(cfg.LogFormat, os.Stdout); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.InsecureDefaults() {
		log.Warn(ctx, "running with development credentials; set BRECHER_AUTH_PASSWORD and BRECHER_AUTH_SECRET")
	}

	engine, err := app.OpenEngine(ctx, cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	defer engine.Stop()

	if _, err := engine.InitializeWeeks(ctx); err != nil {
		return fmt.Errorf("initialize season weeks: %w", err)
	}

	srv, err := newHTTPServer(ctx, cfg, engine)
	if err != nil {
		return fmt.Errorf("build HTTP server: %w", err)
	}

	// Refresh store gauges in the background.
	go refreshStats(ctx, engine)

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a failed listener
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(context.Background(), "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newHTTPServer wires the API and docs routes for engine.
func newHTTPServer(ctx context.Context, cfg *config.Config, engine *app.Engine) (*http.Server, error) {
	authenticator, err := auth.New(cfg.AuthPassword, cfg.AuthSecret, auth.WithTTL(cfg.TokenTTL()))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(engine, authenticator, engine,
		api.WithWriteLimit(cfg.WriteRatePerMinute, cfg.WriteBurst),
		api.WithLogger(logger.Named("http")),
	).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

// refreshStats keeps the tracked-weeks and record gauges current.
func refreshStats(ctx context.Context, engine *app.Engine) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.GetStats()
		}
	}
}
