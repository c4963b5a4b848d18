// Package cli provides common CLI initialization utilities shared by the
// taskfin binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskfin/internal/backend"
	"taskfin/internal/config"
	applog "taskfin/internal/log"
	"taskfin/internal/store"
)

// SetupLogger builds the process logger at the configured level and sets it
// as the default.
func SetupLogger(level string) *slog.Logger {
	logger := applog.New(applog.Config{Level: applog.ParseLevel(level)})
	applog.SetDefault(logger)
	return logger.Logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured backend or exits the process.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// StoreConfig maps the process configuration onto the record store.
func StoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		UserID:         cfg.UserID,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MutationRetries,
		UndoWindow:     cfg.UndoWindow,
		CacheSize:      cfg.DerivationCacheSize,
		SnapshotPath:   cfg.SnapshotPath,
	}
}

// InitStore creates the record store on top of collab and loads it, first
// from the snapshot and then from the backend. Exits the process when the
// store cannot be created.
func InitStore(ctx context.Context, logger *slog.Logger, cfg *config.Config, collab store.Collaborator) *store.Store {
	s, err := store.New(collab, StoreConfig(cfg))
	if err != nil {
		logger.Error("Failed to create record store", "error", err)
		os.Exit(1)
	}
	if cfg.SnapshotPath != "" {
		if ok, err := s.LoadSnapshot(cfg.SnapshotPath); err != nil {
			logger.Warn("Failed to load snapshot", "error", err, "path", cfg.SnapshotPath)
		} else if ok {
			logger.Info("Loaded snapshot", "path", cfg.SnapshotPath)
		}
	}
	if err := s.RefreshAll(ctx); err != nil {
		logger.Warn("Initial refresh failed, serving snapshot data", "error", err)
	}
	return s
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
