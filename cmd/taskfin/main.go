package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"taskfin/internal/cli"
	apphttp "taskfin/internal/http"
	applog "taskfin/internal/log"
	"taskfin/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendResult := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	st := cli.InitStore(ctx, logger, cfg, backendResult.Collaborator)
	if err := st.Watch(ctx); err != nil {
		logger.Warn("Change notifications unavailable, serving without live refresh", "error", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:        st,
		Finance:      services.NewFinanceService(st),
		Logger:       applog.New(applog.Config{Level: applog.ParseLevel(cfg.LogLevel), Component: applog.ComponentHTTP}),
		Ping:         backendResult.Ping,
		UpcomingDays: cfg.UpcomingWindowDays,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
		if cfg.SnapshotPath != "" {
			if err := st.SaveSnapshot(cfg.SnapshotPath); err != nil {
				logger.Error("Failed to save snapshot", "error", err, "path", cfg.SnapshotPath)
			}
		}
	})

	logger.Info("Starting taskfin server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"user_id", cfg.UserID,
		"remote_changes", backendResult.Remote)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
