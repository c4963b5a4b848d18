package main

import (
	"context"
	"os"
	"time"

	"taskfin/internal/cli"
	"taskfin/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting recurring-worker")

	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend selected, generated transactions are not shared with the server")
	}

	// The server owns the snapshot file.
	cfg.SnapshotPath = ""

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	st := cli.InitStore(context.Background(), logger, cfg, backendResult.Collaborator)

	scheduler := services.NewScheduler(
		services.NewRecurringProcessor(st),
		st,
		services.SchedulerConfig{Interval: cfg.RecurringInterval},
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Scheduler stop failed", "error", err)
		}
	})

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend,
		"user_id", cfg.UserID)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
