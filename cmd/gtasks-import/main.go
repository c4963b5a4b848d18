package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskfin/internal/cli"
	"taskfin/internal/gtasks"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := cfg.ValidateOAuth(); err != nil {
		logger.Error("Google OAuth configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendResult := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	st := cli.InitStore(ctx, logger, cfg, backendResult.Collaborator)

	source, err := gtasks.NewAPISource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Tasks client", "error", err)
		os.Exit(1)
	}

	res, err := gtasks.NewImporter(source, st).Import(ctx)
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Import complete",
		"lists", res.Lists,
		"created", res.Created,
		"skipped", res.Skipped,
		"failed", res.Failed)
	if res.Failed > 0 {
		os.Exit(2)
	}
}
