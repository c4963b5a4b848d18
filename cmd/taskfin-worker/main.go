package main

import (
	"context"
	"errors"
	"os"
	"time"

	"taskfin/internal/amqp"
	"taskfin/internal/cli"
	ports "taskfin/internal/sheets"
	gsheet "taskfin/internal/sheets/google"
	mem "taskfin/internal/sheets/memory"
	"taskfin/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting taskfin-worker")

	if err := cfg.ValidateAMQP(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend selected, the worker will not see the server's records")
	}

	// The server owns the snapshot file.
	cfg.SnapshotPath = ""

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	backendResult := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	st := cli.InitStore(ctx, logger, cfg, backendResult.Collaborator)

	var exporter ports.MonthExporter
	if cfg.GoogleSpreadsheetID != "" {
		if err := cfg.ValidateGoogle(); err != nil {
			logger.Error("Google configuration invalid", "error", err)
			os.Exit(1)
		}
		client, err := gsheet.NewFromConfig(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting in memory")
	}

	changeWorker := worker.NewChangeWorker(st, exporter)
	if err := changeWorker.StartupExport(ctx); err != nil {
		// Keep consuming; the next change re-exports the current month.
		logger.Error("Startup export failed", "error", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	err = amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
		return changeWorker.HandleChangeMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
