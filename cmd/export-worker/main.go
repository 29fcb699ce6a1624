package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"budgetledger/internal/backend"
	"budgetledger/internal/cli"
	"budgetledger/internal/log"
	"budgetledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, false)

	if cfg.DataBackend != string(backend.SQLiteBackend) {
		logger.Error("The export worker needs the shared SQLite backend",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	factory := backend.NewFactory(logger.Logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		os.Exit(1)
	}
	defer result.Cleanup()

	exporter, err := factory.CreateExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewExportWorker(result.Store, exporter, cfg.ExportBatchSize)
	amqpClient := factory.CreateAMQPClient(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.ExportInterval)
	})
	if amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			return amqpClient.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
		})
	} else {
		logger.Info("AMQP not configured, relying on periodic export sweeps", "interval", cfg.ExportInterval)
	}

	logger.Info("Starting export worker",
		"batch_size", cfg.ExportBatchSize,
		"interval", cfg.ExportInterval,
		"exporter", cfg.ExportEnabled())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
