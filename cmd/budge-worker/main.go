package main

import (
	"context"
	"os"
	"time"

	"budge/internal/amqp"
	"budge/internal/cache"
	"budge/internal/cli"
	"budge/internal/log"
	"budge/internal/services"
	"budge/internal/worker"
)

const (
	dedupeCacheSize      = 1024
	cacheCleanupInterval = 5 * time.Minute
	statsInterval        = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting budge-worker", "export_backend", cfg.ExportBackend)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required to consume budget events")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter, err := cli.NewExporter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize summary exporter", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	// The worker only reads; it never publishes events of its own.
	budgets := services.NewBudgetService(repo, nil)

	dedupe := cache.NewLRUCache[string](dedupeCacheSize, cfg.ExportDedupeTTL)
	caches := cache.NewManager(logger)
	caches.Register(dedupe)

	w := worker.NewExportWorker(budgets, exporter, dedupe, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		caches.Stop()
	})
	caches.StartCleanup(ctx, cacheCleanupInterval)

	if err := w.Run(ctx, client, statsInterval); err != nil {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	st := w.Stats()
	logger.Info("Worker stopped",
		"exported", st.Exported,
		"skipped", st.Skipped,
		"failed", st.Failed)
}
