package main

import (
	"context"
	"os"
	"time"

	"financas/internal/backend"
	"financas/internal/cli"
	applog "financas/internal/log"
	"financas/internal/services"
)

// The overdue worker flags pending bills whose due date has passed, once at
// startup and then every OVERDUE_INTERVAL.
func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting overdue-worker", "interval", cfg.OverdueInterval)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker never publishes, so AMQP stays off.
	backendCfg.AMQPURL = ""

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}

	accounts := services.NewAccountService(result.Ledger)
	processor := services.NewOverdueProcessor(accounts, cfg.OverdueInterval)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Failed to stop overdue processor", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start overdue processor", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Overdue worker stopped")
}
