package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/cli"
	"financas/internal/core"
	apphttp "financas/internal/http"
	applog "financas/internal/log"
	"financas/internal/services"
	"financas/internal/sheets"
	gsheet "financas/internal/sheets/google"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	transactions := services.NewTransactionService(result.Ledger, result.Publisher,
		cache.NewTTLCache[[]core.Transaction](cfg.CacheTTL))
	accounts := services.NewAccountService(result.Ledger)

	// Report export to Sheets is optional; the rest of the API works without it.
	var exporter sheets.ReportExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Google Sheets export disabled", "error", err)
		} else {
			exporter = client
			logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Transactions:       transactions,
		Accounts:           accounts,
		Settings:           result.Ledger,
		Health:             result.Ledger,
		Exporter:           exporter,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		DefaultUserID:      cfg.DefaultUserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := transactions.Close(); err != nil {
			logger.Error("Failed to close publisher", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	})

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", result.Publisher != nil,
		"sheets_export", exporter != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
