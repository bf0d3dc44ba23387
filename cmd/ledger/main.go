package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"splitledger/internal/cache"
	"splitledger/internal/cli"
	apphttp "splitledger/internal/http"
	"splitledger/internal/ledger"
	"splitledger/internal/log"
	"splitledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		// Writes still succeed without the broker; only exports lag.
		logger.Error("AMQP unavailable, continuing without events", "error", err)
	}
	var events services.EventPublisher
	if amqpClient != nil {
		events = amqpClient
		defer amqpClient.Close()
	}

	plans := cache.NewLRUCache[ledger.Plan](cfg.CacheSize, cfg.CacheTTL)
	ledgerSvc := services.NewLedgerService(repo, repo, plans)
	svc := apphttp.Services{
		Users:       services.NewUserService(repo),
		Groups:      services.NewGroupService(repo, repo),
		Expenses:    services.NewExpenseService(repo, repo, ledgerSvc, events),
		Settlements: services.NewSettlementService(repo, repo, ledgerSvc, events),
		Ledger:      ledgerSvc,
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	}, svc, repo)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	janitor := cache.NewJanitor(logger.Logger.With(log.FieldComponent, log.ComponentCache), plans)
	go janitor.Run(ctx, cfg.CacheTTL)

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"events", events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
