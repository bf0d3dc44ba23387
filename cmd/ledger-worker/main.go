package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"splitledger/internal/amqp"
	"splitledger/internal/cli"
	"splitledger/internal/config"
	"splitledger/internal/log"
	"splitledger/internal/services"
	"splitledger/internal/sheets"
	gsheet "splitledger/internal/sheets/google"
	mem "splitledger/internal/sheets/memory"
	"splitledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	writer, err := newPlanWriter(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize plan writer", "error", err)
		os.Exit(1)
	}

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	// Every export recomputes from the database, so the worker keeps no cache.
	ledgerSvc := services.NewLedgerService(repo, repo, nil)
	exporter := worker.NewExportWorker(ledgerSvc, repo, writer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	if amqpClient != nil {
		g.Go(func() error {
			return consume(gctx, amqpClient, exporter)
		})
	} else {
		logger.Info("Skipping message consumption, relying on periodic sweeps")
	}
	g.Go(func() error {
		exporter.Run(gctx, cfg.ExportInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

func consume(ctx context.Context, client *amqp.Client, exporter *worker.ExportWorker) error {
	return client.ConsumeLedgerChanged(ctx, exporter.HandleLedgerChanged)
}

// newPlanWriter picks Google Sheets when a spreadsheet is configured and the
// in-memory writer otherwise.
func newPlanWriter(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.PlanWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, plans are kept in memory")
		return mem.New(), nil
	}
	creds, err := gsheet.CredentialsOption(ctx, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, creds, gsheet.Scopes())
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
