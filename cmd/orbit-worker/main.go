package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"orbit/internal/amqp"
	"orbit/internal/cache"
	"orbit/internal/config"
	"orbit/internal/log"
	"orbit/internal/service"
	gsheet "orbit/internal/sheets/google"
	"orbit/internal/storage"
	syncpkg "orbit/internal/sync"
	"orbit/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting orbit-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required, the worker has nothing to archive to")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ledger, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	archiver := worker.NewArchiveWorker(repo, ledger, cfg.ArchiveBatchSize)

	// Renewals write through the wallet so the archive queue and any local
	// snapshot subscribers see them like any other expense.
	wallet := service.NewWalletService(repo, amqpClient, syncpkg.NewHub(repo),
		cache.NewLRU[service.Dashboard](cfg.CacheSize, cfg.CacheTTL))
	renewer := service.NewRenewalProcessor(repo, wallet, cfg.ArchiveBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on rows that were written while the worker was down or whose
	// messages were lost.
	logger.Info("Performing startup archive check")
	if err := archiver.StartupArchiveCheck(ctx); err != nil {
		logger.Error("Startup archive check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeTransactionArchive(gctx, func(msg *amqp.TransactionArchiveMessage) error {
			return archiver.HandleArchiveMessage(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ArchiveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := archiver.ProcessPending(gctx); err != nil {
					logger.Error("Periodic archive pass failed", "error", err)
				}
				if err := renewer.ProcessDueSubscriptions(gctx, time.Now().UTC()); err != nil {
					logger.Error("Subscription renewal pass failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
