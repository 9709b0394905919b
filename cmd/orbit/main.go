package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"orbit/internal/amqp"
	"orbit/internal/auth"
	"orbit/internal/cache"
	"orbit/internal/config"
	apphttp "orbit/internal/http"
	"orbit/internal/log"
	"orbit/internal/service"
	"orbit/internal/storage"
	syncpkg "orbit/internal/sync"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentApp})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The API keeps working without a broker; archival catches up when the
	// worker's startup check runs.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction archival deferred", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	hub := syncpkg.NewHub(repo)
	summaries := cache.NewLRU[service.Dashboard](cfg.CacheSize, cfg.CacheTTL)

	janitor := cache.NewJanitor()
	janitor.Register(summaries)
	janitor.Start(cfg.CacheTTL)
	defer janitor.Stop()

	wallet := service.NewWalletService(repo, amqpClient, hub, summaries)
	authSvc := auth.NewService(repo, cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, wallet, repo, hub)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	// No WriteTimeout: /api/stream holds its connection open.

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting orbit server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
