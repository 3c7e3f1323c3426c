package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/andersonmelo18/Financeiro/internal/config"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
	"github.com/andersonmelo18/Financeiro/internal/services"
	"github.com/andersonmelo18/Financeiro/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting accrual-worker")

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

	// Publish change notifications so the server drops its cached
	// views after a sweep. Optional, same as in the server.
	var amqpClient *events.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change notifications", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	investments := services.NewInvestmentService(repo, ledger.New(repo), services.NewNotifier(amqpClient), cfg.CDIBase)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := investments.AccrueAll(sweepCtx); err != nil {
			logger.Error("Accrual sweep failed", "error", err)
		}
	}

	// Catch up on startup; positions may have missed sweeps while the
	// worker was down.
	sweep()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AccrualSchedule, sweep); err != nil {
		logger.Error("Failed to schedule accrual sweep", "error", err, "schedule", cfg.AccrualSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Accrual sweep scheduled", "schedule", cfg.AccrualSchedule)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached with sweep still running")
	}
	logger.Info("Accrual-worker shutdown complete")
}
