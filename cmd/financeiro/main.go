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

	"github.com/andersonmelo18/Financeiro/internal/cache"
	"github.com/andersonmelo18/Financeiro/internal/config"
	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	apphttp "github.com/andersonmelo18/Financeiro/internal/http"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
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

	// AMQP is optional: without it, mutations still work but cached
	// invoice aggregations only refresh by TTL.
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
	notifier := services.NewNotifier(amqpClient)

	var (
		snapCache    cache.SnapshotCache
		cacheManager *cache.Manager
	)
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		defer redisCache.Close()
		snapCache = redisCache
		logger.Info("Using Redis snapshot cache", "addr", cfg.RedisAddr)
	} else {
		memCache := cache.NewMemoryCache(256, cfg.CacheTTL)
		cacheManager = cache.NewManager()
		cacheManager.Register(memCache)
		cacheManager.StartCleanup(10 * time.Minute)
		defer cacheManager.Stop()
		snapCache = memCache
		logger.Info("Using in-memory snapshot cache")
	}

	ldg := ledger.New(repo)
	invoices := invoice.NewService(repo, repo, snapCache)

	fixedService := services.NewFixedExpenseService(repo, ldg, notifier)
	svc := apphttp.Services{
		Cards:       services.NewCardService(repo, notifier),
		Expenses:    services.NewExpenseService(repo, ldg, notifier),
		Fixed:       fixedService,
		Pendencias:  services.NewPendenciaService(repo, ldg, notifier),
		Entries:     services.NewEntryService(repo, ldg, notifier),
		Specs:       services.NewSpecService(repo, repo, repo, invoices, notifier),
		Payments:    services.NewPaymentService(repo, repo, invoices, ldg, notifier),
		Investments: services.NewInvestmentService(repo, ldg, notifier, cfg.CDIBase),
		Dashboard:   services.NewDashboardService(repo, repo, fixedService, repo, repo, invoices, ldg),
		Invoices:    invoices,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financeiro server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			// Changes may come from other processes (the accrual
			// worker); drop the affected cached aggregations.
			err := amqpClient.ConsumeDataChanged(gctx, func(msg *events.DataChangedMessage) error {
				if msg.YearMonth == "" {
					return nil
				}
				ym, err := core.ParseYearMonth(msg.YearMonth)
				if err != nil {
					slog.Warn("Dropping change notification with bad year-month",
						"year_month", msg.YearMonth, "scope", msg.Scope)
					return nil
				}
				invoices.Invalidate(gctx, msg.UserID, ym)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
