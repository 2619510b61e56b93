package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/josh-kwaku/digital-bank-backend/internal/config"
	"github.com/josh-kwaku/digital-bank-backend/internal/handler"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/messaging"
	"github.com/josh-kwaku/digital-bank-backend/internal/middleware"
	"github.com/josh-kwaku/digital-bank-backend/internal/prices"
	"github.com/josh-kwaku/digital-bank-backend/internal/redisstore"
	"github.com/josh-kwaku/digital-bank-backend/internal/repository"
	"github.com/josh-kwaku/digital-bank-backend/internal/server"
	"github.com/josh-kwaku/digital-bank-backend/internal/service"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/interest"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/ledger"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/savings"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("digital-bank-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	users := repository.NewUserRepository(db)
	entries := repository.NewLedgerRepository(db)
	savingsRepo := repository.NewSavingsRepository(db)
	notifications := repository.NewNotificationRepository(db)
	activities := repository.NewActivityRepository(db)
	outbox := repository.NewOutboxRepository(db)

	broadcaster := redisstore.NewBroadcaster(rdb)
	notifier := service.NewNotifier(notifications, broadcaster)
	balances := ledger.NewCalculator(entries, db)

	ledgerSvc := ledger.NewService(entries, users, activities, outbox, balances, notifier, db, cfg.EventsExchange)
	savingsSvc := savings.NewService(savingsRepo, entries, users, activities, outbox, balances, notifier, db, cfg.EventsExchange)
	priceSvc := prices.NewService(
		prices.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey),
		redisstore.NewCache(rdb, ""),
		cfg.CoinGeckoCoins,
		cfg.PriceCacheTTL,
	)

	engine := interest.NewEngine(savingsRepo, db, logger.With("component", "interest"))
	scheduler := service.NewScheduler(engine, cfg.InterestSchedule, logger.With("component", "scheduler"))
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorkers()

	if strings.TrimSpace(cfg.AMQPURL) == "" {
		logger.Warn("AMQP_URL not set; outbox dispatcher disabled")
	} else {
		publisher, err := messaging.NewPublisher(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		defer publisher.Close()

		dispatcher := service.NewOutboxDispatcher(outbox, publisher, logger.With("component", "outbox"),
			cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(workerCtx)
	}

	router := server.NewRouter(server.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}),
		Auth:          handler.NewAuthHandler(users, cfg.JWTSecret, cfg.JWTExpiry),
		Savings:       handler.NewSavingsHandler(savingsSvc),
		Transactions:  handler.NewTransactionHandler(ledgerSvc),
		Notifications: handler.NewNotificationHandler(notifications, broadcaster),
		Activities:    handler.NewActivityHandler(activities),
		Prices:        handler.NewPriceHandler(priceSvc),
	}, server.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Idempotency:    middleware.Idempotency(redisstore.NewIdempotencyStore(rdb)),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open notification streams never go idle, so Shutdown can time out on
	// them; Close drops whatever is left.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete, closing connections", "error", err)
		srv.Close()
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("interest run still in progress at shutdown")
	}
	cancelWorkers()

	logger.Info("server stopped")
	return nil
}
