package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drivehub/booking-service/internal/adapters/paygate"
	"github.com/drivehub/booking-service/internal/adapters/postgres"
	"github.com/drivehub/booking-service/internal/config"
	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/ports"
	"github.com/drivehub/booking-service/internal/handlers"
	"github.com/drivehub/booking-service/internal/jobs"
	paymentService "github.com/drivehub/booking-service/internal/services/payment"
	reservationService "github.com/drivehub/booking-service/internal/services/reservation"
	"github.com/drivehub/booking-service/pkg/logging"
	"github.com/drivehub/booking-service/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger := initZap(cfg.Logger)
	defer zapLogger.Sync()
	logger := logging.NewZapLogger(zapLogger)

	logger.Info("starting booking service")

	dbPool, err := initDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("database connection established")

	// Adapters
	db := postgres.NewDBExecutor(dbPool)
	reservationRepo := postgres.NewReservationRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	catalog := postgres.NewCatalogDirectory(db)
	gateway := paygate.NewGatewayAdapterWithDefaults(
		paygate.AuthConfig{
			MerchantID: cfg.Gateway.MerchantID,
			APIKey:     cfg.Gateway.APIKey,
		},
		cfg.Gateway.BaseURL,
		logger,
	)

	// Services
	resSvc := reservationService.NewService(db, reservationRepo, catalog, logger)
	paySvc, err := paymentService.NewService(db, paymentRepo, reservationRepo, gateway, resSvc, paymentService.Config{
		SplitRatio: domain.SplitRatio{
			BranchPercent: cfg.Settlement.BranchPercent,
			HQPercent:     cfg.Settlement.HQPercent,
		},
		WebhookSecret:   cfg.Webhook.SharedSecret,
		DefaultDueHours: cfg.Webhook.DueHours,
		SweepBatchLimit: cfg.Jobs.BatchLimit,
	}, logger)
	if err != nil {
		zapLogger.Fatal("failed to initialize payment service", zap.Error(err))
	}
	// Cancellation triggers refunds through the payment service
	resSvc.SetRefundProcessor(paySvc)

	// Background jobs
	scheduler, err := jobs.NewScheduler(paySvc, cfg.Jobs, logger)
	if err != nil {
		zapLogger.Fatal("failed to initialize job scheduler", zap.Error(err))
	}
	scheduler.Start()

	// HTTP server
	health := observability.NewHealthChecker(dbPool)
	router := handlers.NewRouter(resSvc, paySvc, health, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", ports.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed")
	}

	logger.Info("shutdown complete")
}

func initZap(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := zapCfg.Build()
	return logger
}

func initDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
