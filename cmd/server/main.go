package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AngelG-buaa/DB/internal/app"
	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/config"
	"github.com/AngelG-buaa/DB/internal/db"
	"github.com/AngelG-buaa/DB/internal/pkg/cache"
	"github.com/AngelG-buaa/DB/internal/pkg/logger"
	"github.com/AngelG-buaa/DB/internal/pkg/mq"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Console logger until the configured one is built.
	if boot, err := zap.NewDevelopment(); err == nil {
		logger.Set(boot)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		logger.Fatal("failed to build logger", zap.Error(err))
	}
	logger.Set(log)
	defer func() { _ = logger.Sync() }()

	if err := request.RegisterValidators(); err != nil {
		logger.Fatal("failed to register validators", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(pool); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		logger.Info("database migrations applied")
	}

	var timelineCache booking.TimelineCache
	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := cache.Ping(ctx, rdb); err != nil {
			logger.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		} else {
			timelineCache = cache.NewRedisCache(rdb, "lab", cfg.AvailabilityCacheTTL)
			logger.Info("availability cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var events booking.EventPublisher = mq.Discard{}
	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
			logger.Info("booking events enabled", zap.String("exchange", cfg.AMQPExchange))
		}
	}

	container := app.NewContainer(app.Config{
		IsProduction:  cfg.IsProduction,
		ProdOrigins:   cfg.ProdOrigins,
		DBPool:        pool,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTAccessTokenTTL,
		BcryptCost:    cfg.BcryptCost,
		Location:      cfg.Location,
		Events:        events,
		TimelineCache: timelineCache,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
