package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/commons"
	"cumbre/internal/infrastructure/logger"
	"cumbre/internal/infrastructure/mysql"
	"cumbre/internal/infrastructure/rabbitmq"
	"cumbre/internal/infrastructure/redis"
	"cumbre/internal/server"
	"cumbre/internal/session/repository"
	"cumbre/internal/storefront"
	"cumbre/internal/trip"
)

func main() {
	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	healthChecks := map[string]server.HealthCheck{"mysql": db.PingContext}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer redisClient.Close()
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		zapLogger.Info("redis connected", zap.Duration("tripsTtl", cfg.Redis.TripsTTL))
	}

	opts := storefront.Options{
		Debounce:            cfg.Browse.Debounce,
		CompensateOnFailure: cfg.Checkout.CompensateOnFailure,
	}
	if cfg.RabbitMQ.Enabled {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ, zapLogger)
		if err != nil {
			zapLogger.Fatal("connecting to rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
		opts.Publisher = publisher
		zapLogger.Info("rabbitmq connected", zap.String("queue", cfg.RabbitMQ.Queue))
	}

	api := backend.NewClient(cfg.Backend, zapLogger)
	catalog := trip.NewModule(api, redisClient, cfg.Redis.TripsTTL, zapLogger)
	tokens := repository.NewMySQLTokenRepository(db)

	registry := storefront.NewRegistry(api, tokens, catalog, opts, zapLogger)
	go registry.RunJanitor(ctx, cfg.Server.SweepInterval, cfg.Server.VisitorIdleTimeout, tokens)

	router := server.NewRouter(server.NewControllers(api, catalog, zapLogger), registry, server.RouterOptions{
		SessionCookie: cfg.Server.SessionCookie,
		SecureCookie:  cfg.Server.SecureCookie,
		HealthChecks:  healthChecks,
	}, zapLogger)

	srv := server.New(cfg.Server.Port, router, 60*time.Second, zapLogger)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	registry.Shutdown()

	zapLogger.Info("server stopped gracefully")
}
