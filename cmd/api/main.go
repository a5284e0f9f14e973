package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/config"
	"github.com/joao-fontenele/presswala/internal/logger"
	"github.com/joao-fontenele/presswala/internal/messaging"
	"github.com/joao-fontenele/presswala/internal/orders"
	"github.com/joao-fontenele/presswala/internal/ratelimit"
	"github.com/joao-fontenele/presswala/internal/server"
	"github.com/joao-fontenele/presswala/internal/shutdown"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

const serviceName = "presswala-api"

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	if cfg.PostgresURL == "" {
		log.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, telemetry.ServiceVersion)
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, telemetry.ServiceVersion)
	if err != nil {
		log.Error("failed to init meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var queryCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		queryCache = cache.NewRedisCache(client, "presswala:", cfg.CacheTTL)
	}

	var publisher orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Warn("KAFKA_BROKERS not set, order events will not be published")
	}

	mux := server.NewMux(server.Deps{
		DB:             db,
		Cache:          queryCache,
		Publisher:      publisher,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		Logger:         log,
	})

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go sweep(ctx, limiter, log)

	handler := server.Chain(mux, server.ChainOptions{
		ServiceName:    serviceName,
		Authenticator:  auth.NewAuthenticator([]byte(cfg.JWTSecret), log),
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting api service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func sweep(ctx context.Context, l *ratelimit.Limiter, log *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debug("rate limiter swept", "visitors", n)
			}
		}
	}
}
