package main

import (
	"context"
	"os"

	"github.com/joao-fontenele/presswala/internal/config"
	"github.com/joao-fontenele/presswala/internal/logger"
	"github.com/joao-fontenele/presswala/internal/messaging"
	"github.com/joao-fontenele/presswala/internal/notify"
	"github.com/joao-fontenele/presswala/internal/shutdown"
	"github.com/joao-fontenele/presswala/internal/support"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

const serviceName = "presswala-notifier"

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		log.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, telemetry.ServiceVersion)
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, messaging.OrderEventsTopic, "notifier")
	defer func() { _ = consumer.Close() }()

	handler := notify.NewHandler(support.NewRepository(db), log)

	log.Info("starting notifier", "brokers", cfg.KafkaBrokers, "topic", messaging.OrderEventsTopic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		log.Error("consumer error", "error", err)
		os.Exit(1)
	}
	log.Info("consumer stopped")
}
