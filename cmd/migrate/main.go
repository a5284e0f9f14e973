package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joao-fontenele/presswala/internal/config"
	"github.com/joao-fontenele/presswala/internal/logger"
)

func main() {
	path := flag.String("path", "file://migrations", "migration source url")
	steps := flag.Int("steps", 1, "migrations to roll back with down")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Options{Service: "presswala-migrate", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if flag.NArg() < 1 {
		log.Error("usage: migrate [-path url] [-steps n] <up|down|version>")
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		log.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	m, err := migrate.New(*path, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to create migrate instance", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return
		}
		if err != nil {
			log.Error("migration up failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

	case "down":
		err = m.Steps(-*steps)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to roll back")
			return
		}
		if err != nil {
			log.Error("migration down failed", "error", err, "steps", *steps)
			os.Exit(1)
		}
		log.Info("migrations rolled back", "steps", *steps)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return
		}
		if err != nil {
			log.Error("failed to get version", "error", err)
			os.Exit(1)
		}
		log.Info("current migration version", "version", version, "dirty", dirty)

	default:
		log.Error("unknown command", "command", cmd)
		os.Exit(1)
	}
}
