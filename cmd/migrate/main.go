// Command migrate applies or rolls back the PostgreSQL schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Mr-Georgie/weather-api/infrastructure/config"
	"github.com/Mr-Georgie/weather-api/infrastructure/di"
	"github.com/Mr-Georgie/weather-api/infrastructure/logging"
	"github.com/Mr-Georgie/weather-api/infrastructure/persistence/postgres"

	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	timeout := flag.Duration("timeout", 2*time.Minute, "upper bound for the whole run")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, command, cfg, logger); err != nil {
		logger.Error("Migration failed", zap.String("command", command), zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, logger *zap.Logger) error {
	db, err := postgres.Open(ctx, di.PostgresConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "up":
		return postgres.Migrate(ctx, db, logger)

	case "down":
		provider, err := postgres.NewMigrator(db)
		if err != nil {
			return err
		}
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		if result != nil {
			logger.Info("Rolled back migration", zap.String("source", result.Source.Path))
		}
		return nil

	case "status":
		provider, err := postgres.NewMigrator(db)
		if err != nil {
			return err
		}
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("read migration status: %w", err)
		}
		for _, s := range statuses {
			logger.Info("Migration",
				zap.String("source", s.Source.Path),
				zap.String("state", string(s.State)),
				zap.Time("applied_at", s.AppliedAt),
			)
		}
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
