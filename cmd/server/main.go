// Package main implements the entry point for the taskhive API server,
// which backs a collaborative task tracker: task CRUD with owner and
// collaborator roles, sharing by email, and realtime change notifications
// over websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/xeno035/taskhive/internal/config"
	"github.com/xeno035/taskhive/internal/platform/logger"
	"github.com/xeno035/taskhive/internal/platform/postgres"
)

func main() {
	migrateMode := flag.String("migrate", "up",
		"migration handling at startup: up, status, or none")
	flag.Parse()

	if err := run(*migrateMode); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func run(migrateMode string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	ctx := context.Background()

	switch migrateMode {
	case "up":
		if err := postgres.MigrateUp(ctx, db); err != nil {
			return err
		}
	case "status":
		if err := postgres.MigrationStatus(ctx, db); err != nil {
			return err
		}
		return nil
	case "none":
	default:
		return fmt.Errorf("unknown migrate mode %q", migrateMode)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("Application terminated with error", "error", err)
		os.Exit(1)
	}

	return nil
}
