// Package main implements the entry point for the learner progression API
// server, which tracks XP, CEFR levels, study streaks, spaced-repetition
// review schedules, and daily challenges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/muselang/progression-api/internal/config"
	"github.com/muselang/progression-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if err := run(context.Background(), cfg, appLogger); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// run wires the application together and serves until shutdown.
func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.startHTTPServer(ctx, app.setupRouter())
}
