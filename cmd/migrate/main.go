// Command migrate applies goose SQL migrations to the configured database.
//
// Usage: migrate <up|down|status>
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/brainkit/brainkit-backend/internal/app"
	"github.com/brainkit/brainkit-backend/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <up|down|status>", os.Args[0])
	}
	command := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS("migrations"))
	if err != nil {
		logger.Error("create goose provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			logger.Error("migrate up", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.Int("count", len(results)))

	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			logger.Error("migrate down", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migration rolled back", slog.String("migration", result.Source.Path))

	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			logger.Error("migrate status", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, s := range statuses {
			state := "pending"
			if !s.AppliedAt.IsZero() {
				state = s.AppliedAt.Format(time.RFC3339)
			}
			logger.Info("migration",
				slog.String("source", s.Source.Path),
				slog.String("applied", state),
			)
		}

	default:
		log.Fatalf("unknown command %q (want up, down, or status)", command)
	}
}
