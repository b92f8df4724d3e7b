package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/bookreviews/internal/logging"
	"github.com/dmitrijs2005/bookreviews/internal/server/config"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookreviews/internal/server/seed"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("db migration error: %v", err)
	}

	if err := seed.Run(ctx, db, rm, logger); err != nil {
		logger.Error(ctx, "Error seeding data", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Database seeding complete")
}
