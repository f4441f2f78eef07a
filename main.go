package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"gosynergy/adapters/jsonfile"
	"gosynergy/adapters/postgres"
	"gosynergy/app"
	"gosynergy/internal"
	"gosynergy/internal/config"
	"gosynergy/internal/engine"
	"gosynergy/internal/errors"
	"gosynergy/ports"
	"gosynergy/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	// Pick the result store: postgres when configured, JSON files otherwise.
	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewResultRepository(db)
		logger.Info("using postgres result store")
	} else {
		store, err := jsonfile.NewResultStore(cfg.Export.Dir)
		if err != nil {
			log.Fatalf("Failed to initialize result store: %v", err)
		}
		repo = store
		logger.Info("no DATABASE_URL configured, storing results under %s", cfg.Export.Dir)
	}

	analyzer := engine.NewAnalyzer(cfg.Analysis, logger)
	service := app.NewExperimentService(analyzer, repo, logger)
	batch := app.NewBatchRunner(service, 0, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Profiling.Enabled {
		debug := ui.NewDebugServer(cfg.Profiling, logger)
		go func() {
			if err := debug.Run(ctx); err != nil {
				logger.Error("debug server: %v", err)
			}
		}()
	}

	server := ui.NewServer(cfg, service, batch, logger)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
