package main

import (
	"context"
	"log"
	"os"

	"gosynergy/adapters/jsonfile"
	"gosynergy/adapters/postgres"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	experiment_id     TEXT PRIMARY KEY,
	additive_a        TEXT NOT NULL,
	additive_b        TEXT NOT NULL,
	effect_parameter  TEXT NOT NULL,
	combination_count INTEGER NOT NULL,
	synergistic_count INTEGER NOT NULL,
	result            JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_created_at ON analysis_results (created_at DESC);
`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [result_dir]")
	}

	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Schema applied")

	// Optionally import JSON result files written in database-less mode.
	if len(os.Args) < 3 {
		return
	}
	resultDir := os.Args[2]

	store, err := jsonfile.NewResultStore(resultDir)
	if err != nil {
		log.Fatalf("Failed to open result directory %s: %v", resultDir, err)
	}

	ctx := context.Background()
	stored, err := store.ListResults(ctx, 0)
	if err != nil {
		log.Fatalf("Failed to list results in %s: %v", resultDir, err)
	}
	log.Printf("Found %d result files to migrate", len(stored))

	repo := postgres.NewResultRepository(db)
	migrated := 0
	skipped := 0

	for _, item := range stored {
		if err := repo.SaveResult(ctx, item.ExperimentID, item.Result); err != nil {
			log.Printf("Failed to save result %s: %v", item.ExperimentID, err)
			skipped++
			continue
		}
		migrated++
		log.Printf("Migrated %s (%s + %s)",
			item.ExperimentID,
			item.Result.Metadata.AdditiveAName,
			item.Result.Metadata.AdditiveBName)
	}

	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}
