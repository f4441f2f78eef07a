package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// SaveResult stores or replaces the result for an experiment. The full result
// map goes into a JSONB column so the round-trip stays lossless; the summary
// columns exist for listing queries only.
func (r *ResultRepositoryImpl) SaveResult(ctx context.Context, experimentID core.ExperimentID, result *analysis.Result) error {
	resultJSON, err := json.Marshal(result.ToMap())
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	summary := result.Summarize()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_results (
			experiment_id, additive_a, additive_b, effect_parameter,
			combination_count, synergistic_count, result, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (experiment_id) DO UPDATE SET
			additive_a = EXCLUDED.additive_a,
			additive_b = EXCLUDED.additive_b,
			effect_parameter = EXCLUDED.effect_parameter,
			combination_count = EXCLUDED.combination_count,
			synergistic_count = EXCLUDED.synergistic_count,
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at`,
		experimentID.String(), result.Metadata.AdditiveAName, result.Metadata.AdditiveBName,
		result.Metadata.EffectParameter, summary.TotalCombinations, summary.Synergistic,
		resultJSON, result.CreatedAt.Time())

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" { // undefined_table
		return fmt.Errorf("analysis_results table missing, run migrations first: %w", err)
	}
	return err
}

// GetResult retrieves the stored result for an experiment
func (r *ResultRepositoryImpl) GetResult(ctx context.Context, experimentID core.ExperimentID) (*analysis.Result, error) {
	var resultJSON []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT result FROM analysis_results WHERE experiment_id = $1
	`, experimentID.String()).Scan(&resultJSON)

	if err == sql.ErrNoRows {
		return nil, core.ErrExperimentNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeStoredResult(resultJSON)
}

// ListResults returns stored results ordered newest first, optionally limited
func (r *ResultRepositoryImpl) ListResults(ctx context.Context, limit int) ([]*ports.StoredResult, error) {
	query := `
		SELECT experiment_id, result
		FROM analysis_results
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*ports.StoredResult
	for rows.Next() {
		var experimentID string
		var resultJSON []byte
		if err := rows.Scan(&experimentID, &resultJSON); err != nil {
			return nil, err
		}

		result, err := decodeStoredResult(resultJSON)
		if err != nil {
			return nil, err
		}
		results = append(results, &ports.StoredResult{
			ExperimentID: core.ExperimentID(experimentID),
			Result:       result,
		})
	}

	return results, rows.Err()
}

// DeleteResult removes the stored result for an experiment
func (r *ResultRepositoryImpl) DeleteResult(ctx context.Context, experimentID core.ExperimentID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM analysis_results WHERE experiment_id = $1
	`, experimentID.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrExperimentNotFound
	}
	return nil
}

func decodeStoredResult(resultJSON []byte) (*analysis.Result, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(resultJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return analysis.FromMap(data)
}
