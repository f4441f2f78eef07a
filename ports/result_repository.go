package ports

import (
	"context"

	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
)

// ResultRepository defines the interface for persisted analysis results
type ResultRepository interface {
	// SaveResult stores or replaces the result for an experiment
	SaveResult(ctx context.Context, experimentID core.ExperimentID, result *analysis.Result) error

	// GetResult retrieves the stored result for an experiment
	GetResult(ctx context.Context, experimentID core.ExperimentID) (*analysis.Result, error)

	// ListResults returns stored results ordered newest first, optionally limited
	ListResults(ctx context.Context, limit int) ([]*StoredResult, error)

	// DeleteResult removes the stored result for an experiment
	DeleteResult(ctx context.Context, experimentID core.ExperimentID) error
}

// StoredResult pairs a persisted result with its experiment identity
type StoredResult struct {
	ExperimentID core.ExperimentID
	Result       *analysis.Result
}
