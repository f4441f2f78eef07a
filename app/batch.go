package app

import (
	"context"
	"sync"

	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/internal"

	"golang.org/x/sync/semaphore"
)

const defaultBatchConcurrency = 4

// BatchRunner analyzes many experiments concurrently with a weighted
// semaphore bounding how many engine runs execute at once.
type BatchRunner struct {
	service *ExperimentService
	sem     *semaphore.Weighted
	log     *internal.Logger
}

// BatchOutcome is the per-experiment result of a batch run.
type BatchOutcome struct {
	ExperimentID core.ExperimentID
	Result       *analysis.Result
	Err          error
}

// NewBatchRunner creates a runner allowing up to concurrency simultaneous
// analyses.
func NewBatchRunner(service *ExperimentService, concurrency int64, log *internal.Logger) *BatchRunner {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &BatchRunner{
		service: service,
		sem:     semaphore.NewWeighted(concurrency),
		log:     log,
	}
}

// RunAll analyzes every listed experiment. Outcomes are returned in the input
// order; a cancelled context aborts the remaining acquisitions.
func (b *BatchRunner) RunAll(ctx context.Context, ids []core.ExperimentID) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = BatchOutcome{ExperimentID: id, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, id core.ExperimentID) {
			defer wg.Done()
			defer b.sem.Release(1)

			result, err := b.service.Analyze(ctx, id)
			if err != nil {
				b.log.Warn("batch analysis failed for %s: %v", id, err)
			}
			outcomes[i] = BatchOutcome{ExperimentID: id, Result: result, Err: err}
		}(i, id)
	}

	wg.Wait()
	return outcomes
}
