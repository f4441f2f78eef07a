package app

import (
	"context"
	"sync"

	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/internal"
	"gosynergy/internal/engine"
	"gosynergy/internal/errors"
	"gosynergy/internal/validate"
	"gosynergy/ports"
)

// Experiment is one in-memory experiment: its setup, its condition set and
// the result of the last completed analysis.
type Experiment struct {
	ID         core.ExperimentID
	Metadata   analysis.Metadata
	Conditions experiment.ConditionSet
	Result     *analysis.Result
	CreatedAt  core.Timestamp
	UpdatedAt  core.Timestamp
}

// ExperimentService manages experiments and runs analyses. Mutating calls
// touch the condition set; analysis snapshots it and stores an immutable
// result, optionally persisting through the repository.
type ExperimentService struct {
	analyzer *engine.Analyzer
	repo     ports.ResultRepository // nil means no persistence
	log      *internal.Logger

	mu          sync.RWMutex
	experiments map[core.ExperimentID]*Experiment
}

// NewExperimentService creates the service. repo may be nil.
func NewExperimentService(analyzer *engine.Analyzer, repo ports.ResultRepository, log *internal.Logger) *ExperimentService {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &ExperimentService{
		analyzer:    analyzer,
		repo:        repo,
		log:         log,
		experiments: make(map[core.ExperimentID]*Experiment),
	}
}

// CreateExperiment validates the setup fields and registers a new experiment.
func (s *ExperimentService) CreateExperiment(meta analysis.Metadata) (*Experiment, error) {
	if err := validate.ExperimentInfo(meta.AdditiveAName, meta.AdditiveBName, meta.Unit, meta.EffectParameter); err != nil {
		return nil, err
	}

	exp := &Experiment{
		ID:         core.ExperimentID(core.NewID()),
		Metadata:   meta,
		Conditions: make(experiment.ConditionSet),
		CreatedAt:  core.Now(),
		UpdatedAt:  core.Now(),
	}

	s.mu.Lock()
	s.experiments[exp.ID] = exp
	s.mu.Unlock()

	s.log.Info("created experiment %s (%s + %s)", exp.ID, meta.AdditiveAName, meta.AdditiveBName)
	return exp, nil
}

// GetExperiment returns a copy-safe view of one experiment.
func (s *ExperimentService) GetExperiment(id core.ExperimentID) (*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[id]
	if !ok {
		return nil, core.ErrExperimentNotFound
	}
	return exp, nil
}

// ListExperiments returns all registered experiments.
func (s *ExperimentService) ListExperiments() []*Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Experiment, 0, len(s.experiments))
	for _, exp := range s.experiments {
		out = append(out, exp)
	}
	return out
}

// DeleteExperiment removes an experiment and its persisted result.
func (s *ExperimentService) DeleteExperiment(ctx context.Context, id core.ExperimentID) error {
	s.mu.Lock()
	_, ok := s.experiments[id]
	if ok {
		delete(s.experiments, id)
	}
	s.mu.Unlock()

	if !ok {
		return core.ErrExperimentNotFound
	}
	if s.repo != nil {
		if err := s.repo.DeleteResult(ctx, id); err != nil && err != core.ErrExperimentNotFound {
			s.log.Warn("failed to delete persisted result for %s: %v", id, err)
		}
	}
	return nil
}

// UpsertCondition validates and stores one condition under its key. Replacing
// an existing key drops any previous replicates for it.
func (s *ExperimentService) UpsertCondition(id core.ExperimentID, key core.ConditionKey, amountA, amountB float64, values []float64) error {
	if key != experiment.KeyBase && key != experiment.KeyAdditiveA && key != experiment.KeyAdditiveB && !experiment.IsCombinationKey(key) {
		return errors.InvalidInput("unknown condition key: " + string(key))
	}

	s.mu.RLock()
	exp, ok := s.experiments[id]
	s.mu.RUnlock()
	if !ok {
		return core.ErrExperimentNotFound
	}

	if err := validate.Concentration(amountA, exp.Metadata.Unit); err != nil {
		return err
	}
	if err := validate.Concentration(amountB, exp.Metadata.Unit); err != nil {
		return err
	}
	if err := validate.Replicates(values); err != nil {
		return err
	}

	cond, err := experiment.NewCondition(amountA, amountB, values, s.analyzer.ConfidenceLevel())
	if err != nil {
		return err
	}

	s.mu.Lock()
	exp.Conditions[key] = cond
	exp.UpdatedAt = core.Now()
	s.mu.Unlock()
	return nil
}

// RemoveCondition deletes one condition key.
func (s *ExperimentService) RemoveCondition(id core.ExperimentID, key core.ConditionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return core.ErrExperimentNotFound
	}
	if _, ok := exp.Conditions[key]; !ok {
		return core.ErrNotFound
	}
	delete(exp.Conditions, key)
	exp.UpdatedAt = core.Now()
	return nil
}

// ReplaceConditions swaps in a whole imported condition set.
func (s *ExperimentService) ReplaceConditions(id core.ExperimentID, conditions experiment.ConditionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return core.ErrExperimentNotFound
	}
	exp.Conditions = conditions
	exp.UpdatedAt = core.Now()
	return nil
}

// Suggestions returns data-quality advice for the current condition set.
func (s *ExperimentService) Suggestions(id core.ExperimentID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[id]
	if !ok {
		return nil, core.ErrExperimentNotFound
	}
	return validate.Suggestions(exp.Conditions), nil
}

// Analyze snapshots the experiment's conditions, runs the full analysis and
// stores the result. Any change to the conditions afterwards does not affect
// the stored result until the next Analyze call replaces it wholesale.
func (s *ExperimentService) Analyze(ctx context.Context, id core.ExperimentID) (*analysis.Result, error) {
	s.mu.RLock()
	exp, ok := s.experiments[id]
	var meta analysis.Metadata
	var snapshot experiment.ConditionSet
	if ok {
		meta = exp.Metadata
		snapshot = make(experiment.ConditionSet, len(exp.Conditions))
		for k, v := range exp.Conditions {
			snapshot[k] = v
		}
	}
	s.mu.RUnlock()
	if !ok {
		return nil, core.ErrExperimentNotFound
	}

	if err := validate.Completeness(snapshot); err != nil {
		return nil, err
	}

	result, err := s.analyzer.Analyze(meta, snapshot)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if current, ok := s.experiments[id]; ok {
		current.Result = result
	}
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, id, result); err != nil {
			s.log.Warn("failed to persist result for %s: %v", id, err)
		}
	}

	summary := result.Summarize()
	s.log.Info("analyzed experiment %s: %d combinations, %d synergistic, %d significant",
		id, summary.TotalCombinations, summary.Synergistic, summary.Significant)
	return result, nil
}

// GetResult returns the last stored result, falling back to the repository
// when the in-memory copy is absent.
func (s *ExperimentService) GetResult(ctx context.Context, id core.ExperimentID) (*analysis.Result, error) {
	s.mu.RLock()
	exp, ok := s.experiments[id]
	s.mu.RUnlock()

	if ok && exp.Result != nil {
		return exp.Result, nil
	}
	if s.repo != nil {
		return s.repo.GetResult(ctx, id)
	}
	if !ok {
		return nil, core.ErrExperimentNotFound
	}
	return nil, core.ErrNotFound
}
