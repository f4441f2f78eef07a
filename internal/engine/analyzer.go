package engine

import (
	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/internal"
	"gosynergy/internal/config"
)

// Analyzer turns replicate measurements into synergy metrics, hypothesis-test
// results and fitted models. It is purely functional over the supplied
// condition snapshot: every Analyze call reads the map and returns one new
// immutable result with no other observable effect.
type Analyzer struct {
	cfg  config.AnalysisConfig
	log  *internal.Logger
	dist *Distributions
}

// NewAnalyzer creates an analyzer with the given engine configuration.
func NewAnalyzer(cfg config.AnalysisConfig, log *internal.Logger) *Analyzer {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &Analyzer{
		cfg:  cfg,
		log:  log,
		dist: NewDistributions(),
	}
}

// ConfidenceLevel returns the configured two-sided confidence level, falling
// back to the experiment default when the value is out of range.
func (a *Analyzer) ConfidenceLevel() float64 {
	if a.cfg.ConfidenceLevel <= 0 || a.cfg.ConfidenceLevel >= 1 {
		return experiment.DefaultConfidenceLevel
	}
	return a.cfg.ConfidenceLevel
}

// Analyze performs the complete analysis over the condition set. It fails
// before computing anything when the required condition keys are missing;
// once preconditions pass, a result is always produced.
func (a *Analyzer) Analyze(meta analysis.Metadata, conditions experiment.ConditionSet) (*analysis.Result, error) {
	if err := conditions.Validate(); err != nil {
		return nil, err
	}

	metrics := a.computeSynergyMetrics(conditions)
	tests := a.runStatisticalTests(conditions)
	models := a.fitModels(conditions)

	return &analysis.Result{
		Metadata:   meta,
		Conditions: conditions,
		Synergy:    metrics,
		Tests:      tests,
		Models:     models,
		CreatedAt:  core.Now(),
	}, nil
}

// fitModels runs the optional model fits. The response surface needs enough
// conditions to identify the polynomial; a fitting failure becomes an error
// marker inside its sub-result rather than aborting the analysis.
func (a *Analyzer) fitModels(conditions experiment.ConditionSet) analysis.ModelResults {
	var models analysis.ModelResults

	if len(conditions) >= minSurfaceConditions {
		surface, err := a.fitResponseSurface(conditions)
		if err != nil {
			a.log.Warn("response surface fit failed: %v", err)
			surface = &analysis.ResponseSurface{
				Degree: a.cfg.PolynomialDegree,
				Error:  err.Error(),
			}
		}
		models.ResponseSurface = surface
	}

	models.DoseResponse = a.fitDoseResponse(conditions)
	return models
}
