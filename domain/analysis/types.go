package analysis

import (
	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/domain/synergy"
)

// Metadata identifies what was measured and what was mixed.
type Metadata struct {
	AdditiveAName   string `json:"additive_a"`
	AdditiveBName   string `json:"additive_b"`
	Unit            string `json:"unit"`
	EffectParameter string `json:"effect_parameter"`
}

// ANOVAResult is the omnibus cross-condition test over groups with n > 1.
type ANOVAResult struct {
	FStatistic  float64  `json:"f_statistic"`
	PValue      float64  `json:"p_value"`
	GroupNames  []string `json:"groups_tested"`
	Significant bool     `json:"significant"`
}

// PairwisePValue is one unordered group pair from the post-hoc test.
type PairwisePValue struct {
	GroupA string  `json:"group_a"`
	GroupB string  `json:"group_b"`
	PValue float64 `json:"p_value"`
}

// TukeyResult holds the post-hoc all-pairs comparison. When the pairwise
// computation is unavailable or fails numerically, Error carries a marker and
// Pairs is empty; the rest of the suite is unaffected.
type TukeyResult struct {
	Pairs      []PairwisePValue `json:"pairwise_p_values,omitempty"`
	GroupNames []string         `json:"group_names,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// NormalityResult is a per-condition Shapiro-Wilk outcome.
type NormalityResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	IsNormal  bool    `json:"normal"`
}

// StatisticalTestResults bundles the optional sub-tests. Each variant is
// present only when its preconditions held; absence is not a failure.
type StatisticalTestResults struct {
	ANOVA     *ANOVAResult                          `json:"anova,omitempty"`
	Tukey     *TukeyResult                          `json:"tukey,omitempty"`
	Normality map[core.ConditionKey]NormalityResult `json:"normality,omitempty"`
}

// ResponseSurface is the degree-2 polynomial regression over (amountA, amountB).
// A fitting exception surfaces as Error inside this sub-result instead of
// aborting the analysis.
type ResponseSurface struct {
	RSquared     float64   `json:"r_squared"`
	RMSE         float64   `json:"rmse"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	FeatureNames []string  `json:"feature_names"`
	Degree       int       `json:"degree"`
	Error        string    `json:"error,omitempty"`
}

// DoseResponse is a fitted four-parameter Hill curve for one additive axis.
type DoseResponse struct {
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	IC50      float64 `json:"ic50"`
	HillSlope float64 `json:"hill_slope"`
	RSquared  float64 `json:"r_squared"`
	// ParameterErrors are standard errors from the covariance diagonal,
	// omitted when the fit leaves no residual degrees of freedom.
	ParameterErrors []float64 `json:"parameter_errors,omitempty"`
}

// DoseResponseSet carries the per-axis fits. A failed or unattempted fit is
// simply absent.
type DoseResponseSet struct {
	AdditiveA *DoseResponse `json:"additive_a,omitempty"`
	AdditiveB *DoseResponse `json:"additive_b,omitempty"`
}

// ModelResults bundles the optional model fits.
type ModelResults struct {
	ResponseSurface *ResponseSurface `json:"response_surface,omitempty"`
	DoseResponse    *DoseResponseSet `json:"dose_response,omitempty"`
}

// Summary counts combination outcomes for report headers.
type Summary struct {
	TotalCombinations int `json:"total_combinations"`
	Synergistic       int `json:"synergistic"`
	Antagonistic      int `json:"antagonistic"`
	Additive          int `json:"additive"`
	Significant       int `json:"significant"`
	DataPoints        int `json:"data_points"`
}

// Result is the immutable snapshot produced by one successful analysis run.
// A fresh run replaces the whole value; nothing mutates it in place.
type Result struct {
	Metadata   Metadata                               `json:"metadata"`
	Conditions experiment.ConditionSet                `json:"raw_data"`
	Synergy    map[core.ConditionKey]*synergy.Metric  `json:"synergy_results"`
	Tests      StatisticalTestResults                 `json:"statistical_results"`
	Models     ModelResults                           `json:"model_results"`
	CreatedAt  core.Timestamp                         `json:"timestamp"`
}

// Summarize tallies the combination outcomes.
func (r *Result) Summarize() Summary {
	s := Summary{
		TotalCombinations: len(r.Synergy),
		DataPoints:        len(r.Conditions),
	}
	for _, m := range r.Synergy {
		switch {
		case m.IsSynergistic():
			s.Synergistic++
		case m.IsAntagonistic():
			s.Antagonistic++
		default:
			s.Additive++
		}
		if m.IsSignificant() {
			s.Significant++
		}
	}
	return s
}
