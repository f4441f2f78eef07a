package engine

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"gosynergy/domain/analysis"
	"gosynergy/domain/experiment"
)

// minDoseResponsePoints is the number of distinct single-additive doses
// required before a Hill fit is attempted.
const minDoseResponsePoints = 3

// fitDoseResponse fits independent Hill curves along each additive axis.
// A failed or unattemptable fit leaves that axis absent; it never errors.
func (a *Analyzer) fitDoseResponse(conditions experiment.ConditionSet) *analysis.DoseResponseSet {
	set := &analysis.DoseResponseSet{}

	aDoses, aEffects := singleAxisSeries(conditions, func(c *experiment.Condition) (float64, bool) {
		return c.AmountA, c.AmountB == 0 && c.AmountA > 0
	})
	if distinctCount(aDoses) >= minDoseResponsePoints {
		set.AdditiveA = a.fitHill(aDoses, aEffects)
	}

	bDoses, bEffects := singleAxisSeries(conditions, func(c *experiment.Condition) (float64, bool) {
		return c.AmountB, c.AmountA == 0 && c.AmountB > 0
	})
	if distinctCount(bDoses) >= minDoseResponsePoints {
		set.AdditiveB = a.fitHill(bDoses, bEffects)
	}

	if set.AdditiveA == nil && set.AdditiveB == nil {
		return nil
	}
	return set
}

func singleAxisSeries(conditions experiment.ConditionSet, axis func(*experiment.Condition) (float64, bool)) (doses, effects []float64) {
	for _, key := range conditions.SortedKeys() {
		cond := conditions[key]
		if dose, ok := axis(cond); ok {
			doses = append(doses, dose)
			effects = append(effects, cond.Mean())
		}
	}
	return doses, effects
}

func distinctCount(values []float64) int {
	seen := make(map[float64]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

// hillEquation is the four-parameter sigmoid:
// effect(dose) = bottom + (top-bottom) / (1 + (dose/ic50)^slope).
func hillEquation(dose, top, bottom, ic50, slope float64) float64 {
	return bottom + (top-bottom)/(1+math.Pow(dose/ic50, slope))
}

// fitHill fits the Hill equation by nonlinear least squares with a bounded
// iteration budget. Returns nil on non-convergence or numerical failure.
func (a *Analyzer) fitHill(doses, effects []float64) *analysis.DoseResponse {
	top, _ := stats.Max(effects)
	bottom, _ := stats.Min(effects)
	ic50, _ := stats.Median(doses)
	initial := []float64{top, bottom, ic50, 1}

	sse := func(params []float64) float64 {
		if params[2] <= 0 {
			// An IC50 at or below zero has no curve; steer the simplex away.
			return math.MaxFloat64
		}
		sum := 0.0
		for i, dose := range doses {
			r := effects[i] - hillEquation(dose, params[0], params[1], params[2], params[3])
			sum += r * r
		}
		if math.IsNaN(sum) || math.IsInf(sum, 0) {
			return math.MaxFloat64
		}
		return sum
	}

	problem := optimize.Problem{Func: sse}
	settings := &optimize.Settings{MajorIterations: a.cfg.MaxFitIterations}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		a.log.Debug("hill fit did not converge: %v", err)
		return nil
	}
	if result.Status != optimize.Success && result.Status != optimize.FunctionConvergence {
		a.log.Debug("hill fit stopped with status %v", result.Status)
		return nil
	}

	params := result.X
	ssRes := sse(params)
	if ssRes >= math.MaxFloat64 {
		return nil
	}

	meanEffect, _ := stats.Mean(effects)
	ssTot := 0.0
	for _, e := range effects {
		d := e - meanEffect
		ssTot += d * d
	}
	if ssTot == 0 {
		// A flat effect series has no dose-response signal to explain.
		return nil
	}

	return &analysis.DoseResponse{
		Top:             params[0],
		Bottom:          params[1],
		IC50:            params[2],
		HillSlope:       params[3],
		RSquared:        1 - ssRes/ssTot,
		ParameterErrors: hillParameterErrors(doses, effects, params, ssRes),
	}
}

// hillParameterErrors derives standard errors from the diagonal of the
// linearized covariance matrix s^2 * (J^T J)^-1 with a numeric Jacobian.
// Returns nil when there are no residual degrees of freedom or the normal
// matrix is singular.
func hillParameterErrors(doses, effects, params []float64, ssRes float64) []float64 {
	n, p := len(doses), len(params)
	if n <= p {
		return nil
	}

	jac := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		h := 1e-6 * math.Max(math.Abs(params[j]), 1)
		hi := append([]float64(nil), params...)
		lo := append([]float64(nil), params...)
		hi[j] += h
		lo[j] -= h
		for i, dose := range doses {
			fHi := hillEquation(dose, hi[0], hi[1], hi[2], hi[3])
			fLo := hillEquation(dose, lo[0], lo[1], lo[2], lo[3])
			jac.Set(i, j, (fHi-fLo)/(2*h))
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		return nil
	}

	variance := ssRes / float64(n-p)
	errors := make([]float64, p)
	for j := 0; j < p; j++ {
		errors[j] = math.Sqrt(variance * inv.At(j, j))
	}
	return errors
}
