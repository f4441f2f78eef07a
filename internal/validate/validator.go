package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/internal/errors"

	"github.com/montanaflynn/stats"
)

// Validation limits for experiment inputs. The engine trusts its input;
// these checks run upstream in the service layer.
const (
	MaxNameLength = 50
	MaxUnitLength = 20
	MinValue      = -1e6
	MaxValue      = 1e6

	// Replicate sets with a coefficient of variation above this are rejected
	// as likely containing measurement errors.
	MaxCVPercent = 50

	outlierZThreshold = 2.5
)

// ExperimentInfo checks the experiment setup fields.
func ExperimentInfo(additiveA, additiveB, unit, effectParameter string) error {
	var problems []string

	if strings.TrimSpace(additiveA) == "" {
		problems = append(problems, "additive A name is required")
	} else if len(additiveA) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("additive A name too long (max %d chars)", MaxNameLength))
	}
	if strings.TrimSpace(additiveB) == "" {
		problems = append(problems, "additive B name is required")
	} else if len(additiveB) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("additive B name too long (max %d chars)", MaxNameLength))
	}
	if strings.TrimSpace(unit) == "" {
		problems = append(problems, "unit is required")
	} else if len(unit) > MaxUnitLength {
		problems = append(problems, fmt.Sprintf("unit too long (max %d chars)", MaxUnitLength))
	}
	if strings.TrimSpace(effectParameter) == "" {
		problems = append(problems, "effect parameter is required")
	}
	if strings.EqualFold(strings.TrimSpace(additiveA), strings.TrimSpace(additiveB)) {
		problems = append(problems, "additive names must be different")
	}

	if len(problems) > 0 {
		return errors.ValidationError(strings.Join(problems, "; "))
	}
	return nil
}

// Concentration checks one additive amount against its unit.
func Concentration(amount float64, unit string) error {
	if amount < 0 {
		return errors.InvalidInput("concentration cannot be negative")
	}
	switch unit {
	case "%", "vol%", "wt%", "mol%":
		if amount > 100 {
			return errors.InvalidInput(fmt.Sprintf("percentage values cannot exceed 100%% (got %g%%)", amount))
		}
	}
	if amount < MinValue || amount > MaxValue {
		return errors.InvalidInput(fmt.Sprintf("value outside valid range [%g, %g]", MinValue, MaxValue))
	}
	return nil
}

// Replicates checks a replicate value list: count, finiteness, range and
// overall variability.
func Replicates(values []float64) error {
	if len(values) == 0 {
		return errors.InvalidInput("at least one value is required")
	}
	if len(values) > experiment.MaxReplicates {
		return errors.InvalidInput(fmt.Sprintf("too many replicates (max: %d)", experiment.MaxReplicates))
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.InvalidInput(fmt.Sprintf("value %d is invalid (NaN or Inf)", i+1))
		}
		if v < MinValue || v > MaxValue {
			return errors.InvalidInput(fmt.Sprintf("value %d (%g) outside valid range", i+1, v))
		}
	}

	if len(values) > 1 {
		mean, _ := stats.Mean(values)
		sd, _ := stats.StandardDeviation(values)
		if mean != 0 {
			cv := sd / math.Abs(mean) * 100
			if cv > MaxCVPercent {
				return errors.ValidationError(fmt.Sprintf("high variability detected (CV = %.1f%%), check for outliers", cv))
			}
		}
	}
	return nil
}

// Outliers flags replicate indices whose modified Z-score (median absolute
// deviation based) exceeds the threshold. Fewer than 3 values cannot be
// screened.
func Outliers(values []float64) []int {
	if len(values) < 3 {
		return nil
	}

	median, _ := stats.Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	mad, _ := stats.Median(deviations)
	if mad == 0 {
		return nil
	}

	var outliers []int
	for i, v := range values {
		z := 0.6745 * (v - median) / mad
		if math.Abs(z) > outlierZThreshold {
			outliers = append(outliers, i)
		}
	}
	return outliers
}

// Suggestions inspects a condition set for data-quality improvements worth
// surfacing to the user before analysis.
func Suggestions(conditions experiment.ConditionSet) []string {
	var suggestions []string

	var lowReplicates []string
	for _, key := range conditions.SortedKeys() {
		if conditions[key].N() < 3 {
			lowReplicates = append(lowReplicates, string(key))
		}
	}
	if len(lowReplicates) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"consider adding more replicates to: %s (currently < 3 replicates)",
			strings.Join(lowReplicates, ", ")))
	}

	if len(conditions.CombinationKeys()) < 3 {
		suggestions = append(suggestions, "add more combination ratios to improve model fitting")
	}

	for _, key := range conditions.SortedKeys() {
		if outliers := Outliers(conditions[key].Values()); len(outliers) > 0 {
			positions := make([]string, len(outliers))
			for i, idx := range outliers {
				positions[i] = fmt.Sprintf("%d", idx+1)
			}
			suggestions = append(suggestions, fmt.Sprintf(
				"potential outliers detected in %s at positions: %s",
				key, strings.Join(positions, ", ")))
		}
	}
	return suggestions
}

// Completeness reports every missing requirement of a condition set at once,
// unlike the engine's first-failure precondition check.
func Completeness(conditions experiment.ConditionSet) error {
	var problems []string

	var missing []string
	for _, key := range []core.ConditionKey{experiment.KeyBase, experiment.KeyAdditiveA, experiment.KeyAdditiveB} {
		if _, ok := conditions[key]; !ok {
			missing = append(missing, string(key))
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("missing required conditions: %s", strings.Join(missing, ", ")))
	}
	if len(conditions.CombinationKeys()) == 0 {
		problems = append(problems, "at least one combination is required")
	}

	if len(problems) > 0 {
		return errors.ValidationError(strings.Join(problems, "; "))
	}
	return nil
}
