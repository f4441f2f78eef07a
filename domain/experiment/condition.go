package experiment

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"gosynergy/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Reserved condition keys. Every experiment needs the three single-agent
// baselines plus at least one combination_<n> condition.
const (
	KeyBase      core.ConditionKey = "base"
	KeyAdditiveA core.ConditionKey = "additive_a"
	KeyAdditiveB core.ConditionKey = "additive_b"
)

// DefaultParameter is the parameter name used when a condition carries a
// single measured effect.
const DefaultParameter = "effect"

// MaxReplicates bounds the replicate count per condition.
const MaxReplicates = 50

// DefaultConfidenceLevel is the two-sided confidence level for replicate CIs.
const DefaultConfidenceLevel = 0.95

var combinationKeyPattern = regexp.MustCompile(`^combination_[1-9][0-9]*$`)

// IsCombinationKey reports whether key names a combination condition.
func IsCombinationKey(key core.ConditionKey) bool {
	return combinationKeyPattern.MatchString(string(key))
}

// Interval is a two-sided confidence interval around a sample mean.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Sample holds one parameter's replicate values with statistics computed and
// frozen at construction time. Replacing a condition's values means building
// a new Sample; nothing recomputes lazily.
type Sample struct {
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std"`
	N      int       `json:"n"`
	// CI is present only when N > 1; a singleton replicate has no interval.
	CI *Interval `json:"ci,omitempty"`
}

// NewSample aggregates replicate values into a frozen Sample. The confidence
// interval uses the Student-t critical value at the given confidence level.
func NewSample(values []float64, confidence float64) (*Sample, error) {
	if len(values) == 0 {
		return nil, core.ErrEmptyReplicates
	}
	if len(values) > MaxReplicates {
		return nil, fmt.Errorf("%w: %d > %d", core.ErrTooManyValues, len(values), MaxReplicates)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d", core.ErrNonFiniteValue, i+1)
		}
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidenceLevel
	}

	owned := make([]float64, len(values))
	copy(owned, values)

	mean, _ := stats.Mean(owned)
	s := &Sample{
		Values: owned,
		Mean:   mean,
		N:      len(owned),
	}

	if s.N > 1 {
		sd, _ := stats.StandardDeviationSample(owned)
		s.StdDev = sd
		lower, upper := confidenceIntervalMean(mean, sd, s.N, confidence)
		s.CI = &Interval{Lower: lower, Upper: upper}
	}

	return s, nil
}

// confidenceIntervalMean computes a two-sided CI for the population mean
// using the t-critical value at df = n-1.
func confidenceIntervalMean(sampleMean, sampleStd float64, sampleSize int, confidenceLevel float64) (lower, upper float64) {
	if sampleSize < 2 {
		return sampleMean, sampleMean
	}

	df := float64(sampleSize - 1)
	alpha := 1.0 - confidenceLevel
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1.0 - alpha/2.0)

	se := sampleStd / math.Sqrt(float64(sampleSize))
	margin := tCritical * se
	return sampleMean - margin, sampleMean + margin
}

// Condition is one experimental setting: the two additive amounts plus the
// aggregated replicate samples, keyed by parameter name. The single-parameter
// case is just a one-entry map under DefaultParameter; the Mean/StdDev/N/CI
// accessors delegate to that primary sample.
type Condition struct {
	AmountA   float64            `json:"amount_a"`
	AmountB   float64            `json:"amount_b"`
	Samples   map[string]*Sample `json:"samples"`
	Primary   string             `json:"primary"`
	CreatedAt core.Timestamp     `json:"created_at"`
}

// NewCondition builds a single-parameter condition with derived statistics
// computed once at construction.
func NewCondition(amountA, amountB float64, values []float64, confidence float64) (*Condition, error) {
	return NewMultiCondition(amountA, amountB, map[string][]float64{DefaultParameter: values}, DefaultParameter, confidence)
}

// NewMultiCondition builds a condition holding several measured parameters.
// The primary parameter is the one the synergy analysis runs on.
func NewMultiCondition(amountA, amountB float64, values map[string][]float64, primary string, confidence float64) (*Condition, error) {
	if amountA < 0 || amountB < 0 {
		return nil, core.ErrNegativeAmount
	}
	if _, ok := values[primary]; !ok {
		return nil, fmt.Errorf("primary parameter %q has no values", primary)
	}

	samples := make(map[string]*Sample, len(values))
	for name, vals := range values {
		sample, err := NewSample(vals, confidence)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		samples[name] = sample
	}

	return &Condition{
		AmountA:   amountA,
		AmountB:   amountB,
		Samples:   samples,
		Primary:   primary,
		CreatedAt: core.Now(),
	}, nil
}

// PrimarySample returns the sample for the condition's primary parameter.
func (c *Condition) PrimarySample() *Sample { return c.Samples[c.Primary] }

// Mean returns the primary sample mean.
func (c *Condition) Mean() float64 { return c.PrimarySample().Mean }

// StdDev returns the primary sample standard deviation (0 when N == 1).
func (c *Condition) StdDev() float64 { return c.PrimarySample().StdDev }

// N returns the primary replicate count.
func (c *Condition) N() int { return c.PrimarySample().N }

// CI returns the primary confidence interval, nil when N == 1.
func (c *Condition) CI() *Interval { return c.PrimarySample().CI }

// Values returns the primary replicate values.
func (c *Condition) Values() []float64 { return c.PrimarySample().Values }

// ConditionSet is the engine's read-only view of an experiment's conditions.
type ConditionSet map[core.ConditionKey]*Condition

// Validate checks the required key set: base, additive_a, additive_b and at
// least one combination_<n> key. It reports the first missing requirement.
func (cs ConditionSet) Validate() error {
	for _, key := range []core.ConditionKey{KeyBase, KeyAdditiveA, KeyAdditiveB} {
		if _, ok := cs[key]; !ok {
			return core.NewMissingConditionError(key)
		}
	}
	for key := range cs {
		if IsCombinationKey(key) {
			return nil
		}
	}
	return core.ErrNoCombination
}

// CombinationKeys returns the combination condition keys in sorted order.
func (cs ConditionSet) CombinationKeys() []core.ConditionKey {
	keys := make([]core.ConditionKey, 0, len(cs))
	for key := range cs {
		if IsCombinationKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SortedKeys returns every condition key in sorted order, for deterministic
// iteration in tests, exports and group assembly.
func (cs ConditionSet) SortedKeys() []core.ConditionKey {
	keys := make([]core.ConditionKey, 0, len(cs))
	for key := range cs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
