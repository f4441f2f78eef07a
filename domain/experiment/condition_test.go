package experiment

import (
	"errors"
	"math"
	"testing"

	"gosynergy/domain/core"
)

func TestNewSample_Statistics(t *testing.T) {
	sample, err := NewSample([]float64{10, 12, 14}, DefaultConfidenceLevel)
	if err != nil {
		t.Fatalf("NewSample failed: %v", err)
	}

	if sample.Mean != 12 {
		t.Errorf("Mean = %v, want 12", sample.Mean)
	}
	if sample.N != 3 {
		t.Errorf("N = %d, want 3", sample.N)
	}
	if math.Abs(sample.StdDev-2) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", sample.StdDev)
	}
	if sample.CI == nil {
		t.Fatal("expected confidence interval for n > 1")
	}
	if !(sample.CI.Lower <= sample.Mean && sample.Mean <= sample.CI.Upper) {
		t.Errorf("CI [%v, %v] does not contain mean %v", sample.CI.Lower, sample.CI.Upper, sample.Mean)
	}
	if sample.CI.Lower >= sample.CI.Upper {
		t.Errorf("CI bounds out of order: [%v, %v]", sample.CI.Lower, sample.CI.Upper)
	}
}

func TestNewSample_SingleReplicate(t *testing.T) {
	sample, err := NewSample([]float64{7.5}, DefaultConfidenceLevel)
	if err != nil {
		t.Fatalf("NewSample failed: %v", err)
	}

	if sample.Mean != 7.5 {
		t.Errorf("Mean = %v, want 7.5", sample.Mean)
	}
	if sample.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 for singleton", sample.StdDev)
	}
	if sample.CI != nil {
		t.Error("singleton replicate should have no confidence interval")
	}
}

func TestNewSample_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   error
	}{
		{"empty", nil, core.ErrEmptyReplicates},
		{"nan", []float64{1, math.NaN()}, core.ErrNonFiniteValue},
		{"inf", []float64{math.Inf(1)}, core.ErrNonFiniteValue},
		{"too many", make([]float64, MaxReplicates+1), core.ErrTooManyValues},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSample(tc.values, DefaultConfidenceLevel)
			if !errors.Is(err, tc.want) {
				t.Errorf("NewSample(%s) error = %v, want %v", tc.name, err, tc.want)
			}
		})
	}
}

func TestNewSample_FreezesInput(t *testing.T) {
	values := []float64{1, 2, 3}
	sample, err := NewSample(values, DefaultConfidenceLevel)
	if err != nil {
		t.Fatalf("NewSample failed: %v", err)
	}

	values[0] = 100
	if sample.Values[0] != 1 {
		t.Error("sample should own a copy of the input values")
	}
}

func TestNewCondition_NegativeAmount(t *testing.T) {
	_, err := NewCondition(-1, 0, []float64{1}, DefaultConfidenceLevel)
	if !errors.Is(err, core.ErrNegativeAmount) {
		t.Errorf("error = %v, want ErrNegativeAmount", err)
	}
}

func TestNewMultiCondition_PrimaryAccessors(t *testing.T) {
	cond, err := NewMultiCondition(1, 2, map[string][]float64{
		"viscosity": {5, 6, 7},
		"ph":        {7.0, 7.1},
	}, "viscosity", DefaultConfidenceLevel)
	if err != nil {
		t.Fatalf("NewMultiCondition failed: %v", err)
	}

	if cond.Mean() != 6 {
		t.Errorf("Mean = %v, want primary mean 6", cond.Mean())
	}
	if cond.N() != 3 {
		t.Errorf("N = %d, want 3", cond.N())
	}
	if len(cond.Samples) != 2 {
		t.Errorf("Samples = %d, want 2", len(cond.Samples))
	}
}

func TestNewMultiCondition_MissingPrimary(t *testing.T) {
	_, err := NewMultiCondition(1, 2, map[string][]float64{"ph": {7}}, "viscosity", DefaultConfidenceLevel)
	if err == nil {
		t.Error("expected error for missing primary parameter")
	}
}

func TestIsCombinationKey(t *testing.T) {
	valid := []core.ConditionKey{"combination_1", "combination_2", "combination_10"}
	invalid := []core.ConditionKey{"base", "additive_a", "combination_", "combination_0", "combination_01", "combo_1", "combination_x"}

	for _, key := range valid {
		if !IsCombinationKey(key) {
			t.Errorf("IsCombinationKey(%q) = false, want true", key)
		}
	}
	for _, key := range invalid {
		if IsCombinationKey(key) {
			t.Errorf("IsCombinationKey(%q) = true, want false", key)
		}
	}
}

func TestConditionSet_Validate(t *testing.T) {
	mk := func(values ...float64) *Condition {
		cond, err := NewCondition(0, 0, values, DefaultConfidenceLevel)
		if err != nil {
			t.Fatalf("NewCondition failed: %v", err)
		}
		return cond
	}

	full := ConditionSet{
		KeyBase:         mk(1),
		KeyAdditiveA:    mk(2),
		KeyAdditiveB:    mk(3),
		"combination_1": mk(4),
	}
	if err := full.Validate(); err != nil {
		t.Errorf("complete set should validate, got %v", err)
	}

	missing := ConditionSet{
		KeyBase:         mk(1),
		KeyAdditiveA:    mk(2),
		"combination_1": mk(4),
	}
	if err := missing.Validate(); !errors.Is(err, core.ErrMissingCondition) {
		t.Errorf("error = %v, want ErrMissingCondition", err)
	}

	noCombo := ConditionSet{
		KeyBase:      mk(1),
		KeyAdditiveA: mk(2),
		KeyAdditiveB: mk(3),
	}
	if err := noCombo.Validate(); !errors.Is(err, core.ErrNoCombination) {
		t.Errorf("error = %v, want ErrNoCombination", err)
	}
}

func TestConditionSet_CombinationKeys(t *testing.T) {
	mk := func() *Condition {
		cond, _ := NewCondition(0, 0, []float64{1}, DefaultConfidenceLevel)
		return cond
	}
	set := ConditionSet{
		"combination_2": mk(),
		KeyBase:         mk(),
		"combination_1": mk(),
		KeyAdditiveA:    mk(),
	}

	keys := set.CombinationKeys()
	if len(keys) != 2 || keys[0] != "combination_1" || keys[1] != "combination_2" {
		t.Errorf("CombinationKeys = %v, want [combination_1 combination_2]", keys)
	}
}
