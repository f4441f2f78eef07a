package engine

import (
	"fmt"
	"math"
	"testing"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
)

func TestPolynomialFeatureNames(t *testing.T) {
	names := polynomialFeatureNames(2)
	want := []string{"A", "B", "A^2", "A B", "B^2"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("feature %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPolynomialFeatures_MatchNames(t *testing.T) {
	// A = 2, B = 3 must expand in the same order as the names.
	features := polynomialFeatures(2, 3, 2)
	want := []float64{2, 3, 4, 6, 9}
	if len(features) != len(want) {
		t.Fatalf("got %v, want %v", features, want)
	}
	for i := range want {
		if features[i] != want[i] {
			t.Errorf("feature %d = %v, want %v", i, features[i], want[i])
		}
	}
}

// A noiseless quadratic surface must be recovered almost exactly.
func TestFitResponseSurface_RecoversQuadratic(t *testing.T) {
	a := testAnalyzer()

	truth := func(x, y float64) float64 {
		return 2 + 3*x + 4*y + 0.5*x*x - 0.25*x*y + 0.1*y*y
	}

	points := [][2]float64{
		{0, 0}, {1, 0}, {2, 0}, {0, 1}, {0, 2}, {1, 1}, {2, 1}, {1, 2},
	}
	conditions := experiment.ConditionSet{}
	keys := []core.ConditionKey{
		experiment.KeyBase, experiment.KeyAdditiveA, "additive_a2",
		experiment.KeyAdditiveB, "additive_b2",
		"combination_1", "combination_2", "combination_3",
	}
	for i, p := range points {
		conditions[keys[i]] = mustCondition(t, p[0], p[1], truth(p[0], p[1]))
	}

	surface, err := a.fitResponseSurface(conditions)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	if surface.RSquared < 0.999999 {
		t.Errorf("RSquared = %v, want ~1 for noiseless data", surface.RSquared)
	}
	if surface.RMSE > 1e-6 {
		t.Errorf("RMSE = %v, want ~0", surface.RMSE)
	}

	wantCoeffs := []float64{3, 4, 0.5, -0.25, 0.1}
	for i, want := range wantCoeffs {
		if math.Abs(surface.Coefficients[i]-want) > 1e-6 {
			t.Errorf("coefficient %s = %v, want %v", surface.FeatureNames[i], surface.Coefficients[i], want)
		}
	}
	if math.Abs(surface.Intercept-2) > 1e-6 {
		t.Errorf("Intercept = %v, want 2", surface.Intercept)
	}
}

// At exactly five conditions the degree-2 system is underdetermined; the
// minimum-norm solution must still interpolate the observations.
func TestFitResponseSurface_Underdetermined(t *testing.T) {
	a := testAnalyzer()

	conditions := experiment.ConditionSet{
		experiment.KeyBase:      mustCondition(t, 0, 0, 10),
		experiment.KeyAdditiveA: mustCondition(t, 1, 0, 15),
		experiment.KeyAdditiveB: mustCondition(t, 0, 2, 20),
		"combination_1":         mustCondition(t, 1, 2, 18),
		"combination_2":         mustCondition(t, 2, 4, 22),
	}

	surface, err := a.fitResponseSurface(conditions)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if surface.RMSE > 1e-6 {
		t.Errorf("RMSE = %v, want interpolation of 5 points with 6 coefficients", surface.RMSE)
	}
}

func TestFitResponseSurface_ConstantEffect(t *testing.T) {
	a := testAnalyzer()

	conditions := experiment.ConditionSet{}
	for i := 0; i < 6; i++ {
		key := core.ConditionKey(fmt.Sprintf("combination_%d", i+1))
		conditions[key] = mustCondition(t, float64(i), float64(i%3), 12)
	}

	surface, err := a.fitResponseSurface(conditions)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	// Zero total variance with a perfect fit reports R^2 = 1.
	if surface.RSquared != 1 {
		t.Errorf("RSquared = %v, want 1 for perfectly fit constant data", surface.RSquared)
	}
}
