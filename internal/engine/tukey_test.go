package engine

import (
	"math"
	"testing"
)

func TestTukeyPairs_PairEnumeration(t *testing.T) {
	groups := [][]float64{
		{10, 10.1, 9.9},
		{15, 15.1, 14.9},
		{20, 20.1, 19.9},
	}
	names := []string{"base", "additive_a", "additive_b"}

	pairs, err := tukeyPairs(groups, names)
	if err != nil {
		t.Fatalf("tukeyPairs failed: %v", err)
	}

	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want C(3,2) = 3", len(pairs))
	}

	seen := map[string]bool{}
	for _, p := range pairs {
		seen[p.GroupA+"/"+p.GroupB] = true
		if p.PValue < 0 || p.PValue > 1 {
			t.Errorf("pair %s/%s: p = %v outside [0, 1]", p.GroupA, p.GroupB, p.PValue)
		}
	}
	for _, want := range []string{"base/additive_a", "base/additive_b", "additive_a/additive_b"} {
		if !seen[want] {
			t.Errorf("missing pair %s", want)
		}
	}
}

func TestTukeyPairs_SeparationDrivesPValues(t *testing.T) {
	// Two far-apart groups and one overlapping pair.
	groups := [][]float64{
		{10, 10.2, 9.8, 10.1},
		{10.1, 10.3, 9.9, 10.0},
		{30, 30.2, 29.8, 30.1},
	}
	names := []string{"a", "b", "c"}

	pairs, err := tukeyPairs(groups, names)
	if err != nil {
		t.Fatalf("tukeyPairs failed: %v", err)
	}

	byPair := map[string]float64{}
	for _, p := range pairs {
		byPair[p.GroupA+"/"+p.GroupB] = p.PValue
	}

	if byPair["a/b"] < 0.5 {
		t.Errorf("overlapping groups a/b: p = %v, want large", byPair["a/b"])
	}
	if byPair["a/c"] > 0.01 {
		t.Errorf("separated groups a/c: p = %v, want small", byPair["a/c"])
	}
	if byPair["b/c"] > 0.01 {
		t.Errorf("separated groups b/c: p = %v, want small", byPair["b/c"])
	}
}

func TestTukeyPairs_UnbalancedGroups(t *testing.T) {
	// Tukey-Kramer handles unequal replicate counts.
	groups := [][]float64{
		{10, 10.1},
		{15, 15.2, 14.8, 15.1},
		{20, 19.9, 20.1},
	}
	names := []string{"a", "b", "c"}

	pairs, err := tukeyPairs(groups, names)
	if err != nil {
		t.Fatalf("tukeyPairs failed: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(pairs))
	}
	for _, p := range pairs {
		if p.PValue > 0.05 {
			t.Errorf("pair %s/%s: p = %v, want significant for separated groups", p.GroupA, p.GroupB, p.PValue)
		}
	}
}

func TestStudentizedRangeCDF_Monotone(t *testing.T) {
	prev := -1.0
	for _, q := range []float64{0.5, 1, 2, 3, 4, 6, 8} {
		cdf := studentizedRangeCDF(q, 4, 12)
		if cdf < prev {
			t.Errorf("CDF not monotone at q = %v: %v < %v", q, cdf, prev)
		}
		if cdf < 0 || cdf > 1 {
			t.Errorf("CDF(%v) = %v outside [0, 1]", q, cdf)
		}
		prev = cdf
	}

	if cdf := studentizedRangeCDF(8, 3, 20); cdf < 0.99 {
		t.Errorf("CDF(8) = %v, want near 1", cdf)
	}
	if cdf := studentizedRangeCDF(0.1, 3, 20); cdf > 0.05 {
		t.Errorf("CDF(0.1) = %v, want near 0", cdf)
	}
}

// Reference check against the classic critical value q(0.05; k=3, df=12) ~ 3.77:
// the upper tail probability at that point should be close to 0.05.
func TestStudentizedRangeCDF_CriticalValue(t *testing.T) {
	upper := 1 - studentizedRangeCDF(3.77, 3, 12)
	if math.Abs(upper-0.05) > 0.01 {
		t.Errorf("upper tail at q = 3.77 is %v, want ~0.05", upper)
	}
}
