package engine

import (
	"math"
	"testing"
)

func TestShapiroWilk_NormalLookingSample(t *testing.T) {
	// Near-symmetric bell-shaped sample: the test must not reject.
	data := []float64{4.8, 5.0, 5.1, 4.9, 5.2, 5.0, 4.7, 5.3, 5.0, 4.95}

	w, p, err := ShapiroWilk(data)
	if err != nil {
		t.Fatalf("ShapiroWilk failed: %v", err)
	}

	if w <= 0.8 || w > 1 {
		t.Errorf("W = %v, want close to 1 for normal-looking data", w)
	}
	if p < 0.05 {
		t.Errorf("p = %v, should not reject normality", p)
	}
}

func TestShapiroWilk_SkewedSample(t *testing.T) {
	// Strongly right-skewed sample: W drops and p becomes small.
	data := []float64{1, 1.1, 1.05, 1.2, 1.15, 1.1, 1.08, 1.12, 50, 80}

	w, p, err := ShapiroWilk(data)
	if err != nil {
		t.Fatalf("ShapiroWilk failed: %v", err)
	}

	if w >= 0.9 {
		t.Errorf("W = %v, want well below 1 for heavy skew", w)
	}
	if p >= 0.05 {
		t.Errorf("p = %v, should reject normality", p)
	}
}

func TestShapiroWilk_ThreePoints(t *testing.T) {
	w, p, err := ShapiroWilk([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("ShapiroWilk failed: %v", err)
	}

	// Evenly spaced n = 3 is as normal as three points get.
	if w < 0.95 {
		t.Errorf("W = %v, want near 1 for evenly spaced triple", w)
	}
	if p < 0 || p > 1 {
		t.Errorf("p = %v outside [0, 1]", p)
	}
}

func TestShapiroWilk_Errors(t *testing.T) {
	if _, _, err := ShapiroWilk([]float64{1, 2}); err == nil {
		t.Error("n < 3 should error")
	}
	if _, _, err := ShapiroWilk([]float64{5, 5, 5, 5}); err == nil {
		t.Error("zero-range sample should error")
	}
	if _, _, err := ShapiroWilk(make([]float64, 5001)); err == nil {
		t.Error("n > 5000 should error")
	}
}

func TestShapiroWilk_BoundedOutputs(t *testing.T) {
	samples := [][]float64{
		{1, 2, 3, 4, 5},
		{0.1, 0.1, 0.2, 0.9, 0.9},
		{-3, -1, 0, 1, 3, 8},
		{10, 10.0001, 10.0002, 10.0004, 10.0008, 10.0016, 10.0032},
	}

	for i, data := range samples {
		w, p, err := ShapiroWilk(data)
		if err != nil {
			t.Errorf("sample %d: %v", i, err)
			continue
		}
		if math.IsNaN(w) || w <= 0 || w > 1.0000001 {
			t.Errorf("sample %d: W = %v out of range", i, w)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Errorf("sample %d: p = %v out of range", i, p)
		}
	}
}
