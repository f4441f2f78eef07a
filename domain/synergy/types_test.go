package synergy

import (
	"math"
	"testing"
)

func TestClassify_Thresholds(t *testing.T) {
	cases := []struct {
		ci   float64
		want Class
	}{
		{0.0, ClassStrongSynergy},
		{0.49, ClassStrongSynergy},
		{0.5, ClassModerateSynergy},
		{0.89, ClassModerateSynergy},
		{0.9, ClassAdditiveEffect},
		{1.0, ClassAdditiveEffect},
		{1.1, ClassAdditiveEffect},
		{1.11, ClassWeakAntagonism},
		{1.5, ClassWeakAntagonism},
		{2.0, ClassWeakAntagonism},
		{2.01, ClassStrongAntagonism},
		{3.0, ClassStrongAntagonism},
		{math.Inf(1), ClassStrongAntagonism},
	}

	for _, tc := range cases {
		if got := Classify(tc.ci); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.ci, got, tc.want)
		}
	}
}

func TestLabel_SignificanceQualifier(t *testing.T) {
	low := 0.01
	high := 0.2

	if got := Label(0.4, nil); got != "Strong Synergy" {
		t.Errorf("Label without p-value = %q", got)
	}
	if got := Label(0.4, &low); got != "Strong Synergy" {
		t.Errorf("significant label = %q, want no qualifier", got)
	}
	if got := Label(0.4, &high); got != "Strong Synergy (NS)" {
		t.Errorf("non-significant label = %q, want NS qualifier", got)
	}

	boundary := SignificanceAlpha
	if got := Label(1.5, &boundary); got != "Weak Antagonism (NS)" {
		t.Errorf("p == alpha should be non-significant, got %q", got)
	}
}

func TestMetric_ClassParsing(t *testing.T) {
	m := &Metric{CombinationIndex: 1.389, SynergyType: "Weak Antagonism (NS)"}

	if m.Class() != ClassWeakAntagonism {
		t.Errorf("Class = %q, want %q", m.Class(), ClassWeakAntagonism)
	}
	if !m.NotSignificant() {
		t.Error("NotSignificant should be true for NS label")
	}
	if !m.IsAntagonistic() || m.IsSynergistic() {
		t.Error("combination index 1.389 should be antagonistic")
	}
}

func TestMetric_IsSignificant(t *testing.T) {
	p := 0.03
	m := &Metric{PValue: &p}
	if !m.IsSignificant() {
		t.Error("p = 0.03 should be significant")
	}

	m.PValue = nil
	if m.IsSignificant() {
		t.Error("missing p-value cannot be significant")
	}
}
