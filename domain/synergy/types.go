package synergy

import (
	"strings"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
)

// Class is the unqualified synergy classification of a combination.
type Class string

const (
	ClassStrongSynergy    Class = "Strong Synergy"
	ClassModerateSynergy  Class = "Moderate Synergy"
	ClassAdditiveEffect   Class = "Additive Effect"
	ClassWeakAntagonism   Class = "Weak Antagonism"
	ClassStrongAntagonism Class = "Strong Antagonism"
)

// notSignificantSuffix is appended to the classification label when a
// p-value is available but fails the significance threshold.
const notSignificantSuffix = " (NS)"

// Combination-index thresholds, checked in order.
const (
	StrongSynergyBelow   = 0.5
	ModerateSynergyBelow = 0.9
	AdditiveUpTo         = 1.1
	WeakAntagonismUpTo   = 2.0
)

// SignificanceAlpha gates the not-significant qualifier and every
// significance flag in the analysis.
const SignificanceAlpha = 0.05

// Classify maps a combination index to its class using the fixed thresholds.
func Classify(combinationIndex float64) Class {
	switch {
	case combinationIndex < StrongSynergyBelow:
		return ClassStrongSynergy
	case combinationIndex < ModerateSynergyBelow:
		return ClassModerateSynergy
	case combinationIndex <= AdditiveUpTo:
		return ClassAdditiveEffect
	case combinationIndex <= WeakAntagonismUpTo:
		return ClassWeakAntagonism
	default:
		return ClassStrongAntagonism
	}
}

// Label renders the classification text. The label itself carries the
// not-significant qualifier when pValue is present and >= alpha.
func Label(combinationIndex float64, pValue *float64) string {
	label := string(Classify(combinationIndex))
	if pValue != nil && *pValue >= SignificanceAlpha {
		label += notSignificantSuffix
	}
	return label
}

// Metric holds the synergy analysis of one combination condition.
type Metric struct {
	CombinationID    core.ConditionKey `json:"combination_id"`
	AmountA          float64           `json:"amount_a"`
	AmountB          float64           `json:"amount_b"`
	ObservedEffect   float64           `json:"observed_effect"`
	ExpectedAdditive float64           `json:"expected_additive"`
	ExpectedBliss    float64           `json:"expected_bliss"`
	// CombinationIndex is ExpectedAdditive/ObservedEffect, +Inf when the
	// observed effect is zero.
	CombinationIndex   float64 `json:"combination_index"`
	Enhancement        float64 `json:"enhancement"`
	EnhancementPercent float64 `json:"enhancement_percent"`
	BlissDeviation     float64 `json:"bliss_deviation"`
	// SynergyType is the classification label, qualifier included.
	SynergyType string               `json:"synergy_type"`
	PValue      *float64             `json:"p_value,omitempty"`
	CohensD     *float64             `json:"cohens_d,omitempty"`
	CI          *experiment.Interval `json:"confidence_interval,omitempty"`
}

// Class returns the unqualified classification.
func (m *Metric) Class() Class {
	return Class(strings.TrimSuffix(m.SynergyType, notSignificantSuffix))
}

// NotSignificant reports whether the label carries the NS qualifier.
func (m *Metric) NotSignificant() bool {
	return strings.HasSuffix(m.SynergyType, notSignificantSuffix)
}

// IsSynergistic reports combination index < 1.
func (m *Metric) IsSynergistic() bool { return m.CombinationIndex < 1.0 }

// IsAntagonistic reports combination index > 1.
func (m *Metric) IsAntagonistic() bool { return m.CombinationIndex > 1.0 }

// IsSignificant reports a present p-value under the significance threshold.
func (m *Metric) IsSignificant() bool {
	return m.PValue != nil && *m.PValue < SignificanceAlpha
}
