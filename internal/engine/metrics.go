package engine

import (
	"math"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/domain/synergy"
)

// computeSynergyMetrics derives one metric record per combination condition.
// The three non-combination conditions must already be aggregated; zero
// denominators resolve to documented sentinels, never errors.
func (a *Analyzer) computeSynergyMetrics(conditions experiment.ConditionSet) map[core.ConditionKey]*synergy.Metric {
	base := conditions[experiment.KeyBase]
	addA := conditions[experiment.KeyAdditiveA]
	addB := conditions[experiment.KeyAdditiveB]

	baseMean := base.Mean()
	aMean := addA.Mean()
	bMean := addB.Mean()

	// Expected effect if the two additives contribute independently:
	// base + (A - base) + (B - base).
	expectedAdditive := aMean + bMean - baseMean

	// Bliss independence from fractional changes over baseline.
	fa, fb := 0.0, 0.0
	if baseMean != 0 {
		fa = (aMean - baseMean) / baseMean
		fb = (bMean - baseMean) / baseMean
	}
	expectedBliss := baseMean * (1 + fa + fb + fa*fb)

	metrics := make(map[core.ConditionKey]*synergy.Metric)
	for _, key := range conditions.CombinationKeys() {
		cond := conditions[key]
		metrics[key] = a.combinationMetric(key, cond, base, expectedAdditive, expectedBliss)
	}
	return metrics
}

func (a *Analyzer) combinationMetric(key core.ConditionKey, cond, base *experiment.Condition, expectedAdditive, expectedBliss float64) *synergy.Metric {
	observed := cond.Mean()

	combinationIndex := math.Inf(1)
	if observed != 0 {
		combinationIndex = expectedAdditive / observed
	}

	enhancement := observed - expectedAdditive
	enhancementPercent := 0.0
	if expectedAdditive != 0 {
		enhancementPercent = enhancement / expectedAdditive * 100
	}

	blissDeviation := 0.0
	if expectedBliss != 0 {
		blissDeviation = (observed - expectedBliss) / expectedBliss * 100
	}

	metric := &synergy.Metric{
		CombinationID:      key,
		AmountA:            cond.AmountA,
		AmountB:            cond.AmountB,
		ObservedEffect:     observed,
		ExpectedAdditive:   expectedAdditive,
		ExpectedBliss:      expectedBliss,
		CombinationIndex:   combinationIndex,
		Enhancement:        enhancement,
		EnhancementPercent: enhancementPercent,
		BlissDeviation:     blissDeviation,
		CI:                 cond.CI(),
	}

	// Significance and effect size need replication.
	if cond.N() > 1 {
		p := a.dist.OneSampleTTest(cond.Values(), observed, cond.StdDev(), expectedAdditive)
		metric.PValue = &p

		if pooled := PooledStd(cond.StdDev(), base.StdDev(), cond.N(), base.N()); pooled != 0 {
			d := (observed - base.Mean()) / pooled
			metric.CohensD = &d
		}
	}

	metric.SynergyType = synergy.Label(combinationIndex, metric.PValue)
	return metric
}
