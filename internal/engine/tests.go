package engine

import (
	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/domain/synergy"
)

// runStatisticalTests assembles the optional cross-condition sub-tests.
// Insufficient group counts or sample sizes omit a sub-result; they never
// fail the suite.
func (a *Analyzer) runStatisticalTests(conditions experiment.ConditionSet) analysis.StatisticalTestResults {
	var results analysis.StatisticalTestResults

	// Groups for the omnibus test: every condition with replication.
	var groups [][]float64
	var names []string
	for _, key := range conditions.SortedKeys() {
		cond := conditions[key]
		if cond.N() > 1 {
			groups = append(groups, cond.Values())
			names = append(names, string(key))
		}
	}

	if len(groups) >= 2 {
		f, p := oneWayANOVA(groups)
		results.ANOVA = &analysis.ANOVAResult{
			FStatistic:  f,
			PValue:      p,
			GroupNames:  names,
			Significant: p < synergy.SignificanceAlpha,
		}

		if results.ANOVA.Significant && len(groups) > 2 {
			pairs, err := tukeyPairs(groups, names)
			if err != nil {
				results.Tukey = &analysis.TukeyResult{Error: err.Error()}
			} else {
				results.Tukey = &analysis.TukeyResult{Pairs: pairs, GroupNames: names}
			}
		}
	}

	// Per-condition normality; n < 3 is silently excluded.
	for _, key := range conditions.SortedKeys() {
		cond := conditions[key]
		if cond.N() < 3 {
			continue
		}
		w, p, err := ShapiroWilk(cond.Values())
		if err != nil {
			a.log.Debug("normality test skipped for %s: %v", key, err)
			continue
		}
		if results.Normality == nil {
			results.Normality = map[core.ConditionKey]analysis.NormalityResult{}
		}
		results.Normality[key] = analysis.NormalityResult{
			Statistic: w,
			PValue:    p,
			IsNormal:  p > synergy.SignificanceAlpha,
		}
	}

	return results
}

// oneWayANOVA computes the F-statistic and p-value across groups.
func oneWayANOVA(groups [][]float64) (fStatistic, pValue float64) {
	k := len(groups)
	totalN := 0
	grandSum := 0.0
	for _, g := range groups {
		totalN += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(totalN)

	ssBetween, ssWithin := 0.0, 0.0
	for _, g := range groups {
		groupSum := 0.0
		for _, v := range g {
			groupSum += v
		}
		groupMean := groupSum / float64(len(g))
		d := groupMean - grandMean
		ssBetween += float64(len(g)) * d * d
		for _, v := range g {
			e := v - groupMean
			ssWithin += e * e
		}
	}

	dfBetween := k - 1
	dfWithin := totalN - k
	if dfBetween <= 0 || dfWithin <= 0 {
		return 0, 1
	}

	msBetween := ssBetween / float64(dfBetween)
	msWithin := ssWithin / float64(dfWithin)
	if msWithin == 0 {
		if msBetween == 0 {
			return 0, 1
		}
		// Identical replicates within every group but different means.
		return 0, 0
	}

	fStatistic = msBetween / msWithin
	pValue = NewDistributions().FTestPValue(fStatistic, dfBetween, dfWithin)
	return fStatistic, pValue
}
