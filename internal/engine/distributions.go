package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the exact p-value computations the engine needs,
// all backed by gonum's distuv distributions.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-tailed p-value for a t-statistic using
// Student's t-distribution.
func (d *Distributions) TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	df := float64(degreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// OneSampleTTest tests the sample mean against a hypothesized population
// mean, two-sided. A zero standard error yields p = 1 for an exact match
// and p = 0 otherwise.
func (d *Distributions) OneSampleTTest(values []float64, mean, stdDev, mu float64) float64 {
	n := len(values)
	if n < 2 {
		return 1.0
	}

	se := stdDev / math.Sqrt(float64(n))
	if se == 0 {
		if mean == mu {
			return 1.0
		}
		return 0.0
	}

	tStatistic := (mean - mu) / se
	return d.TTestPValue(tStatistic, n-1)
}

// FTestPValue computes the upper-tail p-value for an F-statistic (ANOVA).
func (d *Distributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(fStatistic)
}

// NormalCDF computes the standard normal cumulative distribution function.
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the standard normal inverse CDF.
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// PooledStd computes the pooled standard deviation of two groups.
func PooledStd(std1, std2 float64, n1, n2 int) float64 {
	if n1+n2 <= 2 {
		return 0
	}
	return math.Sqrt(((float64(n1-1) * std1 * std1) + (float64(n2-1) * std2 * std2)) / float64(n1+n2-2))
}
