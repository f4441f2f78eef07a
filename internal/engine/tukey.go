package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gosynergy/domain/analysis"
)

// Tukey-Kramer all-pairs comparison. gonum has no studentized range
// distribution, so the CDF is integrated numerically here; a numerical
// failure surfaces as an error for the caller's unavailable-marker path.

// tukeyPairs computes one adjusted p-value per unordered group pair.
func tukeyPairs(groups [][]float64, names []string) ([]analysis.PairwisePValue, error) {
	k := len(groups)
	if k < 3 {
		return nil, fmt.Errorf("tukey needs at least 3 groups, got %d", k)
	}

	means := make([]float64, k)
	sizes := make([]int, k)
	totalN := 0
	for i, g := range groups {
		for _, v := range g {
			means[i] += v
		}
		means[i] /= float64(len(g))
		sizes[i] = len(g)
		totalN += len(g)
	}

	dfWithin := totalN - k
	if dfWithin <= 0 {
		return nil, fmt.Errorf("no residual degrees of freedom")
	}

	ssWithin := 0.0
	for i, g := range groups {
		for _, v := range g {
			d := v - means[i]
			ssWithin += d * d
		}
	}
	mse := ssWithin / float64(dfWithin)
	if mse <= 0 {
		return nil, fmt.Errorf("zero within-group variance")
	}

	pairs := make([]analysis.PairwisePValue, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			se := math.Sqrt(mse / 2 * (1/float64(sizes[i]) + 1/float64(sizes[j])))
			q := math.Abs(means[i]-means[j]) / se
			p := 1 - studentizedRangeCDF(q, k, dfWithin)
			if math.IsNaN(p) {
				return nil, fmt.Errorf("studentized range integration failed for pair %s/%s", names[i], names[j])
			}
			pairs = append(pairs, analysis.PairwisePValue{
				GroupA: names[i],
				GroupB: names[j],
				PValue: clamp01(p),
			})
		}
	}
	return pairs, nil
}

// studentizedRangeCDF computes P(Q <= q) for the range of k standard normal
// means studentized by an independent chi-based scale estimate with df
// degrees of freedom:
//
//	P(Q <= q) = Integral over u of f(u) * R(q*u; k) du
//
// where u = s/sigma follows the scaled-chi density f and R(w; k) is the CDF
// of the range of k standard normals. Both integrals use Simpson's rule; the
// group counts and replicate caps here keep the node counts cheap.
func studentizedRangeCDF(q float64, k, df int) float64 {
	if q <= 0 {
		return 0
	}

	// Integration window for u: the density of s/sigma concentrates around 1
	// with spread ~ 1/sqrt(2*df).
	spread := 10 / math.Sqrt(2*float64(df))
	lo := math.Max(1e-8, 1-spread)
	hi := 1 + spread

	const steps = 128 // even
	h := (hi - lo) / steps

	sum := 0.0
	for i := 0; i <= steps; i++ {
		u := lo + float64(i)*h
		weight := simpsonWeight(i, steps)
		sum += weight * scaledChiPDF(u, df) * normalRangeCDF(q*u, k)
	}
	return clamp01(sum * h / 3)
}

// scaledChiPDF is the density of u = sqrt(chi2_df / df).
func scaledChiPDF(u float64, df int) float64 {
	v := float64(df)
	lg, _ := math.Lgamma(v / 2)
	logPDF := (v/2)*math.Log(v) - lg - (v/2-1)*math.Ln2 +
		(v-1)*math.Log(u) - v*u*u/2
	return math.Exp(logPDF)
}

// normalRangeCDF is the CDF of the range of k independent standard normals:
// R(w; k) = k * Integral phi(z) * [Phi(z) - Phi(z-w)]^(k-1) dz.
func normalRangeCDF(w float64, k int) float64 {
	if w <= 0 {
		return 0
	}

	lo, hi := -8.0, w/2+8.0
	const steps = 256 // even
	h := (hi - lo) / steps

	sum := 0.0
	for i := 0; i <= steps; i++ {
		z := lo + float64(i)*h
		inner := distuv.UnitNormal.CDF(z) - distuv.UnitNormal.CDF(z-w)
		if inner <= 0 {
			continue
		}
		sum += simpsonWeight(i, steps) * distuv.UnitNormal.Prob(z) * math.Pow(inner, float64(k-1))
	}
	return clamp01(float64(k) * sum * h / 3)
}

func simpsonWeight(i, steps int) float64 {
	switch {
	case i == 0 || i == steps:
		return 1
	case i%2 == 1:
		return 4
	default:
		return 2
	}
}
