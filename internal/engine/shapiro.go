package engine

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ShapiroWilk computes the Shapiro-Wilk W statistic and its p-value using
// Royston's AS R94 approximation, valid for 3 <= n <= 5000. The replicate cap
// keeps engine inputs well inside that range.
func ShapiroWilk(data []float64) (w, pValue float64, err error) {
	n := len(data)
	if n < 3 {
		return 0, 0, fmt.Errorf("shapiro-wilk needs at least 3 observations, got %d", n)
	}
	if n > 5000 {
		return 0, 0, fmt.Errorf("shapiro-wilk approximation invalid for n > 5000, got %d", n)
	}

	x := make([]float64, n)
	copy(x, data)
	sort.Float64s(x)

	if x[n-1]-x[0] == 0 {
		return 0, 0, fmt.Errorf("shapiro-wilk undefined for zero-range sample")
	}

	weights := roystonWeights(n)

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	num, den := 0.0, 0.0
	for i, v := range x {
		num += weights[i] * v
		d := v - mean
		den += d * d
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	return w, roystonPValue(w, n), nil
}

// roystonWeights builds the order-statistic weight vector a. The two extreme
// weights use Royston's polynomial corrections; the interior follows the
// normalized expected normal order statistics.
func roystonWeights(n int) []float64 {
	m := make([]float64, n)
	ssq := 0.0
	for i := 0; i < n; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssq += m[i] * m[i]
	}

	a := make([]float64, n)
	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[2] = math.Sqrt(0.5)
		return a
	}

	u := 1 / math.Sqrt(float64(n))
	rms := math.Sqrt(ssq)

	an := m[n-1]/rms +
		u*(0.221157+u*(-0.147981+u*(-2.071190+u*(4.434685+u*(-2.706056)))))

	var phi float64
	if n > 5 {
		an1 := m[n-2]/rms +
			u*(0.042981+u*(-0.293762+u*(-1.752461+u*(5.682633+u*(-3.582633)))))
		phi = (ssq - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
			(1 - 2*an*an - 2*an1*an1)
		a[n-1], a[0] = an, -an
		a[n-2], a[1] = an1, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		phi = (ssq - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1], a[0] = an, -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}
	return a
}

// roystonPValue converts W to a p-value. n == 3 has an exact form; otherwise
// ln(1-W) is normalized with Royston's small- and large-sample polynomials.
func roystonPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	}

	// Guard the logarithm near W = 1.
	lw := math.Log(math.Max(1-w, 1e-15))
	fn := float64(n)

	var z float64
	if n <= 11 {
		gamma := -2.273 + 0.459*fn
		if gamma-lw <= 0 {
			return 1.0
		}
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z = (-math.Log(gamma-lw) - mu) / sigma
	} else {
		ln := math.Log(fn)
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sigma := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		z = (lw - mu) / sigma
	}

	return clamp01(1 - distuv.UnitNormal.CDF(z))
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
