package engine

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"gosynergy/domain/analysis"
	"gosynergy/domain/experiment"
)

// minSurfaceConditions is the condition count below which the response
// surface is not attempted.
const minSurfaceConditions = 5

// fitResponseSurface fits an ordinary-least-squares polynomial surface of
// the configured degree over (amountA, amountB) against the condition means.
// Any fitting failure is returned as an error for the caller to fold into
// the sub-result's error marker.
func (a *Analyzer) fitResponseSurface(conditions experiment.ConditionSet) (result *analysis.ResponseSurface, err error) {
	defer func() {
		// gonum/mat panics on degenerate shapes; degrade to an error.
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("surface regression: %v", r)
		}
	}()

	degree := a.cfg.PolynomialDegree
	featureNames := polynomialFeatureNames(degree)
	nFeatures := len(featureNames)

	keys := conditions.SortedKeys()
	nObs := len(keys)

	// Design matrix with a leading intercept column; the polynomial basis
	// itself carries no bias term.
	x := mat.NewDense(nObs, nFeatures+1, nil)
	y := mat.NewVecDense(nObs, nil)
	for i, key := range keys {
		cond := conditions[key]
		x.Set(i, 0, 1)
		for j, f := range polynomialFeatures(cond.AmountA, cond.AmountB, degree) {
			x.Set(i, j+1, f)
		}
		y.SetVec(i, cond.Mean())
	}

	// SVD least squares also covers the underdetermined case (five
	// conditions against six degree-2 coefficients) with the minimum-norm
	// solution.
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("surface regression: SVD factorization failed")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return nil, fmt.Errorf("surface regression: design matrix has zero rank")
	}
	beta := mat.NewDense(nFeatures+1, 1, nil)
	svd.SolveTo(beta, y, rank)

	// Goodness of fit from the in-sample predictions.
	var predicted mat.Dense
	predicted.Mul(x, beta)

	meanY := mat.Sum(y) / float64(nObs)
	ssRes, ssTot := 0.0, 0.0
	for i := 0; i < nObs; i++ {
		r := y.AtVec(i) - predicted.At(i, 0)
		ssRes += r * r
		d := y.AtVec(i) - meanY
		ssTot += d * d
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	} else if ssRes < 1e-12 {
		rSquared = 1
	}

	coefficients := make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		coefficients[j] = beta.At(j+1, 0)
	}

	return &analysis.ResponseSurface{
		RSquared:     rSquared,
		RMSE:         math.Sqrt(ssRes / float64(nObs)),
		Coefficients: coefficients,
		Intercept:    beta.At(0, 0),
		FeatureNames: featureNames,
		Degree:       degree,
	}, nil
}

// polynomialFeatures expands (a, b) to all monomials a^i * b^j with
// 1 <= i+j <= degree, ordered by total degree then descending power of a.
func polynomialFeatures(a, b float64, degree int) []float64 {
	var features []float64
	for total := 1; total <= degree; total++ {
		for i := total; i >= 0; i-- {
			features = append(features, math.Pow(a, float64(i))*math.Pow(b, float64(total-i)))
		}
	}
	return features
}

// polynomialFeatureNames labels the expanded basis, e.g. degree 2 yields
// A, B, A^2, A B, B^2.
func polynomialFeatureNames(degree int) []string {
	var names []string
	for total := 1; total <= degree; total++ {
		for i := total; i >= 0; i-- {
			names = append(names, monomialName(i, total-i))
		}
	}
	return names
}

func monomialName(powA, powB int) string {
	var parts []string
	if powA == 1 {
		parts = append(parts, "A")
	} else if powA > 1 {
		parts = append(parts, fmt.Sprintf("A^%d", powA))
	}
	if powB == 1 {
		parts = append(parts, "B")
	} else if powB > 1 {
		parts = append(parts, fmt.Sprintf("B^%d", powB))
	}
	return strings.Join(parts, " ")
}
