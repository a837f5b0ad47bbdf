package services

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// SignificanceLevel is the p-value below which a rolling result counts as significant.
const SignificanceLevel = 0.05

// FisherPValue returns the two-tailed p-value of the null hypothesis that a Pearson
// correlation r measured over n paired observations is zero, using Fisher's z-transformation.
//
// Degenerate input never fails: |r| >= 1 is maximally significant (0.0), n <= 3 or any
// non-finite intermediate is treated as not significant (1.0).
func FisherPValue(r float64, n int) float64 {
	if math.IsNaN(r) {
		return 1.0
	}
	if math.Abs(r) >= 1.0 {
		return 0.0
	}
	if n <= 3 {
		return 1.0
	}

	z := 0.5 * math.Log((1+r)/(1-r))
	se := 1 / math.Sqrt(float64(n-3))
	zStat := z / se
	if !isFinite(zStat) {
		return 1.0
	}

	p := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(zStat)))
	if !isFinite(p) {
		return 1.0
	}
	return p
}

// ApplyMultipleCorrection applies the Bonferroni correction: each p-value is multiplied by
// the number of tests and capped at 1. The input slice is left untouched.
func ApplyMultipleCorrection(pValues []float64) []float64 {
	m := float64(len(pValues))
	corrected := make([]float64, len(pValues))
	for i, p := range pValues {
		corrected[i] = math.Min(1.0, p*m)
	}
	return corrected
}
