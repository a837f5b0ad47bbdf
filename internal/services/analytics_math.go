package services

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// calculateStdDev returns the sample (N-1) standard deviation, or NaN with fewer than 2 values.
func calculateStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

// calculateCorrelation returns the Pearson correlation of x and y. The result is NaN when
// it is undefined: mismatched or short inputs, non-finite values or a zero-variance side.
func calculateCorrelation(x []float64, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return math.NaN()
	}
	for i := 0; i < n; i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return math.NaN()
		}
	}
	_, varX := stat.MeanVariance(x, nil)
	_, varY := stat.MeanVariance(y, nil)
	if varX == 0 || varY == 0 {
		return math.NaN()
	}

	corr := stat.Correlation(x, y, nil)
	if math.IsNaN(corr) {
		return corr
	}
	if corr > 1 {
		return 1
	}
	if corr < -1 {
		return -1
	}
	return corr
}

// calculateMedian skips NaN values; the median of an even count is the mean of the two
// middle values. It returns NaN when no defined value remains.
func calculateMedian(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	sort.Float64s(defined)
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return defined[mid]
	}
	return (defined[mid-1] + defined[mid]) / 2
}

// simpleReturns converts closes into percentage changes; a step is NaN when either side is
// NaN or the previous close is zero.
func simpleReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = cur/prev - 1
	}
	return returns
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
