package services

import (
	"math"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// minLagProfileObservations is the smallest trailing window a lag profile is drawn from.
const minLagProfileObservations = 11

// LagProfile correlates the most recent windowSize observations of target and candidate at
// every lag in [-maxLag, maxLag]. It is a snapshot of the latest window and does not depend on
// any rolling computation. Lags without a defined correlation are omitted.
func (a *LeadLagAnalyzer) LagProfile(target, candidate string, windowSize int) []models.LagPoint {
	targetSeries, ok := a.returns.Column(target)
	if !ok {
		return nil
	}
	candidateSeries, ok := a.returns.Column(candidate)
	if !ok || windowSize <= 0 {
		return nil
	}

	start := len(targetSeries) - windowSize
	if start < 0 {
		start = 0
	}
	targetTail := targetSeries[start:]
	candStart := len(candidateSeries) - windowSize
	if candStart < 0 {
		candStart = 0
	}
	candidateTail := candidateSeries[candStart:]
	if len(targetTail) != len(candidateTail) || len(targetTail) < minLagProfileObservations {
		return nil
	}

	curve := make([]models.LagPoint, 0, 2*a.maxLag+1)
	for lag := -a.maxLag; lag <= a.maxLag; lag++ {
		corr := shiftedCorrelation(targetTail, candidateTail, lag)
		if math.IsNaN(corr) {
			continue
		}
		curve = append(curve, models.LagPoint{Lag: lag, Corr: corr})
	}
	return curve
}

// shiftedCorrelation correlates x[j] with y[j-lag] over the indices where both exist.
func shiftedCorrelation(x, y []float64, lag int) float64 {
	n := len(x)
	if lag >= n || -lag >= n {
		return math.NaN()
	}
	if lag >= 0 {
		return calculateCorrelation(x[lag:], y[:n-lag])
	}
	return calculateCorrelation(x[:n+lag], y[-lag:])
}
