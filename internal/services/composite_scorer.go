package services

import (
	"math"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// ComputeComposite reduces a pair's rolling history to one rank in [0, 1]:
// magnitude x persistence x stability x significance ratio. Empty input scores 0.
func (a *LeadLagAnalyzer) ComputeComposite(rows []models.RollingResult) float64 {
	return a.CompositeBreakdown(rows).Score
}

// CompositeBreakdown returns the individual composite factors together with their product.
func (a *LeadLagAnalyzer) CompositeBreakdown(rows []models.RollingResult) models.CompositeBreakdown {
	if len(rows) == 0 {
		return models.CompositeBreakdown{}
	}

	absCorrs := make([]float64, len(rows))
	corrs := make([]float64, len(rows))
	latestSign := signInt(rows[len(rows)-1].Lag)
	var matching, significant int
	for i, row := range rows {
		corrs[i] = row.Corr
		absCorrs[i] = math.Abs(row.Corr)
		// sign(0) only matches other zero lags.
		if signInt(row.Lag) == latestSign {
			matching++
		}
		if row.PValue < SignificanceLevel {
			significant++
		}
	}

	magnitude := calculateMedian(absCorrs)
	count := float64(len(rows))
	persistence := float64(matching) / count

	std := calculateStdDev(corrs)
	if math.IsNaN(std) {
		std = 1.0
	}
	stability := 1.0 / (1.0 + std)
	significance := float64(significant) / count

	return models.CompositeBreakdown{
		Magnitude:         magnitude,
		Persistence:       persistence,
		Stability:         stability,
		SignificanceRatio: significance,
		Score:             magnitude * persistence * stability * significance,
	}
}
