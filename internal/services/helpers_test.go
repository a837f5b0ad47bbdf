package services

import (
	"math/rand"
	"time"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyIndex returns n consecutive UTC days starting at testStart.
func dailyIndex(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = testStart.AddDate(0, 0, i)
	}
	return index
}

// newTestMatrix builds a return matrix over a daily index from equal-length columns.
func newTestMatrix(columns map[string][]float64) *models.ReturnMatrix {
	n := 0
	for _, col := range columns {
		n = len(col)
		break
	}
	m := models.NewReturnMatrix(dailyIndex(n))
	for symbol, col := range columns {
		m.Columns[symbol] = col
	}
	return m
}

func whiteNoise(rng *rand.Rand, n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * scale
	}
	return out
}

// laggedPair returns a leader series and a follower that repeats the leader lag steps later
// with a little independent noise.
func laggedPair(rng *rand.Rand, n, lag int) (leader, follower []float64) {
	leader = whiteNoise(rng, n, 0.01)
	follower = make([]float64, n)
	for t := range follower {
		noise := rng.NormFloat64() * 0.002
		if t >= lag {
			follower[t] = leader[t-lag] + noise
		} else {
			follower[t] = noise
		}
	}
	return leader, follower
}

// pricesFromReturns compounds returns into a close series starting at 100.
func pricesFromReturns(returns []float64) []models.PricePoint {
	points := make([]models.PricePoint, len(returns)+1)
	price := 100.0
	points[0] = models.PricePoint{Timestamp: testStart, Close: price}
	for i, r := range returns {
		price *= 1 + r
		points[i+1] = models.PricePoint{Timestamp: testStart.AddDate(0, 0, i+1), Close: price}
	}
	return points
}
