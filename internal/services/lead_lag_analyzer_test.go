package services

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

func TestNewLeadLagAnalyzer_Defaults(t *testing.T) {
	a := NewLeadLagAnalyzer(models.NewReturnMatrix(nil), -3)
	assert.Equal(t, 0, a.MaxLag())
	assert.Equal(t, DefaultSampleStride, a.sampleStride)

	a = NewLeadLagAnalyzer(models.NewReturnMatrix(nil), 5, WithSampleStride(0))
	assert.Equal(t, DefaultSampleStride, a.sampleStride)

	a = NewLeadLagAnalyzer(models.NewReturnMatrix(nil), 5, WithSampleStride(1))
	assert.Equal(t, 1, a.sampleStride)
}

func TestAnalyzePairRolling_SelfPairPeaksAtLagZero(t *testing.T) {
	series := whiteNoise(rand.New(rand.NewSource(11)), 150, 0.01)
	matrix := newTestMatrix(map[string][]float64{"SPY": series})
	a := NewLeadLagAnalyzer(matrix, 5)

	rows := a.AnalyzePairRolling("SPY", "SPY", models.RegimeSeries{}, 30, false)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, 0, row.Lag)
		assert.InDelta(t, 1.0, row.Corr, 1e-9)
		assert.Less(t, row.PValue, SignificanceLevel)
	}
}

func TestAnalyzePairRolling_DetectsKnownLead(t *testing.T) {
	leader, follower := laggedPair(rand.New(rand.NewSource(42)), 300, 3)
	matrix := newTestMatrix(map[string][]float64{"BTC-USD": follower, "CL=F": leader})
	a := NewLeadLagAnalyzer(matrix, 5)

	for _, walkForward := range []bool{false, true} {
		rows := a.AnalyzePairRolling("BTC-USD", "CL=F", models.RegimeSeries{}, 60, walkForward)
		require.NotEmpty(t, rows)

		hits := 0
		for _, row := range rows {
			if row.Lag == 3 {
				hits++
				assert.Greater(t, row.Corr, 0.0)
			}
		}
		assert.Greater(t, float64(hits)/float64(len(rows)), 0.8, "walkForward=%v", walkForward)
	}
}

func TestAnalyzePairRolling_TargetLeadIsNegativeLag(t *testing.T) {
	leader, follower := laggedPair(rand.New(rand.NewSource(43)), 300, 2)
	matrix := newTestMatrix(map[string][]float64{"GC=F": leader, "SI=F": follower})
	a := NewLeadLagAnalyzer(matrix, 5)

	rows := a.AnalyzePairRolling("GC=F", "SI=F", models.RegimeSeries{}, 60, false)
	require.NotEmpty(t, rows)
	hits := 0
	for _, row := range rows {
		if row.Lag == -2 {
			hits++
		}
	}
	assert.Greater(t, float64(hits)/float64(len(rows)), 0.8)
}

func TestAnalyzePairRolling_MissingAsset(t *testing.T) {
	series := whiteNoise(rand.New(rand.NewSource(3)), 100, 0.01)
	matrix := newTestMatrix(map[string][]float64{"SPY": series})
	a := NewLeadLagAnalyzer(matrix, 5)

	assert.Empty(t, a.AnalyzePairRolling("SPY", "XYZ", models.RegimeSeries{}, 20, false))
	assert.Empty(t, a.AnalyzePairRolling("XYZ", "SPY", models.RegimeSeries{}, 20, false))
}

func TestAnalyzePairRolling_InsufficientData(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	matrix := newTestMatrix(map[string][]float64{
		"A": whiteNoise(rng, 20, 0.01),
		"B": whiteNoise(rng, 20, 0.01),
	})
	a := NewLeadLagAnalyzer(matrix, 5)

	assert.Empty(t, a.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, false))
	assert.Empty(t, a.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 1, false))
}

func TestAnalyzePairRolling_ConstantSeriesHasNoDefinedLag(t *testing.T) {
	flat := make([]float64, 80)
	matrix := newTestMatrix(map[string][]float64{
		"A": whiteNoise(rand.New(rand.NewSource(5)), 80, 0.01),
		"B": flat,
	})
	a := NewLeadLagAnalyzer(matrix, 3)

	assert.Empty(t, a.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, false))
}

func TestAnalyzePairRolling_SamplingAndLabels(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	matrix := newTestMatrix(map[string][]float64{
		"A": whiteNoise(rng, 100, 0.01),
		"B": whiteNoise(rng, 100, 0.01),
	})
	labels := make([]models.Regime, 100)
	for i := range labels {
		labels[i] = models.RegimeHighVol
	}
	a := NewLeadLagAnalyzer(matrix, 5)

	rows := a.AnalyzePairRolling("A", "B", models.RegimeSeries{Labels: labels}, 20, false)
	require.Len(t, rows, 20)
	for i, row := range rows {
		assert.Equal(t, matrix.Index[20+4*i], row.Date)
		assert.Equal(t, models.RegimeHighVol, row.Regime)
		assert.GreaterOrEqual(t, row.Lag, -5)
		assert.LessOrEqual(t, row.Lag, 5)
		assert.InDelta(t, FisherPValue(row.Corr, 20), row.PValue, 1e-12)
	}

	dense := NewLeadLagAnalyzer(matrix, 5, WithSampleStride(1))
	denseRows := dense.AnalyzePairRolling("A", "B", models.RegimeSeries{Labels: labels}, 20, false)
	require.Len(t, denseRows, 80)
	for i, row := range rows {
		assert.Equal(t, denseRows[4*i], row)
	}
}

func TestAnalyzePairRolling_WalkForwardHasNoLookAhead(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	target := whiteNoise(rng, 100, 0.01)
	candidate := whiteNoise(rng, 100, 0.01)

	const cut = 60
	shockedTarget := append([]float64(nil), target...)
	shockedCandidate := append([]float64(nil), candidate...)
	for i := cut; i < 100; i++ {
		shockedTarget[i] = rng.NormFloat64() * 0.5
		shockedCandidate[i] = rng.NormFloat64() * 0.5
	}

	base := NewLeadLagAnalyzer(newTestMatrix(map[string][]float64{"A": target, "B": candidate}), 5)
	shocked := NewLeadLagAnalyzer(newTestMatrix(map[string][]float64{"A": shockedTarget, "B": shockedCandidate}), 5)

	before := base.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, true)
	after := shocked.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, true)
	cutDate := dailyIndex(100)[cut]
	for i := range before {
		if before[i].Date.After(cutDate) {
			break
		}
		assert.Equal(t, before[i], after[i], "step %s", before[i].Date)
	}

	// Without walk-forward the window at the cut step includes the shocked observation.
	inSample := base.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, false)
	inSampleShocked := shocked.AnalyzePairRolling("A", "B", models.RegimeSeries{}, 20, false)
	idx := (cut - 20) / 4
	assert.Equal(t, cutDate, inSample[idx].Date)
	assert.NotEqual(t, inSample[idx].Corr, inSampleShocked[idx].Corr)
}

func TestSelectBestLag(t *testing.T) {
	a := NewLeadLagAnalyzer(models.NewReturnMatrix(nil), 2)
	nan := math.NaN()

	tests := []struct {
		name    string
		cells   []float64
		lag     int
		corr    float64
		defined bool
	}{
		{"largest absolute wins", []float64{0.1, -0.7, 0.3, 0.5, 0.2}, -1, -0.7, true},
		{"ties go to lowest lag", []float64{0.4, 0.1, -0.4, 0.4, 0.0}, -2, 0.4, true},
		{"NaN cells skipped", []float64{nan, nan, 0.2, nan, 0.3}, 2, 0.3, true},
		{"all undefined", []float64{nan, nan, nan, nan, nan}, 0, nan, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lag, corr, defined := a.selectBestLag(tt.cells)
			assert.Equal(t, tt.defined, defined)
			if !tt.defined {
				assert.True(t, math.IsNaN(corr))
				return
			}
			assert.Equal(t, tt.lag, lag)
			assert.InDelta(t, tt.corr, corr, 1e-12)
		})
	}
}

func TestWindowCorrelation_Alignment(t *testing.T) {
	// candidate[i] == target[i+2]: target[t] pairs with candidate[t-2] at lag 2.
	target := whiteNoise(rand.New(rand.NewSource(9)), 40, 0.01)
	candidate := make([]float64, 40)
	for i := 0; i < 38; i++ {
		candidate[i] = target[i+2]
	}

	assert.InDelta(t, 1.0, windowCorrelation(target, candidate, 30, 2, 10, false), 1e-9)
	assert.True(t, math.IsNaN(windowCorrelation(target, candidate, 5, 0, 10, false)))
	assert.True(t, math.IsNaN(windowCorrelation(target, candidate, 12, 5, 10, false)))
}
