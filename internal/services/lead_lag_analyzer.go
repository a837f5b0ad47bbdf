package services

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

const (
	// DefaultMaxLag is the largest lag searched in either direction.
	DefaultMaxLag = 10
	// DefaultRollingWindow is the number of observations in each correlation window.
	DefaultRollingWindow = 60
	// DefaultSampleStride is the distance between emitted rolling results.
	DefaultSampleStride = 4
)

// LeadLagAnalyzer searches rolling lagged correlations between the columns of a return matrix.
//
// Lag sign convention: a positive lag k compares target[t] with candidate[t-k], i.e. the
// candidate leads the target by k periods. A negative lag means the target leads.
type LeadLagAnalyzer struct {
	returns      *models.ReturnMatrix
	maxLag       int
	sampleStride int
	logger       *logrus.Logger
}

// AnalyzerOption customises a LeadLagAnalyzer.
type AnalyzerOption func(*LeadLagAnalyzer)

// WithSampleStride sets the distance between sampled time steps. Values below 1 are ignored.
func WithSampleStride(stride int) AnalyzerOption {
	return func(a *LeadLagAnalyzer) {
		if stride >= 1 {
			a.sampleStride = stride
		}
	}
}

// WithAnalyzerLogger sets the logger used for skipped pairs.
func WithAnalyzerLogger(logger *logrus.Logger) AnalyzerOption {
	return func(a *LeadLagAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewLeadLagAnalyzer creates an analyzer over a read-only return matrix.
func NewLeadLagAnalyzer(returns *models.ReturnMatrix, maxLag int, opts ...AnalyzerOption) *LeadLagAnalyzer {
	if maxLag < 0 {
		maxLag = 0
	}
	a := &LeadLagAnalyzer{
		returns:      returns,
		maxLag:       maxLag,
		sampleStride: DefaultSampleStride,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxLag returns the configured maximum lag.
func (a *LeadLagAnalyzer) MaxLag() int {
	return a.maxLag
}

// AnalyzePairRolling runs the rolling lead-lag search for one pair and returns one result per
// sampled step that has at least one defined lag correlation.
//
// An absent target or candidate yields an empty result. With walkForward set, every
// observation feeding the correlation at step t lies strictly before t.
func (a *LeadLagAnalyzer) AnalyzePairRolling(target, candidate string, regimes models.RegimeSeries, windowSize int, walkForward bool) []models.RollingResult {
	targetSeries, ok := a.returns.Column(target)
	if !ok {
		a.logger.WithField("asset", target).Debug("Target not in return matrix, skipping pair")
		return nil
	}
	candidateSeries, ok := a.returns.Column(candidate)
	if !ok {
		a.logger.WithField("asset", candidate).Debug("Candidate not in return matrix, skipping pair")
		return nil
	}

	n := a.returns.Len()
	if windowSize < 2 || n <= windowSize || len(targetSeries) != n || len(candidateSeries) != n {
		return nil
	}

	steps := a.sampledSteps(n, windowSize)
	table := a.lagCorrelationTable(targetSeries, candidateSeries, steps, windowSize, walkForward)

	results := make([]models.RollingResult, 0, len(steps))
	for row, t := range steps {
		lag, corr, defined := a.selectBestLag(table[row])
		if !defined {
			continue
		}
		results = append(results, models.RollingResult{
			Date:   a.returns.Index[t],
			Lag:    lag,
			Corr:   corr,
			PValue: FisherPValue(corr, windowSize),
			Regime: regimes.LabelAt(t),
		})
	}
	return results
}

// sampledSteps lists the time steps that produce results: every stride-th step starting at
// windowSize, the first step with a full trailing window before it.
func (a *LeadLagAnalyzer) sampledSteps(n, windowSize int) []int {
	steps := make([]int, 0, (n-windowSize)/a.sampleStride+1)
	for t := windowSize; t < n; t += a.sampleStride {
		steps = append(steps, t)
	}
	return steps
}

// lagCorrelationTable builds the (time step x lag) correlation table for the given steps.
// Column j holds lag j-maxLag. Only sampled rows are ever read, so computing the table at
// those rows alone gives the same results as the full grid.
func (a *LeadLagAnalyzer) lagCorrelationTable(target, candidate []float64, steps []int, windowSize int, walkForward bool) [][]float64 {
	width := 2*a.maxLag + 1
	table := make([][]float64, len(steps))
	for row, t := range steps {
		cells := make([]float64, width)
		for j := 0; j < width; j++ {
			cells[j] = windowCorrelation(target, candidate, t, j-a.maxLag, windowSize, walkForward)
		}
		table[row] = cells
	}
	return table
}

// selectBestLag picks the lag with the greatest absolute correlation in a table row. Ties go
// to the lowest lag. defined is false when every cell is NaN.
func (a *LeadLagAnalyzer) selectBestLag(cells []float64) (lag int, corr float64, defined bool) {
	best := -1
	for j, c := range cells {
		if math.IsNaN(c) {
			continue
		}
		if best < 0 || math.Abs(c) > math.Abs(cells[best]) {
			best = j
		}
	}
	if best < 0 {
		return 0, math.NaN(), false
	}
	return best - a.maxLag, cells[best], true
}

// windowCorrelation returns the correlation of target[i] with candidate[i-lag] over the
// windowSize values of i ending at the window end for step t, or NaN when the window does not
// fit inside both series.
func windowCorrelation(target, candidate []float64, t, lag, windowSize int, walkForward bool) float64 {
	end := t
	if walkForward {
		end = t - 1
		if lag < 0 {
			end += lag
		}
	}
	start := end - windowSize + 1
	n := len(target)
	if start < 0 || end >= n || start-lag < 0 || end-lag >= len(candidate) {
		return math.NaN()
	}
	return calculateCorrelation(target[start:end+1], candidate[start-lag:end-lag+1])
}
