package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisDuration tracks end-to-end lead-lag runs by outcome.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadlag_analysis_duration_seconds",
			Help:    "Duration of lead-lag analysis runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"result"},
	)

	PairsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadlag_pairs_analyzed_total",
			Help: "Total number of target/candidate pairs that produced a ranking",
		},
	)

	PairsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadlag_pairs_skipped_total",
			Help: "Total number of pairs skipped, by reason",
		},
		[]string{"reason"},
	)

	CompositeScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadlag_composite_score",
			Help:    "Distribution of composite lead-lag scores",
			Buckets: []float64{-0.5, -0.25, -0.1, -0.05, 0, 0.05, 0.1, 0.25, 0.5},
		},
	)

	SeriesCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadlag_series_cache_requests_total",
			Help: "Series cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
)

// ObserveAnalysis records a finished analysis run.
func ObserveAnalysis(start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	AnalysisDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
