package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAnalysis(t *testing.T) {
	ObserveAnalysis(time.Now(), nil)
	ObserveAnalysis(time.Now(), errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(AnalysisDuration))
}

func TestCounters(t *testing.T) {
	start := testutil.ToFloat64(PairsAnalyzed)
	PairsAnalyzed.Inc()
	assert.Equal(t, start+1, testutil.ToFloat64(PairsAnalyzed))

	skipped := testutil.ToFloat64(PairsSkipped.WithLabelValues("missing_series"))
	PairsSkipped.WithLabelValues("missing_series").Inc()
	assert.Equal(t, skipped+1, testutil.ToFloat64(PairsSkipped.WithLabelValues("missing_series")))

	hits := testutil.ToFloat64(SeriesCacheRequests.WithLabelValues("hit"))
	SeriesCacheRequests.WithLabelValues("hit").Inc()
	assert.Equal(t, hits+1, testutil.ToFloat64(SeriesCacheRequests.WithLabelValues("hit")))
}
