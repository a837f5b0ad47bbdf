package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/leadlag-ai-go/internal/cache"
	"github.com/irfndi/leadlag-ai-go/internal/logging"
	"github.com/irfndi/leadlag-ai-go/internal/models"
	"github.com/irfndi/leadlag-ai-go/internal/services"
)

type okChecker struct{}

func (okChecker) HealthCheck(context.Context) error { return nil }

type emptyRunner struct{}

func (emptyRunner) Run(context.Context, models.AnalysisRequest) (*models.AnalysisReport, error) {
	return &models.AnalysisReport{
		RunID:          "run-routes",
		Correlations:   map[string]float64{},
		LeadLagRanking: []models.PairAnalysis{},
	}, nil
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, RouteDependencies{
		ServiceName:    "leadlag-test",
		DB:             okChecker{},
		Runner:         emptyRunner{},
		Logger:         logging.NewStandardLoggerWithWriter("error", io.Discard),
		RequestTimeout: time.Second,
	})
	return router
}

func TestSetupRoutes(t *testing.T) {
	router := setupTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"assets", http.MethodGet, "/api/v1/assets", "", http.StatusOK},
		{"analysis", http.MethodPost, "/api/v1/leadlag/analysis", `{"targetAssets":["SPY"],"candidateAssets":["QQQ"]}`, http.StatusOK},
		{"csv without rankings", http.MethodPost, "/api/v1/leadlag/analysis/csv", `{"targetAssets":["SPY"],"candidateAssets":["QQQ"]}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
		{"cache routes need a cache", http.MethodGet, "/api/v1/cache/stats", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestSetupRoutes_MetricsExposeLeadLagCollectors(t *testing.T) {
	router := setupTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "leadlag_pairs_analyzed_total")
}

func TestSetupRoutes_WithSeriesCacheAndBreaker(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("series_cache:SPY:2024-01-01:2024-02-01", "[]"))
	seriesCache := cache.NewRedisSeriesCache(client, nil, time.Hour, nil)
	breaker := services.NewCircuitBreaker("prices", services.CircuitBreakerConfig{}, nil)

	router := gin.New()
	SetupRoutes(router, RouteDependencies{
		ServiceName:    "leadlag-test",
		DB:             okChecker{},
		Redis:          okChecker{},
		Breaker:        breaker,
		SeriesCache:    seriesCache,
		Runner:         emptyRunner{},
		Logger:         logging.NewStandardLoggerWithWriter("error", io.Discard),
		RequestTimeout: time.Second,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price_source_breaker"`)
	assert.Contains(t, w.Body.String(), `"series_cache"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cache/series", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mr.Exists("series_cache:SPY:2024-01-01:2024-02-01"))
}
