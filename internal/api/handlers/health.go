package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/leadlag-ai-go/internal/cache"
	"github.com/irfndi/leadlag-ai-go/internal/services"
)

var startTime = time.Now()

// HealthChecker is satisfied by the Postgres and Redis clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CircuitStatus exposes the state of the price-source circuit breaker.
type CircuitStatus interface {
	GetState() services.CircuitBreakerState
	GetStats() services.CircuitBreakerStats
}

// SeriesCacheStatus exposes the series cache counters.
type SeriesCacheStatus interface {
	GetStats() cache.SeriesCacheStats
}

type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	breaker CircuitStatus
	cache   SeriesCacheStatus
}

type BreakerStatus struct {
	State            string `json:"state"`
	TotalRequests    int64  `json:"total_requests"`
	FailedRequests   int64  `json:"failed_requests"`
	RejectedRequests int64  `json:"rejected_requests"`
}

type CacheStatus struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	HitRate float64 `json:"hit_rate"`
}

type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Memory    *MemoryStatus     `json:"memory,omitempty"`
	Breaker   *BreakerStatus    `json:"price_source_breaker,omitempty"`
	Cache     *CacheStatus      `json:"series_cache,omitempty"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// NewHealthHandler creates a health handler. A nil redis checker reports the cache as
// disabled without degrading the overall status.
func NewHealthHandler(db HealthChecker, redis HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// WithCircuitBreaker reports the price-source breaker. An open breaker makes the
// service unhealthy.
func (h *HealthHandler) WithCircuitBreaker(breaker CircuitStatus) *HealthHandler {
	h.breaker = breaker
	return h
}

// WithSeriesCache reports the series cache hit/miss/set counters.
func (h *HealthHandler) WithSeriesCache(c SeriesCacheStatus) *HealthHandler {
	h.cache = c
	return h
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	statuses := make(map[string]string)
	overallStatus := "healthy"

	if h.db == nil {
		statuses["database"] = "unhealthy: not configured"
		overallStatus = "unhealthy"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		statuses["database"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		statuses["database"] = "healthy"
	}

	if h.redis == nil {
		statuses["redis"] = "disabled"
	} else if err := h.redis.HealthCheck(ctx); err != nil {
		statuses["redis"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		statuses["redis"] = "healthy"
	}

	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  statuses,
		Memory:    memoryStatus(),
		Version:   os.Getenv("APP_VERSION"),
		Uptime:    time.Since(startTime).String(),
	}

	if h.breaker != nil {
		state := h.breaker.GetState()
		stats := h.breaker.GetStats()
		response.Breaker = &BreakerStatus{
			State:            state.String(),
			TotalRequests:    stats.TotalRequests,
			FailedRequests:   stats.FailedRequests,
			RejectedRequests: stats.RejectedRequests,
		}
		switch state {
		case services.Open:
			statuses["price_source"] = "unhealthy: circuit open"
			overallStatus = "unhealthy"
		case services.HalfOpen:
			statuses["price_source"] = "recovering"
		default:
			statuses["price_source"] = "healthy"
		}
	}

	if h.cache != nil {
		stats := h.cache.GetStats()
		response.Cache = &CacheStatus{
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			Sets:    stats.Sets,
			HitRate: hitRate(stats.Hits, stats.Misses),
		}
	}

	response.Status = overallStatus

	if overallStatus == "healthy" {
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusServiceUnavailable, response)
}

func memoryStatus() *MemoryStatus {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil
	}
	return &MemoryStatus{
		TotalMB:     vm.Total / 1024 / 1024,
		AvailableMB: vm.Available / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}
}
