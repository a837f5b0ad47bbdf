package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/leadlag-ai-go/internal/cache"
	"github.com/irfndi/leadlag-ai-go/internal/logging"
)

// SeriesCacheStore is the series cache as seen by the cache endpoints.
type SeriesCacheStore interface {
	GetStats() cache.SeriesCacheStats
	Clear(ctx context.Context) error
}

// CacheHandler handles series cache monitoring and invalidation
type CacheHandler struct {
	cache  SeriesCacheStore
	logger logging.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(store SeriesCacheStore, logger logging.Logger) *CacheHandler {
	if logger == nil {
		logger = logging.NewStandardLogger("info", "")
	}
	return &CacheHandler{cache: store, logger: logger}
}

// GetCacheStats returns the series cache hit/miss/set counters
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.cache.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": CacheStatus{
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			Sets:    stats.Sets,
			HitRate: hitRate(stats.Hits, stats.Misses),
		},
	})
}

// ClearSeriesCache drops every cached price series so the next run reads Postgres
func (h *CacheHandler) ClearSeriesCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.logger.WithComponent("series_cache").Error("Failed to clear series cache", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear series cache",
		})
		return
	}

	h.logger.WithComponent("series_cache").Info("Series cache cleared")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Series cache cleared",
	})
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
