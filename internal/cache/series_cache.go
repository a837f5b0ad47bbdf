package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/leadlag-ai-go/internal/metrics"
	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// SeriesSource supplies close series; RedisSeriesCache wraps one and satisfies it as well.
type SeriesSource interface {
	GetCloseSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.PricePoint, error)
}

// SeriesCacheEntry represents a cached close series with metadata
type SeriesCacheEntry struct {
	Points   []models.PricePoint `json:"points"`
	CachedAt time.Time           `json:"cached_at"`
}

// SeriesCacheStats tracks cache performance metrics
type SeriesCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisSeriesCache caches close series per symbol and date range in Redis
type RedisSeriesCache struct {
	redis  *redis.Client
	source SeriesSource
	ttl    time.Duration
	stats  *SeriesCacheStats
	prefix string
	logger *logrus.Logger
}

// NewRedisSeriesCache creates a Redis-backed cache in front of source
func NewRedisSeriesCache(redisClient *redis.Client, source SeriesSource, ttl time.Duration, logger *logrus.Logger) *RedisSeriesCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisSeriesCache{
		redis:  redisClient,
		source: source,
		ttl:    ttl,
		stats:  &SeriesCacheStats{},
		prefix: "series_cache:",
		logger: logger,
	}
}

// GetCloseSeries serves cached symbols from Redis and fetches the rest from the source in a
// single call. Redis failures degrade to a cache miss.
func (c *RedisSeriesCache) GetCloseSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.PricePoint, error) {
	result := make(map[string][]models.PricePoint, len(symbols))
	var missing []string
	for _, symbol := range symbols {
		if _, done := result[symbol]; done {
			continue
		}
		if points, ok := c.get(ctx, c.key(symbol, start, end)); ok {
			result[symbol] = points
			continue
		}
		missing = append(missing, symbol)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.source.GetCloseSeries(ctx, missing, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch uncached series: %w", err)
	}
	for symbol, points := range fetched {
		result[symbol] = points
		c.set(ctx, c.key(symbol, start, end), points)
	}
	return result, nil
}

func (c *RedisSeriesCache) key(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", c.prefix, symbol, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
}

func (c *RedisSeriesCache) get(ctx context.Context, key string) ([]models.PricePoint, bool) {
	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading series cache")
		c.recordMiss()
		return nil, false
	}

	var entry SeriesCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error deserializing cached series")
		c.recordMiss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.SeriesCacheRequests.WithLabelValues("hit").Inc()
	return entry.Points, true
}

func (c *RedisSeriesCache) set(ctx context.Context, key string, points []models.PricePoint) {
	data, err := json.Marshal(SeriesCacheEntry{Points: points, CachedAt: time.Now()})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error serializing series")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error writing series cache")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

func (c *RedisSeriesCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.SeriesCacheRequests.WithLabelValues("miss").Inc()
}

// GetStats returns current cache statistics
func (c *RedisSeriesCache) GetStats() SeriesCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return SeriesCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

// Clear removes all cached series
func (c *RedisSeriesCache) Clear(ctx context.Context) error {
	pattern := c.prefix + "*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	c.logger.WithField("keys", len(keys)).Info("Cleared series cache")
	return nil
}
