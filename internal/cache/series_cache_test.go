package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

var (
	rangeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

type countingSource struct {
	prices map[string][]models.PricePoint
	calls  [][]string
	err    error
}

func (s *countingSource) GetCloseSeries(_ context.Context, symbols []string, _, _ time.Time) (map[string][]models.PricePoint, error) {
	s.calls = append(s.calls, append([]string(nil), symbols...))
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string][]models.PricePoint)
	for _, symbol := range symbols {
		if p, ok := s.prices[symbol]; ok {
			out[symbol] = p
		}
	}
	return out, nil
}

// setupTestRedis creates a test Redis instance using miniredis
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	cleanup := func() {
		client.Close()
		s.Close()
	}

	return client, s, cleanup
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testSource() *countingSource {
	return &countingSource{prices: map[string][]models.PricePoint{
		"SPY": {
			{Timestamp: rangeStart, Close: 470.1},
			{Timestamp: rangeStart.AddDate(0, 0, 1), Close: 472.3},
		},
		"GC=F": {
			{Timestamp: rangeStart, Close: 2050},
		},
	}}
}

func TestNewRedisSeriesCache(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ttl := 5 * time.Minute
	cache := NewRedisSeriesCache(client, testSource(), ttl, nil)

	assert.NotNil(t, cache)
	assert.Equal(t, client, cache.redis)
	assert.Equal(t, ttl, cache.ttl)
	assert.NotNil(t, cache.stats)
	assert.Equal(t, "series_cache:", cache.prefix)
}

func TestRedisSeriesCache_MissThenHit(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	source := testSource()
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())
	ctx := context.Background()

	first, err := cache.GetCloseSeries(ctx, []string{"SPY", "GC=F", "XYZ"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Len(t, first["SPY"], 2)
	assert.Len(t, first["GC=F"], 1)
	assert.NotContains(t, first, "XYZ")
	require.Len(t, source.calls, 1)

	assert.True(t, mr.Exists("series_cache:SPY:2024-01-01:2024-03-01"))
	assert.False(t, mr.Exists("series_cache:XYZ:2024-01-01:2024-03-01"))
	assert.Equal(t, time.Hour, mr.TTL("series_cache:SPY:2024-01-01:2024-03-01"))

	second, err := cache.GetCloseSeries(ctx, []string{"SPY", "GC=F"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, source.calls, 1, "second read is served from redis")
	assert.InDelta(t, 472.3, second["SPY"][1].Close, 1e-9)
	assert.True(t, second["SPY"][1].Timestamp.Equal(rangeStart.AddDate(0, 0, 1)))

	stats := cache.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
}

func TestRedisSeriesCache_PartialHitFetchesOnlyMissing(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	source := testSource()
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())
	ctx := context.Background()

	_, err := cache.GetCloseSeries(ctx, []string{"SPY"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	_, err = cache.GetCloseSeries(ctx, []string{"SPY", "GC=F"}, rangeStart, rangeEnd)
	require.NoError(t, err)

	require.Len(t, source.calls, 2)
	assert.Equal(t, []string{"GC=F"}, source.calls[1])
}

func TestRedisSeriesCache_DifferentRangeIsSeparateKey(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	source := testSource()
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())
	ctx := context.Background()

	_, err := cache.GetCloseSeries(ctx, []string{"SPY"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	_, err = cache.GetCloseSeries(ctx, []string{"SPY"}, rangeStart, rangeEnd.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Len(t, source.calls, 2)
}

func TestRedisSeriesCache_CorruptEntryIsMiss(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("series_cache:SPY:2024-01-01:2024-03-01", "{not json"))

	source := testSource()
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())

	series, err := cache.GetCloseSeries(context.Background(), []string{"SPY"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Len(t, series["SPY"], 2)
	assert.Len(t, source.calls, 1)

	raw, err := mr.Get("series_cache:SPY:2024-01-01:2024-03-01")
	require.NoError(t, err)
	var entry SeriesCacheEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Len(t, entry.Points, 2)
}

func TestRedisSeriesCache_RedisDownFallsBackToSource(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	source := testSource()
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())

	series, err := cache.GetCloseSeries(context.Background(), []string{"SPY"}, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Len(t, series["SPY"], 2)
	assert.Equal(t, int64(0), cache.GetStats().Sets)
}

func TestRedisSeriesCache_SourceError(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	source := &countingSource{err: errors.New("database down")}
	cache := NewRedisSeriesCache(client, source, time.Hour, quietLogger())

	_, err := cache.GetCloseSeries(context.Background(), []string{"SPY"}, rangeStart, rangeEnd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database down")
}

func TestRedisSeriesCache_Clear(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("other:key", "keep"))
	cache := NewRedisSeriesCache(client, testSource(), time.Hour, quietLogger())
	ctx := context.Background()

	_, err := cache.GetCloseSeries(ctx, []string{"SPY", "GC=F"}, rangeStart, rangeEnd)
	require.NoError(t, err)

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, mr.Exists("series_cache:SPY:2024-01-01:2024-03-01"))
	assert.True(t, mr.Exists("other:key"))

	require.NoError(t, cache.Clear(ctx))
}
