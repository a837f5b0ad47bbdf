package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/leadlag-ai-go/internal/api/handlers"
	"github.com/irfndi/leadlag-ai-go/internal/logging"
	"github.com/irfndi/leadlag-ai-go/internal/middleware"
)

// RouteDependencies groups what the HTTP routes need. A nil Redis checker or SeriesCache
// means the series cache is disabled; the cache endpoints are then not registered.
type RouteDependencies struct {
	ServiceName    string
	DB             handlers.HealthChecker
	Redis          handlers.HealthChecker
	Breaker        handlers.CircuitStatus
	SeriesCache    handlers.SeriesCacheStore
	Runner         handlers.AnalysisRunner
	Logger         logging.Logger
	RequestTimeout time.Duration
}

func SetupRoutes(router *gin.Engine, deps RouteDependencies) {
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(middleware.RequestLogger(deps.Logger))

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	if deps.Breaker != nil {
		healthHandler.WithCircuitBreaker(deps.Breaker)
	}
	if deps.SeriesCache != nil {
		healthHandler.WithSeriesCache(deps.SeriesCache)
	}
	leadLagHandler := handlers.NewLeadLagHandler(deps.Runner, deps.RequestTimeout, deps.Logger)

	// Health check endpoint
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/assets", handlers.ListAssets)

		leadlag := v1.Group("/leadlag")
		{
			leadlag.POST("/analysis", leadLagHandler.RunAnalysis)
			leadlag.POST("/analysis/csv", leadLagHandler.ExportRankingsCSV)
		}

		if deps.SeriesCache != nil {
			cacheHandler := handlers.NewCacheHandler(deps.SeriesCache, deps.Logger)
			cacheRoutes := v1.Group("/cache")
			{
				cacheRoutes.GET("/stats", cacheHandler.GetCacheStats)
				cacheRoutes.DELETE("/series", cacheHandler.ClearSeriesCache)
			}
		}
	}
}
