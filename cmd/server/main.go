package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/leadlag-ai-go/internal/api"
	"github.com/irfndi/leadlag-ai-go/internal/cache"
	"github.com/irfndi/leadlag-ai-go/internal/config"
	"github.com/irfndi/leadlag-ai-go/internal/database"
	"github.com/irfndi/leadlag-ai-go/internal/logging"
	"github.com/irfndi/leadlag-ai-go/internal/services"
	"github.com/irfndi/leadlag-ai-go/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	serviceLogger := logging.NewLogrusLogger(cfg.LogLevel, os.Stdout)

	provider, err := telemetry.InitTelemetry(cfg.Telemetry)
	if err != nil {
		serviceLogger.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(context.Background(), cfg.Database)
	if err != nil {
		serviceLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it series are read straight from Postgres
	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			serviceLogger.WithError(err).Warn("Redis unavailable, series cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	prices, err := newPriceSource(cfg, db, redisClient, serviceLogger)
	if err != nil {
		serviceLogger.Fatalf("Failed to build price source: %v", err)
	}
	logger.WithService(cfg.Telemetry.ServiceName).Info("Price source ready",
		"series_cache", prices.cache != nil,
		"max_workers", cfg.Analysis.MaxWorkers,
	)
	leadLagService := services.NewLeadLagService(prices.source, cfg.Analysis, serviceLogger)

	timeout, _ := cfg.Server.Timeout()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	deps := api.RouteDependencies{
		ServiceName:    cfg.Telemetry.ServiceName,
		DB:             db,
		Breaker:        prices.breaker,
		Runner:         leadLagService,
		Logger:         logger,
		RequestTimeout: timeout,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	if prices.cache != nil {
		deps.SeriesCache = prices.cache
	}
	api.SetupRoutes(router, deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.LogStartup(telemetry.ServiceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.LogShutdown(telemetry.ServiceName, sig.String())

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		serviceLogger.Errorf("Server forced to shutdown: %v", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		serviceLogger.WithError(err).Warn("Failed to flush traces")
	}

	serviceLogger.Info("Server exited")
}

// priceStack is the price source handed to the service plus the layers /health reports on.
type priceStack struct {
	source  services.PriceSource
	breaker *services.CircuitBreaker
	cache   *cache.RedisSeriesCache
}

// newPriceSource reads from Postgres through a circuit breaker, behind the Redis series
// cache when a client is given.
func newPriceSource(cfg *config.Config, db *database.PostgresDB, redisClient *database.RedisClient, logger *logrus.Logger) (*priceStack, error) {
	breaker := services.NewCircuitBreaker("postgres-prices", services.CircuitBreakerConfig{}, logger)
	stack := &priceStack{
		source:  services.NewBreakerPriceSource(services.NewPostgresPriceSource(db, logger), breaker),
		breaker: breaker,
	}
	if redisClient == nil || redisClient.Client == nil {
		return stack, nil
	}

	ttl, err := cfg.Cache.TTL()
	if err != nil {
		return nil, fmt.Errorf("invalid series cache ttl: %w", err)
	}
	stack.cache = cache.NewRedisSeriesCache(redisClient.Client, stack.source, ttl, logger)
	stack.source = stack.cache
	return stack, nil
}
