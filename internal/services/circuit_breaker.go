package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	Closed CircuitBreakerState = iota
	Open
	HalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // failures before opening
	SuccessThreshold int           `json:"success_threshold"` // half-open successes before closing
	Timeout          time.Duration `json:"timeout"`           // open duration before probing
	MaxRequests      int           `json:"max_requests"`      // concurrent probes in half-open
}

// CircuitBreakerStats holds statistics for the circuit breaker
type CircuitBreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	RejectedRequests   int64     `json:"rejected_requests"`
	LastFailureTime    time.Time `json:"last_failure_time"`
	StateChanges       int64     `json:"state_changes"`
}

// CircuitBreaker stops calling a failing dependency for a cool-down period.
type CircuitBreaker struct {
	name            string
	config          CircuitBreakerConfig
	logger          *logrus.Logger
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	inFlight        int
	lastStateChange time.Time
	stats           CircuitBreakerStats
	now             func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &CircuitBreaker{
		name:            name,
		config:          config,
		logger:          logger,
		state:           Closed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// Execute runs fn unless the breaker is open. Context cancellation counts as
// neither success nor failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	if cb.state == Open && cb.now().Sub(cb.lastStateChange) >= cb.config.Timeout {
		cb.setState(HalfOpen)
		cb.successCount = 0
		cb.inFlight = 0
	}

	switch cb.state {
	case Closed:
		return true
	case HalfOpen:
		if cb.inFlight < cb.config.MaxRequests {
			cb.inFlight++
			return true
		}
	}

	cb.stats.RejectedRequests++
	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"state":           cb.state.String(),
		"failure_count":   cb.failureCount,
	}).Warn("Circuit breaker is open, rejecting request")
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	wasHalfOpen := cb.state == HalfOpen
	if wasHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	// A cancelled caller says nothing about the dependency.
	if errors.Is(err, context.Canceled) {
		return
	}

	if err == nil {
		cb.stats.SuccessfulRequests++
		cb.failureCount = 0
		if wasHalfOpen {
			cb.successCount++
			if cb.successCount >= cb.config.SuccessThreshold {
				cb.setState(Closed)
			}
		}
		return
	}

	cb.stats.FailedRequests++
	cb.stats.LastFailureTime = cb.now()
	cb.failureCount++

	if wasHalfOpen || cb.failureCount >= cb.config.FailureThreshold {
		cb.setState(Open)
	}

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"state":           cb.state.String(),
		"error":           err.Error(),
		"failure_count":   cb.failureCount,
	}).Warn("Circuit breaker: failed execution")
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()
	cb.stats.StateChanges++
	if newState == Closed {
		cb.failureCount = 0
		cb.successCount = 0
	}

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"old_state":       oldState.String(),
		"new_state":       newState.String(),
	}).Info("Circuit breaker state changed")
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns the current statistics
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// BreakerPriceSource guards a PriceSource with a circuit breaker so that a
// database outage fails analysis requests fast.
type BreakerPriceSource struct {
	source  PriceSource
	breaker *CircuitBreaker
}

// NewBreakerPriceSource wraps source.
func NewBreakerPriceSource(source PriceSource, breaker *CircuitBreaker) *BreakerPriceSource {
	return &BreakerPriceSource{source: source, breaker: breaker}
}

// GetCloseSeries implements PriceSource.
func (b *BreakerPriceSource) GetCloseSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.PricePoint, error) {
	var out map[string][]models.PricePoint
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = b.source.GetCloseSeries(ctx, symbols, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
