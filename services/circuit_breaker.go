package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"finance-dashboard/observability"
)

// ErrUpstreamUnavailable is returned while a provider's breaker rejects calls
var ErrUpstreamUnavailable = errors.New("circuit breaker open")

// Circuit breaker names for market data providers
const (
	BreakerYahoo   = "yahoo"
	BreakerAlpaca  = "alpaca"
	BreakerFixture = "fixture"
)

// CircuitBreakerConfig tunes the breaker guarding one provider. Zero
// MinRequests and FailureRatio fall back to 5 requests and 50%.
type CircuitBreakerConfig struct {
	MaxRequests  uint32        // trial requests let through while half-open
	Interval     time.Duration // closed-state window after which counts reset
	Timeout      time.Duration // how long the breaker stays open before letting trial requests through
	MinRequests  uint32        // requests in the window before the ratio is judged
	FailureRatio float64       // failed share of requests that trips the breaker
}

// DefaultCircuitBreakerConfig trips after repeated upstream failures and lets trial requests through after 30s
var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests:  5,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
	MinRequests:  5,
	FailureRatio: 0.5,
}

// minYahooCooldown: once Yahoo starts answering 429 it keeps doing so for minutes
const minYahooCooldown = time.Minute

// forProvider adjusts the shared config for one provider
func (c CircuitBreakerConfig) forProvider(name string) CircuitBreakerConfig {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.5
	}
	if name == BreakerYahoo && c.Timeout < minYahooCooldown {
		c.Timeout = minYahooCooldown
	}
	return c
}

// upstreamFailed reports whether err counts against the provider's health.
// Unknown symbols and cancelled requests say nothing about the upstream.
func upstreamFailed(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrSymbolNotFound) &&
		!errors.Is(err, context.Canceled)
}

// CircuitBreakerRegistry holds one breaker per market data provider
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates a registry; breakers are built on first use
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		config:   config,
	}
}

// GetBreaker returns the provider's breaker, creating it on first use
func (r *CircuitBreakerRegistry) GetBreaker(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok = r.breakers[name]; ok {
		return cb
	}
	cb = newProviderBreaker(name, r.config.forProvider(name))
	r.breakers[name] = cb
	return cb
}

func newProviderBreaker(name string, cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:         name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: func(err error) bool { return !upstreamFailed(err) },
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(provider string, from, to gobreaker.State) {
			observability.Warn("market data provider breaker changed state",
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
				"cooldown", cfg.Timeout)

			metrics := observability.GetMetrics()
			metrics.SetCircuitBreakerState(provider, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(provider)
			}
		},
	})
}

// Execute runs fn through the named provider's breaker. A cancelled context
// short-circuits without touching the upstream.
func (r *CircuitBreakerRegistry) Execute(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	result, err := r.GetBreaker(name).Execute(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		observability.Warn("provider breaker open, skipping upstream call", "provider", name)
		return nil, fmt.Errorf("provider %s: %w", name, ErrUpstreamUnavailable)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.Warn("provider breaker half-open, request rejected", "provider", name)
		return nil, fmt.Errorf("provider %s still recovering: %w", name, ErrUpstreamUnavailable)
	}
	return result, err
}

// CircuitBreakerStatus is one provider's entry in the health report
type CircuitBreakerStatus struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	Requests         uint32 `json:"requests"`
	TotalSuccesses   uint32 `json:"total_successes"`
	TotalFailures    uint32 `json:"total_failures"`
	ConsecutiveSucc  uint32 `json:"consecutive_successes"`
	ConsecutiveFails uint32 `json:"consecutive_failures"`
}

// Status snapshots every provider breaker created so far
func (r *CircuitBreakerRegistry) Status() map[string]CircuitBreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]CircuitBreakerStatus, len(r.breakers))
	for name, cb := range r.breakers {
		c := cb.Counts()
		out[name] = CircuitBreakerStatus{
			Name:             name,
			State:            cb.State().String(),
			Requests:         c.Requests,
			TotalSuccesses:   c.TotalSuccesses,
			TotalFailures:    c.TotalFailures,
			ConsecutiveSucc:  c.ConsecutiveSuccesses,
			ConsecutiveFails: c.ConsecutiveFailures,
		}
	}
	return out
}

// Degraded reports whether any provider breaker is open
func (r *CircuitBreakerRegistry) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cb := range r.breakers {
		if cb.State() == gobreaker.StateOpen {
			return true
		}
	}
	return false
}

var (
	globalRegistry *CircuitBreakerRegistry
	registryMu     sync.Mutex
)

// GetGlobalRegistry returns the process-wide registry, creating a default one if unset
func GetGlobalRegistry() *CircuitBreakerRegistry {
	registryMu.Lock()
	defer registryMu.Unlock()
	if globalRegistry == nil {
		globalRegistry = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return globalRegistry
}

// SetGlobalRegistry replaces the global registry, typically with a fresh one in tests
func SetGlobalRegistry(r *CircuitBreakerRegistry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	globalRegistry = r
}

// WithCircuitBreaker is the typed form of Execute on the global registry
func WithCircuitBreaker[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	result, err := GetGlobalRegistry().Execute(ctx, name, func() (any, error) {
		return fn()
	})
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// stateToInt maps breaker states to the gauge value: 0 closed, 1 half-open, 2 open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
