package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"finance-dashboard/observability"
)

// RetryConfig bounds exponential backoff for upstream calls
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig suits the chart endpoints: three attempts after the first, capped at 5s
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// next doubles the wait up to MaxBackoff
func (c RetryConfig) next(backoff time.Duration) time.Duration {
	backoff *= 2
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error that retrying cannot fix, such as an unknown symbol
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// StatusError is a non-2xx answer from a market data provider
type StatusError struct {
	Provider string
	Symbol   string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Provider, e.Symbol, e.Code)
}

// Retryable reports whether another attempt may get a different answer.
// Rate limits and server errors are worth retrying; other 4xx are not.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// classifyStatus turns a provider's HTTP status into the error WithRetry
// expects. 404 means the symbol is unknown and is never retried.
func classifyStatus(provider, symbol string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	if code == http.StatusNotFound {
		return Permanent(fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound))
	}
	se := &StatusError{Provider: provider, Symbol: symbol, Code: code}
	if !se.Retryable() {
		return Permanent(se)
	}
	return se
}

// WithRetry runs fn until it succeeds, returns a Permanent error, or the
// retry budget is spent.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff = config.next(backoff)
		}

		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		lastErr = err
		if attempt < config.MaxRetries {
			observability.Warn("upstream call failed, retrying",
				"attempt", attempt+1,
				"max_retries", config.MaxRetries,
				"backoff", backoff.String(),
				"error", err)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, lastErr)
}
