package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finance-dashboard/models"
)

// ErrSymbolNotFound is returned when the upstream has no data for a symbol
var ErrSymbolNotFound = errors.New("symbol not found")

// MarketDataProvider fetches quotes and raw price history from one upstream.
// GetHistory returns the upstream's payload decoded as generic JSON values;
// the series normalizer owns turning it into chart points.
type MarketDataProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error)
	GetHistory(ctx context.Context, symbol string, start, end time.Time) (any, error)
}

// Compile-time interface verification
var _ MarketDataProvider = (*YahooService)(nil)
var _ MarketDataProvider = (*AlpacaService)(nil)
var _ MarketDataProvider = (*FixtureService)(nil)

// errorType buckets an upstream error for the external API error metric
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case isStatus(err, http.StatusTooManyRequests):
		return "rate_limited"
	default:
		return "upstream"
	}
}

func isStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
