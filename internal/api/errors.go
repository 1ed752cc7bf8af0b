package api

import (
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"finance-dashboard/internal/chart"
	"finance-dashboard/internal/market"
	"finance-dashboard/internal/news"
	"finance-dashboard/services"
)

const (
	msgSymbolRequired = "Symbol parameter is required"
	msgStockFailed    = "Failed to fetch stock data"
	msgCryptoFailed   = "Failed to fetch cryptocurrency data"
	msgNewsFailed     = "Failed to fetch news data"
	msgChartFailed    = "Failed to load chart data"
)

// apiError is the JSON error body: {"error": "...", "details": [...]}
type apiError struct {
	Status  int      `json:"-"`
	Message string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (e *apiError) Error() string  { return e.Message }
func (e *apiError) GetStatus() int { return e.Status }

func newAPIError(status int, msg string, errs ...error) huma.StatusError {
	e := &apiError{Status: status, Message: msg}
	for _, err := range errs {
		if err != nil {
			e.Details = append(e.Details, err.Error())
		}
	}
	return e
}

func init() {
	huma.NewError = newAPIError
}

// mapErr converts domain errors into HTTP errors. fallback is the message for
// upstream failures.
func mapErr(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var nf *newsLookupError
	switch {
	case errors.Is(err, market.ErrSymbolRequired):
		return huma.Error400BadRequest(msgSymbolRequired)
	case errors.As(err, &nf):
		return huma.Error404NotFound(nf.Error())
	case errors.Is(err, chart.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, chart.ErrTooManySessions):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return huma.Error502BadGateway(fallback)
	}
	return huma.Error500InternalServerError(fallback)
}

// newsLookupError carries the not-found message for a news symbol
type newsLookupError struct {
	symbol string
	err    error
}

func (e *newsLookupError) Error() string {
	if errors.Is(e.err, news.ErrUnknownSymbol) {
		return fmt.Sprintf("No news data available for symbol: %s", e.symbol)
	}
	return fmt.Sprintf("News file not found for symbol: %s", e.symbol)
}

func (e *newsLookupError) Unwrap() error { return e.err }

func newsErr(symbol string, err error) error {
	if errors.Is(err, news.ErrUnknownSymbol) || errors.Is(err, news.ErrNotFound) {
		return &newsLookupError{symbol: symbol, err: err}
	}
	return err
}
