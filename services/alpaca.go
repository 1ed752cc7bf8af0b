package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/models"
	"finance-dashboard/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaService reads daily bars and snapshots from Alpaca market data.
// Symbols ending in -USD (or written as BASE/QUOTE) are routed to the crypto endpoints.
type AlpacaService struct {
	dataClient *marketdata.Client
}

// NewAlpacaService creates a new AlpacaService instance. An empty baseURL
// selects the public data endpoint.
func NewAlpacaService(apiKey, apiSecret, baseURL string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	return &AlpacaService{
		dataClient: dataClient,
	}
}

func (s *AlpacaService) Name() string { return BreakerAlpaca }

// IsCryptoSymbol reports whether a dashboard symbol names a crypto pair
func IsCryptoSymbol(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	return strings.HasSuffix(symbol, "-USD") || strings.Contains(symbol, "/")
}

// alpacaCryptoSymbol maps BTC-USD to the BTC/USD pair form Alpaca expects
func alpacaCryptoSymbol(symbol string) string {
	return strings.Replace(strings.ToUpper(symbol), "-", "/", 1)
}

// GetHistory returns daily bars in [start, end] as bar-like objects
func (s *AlpacaService) GetHistory(ctx context.Context, symbol string, start, end time.Time) (any, error) {
	return observeAlpaca(ctx, "get_bars", func() (any, error) {
		if IsCryptoSymbol(symbol) {
			bars, err := s.dataClient.GetCryptoBars(alpacaCryptoSymbol(symbol), marketdata.GetCryptoBarsRequest{
				TimeFrame: marketdata.OneDay,
				Start:     start,
				End:       end,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get crypto bars for %s: %w", symbol, err)
			}
			out := make([]any, 0, len(bars))
			for _, bar := range bars {
				out = append(out, barObject(bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume))
			}
			return out, nil
		}

		bars, err := s.dataClient.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.All,
			Start:      start,
			End:        end,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}
		out := make([]any, 0, len(bars))
		for _, bar := range bars {
			out = append(out, barObject(bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close, float64(bar.Volume)))
		}
		return out, nil
	})
}

// GetQuote builds a snapshot from the latest trade and daily bars
func (s *AlpacaService) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	return observeAlpaca(ctx, "get_snapshot", func() (*models.QuoteSnapshot, error) {
		q := &models.QuoteSnapshot{Symbol: strings.ToUpper(symbol)}

		if IsCryptoSymbol(symbol) {
			snap, err := s.dataClient.GetCryptoSnapshot(alpacaCryptoSymbol(symbol), marketdata.GetCryptoSnapshotRequest{})
			if err != nil {
				return nil, fmt.Errorf("failed to get crypto snapshot for %s: %w", symbol, err)
			}
			if snap == nil {
				return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
			}
			if snap.LatestTrade != nil {
				q.Price = snap.LatestTrade.Price
			}
			if bar := snap.DailyBar; bar != nil {
				q.Open, q.High, q.Low, q.Volume = bar.Open, bar.High, bar.Low, bar.Volume
				if q.Price == 0 {
					q.Price = bar.Close
				}
			}
			if bar := snap.PrevDailyBar; bar != nil {
				q.PreviousClose = bar.Close
			}
			q.QuoteType = "CRYPTOCURRENCY"
			return q, nil
		}

		snap, err := s.dataClient.GetSnapshot(strings.ToUpper(symbol), marketdata.GetSnapshotRequest{})
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot for %s: %w", symbol, err)
		}
		if snap == nil {
			return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
		}
		if snap.LatestTrade != nil {
			q.Price = snap.LatestTrade.Price
		}
		if bar := snap.DailyBar; bar != nil {
			q.Open, q.High, q.Low, q.Volume = bar.Open, bar.High, bar.Low, float64(bar.Volume)
			if q.Price == 0 {
				q.Price = bar.Close
			}
		}
		if bar := snap.PrevDailyBar; bar != nil {
			q.PreviousClose = bar.Close
		}
		return q, nil
	})
}

func barObject(ts time.Time, open, high, low, closePrice, volume float64) map[string]any {
	return map[string]any{
		"date":   ts,
		"open":   open,
		"high":   high,
		"low":    low,
		"close":  closePrice,
		"volume": volume,
	}
}

// observeAlpaca runs a data call through the alpaca breaker with request
// metrics. The marketdata client retries rate limits and 5xx itself.
func observeAlpaca[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, op)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerAlpaca, op)

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, fn)
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, op, errorType(err))
	}
	return result, err
}
