// Package market fetches quotes and price history from an upstream provider,
// normalizes the history and caches the result for a short TTL.
package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/internal/series"
	"finance-dashboard/models"
	"finance-dashboard/observability"
	"finance-dashboard/services"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrHistoryFetch is returned when every lookback window failed
	ErrHistoryFetch = errors.New("history fetch failed")
	// ErrQuoteFetch is returned when the quote could not be loaded
	ErrQuoteFetch = errors.New("quote fetch failed")
	// ErrSymbolRequired is returned for an empty symbol
	ErrSymbolRequired = errors.New("symbol parameter is required")
)

// minMaxHistoryPoints is the size under which a maximum-history fetch is
// considered near-empty and the next window is tried
const minMaxHistoryPoints = 100

// Window is one lookback attempt: either a fixed start or a span back from now
type Window struct {
	Years int
	Since time.Time
}

func (w Window) start(now time.Time) time.Time {
	if !w.Since.IsZero() {
		return w.Since
	}
	return now.AddDate(-w.Years, 0, 0)
}

func (w Window) String() string {
	if !w.Since.IsZero() {
		return "since " + w.Since.Format("2006-01-02")
	}
	return strconv.Itoa(w.Years) + "y"
}

// StockMaxWindows is the maximum-history chain for stocks
var StockMaxWindows = []Window{{Years: 25}, {Years: 10}, {Years: 5}}

// CryptoMaxWindows is the maximum-history chain for crypto
var CryptoMaxWindows = []Window{{Since: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)}, {Years: 5}, {Years: 2}}

// Request selects a symbol and history range
type Request struct {
	Symbol  string
	Asset   models.AssetClass
	Days    int
	Sample  int
	Refresh bool
}

// Result is the quote plus history returned to the dashboard. For crypto a
// failed history fetch yields an empty history and a HistoryError flag.
type Result struct {
	Quote        *models.QuoteSnapshot `json:"quote"`
	History      models.Series         `json:"history"`
	HistoryError string                `json:"historyError,omitempty"`
}

// Config wires providers and limits into a Service
type Config struct {
	Stocks         services.MarketDataProvider
	Cryptos        services.MarketDataProvider
	CacheTTL       time.Duration
	MaxConcurrency int
}

// Service answers quote + history requests
type Service struct {
	stocks  services.MarketDataProvider
	cryptos services.MarketDataProvider
	cache   *Cache[*Result]
	group   singleflight.Group
	sem     chan struct{}
	now     func() time.Time
}

// NewService creates a Service. The crypto provider defaults to the stock one.
func NewService(cfg Config) *Service {
	if cfg.Cryptos == nil {
		cfg.Cryptos = cfg.Stocks
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	return &Service{
		stocks:  cfg.Stocks,
		cryptos: cfg.Cryptos,
		cache:   NewCache[*Result](cfg.CacheTTL),
		sem:     make(chan struct{}, cfg.MaxConcurrency),
		now:     time.Now,
	}
}

// Cache exposes the result cache for the sweep job
func (s *Service) Cache() *Cache[*Result] {
	return s.cache
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s|%s|%d", req.Asset, req.Symbol, req.Days)
}

// Get returns the quote and history for a request, serving from cache when
// fresh. Sampling is applied after the cache so one fetch serves every budget.
func (s *Service) Get(ctx context.Context, req Request) (*Result, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return nil, ErrSymbolRequired
	}
	if req.Asset == "" {
		req.Asset = models.AssetStock
	}
	if req.Days < 0 {
		req.Days = DefaultDays
	}

	metrics := observability.GetMetrics()
	key := cacheKey(req)
	asset := string(req.Asset)

	if req.Refresh {
		s.cache.Invalidate(key)
	} else if cached, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit(asset)
		return sampled(cached, req.Sample), nil
	}
	metrics.RecordCacheMiss(asset)

	v, err, _ := s.group.Do(key, func() (any, error) {
		result, err := s.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if result.HistoryError == "" {
			s.cache.Set(key, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return sampled(v.(*Result), req.Sample), nil
}

func sampled(r *Result, sample int) *Result {
	if sample <= 0 || len(r.History) <= sample {
		return r
	}
	out := *r
	out.History = series.Downsample(r.History, sample)
	observability.GetMetrics().RecordDownsample(len(r.History), len(out.History))
	return &out
}

func (s *Service) provider(asset models.AssetClass) services.MarketDataProvider {
	if asset == models.AssetCrypto {
		return s.cryptos
	}
	return s.stocks
}

// fetch loads the quote and history concurrently
func (s *Service) fetch(ctx context.Context, req Request) (*Result, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	provider := s.provider(req.Asset)
	logger := observability.WithSymbol(req.Symbol)
	metrics := observability.GetMetrics()
	asset := string(req.Asset)

	result := &Result{History: models.Series{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quote, err := provider.GetQuote(gctx, req.Symbol)
		if err != nil {
			metrics.RecordFetchError(asset, "quote")
			return fmt.Errorf("%s: %w: %w", req.Symbol, ErrQuoteFetch, err)
		}
		quote.ApplyDefaults(req.Asset)
		result.Quote = quote
		return nil
	})

	g.Go(func() error {
		history, err := s.history(gctx, provider, req)
		if err != nil {
			metrics.RecordFetchError(asset, "history")
			if req.Asset == models.AssetCrypto {
				logger.Warn("crypto history unavailable, serving empty history", "error", err)
				result.HistoryError = ErrHistoryFetch.Error()
				return nil
			}
			return err
		}
		result.History = history
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("market fetch failed", "days", req.Days, "error", err)
		return nil, err
	}

	logger.Debug("market data fetched",
		"provider", provider.Name(),
		"days", req.Days,
		"points", len(result.History))
	return result, nil
}

// history fetches a fixed window, or walks the maximum-history chain for days == 0
func (s *Service) history(ctx context.Context, provider services.MarketDataProvider, req Request) (models.Series, error) {
	end := s.now()
	if req.Days > 0 {
		points, err := s.window(ctx, provider, req.Symbol, end.AddDate(0, 0, -req.Days), end)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", req.Symbol, ErrHistoryFetch, err)
		}
		return points, nil
	}

	chain := StockMaxWindows
	if req.Asset == models.AssetCrypto {
		chain = CryptoMaxWindows
	}
	return s.walk(ctx, provider, req, chain, end)
}

// walk tries each window in turn. A window is abandoned when it errors or
// returns fewer than minMaxHistoryPoints. A shorter window never replaces a
// longer near-empty result that already holds more points.
func (s *Service) walk(ctx context.Context, provider services.MarketDataProvider, req Request, chain []Window, end time.Time) (models.Series, error) {
	metrics := observability.GetMetrics()
	asset := string(req.Asset)

	var best models.Series
	var lastErr error
	found := false

	for i, w := range chain {
		points, err := s.window(ctx, provider, req.Symbol, w.start(end), end)
		last := i == len(chain)-1

		switch {
		case err != nil:
			if errors.Is(err, services.ErrSymbolNotFound) || ctx.Err() != nil {
				return nil, fmt.Errorf("%s: %w: %w", req.Symbol, ErrHistoryFetch, err)
			}
			lastErr = err
			if !last {
				metrics.RecordFallback(asset, "error")
				observability.WithSymbol(req.Symbol).Warn("history window failed, falling back",
					"window", w.String(), "error", err)
			}
		case len(points) < minMaxHistoryPoints && !last:
			if !found || len(points) > len(best) {
				best, found = points, true
			}
			metrics.RecordFallback(asset, "too_few_points")
			observability.WithSymbol(req.Symbol).Debug("history window near-empty, falling back",
				"window", w.String(), "points", len(points))
		default:
			if found && len(best) > len(points) {
				return best, nil
			}
			return points, nil
		}
	}

	if found {
		return best, nil
	}
	return nil, fmt.Errorf("%s: %w: %w", req.Symbol, ErrHistoryFetch, lastErr)
}

func (s *Service) window(ctx context.Context, provider services.MarketDataProvider, symbol string, start, end time.Time) (models.Series, error) {
	raw, err := provider.GetHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	return series.Normalize(raw), nil
}

func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for fetch slot: %w", ctx.Err())
	}
}

func (s *Service) release() {
	<-s.sem
}
