package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finance-dashboard/models"
	"finance-dashboard/services"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

// fakeProvider answers history by window length in years, rounded
type fakeProvider struct {
	mu          sync.Mutex
	calls       []time.Time
	quoteCalls  atomic.Int32
	quoteErr    error
	historyErr  map[int]error
	pointsByAge map[int]int
	delay       time.Duration
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	f.quoteCalls.Add(1)
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &models.QuoteSnapshot{Symbol: symbol, Price: 110, PreviousClose: 100}, nil
}

func (f *fakeProvider) GetHistory(ctx context.Context, symbol string, start, end time.Time) (any, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, start)
	f.mu.Unlock()

	years := int(end.Sub(start).Hours()/24/365 + 0.5)
	if err := f.historyErr[years]; err != nil {
		return nil, err
	}
	n, ok := f.pointsByAge[years]
	if !ok {
		n = int(end.Sub(start).Hours() / 24)
	}

	// reversed on purpose: the normalizer restores order
	bars := make([]any, 0, n)
	for i := n - 1; i >= 0; i-- {
		bars = append(bars, map[string]any{
			"date":   end.AddDate(0, 0, -n+i).Format(time.RFC3339),
			"close":  100 + float64(i),
			"volume": 1000,
		})
	}
	return bars, nil
}

func (f *fakeProvider) windows() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

func newTestService(p services.MarketDataProvider) *Service {
	s := NewService(Config{Stocks: p, CacheTTL: DefaultCacheTTL, MaxConcurrency: 2})
	s.now = func() time.Time { return testNow }
	s.cache.now = func() time.Time { return testNow }
	return s
}

func TestService_Get_FixedWindow(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p)

	res, err := s.Get(context.Background(), Request{Symbol: " aapl ", Days: 30})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(res.History) != 30 {
		t.Fatalf("history = %d, want 30", len(res.History))
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i].Date.Before(res.History[i-1].Date) {
			t.Fatal("history not chronological")
		}
	}
	if res.Quote.Symbol != "AAPL" || res.Quote.Change != 10 || res.Quote.ChangePercent != 10 || res.Quote.Exchange != "N/A" {
		t.Errorf("quote = %+v", res.Quote)
	}
	if got := p.windows(); len(got) != 1 || !got[0].Equal(testNow.AddDate(0, 0, -30)) {
		t.Errorf("windows = %v", got)
	}
}

func TestService_Get_SymbolRequired(t *testing.T) {
	s := newTestService(&fakeProvider{})
	if _, err := s.Get(context.Background(), Request{Symbol: "  "}); !errors.Is(err, ErrSymbolRequired) {
		t.Errorf("err = %v, want ErrSymbolRequired", err)
	}
}

func TestService_MaxHistoryChain(t *testing.T) {
	tests := []struct {
		name       string
		asset      models.AssetClass
		points     map[int]int
		errs       map[int]error
		wantCalls  int
		wantPoints int
		wantErr    bool
	}{
		{
			name:       "stock full history suffices",
			asset:      models.AssetStock,
			points:     map[int]int{25: 6000},
			wantCalls:  1,
			wantPoints: 6000,
		},
		{
			name:       "stock near-empty falls back to 10y",
			asset:      models.AssetStock,
			points:     map[int]int{25: 40, 10: 2500},
			wantCalls:  2,
			wantPoints: 2500,
		},
		{
			name:       "stock error falls back",
			asset:      models.AssetStock,
			points:     map[int]int{10: 2500},
			errs:       map[int]error{25: errors.New("range too large")},
			wantCalls:  2,
			wantPoints: 2500,
		},
		{
			name:       "stock keeps near-empty result when later windows fail",
			asset:      models.AssetStock,
			points:     map[int]int{25: 40},
			errs:       map[int]error{10: errors.New("boom"), 5: errors.New("boom")},
			wantCalls:  3,
			wantPoints: 40,
		},
		{
			name:       "stock keeps near-empty 10y over a smaller 5y",
			asset:      models.AssetStock,
			points:     map[int]int{25: 40, 10: 90, 5: 60},
			wantCalls:  3,
			wantPoints: 90,
		},
		{
			name:       "stock takes 5y when it holds more than near-empty 10y",
			asset:      models.AssetStock,
			points:     map[int]int{25: 40, 10: 50, 5: 80},
			wantCalls:  3,
			wantPoints: 80,
		},
		{
			name:      "stock every window fails",
			asset:     models.AssetStock,
			errs:      map[int]error{25: errors.New("a"), 10: errors.New("b"), 5: errors.New("c")},
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:       "crypto falls back to 5y then 2y",
			asset:      models.AssetCrypto,
			points:     map[int]int{2: 730},
			errs:       map[int]error{15: errors.New("x"), 5: errors.New("y")},
			wantCalls:  3,
			wantPoints: 730,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{pointsByAge: tt.points, historyErr: tt.errs}
			s := newTestService(p)
			s.cryptos = p

			res, err := s.Get(context.Background(), Request{Symbol: "X", Asset: tt.asset, Days: 0})
			if calls := len(p.windows()); calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrHistoryFetch) {
					t.Errorf("err = %v, want ErrHistoryFetch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if len(res.History) != tt.wantPoints {
				t.Errorf("points = %d, want %d", len(res.History), tt.wantPoints)
			}
		})
	}
}

func TestService_CryptoStartsIn2010(t *testing.T) {
	p := &fakeProvider{pointsByAge: map[int]int{15: 5000}}
	s := newTestService(p)
	s.cryptos = p

	if _, err := s.Get(context.Background(), Request{Symbol: "BTC-USD", Asset: models.AssetCrypto}); err != nil {
		t.Fatal(err)
	}
	if got := p.windows(); len(got) != 1 || !got[0].Equal(CryptoMaxWindows[0].Since) {
		t.Errorf("windows = %v", got)
	}
}

func TestService_UnknownSymbolStopsChain(t *testing.T) {
	notFound := fmt.Errorf("ZZZ: %w", services.ErrSymbolNotFound)
	p := &fakeProvider{historyErr: map[int]error{25: notFound, 10: notFound, 5: notFound}}
	s := newTestService(p)

	_, err := s.Get(context.Background(), Request{Symbol: "ZZZ", Days: 0})
	if !errors.Is(err, ErrHistoryFetch) || !errors.Is(err, services.ErrSymbolNotFound) {
		t.Errorf("err = %v", err)
	}
	if calls := len(p.windows()); calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestService_CryptoHistoryFailureIsSoft(t *testing.T) {
	p := &fakeProvider{historyErr: map[int]error{0: errors.New("chart unavailable")}}
	s := newTestService(p)

	res, err := s.Get(context.Background(), Request{Symbol: "ETH-USD", Asset: models.AssetCrypto, Days: 7})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.HistoryError != ErrHistoryFetch.Error() || res.History == nil || len(res.History) != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Quote.Exchange != "Crypto Exchange" || res.Quote.QuoteType != "CRYPTOCURRENCY" {
		t.Errorf("crypto defaults not applied: %+v", res.Quote)
	}
	if s.cache.Len() != 0 {
		t.Error("degraded results should not be cached")
	}
}

func TestService_StockHistoryFailure(t *testing.T) {
	p := &fakeProvider{historyErr: map[int]error{0: errors.New("chart unavailable")}}
	s := newTestService(p)

	if _, err := s.Get(context.Background(), Request{Symbol: "MSFT", Days: 7}); !errors.Is(err, ErrHistoryFetch) {
		t.Errorf("err = %v, want ErrHistoryFetch", err)
	}
}

func TestService_QuoteFailure(t *testing.T) {
	p := &fakeProvider{quoteErr: errors.New("status 502")}
	s := newTestService(p)

	if _, err := s.Get(context.Background(), Request{Symbol: "MSFT", Asset: models.AssetCrypto, Days: 7}); !errors.Is(err, ErrQuoteFetch) {
		t.Errorf("err = %v, want ErrQuoteFetch", err)
	}
}

func TestService_CacheAndRefresh(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p)
	ctx := context.Background()
	req := Request{Symbol: "NVDA", Days: 90}

	for i := 0; i < 3; i++ {
		if _, err := s.Get(ctx, req); err != nil {
			t.Fatal(err)
		}
	}
	if calls := p.quoteCalls.Load(); calls != 1 {
		t.Errorf("quote calls = %d, want 1 (cached)", calls)
	}

	req.Refresh = true
	if _, err := s.Get(ctx, req); err != nil {
		t.Fatal(err)
	}
	if calls := p.quoteCalls.Load(); calls != 2 {
		t.Errorf("quote calls after refresh = %d, want 2", calls)
	}

	s.cache.now = func() time.Time { return testNow.Add(DefaultCacheTTL) }
	req.Refresh = false
	if _, err := s.Get(ctx, req); err != nil {
		t.Fatal(err)
	}
	if calls := p.quoteCalls.Load(); calls != 3 {
		t.Errorf("quote calls after expiry = %d, want 3", calls)
	}
}

func TestService_SampleAfterCache(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p)
	ctx := context.Background()

	full, err := s.Get(ctx, Request{Symbol: "AMZN", Days: 1825})
	if err != nil {
		t.Fatal(err)
	}
	small, err := s.Get(ctx, Request{Symbol: "AMZN", Days: 1825, Sample: 300})
	if err != nil {
		t.Fatal(err)
	}
	if len(small.History) != 300 {
		t.Errorf("sampled = %d, want 300", len(small.History))
	}
	if small.History[0] != full.History[0] || small.History[299] != full.History[len(full.History)-1] {
		t.Error("sampling must keep first and last points")
	}
	if len(full.History) != 1825 {
		t.Errorf("cached full history was modified: %d", len(full.History))
	}
	if calls := p.quoteCalls.Load(); calls != 1 {
		t.Errorf("quote calls = %d, want 1", calls)
	}
}

func TestService_ConcurrentMissesShareFetch(t *testing.T) {
	p := &fakeProvider{delay: 20 * time.Millisecond}
	s := newTestService(p)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Get(context.Background(), Request{Symbol: "META", Days: 30}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if calls := p.quoteCalls.Load(); calls != 1 {
		t.Errorf("quote calls = %d, want 1", calls)
	}
}

func TestService_AcquireHonoursContext(t *testing.T) {
	s := newTestService(&fakeProvider{})
	s.sem <- struct{}{}
	s.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Get(ctx, Request{Symbol: "TSM", Days: 7}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
