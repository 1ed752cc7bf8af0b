package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-dashboard/internal/series"
)

// alpacaDataServer answers the market data endpoints the service touches
func alpacaDataServer(t *testing.T) *AlpacaService {
	t.Helper()
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
	t.Cleanup(func() { SetGlobalRegistry(nil) })

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/stocks/bars", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbols") != "AAPL" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"forbidden"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bars":{"AAPL":[
			{"t":"2024-01-03T05:00:00Z","o":184.2,"h":185.9,"l":183.4,"c":184.3,"v":58414500,"n":1,"vw":184.5},
			{"t":"2024-01-02T05:00:00Z","o":187.1,"h":188.4,"l":183.8,"c":185.6,"v":82488700,"n":1,"vw":185.9}
		]},"next_page_token":null}`))
	})
	mux.HandleFunc("/v2/stocks/snapshots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AAPL":{
			"latestTrade":{"t":"2024-01-03T20:59:59Z","p":184.25,"s":100},
			"dailyBar":{"t":"2024-01-03T05:00:00Z","o":184.2,"h":185.9,"l":183.4,"c":184.3,"v":58414500},
			"prevDailyBar":{"t":"2024-01-02T05:00:00Z","o":187.1,"h":188.4,"l":183.8,"c":185.6,"v":82488700}
		}}`))
	})
	mux.HandleFunc("/v1beta3/crypto/us/bars", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bars":{"BTC/USD":[
			{"t":"2024-01-02T00:00:00Z","o":44200,"h":45900,"l":44100,"c":45000,"v":1234.5,"n":10,"vw":45010}
		]},"next_page_token":null}`))
	})
	mux.HandleFunc("/v1beta3/crypto/us/snapshots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"snapshots":{"BTC/USD":{
			"latestTrade":{"t":"2024-01-03T12:00:00Z","p":45500,"s":0.1},
			"dailyBar":{"t":"2024-01-03T00:00:00Z","o":45000,"h":46000,"l":44800,"c":45400,"v":800.25},
			"prevDailyBar":{"t":"2024-01-02T00:00:00Z","o":44200,"h":45900,"l":44100,"c":45000,"v":1234.5}
		}}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewAlpacaService("key", "secret", server.URL)
}

func TestAlpacaService_GetHistory(t *testing.T) {
	svc := alpacaDataServer(t)

	raw, err := svc.GetHistory(context.Background(), "aapl", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if shape := series.DetectShape(raw); shape != series.ShapeBars {
		t.Fatalf("shape = %v, want bars", shape)
	}

	points := series.Normalize(raw)
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Price != 185.6 || points[1].Price != 184.3 {
		t.Errorf("points not in chronological order: %+v", points)
	}
	if points[0].Volume != 82488700 {
		t.Errorf("volume = %v", points[0].Volume)
	}
}

func TestAlpacaService_GetCryptoHistory(t *testing.T) {
	svc := alpacaDataServer(t)

	raw, err := svc.GetHistory(context.Background(), "BTC-USD", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	points := series.Normalize(raw)
	if len(points) != 1 || points[0].Price != 45000 || points[0].Volume != 1234.5 {
		t.Errorf("points = %+v", points)
	}
}

func TestAlpacaService_GetQuote(t *testing.T) {
	svc := alpacaDataServer(t)

	q, err := svc.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Price != 184.25 || q.PreviousClose != 185.6 || q.Open != 184.2 || q.Volume != 58414500 {
		t.Errorf("quote = %+v", q)
	}

	c, err := svc.GetQuote(context.Background(), "btc-usd")
	if err != nil {
		t.Fatalf("GetQuote crypto: %v", err)
	}
	if c.Symbol != "BTC-USD" || c.Price != 45500 || c.PreviousClose != 45000 || c.QuoteType != "CRYPTOCURRENCY" {
		t.Errorf("crypto quote = %+v", c)
	}
}

func TestAlpacaService_UpstreamError(t *testing.T) {
	svc := alpacaDataServer(t)

	_, err := svc.GetHistory(context.Background(), "MSFT", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("expected error for rejected request")
	}
	if errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("rejected request should not read as unknown symbol: %v", err)
	}
}

func TestIsCryptoSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"BTC-USD", true},
		{"eth-usd", true},
		{"BTC/USD", true},
		{"AAPL", false},
		{"BRK-B", false},
	}
	for _, tt := range tests {
		if got := IsCryptoSymbol(tt.symbol); got != tt.want {
			t.Errorf("IsCryptoSymbol(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
	if got := alpacaCryptoSymbol("eth-usd"); got != "ETH/USD" {
		t.Errorf("alpacaCryptoSymbol = %s", got)
	}
}
