//go:build e2e
// +build e2e

package scenarios

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"finance-dashboard/config"
	"finance-dashboard/e2e"
	"finance-dashboard/models"
)

type marketBody struct {
	Quote        models.QuoteSnapshot `json:"quote"`
	History      models.Series        `json:"history"`
	HistoryError string               `json:"historyError"`
}

func setup(t *testing.T, providers ...string) *e2e.TestHarness {
	t.Helper()
	harness := e2e.NewTestHarness(t)
	var err error
	if len(providers) == 2 {
		err = harness.SetupWith(providers[0], providers[1])
	} else {
		err = harness.Setup()
	}
	if err != nil {
		t.Fatalf("failed to setup test harness: %v", err)
	}
	t.Cleanup(harness.Teardown)
	return harness
}

func decodeMarket(t *testing.T, body []byte) marketBody {
	t.Helper()
	var out marketBody
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode market response: %v", err)
	}
	return out
}

func TestDashboard_StockThroughYahoo(t *testing.T) {
	harness := setup(t)

	t.Run("thirty day window with quote", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/stock?symbol=AAPL", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}

		body := decodeMarket(t, resp.Body.Bytes())
		if n := len(body.History); n < 29 || n > 31 {
			t.Errorf("expected about 30 points, got %d", n)
		}
		last := body.History[len(body.History)-1]
		if body.Quote.Price != last.Price {
			t.Errorf("quote price %v should equal last close %v", body.Quote.Price, last.Price)
		}
		if body.Quote.Currency != "USD" || body.Quote.QuoteType != "EQUITY" {
			t.Errorf("unexpected quote metadata: %+v", body.Quote)
		}
		for i := 1; i < len(body.History); i++ {
			if !body.History[i-1].Date.Before(body.History[i].Date) {
				t.Fatalf("history not strictly ascending at %d", i)
			}
		}
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		before := harness.MockServer().CountRequests("/v8/finance/chart/AAPL")
		resp := harness.DoRequest(http.MethodGet, "/api/stock?symbol=aapl", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if after := harness.MockServer().CountRequests("/v8/finance/chart/AAPL"); after != before {
			t.Errorf("expected no upstream calls, got %d", after-before)
		}
	})

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		before := harness.MockServer().CountRequests("/v8/finance/chart/AAPL")
		harness.DoRequest(http.MethodGet, "/api/stock?symbol=AAPL&refresh=true", "")
		if after := harness.MockServer().CountRequests("/v8/finance/chart/AAPL"); after == before {
			t.Error("expected refresh to hit the upstream")
		}
	})

	t.Run("maximum history is downsampled to the budget", func(t *testing.T) {
		harness.MockServer().ClearRequestLog()
		resp := harness.DoRequest(http.MethodGet, "/api/stock?symbol=MSFT&days=0&sample=50", "")
		body := decodeMarket(t, resp.Body.Bytes())
		if len(body.History) != 50 {
			t.Fatalf("expected 50 points, got %d", len(body.History))
		}

		var quoteCalls, historyCalls int
		for _, req := range harness.MockServer().GetRequestLog() {
			switch {
			case strings.Contains(req.Query, "range=5d"):
				quoteCalls++
			case strings.Contains(req.Query, "period1="):
				historyCalls++
			}
		}
		if quoteCalls != 1 || historyCalls == 0 {
			t.Errorf("upstream calls: %d quote, %d history", quoteCalls, historyCalls)
		}

		full := decodeMarket(t, harness.DoRequest(http.MethodGet, "/api/stock?symbol=MSFT&days=0", "").Body.Bytes())
		if len(full.History) != 400 {
			t.Fatalf("expected the full 400 points, got %d", len(full.History))
		}
		if !body.History[0].Date.Equal(full.History[0].Date) || !body.History[49].Date.Equal(full.History[399].Date) {
			t.Error("downsampling must keep the first and last points")
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/stock?symbol=ZZZZ", "")
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.Code)
		}
		var errResp map[string]string
		json.Unmarshal(resp.Body.Bytes(), &errResp)
		if errResp["error"] != "Failed to fetch stock data" {
			t.Errorf("unexpected error message: %s", errResp["error"])
		}
	})
}

func TestDashboard_CryptoThroughAlpaca(t *testing.T) {
	harness := setup(t)

	resp := harness.DoRequest(http.MethodGet, "/api/crypto?symbol=BTC-USD&days=90", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeMarket(t, resp.Body.Bytes())
	if n := len(body.History); n < 89 || n > 91 {
		t.Errorf("expected about 90 points, got %d", n)
	}
	if body.Quote.QuoteType != "CRYPTOCURRENCY" || body.Quote.Price <= 0 {
		t.Errorf("unexpected quote: %+v", body.Quote)
	}
	if harness.MockServer().CountRequests("/v1beta3/crypto/us/bars") == 0 {
		t.Error("expected the crypto bars endpoint to be called")
	}

	resp = harness.DoRequest(http.MethodGet, "/api/crypto?symbol=NOPE-USD", "")
	if resp.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown pair, got %d", resp.Code)
	}
}

func TestDashboard_StocksThroughAlpaca(t *testing.T) {
	harness := setup(t, config.ProviderAlpaca, config.ProviderAlpaca)

	resp := harness.DoRequest(http.MethodGet, "/api/stock?symbol=MSFT&days=7", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeMarket(t, resp.Body.Bytes())
	if len(body.History) == 0 || body.Quote.PreviousClose == 0 {
		t.Errorf("unexpected body: %+v", body)
	}
	if harness.MockServer().CountRequests("/v2/stocks/bars") == 0 {
		t.Error("expected the stock bars endpoint to be called")
	}
}

func TestDashboard_UpstreamOutage(t *testing.T) {
	harness := setup(t)
	harness.MockServer().SetFailure("AAPL", http.StatusServiceUnavailable)

	resp := harness.DoRequest(http.MethodGet, "/api/chart/AAPL.png", "")
	if resp.Code != http.StatusBadGateway && resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected an upstream error status, got %d", resp.Code)
	}

	harness.MockServer().SetFailure("AAPL", 0)
	health := harness.DoRequest(http.MethodGet, "/api/health", "")
	if health.Code != http.StatusOK {
		t.Errorf("health should stay reachable, got %d", health.Code)
	}
}

func TestDashboard_ChartImagesAndSessions(t *testing.T) {
	harness := setup(t)

	t.Run("crypto candlestick svg", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/chart/ETH-USD.svg?type=candlestick&tf=3M", "")
		if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "<svg") {
			t.Fatalf("expected svg, got %d", resp.Code)
		}
	})

	t.Run("interactive page", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/chart/MSFT/interactive?tf=1Y", "")
		if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "MSFT") {
			t.Fatalf("expected interactive page, got %d", resp.Code)
		}
	})

	t.Run("session hover and switch symbol", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodPost, "/api/chart/sessions", `{"symbol":"AAPL","days":365,"type":"line"}`)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
		var created struct {
			ID    string `json:"id"`
			Frame struct {
				Points int `json:"points"`
			} `json:"frame"`
		}
		json.Unmarshal(resp.Body.Bytes(), &created)
		if created.Frame.Points < 250 {
			t.Errorf("expected a year of points, got %d", created.Frame.Points)
		}
		base := "/api/chart/sessions/" + created.ID

		resp = harness.DoRequest(http.MethodPost, base+"/pointer", `{"x":450,"y":120}`)
		if !strings.Contains(resp.Body.String(), `"tooltip"`) {
			t.Errorf("expected a tooltip after pointer move: %s", resp.Body.String())
		}
		overlay := harness.DoHTMXRequest(http.MethodGet, base+"/tooltip")
		if !strings.Contains(overlay.Body.String(), "chart-tooltip") {
			t.Errorf("expected tooltip overlay, got %s", overlay.Body.String())
		}

		resp = harness.DoRequest(http.MethodPost, base+"/load", `{"symbol":"BTC-USD","days":30}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected load to succeed, got %d: %s", resp.Code, resp.Body.String())
		}

		png := harness.DoRequest(http.MethodGet, base+"/frame.png", "")
		if png.Header().Get("Content-Type") != "image/png" {
			t.Errorf("unexpected frame content type %s", png.Header().Get("Content-Type"))
		}

		if resp := harness.DoRequest(http.MethodDelete, base, ""); resp.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.Code)
		}
	})
}

func TestDashboard_News(t *testing.T) {
	harness := setup(t)

	tests := []struct {
		name      string
		path      string
		status    int
		wantTotal int
	}{
		{"all articles", "/api/news?symbol=MSFT", http.StatusOK, 4},
		{"positive only", "/api/news?symbol=MSFT&sentiment=POSITIVE", http.StatusOK, 2},
		{"negative only", "/api/news?symbol=MSFT&sentiment=negative", http.StatusOK, 1},
		{"unknown symbol", "/api/news?symbol=AAPL", http.StatusNotFound, 0},
		{"missing file", "/api/news?symbol=NVDA", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := harness.DoRequest(http.MethodGet, tt.path, "")
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var page models.NewsPage
			json.Unmarshal(resp.Body.Bytes(), &page)
			if page.Total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, page.Total)
			}
		})
	}

	t.Run("partial renders a page of articles", func(t *testing.T) {
		resp := harness.DoHTMXRequest(http.MethodGet, "/partials/news?symbol=MSFT&limit=2")
		body := resp.Body.String()
		if !strings.Contains(body, "Azure revenue grew 30%.") || !strings.Contains(body, `data-page="2"`) {
			t.Errorf("unexpected partial: %s", body)
		}
	})
}
