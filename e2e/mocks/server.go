// Package mocks provides HTTP mock servers for the market data upstreams used in E2E tests.
package mocks

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockServer serves the Yahoo chart API and the Alpaca market data API
// from an in-memory set of daily bars.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations, keyed by upstream symbol (AAPL, BTC/USD)
	bars map[string][]DailyBar

	// Error injection: symbol -> HTTP status
	failures map[string]int

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
}

// NewMockServer creates a new mock server with default series.
func NewMockServer() *MockServer {
	m := &MockServer{
		bars:       make(map[string][]DailyBar),
		failures:   make(map[string]int),
		requestLog: make([]RequestLog, 0),
	}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP implements http.Handler to route requests to appropriate mock handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
	})
	m.mu.Unlock()

	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/v8/finance/chart/"):
		m.handleYahooChart(w, r)
	case path == "/v2/stocks/bars" || path == "/v1beta3/crypto/us/bars":
		m.handleAlpacaBars(w, r)
	case path == "/v2/stocks/snapshots":
		m.handleAlpacaSnapshots(w, r, false)
	case path == "/v1beta3/crypto/us/snapshots":
		m.handleAlpacaSnapshots(w, r, true)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// CountRequests returns how many logged requests hit a path prefix.
func (m *MockServer) CountRequests(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requestLog {
		if strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetBars replaces the series for a symbol.
func (m *MockServer) SetBars(symbol string, bars []DailyBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
}

// SetFailure makes every request for a symbol answer with status.
// A zero status clears the failure.
func (m *MockServer) SetFailure(symbol string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == 0 {
		delete(m.failures, symbol)
		return
	}
	m.failures[symbol] = status
}

func (m *MockServer) setDefaults() {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	m.bars["AAPL"] = GenerateBars(end, 400, 185, 1)
	m.bars["MSFT"] = GenerateBars(end, 400, 410, 2)
	m.bars["BTC/USD"] = GenerateBars(end, 400, 62000, 3)
	m.bars["ETH/USD"] = GenerateBars(end, 400, 3100, 4)
}

// GenerateBars builds n deterministic daily bars ending at end.
func GenerateBars(end time.Time, n int, base float64, seed int) []DailyBar {
	bars := make([]DailyBar, n)
	price := base
	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, i-n+1)
		drift := math.Sin(float64(i*seed)/7) * base * 0.01
		open := price
		price = math.Max(base*0.2, price+drift)
		bars[i] = DailyBar{
			Time:   day,
			Open:   round2(open),
			High:   round2(math.Max(open, price) * 1.01),
			Low:    round2(math.Min(open, price) * 0.99),
			Close:  round2(price),
			Volume: float64(1_000_000 + (i*seed*7919)%500_000),
		}
	}
	return bars
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// lookup returns the bars for symbol or the injected failure status
func (m *MockServer) lookup(symbol string) ([]DailyBar, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if status, ok := m.failures[symbol]; ok {
		return nil, status, false
	}
	bars, ok := m.bars[symbol]
	return bars, 0, ok
}

func within(bars []DailyBar, start, end time.Time) []DailyBar {
	out := make([]DailyBar, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (m *MockServer) handleYahooChart(w http.ResponseWriter, r *http.Request) {
	symbol, _ := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/"))
	symbol = strings.ToUpper(symbol)

	all, status, ok := m.lookup(symbol)
	var resp YahooChartResponse
	switch {
	case status != 0:
		http.Error(w, http.StatusText(status), status)
		return
	case !ok:
		resp.Chart.Error = &YahooError{Code: "Not Found", Description: "No data found, symbol may be delisted"}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	q := r.URL.Query()
	var bars []DailyBar
	if q.Get("range") == "5d" {
		bars = all[max(0, len(all)-5):]
	} else {
		bars = within(all, unixParam(q, "period1"), unixParam(q, "period2"))
	}

	last := all[len(all)-1]
	result := YahooChartResult{
		Meta: YahooMeta{
			Symbol:               symbol,
			Currency:             "USD",
			ExchangeName:         "NMS",
			FullExchangeName:     "NasdaqGS",
			InstrumentType:       "EQUITY",
			RegularMarketPrice:   last.Close,
			RegularMarketDayHigh: last.High,
			RegularMarketDayLow:  last.Low,
			RegularMarketVolume:  last.Volume,
			ShortName:            symbol,
			LongName:             symbol,
		},
		Timestamp: make([]int64, 0, len(bars)),
	}
	if len(all) > 1 {
		result.Meta.ChartPreviousClose = all[len(all)-2].Close
	}
	for _, b := range all[max(0, len(all)-252):] {
		result.Meta.FiftyTwoWeekHigh = math.Max(result.Meta.FiftyTwoWeekHigh, b.High)
		if result.Meta.FiftyTwoWeekLow == 0 || b.Low < result.Meta.FiftyTwoWeekLow {
			result.Meta.FiftyTwoWeekLow = b.Low
		}
	}

	var arrays YahooQuoteArrays
	for _, b := range bars {
		result.Timestamp = append(result.Timestamp, b.Time.Unix())
		arrays.Open = append(arrays.Open, ptr(b.Open))
		arrays.High = append(arrays.High, ptr(b.High))
		arrays.Low = append(arrays.Low, ptr(b.Low))
		arrays.Close = append(arrays.Close, ptr(b.Close))
		arrays.Volume = append(arrays.Volume, ptr(b.Volume))
	}
	result.Indicators.Quote = []YahooQuoteArrays{arrays}
	resp.Chart.Result = []YahooChartResult{result}
	writeJSON(w, http.StatusOK, resp)
}

func (m *MockServer) handleAlpacaBars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := time.Parse(time.RFC3339, q.Get("start"))
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		end = time.Now()
	}

	out := make(map[string][]AlpacaBar)
	for _, symbol := range strings.Split(q.Get("symbols"), ",") {
		all, status, ok := m.lookup(symbol)
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		if !ok {
			continue
		}
		for _, b := range within(all, start, end) {
			out[symbol] = append(out[symbol], alpacaBar(b))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bars":            out,
		"next_page_token": nil,
	})
}

func (m *MockServer) handleAlpacaSnapshots(w http.ResponseWriter, r *http.Request, crypto bool) {
	out := make(map[string]AlpacaSnapshot)
	for _, symbol := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		all, status, ok := m.lookup(symbol)
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		if !ok || len(all) == 0 {
			continue
		}
		last := all[len(all)-1]
		daily := alpacaBar(last)
		snap := AlpacaSnapshot{
			LatestTrade: &AlpacaTrade{Timestamp: last.Time.Format(time.RFC3339), Price: last.Close, Size: 100},
			DailyBar:    &daily,
		}
		if len(all) > 1 {
			prev := alpacaBar(all[len(all)-2])
			snap.PrevDailyBar = &prev
		}
		out[symbol] = snap
	}

	if crypto {
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": out})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func alpacaBar(b DailyBar) AlpacaBar {
	return AlpacaBar{
		Timestamp: b.Time.Format(time.RFC3339),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		Trades:    1000,
		VWAP:      round2((b.High + b.Low + b.Close) / 3),
	}
}

func unixParam(q url.Values, key string) time.Time {
	v, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func ptr(v float64) *float64 { return &v }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Symbols lists the symbols with configured bars.
func (m *MockServer) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.bars))
	for s := range m.bars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
