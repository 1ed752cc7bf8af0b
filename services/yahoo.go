package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/internal/series"
	"finance-dashboard/models"
	"finance-dashboard/observability"
)

const (
	DefaultYahooBaseURL   = "https://query1.finance.yahoo.com"
	DefaultYahooUserAgent = "Mozilla/5.0 (compatible; finance-dashboard/1.0)"
)

// YahooService reads quotes and daily history from the Yahoo v8 chart API
type YahooService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retry      RetryConfig
}

// NewYahooService creates a YahooService. Empty arguments select the public endpoint.
func NewYahooService(baseURL, userAgent string) *YahooService {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultYahooUserAgent
	}
	return &YahooService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig,
	}
}

// WithRetryConfig overrides the backoff policy, mainly for tests
func (s *YahooService) WithRetryConfig(cfg RetryConfig) *YahooService {
	s.retry = cfg
	return s
}

func (s *YahooService) Name() string { return BreakerYahoo }

// chartEnvelope is the subset of the chart response needed to find the result
// or the upstream's error description.
type chartEnvelope struct {
	Chart struct {
		Result []json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartMeta carries the quote statistics attached to every chart result
type chartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	ExchangeName         string  `json:"exchangeName"`
	FullExchangeName     string  `json:"fullExchangeName"`
	InstrumentType       string  `json:"instrumentType"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	ChartPreviousClose   float64 `json:"chartPreviousClose"`
	PreviousClose        float64 `json:"previousClose"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  float64 `json:"regularMarketVolume"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
}

// GetHistory returns the raw chart result for daily bars in [start, end]
func (s *YahooService) GetHistory(ctx context.Context, symbol string, start, end time.Time) (any, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	result, err := s.chart(ctx, "history", symbol, params)
	if err != nil {
		return nil, err
	}
	return series.Decode(result), nil
}

// GetQuote builds a snapshot from the chart metadata of a short window
func (s *YahooService) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	params := url.Values{}
	params.Set("range", "5d")
	params.Set("interval", "1d")

	result, err := s.chart(ctx, "quote", symbol, params)
	if err != nil {
		return nil, err
	}

	var body struct {
		Meta       chartMeta `json:"meta"`
		Indicators struct {
			Quote []struct {
				Open []*float64 `json:"open"`
			} `json:"quote"`
		} `json:"indicators"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return nil, fmt.Errorf("failed to decode chart meta: %w", err)
	}

	meta := body.Meta
	q := &models.QuoteSnapshot{
		Symbol:           strings.ToUpper(symbol),
		Price:            meta.RegularMarketPrice,
		PreviousClose:    meta.PreviousClose,
		High:             meta.RegularMarketDayHigh,
		Low:              meta.RegularMarketDayLow,
		Volume:           meta.RegularMarketVolume,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		Exchange:         meta.FullExchangeName,
		Currency:         meta.Currency,
		ShortName:        meta.ShortName,
		LongName:         meta.LongName,
		QuoteType:        meta.InstrumentType,
	}
	if q.PreviousClose == 0 {
		q.PreviousClose = meta.ChartPreviousClose
	}
	if q.Exchange == "" {
		q.Exchange = meta.ExchangeName
	}
	if quotes := body.Indicators.Quote; len(quotes) > 0 {
		opens := quotes[0].Open
		for i := len(opens) - 1; i >= 0; i-- {
			if opens[i] != nil {
				q.Open = *opens[i]
				break
			}
		}
	}
	return q, nil
}

// chart fetches /v8/finance/chart/{symbol} and returns chart.result[0]
func (s *YahooService) chart(ctx context.Context, op, symbol string, params url.Values) (json.RawMessage, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, op)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerYahoo, op)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(strings.ToUpper(symbol)), params.Encode())

	result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (json.RawMessage, error) {
		var out json.RawMessage
		err := WithRetry(ctx, s.retry, func() error {
			var err error
			out, err = s.get(ctx, symbol, endpoint)
			return err
		})
		return out, err
	})
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, op, errorType(err))
		return nil, err
	}
	return result, nil
}

func (s *YahooService) get(ctx context.Context, symbol, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to build chart request: %w", err))
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart: %w", err)
	}

	var env chartEnvelope
	decodeErr := json.Unmarshal(data, &env)

	if err := classifyStatus(BreakerYahoo, symbol, resp.StatusCode); err != nil {
		return nil, err
	}

	switch {
	case decodeErr != nil:
		return nil, fmt.Errorf("failed to decode chart: %w", decodeErr)
	case env.Chart.Error != nil:
		return nil, Permanent(fmt.Errorf("%s: %s: %w", symbol, env.Chart.Error.Description, ErrSymbolNotFound))
	case len(env.Chart.Result) == 0:
		return nil, Permanent(fmt.Errorf("%s: empty chart result: %w", symbol, ErrSymbolNotFound))
	}
	return env.Chart.Result[0], nil
}
