package mocks

import "time"

// DailyBar is one day of OHLCV data served by both mock upstreams.
type DailyBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// AlpacaBar represents OHLCV bar data from Alpaca.
type AlpacaBar struct {
	Timestamp string  `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Trades    int     `json:"n"`
	VWAP      float64 `json:"vw"`
}

// AlpacaTrade is the latest trade in a snapshot.
type AlpacaTrade struct {
	Timestamp string  `json:"t"`
	Price     float64 `json:"p"`
	Size      float64 `json:"s"`
}

// AlpacaSnapshot is the per-symbol snapshot payload.
type AlpacaSnapshot struct {
	LatestTrade  *AlpacaTrade `json:"latestTrade,omitempty"`
	DailyBar     *AlpacaBar   `json:"dailyBar,omitempty"`
	PrevDailyBar *AlpacaBar   `json:"prevDailyBar,omitempty"`
}

// YahooMeta is the chart.result[].meta block.
type YahooMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	ExchangeName         string  `json:"exchangeName"`
	FullExchangeName     string  `json:"fullExchangeName"`
	InstrumentType       string  `json:"instrumentType"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	ChartPreviousClose   float64 `json:"chartPreviousClose"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  float64 `json:"regularMarketVolume"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
}

// YahooQuoteArrays holds the parallel indicator arrays.
type YahooQuoteArrays struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// YahooChartResult is one chart.result[] entry.
type YahooChartResult struct {
	Meta       YahooMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []YahooQuoteArrays `json:"quote"`
	} `json:"indicators"`
}

// YahooError is chart.error.
type YahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooChartResponse is the /v8/finance/chart envelope.
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *YahooError        `json:"error"`
	} `json:"chart"`
}
