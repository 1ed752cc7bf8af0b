package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one OHLCV observation for a single time bucket
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ChartPoint is the normalized, wire-facing form of a Bar. Price is the close.
type ChartPoint struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Open   float64   `json:"open"`
}

// Point converts a bar into its chart representation
func (b Bar) Point() ChartPoint {
	return ChartPoint{
		Date:   b.Timestamp.UTC(),
		Price:  b.Close,
		Volume: b.Volume,
		High:   b.High,
		Low:    b.Low,
		Open:   b.Open,
	}
}

// Up reports whether the point closed at or above its open
func (p ChartPoint) Up() bool {
	return p.Price >= p.Open
}

// Series is an ordered sequence of chart points, non-decreasing by date
type Series []ChartPoint

// Span returns the time covered from the first to the last point
func (s Series) Span() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Date.Sub(s[0].Date)
}

// SpanDays returns the covered span in whole days, rounded to nearest
func (s Series) SpanDays() int {
	return int(s.Span().Hours()/24 + 0.5)
}

// MaxVolume returns the largest volume in the series
func (s Series) MaxVolume() float64 {
	var peak float64
	for _, p := range s {
		if p.Volume > peak {
			peak = p.Volume
		}
	}
	return peak
}

// AssetClass distinguishes the upstream universe a symbol belongs to
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// QuoteSnapshot is a flat record of current price and market statistics.
// Missing numeric fields are zero.
type QuoteSnapshot struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"changePercent"`
	PreviousClose    float64 `json:"previousClose"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Volume           float64 `json:"volume"`
	MarketCap        float64 `json:"marketCap"`
	PERatio          float64 `json:"peRatio"`
	DividendYield    float64 `json:"dividendYield"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
	AverageVolume    float64 `json:"averageVolume"`
	PriceToBook      float64 `json:"priceToBook"`
	Beta             float64 `json:"beta"`
	Exchange         string  `json:"exchange"`
	Currency         string  `json:"currency"`
	ShortName        string  `json:"shortName"`
	LongName         string  `json:"longName"`

	// Crypto-only fields
	CirculatingSupply float64 `json:"circulatingSupply,omitempty"`
	TotalSupply       float64 `json:"totalSupply,omitempty"`
	BookValue         float64 `json:"bookValue,omitempty"`
	QuoteType         string  `json:"quoteType,omitempty"`
	MarketState       string  `json:"marketState,omitempty"`
}

// ApplyDefaults fills derived and fallback fields the way the dashboard expects
func (q *QuoteSnapshot) ApplyDefaults(class AssetClass) {
	q.Change = q.Price - q.PreviousClose
	if q.ChangePercent == 0 && q.PreviousClose != 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
	if q.ShortName == "" {
		q.ShortName = q.LongName
	}
	if q.LongName == "" {
		q.LongName = q.ShortName
	}
	if q.ShortName == "" {
		q.ShortName = q.Symbol
		q.LongName = q.Symbol
	}

	switch class {
	case AssetCrypto:
		if q.Exchange == "" {
			q.Exchange = "Crypto Exchange"
		}
		if q.QuoteType == "" {
			q.QuoteType = "CRYPTOCURRENCY"
		}
		if q.MarketState == "" {
			q.MarketState = "REGULAR"
		}
	default:
		if q.Exchange == "" {
			q.Exchange = "N/A"
		}
	}
}

// FormatPrice renders a value as dollars with two decimals
func FormatPrice(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// FormatMillions renders a volume in millions with one decimal, e.g. "12.3M"
func FormatMillions(v float64) string {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(1_000_000)).StringFixed(1) + "M"
}
