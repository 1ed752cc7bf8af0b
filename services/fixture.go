package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finance-dashboard/internal/series"
	"finance-dashboard/models"
	"finance-dashboard/observability"
)

// FixtureService serves history from <dir>/<SYMBOL>.json files in any of the
// shapes the series normalizer accepts. Used for offline runs and demos.
type FixtureService struct {
	dir string
}

// NewFixtureService creates a provider rooted at dir
func NewFixtureService(dir string) *FixtureService {
	return &FixtureService{dir: dir}
}

func (s *FixtureService) Name() string { return BreakerFixture }

// GetHistory returns the fixture's points within [start, end] as {quotes: [...]}
func (s *FixtureService) GetHistory(ctx context.Context, symbol string, start, end time.Time) (any, error) {
	points, err := s.load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quotes := make([]any, 0, len(points))
	for _, p := range points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		quotes = append(quotes, barObject(p.Date, p.Open, p.High, p.Low, p.Price, p.Volume))
	}
	return map[string]any{"quotes": quotes}, nil
}

// GetQuote derives a snapshot from the last two points of the fixture
func (s *FixtureService) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	points, err := s.load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: empty fixture: %w", symbol, ErrSymbolNotFound)
	}

	last := points[len(points)-1]
	q := &models.QuoteSnapshot{
		Symbol: strings.ToUpper(symbol),
		Price:  last.Price,
		Open:   last.Open,
		High:   last.High,
		Low:    last.Low,
		Volume: last.Volume,
	}
	if len(points) > 1 {
		q.PreviousClose = points[len(points)-2].Price
	}

	yearAgo := last.Date.AddDate(-1, 0, 0)
	var volumeSum float64
	var n int
	for _, p := range points {
		if p.Date.Before(yearAgo) {
			continue
		}
		high, low := p.High, p.Low
		if high == 0 {
			high = p.Price
		}
		if low == 0 {
			low = p.Price
		}
		if high > q.FiftyTwoWeekHigh {
			q.FiftyTwoWeekHigh = high
		}
		if q.FiftyTwoWeekLow == 0 || low < q.FiftyTwoWeekLow {
			q.FiftyTwoWeekLow = low
		}
		volumeSum += p.Volume
		n++
	}
	if n > 0 {
		q.AverageVolume = volumeSum / float64(n)
	}
	if IsCryptoSymbol(symbol) {
		q.QuoteType = "CRYPTOCURRENCY"
	}
	return q, nil
}

func (s *FixtureService) load(ctx context.Context, symbol string) (models.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return nil, fmt.Errorf("%q: %w", symbol, ErrSymbolNotFound)
	}

	return WithCircuitBreaker(ctx, BreakerFixture, func() (models.Series, error) {
		data, err := os.ReadFile(filepath.Join(s.dir, symbol+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture for %s: %w", symbol, err)
		}

		raw := series.Decode(data)
		points := series.Normalize(raw)
		observability.Debug("fixture loaded",
			"symbol", symbol,
			"shape", series.DetectShape(raw).String(),
			"points", len(points))
		return points, nil
	})
}
