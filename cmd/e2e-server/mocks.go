package main

import (
	"os"
	"path/filepath"
	"time"

	"finance-dashboard/e2e"
	"finance-dashboard/e2e/mocks"

	"github.com/shopspring/decimal"
)

// outageSymbol always answers 503 so UI tests can exercise error states
const outageSymbol = "DOWN"

// seedUpstream adds the symbols the Playwright suite browses on top of the
// mock server defaults.
func seedUpstream(m *mocks.MockServer) {
	end := time.Now().UTC().Truncate(24 * time.Hour)

	// A sub-dollar coin exercises the small-price tooltip formatting
	doge := mocks.GenerateBars(end, 400, 0.15, 5)
	for i := range doge {
		doge[i].Close = roundPrice(doge[i].Close, 6)
	}
	m.SetBars("DOGE/USD", doge)

	// Long history for the MAX timeframe fallback chain
	m.SetBars("SPY", mocks.GenerateBars(end, 365*12, 120, 6))

	// A symbol with a single bar: the chart draws one point at the left edge
	m.SetBars("IPO", mocks.GenerateBars(end, 1, 42, 7))

	m.SetFailure(outageSymbol, 503)
}

// seedNews writes the sample article file the UI suite pages through
func seedNews(dir string) error {
	return os.WriteFile(filepath.Join(dir, "MSFT_news.json"), []byte(e2e.SampleNews), 0o644)
}

func roundPrice(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
