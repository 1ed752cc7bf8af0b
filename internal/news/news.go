// Package news serves per-symbol article files with sentiment filtering and
// pagination. Records are validated leniently: malformed fields fall back to
// defaults rather than failing the whole file.
package news

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"finance-dashboard/internal/paging"
	"finance-dashboard/models"
)

var (
	// ErrUnknownSymbol is returned for symbols without a news feed
	ErrUnknownSymbol = errors.New("no news data available for symbol")
	// ErrNotFound is returned when a known symbol's news file is missing
	ErrNotFound = errors.New("news file not found")
)

// DefaultSymbols are the symbols with news files
var DefaultSymbols = []string{"AMZN", "AVGO", "COST", "GOOG", "META", "MSFT", "NFLX", "NVDA", "ORCL", "TSM"}

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Query selects one page of news
type Query struct {
	Page      int
	Limit     int
	Sentiment string
}

// Store reads and caches news files from a directory
type Store struct {
	dir     string
	symbols map[string]bool

	mu    sync.RWMutex
	cache map[string][]models.NewsItem
}

// NewStore creates a store over dir serving the given symbols. No symbols
// means DefaultSymbols.
func NewStore(dir string, symbols ...string) *Store {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	known := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		known[strings.ToUpper(s)] = true
	}
	return &Store{
		dir:     dir,
		symbols: known,
		cache:   make(map[string][]models.NewsItem),
	}
}

// Symbols lists the served symbols in sorted order
func (s *Store) Symbols() []string {
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}

// Load returns every validated record for a symbol
func (s *Store) Load(symbol string) ([]models.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !s.symbols[symbol] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	s.mu.RLock()
	items, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok {
		return items, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, symbol+"_news.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("read news for %s: %w", symbol, err)
	}
	items, err = Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse news for %s: %w", symbol, err)
	}

	s.mu.Lock()
	s.cache[symbol] = items
	s.mu.Unlock()
	return items, nil
}

// Page loads a symbol's news and returns the requested page
func (s *Store) Page(symbol string, q Query) (*models.NewsPage, error) {
	items, err := s.Load(symbol)
	if err != nil {
		return nil, err
	}
	page := Paginate(items, q)
	page.Symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return &page, nil
}

// Reload drops cached files so the next request rereads them. It returns
// how many symbols were cached.
func (s *Store) Reload() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache)
	s.cache = make(map[string][]models.NewsItem)
	return n
}

// NormalizeSentiment returns POSITIVE or NEGATIVE, or ALL for anything else
func NormalizeSentiment(v string) string {
	switch up := strings.ToUpper(strings.TrimSpace(v)); up {
	case models.SentimentPositive, models.SentimentNegative:
		return up
	}
	return models.SentimentAll
}

// Filter keeps records with at least one sentiment entry matching the label.
// ALL keeps everything.
func Filter(items []models.NewsItem, sentiment string) []models.NewsItem {
	label := NormalizeSentiment(sentiment)
	if label == models.SentimentAll {
		return items
	}
	out := make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		if it.HasSentiment(label) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate filters then slices one 1-based page. Page below 1 becomes 1 and
// limit below 1 becomes 10.
func Paginate(items []models.NewsItem, q Query) models.NewsPage {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}

	filtered := Filter(items, q.Sentiment)
	start, end, hasMore := paging.Window(len(filtered), q.Page, q.Limit)

	news := make([]models.NewsItem, end-start)
	copy(news, filtered[start:end])

	return models.NewsPage{
		News:      news,
		Total:     len(filtered),
		Page:      q.Page,
		Limit:     q.Limit,
		HasMore:   hasMore,
		Sentiment: NormalizeSentiment(q.Sentiment),
	}
}

// Parse decodes a news file. The top level must be an array; each record is
// validated independently.
func Parse(data []byte) ([]models.NewsItem, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("news file must be a JSON array: %w", err)
	}
	items := make([]models.NewsItem, 0, len(raw))
	for _, r := range raw {
		var rec map[string]any
		if err := json.Unmarshal(r, &rec); err != nil {
			rec = nil
		}
		items = append(items, Validate(rec))
	}
	return items, nil
}

// Validate builds a record from loosely typed JSON, applying defaults
func Validate(rec map[string]any) models.NewsItem {
	item := models.NewsItem{
		Link:           stringField(rec, "link"),
		ArticleContent: stringField(rec, "artical_content"),
		Sentiment:      sentiments(rec["sentiment"]),
		Summary:        models.NewsSummary{Chunks: [][]models.SummaryText{}, Final: []models.SummaryText{}},
	}

	summary, _ := rec["summary"].(map[string]any)
	if chunks, ok := summary["chunks"].([]any); ok {
		for _, c := range chunks {
			list, _ := c.([]any)
			item.Summary.Chunks = append(item.Summary.Chunks, summaryTexts(list))
		}
	}
	if final, ok := summary["final"].([]any); ok {
		item.Summary.Final = summaryTexts(final)
	}
	return item
}

func stringField(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

func sentiments(v any) []models.Sentiment {
	list, _ := v.([]any)
	out := make([]models.Sentiment, 0, len(list))
	for _, e := range list {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		label, hasLabel := obj["label"].(string)
		score, hasScore := obj["score"].(float64)
		if !hasLabel || !hasScore {
			continue
		}
		out = append(out, models.Sentiment{Label: label, Score: score})
	}
	if len(out) == 0 {
		return []models.Sentiment{{Label: models.SentimentNeutral, Score: 0.5}}
	}
	return out
}

func summaryTexts(list []any) []models.SummaryText {
	out := make([]models.SummaryText, 0, len(list))
	for _, e := range list {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		text, _ := obj["summary_text"].(string)
		out = append(out, models.SummaryText{SummaryText: text})
	}
	return out
}
