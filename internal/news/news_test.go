package news

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finance-dashboard/models"
)

func item(labels ...string) models.NewsItem {
	it := models.NewsItem{Link: "https://example.com/" + strings.Join(labels, "-")}
	for _, l := range labels {
		it.Sentiment = append(it.Sentiment, models.Sentiment{Label: l, Score: 0.9})
	}
	return it
}

// fixture: 6 POSITIVE records then 4 NEGATIVE
func fixture() []models.NewsItem {
	var items []models.NewsItem
	for i := 0; i < 6; i++ {
		items = append(items, item(models.SentimentPositive))
	}
	for i := 0; i < 4; i++ {
		items = append(items, item(models.SentimentNegative))
	}
	return items
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		q         Query
		wantLen   int
		wantTotal int
		wantMore  bool
		wantPage  int
		wantLimit int
		wantSent  string
	}{
		{"positive first page", Query{Page: 1, Limit: 5, Sentiment: "POSITIVE"}, 5, 6, true, 1, 5, "POSITIVE"},
		{"positive second page", Query{Page: 2, Limit: 5, Sentiment: "POSITIVE"}, 1, 6, false, 2, 5, "POSITIVE"},
		{"negative", Query{Page: 1, Limit: 5, Sentiment: "NEGATIVE"}, 4, 4, false, 1, 5, "NEGATIVE"},
		{"all", Query{Page: 1, Limit: 5}, 5, 10, true, 1, 5, "ALL"},
		{"lowercase filter", Query{Page: 1, Limit: 10, Sentiment: "negative"}, 4, 4, false, 1, 10, "NEGATIVE"},
		{"unknown filter means all", Query{Page: 1, Limit: 10, Sentiment: "NEUTRAL"}, 10, 10, false, 1, 10, "ALL"},
		{"page below one", Query{Page: 0, Limit: 3}, 3, 10, true, 1, 3, "ALL"},
		{"limit below one", Query{Page: 1, Limit: -4}, 10, 10, false, 1, 10, "ALL"},
		{"past the end", Query{Page: 9, Limit: 5}, 0, 10, false, 9, 5, "ALL"},
		{"huge limit on second page", Query{Page: 2, Limit: math.MaxInt}, 0, 10, false, 2, math.MaxInt, "ALL"},
		{"huge limit", Query{Page: 1, Limit: math.MaxInt}, 10, 10, false, 1, math.MaxInt, "ALL"},
		{"huge page", Query{Page: math.MaxInt / 2, Limit: 4}, 0, 10, false, math.MaxInt / 2, 4, "ALL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(fixture(), tt.q)
			if len(p.News) != tt.wantLen || p.Total != tt.wantTotal || p.HasMore != tt.wantMore {
				t.Errorf("got len=%d total=%d more=%v, want len=%d total=%d more=%v",
					len(p.News), p.Total, p.HasMore, tt.wantLen, tt.wantTotal, tt.wantMore)
			}
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit || p.Sentiment != tt.wantSent {
				t.Errorf("got page=%d limit=%d sentiment=%s", p.Page, p.Limit, p.Sentiment)
			}
			if p.News == nil {
				t.Error("News should be an empty slice, not nil")
			}
		})
	}
}

func TestFilter_AnyEntryMatches(t *testing.T) {
	items := []models.NewsItem{
		item(models.SentimentNeutral, models.SentimentNegative),
		item(models.SentimentPositive),
	}
	got := Filter(items, models.SentimentNegative)
	if len(got) != 1 || got[0].Link != items[0].Link {
		t.Errorf("Filter = %+v", got)
	}
}

func TestValidate_Defaults(t *testing.T) {
	items, err := Parse([]byte(`[
		{"link": "a", "artical_content": "body", "sentiment": [{"label": "POSITIVE", "score": 0.8}],
		 "summary": {"chunks": [[{"summary_text": "c1"}]], "final": [{"summary_text": "f"}]}},
		{"link": 42, "sentiment": []},
		{"sentiment": [{"label": "POSITIVE"}, "junk", {"score": 0.2}]},
		{"sentiment": [{"label": "NEGATIVE", "score": 0.7}, {"label": "x"}], "summary": "bad"},
		"not an object"
	]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5", len(items))
	}

	full := items[0]
	if full.Link != "a" || full.ArticleContent != "body" || len(full.Summary.Chunks) != 1 || full.Summary.Final[0].SummaryText != "f" {
		t.Errorf("full record = %+v", full)
	}

	neutral := []models.Sentiment{{Label: models.SentimentNeutral, Score: 0.5}}
	for i, idx := range []int{1, 2, 4} {
		it := items[idx]
		if len(it.Sentiment) != 1 || it.Sentiment[0] != neutral[0] {
			t.Errorf("case %d: sentiment = %+v, want NEUTRAL 0.5", i, it.Sentiment)
		}
		if it.Summary.Chunks == nil || it.Summary.Final == nil {
			t.Errorf("case %d: summary arrays should default to empty", i)
		}
	}
	if items[1].Link != "" {
		t.Errorf("non-string link = %q, want empty", items[1].Link)
	}

	mixed := items[3]
	if len(mixed.Sentiment) != 1 || mixed.Sentiment[0].Label != models.SentimentNegative {
		t.Errorf("malformed entries should be dropped, got %+v", mixed.Sentiment)
	}
}

func TestParse_NotArray(t *testing.T) {
	if _, err := Parse([]byte(`{"news": []}`)); err == nil {
		t.Error("object top level should fail")
	}
}

func writeNews(t *testing.T, dir, symbol string, n int) {
	t.Helper()
	var recs []string
	for i := 0; i < n; i++ {
		label := models.SentimentPositive
		if i%2 == 1 {
			label = models.SentimentNegative
		}
		recs = append(recs, fmt.Sprintf(`{"link":"https://news/%d","artical_content":"x","sentiment":[{"label":%q,"score":0.9}]}`, i, label))
	}
	path := filepath.Join(dir, symbol+"_news.json")
	if err := os.WriteFile(path, []byte("["+strings.Join(recs, ",")+"]"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	writeNews(t, dir, "NVDA", 7)
	s := NewStore(dir)

	page, err := s.Page("nvda", Query{Page: 1, Limit: 3, Sentiment: "POSITIVE"})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Symbol != "NVDA" || page.Total != 4 || len(page.News) != 3 || !page.HasMore {
		t.Errorf("page = %+v", page)
	}

	if _, err := s.Page("AAPL", Query{}); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("unknown symbol error = %v", err)
	}
	if _, err := s.Page("MSFT", Query{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	writeNews(t, dir, "META", 2)
	s := NewStore(dir)

	items, err := s.Load("META")
	if err != nil || len(items) != 2 {
		t.Fatalf("Load = %d, %v", len(items), err)
	}

	writeNews(t, dir, "META", 5)
	if items, _ := s.Load("META"); len(items) != 2 {
		t.Errorf("cached load = %d, want 2", len(items))
	}
	if n := s.Reload(); n != 1 {
		t.Errorf("Reload dropped %d, want 1", n)
	}
	if items, _ := s.Load("META"); len(items) != 5 {
		t.Errorf("reloaded = %d, want 5", len(items))
	}
}

func TestStore_CustomSymbols(t *testing.T) {
	s := NewStore(t.TempDir(), "aapl", "ibm")
	got := s.Symbols()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "IBM" {
		t.Errorf("Symbols = %v", got)
	}
}
