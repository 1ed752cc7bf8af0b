package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"finance-dashboard/internal/chart"
	"finance-dashboard/models"
)

// html collects markup and the first write error
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// TooltipOverlay renders the hover tooltip at its placed position. Nothing is
// rendered when no point is hovered.
func TooltipOverlay(t *chart.Tooltip) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if t == nil {
			return nil
		}
		h := &html{w: w}
		box := chart.DefaultTooltipBox
		h.rawf(`<div class="chart-tooltip" style="left:%.0fpx;top:%.0fpx;width:%.0fpx;min-height:%.0fpx">`, t.Left, t.Top, box.Width, box.Height)
		h.raw(`<div class="tt-date">`)
		h.text(t.Content.Date)
		h.raw(`</div><div class="tt-price">`)
		h.text(t.Content.Price)
		h.raw(`</div><div class="tt-ohlc">`)
		for _, f := range [][2]string{{"O", t.Content.Open}, {"H", t.Content.High}, {"L", t.Content.Low}, {"Vol", t.Content.Volume}} {
			h.raw(`<span>`)
			h.text(f[0] + ": " + f[1])
			h.raw(`</span>`)
		}
		h.raw(`</div></div>`)
		return h.err
	})
}

// ErrorState renders an inline error message
func ErrorState(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="error-state" role="alert">`)
		h.text(message)
		h.raw(`</div>`)
		return h.err
	})
}

// NewsList renders one page of news with pager links
func NewsList(page *models.NewsPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section class="news" data-symbol="`)
		h.text(page.Symbol)
		h.raw(`">`)
		h.rawf(`<p class="news-meta">%d articles, page %d</p>`, page.Total, page.Page)

		if len(page.News) == 0 {
			h.raw(`<p class="news-empty">No articles match this filter.</p>`)
		}
		h.raw(`<ul>`)
		for _, item := range page.News {
			h.raw(`<li class="news-item">`)
			for _, s := range item.Sentiment {
				h.rawf(`<span class="badge badge-%s">`, strings.ToLower(templ.EscapeString(s.Label)))
				h.text(fmt.Sprintf("%s %.0f%%", s.Label, s.Score*100))
				h.raw(`</span>`)
			}
			if summary := finalSummary(item); summary != "" {
				h.raw(`<p>`)
				h.text(summary)
				h.raw(`</p>`)
			}
			if link := templ.URL(item.Link); item.Link != "" && link != templ.FailedSanitizationURL {
				h.raw(`<a target="_blank" rel="noopener" href="`)
				h.text(string(link))
				h.raw(`">Read article</a>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)

		h.raw(`<nav class="pager">`)
		if page.Page > 1 {
			h.rawf(`<button data-page="%d">Previous</button>`, page.Page-1)
		}
		if page.HasMore {
			h.rawf(`<button data-page="%d">Next</button>`, page.Page+1)
		}
		h.raw(`</nav></section>`)
		return h.err
	})
}

func finalSummary(item models.NewsItem) string {
	parts := make([]string, 0, len(item.Summary.Final))
	for _, s := range item.Summary.Final {
		if s.SummaryText != "" {
			parts = append(parts, s.SummaryText)
		}
	}
	return strings.Join(parts, " ")
}
