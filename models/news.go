package models

// Sentiment labels attached to news articles
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentAll      = "ALL"
)

// Sentiment is a classification label with its confidence score
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SummaryText is one summarizer output fragment
type SummaryText struct {
	SummaryText string `json:"summary_text"`
}

// NewsSummary holds per-chunk and final article summaries
type NewsSummary struct {
	Chunks [][]SummaryText `json:"chunks"`
	Final  []SummaryText   `json:"final"`
}

// NewsItem is a validated news article. ArticleContent keeps the corpus field name.
type NewsItem struct {
	Link           string      `json:"link"`
	ArticleContent string      `json:"artical_content"`
	Sentiment      []Sentiment `json:"sentiment"`
	Summary        NewsSummary `json:"summary"`
}

// HasSentiment reports whether any sentiment entry carries the label
func (n NewsItem) HasSentiment(label string) bool {
	for _, s := range n.Sentiment {
		if s.Label == label {
			return true
		}
	}
	return false
}

// NewsPage is one page of filtered news for a symbol
type NewsPage struct {
	Symbol    string     `json:"symbol"`
	News      []NewsItem `json:"news"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
	HasMore   bool       `json:"hasMore"`
	Sentiment string     `json:"sentiment"`
}

// DirectoryEntry is a browsable symbol with its display name
type DirectoryEntry struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	CompanyName string `json:"companyName" yaml:"companyName"`
}
