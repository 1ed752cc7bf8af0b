package models

import "testing"

func TestNewsItem_HasSentiment(t *testing.T) {
	item := NewsItem{Sentiment: []Sentiment{{Label: SentimentNeutral, Score: 0.4}, {Label: SentimentPositive, Score: 0.9}}}

	if !item.HasSentiment(SentimentPositive) {
		t.Error("expected POSITIVE match")
	}
	if item.HasSentiment(SentimentNegative) {
		t.Error("did not expect NEGATIVE match")
	}
}
