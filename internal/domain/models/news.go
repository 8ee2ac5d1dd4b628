package models

import "time"

// News topics in reporting order.
const (
	TopicEarnings   = "earnings"
	TopicRegulation = "regulation"
	TopicSecurity   = "security"
	TopicMacro      = "macro"
)

var NewsTopics = []string{TopicEarnings, TopicRegulation, TopicSecurity, TopicMacro}

type Article struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Published *time.Time `json:"published_utc"`
	Source    string     `json:"source"`
}

// ScoredArticle carries the lexical score of one headline.
type ScoredArticle struct {
	Article
	Sentiment int             `json:"sentiment"`
	RiskFlag  bool            `json:"risk_flag"`
	Topics    map[string]bool `json:"topics"`
}

// NewsSummary aggregates scored headlines. Error is set when the fetch failed
// and the summary was zeroed.
type NewsSummary struct {
	Sentiment int            `json:"news_sentiment"`
	Risk      int            `json:"news_risk"`
	Topics    map[string]int `json:"topics"`
	Error     string         `json:"error,omitempty"`
}

// EmptyNewsSummary is the zeroed summary.
func EmptyNewsSummary() NewsSummary {
	return NewsSummary{Topics: map[string]int{}}
}
