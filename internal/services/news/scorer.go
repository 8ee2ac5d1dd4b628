package news

import (
	"regexp"
	"strings"

	"RegimeNews/internal/domain/models"
)

var (
	negativeWords = wordSet("lawsuit", "fraud", "probe", "sec", "ban", "recall", "downgrade", "miss", "weak", "cut", "layoff", "outage", "breach")
	positiveWords = wordSet("beat", "upgrade", "record", "strong", "raise", "partnership", "wins", "growth", "profit", "surge")

	topicWords = map[string]map[string]struct{}{
		models.TopicEarnings:   wordSet("earnings", "guidance", "revenue", "eps", "margin"),
		models.TopicRegulation: wordSet("sec", "doj", "ftc", "antitrust", "ban", "regulation"),
		models.TopicSecurity:   wordSet("breach", "hack", "leak", "ransomware", "outage"),
		models.TopicMacro:      wordSet("fed", "rates", "inflation", "jobs", "cpi", "gdp"),
	}

	tokenPattern = regexp.MustCompile(`[a-z]+`)
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// ScoreTitle scores one headline. Each distinct token counts once, so a
// repeated word does not amplify the score.
func ScoreTitle(title string) (sentiment int, riskFlag bool, topics map[string]bool) {
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(title), -1) {
		tokens[tok] = struct{}{}
	}

	neg, pos := 0, 0
	for tok := range tokens {
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
	}
	sentiment = pos - neg
	riskFlag = neg >= 1 && sentiment <= 0

	topics = make(map[string]bool, len(topicWords))
	for topic, words := range topicWords {
		hit := false
		for tok := range tokens {
			if _, ok := words[tok]; ok {
				hit = true
				break
			}
		}
		topics[topic] = hit
	}
	return sentiment, riskFlag, topics
}

// ScoreArticles scores every article title.
func ScoreArticles(articles []models.Article) []models.ScoredArticle {
	out := make([]models.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		sentiment, risk, topics := ScoreTitle(a.Title)
		out = append(out, models.ScoredArticle{
			Article:   a,
			Sentiment: sentiment,
			RiskFlag:  risk,
			Topics:    topics,
		})
	}
	return out
}

// Summarize sums sentiment, risk flags and per-topic hits. No articles yields
// the zeroed summary with an empty topic map.
func Summarize(scored []models.ScoredArticle) models.NewsSummary {
	summary := models.EmptyNewsSummary()
	if len(scored) == 0 {
		return summary
	}
	for _, topic := range models.NewsTopics {
		summary.Topics[topic] = 0
	}
	for _, s := range scored {
		summary.Sentiment += s.Sentiment
		if s.RiskFlag {
			summary.Risk++
		}
		for topic, hit := range s.Topics {
			if hit {
				summary.Topics[topic]++
			}
		}
	}
	return summary
}
