package fusion

import (
	"fmt"
	"sort"

	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/services/policy"
)

const (
	VolSpikeRatio     = 1.15
	DeepDrawdown      = -0.20
	NewsRiskThreshold = 2
	TopicThreshold    = 2
)

const (
	FlagUncertainty = "Regime uncertainty rising (probabilities are mixed)."
	FlagVolSpike    = "Short-term volatility is spiking vs medium-term baseline."
	FlagDrawdown    = "In a deep drawdown zone (higher fragility / headline sensitivity)."
	FlagNewsRisk    = "Multiple risk headlines recently (watch for gap risk / IV expansion)."
)

// Watchouts returns plain-language risk flags for the latest row. probs is
// that row's posterior vector and may be empty.
func Watchouts(latest models.FeatureRow, probs []float64, news models.NewsSummary) []string {
	flags := []string{}

	if len(probs) > 0 {
		a := models.RegimeAssignment{Probs: probs}
		if a.MaxProb() < policy.MinConfidence {
			flags = append(flags, FlagUncertainty)
		}
	}
	if latest.Vol20D > latest.Vol60D*VolSpikeRatio {
		flags = append(flags, FlagVolSpike)
	}
	if latest.DD252D < DeepDrawdown {
		flags = append(flags, FlagDrawdown)
	}
	if news.Risk >= NewsRiskThreshold {
		flags = append(flags, FlagNewsRisk)
	}
	for _, topic := range topicOrder(news.Topics) {
		if news.Topics[topic] >= TopicThreshold {
			flags = append(flags, fmt.Sprintf("News topic cluster: %s (increased event risk).", topic))
		}
	}
	return flags
}

// topicOrder lists the known topics first, then any others alphabetically.
func topicOrder(topics map[string]int) []string {
	out := make([]string, 0, len(topics))
	known := make(map[string]struct{}, len(models.NewsTopics))
	for _, t := range models.NewsTopics {
		known[t] = struct{}{}
		if _, ok := topics[t]; ok {
			out = append(out, t)
		}
	}
	var extra []string
	for t := range topics {
		if _, ok := known[t]; !ok {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
