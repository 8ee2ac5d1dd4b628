package news

import (
	"context"

	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/repository"
)

// Service turns headlines from a source into a summary.
type Service struct {
	source repository.NewsSource
}

func NewService(source repository.NewsSource) *Service {
	return &Service{source: source}
}

// Summary fetches and scores headlines for ticker. On fetch failure it returns
// the zeroed summary with Error set, together with the error itself.
func (s *Service) Summary(ctx context.Context, ticker string) (models.NewsSummary, error) {
	articles, err := s.source.Headlines(ctx, ticker)
	if err != nil {
		summary := models.EmptyNewsSummary()
		summary.Error = err.Error()
		return summary, err
	}
	return Summarize(ScoreArticles(articles)), nil
}
