package repository

import (
	"context"

	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	pkgkafka "RegimeNews/pkg/kafka"
)

type messagePublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaReportPublisher writes reports keyed by ticker so one ticker's
// reports stay ordered within a partition.
type KafkaReportPublisher struct {
	producer messagePublisher
	topic    string
}

var _ domrepo.Publisher = (*KafkaReportPublisher)(nil)

func NewKafkaReportPublisher(producer messagePublisher, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.Report) error {
	return p.PublishReports(ctx, []*models.Report{r})
}

func (p *KafkaReportPublisher) PublishReports(ctx context.Context, reports []*models.Report) error {
	msgs := make([]pkgkafka.Message, 0, len(reports))
	for _, r := range reports {
		headers := map[string]string{"run_id": r.RunID, "mode": r.Mode}
		if tid := pkgkafka.TraceID(ctx); tid != "" {
			headers[pkgkafka.TraceHeader] = tid
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(r.Ticker),
			Value:   r,
			Headers: headers,
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}
