package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	applogger "RegimeNews/pkg/logger"
	pkgkafka "RegimeNews/pkg/kafka"

	"github.com/creasty/defaults"
)

// RunRequestMessage is the payload on the run requests topic. Overlay
// selects the overlay runner; the remaining fields follow OverlayRequest.
type RunRequestMessage struct {
	models.OverlayRequest
	Overlay bool `json:"overlay"`
}

// KafkaRunHandler runs the pipeline for every request consumed from Kafka.
// Reports reach downstream consumers through the pipeline's publisher.
type KafkaRunHandler struct {
	topic    string
	pipeline *Pipeline
	overlay  *OverlayRunner
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewKafkaRunHandler(topic string, p *Pipeline, o *OverlayRunner, metrics domrepo.Metrics, l *applogger.Logger) *KafkaRunHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaRunHandler{topic: topic, pipeline: p, overlay: o, metrics: metrics, l: l.Component("kafka_run_handler")}
}

func (h *KafkaRunHandler) Topic() string { return h.topic }

// Handle returns nil for requests that can never succeed so the consumer
// commits them instead of retrying.
func (h *KafkaRunHandler) Handle(ctx context.Context, b []byte) error {
	var m RunRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		h.l.Warn("dropping malformed run request", applogger.Error(err))
		return nil
	}
	if err := defaults.Set(&m.OverlayRequest.RunRequest); err != nil {
		return fmt.Errorf("run request defaults: %w", err)
	}

	var err error
	if m.Overlay {
		_, err = h.overlay.Run(ctx, m.OverlayRequest)
	} else {
		_, err = h.pipeline.Run(ctx, m.RunRequest)
	}
	if err == nil {
		return nil
	}

	kind := errs.KindOf(err)
	if kind == errs.KindConfiguration || kind == errs.KindInsufficientData {
		h.l.Warn("run request rejected",
			applogger.String("ticker", m.Ticker),
			applogger.String("kind", string(kind)),
			applogger.Error(err),
		)
		return nil
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaRunHandler)(nil)
