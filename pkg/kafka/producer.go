package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var (
	producedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regimenews_kafka_produced_messages_total",
		Help: "Messages written to Kafka by topic and result.",
	}, []string{"topic", "result"})

	produceSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regimenews_kafka_produce_seconds",
		Help:    "Latency of one batch write.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
)

// ProducerOption tunes the underlying kafka.Writer.
type ProducerOption func(*kafka.Writer)

func WithBrokers(brokers []string) ProducerOption {
	return func(w *kafka.Writer) {
		if len(brokers) > 0 {
			w.Addr = kafka.TCP(brokers...)
		}
	}
}

// WithCompression accepts gzip, snappy, lz4 or zstd; anything else means none.
func WithCompression(codec string) ProducerOption {
	return func(w *kafka.Writer) {
		switch codec {
		case "gzip":
			w.Compression = kafka.Gzip
		case "snappy":
			w.Compression = kafka.Snappy
		case "lz4":
			w.Compression = kafka.Lz4
		case "zstd":
			w.Compression = kafka.Zstd
		default:
			w.Compression = 0
		}
	}
}

// WithRequiredAcks takes -1 for all replicas.
func WithRequiredAcks(acks int) ProducerOption {
	return func(w *kafka.Writer) { w.RequiredAcks = kafka.RequiredAcks(acks) }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(w *kafka.Writer) {
		if n > 0 {
			w.MaxAttempts = n
		}
	}
}

func WithBatchSize(size int) ProducerOption {
	return func(w *kafka.Writer) {
		if size > 0 {
			w.BatchSize = size
		}
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(w *kafka.Writer) {
		if write > 0 {
			w.WriteTimeout = write
		}
		if read > 0 {
			w.ReadTimeout = read
		}
	}
}

// WithAsync makes writes fire-and-forget; delivery errors are then lost.
func WithAsync(async bool) ProducerOption {
	return func(w *kafka.Writer) { w.Async = async }
}

// WithHashByKey routes equal keys to one partition, keeping per-ticker order.
func WithHashByKey(hash bool) ProducerOption {
	return func(w *kafka.Writer) {
		if hash {
			w.Balancer = &kafka.Hash{}
		} else {
			w.Balancer = &kafka.LeastBytes{}
		}
	}
}

// Producer publishes messages to any topic through one writer.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer requires at least one broker.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	w := &kafka.Writer{
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.Addr == nil {
		return nil, errors.New("kafka producer: brokers are required")
	}
	return &Producer{writer: w}, nil
}

// Message is an outbound record. Values other than []byte are JSON encoded.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	return p.PublishBatch(ctx, topic, []Message{msg})
}

// PublishBatch writes messages in a single call.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	out := make([]kafka.Message, len(messages))
	for i, m := range messages {
		value, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: value, Time: start}
		for k, v := range m.Headers {
			out[i].Headers = append(out[i].Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}

	err := p.writer.WriteMessages(ctx, out...)
	produceSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		producedTotal.WithLabelValues(topic, "error").Add(float64(len(out)))
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	producedTotal.WithLabelValues(topic, "ok").Add(float64(len(out)))
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	if b, ok := value.([]byte); ok {
		return b, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return b, nil
}
