package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithBrokers(nil))
	assert.Error(t, err)
}

func TestProducerOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("snappy"),
		WithRequiredAcks(1),
		WithMaxAttempts(5),
		WithBatchSize(0),
		WithTimeouts(2*time.Second, 0),
		WithHashByKey(false),
	)
	require.NoError(t, err)
	defer p.Close()

	w := p.writer
	assert.Equal(t, kafka.Snappy, w.Compression)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.Equal(t, 5, w.MaxAttempts)
	assert.Equal(t, 100, w.BatchSize)
	assert.Equal(t, 2*time.Second, w.WriteTimeout)
	assert.Equal(t, 10*time.Second, w.ReadTimeout)
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)
}

func TestEncodeValue(t *testing.T) {
	raw, err := encodeValue([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), raw)

	js, err := encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(js))
}
