package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommitter struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (f *fakeCommitter) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type countingHandler struct {
	failures int
	calls    int
	lastCtx  context.Context
}

func (h *countingHandler) Topic() string { return "regime.requests" }

func (h *countingHandler) Handle(ctx context.Context, _ []byte) error {
	h.calls++
	h.lastCtx = ctx
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestProcessRetriesThenCommits(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{failures: 2}
	commits := &fakeCommitter{}

	c.process(h, commits, kafka.Message{Topic: h.Topic(), Value: []byte(`{}`)})

	assert.Equal(t, 3, h.calls)
	assert.Len(t, commits.committed, 1)
}

func TestProcessExhaustedWithoutDLQDoesNotCommit(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{failures: 10}
	commits := &fakeCommitter{}

	c.process(h, commits, kafka.Message{Topic: h.Topic()})

	assert.Equal(t, 3, h.calls)
	assert.Empty(t, commits.committed)
}

func TestProcessDeadLetters(t *testing.T) {
	c := newTestConsumer(t)
	dlq := &fakeWriter{}
	c.dlq = dlq
	h := &countingHandler{failures: 10}
	commits := &fakeCommitter{}

	c.process(h, commits, kafka.Message{Topic: h.Topic(), Key: []byte("AAPL"), Value: []byte("bad")})

	require.Len(t, dlq.written, 1)
	assert.Equal(t, []byte("bad"), dlq.written[0].Value)
	assert.Equal(t, "regime.requests", string(dlq.written[0].Headers[0].Value))
	assert.Len(t, commits.committed, 1)
}

func TestProcessDLQFailureSkipsCommit(t *testing.T) {
	c := newTestConsumer(t)
	c.dlq = &fakeWriter{err: errors.New("broker down")}
	h := &countingHandler{failures: 10}
	commits := &fakeCommitter{}

	c.process(h, commits, kafka.Message{Topic: h.Topic()})
	assert.Empty(t, commits.committed)
}

func TestTraceHookThroughChain(t *testing.T) {
	c := newTestConsumer(t)
	fixed := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)
	var afterErr error
	c.WithConsumerHook(NewHookChain(
		TraceHook{Now: func() time.Time { return fixed }},
		HookFuncs{After: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { afterErr = err }},
	))
	h := &countingHandler{}

	c.process(h, &fakeCommitter{}, kafka.Message{
		Topic:   h.Topic(),
		Headers: []kafka.Header{{Key: TraceHeader, Value: []byte("abc")}},
	})

	require.NotNil(t, h.lastCtx)
	assert.Equal(t, "abc", TraceID(h.lastCtx))
	assert.Equal(t, fixed, h.lastCtx.Value(CtxStartTime))
	assert.NoError(t, afterErr)
}

func TestHookChainRecoversPanics(t *testing.T) {
	var notified error
	chain := NewHookChain(
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		}},
		HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { notified = err }},
		nil,
	)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, err, notified)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}
