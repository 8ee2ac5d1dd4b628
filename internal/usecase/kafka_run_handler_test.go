package usecase

import (
	"context"
	"errors"
	"testing"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaRunHandler(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})
	runner := newRunner(h, &fakeMacro{}, &fakeCompany{})
	handler := NewKafkaRunHandler("regime.requests", h.pipeline, runner, h.metrics, nil)
	ctx := context.Background()

	assert.Equal(t, "regime.requests", handler.Topic())

	require.NoError(t, handler.Handle(ctx, []byte(`{"ticker":"aapl"}`)))
	require.Len(t, h.store.saved, 1)
	assert.Nil(t, h.store.saved[0].EventOverlay)

	require.NoError(t, handler.Handle(ctx, []byte(`{"ticker":"AAPL","overlay":true,"portfolio_symbols":["AAPL"]}`)))
	require.Len(t, h.store.saved, 2)
	assert.NotNil(t, h.store.saved[1].EventOverlay)
}

func TestKafkaRunHandlerDropsPermanentFailures(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{})
	handler := NewKafkaRunHandler("regime.requests", h.pipeline, newRunner(h, &fakeMacro{}, &fakeCompany{}), h.metrics, nil)
	ctx := context.Background()

	assert.NoError(t, handler.Handle(ctx, []byte(`{not json`)))
	assert.Equal(t, 1, h.metrics.errors["consumer_unmarshal"])

	assert.NoError(t, handler.Handle(ctx, []byte(`{"ticker":"AAPL","n_regimes":5}`)))
	assert.Empty(t, h.store.saved)
}

func TestKafkaRunHandlerRetriesUpstreamFailures(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{})
	h.source.err = errs.UpstreamFetch("fmp", errors.New("connection reset"))
	handler := NewKafkaRunHandler("regime.requests", h.pipeline, newRunner(h, &fakeMacro{}, &fakeCompany{}), h.metrics, nil)

	err := handler.Handle(context.Background(), []byte(`{"ticker":"AAPL"}`))

	assert.True(t, errs.IsKind(err, errs.KindUpstreamFetch))
}
