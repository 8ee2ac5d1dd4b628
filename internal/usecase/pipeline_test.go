package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineStrictReport(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})

	r, err := h.pipeline.Run(context.Background(), models.RunRequest{Ticker: " aapl ", Start: "2023-01-01"})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", r.Ticker)
	assert.Equal(t, "2024-02-05", r.AsOf)
	assert.Equal(t, ModeStrict, r.Mode)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, 1, r.Regime)
	assert.Equal(t, map[string]float64{"p_regime_0": 0.2, "p_regime_1": 0.8}, r.RegimeProbs)
	assert.Equal(t, 149, r.NRowsUsed)
	assert.Equal(t, 2, r.NRegimesUsed)

	require.NotNil(t, r.Policy)
	assert.Equal(t, models.RegimeRiskOff, r.Policy.Name)
	assert.InDelta(t, 0.8, r.Policy.Confidence, 1e-12)

	require.Contains(t, r.ExpectedRanges, "5d")
	require.Contains(t, r.ExpectedRanges, "20d")
	require.NotNil(t, r.ExpectedRanges["5d"])
	assert.LessOrEqual(t, r.ExpectedRanges["5d"].Q05, r.ExpectedRanges["5d"].Q50)
	assert.LessOrEqual(t, r.ExpectedRanges["5d"].Q50, r.ExpectedRanges["5d"].Q95)

	assert.Equal(t, map[int]int{0: 74, 1: 75}, r.RegimeCounts)
	require.NotNil(t, r.MinRegimeSize)
	assert.Equal(t, 74, *r.MinRegimeSize)
	assert.Nil(t, r.Warning)

	assert.Len(t, h.store.saved, 1)
	assert.Equal(t, 1, h.publisher.single)
	assert.Len(t, h.ws.got, 1)
	assert.Equal(t, 1, h.metrics.runs["strict/ok"])
	assert.Equal(t, []string{"AAPL", "SPY"}, h.archive.stored)
}

func TestPipelineStrictRejectsClusterCountBeforeFetching(t *testing.T) {
	h := newHarness(ModeStrict, 3, 400, fakeNews{})

	_, err := h.pipeline.Run(context.Background(), models.RunRequest{Ticker: "AAPL", NRegimes: 4})

	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
	assert.Zero(t, h.source.total())
	assert.Equal(t, 1, h.metrics.runs["strict/configuration"])
}

func TestPipelineStrictShortPriceHistory(t *testing.T) {
	h := newHarness(ModeStrict, 2, 50, fakeNews{})

	_, err := h.pipeline.Run(context.Background(), models.RunRequest{Ticker: "AAPL"})

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindInsufficientData, e.Kind)
	assert.Equal(t, 50, e.Observed)
	assert.Equal(t, MinRows, e.Required)
	assert.Empty(t, h.store.saved)
}

func TestPipelinePermissiveTooFewFeatureRows(t *testing.T) {
	h := newHarness(ModePermissive, 4, 300, fakeNews{})

	_, err := h.pipeline.Run(context.Background(), models.RunRequest{Ticker: "AAPL"})

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindInsufficientData, e.Kind)
	assert.Equal(t, 300-251, e.Observed)
}

func TestPipelinePermissiveWithoutSchemeHasNoPolicyOrDiagnostics(t *testing.T) {
	h := newHarness(ModePermissive, 4, 400, fakeNews{summary: models.EmptyNewsSummary()})

	r, err := h.pipeline.Analyze(context.Background(), models.RunRequest{Ticker: "AAPL"})
	require.NoError(t, err)

	assert.Nil(t, r.Policy)
	assert.Nil(t, r.RegimeCounts)
	assert.Nil(t, r.MinRegimeSize)
	assert.Equal(t, 4, r.NRegimesUsed)
	assert.Empty(t, h.store.saved)
}

func TestPipelineNewsFailureDegrades(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{err: errors.New("rss timeout")})

	r, err := h.pipeline.Analyze(context.Background(), models.RunRequest{Ticker: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 0, r.News.Sentiment)
	assert.Equal(t, 0, r.News.Risk)
	assert.Equal(t, map[string]int{}, r.News.Topics)
	assert.Equal(t, "rss timeout", r.News.Error)
	assert.Equal(t, 1, h.metrics.errors["news"])
}

func TestPipelineNewsRiskWatchout(t *testing.T) {
	news := models.NewsSummary{Sentiment: -3, Risk: 2, Topics: map[string]int{models.TopicSecurity: 2}}
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: news})

	r, err := h.pipeline.Analyze(context.Background(), models.RunRequest{Ticker: "AAPL"})
	require.NoError(t, err)

	assert.Contains(t, r.Watchouts, "Multiple risk headlines recently (watch for gap risk / IV expansion).")
	assert.Contains(t, r.Watchouts, "News topic cluster: security (increased event risk).")
}

func TestPipelineReportCache(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()}, WithReportCache(mem))
	req := models.RunRequest{Ticker: "AAPL", Start: "2023-01-01", End: "2024-06-01"}

	first, err := h.pipeline.Analyze(context.Background(), req)
	require.NoError(t, err)
	calls := h.source.total()

	second, err := h.pipeline.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, calls, h.source.total())
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.RegimeProbs, second.RegimeProbs)

	req.NRegimes = 3
	_, err = h.pipeline.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Greater(t, h.source.total(), calls)
}

func TestPipelineRejectsInvertedDateRange(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{})

	_, err := h.pipeline.Analyze(context.Background(), models.RunRequest{Ticker: "AAPL", Start: "2024-01-10", End: "2024-01-01"})

	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestPipelineDeliverBatch(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{})
	reports := []*models.Report{{Ticker: "AAPL", AsOf: "2024-01-02"}, {Ticker: "MSFT", AsOf: "2024-01-02"}}

	h.pipeline.DeliverBatch(context.Background(), reports)

	assert.Len(t, h.store.saved, 2)
	require.Len(t, h.publisher.batches, 1)
	assert.Len(t, h.publisher.batches[0], 2)
	assert.Zero(t, h.publisher.single)
	assert.Len(t, h.ws.got, 2)
}

func TestPriceLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("offline without cache", func(t *testing.T) {
		l := NewPriceLoader(newFakeSource(10, "AAPL"), newMapPriceCache(), nil, nil)
		_, err := l.Load(ctx, "AAPL", time.Time{}, time.Time{}, true)
		assert.True(t, errs.IsKind(err, errs.KindConfiguration))
	})

	t.Run("offline reads cache", func(t *testing.T) {
		src := newFakeSource(10, "AAPL")
		c := newMapPriceCache()
		require.NoError(t, c.Put(ctx, wavySeries("AAPL", 5)))
		l := NewPriceLoader(src, c, nil, nil)

		s, err := l.Load(ctx, "aapl", time.Time{}, time.Time{}, true)
		require.NoError(t, err)
		assert.Len(t, s.Bars, 5)
		assert.Zero(t, src.total())
	})

	t.Run("no source falls back to cache", func(t *testing.T) {
		c := newMapPriceCache()
		l := NewPriceLoader(nil, c, nil, nil)
		_, err := l.Load(ctx, "AAPL", time.Time{}, time.Time{}, false)
		assert.True(t, errs.IsKind(err, errs.KindConfiguration))

		require.NoError(t, c.Put(ctx, wavySeries("AAPL", 5)))
		s, err := l.Load(ctx, "AAPL", time.Time{}, time.Time{}, false)
		require.NoError(t, err)
		assert.Len(t, s.Bars, 5)
	})

	t.Run("online refreshes cache and archive", func(t *testing.T) {
		c := newMapPriceCache()
		a := &fakeArchive{}
		l := NewPriceLoader(newFakeSource(10, "AAPL"), c, a, nil)

		_, err := l.Load(ctx, "AAPL", time.Time{}, time.Time{}, false)
		require.NoError(t, err)

		cached, ok, _ := c.Get(ctx, "AAPL")
		assert.True(t, ok)
		assert.Len(t, cached.Bars, 10)
		assert.Equal(t, []string{"AAPL"}, a.stored)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		src := newFakeSource(10)
		src.err = errs.UpstreamFetch("fmp", errors.New("502"))
		l := NewPriceLoader(src, newMapPriceCache(), nil, nil)

		_, err := l.Load(ctx, "AAPL", time.Time{}, time.Time{}, false)
		assert.True(t, errs.IsKind(err, errs.KindUpstreamFetch))
	})
}
