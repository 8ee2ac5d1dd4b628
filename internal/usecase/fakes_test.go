package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/service"
	"RegimeNews/internal/services/overlay"
)

var (
	day0  = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	clock = func() time.Time { return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC) }
)

func wavySeries(ticker string, n int) models.PriceSeries {
	s := models.PriceSeries{Ticker: ticker}
	p := 100.0
	for i := 0; i < n; i++ {
		p *= math.Exp(0.001 + 0.02*math.Sin(float64(i)/7))
		s.Bars = append(s.Bars, models.PriceBar{Date: day0.AddDate(0, 0, i), Ticker: ticker, AdjClose: p, Volume: 1000})
	}
	return s
}

type fakeSource struct {
	mu     sync.Mutex
	series map[string]models.PriceSeries
	calls  map[string]int
	err    error
}

func newFakeSource(n int, tickers ...string) *fakeSource {
	f := &fakeSource{series: map[string]models.PriceSeries{}, calls: map[string]int{}}
	for _, t := range tickers {
		f.series[t] = wavySeries(t, n)
	}
	return f
}

func (f *fakeSource) FetchDaily(_ context.Context, ticker string, _, _ time.Time) (models.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	if f.err != nil {
		return models.PriceSeries{}, f.err
	}
	s, ok := f.series[ticker]
	if !ok {
		return models.PriceSeries{}, errs.UpstreamFetch("fake", errors.New("unknown symbol "+ticker))
	}
	return s, nil
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type mapPriceCache struct {
	mu   sync.Mutex
	data map[string]models.PriceSeries
}

func newMapPriceCache() *mapPriceCache {
	return &mapPriceCache{data: map[string]models.PriceSeries{}}
}

func (c *mapPriceCache) Get(_ context.Context, ticker string) (models.PriceSeries, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data[ticker]
	return s, ok, nil
}

func (c *mapPriceCache) Put(_ context.Context, s models.PriceSeries) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[s.Ticker] = s
	return nil
}

func (c *mapPriceCache) Close() error { return nil }

type fakeArchive struct {
	stored []string
}

func (a *fakeArchive) StorePrices(_ context.Context, s models.PriceSeries) error {
	a.stored = append(a.stored, s.Ticker)
	return nil
}

func (a *fakeArchive) QueryPrices(context.Context, string, time.Time, time.Time) (models.PriceSeries, error) {
	return models.PriceSeries{}, nil
}

// splitFitter labels the first half of the rows 0 and the rest 1.
type splitFitter struct{}

func (splitFitter) Fit(table models.FeatureTable, k int) (service.RegimeFit, error) {
	n := table.Len()
	fit := service.RegimeFit{Components: k, Assignments: make([]models.RegimeAssignment, n)}
	for i, row := range table.Rows {
		a := models.RegimeAssignment{Date: row.Date, Label: 0, Probs: []float64{0.9, 0.1}}
		if i >= n/2 {
			a.Label = 1
			a.Probs = []float64{0.2, 0.8}
		}
		fit.Assignments[i] = a
	}
	return fit, nil
}

type fakeNews struct {
	summary models.NewsSummary
	err     error
}

func (f fakeNews) Summary(context.Context, string) (models.NewsSummary, error) {
	if f.err != nil {
		s := models.EmptyNewsSummary()
		s.Error = f.err.Error()
		return s, f.err
	}
	return f.summary, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*models.Report
}

func (s *fakeStore) SaveReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return nil
}

func (s *fakeStore) LatestReport(context.Context, string) (*models.Report, error) {
	return nil, errors.New("not implemented")
}

type fakePublisher struct {
	single  int
	batches [][]*models.Report
}

func (p *fakePublisher) PublishReport(_ context.Context, r *models.Report) error {
	p.single++
	return nil
}

func (p *fakePublisher) PublishReports(_ context.Context, rs []*models.Report) error {
	p.batches = append(p.batches, rs)
	return nil
}

type fakeBroadcaster struct {
	got []*models.Report
}

func (b *fakeBroadcaster) Broadcast(r *models.Report) { b.got = append(b.got, r) }

type recordingMetrics struct {
	mu        sync.Mutex
	runs      map[string]int
	errors    map[string]int
	decisions map[string]models.EventOverlayDecision
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		runs:      map[string]int{},
		errors:    map[string]int{},
		decisions: map[string]models.EventOverlayDecision{},
	}
}

func (m *recordingMetrics) RecordRun(mode, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[mode+"/"+outcome]++
}

func (m *recordingMetrics) RecordStage(string, float64) {}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) RecordDecision(ticker string, d models.EventOverlayDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[ticker] = d
}

type fakeMacro struct {
	events []models.MacroEvent
	calls  int
}

func (f *fakeMacro) MacroEvents(context.Context, time.Time, time.Time) ([]models.MacroEvent, error) {
	f.calls++
	return f.events, nil
}

type fakeCompany struct {
	earnings    []models.CompanyEvent
	err         error
	seenSymbols []string
}

func (f *fakeCompany) Earnings(_ context.Context, _, _ time.Time, symbols []string) ([]models.CompanyEvent, error) {
	f.seenSymbols = symbols
	return f.earnings, f.err
}

func (f *fakeCompany) Dividends(context.Context, time.Time, time.Time, []string) ([]models.CompanyEvent, error) {
	return nil, nil
}

func (f *fakeCompany) Splits(context.Context, time.Time, time.Time, []string) ([]models.CompanyEvent, error) {
	return nil, nil
}

func (f *fakeCompany) IPOs(context.Context, time.Time, time.Time) ([]models.CompanyEvent, error) {
	return nil, nil
}

type harness struct {
	source    *fakeSource
	cache     *mapPriceCache
	archive   *fakeArchive
	store     *fakeStore
	publisher *fakePublisher
	ws        *fakeBroadcaster
	metrics   *recordingMetrics
	pipeline  *Pipeline
}

func newHarness(mode string, k int, bars int, news NewsSummarizer, opts ...PipelineOption) *harness {
	h := &harness{
		source:    newFakeSource(bars, "AAPL", "SPY", "MSFT"),
		cache:     newMapPriceCache(),
		archive:   &fakeArchive{},
		store:     &fakeStore{},
		publisher: &fakePublisher{},
		ws:        &fakeBroadcaster{},
		metrics:   newRecordingMetrics(),
	}
	loader := NewPriceLoader(h.source, h.cache, h.archive, nil)
	opts = append([]PipelineOption{
		WithReportStore(h.store),
		WithPublisher(h.publisher),
		WithBroadcaster(h.ws),
		WithPipelineClock(clock),
	}, opts...)
	h.pipeline = NewPipeline(PipelineConfig{Mode: mode, NRegimes: k, ReportTTL: time.Minute},
		loader, news, splitFitter{}, h.metrics, nil, opts...)
	return h
}

func newRunner(h *harness, macro *fakeMacro, company *fakeCompany, opts ...OverlayOption) *OverlayRunner {
	engine := overlay.NewEngine(overlay.DefaultConfig(), overlay.WithClock(clock))
	opts = append([]OverlayOption{WithOverlayClock(clock)}, opts...)
	return NewOverlayRunner(h.pipeline, macro, company, engine, h.metrics, nil, opts...)
}
