package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	"RegimeNews/internal/domain/service"
	"RegimeNews/internal/services/features"
	"RegimeNews/internal/services/fusion"
	"RegimeNews/internal/services/policy"
	"RegimeNews/internal/services/regime"
	"RegimeNews/pkg/cache"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"

	"github.com/google/uuid"
)

const (
	ModeStrict     = "strict"
	ModePermissive = "permissive"

	// MinRows is the smallest history any stage accepts.
	MinRows = 60

	DefaultStartDate    = "2015-01-01"
	DefaultMarketTicker = "SPY"
)

// NewsSummarizer produces the headline summary for a ticker. A failed fetch
// returns the zeroed summary with its error.
type NewsSummarizer interface {
	Summary(ctx context.Context, ticker string) (models.NewsSummary, error)
}

// BatchPublisher is implemented by publishers that can send several reports
// in one write.
type BatchPublisher interface {
	PublishReports(ctx context.Context, reports []*models.Report) error
}

// Broadcaster receives every delivered report.
type Broadcaster interface {
	Broadcast(r *models.Report)
}

type PipelineConfig struct {
	Mode         string
	NRegimes     int
	MarketTicker string
	Horizons     []int
	ReportTTL    time.Duration
}

// Pipeline runs features, regime fit, quantile fusion and news scoring for a
// single ticker and delivers the report to the configured sinks.
type Pipeline struct {
	cfg       PipelineConfig
	prices    *PriceLoader
	news      NewsSummarizer
	fitter    service.RegimeFitter
	cache     cache.Service
	store     domrepo.ReportStore
	publisher domrepo.Publisher
	sinks     []Broadcaster
	metrics   domrepo.Metrics
	now       func() time.Time
	l         *applogger.Logger
}

type PipelineOption func(*Pipeline)

func WithReportCache(c cache.Service) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

func WithReportStore(s domrepo.ReportStore) PipelineOption {
	return func(p *Pipeline) { p.store = s }
}

func WithPublisher(pub domrepo.Publisher) PipelineOption {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithBroadcaster(b Broadcaster) PipelineOption {
	return func(p *Pipeline) { p.sinks = append(p.sinks, b) }
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(
	cfg PipelineConfig,
	prices *PriceLoader,
	news NewsSummarizer,
	fitter service.RegimeFitter,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...PipelineOption,
) *Pipeline {
	if cfg.Mode == "" {
		cfg.Mode = ModeStrict
	}
	if cfg.NRegimes == 0 {
		cfg.NRegimes = 3
	}
	if cfg.MarketTicker == "" {
		cfg.MarketTicker = DefaultMarketTicker
	}
	if len(cfg.Horizons) == 0 {
		cfg.Horizons = fusion.DefaultHorizons
	}
	if l == nil {
		l = applogger.Nop()
	}
	p := &Pipeline{
		cfg:     cfg,
		prices:  prices,
		news:    news,
		fitter:  fitter,
		metrics: metrics,
		now:     time.Now,
		l:       l.Component("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Mode() string { return p.cfg.Mode }

// Run analyzes the request and delivers the report.
func (p *Pipeline) Run(ctx context.Context, req models.RunRequest) (*models.Report, error) {
	r, err := p.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	p.Deliver(ctx, r)
	return r, nil
}

// Analyze produces the report without delivering it. Results are cached per
// ticker, date range, offline flag and cluster count.
func (p *Pipeline) Analyze(ctx context.Context, req models.RunRequest) (_ *models.Report, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = strings.ToLower(string(errs.KindOf(err)))
			if outcome == "" {
				outcome = "error"
			}
			p.metrics.RecordError(outcome)
		}
		p.metrics.RecordRun(p.cfg.Mode, outcome, time.Since(start).Seconds())
	}()

	ticker := util.NormalizeSymbol(req.Ticker)
	if ticker == "" {
		return nil, errs.Configuration("pipeline", "ticker is required")
	}
	k := p.Clusters(req)
	mapper, err := p.mapperFor(k)
	if err != nil {
		return nil, err
	}
	from, to, err := p.dateRange(req)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateKeyWithParams("report", p.cfg.Mode, ticker, util.FormatDate(from), util.FormatDate(to), req.Offline, k)
	if p.cache != nil {
		var cached models.Report
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			p.l.Debug("report cache hit", applogger.String("ticker", ticker))
			return &cached, nil
		}
	}

	p.l.Debug("run started",
		applogger.String("ticker", ticker),
		applogger.Int("n_regimes", k),
		applogger.Bool("offline", req.Offline),
		applogger.String("mode", p.cfg.Mode),
		applogger.String("market", p.cfg.MarketTicker),
	)

	stage := time.Now()
	px, err := p.prices.Load(ctx, ticker, from, to, req.Offline)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	mkt, err := p.prices.Load(ctx, p.cfg.MarketTicker, from, to, req.Offline)
	if err != nil {
		return nil, fmt.Errorf("load market %s: %w", p.cfg.MarketTicker, err)
	}
	if p.strict() {
		if n := len(px.Bars); n < MinRows {
			return nil, errs.InsufficientData("price load "+ticker, n, MinRows)
		}
		if n := len(mkt.Bars); n < MinRows {
			return nil, errs.InsufficientData("price load "+p.cfg.MarketTicker, n, MinRows)
		}
	}
	p.metrics.RecordStage("prices", time.Since(stage).Seconds())

	stage = time.Now()
	feat := features.Build(px, &mkt)
	if n := feat.Table.Len(); n < MinRows {
		return nil, errs.InsufficientData("features "+ticker, n, MinRows)
	}
	p.metrics.RecordStage("features", time.Since(stage).Seconds())

	stage = time.Now()
	fit, err := p.fitter.Fit(feat.Table, k)
	if err != nil {
		return nil, err
	}
	if len(fit.Assignments) == 0 {
		return nil, errs.InsufficientData("regime fit "+ticker, 0, MinRows)
	}
	p.metrics.RecordStage("fit", time.Since(stage).Seconds())

	stage = time.Now()
	news, err := p.news.Summary(ctx, ticker)
	if err != nil {
		p.l.Warn("news unavailable, using empty summary", applogger.String("ticker", ticker), applogger.Error(err))
		p.metrics.RecordError("news")
	}
	p.metrics.RecordStage("news", time.Since(stage).Seconds())

	latest := fit.Latest()
	labels := fit.Labels()
	bands := fusion.RegimeQuantiles(labels, feat.Returns, p.cfg.Horizons)
	ranges := make(map[string]*models.QuantileBand, len(p.cfg.Horizons))
	for _, h := range p.cfg.Horizons {
		name := fmt.Sprintf("%dd", h)
		if b, ok := bands[h][latest.Label]; ok {
			ranges[name] = &b
		} else {
			ranges[name] = nil
		}
	}

	rows := feat.Table.Rows
	report := &models.Report{
		RunID:          uuid.NewString(),
		Ticker:         ticker,
		AsOf:           util.FormatDate(latest.Date),
		Mode:           p.cfg.Mode,
		Regime:         latest.Label,
		RegimeProbs:    latest.ProbMap(),
		ExpectedRanges: ranges,
		News:           news,
		Watchouts:      fusion.Watchouts(rows[len(rows)-1], latest.Probs, news),
		NRowsUsed:      len(fit.Assignments),
		NRegimesUsed:   k,
	}
	if mapper != nil {
		st := mapper.Map(latest)
		report.Policy = &st
	}
	if p.strict() {
		d := regime.Diagnose(labels)
		minSize := d.MinSize
		report.RegimeCounts = d.Counts
		report.MinRegimeSize = &minSize
		report.Warning = d.Warning
		if d.Warning != nil {
			p.l.Warn("regime imbalance", applogger.String("ticker", ticker), applogger.Int("min_regime_size", minSize))
		}
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, report, p.cfg.ReportTTL); err != nil {
			p.l.Warn("report cache write failed", applogger.Error(err))
		}
	}

	p.l.Info("run completed",
		applogger.String("ticker", ticker),
		applogger.String("asof", report.AsOf),
		applogger.Int("regime", report.Regime),
		applogger.String("regime_name", report.RegimeName()),
		applogger.Int("rows", report.NRowsUsed),
		applogger.Duration("took", time.Since(start)),
	)
	return report, nil
}

// Deliver stores, publishes and broadcasts a finished report. Sink failures
// are logged and do not fail the run.
func (p *Pipeline) Deliver(ctx context.Context, r *models.Report) {
	if p.store != nil {
		if err := p.store.SaveReport(ctx, r); err != nil {
			p.metrics.RecordError("report_store")
			p.l.Error("store report failed", applogger.String("ticker", r.Ticker), applogger.Error(err))
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishReport(ctx, r); err != nil {
			p.metrics.RecordError("report_publish")
			p.l.Error("publish report failed", applogger.String("ticker", r.Ticker), applogger.Error(err))
		}
	}
	for _, s := range p.sinks {
		s.Broadcast(r)
	}
}

// Clusters is the cluster count a request runs with.
func (p *Pipeline) Clusters(req models.RunRequest) int {
	if req.NRegimes != 0 {
		return req.NRegimes
	}
	return p.cfg.NRegimes
}

// DeliverBatch is Deliver for several reports, publishing them in one batch
// when the publisher supports it.
func (p *Pipeline) DeliverBatch(ctx context.Context, reports []*models.Report) {
	bp, ok := p.publisher.(BatchPublisher)
	if !ok {
		for _, r := range reports {
			p.Deliver(ctx, r)
		}
		return
	}
	for _, r := range reports {
		if p.store != nil {
			if err := p.store.SaveReport(ctx, r); err != nil {
				p.metrics.RecordError("report_store")
				p.l.Error("store report failed", applogger.String("ticker", r.Ticker), applogger.Error(err))
			}
		}
	}
	if err := bp.PublishReports(ctx, reports); err != nil {
		p.metrics.RecordError("report_publish")
		p.l.Error("publish report batch failed", applogger.Int("count", len(reports)), applogger.Error(err))
	}
	for _, r := range reports {
		for _, s := range p.sinks {
			s.Broadcast(r)
		}
	}
}

func (p *Pipeline) strict() bool { return p.cfg.Mode == ModeStrict }

// mapperFor validates k for the current mode. Permissive runs accept any
// k >= 1 and carry no policy when no scheme exists for k.
func (p *Pipeline) mapperFor(k int) (*policy.Mapper, error) {
	if p.strict() {
		if k != 2 && k != 3 {
			return nil, errs.Configurationf("pipeline", "n_regimes must be 2 or 3 in strict mode, got %d", k)
		}
		return policy.NewMapperFor(k)
	}
	if k < 1 {
		return nil, errs.Configurationf("pipeline", "n_regimes must be >= 1, got %d", k)
	}
	m, err := policy.NewMapperFor(k)
	if err != nil {
		return nil, nil
	}
	return m, nil
}

func (p *Pipeline) dateRange(req models.RunRequest) (time.Time, time.Time, error) {
	startStr := req.Start
	if startStr == "" {
		startStr = DefaultStartDate
	}
	from, err := util.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errs.Configurationf("pipeline", "invalid start date %q", startStr)
	}
	to := util.StartOfDay(p.now())
	if req.End != "" {
		if to, err = util.ParseDate(req.End); err != nil {
			return time.Time{}, time.Time{}, errs.Configurationf("pipeline", "invalid end date %q", req.End)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errs.Configurationf("pipeline", "end %s is before start %s", util.FormatDate(to), util.FormatDate(from))
	}
	return from, to, nil
}
