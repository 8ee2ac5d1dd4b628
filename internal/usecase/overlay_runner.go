package usecase

import (
	"context"
	"fmt"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	"RegimeNews/internal/services/overlay"
	"RegimeNews/internal/services/policy"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"
)

// DefaultLookaheadDays is the calendar span fetched when no window end is given.
const DefaultLookaheadDays = 7

// OverlayRunner attaches the event overlay to a pipeline report.
type OverlayRunner struct {
	pipeline  *Pipeline
	macro     domrepo.MacroCalendar
	company   domrepo.CompanyCalendar
	engine    *overlay.Engine
	metrics   domrepo.Metrics
	symbols   []string
	lookahead int
	now       func() time.Time
	l         *applogger.Logger
}

type OverlayOption func(*OverlayRunner)

// WithDefaultSymbols sets the portfolio used when a request names none.
func WithDefaultSymbols(symbols []string) OverlayOption {
	return func(r *OverlayRunner) { r.symbols = symbols }
}

func WithLookahead(days int) OverlayOption {
	return func(r *OverlayRunner) {
		if days > 0 {
			r.lookahead = days
		}
	}
}

func WithOverlayClock(now func() time.Time) OverlayOption {
	return func(r *OverlayRunner) { r.now = now }
}

// NewOverlayRunner accepts nil calendars; Run then fails with a
// configuration error before fetching anything.
func NewOverlayRunner(
	p *Pipeline,
	macro domrepo.MacroCalendar,
	company domrepo.CompanyCalendar,
	engine *overlay.Engine,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...OverlayOption,
) *OverlayRunner {
	if l == nil {
		l = applogger.Nop()
	}
	r := &OverlayRunner{
		pipeline:  p,
		macro:     macro,
		company:   company,
		engine:    engine,
		metrics:   metrics,
		lookahead: DefaultLookaheadDays,
		now:       time.Now,
		l:         l.Component("overlay_runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the overlay report and delivers it.
func (r *OverlayRunner) Run(ctx context.Context, req models.OverlayRequest) (*models.Report, error) {
	report, err := r.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	r.pipeline.Deliver(ctx, report)
	return report, nil
}

// Build analyzes the ticker, fetches the event calendars for the window and
// attaches the overlay decision.
func (r *OverlayRunner) Build(ctx context.Context, req models.OverlayRequest) (*models.Report, error) {
	if r.macro == nil || r.company == nil {
		return nil, errs.Configuration("overlay", "event calendars are not configured (missing API keys)")
	}
	if req.Importance < 0 || req.Importance > 3 {
		return nil, errs.Configurationf("overlay", "macro importance must be 1..3, got %d", req.Importance)
	}
	k := r.pipeline.Clusters(req.RunRequest)
	if _, err := policy.SchemeFor(k); err != nil {
		return nil, err
	}
	start, end, err := r.window(req)
	if err != nil {
		return nil, err
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = r.symbols
	}

	report, err := r.pipeline.Analyze(ctx, req.RunRequest)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	company, macro, err := r.fetchEvents(ctx, start, end, symbols)
	if err != nil {
		r.metrics.RecordError(string(errs.KindUpstreamFetch))
		return nil, err
	}
	if req.Importance > 0 {
		macro = filterImportance(macro, req.Importance)
	}
	r.metrics.RecordStage("events", time.Since(stage).Seconds())

	state := r.regimeState(report, k)
	decision := r.engine.Decide(state, macro, company, symbols)
	cfg := r.engine.Config()
	report.EventOverlay = &models.EventOverlay{
		EventOverlayDecision: decision,
		RegimePolicy:         state,
		Windows: models.OverlayWindows{
			MacroWindowDays:   cfg.MacroWindowDays,
			CompanyWindowDays: cfg.CompanyWindowDays,
		},
		WindowStart: util.FormatDate(start),
		WindowEnd:   util.FormatDate(end),
	}
	r.metrics.RecordDecision(report.Ticker, decision)
	r.l.Info("overlay decided",
		applogger.String("ticker", report.Ticker),
		applogger.String("regime_name", string(state.Name)),
		applogger.Bool("allow_new_positions", decision.AllowNewPositions),
		applogger.Float64("risk_multiplier", decision.RiskMultiplier),
		applogger.Bool("tighten_stops", decision.TightenStops),
		applogger.Int("macro_events", len(macro)),
		applogger.Int("company_events", len(company)),
	)
	return report, nil
}

func (r *OverlayRunner) window(req models.OverlayRequest) (time.Time, time.Time, error) {
	start := util.StartOfDay(r.now())
	if req.WindowStart != "" {
		t, err := util.ParseDate(req.WindowStart)
		if err != nil {
			return time.Time{}, time.Time{}, errs.Configurationf("overlay", "invalid window_start %q", req.WindowStart)
		}
		start = t
	}
	end := start.AddDate(0, 0, r.lookahead)
	if req.WindowEnd != "" {
		t, err := util.ParseDate(req.WindowEnd)
		if err != nil {
			return time.Time{}, time.Time{}, errs.Configurationf("overlay", "invalid window_end %q", req.WindowEnd)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errs.Configurationf("overlay", "window_end %s is before window_start %s",
			util.FormatDate(end), util.FormatDate(start))
	}
	return start, end, nil
}

func (r *OverlayRunner) fetchEvents(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, []models.MacroEvent, error) {
	macro, err := r.macro.MacroEvents(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("macro calendar: %w", err)
	}

	var company []models.CompanyEvent
	fetchers := []struct {
		name string
		fn   func() ([]models.CompanyEvent, error)
	}{
		{"earnings", func() ([]models.CompanyEvent, error) { return r.company.Earnings(ctx, start, end, symbols) }},
		{"dividends", func() ([]models.CompanyEvent, error) { return r.company.Dividends(ctx, start, end, symbols) }},
		{"splits", func() ([]models.CompanyEvent, error) { return r.company.Splits(ctx, start, end, symbols) }},
		{"ipos", func() ([]models.CompanyEvent, error) { return r.company.IPOs(ctx, start, end) }},
	}
	for _, f := range fetchers {
		evs, err := f.fn()
		if err != nil {
			return nil, nil, fmt.Errorf("%s calendar: %w", f.name, err)
		}
		company = append(company, evs...)
	}
	return company, macro, nil
}

// regimeState prefers the policy already on the report and otherwise maps
// the report's regime and probabilities with the v1 scheme for k.
func (r *OverlayRunner) regimeState(report *models.Report, k int) models.RegimeState {
	if report.Policy != nil {
		return *report.Policy
	}
	m, err := policy.NewMapperFor(k)
	if err != nil {
		id := report.Regime
		return models.RegimeState{Name: models.RegimeTransition, Confidence: report.Confidence(), RegimeID: &id}
	}
	return m.MapLabel(report.Regime, policy.Confidence(report.RegimeProbs))
}

func filterImportance(events []models.MacroEvent, importance int) []models.MacroEvent {
	out := events[:0:0]
	for _, ev := range events {
		if ev.Importance == importance {
			out = append(out, ev)
		}
	}
	return out
}
