package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RegimeNews/internal/domain/models"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"

	"github.com/robfig/cron/v3"
)

// Scheduler periodically rebuilds overlay reports for a watchlist.
type Scheduler struct {
	cron      *cron.Cron
	runner    *OverlayRunner
	pipeline  *Pipeline
	schedule  string
	watchlist []string
	symbols   []string
	timeout   time.Duration
	mu        sync.Mutex
	running   bool
	l         *applogger.Logger
}

func NewScheduler(schedule string, watchlist, symbols []string, runner *OverlayRunner, p *Pipeline, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{
		cron:      cron.New(),
		runner:    runner,
		pipeline:  p,
		schedule:  schedule,
		watchlist: watchlist,
		symbols:   symbols,
		timeout:   5 * time.Minute,
		l:         l.Component("scheduler"),
	}
}

// Start registers the refresh job. An empty schedule or watchlist leaves the
// scheduler idle.
func (s *Scheduler) Start() error {
	if s.schedule == "" || len(s.watchlist) == 0 {
		s.l.Info("scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.l.Info("scheduler started",
		applogger.String("schedule", s.schedule),
		applogger.Strings("watchlist", s.watchlist),
	)
	return nil
}

// Stop waits for a running refresh to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.l.Warn("previous refresh still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.Refresh(ctx)
}

// Refresh builds an overlay report for every watchlist ticker and delivers
// the successful ones as one batch. It returns the delivered reports.
func (s *Scheduler) Refresh(ctx context.Context) []*models.Report {
	start := time.Now()
	reports := make([]*models.Report, 0, len(s.watchlist))
	for _, t := range s.watchlist {
		ticker := util.NormalizeSymbol(t)
		if ticker == "" {
			continue
		}
		r, err := s.runner.Build(ctx, models.OverlayRequest{
			RunRequest: models.RunRequest{Ticker: ticker, Start: DefaultStartDate},
			Symbols:    s.symbols,
		})
		if err != nil {
			s.l.Error("scheduled run failed", applogger.String("ticker", ticker), applogger.Error(err))
			continue
		}
		reports = append(reports, r)
	}
	if len(reports) > 0 {
		s.pipeline.DeliverBatch(ctx, reports)
	}
	s.l.Info("watchlist refreshed",
		applogger.Int("ok", len(reports)),
		applogger.Int("total", len(s.watchlist)),
		applogger.Duration("took", time.Since(start)),
	)
	return reports
}
