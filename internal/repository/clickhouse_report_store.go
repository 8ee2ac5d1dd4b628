package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	pkgch "RegimeNews/pkg/clickhouse"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"
)

// ErrReportNotFound is returned when no report exists for a ticker.
var ErrReportNotFound = errors.New("report not found")

// CHReportStore keeps every finished report. The full JSON goes into payload,
// the decision columns are kept flat for querying.
type CHReportStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

var _ domrepo.ReportStore = (*CHReportStore)(nil)

func NewCHReportStore(ch *pkgch.Client, l *applogger.Logger) *CHReportStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHReportStore{
		db:    ch.DB(),
		table: ch.Database() + ".reports",
		now:   time.Now,
		l:     l.Component("report_store"),
	}
}

func (s *CHReportStore) SaveReport(ctx context.Context, r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	asof, err := util.ParseDate(r.AsOf)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	var (
		allow, tighten *uint8
		mult           *float64
	)
	if ov := r.EventOverlay; ov != nil {
		a, t := boolByte(ov.AllowNewPositions), boolByte(ov.TightenStops)
		m := ov.RiskMultiplier
		allow, tighten, mult = &a, &t, &m
	}

	q := fmt.Sprintf(`INSERT INTO %s (run_id, ticker, asof, mode, regime, regime_name, confidence,
        allow_new, risk_multiplier, tighten_stops, n_rows_used, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		r.RunID,
		r.Ticker,
		asof,
		r.Mode,
		int32(r.Regime),
		r.RegimeName(),
		r.Confidence(),
		allow,
		mult,
		tighten,
		uint32(r.NRowsUsed),
		string(payload),
		s.now().UTC(),
	)
	if err != nil {
		s.l.Error("clickhouse save_report error",
			applogger.String("ticker", r.Ticker),
			applogger.String("run_id", r.RunID),
			applogger.Error(err),
		)
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// LatestReport returns the most recently stored report for ticker.
func (s *CHReportStore) LatestReport(ctx context.Context, ticker string) (*models.Report, error) {
	q := fmt.Sprintf(`SELECT payload FROM %s WHERE ticker = ? ORDER BY created_at DESC LIMIT 1`, s.table)
	var payload string
	err := s.db.QueryRowContext(ctx, q, util.NormalizeSymbol(ticker)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest report: %w", err)
	}
	var r models.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
