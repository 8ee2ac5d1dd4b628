package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	pkgch "RegimeNews/pkg/clickhouse"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"
)

const priceChunkSize = 2000

// CHPriceStore archives daily bars in ClickHouse.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.PriceArchive = (*CHPriceStore)(nil)

func NewCHPriceStore(ch *pkgch.Client, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{
		db:    ch.DB(),
		table: ch.Database() + ".daily_prices",
		l:     l.Component("price_archive"),
	}
}

// StorePrices inserts bars in multi-row chunks. Re-inserting a day is
// collapsed by the table engine.
func (s *CHPriceStore) StorePrices(ctx context.Context, series models.PriceSeries) error {
	if len(series.Bars) == 0 {
		return nil
	}
	start := time.Now()
	ticker := util.NormalizeSymbol(series.Ticker)

	for lo := 0; lo < len(series.Bars); lo += priceChunkSize {
		hi := lo + priceChunkSize
		if hi > len(series.Bars) {
			hi = len(series.Bars)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*4)
		for _, b := range series.Bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, ticker, util.StartOfDay(b.Date), b.AdjClose, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (ticker, date, adj_close, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store_prices error",
				applogger.String("ticker", ticker),
				applogger.Int("rows", hi-lo),
				applogger.Error(err),
			)
			return fmt.Errorf("store prices: %w", err)
		}
	}

	s.l.Debug("clickhouse store_prices ok",
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(series.Bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// QueryPrices returns archived bars for ticker in [from, to], oldest first.
func (s *CHPriceStore) QueryPrices(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	ticker = util.NormalizeSymbol(ticker)
	const qtpl = `
        SELECT date, adj_close, volume
        FROM %s FINAL
        WHERE ticker = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), ticker, util.StartOfDay(from), util.StartOfDay(to))
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	out := models.PriceSeries{Ticker: ticker}
	for rows.Next() {
		b := models.PriceBar{Ticker: ticker}
		if err := rows.Scan(&b.Date, &b.AdjClose, &b.Volume); err != nil {
			return models.PriceSeries{}, fmt.Errorf("scan price: %w", err)
		}
		b.Date = b.Date.UTC()
		out.Bars = append(out.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
