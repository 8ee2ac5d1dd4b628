package repository

import (
	"context"
	"time"

	"RegimeNews/internal/domain/models"
)

// PriceSource fetches daily history from a market-data provider.
type PriceSource interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// PriceCache keeps one entry per symbol on local disk.
type PriceCache interface {
	Get(ctx context.Context, ticker string) (models.PriceSeries, bool, error)
	Put(ctx context.Context, series models.PriceSeries) error
	Close() error
}

// PriceArchive persists fetched history for later analysis.
type PriceArchive interface {
	StorePrices(ctx context.Context, series models.PriceSeries) error
	QueryPrices(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// MacroCalendar lists economic releases between two calendar dates.
type MacroCalendar interface {
	MacroEvents(ctx context.Context, start, end time.Time) ([]models.MacroEvent, error)
}

// CompanyCalendar lists company events between two calendar dates.
type CompanyCalendar interface {
	Earnings(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error)
	Dividends(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error)
	Splits(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error)
	IPOs(ctx context.Context, start, end time.Time) ([]models.CompanyEvent, error)
}

// NewsSource returns recent headlines for a ticker.
type NewsSource interface {
	Headlines(ctx context.Context, ticker string) ([]models.Article, error)
}

// ReportStore persists finished reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r *models.Report) error
	LatestReport(ctx context.Context, ticker string) (*models.Report, error)
}

// Publisher fans finished reports out to downstream consumers.
type Publisher interface {
	PublishReport(ctx context.Context, r *models.Report) error
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordRun(mode, outcome string, seconds float64)
	RecordStage(stage string, seconds float64)
	RecordError(kind string)
	RecordDecision(ticker string, d models.EventOverlayDecision)
}
