package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"RegimeNews/internal/domain/models"
	pkgch "RegimeNews/pkg/clickhouse"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockCH(t *testing.T) (*pkgch.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return pkgch.NewFromDB(db, "regime_news"), mock
}

func TestStorePricesChunks(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHPriceStore(ch, nil)

	bars := make([]models.PriceBar, priceChunkSize+1)
	for i := range bars {
		bars[i] = models.PriceBar{Date: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), AdjClose: float64(i + 1)}
	}
	insert := regexp.QuoteMeta("INSERT INTO regime_news.daily_prices (ticker, date, adj_close, volume) VALUES")
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, priceChunkSize))
	mock.ExpectExec(insert).WithArgs("SPY", bars[priceChunkSize].Date, float64(priceChunkSize+1), 0.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.StorePrices(context.Background(), models.PriceSeries{Ticker: "spy", Bars: bars}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorePricesEmpty(t *testing.T) {
	ch, mock := newMockCH(t)
	require.NoError(t, NewCHPriceStore(ch, nil).StorePrices(context.Background(), models.PriceSeries{Ticker: "SPY"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPrices(t *testing.T) {
	ch, mock := newMockCH(t)
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT date, adj_close, volume").
		WithArgs("AAPL", d1, d2).
		WillReturnRows(sqlmock.NewRows([]string{"date", "adj_close", "volume"}).
			AddRow(d1, 10.0, 100.0).
			AddRow(d2, 11.0, 200.0))

	series, err := NewCHPriceStore(ch, nil).QueryPrices(context.Background(), "aapl", d1.Add(3*time.Hour), d2)
	require.NoError(t, err)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, "AAPL", series.Bars[0].Ticker)
	assert.Equal(t, 11.0, series.Bars[1].AdjClose)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAndLoadReport(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHReportStore(ch, nil)
	created := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }

	report := &models.Report{
		RunID:       "7b0e8a52-5f7e-4a55-9a43-3a4bb2f0f0a1",
		Ticker:      "AAPL",
		AsOf:        "2024-10-14",
		Mode:        "strict",
		Regime:      1,
		RegimeProbs: map[string]float64{"p_regime_0": 0.2, "p_regime_1": 0.8},
		NRowsUsed:   2200,
		EventOverlay: &models.EventOverlay{
			EventOverlayDecision: models.EventOverlayDecision{RiskMultiplier: 0.35, TightenStops: true},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO regime_news.reports")).
		WithArgs(report.RunID, "AAPL", time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC), "strict", int32(1), "",
			0.8, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), uint32(2200), sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.SaveReport(context.Background(), report))

	payload, err := json.Marshal(report)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT payload FROM regime_news.reports").
		WithArgs("AAPL").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(payload)))

	got, err := store.LatestReport(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, got.RunID)
	require.NotNil(t, got.EventOverlay)
	assert.Equal(t, 0.35, got.EventOverlay.RiskMultiplier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestReportMissing(t *testing.T) {
	ch, mock := newMockCH(t)
	mock.ExpectQuery("SELECT payload").WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := NewCHReportStore(ch, nil).LatestReport(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
