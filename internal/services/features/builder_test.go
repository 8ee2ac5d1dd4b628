package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeNews/internal/domain/models"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func wavySeries(ticker string, n int, phase float64) models.PriceSeries {
	s := models.PriceSeries{Ticker: ticker}
	p := 100.0
	for i := 0; i < n; i++ {
		p *= math.Exp(0.001 + 0.02*math.Sin(float64(i)/7+phase))
		s.Bars = append(s.Bars, models.PriceBar{
			Date:     day0.AddDate(0, 0, i),
			Ticker:   ticker,
			AdjClose: p,
			Volume:   1000,
		})
	}
	return s
}

func TestBuildTrimsWarmupRows(t *testing.T) {
	px := wavySeries("AAPL", 300, 0)

	res := Build(px, nil)

	require.Equal(t, 300-DrawdownWindow+1, res.Table.Len())
	assert.Equal(t, px.Bars[DrawdownWindow-1].Date, res.Table.Rows[0].Date)
	assert.False(t, res.Table.HasMarket)
	assert.Len(t, res.Table.Columns(), 6)
}

func TestBuildInvariants(t *testing.T) {
	res := Build(wavySeries("AAPL", 400, 1), nil)
	require.NotZero(t, res.Table.Len())
	require.Len(t, res.Returns, res.Table.Len())

	for i, r := range res.Table.Rows {
		assert.GreaterOrEqual(t, r.Vol20D, 0.0)
		assert.GreaterOrEqual(t, r.Vol60D, 0.0)
		assert.LessOrEqual(t, r.DD252D, 0.0)
		assert.Equal(t, r.Ret1D, res.Returns[i])
	}
}

func TestBuildMatchesDirectComputation(t *testing.T) {
	px := wavySeries("AAPL", 260, 0.3)
	res := Build(px, nil)
	last := res.Table.Rows[res.Table.Len()-1]

	closes := make([]float64, len(px.Bars))
	for i, b := range px.Bars {
		closes[i] = b.AdjClose
	}
	n := len(closes)
	ret := make([]float64, 0, ShortWindow)
	for i := n - ShortWindow; i < n; i++ {
		ret = append(ret, math.Log(closes[i]/closes[i-1]))
	}
	sum, mean := 0.0, 0.0
	for _, r := range ret {
		sum += r
	}
	mean = sum / ShortWindow
	ss := 0.0
	for _, r := range ret {
		ss += (r - mean) * (r - mean)
	}
	vol := math.Sqrt(ss/(ShortWindow-1)) * math.Sqrt(TradingDays)

	peak := 0.0
	for _, c := range closes[n-DrawdownWindow:] {
		peak = math.Max(peak, c)
	}

	assert.InDelta(t, sum, last.Mom20D, 1e-12)
	assert.InDelta(t, vol, last.Vol20D, 1e-12)
	assert.InDelta(t, closes[n-1]/peak-1, last.DD252D, 1e-12)
}

func TestBuildSortsInput(t *testing.T) {
	px := wavySeries("AAPL", 280, 0)
	reversed := models.PriceSeries{Ticker: px.Ticker}
	for i := len(px.Bars) - 1; i >= 0; i-- {
		reversed.Bars = append(reversed.Bars, px.Bars[i])
	}

	assert.Equal(t, Build(px, nil), Build(reversed, nil))
}

func TestBuildMarketLeftJoin(t *testing.T) {
	px := wavySeries("AAPL", 300, 0)
	mkt := wavySeries("SPY", 300, 2)
	// drop one market date that falls inside the defined region
	missing := mkt.Bars[280].Date
	mkt.Bars = append(mkt.Bars[:280], mkt.Bars[281:]...)
	// extra market-only date is ignored
	mkt.Bars = append(mkt.Bars, models.PriceBar{Date: day0.AddDate(0, 0, 500), AdjClose: 1})

	res := Build(px, &mkt)

	require.True(t, res.Table.HasMarket)
	assert.Len(t, res.Table.Columns(), 7)
	assert.Equal(t, 300-DrawdownWindow+1-1, res.Table.Len())
	for _, r := range res.Table.Rows {
		assert.NotEqual(t, missing, r.Date)
		assert.False(t, math.IsNaN(r.MktRet1D))
	}
	assert.Len(t, res.Table.Matrix()[0], 7)
}

func TestBuildEmptyMarketIsIgnored(t *testing.T) {
	px := wavySeries("AAPL", 300, 0)
	res := Build(px, &models.PriceSeries{Ticker: "SPY"})
	assert.False(t, res.Table.HasMarket)
	assert.Equal(t, 300-DrawdownWindow+1, res.Table.Len())
}

func TestBuildDropsNonFiniteRows(t *testing.T) {
	px := wavySeries("AAPL", 320, 0)
	px.Bars[300].AdjClose = 0

	res := Build(px, nil)

	for _, r := range res.Table.Rows {
		for _, v := range []float64{r.Ret1D, r.Vol20D, r.Vol60D, r.Mom20D, r.Mom60D, r.DD252D} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
	assert.Less(t, res.Table.Len(), 320-DrawdownWindow+1)
}

func TestBuildTooShort(t *testing.T) {
	res := Build(wavySeries("AAPL", 100, 0), nil)
	assert.Zero(t, res.Table.Len())
	assert.Empty(t, res.Returns)
}
