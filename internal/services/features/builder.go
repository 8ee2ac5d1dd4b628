package features

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"RegimeNews/internal/domain/models"
)

const (
	ShortWindow    = 20
	LongWindow     = 60
	DrawdownWindow = 252
	TradingDays    = 252
)

// Result is the trimmed feature table plus the daily log returns aligned to
// its rows.
type Result struct {
	Table   models.FeatureTable
	Returns []float64
}

// Build derives the feature table from daily prices. The market series is
// optional; when it has rows its 1-day log return is left-joined by date.
// Rows with any undefined or infinite value are dropped.
func Build(px models.PriceSeries, market *models.PriceSeries) Result {
	bars := sortedBars(px.Bars)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.AdjClose
	}

	ret := ComputeLogReturns(closes)
	vol20 := Annualize(RollingStd(ret, ShortWindow))
	vol60 := Annualize(RollingStd(ret, LongWindow))
	mom20 := RollingSum(ret, ShortWindow)
	mom60 := RollingSum(ret, LongWindow)
	dd := RollingDrawdown(closes, DrawdownWindow)

	var mkt map[time.Time]float64
	if market != nil && len(market.Bars) > 0 {
		mkt = marketReturns(market.Bars)
	}

	res := Result{Table: models.FeatureTable{HasMarket: mkt != nil}}
	for i, b := range bars {
		row := models.FeatureRow{
			Date:   b.Date,
			Ret1D:  ret[i],
			Vol20D: vol20[i],
			Vol60D: vol60[i],
			Mom20D: mom20[i],
			Mom60D: mom60[i],
			DD252D: dd[i],
		}
		vals := []float64{row.Ret1D, row.Vol20D, row.Vol60D, row.Mom20D, row.Mom60D, row.DD252D}
		if mkt != nil {
			m, ok := mkt[dayKey(b.Date)]
			if !ok {
				m = math.NaN()
			}
			row.MktRet1D = m
			vals = append(vals, m)
		}
		if !allFinite(vals) {
			continue
		}
		res.Table.Rows = append(res.Table.Rows, row)
		res.Returns = append(res.Returns, row.Ret1D)
	}
	return res
}

// ComputeLogReturns returns ln(p_t) - ln(p_{t-1}) with the same length as
// prices; the first element is NaN.
func ComputeLogReturns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(prices[i]) - math.Log(prices[i-1])
	}
	return out
}

// RollingStd is the sample standard deviation over a trailing full window.
func RollingStd(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		if !allFinite(w) {
			return math.NaN()
		}
		return stat.StdDev(w, nil)
	})
}

// RollingSum is the sum over a trailing full window.
func RollingSum(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		s := 0.0
		for _, v := range w {
			s += v
		}
		return s
	})
}

// RollingDrawdown is price / trailing-window max - 1. It is NaN until the
// window is full.
func RollingDrawdown(prices []float64, window int) []float64 {
	return rolling(prices, window, func(w []float64) float64 {
		peak := math.Inf(-1)
		for _, v := range w {
			if math.IsNaN(v) {
				return math.NaN()
			}
			peak = math.Max(peak, v)
		}
		return w[len(w)-1]/peak - 1
	})
}

// Annualize scales daily volatility by sqrt(252).
func Annualize(x []float64) []float64 {
	k := math.Sqrt(TradingDays)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * k
	}
	return out
}

func rolling(x []float64, window int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if window < 1 || i+1 < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(x[i+1-window : i+1])
	}
	return out
}

func marketReturns(bars []models.PriceBar) map[time.Time]float64 {
	sorted := sortedBars(bars)
	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.AdjClose
	}
	ret := ComputeLogReturns(closes)
	out := make(map[time.Time]float64, len(sorted))
	for i, b := range sorted {
		out[dayKey(b.Date)] = ret[i]
	}
	return out
}

func sortedBars(bars []models.PriceBar) []models.PriceBar {
	out := make([]models.PriceBar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dayKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
