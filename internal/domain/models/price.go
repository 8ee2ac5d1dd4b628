package models

import "time"

// PriceBar is one daily end-of-day row for an instrument.
type PriceBar struct {
	Date     time.Time `json:"date"`
	Ticker   string    `json:"ticker"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`
}

// PriceSeries is a date-ordered set of bars for one ticker.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

// Between returns the bars whose date falls in [from, to]. A zero bound is open.
func (s PriceSeries) Between(from, to time.Time) PriceSeries {
	out := PriceSeries{Ticker: s.Ticker}
	for _, b := range s.Bars {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}
