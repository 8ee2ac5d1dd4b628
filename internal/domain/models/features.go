package models

import "time"

// Feature column names, in matrix order.
const (
	ColRet1D    = "ret_1d"
	ColVol20D   = "vol_20d"
	ColVol60D   = "vol_60d"
	ColMom20D   = "mom_20d"
	ColMom60D   = "mom_60d"
	ColDD252D   = "dd_252d"
	ColMktRet1D = "mkt_ret_1d"
)

// FeatureRow holds the smoothed features for one trading date. MktRet1D is
// only meaningful when the owning table has HasMarket set.
type FeatureRow struct {
	Date     time.Time `json:"date"`
	Ret1D    float64   `json:"ret_1d"`
	Vol20D   float64   `json:"vol_20d"`
	Vol60D   float64   `json:"vol_60d"`
	Mom20D   float64   `json:"mom_20d"`
	Mom60D   float64   `json:"mom_60d"`
	DD252D   float64   `json:"dd_252d"`
	MktRet1D float64   `json:"mkt_ret_1d,omitempty"`
}

// FeatureTable is the trimmed, fully defined feature history.
type FeatureTable struct {
	Rows      []FeatureRow
	HasMarket bool
}

func (t FeatureTable) Len() int { return len(t.Rows) }

// Columns lists the feature names in the order Matrix emits them.
func (t FeatureTable) Columns() []string {
	cols := []string{ColRet1D, ColVol20D, ColVol60D, ColMom20D, ColMom60D, ColDD252D}
	if t.HasMarket {
		cols = append(cols, ColMktRet1D)
	}
	return cols
}

// Matrix returns the rows as a dense row-major slice of feature vectors.
func (t FeatureTable) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		v := []float64{r.Ret1D, r.Vol20D, r.Vol60D, r.Mom20D, r.Mom60D, r.DD252D}
		if t.HasMarket {
			v = append(v, r.MktRet1D)
		}
		out[i] = v
	}
	return out
}

// Dates returns the row dates in order.
func (t FeatureTable) Dates() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Date
	}
	return out
}
