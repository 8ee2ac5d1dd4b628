package fusion

import (
	"math"
	"sort"

	"RegimeNews/internal/domain/models"
)

// DefaultHorizons are the forward windows, in trading days, reported by default.
var DefaultHorizons = []int{5, 20}

// ForwardReturns returns, for every position t, the sum of the next h
// returns (t+1..t+h). The final h positions are NaN.
func ForwardReturns(ret []float64, h int) []float64 {
	out := make([]float64, len(ret))
	for t := range ret {
		if h < 1 || t+h >= len(ret) {
			out[t] = math.NaN()
			continue
		}
		s := 0.0
		for i := t + 1; i <= t+h; i++ {
			s += ret[i]
		}
		out[t] = s
	}
	return out
}

// RegimeQuantiles groups forward returns by regime label and returns, per
// horizon and label, the 5th/50th/95th percentiles. labels and ret must be
// aligned row for row.
func RegimeQuantiles(labels []int, ret []float64, horizons []int) map[int]map[int]models.QuantileBand {
	out := make(map[int]map[int]models.QuantileBand, len(horizons))
	for _, h := range horizons {
		fwd := ForwardReturns(ret, h)
		groups := make(map[int][]float64)
		for i, l := range labels {
			if i >= len(fwd) || math.IsNaN(fwd[i]) {
				continue
			}
			groups[l] = append(groups[l], fwd[i])
		}

		bands := make(map[int]models.QuantileBand, len(groups))
		for l, vals := range groups {
			sort.Float64s(vals)
			bands[l] = models.QuantileBand{
				Q05: Quantile(vals, 0.05),
				Q50: Quantile(vals, 0.50),
				Q95: Quantile(vals, 0.95),
			}
		}
		out[h] = bands
	}
	return out
}

// Quantile linearly interpolates between order statistics at position
// (n-1)*q of an ascending slice. It returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := float64(n-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= n {
		hi = n - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
