package models

// QuantileBand is the empirical 5/50/95 percentile of forward log return.
type QuantileBand struct {
	Q05 float64 `json:"q05"`
	Q50 float64 `json:"q50"`
	Q95 float64 `json:"q95"`
}

// Report is the pipeline output contract.
type Report struct {
	RunID          string                   `json:"run_id"`
	Ticker         string                   `json:"ticker"`
	AsOf           string                   `json:"asof"`
	Mode           string                   `json:"mode"`
	Regime         int                      `json:"regime"`
	RegimeProbs    map[string]float64       `json:"regime_probs"`
	Policy         *RegimeState             `json:"regime_policy,omitempty"`
	ExpectedRanges map[string]*QuantileBand `json:"expected_ranges_logret"`
	News           NewsSummary              `json:"news"`
	Watchouts      []string                 `json:"watchouts"`
	NRowsUsed      int                      `json:"n_rows_used"`
	NRegimesUsed   int                      `json:"n_regimes_used"`
	RegimeCounts   map[int]int              `json:"regime_counts,omitempty"`
	MinRegimeSize  *int                     `json:"min_regime_size,omitempty"`
	Warning        *string                  `json:"warning"`
	EventOverlay   *EventOverlay            `json:"event_overlay,omitempty"`
}

// RegimeName is the mapped policy regime, or "" when no scheme applied.
func (r *Report) RegimeName() string {
	if r.Policy == nil {
		return ""
	}
	return string(r.Policy.Name)
}

// Confidence is the largest posterior in RegimeProbs.
func (r *Report) Confidence() float64 {
	best := 0.0
	for _, p := range r.RegimeProbs {
		if p > best {
			best = p
		}
	}
	return best
}
