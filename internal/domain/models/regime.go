package models

import (
	"fmt"
	"time"
)

// RegimeName is the policy-facing label for a market state.
type RegimeName string

const (
	RegimeRiskOn     RegimeName = "risk_on"
	RegimeLateCycle  RegimeName = "late_cycle"
	RegimeRiskOff    RegimeName = "risk_off"
	RegimeTransition RegimeName = "transition"
)

// RegimeAssignment is the fitted label and posterior vector for one date.
type RegimeAssignment struct {
	Date  time.Time `json:"date"`
	Label int       `json:"regime"`
	Probs []float64 `json:"probs"`
}

// MaxProb returns the largest posterior, or 0 for an empty vector.
func (a RegimeAssignment) MaxProb() float64 {
	m := 0.0
	for i, p := range a.Probs {
		if i == 0 || p > m {
			m = p
		}
	}
	return m
}

// ProbMap renders the posterior as p_regime_k keys.
func (a RegimeAssignment) ProbMap() map[string]float64 {
	out := make(map[string]float64, len(a.Probs))
	for k, p := range a.Probs {
		out[ProbKey(k)] = p
	}
	return out
}

// ProbKey is the report key for component k.
func ProbKey(k int) string {
	return fmt.Sprintf("p_regime_%d", k)
}

// RegimeState is what the overlay engine consumes.
type RegimeState struct {
	Name       RegimeName `json:"regime_name"`
	Confidence float64    `json:"confidence"`
	RegimeID   *int       `json:"regime_id"`
}
