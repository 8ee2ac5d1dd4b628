package policy

import (
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/service"
)

// MinConfidence is the posterior below which the regime is treated as a
// transition.
const MinConfidence = 0.60

// Mapper applies a Scheme to the latest regime assignment.
type Mapper struct {
	scheme Scheme
}

func NewMapper(s Scheme) *Mapper {
	return &Mapper{scheme: s}
}

// NewMapperFor builds a mapper with the v1 scheme for k clusters.
func NewMapperFor(k int) (*Mapper, error) {
	s, err := SchemeFor(k)
	if err != nil {
		return nil, err
	}
	return NewMapper(s), nil
}

func (m *Mapper) Map(a models.RegimeAssignment) models.RegimeState {
	return m.MapLabel(a.Label, a.MaxProb())
}

// MapLabel maps a label with a precomputed confidence.
func (m *Mapper) MapLabel(label int, confidence float64) models.RegimeState {
	id := label
	st := models.RegimeState{Name: models.RegimeTransition, Confidence: confidence, RegimeID: &id}
	if confidence < MinConfidence {
		return st
	}
	if name, ok := m.scheme.Lookup(label); ok {
		st.Name = name
	}
	return st
}

// Confidence returns the max of a p_regime_k probability map, 0 when empty.
func Confidence(probs map[string]float64) float64 {
	conf := 0.0
	first := true
	for _, p := range probs {
		if first || p > conf {
			conf = p
			first = false
		}
	}
	return conf
}

var _ service.PolicyMapper = (*Mapper)(nil)
