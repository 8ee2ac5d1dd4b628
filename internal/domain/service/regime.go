package service

import (
	"RegimeNews/internal/domain/models"
)

// RegimeFit is the labeled history produced by a RegimeFitter.
type RegimeFit struct {
	Assignments []models.RegimeAssignment
	Components  int
}

// Latest returns the most recent assignment.
func (f RegimeFit) Latest() models.RegimeAssignment {
	return f.Assignments[len(f.Assignments)-1]
}

// Labels returns the hard labels in date order.
func (f RegimeFit) Labels() []int {
	out := make([]int, len(f.Assignments))
	for i, a := range f.Assignments {
		out[i] = a.Label
	}
	return out
}

// RegimeFitter clusters a feature table into k soft regimes.
type RegimeFitter interface {
	Fit(table models.FeatureTable, k int) (RegimeFit, error)
}

// PolicyMapper turns the latest assignment into a policy regime.
type PolicyMapper interface {
	Map(a models.RegimeAssignment) models.RegimeState
}
