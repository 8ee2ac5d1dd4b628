package policy

import (
	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
)

// Version identifies the heuristic cluster-to-policy mapping.
const Version = "v1"

// Scheme maps numeric cluster ids of a k-component fit to policy regimes.
type Scheme interface {
	Clusters() int
	Lookup(label int) (models.RegimeName, bool)
}

// TableScheme is a fixed lookup table for one cluster count.
type TableScheme struct {
	k     int
	names map[int]models.RegimeName
}

func NewTableScheme(k int, names map[int]models.RegimeName) TableScheme {
	cp := make(map[int]models.RegimeName, len(names))
	for id, n := range names {
		cp[id] = n
	}
	return TableScheme{k: k, names: cp}
}

func (s TableScheme) Clusters() int { return s.k }

func (s TableScheme) Lookup(label int) (models.RegimeName, bool) {
	n, ok := s.names[label]
	return n, ok
}

// TwoCluster is the v1 table for 2-component fits.
func TwoCluster() TableScheme {
	return NewTableScheme(2, map[int]models.RegimeName{
		0: models.RegimeRiskOn,
		1: models.RegimeRiskOff,
	})
}

// ThreeCluster is the v1 table for 3-component fits.
func ThreeCluster() TableScheme {
	return NewTableScheme(3, map[int]models.RegimeName{
		0: models.RegimeRiskOn,
		1: models.RegimeLateCycle,
		2: models.RegimeRiskOff,
	})
}

// SchemeFor returns the v1 scheme for k clusters.
func SchemeFor(k int) (Scheme, error) {
	switch k {
	case 2:
		return TwoCluster(), nil
	case 3:
		return ThreeCluster(), nil
	default:
		return nil, errs.Configurationf("policy scheme", "no regime policy mapping for %d clusters", k)
	}
}
