package regime

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes columns to zero mean and unit population variance
// using statistics of the data it was fitted on.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes per-column mean and population std of x (row-major).
// A constant column keeps scale 1.
func FitScaler(x [][]float64) *Scaler {
	if len(x) == 0 {
		return &Scaler{}
	}
	d := len(x[0])
	s := &Scaler{Mean: make([]float64, d), Scale: make([]float64, d)}
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// Transform returns a standardized copy of x.
func (s *Scaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = z
	}
	return out
}
