package regime

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
)

func twoBlobTable(perBlob int) models.FeatureTable {
	rng := rand.New(rand.NewSource(42))
	day := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	centers := [][]float64{
		{0.001, 0.12, 0.14, 0.02, 0.05, -0.02},
		{-0.004, 0.45, 0.30, -0.10, -0.25, -0.35},
	}
	var t models.FeatureTable
	for b, c := range centers {
		for i := 0; i < perBlob; i++ {
			j := func(scale float64) float64 { return rng.NormFloat64() * scale }
			t.Rows = append(t.Rows, models.FeatureRow{
				Date:   day.AddDate(0, 0, b*perBlob+i),
				Ret1D:  c[0] + j(0.0005),
				Vol20D: c[1] + j(0.01),
				Vol60D: c[2] + j(0.01),
				Mom20D: c[3] + j(0.005),
				Mom60D: c[4] + j(0.01),
				DD252D: c[5] + j(0.01),
			})
		}
	}
	return t
}

func TestFitSeparatesWellSeparatedRegimes(t *testing.T) {
	table := twoBlobTable(60)
	fit, err := NewFitter(DefaultConfig()).Fit(table, 2)
	require.NoError(t, err)
	require.Len(t, fit.Assignments, 120)

	first := fit.Assignments[0].Label
	second := fit.Assignments[60].Label
	assert.NotEqual(t, first, second)
	for i, a := range fit.Assignments {
		want := first
		if i >= 60 {
			want = second
		}
		assert.Equal(t, want, a.Label, "row %d", i)
		assert.Equal(t, table.Rows[i].Date, a.Date)
	}
}

func TestFitProbabilitiesFormSimplex(t *testing.T) {
	fit, err := NewFitter(DefaultConfig()).Fit(twoBlobTable(50), 3)
	require.NoError(t, err)

	for _, a := range fit.Assignments {
		require.Len(t, a.Probs, 3)
		sum := 0.0
		for _, p := range a.Probs {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		assert.Equal(t, a.MaxProb(), a.Probs[a.Label])
	}
}

func TestFitIsDeterministic(t *testing.T) {
	table := twoBlobTable(40)
	a, err := NewFitter(DefaultConfig()).Fit(table, 2)
	require.NoError(t, err)
	b, err := NewFitter(DefaultConfig()).Fit(table, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFitModelExposesMixture(t *testing.T) {
	m, err := NewFitter(DefaultConfig()).FitModel(twoBlobTable(40), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Mixture.K())
	assert.InDelta(t, 1.0, m.Mixture.Weights[0]+m.Mixture.Weights[1], 1e-9)
	assert.Len(t, m.Mixture.Means()[0], 6)
	assert.Len(t, m.Scaler.Mean, 6)
}

func TestFitRejectsDegenerateInput(t *testing.T) {
	f := NewFitter(DefaultConfig())

	_, err := f.Fit(twoBlobTable(1), 0)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))

	_, err = f.Fit(twoBlobTable(1), 3)
	assert.True(t, errs.IsKind(err, errs.KindDegenerateFit))

	table := twoBlobTable(20)
	table.Rows[5].Vol20D = math.NaN()
	_, err = f.Fit(table, 2)
	assert.True(t, errs.IsKind(err, errs.KindDegenerateFit))

	collinear := twoBlobTable(40)
	for i := range collinear.Rows {
		collinear.Rows[i].Vol60D = 2 * collinear.Rows[i].Vol20D
		collinear.Rows[i].Mom60D = collinear.Rows[i].Mom20D
	}
	_, err = f.Fit(collinear, 3)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindDegenerateFit))
	assert.Contains(t, err.Error(), "collinear features")
}

func TestFitIgnoresConstantColumns(t *testing.T) {
	table := twoBlobTable(40)
	for i := range table.Rows {
		table.Rows[i].DD252D = 0
	}
	fit, err := NewFitter(DefaultConfig()).Fit(table, 2)
	require.NoError(t, err)
	assert.NotEqual(t, fit.Assignments[0].Label, fit.Assignments[40].Label)
}

func TestScalerStandardizes(t *testing.T) {
	x := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	s := FitScaler(x)
	z := s.Transform(x)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	sum, sq := 0.0, 0.0
	for _, row := range z {
		sum += row[0]
		sq += row[0] * row[0]
		assert.Equal(t, 0.0, row[1])
	}
	assert.InDelta(t, 0.0, sum/4, 1e-12)
	assert.InDelta(t, 1.0, sq/4, 1e-12)
}

func TestDiagnose(t *testing.T) {
	labels := make([]int, 0, 100)
	for i := 0; i < 97; i++ {
		labels = append(labels, 0)
	}
	labels = append(labels, 1, 1, 1)

	d := Diagnose(labels)
	assert.Equal(t, map[int]int{0: 97, 1: 3}, d.Counts)
	assert.Equal(t, 3, d.MinSize)
	require.NotNil(t, d.Warning)
	assert.Equal(t, "Regime imbalance detected: smallest regime has 3 / 100 rows (3.0%). "+
		"Consider using fewer regimes or adjusting features.", *d.Warning)

	balanced := Diagnose([]int{0, 1, 2, 0, 1, 2})
	assert.Nil(t, balanced.Warning)
	assert.Equal(t, 2, balanced.MinSize)
}
