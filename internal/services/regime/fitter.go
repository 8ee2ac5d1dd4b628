package regime

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/service"
)

// MinRegimeFraction is the smallest regime share that does not raise an
// imbalance warning.
const MinRegimeFraction = 0.05

// maxCondition is the largest condition number of the feature covariance
// that still counts as full rank.
const maxCondition = 1e10

type Config struct {
	Restarts int
	Seed     int64
	MaxIter  int
	Tol      float64
	RegCovar float64
}

func DefaultConfig() Config {
	return Config{
		Restarts: 10,
		Seed:     7,
		MaxIter:  100,
		Tol:      1e-3,
		RegCovar: 1e-6,
	}
}

// Fitter standardizes features and fits a Gaussian mixture. It is safe for
// concurrent use; every call seeds its own generator.
type Fitter struct {
	cfg Config
}

func NewFitter(cfg Config) *Fitter {
	d := DefaultConfig()
	if cfg.Restarts < 1 {
		cfg.Restarts = d.Restarts
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = d.MaxIter
	}
	if cfg.Tol <= 0 {
		cfg.Tol = d.Tol
	}
	if cfg.RegCovar <= 0 {
		cfg.RegCovar = d.RegCovar
	}
	return &Fitter{cfg: cfg}
}

// Model bundles the fitted scaler and mixture with the labeled history.
type Model struct {
	Scaler  *Scaler
	Mixture *GaussianMixture
	Fit     service.RegimeFit
}

func (f *Fitter) Fit(table models.FeatureTable, k int) (service.RegimeFit, error) {
	m, err := f.FitModel(table, k)
	if err != nil {
		return service.RegimeFit{}, err
	}
	return m.Fit, nil
}

// FitModel fits k components and labels every row with its arg-max posterior.
func (f *Fitter) FitModel(table models.FeatureTable, k int) (*Model, error) {
	const op = "regime fit"
	if k < 1 {
		return nil, errs.Configurationf(op, "component count must be positive, got %d", k)
	}
	n := table.Len()
	if n < k {
		return nil, errs.DegenerateFit(op, fmt.Sprintf("%d rows cannot support %d components", n, k), nil)
	}

	raw := table.Matrix()
	for i, row := range raw {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errs.DegenerateFit(op, fmt.Sprintf("non-finite feature at row %d", i), nil)
			}
		}
	}

	scaler := FitScaler(raw)
	x := scaler.Transform(raw)
	if collinear(x) {
		return nil, errs.DegenerateFit(op, "collinear features", nil)
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	settings := emSettings{maxIter: f.cfg.MaxIter, tol: f.cfg.Tol, regCovar: f.cfg.RegCovar}

	var best *GaussianMixture
	var lastErr error
	for r := 0; r < f.cfg.Restarts; r++ {
		resp := kmeansResponsibilities(x, k, rng)
		g, err := fitEM(x, resp, settings)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || g.LowerBound > best.LowerBound {
			best = g
		}
	}
	if best == nil {
		return nil, errs.DegenerateFit(op, "all restarts failed", lastErr)
	}

	probs := best.PredictProba(x)
	fit := service.RegimeFit{Components: k, Assignments: make([]models.RegimeAssignment, n)}
	for i, row := range table.Rows {
		fit.Assignments[i] = models.RegimeAssignment{
			Date:  row.Date,
			Label: argmax(probs[i]),
			Probs: probs[i],
		}
	}
	return &Model{Scaler: scaler, Mixture: best, Fit: fit}, nil
}

// collinear reports whether the non-constant columns of x have a singular
// or ill-conditioned sample covariance. Constant columns are skipped.
func collinear(x [][]float64) bool {
	n := len(x)
	if n < 2 {
		return false
	}
	var cols []int
	for j := range x[0] {
		for i := 1; i < n; i++ {
			if x[i][j] != x[0][j] {
				cols = append(cols, j)
				break
			}
		}
	}
	if len(cols) < 2 {
		return false
	}
	data := mat.NewDense(n, len(cols), nil)
	for i, row := range x {
		for c, j := range cols {
			data.Set(i, c, row[j])
		}
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var chol mat.Cholesky
	if !chol.Factorize(&cov) {
		return true
	}
	return chol.Cond() > maxCondition
}

// Diagnostics summarises how rows spread over regimes.
type Diagnostics struct {
	Counts  map[int]int
	MinSize int
	Warning *string
}

// Diagnose counts rows per observed label and warns when the smallest
// regime holds under MinRegimeFraction of the rows.
func Diagnose(labels []int) Diagnostics {
	d := Diagnostics{Counts: make(map[int]int)}
	for _, l := range labels {
		d.Counts[l]++
	}
	if len(d.Counts) == 0 {
		return d
	}

	first := true
	for _, c := range d.Counts {
		if first || c < d.MinSize {
			d.MinSize = c
			first = false
		}
	}

	frac := float64(d.MinSize) / float64(len(labels))
	if frac < MinRegimeFraction {
		w := fmt.Sprintf("Regime imbalance detected: smallest regime has %d / %d rows (%.1f%%). "+
			"Consider using fewer regimes or adjusting features.", d.MinSize, len(labels), frac*100)
		d.Warning = &w
	}
	return d
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

var _ service.RegimeFitter = (*Fitter)(nil)
