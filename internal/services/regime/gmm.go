package regime

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const log2Pi = 1.8378770664093453

type component struct {
	mean   []float64
	cov    *mat.SymDense
	prec   [][]float64
	logDet float64
}

// GaussianMixture is a fitted full-covariance mixture model.
type GaussianMixture struct {
	Weights    []float64
	LowerBound float64
	Iterations int
	Converged  bool

	comps []component
}

// K returns the number of components.
func (g *GaussianMixture) K() int { return len(g.comps) }

// Means returns the component means in standardized feature space.
func (g *GaussianMixture) Means() [][]float64 {
	out := make([][]float64, len(g.comps))
	for k, c := range g.comps {
		out[k] = append([]float64(nil), c.mean...)
	}
	return out
}

// PredictProba returns the posterior membership probabilities of every row.
func (g *GaussianMixture) PredictProba(x [][]float64) [][]float64 {
	resp := newMatrix(len(x), g.K())
	g.eStep(x, resp)
	return resp
}

type emSettings struct {
	maxIter  int
	tol      float64
	regCovar float64
}

// fitEM runs expectation-maximization from the given initial responsibilities.
func fitEM(x [][]float64, resp [][]float64, s emSettings) (*GaussianMixture, error) {
	g := &GaussianMixture{}
	if err := g.mStep(x, resp, s.regCovar); err != nil {
		return nil, err
	}

	lb := math.Inf(-1)
	for it := 1; it <= s.maxIter; it++ {
		prev := lb
		lb = g.eStep(x, resp)
		if math.IsNaN(lb) || math.IsInf(lb, 0) {
			return nil, fmt.Errorf("non-finite log-likelihood at iteration %d", it)
		}
		if err := g.mStep(x, resp, s.regCovar); err != nil {
			return nil, err
		}
		g.Iterations = it
		if math.Abs(lb-prev) < s.tol {
			g.Converged = true
			break
		}
	}
	g.LowerBound = lb
	return g, nil
}

// eStep overwrites resp with normalized posteriors and returns the mean
// per-row log-likelihood.
func (g *GaussianMixture) eStep(x [][]float64, resp [][]float64) float64 {
	total := 0.0
	for i, row := range x {
		maxLog := math.Inf(-1)
		for k := range g.comps {
			v := math.Log(g.Weights[k]) + g.comps[k].logPDF(row)
			resp[i][k] = v
			if v > maxLog {
				maxLog = v
			}
		}
		sum := 0.0
		for k := range g.comps {
			sum += math.Exp(resp[i][k] - maxLog)
		}
		norm := maxLog + math.Log(sum)
		for k := range g.comps {
			resp[i][k] = math.Exp(resp[i][k] - norm)
		}
		total += norm
	}
	return total / float64(len(x))
}

// mStep re-estimates weights, means and covariances from resp.
func (g *GaussianMixture) mStep(x [][]float64, resp [][]float64, regCovar float64) error {
	n, k, d := len(x), len(resp[0]), len(x[0])
	g.Weights = make([]float64, k)
	g.comps = make([]component, k)

	for c := 0; c < k; c++ {
		nk := 10 * epsilon
		mean := make([]float64, d)
		for i := 0; i < n; i++ {
			r := resp[i][c]
			nk += r
			for j := 0; j < d; j++ {
				mean[j] += r * x[i][j]
			}
		}
		for j := range mean {
			mean[j] /= nk
		}

		cov := make([]float64, d*d)
		diff := make([]float64, d)
		for i := 0; i < n; i++ {
			r := resp[i][c]
			for j := 0; j < d; j++ {
				diff[j] = x[i][j] - mean[j]
			}
			for a := 0; a < d; a++ {
				for b := a; b < d; b++ {
					cov[a*d+b] += r * diff[a] * diff[b]
				}
			}
		}
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				v := cov[a*d+b] / nk
				if a == b {
					v += regCovar
				}
				cov[a*d+b] = v
				cov[b*d+a] = v
			}
		}

		comp, err := newComponent(mean, mat.NewSymDense(d, cov))
		if err != nil {
			return fmt.Errorf("component %d: %w", c, err)
		}
		g.Weights[c] = nk / float64(n)
		g.comps[c] = comp
	}
	return nil
}

func newComponent(mean []float64, cov *mat.SymDense) (component, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return component{}, fmt.Errorf("covariance is not positive definite")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return component{}, fmt.Errorf("invert covariance: %w", err)
	}
	d := len(mean)
	prec := newMatrix(d, d)
	for a := 0; a < d; a++ {
		for b := 0; b < d; b++ {
			prec[a][b] = inv.At(a, b)
		}
	}
	return component{mean: mean, cov: cov, prec: prec, logDet: chol.LogDet()}, nil
}

func (c component) logPDF(x []float64) float64 {
	d := len(x)
	maha := 0.0
	for a := 0; a < d; a++ {
		da := x[a] - c.mean[a]
		row := c.prec[a]
		for b := 0; b < d; b++ {
			maha += da * row[b] * (x[b] - c.mean[b])
		}
	}
	return -0.5 * (float64(d)*log2Pi + c.logDet + maha)
}

// kmeansResponsibilities seeds EM with one-hot responsibilities from a
// k-means++ initialised Lloyd run.
func kmeansResponsibilities(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(x)
	centers := kmeansPlusPlus(x, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, row := range x {
			best, bestD := 0, math.Inf(1)
			for c, ctr := range centers {
				if dd := sqDist(row, ctr); dd < bestD {
					best, bestD = c, dd
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := newMatrix(k, len(x[0]))
		counts := make([]int, k)
		for i, row := range x {
			counts[labels[i]]++
			for j, v := range row {
				sums[labels[i]][j] += v
			}
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				centers[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	resp := newMatrix(n, k)
	for i, l := range labels {
		resp[i][l] = 1
	}
	return resp
}

func kmeansPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(x)
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), x[rng.Intn(n)]...))

	d2 := make([]float64, n)
	for i, row := range x {
		d2[i] = sqDist(row, centers[0])
	}
	for len(centers) < k {
		total := 0.0
		for _, v := range d2 {
			total += v
		}
		pick := rng.Intn(n)
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, v := range d2 {
				acc += v
				if acc >= target {
					pick = i
					break
				}
			}
		}
		ctr := append([]float64(nil), x[pick]...)
		centers = append(centers, ctr)
		for i, row := range x {
			if dd := sqDist(row, ctr); dd < d2[i] {
				d2[i] = dd
			}
		}
	}
	return centers
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func newMatrix(r, c int) [][]float64 {
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
	}
	return out
}

const epsilon = 2.220446049250313e-16
