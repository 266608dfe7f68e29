// Package ica implements FastICA on top of gonum matrices.
package ica

import (
	"context"
	"math"
	"math/rand"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type Algorithm int

const (
	Parallel Algorithm = iota
	Deflation
)

func (a Algorithm) String() string {
	switch a {
	case Parallel:
		return "parallel"
	case Deflation:
		return "deflation"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps "parallel" or "deflation" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "parallel":
		return Parallel, nil
	case "deflation":
		return Deflation, nil
	default:
		return 0, errors.Newf("unknown algorithm: %s", s)
	}
}

const rankTol = 1e-12

type FastICA struct {
	components int
	algorithm  Algorithm
	fun        Func
	maxIter    uint
	tol        float64
	seed       int64
}

var _ modica.Decomposer = (*FastICA)(nil)

func New() *FastICA {
	const defaultComponents = 2
	const defaultMaxIter = 200
	const defaultTol = 1e-4
	return &FastICA{
		components: defaultComponents,
		algorithm:  Parallel,
		fun:        LogCosh,
		maxIter:    defaultMaxIter,
		tol:        defaultTol,
		seed:       1,
	}
}

func (f *FastICA) SetComponents(n int) *FastICA {
	f.components = n
	return f
}

func (f *FastICA) SetAlgorithm(a Algorithm) *FastICA {
	f.algorithm = a
	return f
}

func (f *FastICA) SetFunc(fun Func) *FastICA {
	f.fun = fun
	return f
}

func (f *FastICA) SetMaxIter(maxIter uint) *FastICA {
	f.maxIter = maxIter
	return f
}

func (f *FastICA) SetTol(tol float64) *FastICA {
	f.tol = tol
	return f
}

func (f *FastICA) SetSeed(seed int64) *FastICA {
	f.seed = seed
	return f
}

// Model is a fitted decomposition.
type Model struct {
	// Mean is the per-feature mean removed before unmixing.
	Mean []float64
	// Unmixing maps centered features to sources, one row per component.
	Unmixing *mat.Dense
	// Scale is the per-component standard deviation divided out of the
	// sources.
	Scale []float64
	// Sources holds the estimated components of the training data, one
	// row per sample.
	Sources *mat.Dense
	// Iterations is the number of fixed-point iterations used. For
	// Deflation it is the largest count over all components.
	Iterations uint
}

// Transform projects x onto the fitted components.
func (m *Model) Transform(x mat.Matrix) *mat.Dense {
	xc := center(x, m.Mean)
	var s mat.Dense
	s.Mul(xc, m.Unmixing.T())
	scaleCols(&s, m.Scale)
	return &s
}

func (f *FastICA) FitTransform(ctx context.Context, x mat.Matrix) (*mat.Dense, error) {
	model, err := f.Fit(ctx, x)
	if err != nil {
		return nil, err
	}
	return model.Sources, nil
}

func (f *FastICA) Fit(ctx context.Context, x mat.Matrix) (*Model, error) {
	n, p := x.Dims()
	k := f.components
	if n < 2 {
		return nil, precondition("need at least 2 samples, got %d", n)
	}
	if k < 1 || p < k || n < k {
		return nil, precondition("cannot extract %d components from a %dx%d matrix", k, n, p)
	}

	mean := make([]float64, p)
	col := make([]float64, n)
	for j := range mean {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
	}
	xc := center(x, mean)

	whitening, err := whiten(xc, k)
	if err != nil {
		return nil, err
	}

	var x1 mat.Dense
	x1.Mul(whitening, xc.T())
	x1.Scale(math.Sqrt(float64(n)), &x1)

	rng := rand.New(rand.NewSource(f.seed))
	w0 := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			w0.Set(i, j, rng.NormFloat64())
		}
	}

	var w *mat.Dense
	var iter uint
	switch f.algorithm {
	case Parallel:
		w, iter, err = f.parallel(ctx, &x1, w0)
	case Deflation:
		w, iter, err = f.deflation(ctx, &x1, w0)
	default:
		err = errors.Newf("unknown algorithm: %d", f.algorithm)
	}
	if err != nil {
		return nil, err
	}

	var unmixing mat.Dense
	unmixing.Mul(w, whitening)

	var sources mat.Dense
	sources.Mul(xc, unmixing.T())
	scale := make([]float64, k)
	for j := range scale {
		mat.Col(col, j, &sources)
		scale[j] = stat.PopStdDev(col, nil)
		if scale[j] == 0 {
			return nil, precondition("component %d has zero variance", j)
		}
	}
	scaleCols(&sources, scale)

	return &Model{
		Mean:       mean,
		Unmixing:   &unmixing,
		Scale:      scale,
		Sources:    &sources,
		Iterations: iter,
	}, nil
}

func (f *FastICA) parallel(ctx context.Context, x1 *mat.Dense, w0 *mat.Dense) (*mat.Dense, uint, error) {
	k, n := x1.Dims()
	w, err := symDecorrelate(w0)
	if err != nil {
		return nil, 0, err
	}

	gp := make([]float64, k)
	for it := uint(1); it <= f.maxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		var wx mat.Dense
		wx.Mul(w, x1)
		for i := 0; i < k; i++ {
			gp[i] = f.fun.apply(wx.RawRowView(i))
		}

		var w1 mat.Dense
		w1.Mul(&wx, x1.T())
		w1.Scale(1/float64(n), &w1)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				w1.Set(i, j, w1.At(i, j)-gp[i]*w.At(i, j))
			}
		}

		next, err := symDecorrelate(&w1)
		if err != nil {
			return nil, 0, err
		}

		var prod mat.Dense
		prod.Mul(next, w.T())
		lim := 0.0
		for i := 0; i < k; i++ {
			lim = math.Max(lim, math.Abs(math.Abs(prod.At(i, i))-1))
		}
		w = next

		if lim < f.tol {
			return w, it, nil
		}
	}

	return nil, 0, errors.Mark(errors.Newf("no convergence after %d iterations", f.maxIter), modica.ErrConvergence)
}

func (f *FastICA) deflation(ctx context.Context, x1 *mat.Dense, w0 *mat.Dense) (*mat.Dense, uint, error) {
	k, n := x1.Dims()
	w := mat.NewDense(k, k, nil)
	wtx := make([]float64, n)
	var maxIter uint

	for j := 0; j < k; j++ {
		wj := make([]float64, k)
		copy(wj, w0.RawRowView(j))
		floats.Scale(1/floats.Norm(wj, 2), wj)

		converged := false
		for it := uint(1); it <= f.maxIter; it++ {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}

			mat.NewVecDense(n, wtx).MulVec(x1.T(), mat.NewVecDense(k, wj))
			gp := f.fun.apply(wtx)

			w1 := make([]float64, k)
			mat.NewVecDense(k, w1).MulVec(x1, mat.NewVecDense(n, wtx))
			floats.Scale(1/float64(n), w1)
			floats.AddScaled(w1, -gp, wj)

			for i := 0; i < j; i++ {
				prev := w.RawRowView(i)
				floats.AddScaled(w1, -floats.Dot(w1, prev), prev)
			}
			norm := floats.Norm(w1, 2)
			if norm == 0 {
				return nil, 0, errors.Mark(errors.Newf("component %d collapsed", j), modica.ErrConvergence)
			}
			floats.Scale(1/norm, w1)

			lim := math.Abs(math.Abs(floats.Dot(w1, wj)) - 1)
			wj = w1
			if lim < f.tol {
				converged = true
				if maxIter < it {
					maxIter = it
				}
				break
			}
		}
		if !converged {
			return nil, 0, errors.Mark(errors.Newf("component %d: no convergence after %d iterations", j, f.maxIter), modica.ErrConvergence)
		}
		w.SetRow(j, wj)
	}

	return w, maxIter, nil
}

// whiten returns the k x p matrix projecting centered data onto its
// leading k principal directions scaled to unit variance (up to a factor
// of sqrt(n)).
func whiten(xc *mat.Dense, k int) (*mat.Dense, error) {
	_, p := xc.Dims()

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())

	var es mat.EigenSym
	if ok := es.Factorize(&gram, true); !ok {
		return nil, errors.Mark(errors.New("eigendecomposition failed"), modica.ErrConvergence)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	top := vals[p-1]
	if top <= 0 {
		return nil, precondition("data has no variance")
	}

	// EigenSym sorts ascending.
	k1 := mat.NewDense(k, p, nil)
	for r := 0; r < k; r++ {
		idx := p - 1 - r
		d := vals[idx]
		if d <= rankTol*top {
			return nil, precondition("data has rank %d, need %d", r, k)
		}
		s := math.Sqrt(d)
		for c := 0; c < p; c++ {
			k1.Set(r, c, vecs.At(c, idx)/s)
		}
	}
	return k1, nil
}

// symDecorrelate returns (W Wᵀ)^(-1/2) W.
func symDecorrelate(w *mat.Dense) (*mat.Dense, error) {
	k, _ := w.Dims()

	var wwt mat.SymDense
	wwt.SymOuterK(1, w)

	var es mat.EigenSym
	if ok := es.Factorize(&wwt, true); !ok {
		return nil, errors.Mark(errors.New("eigendecomposition failed"), modica.ErrConvergence)
	}
	vals := es.Values(nil)
	var u mat.Dense
	es.VectorsTo(&u)

	d := mat.NewDiagDense(k, nil)
	for i, v := range vals {
		if v <= 0 {
			return nil, errors.Mark(errors.New("singular unmixing matrix"), modica.ErrConvergence)
		}
		d.SetDiag(i, 1/math.Sqrt(v))
	}

	var ud, inv, out mat.Dense
	ud.Mul(&u, d)
	inv.Mul(&ud, u.T())
	out.Mul(&inv, w)
	return &out, nil
}

func center(x mat.Matrix, mean []float64) *mat.Dense {
	xc := mat.DenseCopyOf(x)
	r, c := xc.Dims()
	for i := 0; i < r; i++ {
		row := xc.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] -= mean[j]
		}
	}
	return xc
}

func scaleCols(m *mat.Dense, scale []float64) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j, s := range scale {
			row[j] /= s
		}
	}
}

func precondition(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), modica.ErrPrecondition)
}
