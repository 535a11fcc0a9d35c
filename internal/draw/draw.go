// Package draw implements the Cholesky + Harmonic Draw (spec.md §4.7), the
// reproducibility-critical core of the pipeline: per-ell Cholesky
// factorization of the covariance stack, followed by a parallel draw of
// correlated harmonic coefficients whose result is independent of thread
// count only in the "streams stay disjoint" sense, and bit-identical to a
// prior run given the same seed and the same thread count.
package draw

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"cosmofield/internal/covariance"
	"cosmofield/internal/diag"
	"cosmofield/internal/errs"
)

// Offset is the per-thread seed stride (spec.md §4.7: OFFSET = 10^7).
const Offset = 10_000_000

// MaxThreads is the thread-count bound of spec.md §4.7 ("thread_count <
// 210").
const MaxThreads = 210

// Index returns j = l(l+1)/2 + m, the draw-ordering index of spec.md §4.7.
func Index(l, m int) int { return l*(l+1)/2 + m }

// InverseIndex returns the (l,m) pair for draw index j.
func InverseIndex(j int) (l, m int) {
	l = int((math.Sqrt(8*float64(j)+1) - 1) / 2)
	for l*(l+1)/2 > j {
		l--
	}
	for (l+1)*(l+2)/2 <= j {
		l++
	}
	m = j - l*(l+1)/2
	return l, m
}

// CheckPreconditions validates the precondition spec.md §4.7 states must be
// checked explicitly: seed + threads*Offset < 2^31 and threads < MaxThreads.
func CheckPreconditions(seed int64, threads int) error {
	if threads <= 0 {
		return errs.New(errs.Config, "draw", fmt.Errorf("thread count must be positive, got %d", threads))
	}
	if threads >= MaxThreads {
		return errs.New(errs.Config, "draw", fmt.Errorf("thread count %d must be < %d", threads, MaxThreads))
	}
	if seed+int64(threads)*Offset >= (1 << 31) {
		return errs.New(errs.Config, "draw", fmt.Errorf("seed=%d + threads=%d*OFFSET must be < 2^31", seed, threads))
	}
	return nil
}

// Alm is one field's triangular harmonic-coefficient array, indexed by
// Index(l,m) over the full [0,L] triangle (entries below Lmin are left zero).
type Alm []complex128

// AlmSet groups one Alm per field index.
type AlmSet map[int]Alm

// factorize runs Cholesky on every matrix in the stack, returning the lower
// triangular factor L(l) such that L(l)*L(l)^T = M(l). A failure identifies
// the offending ell, per spec.md §4.7 ("Cholesky failure is fatal and
// identifies the offending l").
func factorize(stack covariance.Stack) ([]*mat.TriDense, error) {
	ls := make([]*mat.TriDense, stack.Lmax-stack.Lmin+1)
	for l := stack.Lmin; l <= stack.Lmax; l++ {
		var chol mat.Cholesky
		if !chol.Factorize(stack.At(l)) {
			return nil, errs.NewLIJ(errs.Numerical, "draw.factorize", l, -1, -1,
				fmt.Errorf("covariance matrix at ell=%d is not positive-definite", l))
		}
		var lOut mat.TriDense
		chol.LTo(&lOut)
		ls[l-stack.Lmin] = &lOut
	}
	return ls, nil
}

// applyLower computes y = L*x for a real lower-triangular L and a complex
// vector x, by applying L independently to the real and imaginary parts
// (valid since L has no imaginary component).
func applyLower(l *mat.TriDense, xRe, xIm []float64) (yRe, yIm []float64) {
	n, _ := l.Dims()
	yRe = make([]float64, n)
	yIm = make([]float64, n)
	for i := 0; i < n; i++ {
		var sr, si float64
		for k := 0; k <= i; k++ {
			lik := l.At(i, k)
			sr += lik * xRe[k]
			si += lik * xIm[k]
		}
		yRe[i] = sr
		yIm[i] = si
	}
	return yRe, yIm
}

// Run draws correlated harmonic coefficients for every field across
// [stack.Lmin, stack.Lmax], using a static partition of the j=l(l+1)/2+m
// index space across `threads` workers, each with its own PRNG seeded
// seed + (workerID+1)*Offset, matching spec.md §4.7/§5.
func Run(stack covariance.Stack, seed int64, threads int, log *diag.Log) (AlmSet, error) {
	if err := CheckPreconditions(seed, threads); err != nil {
		return nil, err
	}
	ls, err := factorize(stack)
	if err != nil {
		return nil, err
	}

	n := stack.N
	triangleSize := Index(stack.Lmax, stack.Lmax) + 1
	out := make(AlmSet, n)
	for f := 0; f < n; f++ {
		out[f] = make(Alm, triangleSize)
	}

	jmin := Index(stack.Lmin, 0)
	jmax := Index(stack.Lmax, stack.Lmax)
	total := jmax - jmin + 1
	if total <= 0 {
		return out, nil
	}
	chunk := (total + threads - 1) / threads

	sem := semaphore.NewWeighted(int64(threads))
	done := make(chan struct{}, threads)
	launched := 0

	for w := 0; w < threads; w++ {
		start := jmin + w*chunk
		end := start + chunk
		if end > jmax+1 {
			end = jmax + 1
		}
		if start >= end {
			continue
		}
		if err := sem.Acquire(context.Background(), 1); err != nil {
			return nil, errs.New(errs.Resource, "draw.Run", err)
		}
		launched++
		go func(workerID, start, end int) {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			rng := rand.New(rand.NewSource(seed + int64(workerID+1)*Offset))
			normal := distuv.Normal{Mu: 0, Sigma: math.Sqrt(0.5), Src: rng}
			normalFull := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
			for j := start; j < end; j++ {
				l, m := InverseIndex(j)
				if l < stack.Lmin || l > stack.Lmax {
					continue
				}
				xRe := make([]float64, n)
				xIm := make([]float64, n)
				for f := 0; f < n; f++ {
					if m == 0 {
						xRe[f] = normalFull.Rand()
						xIm[f] = 0
					} else {
						xRe[f] = normal.Rand()
						xIm[f] = normal.Rand()
					}
				}
				yRe, yIm := applyLower(ls[l-stack.Lmin], xRe, xIm)
				for f := 0; f < n; f++ {
					out[f][j] = complex(yRe[f], yIm[f])
				}
			}
		}(w, start, end)
	}
	for i := 0; i < launched; i++ {
		<-done
	}
	return out, nil
}
