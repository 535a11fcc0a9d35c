// Package regularize implements the Regulariser (spec.md §4.6): it
// iteratively nudges a per-ell cross-covariance matrix to positive
// semi-definite, bounded by REG_MAXSTEPS, grounded on the teacher's
// iterate-until-no-improvement shape in ntru/ffsampler.go's
// ReduceTrapdoor/ReduceOnce.
package regularize

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Status reports how the regularisation loop terminated.
type Status int

const (
	// OK means the matrix was (or was made) positive semi-definite within
	// REG_MAXSTEPS steps.
	OK Status = iota
	// Exceeded means REG_MAXSTEPS was reached without reaching PSD; this is
	// fatal at the orchestrator level (spec.md §4.6/§7).
	Exceeded
)

// Result carries the regularised matrix and the diagnostics spec.md asks
// for: the terminal status and the maximum per-entry fractional change.
type Result struct {
	M             *mat.SymDense
	Status        Status
	Steps         int
	MaxFracChange float64
}

// Run nudges a toward positive semi-definiteness by diagonal loading,
// retrying Cholesky factorization after each nudge, bounded by maxSteps.
func Run(a *mat.SymDense, maxSteps int) Result {
	n, _ := a.Dims()
	orig := mat.NewSymDense(n, nil)
	orig.CopySym(a)

	maxAbs := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := math.Abs(orig.At(i, j)); v > maxAbs {
				maxAbs = v
			}
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	cur := mat.NewSymDense(n, nil)
	cur.CopySym(orig)

	var chol mat.Cholesky
	delta := 0.0
	for step := 0; step <= maxSteps; step++ {
		if chol.Factorize(cur) {
			return Result{M: cur, Status: OK, Steps: step, MaxFracChange: fracChange(orig, cur, maxAbs)}
		}
		if step == maxSteps {
			break
		}
		if delta == 0 {
			delta = maxAbs * 1e-12
			if delta == 0 {
				delta = 1e-12
			}
		} else {
			delta *= 10
		}
		next := mat.NewSymDense(n, nil)
		next.CopySym(cur)
		for i := 0; i < n; i++ {
			next.SetSym(i, i, next.At(i, i)+delta)
		}
		cur = next
	}
	return Result{M: cur, Status: Exceeded, Steps: maxSteps, MaxFracChange: fracChange(orig, cur, maxAbs)}
}

func fracChange(orig, cur *mat.SymDense, maxAbs float64) float64 {
	n, _ := orig.Dims()
	maxFrac := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := math.Abs(cur.At(i, j) - orig.At(i, j))
			if f := d / maxAbs; f > maxFrac {
				maxFrac = f
			}
		}
	}
	return maxFrac
}
