// Package covariance implements the Covariance Assembler (spec.md §4.5): it
// builds, per ell, the N x N real symmetric cross-covariance matrix, fills
// missing entries by symmetry, and validates the diagonal/correlation
// invariants of spec.md §8.
package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"cosmofield/internal/diag"
	"cosmofield/internal/errs"
	"cosmofield/internal/spectrum"
)

// Stack is a sequence of N x N real symmetric matrices indexed by integer
// ell in [Lmin, Lmax]; M[l-Lmin] is the matrix at multipole l.
type Stack struct {
	N, Lmin, Lmax int
	M             []*mat.SymDense
}

// At returns the matrix for multipole l.
func (s Stack) At(l int) *mat.SymDense { return s.M[l-s.Lmin] }

// Options carries the validation/regularisation knobs of spec.md §6.
type Options struct {
	AllowMissCl  bool
	MinDiagFrac  float64 // <=0 disables the replacement, per-l warning instead
	BadCorrFrac  float64
}

// Assemble builds the covariance stack from per-pair spectra already
// resampled onto the integer ell grid (cl[pair][l], l=0..Lmax).
func Assemble(n, lmin, lmax int, cl map[spectrum.Pair][]float64, opts Options, log *diag.Log) (Stack, error) {
	stack := Stack{N: n, Lmin: lmin, Lmax: lmax, M: make([]*mat.SymDense, lmax-lmin+1)}

	// First pass: raw diagonal values, to find the global minimum positive
	// diagonal entry MINDIAG_FRAC scales against.
	globalMinDiag := math.Inf(1)
	haveGlobalMinDiag := false
	for l := lmin; l <= lmax; l++ {
		for i := 0; i < n; i++ {
			if s, ok := cl[spectrum.Pair{I: i, J: i}]; ok && l < len(s) && s[l] > 0 {
				if s[l] < globalMinDiag {
					globalMinDiag = s[l]
				}
				haveGlobalMinDiag = true
			}
		}
	}

	for l := lmin; l <= lmax; l++ {
		m := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v, err := entry(cl, l, i, j, opts.AllowMissCl)
				if err != nil {
					return Stack{}, errs.NewLIJ(errs.Input, "covariance.Assemble", l, i, j, err)
				}
				m.SetSym(i, j, v)
			}
		}
		// Diagonal checks.
		for i := 0; i < n; i++ {
			d := m.At(i, i)
			switch {
			case d < 0:
				log.WarnLIJ("covariance.Assemble", l, i, i, "negative diagonal %.6g", d)
			case d == 0:
				if opts.MinDiagFrac > 0 && haveGlobalMinDiag {
					repl := opts.MinDiagFrac * globalMinDiag
					m.SetSym(i, i, repl)
					log.WarnLIJ("covariance.Assemble", l, i, i, "zero diagonal replaced with MINDIAG_FRAC*min=%.6g", repl)
				} else {
					log.WarnLIJ("covariance.Assemble", l, i, i, "zero diagonal left unreplaced (MINDIAG_FRAC not configured)")
				}
			}
		}
		// Correlation bound, with BADCORR_FRAC diagonal inflation on
		// violation.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if err := enforceCorrelation(m, l, i, j, opts.BadCorrFrac, log); err != nil {
					return Stack{}, err
				}
			}
		}
		stack.M[l-lmin] = m
	}
	return stack, nil
}

func entry(cl map[spectrum.Pair][]float64, l, i, j int, allowMiss bool) (float64, error) {
	if s, ok := cl[spectrum.Pair{I: i, J: j}]; ok {
		if l < len(s) {
			return s[l], nil
		}
		return 0, nil
	}
	if i != j {
		if s, ok := cl[spectrum.Pair{I: j, J: i}]; ok {
			if l < len(s) {
				return s[l], nil
			}
			return 0, nil
		}
	}
	if allowMiss {
		return 0, nil
	}
	return 0, fmt.Errorf("missing pair (%d,%d) at ell=%d and ALLOW_MISS_CL is not set", i, j, l)
}

func enforceCorrelation(m *mat.SymDense, l, i, j int, badCorrFrac float64, log *diag.Log) error {
	mii, mjj, mij := m.At(i, i), m.At(j, j), m.At(i, j)
	if mii <= 0 || mjj <= 0 {
		return nil // already flagged as a diagonal problem above
	}
	rho := mij / math.Sqrt(mii*mjj)
	if math.Abs(rho) <= 1 {
		return nil
	}
	if badCorrFrac <= 0 {
		return errs.NewLIJ(errs.Domain, "covariance.Assemble", l, i, j,
			fmt.Errorf("|rho|=%.6g > 1 and BADCORR_FRAC is not set", math.Abs(rho)))
	}
	m.SetSym(i, i, mii*(1+badCorrFrac))
	m.SetSym(j, j, mjj*(1+badCorrFrac))
	mii, mjj = m.At(i, i), m.At(j, j)
	rho = mij / math.Sqrt(mii*mjj)
	if math.Abs(rho) > 1 {
		log.WarnLIJ("covariance.Assemble", l, i, j, "|rho|=%.6g persists > 1 after BADCORR_FRAC inflation", math.Abs(rho))
	}
	return nil
}

// Symmetric reports whether M(l) == M(l)^T within tol for every l (spec.md
// §8 symmetry invariant). mat.SymDense is symmetric by construction, so this
// is a sanity check useful in tests rather than a runtime necessity.
func Symmetric(s Stack, tol float64) bool {
	for _, m := range s.M {
		n, _ := m.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
					return false
				}
			}
		}
	}
	return true
}
