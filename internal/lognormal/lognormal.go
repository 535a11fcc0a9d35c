// Package lognormal implements the Lognormal Spectrum Transform (spec.md
// §4.4): the Cl -> xi(theta) -> xi_G(theta) -> Cl_G round trip that converts
// a lognormal angular spectrum into the spectrum of its associated Gaussian
// field.
package lognormal

import (
	"fmt"
	"math"

	"cosmofield/internal/diag"
	"cosmofield/internal/errs"
	"cosmofield/internal/interp"
	"cosmofield/internal/legendre"
	"cosmofield/internal/spectrum"
)

// Options controls the resampling policy of step 1.
type Options struct {
	L            int  // band-limit
	ExtrapDipole bool // extrapolate ell=1 from the low-ell tail instead of clamping to zero
}

// Resample interpolates pts onto the integer grid [0,L]. ell=0 is forced to
// zero (required by the DLT); ell=1 is extrapolated or clamped per
// opts.ExtrapDipole. When the input's lowest sampled ell is already 0, the
// dipole policy is ambiguous (spec.md §9 Open Question 1) and is left as a
// no-op with a warning rather than guessed.
func Resample(pts []spectrum.Point, opts Options, log *diag.Log) []float64 {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.L
		ys[i] = p.Cl
	}
	f := interp.Linear(xs, ys)
	out := make([]float64, opts.L+1)
	out[0] = 0
	for l := 1; l <= opts.L; l++ {
		out[l] = f(float64(l))
	}
	if len(xs) > 0 && xs[0] <= 0 {
		log.Warn("lognormal.Resample", "input starts at ell=0; EXTRAP_DIPOLE policy left unapplied (ambiguous per design)")
	} else if opts.L >= 1 {
		if opts.ExtrapDipole {
			out[1] = interp.ExtrapolateLow(xs, ys, 1)
		} else {
			out[1] = 0
		}
	}
	return out
}

// Transform performs steps 2-4 of spec.md §4.4 for one ordered pair: Gauss-
// Legendre synthesis of xi(theta), the Gaussianisation log(1+xi/M), and the
// inverse DLT back to Cl_G. M is the target mean product (mu_i+s_i)(mu_j+s_j)
// for this pair.
func Transform(clLognormal []float64, m float64, log *diag.Log, i, j int) ([]float64, error) {
	lmax := len(clLognormal) - 1
	n := 2 * (lmax + 1)
	if n < 2 {
		n = 2
	}
	x, w := legendre.Nodes(n)
	xi := legendre.Synthesize(clLognormal, x)

	xiG := make([]float64, len(xi))
	failed := false
	for k, v := range xi {
		arg := 1 + v/m
		if arg <= 0 {
			log.WarnLIJ("lognormal.Transform", 0, i, j, "Gaussianisation argument %.6g non-positive at node %d; replacing with sentinel", arg, k)
			xiG[k] = 0 // sentinel
			failed = true
			continue
		}
		xiG[k] = math.Log(arg)
	}
	if failed {
		return nil, errs.NewLIJ(errs.Domain, "lognormal.Transform", 0, i, j,
			fmt.Errorf("non-positive Gaussianisation argument for pair (%d,%d)", i, j))
	}

	clG := legendre.Analyze(xiG, x, w, lmax)
	return clG, nil
}
