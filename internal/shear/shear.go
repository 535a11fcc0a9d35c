// Package shear implements the (optional) Shear Builder (spec.md §4.9): it
// converts a convergence field's harmonic coefficients into E-mode spin-2
// shear coefficients and synthesizes the (gamma1, gamma2) pixel maps via the
// inverse spin-2 transform.
package shear

import (
	"math"

	"cosmofield/internal/draw"
	"cosmofield/internal/sht"
)

// EModeFactor returns sqrt((l+2)(l-1)/(l(l+1))) for l>=2, and 0 for l<2
// (spec.md §4.9: the B-mode is identically zero and ell<2 carries no
// spin-2 power).
func EModeFactor(l int) float64 {
	if l < 2 {
		return 0
	}
	fl := float64(l)
	return math.Sqrt((fl + 2) * (fl - 1) / (fl * (fl + 1)))
}

// BuildE converts convergence harmonic coefficients kappa into E-mode shear
// coefficients gammaE_lm = EModeFactor(l) * kappa_lm.
func BuildE(kappa draw.Alm, lmax int) draw.Alm {
	out := make(draw.Alm, len(kappa))
	for l := 0; l <= lmax; l++ {
		factor := EModeFactor(l)
		if factor == 0 {
			continue
		}
		for m := 0; m <= l; m++ {
			j := draw.Index(l, m)
			out[j] = complex(factor, 0) * kappa[j]
		}
	}
	return out
}

// Maps is one field's synthesized shear components.
type Maps struct {
	Gamma1, Gamma2 []float64
}

// Synthesize converts a convergence field's harmonic coefficients into
// (gamma1, gamma2) pixel maps: BuildE followed by the inverse spin-2
// transform.
func Synthesize(kappa draw.Alm, lmax, nside int) Maps {
	gammaE := BuildE(kappa, lmax)
	g1, g2 := sht.InverseSpin2(gammaE, lmax, nside)
	return Maps{Gamma1: g1, Gamma2: g2}
}
