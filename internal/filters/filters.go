// Package filters implements the stateless, in-place Spectrum Filters
// (spec.md §4.3), applied in the declared configuration order.
package filters

import (
	"math"

	"cosmofield/internal/spectrum"
)

// Filter mutates a sample's Cl values in place; the ell grid is never
// changed.
type Filter func(pts []spectrum.Point)

// Chain composes filters in the given order and applies them to every
// sample in the set.
func Chain(set spectrum.Set, fs ...Filter) {
	for _, s := range set {
		for _, f := range fs {
			f(s.Points)
		}
	}
}

// Rescale multiplies every Cl by a constant (SCALE_CLS).
func Rescale(scale float64) Filter {
	return func(pts []spectrum.Point) {
		for i := range pts {
			pts[i].Cl *= scale
		}
	}
}

// GaussianBeam multiplies by exp(-l(l+1)sigma^2); sigmaArcmin is converted to
// radians as part of the contract (spec.md §4.3).
func GaussianBeam(sigmaArcmin float64) Filter {
	sigma := sigmaArcmin * (math.Pi / 180.0 / 60.0)
	s2 := sigma * sigma
	return func(pts []spectrum.Point) {
		for i := range pts {
			l := pts[i].L
			pts[i].Cl *= math.Exp(-l * (l + 1) * s2)
		}
	}
}

// PixelWindow multiplies by W(l)^2, with W sampled on [0,4*nside] and
// interpolated monotonically at non-integer ell. A warning is raised by the
// caller (not here, since this package has no diag.Log dependency by design)
// when the input ell range exceeds 4*nside; PixelWindow itself clamps to the
// nearest edge outside the table's domain.
func PixelWindow(nside int, w func(l float64) float64) Filter {
	maxL := float64(4 * nside)
	return func(pts []spectrum.Point) {
		for i := range pts {
			l := pts[i].L
			if l < 0 {
				l = 0
			}
			if l > maxL {
				l = maxL
			}
			wl := w(l)
			pts[i].Cl *= wl * wl
		}
	}
}

// ExponentialSuppression multiplies by exp(-(l/lsup)^n) whenever lsup>=0 and
// n>=0; a negative lsup or n disables the filter (the orchestrator should not
// register it in that case, but Chain tolerates it being present as a no-op).
func ExponentialSuppression(lsup, n float64) Filter {
	if lsup < 0 || n < 0 {
		return func(pts []spectrum.Point) {}
	}
	return func(pts []spectrum.Point) {
		for i := range pts {
			l := pts[i].L
			pts[i].Cl *= math.Exp(-math.Pow(l/lsup, n))
		}
	}
}
