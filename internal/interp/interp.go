// Package interp implements the small monotone-interpolation helper shared
// by the Spectrum Filters (pixel window) and the Lognormal Spectrum
// Transform (resampling onto the integer ell grid).
package interp

import "sort"

// Linear returns a piecewise-linear interpolant over (xs, ys), xs ascending.
// Piecewise-linear interpolation never overshoots between samples, so it
// satisfies the "monotone interpolation" requirement of spec.md §4.3/§4.4
// without the ringing a higher-order spline could introduce. Queries outside
// [xs[0], xs[len-1]] clamp to the nearest edge value.
func Linear(xs, ys []float64) func(x float64) float64 {
	n := len(xs)
	return func(x float64) float64 {
		if n == 0 {
			return 0
		}
		if x <= xs[0] {
			return ys[0]
		}
		if x >= xs[n-1] {
			return ys[n-1]
		}
		k := sort.Search(n, func(i int) bool { return xs[i] >= x })
		if xs[k] == x {
			return ys[k]
		}
		x0, x1 := xs[k-1], xs[k]
		y0, y1 := ys[k-1], ys[k]
		t := (x - x0) / (x1 - x0)
		return y0 + t*(y1-y0)
	}
}

// ExtrapolateLow linearly extrapolates the value at x from the two lowest
// samples (xs[0], xs[1]), used for EXTRAP_DIPOLE when the input's lowest
// sampled ell is >0 and ell=1 must be reconstructed from the low-ell tail.
func ExtrapolateLow(xs, ys []float64, x float64) float64 {
	if len(xs) < 2 {
		if len(ys) == 0 {
			return 0
		}
		return ys[0]
	}
	x0, x1 := xs[0], xs[1]
	y0, y1 := ys[0], ys[1]
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
