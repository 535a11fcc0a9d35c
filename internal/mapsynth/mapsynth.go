// Package mapsynth implements the Map Synthesiser (spec.md §4.8): the
// inverse scalar transform of a drawn Gaussian-auxiliary field, followed by
// the per-field, per-model mean treatment that yields the physical
// (density or convergence) pixel map.
package mapsynth

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"cosmofield/internal/draw"
	"cosmofield/internal/registry"
	"cosmofield/internal/sht"
)

// Map is one field's synthesized pixel map (RING-ordered, Nside resolution).
type Map []float64

// MapSet groups one Map per field index.
type MapSet map[int]Map

// Synthesize inverse-transforms the drawn Gaussian harmonic coefficients
// almG onto an Nside pixel map, then applies the mean treatment of spec.md
// §4.8: lognormal exponentiation for a density field under the LOGNORMAL
// model, otherwise a plain additive shift by mu (GAUSSIAN mode, and any
// convergence field — which is never lognormal-transformed regardless of
// model).
func Synthesize(almG draw.Alm, mu, shift float64, lmax, nside int, fieldType registry.Type, model registry.Model) Map {
	g := sht.InverseScalar(almG, lmax, nside)
	if model == registry.Lognormal && fieldType == registry.Density {
		return exponentiate(g, mu, shift)
	}
	return addMean(g, mu)
}

// exponentiate applies spec.md §4.8 steps 1-3 for a lognormal density
// field: m-bar and v-hat are the empirical mean and unbiased variance of
// the realized Gaussian-auxiliary map g itself (not the analytic ensemble
// spectrum), so that subtracting m-bar before exponentiating cancels the
// finite realization's drift from the theoretical zero-mean assumption:
// alpha*exp(g-mbar) then has a mean close to mu+shift, and the returned map,
// with shift subtracted, a mean close to mu.
func exponentiate(g []float64, mu, shift float64) Map {
	mbar := stat.Mean(g, nil)
	vhat := stat.Variance(g, nil)
	alpha := (mu + shift) * math.Exp(-vhat/2)
	out := make(Map, len(g))
	for i, gi := range g {
		out[i] = alpha*math.Exp(gi-mbar) - shift
	}
	return out
}

// addMean is the GAUSSIAN-mode (and non-lognormal-field) map treatment:
// add mu to the drawn Gaussian map pixel by pixel.
func addMean(g []float64, mu float64) Map {
	out := make(Map, len(g))
	for i, gi := range g {
		out[i] = gi + mu
	}
	return out
}

// Constant fills an npix-pixel map with mu, used under the HOMOGENEOUS
// model where the alm stage is skipped entirely (spec.md §4.8).
func Constant(mu float64, npix int) Map {
	out := make(Map, npix)
	for i := range out {
		out[i] = mu
	}
	return out
}

// Diagnostics summarizes a synthesized map's first three moments, used by
// cmd/clplot and by tests checking the lognormal target mean/variance.
type Diagnostics struct {
	Mean     float64
	Variance float64
	Skewness float64
}

// Summarize computes Diagnostics for a pixel map via gonum/stat.
func Summarize(m Map) Diagnostics {
	mean := stat.Mean(m, nil)
	variance := stat.Variance(m, nil)
	skew := stat.Skew(m, nil)
	return Diagnostics{Mean: mean, Variance: variance, Skewness: skew}
}
