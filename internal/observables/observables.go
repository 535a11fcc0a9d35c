// Package observables implements the Poisson-sampled object-count
// observable spec.md's Map Synthesiser feeds: expected counts from a
// selection-weighted density map, followed by a Poisson draw. Turning the
// counts into a point catalogue is left to the caller (internal/pipeline
// does it with internal/catalog).
package observables

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"cosmofield/internal/selection"
)

// ExpectedCounts converts a density-contrast pixel map into expected object
// counts: meanCount*(1+delta)*selection.Weight(field,pixel,delta), clamped
// at zero (a negative expectation arises wherever delta is below -1).
func ExpectedCounts(delta []float64, meanCount float64, sel selection.Func, field int) []float64 {
	out := make([]float64, len(delta))
	for p, d := range delta {
		w := 1.0
		if sel != nil {
			w = sel.Weight(field, p, d)
		}
		v := meanCount * (1 + d) * w
		if v < 0 {
			v = 0
		}
		out[p] = v
	}
	return out
}

// DrawCounts draws one Poisson sample per pixel from its expected count,
// iterating pixels in index order with a single seeded PRNG so the result
// is reproducible for a fixed seed.
func DrawCounts(expected []float64, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int, len(expected))
	for p, lambda := range expected {
		if lambda <= 0 {
			out[p] = 0
			continue
		}
		pois := distuv.Poisson{Lambda: lambda, Src: rng}
		out[p] = int(pois.Rand())
	}
	return out
}
