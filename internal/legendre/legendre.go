// Package legendre provides Gauss-Legendre quadrature and the naive discrete
// Legendre transform (DLT) pair used by the Lognormal Spectrum Transform
// (spec.md §4.4). internal/sht does not use this package; it carries its own
// associated-Legendre recursion.
package legendre

import "math"

// Nodes returns the n Gauss-Legendre quadrature nodes x (ascending, in
// (-1,1)) and weights w on that grid, found by Newton iteration from the
// standard asymptotic initial guess (Abramowitz & Stegun 22.16.6).
func Nodes(n int) (x, w []float64) {
	if n <= 0 {
		return nil, nil
	}
	x = make([]float64, n)
	w = make([]float64, n)
	m := (n + 1) / 2
	for i := 0; i < m; i++ {
		// initial guess for the i-th root (0-indexed from the high end)
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var z1, pp float64
		for {
			p0, p1 := 1.0, 0.0
			for k := 0; k < n; k++ {
				p2 := p1
				p1 = p0
				p0 = ((2*float64(k)+1)*z*p1 - float64(k)*p2) / (float64(k) + 1)
			}
			// pp = derivative of P_n at z
			pp = float64(n) * (z*p0 - p1) / (z*z - 1)
			z1 = z
			z = z1 - p0/pp
			if math.Abs(z-z1) <= 1e-15 {
				break
			}
		}
		x[i] = -z
		x[n-1-i] = z
		wi := 2.0 / ((1 - z*z) * pp * pp)
		w[i] = wi
		w[n-1-i] = wi
	}
	return x, w
}

// P evaluates the (unnormalized) Legendre polynomial P_l(x) via the standard
// three-term recurrence.
func P(l int, x float64) float64 {
	if l == 0 {
		return 1
	}
	if l == 1 {
		return x
	}
	p0, p1 := 1.0, x
	for k := 2; k <= l; k++ {
		p2 := ((2*float64(k)-1)*x*p1 - (float64(k)-1)*p0) / float64(k)
		p0, p1 = p1, p2
	}
	return p1
}

// Synthesize computes xi(theta) = sum_{l=0}^{L} (2l+1)/(4pi) * Cl[l] * P_l(x)
// at every node in x, the "naive discrete Legendre transform" synthesis step
// of spec.md §4.4.
func Synthesize(cl []float64, x []float64) []float64 {
	out := make([]float64, len(x))
	for k, xk := range x {
		var sum float64
		// Clenshaw-style incremental recurrence evaluated per node for
		// numerical stability at high l, mirroring a direct sum over l.
		p0, p1 := 1.0, xk
		for l, c := range cl {
			var pl float64
			switch l {
			case 0:
				pl = p0
			case 1:
				pl = p1
			default:
				pl = ((2*float64(l)-1)*xk*p1 - (float64(l)-1)*p0) / float64(l)
				p0, p1 = p1, pl
			}
			sum += (2*float64(l) + 1) / (4 * math.Pi) * c * pl
		}
		out[k] = sum
	}
	return out
}

// Analyze recovers Cl[0..lmax] from xi sampled at Gauss-Legendre nodes (x,w)
// via Cl = 2*pi * sum_k w_k * P_l(x_k) * xi(x_k), the inverse DLT step.
func Analyze(xi, x, w []float64, lmax int) []float64 {
	cl := make([]float64, lmax+1)
	for l := 0; l <= lmax; l++ {
		var sum float64
		for k := range x {
			sum += w[k] * P(l, x[k]) * xi[k]
		}
		cl[l] = 2 * math.Pi * sum
	}
	return cl
}
