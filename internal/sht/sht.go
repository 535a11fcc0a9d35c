// Package sht is the in-repo reference implementation of the "thin
// spherical-harmonic library" spec.md §1/§6 treats as an external
// collaborator: forward/inverse scalar transforms, an inverse spin-2
// transform, and the HEALPix-style equal-area pixelisation the rest of the
// pipeline assumes. It is deliberately a direct-summation (non-fast)
// transform: correct at the band limits this project tests against, not
// tuned for production Nside/Lmax. A production deployment would swap this
// package for a fast transform library without touching any caller, since
// every caller only depends on the functions below.
package sht

import (
	"math"
	"math/cmplx"
)

// NPix returns the pixel count of an Nside-resolution equal-area sky map
// (12*Nside^2).
func NPix(nside int) int { return 12 * nside * nside }

// PixToAng returns the (theta, phi) colatitude/longitude of pixel p (RING
// ordering, 0-based), using the standard HEALPix pix2ang_ring construction.
func PixToAng(nside, p int) (theta, phi float64) {
	npix := NPix(nside)
	ipix1 := p + 1
	nl2 := 2 * nside
	nl4 := 4 * nside
	ncap := nl2 * (nside - 1)

	switch {
	case ipix1 <= ncap: // north polar cap
		hip := float64(ipix1) / 2.0
		fihip := math.Floor(hip)
		iring := int(math.Floor(math.Sqrt(hip-math.Sqrt(fihip)))) + 1
		iphi := ipix1 - 2*iring*(iring-1)
		theta = math.Acos(1.0 - float64(iring)*float64(iring)/(3.0*float64(nside)*float64(nside)))
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	case ipix1 <= nl2*(5*nside+1): // equatorial belt
		ip := ipix1 - ncap - 1
		iring := ip/nl4 + nside
		iphi := ip%nl4 + 1
		fodd := 0.5 * float64(1+(iring+nside)%2)
		theta = math.Acos(float64(nl2-iring) / (1.5 * float64(nside)))
		phi = (float64(iphi) - fodd) * math.Pi / (2.0 * float64(nside))
	default: // south polar cap
		ip := npix - ipix1 + 1
		hip := float64(ip) / 2.0
		fihip := math.Floor(hip)
		iring := int(math.Floor(math.Sqrt(hip-math.Sqrt(fihip)))) + 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		theta = math.Acos(-1.0 + float64(iring)*float64(iring)/(3.0*float64(nside)*float64(nside)))
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	}
	return theta, phi
}

// assocLegendre evaluates the Condon-Shortley-phase-normalized associated
// Legendre function P_l^m(x) via the stable upward recursion (as in
// Numerical Recipes' plgndr), for 0<=m<=l.
func assocLegendre(l, m int, x float64) float64 {
	pmm := 1.0
	if m > 0 {
		somx2 := math.Sqrt((1 - x) * (1 + x))
		fact := 1.0
		for i := 1; i <= m; i++ {
			pmm *= -fact * somx2
			fact += 2
		}
	}
	if l == m {
		return pmm
	}
	pmmp1 := x * float64(2*m+1) * pmm
	if l == m+1 {
		return pmmp1
	}
	var pll float64
	for ll := m + 2; ll <= l; ll++ {
		pll = (x*float64(2*ll-1)*pmmp1 - float64(ll+m-1)*pmm) / float64(ll-m)
		pmm = pmmp1
		pmmp1 = pll
	}
	return pll
}

// sphNorm returns N_lm = sqrt((2l+1)/(4pi) * (l-m)!/(l+m)!), computed via
// log-gamma to stay stable for large l.
func sphNorm(l, m int) float64 {
	lg1, _ := math.Lgamma(float64(l - m + 1))
	lg2, _ := math.Lgamma(float64(l + m + 1))
	return math.Sqrt(float64(2*l+1) / (4 * math.Pi) * math.Exp(lg1-lg2))
}

// Y evaluates the real-field scalar spherical harmonic Y_lm(theta,phi) for
// 0<=m<=l (negative m is reconstructed by callers via the real-field
// conjugate symmetry a_{l,-m} = (-1)^m * conj(a_{l,m})).
func Y(l, m int, theta, phi float64) complex128 {
	n := sphNorm(l, m) * assocLegendre(l, m, math.Cos(theta))
	return complex(n, 0) * cmplx.Exp(complex(0, float64(m)*phi))
}

// almIndex is the triangular index l(l+1)/2+m shared with internal/draw's
// draw.Index, duplicated here to keep this package import-independent of
// internal/draw.
func almIndex(l, m int) int { return l*(l+1)/2 + m }

// InverseScalar performs the inverse scalar spherical-harmonic transform of
// a real field's triangular m>=0 coefficient array onto an Nside pixel map
// (spec.md §4.8's "inverse scalar transform").
func InverseScalar(alm []complex128, lmax, nside int) []float64 {
	npix := NPix(nside)
	out := make([]float64, npix)
	for p := 0; p < npix; p++ {
		theta, phi := PixToAng(nside, p)
		ct := math.Cos(theta)
		var val float64
		for l := 0; l <= lmax; l++ {
			for m := 0; m <= l; m++ {
				a := alm[almIndex(l, m)]
				if a == 0 {
					continue
				}
				n := sphNorm(l, m) * assocLegendre(l, m, ct)
				if m == 0 {
					val += real(a) * n
					continue
				}
				ph := complex(math.Cos(float64(m)*phi), math.Sin(float64(m)*phi))
				val += 2 * real(a*complex(n, 0)*ph)
			}
		}
		out[p] = val
	}
	return out
}

// ForwardScalar performs the forward scalar spherical-harmonic transform of
// a pixel map back onto the triangular m>=0 coefficient array, using a
// direct quadrature. ringWeight, if non-nil, is an additional per-pixel
// multiplier on top of the uniform equal-area pixel weight (spec.md's "ring
// weights... to reduce discretisation bias"); nil means uniform weighting.
func ForwardScalar(pix []float64, lmax, nside int, ringWeight func(p int) float64) []complex128 {
	npix := NPix(nside)
	pixArea := 4 * math.Pi / float64(npix)
	size := almIndex(lmax, lmax) + 1
	out := make([]complex128, size)
	for p := 0; p < npix; p++ {
		if pix[p] == 0 {
			continue
		}
		theta, phi := PixToAng(nside, p)
		ct := math.Cos(theta)
		w := pixArea
		if ringWeight != nil {
			w *= ringWeight(p)
		}
		fp := pix[p] * w
		for l := 0; l <= lmax; l++ {
			for m := 0; m <= l; m++ {
				n := sphNorm(l, m) * assocLegendre(l, m, ct)
				ph := complex(math.Cos(-float64(m)*phi), math.Sin(-float64(m)*phi))
				out[almIndex(l, m)] += complex(fp*n, 0) * ph
			}
		}
	}
	return out
}

// spin2Y evaluates the Goldberg et al. (1967) spin-weighted spherical
// harmonic _{2}Y_lm(theta,phi), valid for any integer m with |m|<=l and
// l>=2, rewritten to replace the textbook cot(theta/2) powers with sin/cos
// powers so it stays finite at the poles.
func spin2Y(l, m int, theta, phi float64) complex128 {
	const s = 2
	if l < s {
		return 0
	}
	lg := func(n int) float64 { v, _ := math.Lgamma(float64(n) + 1); return v }
	lnN := 0.5 * (lg(l+m) + lg(l-m) + math.Log(float64(2*l+1)) - math.Log(4*math.Pi) - lg(l+s) - lg(l-s))
	n := math.Exp(lnN)

	rmin := m - s
	if rmin < 0 {
		rmin = 0
	}
	rmax := l - s
	if alt := l + m; alt < rmax {
		rmax = alt
	}
	st, ct := math.Sin(theta/2), math.Cos(theta/2)
	var sum float64
	for r := rmin; r <= rmax; r++ {
		sinExp := 2*l - 2*r - s + m
		cosExp := 2*r + s - m
		if sinExp < 0 || cosExp < 0 {
			continue
		}
		lnC1 := lg(l-s) - lg(r) - lg(l-s-r)
		lnC2 := lg(l+s) - lg(r+s-m) - lg(l-r+m) // = C(l+s, r+s-m)
		term := math.Exp(lnC1+lnC2) * math.Pow(st, float64(sinExp)) * math.Pow(ct, float64(cosExp))
		if (l-r-s)%2 != 0 {
			term = -term
		}
		sum += term
	}
	mag := n * sum
	sign := 1.0
	if m%2 != 0 {
		if ((m % 2) + 2) % 2 == 1 {
			sign = -1
		}
	}
	return complex(sign*mag, 0) * cmplx.Exp(complex(0, float64(m)*phi))
}

// InverseSpin2 converts E-mode-only spin-2 coefficients (almE, the m>=0
// triangular array per spec.md §4.9's gammaE_lm, with B-mode identically
// zero) into (gamma1, gamma2) pixel maps, via
// (gamma1+i*gamma2)(n) = -sum_{l,m} gammaE_lm * 2Y_lm(n), summed over the
// full m range using the real-field symmetry gammaE_{l,-m} = (-1)^m *
// conj(gammaE_{l,m}).
func InverseSpin2(almE []complex128, lmax, nside int) (gamma1, gamma2 []float64) {
	npix := NPix(nside)
	gamma1 = make([]float64, npix)
	gamma2 = make([]float64, npix)
	for p := 0; p < npix; p++ {
		theta, phi := PixToAng(nside, p)
		var sum complex128
		for l := 2; l <= lmax; l++ {
			for m := 0; m <= l; m++ {
				a := almE[almIndex(l, m)]
				if a == 0 && m != 0 {
					continue
				}
				y := spin2Y(l, m, theta, phi)
				sum += -a * y
				if m > 0 {
					sign := 1.0
					if m%2 != 0 {
						sign = -1
					}
					aNeg := complex(sign, 0) * cmplx.Conj(a)
					yNeg := spin2Y(l, -m, theta, phi)
					sum += -aNeg * yNeg
				}
			}
		}
		gamma1[p] = real(sum)
		gamma2[p] = imag(sum)
	}
	return gamma1, gamma2
}

// DefaultPixelWindow is the reference pixel-window stub: no suppression.
// A real deployment supplies the measured W(l) lookup named in spec.md §4.3.
func DefaultPixelWindow(nside int) func(l float64) float64 {
	return func(l float64) float64 { return 1 }
}
