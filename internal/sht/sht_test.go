package sht

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNPixMatchesHealpixFormula(t *testing.T) {
	require.Equal(t, 12*4*4, NPix(4))
}

func TestPixToAngStaysInDomain(t *testing.T) {
	nside := 8
	for p := 0; p < NPix(nside); p++ {
		theta, phi := PixToAng(nside, p)
		require.GreaterOrEqual(t, theta, 0.0)
		require.LessOrEqual(t, theta, math.Pi)
		require.GreaterOrEqual(t, phi, 0.0)
		require.Less(t, phi, 2*math.Pi+1e-9)
	}
}

func TestInverseScalarConstantFieldIsUniform(t *testing.T) {
	nside := 4
	lmax := 0
	alm := []complex128{complex(math.Sqrt(4*math.Pi), 0)} // a_00 such that Y_00*a_00 = 1
	pix := InverseScalar(alm, lmax, nside)
	for _, v := range pix {
		require.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestForwardScalarRecoversMonopole(t *testing.T) {
	nside := 8
	lmax := 0
	pix := make([]float64, NPix(nside))
	for i := range pix {
		pix[i] = 3.0
	}
	alm := ForwardScalar(pix, lmax, nside, nil)
	n := sphNorm(0, 0)
	require.InDelta(t, 3.0, real(alm[0])/(n*4*math.Pi), 1e-6)
}

func TestDefaultPixelWindowIsUnity(t *testing.T) {
	w := DefaultPixelWindow(16)
	require.Equal(t, 1.0, w(10))
}
