package lognormal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/diag"
	"cosmofield/internal/spectrum"
)

func TestResampleForcesMonopoleZero(t *testing.T) {
	pts := []spectrum.Point{{L: 2, Cl: 1}, {L: 4, Cl: 2}, {L: 10, Cl: 3}}
	log := diag.New()
	out := Resample(pts, Options{L: 10}, log)
	require.Equal(t, 0.0, out[0])
}

func TestResampleDipoleClampedWithoutExtrap(t *testing.T) {
	pts := []spectrum.Point{{L: 2, Cl: 1}, {L: 4, Cl: 2}}
	log := diag.New()
	out := Resample(pts, Options{L: 4, ExtrapDipole: false}, log)
	require.Equal(t, 0.0, out[1])
}

func TestResampleWarnsWhenInputStartsAtZero(t *testing.T) {
	pts := []spectrum.Point{{L: 0, Cl: 5}, {L: 2, Cl: 1}}
	log := diag.New()
	Resample(pts, Options{L: 4, ExtrapDipole: true}, log)
	require.Equal(t, int64(1), log.Count())
}

func TestTransformRoundTripPositiveSpectrum(t *testing.T) {
	lmax := 16
	cl := make([]float64, lmax+1)
	for l := 1; l <= lmax; l++ {
		cl[l] = 0.01 / float64(l*l)
	}
	log := diag.New()
	clG, err := Transform(cl, 1.0, log, 0, 0)
	require.NoError(t, err)
	require.Len(t, clG, lmax+1)
}

func TestTransformFailsOnNonPositiveArgument(t *testing.T) {
	lmax := 8
	cl := make([]float64, lmax+1)
	for l := 1; l <= lmax; l++ {
		cl[l] = 100.0
	}
	log := diag.New()
	_, err := Transform(cl, 0.001, log, 0, 1)
	require.Error(t, err)
}
