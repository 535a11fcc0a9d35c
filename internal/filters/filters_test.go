package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/spectrum"
)

func TestRescale(t *testing.T) {
	set := spectrum.Set{
		{I: 0, J: 0}: {Points: []spectrum.Point{{L: 1, Cl: 2}, {L: 2, Cl: 4}}},
	}
	Chain(set, Rescale(0.5))
	require.Equal(t, 1.0, set[spectrum.Pair{I: 0, J: 0}].Points[0].Cl)
	require.Equal(t, 2.0, set[spectrum.Pair{I: 0, J: 0}].Points[1].Cl)
}

func TestGaussianBeamDampsHighL(t *testing.T) {
	set := spectrum.Set{
		{I: 0, J: 0}: {Points: []spectrum.Point{{L: 1, Cl: 1}, {L: 1000, Cl: 1}}},
	}
	Chain(set, GaussianBeam(5))
	pts := set[spectrum.Pair{I: 0, J: 0}].Points
	require.Less(t, pts[1].Cl, pts[0].Cl)
}

func TestPixelWindowClampsOutsideDomain(t *testing.T) {
	called := []float64{}
	w := func(l float64) float64 {
		called = append(called, l)
		return 1
	}
	set := spectrum.Set{
		{I: 0, J: 0}: {Points: []spectrum.Point{{L: -5, Cl: 1}, {L: 1e6, Cl: 1}}},
	}
	Chain(set, PixelWindow(4, w))
	require.Equal(t, 0.0, called[0])
	require.Equal(t, 16.0, called[1])
}

func TestExponentialSuppressionNoOpWhenDisabled(t *testing.T) {
	set := spectrum.Set{
		{I: 0, J: 0}: {Points: []spectrum.Point{{L: 10, Cl: 7}}},
	}
	Chain(set, ExponentialSuppression(-1, 2))
	require.Equal(t, 7.0, set[spectrum.Pair{I: 0, J: 0}].Points[0].Cl)
}

func TestExponentialSuppressionDampsHighL(t *testing.T) {
	set := spectrum.Set{
		{I: 0, J: 0}: {Points: []spectrum.Point{{L: 100, Cl: 1}}},
	}
	Chain(set, ExponentialSuppression(10, 2))
	got := set[spectrum.Pair{I: 0, J: 0}].Points[0].Cl
	require.InDelta(t, math.Exp(-100), got, 1e-9)
}
