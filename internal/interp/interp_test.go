package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearInterpolatesBetweenSamples(t *testing.T) {
	f := Linear([]float64{0, 10}, []float64{0, 100})
	require.InDelta(t, 50.0, f(5), 1e-9)
}

func TestLinearClampsOutsideRange(t *testing.T) {
	f := Linear([]float64{1, 2, 3}, []float64{10, 20, 30})
	require.Equal(t, 10.0, f(-5))
	require.Equal(t, 30.0, f(100))
}

func TestExtrapolateLowExtendsTheLeadingSlope(t *testing.T) {
	got := ExtrapolateLow([]float64{2, 4}, []float64{4, 8}, 1)
	require.InDelta(t, 2.0, got, 1e-9)
}
