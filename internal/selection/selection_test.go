package selection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantWeightUsesPerFieldOverrideWhenPresent(t *testing.T) {
	c := Constant{PerField: map[int]float64{2: 0.5}, Default: 1.0}
	require.Equal(t, 0.5, c.Weight(2, 0, 0.1))
	require.Equal(t, 1.0, c.Weight(3, 0, 0.1))
}

func TestConstantWeightIgnoresPixelAndDelta(t *testing.T) {
	c := Constant{Default: 0.7}
	require.Equal(t, c.Weight(0, 0, 0.0), c.Weight(0, 99, 5.0))
}
