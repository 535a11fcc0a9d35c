package covariance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/diag"
	"cosmofield/internal/spectrum"
)

func TestAssembleTrivialDiagonal(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1, 2, 3},
		{I: 1, J: 1}: {4, 5, 6},
		{I: 0, J: 1}: {0, 0, 0},
	}
	log := diag.New()
	stack, err := Assemble(2, 0, 2, cl, Options{}, log)
	require.NoError(t, err)
	require.True(t, Symmetric(stack, 1e-12))
	require.Equal(t, 1.0, stack.At(0).At(0, 0))
	require.Equal(t, 5.0, stack.At(1).At(1, 1))
}

func TestAssemblePerfectCorrelationPasses(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {4},
		{I: 1, J: 1}: {4},
		{I: 0, J: 1}: {4}, // rho = 4/sqrt(4*4) = 1
	}
	log := diag.New()
	stack, err := Assemble(2, 0, 0, cl, Options{}, log)
	require.NoError(t, err)
	require.Equal(t, 4.0, stack.At(0).At(0, 1))
	require.Zero(t, log.Count())
}

func TestAssembleBadCorrelationFailsWithoutBadCorrFrac(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1},
		{I: 1, J: 1}: {1},
		{I: 0, J: 1}: {2}, // rho = 2 > 1
	}
	log := diag.New()
	_, err := Assemble(2, 0, 0, cl, Options{}, log)
	require.Error(t, err)
}

func TestAssembleBadCorrelationInflatesDiagonalWithBadCorrFrac(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1},
		{I: 1, J: 1}: {1},
		{I: 0, J: 1}: {1.2},
	}
	log := diag.New()
	stack, err := Assemble(2, 0, 0, cl, Options{BadCorrFrac: 1.0}, log)
	require.NoError(t, err)
	require.Greater(t, stack.At(0).At(0, 0), 1.0)
	require.Greater(t, stack.At(0).At(1, 1), 1.0)
}

func TestAssembleMissingPartnerFilledBySymmetry(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1},
		{I: 1, J: 1}: {1},
		{I: 0, J: 1}: {0.5}, // (1,0) absent, should be filled by symmetry
	}
	log := diag.New()
	stack, err := Assemble(2, 0, 0, cl, Options{}, log)
	require.NoError(t, err)
	require.Equal(t, stack.At(0).At(0, 1), stack.At(0).At(1, 0))
}

func TestAssembleMissingPairErrorsWithoutAllowMiss(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1},
		{I: 1, J: 1}: {1},
		// (0,1) missing entirely
	}
	log := diag.New()
	_, err := Assemble(2, 0, 0, cl, Options{}, log)
	require.Error(t, err)
}

func TestAssembleMissingPairAllowed(t *testing.T) {
	cl := map[spectrum.Pair][]float64{
		{I: 0, J: 0}: {1},
		{I: 1, J: 1}: {1},
	}
	log := diag.New()
	stack, err := Assemble(2, 0, 0, cl, Options{AllowMissCl: true}, log)
	require.NoError(t, err)
	require.Equal(t, 0.0, stack.At(0).At(0, 1))
}
