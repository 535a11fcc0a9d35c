package los

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/diag"
	"cosmofield/internal/draw"
	"cosmofield/internal/registry"
)

func buildRegistry(t *testing.T) *registry.Registry {
	recs := []registry.Record{
		{F: 0, Z: 0, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 0, Zmax: 1},
		{F: 0, Z: 1, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 1, Zmax: 2},
	}
	reg, err := registry.New(recs, registry.Lognormal)
	require.NoError(t, err)
	return reg
}

func TestIntegrateRegistersNewConvergenceFieldsWithoutRemovingDensity(t *testing.T) {
	reg := buildRegistry(t)
	lmax := 2
	triangle := draw.Index(lmax, lmax) + 1
	densityAlm := map[int]draw.Alm{
		0: make(draw.Alm, triangle),
		1: make(draw.Alm, triangle),
	}
	densityAlm[0][draw.Index(2, 0)] = complex(1, 0)
	densityAlm[1][draw.Index(2, 0)] = complex(2, 0)

	kernel := Kernel{Weights: [][]float64{
		{1, 0.5},
		{0.5, 1},
	}}
	log := diag.New()
	before := reg.Nfields()
	out, newIdx := Integrate(reg, []int{0, 1}, densityAlm, kernel, lmax, log)

	require.Equal(t, before+2, reg.Nfields())
	require.Equal(t, registry.Density, reg.Field(0).Type)
	require.Equal(t, registry.Density, reg.Field(1).Type)
	for _, idx := range newIdx {
		require.Equal(t, registry.Convergence, reg.Field(idx).Type)
	}
	require.Equal(t, complex(2, 0), out[newIdx[0]][draw.Index(2, 0)])
}

func TestLensingWeightZeroForShellAtOrBeyondSource(t *testing.T) {
	require.Equal(t, 0.0, LensingWeight(1.0, 1.0))
	require.Equal(t, 0.0, LensingWeight(2.0, 1.0))
	require.Greater(t, LensingWeight(0.5, 1.0), 0.0)
}

func TestBuildKernelZeroesDiagonalAndLaterShells(t *testing.T) {
	reg := buildRegistry(t)
	kernel, sorted := BuildKernel(reg, []int{1, 0})
	require.Equal(t, []int{0, 1}, sorted)
	require.Equal(t, 0.0, kernel.Weights[0][0])
	require.Equal(t, 0.0, kernel.Weights[0][1])
	require.Greater(t, kernel.Weights[1][0], 0.0)
	require.Equal(t, 0.0, kernel.Weights[1][1])
}

func TestCheckContiguityWarnsOnGap(t *testing.T) {
	recs := []registry.Record{
		{F: 0, Z: 0, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 0, Zmax: 1},
		{F: 0, Z: 1, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 1.5, Zmax: 2},
	}
	reg, err := registry.New(recs, registry.Lognormal)
	require.NoError(t, err)
	log := diag.New()
	CheckContiguity(reg, []int{0, 1}, 1e-6, log)
	require.Equal(t, int64(1), log.Count())
}
