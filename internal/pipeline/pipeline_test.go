package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/config"
	"cosmofield/internal/diag"
	"cosmofield/internal/registry"
	"cosmofield/internal/spectrum"
)

func buildTwoShellRegistry(t *testing.T) *registry.Registry {
	recs := []registry.Record{
		{F: 0, Z: 0, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 0, Zmax: 0.5},
		{F: 0, Z: 1, Mu: 1, Shift: 1, Type: registry.Density, Zmin: 0.5, Zmax: 1.0},
	}
	reg, err := registry.New(recs, registry.Lognormal)
	require.NoError(t, err)
	return reg
}

func writeTable(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "cl.dat")
	content := "ell Cl-f0z0f0z0 Cl-f0z0f0z1 Cl-f0z1f0z1\n" +
		"1 0.02 0.01 0.02\n" +
		"2 0.01 0.005 0.01\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunEndToEndWithLOSAndObservables(t *testing.T) {
	reg := buildTwoShellRegistry(t)
	cfg := config.Default()
	cfg.ClTablePath = writeTable(t)
	cfg.Lmin = 0
	cfg.Lmax = 2
	cfg.Nside = 1
	cfg.Seed = 3
	cfg.Threads = 1
	cfg.Dens2Kappa = true
	cfg.Poisson = false
	cfg.MeanCount = 5

	log := diag.New()
	res, err := Run(reg, cfg, log)
	require.NoError(t, err)
	require.Equal(t, StageObserve, res.StoppedAt)

	// two source density fields plus one derived convergence field per shell.
	require.Equal(t, 4, reg.Nfields())
	require.Equal(t, registry.Density, reg.Field(0).Type)
	require.Equal(t, registry.Density, reg.Field(1).Type)
	require.Equal(t, registry.Convergence, reg.Field(2).Type)
	require.Equal(t, registry.Convergence, reg.Field(3).Type)

	require.Len(t, res.Maps[2], 12)
	require.Len(t, res.Maps[3], 12)
	require.Contains(t, res.Shear, 2)
	require.Contains(t, res.Shear, 3)
	require.Contains(t, res.Counts, 0)
	require.Contains(t, res.Counts, 1)
	require.NotContains(t, res.Counts, 2)
	require.Contains(t, res.Catalog, 0)
	require.Contains(t, res.Catalog, 1)
}

func TestRunGaussianModeSkipsGaussianisation(t *testing.T) {
	reg := buildTwoShellRegistry(t)
	cfg := config.Default()
	cfg.Model = "GAUSSIAN"
	cfg.ClTablePath = writeTable(t)
	cfg.Lmin = 0
	cfg.Lmax = 2
	cfg.Nside = 1
	cfg.ApplyPixwin = false // keep the spectrum untouched by filters for an exact check

	log := diag.New()
	res, err := Run(reg, cfg, log)
	require.NoError(t, err)
	require.Equal(t, StageObserve, res.StoppedAt)

	// GAUSSIAN mode resamples onto the integer ell grid but never runs the
	// Gaussianisation/analysis round trip, so Cl_G equals the raw table
	// values at ell=2 (monopole/dipole forced to zero by Resample).
	require.Equal(t, []float64{0, 0, 0.01}, res.ClG[spectrum.Pair{I: 0, J: 0}])
	require.Equal(t, []float64{0, 0, 0.005}, res.ClG[spectrum.Pair{I: 0, J: 1}])
	require.Equal(t, []float64{0, 0, 0.01}, res.ClG[spectrum.Pair{I: 1, J: 1}])
}

func TestRunHomogeneousSkipsSpectrumAndFillsConstantMaps(t *testing.T) {
	recs := []registry.Record{
		{F: 0, Z: 0, Mu: 2.5, Shift: 0, Type: registry.Density, Zmin: 0, Zmax: 0.5},
		{F: 0, Z: 1, Mu: 1.0, Shift: 0, Type: registry.Convergence, Zmin: 0.5, Zmax: 1.0},
	}
	reg, err := registry.New(recs, registry.Homogeneous)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Model = "HOMOGENEOUS"
	cfg.Nside = 1
	cfg.MeanCount = 5
	// Deliberately no CL_TABLE/CL_PREFIX: if spectrum loading ran anyway,
	// LoadPrefix("") against nonexistent files would fail this assertion.

	log := diag.New()
	res, err := Run(reg, cfg, log)
	require.NoError(t, err)
	require.Equal(t, StageObserve, res.StoppedAt)
	require.Nil(t, res.Alm)
	require.Nil(t, res.Shear)

	require.Len(t, res.Maps[0], 12)
	for _, v := range res.Maps[0] {
		require.Equal(t, 2.5, v)
	}
	for _, v := range res.Maps[1] {
		require.Equal(t, 1.0, v)
	}
	require.Contains(t, res.Counts, 0)
	require.NotContains(t, res.Counts, 1)
}

func TestRunHonorsExitAtSpectrum(t *testing.T) {
	reg := buildTwoShellRegistry(t)
	cfg := config.Default()
	cfg.ClTablePath = writeTable(t)
	cfg.Lmax = 2
	cfg.Nside = 1
	cfg.ExitAt = StageSpectrum

	log := diag.New()
	res, err := Run(reg, cfg, log)
	require.NoError(t, err)
	require.Equal(t, StageSpectrum, res.StoppedAt)
	require.Nil(t, res.Maps)
}
