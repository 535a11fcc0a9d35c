package spectrum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/diag"
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

func TestLoadPrefixReadsMatchingFilesAndFillsMissingWithAllowMiss(t *testing.T) {
	dir := t.TempDir()
	reg := buildRegistry(t)
	// only the (0,0)-(0,0) auto-spectrum is present on disk.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clf0z0f0z0.dat"), []byte("2 0.1\n3 0.2\n4 0.3\n"), 0o644))

	log := diag.New()
	set, err := LoadPrefix(filepath.Join(dir, "cl"), reg, true, log)
	require.NoError(t, err)
	require.Contains(t, set, Pair{I: 0, J: 0})
	require.Greater(t, log.Count(), int64(0))
}

func TestLoadPrefixFailsWithoutAllowMiss(t *testing.T) {
	dir := t.TempDir()
	reg := buildRegistry(t)
	log := diag.New()
	_, err := LoadPrefix(filepath.Join(dir, "cl"), reg, false, log)
	require.Error(t, err)
}

func TestLoadTableParsesRecognisedColumnsAndSkipsUnknown(t *testing.T) {
	dir := t.TempDir()
	reg := buildRegistry(t)
	content := "ell Cl-f0z0f0z0 Cl-f9z9f9z9\n2 0.1 9.9\n3 0.2 9.9\n"
	path := filepath.Join(dir, "table.dat")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	log := diag.New()
	set, err := LoadTable(path, reg, true, log)
	require.NoError(t, err)
	require.Contains(t, set, Pair{I: 0, J: 0})
	require.Len(t, set[Pair{I: 0, J: 0}].Points, 2)
	require.Greater(t, log.Count(), int64(0))
}

func TestSampleValidateRejectsNonMonotoneEll(t *testing.T) {
	s := &Sample{Pair: Pair{I: 0, J: 0}, Points: []Point{{L: 2, Cl: 1}, {L: 1, Cl: 1}}}
	require.Error(t, s.validate())
}
