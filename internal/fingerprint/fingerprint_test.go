package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosmofield/internal/config"
)

func TestConfigIsDeterministicForIdenticalFields(t *testing.T) {
	a := config.Default()
	a.FieldsInfoPath = "fields.txt"
	a.ClPrefix = "cl"
	b := a
	require.Equal(t, Config(a), Config(b))
}

func TestConfigChangesWithSeed(t *testing.T) {
	a := config.Default()
	a.FieldsInfoPath = "fields.txt"
	a.ClPrefix = "cl"
	b := a
	b.Seed = a.Seed + 1
	require.NotEqual(t, Config(a), Config(b))
}

func TestMessagesOrderIndependent(t *testing.T) {
	a := Messages([]string{"warn: a", "warn: b"})
	b := Messages([]string{"warn: b", "warn: a"})
	require.Equal(t, a, b)
}
