package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	e := New(Domain, "stage", inner)
	require.True(t, errors.Is(e, inner))
	require.True(t, Is(e, Domain))
	require.False(t, Is(e, Numerical))
}

func TestNewLIJAnnotatesMessage(t *testing.T) {
	e := NewLIJ(Numerical, "draw", 5, 1, 2, errors.New("not pd"))
	require.Contains(t, e.Error(), "l=5")
	require.Contains(t, e.Error(), "i=1")
	require.Contains(t, e.Error(), "j=2")
}

func TestKindString(t *testing.T) {
	require.Equal(t, "ConfigError", Config.String())
	require.Equal(t, "InputError", Input.String())
	require.Equal(t, "DomainError", Domain.String())
	require.Equal(t, "NumericalError", Numerical.String())
	require.Equal(t, "ResourceError", Resource.String())
}
