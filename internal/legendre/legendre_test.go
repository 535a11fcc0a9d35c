package legendre

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodesWeightsSumToTwo(t *testing.T) {
	x, w := Nodes(16)
	require.Len(t, x, 16)
	sum := 0.0
	for _, wi := range w {
		sum += wi
	}
	require.InDelta(t, 2.0, sum, 1e-10)
	for i := 1; i < len(x); i++ {
		require.Greater(t, x[i], x[i-1])
	}
}

func TestSynthesizeAnalyzeRoundTrip(t *testing.T) {
	lmax := 20
	cl := make([]float64, lmax+1)
	for l := range cl {
		cl[l] = 1.0 / float64(l+1) / float64(l+1)
	}
	cl[0] = 0

	n := 2 * (lmax + 1)
	x, w := Nodes(n)
	xi := Synthesize(cl, x)
	back := Analyze(xi, x, w, lmax)

	for l := 1; l <= lmax; l++ {
		require.InDelta(t, cl[l], back[l], 1e-6, "ell=%d", l)
	}
}

func TestPRecurrenceMatchesKnownValues(t *testing.T) {
	require.InDelta(t, 1.0, P(0, 0.37), 1e-12)
	require.InDelta(t, 0.37, P(1, 0.37), 1e-12)
	x := 0.5
	want := 0.5 * (3*x*x - 1)
	require.InDelta(t, want, P(2, x), 1e-12)
}

func TestNodesSymmetricAboutZero(t *testing.T) {
	x, _ := Nodes(9)
	n := len(x)
	for i := 0; i < n; i++ {
		require.InDelta(t, 0.0, x[i]+x[n-1-i], 1e-12)
	}
	require.InDelta(t, 0.0, x[n/2], 1e-12)
}
