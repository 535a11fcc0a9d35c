package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWarnIncrementsCountAndAppendsMessage(t *testing.T) {
	lg := New()
	lg.Warn("stage1", "something happened: %d", 7)
	require.Equal(t, int64(1), lg.Count())
	msgs := lg.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "stage1", msgs[0].Stage)
	require.Contains(t, msgs[0].Text, "7")
	require.False(t, msgs[0].HasLIJ)
}

func TestWarnLIJAnnotatesAndFormats(t *testing.T) {
	lg := New()
	lg.WarnLIJ("draw", 5, 1, 2, "bad block")
	msgs := lg.Messages()
	require.True(t, msgs[0].HasLIJ)
	require.Contains(t, msgs[0].String(), "l=5")
	require.Contains(t, msgs[0].String(), "i=1")
	require.Contains(t, msgs[0].String(), "j=2")
}

func TestSnapshotAndResetClearsState(t *testing.T) {
	lg := New()
	lg.Warn("a", "one")
	lg.Warn("b", "two")
	snap := lg.SnapshotAndReset()
	require.Len(t, snap, 2)
	require.Equal(t, int64(0), lg.Count())
	require.Empty(t, lg.Messages())
}
