package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncDec(t *testing.T) {
	l := New()
	require.Equal(t, uint64(0), l.Get(7))
	require.False(t, l.Dec(7), "no extras recorded")

	l.Inc(7)
	l.Inc(7)
	require.Equal(t, uint64(2), l.Get(7))
	require.Equal(t, 1, l.Len())
	require.Equal(t, uint64(2), l.Total())

	require.True(t, l.Dec(7))
	require.Equal(t, uint64(1), l.Get(7))
	require.True(t, l.Dec(7))
	require.Equal(t, uint64(0), l.Get(7))
	require.Equal(t, 0, l.Len(), "entry removed once extras hit zero")
	require.False(t, l.Dec(7))
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	l.Inc(1)
	l.Inc(2)

	c := l.Clone()
	c.Inc(1)
	require.Equal(t, uint64(1), l.Get(1))
	require.Equal(t, uint64(2), c.Get(1))
}
