package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntRoundTrip(t *testing.T) {
	tr, err := NewInt(10)
	require.NoError(t, err)

	for _, v := range []int64{-10, -3, 0, 5, 1 << 40} {
		k, err := tr.ToNative(v)
		require.NoError(t, err)
		require.Equal(t, v, tr.FromNative(k))
	}

	// The spec scenario: {-10, -3, 0} with offset 10 lands on {0, 7, 10}.
	for v, want := range map[int64]uint64{-10: 0, -3: 7, 0: 10} {
		k, err := tr.ToNative(v)
		require.NoError(t, err)
		require.Equal(t, want, k)
	}
}

func TestIntRejectsBelowOffset(t *testing.T) {
	tr, err := NewInt(10)
	require.NoError(t, err)

	_, err = tr.ToNative(-11)
	require.ErrorIs(t, err, ErrDomain)

	_, err = NewInt(-1)
	require.ErrorIs(t, err, ErrDomain)
}

func TestFloatPrecision(t *testing.T) {
	tr, err := NewFloat(1, 0)
	require.NoError(t, err)

	k, exact, err := tr.ToNative(3.1)
	require.NoError(t, err)
	require.True(t, exact)
	require.Equal(t, uint64(31), k)

	k, exact, err = tr.ToNative(3.14)
	require.NoError(t, err)
	require.False(t, exact, "second decimal is lost at one digit of precision")
	require.Equal(t, uint64(31), k, "3.14 and 3.1 collide")

	require.Equal(t, 3.1, tr.FromNative(31))
}

func TestFloatNegativeOffset(t *testing.T) {
	tr, err := NewFloat(2, 500)
	require.NoError(t, err)

	k, exact, err := tr.ToNative(-5.00)
	require.NoError(t, err)
	require.True(t, exact)
	require.Equal(t, uint64(0), k)
	require.Equal(t, -5.0, tr.FromNative(0))

	_, _, err = tr.ToNative(-5.01)
	require.ErrorIs(t, err, ErrDomain)
}

func TestFloatRejectsNonFinite(t *testing.T) {
	tr, err := NewFloat(2, 0)
	require.NoError(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300} {
		_, _, err := tr.ToNative(v)
		require.ErrorIs(t, err, ErrDomain)
	}

	_, err = NewFloat(MaxDigits+1, 0)
	require.ErrorIs(t, err, ErrDomain)
}
