package layered

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatPrecisionCollision(t *testing.T) {
	// Spec scenario: 3.14 and 3.1 at one digit both land on native key 31.
	f, err := NewFloat(1, WithCapacity(1<<10))
	require.NoError(t, err)

	exact, err := f.Insert(3.1)
	require.NoError(t, err)
	require.True(t, exact)

	exact, err = f.Insert(3.14)
	require.NoError(t, err)
	require.False(t, exact, "3.14 loses its second decimal")

	require.Equal(t, 2, f.Count(3.1), "the two inserts collide")
	require.True(t, f.Delete(3.14))
	require.Equal(t, 1, f.Count(3.1))
	require.True(t, f.Contains(3.1))
}

func TestFloatOrdering(t *testing.T) {
	f, err := NewFloat(2, WithCapacity(1<<20))
	require.NoError(t, err)

	for _, v := range []float64{12.5, 0.01, 7007.25, 0.99} {
		exact, err := f.Insert(v)
		require.NoError(t, err)
		require.True(t, exact)
	}
	require.Equal(t, []float64{0.01, 0.99, 12.5, 7007.25}, f.Sorted())

	v, ok := f.Next(0.99)
	require.True(t, ok)
	require.Equal(t, 12.5, v)
	v, ok = f.Previous(12.5)
	require.True(t, ok)
	require.Equal(t, 0.99, v)

	mn, ok := f.Min()
	require.True(t, ok)
	require.Equal(t, 0.01, mn)
	mx, ok := f.Max()
	require.True(t, ok)
	require.Equal(t, 7007.25, mx)

	var desc []float64
	for x := range f.Descend() {
		desc = append(desc, x)
	}
	require.Equal(t, []float64{7007.25, 12.5, 0.99, 0.01}, desc)
}

func TestFloatNegative(t *testing.T) {
	// Offset is in scaled units: two digits, so -5.00 needs offset 500.
	f, err := NewFloat(2, WithCapacity(1<<12), WithNegativeOffset(500))
	require.NoError(t, err)

	for _, v := range []float64{-5, -0.25, 3.5} {
		exact, err := f.Insert(v)
		require.NoError(t, err)
		require.True(t, exact)
	}
	require.Equal(t, []float64{-5, -0.25, 3.5}, f.Sorted())

	_, err = f.Insert(-5.01)
	require.ErrorIs(t, err, ErrOutOfRange)

	v, ok := f.Next(-100)
	require.True(t, ok)
	require.Equal(t, -5.0, v)
	_, ok = f.Previous(-100)
	require.False(t, ok)
}

func TestFloatRejectsNonFinite(t *testing.T) {
	f, err := NewFloat(2, WithCapacity(1<<10))
	require.NoError(t, err)

	_, err = f.Insert(1e300)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.False(t, f.Contains(1e300))
	require.Equal(t, 0, f.Len())
}
