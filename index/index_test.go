package index

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(0, 64)
	require.Error(t, err)
	_, err = New(100, 100)
	require.Error(t, err, "block size must be a power of two")
	_, err = New(100, 32)
	require.Error(t, err, "block size must cover a machine word")

	x, err := New(100, 64)
	require.NoError(t, err)
	require.Equal(t, uint64(128), x.Capacity(), "capacity rounds up to whole blocks")
}

func TestInsertDeleteTest(t *testing.T) {
	x, err := New(1<<20, 1<<16)
	require.NoError(t, err)

	added, err := x.Insert(5)
	require.NoError(t, err)
	require.True(t, added)
	added, err = x.Insert(5)
	require.NoError(t, err)
	require.False(t, added, "re-inserting a set key is a no-op")

	_, err = x.Insert(1 << 20)
	require.ErrorIs(t, err, ErrOutOfRange)

	require.True(t, x.Test(5))
	require.False(t, x.Test(6))
	require.False(t, x.Test(1<<21), "out-of-range keys test false")

	require.True(t, x.Delete(5))
	require.False(t, x.Delete(5))
	require.False(t, x.Test(5))
	require.Equal(t, 0, x.Len())
	require.NoError(t, x.Audit())
}

func TestBlockPruning(t *testing.T) {
	x, err := New(1<<20, 1<<16)
	require.NoError(t, err)

	for i := range 100 {
		_, err := x.Insert(uint64(i) * 1000)
		require.NoError(t, err)
	}
	require.NoError(t, x.Audit())

	for i := range 100 {
		require.True(t, x.Delete(uint64(i)*1000))
	}
	require.Equal(t, 0, len(x.blocks), "emptied blocks are released")
	require.Equal(t, 0, x.base.Count())
	require.NoError(t, x.Audit())
}

func TestNextPrevAcrossBlocks(t *testing.T) {
	// The spec scenario: {3, 5, 300000} with 65536-bit blocks.
	x, err := New(300001, 1<<16)
	require.NoError(t, err)
	for _, k := range []uint64{5, 300000, 3} {
		_, err := x.Insert(k)
		require.NoError(t, err)
	}

	v, ok := x.Next(5)
	require.True(t, ok)
	require.Equal(t, uint64(300000), v, "next hops the empty blocks between 5 and 300000")

	v, ok = x.Prev(300000)
	require.True(t, ok)
	require.Equal(t, uint64(5), v)

	_, ok = x.Next(300000)
	require.False(t, ok)
	_, ok = x.Prev(3)
	require.False(t, ok)

	first, ok := x.First()
	require.True(t, ok)
	require.Equal(t, uint64(3), first)
	last, ok := x.Last()
	require.True(t, ok)
	require.Equal(t, uint64(300000), last)

	var got []uint64
	for k := range x.Range() {
		got = append(got, k)
	}
	require.Equal(t, []uint64{3, 5, 300000}, got)
}

func TestEmptyIndex(t *testing.T) {
	x, err := New(1<<16, 1<<10)
	require.NoError(t, err)

	_, ok := x.Next(0)
	require.False(t, ok)
	_, ok = x.Prev(1 << 15)
	require.False(t, ok)
	_, ok = x.First()
	require.False(t, ok)
	_, ok = x.Last()
	require.False(t, ok)
	require.NoError(t, x.Audit())
}

func TestRandomAgainstSortedSlice(t *testing.T) {
	const capacity = 1 << 18
	x, err := New(capacity, 1<<12)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(7, 11))
	present := map[uint64]bool{}

	for range 20000 {
		k := rng.Uint64N(capacity)
		if rng.IntN(4) == 0 {
			x.Delete(k)
			delete(present, k)
		} else {
			_, err := x.Insert(k)
			require.NoError(t, err)
			present[k] = true
		}
	}
	require.NoError(t, x.Audit())

	want := make([]uint64, 0, len(present))
	for k := range present {
		want = append(want, k)
	}
	slices.Sort(want)
	require.Equal(t, len(want), x.Len())

	var got []uint64
	for k := range x.Range() {
		got = append(got, k)
	}
	require.Equal(t, want, got)

	got = got[:0]
	for k := range x.Reverse() {
		got = append(got, k)
	}
	slices.Reverse(got)
	require.Equal(t, want, got)

	// Next/Prev agree with adjacency in the sorted order.
	for i := 0; i+1 < len(want); i++ {
		v, ok := x.Next(want[i])
		require.True(t, ok)
		require.Equal(t, want[i+1], v)
		v, ok = x.Prev(want[i+1])
		require.True(t, ok)
		require.Equal(t, want[i], v)
	}
}
