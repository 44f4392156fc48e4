// Package index composes a summary bitmap with a sparse directory of block
// bitmaps to present one logical bitmap over a large, mostly empty key
// range. The base layer holds one bit per block, set exactly while that
// block holds at least one bit, which is what lets global next/previous
// scans hop over empty regions in O(1) instead of walking empty words.
package index

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"

	"github.com/gernest/layered/word"
)

// ErrOutOfRange reports a key at or beyond the fixed capacity.
var ErrOutOfRange = errors.New("index: key out of range")

// Index is the two-layer bitmap. Capacity is fixed at construction; blocks
// are allocated on first use and dropped the moment they empty, so memory
// tracks the live key population rather than churn history.
type Index struct {
	base      *word.Bitmap
	blocks    map[uint64]*word.Bitmap
	capacity  uint64
	blockSize uint64
	n         int
}

// New returns an index over [0, capacity) split into blockSize-bit blocks.
// blockSize must be a power of two no smaller than a machine word;
// capacity is rounded up to a whole number of blocks.
func New(capacity, blockSize uint64) (*Index, error) {
	if capacity == 0 {
		return nil, errors.New("index: capacity must be positive")
	}
	if blockSize < 64 || bits.OnesCount64(blockSize) != 1 {
		return nil, fmt.Errorf("index: block size %d is not a power of two >= 64", blockSize)
	}
	nb := (capacity + blockSize - 1) / blockSize
	return &Index{
		base:      word.New(nb),
		blocks:    make(map[uint64]*word.Bitmap),
		capacity:  nb * blockSize,
		blockSize: blockSize,
	}, nil
}

// Capacity returns the number of addressable keys.
func (x *Index) Capacity() uint64 { return x.capacity }

// BlockSize returns the bits per block.
func (x *Index) BlockSize() uint64 { return x.blockSize }

// Len returns the number of set keys.
func (x *Index) Len() int { return x.n }

func (x *Index) split(key uint64) (block, offset uint64) {
	return key / x.blockSize, key % x.blockSize
}

// Insert sets key and reports whether it was newly set.
func (x *Index) Insert(key uint64) (bool, error) {
	if key >= x.capacity {
		return false, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, key, x.capacity)
	}
	block, offset := x.split(key)
	bm := x.blocks[block]
	if bm == nil {
		bm = word.New(x.blockSize)
		x.blocks[block] = bm
		x.base.Set(block)
	}
	if !bm.Set(offset) {
		return false, nil
	}
	x.n++
	return true, nil
}

// Delete clears key and reports whether it was set. An emptied block is
// released and its base-layer bit cleared in the same call.
func (x *Index) Delete(key uint64) bool {
	if key >= x.capacity {
		return false
	}
	block, offset := x.split(key)
	bm := x.blocks[block]
	if bm == nil || !bm.Clear(offset) {
		return false
	}
	x.n--
	if !bm.Any() {
		delete(x.blocks, block)
		x.base.Clear(block)
	}
	return true
}

// Test reports whether key is set.
func (x *Index) Test(key uint64) bool {
	if key >= x.capacity {
		return false
	}
	block, offset := x.split(key)
	bm := x.blocks[block]
	return bm != nil && bm.Test(offset)
}

// Next returns the smallest set key strictly greater than key. Pass a key
// at or beyond capacity for no result; use First to scan from the origin.
func (x *Index) Next(key uint64) (uint64, bool) {
	if key >= x.capacity-1 {
		return 0, false
	}
	block, offset := x.split(key)
	if bm := x.blocks[block]; bm != nil {
		if o, ok := bm.Next(offset); ok {
			return block*x.blockSize + o, true
		}
	}
	// Hop over empty blocks via the base layer.
	b, ok := x.base.Next(block)
	if !ok {
		return 0, false
	}
	o, _ := x.blocks[b].First()
	return b*x.blockSize + o, true
}

// Prev returns the largest set key strictly less than key.
func (x *Index) Prev(key uint64) (uint64, bool) {
	if key == 0 {
		return 0, false
	}
	if key > x.capacity {
		key = x.capacity
	}
	block, offset := x.split(key)
	if offset != 0 {
		if bm := x.blocks[block]; bm != nil {
			if o, ok := bm.Prev(offset); ok {
				return block*x.blockSize + o, true
			}
		}
	}
	b, ok := x.base.Prev(block)
	if !ok {
		return 0, false
	}
	o, _ := x.blocks[b].Last()
	return b*x.blockSize + o, true
}

// First returns the smallest set key.
func (x *Index) First() (uint64, bool) {
	b, ok := x.base.First()
	if !ok {
		return 0, false
	}
	o, _ := x.blocks[b].First()
	return b*x.blockSize + o, true
}

// Last returns the largest set key.
func (x *Index) Last() (uint64, bool) {
	b, ok := x.base.Last()
	if !ok {
		return 0, false
	}
	o, _ := x.blocks[b].Last()
	return b*x.blockSize + o, true
}

// Range iterates over set keys in ascending order.
func (x *Index) Range() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for b := range x.base.Range() {
			base := b * x.blockSize
			for o := range x.blocks[b].Range() {
				if !yield(base + o) {
					return
				}
			}
		}
	}
}

// Reverse iterates over set keys in descending order.
func (x *Index) Reverse() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for b := range x.base.Reverse() {
			base := b * x.blockSize
			for o := range x.blocks[b].Reverse() {
				if !yield(base + o) {
					return
				}
			}
		}
	}
}

// Blocks iterates over allocated blocks in ascending block order.
func (x *Index) Blocks() iter.Seq2[uint64, *word.Bitmap] {
	return func(yield func(uint64, *word.Bitmap) bool) {
		for b := range x.base.Range() {
			if !yield(b, x.blocks[b]) {
				return
			}
		}
	}
}

// LoadBlock installs a whole block during restore. The block must not be
// already allocated and must carry at least one set bit.
func (x *Index) LoadBlock(block uint64, bm *word.Bitmap) error {
	if block*x.blockSize >= x.capacity {
		return fmt.Errorf("%w: block %d", ErrOutOfRange, block)
	}
	if bm.Size() != x.blockSize {
		return fmt.Errorf("index: block %d size %d does not match %d", block, bm.Size(), x.blockSize)
	}
	if !bm.Any() {
		return fmt.Errorf("index: refusing to load empty block %d", block)
	}
	if _, ok := x.blocks[block]; ok {
		return fmt.Errorf("index: block %d already loaded", block)
	}
	x.blocks[block] = bm
	x.base.Set(block)
	x.n += bm.Count()
	return nil
}

// Audit verifies the base-layer invariant: a base bit is set iff the
// corresponding block exists and holds at least one bit. Tests run it
// after every mutation batch.
func (x *Index) Audit() error {
	n := 0
	for b, bm := range x.blocks {
		if !x.base.Test(b) {
			return fmt.Errorf("index: block %d allocated but base bit clear", b)
		}
		if !bm.Any() {
			return fmt.Errorf("index: block %d allocated but empty", b)
		}
		n += bm.Count()
	}
	for b := range x.base.Range() {
		if _, ok := x.blocks[b]; !ok {
			return fmt.Errorf("index: base bit %d set without a block", b)
		}
	}
	if n != x.n {
		return fmt.Errorf("index: cardinality %d does not match blocks %d", x.n, n)
	}
	return nil
}
