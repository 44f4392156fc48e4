package layered

import (
	"iter"

	"github.com/benbjohnson/immutable"
	"github.com/gernest/layered/ledger"
	"github.com/gernest/layered/transform"
	"github.com/gernest/layered/word"
)

// View is a point-in-time, read-only copy of a Set. It shares nothing
// mutable with the live set, so any number of goroutines may query it
// while the set keeps changing. Single mutations touch base layer,
// directory, and ledger together, which is why readers get a whole copy
// rather than a reference.
type View struct {
	base      *word.Bitmap
	blocks    *immutable.SortedMap[uint64, *word.Bitmap]
	dup       ledger.Ledger
	tr        transform.Int
	blockSize uint64
	size      int
}

// Snapshot captures the current contents as a View. Cost is proportional
// to the allocated blocks, not to the capacity.
func (s *Set) Snapshot() *View {
	blocks := immutable.NewSortedMap[uint64, *word.Bitmap](nil)
	base := word.New((s.idx.Capacity() + s.idx.BlockSize() - 1) / s.idx.BlockSize())
	for b, bm := range s.idx.Blocks() {
		blocks = blocks.Set(b, bm.Clone())
		base.Set(b)
	}
	return &View{
		base:      base,
		blocks:    blocks,
		dup:       s.dup.Clone(),
		tr:        s.tr,
		blockSize: s.idx.BlockSize(),
		size:      s.size,
	}
}

// Len returns the number of elements, counting duplicates.
func (v *View) Len() int { return v.size }

// Distinct returns the number of distinct values.
func (v *View) Distinct() int { return v.size - int(v.dup.Total()) }

func (v *View) block(b uint64) (*word.Bitmap, bool) {
	return v.blocks.Get(b)
}

// Contains reports whether at least one occurrence of val is present.
func (v *View) Contains(val int64) bool {
	k, err := v.tr.ToNative(val)
	if err != nil {
		return false
	}
	bm, ok := v.block(k / v.blockSize)
	return ok && k/v.blockSize < v.base.Size() && bm.Test(k%v.blockSize)
}

// Count returns the number of occurrences of val.
func (v *View) Count(val int64) int {
	if !v.Contains(val) {
		return 0
	}
	k, _ := v.tr.ToNative(val)
	return 1 + int(v.dup.Get(k))
}

// Next returns the smallest present value strictly greater than val.
func (v *View) Next(val int64) (int64, bool) {
	k, err := v.tr.ToNative(val)
	if err != nil {
		if val > 0 {
			return 0, false
		}
		return v.Min()
	}
	if k/v.blockSize >= v.base.Size() {
		return 0, false
	}
	block, offset := k/v.blockSize, k%v.blockSize
	if bm, ok := v.block(block); ok {
		if o, ok := bm.Next(offset); ok {
			return v.tr.FromNative(block*v.blockSize + o), true
		}
	}
	b, ok := v.base.Next(block)
	if !ok {
		return 0, false
	}
	bm, _ := v.block(b)
	o, _ := bm.First()
	return v.tr.FromNative(b*v.blockSize + o), true
}

// Previous returns the largest present value strictly less than val.
func (v *View) Previous(val int64) (int64, bool) {
	k, err := v.tr.ToNative(val)
	if err != nil {
		if val > 0 {
			return v.Max()
		}
		return 0, false
	}
	if k/v.blockSize >= v.base.Size() {
		return v.Max()
	}
	block, offset := k/v.blockSize, k%v.blockSize
	if offset != 0 {
		if bm, ok := v.block(block); ok {
			if o, ok := bm.Prev(offset); ok {
				return v.tr.FromNative(block*v.blockSize + o), true
			}
		}
	}
	b, ok := v.base.Prev(block)
	if !ok {
		return 0, false
	}
	bm, _ := v.block(b)
	o, _ := bm.Last()
	return v.tr.FromNative(b*v.blockSize + o), true
}

// Min returns the smallest present value.
func (v *View) Min() (int64, bool) {
	b, ok := v.base.First()
	if !ok {
		return 0, false
	}
	bm, _ := v.block(b)
	o, _ := bm.First()
	return v.tr.FromNative(b*v.blockSize + o), true
}

// Max returns the largest present value.
func (v *View) Max() (int64, bool) {
	b, ok := v.base.Last()
	if !ok {
		return 0, false
	}
	bm, _ := v.block(b)
	o, _ := bm.Last()
	return v.tr.FromNative(b*v.blockSize + o), true
}

// Ascend iterates over elements in ascending order, repeating duplicates.
func (v *View) Ascend() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		itr := v.blocks.Iterator()
		for {
			b, bm, ok := itr.Next()
			if !ok {
				break
			}
			base := b * v.blockSize
			for o := range bm.Range() {
				k := base + o
				val := v.tr.FromNative(k)
				for range 1 + v.dup.Get(k) {
					if !yield(val) {
						return
					}
				}
			}
		}
	}
}

// Descend iterates over elements in descending order, repeating duplicates.
func (v *View) Descend() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for b := range v.base.Reverse() {
			bm, _ := v.block(b)
			base := b * v.blockSize
			for o := range bm.Reverse() {
				k := base + o
				val := v.tr.FromNative(k)
				for range 1 + v.dup.Get(k) {
					if !yield(val) {
						return
					}
				}
			}
		}
	}
}
