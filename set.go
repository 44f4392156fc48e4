// Package layered implements an ordered multiset of integers on top of a
// two-layer bitmap: a sparse directory of word bitmaps indexed by a base
// summary bitmap. Membership, successor, and predecessor queries cost O(1)
// amortized in the word size, and a full ordered traversal costs O(n) with
// no comparisons, only bit scans.
package layered

import (
	"fmt"
	"iter"

	"github.com/gernest/layered/index"
	"github.com/gernest/layered/ledger"
	"github.com/gernest/layered/transform"
	"github.com/gernest/layered/word"
)

// Set is an ordered multiset of int64 values. A value is present while its
// bit is set; occurrences beyond the first live in the duplicate ledger,
// so the bitmap keeps plain 0/1 semantics. Every mutation updates base
// layer, directory, and ledger together; no query can observe them out of
// sync. Not safe for concurrent use; see Snapshot for lock-free readers.
type Set struct {
	idx  *index.Index
	dup  ledger.Ledger
	tr   transform.Int
	size int
}

// New returns an empty set. See Config for the tunables.
func New(opts ...Option) (*Set, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.defaults()
	return newSet(cfg)
}

func newSet(cfg Config) (*Set, error) {
	tr, err := transform.NewInt(cfg.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: negative offset %d", ErrOutOfRange, cfg.Offset)
	}
	idx, err := index.New(cfg.Capacity, cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	return &Set{idx: idx, dup: ledger.New(), tr: tr}, nil
}

// Config returns the effective construction parameters, with the capacity
// as rounded up at construction.
func (s *Set) Config() Config {
	return Config{
		Capacity:  s.idx.Capacity(),
		BlockSize: s.idx.BlockSize(),
		Offset:    s.tr.Offset(),
	}
}

// Len returns the number of elements, counting duplicates.
func (s *Set) Len() int { return s.size }

// Distinct returns the number of distinct values.
func (s *Set) Distinct() int { return s.idx.Len() }

func (s *Set) key(v int64) (uint64, error) {
	k, err := s.tr.ToNative(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %d is below the negative offset %d", ErrOutOfRange, v, s.tr.Offset())
	}
	return k, nil
}

// Insert adds one occurrence of v.
func (s *Set) Insert(v int64) error {
	k, err := s.key(v)
	if err != nil {
		return err
	}
	added, err := s.idx.Insert(k)
	if err != nil {
		return fmt.Errorf("%w: %d exceeds capacity %d", ErrOutOfRange, v, s.idx.Capacity())
	}
	if !added {
		s.dup.Inc(k)
	}
	s.size++
	return nil
}

// Delete removes one occurrence of v and reports whether anything was
// removed. The bit clears only when the last occurrence goes.
func (s *Set) Delete(v int64) bool {
	k, err := s.key(v)
	if err != nil {
		return false
	}
	if s.dup.Dec(k) {
		s.size--
		return true
	}
	if s.idx.Delete(k) {
		s.size--
		return true
	}
	return false
}

// Contains reports whether at least one occurrence of v is present.
func (s *Set) Contains(v int64) bool {
	k, err := s.key(v)
	if err != nil {
		return false
	}
	return s.idx.Test(k)
}

// Count returns the number of occurrences of v.
func (s *Set) Count(v int64) int {
	k, err := s.key(v)
	if err != nil || !s.idx.Test(k) {
		return 0
	}
	return 1 + int(s.dup.Get(k))
}

// Next returns the smallest present value strictly greater than v.
func (s *Set) Next(v int64) (int64, bool) {
	k, err := s.tr.ToNative(v)
	if err != nil {
		if v > 0 {
			// Overflowed past the top of the key space.
			return 0, false
		}
		// v is below the whole domain, so the successor is the minimum.
		return s.Min()
	}
	n, ok := s.idx.Next(k)
	if !ok {
		return 0, false
	}
	return s.tr.FromNative(n), true
}

// Previous returns the largest present value strictly less than v.
func (s *Set) Previous(v int64) (int64, bool) {
	k, err := s.tr.ToNative(v)
	if err != nil {
		if v > 0 {
			return s.Max()
		}
		return 0, false
	}
	if k > s.idx.Capacity() {
		return s.Max()
	}
	p, ok := s.idx.Prev(k)
	if !ok {
		return 0, false
	}
	return s.tr.FromNative(p), true
}

// Min returns the smallest present value.
func (s *Set) Min() (int64, bool) {
	k, ok := s.idx.First()
	if !ok {
		return 0, false
	}
	return s.tr.FromNative(k), true
}

// Max returns the largest present value.
func (s *Set) Max() (int64, bool) {
	k, ok := s.idx.Last()
	if !ok {
		return 0, false
	}
	return s.tr.FromNative(k), true
}

// Ascend iterates over elements in ascending order, repeating duplicates.
// The sequence is lazy and restartable.
func (s *Set) Ascend() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for k := range s.idx.Range() {
			v := s.tr.FromNative(k)
			for range 1 + s.dup.Get(k) {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Descend iterates over elements in descending order, repeating duplicates.
func (s *Set) Descend() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for k := range s.idx.Reverse() {
			v := s.tr.FromNative(k)
			for range 1 + s.dup.Get(k) {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Sorted materializes the ascending order. No comparison sort runs; the
// order falls out of the bit scans.
func (s *Set) Sorted() []int64 {
	out := make([]int64, 0, s.size)
	for v := range s.Ascend() {
		out = append(out, v)
	}
	return out
}

// Blocks iterates over allocated blocks in ascending block order, exposing
// their backing words. Callers must not mutate the words.
func (s *Set) Blocks() iter.Seq2[uint64, []uint64] {
	return func(yield func(uint64, []uint64) bool) {
		for b, bm := range s.idx.Blocks() {
			if !yield(b, bm.Words()) {
				return
			}
		}
	}
}

// Duplicates iterates over (native key, extra occurrences) pairs in no
// particular order.
func (s *Set) Duplicates() iter.Seq2[uint64, uint64] {
	return s.dup.All()
}

// Audit verifies the base-layer invariant against every allocated block.
// Meant for tests and for storage to validate a loaded snapshot.
func (s *Set) Audit() error {
	if err := s.idx.Audit(); err != nil {
		return err
	}
	for k := range s.dup.All() {
		if !s.idx.Test(k) {
			return fmt.Errorf("layered: ledger entry %d without a set bit", k)
		}
	}
	if want := s.idx.Len() + int(s.dup.Total()); want != s.size {
		return fmt.Errorf("layered: size %d does not match index and ledger %d", s.size, want)
	}
	return nil
}

// Restore rebuilds a set from snapshot data: whole blocks of words keyed
// by block index and ledger extras keyed by native key. Used by the
// storage package; every invariant is revalidated.
func Restore(cfg Config, blocks map[uint64][]uint64, dups map[uint64]uint64) (*Set, error) {
	s, err := newSet(cfg)
	if err != nil {
		return nil, err
	}
	cfg = s.Config()
	for b, words := range blocks {
		if uint64(len(words)) != cfg.BlockSize/64 {
			return nil, fmt.Errorf("layered: block %d carries %d words, want %d", b, len(words), cfg.BlockSize/64)
		}
		if err := s.idx.LoadBlock(b, word.From(words, cfg.BlockSize)); err != nil {
			return nil, err
		}
	}
	for k, extra := range dups {
		if extra == 0 {
			return nil, fmt.Errorf("layered: ledger entry %d with zero extras", k)
		}
		if !s.idx.Test(k) {
			return nil, fmt.Errorf("layered: ledger entry %d without a set bit", k)
		}
		s.dup[k] = extra
	}
	s.size = s.idx.Len() + int(s.dup.Total())
	return s, nil
}
