// Package word implements a fixed-width bitmap over machine words with
// constant-time next/previous set-bit scans.
package word

import (
	"fmt"
	"iter"
	"math/bits"
)

const (
	shift = 6
	mask  = 63
)

// Bitmap is a fixed-capacity bit vector. Bit i is stored in words[i>>6] at
// position i&63. Population count is maintained on every mutation so
// emptiness checks never rescan the words.
type Bitmap struct {
	words []uint64
	size  uint64
	n     int
}

// New returns a zeroed bitmap with capacity for size bits.
func New(size uint64) *Bitmap {
	return &Bitmap{
		words: make([]uint64, (size+mask)>>shift),
		size:  size,
	}
}

// From wraps words as a bitmap of the given bit capacity. Ownership of words
// transfers to the bitmap.
func From(words []uint64, size uint64) *Bitmap {
	b := &Bitmap{words: words, size: size}
	for _, w := range words {
		b.n += bits.OnesCount64(w)
	}
	return b
}

// Size returns the bit capacity.
func (b *Bitmap) Size() uint64 { return b.size }

// Count returns the number of set bits.
func (b *Bitmap) Count() int { return b.n }

// Any returns true if at least one bit is set.
func (b *Bitmap) Any() bool { return b.n != 0 }

// Words exposes the backing words. Callers must not mutate them.
func (b *Bitmap) Words() []uint64 { return b.words }

func (b *Bitmap) check(pos uint64) {
	if pos >= b.size {
		panic(fmt.Sprintf("word: position %d out of range [0, %d)", pos, b.size))
	}
}

// Set sets bit pos and reports whether the bit changed.
func (b *Bitmap) Set(pos uint64) bool {
	b.check(pos)
	w, bit := pos>>shift, uint64(1)<<(pos&mask)
	if b.words[w]&bit != 0 {
		return false
	}
	b.words[w] |= bit
	b.n++
	return true
}

// Clear clears bit pos and reports whether the bit changed.
func (b *Bitmap) Clear(pos uint64) bool {
	b.check(pos)
	w, bit := pos>>shift, uint64(1)<<(pos&mask)
	if b.words[w]&bit == 0 {
		return false
	}
	b.words[w] &^= bit
	b.n--
	return true
}

// Test returns the value of bit pos.
func (b *Bitmap) Test(pos uint64) bool {
	b.check(pos)
	return b.words[pos>>shift]&(uint64(1)<<(pos&mask)) != 0
}

// Next returns the smallest set bit strictly greater than pos. Positions at
// or beyond the capacity yield no result.
func (b *Bitmap) Next(pos uint64) (uint64, bool) {
	if pos+1 >= b.size || pos+1 == 0 {
		return 0, false
	}
	w := pos >> shift
	// 2<<63 wraps to zero, so the mask degenerates to all ones and drops
	// the whole word, which is exactly what a full shift-out needs.
	cur := b.words[w] &^ (2<<(pos&mask) - 1)
	for cur == 0 {
		w++
		if int(w) >= len(b.words) {
			return 0, false
		}
		cur = b.words[w]
	}
	return w<<shift + uint64(bits.TrailingZeros64(cur)), true
}

// Prev returns the largest set bit strictly less than pos.
func (b *Bitmap) Prev(pos uint64) (uint64, bool) {
	if pos == 0 {
		return 0, false
	}
	if pos > b.size {
		pos = b.size
	}
	p := pos - 1
	w := p >> shift
	cur := b.words[w] & (2<<(p&mask) - 1)
	for cur == 0 {
		if w == 0 {
			return 0, false
		}
		w--
		cur = b.words[w]
	}
	return w<<shift + uint64(bits.Len64(cur)) - 1, true
}

// First returns the smallest set bit.
func (b *Bitmap) First() (uint64, bool) {
	for w, cur := range b.words {
		if cur != 0 {
			return uint64(w)<<shift + uint64(bits.TrailingZeros64(cur)), true
		}
	}
	return 0, false
}

// Last returns the largest set bit.
func (b *Bitmap) Last() (uint64, bool) {
	for w := len(b.words) - 1; w >= 0; w-- {
		if cur := b.words[w]; cur != 0 {
			return uint64(w)<<shift + uint64(bits.Len64(cur)) - 1, true
		}
	}
	return 0, false
}

// Range iterates over set bits in ascending order.
func (b *Bitmap) Range() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for w, cur := range b.words {
			base := uint64(w) << shift
			for cur != 0 {
				if !yield(base + uint64(bits.TrailingZeros64(cur))) {
					return
				}
				cur &= cur - 1
			}
		}
	}
}

// Reverse iterates over set bits in descending order.
func (b *Bitmap) Reverse() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for w := len(b.words) - 1; w >= 0; w-- {
			cur := b.words[w]
			base := uint64(w) << shift
			for cur != 0 {
				top := uint64(bits.Len64(cur)) - 1
				if !yield(base + top) {
					return
				}
				cur &^= uint64(1) << top
			}
		}
	}
}

// Clone returns an independent copy.
func (b *Bitmap) Clone() *Bitmap {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitmap{words: words, size: b.size, n: b.n}
}
