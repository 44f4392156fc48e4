// Package ledger tracks occurrence counts beyond the first for keys held in
// a bitmap. The bitmap bit itself records the first occurrence, so an entry
// exists here only while a key's count is at least two.
package ledger

import "iter"

// Ledger maps native keys to the number of extra occurrences.
type Ledger map[uint64]uint64

func New() Ledger { return make(Ledger) }

// Inc records one more occurrence of an already-present key.
func (l Ledger) Inc(key uint64) {
	l[key]++
}

// Dec drops one extra occurrence of key and reports whether an extra was
// actually recorded. The caller clears the bitmap bit only when this
// returns false.
func (l Ledger) Dec(key uint64) bool {
	c, ok := l[key]
	if !ok {
		return false
	}
	if c == 1 {
		delete(l, key)
	} else {
		l[key] = c - 1
	}
	return true
}

// Get returns the number of extra occurrences of key.
func (l Ledger) Get(key uint64) uint64 { return l[key] }

// Len returns the number of keys with extras.
func (l Ledger) Len() int { return len(l) }

// Total returns the sum of all extra occurrences.
func (l Ledger) Total() uint64 {
	var n uint64
	for _, c := range l {
		n += c
	}
	return n
}

// All iterates over (key, extras) pairs in no particular order.
func (l Ledger) All() iter.Seq2[uint64, uint64] {
	return func(yield func(uint64, uint64) bool) {
		for k, c := range l {
			if !yield(k, c) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	o := make(Ledger, len(l))
	for k, c := range l {
		o[k] = c
	}
	return o
}
