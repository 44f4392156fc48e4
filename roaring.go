package layered

import (
	"fmt"

	"github.com/gernest/roaring"
)

// ToRoaring copies the distinct native keys into a roaring bitmap.
// Multiplicities and the value transform do not survive the trip; this is
// the interop boundary for pipelines that speak roaring.
func (s *Set) ToRoaring() *roaring.Bitmap {
	ra := roaring.NewBitmap()
	for k := range s.idx.Range() {
		ra.DirectAdd(k)
	}
	return ra
}

// FromRoaring inserts every key of ra as a native key. Keys beyond the
// capacity fail with ErrOutOfRange and leave the set unchanged up to the
// offending key.
func (s *Set) FromRoaring(ra *roaring.Bitmap) error {
	for k := range ra.RangeAll() {
		added, err := s.idx.Insert(k)
		if err != nil {
			return fmt.Errorf("%w: roaring key %d exceeds capacity %d", ErrOutOfRange, k, s.idx.Capacity())
		}
		if !added {
			s.dup.Inc(k)
		}
		s.size++
	}
	return nil
}
