package layered

import (
	"fmt"
	"iter"
	"math"

	"github.com/gernest/layered/transform"
)

// FloatSet is an ordered multiset of float64 values with a fixed number of
// decimal digits. Values are scaled to integers before indexing, so
// anything beyond the configured precision is lost: 3.14 and 3.1 are the
// same element at one digit. Insert reports that loss explicitly.
type FloatSet struct {
	set *Set
	tr  transform.Float
}

// NewFloat returns an empty float set with the given decimal precision.
// The negative offset option is interpreted in scaled units.
func NewFloat(digits int, opts ...Option) (*FloatSet, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.defaults()
	tr, err := transform.NewFloat(digits, cfg.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: precision %d, offset %d", ErrOutOfRange, digits, cfg.Offset)
	}
	// The inner set works on ready-made native keys; its own transform
	// stays the identity.
	cfg.Offset = 0
	set, err := newSet(cfg)
	if err != nil {
		return nil, err
	}
	return &FloatSet{set: set, tr: tr}, nil
}

func (f *FloatSet) key(v float64) (uint64, bool, error) {
	k, exact, err := f.tr.ToNative(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return k, exact, nil
}

// Insert adds one occurrence of v. exact is false when v carried more
// decimals than the configured precision and was rounded.
func (f *FloatSet) Insert(v float64) (exact bool, err error) {
	k, exact, err := f.key(v)
	if err != nil {
		return false, err
	}
	if err := f.set.Insert(int64(k)); err != nil {
		return false, err
	}
	return exact, nil
}

// Delete removes one occurrence of v and reports whether anything was
// removed.
func (f *FloatSet) Delete(v float64) bool {
	k, _, err := f.key(v)
	if err != nil {
		return false
	}
	return f.set.Delete(int64(k))
}

// Contains reports whether at least one occurrence of v is present.
func (f *FloatSet) Contains(v float64) bool {
	k, _, err := f.key(v)
	if err != nil {
		return false
	}
	return f.set.Contains(int64(k))
}

// Count returns the number of occurrences of v.
func (f *FloatSet) Count(v float64) int {
	k, _, err := f.key(v)
	if err != nil {
		return 0
	}
	return f.set.Count(int64(k))
}

// Len returns the number of elements, counting duplicates.
func (f *FloatSet) Len() int { return f.set.Len() }

// Next returns the smallest present value strictly greater than v.
func (f *FloatSet) Next(v float64) (float64, bool) {
	k, _, err := f.tr.ToNative(v)
	if err != nil {
		if math.IsNaN(v) || v > 0 {
			return 0, false
		}
		return f.Min()
	}
	n, ok := f.set.Next(int64(k))
	if !ok {
		return 0, false
	}
	return f.tr.FromNative(uint64(n)), true
}

// Previous returns the largest present value strictly less than v.
func (f *FloatSet) Previous(v float64) (float64, bool) {
	k, _, err := f.tr.ToNative(v)
	if err != nil {
		if math.IsNaN(v) || v < 0 {
			return 0, false
		}
		return f.Max()
	}
	p, ok := f.set.Previous(int64(k))
	if !ok {
		return 0, false
	}
	return f.tr.FromNative(uint64(p)), true
}

// Min returns the smallest present value.
func (f *FloatSet) Min() (float64, bool) {
	k, ok := f.set.Min()
	if !ok {
		return 0, false
	}
	return f.tr.FromNative(uint64(k)), true
}

// Max returns the largest present value.
func (f *FloatSet) Max() (float64, bool) {
	k, ok := f.set.Max()
	if !ok {
		return 0, false
	}
	return f.tr.FromNative(uint64(k)), true
}

// Ascend iterates over elements in ascending order, repeating duplicates.
func (f *FloatSet) Ascend() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for k := range f.set.Ascend() {
			if !yield(f.tr.FromNative(uint64(k))) {
				return
			}
		}
	}
}

// Descend iterates over elements in descending order, repeating duplicates.
func (f *FloatSet) Descend() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for k := range f.set.Descend() {
			if !yield(f.tr.FromNative(uint64(k))) {
				return
			}
		}
	}
}

// Sorted materializes the ascending order.
func (f *FloatSet) Sorted() []float64 {
	out := make([]float64, 0, f.set.Len())
	for v := range f.Ascend() {
		out = append(out, v)
	}
	return out
}
