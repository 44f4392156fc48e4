// Package transform maps user-facing numeric domains onto the non-negative
// key space a bitmap can index, and back. Parameters are fixed at
// construction; the mappings are bijective within their declared domain.
package transform

import (
	"errors"
	"math"
)

// ErrDomain reports a value the configured transform cannot represent:
// below the negative offset, not finite, or too large for the key space.
var ErrDomain = errors.New("transform: value outside the declared domain")

// Int shifts signed integers into non-negative keys by a fixed offset.
// The zero value is the identity transform for non-negative integers.
type Int struct {
	offset int64
}

// NewInt returns a transform that admits values down to -offset.
func NewInt(offset int64) (Int, error) {
	if offset < 0 {
		return Int{}, ErrDomain
	}
	return Int{offset: offset}, nil
}

// Offset returns the configured negative offset.
func (t Int) Offset() int64 { return t.offset }

// ToNative maps v to its native key. Values below -offset are rejected;
// admitting them would require rebasing every key already indexed.
func (t Int) ToNative(v int64) (uint64, error) {
	k := v + t.offset
	if k < 0 {
		return 0, ErrDomain
	}
	return uint64(k), nil
}

// FromNative is the exact inverse of ToNative.
func (t Int) FromNative(key uint64) int64 {
	return int64(key) - t.offset
}

// Float scales floating point values by 10^digits, rounds, and then
// applies the integer offset. Digits beyond the configured precision are
// lost; ToNative reports whether the conversion round-trips exactly.
type Float struct {
	scale float64
	Int
}

// MaxDigits bounds the decimal precision so the scale stays exactly
// representable as a float64.
const MaxDigits = 15

// NewFloat returns a transform with the given decimal precision and
// negative offset.
func NewFloat(digits int, offset int64) (Float, error) {
	if digits < 0 || digits > MaxDigits {
		return Float{}, ErrDomain
	}
	i, err := NewInt(offset)
	if err != nil {
		return Float{}, err
	}
	return Float{scale: math.Pow10(digits), Int: i}, nil
}

// ToNative maps v to its native key. exact is false when v carries more
// decimals than the configured precision (the advisory lossy flag).
func (t Float) ToNative(v float64) (key uint64, exact bool, err error) {
	scaled := v * t.scale
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) ||
		scaled < math.MinInt64 || scaled >= math.MaxInt64 {
		return 0, false, ErrDomain
	}
	key, err = t.Int.ToNative(int64(math.Round(scaled)))
	if err != nil {
		return 0, false, err
	}
	return key, t.FromNative(key) == v, nil
}

// FromNative inverts ToNative up to the declared precision.
func (t Float) FromNative(key uint64) float64 {
	return float64(t.Int.FromNative(key)) / t.scale
}
