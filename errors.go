package layered

import "errors"

// ErrOutOfRange reports a value the set cannot index: beyond the fixed
// capacity, below the configured negative offset, or not representable as
// a native key at all. Values are never clamped or wrapped.
var ErrOutOfRange = errors.New("layered: value out of range")
