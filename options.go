package layered

// Defaults size the structure for a 4Gi key space in 64Ki-bit blocks,
// which keeps the base layer at a single 8KiB bitmap.
const (
	DefaultCapacity  = 1 << 32
	DefaultBlockSize = 1 << 16
)

// Config carries the construction parameters. All fields are fixed for
// the lifetime of the set; in particular changing Offset after keys exist
// would silently reorder them, so there is no rebase operation.
type Config struct {
	// Capacity is the native key range hint. It is rounded up to a whole
	// number of blocks.
	Capacity uint64
	// BlockSize is the bits per second-layer block. Power of two, >= 64.
	BlockSize uint64
	// Offset admits values down to -Offset by shifting them into the
	// non-negative key space.
	Offset int64
}

func (c *Config) defaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
}

// Option configures a set at construction.
type Option func(*Config)

// WithCapacity fixes the native key range.
func WithCapacity(n uint64) Option {
	return func(c *Config) { c.Capacity = n }
}

// WithBlockSize fixes the bits per block.
func WithBlockSize(n uint64) Option {
	return func(c *Config) { c.BlockSize = n }
}

// WithNegativeOffset admits values down to -n.
func WithNegativeOffset(n int64) Option {
	return func(c *Config) { c.Offset = n }
}
