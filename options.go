package car

// HashAlgo identifies the multihash algorithm used for every CID in one
// archive. The algorithm is fixed for the lifetime of a single Pack call
// (spec.md §4.1 constraint).
type HashAlgo int

const (
	// HashSha2_256 selects the sha2-256 multihash.
	HashSha2_256 HashAlgo = iota
	// HashBlake2b256 selects the blake2b-256 multihash.
	HashBlake2b256
)

// options holds the configured options after applying a number of
// Option funcs.
type options struct {
	HashAlgo HashAlgo
	NoWrap   bool
}

// Option describes an option which affects behavior when packing a path
// into a CAR v1 archive.
type Option func(*options)

// WithHashAlgo selects the multihash algorithm used for every CID in the
// produced archive. Defaults to sha2-256.
func WithHashAlgo(algo HashAlgo) Option {
	return func(o *options) {
		o.HashAlgo = algo
	}
}

// NoWrap, when the source is a single regular file, skips wrapping that
// file in a synthetic parent directory (spec.md §4.7 shape A vs B). It has
// no effect when the source is a directory.
func NoWrap(enable bool) Option {
	return func(o *options) {
		o.NoWrap = enable
	}
}

// applyOptions applies given opts and returns the resulting options.
func applyOptions(opt ...Option) options {
	opts := options{
		HashAlgo: HashSha2_256,
		NoWrap:   false,
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}
