package compress

// ZstdCompressor uses Zstandard frames. The pure Go implementation is used
// unless the module is built with the cgozstd tag and cgo enabled.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd codec
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
