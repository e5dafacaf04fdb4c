package compress

import (
	"fmt"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/format"
)

// Compressor compresses a whole payload in one call.
//
// The returned slice is owned by the caller; the input is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Implementations are safe for concurrent use and return an error when the
// input is corrupt or was produced by another algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines compression and decompression.
type Codec interface {
	Compressor
	Decompressor
}

// MaxDecompressedSize is the largest payload a codec inflates. Larger output
// is reported as ErrCorruptCompressed.
const MaxDecompressedSize = 64 << 20

// corrupt wraps a decompression failure of the named algorithm.
func corrupt(alg string, err error) error {
	return fmt.Errorf("%w: %s: %w", errs.ErrCorruptCompressed, alg, err)
}

// Stats describes one compression of a payload.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// Measure compresses data with the codec of t and reports the sizes.
func Measure(t format.CompressionType, data []byte) (Stats, error) {
	codec, err := GetCodec(t)
	if err != nil {
		return Stats{}, err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return Stats{}, fmt.Errorf("%s compress: %w", t, err)
	}

	return Stats{Algorithm: t, OriginalSize: int64(len(data)), CompressedSize: int64(len(out))}, nil
}

// Ratio returns compressed size over original size, 0 for empty input.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved space in percent.
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
	format.CompressionZlib: NewZlibCompressor(),
	format.CompressionPFS:  NewPFSCompressor(),
}

// GetCodec returns the shared codec of a compression type.
//
// Parameters:
//   - compressionType: Compression algorithm
//
// Returns:
//   - Codec: Shared, concurrency safe codec
//   - error: ErrUnsupportedCompression for unknown types
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// ParseCodec resolves a codec by algorithm name, e.g. "zlib", "pfs" or "none".
func ParseCodec(name string) (Codec, error) {
	t, ok := format.ParseCompressionType(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, name)
	}

	return GetCodec(t)
}
