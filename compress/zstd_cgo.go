//go:build cgozstd && cgo

package compress

import "github.com/valyala/gozstd"

// Compress returns nil for empty input.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress reports frames that inflate past MaxDecompressedSize like the
// pure Go decoder does.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, corrupt("zstd", err)
	}
	if len(out) > MaxDecompressedSize {
		return nil, corrupt("zstd", errTooLarge)
	}

	return out, nil
}
