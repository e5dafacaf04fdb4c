package compress

import "github.com/klauspost/compress/s2"

// S2Compressor uses the S2 block format.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress returns nil for empty input.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress checks the length the block announces against
// MaxDecompressedSize before allocating.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, corrupt("s2", err)
	}
	if n > MaxDecompressedSize {
		return nil, corrupt("s2", errTooLarge)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, corrupt("s2", err)
	}

	return out, nil
}
