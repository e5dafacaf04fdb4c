package compress

import (
	"fmt"

	"github.com/arloliu/wldfrag/endian"
)

const (
	// PFSBlockSize is the largest inflated size of one S3D block.
	PFSBlockSize = 8192

	pfsHeaderSize = 8
)

var pfsEngine = endian.GetLittleEndianEngine()

// PFSCompressor reads and writes the block chain an S3D (PFS) archive stores
// each file as. Every block is
//
//	deflated_size:u32 inflated_size:u32 zlib_stream[deflated_size]
//
// in little-endian order, and the file is the concatenation of the inflated
// blocks. A WLD payload lifted from an archive entry decodes with it as is.
type PFSCompressor struct{}

var _ Codec = (*PFSCompressor)(nil)

func NewPFSCompressor() PFSCompressor {
	return PFSCompressor{}
}

// Compress splits data into blocks of PFSBlockSize inflated bytes. It returns
// nil for empty input.
func (c PFSCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var out []byte
	for len(data) > 0 {
		n := min(len(data), PFSBlockSize)

		start := len(out)
		out = append(out, make([]byte, pfsHeaderSize)...)

		var err error
		if out, err = appendZlib(out, data[:n]); err != nil {
			return nil, err
		}

		deflated := len(out) - start - pfsHeaderSize
		pfsEngine.PutUint32(out[start:], uint32(deflated)) //nolint: gosec
		pfsEngine.PutUint32(out[start+4:], uint32(n))      //nolint: gosec
		data = data[n:]
	}

	return out, nil
}

// Decompress inflates every block of the chain. A block whose stream does not
// inflate to exactly its announced size, or a header cut short, is an error.
func (c PFSCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var out []byte
	for block, off := 0, 0; off < len(data); block++ {
		if len(data)-off < pfsHeaderSize {
			return nil, corrupt("pfs", fmt.Errorf("block %d at offset %d: header needs %d bytes, %d remain",
				block, off, pfsHeaderSize, len(data)-off))
		}

		deflated := int64(pfsEngine.Uint32(data[off:]))
		inflated := int64(pfsEngine.Uint32(data[off+4:]))
		off += pfsHeaderSize

		switch {
		case deflated > int64(len(data)-off):
			return nil, corrupt("pfs", fmt.Errorf("block %d at offset %d: %d deflated bytes, %d remain",
				block, off-pfsHeaderSize, deflated, len(data)-off))
		case int64(len(out))+inflated > MaxDecompressedSize:
			return nil, corrupt("pfs", errTooLarge)
		}

		b, err := inflate(data[off:off+int(deflated)], int(inflated))
		if err != nil {
			return nil, fmt.Errorf("block %d at offset %d: %w", block, off-pfsHeaderSize, err)
		}

		out = append(out, b...)
		off += int(deflated)
	}

	return out, nil
}
