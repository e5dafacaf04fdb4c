package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Readers keep a 32 KiB window and writers their hash chains, so both are
// pooled and reset per payload.
var zlibReaderPool sync.Pool

var zlibWriterPool = sync.Pool{
	New: func() any {
		w, err := zlib.NewWriterLevel(nil, zlib.DefaultCompression)
		if err != nil {
			panic(fmt.Sprintf("failed to create zlib writer for pool: %v", err))
		}

		return w
	},
}

var errTooLarge = fmt.Errorf("inflated size exceeds %d bytes", MaxDecompressedSize)

// ZlibCompressor reads and writes one zlib stream (RFC 1950), the format of
// every block in an S3D archive.
type ZlibCompressor struct{}

var _ Codec = (*ZlibCompressor)(nil)

func NewZlibCompressor() ZlibCompressor {
	return ZlibCompressor{}
}

// Compress returns nil for empty input.
func (c ZlibCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return appendZlib(nil, data)
}

// Decompress inflates one stream. Bytes after the stream's checksum are an
// error.
func (c ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return inflate(data, -1)
}

// appendZlib appends the zlib stream of data to dst.
func appendZlib(dst, data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)

	w, _ := zlibWriterPool.Get().(*zlib.Writer)
	defer zlibWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib close failed: %w", err)
	}

	return buf.Bytes(), nil
}

// inflate decodes the single zlib stream in data. A non-negative size is the
// exact inflated length announced by a block header.
func inflate(data []byte, size int) ([]byte, error) {
	src := bytes.NewReader(data)

	r, err := getZlibReader(src)
	if err != nil {
		return nil, corrupt("zlib", err)
	}
	defer zlibReaderPool.Put(r)

	var out []byte
	if size >= 0 {
		out = make([]byte, size)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, corrupt("zlib", fmt.Errorf("inflate %d bytes: %w", size, err))
		}
		// the stream must end here, which also verifies the checksum
		var one [1]byte
		if n, err := r.Read(one[:]); n != 0 || !errors.Is(err, io.EOF) {
			if err == nil || errors.Is(err, io.EOF) {
				err = fmt.Errorf("inflates past the announced %d bytes", size)
			}

			return nil, corrupt("zlib", err)
		}
	} else {
		var buf bytes.Buffer
		n, err := buf.ReadFrom(io.LimitReader(r, MaxDecompressedSize+1))
		if err != nil {
			return nil, corrupt("zlib", err)
		}
		if n > MaxDecompressedSize {
			return nil, corrupt("zlib", errTooLarge)
		}
		out = buf.Bytes()
	}

	if src.Len() != 0 {
		return nil, corrupt("zlib", fmt.Errorf("%d trailing bytes after the stream", src.Len()))
	}

	return out, nil
}

func getZlibReader(src io.Reader) (io.ReadCloser, error) {
	if r, ok := zlibReaderPool.Get().(io.ReadCloser); ok {
		if err := r.(zlib.Resetter).Reset(src, nil); err != nil {
			zlibReaderPool.Put(r)
			return nil, err
		}

		return r, nil
	}

	return zlib.NewReader(src)
}
