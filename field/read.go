package field

import (
	"github.com/arloliu/wldfrag/endian"
	"github.com/arloliu/wldfrag/errs"
)

// Typed little-endian readers for hand-written fragment decoders.
// Each returns the input cursor unchanged on failure.

var le = endian.GetLittleEndianEngine()

func ReadUint8(c Cursor) (uint8, Cursor, error) {
	b, next, err := c.Take(1)
	if err != nil {
		return 0, c, err
	}

	return b[0], next, nil
}

func ReadInt8(c Cursor) (int8, Cursor, error) {
	v, next, err := ReadUint8(c)
	return int8(v), next, err //nolint: gosec
}

func ReadUint16(c Cursor) (uint16, Cursor, error) {
	b, next, err := c.Take(2)
	if err != nil {
		return 0, c, err
	}

	return le.Uint16(b), next, nil
}

func ReadInt16(c Cursor) (int16, Cursor, error) {
	v, next, err := ReadUint16(c)
	return int16(v), next, err //nolint: gosec
}

func ReadUint32(c Cursor) (uint32, Cursor, error) {
	b, next, err := c.Take(4)
	if err != nil {
		return 0, c, err
	}

	return le.Uint32(b), next, nil
}

func ReadInt32(c Cursor) (int32, Cursor, error) {
	v, next, err := ReadUint32(c)
	return int32(v), next, err //nolint: gosec
}

func ReadFloat32(c Cursor) (float32, Cursor, error) {
	b, next, err := c.Take(4)
	if err != nil {
		return 0, c, err
	}

	return endian.Float32(le, b), next, nil
}

func ReadStringRef(c Cursor) (StringRef, Cursor, error) {
	v, next, err := ReadInt32(c)
	return StringRef(v), next, err
}

// ReadUint32s reads n consecutive u32 values; the result is nil when n is
// zero. Upper bounds on n are the caller's business.
func ReadUint32s(c Cursor, n int) ([]uint32, Cursor, error) {
	switch {
	case n < 0:
		return nil, c, errs.MalformedCount(c.pos, int64(n), "negative count")
	case n == 0:
		return nil, c, nil
	}

	capacity := min(n, c.Remaining()/4)
	out := make([]uint32, 0, capacity)
	cur := c
	for range n {
		v, next, err := ReadUint32(cur)
		if err != nil {
			return nil, c, err
		}
		out = append(out, v)
		cur = next
	}

	return out, cur, nil
}
