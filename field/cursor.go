package field

import "github.com/arloliu/wldfrag/errs"

// Cursor is an immutable view over a fragment payload and a read position.
//
// Every read returns a new Cursor over the unconsumed remainder; the receiver
// is never modified, so a Cursor can be retained to report offsets or to
// retry from a known position.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) Cursor {
	return Cursor{data: data}
}

// Offset returns the number of bytes consumed since the start of the payload.
func (c Cursor) Offset() int {
	return c.pos
}

// Remaining returns the number of unconsumed bytes.
func (c Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Rest returns the unconsumed bytes. The slice aliases the payload.
func (c Cursor) Rest() []byte {
	return c.data[c.pos:]
}

// Len returns the total payload length.
func (c Cursor) Len() int {
	return len(c.data)
}

// Take consumes exactly n bytes.
//
// Parameters:
//   - n: Number of bytes to consume (must not be negative)
//
// Returns:
//   - []byte: The consumed bytes (aliases the payload)
//   - Cursor: Cursor advanced by n bytes; the receiver on failure
//   - error: *errs.DecodeError wrapping errs.ErrTruncated if fewer than n bytes remain
func (c Cursor) Take(n int) ([]byte, Cursor, error) {
	if n < 0 {
		return nil, c, &errs.DecodeError{Err: errs.ErrInvalidDecoderParameter, Offset: c.pos, FieldOffset: c.pos, Detail: "negative read length"}
	}

	if have := c.Remaining(); have < n {
		return nil, c, errs.Truncated(c.pos, n, have)
	}

	b := c.data[c.pos : c.pos+n : c.pos+n]

	return b, Cursor{data: c.data, pos: c.pos + n}, nil
}
