// Package field provides the primitive layer of fragment decoding: the
// immutable payload Cursor, the decoded Value types and the table of
// fixed-width primitive codecs.
//
// # Cursor
//
// A Cursor never changes. Every read borrows the current cursor and returns a
// new one positioned after the consumed bytes:
//
//	cur := field.NewCursor(payload)
//	flags, cur, err := field.ReadUint32(cur)
//	if err != nil {
//	    return err // *errs.DecodeError wrapping errs.ErrTruncated
//	}
//
// A read that needs more bytes than remain fails with errs.ErrTruncated and
// reports the offset of the read and how many bytes were missing. No read ever
// consumes past the end of the payload.
//
// # Primitive kinds
//
//	Kind       | Width | Go value
//	-----------|-------|------------------
//	u8 / i8    | 1     | Uint8 / Int8
//	u16 / i16  | 2     | Uint16 / Int16
//	u32 / i32  | 4     | Uint32 / Int32
//	f32        | 4     | Float32
//	stringref  | 4     | StringRef
//
// All kinds are read with the Set's endian engine, little-endian by default.
// A StringRef is returned as the raw integer; resolving it against the string
// table is the caller's job.
//
// # Structural values
//
// Counted rules produce a Sequence, conditional rules an Optional and nested
// groups a Group. Int and Float unwrap present optionals so rules can be
// evaluated uniformly.
package field
