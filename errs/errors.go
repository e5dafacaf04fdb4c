// Package errs defines the error values returned by the wldfrag packages.
//
// Data problems found while decoding a payload are reported as *DecodeError,
// which wraps one of the sentinel kinds below so callers can branch with
// errors.Is:
//
//	rec, _, err := dec.Decode(payload)
//	if errors.Is(err, errs.ErrTruncated) {
//	    // skip this fragment, continue with the next one
//	}
//
// Schema problems are reported when a schema is built, wrapped with
// fmt.Errorf("%w: ...") around the sentinels.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Decode errors.
var (
	// ErrTruncated is returned when fewer bytes remain than a fixed-width read needs.
	ErrTruncated = errors.New("truncated input")
	// ErrMalformedCount is returned when a count cannot be used as a repetition count.
	ErrMalformedCount = errors.New("malformed count")
	// ErrUnsupportedValueKind is returned when a kind has no registered decoder.
	ErrUnsupportedValueKind = errors.New("unsupported value kind")
)

// Schema and registry errors.
var (
	ErrInvalidSchema           = errors.New("invalid schema")
	ErrUnknownField            = errors.New("unknown field reference")
	ErrInvalidExpression       = errors.New("invalid expression")
	ErrUnknownFragmentType     = errors.New("unknown fragment type")
	ErrDuplicateFragmentType   = errors.New("duplicate fragment type")
	ErrDuplicateFragmentName   = errors.New("duplicate fragment name")
	ErrInvalidFragmentName     = errors.New("invalid fragment name")
	ErrRecordMismatch          = errors.New("record does not match schema")
	ErrUnsupportedCompression  = errors.New("unsupported compression type")
	ErrCorruptCompressed       = errors.New("corrupt compressed payload")
	ErrInvalidDecoderParameter = errors.New("invalid decoder parameter")
)

// DecodeError describes where a fragment decode failed.
//
// Offset is the byte offset of the read that failed, relative to the start of
// the fragment payload. FieldOffset is where the failing field started; the
// two differ when an element inside a counted field runs out of bytes.
type DecodeError struct {
	Err         error  // one of ErrTruncated, ErrMalformedCount, ErrUnsupportedValueKind
	Fragment    string // fragment type name, empty until annotated by the fragment decoder
	TypeID      uint32
	Field       string // dotted path for fields inside groups
	FieldOffset int
	Offset      int
	Short       int   // bytes missing, ErrTruncated only
	Count       int64 // offending count, ErrMalformedCount only
	Detail      string
}

func (e *DecodeError) Error() string {
	var sb strings.Builder

	if e.Fragment != "" {
		fmt.Fprintf(&sb, "%s(0x%02x)", e.Fragment, e.TypeID)
	}
	if e.Field != "" {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e.Field)
	}
	if sb.Len() > 0 {
		sb.WriteString(": ")
	}

	sb.WriteString(e.Err.Error())
	fmt.Fprintf(&sb, " at offset %d", e.Offset)

	switch {
	case errors.Is(e.Err, ErrTruncated):
		fmt.Fprintf(&sb, " (%d bytes short)", e.Short)
	case errors.Is(e.Err, ErrMalformedCount):
		fmt.Fprintf(&sb, " (count %d)", e.Count)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Truncated creates a truncation error for a read of need bytes at offset
// with only have bytes left.
func Truncated(offset, need, have int) *DecodeError {
	return &DecodeError{Err: ErrTruncated, Offset: offset, FieldOffset: offset, Short: need - have}
}

// MalformedCount creates a count error at offset.
func MalformedCount(offset int, count int64, detail string) *DecodeError {
	return &DecodeError{Err: ErrMalformedCount, Offset: offset, FieldOffset: offset, Count: count, Detail: detail}
}
