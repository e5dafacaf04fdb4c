package field

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/wldfrag/endian"
	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/format"
)

// Decoder decodes one value at the cursor and returns the advanced cursor.
// On failure the returned cursor is the input cursor.
type Decoder func(c Cursor) (Value, Cursor, error)

// Codec describes how a fixed-width primitive kind is read and written.
type Codec struct {
	Kind  format.ValueKind
	Width int
	// Read decodes exactly Width bytes.
	Read func(engine endian.EndianEngine, b []byte) Value
	// Append encodes v, reporting false if v is not of Kind.
	Append func(engine endian.EndianEngine, dst []byte, v Value) ([]byte, bool)
}

// Set is the table of primitive codecs for one byte order.
//
// A Set is populated by NewSet and may be extended with Register before it is
// shared; after that it is read-only and safe for concurrent use.
type Set struct {
	engine     endian.EndianEngine
	codecs     map[format.ValueKind]Codec
	registered map[format.ValueKind]struct{}
	sealed     bool
}

var defaultSet = func() *Set {
	s := NewSet(endian.GetLittleEndianEngine())
	s.sealed = true

	return s
}()

// DefaultSet returns the shared little-endian set with the built-in kinds.
// The set is sealed: Register on it fails. Create a new set with NewSet for
// custom kinds.
func DefaultSet() *Set {
	return defaultSet
}

// NewSet creates a set with the built-in primitive kinds.
//
// Parameters:
//   - engine: Byte order used by every codec of the set
//
// Returns:
//   - *Set: Set holding u8, i8, u16, i16, u32, i32, f32 and stringref codecs
func NewSet(engine endian.EndianEngine) *Set {
	s := &Set{
		engine: engine,
		codecs: make(map[format.ValueKind]Codec, len(builtinCodecs)),
	}
	for _, c := range builtinCodecs {
		s.codecs[c.Kind] = c
	}

	return s
}

// Engine returns the byte order of the set.
func (s *Set) Engine() endian.EndianEngine {
	return s.engine
}

// Extended reports whether any codec was added or replaced with Register.
func (s *Set) Extended() bool {
	return len(s.registered) > 0
}

// Signature identifies how the set decodes: the byte order ("le" or "be")
// followed by every registered kind and its width, for example "le,0x20:2".
// Sets with equal signatures and no registered codecs decode identically.
func (s *Set) Signature() string {
	var sb strings.Builder
	if endian.IsLittleEndian(s.engine) {
		sb.WriteString("le")
	} else {
		sb.WriteString("be")
	}

	kinds := make([]format.ValueKind, 0, len(s.registered))
	for k := range s.registered {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	for _, k := range kinds {
		fmt.Fprintf(&sb, ",0x%02x:%d", uint8(k), s.codecs[k].Width)
	}

	return sb.String()
}

// Register adds or replaces the codec for c.Kind.
//
// Returns:
//   - error: ErrInvalidDecoderParameter if the codec is incomplete, its kind
//     cannot be primitive, or the set is the sealed DefaultSet
func (s *Set) Register(c Codec) error {
	switch {
	case s.sealed:
		return fmt.Errorf("%w: the default codec set cannot be extended, use NewSet", errs.ErrInvalidDecoderParameter)
	case c.Kind == format.KindInvalid, c.Kind == format.KindGroup, c.Kind.IsShape():
		return fmt.Errorf("%w: kind %s cannot have a primitive codec", errs.ErrInvalidDecoderParameter, c.Kind)
	case c.Width <= 0:
		return fmt.Errorf("%w: codec width %d for kind %s", errs.ErrInvalidDecoderParameter, c.Width, c.Kind)
	case c.Read == nil:
		return fmt.Errorf("%w: codec for kind %s has no reader", errs.ErrInvalidDecoderParameter, c.Kind)
	}

	if s.registered == nil {
		s.registered = make(map[format.ValueKind]struct{})
	}
	s.codecs[c.Kind] = c
	s.registered[c.Kind] = struct{}{}

	return nil
}

// Has reports whether kind has a codec.
func (s *Set) Has(kind format.ValueKind) bool {
	_, ok := s.codecs[kind]
	return ok
}

// Width returns the encoded width of kind.
func (s *Set) Width(kind format.ValueKind) (int, bool) {
	c, ok := s.codecs[kind]
	return c.Width, ok
}

// Decoder returns the decoder for kind.
//
// Returns:
//   - Decoder: Decoder reading one value of kind
//   - error: ErrUnsupportedValueKind if no codec is registered for kind
func (s *Set) Decoder(kind format.ValueKind) (Decoder, error) {
	c, ok := s.codecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s (0x%02x)", errs.ErrUnsupportedValueKind, kind, uint8(kind))
	}

	engine := s.engine

	return func(cur Cursor) (Value, Cursor, error) {
		b, next, err := cur.Take(c.Width)
		if err != nil {
			return nil, cur, err
		}

		return c.Read(engine, b), next, nil
	}, nil
}

// Append encodes v as kind.
func (s *Set) Append(kind format.ValueKind, dst []byte, v Value) ([]byte, error) {
	c, ok := s.codecs[kind]
	if !ok {
		return dst, fmt.Errorf("%w: %s (0x%02x)", errs.ErrUnsupportedValueKind, kind, uint8(kind))
	}
	if c.Append == nil {
		return dst, fmt.Errorf("%w: kind %s has no encoder", errs.ErrUnsupportedValueKind, kind)
	}

	out, ok := c.Append(s.engine, dst, v)
	if !ok {
		return dst, fmt.Errorf("%w: value %s is not %s", errs.ErrRecordMismatch, v, kind)
	}

	return out, nil
}

var builtinCodecs = []Codec{
	{
		Kind: format.KindUint8, Width: 1,
		Read: func(_ endian.EndianEngine, b []byte) Value { return Uint8(b[0]) },
		Append: func(_ endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Uint8)
			return append(dst, byte(x)), ok
		},
	},
	{
		Kind: format.KindInt8, Width: 1,
		Read: func(_ endian.EndianEngine, b []byte) Value { return Int8(b[0]) },
		Append: func(_ endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Int8)
			return append(dst, byte(x)), ok
		},
	},
	{
		Kind: format.KindUint16, Width: 2,
		Read: func(e endian.EndianEngine, b []byte) Value { return Uint16(e.Uint16(b)) },
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Uint16)
			return e.AppendUint16(dst, uint16(x)), ok
		},
	},
	{
		Kind: format.KindInt16, Width: 2,
		Read: func(e endian.EndianEngine, b []byte) Value { return Int16(e.Uint16(b)) }, //nolint: gosec
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Int16)
			return e.AppendUint16(dst, uint16(x)), ok //nolint: gosec
		},
	},
	{
		Kind: format.KindUint32, Width: 4,
		Read: func(e endian.EndianEngine, b []byte) Value { return Uint32(e.Uint32(b)) },
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Uint32)
			return e.AppendUint32(dst, uint32(x)), ok
		},
	},
	{
		Kind: format.KindInt32, Width: 4,
		Read: func(e endian.EndianEngine, b []byte) Value { return Int32(e.Uint32(b)) }, //nolint: gosec
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Int32)
			return e.AppendUint32(dst, uint32(x)), ok //nolint: gosec
		},
	},
	{
		Kind: format.KindFloat32, Width: 4,
		Read: func(e endian.EndianEngine, b []byte) Value { return Float32(endian.Float32(e, b)) },
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(Float32)
			return endian.AppendFloat32(e, dst, float32(x)), ok
		},
	},
	{
		Kind: format.KindStringRef, Width: 4,
		Read: func(e endian.EndianEngine, b []byte) Value { return StringRef(e.Uint32(b)) }, //nolint: gosec
		Append: func(e endian.EndianEngine, dst []byte, v Value) ([]byte, bool) {
			x, ok := v.(StringRef)
			return e.AppendUint32(dst, uint32(x)), ok //nolint: gosec
		},
	},
}
