package field

import (
	"testing"

	"github.com/arloliu/wldfrag/endian"
	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/format"
	"github.com/stretchr/testify/require"
)

func TestCursor_Take(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	cur := NewCursor(data)

	t.Run("Advances without modifying receiver", func(t *testing.T) {
		b, next, err := cur.Take(2)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2}, b)
		require.Equal(t, 2, next.Offset())
		require.Equal(t, 3, next.Remaining())
		require.Equal(t, 0, cur.Offset())
		require.Equal(t, 5, cur.Remaining())
	})

	t.Run("Zero length read", func(t *testing.T) {
		b, next, err := cur.Take(0)
		require.NoError(t, err)
		require.Empty(t, b)
		require.Equal(t, cur, next)
	})

	t.Run("Truncated read reports offset and shortfall", func(t *testing.T) {
		_, next, _ := cur.Take(3)
		_, same, err := next.Take(4)
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Equal(t, next, same)

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, 3, de.Offset)
		require.Equal(t, 2, de.Short)
	})

	t.Run("Taken slice cannot grow into the remainder", func(t *testing.T) {
		b, _, err := cur.Take(2)
		require.NoError(t, err)
		b = append(b, 0xFF)
		require.Equal(t, byte(3), data[2])
		require.Len(t, b, 3)
	})

	t.Run("Negative length", func(t *testing.T) {
		_, _, err := cur.Take(-1)
		require.ErrorIs(t, err, errs.ErrInvalidDecoderParameter)
	})
}

func TestTypedReaders(t *testing.T) {
	payload := []byte{
		0xFF,       // u8 / i8
		0xFE, 0xFF, // u16 / i16
		0xFE, 0xFF, 0xFF, 0xFF, // u32 / i32
		0x00, 0x00, 0x80, 0x3F, // f32 1.0
		0xF6, 0xFF, 0xFF, 0xFF, // stringref -10
	}
	cur := NewCursor(payload)

	u8, next, err := ReadUint8(cur)
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), u8)
	i8, _, err := ReadInt8(cur)
	require.NoError(t, err)
	require.Equal(t, int8(-1), i8)
	cur = next

	u16, next, err := ReadUint16(cur)
	require.NoError(t, err)
	require.Equal(t, uint16(0xFFFE), u16)
	i16, _, err := ReadInt16(cur)
	require.NoError(t, err)
	require.Equal(t, int16(-2), i16)
	cur = next

	u32, next, err := ReadUint32(cur)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFE), u32)
	i32, _, err := ReadInt32(cur)
	require.NoError(t, err)
	require.Equal(t, int32(-2), i32)
	cur = next

	f, next, err := ReadFloat32(cur)
	require.NoError(t, err)
	require.Equal(t, float32(1.0), f)
	cur = next

	ref, next, err := ReadStringRef(cur)
	require.NoError(t, err)
	require.Equal(t, StringRef(-10), ref)
	off, ok := ref.TableOffset()
	require.True(t, ok)
	require.Equal(t, 10, off)
	require.Equal(t, 0, next.Remaining())

	_, same, err := ReadUint16(next)
	require.ErrorIs(t, err, errs.ErrTruncated)
	require.Equal(t, next, same)
}

func TestReadUint32s(t *testing.T) {
	payload := []byte{0x0A, 0, 0, 0, 0x14, 0, 0, 0, 0x1E}

	t.Run("Zero count consumes nothing", func(t *testing.T) {
		vals, next, err := ReadUint32s(NewCursor(payload), 0)
		require.NoError(t, err)
		require.Nil(t, vals)
		require.Equal(t, 0, next.Offset())
	})

	t.Run("Reads elements", func(t *testing.T) {
		vals, next, err := ReadUint32s(NewCursor(payload), 2)
		require.NoError(t, err)
		require.Equal(t, []uint32{10, 20}, vals)
		require.Equal(t, 8, next.Offset())
	})

	t.Run("Fails at the element that runs out", func(t *testing.T) {
		vals, next, err := ReadUint32s(NewCursor(payload), 3)
		require.Nil(t, vals)
		require.Equal(t, 0, next.Offset())

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, 8, de.Offset)
		require.Equal(t, 3, de.Short)
	})
}

func TestSet_Decoder(t *testing.T) {
	set := DefaultSet()

	tests := []struct {
		kind  format.ValueKind
		bytes []byte
		want  Value
	}{
		{format.KindUint8, []byte{0x80}, Uint8(128)},
		{format.KindInt8, []byte{0x80}, Int8(-128)},
		{format.KindUint16, []byte{0x34, 0x12}, Uint16(0x1234)},
		{format.KindInt16, []byte{0x00, 0x80}, Int16(-32768)},
		{format.KindUint32, []byte{0x78, 0x56, 0x34, 0x12}, Uint32(0x12345678)},
		{format.KindInt32, []byte{0xFF, 0xFF, 0xFF, 0xFF}, Int32(-1)},
		{format.KindFloat32, []byte{0x00, 0x00, 0x80, 0x3F}, Float32(1.0)},
		{format.KindStringRef, []byte{0xFC, 0xFF, 0xFF, 0xFF}, StringRef(-4)},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			dec, err := set.Decoder(tt.kind)
			require.NoError(t, err)

			v, next, err := dec(NewCursor(tt.bytes))
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
			require.Equal(t, len(tt.bytes), next.Offset())

			width, ok := set.Width(tt.kind)
			require.True(t, ok)
			require.Equal(t, len(tt.bytes), width)

			// one byte short
			_, _, err = dec(NewCursor(tt.bytes[:len(tt.bytes)-1]))
			var de *errs.DecodeError
			require.ErrorAs(t, err, &de)
			require.ErrorIs(t, err, errs.ErrTruncated)
			require.Equal(t, 0, de.Offset)
			require.Equal(t, 1, de.Short)

			// append reproduces the input
			out, err := set.Append(tt.kind, nil, v)
			require.NoError(t, err)
			require.Equal(t, tt.bytes, out)
		})
	}
}

func TestSet_Unsupported(t *testing.T) {
	set := DefaultSet()

	for _, kind := range []format.ValueKind{format.KindInvalid, format.KindGroup, format.KindSequence, format.ValueKind(0x30)} {
		_, err := set.Decoder(kind)
		require.ErrorIs(t, err, errs.ErrUnsupportedValueKind)
		require.False(t, set.Has(kind))
	}

	_, err := set.Append(format.KindUint32, nil, Float32(1))
	require.ErrorIs(t, err, errs.ErrRecordMismatch)
}

func TestSet_Register(t *testing.T) {
	const kindFixed16 = format.ValueKind(0x20)

	set := NewSet(endian.GetLittleEndianEngine())
	require.False(t, set.Has(kindFixed16))

	err := set.Register(Codec{
		Kind:  kindFixed16,
		Width: 2,
		Read: func(e endian.EndianEngine, b []byte) Value {
			return Float32(float32(int16(e.Uint16(b))) / 256) //nolint: gosec
		},
	})
	require.NoError(t, err)
	require.True(t, set.Has(kindFixed16))
	require.False(t, DefaultSet().Has(kindFixed16))

	dec, err := set.Decoder(kindFixed16)
	require.NoError(t, err)
	v, _, err := dec(NewCursor([]byte{0x80, 0x01}))
	require.NoError(t, err)
	require.Equal(t, Float32(1.5), v)

	_, err = set.Append(kindFixed16, nil, v)
	require.ErrorIs(t, err, errs.ErrUnsupportedValueKind)

	require.ErrorIs(t, set.Register(Codec{Kind: format.KindGroup, Width: 1, Read: func(endian.EndianEngine, []byte) Value { return Uint8(0) }}), errs.ErrInvalidDecoderParameter)
	require.ErrorIs(t, set.Register(Codec{Kind: kindFixed16, Width: 0}), errs.ErrInvalidDecoderParameter)
	require.ErrorIs(t, set.Register(Codec{Kind: kindFixed16, Width: 2}), errs.ErrInvalidDecoderParameter)
}

func TestSet_DefaultIsSealed(t *testing.T) {
	codec := Codec{
		Kind:  format.ValueKind(0x21),
		Width: 1,
		Read:  func(_ endian.EndianEngine, b []byte) Value { return Uint8(b[0]) },
	}

	err := DefaultSet().Register(codec)
	require.ErrorIs(t, err, errs.ErrInvalidDecoderParameter)
	require.False(t, DefaultSet().Has(codec.Kind))
	require.False(t, DefaultSet().Extended())

	set := NewSet(endian.GetLittleEndianEngine())
	require.NoError(t, set.Register(codec))
	require.True(t, set.Extended())
}

func TestSet_Signature(t *testing.T) {
	require.Equal(t, "le", DefaultSet().Signature())
	require.Equal(t, "be", NewSet(endian.GetBigEndianEngine()).Signature())

	set := NewSet(endian.GetBigEndianEngine())
	read := func(_ endian.EndianEngine, b []byte) Value { return Uint8(b[0]) }
	require.NoError(t, set.Register(Codec{Kind: format.ValueKind(0x22), Width: 3, Read: read}))
	require.NoError(t, set.Register(Codec{Kind: format.KindUint8, Width: 1, Read: read}))
	require.Equal(t, "be,0x01:1,0x22:3", set.Signature())
}

func TestSet_BigEndian(t *testing.T) {
	set := NewSet(endian.GetBigEndianEngine())

	dec, err := set.Decoder(format.KindUint32)
	require.NoError(t, err)
	v, _, err := dec(NewCursor([]byte{0x00, 0x00, 0x00, 0x01}))
	require.NoError(t, err)
	require.Equal(t, Uint32(1), v)
}

func TestValues(t *testing.T) {
	t.Run("Int unwraps integers and present optionals", func(t *testing.T) {
		n, ok := Int(Uint16(7))
		require.True(t, ok)
		require.Equal(t, int64(7), n)

		n, ok = Int(Some(Int8(-3)))
		require.True(t, ok)
		require.Equal(t, int64(-3), n)

		_, ok = Int(None())
		require.False(t, ok)
		_, ok = Int(Float32(1))
		require.False(t, ok)
		_, ok = Int(StringRef(1))
		require.False(t, ok)
	})

	t.Run("Float", func(t *testing.T) {
		f, ok := Float(Some(Float32(0.5)))
		require.True(t, ok)
		require.Equal(t, float32(0.5), f)
		_, ok = Float(Uint8(1))
		require.False(t, ok)
	})

	t.Run("Strings", func(t *testing.T) {
		seq := Sequence{Elem: format.KindUint32, Items: []Value{Uint32(10), Uint32(20)}}
		require.Equal(t, "[10 20]", seq.String())
		require.Equal(t, 2, seq.Len())
		require.Equal(t, "Some(1)", Some(Float32(1)).String())
		require.Equal(t, "None", None().String())
		require.Equal(t, "ref(-4)", StringRef(-4).String())

		_, ok := StringRef(3).TableOffset()
		require.False(t, ok)
	})
}

func TestFields(t *testing.T) {
	f := NewFields(2)
	f.Set("flags", Uint32(1))
	f.Set("count", Uint32(2))
	f.Set("flags", Uint32(3))

	require.Equal(t, 2, f.Len())
	require.Equal(t, []string{"flags", "count"}, f.Names())
	require.Equal(t, Uint32(3), f.Get("flags"))
	require.Nil(t, f.Get("missing"))

	name, v := f.At(1)
	require.Equal(t, "count", name)
	require.Equal(t, Uint32(2), v)

	var seen []string
	for n := range f.All() {
		seen = append(seen, n)
	}
	require.Equal(t, []string{"flags", "count"}, seen)

	g := Group{Fields: f}
	require.Equal(t, format.KindGroup, g.Kind())
}

func TestReadUint32s_NegativeCount(t *testing.T) {
	cur := NewCursor([]byte{1, 2, 3, 4})
	vals, next, err := ReadUint32s(cur, -1)
	require.Nil(t, vals)
	require.Equal(t, cur, next)
	require.ErrorIs(t, err, errs.ErrMalformedCount)
}
