package fragment

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/wldfrag/endian"
	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/schema"
)

// le builds a little-endian payload from u32 words.
func le(words ...uint32) []byte {
	engine := endian.GetLittleEndianEngine()
	var b []byte
	for _, w := range words {
		b = engine.AppendUint32(b, w)
	}

	return b
}

func exampleSchema() *schema.Schema {
	return schema.New(0x01, "Example").
		Uint32("flags").
		Uint32("count").
		Uint32("values", schema.CountedBy("count")).
		Float32("extra", schema.WhenExpr("flags & 0x01")).
		MustBuild()
}

func values(vs ...uint32) field.Sequence {
	items := make([]field.Value, len(vs))
	for i, v := range vs {
		items[i] = field.Uint32(v)
	}

	return field.Sequence{Elem: format.KindUint32, Items: items}
}

func TestDecode_Scenario(t *testing.T) {
	dec := MustCompile(exampleSchema())
	require.Equal(t, "Example", dec.Name())

	t.Run("Flag set reads extra", func(t *testing.T) {
		payload := []byte{
			0x01, 0x00, 0x00, 0x00,
			0x02, 0x00, 0x00, 0x00,
			0x0A, 0x00, 0x00, 0x00,
			0x14, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x80, 0x3F,
		}

		rec, cur, err := dec.Decode(payload)
		require.NoError(t, err)
		require.Equal(t, 20, cur.Offset())
		require.Equal(t, 0, cur.Remaining())

		require.Equal(t, field.Uint32(1), rec.Get("flags"))
		require.Equal(t, field.Uint32(2), rec.Get("count"))
		require.Equal(t, values(10, 20), rec.Get("values"))
		require.Equal(t, field.Some(field.Float32(1.0)), rec.Get("extra"))
		require.Equal(t, []string{"flags", "count", "values", "extra"}, rec.Fields.Names())
		require.Equal(t, "Example(0x01){flags: 1, count: 2, values: [10 20], extra: Some(1)}", rec.String())
	})

	t.Run("Flag clear skips extra", func(t *testing.T) {
		rec, cur, err := dec.Decode(le(0, 2, 10, 20))
		require.NoError(t, err)
		require.Equal(t, field.None(), rec.Get("extra"))
		require.Equal(t, 16, cur.Offset())

		rec, cur, err = dec.Decode(le(0, 1, 10))
		require.NoError(t, err)
		require.Equal(t, values(10), rec.Get("values"))
		require.Equal(t, field.None(), rec.Get("extra"))
		require.Equal(t, 12, cur.Offset())
	})

	t.Run("False predicate ignores following bytes", func(t *testing.T) {
		rec, cur, err := dec.Decode(le(0, 0, 0xDEADBEEF))
		require.NoError(t, err)
		require.False(t, rec.Get("extra").(field.Optional).Present())
		require.Equal(t, 8, cur.Offset())
		require.Equal(t, le(0xDEADBEEF), cur.Rest())
	})

	t.Run("Zero count consumes nothing", func(t *testing.T) {
		rec, cur, err := dec.Decode(le(0, 0))
		require.NoError(t, err)
		seq := rec.Get("values").(field.Sequence)
		require.Equal(t, 0, seq.Len())
		require.Equal(t, 8, cur.Offset())
	})
}

func TestDecode_TruncatedAtEveryByte(t *testing.T) {
	dec := MustCompile(exampleSchema())
	payload := append(le(1, 2, 10, 20), 0x00, 0x00, 0x80, 0x3F)

	fieldAt := func(n int) (string, int) {
		switch {
		case n < 4:
			return "flags", 0
		case n < 8:
			return "count", 4
		case n < 16:
			return "values", 8
		default:
			return "extra", 16
		}
	}

	for n := range len(payload) {
		rec, cur, err := dec.Decode(payload[:n])
		require.Nil(t, rec, "length %d", n)
		require.Equal(t, 0, cur.Offset())
		require.ErrorIs(t, err, errs.ErrTruncated, "length %d", n)

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)

		name, start := fieldAt(n)
		require.Equal(t, name, de.Field, "length %d", n)
		require.Equal(t, start, de.FieldOffset, "length %d", n)
		require.Equal(t, "Example", de.Fragment)
		require.Equal(t, uint32(0x01), de.TypeID)
		require.LessOrEqual(t, de.FieldOffset, de.Offset)
		require.Positive(t, de.Short)
	}
}

func TestDecode_TruncatedElement(t *testing.T) {
	dec := MustCompile(exampleSchema())

	_, _, err := dec.Decode(append(le(0, 3, 10, 20), 0x1E, 0x00))

	var de *errs.DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "values", de.Field)
	require.Equal(t, 8, de.FieldOffset)
	require.Equal(t, 16, de.Offset)
	require.Equal(t, 2, de.Short)
	require.Equal(t, "element 2 of 3", de.Detail)
	require.Equal(t, "Example(0x01).values: truncated input at offset 16 (2 bytes short): element 2 of 3", err.Error())
}

func TestDecode_MalformedCount(t *testing.T) {
	s := schema.New(0x02, "Signed").
		Int32("count").
		Uint8("items", schema.CountedBy("count")).
		MustBuild()

	t.Run("Negative count", func(t *testing.T) {
		_, _, err := MustCompile(s).Decode(le(0xFFFFFFFF))
		require.ErrorIs(t, err, errs.ErrMalformedCount)

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, int64(-1), de.Count)
		require.Equal(t, "items", de.Field)
		require.Equal(t, 4, de.Offset)
	})

	t.Run("Count above the limit", func(t *testing.T) {
		dec, err := Compile(s, WithMaxCount(16))
		require.NoError(t, err)

		_, _, err = dec.Decode(append(le(17), make([]byte, 17)...))
		require.ErrorIs(t, err, errs.ErrMalformedCount)

		rec, _, err := dec.Decode(append(le(16), make([]byte, 16)...))
		require.NoError(t, err)
		require.Equal(t, 16, rec.Get("items").(field.Sequence).Len())
	})

	t.Run("Large count beyond payload is truncated", func(t *testing.T) {
		_, _, err := MustCompile(s).Decode(le(1 << 19))
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.NotErrorIs(t, err, errs.ErrMalformedCount)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		_, err := Compile(s, WithMaxCount(0))
		require.ErrorIs(t, err, errs.ErrInvalidDecoderParameter)
	})
}

func TestDecode_CountedAndConditional(t *testing.T) {
	s := schema.New(0x03, "Both").
		Uint32("flags").
		Uint32("n").
		Uint32("stuff", schema.CountedBy("n"), schema.WhenExpr("flags == 1")).
		MustBuild()
	dec := MustCompile(s)

	rec, cur, err := dec.Decode(le(1, 2, 7, 8))
	require.NoError(t, err)
	require.Equal(t, field.Some(values(7, 8)), rec.Get("stuff"))
	require.Equal(t, 16, cur.Offset())

	rec, cur, err = dec.Decode(le(0, 2, 7, 8))
	require.NoError(t, err)
	require.Equal(t, field.None(), rec.Get("stuff"))
	require.Equal(t, 8, cur.Offset())

	// present with a zero count is an empty array, not absent
	rec, _, err = dec.Decode(le(1, 0))
	require.NoError(t, err)
	opt := rec.Get("stuff").(field.Optional)
	require.True(t, opt.Present())
	require.Equal(t, 0, opt.Inner.(field.Sequence).Len())
}

func TestDecode_AbsentCount(t *testing.T) {
	build := func(opts ...schema.FieldOption) *Decoder {
		return MustCompile(schema.New(0x04, "AbsentCount").
			Uint8("flags").
			Uint8("n", schema.WhenExpr("flags & 0x1")).
			Uint8("items", append([]schema.FieldOption{schema.CountedBy("n")}, opts...)...).
			MustBuild())
	}

	t.Run("Fails by default", func(t *testing.T) {
		_, _, err := build().Decode([]byte{0x00, 0xAA})
		require.ErrorIs(t, err, errs.ErrMalformedCount)

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "items", de.Field)
		require.Equal(t, 1, de.Offset)
		require.Contains(t, de.Detail, "absent")
	})

	t.Run("Zero policy", func(t *testing.T) {
		rec, cur, err := build(schema.OnAbsentCount(schema.AbsentCountIsZero)).Decode([]byte{0x00, 0xAA})
		require.NoError(t, err)
		require.Equal(t, 0, rec.Get("items").(field.Sequence).Len())
		require.Equal(t, 1, cur.Offset())
	})

	t.Run("Present count is used", func(t *testing.T) {
		rec, _, err := build().Decode([]byte{0x01, 0x02, 0xAA, 0xBB})
		require.NoError(t, err)
		require.Equal(t, field.Some(field.Uint8(2)), rec.Get("n"))
		require.Equal(t, []field.Value{field.Uint8(0xAA), field.Uint8(0xBB)}, rec.Get("items").(field.Sequence).Items)
	})
}

func TestDecode_Groups(t *testing.T) {
	vertex := schema.NewGroup("Vertex").
		Int16("x").
		Int16("y").
		Uint8("flags").
		Uint8("w", schema.WhenExpr("flags & 0x80")).
		MustBuild()
	mesh := schema.New(0x36, "Mesh").
		Uint16("count").
		Group("vertices", vertex, schema.CountedBy("count")).
		Group("bounds", schema.NewGroup("Bounds").Float32("radius").MustBuild()).
		MustBuild()
	dec := MustCompile(mesh)

	payload := []byte{
		0x02, 0x00, // count
		0x01, 0x00, 0xFF, 0xFF, 0x00, // vertex 0
		0x02, 0x00, 0x03, 0x00, 0x80, 0x09, // vertex 1, w present
		0x00, 0x00, 0x80, 0x3F, // radius
	}

	rec, cur, err := dec.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), cur.Offset())

	verts := rec.Get("vertices").(field.Sequence)
	require.Equal(t, format.KindGroup, verts.Elem)
	require.Equal(t, 2, verts.Len())

	v0 := verts.Items[0].(field.Group)
	require.Equal(t, field.Int16(1), v0.Get("x"))
	require.Equal(t, field.Int16(-1), v0.Get("y"))
	require.Equal(t, field.None(), v0.Get("w"))

	v1 := verts.Items[1].(field.Group)
	require.Equal(t, field.Some(field.Uint8(9)), v1.Get("w"))

	bounds := rec.Get("bounds").(field.Group)
	require.Equal(t, field.Float32(1.0), bounds.Get("radius"))

	t.Run("Errors name the inner field", func(t *testing.T) {
		_, _, err := dec.Decode(payload[:10])

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Equal(t, "vertices.y", de.Field)
		require.Equal(t, 9, de.FieldOffset)
		require.Equal(t, "element 1 of 2", de.Detail)
	})
}

func TestDecode_TrailingBytesAndCursor(t *testing.T) {
	dec := MustCompile(schema.New(0x05, "Small").Uint16("a").MustBuild())

	buf := []byte{0xFF, 0x01, 0x00, 0x02, 0x00}
	_, c, err := field.NewCursor(buf).Take(1)
	require.NoError(t, err)

	rec, next, err := dec.DecodeCursor(c)
	require.NoError(t, err)
	require.Equal(t, field.Uint16(1), rec.Get("a"))
	require.Equal(t, 3, next.Offset())

	rec, next, err = dec.DecodeCursor(next)
	require.NoError(t, err)
	require.Equal(t, field.Uint16(2), rec.Get("a"))
	require.Equal(t, 0, next.Remaining())

	_, _, err = dec.DecodeCursor(next)
	var de *errs.DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, 5, de.Offset)
}

func TestCompile_Codecs(t *testing.T) {
	const kindFixed16 = format.ValueKind(0x20)

	set := field.NewSet(endian.GetLittleEndianEngine())
	require.NoError(t, set.Register(field.Codec{
		Kind:  kindFixed16,
		Width: 2,
		Read: func(e endian.EndianEngine, b []byte) field.Value {
			return field.Float32(float32(int16(e.Uint16(b))) / 256) //nolint: gosec
		},
	}))

	s := schema.New(0x06, "Custom").Codecs(set).Field("scale", kindFixed16).MustBuild()

	rec, _, err := MustCompile(s).Decode([]byte{0x80, 0x01})
	require.NoError(t, err)
	require.Equal(t, field.Float32(1.5), rec.Get("scale"))

	_, err = Compile(s, WithCodecs(field.DefaultSet()))
	require.ErrorIs(t, err, errs.ErrUnsupportedValueKind)

	_, err = Compile(s, WithCodecs(nil))
	require.ErrorIs(t, err, errs.ErrInvalidDecoderParameter)

	_, err = Compile(nil)
	require.ErrorIs(t, err, errs.ErrInvalidSchema)

	big := field.NewSet(endian.GetBigEndianEngine())
	rec, _, err = MustCompile(exampleSchema(), WithCodecs(big)).Decode([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 7})
	require.NoError(t, err)
	require.Equal(t, values(7), rec.Get("values"))
}

func TestDecode_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dec := MustCompile(exampleSchema(), WithLogger(zap.New(core)))

	_, _, err := dec.Decode([]byte{0x01})
	require.Error(t, err)
	require.Equal(t, 1, logs.FilterMessage("fragment decode failed").Len())

	entry := logs.All()[0]
	require.Equal(t, "Example(0x01)", entry.ContextMap()["fragment"])

	_, _, err = MustCompile(exampleSchema(), WithLogger(nil)).Decode(nil)
	require.True(t, errors.Is(err, errs.ErrTruncated))
}

func TestDecode_DoesNotRetainPayload(t *testing.T) {
	dec := MustCompile(exampleSchema())
	payload := le(0, 1, 10)

	rec, _, err := dec.Decode(payload)
	require.NoError(t, err)

	copy(payload, bytes.Repeat([]byte{0xFF}, len(payload)))
	require.Equal(t, values(10), rec.Get("values"))
}
