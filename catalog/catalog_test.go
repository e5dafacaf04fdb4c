package catalog

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/fragment"
	"github.com/arloliu/wldfrag/schema"
)

func le(words ...uint32) []byte {
	b := make([]byte, 0, 4*len(words))
	for _, w := range words {
		b = binary.LittleEndian.AppendUint32(b, w)
	}

	return b
}

func TestDecodeTestFragment(t *testing.T) {
	one := math.Float32bits(1.5)

	t.Run("Flags set", func(t *testing.T) {
		payload := le(0xFFFFFFFC, 1, 2, 10, 20, one, 30, 40)

		tf, cur, err := DecodeTestFragment(payload)
		require.NoError(t, err)
		require.Equal(t, len(payload), cur.Offset())
		require.Equal(t, &TestFragment{
			NameReference: -4,
			Flags:         1,
			SomeCount:     2,
			SomeStuff:     []uint32{10, 20},
			SomethingElse: Some[float32](1.5),
			OptionalThing: Some([]uint32{30, 40}),
		}, tf)

		off, ok := tf.NameReference.TableOffset()
		require.True(t, ok)
		require.Equal(t, 4, off)
	})

	t.Run("Flags clear", func(t *testing.T) {
		payload := le(0, 0, 1, 7, 0xDEADBEEF)

		tf, cur, err := DecodeTestFragment(payload)
		require.NoError(t, err)
		require.Equal(t, 16, cur.Offset())
		require.Equal(t, []uint32{7}, tf.SomeStuff)
		require.False(t, tf.SomethingElse.Present)
		require.False(t, tf.OptionalThing.Present)
	})

	t.Run("Zero count", func(t *testing.T) {
		tf, cur, err := DecodeTestFragment(le(0, 1, 0, one))
		require.NoError(t, err)
		require.Equal(t, 16, cur.Offset())
		require.Empty(t, tf.SomeStuff)
		require.NotNil(t, tf.SomeStuff)
		require.True(t, tf.OptionalThing.Present)
		require.Empty(t, tf.OptionalThing.Value)
	})

	t.Run("Truncated array element", func(t *testing.T) {
		_, cur, err := DecodeTestFragment(le(0, 0, 3, 1, 2)[:18])
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Equal(t, 0, cur.Offset())

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "TestFragment", de.Fragment)
		require.Equal(t, "some_stuff", de.Field)
		require.Equal(t, 12, de.FieldOffset)
		require.Equal(t, 16, de.Offset)
		require.Equal(t, 2, de.Short)
		require.Equal(t, "element 1 of 3", de.Detail)
	})

	t.Run("Count over limit", func(t *testing.T) {
		_, _, err := DecodeTestFragment(le(0, 0, fragment.DefaultMaxCount+1))
		require.ErrorIs(t, err, errs.ErrMalformedCount)

		var de *errs.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "some_stuff", de.Field)
		require.Equal(t, int64(fragment.DefaultMaxCount+1), de.Count)
	})

	t.Run("Type identity", func(t *testing.T) {
		var tf TestFragment
		require.Equal(t, TestFragmentID, tf.TypeID())
		require.Equal(t, TestFragmentSchema.Name(), tf.TypeName())
	})
}

// equivalent decodes payload with the typed and the generic decoder and
// checks they agree on values, cursor and errors.
func equivalent(t *testing.T, dec *fragment.Decoder, payload []byte) {
	t.Helper()

	tf, tcur, terr := DecodeTestFragment(payload)
	rec, gcur, gerr := dec.Decode(payload)
	require.Equal(t, gcur.Offset(), tcur.Offset(), "payload %x", payload)

	if gerr != nil {
		var tde, gde *errs.DecodeError
		require.True(t, errors.As(terr, &tde), "payload %x: %v", payload, terr)
		require.True(t, errors.As(gerr, &gde))
		require.Equal(t, gde, tde, "payload %x", payload)

		return
	}

	require.NoError(t, terr, "payload %x", payload)
	require.Equal(t, rec, tf.Record(), "payload %x", payload)
}

func TestDecodeTestFragment_MatchesSchema(t *testing.T) {
	dec := fragment.MustCompile(TestFragmentSchema)

	payloads := [][]byte{
		le(0xFFFFFFFC, 1, 2, 10, 20, math.Float32bits(1.5), 30, 40),
		le(0, 0, 1, 7),
		le(0, 1, 0, 0),
		le(0, 2, 1, 7, 0),
		le(0, 0, fragment.DefaultMaxCount+1),
	}

	r := rand.New(rand.NewSource(7))
	for range 50 {
		n := uint32(r.Intn(4))
		words := []uint32{r.Uint32(), uint32(r.Intn(2)), n}
		for range 2*n + 1 {
			words = append(words, r.Uint32())
		}
		payloads = append(payloads, le(words...))
	}

	for _, p := range payloads {
		for end := 0; end <= len(p); end++ {
			equivalent(t, dec, p[:end])
		}
	}
}

func TestRegister(t *testing.T) {
	payload := le(0, 1, 1, 5, math.Float32bits(2), 6)

	typed := fragment.MustNewRegistry()
	require.NoError(t, Register(typed))
	require.Equal(t, []string{"TestFragment"}, typed.Names())

	generic := fragment.MustNewRegistry()
	require.NoError(t, RegisterSchemas(generic))

	tfrag, _, err := typed.Decode(TestFragmentID, payload)
	require.NoError(t, err)
	tf, ok := tfrag.(*TestFragment)
	require.True(t, ok)

	gfrag, _, err := generic.Decode(TestFragmentID, payload)
	require.NoError(t, err)
	require.Equal(t, gfrag, tf.Record())

	// both forms share the type id, so a registry holds only one of them
	require.ErrorIs(t, RegisterSchemas(typed), errs.ErrDuplicateFragmentType)

	// a failed typed decode yields a nil interface, not a typed nil
	frag, _, err := typed.Decode(TestFragmentID, payload[:3])
	require.Error(t, err)
	require.Nil(t, frag)
}

func TestSchemas(t *testing.T) {
	all := Schemas()
	require.Len(t, all, 1)
	require.Equal(t, TestFragmentID, all[0].ID())

	f, ok := TestFragmentSchema.Field("optional_thing")
	require.True(t, ok)
	require.True(t, f.Counted())
	require.True(t, f.Conditional())
	require.Equal(t, schema.AbsentCountFails, f.AbsentCount)

	require.Equal(t, field.StringRef(-4).Kind(), TestFragmentSchema.Fields()[0].Kind)
}
