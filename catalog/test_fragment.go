package catalog

import (
	"errors"
	"fmt"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/fragment"
	"github.com/arloliu/wldfrag/schema"
)

// TestFragmentID is the type id of the reference layout.
const TestFragmentID schema.TypeID = 0x01

// TestFragmentSchema is the reference layout run by the generic interpreter.
// Every rule kind appears once: a counted array, a conditional scalar and an
// array that is both counted and conditional.
var TestFragmentSchema = schema.New(TestFragmentID, "TestFragment").
	StringRef("name_reference").
	Uint32("flags").
	Uint32("some_count").
	Uint32("some_stuff", schema.CountedBy("some_count")).
	Float32("something_else", schema.WhenExpr("flags == 0x01")).
	Uint32("optional_thing", schema.CountedBy("some_count"), schema.WhenExpr("flags == 0x01")).
	MustBuild()

// Opt is a value that may be absent.
type Opt[T any] struct {
	Value   T
	Present bool
}

// Some returns a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Present: true}
}

// TestFragment is the typed form of the reference layout.
type TestFragment struct {
	NameReference field.StringRef
	Flags         uint32
	SomeCount     uint32
	SomeStuff     []uint32
	SomethingElse Opt[float32]
	OptionalThing Opt[[]uint32]
}

func (*TestFragment) TypeID() schema.TypeID {
	return TestFragmentID
}

func (*TestFragment) TypeName() string {
	return "TestFragment"
}

// DecodeTestFragment decodes the reference layout without the interpreter.
//
// It produces the same values and the same errors as a decoder compiled from
// TestFragmentSchema.
//
// Parameters:
//   - payload: Fragment payload
//
// Returns:
//   - *TestFragment: Decoded fragment, nil on error
//   - field.Cursor: Cursor after the last field, or at offset 0 on error
//   - error: *errs.DecodeError annotated like the generic decoder's errors
func DecodeTestFragment(payload []byte) (*TestFragment, field.Cursor, error) {
	start := field.NewCursor(payload)
	cur := start

	var (
		tf  TestFragment
		err error
	)

	fail := func(err error, name string, at field.Cursor) (*TestFragment, field.Cursor, error) {
		var de *errs.DecodeError
		if errors.As(err, &de) {
			de.Fragment = tf.TypeName()
			de.TypeID = uint32(TestFragmentID)
			de.Field = name
			de.FieldOffset = at.Offset()
		}

		return nil, start, err
	}

	at := cur
	if tf.NameReference, cur, err = field.ReadStringRef(cur); err != nil {
		return fail(err, "name_reference", at)
	}
	at = cur
	if tf.Flags, cur, err = field.ReadUint32(cur); err != nil {
		return fail(err, "flags", at)
	}
	at = cur
	if tf.SomeCount, cur, err = field.ReadUint32(cur); err != nil {
		return fail(err, "some_count", at)
	}

	count, err := checkCount(tf.SomeCount, cur)
	at = cur
	if err != nil {
		return fail(err, "some_stuff", at)
	}
	if tf.SomeStuff, cur, err = readArray(cur, count); err != nil {
		return fail(err, "some_stuff", at)
	}

	if tf.Flags == 0x01 {
		at = cur
		if tf.SomethingElse.Value, cur, err = field.ReadFloat32(cur); err != nil {
			return fail(err, "something_else", at)
		}
		tf.SomethingElse.Present = true

		at = cur
		if tf.OptionalThing.Value, cur, err = readArray(cur, count); err != nil {
			return fail(err, "optional_thing", at)
		}
		tf.OptionalThing.Present = true
	}

	return &tf, cur, nil
}

func checkCount(n uint32, at field.Cursor) (int, error) {
	if n > fragment.DefaultMaxCount {
		return 0, errs.MalformedCount(at.Offset(), int64(n), fmt.Sprintf("exceeds limit %d", fragment.DefaultMaxCount))
	}

	return int(n), nil
}

// readArray reads a counted u32 array, reporting element failures like the
// generic decoder.
func readArray(c field.Cursor, n int) ([]uint32, field.Cursor, error) {
	vals, next, err := field.ReadUint32s(c, n)
	if err != nil {
		var de *errs.DecodeError
		if errors.As(err, &de) && de.Detail == "" {
			de.Detail = fmt.Sprintf("element %d of %d", (de.Offset-c.Offset())/4, n)
		}

		return nil, c, err
	}
	if vals == nil {
		vals = []uint32{}
	}

	return vals, next, nil
}

// Record converts the typed fragment to the generic record form produced by
// a decoder compiled from TestFragmentSchema.
func (tf *TestFragment) Record() *fragment.Record {
	fields := field.NewFields(TestFragmentSchema.Len())
	fields.Set("name_reference", tf.NameReference)
	fields.Set("flags", field.Uint32(tf.Flags))
	fields.Set("some_count", field.Uint32(tf.SomeCount))
	fields.Set("some_stuff", uint32Sequence(tf.SomeStuff))

	if tf.SomethingElse.Present {
		fields.Set("something_else", field.Some(field.Float32(tf.SomethingElse.Value)))
	} else {
		fields.Set("something_else", field.None())
	}
	if tf.OptionalThing.Present {
		fields.Set("optional_thing", field.Some(uint32Sequence(tf.OptionalThing.Value)))
	} else {
		fields.Set("optional_thing", field.None())
	}

	return &fragment.Record{Type: TestFragmentID, Name: tf.TypeName(), Fields: fields}
}

func uint32Sequence(vals []uint32) field.Sequence {
	items := make([]field.Value, len(vals))
	for i, v := range vals {
		items[i] = field.Uint32(v)
	}

	return field.Sequence{Elem: format.KindUint32, Items: items}
}

func decodeTestFragment(payload []byte) (fragment.Fragment, field.Cursor, error) {
	tf, cur, err := DecodeTestFragment(payload)
	if err != nil {
		return nil, cur, err
	}

	return tf, cur, nil
}
