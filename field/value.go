package field

import (
	"strconv"
	"strings"

	"github.com/arloliu/wldfrag/format"
)

// Value is a decoded field value.
//
// The concrete types are Uint8, Int8, Uint16, Int16, Uint32, Int32, Float32,
// StringRef, Sequence, Optional and Group.
type Value interface {
	Kind() format.ValueKind
	String() string
}

type (
	Uint8   uint8
	Int8    int8
	Uint16  uint16
	Int16   int16
	Uint32  uint32
	Int32   int32
	Float32 float32
)

func (Uint8) Kind() format.ValueKind   { return format.KindUint8 }
func (Int8) Kind() format.ValueKind    { return format.KindInt8 }
func (Uint16) Kind() format.ValueKind  { return format.KindUint16 }
func (Int16) Kind() format.ValueKind   { return format.KindInt16 }
func (Uint32) Kind() format.ValueKind  { return format.KindUint32 }
func (Int32) Kind() format.ValueKind   { return format.KindInt32 }
func (Float32) Kind() format.ValueKind { return format.KindFloat32 }

func (v Uint8) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v Int8) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Uint16) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Int16) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Uint32) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Int32) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float32) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

// StringRef is a reference into the archive's string table.
//
// WLD archives encode names as negative byte offsets into the string hash;
// non-negative values usually refer to other fragments by index. Resolving
// either form is left to the caller.
type StringRef int32

func (StringRef) Kind() format.ValueKind { return format.KindStringRef }

func (r StringRef) String() string {
	return "ref(" + strconv.FormatInt(int64(r), 10) + ")"
}

// TableOffset returns the string table offset for negative references.
func (r StringRef) TableOffset() (int, bool) {
	if r >= 0 {
		return 0, false
	}

	return -int(r), true
}

// Sequence is the result of a counted rule.
type Sequence struct {
	Elem  format.ValueKind
	Items []Value
}

func (Sequence) Kind() format.ValueKind { return format.KindSequence }

// Len returns the number of elements.
func (s Sequence) Len() int {
	return len(s.Items)
}

func (s Sequence) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, item := range s.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(item.String())
	}
	sb.WriteByte(']')

	return sb.String()
}

// Optional is the result of a conditional rule. It is absent when Inner is nil.
type Optional struct {
	Inner Value
}

// Some wraps a present value.
func Some(v Value) Optional {
	return Optional{Inner: v}
}

// None returns an absent value.
func None() Optional {
	return Optional{}
}

func (Optional) Kind() format.ValueKind { return format.KindOptional }

// Present reports whether the predicate held when the field was decoded.
func (o Optional) Present() bool {
	return o.Inner != nil
}

func (o Optional) String() string {
	if o.Inner == nil {
		return "None"
	}

	return "Some(" + o.Inner.String() + ")"
}

// Group is a nested set of fields decoded in-line.
type Group struct {
	Fields
}

func (Group) Kind() format.ValueKind { return format.KindGroup }

// Int returns the integer held by v.
//
// Present optionals are unwrapped; absent optionals, floats, string
// references and structural values report false.
func Int(v Value) (int64, bool) {
	switch x := v.(type) {
	case Uint8:
		return int64(x), true
	case Int8:
		return int64(x), true
	case Uint16:
		return int64(x), true
	case Int16:
		return int64(x), true
	case Uint32:
		return int64(x), true
	case Int32:
		return int64(x), true
	case Optional:
		if x.Inner == nil {
			return 0, false
		}

		return Int(x.Inner)
	default:
		return 0, false
	}
}

// Float returns the float held by v, unwrapping present optionals.
func Float(v Value) (float32, bool) {
	switch x := v.(type) {
	case Float32:
		return float32(x), true
	case Optional:
		if x.Inner == nil {
			return 0, false
		}

		return Float(x.Inner)
	default:
		return 0, false
	}
}

func (g Group) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := range g.Len() {
		name, v := g.At(i)
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')

	return sb.String()
}
