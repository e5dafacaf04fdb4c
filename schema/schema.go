package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/wldfrag/expr"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/internal/hash"
)

// TypeID identifies a fragment type within an archive.
type TypeID uint32

func (id TypeID) String() string {
	return fmt.Sprintf("0x%02x", uint32(id))
}

// AbsentCountPolicy controls what happens when a counted field's count refers
// to a conditional field that was absent in the payload.
type AbsentCountPolicy uint8

const (
	// AbsentCountFails reports ErrMalformedCount. It is the default.
	AbsentCountFails AbsentCountPolicy = iota
	// AbsentCountIsZero treats the absent count as zero elements.
	AbsentCountIsZero
)

func (p AbsentCountPolicy) String() string {
	switch p {
	case AbsentCountFails:
		return "fail"
	case AbsentCountIsZero:
		return "zero"
	default:
		return "Unknown"
	}
}

// Field declares one field of a fragment.
type Field struct {
	Name string
	Kind format.ValueKind
	// Count makes the field a counted repetition of Kind.
	Count expr.Count
	// When makes the field conditional on an earlier field.
	When expr.Predicate
	// Group is the nested layout of a KindGroup field.
	Group       *Schema
	AbsentCount AbsentCountPolicy
}

// Counted reports whether the field is a counted repetition.
func (f Field) Counted() bool {
	return f.Count != nil
}

// Conditional reports whether the field has a presence predicate.
func (f Field) Conditional() bool {
	return f.When != nil
}

// writeLayout renders the field for a layout decoded with the set of
// signature sig. A non-nil override replaces the codec set of every group.
func (f Field) writeLayout(sb *strings.Builder, sig string, override *field.Set) {
	sb.WriteString(f.Name)
	sb.WriteByte(':')
	if f.Kind == format.KindGroup && f.Group != nil {
		sb.WriteString("group")
		gsig := sig
		if override == nil {
			gsig = f.Group.codecs.Signature()
		}
		if gsig != sig {
			sb.WriteString("<" + gsig + ">")
		}
		f.Group.writeBody(sb, gsig, override)
	} else {
		sb.WriteString(f.Kind.String())
	}
	if f.Count != nil {
		sb.WriteByte('[')
		sb.WriteString(f.Count.String())
		sb.WriteByte(']')
		if f.AbsentCount == AbsentCountIsZero {
			sb.WriteString("!zero")
		}
	}
	if f.When != nil {
		sb.WriteString("?(")
		sb.WriteString(f.When.String())
		sb.WriteByte(')')
	}
}

// Schema is the ordered, validated field layout of one fragment type.
//
// A Schema is immutable once built and safe for concurrent use.
type Schema struct {
	id          TypeID
	name        string
	fields      []Field
	codecs      *field.Set
	layout      string
	fingerprint uint64
}

// ID returns the fragment type id. It is zero for group layouts.
func (s *Schema) ID() TypeID {
	return s.id
}

// Name returns the fragment type name.
func (s *Schema) Name() string {
	return s.name
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the field declarations in decode order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)

	return out
}

// Field returns the declaration of the named field.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Codecs returns the primitive codec set the schema was validated against.
func (s *Schema) Codecs() *field.Set {
	return s.codecs
}

// Layout returns the canonical text form of the schema, for example
//
//	0x01 Example<le>{flags:u32;count:u32;values:u32[count];extra:f32?((flags & 1))}
//
// The angle brackets hold the codec set signature, see field.Set.Signature.
func (s *Schema) Layout() string {
	return s.layout
}

// LayoutWith returns the layout of s decoded with set instead of the codec
// sets the schema and its groups were built with.
func (s *Schema) LayoutWith(set *field.Set) string {
	return s.render(set)
}

// Fingerprint returns the xxHash64 of Layout. Two schemas with the same
// fingerprint and no registered codecs decode every payload identically.
func (s *Schema) Fingerprint() uint64 {
	return s.fingerprint
}

func (s *Schema) String() string {
	return s.name + "(" + s.id.String() + ")"
}

func (s *Schema) writeBody(sb *strings.Builder, sig string, override *field.Set) {
	sb.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			sb.WriteByte(';')
		}
		f.writeLayout(sb, sig, override)
	}
	sb.WriteByte('}')
}

func (s *Schema) render(override *field.Set) string {
	set := s.codecs
	if override != nil {
		set = override
	}
	sig := set.Signature()

	var sb strings.Builder
	sb.WriteString(s.id.String())
	sb.WriteByte(' ')
	sb.WriteString(s.name)
	sb.WriteString("<" + sig + ">")
	s.writeBody(&sb, sig, override)

	return sb.String()
}

func (s *Schema) seal() {
	s.layout = s.render(nil)
	s.fingerprint = hash.ID(s.layout)
}
