package schema

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/expr"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/internal/options"
)

// FieldOption configures a field declaration.
type FieldOption = options.Option[*Field]

// CountedBy makes the field a repetition whose count is the value of an
// earlier integer field.
func CountedBy(name string) FieldOption {
	return options.NoError(func(f *Field) {
		f.Count = expr.CountOf(name)
	})
}

// Counted makes the field a repetition with the given count rule.
func Counted(c expr.Count) FieldOption {
	return options.New(func(f *Field) error {
		if c == nil {
			return fmt.Errorf("%w: nil count", errs.ErrInvalidExpression)
		}
		f.Count = c

		return nil
	})
}

// CountExpr parses text with expr.ParseCount and uses it as the count rule.
func CountExpr(text string) FieldOption {
	return options.New(func(f *Field) error {
		c, err := expr.ParseCount(text)
		if err != nil {
			return err
		}
		f.Count = c

		return nil
	})
}

// When makes the field conditional on p.
func When(p expr.Predicate) FieldOption {
	return options.New(func(f *Field) error {
		if p == nil {
			return fmt.Errorf("%w: nil predicate", errs.ErrInvalidExpression)
		}
		f.When = p

		return nil
	})
}

// WhenExpr parses text with expr.ParsePredicate and uses it as the presence
// predicate.
func WhenExpr(text string) FieldOption {
	return options.New(func(f *Field) error {
		p, err := expr.ParsePredicate(text)
		if err != nil {
			return err
		}
		f.When = p

		return nil
	})
}

// OnAbsentCount sets how a counted field treats an absent count field.
func OnAbsentCount(policy AbsentCountPolicy) FieldOption {
	return options.New(func(f *Field) error {
		if policy > AbsentCountIsZero {
			return fmt.Errorf("%w: absent count policy %d", errs.ErrInvalidSchema, policy)
		}
		f.AbsentCount = policy

		return nil
	})
}

// Builder declares a schema field by field.
//
// Builder methods never fail; problems are collected and reported together
// by Build.
//
// Example:
//
//	s, err := schema.New(0x01, "Example").
//	    Uint32("flags").
//	    Uint32("count").
//	    Uint32("values", schema.CountedBy("count")).
//	    Float32("extra", schema.WhenExpr("flags & 0x01")).
//	    Build()
type Builder struct {
	id     TypeID
	name   string
	fields []Field
	codecs *field.Set
	err    error
}

// New starts a fragment schema.
//
// Parameters:
//   - id: Fragment type id
//   - name: Fragment type name, used in errors and for registry lookups
//
// Returns:
//   - *Builder: Builder using field.DefaultSet for primitive kinds
func New(id TypeID, name string) *Builder {
	return &Builder{id: id, name: name, codecs: field.DefaultSet()}
}

// NewGroup starts a nested group layout for a KindGroup field.
func NewGroup(name string) *Builder {
	return New(0, name)
}

// Codecs sets the primitive codec set used to validate field kinds. Kinds
// registered on set become declarable with Field.
func (b *Builder) Codecs(set *field.Set) *Builder {
	if set == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("%w: nil codec set", errs.ErrInvalidSchema))
		return b
	}
	b.codecs = set

	return b
}

// Field declares a field of any kind.
func (b *Builder) Field(name string, kind format.ValueKind, opts ...FieldOption) *Builder {
	f := Field{Name: name, Kind: kind}
	if err := options.Apply(&f, opts...); err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("field %q: %w", name, err))
	}
	b.fields = append(b.fields, f)

	return b
}

func (b *Builder) Uint8(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindUint8, opts...)
}

func (b *Builder) Int8(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindInt8, opts...)
}

func (b *Builder) Uint16(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindUint16, opts...)
}

func (b *Builder) Int16(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindInt16, opts...)
}

func (b *Builder) Uint32(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindUint32, opts...)
}

func (b *Builder) Int32(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindInt32, opts...)
}

func (b *Builder) Float32(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindFloat32, opts...)
}

func (b *Builder) StringRef(name string, opts ...FieldOption) *Builder {
	return b.Field(name, format.KindStringRef, opts...)
}

// Group declares a nested group field decoded in-line with the layout of sub.
// Rules inside sub can only reference fields of sub.
func (b *Builder) Group(name string, sub *Schema, opts ...FieldOption) *Builder {
	b.Field(name, format.KindGroup, opts...)
	b.fields[len(b.fields)-1].Group = sub

	return b
}

// Build validates the declarations and returns the schema.
//
// Returns:
//   - *Schema: Immutable schema
//   - error: Every problem found, aggregated with multierr; each wraps one of
//     ErrInvalidSchema, ErrInvalidFragmentName, ErrUnsupportedValueKind,
//     ErrUnknownField or ErrInvalidExpression
func (b *Builder) Build() (*Schema, error) {
	err := b.err
	if b.name == "" {
		err = multierr.Append(err, fmt.Errorf("%w: empty name", errs.ErrInvalidFragmentName))
	}
	err = multierr.Append(err, validate(b.fields, b.codecs))
	if err != nil {
		return nil, fmt.Errorf("schema %s(%s): %w", b.name, b.id, err)
	}

	s := &Schema{
		id:     b.id,
		name:   b.name,
		fields: slices.Clone(b.fields),
		codecs: b.codecs,
	}
	s.seal()

	return s, nil
}

// MustBuild is like Build but panics on error. It is meant for package-level
// schema definitions.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}

	return s
}

func validate(fields []Field, codecs *field.Set) error {
	var err error

	for i, f := range fields {
		if f.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: field %d has no name", errs.ErrInvalidSchema, i))
		} else if slices.ContainsFunc(fields[:i], func(p Field) bool { return p.Name == f.Name }) {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate field %q", errs.ErrInvalidSchema, f.Name))
		}

		err = multierr.Append(err, validateKind(f, codecs))

		if f.Count != nil {
			for _, ref := range f.Count.Refs() {
				if rerr := checkRef(fields, i, ref, "count"); rerr != nil {
					err = multierr.Append(err, rerr)
				}
			}
			if n, ok := f.Count.Resolve(field.Fields{}); ok && n < 0 {
				err = multierr.Append(err, fmt.Errorf("%w: field %q has negative count %d", errs.ErrInvalidSchema, f.Name, n))
			}
		}

		if f.When != nil {
			for _, ref := range f.When.Refs() {
				if rerr := checkRef(fields, i, ref, "predicate"); rerr != nil {
					err = multierr.Append(err, rerr)
				}
			}
		}
	}

	return err
}

func validateKind(f Field, codecs *field.Set) error {
	switch {
	case f.Kind == format.KindGroup:
		if f.Group == nil {
			return fmt.Errorf("%w: group field %q has no layout", errs.ErrInvalidSchema, f.Name)
		}
	case f.Group != nil:
		return fmt.Errorf("%w: field %q of kind %s has a group layout", errs.ErrInvalidSchema, f.Name, f.Kind)
	case f.Kind == format.KindInvalid, f.Kind.IsShape(), !codecs.Has(f.Kind):
		return fmt.Errorf("%w: field %q has kind %s (0x%02x)", errs.ErrUnsupportedValueKind, f.Name, f.Kind, uint8(f.Kind))
	}

	return nil
}

// checkRef verifies that the rule of fields[i] reads an earlier, plain
// integer field.
func checkRef(fields []Field, i int, ref, what string) error {
	name := fields[i].Name

	idx := slices.IndexFunc(fields, func(f Field) bool { return f.Name == ref })
	switch {
	case idx < 0:
		return fmt.Errorf("%w: %s of %q refers to %q", errs.ErrUnknownField, what, name, ref)
	case idx >= i:
		return fmt.Errorf("%w: %s of %q refers to %q, which is not declared before it", errs.ErrUnknownField, what, name, ref)
	}

	target := fields[idx]
	if !target.Kind.IsInteger() || target.Counted() {
		return fmt.Errorf("%w: %s of %q refers to %q, which is not an integer", errs.ErrInvalidSchema, what, name, ref)
	}

	return nil
}
