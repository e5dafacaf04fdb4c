package fragment

import (
	"fmt"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/internal/pool"
	"github.com/arloliu/wldfrag/schema"
)

// Encode writes rec in the byte layout of s. It is the inverse of decoding:
// decoding the result with s yields rec again.
//
// Parameters:
//   - s: Schema of the record
//   - rec: Record with one value per schema field
//
// Returns:
//   - []byte: Encoded payload
//   - error: ErrRecordMismatch if rec does not fit s, ErrMalformedCount if a
//     counted field's length differs from its count
func Encode(s *schema.Schema, rec *Record) ([]byte, error) {
	if s == nil || rec == nil {
		return nil, fmt.Errorf("%w: nil schema or record", errs.ErrRecordMismatch)
	}
	if rec.Type != s.ID() {
		return nil, fmt.Errorf("%w: record type %s, schema %s", errs.ErrRecordMismatch, rec.Type, s)
	}

	bb := pool.GetFragmentBuffer()
	defer pool.PutFragmentBuffer(bb)
	bb.Grow(sizeHint(s, rec.Fields))

	out, err := appendFields(bb.B, s, rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s, err)
	}
	bb.B = out

	payload := make([]byte, bb.Len())
	copy(payload, bb.Bytes())

	return payload, nil
}

// sizeHint returns the encoded size of fields for a record that matches s.
// Values that do not match are estimated loosely; appendFields reports them.
func sizeHint(s *schema.Schema, fields field.Fields) int {
	codecs := s.Codecs()

	n := 0
	for _, f := range s.Fields() {
		v, ok := fields.Lookup(f.Name)
		if !ok {
			continue
		}
		if opt, ok := v.(field.Optional); ok {
			if !opt.Present() {
				continue
			}
			v = opt.Inner
		}

		seq, ok := v.(field.Sequence)
		switch {
		case f.Kind == format.KindGroup && ok:
			for _, item := range seq.Items {
				n += groupSize(f, item)
			}
		case f.Kind == format.KindGroup:
			n += groupSize(f, v)
		case ok:
			w, _ := codecs.Width(f.Kind)
			n += w * seq.Len()
		default:
			w, _ := codecs.Width(f.Kind)
			n += w
		}
	}

	return n
}

func groupSize(f schema.Field, v field.Value) int {
	g, ok := v.(field.Group)
	if !ok || f.Group == nil {
		return 0
	}

	return sizeHint(f.Group, g.Fields)
}

func appendFields(dst []byte, s *schema.Schema, fields field.Fields) ([]byte, error) {
	codecs := s.Codecs()
	env := field.NewFields(s.Len())

	for _, f := range s.Fields() {
		v, ok := fields.Lookup(f.Name)
		if !ok {
			return dst, fmt.Errorf("%w: missing field %q", errs.ErrRecordMismatch, f.Name)
		}
		env.Set(f.Name, v)

		body := v
		if f.When != nil {
			opt, ok := v.(field.Optional)
			if !ok {
				return dst, fmt.Errorf("%w: conditional field %q holds %s", errs.ErrRecordMismatch, f.Name, v.Kind())
			}
			if opt.Present() != f.When.Holds(env) {
				return dst, fmt.Errorf("%w: field %q presence disagrees with %s", errs.ErrRecordMismatch, f.Name, f.When)
			}
			if !opt.Present() {
				continue
			}
			body = opt.Inner
		}

		var err error
		if f.Count != nil {
			dst, err = appendSequence(dst, f, body, env, codecs)
		} else {
			dst, err = appendElem(dst, f, body, codecs)
		}
		if err != nil {
			return dst, err
		}
	}

	return dst, nil
}

func appendSequence(dst []byte, f schema.Field, v field.Value, env field.Fields, codecs *field.Set) ([]byte, error) {
	seq, ok := v.(field.Sequence)
	if !ok {
		return dst, fmt.Errorf("%w: counted field %q holds %s", errs.ErrRecordMismatch, f.Name, v.Kind())
	}

	n, ok := f.Count.Resolve(env)
	if !ok {
		if f.AbsentCount != schema.AbsentCountIsZero {
			return dst, fmt.Errorf("%w: field %q: count %s is absent", errs.ErrMalformedCount, f.Name, f.Count)
		}
		n = 0
	}
	if int64(seq.Len()) != n {
		return dst, fmt.Errorf("%w: field %q has %d elements, count %s is %d", errs.ErrMalformedCount, f.Name, seq.Len(), f.Count, n)
	}

	for _, item := range seq.Items {
		var err error
		if dst, err = appendElem(dst, f, item, codecs); err != nil {
			return dst, err
		}
	}

	return dst, nil
}

func appendElem(dst []byte, f schema.Field, v field.Value, codecs *field.Set) ([]byte, error) {
	if f.Kind != format.KindGroup {
		out, err := codecs.Append(f.Kind, dst, v)
		if err != nil {
			return dst, fmt.Errorf("field %q: %w", f.Name, err)
		}

		return out, nil
	}

	g, ok := v.(field.Group)
	if !ok {
		return dst, fmt.Errorf("%w: group field %q holds %s", errs.ErrRecordMismatch, f.Name, v.Kind())
	}

	out, err := appendFields(dst, f.Group, g.Fields)
	if err != nil {
		return dst, fmt.Errorf("group %q: %w", f.Name, err)
	}

	return out, nil
}
