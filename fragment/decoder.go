package fragment

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/expr"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/internal/hash"
	"github.com/arloliu/wldfrag/internal/options"
	"github.com/arloliu/wldfrag/schema"
)

// step is one compiled schema field.
type step struct {
	name       string
	kind       format.ValueKind
	count      expr.Count
	when       expr.Predicate
	absentZero bool
	width      int // encoded element width, lower bound for groups
	elem       field.Decoder
}

// Decoder decodes payloads of one fragment type.
//
// A Decoder is built once per schema by Compile and is immutable afterwards;
// it is safe for concurrent use.
type Decoder struct {
	schema      *schema.Schema
	codecs      *field.Set
	fingerprint uint64
	steps       []step
	maxCount    int64
	logger      *zap.Logger
}

// Compile resolves the decoder of every field of s.
//
// Parameters:
//   - s: Validated schema
//   - opts: Decoder options (WithCodecs, WithMaxCount, WithLogger)
//
// Returns:
//   - *Decoder: Compiled decoder
//   - error: ErrUnsupportedValueKind if a kind has no codec in the selected
//     set, or an option error
func Compile(s *schema.Schema, opts ...Option) (*Decoder, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", errs.ErrInvalidSchema)
	}

	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return compile(s, cfg)
}

// MustCompile is like Compile but panics on error.
func MustCompile(s *schema.Schema, opts ...Option) *Decoder {
	d, err := Compile(s, opts...)
	if err != nil {
		panic(err)
	}

	return d
}

func compile(s *schema.Schema, cfg *config) (*Decoder, error) {
	codecs := cfg.codecs
	if codecs == nil {
		codecs = s.Codecs()
	}

	d := &Decoder{
		schema:      s,
		codecs:      codecs,
		fingerprint: s.Fingerprint(),
		steps:       make([]step, 0, s.Len()),
		maxCount:    cfg.maxCount,
		logger:      cfg.logger,
	}
	if cfg.codecs != nil {
		d.fingerprint = hash.ID(s.LayoutWith(cfg.codecs))
	}

	for _, f := range s.Fields() {
		st := step{
			name:       f.Name,
			kind:       f.Kind,
			count:      f.Count,
			when:       f.When,
			absentZero: f.AbsentCount == schema.AbsentCountIsZero,
		}

		if f.Kind == format.KindGroup {
			sub, err := compile(f.Group, cfg)
			if err != nil {
				return nil, fmt.Errorf("%s group %q: %w", s, f.Name, err)
			}
			st.elem = sub.decodeGroup
			st.width = sub.minWidth()
		} else {
			dec, err := codecs.Decoder(f.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s field %q: %w", s, f.Name, err)
			}
			st.elem = dec
			st.width, _ = codecs.Width(f.Kind)
		}

		d.steps = append(d.steps, st)
	}

	return d, nil
}

// TypeID returns the fragment type id of the schema.
func (d *Decoder) TypeID() schema.TypeID {
	return d.schema.ID()
}

// Name returns the fragment type name of the schema.
func (d *Decoder) Name() string {
	return d.schema.Name()
}

// Fingerprint returns the xxHash64 of the layout as this decoder reads it.
// It equals Schema().Fingerprint() unless WithCodecs replaced the schema's
// codec set.
func (d *Decoder) Fingerprint() uint64 {
	return d.fingerprint
}

// Codecs returns the primitive codec set the decoder reads with.
func (d *Decoder) Codecs() *field.Set {
	return d.codecs
}

// Schema returns the schema the decoder was compiled from.
func (d *Decoder) Schema() *schema.Schema {
	return d.schema
}

// Decode decodes one fragment payload.
//
// Fields are decoded in declaration order, each starting where the previous
// one ended. Bytes left after the last field are not an error; the returned
// cursor is positioned just past the last decoded field.
//
// Parameters:
//   - payload: Fragment payload, not retained
//
// Returns:
//   - *Record: Decoded record, nil on error
//   - field.Cursor: Cursor after the last field, or at offset 0 on error
//   - error: *errs.DecodeError wrapping ErrTruncated, ErrMalformedCount or
//     ErrUnsupportedValueKind, annotated with fragment, field and offsets
func (d *Decoder) Decode(payload []byte) (*Record, field.Cursor, error) {
	return d.DecodeCursor(field.NewCursor(payload))
}

// DecodeCursor decodes one fragment starting at c. Offsets in errors are
// relative to the start of the buffer c reads from.
func (d *Decoder) DecodeCursor(c field.Cursor) (*Record, field.Cursor, error) {
	fields, next, err := d.decodeFields(c)
	if err != nil {
		var de *errs.DecodeError
		if errors.As(err, &de) {
			de.Fragment = d.schema.Name()
			de.TypeID = uint32(d.schema.ID())
		}
		d.logger.Debug("fragment decode failed",
			zap.Stringer("fragment", d.schema),
			zap.Int("offset", c.Offset()),
			zap.Error(err))

		return nil, c, err
	}

	return &Record{Type: d.schema.ID(), Name: d.schema.Name(), Fields: fields}, next, nil
}

func (d *Decoder) decodeFields(c field.Cursor) (field.Fields, field.Cursor, error) {
	fields := field.NewFields(len(d.steps))
	cur := c

	for i := range d.steps {
		st := &d.steps[i]

		v, next, err := st.decode(cur, fields, d.maxCount)
		if err != nil {
			return field.Fields{}, c, annotate(err, st.name, cur.Offset())
		}

		fields.Set(st.name, v)
		cur = next
	}

	return fields, cur, nil
}

func (d *Decoder) decodeGroup(c field.Cursor) (field.Value, field.Cursor, error) {
	fields, next, err := d.decodeFields(c)
	if err != nil {
		return nil, c, err
	}

	return field.Group{Fields: fields}, next, nil
}

// minWidth returns the bytes every instance of the group consumes at least.
func (d *Decoder) minWidth() int {
	n := 0
	for _, st := range d.steps {
		if st.when == nil && st.count == nil {
			n += st.width
		}
	}

	return n
}

func (st *step) decode(c field.Cursor, env field.Fields, maxCount int64) (field.Value, field.Cursor, error) {
	if st.when == nil {
		return st.decodeBody(c, env, maxCount)
	}

	if !st.when.Holds(env) {
		return field.None(), c, nil
	}

	v, next, err := st.decodeBody(c, env, maxCount)
	if err != nil {
		return nil, c, err
	}

	return field.Some(v), next, nil
}

func (st *step) decodeBody(c field.Cursor, env field.Fields, maxCount int64) (field.Value, field.Cursor, error) {
	if st.count == nil {
		return st.elem(c)
	}

	n, err := st.resolveCount(env, c.Offset(), maxCount)
	if err != nil {
		return nil, c, err
	}

	items := make([]field.Value, 0, capacity(n, c.Remaining(), st.width))
	cur := c
	for i := range n {
		v, next, err := st.elem(cur)
		if err != nil {
			var de *errs.DecodeError
			if errors.As(err, &de) && de.Detail == "" {
				de.Detail = fmt.Sprintf("element %d of %d", i, n)
			}

			return nil, c, err
		}
		items = append(items, v)
		cur = next
	}

	return field.Sequence{Elem: st.kind, Items: items}, cur, nil
}

func (st *step) resolveCount(env field.Fields, offset int, maxCount int64) (int64, error) {
	n, ok := st.count.Resolve(env)
	switch {
	case !ok && st.absentZero:
		return 0, nil
	case !ok:
		return 0, errs.MalformedCount(offset, 0, fmt.Sprintf("count field %s is absent", st.count))
	case n < 0:
		return 0, errs.MalformedCount(offset, n, "negative count")
	case n > maxCount:
		return 0, errs.MalformedCount(offset, n, fmt.Sprintf("exceeds limit %d", maxCount))
	}

	return n, nil
}

// capacity bounds the up-front allocation of a counted field by what the
// remaining bytes can hold.
func capacity(n int64, remaining, width int) int {
	limit := int64(remaining)
	if width > 0 {
		limit = int64(remaining / width)
	}

	return int(min(n, limit))
}

// annotate records the failing field on a decode error. Errors from nested
// groups already name their inner field, which is kept together with its
// offset and prefixed with the group name.
func annotate(err error, name string, start int) error {
	var de *errs.DecodeError
	if !errors.As(err, &de) {
		return fmt.Errorf("field %q: %w", name, err)
	}

	if de.Field == "" {
		de.Field = name
		de.FieldOffset = start
	} else {
		de.Field = name + "." + de.Field
	}

	return err
}
