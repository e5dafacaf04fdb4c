package fragment

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/internal/collision"
	"github.com/arloliu/wldfrag/internal/options"
	"github.com/arloliu/wldfrag/schema"
)

// DecodeFunc is an explicit, typed decoder for one fragment type.
//
// It follows the Decoder.Decode contract: on success it returns the cursor
// just past the last field, on failure a *errs.DecodeError.
type DecodeFunc func(payload []byte) (Fragment, field.Cursor, error)

type handler struct {
	id          schema.TypeID
	name        string
	fingerprint uint64   // zero for DecodeFunc handlers
	decoder     *Decoder // nil for DecodeFunc handlers
	decode      DecodeFunc
}

// Registry dispatches fragment payloads to decoders by type id.
//
// Handlers are either schemas, run by the generic interpreter, or DecodeFunc
// functions. Registration and decoding may happen concurrently.
//
// The registry trusts the caller's type id: it does not check that a payload
// really is of the type it is decoded as.
type Registry struct {
	mu       sync.RWMutex
	handlers map[schema.TypeID]*handler
	names    *collision.Tracker
	compile  []Option
	logger   *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption = options.Option[*Registry]

// WithRegistryLogger sets the logger for registration events, logged at
// debug level.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return options.NoError(func(r *Registry) {
		if logger == nil {
			logger = zap.NewNop()
		}
		r.logger = logger
	})
}

// WithCompileOptions sets the options RegisterSchema compiles schemas with.
func WithCompileOptions(opts ...Option) RegistryOption {
	return options.New(func(r *Registry) error {
		// bad options fail here rather than on the first RegisterSchema
		if err := options.Apply(newConfig(), opts...); err != nil {
			return err
		}
		r.compile = slices.Clone(opts)

		return nil
	})
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		handlers: make(map[schema.TypeID]*handler),
		names:    collision.NewTracker(),
		logger:   zap.NewNop(),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(opts ...RegistryOption) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// RegisterSchema compiles s and registers it under s.ID().
//
// Registering a schema with the same layout fingerprint, as read with the
// effective codec set, as the one already registered under the id is a no-op.
//
// Returns:
//   - error: ErrDuplicateFragmentType if another handler owns the id,
//     ErrDuplicateFragmentName if another type has the same name, or a
//     compile error
func (r *Registry) RegisterSchema(s *schema.Schema) error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", errs.ErrInvalidSchema)
	}

	dec, err := Compile(s, r.compile...)
	if err != nil {
		return err
	}

	h := &handler{
		id:          s.ID(),
		name:        s.Name(),
		fingerprint: dec.Fingerprint(),
		decoder:     dec,
		decode: func(payload []byte) (Fragment, field.Cursor, error) {
			rec, cur, err := dec.Decode(payload)
			if err != nil {
				return nil, cur, err
			}

			return rec, cur, nil
		},
	}

	return r.add(h)
}

// RegisterFunc registers an explicit decode function for fragment type id.
func (r *Registry) RegisterFunc(id schema.TypeID, name string, fn DecodeFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: nil decode function for %s(%s)", errs.ErrInvalidDecoderParameter, name, id)
	}

	return r.add(&handler{id: id, name: name, decode: fn})
}

func (r *Registry) add(h *handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.handlers[h.id]; ok {
		if prev.decoder != nil && h.decoder != nil && prev.fingerprint == h.fingerprint &&
			sameCodecs(prev.decoder.Codecs(), h.decoder.Codecs()) {
			r.logger.Debug("fragment type already registered",
				zap.String("name", h.name),
				zap.Stringer("id", h.id))

			return nil
		}

		return fmt.Errorf("%w: %s is already registered as %s", errs.ErrDuplicateFragmentType, h.id, prev.name)
	}

	if _, err := r.names.Track(h.name, uint32(h.id)); err != nil {
		return fmt.Errorf("register %s(%s): %w", h.name, h.id, err)
	}

	r.handlers[h.id] = h
	r.logger.Debug("fragment type registered",
		zap.String("name", h.name),
		zap.Stringer("id", h.id),
		zap.Bool("generic", h.decoder != nil))

	return nil
}

// sameCodecs reports whether two codec sets with equal signatures decode
// alike. Registered codecs are functions, so extended sets must be the same set.
func sameCodecs(a, b *field.Set) bool {
	return a == b || (!a.Extended() && !b.Extended())
}

// Decode decodes payload with the handler registered for id.
//
// Returns:
//   - Fragment: *Record for schema handlers, the typed value for DecodeFunc
//     handlers
//   - field.Cursor: Cursor just past the last decoded field
//   - error: ErrUnknownFragmentType if no handler owns id, otherwise the
//     handler's *errs.DecodeError
func (r *Registry) Decode(id schema.TypeID, payload []byte) (Fragment, field.Cursor, error) {
	r.mu.RLock()
	h, ok := r.handlers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, field.NewCursor(payload), fmt.Errorf("%w: %s", errs.ErrUnknownFragmentType, id)
	}

	return h.decode(payload)
}

// Lookup returns the type id registered under name.
func (r *Registry) Lookup(name string) (schema.TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names.Lookup(name)

	return schema.TypeID(id), ok
}

// Decoder returns the compiled decoder of a schema handler. It reports false
// for unknown ids and for DecodeFunc handlers.
func (r *Registry) Decoder(id schema.TypeID) (*Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[id]
	if !ok || h.decoder == nil {
		return nil, false
	}

	return h.decoder, true
}

// Has reports whether a handler owns id.
func (r *Registry) Has(id schema.TypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[id]

	return ok
}

// IDs returns the registered type ids in ascending order.
func (r *Registry) IDs() []schema.TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.handlers))
}

// Names returns the registered type names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names.Names()
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}
