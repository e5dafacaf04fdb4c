package field

import "iter"

// Fields is an ordered name to value mapping.
//
// It is the body of a decoded record and, while a fragment is being decoded,
// the environment that count and presence rules are evaluated against.
// Schemas are small, so lookups scan linearly and keep declaration order.
type Fields struct {
	names  []string
	values []Value
}

// NewFields returns an empty mapping with room for n fields.
func NewFields(n int) Fields {
	return Fields{
		names:  make([]string, 0, n),
		values: make([]Value, 0, n),
	}
}

// Set binds name to v, replacing an existing binding in place.
func (f *Fields) Set(name string, v Value) {
	for i, n := range f.names {
		if n == name {
			f.values[i] = v
			return
		}
	}

	f.names = append(f.names, name)
	f.values = append(f.values, v)
}

// Lookup returns the value bound to name.
func (f Fields) Lookup(name string) (Value, bool) {
	for i, n := range f.names {
		if n == name {
			return f.values[i], true
		}
	}

	return nil, false
}

// Get returns the value bound to name or nil.
func (f Fields) Get(name string) Value {
	v, _ := f.Lookup(name)
	return v
}

// Len returns the number of bound fields.
func (f Fields) Len() int {
	return len(f.names)
}

// At returns the i-th binding in declaration order.
func (f Fields) At(i int) (string, Value) {
	return f.names[i], f.values[i]
}

// Names returns the bound names in declaration order.
func (f Fields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)

	return out
}

// All iterates over the bindings in declaration order.
func (f Fields) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, n := range f.names {
			if !yield(n, f.values[i]) {
				return
			}
		}
	}
}
