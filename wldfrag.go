// Package wldfrag decodes the fragments of WLD archives.
//
// A WLD archive is a sequence of fragments, each a type id followed by a
// little-endian payload. This module decodes the payload of a single fragment
// once the archive layer has extracted it; reading the archive header, the
// string hash and the fragment table is left to the caller.
//
// # Basic Usage
//
// Decoding a known fragment type with the default registry:
//
//	frag, cur, err := wldfrag.Decode(catalog.TestFragmentID, payload)
//	if err != nil {
//	    var de *errs.DecodeError
//	    if errors.As(err, &de) {
//	        log.Printf("%s field %s at offset %d", de.Fragment, de.Field, de.Offset)
//	    }
//	    return err
//	}
//	fmt.Println(frag.TypeName(), "used", cur.Offset(), "bytes")
//
// Declaring a layout and decoding it with the generic interpreter:
//
//	s := schema.New(0x22, "Mesh").
//	    Uint32("flags").
//	    Uint16("vertex_count").
//	    Int16("vertices", schema.CountedBy("vertex_count")).
//	    Float32("scale", schema.WhenExpr("flags & 0x1")).
//	    MustBuild()
//	rec, _, err := fragment.MustCompile(s).Decode(payload)
//
// Layouts may also be loaded from a YAML catalog with LoadRegistry.
//
// # Package Structure
//
// This package wraps the fragment, schema and catalog packages for the
// common cases. Use those packages directly for decoder options, encoding
// and custom registries.
package wldfrag

import (
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/wldfrag/catalog"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/fragment"
	"github.com/arloliu/wldfrag/internal/hash"
	"github.com/arloliu/wldfrag/schema"
)

var defaultRegistry = sync.OnceValue(func() *fragment.Registry {
	reg := fragment.MustNewRegistry()
	if err := catalog.Register(reg); err != nil {
		panic(err)
	}

	return reg
})

// DefaultRegistry returns the shared registry holding the hand-written
// decoders of every catalog fragment type.
//
// The registry is created on first use. Registering further types on it is
// allowed and visible to every user of the default registry.
func DefaultRegistry() *fragment.Registry {
	return defaultRegistry()
}

// Decode decodes one fragment payload with the default registry.
//
// Parameters:
//   - id: Fragment type id from the fragment header, trusted as given
//   - payload: Fragment payload, not retained
//
// Returns:
//   - fragment.Fragment: Decoded fragment
//   - field.Cursor: Cursor just past the last decoded field
//   - error: ErrUnknownFragmentType, or a *errs.DecodeError
func Decode(id schema.TypeID, payload []byte) (fragment.Fragment, field.Cursor, error) {
	return DefaultRegistry().Decode(id, payload)
}

// DecodeTestFragment decodes a reference layout payload.
func DecodeTestFragment(payload []byte) (*catalog.TestFragment, field.Cursor, error) {
	return catalog.DecodeTestFragment(payload)
}

// LoadRegistry creates a registry from a YAML schema catalog.
//
// Parameters:
//   - r: YAML catalog
//   - opts: Registry options, e.g. fragment.WithRegistryLogger
//
// Returns:
//   - *fragment.Registry: Registry with one generic decoder per schema
//   - error: Aggregated schema errors, or a registration error
func LoadRegistry(r io.Reader, opts ...fragment.RegistryOption) (*fragment.Registry, error) {
	schemas, err := schema.LoadYAML(r)
	if err != nil {
		return nil, err
	}

	reg, err := fragment.NewRegistry(opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range schemas {
		if err := reg.RegisterSchema(s); err != nil {
			return nil, fmt.Errorf("register %s: %w", s, err)
		}
	}

	return reg, nil
}

// FragmentNameID returns the 64-bit hash a registry indexes a fragment type
// name by.
func FragmentNameID(name string) uint64 {
	return hash.ID(name)
}
