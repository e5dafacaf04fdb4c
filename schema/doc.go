// Package schema declares fragment layouts.
//
// A Schema is an ordered list of fields. Each field has a name, a value kind
// and at most one count rule and one presence predicate:
//
//	name_reference  stringref
//	flags           u32
//	some_count      u32
//	some_stuff      u32   counted by some_count
//	something_else  f32   present when flags == 0x01
//	optional_thing  u32   counted by some_count, present when flags == 0x01
//
// Rules may only read fields declared before them, and only integer fields
// that are neither counted nor groups. Build checks this once, so decoders
// never meet a dangling reference at run time. All problems of a schema are
// reported together:
//
//	_, err := schema.New(0x10, "Broken").
//	    Uint32("values", schema.CountedBy("count")).
//	    Uint32("count").
//	    Build()
//	// err wraps errs.ErrUnknownField
//	for _, e := range multierr.Errors(err) { ... }
//
// # Groups
//
// A KindGroup field holds a nested layout decoded in-line. Rules inside the
// group see only the group's own fields:
//
//	vertex := schema.NewGroup("Vertex").Int16("x").Int16("y").Int16("z").MustBuild()
//	mesh := schema.New(0x36, "Mesh").
//	    Uint16("vertex_count").
//	    Group("vertices", vertex, schema.CountedBy("vertex_count")).
//	    MustBuild()
//
// # Catalogs
//
// LoadYAML reads several schemas from a YAML catalog; see the package tests
// for the format.
//
// # Absent counts
//
// A counted field may take its count from a conditional field. When that
// field is absent the decoder fails with ErrMalformedCount unless the counted
// field was declared with OnAbsentCount(AbsentCountIsZero).
package schema
