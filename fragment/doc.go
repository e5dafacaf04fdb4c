// Package fragment decodes WLD fragment payloads with schemas.
//
// A schema is compiled once into a Decoder, which visits every field exactly
// once, in declaration order, threading an immutable cursor through the
// payload. Count and presence rules are evaluated against the fields decoded
// so far, so a single left-to-right pass is enough:
//
//	dec, err := fragment.Compile(s)
//	if err != nil {
//	    return err
//	}
//	rec, rest, err := dec.Decode(payload)
//
// Decoding never returns a partial record. Data errors are *errs.DecodeError
// values naming the fragment, the field, the offset of the field and the
// offset of the read that failed.
//
// # Counted and conditional fields
//
// A counted field decodes to a field.Sequence of exactly the resolved count.
// Negative counts and counts above the decoder limit (DefaultMaxCount, see
// WithMaxCount) fail with ErrMalformedCount before anything is allocated;
// larger counts than the payload can hold fail with ErrTruncated at the
// element that runs out.
//
// A conditional field decodes to a field.Optional. When its predicate is
// false nothing is read. A field that is both counted and conditional is
// gated as a whole: absent is absent, not an empty sequence.
//
// # Registry
//
// A Registry maps type ids to handlers: compiled schemas or explicit
// DecodeFunc functions. The archive layer calls Registry.Decode with the id
// it read from the fragment header.
//
//	reg := fragment.MustNewRegistry()
//	_ = reg.RegisterSchema(s)
//	_ = reg.RegisterFunc(0x10, "Pair", decodePair)
//	frag, _, err := reg.Decode(id, payload)
//
// # Encoding
//
// Encode is the inverse of Decode. It is used to build payload fixtures and
// to check that a record round-trips through its schema.
package fragment
