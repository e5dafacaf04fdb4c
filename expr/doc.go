// Package expr is the rule language used by fragment schemas: presence
// predicates that gate optional fields and counts that size repeated fields.
//
// The language is a closed set of operations evaluated against the fields
// already decoded in the same fragment (or group):
//
//	Operands:   Field("flags"), Literal(1), Masked("flags", 0x01)
//	Predicates: Test, BitSet, Equal, NotEqual, And, Or, Not
//	Counts:     CountOf("some_count"), FixedCount(4)
//
// A comparison whose operand refers to an absent optional field, a missing
// field or a non-integer field is false. Not inverts that result, so
// "!(flags == 1)" holds when flags is absent.
//
// The same rules have a textual form, used by YAML schema catalogs:
//
//	p, err := expr.ParsePredicate("(flags & 0x3) == 2 && !(mode != 1)")
//	c, err := expr.ParseCount("some_count")
//
// Every predicate and count reports the fields it reads through Refs, which
// lets schemas verify that rules only look backwards.
package expr
