package expr

import (
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/wldfrag/field"
)

// Env resolves already-decoded fields by name. field.Fields implements it.
type Env interface {
	Lookup(name string) (field.Value, bool)
}

// Operand is an integer-valued term of a predicate.
type Operand interface {
	// Eval returns the operand value, or false if a referenced field is
	// missing, absent or not an integer.
	Eval(env Env) (int64, bool)
	// Refs returns the field names the operand reads.
	Refs() []string
	String() string
}

// Predicate is a boolean condition over already-decoded fields.
type Predicate interface {
	Holds(env Env) bool
	Refs() []string
	String() string
}

// Count yields a repetition count.
type Count interface {
	// Resolve returns the count, or false if the referenced field is missing,
	// absent or not an integer.
	Resolve(env Env) (int64, bool)
	Refs() []string
	String() string
}

type fieldRef struct{ name string }

// Field references the integer value of a prior field.
func Field(name string) Operand { return fieldRef{name: name} }

func (f fieldRef) Eval(env Env) (int64, bool) {
	v, ok := env.Lookup(f.name)
	if !ok {
		return 0, false
	}

	return field.Int(v)
}

func (f fieldRef) Refs() []string { return []string{f.name} }
func (f fieldRef) String() string { return f.name }

type literal struct{ v int64 }

// Literal is a constant operand.
func Literal(v int64) Operand { return literal{v: v} }

func (l literal) Eval(Env) (int64, bool) { return l.v, true }
func (l literal) Refs() []string         { return nil }
func (l literal) String() string         { return formatInt(l.v) }

type masked struct {
	name string
	mask int64
}

// Masked is a prior field's value ANDed with mask.
func Masked(name string, mask int64) Operand { return masked{name: name, mask: mask} }

func (m masked) Eval(env Env) (int64, bool) {
	v, ok := fieldRef{name: m.name}.Eval(env)
	if !ok {
		return 0, false
	}

	return v & m.mask, true
}

func (m masked) Refs() []string { return []string{m.name} }
func (m masked) String() string { return "(" + m.name + " & " + formatInt(m.mask) + ")" }

type test struct{ op Operand }

// Test holds when op resolves to a non-zero value.
func Test(op Operand) Predicate { return test{op: op} }

// BitSet holds when any bit of mask is set in the named field.
func BitSet(name string, mask int64) Predicate { return test{op: Masked(name, mask)} }

func (t test) Holds(env Env) bool {
	v, ok := t.op.Eval(env)
	return ok && v != 0
}

func (t test) Refs() []string { return t.op.Refs() }
func (t test) String() string { return t.op.String() }

type compare struct {
	a, b  Operand
	equal bool
}

// Equal holds when both operands resolve and are equal.
func Equal(a, b Operand) Predicate { return compare{a: a, b: b, equal: true} }

// NotEqual holds when both operands resolve and differ.
func NotEqual(a, b Operand) Predicate { return compare{a: a, b: b} }

func (c compare) Holds(env Env) bool {
	x, ok := c.a.Eval(env)
	if !ok {
		return false
	}
	y, ok := c.b.Eval(env)
	if !ok {
		return false
	}

	return (x == y) == c.equal
}

func (c compare) Refs() []string { return mergeRefs(c.a.Refs(), c.b.Refs()) }

func (c compare) String() string {
	op := " != "
	if c.equal {
		op = " == "
	}

	return c.a.String() + op + c.b.String()
}

type junction struct {
	terms []Predicate
	all   bool
}

// And holds when every term holds. An empty And always holds.
func And(terms ...Predicate) Predicate { return junction{terms: terms, all: true} }

// Or holds when any term holds. An empty Or never holds.
func Or(terms ...Predicate) Predicate { return junction{terms: terms} }

func (j junction) Holds(env Env) bool {
	for _, t := range j.terms {
		if t.Holds(env) != j.all {
			return !j.all
		}
	}

	return j.all
}

func (j junction) Refs() []string {
	var refs []string
	for _, t := range j.terms {
		refs = mergeRefs(refs, t.Refs())
	}

	return refs
}

func (j junction) String() string {
	op := " || "
	if j.all {
		op = " && "
	}
	parts := make([]string, len(j.terms))
	for i, t := range j.terms {
		parts[i] = t.String()
	}

	return "(" + strings.Join(parts, op) + ")"
}

type negation struct{ p Predicate }

// Not inverts p. Note that Not of a comparison over an absent field holds.
func Not(p Predicate) Predicate { return negation{p: p} }

func (n negation) Holds(env Env) bool { return !n.p.Holds(env) }
func (n negation) Refs() []string     { return n.p.Refs() }
func (n negation) String() string     { return "!(" + n.p.String() + ")" }

type countOf struct{ name string }

// CountOf uses a prior integer field as the count.
func CountOf(name string) Count { return countOf{name: name} }

func (c countOf) Resolve(env Env) (int64, bool) { return fieldRef(c).Eval(env) }
func (c countOf) Refs() []string                { return []string{c.name} }
func (c countOf) String() string                { return c.name }

type fixedCount struct{ n int64 }

// FixedCount is a literal count.
func FixedCount(n int64) Count { return fixedCount{n: n} }

func (c fixedCount) Resolve(Env) (int64, bool) { return c.n, true }
func (c fixedCount) Refs() []string            { return nil }
func (c fixedCount) String() string            { return strconv.FormatInt(c.n, 10) }

func formatInt(v int64) string {
	if v > 9 {
		return "0x" + strconv.FormatInt(v, 16)
	}

	return strconv.FormatInt(v, 10)
}

func mergeRefs(a, b []string) []string {
	for _, r := range b {
		if !slices.Contains(a, r) {
			a = append(a, r)
		}
	}

	return a
}
