package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/arloliu/wldfrag/errs"
)

// Grammar of the textual predicate form. "&" binds tighter than "==" so
// "flags & 0x3 == 2" compares the masked value.
//
//	or      = and { "||" and }
//	and     = unary { "&&" unary }
//	unary   = "!" unary | cmp | "(" or ")"
//	cmp     = operand [ ("==" | "!=") operand ]
//	operand = "(" term ")" | term | Int
//	term    = Ident [ "&" Int ]
//
//nolint:govet // participle grammar tags are not standard struct tags
type orNode struct {
	Terms []*andNode `@@ ( "||" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type andNode struct {
	Terms []*unaryNode `@@ ( "&&" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type unaryNode struct {
	Not   *unaryNode `  "!" @@`
	Cmp   *cmpNode   `| @@`
	Group *orNode    `| "(" @@ ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type cmpNode struct {
	Left  *operandNode `@@`
	Op    string       `( @( "==" | "!=" )`
	Right *operandNode `  @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type operandNode struct {
	Paren *termNode `  "(" @@ ")"`
	Term  *termNode `| @@`
	Int   *string   `| @Int`
}

//nolint:govet // participle grammar tags are not standard struct tags
type termNode struct {
	Name string  `@Ident`
	Mask *string `( "&" @Int )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type countNode struct {
	Name *string `  @Ident`
	Int  *string `| @Int`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `-?(0[xX][0-9a-fA-F]+|[0-9]+)`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Op", Pattern: `==|!=|&&|\|\||[&!()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var predicateParser = participle.MustBuild[orNode](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(16),
)

var countParser = participle.MustBuild[countNode](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// ParsePredicate parses the textual form of a presence predicate.
//
// Supported forms:
//   - "flags & 0x01" (any masked bit set)
//   - "flags == 0x01", "mode != 2"
//   - "(flags & 0x3) == 2" or "flags & 0x3 == 2"
//   - "a == 1 && !(b & 0x4) || c" with the usual precedence
//   - "flags" (non-zero)
//
// Parameters:
//   - text: Predicate source
//
// Returns:
//   - Predicate: Parsed predicate
//   - error: ErrInvalidExpression on syntax errors or out of range literals
func ParsePredicate(text string) (Predicate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty predicate", errs.ErrInvalidExpression)
	}

	ast, err := predicateParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errs.ErrInvalidExpression, text, err)
	}

	p, err := ast.predicate()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errs.ErrInvalidExpression, text, err)
	}

	return p, nil
}

// MustParsePredicate is like ParsePredicate but panics on error. It is meant
// for package-level schema definitions.
func MustParsePredicate(text string) Predicate {
	p, err := ParsePredicate(text)
	if err != nil {
		panic(err)
	}

	return p
}

// ParseCount parses a count: either a field name or a non-negative literal.
func ParseCount(text string) (Count, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty count", errs.ErrInvalidExpression)
	}

	ast, err := countParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errs.ErrInvalidExpression, text, err)
	}

	if ast.Name != nil {
		return CountOf(*ast.Name), nil
	}

	n, err := parseInt(*ast.Int)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errs.ErrInvalidExpression, text, err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %q: negative count", errs.ErrInvalidExpression, text)
	}

	return FixedCount(n), nil
}

func (n *orNode) predicate() (Predicate, error) {
	terms := make([]Predicate, 0, len(n.Terms))
	for _, t := range n.Terms {
		p, err := t.predicate()
		if err != nil {
			return nil, err
		}
		terms = append(terms, p)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}

	return Or(terms...), nil
}

func (n *andNode) predicate() (Predicate, error) {
	terms := make([]Predicate, 0, len(n.Terms))
	for _, t := range n.Terms {
		p, err := t.predicate()
		if err != nil {
			return nil, err
		}
		terms = append(terms, p)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}

	return And(terms...), nil
}

func (n *unaryNode) predicate() (Predicate, error) {
	switch {
	case n.Not != nil:
		p, err := n.Not.predicate()
		if err != nil {
			return nil, err
		}

		return Not(p), nil
	case n.Cmp != nil:
		return n.Cmp.predicate()
	default:
		return n.Group.predicate()
	}
}

func (n *cmpNode) predicate() (Predicate, error) {
	left, err := n.Left.operand()
	if err != nil {
		return nil, err
	}
	if n.Op == "" {
		return Test(left), nil
	}

	right, err := n.Right.operand()
	if err != nil {
		return nil, err
	}
	if n.Op == "==" {
		return Equal(left, right), nil
	}

	return NotEqual(left, right), nil
}

func (n *operandNode) operand() (Operand, error) {
	switch {
	case n.Paren != nil:
		return n.Paren.operand()
	case n.Term != nil:
		return n.Term.operand()
	default:
		v, err := parseInt(*n.Int)
		if err != nil {
			return nil, err
		}

		return Literal(v), nil
	}
}

func (n *termNode) operand() (Operand, error) {
	if n.Mask == nil {
		return Field(n.Name), nil
	}

	mask, err := parseInt(*n.Mask)
	if err != nil {
		return nil, err
	}

	return Masked(n.Name, mask), nil
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}
