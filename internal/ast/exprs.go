package ast

import (
	"strconv"
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
)

func (*Identifier) exprNode()    {}
func (*NumberLiteral) exprNode() {}
func (*StringLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*NullLiteral) exprNode()   {}
func (*ArrayLiteral) exprNode()  {}
func (*ObjectLiteral) exprNode() {}
func (*UnaryExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*LogicalExpr) exprNode()   {}
func (*PostfixExpr) exprNode()   {}
func (*CallExpr) exprNode()      {}
func (*IndexExpr) exprNode()     {}
func (*MemberExpr) exprNode()    {}
func (*IfExpr) exprNode()        {}
func (*BlockExpr) exprNode()     {}
func (*MatchExpr) exprNode()     {}
func (*LambdaExpr) exprNode()    {}
func (*ErrorExpr) exprNode()     {}

// Identifier is a reference to a bound name.
type Identifier struct {
	SpanVal span.Span
	Name    string
}

func (n *Identifier) Span() span.Span { return n.SpanVal }
func (n *Identifier) String() string  { return n.Name }

// NumberLiteral is a numeric literal; all Atlas numbers are float64,
// per spec.md §3 (no separate integer runtime type).
type NumberLiteral struct {
	SpanVal span.Span
	Value   float64
}

func (n *NumberLiteral) Span() span.Span { return n.SpanVal }
func (n *NumberLiteral) String() string  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// StringLiteral is a string literal with escapes already resolved by
// the lexer.
type StringLiteral struct {
	SpanVal span.Span
	Value   string
}

func (n *StringLiteral) Span() span.Span { return n.SpanVal }
func (n *StringLiteral) String() string  { return strconv.Quote(n.Value) }

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	SpanVal span.Span
	Value   bool
}

func (n *BoolLiteral) Span() span.Span { return n.SpanVal }
func (n *BoolLiteral) String() string  { return strconv.FormatBool(n.Value) }

// NullLiteral is the `null` literal.
type NullLiteral struct {
	SpanVal span.Span
}

func (n *NullLiteral) Span() span.Span { return n.SpanVal }
func (n *NullLiteral) String() string  { return "null" }

// ArrayLiteral constructs a new array value.
type ArrayLiteral struct {
	SpanVal  span.Span
	Elements []Expr
}

func (n *ArrayLiteral) Span() span.Span { return n.SpanVal }
func (n *ArrayLiteral) String() string {
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectLiteral constructs a new object value from parallel key/value
// slices (object keys are always plain identifiers or strings, not
// computed expressions).
type ObjectLiteral struct {
	SpanVal span.Span
	Keys    []string
	Values  []Expr
}

func (n *ObjectLiteral) Span() span.Span { return n.SpanVal }
func (n *ObjectLiteral) String() string {
	parts := make([]string, len(n.Keys))
	for i := range n.Keys {
		parts[i] = n.Keys[i] + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnaryExpr is a prefix unary operation: -x or !x.
type UnaryExpr struct {
	SpanVal span.Span
	Op      token.Kind
	X       Expr
}

func (n *UnaryExpr) Span() span.Span { return n.SpanVal }
func (n *UnaryExpr) String() string  { return n.Op.String() + n.X.String() }

// BinaryExpr is a non-short-circuiting binary operation: arithmetic,
// comparison, or equality.
type BinaryExpr struct {
	SpanVal span.Span
	Op      token.Kind
	X, Y    Expr
}

func (n *BinaryExpr) Span() span.Span { return n.SpanVal }
func (n *BinaryExpr) String() string {
	return "(" + n.X.String() + " " + n.Op.String() + " " + n.Y.String() + ")"
}

// LogicalExpr is `&&` or `||`. It is kept distinct from BinaryExpr
// because both engines must compile it to a short-circuiting jump
// rather than evaluating both operands (spec.md §4.5, §8).
type LogicalExpr struct {
	SpanVal span.Span
	Op      token.Kind // token.AND or token.OR
	X, Y    Expr
}

func (n *LogicalExpr) Span() span.Span { return n.SpanVal }
func (n *LogicalExpr) String() string {
	return "(" + n.X.String() + " " + n.Op.String() + " " + n.Y.String() + ")"
}

// PostfixExpr is `x++` or `x--`.
type PostfixExpr struct {
	SpanVal span.Span
	Op      token.Kind
	X       Expr
}

func (n *PostfixExpr) Span() span.Span { return n.SpanVal }
func (n *PostfixExpr) String() string  { return n.X.String() + n.Op.String() }

// CallExpr applies Callee to Args.
type CallExpr struct {
	SpanVal span.Span
	Callee  Expr
	Args    []Expr
}

func (n *CallExpr) Span() span.Span { return n.SpanVal }
func (n *CallExpr) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	SpanVal span.Span
	X       Expr
	Index   Expr
}

func (n *IndexExpr) Span() span.Span { return n.SpanVal }
func (n *IndexExpr) String() string  { return n.X.String() + "[" + n.Index.String() + "]" }

// MemberExpr is `x.name`, used both for object field access and for
// method-call receivers (`x.push(1)` parses as CallExpr{Callee:
// MemberExpr{X: x, Name: "push"}}).
type MemberExpr struct {
	SpanVal span.Span
	X       Expr
	Name    string
}

func (n *MemberExpr) Span() span.Span { return n.SpanVal }
func (n *MemberExpr) String() string  { return n.X.String() + "." + n.Name }

// IfExpr is `if (cond) then else`, usable as both a statement and an
// expression. Else may be nil, another IfExpr (else-if chain), or a
// BlockExpr.
type IfExpr struct {
	SpanVal span.Span
	Cond    Expr
	Then    *BlockExpr
	Else    Expr
}

func (n *IfExpr) Span() span.Span { return n.SpanVal }
func (n *IfExpr) String() string {
	s := "if (" + n.Cond.String() + ") " + n.Then.String()
	if n.Else != nil {
		s += " else " + n.Else.String()
	}
	return s
}

// BlockExpr is `{ stmts...; tailExpr }`. Tail is nil if the block ends
// with a statement rather than a trailing expression, in which case the
// block's value is Null.
type BlockExpr struct {
	SpanVal span.Span
	Stmts   []Stmt
	Tail    Expr
}

func (n *BlockExpr) Span() span.Span { return n.SpanVal }
func (n *BlockExpr) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, s := range n.Stmts {
		sb.WriteString(s.String())
		sb.WriteString(" ")
	}
	if n.Tail != nil {
		sb.WriteString(n.Tail.String())
		sb.WriteString(" ")
	}
	sb.WriteString("}")
	return sb.String()
}

// MatchArm is one `pattern [if guard] => body` arm of a MatchExpr.
type MatchArm struct {
	SpanVal span.Span
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

func (a *MatchArm) Span() span.Span { return a.SpanVal }
func (a *MatchArm) String() string {
	s := a.Pattern.String()
	if a.Guard != nil {
		s += " if " + a.Guard.String()
	}
	return s + " => " + a.Body.String()
}

// MatchExpr is a `match` expression over a subject with a list of arms.
type MatchExpr struct {
	SpanVal span.Span
	Subject Expr
	Arms    []*MatchArm
}

func (n *MatchExpr) Span() span.Span { return n.SpanVal }
func (n *MatchExpr) String() string {
	parts := make([]string, len(n.Arms))
	for i, a := range n.Arms {
		parts[i] = a.String()
	}
	return "match (" + n.Subject.String() + ") { " + strings.Join(parts, ", ") + " }"
}

// LambdaExpr is either a `fn(params) { body }` function expression or
// an arrow `(params) => expr` expression; IsArrow distinguishes the
// surface syntax (both compile identically).
type LambdaExpr struct {
	SpanVal    span.Span
	Params     []*Param
	ReturnType TypeExpr // nil if unannotated
	Body       Expr     // a BlockExpr for `fn`, any Expr for arrow form
	IsArrow    bool
}

func (n *LambdaExpr) Span() span.Span { return n.SpanVal }
func (n *LambdaExpr) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	params := "(" + strings.Join(parts, ", ") + ")"
	if n.IsArrow {
		return params + " => " + n.Body.String()
	}
	return "fn" + params + " " + n.Body.String()
}

// ErrorExpr is a parser-inserted sentinel standing in for a subtree the
// parser could not build after a syntax error, so downstream stages can
// still typecheck around the gap (spec.md §4.2: "the parser never
// returns a null AST").
type ErrorExpr struct {
	SpanVal span.Span
}

func (n *ErrorExpr) Span() span.Span { return n.SpanVal }
func (n *ErrorExpr) String() string  { return "<error>" }
