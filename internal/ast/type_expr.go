package ast

import (
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
)

func (*NamedTypeExpr) typeExprNode()    {}
func (*ArrayTypeExpr) typeExprNode()    {}
func (*FunctionTypeExpr) typeExprNode() {}
func (*OptionTypeExpr) typeExprNode()   {}
func (*ResultTypeExpr) typeExprNode()   {}
func (*UnionTypeExpr) typeExprNode()    {}

// NamedTypeExpr is a plain or generic named type reference, e.g.
// `number`, `string`, or a user type `Pair<A, B>`.
type NamedTypeExpr struct {
	SpanVal span.Span
	Name    string
	Args    []TypeExpr // empty for non-generic references
}

func (n *NamedTypeExpr) Span() span.Span { return n.SpanVal }
func (n *NamedTypeExpr) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name + "<" + strings.Join(parts, ", ") + ">"
}

// ArrayTypeExpr is `Elem[]`.
type ArrayTypeExpr struct {
	SpanVal span.Span
	Elem    TypeExpr
}

func (n *ArrayTypeExpr) Span() span.Span { return n.SpanVal }
func (n *ArrayTypeExpr) String() string  { return n.Elem.String() + "[]" }

// FunctionTypeExpr is `(Params) -> Return`.
type FunctionTypeExpr struct {
	SpanVal span.Span
	Params  []TypeExpr
	Return  TypeExpr
}

func (n *FunctionTypeExpr) Span() span.Span { return n.SpanVal }
func (n *FunctionTypeExpr) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + n.Return.String()
}

// OptionTypeExpr is `Option<Inner>`.
type OptionTypeExpr struct {
	SpanVal span.Span
	Inner   TypeExpr
}

func (n *OptionTypeExpr) Span() span.Span { return n.SpanVal }
func (n *OptionTypeExpr) String() string  { return "Option<" + n.Inner.String() + ">" }

// ResultTypeExpr is `Result<Ok, Err>`.
type ResultTypeExpr struct {
	SpanVal  span.Span
	Ok, Err TypeExpr
}

func (n *ResultTypeExpr) Span() span.Span { return n.SpanVal }
func (n *ResultTypeExpr) String() string {
	return "Result<" + n.Ok.String() + ", " + n.Err.String() + ">"
}

// UnionTypeExpr is `A | B | C`.
type UnionTypeExpr struct {
	SpanVal span.Span
	Members []TypeExpr
}

func (n *UnionTypeExpr) Span() span.Span { return n.SpanVal }
func (n *UnionTypeExpr) String() string {
	parts := make([]string, len(n.Members))
	for i, m := range n.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
