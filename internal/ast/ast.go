// Package ast defines the Atlas abstract syntax tree: items, statements,
// expressions, type expressions, and match patterns. Every node carries
// a Span so the frontend can point at it precisely (spec invariant:
// every AST node's span lies within the source buffer).
//
// The node-interface shape (a base Node plus marker methods for each
// syntactic category) is the same design the teacher's internal/ast
// package uses (Node / Expression / Statement), generalized here with
// one more category (TypeExpr) because Atlas's type annotations are
// richer than DWScript's.
package ast

import (
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
)

// Node is the base interface every AST node implements.
type Node interface {
	Span() span.Span
	String() string
}

// Item is a top-level declaration: Program = ordered sequence of Item.
type Item interface {
	Node
	itemNode()
}

// Stmt is a statement: performs an action but does not itself produce a
// value (though it may contain expressions that do).
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// TypeExpr is a surface-syntax type annotation, as written by the user
// (distinct from internal/types.Type, the resolved type produced by the
// typechecker).
type TypeExpr interface {
	Node
	typeExprNode()
}

// Pattern is a match-arm pattern.
type Pattern interface {
	Node
	patternNode()
}

// Program is the root of the AST.
type Program struct {
	Items []Item
}

func (p *Program) Span() span.Span {
	if len(p.Items) == 0 {
		return span.Dummy()
	}
	return p.Items[0].Span().Merge(p.Items[len(p.Items)-1].Span())
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, it := range p.Items {
		sb.WriteString(it.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Ownership annotates a function parameter per spec.md §4.4.
type Ownership int

const (
	OwnershipDefault Ownership = iota // unannotated: behaves like borrow
	OwnershipOwn
	OwnershipBorrow
)

func (o Ownership) String() string {
	switch o {
	case OwnershipOwn:
		return "own"
	case OwnershipBorrow:
		return "borrow"
	default:
		return ""
	}
}

// Param is a function parameter: a name, an optional type annotation,
// and an ownership mode.
type Param struct {
	SpanVal   span.Span
	Name      string
	TypeAnn   TypeExpr // nil if unannotated (lambda params may omit types)
	Ownership Ownership
}

func (p *Param) Span() span.Span { return p.SpanVal }
func (p *Param) String() string {
	prefix := ""
	if p.Ownership != OwnershipDefault {
		prefix = p.Ownership.String() + " "
	}
	if p.TypeAnn != nil {
		return prefix + p.Name + ": " + p.TypeAnn.String()
	}
	return prefix + p.Name
}
