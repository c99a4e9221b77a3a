package ast

import (
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
)

func (*ProgramTail) itemNode() {}
func (*FnDecl) itemNode()     {}
func (*FnDecl) stmtNode()     {} // nested function declarations are valid statements
func (*LetDecl) itemNode()    {}
func (*VarDecl) itemNode()    {}
func (*ExportDecl) itemNode() {}
func (*ImportDecl) itemNode() {}
func (*TypeDecl) itemNode()   {}
func (*TraitDecl) itemNode()  {}

// FnDecl is a top-level (or nested) function declaration. Nested
// FnDecls appear as an ExprStmt-free BlockExpr member by being parsed
// as a statement-position item; the binder hoists every FnDecl in a
// scope before resolving bodies (spec.md §3: "forward references").
type FnDecl struct {
	SpanVal    span.Span
	Name       string
	TypeParams []string
	Params     []*Param
	ReturnType TypeExpr // nil means inferred void/Unknown
	Body       *BlockExpr
}

func (n *FnDecl) Span() span.Span { return n.SpanVal }
func (n *FnDecl) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	s := "fn " + n.Name
	if len(n.TypeParams) > 0 {
		s += "<" + strings.Join(n.TypeParams, ", ") + ">"
	}
	s += "(" + strings.Join(parts, ", ") + ")"
	if n.ReturnType != nil {
		s += " -> " + n.ReturnType.String()
	}
	return s + " " + n.Body.String()
}

// ProgramTail is the final, semicolon-less expression of a script-style
// program, analogous to BlockExpr.Tail: its value is the whole program's
// result (spec.md §8 scenario 1: `"1 + 2 * 3"` -> Number(7)). At most one
// may appear, and only as the last item parsed (parser.ParseProgram
// stops once it sees one).
type ProgramTail struct {
	SpanVal span.Span
	X       Expr
}

func (n *ProgramTail) Span() span.Span { return n.SpanVal }
func (n *ProgramTail) String() string  { return n.X.String() }

// LetDecl is a top-level immutable binding.
type LetDecl struct {
	SpanVal span.Span
	Name    string
	TypeAnn TypeExpr
	Value   Expr
	Mutable bool
}

func (n *LetDecl) Span() span.Span { return n.SpanVal }
func (n *LetDecl) String() string  { return "let " + n.Name + " = " + n.Value.String() + ";" }

// VarDecl is a top-level mutable binding.
type VarDecl struct {
	SpanVal span.Span
	Name    string
	TypeAnn TypeExpr
	Value   Expr
}

func (n *VarDecl) Span() span.Span { return n.SpanVal }
func (n *VarDecl) String() string  { return "var " + n.Name + " = " + n.Value.String() + ";" }

// ExportDecl wraps another item to mark it as part of the module's
// public surface.
type ExportDecl struct {
	SpanVal span.Span
	Inner   Item
}

func (n *ExportDecl) Span() span.Span { return n.SpanVal }
func (n *ExportDecl) String() string  { return "export " + n.Inner.String() }

// ImportDecl brings Names from Path into scope (module resolution
// itself is an external collaborator; the binder only needs to know
// which names become visible).
type ImportDecl struct {
	SpanVal span.Span
	Path    string
	Names   []string
}

func (n *ImportDecl) Span() span.Span { return n.SpanVal }
func (n *ImportDecl) String() string {
	return "import { " + strings.Join(n.Names, ", ") + " } from \"" + n.Path + "\";"
}

// TypeDecl introduces a named type alias: `type Name<Params> = Def;`.
type TypeDecl struct {
	SpanVal    span.Span
	Name       string
	TypeParams []string
	Def        TypeExpr
}

func (n *TypeDecl) Span() span.Span { return n.SpanVal }
func (n *TypeDecl) String() string {
	s := "type " + n.Name
	if len(n.TypeParams) > 0 {
		s += "<" + strings.Join(n.TypeParams, ", ") + ">"
	}
	return s + " = " + n.Def.String() + ";"
}

// TraitMethodSig is one method signature inside a trait declaration.
type TraitMethodSig struct {
	SpanVal    span.Span
	Name       string
	Params     []*Param
	ReturnType TypeExpr
}

func (s *TraitMethodSig) Span() span.Span { return s.SpanVal }
func (s *TraitMethodSig) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	sig := "fn " + s.Name + "(" + strings.Join(parts, ", ") + ")"
	if s.ReturnType != nil {
		sig += " -> " + s.ReturnType.String()
	}
	return sig + ";"
}

// TraitDecl declares a named set of method signatures.
type TraitDecl struct {
	SpanVal span.Span
	Name    string
	Methods []*TraitMethodSig
}

func (n *TraitDecl) Span() span.Span { return n.SpanVal }
func (n *TraitDecl) String() string {
	var sb strings.Builder
	sb.WriteString("trait " + n.Name + " { ")
	for _, m := range n.Methods {
		sb.WriteString(m.String())
		sb.WriteString(" ")
	}
	sb.WriteString("}")
	return sb.String()
}
