package ast

import (
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
)

func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*ForInStmt) stmtNode()    {}
func (*ExprStmt) stmtNode()     {}
func (*AssignStmt) stmtNode()   {}
func (*LetStmt) stmtNode()      {}
func (*VarStmt) stmtNode()      {}

// Statements double as top-level Items so a script-style source file
// (spec.md §8 scenarios 1-4: a bare expression, or a mix of var/while
// statements, with no surrounding `fn main`) parses as an ordinary
// Program instead of requiring an artificial wrapper function. Atlas's
// grammar (spec.md §3) lists Item as declarations only; this is a
// deliberate generalization documented in DESIGN.md, needed because the
// testable scenarios in spec.md §8 are themselves bare top-level
// statement sequences.
func (*ReturnStmt) itemNode()   {}
func (*BreakStmt) itemNode()    {}
func (*ContinueStmt) itemNode() {}
func (*WhileStmt) itemNode()    {}
func (*ForStmt) itemNode()      {}
func (*ForInStmt) itemNode()    {}
func (*ExprStmt) itemNode()     {}
func (*AssignStmt) itemNode()   {}

// ReturnStmt returns Value (nil for a bare `return;`, equivalent to
// returning null from a void function).
type ReturnStmt struct {
	SpanVal span.Span
	Value   Expr
}

func (n *ReturnStmt) Span() span.Span { return n.SpanVal }
func (n *ReturnStmt) String() string {
	if n.Value == nil {
		return "return;"
	}
	return "return " + n.Value.String() + ";"
}

// BreakStmt exits the nearest enclosing loop.
type BreakStmt struct{ SpanVal span.Span }

func (n *BreakStmt) Span() span.Span { return n.SpanVal }
func (n *BreakStmt) String() string  { return "break;" }

// ContinueStmt skips to the next iteration of the nearest enclosing loop.
type ContinueStmt struct{ SpanVal span.Span }

func (n *ContinueStmt) Span() span.Span { return n.SpanVal }
func (n *ContinueStmt) String() string  { return "continue;" }

// WhileStmt loops while Cond is truthy.
type WhileStmt struct {
	SpanVal span.Span
	Cond    Expr
	Body    *BlockExpr
}

func (n *WhileStmt) Span() span.Span { return n.SpanVal }
func (n *WhileStmt) String() string {
	return "while (" + n.Cond.String() + ") " + n.Body.String()
}

// ForStmt is the classic three-part `for (init; cond; post) body` loop.
// Init and Post may be nil.
type ForStmt struct {
	SpanVal span.Span
	Init    Stmt
	Cond    Expr
	Post    Stmt
	Body    *BlockExpr
}

func (n *ForStmt) Span() span.Span { return n.SpanVal }
func (n *ForStmt) String() string {
	var sb strings.Builder
	sb.WriteString("for (")
	if n.Init != nil {
		sb.WriteString(n.Init.String())
	}
	sb.WriteString(" ")
	if n.Cond != nil {
		sb.WriteString(n.Cond.String())
	}
	sb.WriteString("; ")
	if n.Post != nil {
		sb.WriteString(n.Post.String())
	}
	sb.WriteString(") ")
	sb.WriteString(n.Body.String())
	return sb.String()
}

// ForInStmt iterates Iterable, binding each element (or, for objects,
// each key) to Name.
type ForInStmt struct {
	SpanVal  span.Span
	Name     string
	Iterable Expr
	Body     *BlockExpr
}

func (n *ForInStmt) Span() span.Span { return n.SpanVal }
func (n *ForInStmt) String() string {
	return "for (" + n.Name + " in " + n.Iterable.String() + ") " + n.Body.String()
}

// ExprStmt evaluates X and discards the result.
type ExprStmt struct {
	SpanVal span.Span
	X       Expr
}

func (n *ExprStmt) Span() span.Span { return n.SpanVal }
func (n *ExprStmt) String() string  { return n.X.String() + ";" }

// AssignStmt is a simple (`=`) or compound (`+=`, `-=`, ...) assignment
// to an lvalue (identifier, index, or member expression).
type AssignStmt struct {
	SpanVal span.Span
	Target  Expr
	Op      token.Kind
	Value   Expr
}

func (n *AssignStmt) Span() span.Span { return n.SpanVal }
func (n *AssignStmt) String() string {
	return n.Target.String() + " " + n.Op.String() + " " + n.Value.String() + ";"
}

// LetStmt is a local immutable binding. Mutable is normally false;
// it exists so LetStmt and VarStmt can share shape in tooling that
// walks both uniformly (spec.md §3: "LetDecl(mut?)").
type LetStmt struct {
	SpanVal span.Span
	Name    string
	TypeAnn TypeExpr // nil if inferred
	Value   Expr
	Mutable bool
}

func (n *LetStmt) Span() span.Span { return n.SpanVal }
func (n *LetStmt) String() string {
	s := "let " + n.Name
	if n.TypeAnn != nil {
		s += ": " + n.TypeAnn.String()
	}
	return s + " = " + n.Value.String() + ";"
}

// VarStmt is a local mutable binding.
type VarStmt struct {
	SpanVal span.Span
	Name    string
	TypeAnn TypeExpr
	Value   Expr
}

func (n *VarStmt) Span() span.Span { return n.SpanVal }
func (n *VarStmt) String() string {
	s := "var " + n.Name
	if n.TypeAnn != nil {
		s += ": " + n.TypeAnn.String()
	}
	return s + " = " + n.Value.String() + ";"
}
