package ast

import "github.com/atlas-lang/atlas/internal/span"

func (*WildcardPattern) patternNode() {}
func (*IdentPattern) patternNode()    {}
func (*LiteralPattern) patternNode()  {}

// WildcardPattern is `_`, matching anything without binding it.
type WildcardPattern struct{ SpanVal span.Span }

func (p *WildcardPattern) Span() span.Span { return p.SpanVal }
func (p *WildcardPattern) String() string  { return "_" }

// IdentPattern matches anything and binds it to Name.
type IdentPattern struct {
	SpanVal span.Span
	Name    string
}

func (p *IdentPattern) Span() span.Span { return p.SpanVal }
func (p *IdentPattern) String() string  { return p.Name }

// LiteralPattern matches only when the subject equals Value, which must
// be a literal expression (NumberLiteral, StringLiteral, BoolLiteral, or
// NullLiteral).
type LiteralPattern struct {
	SpanVal span.Span
	Value   Expr
}

func (p *LiteralPattern) Span() span.Span { return p.SpanVal }
func (p *LiteralPattern) String() string  { return p.Value.String() }
