package ast

import (
	"testing"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
)

func TestProgramSpanMergesItems(t *testing.T) {
	a := &LetDecl{SpanVal: span.New(0, 5), Name: "x", Value: &NumberLiteral{SpanVal: span.New(4, 5), Value: 1}}
	b := &LetDecl{SpanVal: span.New(6, 12), Name: "y", Value: &NumberLiteral{SpanVal: span.New(10, 12), Value: 2}}
	p := &Program{Items: []Item{a, b}}
	got := p.Span()
	if got.Start != 0 || got.End != 12 {
		t.Fatalf("Program.Span() = %v, want 0..12", got)
	}
}

func TestBinaryExprString(t *testing.T) {
	lit := func(v float64) Expr { return &NumberLiteral{Value: v} }
	e := &BinaryExpr{X: lit(1), Op: token.PLUS, Y: lit(2)}
	if e.String() == "" {
		t.Fatal("expected non-empty string representation")
	}
}

func TestDumpProgramIncludesSpans(t *testing.T) {
	p := &Program{Items: []Item{
		&LetDecl{SpanVal: span.New(0, 10), Name: "x", Value: &NumberLiteral{SpanVal: span.New(8, 9), Value: 1}},
	}}
	dumped := Dump(p).(map[string]any)
	if dumped["kind"] != "Program" {
		t.Fatalf("expected kind Program, got %v", dumped["kind"])
	}
	items := dumped["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	sp := items[0].(map[string]any)["span"].(map[string]any)
	if sp["start"] != 0 || sp["end"] != 10 {
		t.Fatalf("expected item span 0..10, got %v", sp)
	}
}

func TestErrorExprIsAnExpr(t *testing.T) {
	var e Expr = &ErrorExpr{SpanVal: span.New(3, 3)}
	if e.String() != "<error>" {
		t.Fatalf("ErrorExpr.String() = %q", e.String())
	}
}
