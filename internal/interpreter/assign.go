package interpreter

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/value"
)

// lvalue abstracts over the three assignable expression shapes
// (identifier, index, member), mirroring internal/compiler's lvalue.go
// but without the synthetic-local juggling a tree-walker doesn't need:
// receiver and index/key are evaluated once into Go locals instead of
// compiler-managed stack slots.
type lvalue struct {
	get func() (value.Value, *diag.Diagnostic)
	set func(value.Value) *diag.Diagnostic
}

func (in *Interpreter) resolveLValue(env *environment, target ast.Expr) (lvalue, *diag.Diagnostic) {
	switch t := target.(type) {
	case *ast.Identifier:
		cell, ok := env.lookup(t.Name)
		if !ok {
			return lvalue{}, typeErr(t.SpanVal, "unresolved identifier %q", t.Name)
		}
		return lvalue{
			get: func() (value.Value, *diag.Diagnostic) { return cell.V, nil },
			set: func(v value.Value) *diag.Diagnostic { cell.V = v; return nil },
		}, nil

	case *ast.IndexExpr:
		recv, derr := in.eval(env, t.X)
		if derr != nil {
			return lvalue{}, derr
		}
		idx, derr := in.eval(env, t.Index)
		if derr != nil {
			return lvalue{}, derr
		}
		sp := t.SpanVal
		return lvalue{
			get: func() (value.Value, *diag.Diagnostic) { return indexGet(recv, idx, sp) },
			set: func(v value.Value) *diag.Diagnostic { return indexSet(recv, idx, v, sp) },
		}, nil

	case *ast.MemberExpr:
		recv, derr := in.eval(env, t.X)
		if derr != nil {
			return lvalue{}, derr
		}
		sp := t.SpanVal
		return lvalue{
			get: func() (value.Value, *diag.Diagnostic) { return memberGet(recv, t.Name, sp) },
			set: func(v value.Value) *diag.Diagnostic { return memberSet(recv, t.Name, v, sp) },
		}, nil

	default:
		return lvalue{}, typeErr(target.Span(), "%T is not assignable", target)
	}
}

// compoundArith maps a compound-assignment token to the arithmetic
// token it desugars to, the tree-walker's analog of
// internal/compiler's compoundOps table.
var compoundArith = map[token.Kind]token.Kind{
	token.PLUSEQ:    token.PLUS,
	token.MINUSEQ:   token.MINUS,
	token.STAREQ:    token.STAR,
	token.SLASHEQ:   token.SLASH,
	token.PERCENTEQ: token.PERCENT,
}

func (in *Interpreter) execAssign(env *environment, s *ast.AssignStmt) *diag.Diagnostic {
	lv, derr := in.resolveLValue(env, s.Target)
	if derr != nil {
		return derr
	}
	newVal, derr := in.eval(env, s.Value)
	if derr != nil {
		return derr
	}
	if arithOp, isCompound := compoundArith[s.Op]; isCompound {
		cur, derr := lv.get()
		if derr != nil {
			return derr
		}
		newVal, derr = arith(arithOp, cur, newVal, s.SpanVal)
		if derr != nil {
			return derr
		}
	}
	return lv.set(newVal)
}

// evalPostfix implements `x++`/`x--`, evaluating to the pre-increment/
// decrement value per DESIGN.md's documented choice (matching
// internal/compiler's compilePostfix).
func (in *Interpreter) evalPostfix(env *environment, n *ast.PostfixExpr) (value.Value, *diag.Diagnostic) {
	lv, derr := in.resolveLValue(env, n.X)
	if derr != nil {
		return nil, derr
	}
	cur, derr := lv.get()
	if derr != nil {
		return nil, derr
	}
	arithOp := token.PLUS
	if n.Op == token.DEC {
		arithOp = token.MINUS
	}
	next, derr := arith(arithOp, cur, value.Number(1), n.SpanVal)
	if derr != nil {
		return nil, derr
	}
	if derr := lv.set(next); derr != nil {
		return nil, derr
	}
	return cur, nil
}
