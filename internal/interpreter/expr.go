package interpreter

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/value"
)

// eval evaluates expr in env to a single value.Value, the tree-walker's
// core dispatch (grounded in the teacher's Interpreter.Eval big type
// switch).
func (in *Interpreter) eval(env *environment, expr ast.Expr) (value.Value, *diag.Diagnostic) {
	switch e := expr.(type) {
	case *ast.Identifier:
		cell, ok := env.lookup(e.Name)
		if !ok {
			return nil, typeErr(e.SpanVal, "unresolved identifier %q", e.Name)
		}
		return cell.V, nil

	case *ast.NumberLiteral:
		return value.Number(e.Value), nil
	case *ast.StringLiteral:
		return value.String(e.Value), nil
	case *ast.BoolLiteral:
		return value.Bool(e.Value), nil
	case *ast.NullLiteral:
		return value.TheNull, nil

	case *ast.ArrayLiteral:
		elems := make([]value.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, derr := in.eval(env, el)
			if derr != nil {
				return nil, derr
			}
			elems[i] = v
		}
		return value.NewArray(elems), nil

	case *ast.ObjectLiteral:
		obj := value.NewObject()
		for i, k := range e.Keys {
			v, derr := in.eval(env, e.Values[i])
			if derr != nil {
				return nil, derr
			}
			obj.Set(k, v)
		}
		return obj, nil

	case *ast.UnaryExpr:
		x, derr := in.eval(env, e.X)
		if derr != nil {
			return nil, derr
		}
		return unaryOp(e.Op, x, e.SpanVal)

	case *ast.BinaryExpr:
		return in.evalBinary(env, e)

	case *ast.LogicalExpr:
		return in.evalLogical(env, e)

	case *ast.PostfixExpr:
		return in.evalPostfix(env, e)

	case *ast.CallExpr:
		return in.evalCall(env, e)

	case *ast.IndexExpr:
		recv, derr := in.eval(env, e.X)
		if derr != nil {
			return nil, derr
		}
		idx, derr := in.eval(env, e.Index)
		if derr != nil {
			return nil, derr
		}
		return indexGet(recv, idx, e.SpanVal)

	case *ast.MemberExpr:
		recv, derr := in.eval(env, e.X)
		if derr != nil {
			return nil, derr
		}
		return memberGet(recv, e.Name, e.SpanVal)

	case *ast.IfExpr:
		return in.evalIf(env, e)

	case *ast.BlockExpr:
		v, sig, derr := in.evalBlock(env, e)
		if derr != nil {
			return nil, derr
		}
		if sig.kind != sigNone {
			return nil, typeErr(e.SpanVal, "break/continue/return cannot escape a block expression")
		}
		return v, nil

	case *ast.MatchExpr:
		return in.evalMatch(env, e)

	case *ast.LambdaExpr:
		return &value.Function{
			Name:  "",
			Arity: len(e.Params),
			Code:  closure{params: e.Params, body: e.Body, env: env},
		}, nil

	case *ast.ErrorExpr:
		return nil, typeErr(e.SpanVal, "cannot evaluate a syntax-error placeholder")

	default:
		return nil, typeErr(expr.Span(), "unsupported expression %T", expr)
	}
}

func (in *Interpreter) evalBinary(env *environment, e *ast.BinaryExpr) (value.Value, *diag.Diagnostic) {
	x, derr := in.eval(env, e.X)
	if derr != nil {
		return nil, derr
	}
	y, derr := in.eval(env, e.Y)
	if derr != nil {
		return nil, derr
	}
	switch e.Op {
	case token.EQ:
		return value.Bool(value.Equals(x, y)), nil
	case token.NEQ:
		return value.Bool(!value.Equals(x, y)), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		return compare(e.Op, x, y, e.SpanVal)
	default:
		return arith(e.Op, x, y, e.SpanVal)
	}
}

// evalLogical implements `&&`/`||` short-circuiting: y is only
// evaluated when x's truthiness doesn't already decide the result
// (mirrors internal/compiler's compileLogical Dup+JumpIfFalse/True).
func (in *Interpreter) evalLogical(env *environment, e *ast.LogicalExpr) (value.Value, *diag.Diagnostic) {
	x, derr := in.eval(env, e.X)
	if derr != nil {
		return nil, derr
	}
	if e.Op == token.AND && !value.Truthy(x) {
		return x, nil
	}
	if e.Op == token.OR && value.Truthy(x) {
		return x, nil
	}
	return in.eval(env, e.Y)
}

func (in *Interpreter) evalIf(env *environment, e *ast.IfExpr) (value.Value, *diag.Diagnostic) {
	cond, derr := in.eval(env, e.Cond)
	if derr != nil {
		return nil, derr
	}
	if value.Truthy(cond) {
		v, sig, derr := in.evalBlock(env, e.Then)
		if derr != nil {
			return nil, derr
		}
		if sig.kind != sigNone {
			return nil, typeErr(e.SpanVal, "break/continue/return cannot escape an if expression")
		}
		return v, nil
	}
	if e.Else == nil {
		return value.TheNull, nil
	}
	return in.eval(env, e.Else)
}

// evalCall mirrors internal/compiler's compileCall exactly: a
// MemberExpr callee always dispatches as a receiver method call (never
// as "load the field, then call whatever's in it"), a bare identifier
// naming a predeclared global builtin not shadowed by a nearer scope
// calls straight into internal/stdlib, and everything else evaluates
// its callee as an ordinary value and calls it.
func (in *Interpreter) evalCall(env *environment, e *ast.CallExpr) (value.Value, *diag.Diagnostic) {
	if member, ok := e.Callee.(*ast.MemberExpr); ok {
		recv, derr := in.eval(env, member.X)
		if derr != nil {
			return nil, derr
		}
		args, derr := in.evalArgs(env, e.Args)
		if derr != nil {
			return nil, derr
		}
		return in.callMethod(recv, member.Name, args, e.SpanVal)
	}
	if id, ok := e.Callee.(*ast.Identifier); ok && dispatch.IsGlobalBuiltin(id.Name) && !in.isShadowedLocally(env, id.Name) {
		args, derr := in.evalArgs(env, e.Args)
		if derr != nil {
			return nil, derr
		}
		return in.callBuiltinDirect(id.Name, args, e.SpanVal)
	}
	callee, derr := in.eval(env, e.Callee)
	if derr != nil {
		return nil, derr
	}
	args, derr := in.evalArgs(env, e.Args)
	if derr != nil {
		return nil, derr
	}
	return in.call(callee, args, e.SpanVal)
}

func (in *Interpreter) evalArgs(env *environment, exprs []ast.Expr) ([]value.Value, *diag.Diagnostic) {
	args := make([]value.Value, len(exprs))
	for i, a := range exprs {
		v, derr := in.eval(env, a)
		if derr != nil {
			return nil, derr
		}
		args[i] = v
	}
	return args, nil
}

// isShadowedLocally reports whether name is bound in any scope nearer
// than the program's global scope — the same "local or upvalue" check
// internal/compiler.compileCall performs before preferring the builtin
// reading of a bare identifier.
func (in *Interpreter) isShadowedLocally(env *environment, name string) bool {
	for s := env; s != nil && s != in.global; s = s.parent {
		if _, ok := s.vars[name]; ok {
			return true
		}
	}
	return false
}
