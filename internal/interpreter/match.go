package interpreter

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/value"
)

// evalMatch mirrors internal/compiler's compileMatch: evaluate the
// subject once, then walk the arms in order. WildcardPattern always
// matches without binding, IdentPattern always matches and binds the
// subject, LiteralPattern matches only on value.Equals against the
// evaluated pattern literal. A guard, if present, is evaluated after
// binding and can still reject the arm. internal/typecheck is
// responsible for flagging non-exhaustive matches, so falling off the
// last arm here returns Null rather than erroring.
func (in *Interpreter) evalMatch(env *environment, e *ast.MatchExpr) (value.Value, *diag.Diagnostic) {
	subject, derr := in.eval(env, e.Subject)
	if derr != nil {
		return nil, derr
	}

	for _, arm := range e.Arms {
		armEnv := newEnvironment(env)
		matched, derr := in.matchPattern(armEnv, arm.Pattern, subject)
		if derr != nil {
			return nil, derr
		}
		if !matched {
			continue
		}
		if arm.Guard != nil {
			g, derr := in.eval(armEnv, arm.Guard)
			if derr != nil {
				return nil, derr
			}
			if !value.Truthy(g) {
				continue
			}
		}
		return in.eval(armEnv, arm.Body)
	}
	return value.TheNull, nil
}

// matchPattern tests pat against subject, binding names into armEnv as
// it goes. Only LiteralPattern can fail to match.
func (in *Interpreter) matchPattern(armEnv *environment, pat ast.Pattern, subject value.Value) (bool, *diag.Diagnostic) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return true, nil
	case *ast.IdentPattern:
		armEnv.define(p.Name, subject)
		return true, nil
	case *ast.LiteralPattern:
		lit, derr := in.eval(armEnv, p.Value)
		if derr != nil {
			return false, derr
		}
		return value.Equals(subject, lit), nil
	default:
		return false, typeErr(pat.Span(), "unsupported match pattern %T", pat)
	}
}
