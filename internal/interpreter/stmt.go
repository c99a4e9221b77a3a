package interpreter

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/value"
)

// evalBlock runs block's statements in a fresh child scope, hoisting
// any nested FnDecl first, and returns its tail expression's value
// (Null if the block has no tail) together with whatever control-flow
// signal escaped it, mirroring internal/compiler's compileBlockValue.
func (in *Interpreter) evalBlock(parent *environment, block *ast.BlockExpr) (value.Value, signal, *diag.Diagnostic) {
	env := newEnvironment(parent)
	in.hoistFnStmts(env, block.Stmts)
	for _, stmt := range block.Stmts {
		if _, ok := stmt.(*ast.FnDecl); ok {
			continue // already hoisted
		}
		sig, derr := in.execStmt(env, stmt)
		if derr != nil {
			return nil, noSignal, derr
		}
		if sig.kind != sigNone {
			return nil, sig, nil
		}
	}
	if block.Tail == nil {
		return value.TheNull, noSignal, nil
	}
	v, derr := in.eval(env, block.Tail)
	if derr != nil {
		return nil, noSignal, derr
	}
	return v, noSignal, nil
}

// execStmt runs one statement, returning any control-flow signal it
// produced (return/break/continue) for the enclosing block or loop to
// handle.
func (in *Interpreter) execStmt(env *environment, stmt ast.Stmt) (signal, *diag.Diagnostic) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, derr := in.eval(env, s.X)
		return noSignal, derr

	case *ast.LetStmt:
		v, derr := in.eval(env, s.Value)
		if derr != nil {
			return noSignal, derr
		}
		env.define(s.Name, v)
		return noSignal, nil

	case *ast.VarStmt:
		v, derr := in.eval(env, s.Value)
		if derr != nil {
			return noSignal, derr
		}
		env.define(s.Name, v)
		return noSignal, nil

	case *ast.AssignStmt:
		return noSignal, in.execAssign(env, s)

	case *ast.ReturnStmt:
		if s.Value == nil {
			return signal{kind: sigReturn, val: value.TheNull}, nil
		}
		v, derr := in.eval(env, s.Value)
		if derr != nil {
			return noSignal, derr
		}
		return signal{kind: sigReturn, val: v}, nil

	case *ast.BreakStmt:
		return signal{kind: sigBreak}, nil
	case *ast.ContinueStmt:
		return signal{kind: sigContinue}, nil

	case *ast.WhileStmt:
		return in.execWhile(env, s)
	case *ast.ForStmt:
		return in.execFor(env, s)
	case *ast.ForInStmt:
		return in.execForIn(env, s)

	case *ast.FnDecl:
		return noSignal, nil // hoisted by the enclosing block/program

	default:
		return noSignal, typeErr(stmt.Span(), "unsupported statement %T", stmt)
	}
}

func (in *Interpreter) execWhile(env *environment, s *ast.WhileStmt) (signal, *diag.Diagnostic) {
	for {
		cond, derr := in.eval(env, s.Cond)
		if derr != nil {
			return noSignal, derr
		}
		if !value.Truthy(cond) {
			return noSignal, nil
		}
		_, sig, derr := in.evalBlock(env, s.Body)
		if derr != nil {
			return noSignal, derr
		}
		switch sig.kind {
		case sigBreak:
			return noSignal, nil
		case sigReturn:
			return sig, nil
		}
	}
}

func (in *Interpreter) execFor(env *environment, s *ast.ForStmt) (signal, *diag.Diagnostic) {
	loopEnv := newEnvironment(env)
	if s.Init != nil {
		if _, derr := in.execStmt(loopEnv, s.Init); derr != nil {
			return noSignal, derr
		}
	}
	for {
		if s.Cond != nil {
			cond, derr := in.eval(loopEnv, s.Cond)
			if derr != nil {
				return noSignal, derr
			}
			if !value.Truthy(cond) {
				return noSignal, nil
			}
		}
		_, sig, derr := in.evalBlock(loopEnv, s.Body)
		if derr != nil {
			return noSignal, derr
		}
		if sig.kind == sigBreak {
			return noSignal, nil
		}
		if sig.kind == sigReturn {
			return sig, nil
		}
		if s.Post != nil {
			if _, derr := in.execStmt(loopEnv, s.Post); derr != nil {
				return noSignal, derr
			}
		}
	}
}

func (in *Interpreter) execForIn(env *environment, s *ast.ForInStmt) (signal, *diag.Diagnostic) {
	iterable, derr := in.eval(env, s.Iterable)
	if derr != nil {
		return noSignal, derr
	}
	var elems []value.Value
	switch x := iterable.(type) {
	case *value.Array:
		elems = x.Elems
	case *value.Object:
		keys := x.Keys()
		elems = make([]value.Value, len(keys))
		for i, k := range keys {
			elems[i] = value.String(k)
		}
	default:
		return noSignal, typeErr(s.Iterable.Span(), "for-in requires an array or object, found %s", iterable.Kind())
	}
	for _, elem := range elems {
		loopEnv := newEnvironment(env)
		loopEnv.define(s.Name, elem)
		_, sig, derr := in.evalBlock(loopEnv, s.Body)
		if derr != nil {
			return noSignal, derr
		}
		if sig.kind == sigBreak {
			return noSignal, nil
		}
		if sig.kind == sigReturn {
			return sig, nil
		}
	}
	return noSignal, nil
}
