package typecheck

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/types"
)

// checkBlock pushes a new scope, hoists any directly-nested `fn`
// declarations (mirroring internal/symbols' per-block hoisting so
// mutually-recursive local functions typecheck), checks every
// statement, and returns the type of the trailing expression (Void if
// the block has none).
func (c *Checker) checkBlock(block *ast.BlockExpr) types.Type {
	outer := c.env
	c.env = newEnv(outer)
	defer func() { c.env = outer }()

	for _, s := range block.Stmts {
		if fn, ok := s.(*ast.FnDecl); ok {
			c.declareFn(fn)
		}
	}

	reachable := true
	for _, s := range block.Stmts {
		if !reachable {
			c.diags.Warnf(diag.WarnUnreachable, s.Span(), "unreachable statement")
		}
		c.checkStmt(s)
		if c.stmtAlwaysExits(s) {
			reachable = false
		}
	}

	if block.Tail != nil {
		return c.synth(block.Tail)
	}
	return types.Void
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FnDecl:
		c.checkFnBody(s)
	case *ast.LetStmt:
		declTy := types.Type(nil)
		if s.TypeAnn != nil {
			declTy = c.resolveTypeExpr(s.TypeAnn)
			c.check(s.Value, declTy)
		} else {
			declTy = c.synth(s.Value)
		}
		c.env.define(&binding{name: s.Name, kind: symbols.KindVariable, mutable: s.Mutable, declType: declTy, curType: declTy, declSpan: s.SpanVal})
	case *ast.VarStmt:
		declTy := types.Type(nil)
		if s.TypeAnn != nil {
			declTy = c.resolveTypeExpr(s.TypeAnn)
			c.check(s.Value, declTy)
		} else {
			declTy = c.synth(s.Value)
		}
		c.env.define(&binding{name: s.Name, kind: symbols.KindVariable, mutable: true, declType: declTy, curType: declTy, declSpan: s.SpanVal})
	case *ast.ReturnStmt:
		if s.Value != nil {
			valTy := c.synth(s.Value)
			if c.currentReturnType != nil {
				c.expect(s.Value, valTy, c.currentReturnType)
			}
		} else if c.currentReturnType != nil && c.currentReturnType.Kind() != types.KindVoid && c.currentReturnType.Kind() != types.KindUnknown {
			c.diags.Errorf(diag.ErrTypeMismatch, s.Span(), "expected %s, found void", c.currentReturnType)
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.WhileStmt:
		c.expect(s.Cond, c.synth(s.Cond), types.Bool)
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
	case *ast.ForStmt:
		outer := c.env
		c.env = newEnv(outer)
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			c.expect(s.Cond, c.synth(s.Cond), types.Bool)
		}
		if s.Post != nil {
			c.checkStmt(s.Post)
		}
		c.loopDepth++
		c.checkBlockBodyInCurrentScope(s.Body)
		c.loopDepth--
		c.env = outer
	case *ast.ForInStmt:
		iterTy := c.synth(s.Iterable)
		elemTy := types.Type(types.Unknown)
		if arr, ok := iterTy.(types.ArrayType); ok {
			elemTy = arr.Elem
		} else if iterTy.Kind() == types.KindObject {
			elemTy = types.Str
		}
		outer := c.env
		c.env = newEnv(outer)
		c.env.define(&binding{name: s.Name, kind: symbols.KindVariable, mutable: true, declType: elemTy, curType: elemTy, declSpan: s.SpanVal})
		c.loopDepth++
		c.checkBlockBodyInCurrentScope(s.Body)
		c.loopDepth--
		c.env = outer
	case *ast.ExprStmt:
		c.synth(s.X)
	case *ast.AssignStmt:
		c.checkAssign(s)
	}
}

// checkBlockBodyInCurrentScope checks a block's statements without
// pushing its own scope, used by ForStmt/ForInStmt which already
// pushed a scope for the loop variable(s) shared between the header
// and the body.
func (c *Checker) checkBlockBodyInCurrentScope(block *ast.BlockExpr) types.Type {
	for _, s := range block.Stmts {
		if fn, ok := s.(*ast.FnDecl); ok {
			c.declareFn(fn)
		}
	}
	for _, s := range block.Stmts {
		c.checkStmt(s)
	}
	if block.Tail != nil {
		return c.synth(block.Tail)
	}
	return types.Void
}

func (c *Checker) checkAssign(s *ast.AssignStmt) {
	ident, ok := s.Target.(*ast.Identifier)
	if !ok {
		c.synth(s.Target)
		c.synth(s.Value)
		return
	}
	b, ok := c.env.lookup(ident.Name)
	if !ok {
		c.synth(s.Value)
		return // already reported by the binder pass (AT3001)
	}
	c.check(s.Value, b.declType)
	// var assignment widens back to the declared type rather than
	// narrowing to the RHS's specific type (spec.md §4.4): the binding
	// may be observed from any later point in its scope, including
	// after other control-flow paths the checker doesn't re-visit.
	b.curType = b.declType
	if b.ownership == ast.OwnershipOwn && b.moved {
		// reassignment reinstates a moved `own` binding.
		b.moved = false
	}
}

// stmtAlwaysExits reports whether stmt unconditionally transfers
// control out of the enclosing block (return/break/continue, or an
// if/else whose every arm does), used both for AT2002 unreachable-code
// detection and to decide whether narrowing survives past an `if`.
func (c *Checker) stmtAlwaysExits(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return true
	case *ast.ExprStmt:
		return c.exprAlwaysExits(s.X)
	default:
		return false
	}
}

func (c *Checker) exprAlwaysExits(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.IfExpr:
		if e.Else == nil {
			return false
		}
		return c.blockAlwaysReturns(e.Then) && c.exprOrBlockAlwaysExits(e.Else)
	case *ast.BlockExpr:
		return c.blockAlwaysReturns(e)
	case *ast.MatchExpr:
		if len(e.Arms) == 0 {
			return false
		}
		for _, a := range e.Arms {
			if !c.exprOrBlockAlwaysExits(a.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (c *Checker) exprOrBlockAlwaysExits(e ast.Expr) bool {
	if block, ok := e.(*ast.BlockExpr); ok {
		return c.blockAlwaysReturns(block)
	}
	return c.exprAlwaysExits(e)
}

// blockAlwaysReturns reports whether every control path through block
// ends in a return/break/continue or a fully-covering if/else (spec.md
// §4.4 "every non-void function must have a return on every path").
func (c *Checker) blockAlwaysReturns(block *ast.BlockExpr) bool {
	if block.Tail != nil {
		return c.exprAlwaysExits(block.Tail)
	}
	if len(block.Stmts) == 0 {
		return false
	}
	return c.stmtAlwaysExits(block.Stmts[len(block.Stmts)-1])
}
