// Package typecheck implements Atlas's bidirectional typechecker
// (spec.md §4.4): check-vs-synthesize expression typing, flow-sensitive
// narrowing, return-path analysis, own/borrow ownership analysis, and
// let-polymorphic generic inference, all built over the type lattice in
// internal/types and the method table in internal/dispatch.
//
// Grounded in the teacher's internal/semantic.Analyzer (its per-scope
// state machine — currentFunction, loopDepth, inLoop — shapes Checker's
// own fields below), generalized to Atlas's smaller, richer-typed
// lattice. The Analyzer builds and owns a single SymbolTable as part of
// the same pass that both binds and types names; Checker instead runs
// internal/symbols.Bind as an explicit first phase (spec.md keeps
// Binder and TypeChecker as distinct components) and then re-walks the
// AST with its own name environment for type inference, rather than
// cross-referencing two independently-built data structures by pointer
// identity — simpler to get right without a compiler available to
// verify the wiring.
package typecheck

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/types"
)

// binding is one name's type-checking state within the Checker's own
// environment: its declared type, its currently-narrowed type, and
// (for parameters bound `own`) whether it has been moved.
type binding struct {
	name       string
	kind       symbols.Kind
	mutable    bool
	declType   types.Type
	curType    types.Type
	ownership  ast.Ownership
	moved      bool
	movedAt    span.Span
	declSpan   span.Span
	fnDecl     *ast.FnDecl // set for function bindings, used for ownership-checking at call sites
}

// env is a stack of lexical scopes mapping name -> *binding, mirroring
// internal/symbols.Table's shape but carrying type information instead
// of pure existence/mutability facts.
type env struct {
	vars   map[string]*binding
	parent *env
}

func newEnv(parent *env) *env { return &env{vars: make(map[string]*binding), parent: parent} }

func (e *env) define(b *binding) { e.vars[b.name] = b }

func (e *env) lookup(name string) (*binding, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Result is the typechecker's output: the resolved type of every
// expression node, consumed by the compiler/interpreter for method
// dispatch and literal/operator lowering, and by Dump for the
// typecheck-dump external interface (spec.md §6).
type Result struct {
	ExprTypes map[ast.Expr]types.Type
	FnTypes   map[*ast.FnDecl]types.FunctionType
	// ProgramType is the type of the script's trailing ast.ProgramTail
	// expression, or nil if the program has none (a pure module of
	// declarations with no top-level result value).
	ProgramType types.Type
}

// Checker walks a bound *ast.Program and computes types.
type Checker struct {
	diags     diag.Bag
	exprTypes map[ast.Expr]types.Type
	fnTypes   map[*ast.FnDecl]types.FunctionType

	env               *env
	currentReturnType types.Type
	loopDepth         int
	nextGenericID     int

	// typeParamScope holds the current function/type declaration's
	// generic parameters while its signature is being resolved, so two
	// references to the same `<T>` within one signature unify to the
	// same GenericType instead of each minting a fresh one.
	typeParamScope map[string]types.GenericType

	programType types.Type
}

// Check runs the binder then the typechecker over prog, returning the
// typed Result and the combined diagnostics of both stages (spec.md
// §7: "later stages run on partial output").
func Check(prog *ast.Program) (*Result, *diag.Bag) {
	_, binderDiags := symbols.Bind(prog)

	c := &Checker{
		exprTypes: make(map[ast.Expr]types.Type),
		fnTypes:   make(map[*ast.FnDecl]types.FunctionType),
		env:       newBuiltinEnv(),
	}
	c.checkProgram(prog)

	all := &diag.Bag{}
	all.Extend(binderDiags)
	all.Extend(&c.diags)
	return &Result{ExprTypes: c.exprTypes, FnTypes: c.fnTypes, ProgramType: c.programType}, all
}

func (c *Checker) newGeneric(name string) types.GenericType {
	c.nextGenericID++
	return types.GenericType{ID: c.nextGenericID, Name: name}
}

func (c *Checker) checkProgram(prog *ast.Program) {
	for _, item := range prog.Items {
		c.declareItem(item)
	}
	for _, item := range prog.Items {
		c.checkItem(item)
	}
}

// declareItem registers the static type of a top-level name before any
// body is typechecked, mirroring the binder's hoisting pass so forward
// references and mutual recursion both typecheck (spec.md §3, §4.3).
func (c *Checker) declareItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.FnDecl:
		c.declareFn(it)
	case *ast.ExportDecl:
		c.declareItem(it.Inner)
	case *ast.LetDecl, *ast.VarDecl, *ast.ImportDecl, *ast.TypeDecl, *ast.TraitDecl:
		// typed on first checkItem pass; these never participate in
		// forward-referenced mutual recursion the way functions do.
	case *ast.ExprStmt, *ast.AssignStmt, *ast.WhileStmt, *ast.ForStmt, *ast.ForInStmt,
		*ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.ProgramTail:
		// script-style top-level code: nothing to hoist.
	}
}

func (c *Checker) declareFn(fn *ast.FnDecl) {
	ft := c.fnSignature(fn)
	c.fnTypes[fn] = ft
	c.env.define(&binding{
		name: fn.Name, kind: symbols.KindFunction, mutable: false,
		declType: ft, curType: ft, declSpan: fn.SpanVal, fnDecl: fn,
	})
}

func (c *Checker) fnSignature(fn *ast.FnDecl) types.FunctionType {
	outerScope := c.typeParamScope
	c.typeParamScope = make(map[string]types.GenericType, len(fn.TypeParams))
	for _, name := range fn.TypeParams {
		c.typeParamScope[name] = c.newGeneric(name)
	}
	defer func() { c.typeParamScope = outerScope }()

	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		if p.TypeAnn != nil {
			params[i] = c.resolveTypeExpr(p.TypeAnn)
		} else {
			params[i] = types.Unknown
		}
	}
	ret := types.Type(types.Void)
	if fn.ReturnType != nil {
		ret = c.resolveTypeExpr(fn.ReturnType)
	} else {
		ret = types.Unknown
	}
	return types.FunctionType{Params: params, Return: ret}
}

func (c *Checker) checkItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.FnDecl:
		c.checkFnBody(it)
	case *ast.LetDecl:
		declTy := types.Type(nil)
		if it.TypeAnn != nil {
			declTy = c.resolveTypeExpr(it.TypeAnn)
			c.check(it.Value, declTy)
		} else {
			declTy = c.synth(it.Value)
		}
		c.env.define(&binding{name: it.Name, kind: symbols.KindVariable, mutable: it.Mutable, declType: declTy, curType: declTy, declSpan: it.SpanVal})
	case *ast.VarDecl:
		declTy := types.Type(nil)
		if it.TypeAnn != nil {
			declTy = c.resolveTypeExpr(it.TypeAnn)
			c.check(it.Value, declTy)
		} else {
			declTy = c.synth(it.Value)
		}
		c.env.define(&binding{name: it.Name, kind: symbols.KindVariable, mutable: true, declType: declTy, curType: declTy, declSpan: it.SpanVal})
	case *ast.ExportDecl:
		c.checkItem(it.Inner)
	case *ast.ImportDecl:
		for _, name := range it.Names {
			c.env.define(&binding{name: name, kind: symbols.KindVariable, mutable: false, declType: types.Unknown, curType: types.Unknown, declSpan: it.SpanVal})
		}
	case *ast.TypeDecl, *ast.TraitDecl:
	case *ast.ExprStmt, *ast.AssignStmt, *ast.WhileStmt, *ast.ForStmt, *ast.ForInStmt,
		*ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		c.checkStmt(it.(ast.Stmt))
	case *ast.ProgramTail:
		c.programType = c.synth(it.X)
	}
}

func (c *Checker) checkFnBody(fn *ast.FnDecl) {
	ft := c.fnTypes[fn]
	outer := c.env
	outerReturn := c.currentReturnType
	c.env = newEnv(outer)
	c.currentReturnType = ft.Return

	for i, p := range fn.Params {
		c.env.define(&binding{
			name: p.Name, kind: symbols.KindParameter, mutable: p.Ownership != ast.OwnershipOwn,
			declType: ft.Params[i], curType: ft.Params[i], ownership: p.Ownership, declSpan: p.SpanVal,
		})
	}

	bodyTy := c.checkBlock(fn.Body)
	if ft.Return.Kind() != types.KindVoid && ft.Return.Kind() != types.KindUnknown {
		if !c.blockAlwaysReturns(fn.Body) {
			c.diags.Errorf(diag.ErrMissingReturn, fn.Body.Span(), "function %q does not return a value on every path", fn.Name)
		}
		if fn.Body.Tail != nil && !c.exprAlwaysExits(fn.Body.Tail) {
			c.expect(fn.Body.Tail, bodyTy, ft.Return)
		}
	}

	c.env = outer
	c.currentReturnType = outerReturn
}

// resolveTypeExpr converts a surface type annotation into a lattice
// Type. Unresolvable named types (no user-defined type registry exists
// yet beyond the primitives and aggregate shapes spec.md §3 lists)
// synthesize fresh generics, so a typo in a generic function's type
// parameter list still unifies rather than hard-erroring.
func (c *Checker) resolveTypeExpr(te ast.TypeExpr) types.Type {
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		switch t.Name {
		case "number":
			return types.Number
		case "string":
			return types.Str
		case "bool":
			return types.Bool
		case "null":
			return types.Null
		case "void":
			return types.Void
		case "unknown":
			return types.Unknown
		case "never":
			return types.Never
		default:
			if g, ok := c.typeParamScope[t.Name]; ok {
				return g
			}
			g := c.newGeneric(t.Name)
			if c.typeParamScope != nil {
				c.typeParamScope[t.Name] = g
			}
			return g
		}
	case *ast.ArrayTypeExpr:
		return types.ArrayType{Elem: c.resolveTypeExpr(t.Elem)}
	case *ast.FunctionTypeExpr:
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = c.resolveTypeExpr(p)
		}
		return types.FunctionType{Params: params, Return: c.resolveTypeExpr(t.Return)}
	case *ast.OptionTypeExpr:
		return types.OptionType{Inner: c.resolveTypeExpr(t.Inner)}
	case *ast.ResultTypeExpr:
		return types.ResultType{Ok: c.resolveTypeExpr(t.Ok), Err: c.resolveTypeExpr(t.Err)}
	case *ast.UnionTypeExpr:
		members := make([]types.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = c.resolveTypeExpr(m)
		}
		return types.NewUnion(members...)
	default:
		return types.Unknown
	}
}

// expect checks that actual may be used where expected is required,
// emitting AT3004 on mismatch. Returns whether it was assignable.
func (c *Checker) expect(at ast.Node, actual, expected types.Type) bool {
	if types.Assignable(actual, expected) {
		return true
	}
	c.diags.Errorf(diag.ErrTypeMismatch, at.Span(), "expected %s, found %s", expected, actual)
	return false
}

// dispatchTag maps a types.Type to the dispatch.TypeTag it supports
// method calls for, or false if the type has no methods.
func dispatchTag(t types.Type) (dispatch.TypeTag, bool) {
	switch t.Kind() {
	case types.KindArray:
		return dispatch.TagArray, true
	case types.KindObject:
		return dispatch.TagObject, true
	case types.KindString:
		return dispatch.TagString, true
	case types.KindOption:
		return dispatch.TagOption, true
	case types.KindResult:
		return dispatch.TagResult, true
	default:
		return 0, false
	}
}

