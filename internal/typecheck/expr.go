package typecheck

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/types"
)

// synth infers expr's type bottom-up (bidirectional checking's
// synthesis mode, spec.md §4.4) and records it for the typecheck dump.
func (c *Checker) synth(expr ast.Expr) types.Type {
	ty := c.synthInner(expr)
	c.exprTypes[expr] = ty
	return ty
}

// check verifies expr against an expected type (checking mode): for
// most expressions this just synthesizes and compares, but it lets a
// literal adopt a wider expected type (e.g. a number literal checked
// against a declared union) without forcing the caller through LUB.
func (c *Checker) check(expr ast.Expr, expected types.Type) types.Type {
	ty := c.synth(expr)
	c.expect(expr, ty, expected)
	return ty
}

func (c *Checker) synthInner(expr ast.Expr) types.Type {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return types.Number
	case *ast.StringLiteral:
		return types.Str
	case *ast.BoolLiteral:
		return types.Bool
	case *ast.NullLiteral:
		return types.Null
	case *ast.ErrorExpr:
		return types.Unknown

	case *ast.Identifier:
		return c.synthIdentifier(e)

	case *ast.ArrayLiteral:
		return c.synthArrayLiteral(e)
	case *ast.ObjectLiteral:
		fields := make(map[string]types.Type, len(e.Keys))
		for i, k := range e.Keys {
			fields[k] = c.synth(e.Values[i])
		}
		return types.ObjectType{Fields: fields}

	case *ast.UnaryExpr:
		return c.synthUnary(e)
	case *ast.BinaryExpr:
		return c.synthBinary(e)
	case *ast.LogicalExpr:
		c.expect(e.X, c.synth(e.X), types.Bool)
		c.expect(e.Y, c.synth(e.Y), types.Bool)
		return types.Bool
	case *ast.PostfixExpr:
		ty := c.synth(e.X)
		c.expect(e.X, ty, types.Number)
		return types.Number

	case *ast.CallExpr:
		return c.synthCall(e)
	case *ast.IndexExpr:
		return c.synthIndex(e)
	case *ast.MemberExpr:
		return c.synthMember(e)

	case *ast.IfExpr:
		return c.synthIf(e)
	case *ast.BlockExpr:
		return c.checkBlock(e)
	case *ast.MatchExpr:
		return c.synthMatch(e)
	case *ast.LambdaExpr:
		return c.synthLambda(e)
	}
	return types.Unknown
}

func (c *Checker) synthIdentifier(e *ast.Identifier) types.Type {
	b, ok := c.env.lookup(e.Name)
	if !ok {
		return types.Unknown // binder already reported AT3001
	}
	if b.moved {
		c.diags.Errorf(diag.ErrUseOfMoved, e.SpanVal, "use of %q after it was moved into an `own` parameter", e.Name)
	}
	return b.curType
}

func (c *Checker) synthArrayLiteral(e *ast.ArrayLiteral) types.Type {
	if len(e.Elements) == 0 {
		return types.ArrayType{Elem: types.Unknown}
	}
	elem := c.synth(e.Elements[0])
	for _, el := range e.Elements[1:] {
		elem = types.LUB(elem, c.synth(el))
	}
	return types.ArrayType{Elem: elem}
}

func (c *Checker) synthUnary(e *ast.UnaryExpr) types.Type {
	xTy := c.synth(e.X)
	switch e.Op {
	case token.BANG:
		c.expect(e.X, xTy, types.Bool)
		return types.Bool
	default: // unary minus
		c.expect(e.X, xTy, types.Number)
		return types.Number
	}
}

func (c *Checker) synthBinary(e *ast.BinaryExpr) types.Type {
	switch e.Op {
	case token.EQ, token.NEQ:
		c.synth(e.X)
		c.synth(e.Y)
		return types.Bool
	case token.LT, token.LTE, token.GT, token.GTE:
		c.expect(e.X, c.synth(e.X), types.Number)
		c.expect(e.Y, c.synth(e.Y), types.Number)
		return types.Bool
	case token.PLUS:
		xTy, yTy := c.synth(e.X), c.synth(e.Y)
		if xTy.Kind() == types.KindString || yTy.Kind() == types.KindString {
			c.expect(e.X, xTy, types.Str)
			c.expect(e.Y, yTy, types.Str)
			return types.Str
		}
		c.expect(e.X, xTy, types.Number)
		c.expect(e.Y, yTy, types.Number)
		return types.Number
	default: // -, *, /, %
		c.expect(e.X, c.synth(e.X), types.Number)
		c.expect(e.Y, c.synth(e.Y), types.Number)
		return types.Number
	}
}

// synthCall handles both free function calls and method calls
// (`receiver.method(args)`, parsed as CallExpr{Callee: MemberExpr}).
func (c *Checker) synthCall(e *ast.CallExpr) types.Type {
	if member, ok := e.Callee.(*ast.MemberExpr); ok {
		return c.synthMethodCall(member, e.Args)
	}

	calleeTy := c.synth(e.Callee)
	ft, ok := calleeTy.(types.FunctionType)
	if !ok {
		if calleeTy.Kind() != types.KindUnknown {
			c.diags.Errorf(diag.ErrTypeMismatch, e.Callee.Span(), "cannot call a value of type %s", calleeTy)
		}
		for _, a := range e.Args {
			c.synth(a)
		}
		return types.Unknown
	}

	fresh := map[int]types.GenericType{}
	instParams := make([]types.Type, len(ft.Params))
	for i, p := range ft.Params {
		instParams[i] = c.instantiate(p, fresh)
	}
	instReturn := c.instantiate(ft.Return, fresh)

	if len(e.Args) != len(instParams) {
		c.diags.Errorf(diag.ErrArityMismatch, e.Span(), "expected %d argument(s), found %d", len(instParams), len(e.Args))
	}

	subst := types.Subst{}
	n := len(e.Args)
	if len(instParams) < n {
		n = len(instParams)
	}
	ownership, hasOwnership := c.calleeOwnership(e.Callee)
	for i := 0; i < n; i++ {
		argTy := c.synth(e.Args[i])
		if err := types.Unify(instParams[i], argTy, subst); err != nil {
			c.diags.Errorf(diag.ErrTypeMismatch, e.Args[i].Span(), "argument %d: %s", i+1, err.Error())
		}
		if hasOwnership && i < len(ownership) && ownership[i] == ast.OwnershipOwn {
			c.moveArgument(e.Args[i])
		}
	}
	for i := n; i < len(e.Args); i++ {
		c.synth(e.Args[i])
	}

	return types.ApplySubst(instReturn, subst)
}

// calleeOwnership returns the per-parameter ownership annotations of
// the function a direct-identifier call targets, if known.
func (c *Checker) calleeOwnership(callee ast.Expr) ([]ast.Ownership, bool) {
	ident, ok := callee.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	b, ok := c.env.lookup(ident.Name)
	if !ok || b.fnDecl == nil {
		return nil, false
	}
	out := make([]ast.Ownership, len(b.fnDecl.Params))
	for i, p := range b.fnDecl.Params {
		out[i] = p.Ownership
	}
	return out, true
}

// moveArgument marks arg's binding as moved if arg is a bare
// identifier (spec.md §4.4: "literal and expression-result arguments
// are not bindings and cannot be moved-from").
func (c *Checker) moveArgument(arg ast.Expr) {
	ident, ok := arg.(*ast.Identifier)
	if !ok {
		return
	}
	b, ok := c.env.lookup(ident.Name)
	if !ok {
		return
	}
	b.moved = true
	b.movedAt = arg.Span()
}

// instantiate copies t, replacing every GenericType with a fresh
// unification variable (shared within one call via fresh), realizing
// let-polymorphism: each call site gets its own copies of a generic
// function's type variables (spec.md §4.4).
func (c *Checker) instantiate(t types.Type, fresh map[int]types.GenericType) types.Type {
	switch x := t.(type) {
	case types.GenericType:
		if g, ok := fresh[x.ID]; ok {
			return g
		}
		g := c.newGeneric(x.Name)
		fresh[x.ID] = g
		return g
	case types.ArrayType:
		return types.ArrayType{Elem: c.instantiate(x.Elem, fresh)}
	case types.OptionType:
		return types.OptionType{Inner: c.instantiate(x.Inner, fresh)}
	case types.ResultType:
		return types.ResultType{Ok: c.instantiate(x.Ok, fresh), Err: c.instantiate(x.Err, fresh)}
	case types.FunctionType:
		params := make([]types.Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = c.instantiate(p, fresh)
		}
		return types.FunctionType{Params: params, Return: c.instantiate(x.Return, fresh)}
	default:
		return t
	}
}

func (c *Checker) synthMethodCall(member *ast.MemberExpr, args []ast.Expr) types.Type {
	recvTy := c.synth(member.X)
	tag, ok := dispatchTag(recvTy)
	if !ok {
		if recvTy.Kind() != types.KindUnknown {
			c.diags.Errorf(diag.ErrUnknownMethod, member.Span(), "type %s has no methods", recvTy)
		}
		for _, a := range args {
			c.synth(a)
		}
		return types.Unknown
	}
	builtinName, found := dispatch.Resolve(tag, member.Name)
	if !found {
		c.diags.Errorf(diag.ErrUnknownMethod, member.Span(), "unknown method %q on %s", member.Name, tag)
		for _, a := range args {
			c.synth(a)
		}
		return types.Unknown
	}
	for _, a := range args {
		c.synth(a)
	}
	return builtinReturnType(builtinName, recvTy)
}

// builtinReturnType returns the static return type of a dispatch-table
// builtin given its receiver's type, threading through element/inner
// types so e.g. `arr.pop()` on `number[]` synthesizes `Option<number>`.
func builtinReturnType(name string, recv types.Type) types.Type {
	switch name {
	case "len", "arrayIndexOf", "stringCharAt":
		if name == "stringCharAt" {
			return types.Str
		}
		return types.Number
	case "arrayIncludes", "objectHas", "stringContains", "stringStartsWith", "stringEndsWith",
		"optionIsSome", "optionIsNone", "resultIsOk", "resultIsErr":
		return types.Bool
	case "arrayPush", "objectSet":
		return types.Void
	case "arrayPop":
		if arr, ok := recv.(types.ArrayType); ok {
			return types.OptionType{Inner: arr.Elem}
		}
		return types.OptionType{Inner: types.Unknown}
	case "arraySlice", "arrayReverse", "arraySort", "arrayConcat":
		if arr, ok := recv.(types.ArrayType); ok {
			return arr
		}
		return types.ArrayType{Elem: types.Unknown}
	case "arrayJoin", "stringToUpper", "stringToLower", "stringTrim", "stringReplace":
		return types.Str
	case "stringSplit":
		return types.ArrayType{Elem: types.Str}
	case "objectKeys":
		return types.ArrayType{Elem: types.Str}
	case "objectGet":
		return types.OptionType{Inner: types.Unknown}
	case "objectLen":
		return types.Number
	case "optionUnwrap":
		if o, ok := recv.(types.OptionType); ok {
			return o.Inner
		}
		return types.Unknown
	case "optionUnwrapOr":
		if o, ok := recv.(types.OptionType); ok {
			return o.Inner
		}
		return types.Unknown
	case "resultUnwrap":
		if r, ok := recv.(types.ResultType); ok {
			return r.Ok
		}
		return types.Unknown
	case "resultUnwrapOr":
		if r, ok := recv.(types.ResultType); ok {
			return r.Ok
		}
		return types.Unknown
	default:
		return types.Unknown
	}
}

func (c *Checker) synthIndex(e *ast.IndexExpr) types.Type {
	xTy := c.synth(e.X)
	idxTy := c.synth(e.Index)
	c.expect(e.Index, idxTy, types.Number)
	if arr, ok := xTy.(types.ArrayType); ok {
		return arr.Elem
	}
	if xTy.Kind() != types.KindUnknown {
		c.diags.Errorf(diag.ErrTypeMismatch, e.X.Span(), "cannot index into %s", xTy)
	}
	return types.Unknown
}

func (c *Checker) synthMember(e *ast.MemberExpr) types.Type {
	xTy := c.synth(e.X)
	if obj, ok := xTy.(types.ObjectType); ok {
		if f, ok := obj.Fields[e.Name]; ok {
			return f
		}
	}
	return types.Unknown
}

// synthIf typechecks `if` as an expression: the result type is the
// least upper bound of the two arms (spec.md §4.4), and if one arm's
// identifier predicate allows narrowing (`typeof x == "T"`, `x != null`)
// the narrowed type is visible inside that arm only, persisting past
// the whole expression only when the *other* arm unconditionally exits
// (so `if (x == null) { return; }` leaves `x` non-null afterward).
func (c *Checker) synthIf(e *ast.IfExpr) types.Type {
	c.expect(e.Cond, c.synth(e.Cond), types.Bool)

	name, thenTy, elseTy, hasNarrow := c.narrowedTypes(e.Cond)
	var b *binding
	var savedType types.Type
	if hasNarrow {
		b, _ = c.env.lookup(name)
	}

	if hasNarrow && b != nil {
		savedType = b.curType
		b.curType = thenTy
	}
	thenResult := c.checkBlock(e.Then)
	thenExits := c.blockAlwaysReturns(e.Then)
	if hasNarrow && b != nil {
		b.curType = savedType
	}

	var elseResult types.Type = types.Void
	elseExits := false
	if e.Else != nil {
		if hasNarrow && b != nil {
			b.curType = elseTy
		}
		elseResult = c.synth(e.Else)
		elseExits = c.exprOrBlockAlwaysExits(e.Else)
		if hasNarrow && b != nil {
			b.curType = savedType
		}
	}

	if hasNarrow && b != nil {
		switch {
		case thenExits && !elseExits:
			b.curType = elseTy
		case elseExits && !thenExits && e.Else != nil:
			b.curType = thenTy
		default:
			b.curType = savedType
		}
	}

	if e.Else == nil {
		return types.Void
	}
	return types.LUB(thenResult, elseResult)
}

func (c *Checker) synthMatch(e *ast.MatchExpr) types.Type {
	subjectTy := c.synth(e.Subject)
	if len(e.Arms) == 0 {
		return types.Void
	}
	var result types.Type
	for i, arm := range e.Arms {
		outer := c.env
		c.env = newEnv(outer)
		c.bindPattern(arm.Pattern, subjectTy)
		if arm.Guard != nil {
			c.expect(arm.Guard, c.synth(arm.Guard), types.Bool)
		}
		armTy := c.synth(arm.Body)
		c.env = outer
		if i == 0 {
			result = armTy
		} else {
			result = types.LUB(result, armTy)
		}
	}
	return result
}

func (c *Checker) bindPattern(pat ast.Pattern, subjectTy types.Type) {
	switch p := pat.(type) {
	case *ast.IdentPattern:
		c.env.define(&binding{name: p.Name, declType: subjectTy, curType: subjectTy, declSpan: p.SpanVal})
	case *ast.WildcardPattern, *ast.LiteralPattern:
	}
}

func (c *Checker) synthLambda(e *ast.LambdaExpr) types.Type {
	params := make([]types.Type, len(e.Params))
	outer := c.env
	c.env = newEnv(outer)
	for i, p := range e.Params {
		pty := types.Type(types.Unknown)
		if p.TypeAnn != nil {
			pty = c.resolveTypeExpr(p.TypeAnn)
		}
		params[i] = pty
		c.env.define(&binding{name: p.Name, kind: symbols.KindParameter, mutable: p.Ownership != ast.OwnershipOwn, declType: pty, curType: pty, ownership: p.Ownership, declSpan: p.SpanVal})
	}

	var ret types.Type
	if e.ReturnType != nil {
		ret = c.resolveTypeExpr(e.ReturnType)
	}
	if block, ok := e.Body.(*ast.BlockExpr); ok {
		bodyTy := c.checkBlock(block)
		if ret == nil {
			ret = bodyTy
		} else {
			if block.Tail != nil {
				c.expect(block.Tail, bodyTy, ret)
			}
		}
	} else {
		bodyTy := c.synth(e.Body)
		if ret == nil {
			ret = bodyTy
		} else {
			c.expect(e.Body, bodyTy, ret)
		}
	}
	c.env = outer
	return types.FunctionType{Params: params, Return: ret}
}
