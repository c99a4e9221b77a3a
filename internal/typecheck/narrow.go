package typecheck

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/types"
)

// narrowedTypes computes the (then, else) refinement for name, if cond
// is one of the two canonical narrowing predicates spec.md §4.4 names:
// `typeof x == "<kind>"` (or `!=`) and `x != null` (or `== null`).
// ok is false if cond doesn't match either shape, or the current
// binding for name isn't found.
func (c *Checker) narrowedTypes(cond ast.Expr) (name string, thenTy, elseTy types.Type, ok bool) {
	bin, isBin := cond.(*ast.BinaryExpr)
	if !isBin || (bin.Op != token.EQ && bin.Op != token.NEQ) {
		return "", nil, nil, false
	}

	if ident, lit, matched := typeofShape(bin.X, bin.Y); matched {
		b, found := c.env.lookup(ident.Name)
		if !found {
			return "", nil, nil, false
		}
		member := kindNameToType(lit.Value)
		if member == nil {
			return "", nil, nil, false
		}
		then, els := refineByMember(b.curType, member)
		if bin.Op == token.NEQ {
			then, els = els, then
		}
		return ident.Name, then, els, true
	}

	if ident, isNullCmp := nullComparisonShape(bin.X, bin.Y); isNullCmp {
		b, found := c.env.lookup(ident.Name)
		if !found {
			return "", nil, nil, false
		}
		nonNull, isNull := refineNonNull(b.curType)
		if bin.Op == token.EQ {
			// `x == null`: then-branch is null, else-branch is non-null.
			return ident.Name, isNull, nonNull, true
		}
		// `x != null`: then-branch is non-null, else-branch is null.
		return ident.Name, nonNull, isNull, true
	}

	return "", nil, nil, false
}

// typeofShape recognizes `typeof(ident) == "literal"` in either operand
// order.
func typeofShape(x, y ast.Expr) (*ast.Identifier, *ast.StringLiteral, bool) {
	if call, ok := x.(*ast.CallExpr); ok {
		if lit, ok := y.(*ast.StringLiteral); ok {
			if ident, ok := typeofCallArg(call); ok {
				return ident, lit, true
			}
		}
	}
	if call, ok := y.(*ast.CallExpr); ok {
		if lit, ok := x.(*ast.StringLiteral); ok {
			if ident, ok := typeofCallArg(call); ok {
				return ident, lit, true
			}
		}
	}
	return nil, nil, false
}

func typeofCallArg(call *ast.CallExpr) (*ast.Identifier, bool) {
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok || callee.Name != "typeof" || len(call.Args) != 1 {
		return nil, false
	}
	ident, ok := call.Args[0].(*ast.Identifier)
	return ident, ok
}

// nullComparisonShape recognizes `ident == null` / `ident != null` in
// either operand order.
func nullComparisonShape(x, y ast.Expr) (*ast.Identifier, bool) {
	if ident, ok := x.(*ast.Identifier); ok {
		if _, ok := y.(*ast.NullLiteral); ok {
			return ident, true
		}
	}
	if ident, ok := y.(*ast.Identifier); ok {
		if _, ok := x.(*ast.NullLiteral); ok {
			return ident, true
		}
	}
	return nil, false
}

func kindNameToType(name string) types.Type {
	switch name {
	case "number":
		return types.Number
	case "string":
		return types.Str
	case "bool":
		return types.Bool
	case "null":
		return types.Null
	case "array":
		return types.ArrayType{Elem: types.Unknown}
	case "object":
		return types.ObjectType{Fields: map[string]types.Type{}}
	case "function":
		return types.FunctionType{Params: nil, Return: types.Unknown}
	default:
		return nil
	}
}

// refineByMember splits a union static type into (member-matching,
// rest) for a `typeof` equality check. If declared isn't a union, the
// then-branch is declared itself when it matches member's kind, else
// Never (the branch is statically dead); the else-branch is symmetric.
func refineByMember(declared types.Type, member types.Type) (then, els types.Type) {
	u, ok := declared.(types.UnionType)
	if !ok {
		if declared.Kind() == member.Kind() {
			return declared, types.Never
		}
		return types.Never, declared
	}
	var rest []types.Type
	var matched types.Type
	for _, m := range u.Members {
		if m.Kind() == member.Kind() {
			matched = m
		} else {
			rest = append(rest, m)
		}
	}
	if matched == nil {
		matched = types.Never
	}
	if len(rest) == 0 {
		return matched, types.Never
	}
	return matched, types.NewUnion(rest...)
}

// refineNonNull splits declared into (non-null, null-only) parts for an
// `== null`/`!= null` check, unwrapping Option<T> to T | null, or
// pulling Null out of an explicit union.
func refineNonNull(declared types.Type) (nonNull, nullOnly types.Type) {
	if opt, ok := declared.(types.OptionType); ok {
		return opt.Inner, types.Null
	}
	if u, ok := declared.(types.UnionType); ok {
		var rest []types.Type
		hasNull := false
		for _, m := range u.Members {
			if m.Kind() == types.KindNull {
				hasNull = true
			} else {
				rest = append(rest, m)
			}
		}
		if !hasNull {
			return declared, types.Never
		}
		if len(rest) == 0 {
			return types.Never, types.Null
		}
		return types.NewUnion(rest...), types.Null
	}
	if declared.Kind() == types.KindNull {
		return types.Never, types.Null
	}
	return declared, types.Never
}
