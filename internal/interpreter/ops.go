package interpreter

import (
	"math"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/value"
)

// arith/compare/indexGet/indexSet/memberGet/memberSet duplicate
// internal/vm's operator semantics exactly (same diagnostic codes, same
// operand checks) rather than sharing a helper package, so the VM and
// this package stay two independent implementations of the same
// contract — the arrangement spec.md §8's parity requirement is
// actually testing.

func arith(op token.Kind, a, b value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	if op == token.PLUS {
		if as, ok := a.(value.String); ok {
			bs, ok := b.(value.String)
			if !ok {
				return nil, typeErr(sp, "cannot add string and %s", b.Kind())
			}
			return as + bs, nil
		}
		if _, ok := b.(value.String); ok {
			return nil, typeErr(sp, "cannot add %s and string", a.Kind())
		}
	}

	an, ok := a.(value.Number)
	if !ok {
		return nil, typeErr(sp, "arithmetic requires numbers, found %s", a.Kind())
	}
	bn, ok := b.(value.Number)
	if !ok {
		return nil, typeErr(sp, "arithmetic requires numbers, found %s", b.Kind())
	}
	x, y := float64(an), float64(bn)

	switch op {
	case token.PLUS:
		return checkOverflow(x+y, x, y, sp)
	case token.MINUS:
		return checkOverflow(x-y, x, y, sp)
	case token.STAR:
		return checkOverflow(x*y, x, y, sp)
	case token.SLASH:
		if y == 0 {
			return nil, diag.New(diag.ErrRuntimeDivByZero, "division by zero", sp)
		}
		return checkOverflow(x/y, x, y, sp)
	case token.PERCENT:
		if y == 0 {
			return nil, diag.New(diag.ErrRuntimeDivByZero, "modulo by zero", sp)
		}
		return value.Number(math.Mod(x, y)), nil
	default:
		return nil, diag.New(diag.ErrInternal, "not an arithmetic operator", sp)
	}
}

func checkOverflow(result, x, y float64, sp span.Span) (value.Value, *diag.Diagnostic) {
	if math.IsInf(result, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return nil, diag.New(diag.ErrRuntimeOverflow, "numeric operation overflowed to infinity", sp)
	}
	return value.Number(result), nil
}

func compare(op token.Kind, a, b value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	an, ok := a.(value.Number)
	if !ok {
		return nil, typeErr(sp, "comparison requires numbers, found %s", a.Kind())
	}
	bn, ok := b.(value.Number)
	if !ok {
		return nil, typeErr(sp, "comparison requires numbers, found %s", b.Kind())
	}
	switch op {
	case token.LT:
		return value.Bool(an < bn), nil
	case token.LTE:
		return value.Bool(an <= bn), nil
	case token.GT:
		return value.Bool(an > bn), nil
	case token.GTE:
		return value.Bool(an >= bn), nil
	default:
		return nil, diag.New(diag.ErrInternal, "not a comparison operator", sp)
	}
}

func arrayIndex(idx value.Value, sp span.Span) (int, *diag.Diagnostic) {
	n, ok := idx.(value.Number)
	if !ok {
		return 0, diag.New(diag.ErrRuntimeBadIndex, "array index must be a non-negative whole number", sp)
	}
	f := float64(n)
	if f != math.Trunc(f) || f < 0 {
		return 0, diag.New(diag.ErrRuntimeBadIndex, "array index must be a non-negative whole number", sp)
	}
	return int(f), nil
}

func indexGet(recv, idx value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	switch r := recv.(type) {
	case *value.Array:
		i, derr := arrayIndex(idx, sp)
		if derr != nil {
			return nil, derr
		}
		if i < 0 || i >= len(r.Elems) {
			return nil, diag.New(diag.ErrRuntimeOutOfBounds, "array index out of bounds", sp)
		}
		return r.Elems[i], nil
	case *value.Object:
		key, ok := idx.(value.String)
		if !ok {
			return nil, typeErr(sp, "object index must be a string, found %s", idx.Kind())
		}
		v, ok := r.Get(string(key))
		if !ok {
			return value.TheNull, nil
		}
		return v, nil
	default:
		return nil, typeErr(sp, "%s is not indexable", recv.Kind())
	}
}

func indexSet(recv, idx, val value.Value, sp span.Span) *diag.Diagnostic {
	switch r := recv.(type) {
	case *value.Array:
		i, derr := arrayIndex(idx, sp)
		if derr != nil {
			return derr
		}
		if i < 0 || i >= len(r.Elems) {
			return diag.New(diag.ErrRuntimeOutOfBounds, "array index out of bounds", sp)
		}
		r.Elems[i] = val
		return nil
	case *value.Object:
		key, ok := idx.(value.String)
		if !ok {
			return typeErr(sp, "object index must be a string, found %s", idx.Kind())
		}
		r.Set(string(key), val)
		return nil
	default:
		return typeErr(sp, "%s is not indexable", recv.Kind())
	}
}

func memberGet(recv value.Value, name string, sp span.Span) (value.Value, *diag.Diagnostic) {
	obj, ok := recv.(*value.Object)
	if !ok {
		return nil, typeErr(sp, "%s has no field %q", recv.Kind(), name)
	}
	v, ok := obj.Get(name)
	if !ok {
		return value.TheNull, nil
	}
	return v, nil
}

func memberSet(recv value.Value, name string, val value.Value, sp span.Span) *diag.Diagnostic {
	obj, ok := recv.(*value.Object)
	if !ok {
		return typeErr(sp, "%s has no field %q", recv.Kind(), name)
	}
	obj.Set(name, val)
	return nil
}

// unaryOp implements `-x`/`!x`.
func unaryOp(op token.Kind, x value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	if op == token.BANG {
		return value.Bool(!value.Truthy(x)), nil
	}
	n, ok := x.(value.Number)
	if !ok {
		return nil, typeErr(sp, "unary - requires a number, found %s", x.Kind())
	}
	return -n, nil
}
