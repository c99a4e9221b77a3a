package vm

import (
	"math"

	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

// arith implements Add/Sub/Mul/Div/Mod over two already-popped operands
// (internal/typecheck's synthBinary is the static half of this: PLUS
// additionally accepts two strings as concatenation, every other
// arithmetic op requires two numbers). Division/modulo by zero raise
// AT0005 before any float math runs; a finite-times-finite operation
// that escapes to +/-Inf raises AT0007 rather than silently producing
// Infinity.
func arith(op bytecode.OpCode, a, b value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	if op == bytecode.OpAdd {
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
	case bytecode.OpAdd:
		return checkOverflow(x+y, x, y, sp)
	case bytecode.OpSub:
		return checkOverflow(x-y, x, y, sp)
	case bytecode.OpMul:
		return checkOverflow(x*y, x, y, sp)
	case bytecode.OpDiv:
		if y == 0 {
			return nil, diag.New(diag.ErrRuntimeDivByZero, "division by zero", sp)
		}
		return checkOverflow(x/y, x, y, sp)
	case bytecode.OpMod:
		if y == 0 {
			return nil, diag.New(diag.ErrRuntimeDivByZero, "modulo by zero", sp)
		}
		return value.Number(math.Mod(x, y)), nil
	default:
		return nil, diag.New(diag.ErrInternal, "not an arithmetic opcode", sp)
	}
}

func checkOverflow(result, x, y float64, sp span.Span) (value.Value, *diag.Diagnostic) {
	if math.IsInf(result, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return nil, diag.New(diag.ErrRuntimeOverflow, "numeric operation overflowed to infinity", sp)
	}
	return value.Number(result), nil
}

// compare implements Lt/Leq/Gt/Geq, which only ever operate on two
// numbers (spec.md §9: relational operators are numeric-only; string
// ordering is not part of the surface language).
func compare(op bytecode.OpCode, a, b value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	an, ok := a.(value.Number)
	if !ok {
		return nil, typeErr(sp, "comparison requires numbers, found %s", a.Kind())
	}
	bn, ok := b.(value.Number)
	if !ok {
		return nil, typeErr(sp, "comparison requires numbers, found %s", b.Kind())
	}
	switch op {
	case bytecode.OpLt:
		return value.Bool(an < bn), nil
	case bytecode.OpLeq:
		return value.Bool(an <= bn), nil
	case bytecode.OpGt:
		return value.Bool(an > bn), nil
	case bytecode.OpGeq:
		return value.Bool(an >= bn), nil
	default:
		return nil, diag.New(diag.ErrInternal, "not a comparison opcode", sp)
	}
}

// indexGet/indexSet implement OpIndex/OpIndexStore over an Array (by
// integer position) or Object (by string key), the two indexable kinds
// spec.md §3 defines. A non-whole-number or negative array index is
// AT0103 (bad index) before the bounds check; an in-range-shape but
// out-of-bounds position is AT0006.
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

// memberGet/memberSet implement OpMember/OpMemberStore, Atlas's `.field`
// access on an Object (spec.md §3: objects are the only `.field`-bearing
// kind; method calls lower to OpCallMethod instead, never OpMember).
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
