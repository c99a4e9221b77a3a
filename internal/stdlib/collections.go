package stdlib

import (
	"io"
	"sort"
	"strings"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

// Array methods (internal/dispatch's arrayMethods table). The receiver
// is args[0]; Array is interior-mutable so push/pop mutate the receiver
// in place (push returns the new length, pop returns Some(last) or
// None), matching the reference-semantics contract spec.md §3
// documents for arrays.

func builtinArrayPush(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "push receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	a.Elems = append(a.Elems, args[1])
	return value.Number(len(a.Elems)), nil
}

func builtinArrayPop(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "pop receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	if len(a.Elems) == 0 {
		return value.None(), nil
	}
	last := a.Elems[len(a.Elems)-1]
	a.Elems = a.Elems[:len(a.Elems)-1]
	return value.Some(last), nil
}

func builtinArrayIncludes(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "includes receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	for _, e := range a.Elems {
		if value.Equals(e, args[1]) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func builtinArrayIndexOf(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "indexOf receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	for i, e := range a.Elems {
		if value.Equals(e, args[1]) {
			return value.Number(i), nil
		}
	}
	return value.Number(-1), nil
}

func builtinArraySlice(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "slice receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	start, diagErr := asNumber(args[1], sp, "slice start")
	if diagErr != nil {
		return nil, diagErr
	}
	end, diagErr := asNumber(args[2], sp, "slice end")
	if diagErr != nil {
		return nil, diagErr
	}
	lo, hi := clampRange(int(start), int(end), len(a.Elems))
	out := make([]value.Value, hi-lo)
	copy(out, a.Elems[lo:hi])
	return value.NewArray(out), nil
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

func builtinArrayJoin(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "join receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	sep, diagErr := asString(args[1], sp, "join separator")
	if diagErr != nil {
		return nil, diagErr
	}
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return value.String(strings.Join(parts, sep)), nil
}

func builtinArrayReverse(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "reverse receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	for i, j := 0, len(a.Elems)-1; i < j; i, j = i+1, j-1 {
		a.Elems[i], a.Elems[j] = a.Elems[j], a.Elems[i]
	}
	return a, nil
}

func builtinArraySort(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "sort receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	var sortErr *diag.Diagnostic
	sort.SliceStable(a.Elems, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		switch x := a.Elems[i].(type) {
		case value.Number:
			y, ok := a.Elems[j].(value.Number)
			if !ok {
				sortErr = typeErr(sp, "sort() requires elements of the same comparable type")
				return false
			}
			return x < y
		case value.String:
			y, ok := a.Elems[j].(value.String)
			if !ok {
				sortErr = typeErr(sp, "sort() requires elements of the same comparable type")
				return false
			}
			return x < y
		default:
			sortErr = typeErr(sp, "sort() requires numbers or strings, found %s", x.Kind())
			return false
		}
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return a, nil
}

func builtinArrayConcat(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	a, diagErr := asArray(args[0], sp, "concat receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	b, diagErr := asArray(args[1], sp, "concat argument")
	if diagErr != nil {
		return nil, diagErr
	}
	out := make([]value.Value, 0, len(a.Elems)+len(b.Elems))
	out = append(out, a.Elems...)
	out = append(out, b.Elems...)
	return value.NewArray(out), nil
}

// Object methods (internal/dispatch's objectMethods table).

func builtinObjectKeys(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, diagErr := asObject(args[0], sp, "keys receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	keys := o.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.NewArray(out), nil
}

func builtinObjectHas(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, diagErr := asObject(args[0], sp, "has receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	key, diagErr := asString(args[1], sp, "has key")
	if diagErr != nil {
		return nil, diagErr
	}
	_, ok := o.Get(key)
	return value.Bool(ok), nil
}

func builtinObjectGet(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, diagErr := asObject(args[0], sp, "get receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	key, diagErr := asString(args[1], sp, "get key")
	if diagErr != nil {
		return nil, diagErr
	}
	v, ok := o.Get(key)
	if !ok {
		return value.None(), nil
	}
	return value.Some(v), nil
}

func builtinObjectSet(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, diagErr := asObject(args[0], sp, "set receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	key, diagErr := asString(args[1], sp, "set key")
	if diagErr != nil {
		return nil, diagErr
	}
	o.Set(key, args[2])
	return o, nil
}

// String methods (internal/dispatch's stringMethods table). Strings are
// value types, so every method returns a fresh String rather than
// mutating the receiver.

func builtinStringToUpper(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "toUpper receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(strings.ToUpper(s)), nil
}

func builtinStringToLower(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "toLower receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(strings.ToLower(s)), nil
}

func builtinStringTrim(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "trim receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(strings.TrimSpace(s)), nil
}

func builtinStringSplit(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "split receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	sep, diagErr := asString(args[1], sp, "split separator")
	if diagErr != nil {
		return nil, diagErr
	}
	parts := strings.Split(s, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewArray(out), nil
}

func builtinStringContains(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "contains receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	sub, diagErr := asString(args[1], sp, "contains argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.Bool(strings.Contains(s, sub)), nil
}

func builtinStringStartsWith(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "startsWith receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	prefix, diagErr := asString(args[1], sp, "startsWith argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func builtinStringEndsWith(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "endsWith receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	suffix, diagErr := asString(args[1], sp, "endsWith argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func builtinStringReplace(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "replace receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	old, diagErr := asString(args[1], sp, "replace old")
	if diagErr != nil {
		return nil, diagErr
	}
	newS, diagErr := asString(args[2], sp, "replace new")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(strings.ReplaceAll(s, old, newS)), nil
}

func builtinStringCharAt(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "charAt receiver")
	if diagErr != nil {
		return nil, diagErr
	}
	idx, diagErr := asNumber(args[1], sp, "charAt index")
	if diagErr != nil {
		return nil, diagErr
	}
	runes := []rune(s)
	i := int(idx)
	if i < 0 || i >= len(runes) {
		return nil, diag.New(diag.ErrRuntimeOutOfBounds, "charAt index out of bounds", sp)
	}
	return value.String(string(runes[i])), nil
}

// Option methods (internal/dispatch's optionMethods table).

func builtinOptionIsSome(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, ok := args[0].(*value.Option)
	if !ok {
		return nil, typeErr(sp, "isSome() requires an option, found %s", args[0].Kind())
	}
	return value.Bool(o.HasValue), nil
}

func builtinOptionIsNone(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, ok := args[0].(*value.Option)
	if !ok {
		return nil, typeErr(sp, "isNone() requires an option, found %s", args[0].Kind())
	}
	return value.Bool(!o.HasValue), nil
}

func builtinOptionUnwrap(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, ok := args[0].(*value.Option)
	if !ok {
		return nil, typeErr(sp, "unwrap() requires an option, found %s", args[0].Kind())
	}
	if !o.HasValue {
		return nil, diag.New(diag.ErrRuntimeType, "unwrap() called on None", sp)
	}
	return o.Val, nil
}

func builtinOptionUnwrapOr(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	o, ok := args[0].(*value.Option)
	if !ok {
		return nil, typeErr(sp, "unwrapOr() requires an option, found %s", args[0].Kind())
	}
	if !o.HasValue {
		return args[1], nil
	}
	return o.Val, nil
}

// Result methods (internal/dispatch's resultMethods table).

func builtinResultIsOk(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	r, ok := args[0].(*value.Result)
	if !ok {
		return nil, typeErr(sp, "isOk() requires a result, found %s", args[0].Kind())
	}
	return value.Bool(r.IsOk), nil
}

func builtinResultIsErr(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	r, ok := args[0].(*value.Result)
	if !ok {
		return nil, typeErr(sp, "isErr() requires a result, found %s", args[0].Kind())
	}
	return value.Bool(!r.IsOk), nil
}

func builtinResultUnwrap(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	r, ok := args[0].(*value.Result)
	if !ok {
		return nil, typeErr(sp, "unwrap() requires a result, found %s", args[0].Kind())
	}
	if !r.IsOk {
		return nil, diag.New(diag.ErrRuntimeType, "unwrap() called on Err("+r.Val.String()+")", sp)
	}
	return r.Val, nil
}

func builtinResultUnwrapOr(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	r, ok := args[0].(*value.Result)
	if !ok {
		return nil, typeErr(sp, "unwrapOr() requires a result, found %s", args[0].Kind())
	}
	if !r.IsOk {
		return args[1], nil
	}
	return r.Val, nil
}
