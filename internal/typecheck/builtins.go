package typecheck

import (
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/types"
)

// builtinReturn gives a handful of global builtins a precise return
// type so callers get real type checking instead of falling back to
// Unknown everywhere; every other global builtin (the I/O- and
// locale-facing ones SPEC_FULL.md's stdlib section adds) returns
// Unknown, which unifies with anything and simply opts that call out
// of static checking beyond its arity.
func builtinReturn(name string) types.Type {
	switch name {
	case "len":
		return types.Number
	case "typeof":
		return types.Str
	case "fs_exists":
		return types.Bool
	case "time_now":
		return types.Number
	default:
		return types.Unknown
	}
}

// newBuiltinEnv seeds a fresh checker environment with a FunctionType
// binding for every internal/dispatch global builtin (see
// internal/symbols.NewTable's matching seed for the binder side), so
// `len(x)` and the rest typecheck as ordinary calls to a predeclared
// global function.
func newBuiltinEnv() *env {
	e := newEnv(nil)
	for _, name := range dispatch.GlobalBuiltinNames() {
		arity, _ := dispatch.GlobalBuiltinArity(name)
		params := make([]types.Type, arity)
		for i := range params {
			params[i] = types.Unknown
		}
		ft := types.FunctionType{Params: params, Return: builtinReturn(name)}
		e.define(&binding{
			name:     name,
			kind:     symbols.KindFunction,
			mutable:  false,
			declType: ft,
			curType:  ft,
		})
	}
	return e
}
