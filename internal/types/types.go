// Package types implements Atlas's static type lattice: the tagged
// variant of spec.md §3 (Number, String, Bool, Null, Void, Array,
// Object, Function, Option, Result, Union, Intersection, Generic,
// Unknown, Never), plus the operations internal/typecheck needs over
// it — assignability, least-upper-bound, unification with an
// occurs-check, and type-parameter substitution.
//
// The teacher's own internal/types package was retrieved with tests
// only (no implementation files survived the retrieval filter), so
// this package is grounded on the *usage* of those types visible in
// internal/semantic/analyze_types.go and analyze_expr_operators.go
// (e.g. `types.Compatible`, `types.Array{Element: ...}`-shaped
// construction, case-insensitive named-type lookup) rather than a
// direct port, generalized to Atlas's richer lattice (DWScript has no
// Option/Result/Union/generic-unification-variable types).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags a Type's variant.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindNull
	KindVoid
	KindArray
	KindObject
	KindFunction
	KindOption
	KindResult
	KindUnion
	KindIntersection
	KindGeneric
	KindUnknown
	KindNever
)

// Type is any member of the lattice. String() must produce the
// user-visible display names spec.md §4.4 requires for diagnostics
// (e.g. "number[]", "(number) -> number").
type Type interface {
	Kind() Kind
	String() string
}

// Primitive types are singletons: there is exactly one Number, one
// String, etc., so reference equality and (==) both work for them.
type primitive struct {
	kind Kind
	name string
}

func (p primitive) Kind() Kind     { return p.kind }
func (p primitive) String() string { return p.name }

var (
	Number  Type = primitive{KindNumber, "number"}
	Str     Type = primitive{KindString, "string"}
	Bool    Type = primitive{KindBool, "bool"}
	Null    Type = primitive{KindNull, "null"}
	Void    Type = primitive{KindVoid, "void"}
	Unknown Type = primitive{KindUnknown, "unknown"}
	Never   Type = primitive{KindNever, "never"}
)

// ArrayType is `Elem[]`.
type ArrayType struct{ Elem Type }

func (ArrayType) Kind() Kind       { return KindArray }
func (a ArrayType) String() string { return a.Elem.String() + "[]" }

// ObjectType is a structural record type `{field: Type, ...}`.
type ObjectType struct {
	Fields map[string]Type
}

func (ObjectType) Kind() Kind { return KindObject }
func (o ObjectType) String() string {
	names := make([]string, 0, len(o.Fields))
	for n := range o.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + o.Fields[n].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionType is `(Params) -> Return`.
type FunctionType struct {
	Params []Type
	Return Type
}

func (FunctionType) Kind() Kind { return KindFunction }
func (f FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + f.Return.String()
}

// OptionType is `Option<Inner>`.
type OptionType struct{ Inner Type }

func (OptionType) Kind() Kind       { return KindOption }
func (o OptionType) String() string { return "Option<" + o.Inner.String() + ">" }

// ResultType is `Result<Ok, Err>`.
type ResultType struct{ Ok, Err Type }

func (ResultType) Kind() Kind       { return KindResult }
func (r ResultType) String() string { return "Result<" + r.Ok.String() + ", " + r.Err.String() + ">" }

// UnionType is `A | B | C`, represented as a deduplicated, order-
// preserving member list.
type UnionType struct{ Members []Type }

func (UnionType) Kind() Kind { return KindUnion }
func (u UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// IntersectionType is `A & B & C`.
type IntersectionType struct{ Members []Type }

func (IntersectionType) Kind() Kind { return KindIntersection }
func (i IntersectionType) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}

// GenericType is an unbound type parameter, identified by a unique id
// assigned at the declaration site that introduces it (a function's
// `<T>` list). Two GenericTypes are the same parameter iff their IDs
// match.
type GenericType struct {
	ID   int
	Name string // surface-syntax name, for display only
}

func (GenericType) Kind() Kind       { return KindGeneric }
func (g GenericType) String() string { return g.Name }

// NewUnion builds a UnionType, flattening nested unions and
// deduplicating members by display name (a simple, deterministic
// dedup key appropriate for diagnostics; full structural interning is
// unnecessary for this lattice's size).
func NewUnion(members ...Type) Type {
	seen := map[string]bool{}
	var flat []Type
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(UnionType); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		key := t.String()
		if seen[key] {
			return
		}
		seen[key] = true
		flat = append(flat, t)
	}
	for _, m := range members {
		add(m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return UnionType{Members: flat}
}

// Equal reports whether a and b denote the same type, structurally.
func Equal(a, b Type) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case ArrayType:
		return Equal(x.Elem, b.(ArrayType).Elem)
	case ObjectType:
		y := b.(ObjectType)
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, v := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok || !Equal(v, yv) {
				return false
			}
		}
		return true
	case FunctionType:
		y := b.(FunctionType)
		if len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	case OptionType:
		return Equal(x.Inner, b.(OptionType).Inner)
	case ResultType:
		y := b.(ResultType)
		return Equal(x.Ok, y.Ok) && Equal(x.Err, y.Err)
	case UnionType:
		return a.String() == b.String()
	case IntersectionType:
		return a.String() == b.String()
	case GenericType:
		return x.ID == b.(GenericType).ID
	default:
		return a.Kind() == b.Kind() // primitives
	}
}

// Assignable reports whether a value of type `from` may be used where
// `to` is expected. Unknown is assignable to and from anything (it is
// the error-recovery type per spec.md §3); Never is assignable to
// anything (a diverging expression has every type); a union is
// assignable to `to` if every member is; `to` being a union succeeds if
// `from` is assignable to any one member.
func Assignable(from, to Type) bool {
	if from.Kind() == KindUnknown || to.Kind() == KindUnknown {
		return true
	}
	if from.Kind() == KindNever {
		return true
	}
	if u, ok := from.(UnionType); ok {
		for _, m := range u.Members {
			if !Assignable(m, to) {
				return false
			}
		}
		return true
	}
	if u, ok := to.(UnionType); ok {
		for _, m := range u.Members {
			if Assignable(from, m) {
				return true
			}
		}
		return false
	}
	if Equal(from, to) {
		return true
	}
	switch x := from.(type) {
	case ArrayType:
		y, ok := to.(ArrayType)
		return ok && Assignable(x.Elem, y.Elem)
	case FunctionType:
		y, ok := to.(FunctionType)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			// parameters are contravariant: `to`'s param must be
			// assignable to `from`'s param for the function to be
			// safely substitutable.
			if !Assignable(y.Params[i], x.Params[i]) {
				return false
			}
		}
		return Assignable(x.Return, y.Return)
	case OptionType:
		y, ok := to.(OptionType)
		return ok && Assignable(x.Inner, y.Inner)
	case ResultType:
		y, ok := to.(ResultType)
		return ok && Assignable(x.Ok, y.Ok) && Assignable(x.Err, y.Err)
	case ObjectType:
		y, ok := to.(ObjectType)
		if !ok {
			return false
		}
		for k, yv := range y.Fields {
			xv, ok := x.Fields[k]
			if !ok || !Assignable(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

// LUB (least upper bound) computes the narrowest type that both a and
// b are assignable to, used to join branch types at control-flow merge
// points (spec.md §4.4). Incompatible types join to a Union.
func LUB(a, b Type) Type {
	if Equal(a, b) {
		return a
	}
	if a.Kind() == KindNever {
		return b
	}
	if b.Kind() == KindNever {
		return a
	}
	if a.Kind() == KindUnknown || b.Kind() == KindUnknown {
		return Unknown
	}
	if Assignable(a, b) {
		return b
	}
	if Assignable(b, a) {
		return a
	}
	return NewUnion(a, b)
}

// Subst maps generic-parameter IDs to concrete types, the output of
// Unify and the input to Substitute.
type Subst map[int]Type

// UnifyError reports that two types could not be unified.
type UnifyError struct {
	A, B Type
	Why  string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.A, e.B, e.Why)
}

// Unify attempts to make a and b equal by solving for any GenericType
// unification variables they contain, extending subst in place. It
// performs an occurs-check so a generic parameter can never unify with
// a type that contains itself (spec.md §3: "occurs-check to reject
// infinite types").
func Unify(a, b Type, subst Subst) error {
	a = ApplySubst(a, subst)
	b = ApplySubst(b, subst)

	if g, ok := a.(GenericType); ok {
		return bindGeneric(g, b, subst)
	}
	if g, ok := b.(GenericType); ok {
		return bindGeneric(g, a, subst)
	}
	if a.Kind() == KindUnknown || b.Kind() == KindUnknown {
		return nil
	}
	if a.Kind() != b.Kind() {
		return &UnifyError{A: a, B: b, Why: "kind mismatch"}
	}
	switch x := a.(type) {
	case ArrayType:
		return Unify(x.Elem, b.(ArrayType).Elem, subst)
	case OptionType:
		return Unify(x.Inner, b.(OptionType).Inner, subst)
	case ResultType:
		y := b.(ResultType)
		if err := Unify(x.Ok, y.Ok, subst); err != nil {
			return err
		}
		return Unify(x.Err, y.Err, subst)
	case FunctionType:
		y := b.(FunctionType)
		if len(x.Params) != len(y.Params) {
			return &UnifyError{A: a, B: b, Why: "arity mismatch"}
		}
		for i := range x.Params {
			if err := Unify(x.Params[i], y.Params[i], subst); err != nil {
				return err
			}
		}
		return Unify(x.Return, y.Return, subst)
	case ObjectType:
		y := b.(ObjectType)
		for k, xv := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok {
				return &UnifyError{A: a, B: b, Why: "missing field " + k}
			}
			if err := Unify(xv, yv, subst); err != nil {
				return err
			}
		}
		return nil
	default:
		if !Equal(a, b) {
			return &UnifyError{A: a, B: b, Why: "not equal"}
		}
		return nil
	}
}

func bindGeneric(g GenericType, t Type, subst Subst) error {
	if existing, ok := subst[g.ID]; ok {
		return Unify(existing, t, subst)
	}
	if other, ok := t.(GenericType); ok && other.ID == g.ID {
		return nil
	}
	if occurs(g.ID, t, subst) {
		return &UnifyError{A: g, B: t, Why: "infinite type (occurs check)"}
	}
	subst[g.ID] = t
	return nil
}

func occurs(id int, t Type, subst Subst) bool {
	t = ApplySubst(t, subst)
	switch x := t.(type) {
	case GenericType:
		return x.ID == id
	case ArrayType:
		return occurs(id, x.Elem, subst)
	case OptionType:
		return occurs(id, x.Inner, subst)
	case ResultType:
		return occurs(id, x.Ok, subst) || occurs(id, x.Err, subst)
	case FunctionType:
		for _, p := range x.Params {
			if occurs(id, p, subst) {
				return true
			}
		}
		return occurs(id, x.Return, subst)
	case ObjectType:
		for _, f := range x.Fields {
			if occurs(id, f, subst) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ApplySubst resolves every GenericType in t one level using subst, so
// a fully-solved chain of bindings collapses to a concrete type.
func ApplySubst(t Type, subst Subst) Type {
	switch x := t.(type) {
	case GenericType:
		if resolved, ok := subst[x.ID]; ok {
			return ApplySubst(resolved, subst)
		}
		return x
	case ArrayType:
		return ArrayType{Elem: ApplySubst(x.Elem, subst)}
	case OptionType:
		return OptionType{Inner: ApplySubst(x.Inner, subst)}
	case ResultType:
		return ResultType{Ok: ApplySubst(x.Ok, subst), Err: ApplySubst(x.Err, subst)}
	case FunctionType:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = ApplySubst(p, subst)
		}
		return FunctionType{Params: params, Return: ApplySubst(x.Return, subst)}
	case ObjectType:
		fields := make(map[string]Type, len(x.Fields))
		for k, v := range x.Fields {
			fields[k] = ApplySubst(v, subst)
		}
		return ObjectType{Fields: fields}
	default:
		return t
	}
}
