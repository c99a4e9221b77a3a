package dispatch

// globalBuiltins lists the free-function-style builtins callable
// directly as `name(args...)`, as opposed to the receiver-dispatched
// methods in the table above. Atlas's grammar (spec.md §3) has no
// module-qualified call syntax (`json.parse(...)` would parse as a
// MemberExpr call on an undeclared identifier `json`), so the
// namespaced builtins SPEC_FULL.md's stdlib section describes
// (`json.parse`, `fs.readFile`, ...) are realized here as flat
// predeclared global identifiers using the namespace as a prefix
// (`json_parse`, `fs_readFile`). internal/symbols and internal/typecheck
// both predeclare exactly this name set so these identifiers resolve
// without requiring a user-visible import; internal/compiler and
// internal/interpreter both consult IsGlobalBuiltin to decide whether a
// bare-identifier call site compiles to a native call instead of an
// ordinary function call.
var globalBuiltins = map[string]int{
	"len":    1,
	"print":  1,
	"typeof": 1,

	"json_parse":     1,
	"json_stringify": 1,
	"json_get":       2,
	"json_set":       3,

	"fs_readFile":  1,
	"fs_writeFile": 2,
	"fs_exists":    1,

	"net_get": 1,

	"proc_run": 1,

	"env_get": 1,
	"env_set": 2,

	"time_now":    0,
	"time_format": 2,

	"string_normalize":     1,
	"string_toUpperLocale": 1,
	"string_toLowerLocale": 1,
	"string_foldCase":      1,
}

// IterValuesBuiltin names the compiler-internal native call
// internal/compiler's ForInStmt lowering emits to normalize an
// iterable to an index-by-number sequence (an Array is returned
// unchanged, an Object yields its Keys() as an Array). It is
// deliberately absent from globalBuiltins: double-underscore names are
// never predeclared as user-callable identifiers by internal/symbols
// or internal/typecheck, only ever emitted directly as an OpCallNative
// operand, so user source can never spell or shadow it.
const IterValuesBuiltin = "__iter_values"

// IsGlobalBuiltin reports whether name is a predeclared free-function
// builtin.
func IsGlobalBuiltin(name string) bool {
	_, ok := globalBuiltins[name]
	return ok
}

// GlobalBuiltinArity returns the fixed argument count a global builtin
// expects. None of Atlas's global builtins are variadic.
func GlobalBuiltinArity(name string) (int, bool) {
	n, ok := globalBuiltins[name]
	return n, ok
}

// GlobalBuiltinNames returns every predeclared global builtin name, in
// no particular order; callers that need determinism sort it.
func GlobalBuiltinNames() []string {
	out := make([]string, 0, len(globalBuiltins))
	for name := range globalBuiltins {
		out = append(out, name)
	}
	return out
}
