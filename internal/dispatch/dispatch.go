// Package dispatch implements the shared (TypeTag, method-name) ->
// builtin-name table spec.md §4.4/§4.9 requires both engines to
// consult, so `receiver.method(args)` resolves to exactly one builtin
// regardless of which engine evaluates it.
//
// Grounded directly in
// original_source/crates/atlas-runtime/src/method_dispatch.rs
// (`TypeTag` enum + `resolve_method`), generalized from DWScript's/the
// Rust prototype's `JsonValue`/`Array` tag set to Atlas's `Array`,
// `Object`, `String`, `Option`, `Result` tags. `map`/`filter`/`reduce`
// are deliberately absent: spec.md has no first-class closures-as-
// arguments methods beyond what §3 lists, so this table stays exactly
// as large as the spec's builtin surface requires.
package dispatch

// TypeTag is a runtime-stable discriminator used only for method
// dispatch (distinct from value.Kind, which also covers non-
// method-bearing kinds like Function and Null).
type TypeTag int

const (
	TagArray TypeTag = iota
	TagObject
	TagString
	TagOption
	TagResult
)

func (t TypeTag) String() string {
	switch t {
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagString:
		return "string"
	case TagOption:
		return "option"
	case TagResult:
		return "result"
	default:
		return "unknown"
	}
}

var arrayMethods = map[string]string{
	"push":         "arrayPush",
	"pop":          "arrayPop",
	"len":          "len",
	"includes":     "arrayIncludes",
	"indexOf":      "arrayIndexOf",
	"slice":        "arraySlice",
	"join":         "arrayJoin",
	"reverse":      "arrayReverse",
	"sort":         "arraySort",
	"concat":       "arrayConcat",
}

var objectMethods = map[string]string{
	"keys": "objectKeys",
	"has":  "objectHas",
	"get":  "objectGet",
	"set":  "objectSet",
	"len":  "objectLen",
}

var stringMethods = map[string]string{
	"len":        "len",
	"toUpper":    "stringToUpper",
	"toLower":    "stringToLower",
	"trim":       "stringTrim",
	"split":      "stringSplit",
	"contains":   "stringContains",
	"startsWith": "stringStartsWith",
	"endsWith":   "stringEndsWith",
	"replace":    "stringReplace",
	"charAt":     "stringCharAt",
}

var optionMethods = map[string]string{
	"isSome":     "optionIsSome",
	"isNone":     "optionIsNone",
	"unwrap":     "optionUnwrap",
	"unwrapOr":   "optionUnwrapOr",
}

var resultMethods = map[string]string{
	"isOk":     "resultIsOk",
	"isErr":    "resultIsErr",
	"unwrap":   "resultUnwrap",
	"unwrapOr": "resultUnwrapOr",
}

func tableFor(tag TypeTag) map[string]string {
	switch tag {
	case TagArray:
		return arrayMethods
	case TagObject:
		return objectMethods
	case TagString:
		return stringMethods
	case TagOption:
		return optionMethods
	case TagResult:
		return resultMethods
	default:
		return nil
	}
}

// Resolve maps (tag, method) to the internal/stdlib builtin name that
// implements it. The bool result is false when the method is unknown
// for that type, the signal both the typechecker (AT3006) and the
// runtime use to reject an unresolvable method call.
func Resolve(tag TypeTag, method string) (string, bool) {
	table := tableFor(tag)
	if table == nil {
		return "", false
	}
	name, ok := table[method]
	return name, ok
}

// Methods returns every method name registered for tag, sorted only by
// map iteration order at the call site (callers needing a stable order
// should sort the result themselves); used by the typechecker to list
// valid completions in an "unknown method" diagnostic's help text.
func Methods(tag TypeTag) []string {
	table := tableFor(tag)
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names
}
