// Package stdlib implements Atlas's single stdlib dispatch surface
// (spec.md §4.10): CallBuiltin(name, args, span, security, stdout) and
// IsBuiltin(name), the one call-and-gate point both internal/vm and
// internal/interpreter route every native call through, so `arr.push(x)`,
// `json.get("k")`, and every other builtin run identical code and are
// checked against the same *security.Context regardless of which
// engine is evaluating.
//
// Grounded in the teacher's internal/bytecode/vm_builtins*.go split (one
// file per builtin family: math, string, conversion, misc) and in
// internal/interp/builtins' package-level registration style, adapted
// to Atlas's single free-function entry point rather than a per-VM
// registered map, since spec.md §4.10 requires exactly one function
// both engines call.
package stdlib

import (
	"fmt"
	"io"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

// builtinFunc is one builtin's implementation. args is already
// arity-checked by the caller where the arity is statically known
// (internal/dispatch.GlobalBuiltinArity); method-dispatched builtins
// receive the receiver as args[0].
type builtinFunc func(args []value.Value, sp span.Span, sec *security.Context, stdout io.Writer) (value.Value, *diag.Diagnostic)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"len":    builtinLen,
		"print":  builtinPrint,
		"typeof": builtinTypeof,

		"__iter_values": builtinIterValues,

		"arrayPush":     builtinArrayPush,
		"arrayPop":      builtinArrayPop,
		"arrayIncludes": builtinArrayIncludes,
		"arrayIndexOf":  builtinArrayIndexOf,
		"arraySlice":    builtinArraySlice,
		"arrayJoin":     builtinArrayJoin,
		"arrayReverse":  builtinArrayReverse,
		"arraySort":     builtinArraySort,
		"arrayConcat":   builtinArrayConcat,

		"objectKeys": builtinObjectKeys,
		"objectHas":  builtinObjectHas,
		"objectGet":  builtinObjectGet,
		"objectSet":  builtinObjectSet,
		"objectLen":  builtinLen,

		"stringToUpper":    builtinStringToUpper,
		"stringToLower":    builtinStringToLower,
		"stringTrim":       builtinStringTrim,
		"stringSplit":      builtinStringSplit,
		"stringContains":   builtinStringContains,
		"stringStartsWith": builtinStringStartsWith,
		"stringEndsWith":   builtinStringEndsWith,
		"stringReplace":    builtinStringReplace,
		"stringCharAt":     builtinStringCharAt,

		"optionIsSome":   builtinOptionIsSome,
		"optionIsNone":   builtinOptionIsNone,
		"optionUnwrap":   builtinOptionUnwrap,
		"optionUnwrapOr": builtinOptionUnwrapOr,

		"resultIsOk":     builtinResultIsOk,
		"resultIsErr":    builtinResultIsErr,
		"resultUnwrap":   builtinResultUnwrap,
		"resultUnwrapOr": builtinResultUnwrapOr,

		"json_parse":     builtinJSONParse,
		"json_stringify": builtinJSONStringify,
		"json_get":       builtinJSONGet,
		"json_set":       builtinJSONSet,

		"fs_readFile":  builtinFSReadFile,
		"fs_writeFile": builtinFSWriteFile,
		"fs_exists":    builtinFSExists,

		"net_get": builtinNetGet,

		"proc_run": builtinProcRun,

		"env_get": builtinEnvGet,
		"env_set": builtinEnvSet,

		"time_now":    builtinTimeNow,
		"time_format": builtinTimeFormat,

		"string_normalize":     builtinStringNormalize,
		"string_toUpperLocale": builtinStringToUpperLocale,
		"string_toLowerLocale": builtinStringToLowerLocale,
		"string_foldCase":      builtinStringFoldCase,
	}
}

// IsBuiltin reports whether name names any builtin this surface
// implements, global or method-dispatched.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// CallBuiltin is the single entry point both engines route every
// native call through (spec.md §4.10).
func CallBuiltin(name string, args []value.Value, sp span.Span, sec *security.Context, stdout io.Writer) (value.Value, *diag.Diagnostic) {
	fn, ok := builtins[name]
	if !ok {
		return nil, typeErr(sp, "unknown builtin %q", name)
	}
	return fn(args, sp, sec, stdout)
}

func typeErr(sp span.Span, format string, args ...any) *diag.Diagnostic {
	return diag.New(diag.ErrRuntimeType, fmt.Sprintf(format, args...), sp)
}

func securityErr(sp span.Span, format string, args ...any) *diag.Diagnostic {
	return diag.New(diag.ErrRuntimeSecurity, fmt.Sprintf(format, args...), sp)
}

func asNumber(v value.Value, sp span.Span, what string) (float64, *diag.Diagnostic) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, typeErr(sp, "%s must be a number, found %s", what, v.Kind())
	}
	return float64(n), nil
}

func asString(v value.Value, sp span.Span, what string) (string, *diag.Diagnostic) {
	s, ok := v.(value.String)
	if !ok {
		return "", typeErr(sp, "%s must be a string, found %s", what, v.Kind())
	}
	return string(s), nil
}

func asArray(v value.Value, sp span.Span, what string) (*value.Array, *diag.Diagnostic) {
	a, ok := v.(*value.Array)
	if !ok {
		return nil, typeErr(sp, "%s must be an array, found %s", what, v.Kind())
	}
	return a, nil
}

func asObject(v value.Value, sp span.Span, what string) (*value.Object, *diag.Diagnostic) {
	o, ok := v.(*value.Object)
	if !ok {
		return nil, typeErr(sp, "%s must be an object, found %s", what, v.Kind())
	}
	return o, nil
}

func builtinLen(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	switch x := args[0].(type) {
	case *value.Array:
		return value.Number(len(x.Elems)), nil
	case value.String:
		return value.Number(len([]rune(string(x)))), nil
	case *value.Object:
		return value.Number(x.Len()), nil
	default:
		return nil, typeErr(sp, "len() requires an array, string, or object, found %s", args[0].Kind())
	}
}

func builtinPrint(args []value.Value, sp span.Span, _ *security.Context, stdout io.Writer) (value.Value, *diag.Diagnostic) {
	if stdout != nil {
		fmt.Fprintln(stdout, args[0].String())
	}
	return value.TheNull, nil
}

func builtinTypeof(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	switch args[0].Kind() {
	case value.KindNumber:
		return value.String("number"), nil
	case value.KindString:
		return value.String("string"), nil
	case value.KindBool:
		return value.String("bool"), nil
	case value.KindNull:
		return value.String("null"), nil
	case value.KindArray:
		return value.String("array"), nil
	case value.KindObject:
		return value.String("object"), nil
	case value.KindFunction, value.KindNative:
		return value.String("function"), nil
	case value.KindOption:
		return value.String("option"), nil
	case value.KindResult:
		return value.String("result"), nil
	default:
		return value.String("unknown"), nil
	}
}

// builtinIterValues implements internal/compiler's for-in lowering
// (DESIGN.md: ForInStmt normalizes its iterable through this builtin
// before walking it with an ordinary index counter): an Array passes
// through unchanged, an Object yields its Keys() as a new Array.
func builtinIterValues(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	switch x := args[0].(type) {
	case *value.Array:
		return x, nil
	case *value.Object:
		keys := x.Keys()
		elems := make([]value.Value, len(keys))
		for i, k := range keys {
			elems[i] = value.String(k)
		}
		return value.NewArray(elems), nil
	default:
		return nil, typeErr(sp, "for-in requires an array or object, found %s", args[0].Kind())
	}
}
