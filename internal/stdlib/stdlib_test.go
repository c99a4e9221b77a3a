package stdlib_test

import (
	"io"
	"strings"
	"testing"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/stdlib"
	"github.com/atlas-lang/atlas/internal/value"
)

func call(t *testing.T, name string, sec *security.Context, stdout io.Writer, args ...value.Value) (value.Value, *diag.Diagnostic) {
	t.Helper()
	if !stdlib.IsBuiltin(name) {
		t.Fatalf("%s is not a registered builtin", name)
	}
	return stdlib.CallBuiltin(name, args, span.Span{}, sec, stdout)
}

func TestArrayPushMutatesInPlace(t *testing.T) {
	arr := value.NewArray([]value.Value{value.Number(1), value.Number(2)})
	v, derr := call(t, "arrayPush", security.Standard(), io.Discard, arr, value.Number(3))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(3) {
		t.Fatalf("want length 3, got %v", v)
	}
	if len(arr.Elems) != 3 || arr.Elems[2] != value.Number(3) {
		t.Fatalf("receiver not mutated in place: %v", arr.Elems)
	}
}

func TestArrayPopOnEmptyReturnsNone(t *testing.T) {
	arr := value.NewArray(nil)
	v, derr := call(t, "arrayPop", security.Standard(), io.Discard, arr)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	opt, ok := v.(*value.Option)
	if !ok || opt.HasValue {
		t.Fatalf("want None, got %v", v)
	}
}

func TestObjectGetMissingKeyReturnsNone(t *testing.T) {
	obj := value.NewObject()
	obj.Set("a", value.Number(1))
	v, derr := call(t, "objectGet", security.Standard(), io.Discard, obj, value.String("missing"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	opt, ok := v.(*value.Option)
	if !ok || opt.HasValue {
		t.Fatalf("want None, got %v", v)
	}
}

func TestStringMethodsAreASCIIPlain(t *testing.T) {
	v, derr := call(t, "stringToUpper", security.Standard(), io.Discard, value.String("atlas"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.String("ATLAS") {
		t.Fatalf("want ATLAS, got %v", v)
	}
}

func TestStringFoldCaseMakesCaseInsensitiveComparisonPossible(t *testing.T) {
	a, derr := call(t, "string_foldCase", security.Standard(), io.Discard, value.String("ATLAS"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	b, derr := call(t, "string_foldCase", security.Standard(), io.Discard, value.String("atlas"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if a != b {
		t.Fatalf("want folded forms to be equal, got %v vs %v", a, b)
	}
}

func TestOptionUnwrapOnNoneIsTypeError(t *testing.T) {
	_, derr := call(t, "optionUnwrap", security.Standard(), io.Discard, value.None())
	if derr == nil || derr.Code != diag.ErrRuntimeType {
		t.Fatalf("want AT0001, got %v", derr)
	}
}

func TestResultUnwrapOr(t *testing.T) {
	v, derr := call(t, "resultUnwrapOr", security.Standard(), io.Discard, value.Err(value.String("boom")), value.Number(42))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(42) {
		t.Fatalf("want 42, got %v", v)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	obj := value.NewObject()
	obj.Set("name", value.String("atlas"))
	obj.Set("stable", value.Bool(true))
	s, derr := call(t, "json_stringify", security.Standard(), io.Discard, obj)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	parsed, derr := call(t, "json_parse", security.Standard(), io.Discard, s)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	back, ok := parsed.(*value.Object)
	if !ok {
		t.Fatalf("want an object, got %v", parsed)
	}
	name, _ := back.Get("name")
	if name != value.String("atlas") {
		t.Fatalf("want atlas, got %v", name)
	}
}

func TestJSONGetByPath(t *testing.T) {
	v, derr := call(t, "json_get", security.Standard(), io.Discard, value.String(`{"a":{"b":7}}`), value.String("a.b"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	opt, ok := v.(*value.Option)
	if !ok || !opt.HasValue || opt.Val != value.Number(7) {
		t.Fatalf("want Some(7), got %v", v)
	}
}

func TestFilesystemDeniedByNoneSecurityContext(t *testing.T) {
	_, derr := call(t, "fs_readFile", security.None(), io.Discard, value.String("/etc/passwd"))
	if derr == nil || derr.Code != diag.ErrRuntimeSecurity {
		t.Fatalf("want AT0009, got %v", derr)
	}
}

func TestFilesystemAllowedByAllowAllSecurityContext(t *testing.T) {
	// AllowAll permits the path check itself; the read then fails for an
	// ordinary os-level reason (file absent), not a security diagnostic.
	v, derr := call(t, "fs_readFile", security.AllowAll(), io.Discard, value.String("/definitely/does/not/exist/atlas"))
	if derr != nil {
		t.Fatalf("want no diagnostic (an Err result instead), got %v", derr)
	}
	r, ok := v.(*value.Result)
	if !ok || r.IsOk {
		t.Fatalf("want Err result for a missing file, got %v", v)
	}
}

func TestEnvGetDeniedByDefault(t *testing.T) {
	_, derr := call(t, "env_get", security.None(), io.Discard, value.String("SOME_VAR"))
	if derr == nil || derr.Code != diag.ErrRuntimeSecurity {
		t.Fatalf("want AT0009, got %v", derr)
	}
}

func TestPrintWritesArgumentsToStdout(t *testing.T) {
	var out strings.Builder
	_, derr := call(t, "print", security.Standard(), &out, value.String("hi"))
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if !strings.Contains(out.String(), "hi") {
		t.Fatalf("want output to contain hi, got %q", out.String())
	}
}
