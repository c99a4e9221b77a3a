package vm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/compiler"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/parser"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/value"
	"github.com/atlas-lang/atlas/internal/vm"
)

func run(t *testing.T, src string) (value.Value, *diag.Diagnostic) {
	t.Helper()
	prog, bag := parser.Parse(src)
	if bag.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, bag.All())
	}
	bc, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error for %q: %v", src, err)
	}
	if err := bytecode.Validate(bc); err != nil {
		t.Fatalf("invalid bytecode for %q: %v", src, err)
	}
	var out strings.Builder
	m := vm.New(context.Background(), bc, security.Standard(), &out)
	return m.Run()
}

func TestArithmeticPrecedence(t *testing.T) {
	v, derr := run(t, "1 + 2 * 3;")
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(7) {
		t.Fatalf("want 7, got %v", v)
	}
}

func TestStringConcatenation(t *testing.T) {
	v, derr := run(t, `"foo" + "bar";`)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.String("foobar") {
		t.Fatalf("want foobar, got %v", v)
	}
}

func TestMixedAddIsATypeError(t *testing.T) {
	_, derr := run(t, `"foo" + 1;`)
	if derr == nil {
		t.Fatalf("expected a runtime type error")
	}
	if derr.Code != diag.ErrRuntimeType {
		t.Fatalf("want AT0001, got %s", derr.Code)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, derr := run(t, "1 / 0;")
	if derr == nil || derr.Code != diag.ErrRuntimeDivByZero {
		t.Fatalf("want AT0005, got %v", derr)
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `
fn fib(n: number) -> number {
	if (n < 2) {
		return n;
	}
	return fib(n - 1) + fib(n - 2);
}
fib(10);`
	v, derr := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(55) {
		t.Fatalf("want 55, got %v", v)
	}
}

func TestArrayPushAndIndex(t *testing.T) {
	src := `
let xs = [1, 2, 3];
xs.push(4);
xs[3];`
	v, derr := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(4) {
		t.Fatalf("want 4, got %v", v)
	}
}

func TestArrayOutOfBounds(t *testing.T) {
	_, derr := run(t, "let xs = [1, 2]; xs[5];")
	if derr == nil || derr.Code != diag.ErrRuntimeOutOfBounds {
		t.Fatalf("want AT0006, got %v", derr)
	}
}

func TestArrayNegativeIndex(t *testing.T) {
	_, derr := run(t, "let xs = [1, 2]; xs[-1];")
	if derr == nil || derr.Code != diag.ErrRuntimeBadIndex {
		t.Fatalf("want AT0103, got %v", derr)
	}
}

func TestArrayFractionalIndex(t *testing.T) {
	_, derr := run(t, "let xs = [1, 2]; xs[1.5];")
	if derr == nil || derr.Code != diag.ErrRuntimeBadIndex {
		t.Fatalf("want AT0103, got %v", derr)
	}
}

func TestNumericOverflow(t *testing.T) {
	_, derr := run(t, "1e308 * 2;")
	if derr == nil || derr.Code != diag.ErrRuntimeOverflow {
		t.Fatalf("want AT0007, got %v", derr)
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	src := `
fn makeCounter() {
	var n = 0;
	return fn() {
		n = n + 1;
		return n;
	};
}
let counter = makeCounter();
counter();
counter();
counter();`
	v, derr := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(3) {
		t.Fatalf("want 3, got %v", v)
	}
}

func TestMatchExpression(t *testing.T) {
	src := `
fn describe(n: number) -> string {
	return match (n) {
		0 => "zero",
		x if x < 0 => "negative",
		_ => "positive",
	};
}
describe(-5);`
	v, derr := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.String("negative") {
		t.Fatalf("want negative, got %v", v)
	}
}

func TestForInOverObject(t *testing.T) {
	src := `
let total = 0;
let obj = { a: 1, b: 2, c: 3 };
for (key in obj) {
	total = total + 1;
}
total;`
	v, derr := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(3) {
		t.Fatalf("want 3, got %v", v)
	}
}
