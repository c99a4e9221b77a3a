package interpreter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/interpreter"
	"github.com/atlas-lang/atlas/internal/parser"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/value"
)

func run(t *testing.T, src string) (value.Value, *diag.Diagnostic, string) {
	t.Helper()
	prog, bag := parser.Parse(src)
	if bag.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, bag.All())
	}
	var out strings.Builder
	in := interpreter.New(context.Background(), security.Standard(), &out)
	v, derr := in.Run(prog)
	return v, derr, out.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	v, derr, _ := run(t, "1 + 2 * 3;")
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(7) {
		t.Fatalf("want 7, got %v", v)
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
	v, derr, _ := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(55) {
		t.Fatalf("want 55, got %v", v)
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
	v, derr, _ := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.Number(3) {
		t.Fatalf("want 3, got %v", v)
	}
}

func TestMatchFallsBackToNullWithNoCatchAllArm(t *testing.T) {
	src := `
match (5) {
	1 => "one",
	2 => "two",
};`
	v, derr, _ := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.TheNull {
		t.Fatalf("want null, got %v", v)
	}
}

func TestMatchGuardRejectsOtherwiseMatchingArm(t *testing.T) {
	src := `
match (4) {
	x if x < 0 => "negative",
	x => "not negative",
};`
	v, derr, _ := run(t, src)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if v != value.String("not negative") {
		t.Fatalf("want \"not negative\", got %v", v)
	}
}

func TestPrintWritesToStdout(t *testing.T) {
	_, derr, out := run(t, `print("hello");`)
	if derr != nil {
		t.Fatalf("unexpected error: %v", derr)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("want output to contain hello, got %q", out)
	}
}

func TestContextCancellationStopsExecution(t *testing.T) {
	prog, bag := parser.Parse(`
fn loop(n: number) -> number {
	if (n <= 0) {
		return 0;
	}
	return loop(n - 1);
}
loop(5);`)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := interpreter.New(ctx, security.Standard(), &strings.Builder{})
	_, derr := in.Run(prog)
	if derr == nil || derr.Code != diag.ErrRuntimeCancelled {
		t.Fatalf("want AT0010, got %v", derr)
	}
}
