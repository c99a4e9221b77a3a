package typecheck

import (
	"testing"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/parser"
)

func mustCheck(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	prog, parseDiags := parser.Parse(src)
	if parseDiags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics for %q: %v", src, parseDiags.All())
	}
	return Check(prog)
}

func codes(diags *diag.Bag) []string {
	var out []string
	for _, d := range diags.All() {
		out = append(out, string(d.Code))
	}
	return out
}

func hasCode(diags *diag.Bag, code diag.Code) bool {
	for _, d := range diags.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestFibonacciTypechecksClean(t *testing.T) {
	src := `
fn fib(n: number) -> number {
	if (n < 2) {
		return n;
	} else {
		return fib(n - 1) + fib(n - 2);
	}
}`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestMissingReturnOnSomePath(t *testing.T) {
	src := `
fn f(n: number) -> number {
	if (n < 2) {
		return n;
	}
}`
	_, diags := mustCheck(t, src)
	if !hasCode(diags, diag.ErrMissingReturn) {
		t.Fatalf("expected AT3005, got %v", codes(diags))
	}
}

func TestUndeclaredReferenceReported(t *testing.T) {
	_, diags := mustCheck(t, "let x = y + 1;")
	if !hasCode(diags, diag.ErrUnresolvedReference) {
		t.Fatalf("expected AT3001, got %v", codes(diags))
	}
}

func TestImmutableAssignmentReported(t *testing.T) {
	_, diags := mustCheck(t, "let x = 1; x = 2;")
	if !hasCode(diags, diag.ErrImmutableAssign) {
		t.Fatalf("expected AT3003, got %v", codes(diags))
	}
}

func TestTypeMismatchOnLet(t *testing.T) {
	_, diags := mustCheck(t, `let x: number = "hi";`)
	if !hasCode(diags, diag.ErrTypeMismatch) {
		t.Fatalf("expected AT3004, got %v", codes(diags))
	}
}

func TestArityMismatchOnCall(t *testing.T) {
	src := `
fn add(a: number, b: number) -> number {
	return a + b;
}
let x = add(1);`
	_, diags := mustCheck(t, src)
	if !hasCode(diags, diag.ErrArityMismatch) {
		t.Fatalf("expected AT3002, got %v", codes(diags))
	}
}

func TestOwnershipMoveThenUseIsAnError(t *testing.T) {
	src := `
fn consume(own a: number[]) {
}
fn main() {
	let x = [1, 2, 3];
	consume(x);
	consume(x);
}`
	_, diags := mustCheck(t, src)
	if !hasCode(diags, diag.ErrUseOfMoved) {
		t.Fatalf("expected AT3007, got %v", codes(diags))
	}
}

func TestBorrowedArgumentIsNotMoved(t *testing.T) {
	src := `
fn peek(borrow a: number[]) -> number {
	return a[0];
}
fn main() {
	let x = [1, 2, 3];
	peek(x);
	peek(x);
}`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestTypeofNarrowingInThenBranch(t *testing.T) {
	src := `
fn describe(x: number | string) -> string {
	if (typeof(x) == "number") {
		return "n";
	} else {
		return x;
	}
}`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestNullNarrowingAfterEarlyReturn(t *testing.T) {
	src := `
fn len(x: number[] | null) -> number {
	if (x == null) {
		return 0;
	}
	return x[0];
}`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestGenericIdentityUnifiesPerCallSite(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T {
	return x;
}
let a: number = identity(1);
let b: string = identity("hi");`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestUnknownMethodReported(t *testing.T) {
	src := `let x = [1, 2, 3]; x.frobnicate();`
	_, diags := mustCheck(t, src)
	if !hasCode(diags, diag.ErrUnknownMethod) {
		t.Fatalf("expected AT3006, got %v", codes(diags))
	}
}

func TestArrayMethodDispatchReturnsElementType(t *testing.T) {
	src := `
let xs: number[] = [1, 2, 3];
let y: number = xs.pop().unwrapOr(0);`
	_, diags := mustCheck(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(diags))
	}
}

func TestShadowingWarns(t *testing.T) {
	src := `
fn f() {
	let x = 1;
	{
		let x = 2;
	}
}`
	_, diags := mustCheck(t, src)
	if !hasCode(diags, diag.WarnShadowing) {
		t.Fatalf("expected AT2005, got %v", codes(diags))
	}
}
