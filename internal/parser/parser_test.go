package parser

import (
	"testing"

	"github.com/atlas-lang/atlas/internal/ast"
)

func mustProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := Parse(src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics for %q: %v", src, diags.All())
	}
	return prog
}

func TestArithmeticPrecedence(t *testing.T) {
	prog := mustProgram(t, "export let x = 1 + 2 * 3;")
	exportDecl := prog.Items[0].(*ast.ExportDecl)
	letDecl := exportDecl.Inner.(*ast.LetDecl)
	bin, ok := letDecl.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected top-level BinaryExpr (+), got %T", letDecl.Value)
	}
	if bin.String() != "(1 + (2 * 3))" {
		t.Fatalf("got %s, want (1 + (2 * 3))", bin.String())
	}
}

func TestFibonacciFunction(t *testing.T) {
	src := `
fn fib(n: number) -> number {
	if (n < 2) {
		return n;
	} else {
		return fib(n - 1) + fib(n - 2);
	}
}`
	prog := mustProgram(t, src)
	if len(prog.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(prog.Items))
	}
	fn, ok := prog.Items[0].(*ast.FnDecl)
	if !ok {
		t.Fatalf("expected FnDecl, got %T", prog.Items[0])
	}
	if fn.Name != "fib" || len(fn.Params) != 1 || fn.Params[0].Name != "n" {
		t.Fatalf("got %+v", fn)
	}
	if fn.ReturnType == nil || fn.ReturnType.String() != "number" {
		t.Fatalf("expected return type number, got %v", fn.ReturnType)
	}
	ifExpr, ok := fn.Body.Tail.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expected IfExpr tail, got %T", fn.Body.Tail)
	}
	if ifExpr.Else == nil {
		t.Fatal("expected an else branch")
	}
}

func TestWhileLoopBuildsString(t *testing.T) {
	src := `
fn build() {
	var s = "";
	var i = 0;
	while (i < 3) {
		s += "x";
		i += 1;
	}
}`
	prog := mustProgram(t, src)
	fn := prog.Items[0].(*ast.FnDecl)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("expected 3 statements (2 var, 1 while), got %d", len(fn.Body.Stmts))
	}
	while, ok := fn.Body.Stmts[2].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", fn.Body.Stmts[2])
	}
	if len(while.Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements in while body, got %d", len(while.Body.Stmts))
	}
	assign, ok := while.Body.Stmts[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", while.Body.Stmts[0])
	}
	if _, ok := assign.Target.(*ast.Identifier); !ok {
		t.Fatalf("expected identifier target, got %T", assign.Target)
	}
}

func TestArrayPushInsideFunction(t *testing.T) {
	src := `
fn main() {
	let xs = [1, 2];
	xs.push(3);
}`
	prog := mustProgram(t, src)
	fn := prog.Items[0].(*ast.FnDecl)
	exprStmt, ok := fn.Body.Stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", fn.Body.Stmts[1])
	}
	call, ok := exprStmt.X.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", exprStmt.X)
	}
	member, ok := call.Callee.(*ast.MemberExpr)
	if !ok {
		t.Fatalf("expected MemberExpr callee, got %T", call.Callee)
	}
	if member.Name != "push" || len(call.Args) != 1 {
		t.Fatalf("got %+v", call)
	}
}

func TestOwnershipAnnotatedParams(t *testing.T) {
	src := `fn consume(own a: string, borrow b: string) { }`
	prog := mustProgram(t, src)
	fn := prog.Items[0].(*ast.FnDecl)
	if fn.Params[0].Ownership != ast.OwnershipOwn {
		t.Fatalf("expected first param own, got %v", fn.Params[0].Ownership)
	}
	if fn.Params[1].Ownership != ast.OwnershipBorrow {
		t.Fatalf("expected second param borrow, got %v", fn.Params[1].Ownership)
	}
}

func TestMatchExpression(t *testing.T) {
	src := `
fn describe(n: number) -> string {
	match (n) {
		0 => "zero",
		x if x < 0 => "negative",
		_ => "positive",
	}
}`
	prog := mustProgram(t, src)
	fn := prog.Items[0].(*ast.FnDecl)
	m, ok := fn.Body.Tail.(*ast.MatchExpr)
	if !ok {
		t.Fatalf("expected MatchExpr tail, got %T", fn.Body.Tail)
	}
	if len(m.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(m.Arms))
	}
	if _, ok := m.Arms[0].Pattern.(*ast.LiteralPattern); !ok {
		t.Fatalf("expected LiteralPattern, got %T", m.Arms[0].Pattern)
	}
	if m.Arms[1].Guard == nil {
		t.Fatal("expected a guard on the second arm")
	}
	if _, ok := m.Arms[2].Pattern.(*ast.WildcardPattern); !ok {
		t.Fatalf("expected WildcardPattern, got %T", m.Arms[2].Pattern)
	}
}

func TestArrowLambdaVsGroupedExpr(t *testing.T) {
	prog := mustProgram(t, `let inc = (x: number) => x + 1;`)
	letDecl := prog.Items[0].(*ast.LetDecl)
	lambda, ok := letDecl.Value.(*ast.LambdaExpr)
	if !ok {
		t.Fatalf("expected LambdaExpr, got %T", letDecl.Value)
	}
	if !lambda.IsArrow || len(lambda.Params) != 1 {
		t.Fatalf("got %+v", lambda)
	}

	prog2 := mustProgram(t, `let y = (1 + 2) * 3;`)
	letDecl2 := prog2.Items[0].(*ast.LetDecl)
	bin, ok := letDecl2.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", letDecl2.Value)
	}
	if bin.Op.String() != "*" {
		t.Fatalf("expected outer '*' to win, got %s", bin.Op)
	}
}

func TestObjectLiteralVsBlockDisambiguation(t *testing.T) {
	prog := mustProgram(t, `let o = { x: 1, y: 2 };`)
	letDecl := prog.Items[0].(*ast.LetDecl)
	obj, ok := letDecl.Value.(*ast.ObjectLiteral)
	if !ok {
		t.Fatalf("expected ObjectLiteral, got %T", letDecl.Value)
	}
	if len(obj.Keys) != 2 || obj.Keys[0] != "x" || obj.Keys[1] != "y" {
		t.Fatalf("got %+v", obj)
	}
}

func TestImportExportTypeTraitDecls(t *testing.T) {
	src := `
import { foo, bar } from "module";
export fn visible() { }
type Pair<A, B> = (A, B) -> A;
trait Greeter {
	fn greet(name: string) -> string;
}`
	prog := mustProgram(t, src)
	if len(prog.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(prog.Items))
	}
	imp, ok := prog.Items[0].(*ast.ImportDecl)
	if !ok || imp.Path != "module" || len(imp.Names) != 2 {
		t.Fatalf("got %+v", prog.Items[0])
	}
	if _, ok := prog.Items[1].(*ast.ExportDecl); !ok {
		t.Fatalf("expected ExportDecl, got %T", prog.Items[1])
	}
	typeDecl, ok := prog.Items[2].(*ast.TypeDecl)
	if !ok || len(typeDecl.TypeParams) != 2 {
		t.Fatalf("got %+v", prog.Items[2])
	}
	trait, ok := prog.Items[3].(*ast.TraitDecl)
	if !ok || len(trait.Methods) != 1 {
		t.Fatalf("got %+v", prog.Items[3])
	}
}

func TestForInAndCStyleForDisambiguation(t *testing.T) {
	src := `
fn sumAll(xs: number[]) -> number {
	var total = 0;
	for (x in xs) {
		total += x;
	}
	for (var i = 0; i < 10; i += 1) {
		total += i;
	}
	return total;
}`
	prog := mustProgram(t, src)
	fn := prog.Items[0].(*ast.FnDecl)
	if _, ok := fn.Body.Stmts[1].(*ast.ForInStmt); !ok {
		t.Fatalf("expected ForInStmt, got %T", fn.Body.Stmts[1])
	}
	forStmt, ok := fn.Body.Stmts[2].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", fn.Body.Stmts[2])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Post == nil {
		t.Fatalf("expected all three for-clauses present, got %+v", forStmt)
	}
}

func TestMissingSemicolonRecordsDiagnosticAndRecovers(t *testing.T) {
	prog, diags := Parse(`let x = 1 let y = 2;`)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for the missing semicolon")
	}
	if len(prog.Items) != 2 {
		t.Fatalf("expected parsing to recover and yield 2 items, got %d", len(prog.Items))
	}
}

func TestUnexpectedTokenNeverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("parser panicked: %v", r)
		}
	}()
	_, diags := Parse(`fn * ) { let = ; }`)
	if !diags.HasErrors() {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestOptionAndResultTypeAnnotations(t *testing.T) {
	prog := mustProgram(t, `fn find(xs: number[]) -> Option<number> { return null; }`)
	fn := prog.Items[0].(*ast.FnDecl)
	opt, ok := fn.ReturnType.(*ast.OptionTypeExpr)
	if !ok {
		t.Fatalf("expected OptionTypeExpr, got %T", fn.ReturnType)
	}
	if opt.Inner.String() != "number" {
		t.Fatalf("got %v", opt.Inner)
	}

	prog2 := mustProgram(t, `fn parse(s: string) -> Result<number, string> { return null; }`)
	fn2 := prog2.Items[0].(*ast.FnDecl)
	res, ok := fn2.ReturnType.(*ast.ResultTypeExpr)
	if !ok {
		t.Fatalf("expected ResultTypeExpr, got %T", fn2.ReturnType)
	}
	if res.Ok.String() != "number" || res.Err.String() != "string" {
		t.Fatalf("got %+v", res)
	}
}
