package compiler

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/span"
)

// Compile lowers a whole parsed program into a bytecode.Bytecode unit.
// Top-level fn/let/var bindings become named globals shared across
// every function in the unit; script-mode statements and the trailing
// ProgramTail or expression statement (spec.md §8's bare-expression
// scripts), whose value main returns, compile directly
// into the entry "<main>" function, which is itself an ordinary
// Compiler instance exactly like any nested function.
func Compile(prog *ast.Program) (*bytecode.Bytecode, error) {
	sh := newShared()
	hoistGlobals(sh, prog.Items)

	main := newFunctionCompiler(sh, nil, "<main>", 0)

	// Every top-level fn is assigned to its global slot before any
	// other top-level code runs, so mutually recursive top-level
	// functions resolve regardless of the order they were declared in.
	for _, it := range prog.Items {
		if fn, ok := unwrapFnDecl(it); ok {
			if err := main.compileTopLevelFn(fn); err != nil {
				return nil, err
			}
		}
	}

	last := len(prog.Items) - 1
	trailingExprStmt := false
	for i, it := range prog.Items {
		if es, ok := it.(*ast.ExprStmt); ok && i == last {
			// A trailing expression statement supplies the program's
			// result, the same as a ProgramTail.
			it = &ast.ProgramTail{SpanVal: es.SpanVal, X: es.X}
			trailingExprStmt = true
		}
		if err := main.compileItem(it); err != nil {
			return nil, err
		}
	}
	if !trailingExprStmt && !endsInProgramTail(prog.Items) {
		main.proto.Emit0(bytecode.OpReturnNull, prog.Span())
	}

	entry := sh.addFunction(main.proto)
	return &bytecode.Bytecode{Functions: sh.functions, Globals: sh.globalNames, Entry: entry}, nil
}

func unwrapFnDecl(it ast.Item) (*ast.FnDecl, bool) {
	switch n := it.(type) {
	case *ast.FnDecl:
		return n, true
	case *ast.ExportDecl:
		return unwrapFnDecl(n.Inner)
	default:
		return nil, false
	}
}

func endsInProgramTail(items []ast.Item) bool {
	if len(items) == 0 {
		return false
	}
	_, ok := items[len(items)-1].(*ast.ProgramTail)
	return ok
}

// hoistGlobals reserves a global slot for every top-level fn/let/var
// binding and import name before any code is generated, so a function
// compiled earlier in declaration order can still reference one
// declared later (spec.md §3's forward-reference requirement, which
// internal/symbols already enforces at bind time).
func hoistGlobals(sh *shared, items []ast.Item) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.FnDecl:
			sh.declareGlobal(n.Name)
		case *ast.LetDecl:
			sh.declareGlobal(n.Name)
		case *ast.VarDecl:
			sh.declareGlobal(n.Name)
		case *ast.ImportDecl:
			for _, name := range n.Names {
				sh.declareGlobal(name)
			}
		case *ast.ExportDecl:
			hoistGlobals(sh, []ast.Item{n.Inner})
		}
	}
}

// compileTopLevelFn compiles fn's body with no enclosing lexical
// scope (top-level functions close only over globals) and stores the
// resulting closure into its already-hoisted global slot.
func (c *Compiler) compileTopLevelFn(fn *ast.FnDecl) error {
	protoIdx, upvalues, err := compileFunctionProto(c.prog, nil, fn.Name, fn.Params, fn.Body)
	if err != nil {
		return err
	}
	c.proto.EmitMakeClosure(protoIdx, upvalues, fn.SpanVal)
	idx, _ := c.prog.resolveGlobal(fn.Name)
	c.proto.Emit1(bytecode.OpStoreGlobal, fn.SpanVal, idx)
	return nil
}

// compileItem compiles one top-level item into main's instruction
// stream. FnDecls are skipped here (already emitted by the hoisting
// pass above); everything else either has no runtime representation
// (imports, type/trait declarations — internal/symbols already
// resolved their names) or behaves like its statement counterpart.
func (c *Compiler) compileItem(it ast.Item) error {
	switch n := it.(type) {
	case *ast.FnDecl:
		return nil
	case *ast.LetDecl:
		return c.compileGlobalDecl(n.Name, n.Value, n.SpanVal)
	case *ast.VarDecl:
		return c.compileGlobalDecl(n.Name, n.Value, n.SpanVal)
	case *ast.ExportDecl:
		return c.compileItem(n.Inner)
	case *ast.ImportDecl:
		return nil
	case *ast.TypeDecl:
		return nil
	case *ast.TraitDecl:
		return nil
	case *ast.ProgramTail:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.proto.Emit0(bytecode.OpReturn, n.SpanVal)
		return nil
	case ast.Stmt:
		return c.compileStmt(n)
	default:
		return errorf(it.Span(), "compiler: unhandled top-level item %T", it)
	}
}

func (c *Compiler) compileGlobalDecl(name string, valueExpr ast.Expr, sp span.Span) error {
	if err := c.compileExpr(valueExpr); err != nil {
		return err
	}
	idx, _ := c.prog.resolveGlobal(name)
	c.proto.Emit1(bytecode.OpStoreGlobal, sp, idx)
	return nil
}
