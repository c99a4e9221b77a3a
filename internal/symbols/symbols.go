// Package symbols implements Atlas's lexical scope resolution: the
// Symbol/SymbolTable pair and the two-pass Binder that produces them
// (spec.md §4.3).
//
// The scope-stack-of-maps SymbolTable is grounded in
// original_source/crates/atlas-runtime/src/symbol.rs (`enter_scope`/
// `exit_scope`/`define`/`lookup` walking scopes innermost-first) and in
// the teacher's semantic/symbol_table.go (case-sensitive here, unlike
// the teacher's case-insensitive DWScript lookup, since Atlas's surface
// syntax is case-sensitive JS-like). Function hoisting (Pass 1
// registers every FnDecl in a scope before Pass 2 resolves bodies, so
// forward references and mutual recursion both work) has no DWScript
// equivalent and is instead grounded in spec.md §3's explicit
// requirement ("Functions are hoisted").
package symbols

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/span"
)

// Kind classifies what a Symbol names.
type Kind int

const (
	KindVariable Kind = iota
	KindParameter
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindFunction:
		return "function"
	default:
		return "variable"
	}
}

// Symbol is one bound name: spec.md §3's (name, kind, mutable?, span).
//
// Ownership-move tracking ("has an `own` parameter consumed this
// binding") is not a Symbol field: internal/typecheck.Checker tracks it
// itself in a private `binding` struct scoped to the checker's own
// pass, since move state is a flow-sensitive property of a checking
// pass, not a fact about the binder's static scope tree.
type Symbol struct {
	Name    string
	Kind    Kind
	Mutable bool
	Span    span.Span
	Decl    ast.Node // the FnDecl/LetStmt/VarStmt/Param that introduced it
}

// Scope is one lexical level: a flat map of names to symbols. Atlas is
// case-sensitive, unlike the teacher's DWScript (case-insensitive), so
// lookups key directly off the surface name.
type Scope struct {
	symbols map[string]*Symbol
	parent  *Scope
	// isFunctionBoundary marks a scope pushed for a function/lambda body
	// rather than an ordinary block (if/while/for/match arm). Unused by
	// binding itself (hoisting is per-block, see hoistFunctions), but
	// internal/typecheck's ownership analysis walks it to find where a
	// closure crosses into an enclosing function's moved bindings.
	isFunctionBoundary bool
}

func newScope(parent *Scope, isFunctionBoundary bool) *Scope {
	return &Scope{symbols: make(map[string]*Symbol), parent: parent, isFunctionBoundary: isFunctionBoundary}
}

// Table is the stack of lexical scopes a Binder walks. It survives the
// bind pass so internal/typecheck can look up the same symbols.
type Table struct {
	current *Scope
	root    *Scope
}

// NewTable creates a Table with a single empty global scope sitting
// atop a hidden, outermost scope predeclaring every
// internal/dispatch global builtin name (`len`, `json_parse`, ...) so
// calls to them resolve without the user ever declaring or importing
// them. The builtins scope is kept separate from root rather than
// merged into it so a user-level redeclaration of a builtin name reads
// as "shadows an outer binding" (a warning) rather than a same-scope
// redeclaration.
func NewTable() *Table {
	builtins := newScope(nil, true)
	for _, name := range dispatch.GlobalBuiltinNames() {
		builtins.symbols[name] = &Symbol{Name: name, Kind: KindFunction, Mutable: false}
	}
	root := newScope(builtins, true)
	return &Table{current: root, root: root}
}

func (t *Table) push(isFunctionBoundary bool) {
	t.current = newScope(t.current, isFunctionBoundary)
}

func (t *Table) pop() {
	if t.current.parent != nil {
		t.current = t.current.parent
	}
}

// Define adds sym to the current scope.
func (t *Table) Define(sym *Symbol) {
	t.current.symbols[sym.Name] = sym
}

// Lookup walks outward from the current scope for name.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t.current; s != nil; s = s.parent {
		if sym, ok := s.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal looks up name only in the current scope, used to detect
// same-scope redeclaration.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := t.current.symbols[name]
	return sym, ok
}

// Binder performs Atlas's two-pass name resolution (spec.md §4.3):
// pass 1 hoists every FnDecl in a scope; pass 2 resolves every other
// identifier reference and assignment.
type Binder struct {
	table *Table
	diags diag.Bag
	refs  map[*ast.Identifier]*Symbol
}

// NewBinder constructs a Binder over a fresh Table.
func NewBinder() *Binder {
	return &Binder{table: NewTable(), refs: make(map[*ast.Identifier]*Symbol)}
}

// Refs returns, for every Identifier node the binder resolved, the
// Symbol it refers to. internal/typecheck consumes this directly
// instead of re-running name resolution.
func (b *Binder) Refs() map[*ast.Identifier]*Symbol { return b.refs }

// Bind resolves prog, returning the populated Table and any
// diagnostics accumulated (unresolved references are errors;
// shadowing is a warning per spec.md §4.3).
func Bind(prog *ast.Program) (*Table, *diag.Bag) {
	b := NewBinder()
	b.bindProgram(prog)
	return b.table, &b.diags
}

// BindWithRefs is Bind plus the identifier->symbol resolution map, for
// callers (internal/typecheck) that need to know which Symbol each
// Identifier node refers to.
func BindWithRefs(prog *ast.Program) (*Table, *diag.Bag, map[*ast.Identifier]*Symbol) {
	b := NewBinder()
	b.bindProgram(prog)
	return b.table, &b.diags, b.refs
}

// Table returns the symbol table the binder is populating.
func (b *Binder) Table() *Table { return b.table }

// Diagnostics returns the accumulated diagnostics.
func (b *Binder) Diagnostics() *diag.Bag { return &b.diags }

func (b *Binder) bindProgram(prog *ast.Program) {
	b.hoistFunctions(prog.Items)
	for _, item := range prog.Items {
		b.bindItem(item)
	}
}

// hoistFunctions registers every FnDecl among items in the current
// scope before any body is resolved, enabling forward reference and
// mutual recursion (spec.md §3, §4.3).
func (b *Binder) hoistFunctions(items []ast.Item) {
	for _, item := range items {
		fn, ok := item.(*ast.FnDecl)
		if !ok {
			if exp, ok := item.(*ast.ExportDecl); ok {
				if innerFn, ok := exp.Inner.(*ast.FnDecl); ok {
					fn = innerFn
				}
			}
		}
		if fn == nil {
			continue
		}
		b.defineChecked(fn.Name, KindFunction, false, fn.SpanVal, fn)
	}
}

func (b *Binder) defineChecked(name string, kind Kind, mutable bool, sp span.Span, decl ast.Node) {
	if _, ok := b.table.LookupLocal(name); ok {
		b.diags.Warnf(diag.WarnShadowing, sp, "declaration of %q shadows an earlier binding in this scope", name)
	} else if _, ok := b.table.Lookup(name); ok && b.table.current != b.table.root {
		b.diags.Warnf(diag.WarnShadowing, sp, "declaration of %q shadows an outer binding", name)
	}
	b.table.Define(&Symbol{Name: name, Kind: kind, Mutable: mutable, Span: sp, Decl: decl})
}

func (b *Binder) bindItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.FnDecl:
		b.bindFnDecl(it)
	case *ast.LetDecl:
		b.bindExpr(it.Value)
		b.defineChecked(it.Name, KindVariable, it.Mutable, it.SpanVal, it)
	case *ast.VarDecl:
		b.bindExpr(it.Value)
		b.defineChecked(it.Name, KindVariable, true, it.SpanVal, it)
	case *ast.ExportDecl:
		b.bindItem(it.Inner)
	case *ast.ImportDecl:
		for _, name := range it.Names {
			b.defineChecked(name, KindVariable, false, it.SpanVal, it)
		}
	case *ast.TypeDecl, *ast.TraitDecl:
		// type-level declarations carry no runtime binding to resolve.
	case *ast.ExprStmt, *ast.AssignStmt, *ast.WhileStmt, *ast.ForStmt, *ast.ForInStmt,
		*ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		// Script-style top-level statement (see ast.ProgramTail's doc
		// comment): bind exactly as it would be inside a function body.
		b.bindStmt(it.(ast.Stmt))
	case *ast.ProgramTail:
		b.bindExpr(it.X)
	}
}

func (b *Binder) bindFnDecl(fn *ast.FnDecl) {
	b.table.push(true)
	for _, p := range fn.Params {
		b.table.Define(&Symbol{Name: p.Name, Kind: KindParameter, Mutable: p.Ownership != ast.OwnershipOwn, Span: p.SpanVal, Decl: p})
	}
	b.bindBlockBody(fn.Body)
	b.table.pop()
}

// bindBlockBody hoists nested FnDecls in the block's own scope (already
// pushed by the caller) then resolves every statement.
func (b *Binder) bindBlockBody(block *ast.BlockExpr) {
	var fnItems []ast.Item
	for _, s := range block.Stmts {
		if fn, ok := s.(*ast.FnDecl); ok {
			fnItems = append(fnItems, fn)
		}
	}
	b.hoistFunctions(fnItems)
	for _, s := range block.Stmts {
		b.bindStmt(s)
	}
	if block.Tail != nil {
		b.bindExpr(block.Tail)
	}
}

func (b *Binder) bindBlockExpr(block *ast.BlockExpr) {
	b.table.push(false)
	b.bindBlockBody(block)
	b.table.pop()
}

func (b *Binder) bindStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FnDecl:
		b.bindFnDecl(s) // already hoisted by bindBlockBody; body still needs binding
	case *ast.LetStmt:
		b.bindExpr(s.Value)
		b.defineChecked(s.Name, KindVariable, s.Mutable, s.SpanVal, s)
	case *ast.VarStmt:
		b.bindExpr(s.Value)
		b.defineChecked(s.Name, KindVariable, true, s.SpanVal, s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			b.bindExpr(s.Value)
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.WhileStmt:
		b.bindExpr(s.Cond)
		b.bindBlockExpr(s.Body)
	case *ast.ForStmt:
		b.table.push(false)
		if s.Init != nil {
			b.bindStmt(s.Init)
		}
		if s.Cond != nil {
			b.bindExpr(s.Cond)
		}
		if s.Post != nil {
			b.bindStmt(s.Post)
		}
		b.bindBlockBody(s.Body)
		b.table.pop()
	case *ast.ForInStmt:
		b.bindExpr(s.Iterable)
		b.table.push(false)
		b.table.Define(&Symbol{Name: s.Name, Kind: KindVariable, Mutable: true, Span: s.SpanVal, Decl: s})
		b.bindBlockBody(s.Body)
		b.table.pop()
	case *ast.ExprStmt:
		b.bindExpr(s.X)
	case *ast.AssignStmt:
		b.bindAssignTarget(s.Target)
		b.bindExpr(s.Value)
	}
}

// bindAssignTarget resolves an lvalue and, for a bare identifier,
// checks mutability (spec.md §4.3: AT3003 "cannot assign to immutable
// variable").
func (b *Binder) bindAssignTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Identifier:
		sym, ok := b.table.Lookup(t.Name)
		if !ok {
			b.diags.Errorf(diag.ErrUnresolvedReference, t.SpanVal, "undeclared name %q", t.Name)
			return
		}
		b.refs[t] = sym
		if !sym.Mutable {
			b.diags.Errorf(diag.ErrImmutableAssign, t.SpanVal, "cannot assign to immutable variable %q", t.Name)
		}
	default:
		b.bindExpr(target)
	}
}

func (b *Binder) bindExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Identifier:
		if sym, ok := b.table.Lookup(e.Name); ok {
			b.refs[e] = sym
		} else {
			b.diags.Errorf(diag.ErrUnresolvedReference, e.SpanVal, "undeclared name %q", e.Name)
		}
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NullLiteral, *ast.ErrorExpr:
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			b.bindExpr(el)
		}
	case *ast.ObjectLiteral:
		for _, v := range e.Values {
			b.bindExpr(v)
		}
	case *ast.UnaryExpr:
		b.bindExpr(e.X)
	case *ast.BinaryExpr:
		b.bindExpr(e.X)
		b.bindExpr(e.Y)
	case *ast.LogicalExpr:
		b.bindExpr(e.X)
		b.bindExpr(e.Y)
	case *ast.PostfixExpr:
		b.bindAssignTarget(e.X)
	case *ast.CallExpr:
		b.bindExpr(e.Callee)
		for _, a := range e.Args {
			b.bindExpr(a)
		}
	case *ast.IndexExpr:
		b.bindExpr(e.X)
		b.bindExpr(e.Index)
	case *ast.MemberExpr:
		b.bindExpr(e.X)
	case *ast.IfExpr:
		b.bindExpr(e.Cond)
		b.bindBlockExpr(e.Then)
		if e.Else != nil {
			b.bindExpr(e.Else)
		}
	case *ast.BlockExpr:
		b.bindBlockExpr(e)
	case *ast.MatchExpr:
		b.bindExpr(e.Subject)
		for _, arm := range e.Arms {
			b.table.push(false)
			b.bindPattern(arm.Pattern)
			if arm.Guard != nil {
				b.bindExpr(arm.Guard)
			}
			b.bindExpr(arm.Body)
			b.table.pop()
		}
	case *ast.LambdaExpr:
		b.table.push(true)
		for _, p := range e.Params {
			b.table.Define(&Symbol{Name: p.Name, Kind: KindParameter, Mutable: p.Ownership != ast.OwnershipOwn, Span: p.SpanVal, Decl: p})
		}
		if body, ok := e.Body.(*ast.BlockExpr); ok {
			b.bindBlockBody(body)
		} else {
			b.bindExpr(e.Body)
		}
		b.table.pop()
	}
}

func (b *Binder) bindPattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.IdentPattern:
		b.table.Define(&Symbol{Name: p.Name, Kind: KindVariable, Mutable: false, Span: p.SpanVal, Decl: p})
	case *ast.WildcardPattern, *ast.LiteralPattern:
	}
}
