// Package compiler lowers a parsed (and, by convention, already
// type-checked) Atlas AST into bytecode (internal/bytecode): one
// FunctionProto per fn/lambda, locals resolved to stack slots, free
// variables resolved to upvalue chains, and top-level bindings resolved
// to named globals.
//
// Grounded in the teacher's internal/bytecode/compiler_core.go scope-
// resolution algorithm (local{name,depth,slot}/upvalue{index,isLocal},
// resolveLocal scanning innermost-first, resolveUpvalue recursing
// through c.enclosing with addUpvalue deduplication, beginScope/
// endScope popping locals by depth, slots never reclaimed across a
// function's lifetime) and compiler_statements.go/compiler_expressions.go
// for the statement/expression-to-opcode shape, adapted to Atlas's
// smaller opcode set and to its closure-capture-by-reference semantics
// (see DESIGN.md): a captured local is always the same *value.Cell, so
// this compiler never needs the teacher's open/closed Upvalue-closing
// pass at call-return time — MakeClosure only records which enclosing
// slot or upvalue index supplies the cell, and the VM copies that
// pointer once, at closure-creation time.
package compiler

import (
	"fmt"

	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/span"
)

// Error is a bytecode-generation failure. By the time internal/compiler
// runs, the program has already passed internal/typecheck, so an Error
// here signals an AST shape the compiler does not handle, or a name or
// break/continue the earlier passes should already have rejected.
// Operand overflow (a slot, constant index, or jump target past u16) is
// not detected.
type Error struct {
	Span    span.Span
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(sp span.Span, format string, args ...any) *Error {
	return &Error{Span: sp, Message: fmt.Sprintf(format, args...)}
}

// shared is the state every Compiler instance in a compilation unit
// holds a pointer to: the global name table and the growing list of
// compiled function protos. Mirrors the teacher's compiler_core.go
// threading one `globals`/`functions` map from the root Compiler down
// into every newChildCompiler.
type shared struct {
	globalNames []string
	globalIndex map[string]int
	functions   []*bytecode.FunctionProto
}

func newShared() *shared {
	return &shared{globalIndex: make(map[string]int)}
}

// declareGlobal reserves (or returns the existing) global slot for name.
func (s *shared) declareGlobal(name string) int {
	if idx, ok := s.globalIndex[name]; ok {
		return idx
	}
	idx := len(s.globalNames)
	s.globalNames = append(s.globalNames, name)
	s.globalIndex[name] = idx
	return idx
}

func (s *shared) resolveGlobal(name string) (int, bool) {
	idx, ok := s.globalIndex[name]
	return idx, ok
}

func (s *shared) addFunction(proto *bytecode.FunctionProto) int {
	s.functions = append(s.functions, proto)
	return len(s.functions) - 1
}

// localVar is one declared local slot, alive from its declaration point
// to the end of its enclosing scope (slots are never reclaimed, so a
// function's NumLocals only ever grows — same tradeoff the teacher's
// compiler makes).
type localVar struct {
	name  string
	depth int
	slot  int
}

// upvalueRef is one upvalue this function captures, keyed by
// (index, isLocal) for deduplication exactly like the teacher's
// addUpvalue.
type upvalueRef struct {
	index   int
	isLocal bool
}

type loopCtx struct {
	breakJumps    []int
	continueJumps []int
}

// Compiler compiles one function body (or the implicit top-level
// "main" function) into a *bytecode.FunctionProto. Nested functions and
// lambdas get their own child Compiler, linked via enclosing so
// resolveUpvalue can walk outward.
type Compiler struct {
	prog       *shared
	proto      *bytecode.FunctionProto
	enclosing  *Compiler
	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int
	nextSlot   int
	loops      []*loopCtx
}

func newFunctionCompiler(prog *shared, enclosing *Compiler, name string, arity int) *Compiler {
	return &Compiler{prog: prog, proto: bytecode.NewProto(name, arity), enclosing: enclosing}
}

func (c *Compiler) declareLocal(name string) int {
	slot := c.nextSlot
	c.nextSlot++
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth, slot: slot})
	if slot+1 > c.proto.NumLocals {
		c.proto.NumLocals = slot + 1
	}
	return slot
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(slot, true), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(idx, false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(index int, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(c.upvalues) - 1
}

func (c *Compiler) buildUpvalueDefs() []bytecode.UpvalueDef {
	if len(c.upvalues) == 0 {
		return nil
	}
	defs := make([]bytecode.UpvalueDef, len(c.upvalues))
	for i, uv := range c.upvalues {
		defs[i] = bytecode.UpvalueDef{IsLocal: uv.isLocal, Index: uv.index}
	}
	return defs
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope drops locals declared in the scope being closed from
// resolution (they are no longer visible), but — matching the
// teacher — never reclaims their stack slots; NumLocals only grows.
func (c *Compiler) endScope() {
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth == c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
	}
	c.scopeDepth--
}

func (c *Compiler) pushLoop() *loopCtx {
	ctx := &loopCtx{}
	c.loops = append(c.loops, ctx)
	return ctx
}

func (c *Compiler) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Compiler) currentLoop() *loopCtx {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

// emitJump emits a fixed-width jump with a placeholder target, for
// later patching once the real destination is known.
func (c *Compiler) emitJump(op bytecode.OpCode, sp span.Span) int {
	return c.proto.Emit1(op, sp, 0)
}

// patchJump overwrites the placeholder at jumpInstr (the instruction's
// start offset) so it targets the current end of the instruction
// stream.
func (c *Compiler) patchJump(jumpInstr int) {
	c.proto.PatchU16(jumpInstr+1, c.proto.Len())
}

// patchJumpTo overwrites the placeholder at jumpInstr with an
// explicit target, for backward jumps (continue) whose destination
// was recorded before the jump itself was emitted.
func (c *Compiler) patchJumpTo(jumpInstr, target int) {
	c.proto.PatchU16(jumpInstr+1, target)
}
