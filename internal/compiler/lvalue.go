package compiler

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/value"
)

// lvalue is an assignable location, abstracting over plain identifiers,
// `x[i]`, and `x.name` so compileAssign and compilePostfix share one
// codegen path. load emits code that pushes exactly one value (the
// location's current contents); store emits code that pops exactly one
// value (the new contents) off the top of the stack and writes it,
// leaving the stack otherwise unchanged.
//
// Atlas has no Dup-a-pair-of-values opcode (see internal/bytecode's
// opcode set), so an Index/Member lvalue evaluates its receiver and key
// once up front and stashes them in synthetic local slots rather than
// re-evaluating them (which could re-run side effects) or juggling the
// stack with swaps the bytecode format doesn't support.
type lvalue struct {
	load  func()
	store func()
}

func (c *Compiler) compileLValue(target ast.Expr) (lvalue, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		return c.identLValue(t.Name, t.SpanVal)
	case *ast.IndexExpr:
		return c.indexLValue(t)
	case *ast.MemberExpr:
		return c.memberLValue(t)
	default:
		return lvalue{}, errorf(target.Span(), "compiler: %T is not assignable", target)
	}
}

func (c *Compiler) identLValue(name string, sp span.Span) (lvalue, error) {
	if slot, ok := c.resolveLocal(name); ok {
		return lvalue{
			load:  func() { c.proto.Emit1(bytecode.OpLoadLocal, sp, slot) },
			store: func() { c.proto.Emit1(bytecode.OpStoreLocal, sp, slot) },
		}, nil
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		return lvalue{
			load:  func() { c.proto.Emit1(bytecode.OpLoadUpvalue, sp, idx) },
			store: func() { c.proto.Emit1(bytecode.OpStoreUpvalue, sp, idx) },
		}, nil
	}
	if idx, ok := c.prog.resolveGlobal(name); ok {
		return lvalue{
			load:  func() { c.proto.Emit1(bytecode.OpLoadGlobal, sp, idx) },
			store: func() { c.proto.Emit1(bytecode.OpStoreGlobal, sp, idx) },
		}, nil
	}
	return lvalue{}, errorf(sp, "compiler: unresolved identifier %q", name)
}

func (c *Compiler) indexLValue(t *ast.IndexExpr) (lvalue, error) {
	sp := t.SpanVal
	if err := c.compileExpr(t.X); err != nil {
		return lvalue{}, err
	}
	arrSlot := c.declareLocal("$arr")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, arrSlot)
	if err := c.compileExpr(t.Index); err != nil {
		return lvalue{}, err
	}
	idxSlot := c.declareLocal("$idx")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, idxSlot)
	valSlot := c.declareLocal("$val")
	return lvalue{
		load: func() {
			c.proto.Emit1(bytecode.OpLoadLocal, sp, arrSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, idxSlot)
			c.proto.Emit0(bytecode.OpIndex, sp)
		},
		store: func() {
			c.proto.Emit1(bytecode.OpStoreLocal, sp, valSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, arrSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, idxSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, valSlot)
			c.proto.Emit0(bytecode.OpIndexStore, sp)
			c.proto.Emit0(bytecode.OpPop, sp) // IndexStore pushes the stored value back for chained assigns
		},
	}, nil
}

func (c *Compiler) memberLValue(t *ast.MemberExpr) (lvalue, error) {
	sp := t.SpanVal
	if err := c.compileExpr(t.X); err != nil {
		return lvalue{}, err
	}
	objSlot := c.declareLocal("$obj")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, objSlot)
	nameIdx := c.proto.AddConstant(value.String(t.Name))
	valSlot := c.declareLocal("$val")
	return lvalue{
		load: func() {
			c.proto.Emit1(bytecode.OpLoadLocal, sp, objSlot)
			c.proto.Emit1(bytecode.OpMember, sp, nameIdx)
		},
		store: func() {
			c.proto.Emit1(bytecode.OpStoreLocal, sp, valSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, objSlot)
			c.proto.Emit1(bytecode.OpLoadLocal, sp, valSlot)
			c.proto.Emit1(bytecode.OpMemberStore, sp, nameIdx)
			c.proto.Emit0(bytecode.OpPop, sp)
		},
	}, nil
}

// compoundOps maps a compound-assignment token to the arithmetic
// opcode it desugars to (`x += y` loads x, compiles y, Adds, stores).
var compoundOps = map[token.Kind]bytecode.OpCode{
	token.PLUSEQ:    bytecode.OpAdd,
	token.MINUSEQ:   bytecode.OpSub,
	token.STAREQ:    bytecode.OpMul,
	token.SLASHEQ:   bytecode.OpDiv,
	token.PERCENTEQ: bytecode.OpMod,
}

// compileAssign compiles `target op= value` (op is token.ASSIGN for a
// plain `=`). It leaves nothing on the stack, matching AssignStmt's
// statement (not expression) position.
func (c *Compiler) compileAssign(target ast.Expr, opKind token.Kind, valueExpr ast.Expr, sp span.Span) error {
	lv, err := c.compileLValue(target)
	if err != nil {
		return err
	}
	if op, isCompound := compoundOps[opKind]; isCompound {
		lv.load()
		if err := c.compileExpr(valueExpr); err != nil {
			return err
		}
		c.proto.Emit0(op, sp)
	} else {
		if err := c.compileExpr(valueExpr); err != nil {
			return err
		}
	}
	lv.store()
	return nil
}

// compilePostfix compiles `x++`/`x--`, which evaluates to the
// pre-increment/decrement value (C/JS postfix semantics — a deliberate
// choice recorded in DESIGN.md, since spec.md is silent on this).
func (c *Compiler) compilePostfix(n *ast.PostfixExpr) error {
	lv, err := c.compileLValue(n.X)
	if err != nil {
		return err
	}
	lv.load()
	c.proto.Emit0(bytecode.OpDup, n.SpanVal)
	one := c.proto.AddConstant(value.Number(1))
	c.proto.Emit1(bytecode.OpConst, n.SpanVal, one)
	if n.Op == token.INC {
		c.proto.Emit0(bytecode.OpAdd, n.SpanVal)
	} else {
		c.proto.Emit0(bytecode.OpSub, n.SpanVal)
	}
	lv.store()
	return nil
}
