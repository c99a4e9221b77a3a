package compiler

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

// compileStmt compiles s, leaving the stack exactly as it found it
// (statements never produce a value — only expressions do).
func (c *Compiler) compileStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.proto.Emit0(bytecode.OpPop, n.SpanVal)
		return nil
	case *ast.AssignStmt:
		return c.compileAssign(n.Target, n.Op, n.Value, n.SpanVal)
	case *ast.LetStmt:
		return c.compileLocalDecl(n.Name, n.Value, n.SpanVal)
	case *ast.VarStmt:
		return c.compileLocalDecl(n.Name, n.Value, n.SpanVal)
	case *ast.ReturnStmt:
		if n.Value != nil {
			if err := c.compileExpr(n.Value); err != nil {
				return err
			}
			c.proto.Emit0(bytecode.OpReturn, n.SpanVal)
		} else {
			c.proto.Emit0(bytecode.OpReturnNull, n.SpanVal)
		}
		return nil
	case *ast.BreakStmt:
		loop := c.currentLoop()
		if loop == nil {
			return errorf(n.SpanVal, "compiler: break outside a loop")
		}
		loop.breakJumps = append(loop.breakJumps, c.emitJump(bytecode.OpJump, n.SpanVal))
		return nil
	case *ast.ContinueStmt:
		loop := c.currentLoop()
		if loop == nil {
			return errorf(n.SpanVal, "compiler: continue outside a loop")
		}
		loop.continueJumps = append(loop.continueJumps, c.emitJump(bytecode.OpJump, n.SpanVal))
		return nil
	case *ast.WhileStmt:
		return c.compileWhileStmt(n)
	case *ast.ForStmt:
		return c.compileForStmt(n)
	case *ast.ForInStmt:
		return c.compileForInStmt(n)
	case *ast.FnDecl:
		return c.compileLocalFnDecl(n)
	default:
		return errorf(s.Span(), "compiler: unhandled statement %T", s)
	}
}

func (c *Compiler) compileLocalDecl(name string, valueExpr ast.Expr, sp span.Span) error {
	if err := c.compileExpr(valueExpr); err != nil {
		return err
	}
	slot := c.declareLocal(name)
	c.proto.Emit1(bytecode.OpStoreLocal, sp, slot)
	return nil
}

// compileLocalFnDecl compiles a nested (non-top-level) `fn` statement.
// Its name is declared as a local *before* the body is compiled so a
// recursive call inside the body resolves to the same slot via
// resolveUpvalue/resolveLocal, exactly like any other forward-visible
// binding in its enclosing scope (internal/symbols hoists FnDecls for
// the same reason).
func (c *Compiler) compileLocalFnDecl(n *ast.FnDecl) error {
	slot, ok := c.resolveLocal(n.Name)
	if !ok {
		slot = c.declareLocal(n.Name)
	}
	protoIdx, upvalues, err := c.compileFunctionBody(n.Name, n.Params, n.Body)
	if err != nil {
		return err
	}
	c.proto.EmitMakeClosure(protoIdx, upvalues, n.SpanVal)
	c.proto.Emit1(bytecode.OpStoreLocal, n.SpanVal, slot)
	return nil
}

// compileBlockValue compiles n so its trailing tail expression (or
// Null, if the block ends in a statement) is left as the one value on
// the stack. Used wherever a block appears in expression position:
// if/else branches, match arm bodies, nested blocks.
func (c *Compiler) compileBlockValue(n *ast.BlockExpr) error {
	c.beginScope()
	for _, s := range n.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	if n.Tail != nil {
		if err := c.compileExpr(n.Tail); err != nil {
			return err
		}
	} else {
		c.proto.Emit0(bytecode.OpLoadNull, n.SpanVal)
	}
	c.endScope()
	return nil
}

// compileBlockAsStmt compiles n for its side effects only (loop
// bodies), discarding any trailing tail value.
func (c *Compiler) compileBlockAsStmt(n *ast.BlockExpr) error {
	c.beginScope()
	for _, s := range n.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	if n.Tail != nil {
		if err := c.compileExpr(n.Tail); err != nil {
			return err
		}
		c.proto.Emit0(bytecode.OpPop, n.SpanVal)
	}
	c.endScope()
	return nil
}

// compileFunctionBlock compiles n as a whole function body: its
// trailing tail (if any) becomes the return value, otherwise the
// function implicitly returns null.
func (c *Compiler) compileFunctionBlock(n *ast.BlockExpr) error {
	c.beginScope()
	for _, s := range n.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	if n.Tail != nil {
		if err := c.compileExpr(n.Tail); err != nil {
			return err
		}
		c.proto.Emit0(bytecode.OpReturn, n.SpanVal)
	} else {
		c.proto.Emit0(bytecode.OpReturnNull, n.SpanVal)
	}
	c.endScope()
	return nil
}

func (c *Compiler) compileWhileStmt(n *ast.WhileStmt) error {
	loopStart := c.proto.Len()
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)

	c.pushLoop()
	if err := c.compileBlockAsStmt(n.Body); err != nil {
		return err
	}
	c.proto.Emit1(bytecode.OpJump, n.SpanVal, loopStart)

	loop := c.currentLoop()
	for _, j := range loop.continueJumps {
		c.patchJumpTo(j, loopStart)
	}
	c.patchJump(exitJump)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.popLoop()
	return nil
}

func (c *Compiler) compileForStmt(n *ast.ForStmt) error {
	c.beginScope()
	if n.Init != nil {
		if err := c.compileStmt(n.Init); err != nil {
			return err
		}
	}
	loopStart := c.proto.Len()
	hasCond := n.Cond != nil
	var exitJump int
	if hasCond {
		if err := c.compileExpr(n.Cond); err != nil {
			return err
		}
		exitJump = c.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	}

	c.pushLoop()
	if err := c.compileBlockAsStmt(n.Body); err != nil {
		return err
	}
	postStart := c.proto.Len()
	if n.Post != nil {
		if err := c.compileStmt(n.Post); err != nil {
			return err
		}
	}
	c.proto.Emit1(bytecode.OpJump, n.SpanVal, loopStart)

	loop := c.currentLoop()
	for _, j := range loop.continueJumps {
		c.patchJumpTo(j, postStart)
	}
	if hasCond {
		c.patchJump(exitJump)
	}
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.popLoop()
	c.endScope()
	return nil
}

// compileForInStmt lowers `for (name in iterable) body` onto the
// existing opcode set rather than adding a dedicated iterator opcode:
// the iterable is normalized to an index-by-number array by the
// __iter_values builtin (arrays pass through unchanged, objects yield
// their keys), and the loop walks it with an ordinary index counter.
func (c *Compiler) compileForInStmt(n *ast.ForInStmt) error {
	sp := n.SpanVal
	c.beginScope()

	if err := c.compileExpr(n.Iterable); err != nil {
		return err
	}
	iterIdx := c.proto.AddConstant(value.String(dispatch.IterValuesBuiltin))
	c.proto.Emit2(bytecode.OpCallNative, sp, iterIdx, 1)
	seqSlot := c.declareLocal("$seq")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, seqSlot)

	c.proto.Emit1(bytecode.OpLoadLocal, sp, seqSlot)
	lenIdx := c.proto.AddConstant(value.String("len"))
	c.proto.Emit2(bytecode.OpCallNative, sp, lenIdx, 1)
	lenSlot := c.declareLocal("$len")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, lenSlot)

	zeroIdx := c.proto.AddConstant(value.Number(0))
	c.proto.Emit1(bytecode.OpConst, sp, zeroIdx)
	idxSlot := c.declareLocal("$i")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, idxSlot)

	loopStart := c.proto.Len()
	c.proto.Emit1(bytecode.OpLoadLocal, sp, idxSlot)
	c.proto.Emit1(bytecode.OpLoadLocal, sp, lenSlot)
	c.proto.Emit0(bytecode.OpLt, sp)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, sp)

	c.beginScope()
	c.proto.Emit1(bytecode.OpLoadLocal, sp, seqSlot)
	c.proto.Emit1(bytecode.OpLoadLocal, sp, idxSlot)
	c.proto.Emit0(bytecode.OpIndex, sp)
	bindSlot := c.declareLocal(n.Name)
	c.proto.Emit1(bytecode.OpStoreLocal, sp, bindSlot)

	c.pushLoop()
	if err := c.compileBlockAsStmt(n.Body); err != nil {
		return err
	}
	postStart := c.proto.Len()
	c.proto.Emit1(bytecode.OpLoadLocal, sp, idxSlot)
	oneIdx := c.proto.AddConstant(value.Number(1))
	c.proto.Emit1(bytecode.OpConst, sp, oneIdx)
	c.proto.Emit0(bytecode.OpAdd, sp)
	c.proto.Emit1(bytecode.OpStoreLocal, sp, idxSlot)
	c.proto.Emit1(bytecode.OpJump, sp, loopStart)

	loop := c.currentLoop()
	for _, j := range loop.continueJumps {
		c.patchJumpTo(j, postStart)
	}
	c.patchJump(exitJump)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.popLoop()
	c.endScope()
	c.endScope()
	return nil
}

// compileMatch lowers a match expression to a chain of
// test-and-jump-to-next-arm sequences: WildcardPattern never tests,
// IdentPattern never tests (it always matches, binding the subject),
// LiteralPattern compiles to OpEq against the subject. A guard ANDs an
// extra test onto whichever pattern test already ran. internal/typecheck
// is responsible for flagging non-exhaustive matches, so the trailing
// OpLoadNull exists only to keep codegen total, not as reachable
// fallback behavior.
func (c *Compiler) compileMatch(n *ast.MatchExpr) error {
	sp := n.SpanVal
	if err := c.compileExpr(n.Subject); err != nil {
		return err
	}
	subjSlot := c.declareLocal("$subject")
	c.proto.Emit1(bytecode.OpStoreLocal, sp, subjSlot)

	var endJumps []int
	var pendingSkips []int
	for i, arm := range n.Arms {
		for _, j := range pendingSkips {
			c.patchJump(j)
		}
		pendingSkips = nil

		c.beginScope()
		switch pat := arm.Pattern.(type) {
		case *ast.WildcardPattern:
		case *ast.IdentPattern:
			c.proto.Emit1(bytecode.OpLoadLocal, arm.SpanVal, subjSlot)
			slot := c.declareLocal(pat.Name)
			c.proto.Emit1(bytecode.OpStoreLocal, arm.SpanVal, slot)
		case *ast.LiteralPattern:
			c.proto.Emit1(bytecode.OpLoadLocal, arm.SpanVal, subjSlot)
			if err := c.compileExpr(pat.Value); err != nil {
				return err
			}
			c.proto.Emit0(bytecode.OpEq, arm.SpanVal)
			pendingSkips = append(pendingSkips, c.emitJump(bytecode.OpJumpIfFalse, arm.SpanVal))
		default:
			return errorf(arm.Span(), "compiler: unhandled match pattern %T", pat)
		}
		if arm.Guard != nil {
			if err := c.compileExpr(arm.Guard); err != nil {
				return err
			}
			pendingSkips = append(pendingSkips, c.emitJump(bytecode.OpJumpIfFalse, arm.SpanVal))
		}
		if err := c.compileExpr(arm.Body); err != nil {
			return err
		}
		c.endScope()
		if i < len(n.Arms)-1 {
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump, arm.SpanVal))
		}
	}
	for _, j := range pendingSkips {
		c.patchJump(j)
	}
	c.proto.Emit0(bytecode.OpLoadNull, sp)
	for _, j := range endJumps {
		c.patchJump(j)
	}
	return nil
}
