package compiler

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
	"github.com/atlas-lang/atlas/internal/value"
)

var binaryOps = map[token.Kind]bytecode.OpCode{
	token.PLUS: bytecode.OpAdd, token.MINUS: bytecode.OpSub,
	token.STAR: bytecode.OpMul, token.SLASH: bytecode.OpDiv, token.PERCENT: bytecode.OpMod,
	token.EQ: bytecode.OpEq, token.NEQ: bytecode.OpNeq,
	token.LT: bytecode.OpLt, token.LTE: bytecode.OpLeq,
	token.GT: bytecode.OpGt, token.GTE: bytecode.OpGeq,
}

// compileExpr compiles e so that it leaves exactly one value on the
// stack.
func (c *Compiler) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Identifier:
		return c.compileLoadIdent(n.Name, n.SpanVal)
	case *ast.NumberLiteral:
		idx := c.proto.AddConstant(value.Number(n.Value))
		c.proto.Emit1(bytecode.OpConst, n.SpanVal, idx)
		return nil
	case *ast.StringLiteral:
		idx := c.proto.AddConstant(value.String(n.Value))
		c.proto.Emit1(bytecode.OpConst, n.SpanVal, idx)
		return nil
	case *ast.BoolLiteral:
		if n.Value {
			c.proto.Emit0(bytecode.OpLoadTrue, n.SpanVal)
		} else {
			c.proto.Emit0(bytecode.OpLoadFalse, n.SpanVal)
		}
		return nil
	case *ast.NullLiteral:
		c.proto.Emit0(bytecode.OpLoadNull, n.SpanVal)
		return nil
	case *ast.ErrorExpr:
		// The parser only emits ErrorExpr after a syntax error, which
		// would already have failed compilation upstream; null keeps
		// codegen total in case a caller compiles a partial AST anyway.
		c.proto.Emit0(bytecode.OpLoadNull, n.SpanVal)
		return nil
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.proto.Emit1(bytecode.OpMakeArray, n.SpanVal, len(n.Elements))
		return nil
	case *ast.ObjectLiteral:
		for i, key := range n.Keys {
			idx := c.proto.AddConstant(value.String(key))
			c.proto.Emit1(bytecode.OpConst, n.SpanVal, idx)
			if err := c.compileExpr(n.Values[i]); err != nil {
				return err
			}
		}
		c.proto.Emit1(bytecode.OpMakeObject, n.SpanVal, len(n.Keys))
		return nil
	case *ast.UnaryExpr:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		switch n.Op {
		case token.MINUS:
			c.proto.Emit0(bytecode.OpNeg, n.SpanVal)
		case token.BANG:
			c.proto.Emit0(bytecode.OpNot, n.SpanVal)
		default:
			return errorf(n.SpanVal, "unsupported unary operator %s", n.Op)
		}
		return nil
	case *ast.BinaryExpr:
		op, ok := binaryOps[n.Op]
		if !ok {
			return errorf(n.SpanVal, "unsupported binary operator %s", n.Op)
		}
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		if err := c.compileExpr(n.Y); err != nil {
			return err
		}
		c.proto.Emit0(op, n.SpanVal)
		return nil
	case *ast.LogicalExpr:
		return c.compileLogical(n)
	case *ast.PostfixExpr:
		return c.compilePostfix(n)
	case *ast.CallExpr:
		return c.compileCall(n)
	case *ast.IndexExpr:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.proto.Emit0(bytecode.OpIndex, n.SpanVal)
		return nil
	case *ast.MemberExpr:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		idx := c.proto.AddConstant(value.String(n.Name))
		c.proto.Emit1(bytecode.OpMember, n.SpanVal, idx)
		return nil
	case *ast.IfExpr:
		return c.compileIf(n)
	case *ast.BlockExpr:
		return c.compileBlockValue(n)
	case *ast.MatchExpr:
		return c.compileMatch(n)
	case *ast.LambdaExpr:
		return c.compileLambda(n)
	default:
		return errorf(e.Span(), "compiler: unhandled expression %T", e)
	}
}

// compileLoadIdent pushes the current value of name, resolving it as a
// local, then an upvalue, then a global, in that order (the same order
// internal/symbols.Table.Lookup walks scopes innermost-first).
func (c *Compiler) compileLoadIdent(name string, sp span.Span) error {
	if slot, ok := c.resolveLocal(name); ok {
		c.proto.Emit1(bytecode.OpLoadLocal, sp, slot)
		return nil
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.proto.Emit1(bytecode.OpLoadUpvalue, sp, idx)
		return nil
	}
	if idx, ok := c.prog.resolveGlobal(name); ok {
		c.proto.Emit1(bytecode.OpLoadGlobal, sp, idx)
		return nil
	}
	return errorf(sp, "compiler: unresolved identifier %q (should have been caught by typecheck)", name)
}

func (c *Compiler) compileLogical(n *ast.LogicalExpr) error {
	if err := c.compileExpr(n.X); err != nil {
		return err
	}
	c.proto.Emit0(bytecode.OpDup, n.SpanVal)
	var shortCircuit int
	if n.Op == token.AND {
		shortCircuit = c.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	} else {
		shortCircuit = c.emitJump(bytecode.OpJumpIfTrue, n.SpanVal)
	}
	c.proto.Emit0(bytecode.OpPop, n.SpanVal)
	if err := c.compileExpr(n.Y); err != nil {
		return err
	}
	end := c.emitJump(bytecode.OpJump, n.SpanVal)
	c.patchJump(shortCircuit)
	c.patchJump(end)
	return nil
}

func (c *Compiler) compileIf(n *ast.IfExpr) error {
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	if err := c.compileBlockValue(n.Then); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OpJump, n.SpanVal)
	c.patchJump(elseJump)
	if n.Else != nil {
		if err := c.compileExpr(n.Else); err != nil {
			return err
		}
	} else {
		c.proto.Emit0(bytecode.OpLoadNull, n.SpanVal)
	}
	c.patchJump(endJump)
	return nil
}

// compileCall compiles a call expression. A MemberExpr callee compiles
// to a receiver-dispatched OpCallMethod (the VM resolves the concrete
// builtin by the receiver's runtime Kind via internal/dispatch, so the
// compiler need not know the receiver's static type); a bare identifier
// naming a predeclared global builtin compiles to OpCallNative; every
// other callee compiles as an ordinary OpCall over a callable value.
func (c *Compiler) compileCall(n *ast.CallExpr) error {
	if mem, ok := n.Callee.(*ast.MemberExpr); ok {
		if err := c.compileExpr(mem.X); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		nameIdx := c.proto.AddConstant(value.String(mem.Name))
		c.proto.Emit2(bytecode.OpCallMethod, n.SpanVal, nameIdx, len(n.Args))
		return nil
	}
	if id, ok := n.Callee.(*ast.Identifier); ok && dispatch.IsGlobalBuiltin(id.Name) {
		if _, isLocal := c.resolveLocal(id.Name); !isLocal {
			if _, isUp := c.resolveUpvalue(id.Name); !isUp {
				for _, a := range n.Args {
					if err := c.compileExpr(a); err != nil {
						return err
					}
				}
				nameIdx := c.proto.AddConstant(value.String(id.Name))
				c.proto.Emit2(bytecode.OpCallNative, n.SpanVal, nameIdx, len(n.Args))
				return nil
			}
		}
	}
	if err := c.compileExpr(n.Callee); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.proto.Emit1(bytecode.OpCall, n.SpanVal, len(n.Args))
	return nil
}

func (c *Compiler) compileLambda(n *ast.LambdaExpr) error {
	protoIdx, upvalues, err := c.compileFunctionBody("<lambda>", n.Params, n.Body)
	if err != nil {
		return err
	}
	c.proto.EmitMakeClosure(protoIdx, upvalues, n.SpanVal)
	return nil
}
