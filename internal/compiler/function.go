package compiler

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
)

// compileFunctionBody compiles a fn/lambda body into its own
// FunctionProto, nested under c (the lexical parent whose locals and
// upvalues resolveUpvalue may walk into), and returns the proto's
// index in the shared function table plus its upvalue descriptors for
// the caller to pass to EmitMakeClosure.
//
// Shared by FnDecl, the block form of LambdaExpr, and the arrow form:
// a block body returns via its trailing tail (or null); an arrow body
// is a bare expression, implicitly returned.
func (c *Compiler) compileFunctionBody(name string, params []*ast.Param, body ast.Expr) (int, []bytecode.UpvalueDef, error) {
	return compileFunctionProto(c.prog, c, name, params, body)
}

// compileFunctionProto does the actual work, parameterized on the
// enclosing Compiler so the top-level program compiler can pass nil
// for top-level fn declarations (which close only over globals, never
// over each other's locals or the entry function's locals).
func compileFunctionProto(sh *shared, enclosing *Compiler, name string, params []*ast.Param, body ast.Expr) (int, []bytecode.UpvalueDef, error) {
	fc := newFunctionCompiler(sh, enclosing, name, len(params))
	for _, p := range params {
		fc.declareLocal(p.Name)
	}
	if block, ok := body.(*ast.BlockExpr); ok {
		if err := fc.compileFunctionBlock(block); err != nil {
			return 0, nil, err
		}
	} else {
		if err := fc.compileExpr(body); err != nil {
			return 0, nil, err
		}
		fc.proto.Emit0(bytecode.OpReturn, body.Span())
	}
	fc.proto.UpvalueDefs = fc.buildUpvalueDefs()
	idx := sh.addFunction(fc.proto)
	return idx, fc.proto.UpvalueDefs, nil
}
