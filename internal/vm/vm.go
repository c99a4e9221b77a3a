// Package vm implements Atlas's bytecode interpreter (spec.md §4.7): a
// stack machine that executes a compiled *bytecode.Bytecode program.
//
// Grounded in the teacher's internal/bytecode/vm_core.go +
// vm_exec.go's split (a thin VM struct and call-frame stack, a single
// big dispatch loop over the instruction stream, opcode groups split
// into their own files), generalized from DWScript's opcode set to
// Atlas's. Per DESIGN.md's closure-capture decision, every local slot
// is always boxed in a *value.Cell — there is no separate open/closed
// upvalue machinery to port from the teacher, since Atlas's VM and
// interpreter must capture identically by reference.
package vm

import (
	"context"
	"fmt"
	"io"

	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/dispatch"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/stdlib"
	"github.com/atlas-lang/atlas/internal/value"
)

// frame is one call's activation record: its proto, its program
// counter, its boxed locals (args occupy the first Arity slots), and
// the operand-stack base this frame's values live above.
type frame struct {
	proto     *bytecode.FunctionProto
	pc        int
	locals    []*value.Cell
	closure   *value.Function // nil for the synthetic top-level <main> frame
	stackBase int
}

// VM executes a Bytecode program. One VM is single-use: construct a
// fresh one per Run (mirrors the teacher's NewVM-per-execution style).
type VM struct {
	ctx     context.Context
	bc      *bytecode.Bytecode
	globals []*value.Cell
	stack   []value.Value
	frames  []frame
	sec     *security.Context
	stdout  io.Writer
}

// New constructs a VM ready to run bc, gated by sec and writing
// `print` output to stdout. ctx is checked at every function-call
// boundary (spec.md §5's cooperative cancellation); pass
// context.Background() for an uncancellable run.
func New(ctx context.Context, bc *bytecode.Bytecode, sec *security.Context, stdout io.Writer) *VM {
	globals := make([]*value.Cell, len(bc.Globals))
	for i := range globals {
		globals[i] = value.NewCell(value.TheNull)
	}
	return &VM{ctx: ctx, bc: bc, globals: globals, sec: sec, stdout: stdout}
}

// Run executes bc.Functions[bc.Entry] (the top-level <main> proto) to
// completion and returns its final value — the last expression
// statement's value for script-mode programs, Null otherwise — or the
// diagnostic an uncaught runtime error produced.
func (m *VM) Run() (value.Value, *diag.Diagnostic) {
	entry := m.bc.Functions[m.bc.Entry]
	return m.callProto(entry, nil, nil)
}

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() value.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek(fromTop int) value.Value {
	return m.stack[len(m.stack)-1-fromTop]
}

// callProto runs proto as a fresh call, with args bound into its first
// len(args) local slots and upvalues available via closureUpvalues (nil
// for the top-level frame, which has no enclosing closure).
func (m *VM) callProto(proto *bytecode.FunctionProto, args []value.Value, closure *value.Function) (value.Value, *diag.Diagnostic) {
	if err := m.ctx.Err(); err != nil {
		return nil, diag.New(diag.ErrRuntimeCancelled, err.Error(), span.Span{})
	}
	locals := make([]*value.Cell, proto.NumLocals)
	for i := range locals {
		if i < len(args) {
			locals[i] = value.NewCell(args[i])
		} else {
			locals[i] = value.NewCell(value.TheNull)
		}
	}
	m.frames = append(m.frames, frame{
		proto:     proto,
		locals:    locals,
		closure:   closure,
		stackBase: len(m.stack),
	})
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()
	return m.runFrame(&m.frames[len(m.frames)-1])
}

// runFrame executes fr's instruction stream from its current pc until
// a Return/ReturnNull or an error. fr must be the top of m.frames.
func (m *VM) runFrame(fr *frame) (value.Value, *diag.Diagnostic) {
	code := fr.proto.Code
	for fr.pc < len(code) {
		op := bytecode.OpCode(code[fr.pc])
		start := fr.pc
		switch op {
		case bytecode.OpConst:
			idx := bytecode.ReadU16(code, fr.pc+1)
			m.push(fr.proto.Constants[idx])
			fr.pc += 3

		case bytecode.OpPop:
			m.pop()
			fr.pc++

		case bytecode.OpDup:
			m.push(m.peek(0))
			fr.pc++

		case bytecode.OpLoadNull:
			m.push(value.TheNull)
			fr.pc++
		case bytecode.OpLoadTrue:
			m.push(value.Bool(true))
			fr.pc++
		case bytecode.OpLoadFalse:
			m.push(value.Bool(false))
			fr.pc++

		case bytecode.OpLoadLocal:
			slot := bytecode.ReadU16(code, fr.pc+1)
			m.push(fr.locals[slot].V)
			fr.pc += 3
		case bytecode.OpStoreLocal:
			slot := bytecode.ReadU16(code, fr.pc+1)
			fr.locals[slot].V = m.pop()
			fr.pc += 3

		case bytecode.OpLoadGlobal:
			idx := bytecode.ReadU16(code, fr.pc+1)
			m.push(m.globals[idx].V)
			fr.pc += 3
		case bytecode.OpStoreGlobal:
			idx := bytecode.ReadU16(code, fr.pc+1)
			m.globals[idx].V = m.pop()
			fr.pc += 3

		case bytecode.OpLoadUpvalue:
			idx := bytecode.ReadU16(code, fr.pc+1)
			m.push(fr.closure.Upvalues[idx].V)
			fr.pc += 3
		case bytecode.OpStoreUpvalue:
			idx := bytecode.ReadU16(code, fr.pc+1)
			fr.closure.Upvalues[idx].V = m.pop()
			fr.pc += 3

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			sp := fr.proto.SpanAt(start)
			b := m.pop()
			a := m.pop()
			res, derr := arith(op, a, b, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)
			fr.pc++

		case bytecode.OpNeg:
			sp := fr.proto.SpanAt(start)
			a := m.pop()
			n, ok := a.(value.Number)
			if !ok {
				return nil, typeErr(sp, "unary - requires a number, found %s", a.Kind())
			}
			m.push(-n)
			fr.pc++

		case bytecode.OpNot:
			a := m.pop()
			m.push(value.Bool(!value.Truthy(a)))
			fr.pc++

		case bytecode.OpEq:
			b := m.pop()
			a := m.pop()
			m.push(value.Bool(value.Equals(a, b)))
			fr.pc++
		case bytecode.OpNeq:
			b := m.pop()
			a := m.pop()
			m.push(value.Bool(!value.Equals(a, b)))
			fr.pc++

		case bytecode.OpLt, bytecode.OpLeq, bytecode.OpGt, bytecode.OpGeq:
			sp := fr.proto.SpanAt(start)
			b := m.pop()
			a := m.pop()
			res, derr := compare(op, a, b, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)
			fr.pc++

		case bytecode.OpJump:
			target := bytecode.ReadU16(code, fr.pc+1)
			fr.pc = target
		case bytecode.OpJumpIfFalse:
			target := bytecode.ReadU16(code, fr.pc+1)
			cond := m.pop()
			if !value.Truthy(cond) {
				fr.pc = target
			} else {
				fr.pc += 3
			}
		case bytecode.OpJumpIfTrue:
			target := bytecode.ReadU16(code, fr.pc+1)
			cond := m.pop()
			if value.Truthy(cond) {
				fr.pc = target
			} else {
				fr.pc += 3
			}

		case bytecode.OpCall:
			argc := bytecode.ReadU16(code, fr.pc+1)
			sp := fr.proto.SpanAt(start)
			args := append([]value.Value(nil), m.stack[len(m.stack)-argc:]...)
			m.stack = m.stack[:len(m.stack)-argc]
			callee := m.pop()
			fr.pc += 3
			res, derr := m.call(callee, args, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)

		case bytecode.OpCallNative:
			nameIdx := bytecode.ReadU16(code, fr.pc+1)
			argc := bytecode.ReadU16(code, fr.pc+3)
			sp := fr.proto.SpanAt(start)
			name := string(fr.proto.Constants[nameIdx].(value.String))
			args := append([]value.Value(nil), m.stack[len(m.stack)-argc:]...)
			m.stack = m.stack[:len(m.stack)-argc]
			fr.pc += 5
			res, derr := stdlib.CallBuiltin(name, args, sp, m.sec, m.stdout)
			if derr != nil {
				return nil, derr
			}
			m.push(res)

		case bytecode.OpCallMethod:
			nameIdx := bytecode.ReadU16(code, fr.pc+1)
			argc := bytecode.ReadU16(code, fr.pc+3)
			sp := fr.proto.SpanAt(start)
			method := string(fr.proto.Constants[nameIdx].(value.String))
			args := append([]value.Value(nil), m.stack[len(m.stack)-argc:]...)
			m.stack = m.stack[:len(m.stack)-argc]
			receiver := m.pop()
			fr.pc += 5
			res, derr := m.callMethod(receiver, method, args, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)

		case bytecode.OpReturn:
			return m.pop(), nil
		case bytecode.OpReturnNull:
			return value.TheNull, nil

		case bytecode.OpMakeClosure:
			protoIdx, upvalDefs := bytecode.DecodeMakeClosure(code, fr.pc)
			childProto := m.bc.Functions[protoIdx]
			upvalues := make([]*value.Cell, len(upvalDefs))
			for i, uv := range upvalDefs {
				if uv.IsLocal {
					upvalues[i] = fr.locals[uv.Index]
				} else {
					upvalues[i] = fr.closure.Upvalues[uv.Index]
				}
			}
			m.push(&value.Function{Name: childProto.Name, Arity: childProto.Arity, Code: childProto, Upvalues: upvalues})
			n, _ := bytecode.InstrLen(code, fr.pc)
			fr.pc += n

		case bytecode.OpMakeArray:
			n := bytecode.ReadU16(code, fr.pc+1)
			elems := append([]value.Value(nil), m.stack[len(m.stack)-n:]...)
			m.stack = m.stack[:len(m.stack)-n]
			m.push(value.NewArray(elems))
			fr.pc += 3

		case bytecode.OpMakeObject:
			n := bytecode.ReadU16(code, fr.pc+1)
			obj := value.NewObject()
			pairs := m.stack[len(m.stack)-2*n:]
			for i := 0; i < n; i++ {
				k := pairs[2*i].(value.String)
				v := pairs[2*i+1]
				obj.Set(string(k), v)
			}
			m.stack = m.stack[:len(m.stack)-2*n]
			m.push(obj)
			fr.pc += 3

		case bytecode.OpIndex:
			sp := fr.proto.SpanAt(start)
			idx := m.pop()
			recv := m.pop()
			res, derr := indexGet(recv, idx, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)
			fr.pc++

		case bytecode.OpIndexStore:
			sp := fr.proto.SpanAt(start)
			val := m.pop()
			idx := m.pop()
			recv := m.pop()
			derr := indexSet(recv, idx, val, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(val)
			fr.pc++

		case bytecode.OpMember:
			nameIdx := bytecode.ReadU16(code, fr.pc+1)
			sp := fr.proto.SpanAt(start)
			name := string(fr.proto.Constants[nameIdx].(value.String))
			recv := m.pop()
			res, derr := memberGet(recv, name, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(res)
			fr.pc += 3

		case bytecode.OpMemberStore:
			nameIdx := bytecode.ReadU16(code, fr.pc+1)
			sp := fr.proto.SpanAt(start)
			name := string(fr.proto.Constants[nameIdx].(value.String))
			val := m.pop()
			recv := m.pop()
			derr := memberSet(recv, name, val, sp)
			if derr != nil {
				return nil, derr
			}
			m.push(val)
			fr.pc += 3

		default:
			return nil, diag.New(diag.ErrInternal, "unrecognized opcode in bytecode stream", fr.proto.SpanAt(start))
		}
	}
	return value.TheNull, nil
}

// call invokes callee (a *value.Function or *value.NativeFunction)
// with args, used for both OpCall (closures) and method receivers that
// happen to be plain values bound to a variable first.
func (m *VM) call(callee value.Value, args []value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	switch fn := callee.(type) {
	case *value.Function:
		proto, ok := fn.Code.(*bytecode.FunctionProto)
		if !ok {
			return nil, typeErr(sp, "value is not callable on this engine")
		}
		if len(args) != fn.Arity {
			return nil, typeErr(sp, "%s expects %d argument(s), got %d", fn.String(), fn.Arity, len(args))
		}
		return m.callProto(proto, args, fn)
	case *value.NativeFunction:
		return stdlib.CallBuiltin(fn.Name, args, sp, m.sec, m.stdout)
	default:
		return nil, typeErr(sp, "value of type %s is not callable", callee.Kind())
	}
}

// callMethod resolves method against receiver's dispatch tag and runs
// it through internal/stdlib, the same routing internal/interpreter
// uses for `receiver.method(args)` call expressions.
func (m *VM) callMethod(receiver value.Value, method string, args []value.Value, sp span.Span) (value.Value, *diag.Diagnostic) {
	tag, ok := dispatch.TagForValueKind(receiver.Kind())
	if !ok {
		return nil, typeErr(sp, "%s has no methods", receiver.Kind())
	}
	name, ok := dispatch.Resolve(tag, method)
	if !ok {
		return nil, typeErr(sp, "%s has no method %q", tag, method)
	}
	full := append([]value.Value{receiver}, args...)
	return stdlib.CallBuiltin(name, full, sp, m.sec, m.stdout)
}

func typeErr(sp span.Span, format string, args ...any) *diag.Diagnostic {
	return diag.New(diag.ErrRuntimeType, fmt.Sprintf(format, args...), sp)
}
