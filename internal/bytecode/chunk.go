package bytecode

import (
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

// UpvalueDef describes how a closure captures one free variable at
// OpMakeClosure time: either "capture local slot Index of the creating
// frame" (IsLocal) or "copy upvalue Index of the creating closure"
// (spec.md §3's FunctionProto upvalue descriptor). Per DESIGN.md's
// closure-capture decision, "capture" always means "take the same
// *value.Cell pointer" — there is no separate open/closed upvalue
// state to track (contrast with the teacher's Upvalue.location/closed
// split in bytecode.go, which exists only because the teacher captures
// by value).
type UpvalueDef struct {
	IsLocal bool
	Index   int
}

// FunctionProto is one compiled function: its instruction stream, its
// own constant pool, per-instruction debug spans, and the upvalue
// descriptors a MakeClosure over it must satisfy.
type FunctionProto struct {
	Name        string
	Arity       int
	NumLocals   int
	Code        []byte
	Constants   []value.Value
	DebugSpans  []span.Span // one entry per instruction, parallel to instruction count
	UpvalueDefs []UpvalueDef
}

// Bytecode is a whole compiled program (spec.md §3): every function
// proto plus the name table for its global slots and the index of the
// top-level "main" function.
type Bytecode struct {
	Functions []*FunctionProto
	Globals   []string
	Entry     int
}

// NewProto creates an empty FunctionProto ready for emission.
func NewProto(name string, arity int) *FunctionProto {
	return &FunctionProto{Name: name, Arity: arity}
}

// addConstant interns v into the constant pool, returning its index.
// Constants are deduplicated by Go equality on simple kinds (numbers,
// strings, bools) — the constant pool existing at all is to avoid
// repeating large string/number literals, per spec.md §4.5.
func (p *FunctionProto) addConstant(v value.Value) int {
	for i, c := range p.Constants {
		if constantsEqual(c, v) {
			return i
		}
	}
	p.Constants = append(p.Constants, v)
	return len(p.Constants) - 1
}

func constantsEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case value.Number:
		y := b.(value.Number)
		return x == y
	case value.String:
		y := b.(value.String)
		return x == y
	case value.Bool:
		y := b.(value.Bool)
		return x == y
	default:
		return false // arrays/objects/etc. are never interned
	}
}

// AddConstant exposes addConstant to internal/compiler.
func (p *FunctionProto) AddConstant(v value.Value) int { return p.addConstant(v) }

// emit appends a fixed-width instruction (opcode plus zero or more u16
// operands) and records sp against it, returning the instruction's
// starting byte offset.
func (p *FunctionProto) emit(op OpCode, sp span.Span, operands ...int) int {
	start := len(p.Code)
	p.Code = append(p.Code, byte(op))
	for _, o := range operands {
		p.Code = append(p.Code, byte(o>>8), byte(o))
	}
	p.DebugSpans = append(p.DebugSpans, sp)
	return start
}

// Emit0 emits a no-operand instruction.
func (p *FunctionProto) Emit0(op OpCode, sp span.Span) int { return p.emit(op, sp) }

// Emit1 emits a one-u16-operand instruction.
func (p *FunctionProto) Emit1(op OpCode, sp span.Span, operand int) int {
	return p.emit(op, sp, operand)
}

// Emit2 emits a two-u16-operand instruction.
func (p *FunctionProto) Emit2(op OpCode, sp span.Span, a, b int) int {
	return p.emit(op, sp, a, b)
}

// EmitMakeClosure emits the variable-width MakeClosure instruction.
func (p *FunctionProto) EmitMakeClosure(protoIdx int, upvalues []UpvalueDef, sp span.Span) int {
	start := len(p.Code)
	p.Code = append(p.Code, byte(OpMakeClosure))
	p.Code = append(p.Code, byte(protoIdx>>8), byte(protoIdx))
	n := len(upvalues)
	p.Code = append(p.Code, byte(n>>8), byte(n))
	for _, uv := range upvalues {
		b := byte(0)
		if uv.IsLocal {
			b = 1
		}
		p.Code = append(p.Code, b, byte(uv.Index>>8), byte(uv.Index))
	}
	p.DebugSpans = append(p.DebugSpans, sp)
	return start
}

// Len returns the current instruction-stream length in bytes, used by
// the compiler to compute jump targets before patching.
func (p *FunctionProto) Len() int { return len(p.Code) }

// PatchU16 overwrites the 2-byte operand at byte offset `at` with
// value, used to back-patch forward jumps once their target is known.
func (p *FunctionProto) PatchU16(at int, value int) {
	p.Code[at] = byte(value >> 8)
	p.Code[at+1] = byte(value)
}

// ReadU16 reads a big-endian u16 operand starting at offset off.
func ReadU16(code []byte, off int) int {
	return int(code[off])<<8 | int(code[off+1])
}

// SpanAt returns the source span recorded for the instruction starting
// at byte offset target, by walking the instruction stream from the
// start counting instructions (DebugSpans is indexed per-instruction,
// not per-byte). Used by internal/vm to attach a span to a runtime
// diagnostic from a raw program-counter offset; called only on the
// (rare) error path, so the linear walk costs nothing in the steady
// state.
func (p *FunctionProto) SpanAt(target int) span.Span {
	off, idx := 0, 0
	for off < target && off < len(p.Code) {
		n, ok := InstrLen(p.Code, off)
		if !ok {
			break
		}
		off += n
		idx++
	}
	if idx >= 0 && idx < len(p.DebugSpans) {
		return p.DebugSpans[idx]
	}
	return span.Span{}
}
