package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's instruction stream as human-readable text,
// one instruction per line, for debugging and golden tests (mirrors
// the teacher's internal/bytecode/disasm.go).
func Disassemble(fn *FunctionProto) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s (arity=%d locals=%d)\n", fn.Name, fn.Arity, fn.NumLocals)
	off := 0
	for off < len(fn.Code) {
		n, ok := InstrLen(fn.Code, off)
		if !ok {
			fmt.Fprintf(&sb, "%04d  <invalid>\n", off)
			break
		}
		sb.WriteString(disasmOne(fn, off))
		sb.WriteString("\n")
		off += n
	}
	return sb.String()
}

func disasmOne(fn *FunctionProto, off int) string {
	op := OpCode(fn.Code[off])
	switch op {
	case OpMakeClosure:
		protoIdx, upvalues := DecodeMakeClosure(fn.Code, off)
		return fmt.Sprintf("%04d  %-14s proto=%d upvalues=%d", off, op, protoIdx, len(upvalues))
	case OpConst:
		idx := ReadU16(fn.Code, off+1)
		val := "?"
		if idx < len(fn.Constants) {
			val = fn.Constants[idx].String()
		}
		return fmt.Sprintf("%04d  %-14s %d (%s)", off, op, idx, val)
	case OpCallNative, OpCallMethod:
		nameIdx := ReadU16(fn.Code, off+1)
		argc := ReadU16(fn.Code, off+3)
		name := "?"
		if nameIdx < len(fn.Constants) {
			name = fn.Constants[nameIdx].String()
		}
		return fmt.Sprintf("%04d  %-14s %s argc=%d", off, op, name, argc)
	case OpMember, OpMemberStore:
		idx := ReadU16(fn.Code, off+1)
		name := "?"
		if idx < len(fn.Constants) {
			name = fn.Constants[idx].String()
		}
		return fmt.Sprintf("%04d  %-14s %s", off, op, name)
	default:
		w := OperandWidth(op)
		if w == 0 {
			return fmt.Sprintf("%04d  %s", off, op)
		}
		operand := ReadU16(fn.Code, off+1)
		return fmt.Sprintf("%04d  %-14s %d", off, op, operand)
	}
}
