package bytecode

// InstrLen returns the total byte length (opcode byte plus operands)
// of the instruction starting at offset off in code, or (0, false) if
// op is not a recognized opcode or the instruction's operand bytes run
// past the end of code (both are validator failures, spec.md §4.6).
func InstrLen(code []byte, off int) (int, bool) {
	if off >= len(code) {
		return 0, false
	}
	op := OpCode(code[off])
	if !op.IsValid() {
		return 0, false
	}
	if op == OpMakeClosure {
		if off+5 > len(code) {
			return 0, false
		}
		n := ReadU16(code, off+3)
		total := 5 + n*3
		if off+total > len(code) {
			return 0, false
		}
		return total, true
	}
	width := OperandWidth(op)
	total := 1 + width
	if off+total > len(code) {
		return 0, false
	}
	return total, true
}

// DecodeMakeClosure decodes the function-proto index and the upvalue
// descriptor list of a MakeClosure instruction starting at off (off must
// point at the OpMakeClosure byte). Used by both the VM and the
// disassembler.
func DecodeMakeClosure(code []byte, off int) (protoIdx int, upvalues []UpvalueDef) {
	protoIdx = ReadU16(code, off+1)
	n := ReadU16(code, off+3)
	upvalues = make([]UpvalueDef, n)
	p := off + 5
	for i := 0; i < n; i++ {
		isLocal := code[p] != 0
		idx := ReadU16(code, p+1)
		upvalues[i] = UpvalueDef{IsLocal: isLocal, Index: idx}
		p += 3
	}
	return protoIdx, upvalues
}
