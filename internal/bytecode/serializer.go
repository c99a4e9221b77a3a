// Serialize/Deserialize implement the `.atb` compiled-bytecode codec
// (spec.md §6): "a versioned binary of Bytecode... a single
// implementation must round-trip". Grounded in the teacher's
// internal/bytecode/serializer.go (a hand-rolled length-prefixed binary
// format rather than gob/protobuf, so the format stays dependency-free
// and stable across Go versions).
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

const atbMagic = "ATLB"
const atbVersion = 1

const (
	constTagNumber byte = iota
	constTagString
	constTagBool
	constTagNull
)

// Serialize encodes bc into the `.atb` binary format.
func Serialize(bc *Bytecode) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(atbMagic)
	writeU32(&buf, atbVersion)

	writeU32(&buf, uint32(len(bc.Functions)))
	for _, fn := range bc.Functions {
		if err := writeFunction(&buf, fn); err != nil {
			return nil, err
		}
	}

	writeU32(&buf, uint32(len(bc.Globals)))
	for _, g := range bc.Globals {
		writeString(&buf, g)
	}

	writeU32(&buf, uint32(bc.Entry))
	return buf.Bytes(), nil
}

func writeFunction(buf *bytes.Buffer, fn *FunctionProto) error {
	writeString(buf, fn.Name)
	writeU32(buf, uint32(fn.Arity))
	writeU32(buf, uint32(fn.NumLocals))

	writeU32(buf, uint32(len(fn.Code)))
	buf.Write(fn.Code)

	writeU32(buf, uint32(len(fn.Constants)))
	for _, c := range fn.Constants {
		if err := writeConstant(buf, c); err != nil {
			return err
		}
	}

	writeU32(buf, uint32(len(fn.DebugSpans)))
	for _, sp := range fn.DebugSpans {
		writeU32(buf, uint32(sp.Start))
		writeU32(buf, uint32(sp.End))
	}

	writeU32(buf, uint32(len(fn.UpvalueDefs)))
	for _, uv := range fn.UpvalueDefs {
		b := byte(0)
		if uv.IsLocal {
			b = 1
		}
		buf.WriteByte(b)
		writeU32(buf, uint32(uv.Index))
	}
	return nil
}

func writeConstant(buf *bytes.Buffer, v value.Value) error {
	switch x := v.(type) {
	case value.Number:
		buf.WriteByte(constTagNumber)
		writeU64(buf, math.Float64bits(float64(x)))
	case value.String:
		buf.WriteByte(constTagString)
		writeString(buf, string(x))
	case value.Bool:
		buf.WriteByte(constTagBool)
		if x {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case value.Null:
		buf.WriteByte(constTagNull)
	default:
		return fmt.Errorf("bytecode: constant pool cannot hold a %s value", v.Kind())
	}
	return nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// reader wraps a byte slice with a cursor for sequential decoding.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("bytecode: truncated input")
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("bytecode: truncated input")
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) byte_() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("bytecode: truncated input")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("bytecode: truncated input")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) string_() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize decodes the `.atb` binary format produced by Serialize.
func Deserialize(data []byte) (*Bytecode, error) {
	r := &reader{data: data}
	magic, err := r.bytes(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != atbMagic {
		return nil, fmt.Errorf("bytecode: not an .atb file (bad magic)")
	}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != atbVersion {
		return nil, fmt.Errorf("bytecode: unsupported .atb version %d", version)
	}

	numFns, err := r.u32()
	if err != nil {
		return nil, err
	}
	fns := make([]*FunctionProto, numFns)
	for i := range fns {
		fn, err := readFunction(r)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}

	numGlobals, err := r.u32()
	if err != nil {
		return nil, err
	}
	globals := make([]string, numGlobals)
	for i := range globals {
		g, err := r.string_()
		if err != nil {
			return nil, err
		}
		globals[i] = g
	}

	entry, err := r.u32()
	if err != nil {
		return nil, err
	}

	return &Bytecode{Functions: fns, Globals: globals, Entry: int(entry)}, nil
}

func readFunction(r *reader) (*FunctionProto, error) {
	name, err := r.string_()
	if err != nil {
		return nil, err
	}
	arity, err := r.u32()
	if err != nil {
		return nil, err
	}
	numLocals, err := r.u32()
	if err != nil {
		return nil, err
	}

	codeLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	codeBytes, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	code := append([]byte(nil), codeBytes...)

	numConsts, err := r.u32()
	if err != nil {
		return nil, err
	}
	consts := make([]value.Value, numConsts)
	for i := range consts {
		c, err := readConstant(r)
		if err != nil {
			return nil, err
		}
		consts[i] = c
	}

	numSpans, err := r.u32()
	if err != nil {
		return nil, err
	}
	spans := make([]span.Span, numSpans)
	for i := range spans {
		start, err := r.u32()
		if err != nil {
			return nil, err
		}
		end, err := r.u32()
		if err != nil {
			return nil, err
		}
		spans[i] = span.New(int(start), int(end))
	}

	numUpvalues, err := r.u32()
	if err != nil {
		return nil, err
	}
	upvalues := make([]UpvalueDef, numUpvalues)
	for i := range upvalues {
		isLocal, err := r.byte_()
		if err != nil {
			return nil, err
		}
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		upvalues[i] = UpvalueDef{IsLocal: isLocal != 0, Index: int(idx)}
	}

	return &FunctionProto{
		Name: name, Arity: int(arity), NumLocals: int(numLocals),
		Code: code, Constants: consts, DebugSpans: spans, UpvalueDefs: upvalues,
	}, nil
}

func readConstant(r *reader) (value.Value, error) {
	tag, err := r.byte_()
	if err != nil {
		return nil, err
	}
	switch tag {
	case constTagNumber:
		bits, err := r.u64()
		if err != nil {
			return nil, err
		}
		return value.Number(math.Float64frombits(bits)), nil
	case constTagString:
		s, err := r.string_()
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	case constTagBool:
		b, err := r.byte_()
		if err != nil {
			return nil, err
		}
		return value.Bool(b != 0), nil
	case constTagNull:
		return value.TheNull, nil
	default:
		return nil, fmt.Errorf("bytecode: unknown constant tag %d", tag)
	}
}
