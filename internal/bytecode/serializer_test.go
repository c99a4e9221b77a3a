package bytecode

import (
	"reflect"
	"testing"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
)

func sampleBytecode() *Bytecode {
	fn := NewProto("main", 0)
	idx := fn.AddConstant(value.Number(7))
	fn.NumLocals = 1
	fn.Emit1(OpConst, span.New(0, 1), idx)
	fn.Emit1(OpStoreLocal, span.New(0, 1), 0)
	fn.Emit1(OpLoadLocal, span.New(0, 1), 0)
	fn.Emit0(OpReturn, span.New(0, 1))
	return &Bytecode{Functions: []*FunctionProto{fn}, Globals: nil, Entry: 0}
}

func TestSerializeRoundTrip(t *testing.T) {
	bc := sampleBytecode()
	data, err := Serialize(bc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(bc.Functions[0].Code, got.Functions[0].Code) {
		t.Fatalf("code mismatch: %v vs %v", bc.Functions[0].Code, got.Functions[0].Code)
	}
	if got.Functions[0].Constants[0].(value.Number) != value.Number(7) {
		t.Fatalf("constant mismatch: %v", got.Functions[0].Constants[0])
	}
	if got.Entry != 0 {
		t.Fatalf("entry mismatch: %d", got.Entry)
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	bc := sampleBytecode()
	if err := Validate(bc); err != nil {
		t.Fatalf("Validate rejected well-formed bytecode: %v", err)
	}
}

func TestValidateRejectsBadJumpTarget(t *testing.T) {
	fn := NewProto("main", 0)
	fn.Emit1(OpJump, span.New(0, 1), 999)
	bc := &Bytecode{Functions: []*FunctionProto{fn}, Entry: 0}
	if err := Validate(bc); err == nil {
		t.Fatal("expected Validate to reject an out-of-range jump target")
	}
}

func TestValidateRejectsStackUnderflow(t *testing.T) {
	fn := NewProto("main", 0)
	fn.Emit0(OpPop, span.New(0, 1))
	bc := &Bytecode{Functions: []*FunctionProto{fn}, Entry: 0}
	if err := Validate(bc); err == nil {
		t.Fatal("expected Validate to reject a leading Pop with nothing pushed")
	}
}

func TestValidateRejectsUnknownOpcode(t *testing.T) {
	fn := NewProto("main", 0)
	fn.Code = []byte{0xFF}
	fn.DebugSpans = []span.Span{span.New(0, 1)}
	bc := &Bytecode{Functions: []*FunctionProto{fn}, Entry: 0}
	if err := Validate(bc); err == nil {
		t.Fatal("expected Validate to reject an unrecognized opcode byte")
	}
}
