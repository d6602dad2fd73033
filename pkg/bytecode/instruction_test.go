package bytecode

import (
	"errors"
	"testing"

	"github.com/chazu/stackvm/value"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Op(OpAdd), "add"},
		{Push(value.Int8(72)), "push int8(72)"},
		{Assert(value.MustParse("double(3.5)")), "assert double(3.5)"},
		{Load(3), "load 3"},
		{Store(15), "store 15"},
		{Op(OpExit), "exit"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestInstructionEqual(t *testing.T) {
	if !Push(value.Int8(1)).Equal(Push(value.Int8(1))) {
		t.Error("identical pushes differ")
	}
	if Push(value.Int8(1)).Equal(Push(value.Int16(1))) {
		t.Error("push of different kinds compared equal")
	}
	if Load(1).Equal(Load(2)) {
		t.Error("loads of different registers compared equal")
	}
	if Op(OpAdd).Equal(Op(OpSub)) {
		t.Error("add equals sub")
	}
	// Operands of operand-less opcodes are ignored.
	if !(Instruction{Op: OpPop, Register: 4}).Equal(Op(OpPop)) {
		t.Error("stray register operand affected equality")
	}
}

func TestInstructionValidate(t *testing.T) {
	if err := Store(NumRegisters - 1).Validate(); err != nil {
		t.Errorf("Store(15).Validate() = %v", err)
	}
	if err := Store(NumRegisters).Validate(); !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("Store(16).Validate() = %v, want ErrInvalidInstruction", err)
	}
	if err := Op(Opcode(0x99)).Validate(); !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("unknown opcode Validate() = %v, want ErrInvalidInstruction", err)
	}

	p := NewProgram("bad", Op(OpNoop), Load(200))
	if err := p.Validate(); !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("Program.Validate() = %v, want ErrInvalidInstruction", err)
	}
}

func TestDisassemble(t *testing.T) {
	p := NewProgram("hello.vasm",
		Push(value.Int8(72)),
		Op(OpPrint),
		Store(2),
		Op(OpExit),
	)

	want := "; === hello.vasm ===\n" +
		"; 4 instructions\n" +
		"0000  push     int8(72)\n" +
		"0001  print\n" +
		"0002  store    2\n" +
		"0003  exit\n"
	if got := p.Disassemble(); got != want {
		t.Errorf("Disassemble() =\n%s\nwant\n%s", got, want)
	}
}
