package bytecode

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/stackvm/value"
)

// ErrInvalidInstruction is returned by Validate for malformed instructions.
var ErrInvalidInstruction = errors.New("invalid instruction")

// Instruction is a decoded opcode and its operand. Value is meaningful for
// push and assert, Register for load and store.
type Instruction struct {
	Op       Opcode
	Value    value.Value
	Register uint8
}

// Op returns an operand-less instruction.
func Op(op Opcode) Instruction {
	return Instruction{Op: op}
}

// Push returns a push instruction.
func Push(v value.Value) Instruction {
	return Instruction{Op: OpPush, Value: v}
}

// Assert returns an assert instruction.
func Assert(v value.Value) Instruction {
	return Instruction{Op: OpAssert, Value: v}
}

// Load returns a load instruction for register r.
func Load(r uint8) Instruction {
	return Instruction{Op: OpLoad, Register: r}
}

// Store returns a store instruction for register r.
func Store(r uint8) Instruction {
	return Instruction{Op: OpStore, Register: r}
}

// Operand renders the operand in assembly form, or "" if the opcode takes
// none.
func (in Instruction) Operand() string {
	switch in.Op.Operand() {
	case OperandValue:
		return in.Value.GoString()
	case OperandRegister:
		return strconv.Itoa(int(in.Register))
	default:
		return ""
	}
}

// String renders the instruction as one line of assembly.
func (in Instruction) String() string {
	if operand := in.Operand(); operand != "" {
		return in.Op.String() + " " + operand
	}
	return in.Op.String()
}

// Equal reports whether two instructions have the same opcode and operand.
// Value operands must match in kind as well as number.
func (in Instruction) Equal(other Instruction) bool {
	if in.Op != other.Op {
		return false
	}
	switch in.Op.Operand() {
	case OperandValue:
		return in.Value.Kind() == other.Value.Kind() && value.Equal(in.Value, other.Value)
	case OperandRegister:
		return in.Register == other.Register
	default:
		return true
	}
}

// Validate checks that the opcode is defined and the register operand is in
// range.
func (in Instruction) Validate() error {
	if !in.Op.IsValid() {
		return fmt.Errorf("%w: unknown opcode 0x%02X", ErrInvalidInstruction, byte(in.Op))
	}
	if in.Op.Operand() == OperandRegister && int(in.Register) >= NumRegisters {
		return fmt.Errorf("%w: %s register %d out of range [0,%d)", ErrInvalidInstruction, in.Op, in.Register, NumRegisters)
	}
	return nil
}
