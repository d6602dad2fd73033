package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNoop  Opcode = 0x00 // No operation
	OpPop   Opcode = 0x01 // Pop top of stack
	OpDup   Opcode = 0x02 // Duplicate top of stack
	OpSwap  Opcode = 0x03 // Swap top two stack elements
	OpClear Opcode = 0x04 // Remove every stack element

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpPush Opcode = 0x10 // Push operand value

	// ========================================================================
	// Registers (0x20-0x2F)
	// ========================================================================

	OpLoad  Opcode = 0x20 // Push copy of register: load <reg>
	OpStore Opcode = 0x21 // Pop into register: store <reg>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd Opcode = 0x50 // Pop two, push sum
	OpSub Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x52 // Pop two, push product
	OpDiv Opcode = 0x53 // Pop two, push quotient (a / b where b is TOS)
	OpMod Opcode = 0x54 // Pop two, push remainder (a % b where b is TOS)

	// ========================================================================
	// Checks (0x60-0x6F)
	// ========================================================================

	OpAssert Opcode = 0x60 // Compare TOS with operand, fail if different

	// ========================================================================
	// Output (0x70-0x7F)
	// ========================================================================

	OpPrint Opcode = 0x70 // Print TOS as a character
	OpDump  Opcode = 0x71 // Print every stack element, top first

	// ========================================================================
	// Termination (0xF0-0xFF)
	// ========================================================================

	OpExit Opcode = 0xF0 // Stop the process
)

// OperandKind describes what, if anything, follows an opcode.
type OperandKind uint8

const (
	OperandNone     OperandKind = iota // No operand
	OperandValue                       // Numeric literal, e.g. int8(72)
	OperandRegister                    // Register index in [0, NumRegisters)
)

func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandValue:
		return "value"
	case OperandRegister:
		return "register"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// NumRegisters is the size of each process's register bank.
const NumRegisters = 16

// OpcodeInfo provides metadata about each opcode for diagnostics, the
// assembler and editor tooling.
type OpcodeInfo struct {
	Name      string      // Assembly mnemonic
	Operand   OperandKind // Operand carried by the instruction
	StackPop  int         // How many values popped from stack (-1 = all)
	StackPush int         // How many values pushed to stack
	Doc       string      // One-line description
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNoop:  {"noop", OperandNone, 0, 0, "Does nothing."},
	OpPop:   {"pop", OperandNone, 1, 0, "Removes the top of the stack."},
	OpDup:   {"dup", OperandNone, 1, 2, "Pushes a second copy of the top of the stack."},
	OpSwap:  {"swap", OperandNone, 2, 2, "Exchanges the top two stack values."},
	OpClear: {"clear", OperandNone, -1, 0, "Removes every value from the stack."},

	// Constants
	OpPush: {"push", OperandValue, 0, 1, "Pushes the operand value."},

	// Registers
	OpLoad:  {"load", OperandRegister, 0, 1, "Pushes a copy of the register. Fails if the register was never stored."},
	OpStore: {"store", OperandRegister, 1, 0, "Pops the top of the stack into the register."},

	// Arithmetic
	OpAdd: {"add", OperandNone, 2, 1, "Pops two values and pushes their sum."},
	OpSub: {"sub", OperandNone, 2, 1, "Pops b then a and pushes a - b."},
	OpMul: {"mul", OperandNone, 2, 1, "Pops two values and pushes their product."},
	OpDiv: {"div", OperandNone, 2, 1, "Pops b then a and pushes a / b. Fails on a zero divisor."},
	OpMod: {"mod", OperandNone, 2, 1, "Pops b then a and pushes a % b. Both must be integers and b non-zero."},

	// Checks
	OpAssert: {"assert", OperandValue, 0, 0, "Fails unless the top of the stack equals the operand."},

	// Output
	OpPrint: {"print", OperandNone, 0, 0, "Prints the top of the stack, an int8 character code."},
	OpDump:  {"dump", OperandNone, 0, 0, "Prints every stack value, top first."},

	// Termination
	OpExit: {"exit", OperandNone, 0, 0, "Terminates the process successfully."},
}

// opcodeByName is the reverse of opcodeInfoTable, keyed by mnemonic.
var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// LookupOpcode returns the opcode for a mnemonic. Matching is
// case-insensitive.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[strings.ToLower(name)]
	return op, ok
}

// IsValid reports whether op is a defined opcode.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Operand returns the kind of operand the opcode takes.
func (op Opcode) Operand() OperandKind {
	return GetOpcodeInfo(op).Operand
}

// AllOpcodes returns every defined opcode in numeric order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	sort.Slice(opcodes, func(i, j int) bool { return opcodes[i] < opcodes[j] })
	return opcodes
}
