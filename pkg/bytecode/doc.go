// Package bytecode defines the instruction set of the stack machine.
//
// A Program is an ordered list of decoded Instructions. Each Instruction is
// an Opcode plus at most one operand: a numeric value for push and assert,
// or a register index for load and store. Instructions carry no behavior;
// the vm package interprets them.
//
// # Opcodes
//
// Opcodes are grouped into ranges by category, following the layout of the
// opcode table in opcodes.go:
//
//   - Stack manipulation (0x00-0x0F): noop, pop, dup, swap, clear
//   - Constants (0x10-0x1F): push
//   - Registers (0x20-0x2F): load, store
//   - Arithmetic (0x50-0x5F): add, sub, mul, div, mod
//   - Checks (0x60-0x6F): assert
//   - Output (0x70-0x7F): print, dump
//   - Termination (0xF0-0xFF): exit
//
// # Images
//
// Assembled programs can be stored as images: the magic "SVMI" followed by
// a canonical CBOR document holding the program name and its instructions.
// Value operands are stored in literal form (int8(72)) and re-parsed on
// load, so an image never bypasses operand validation.
package bytecode
