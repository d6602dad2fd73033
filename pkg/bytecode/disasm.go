package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p Program) Disassemble() string {
	var sb strings.Builder

	if p.Name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", p.Name))
	}
	sb.WriteString(fmt.Sprintf("; %d instructions\n", len(p.Code)))

	for offset, in := range p.Code {
		sb.WriteString(DisassembleInstruction(offset, in))
		sb.WriteString("\n")
	}

	return sb.String()
}

// DisassembleInstruction formats a single instruction at the given offset.
func DisassembleInstruction(offset int, in Instruction) string {
	if operand := in.Operand(); operand != "" {
		return fmt.Sprintf("%04d  %-8s %s", offset, in.Op, operand)
	}
	return fmt.Sprintf("%04d  %s", offset, in.Op)
}
