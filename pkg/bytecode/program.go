package bytecode

import "fmt"

// Program is an assembled instruction sequence. Name is the source it came
// from and may be empty.
type Program struct {
	Name string
	Code []Instruction
}

// NewProgram returns a program holding code.
func NewProgram(name string, code ...Instruction) Program {
	return Program{Name: name, Code: code}
}

// Len returns the number of instructions.
func (p Program) Len() int {
	return len(p.Code)
}

// Validate checks every instruction.
func (p Program) Validate() error {
	for i, in := range p.Code {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// Equal reports whether two programs hold the same instructions. Names are
// not compared.
func (p Program) Equal(other Program) bool {
	if len(p.Code) != len(other.Code) {
		return false
	}
	for i := range p.Code {
		if !p.Code[i].Equal(other.Code[i]) {
			return false
		}
	}
	return true
}
