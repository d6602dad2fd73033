// Package asm assembles text source into bytecode programs.
//
// One instruction per line. A ';' starts a comment that runs to the end of
// the line, tabs count as spaces, and blank lines are skipped. The first
// word is the opcode mnemonic; whatever follows is its operand:
//
//	push int8(72)   ; value literal
//	print
//	store 3         ; register index, also accepted as int8(3)
//	exit
//
// Any malformed line rejects the whole program.
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/value"
)

// SyntaxError reports a line that could not be assembled. It wraps
// value.ErrSyntax.
type SyntaxError struct {
	Line int    // 1-based source line
	Text string // the line as written
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse assembles src and stops at the first bad line.
func Parse(name string, src []byte) (bytecode.Program, error) {
	prog, errs := ParseAll(name, src)
	if len(errs) > 0 {
		return bytecode.Program{}, errs[0]
	}
	return prog, nil
}

// ParseAll assembles src and collects every bad line. The returned program
// only holds the lines that assembled and must not be run when errs is
// non-empty.
func ParseAll(name string, src []byte) (bytecode.Program, []*SyntaxError) {
	prog := bytecode.Program{Name: name}
	var errs []*SyntaxError

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		in, ok, err := ParseLine(text)
		if err != nil {
			errs = append(errs, &SyntaxError{Line: line, Text: text, Err: err})
			continue
		}
		if ok {
			prog.Code = append(prog.Code, in)
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, &SyntaxError{Line: line + 1, Err: fmt.Errorf("%w: %v", value.ErrSyntax, err)})
	}
	return prog, errs
}

// StripComment removes a trailing ';' comment and surrounding whitespace,
// and turns tabs into spaces.
func StripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(strings.ReplaceAll(line, "\t", " "))
}

// ParseLine assembles a single line. ok is false for blank and
// comment-only lines.
func ParseLine(line string) (in bytecode.Instruction, ok bool, err error) {
	text := StripComment(line)
	if text == "" {
		return bytecode.Instruction{}, false, nil
	}

	mnemonic, operand := text, ""
	if i := strings.IndexByte(text, ' '); i >= 0 {
		mnemonic, operand = text[:i], strings.TrimSpace(text[i+1:])
	}

	op, found := bytecode.LookupOpcode(mnemonic)
	if !found {
		return bytecode.Instruction{}, false, fmt.Errorf("%w: unknown opcode %q", value.ErrSyntax, mnemonic)
	}

	switch op.Operand() {
	case bytecode.OperandNone:
		if operand != "" {
			return bytecode.Instruction{}, false, fmt.Errorf("%w: %s takes no operand, got %q", value.ErrSyntax, op, operand)
		}
		return bytecode.Op(op), true, nil

	case bytecode.OperandValue:
		if operand == "" {
			return bytecode.Instruction{}, false, fmt.Errorf("%w: %s needs a value", value.ErrSyntax, op)
		}
		v, err := value.Parse(operand)
		if err != nil {
			return bytecode.Instruction{}, false, err
		}
		return bytecode.Instruction{Op: op, Value: v}, true, nil

	case bytecode.OperandRegister:
		if operand == "" {
			return bytecode.Instruction{}, false, fmt.Errorf("%w: %s needs a register", value.ErrSyntax, op)
		}
		r, err := parseRegister(operand)
		if err != nil {
			return bytecode.Instruction{}, false, err
		}
		return bytecode.Instruction{Op: op, Register: r}, true, nil
	}
	return bytecode.Instruction{}, false, fmt.Errorf("%w: unsupported opcode %s", value.ErrSyntax, op)
}

// parseRegister accepts a bare index or an integer literal such as int8(3).
func parseRegister(operand string) (uint8, error) {
	var n int64
	if i, err := strconv.Atoi(operand); err == nil {
		n = int64(i)
	} else {
		v, perr := value.Parse(operand)
		if perr != nil {
			return 0, perr
		}
		iv, ok := v.Int()
		if !ok {
			return 0, fmt.Errorf("%w: register must be an integer, got %s", value.ErrSyntax, v.GoString())
		}
		n = iv
	}
	if n < 0 || n >= bytecode.NumRegisters {
		return 0, fmt.Errorf("%w: register %d out of range [0,%d)", value.ErrSyntax, n, bytecode.NumRegisters)
	}
	return uint8(n), nil
}
