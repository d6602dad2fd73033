package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/value"
)

var (
	// ErrStackUnderflow means an instruction needed more operands than the
	// stack held.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrUninitializedRegister is returned by load on a register never stored to.
	ErrUninitializedRegister = errors.New("uninitialized register")
	// ErrAssertionFailed means the top of the stack did not equal the operand.
	ErrAssertionFailed = errors.New("assertion failed")
	// ErrType covers operands of the wrong kind, such as print on a non-int8.
	ErrType = errors.New("type error")
	// ErrUnknownProcess is returned for a pid not in the process table.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrProtocol means the program or caller broke an execution rule.
	ErrProtocol = errors.New("protocol error")

	// ErrArithmetic is value.ErrArithmetic, re-exported so callers can
	// classify every runtime failure against this package alone.
	ErrArithmetic = value.ErrArithmetic
)

// Protocol violations, each wrapping ErrProtocol.
var (
	ErrZeroBudget    = fmt.Errorf("%w: step budget must be positive", ErrProtocol)
	ErrNoExit        = fmt.Errorf("%w: reached end of program without exiting", ErrProtocol)
	ErrProcessFailed = fmt.Errorf("%w: process already failed", ErrProtocol)
	ErrMalformed     = fmt.Errorf("%w: malformed instruction", ErrProtocol)
)

// ExecutionError is returned by Process.Run. It records where the process
// stopped and, when the failure came from an instruction, which one.
type ExecutionError struct {
	PID         int
	IP          int
	Instruction *bytecode.Instruction
	Err         error
}

func (e *ExecutionError) Error() string {
	if e.Instruction != nil {
		return fmt.Sprintf("process %d: ip %d (%s): %v", e.PID, e.IP, e.Instruction, e.Err)
	}
	return fmt.Sprintf("process %d: ip %d: %v", e.PID, e.IP, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
