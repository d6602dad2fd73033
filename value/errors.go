package value

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by every literal parse failure.
	ErrSyntax = errors.New("syntax error")
	// ErrArithmetic is wrapped by every failed arithmetic operation.
	ErrArithmetic = errors.New("arithmetic error")
)

// Arithmetic failures, each wrapping ErrArithmetic.
var (
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)
	ErrModuloOperand  = fmt.Errorf("%w: modulo requires an integer divisor", ErrArithmetic)
	ErrOverflow       = fmt.Errorf("%w: integer overflow", ErrArithmetic)
)

// OpError describes a failed binary operation.
type OpError struct {
	Op    string
	Left  Value
	Right Value
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Left.GoString(), e.Right.GoString(), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
