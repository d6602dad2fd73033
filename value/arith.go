package value

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// DecimalPrecision is the number of significant digits kept by bigdecimal
// division. Addition, subtraction and multiplication are exact.
const DecimalPrecision = 34

var (
	exactContext    = apd.BaseContext.WithPrecision(0)
	quotientContext = apd.BaseContext.WithPrecision(DecimalPrecision)
)

// Op names a binary arithmetic operation.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var opNames = [...]string{"add", "sub", "mul", "div", "mod"}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op?"
}

var intRange = [...]struct{ min, max int64 }{
	KindInt8:  {math.MinInt8, math.MaxInt8},
	KindInt16: {math.MinInt16, math.MaxInt16},
	KindInt32: {math.MinInt32, math.MaxInt32},
}

// Add returns a + b.
func Add(a, b Value) (Value, error) { return Apply(OpAdd, a, b) }

// Sub returns a - b.
func Sub(a, b Value) (Value, error) { return Apply(OpSub, a, b) }

// Mul returns a * b.
func Mul(a, b Value) (Value, error) { return Apply(OpMul, a, b) }

// Div returns a / b. Integer division truncates toward zero.
func Div(a, b Value) (Value, error) { return Apply(OpDiv, a, b) }

// Mod returns the remainder of a / b, with the sign of a. Both operands
// must be integers after promotion.
func Mod(a, b Value) (Value, error) { return Apply(OpMod, a, b) }

// Apply promotes a and b to a common kind and combines them with op.
func Apply(op Op, a, b Value) (Value, error) {
	x, y, err := unify(a, b)
	if err != nil {
		return Value{}, &OpError{Op: op.String(), Left: a, Right: b, Err: err}
	}
	if (op == OpDiv || op == OpMod) && y.IsZero() {
		return Value{}, &OpError{Op: op.String(), Left: a, Right: b, Err: ErrDivisionByZero}
	}
	if op == OpMod && !y.kind.IsInteger() {
		return Value{}, &OpError{Op: op.String(), Left: a, Right: b, Err: ErrModuloOperand}
	}

	var r Value
	switch x.kind {
	case KindInt8, KindInt16, KindInt32:
		r, err = applyInt(op, x, y)
	case KindFloat32:
		r = applyFloat32(op, x, y)
	case KindFloat64:
		r = applyFloat64(op, x, y)
	case KindDecimal:
		r, err = applyDecimal(op, x, y)
	}
	if err != nil {
		return Value{}, &OpError{Op: op.String(), Left: a, Right: b, Err: err}
	}
	return r, nil
}

func applyInt(op Op, x, y Value) (Value, error) {
	a, b := int64(x.i), int64(y.i)
	var n int64
	switch op {
	case OpAdd:
		n = a + b
	case OpSub:
		n = a - b
	case OpMul:
		n = a * b
	case OpDiv:
		n = a / b
	case OpMod:
		n = a % b
	}
	bounds := intRange[x.kind]
	if n < bounds.min || n > bounds.max {
		return Value{}, ErrOverflow
	}
	return Value{kind: x.kind, i: int32(n)}, nil
}

func applyFloat32(op Op, x, y Value) Value {
	a, b := float32(x.f), float32(y.f)
	var f float32
	switch op {
	case OpAdd:
		f = a + b
	case OpSub:
		f = a - b
	case OpMul:
		f = a * b
	case OpDiv:
		f = a / b
	}
	return Value{kind: KindFloat32, f: float64(f)}
}

func applyFloat64(op Op, x, y Value) Value {
	a, b := x.f, y.f
	var f float64
	switch op {
	case OpAdd:
		f = a + b
	case OpSub:
		f = a - b
	case OpMul:
		f = a * b
	case OpDiv:
		f = a / b
	}
	return Value{kind: KindFloat64, f: f}
}

func applyDecimal(op Op, x, y Value) (Value, error) {
	d := new(apd.Decimal)
	var err error
	switch op {
	case OpAdd:
		_, err = exactContext.Add(d, x.decimal(), y.decimal())
	case OpSub:
		_, err = exactContext.Sub(d, x.decimal(), y.decimal())
	case OpMul:
		_, err = exactContext.Mul(d, x.decimal(), y.decimal())
	case OpDiv:
		_, err = quotientContext.Quo(d, x.decimal(), y.decimal())
		if err == nil {
			d.Reduce(d)
		}
	}
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrArithmetic, err)
	}
	return Value{kind: KindDecimal, d: d}, nil
}

// Equal reports whether a and b hold the same number once promoted to a
// common kind.
func Equal(a, b Value) bool {
	x, y, err := unify(a, b)
	if err != nil {
		return false
	}
	switch x.kind {
	case KindFloat32, KindFloat64:
		return x.f == y.f
	case KindDecimal:
		return x.decimal().Cmp(y.decimal()) == 0
	default:
		return x.i == y.i
	}
}

// Equal reports whether v and other hold the same number.
func (v Value) Equal(other Value) bool {
	return Equal(v, other)
}
