// Package value implements the numeric values manipulated by the stack
// machine.
//
// A Value is a tagged union over six kinds ordered by rank:
//
//	int8 < int16 < int32 < float < double < bigdecimal
//
// Binary operations first promote the lower-ranked operand to the kind of
// the higher-ranked one, so the result always carries the wider kind.
// Nothing is ever narrowed implicitly. Promotion into bigdecimal is exact:
// binary floats are expanded to the decimal value they actually hold.
//
// Values are immutable. Operations allocate fresh decimals instead of
// writing into their inputs, which lets the machine share a Value between
// stack slots and registers without copying.
package value

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// Kind is the tag of a Value. Kinds are declared in rank order.
type Kind uint8

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindFloat32
	KindFloat64
	KindDecimal
)

var kindNames = [...]string{
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindFloat32: "float",
	KindFloat64: "double",
	KindDecimal: "bigdecimal",
}

// String returns the literal type name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsInteger reports whether the kind is one of the fixed-width integers.
func (k Kind) IsInteger() bool {
	return k <= KindInt32
}

// LookupKind returns the kind for a literal type name.
func LookupKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every kind in rank order.
func Kinds() []Kind {
	return []Kind{KindInt8, KindInt16, KindInt32, KindFloat32, KindFloat64, KindDecimal}
}

// Value is a single numeric value.
//
// Integer kinds live in i, float kinds in f (float values are stored
// widened to float64, which is exact), and decimals in d. The zero Value
// is int8(0).
type Value struct {
	kind Kind
	i    int32
	f    float64
	d    *apd.Decimal
}

// Int8 returns an int8 value.
func Int8(v int8) Value { return Value{kind: KindInt8, i: int32(v)} }

// Int16 returns an int16 value.
func Int16(v int16) Value { return Value{kind: KindInt16, i: int32(v)} }

// Int32 returns an int32 value.
func Int32(v int32) Value { return Value{kind: KindInt32, i: v} }

// Float32 returns a float value.
func Float32(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }

// Float64 returns a double value.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// Decimal returns a bigdecimal value holding a copy of d.
func Decimal(d *apd.Decimal) Value {
	return Value{kind: KindDecimal, d: new(apd.Decimal).Set(d)}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer held by an integer-kinded value.
func (v Value) Int() (int64, bool) {
	if !v.kind.IsInteger() {
		return 0, false
	}
	return int64(v.i), true
}

// Float returns the float held by a float or double value.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat32 && v.kind != KindFloat64 {
		return 0, false
	}
	return v.f, true
}

// Dec returns a copy of the decimal held by a bigdecimal value.
func (v Value) Dec() (*apd.Decimal, bool) {
	if v.kind != KindDecimal {
		return nil, false
	}
	return new(apd.Decimal).Set(v.decimal()), true
}

// IsZero reports whether v holds a zero of any kind.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindFloat32, KindFloat64:
		return v.f == 0
	case KindDecimal:
		return v.decimal().IsZero()
	default:
		return v.i == 0
	}
}

func (v Value) decimal() *apd.Decimal {
	if v.d == nil {
		return new(apd.Decimal)
	}
	return v.d
}

// Promote widens v to kind. Asking for a lower-ranked kind is an error:
// values are never narrowed.
func Promote(v Value, kind Kind) (Value, error) {
	if kind < v.kind {
		return Value{}, fmt.Errorf("value: cannot narrow %s to %s", v.GoString(), kind)
	}
	if kind == v.kind {
		return v, nil
	}
	switch kind {
	case KindInt16, KindInt32:
		return Value{kind: kind, i: v.i}, nil
	case KindFloat32:
		return Value{kind: kind, f: float64(float32(v.i))}, nil
	case KindFloat64:
		if v.kind.IsInteger() {
			return Value{kind: kind, f: float64(v.i)}, nil
		}
		return Value{kind: kind, f: v.f}, nil
	case KindDecimal:
		if v.kind.IsInteger() {
			return Value{kind: kind, d: apd.New(int64(v.i), 0)}, nil
		}
		d, err := exactDecimal(v.f)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: kind, d: d}, nil
	}
	return Value{}, fmt.Errorf("value: unknown kind %s", kind)
}

// unify promotes a and b to the higher of their two kinds.
func unify(a, b Value) (Value, Value, error) {
	kind := a.kind
	if b.kind > kind {
		kind = b.kind
	}
	pa, err := Promote(a, kind)
	if err != nil {
		return Value{}, Value{}, err
	}
	pb, err := Promote(b, kind)
	if err != nil {
		return Value{}, Value{}, err
	}
	return pa, pb, nil
}

// exactDecimal expands a binary float into the decimal it denotes. A float
// with a binary exponent of -k has at most k fractional decimal digits, so
// formatting with that many digits never rounds.
func exactDecimal(f float64) (*apd.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v has no decimal representation", ErrArithmetic, f)
	}
	_, exp := math.Frexp(f)
	digits := 0
	if frac := 53 - exp; frac > 0 {
		digits = frac
	}
	d, _, err := apd.NewFromString(new(big.Float).SetFloat64(f).Text('f', digits))
	if err != nil {
		return nil, fmt.Errorf("value: expanding %v: %w", f, err)
	}
	d.Reduce(d)
	return d, nil
}
