package value

import (
	"strconv"
)

// String renders the bare numeric value, as printed by the machine.
// Floats never use exponent notation and decimals are written in plain
// notation.
func (v Value) String() string {
	switch v.kind {
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'f', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDecimal:
		return v.decimal().Text('f')
	default:
		return strconv.FormatInt(int64(v.i), 10)
	}
}

// GoString renders v in literal form, e.g. int8(72). Parse accepts the
// result for every finite value. A float or double that overflowed to an
// infinity renders as float(+Inf) or double(-Inf), which Parse rejects.
func (v Value) GoString() string {
	return v.kind.String() + "(" + v.String() + ")"
}
