package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Parse reads a value literal of the form typename(literal). Whitespace is
// allowed around the type name and the literal.
func Parse(text string) (Value, error) {
	s := strings.TrimSpace(text)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Value{}, syntaxError(text, "expected typename(literal)")
	}
	name := strings.TrimSpace(s[:open])
	lit := strings.TrimSpace(s[open+1 : len(s)-1])

	kind, ok := LookupKind(name)
	if !ok {
		return Value{}, syntaxError(text, fmt.Sprintf("unknown type %q", name))
	}
	if lit == "" {
		return Value{}, syntaxError(text, "empty literal")
	}
	if strings.ContainsAny(lit, "()") {
		return Value{}, syntaxError(text, "unbalanced parentheses")
	}

	switch kind {
	case KindInt8, KindInt16, KindInt32:
		bits := 8 << uint(kind)
		n, err := strconv.ParseInt(lit, 10, bits)
		if err != nil {
			return Value{}, syntaxError(text, numError(err, kind))
		}
		return Value{kind: kind, i: int32(n)}, nil

	case KindFloat32, KindFloat64:
		bits := 32
		if kind == KindFloat64 {
			bits = 64
		}
		if strings.ContainsAny(lit, "xX") {
			return Value{}, syntaxError(text, "malformed "+kind.String()+" literal")
		}
		f, err := strconv.ParseFloat(lit, bits)
		if err != nil {
			return Value{}, syntaxError(text, numError(err, kind))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, syntaxError(text, "non-finite literal")
		}
		if f == 0 && nonZeroMantissa(lit) {
			return Value{}, syntaxError(text, "literal out of range for "+kind.String())
		}
		return Value{kind: kind, f: f}, nil

	case KindDecimal:
		d, _, err := apd.NewFromString(lit)
		if err != nil {
			return Value{}, syntaxError(text, "malformed decimal")
		}
		if d.Form != apd.Finite {
			return Value{}, syntaxError(text, "non-finite literal")
		}
		return Value{kind: kind, d: d}, nil
	}
	return Value{}, syntaxError(text, "unsupported type")
}

// MustParse is like Parse but panics on error. It is meant for tests and
// static tables.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func syntaxError(text, reason string) error {
	return fmt.Errorf("%w: %s in %q", ErrSyntax, reason, text)
}

// nonZeroMantissa reports whether a float literal has a non-zero digit
// before its exponent, so a zero result means it underflowed.
func nonZeroMantissa(lit string) bool {
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		lit = lit[:i]
	}
	return strings.ContainsAny(lit, "123456789")
}

func numError(err error, kind Kind) string {
	if errors.Is(err, strconv.ErrRange) {
		return "literal out of range for " + kind.String()
	}
	return "malformed " + kind.String() + " literal"
}
