package value

import (
	"errors"
	"testing"
)

func samples() []Value {
	return []Value{
		Int8(3),
		Int16(300),
		Int32(70000),
		Float32(1.5),
		Float64(2.25),
		MustParse("bigdecimal(10.125)"),
	}
}

func zeros() []Value {
	return []Value{
		Int8(0),
		Int16(0),
		Int32(0),
		Float32(0),
		Float64(0),
		MustParse("bigdecimal(0.00)"),
	}
}

func TestAddIsCommutativeAcrossKinds(t *testing.T) {
	for _, a := range samples() {
		for _, b := range samples() {
			ab, err := Add(a, b)
			if err != nil {
				t.Fatalf("Add(%s, %s) failed: %v", a.GoString(), b.GoString(), err)
			}
			ba, err := Add(b, a)
			if err != nil {
				t.Fatalf("Add(%s, %s) failed: %v", b.GoString(), a.GoString(), err)
			}
			if !Equal(ab, ba) || ab.Kind() != ba.Kind() {
				t.Errorf("Add(%s, %s) = %s but reversed = %s",
					a.GoString(), b.GoString(), ab.GoString(), ba.GoString())
			}

			want := a.Kind()
			if b.Kind() > want {
				want = b.Kind()
			}
			if ab.Kind() != want {
				t.Errorf("Add(%s, %s) kind = %s, want %s", a.GoString(), b.GoString(), ab.Kind(), want)
			}
		}
	}
}

func TestMulIsCommutative(t *testing.T) {
	a, b := Int8(6), MustParse("double(0.5)")
	ab, _ := Mul(a, b)
	ba, _ := Mul(b, a)
	if !Equal(ab, ba) || ab.String() != "3" {
		t.Errorf("Mul = %s / %s, want 3", ab.GoString(), ba.GoString())
	}
}

func TestSubDivModAreOrdered(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b Value) (Value, error)
		a, b Value
		want string
	}{
		{"sub", Sub, Int8(5), Int8(3), "int8(2)"},
		{"sub reversed", Sub, Int8(3), Int8(5), "int8(-2)"},
		{"div", Div, Int32(7), Int32(2), "int32(3)"},
		{"div reversed", Div, Int32(2), Int32(7), "int32(0)"},
		{"div truncates", Div, Int16(-7), Int8(2), "int16(-3)"},
		{"mod", Mod, Int8(7), Int8(3), "int8(1)"},
		{"mod sign", Mod, Int16(-7), Int8(3), "int16(-1)"},
		{"mod reversed", Mod, Int8(3), Int8(7), "int8(3)"},
		{"float div", Div, Float64(1), Int8(4), "double(0.25)"},
		{"float32 div", Div, Float32(3), Float32(2), "float(1.5)"},
		{"decimal div", Div, MustParse("bigdecimal(10)"), Int8(4), "bigdecimal(2.5)"},
		{"decimal exact div", Div, MustParse("bigdecimal(6.0)"), MustParse("bigdecimal(3)"), "bigdecimal(2)"},
		{"decimal sub", Sub, Int8(1), MustParse("bigdecimal(0.1)"), "bigdecimal(0.9)"},
	}

	for _, tt := range tests {
		got, err := tt.fn(tt.a, tt.b)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got.GoString() != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got.GoString(), tt.want)
		}
	}
}

func TestDecimalDivisionRounds(t *testing.T) {
	got, err := Div(MustParse("bigdecimal(1)"), MustParse("bigdecimal(3)"))
	if err != nil {
		t.Fatalf("Div failed: %v", err)
	}
	want := "0.3333333333333333333333333333333333"
	if got.String() != want {
		t.Errorf("1/3 = %s, want %s", got.String(), want)
	}
}

func TestDivModByZeroAlwaysFails(t *testing.T) {
	for _, a := range samples() {
		for _, z := range zeros() {
			for name, fn := range map[string]func(a, b Value) (Value, error){"div": Div, "mod": Mod} {
				_, err := fn(a, z)
				if !errors.Is(err, ErrArithmetic) {
					t.Errorf("%s(%s, %s) error = %v, want ErrArithmetic", name, a.GoString(), z.GoString(), err)
				}
				if !errors.Is(err, ErrDivisionByZero) {
					t.Errorf("%s(%s, %s) error = %v, want ErrDivisionByZero", name, a.GoString(), z.GoString(), err)
				}
			}
		}
	}
}

func TestModRejectsNonIntegerDivisor(t *testing.T) {
	tests := []struct{ a, b Value }{
		{Int8(7), Float64(2)},
		{Float64(7), Int8(2)},
		{Int32(7), Float32(2)},
		{MustParse("bigdecimal(7)"), Int8(2)},
		{Int8(7), MustParse("bigdecimal(2)")},
	}

	for _, tt := range tests {
		_, err := Mod(tt.a, tt.b)
		if !errors.Is(err, ErrModuloOperand) {
			t.Errorf("Mod(%s, %s) error = %v, want ErrModuloOperand", tt.a.GoString(), tt.b.GoString(), err)
		}
	}
}

func TestIntegerOverflow(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b Value) (Value, error)
		a, b Value
	}{
		{"add int8", Add, Int8(127), Int8(1)},
		{"sub int16", Sub, Int16(-32768), Int8(1)},
		{"mul int32", Mul, Int32(1 << 30), Int8(4)},
		{"div int8", Div, Int8(-128), Int8(-1)},
	}

	for _, tt := range tests {
		_, err := tt.fn(tt.a, tt.b)
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("%s: error = %v, want ErrOverflow", tt.name, err)
		}
	}

	widened, err := Add(Int8(127), Int16(1))
	if err != nil || widened.GoString() != "int16(128)" {
		t.Errorf("Add(int8(127), int16(1)) = %s, %v", widened.GoString(), err)
	}
}

func TestOpErrorMessage(t *testing.T) {
	_, err := Div(Int8(5), Int8(0))
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error %v is not an *OpError", err)
	}
	want := "div int8(5) int8(0): arithmetic error: division by zero"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestEqualPromotes(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Int8(5), Float64(5), true},
		{Int8(5), MustParse("bigdecimal(5.00)"), true},
		{Int16(5), Int32(6), false},
		{Float32(0.1), Float64(0.1), false},
		{Float32(0.5), MustParse("bigdecimal(0.5)"), true},
		{MustParse("bigdecimal(1.10)"), MustParse("bigdecimal(1.1)"), true},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.GoString(), tt.b.GoString(), got, tt.want)
		}
		if got := tt.b.Equal(tt.a); got != tt.want {
			t.Errorf("%s.Equal(%s) = %v, want %v", tt.b.GoString(), tt.a.GoString(), got, tt.want)
		}
	}
}

func TestOperandsAreNotMutated(t *testing.T) {
	a := Int8(5)
	b := MustParse("bigdecimal(2.5)")
	Equal(a, b)
	if _, err := Add(a, b); err != nil {
		t.Fatal(err)
	}
	if a.Kind() != KindInt8 || a.String() != "5" {
		t.Errorf("left operand changed to %s", a.GoString())
	}
	if b.Kind() != KindDecimal || b.String() != "2.5" {
		t.Errorf("right operand changed to %s", b.GoString())
	}
}
