package bytecode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chazu/stackvm/value"
)

func sampleProgram() Program {
	return NewProgram("sample.vasm",
		Push(value.Int8(5)),
		Push(value.MustParse("bigdecimal(12345678901234567890.5)")),
		Op(OpAdd),
		Store(7),
		Load(7),
		Assert(value.MustParse("double(0.25)")),
		Op(OpExit),
	)
}

func TestImageRoundTrip(t *testing.T) {
	p := sampleProgram()

	data, err := MarshalImage(p)
	if err != nil {
		t.Fatalf("MarshalImage: %v", err)
	}
	if !IsImage(data) {
		t.Fatal("marshalled image lacks magic")
	}

	got, err := UnmarshalImage(data)
	if err != nil {
		t.Fatalf("UnmarshalImage: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("Name: got %q, want %q", got.Name, p.Name)
	}
	if !got.Equal(p) {
		t.Errorf("round trip mismatch:\n%s\nwant\n%s", got.Disassemble(), p.Disassemble())
	}
}

func TestImageIsDeterministic(t *testing.T) {
	a, err := MarshalImage(sampleProgram())
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalImage(sampleProgram())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical programs encoded differently")
	}
}

func TestUnmarshalImageRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no magic", []byte("push int8(1)")},
		{"truncated", append([]byte("SVMI"), 0xA3, 0x01)},
	}

	for _, tt := range tests {
		if _, err := UnmarshalImage(tt.data); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("%s: error = %v, want ErrInvalidImage", tt.name, err)
		}
	}
}

func TestUnmarshalImageValidatesInstructions(t *testing.T) {
	encode := func(img image) []byte {
		payload, err := cborEncMode.Marshal(&img)
		if err != nil {
			t.Fatal(err)
		}
		return append(append([]byte{}, ImageMagic...), payload...)
	}

	tests := []struct {
		name string
		img  image
		want error
	}{
		{"bad opcode", image{Version: ImageVersion, Code: []wireInstr{{Op: 0xEE}}}, ErrInvalidImage},
		{"bad literal", image{Version: ImageVersion, Code: []wireInstr{{Op: uint8(OpPush), Operand: "int8(999)"}}}, ErrInvalidImage},
		{"bad register", image{Version: ImageVersion, Code: []wireInstr{{Op: uint8(OpLoad), Register: 16}}}, ErrInvalidImage},
		{"future version", image{Version: ImageVersion + 1}, ErrVersionMismatch},
	}

	for _, tt := range tests {
		if _, err := UnmarshalImage(encode(tt.img)); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestMarshalImageRejectsInvalidProgram(t *testing.T) {
	if _, err := MarshalImage(NewProgram("", Load(99))); !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("MarshalImage error = %v, want ErrInvalidInstruction", err)
	}
}
