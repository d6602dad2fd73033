package bytecode

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/stackvm/value"
)

// ImageVersion is the current image format version.
// Increment when making incompatible changes to the format.
const ImageVersion uint16 = 1

// ImageMagic prefixes every image: "SVMI" (Stack VM Image).
var ImageMagic = []byte{'S', 'V', 'M', 'I'}

var (
	ErrInvalidImage    = errors.New("invalid image")
	ErrVersionMismatch = errors.New("image version mismatch")
)

type image struct {
	Version uint16      `cbor:"1,keyasint"`
	Name    string      `cbor:"2,keyasint"`
	Code    []wireInstr `cbor:"3,keyasint"`
}

type wireInstr struct {
	_        struct{} `cbor:",toarray"`
	Op       uint8
	Operand  string
	Register uint8
}

// cborEncMode uses canonical options so identical programs encode to
// identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// IsImage reports whether data starts with the image magic.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, ImageMagic)
}

// MarshalImage serializes a program to image bytes.
func MarshalImage(p Program) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	img := image{
		Version: ImageVersion,
		Name:    p.Name,
		Code:    make([]wireInstr, len(p.Code)),
	}
	for i, in := range p.Code {
		w := wireInstr{Op: uint8(in.Op)}
		switch in.Op.Operand() {
		case OperandValue:
			w.Operand = in.Value.GoString()
		case OperandRegister:
			w.Register = in.Register
		}
		img.Code[i] = w
	}

	payload, err := cborEncMode.Marshal(&img)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal image: %w", err)
	}
	out := make([]byte, 0, len(ImageMagic)+len(payload))
	out = append(out, ImageMagic...)
	return append(out, payload...), nil
}

// UnmarshalImage deserializes and validates an image.
func UnmarshalImage(data []byte) (Program, error) {
	if !IsImage(data) {
		return Program{}, fmt.Errorf("%w: missing SVMI magic", ErrInvalidImage)
	}
	var img image
	if err := cbor.Unmarshal(data[len(ImageMagic):], &img); err != nil {
		return Program{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Version != ImageVersion {
		return Program{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, img.Version, ImageVersion)
	}

	p := Program{Name: img.Name, Code: make([]Instruction, len(img.Code))}
	for i, w := range img.Code {
		in := Instruction{Op: Opcode(w.Op)}
		if !in.Op.IsValid() {
			return Program{}, fmt.Errorf("%w: instruction %d: unknown opcode 0x%02X", ErrInvalidImage, i, w.Op)
		}
		switch in.Op.Operand() {
		case OperandValue:
			v, err := value.Parse(w.Operand)
			if err != nil {
				return Program{}, fmt.Errorf("%w: instruction %d: %v", ErrInvalidImage, i, err)
			}
			in.Value = v
		case OperandRegister:
			in.Register = w.Register
		}
		if err := in.Validate(); err != nil {
			return Program{}, fmt.Errorf("%w: instruction %d: %v", ErrInvalidImage, i, err)
		}
		p.Code[i] = in
	}
	return p, nil
}
