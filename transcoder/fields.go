package transcoder

import (
	"fmt"

	"github.com/wippyai/mci-runtime/errors"
)

// FieldKind says how one parameter block field changes between conventions.
type FieldKind uint8

const (
	// FieldCopy is Length bytes copied verbatim.
	FieldCopy FieldKind = iota
	// FieldSigned is a 4-byte flat integer stored as a 2-byte signed legacy one.
	FieldSigned
	// FieldUnsigned is a 4-byte flat integer stored as a 2-byte unsigned legacy one.
	FieldUnsigned
	// FieldZero is a 4-byte field written as zero on the other side.
	FieldZero
	// FieldString is a pointer to a NUL-terminated string, re-homed into the
	// destination address space.
	FieldString
)

var fieldKindNames = [...]string{
	FieldCopy:     "copy",
	FieldSigned:   "signed",
	FieldUnsigned: "unsigned",
	FieldZero:     "zero",
	FieldString:   "string",
}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return fmt.Sprintf("field(%d)", k)
}

// Field is one decoded transform step.
type Field struct {
	Kind FieldKind
	// Length is the byte count of a FieldCopy; unused otherwise.
	Length uint32
}

// Width returns the field's size in the flat or legacy layout.
func (f Field) Width(legacy bool) uint32 {
	switch f.Kind {
	case FieldCopy:
		return f.Length
	case FieldSigned, FieldUnsigned:
		if legacy {
			return 2
		}
		return 4
	}
	return 4
}

// Program is a transform decoded from its packed bytecode.
type Program struct {
	Fields []Field
	// Code is the packed form the program was decoded from; zero for a
	// verbatim copy.
	Code uint32
}

func (Program) mapping() {}

// Size returns the total block size in the flat or legacy layout.
func (p Program) Size(legacy bool) uint32 {
	var n uint32
	for _, f := range p.Fields {
		n += f.Width(legacy)
	}
	return n
}

// Decode unpacks bytecode into fields. Nibbles are read least significant
// first and a zero nibble ends the program:
//
//	0x1      signed 4 -> 2
//	0x2      unsigned 4 -> 2
//	0x6      4 bytes, zeroed
//	0x7      string pointer
//	0x8-0xF  copy (n&7)+1 bytes
//
// Bytecode 0 is a verbatim copy of legacySize bytes.
func Decode(code, legacySize uint32) (Program, error) {
	if code == 0 {
		return Program{Fields: []Field{{Kind: FieldCopy, Length: legacySize}}}, nil
	}
	p := Program{Code: code}
	for c := code; c != 0; c >>= 4 {
		n := c & 0xF
		var f Field
		switch {
		case n == 0:
			// A zero nibble ends the program even if higher nibbles follow.
			return p, nil
		case n == 0x1:
			f = Field{Kind: FieldSigned}
		case n == 0x2:
			f = Field{Kind: FieldUnsigned}
		case n == 0x6:
			f = Field{Kind: FieldZero}
		case n == 0x7:
			f = Field{Kind: FieldString}
		case n >= 0x8:
			f = Field{Kind: FieldCopy, Length: n&7 + 1}
		default:
			return Program{}, errors.New(errors.PhaseMarshal, errors.KindInternal).
				Value(code).
				Detail("bytecode %#x has unknown op %#x", code, n).
				Build()
		}
		p.Fields = append(p.Fields, f)
	}
	return p, nil
}

// MustDecode is Decode for static tables. It panics on bad bytecode.
func MustDecode(code, legacySize uint32) Program {
	p, err := Decode(code, legacySize)
	if err != nil {
		panic(err)
	}
	return p
}
