package datatype

import (
	"strconv"
	"strings"

	"github.com/kestrelfits/gofits/internal/ferr"
)

// Code is a FITS binary-table data-type code, the letter of a TFORM
// descriptor.
type Code byte

const (
	Logical    Code = 'L' // ASCII T/F
	Bit        Code = 'X' // packed, 8 bits per byte
	Byte       Code = 'B'
	Int16      Code = 'I'
	Int32      Code = 'J'
	Int64      Code = 'K'
	Char       Code = 'A'
	Float32    Code = 'E'
	Float64    Code = 'D'
	Complex64  Code = 'C'
	Complex128 Code = 'M'
)

// elementBytes maps each supported code to its wire width per element. Bit
// columns are the exception: Repeat counts bits, packed 8 per byte.
var elementBytes = map[Code]int{
	Logical:    1,
	Bit:        1,
	Byte:       1,
	Int16:      2,
	Int32:      4,
	Int64:      8,
	Char:       1,
	Float32:    4,
	Float64:    8,
	Complex64:  8,
	Complex128: 16,
}

// Descriptor is a parsed TFORM value: a repeat count and a type code.
type Descriptor struct {
	Repeat int
	Code   Code
}

// ParseTForm parses a TFORM descriptor of the form [repeat]code. Repeat
// defaults to 1. Codes are case-insensitive. The variable-length array
// codes P and Q are rejected as unsupported; any trailing characters after
// the code letter (legal per the standard) are ignored.
func ParseTForm(s string) (Descriptor, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return Descriptor{}, ferr.New(ferr.InvalidValue, 0, "empty TFORM descriptor")
	}

	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	repeat := 1
	if i > 0 {
		n, err := strconv.Atoi(t[:i])
		if err != nil {
			return Descriptor{}, ferr.Wrap(ferr.InvalidValue, 0, err, "TFORM repeat count %q", t[:i])
		}
		repeat = n
	}
	if i >= len(t) {
		return Descriptor{}, ferr.New(ferr.InvalidValue, 0, "TFORM %q has no type code", s)
	}

	code := Code(t[i])
	if code >= 'a' && code <= 'z' {
		code -= 'a' - 'A'
	}
	if code == 'P' || code == 'Q' {
		return Descriptor{}, ferr.New(ferr.Unsupported, 0, "variable-length array TFORM %q", s)
	}
	if _, ok := elementBytes[code]; !ok {
		return Descriptor{}, ferr.New(ferr.InvalidValue, 0, "unknown TFORM code %q in %q", string(rune(code)), s)
	}
	return Descriptor{Repeat: repeat, Code: code}, nil
}

// String formats the descriptor back into TFORM syntax with an explicit
// repeat count.
func (d Descriptor) String() string {
	return strconv.Itoa(d.Repeat) + string(rune(d.Code))
}

// ElementBytes returns the wire width of one element of this type.
func (d Descriptor) ElementBytes() int {
	return elementBytes[d.Code]
}

// TotalBytes returns the wire width of the whole field: repeat elements,
// with bit columns packed 8 bits per byte.
func (d Descriptor) TotalBytes() int {
	if d.Code == Bit {
		return (d.Repeat + 7) / 8
	}
	return d.Repeat * d.ElementBytes()
}

// Clone returns a detached copy of the descriptor.
func (d Descriptor) Clone() Descriptor { return d }
