// Package codec encodes unsigned integers as fixed-width strings of 6-bit digits.
//
// The alphabet is 0-9, a-z, A-Z, '-' and '+', in that order, so digit values run from 0 to 63.
// The most significant digit comes first.
package codec

import (
	"errors"
	"fmt"
)

const (
	Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-+"

	bitsPerDigit = 6
	digitMask    = 1<<bitsPerDigit - 1
)

// Widths in digits for each integer size.
const (
	Width8  = 2
	Width16 = 3
	Width32 = 6
	Width64 = 11
)

var (
	ErrInvalidDigit = errors.New("invalid digit")
	ErrInvalidWidth = errors.New("invalid width")
)

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// WidthFor returns the number of digits used for an integer of the given byte size.
func WidthFor(size int) (int, error) {
	switch size {
	case 1:
		return Width8, nil
	case 2:
		return Width16, nil
	case 4:
		return Width32, nil
	case 8:
		return Width64, nil
	}
	return 0, fmt.Errorf("%w: no width for %d-byte integers", ErrInvalidWidth, size)
}

// Encode writes the low 6*width bits of v as width digits.
func Encode(v uint64, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = Alphabet[v&digitMask]
		v >>= bitsPerDigit
	}
	return string(buf)
}

// Decode parses exactly width digits.
func Decode(s string, width int) (uint64, error) {
	if len(s) != width {
		return 0, fmt.Errorf("%w: expected %d digits, got %d", ErrInvalidWidth, width, len(s))
	}
	// 11 digits hold 66 bits, the leading one carries only the top 4
	if width == Width64 && decodeTable[s[0]] > 0xf {
		return 0, fmt.Errorf("%w: %q overflows 64 bits", ErrInvalidDigit, s)
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		d := decodeTable[s[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, s[i], i)
		}
		v = v<<bitsPerDigit | uint64(d)
	}
	return v, nil
}

func EncodeUint8(v uint8) string   { return Encode(uint64(v), Width8) }
func EncodeUint16(v uint16) string { return Encode(uint64(v), Width16) }
func EncodeUint32(v uint32) string { return Encode(uint64(v), Width32) }
func EncodeUint64(v uint64) string { return Encode(v, Width64) }

func DecodeUint8(s string) (uint8, error) {
	v, err := Decode(s, Width8)
	if err != nil {
		return 0, err
	}
	if v > 0xff {
		return 0, fmt.Errorf("%w: %q overflows 8 bits", ErrInvalidDigit, s)
	}
	return uint8(v), nil
}

func DecodeUint16(s string) (uint16, error) {
	v, err := Decode(s, Width16)
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, fmt.Errorf("%w: %q overflows 16 bits", ErrInvalidDigit, s)
	}
	return uint16(v), nil
}

func DecodeUint32(s string) (uint32, error) {
	v, err := Decode(s, Width32)
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, fmt.Errorf("%w: %q overflows 32 bits", ErrInvalidDigit, s)
	}
	return uint32(v), nil
}

// DecodeUint64 parses 11 digits. The leading digit carries only the top 4 bits.
func DecodeUint64(s string) (uint64, error) {
	return Decode(s, Width64)
}
