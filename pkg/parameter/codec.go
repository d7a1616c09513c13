package parameter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/darkjune/eclipse/pkg/codec"
)

// Codec converts parameter values to and from their stored string form.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(raw string) (T, error)
}

// JSONCodec stores values as JSON documents.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec[T]) Decode(raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}

// Enum is any integer type used as an enumeration.
type Enum interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumCodec stores enums in the compact fixed-width digit form, sized by the enum's
// underlying integer.
type EnumCodec[E Enum] struct{}

func enumLayout[E Enum]() (bits uint, signed bool) {
	var zero E
	bits = uint(unsafe.Sizeof(zero)) * 8

	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		signed = true
	}
	return bits, signed
}

func (EnumCodec[E]) Encode(v E) (string, error) {
	bits, _ := enumLayout[E]()
	width, err := codec.WidthFor(int(bits / 8))
	if err != nil {
		return "", err
	}

	u := uint64(v)
	if bits < 64 {
		u &= 1<<bits - 1
	}
	return codec.Encode(u, width), nil
}

func (EnumCodec[E]) Decode(raw string) (E, error) {
	bits, signed := enumLayout[E]()
	width, err := codec.WidthFor(int(bits / 8))
	if err != nil {
		return 0, err
	}

	u, err := codec.Decode(raw, width)
	if err != nil {
		return 0, err
	}
	if bits < 64 && u>>bits != 0 {
		return 0, fmt.Errorf("%w: %q overflows %d bits", codec.ErrInvalidDigit, raw, bits)
	}

	if signed {
		shift := 64 - bits
		return E(int64(u<<shift) >> shift), nil
	}
	return E(u), nil
}
