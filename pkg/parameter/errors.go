package parameter

import "errors"

var (
	// ErrDeserialization is returned when a stored value cannot be decoded. The parameter
	// keeps its previous value.
	ErrDeserialization = errors.New("parameter deserialization failed")

	// ErrSerialization is returned when the current value cannot be encoded.
	ErrSerialization = errors.New("parameter serialization failed")
)
