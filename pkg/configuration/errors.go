package configuration

import "errors"

var (
	// ErrParameterNotFound is returned when no parameter is registered under a name.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrParameterTypeMismatch is returned when a registered parameter has another value type.
	ErrParameterTypeMismatch = errors.New("parameter type mismatch")
)
