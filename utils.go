package eclipse

import (
	"fmt"
	"reflect"

	typetostring "github.com/samber/go-type-to-string"
)

func empty[T any]() T {
	var t T
	return t
}

func elem[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeOf returns the type key for T. Use it to name interfaces in As and replacement
// targets in Replaces.
func TypeOf[T any]() reflect.Type {
	return elem[T]()
}

// typeName returns a stable human readable name of T used in logs and metrics.
func typeName[T any]() string {
	return typetostring.GetType[T]()
}

func nameOf(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// tryWrap turns panics raised by fn into errors.
func tryWrap(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					err = fmt.Errorf("panic: %w", e)
					return
				}
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		return fn()
	}
}

func must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}
