package eclipse

import (
	"fmt"
)

// Provide defines a service backed by struct S. The engine creates instances with new(S)
// and registers them under *S. If *S implements Initializer or Unloader, the engine calls them.
func Provide[S any]() *ServiceProvider[S] {
	return &ServiceProvider[S]{}
}

// ProvideFn defines a service whose instances are created by fn, once per initialization pass.
func ProvideFn[S any](fn func() *S) *ServiceProvider[S] {
	return &ServiceProvider[S]{fn: fn}
}

// Get returns the live service registered under T. T is usually a pointer to a service struct
// or an interface the service was registered As. Looking up a replaced service type resolves to
// the replacing service, which must then be convertible to T.
func Get[T any](e *Engine) (T, error) {
	key := elem[T]()

	service, ok := e.lookup(key)
	if !ok {
		return empty[T](), fmt.Errorf("%w: %s", ErrServiceNotFound, key)
	}

	casted, ok := service.(T)
	if !ok {
		return empty[T](), fmt.Errorf("%w: %s is registered as %T", ErrServiceTypeMismatch, key, service)
	}

	return casted, nil
}

// MustGet is like Get but panics if an error occurs.
func MustGet[T any](e *Engine) T {
	return must(Get[T](e))
}

// TryGet is like Get but reports failures with a boolean.
func TryGet[T any](e *Engine) (T, bool) {
	service, err := Get[T](e)
	return service, err == nil
}

// GetOrDefault returns the service registered under T or def.
func GetOrDefault[T any](e *Engine, def T) T {
	if service, ok := TryGet[T](e); ok {
		return service
	}
	return def
}

// GetOrDefaultFn returns the service registered under T or the result of fn. fn is only called
// when the service is missing.
func GetOrDefaultFn[T any](e *Engine, fn func() T) T {
	if service, ok := TryGet[T](e); ok {
		return service
	}
	return fn()
}
