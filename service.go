package eclipse

import (
	"fmt"
	"reflect"
)

// Definition is anything a Module can be built from: services and hooks.
type Definition interface {
	definition()
}

// ServiceDef is a service definition discovered from a module.
type ServiceDef interface {
	Definition

	// Name returns a human readable name of the service type.
	Name() string
	// Type returns the concrete service type, always a pointer to a struct.
	Type() reflect.Type
	Descriptor() ServiceDescriptor
	// Keys returns the types the service is registered under: the concrete type and every
	// interface added with As.
	Keys() []reflect.Type
	// Make creates a new service instance.
	Make() any
	Validate() error
}

// ServiceProvider defines a service backed by a struct S. Instances are *S.
type ServiceProvider[S any] struct {
	descriptor ServiceDescriptor
	as         []reflect.Type
	fn         func() *S
}

func (p *ServiceProvider[S]) definition() {}

// Order sets the initialization order.
func (p *ServiceProvider[S]) Order(order int32) *ServiceProvider[S] {
	p.descriptor.InitializationOrder = order
	return p
}

// Mode sets the thread mode.
func (p *ServiceProvider[S]) Mode(mode ThreadMode) *ServiceProvider[S] {
	p.descriptor.ThreadMode = mode
	return p
}

// Replaces declares that this service supersedes the service of type t, usually obtained
// with TypeOf.
func (p *ServiceProvider[S]) Replaces(t reflect.Type) *ServiceProvider[S] {
	p.descriptor.Replace = t
	return p
}

// As additionally registers the service under the interface type t. *S must implement it.
func (p *ServiceProvider[S]) As(t reflect.Type) *ServiceProvider[S] {
	p.as = append(p.as, t)
	return p
}

func (p *ServiceProvider[S]) Name() string {
	return typeName[*S]()
}

func (p *ServiceProvider[S]) Type() reflect.Type {
	return elem[*S]()
}

func (p *ServiceProvider[S]) Descriptor() ServiceDescriptor {
	return p.descriptor
}

func (p *ServiceProvider[S]) Keys() []reflect.Type {
	return append([]reflect.Type{p.Type()}, p.as...)
}

func (p *ServiceProvider[S]) Make() any {
	if p.fn != nil {
		return p.fn()
	}
	return new(S)
}

func (p *ServiceProvider[S]) Validate() error {
	if kind := elem[S]().Kind(); kind != reflect.Struct {
		return fmt.Errorf("%w: %s: expected a struct, got %s", ErrServiceInvalid, p.Name(), kind)
	}

	for _, t := range p.as {
		if t == nil || t.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s: %s is not an interface", ErrServiceInvalid, p.Name(), nameOf(t))
		}
		if !p.Type().Implements(t) {
			return fmt.Errorf("%w: %s does not implement %s", ErrServiceInvalid, p.Name(), t)
		}
	}

	return nil
}
