package eclipse

import (
	"context"
)

// Module groups service and hook definitions shipped together, for instance by the core
// application or by a mod.
type Module struct {
	Name     string
	Services []ServiceDef
	Hooks    []*HookDef
}

// NewModule creates a module from the given definitions in order.
func NewModule(name string, defs ...Definition) *Module {
	m := &Module{Name: name}
	for _, def := range defs {
		switch d := def.(type) {
		case ServiceDef:
			m.Services = append(m.Services, d)
		case *HookDef:
			m.Hooks = append(m.Hooks, d)
		}
	}
	return m
}

// ModuleSource enumerates modules available to the engine, for instance installed mods.
// It is queried once per initialization pass.
type ModuleSource interface {
	Modules(ctx context.Context) ([]*Module, error)
}

// ModuleSourceFunc adapts a function to ModuleSource.
type ModuleSourceFunc func(ctx context.Context) ([]*Module, error)

func (f ModuleSourceFunc) Modules(ctx context.Context) ([]*Module, error) {
	return f(ctx)
}

// StaticModules returns a ModuleSource always yielding the given modules.
func StaticModules(modules ...*Module) ModuleSource {
	return ModuleSourceFunc(func(context.Context) ([]*Module, error) {
		return modules, nil
	})
}
