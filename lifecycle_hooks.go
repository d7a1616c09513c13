package eclipse

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// HookFn is the body of a preload or afterload hook. The engine is available through FromContext(ctx).
type HookFn func(ctx context.Context) error

// HookDef is a hook bound to a service type. Build it with Preload or Afterload.
type HookDef struct {
	descriptor HookDescriptor
	name       string
	fn         HookFn
}

func (h *HookDef) definition() {}

// Preload defines a hook running before Initialize of the service registered under T.
func Preload[T any](fn HookFn) *HookDef {
	return newHook(PreloadPhase, elem[T](), fn)
}

// Afterload defines a hook running after Initialize of the service registered under T.
func Afterload[T any](fn HookFn) *HookDef {
	return newHook(AfterloadPhase, elem[T](), fn)
}

func newHook(phase HookPhase, target reflect.Type, fn HookFn) *HookDef {
	return &HookDef{
		descriptor: HookDescriptor{Phase: phase, Target: target},
		name:       funcName(fn),
		fn:         fn,
	}
}

// Order sets the invoke order among hooks of the same target and phase.
func (h *HookDef) Order(order int32) *HookDef {
	h.descriptor.InvokeOrder = order
	return h
}

// ThreadSafe marks the hook as safe to run on a worker in threaded phases.
func (h *HookDef) ThreadSafe(threadSafe bool) *HookDef {
	h.descriptor.ThreadSafe = threadSafe
	return h
}

// Named overrides the name used in logs.
func (h *HookDef) Named(name string) *HookDef {
	h.name = name
	return h
}

func (h *HookDef) Name() string {
	return h.name
}

func (h *HookDef) Descriptor() HookDescriptor {
	return h.descriptor
}

func (h *HookDef) invoke(ctx context.Context) error {
	if h.fn == nil {
		return nil
	}
	return h.fn(ctx)
}

func (h *HookDef) String() string {
	return fmt.Sprintf("%s %s(%s)", h.descriptor.Phase, h.name, nameOf(h.descriptor.Target))
}

func funcName(fn HookFn) string {
	if fn == nil {
		return "<nil>"
	}

	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
