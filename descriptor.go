package eclipse

import (
	"fmt"
	"reflect"
)

// ThreadMode selects the initialization phase of a service.
type ThreadMode int

const (
	// MainThread services are initialized sequentially, one by one, in the main phase.
	MainThread ThreadMode = iota
	// ThreadSafeBeforeMain services are initialized concurrently before the main phase.
	ThreadSafeBeforeMain
	// ThreadSafeAfterMain services are initialized concurrently after the main phase.
	ThreadSafeAfterMain
)

func (m ThreadMode) String() string {
	switch m {
	case MainThread:
		return "main"
	case ThreadSafeBeforeMain:
		return "before_main"
	case ThreadSafeAfterMain:
		return "after_main"
	}
	return fmt.Sprintf("ThreadMode(%d)", int(m))
}

// ServiceDescriptor holds the lifecycle metadata of a service.
type ServiceDescriptor struct {
	// InitializationOrder sorts services ascending. Services with equal order keep discovery order.
	InitializationOrder int32
	ThreadMode          ThreadMode
	// Replace names a previously discovered service type this service supersedes.
	Replace reflect.Type
}

// HookPhase tells whether a hook runs before or after the target's Initialize.
type HookPhase int

const (
	PreloadPhase HookPhase = iota
	AfterloadPhase
)

func (p HookPhase) String() string {
	if p == PreloadPhase {
		return "preload"
	}
	return "afterload"
}

// HookDescriptor holds the metadata of a preload or afterload hook.
type HookDescriptor struct {
	Phase  HookPhase
	Target reflect.Type
	// InvokeOrder sorts hooks of the same target and phase ascending.
	InvokeOrder int32
	// ThreadSafe hooks run on the service's worker in threaded phases. Other hooks run
	// sequentially around the concurrent part.
	ThreadSafe bool
}
