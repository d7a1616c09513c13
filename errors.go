package eclipse

import (
	"errors"
)

// Error variables used throughout the package
var (
	// ErrServiceNotFound is returned when no live service is registered under the requested type.
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceTypeMismatch is returned when the service registered under a type cannot be
	// converted to the requested type.
	ErrServiceTypeMismatch = errors.New("service type mismatch")

	// ErrServiceInvalid is returned when a service definition cannot be used, for instance
	// when the provided type is not a struct or does not implement a declared interface.
	ErrServiceInvalid = errors.New("service invalid")

	// ErrServiceInitFailed wraps errors returned or panics raised by Initialize.
	ErrServiceInitFailed = errors.New("service initialization failed")

	// ErrServiceUnloadFailed wraps errors returned or panics raised by Unload.
	ErrServiceUnloadFailed = errors.New("service unload failed")

	// ErrHookFailed wraps errors returned or panics raised by a preload or afterload hook.
	ErrHookFailed = errors.New("hook invocation failed")

	// ErrDuplicateReplacement is reported in debug mode when a replacement target appears
	// more than once among discovered services.
	ErrDuplicateReplacement = errors.New("duplicate replacement target")

	// ErrDuplicateService is reported when the same concrete service type is discovered twice.
	ErrDuplicateService = errors.New("duplicate service")

	// ErrReplacementCycle is reported when a replacement would make a service replace itself.
	ErrReplacementCycle = errors.New("replacement cycle")

	// ErrNotModifiable is returned when the engine configuration or module queue is changed
	// after it has been consumed.
	ErrNotModifiable = errors.New("engine is not modifiable")

	// ErrEngineBusy is returned when a lifecycle operation is requested while another one
	// is in progress.
	ErrEngineBusy = errors.New("engine is busy")

	// ErrModuleSource is returned when the module source fails to enumerate modules.
	ErrModuleSource = errors.New("module source failed")
)
