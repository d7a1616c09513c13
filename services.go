package eclipse

import (
	"context"
	"fmt"
	"log/slog"
)

// instance is a live service created by the engine.
type instance struct {
	summary *ServiceSummary
	value   any
	logger  *slog.Logger

	// initialized is set once Initialize has been attempted, whatever its outcome.
	initialized bool
}

func buildService(summary *ServiceSummary, logger *slog.Logger) (*instance, error) {
	logger = logger.With("service", summary.Name())
	logger.Debug("Creating an instance")

	var value any
	err := tryWrap(func() error {
		value = summary.Def.Make()
		if value == nil {
			return fmt.Errorf("%w: %s: constructor returned nil", ErrServiceInvalid, summary.Name())
		}
		return nil
	})()
	if err != nil {
		logger.Warn("Instantiation failed", "error", err)
		return nil, err
	}

	return &instance{summary: summary, value: value, logger: logger}, nil
}

func initializeService(ctx context.Context, inst *instance) error {
	if inst.initialized {
		return nil
	}
	inst.initialized = true

	initer, ok := inst.value.(Initializer)
	if !ok {
		return nil
	}

	inst.logger.Debug("Calling Initialize method")
	if err := tryWrap(func() error { return initer.Initialize(ctx) })(); err != nil {
		inst.logger.Warn("Initialize failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrServiceInitFailed, inst.summary.Name(), err)
	}

	return nil
}

func unloadService(ctx context.Context, inst *instance) error {
	if !inst.initialized {
		return nil
	}
	inst.initialized = false

	unloader, ok := inst.value.(Unloader)
	if !ok {
		return nil
	}

	inst.logger.Debug("Calling Unload method")
	if err := tryWrap(func() error { return unloader.Unload(ctx) })(); err != nil {
		inst.logger.Warn("Unload failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrServiceUnloadFailed, inst.summary.Name(), err)
	}

	return nil
}

func invokeHook(ctx context.Context, inst *instance, hook *HookDef) error {
	inst.logger.Debug("Calling hook", "hook", hook.Name(), "phase", hook.descriptor.Phase.String())
	if err := tryWrap(func() error { return hook.invoke(ctx) })(); err != nil {
		inst.logger.Warn("Hook failed", "hook", hook.Name(), "error", err)
		return fmt.Errorf("%w: %s: %w", ErrHookFailed, hook, err)
	}

	return nil
}
