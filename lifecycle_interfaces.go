package eclipse

import "context"

// Initializer is implemented by services that need to run code when the engine initializes them.
// Initialize is called exactly once per service instance. The engine is available through FromContext(ctx).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Unloader is implemented by services that need to release resources when the engine unloads.
// Unload is only called for services whose Initialize has been attempted.
// UnloadSettingsFromContext(ctx) returns the settings of the current unload.
type Unloader interface {
	Unload(ctx context.Context) error
}
