package configuration

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// InitializationOrder places the configuration service before every other service.
	InitializationOrder = -2_000_000_000

	DefaultAutoSaveDelay       = 5 * time.Second
	MinAutoSaveDelay           = 500 * time.Millisecond
	DefaultCategorizationDelay = 16 * time.Millisecond
)

var settingsValidator = validator.New()

// Settings tune the configuration service.
type Settings struct {
	// AutoApply applies parameters as soon as they change.
	AutoApply bool
	// AutoSave periodically saves parameters and states to storage.
	AutoSave bool
	// AutoSaveDelay is the period of automatic saves, DefaultAutoSaveDelay when zero. Schedules
	// run with one second resolution. Only checked when AutoSave is on.
	AutoSaveDelay time.Duration `validate:"omitempty,gte=500ms"`
	// CategorizationDelay is the quiet time before OnCategorizationChanged fires.
	CategorizationDelay time.Duration `validate:"gte=0"`
}

func DefaultSettings() Settings {
	return Settings{
		AutoSave:            true,
		AutoSaveDelay:       DefaultAutoSaveDelay,
		CategorizationDelay: DefaultCategorizationDelay,
	}
}

func (s Settings) Validate() error {
	if !s.AutoSave {
		return settingsValidator.StructExcept(s, "AutoSaveDelay")
	}
	return settingsValidator.Struct(s)
}

func (s Settings) autoSaveDelay() time.Duration {
	if s.AutoSaveDelay == 0 {
		return DefaultAutoSaveDelay
	}
	return s.AutoSaveDelay
}
