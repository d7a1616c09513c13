package eclipse

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

var (
	configValidator = validator.New()
)

// Config is the configuration of the engine.
type Config struct {
	// MaxConcurrency limits services initialized in parallel during threaded phases. 0 means no limit.
	MaxConcurrency int `hcl:"max_concurrency,optional" validate:"gte=0"`

	// TargetModules lists modules accepted from the module source. Empty accepts every module.
	TargetModules []string `hcl:"target_modules,optional" validate:"dive,required"`

	// ExcludedModules lists modules rejected from the module source.
	ExcludedModules []string `hcl:"excluded_modules,optional" validate:"dive,required"`

	// Debug enables extra discovery diagnostics.
	Debug bool `hcl:"debug,optional"`

	// DiagnosticsAddr is the address RunDiagnostics listens on.
	DiagnosticsAddr string `hcl:"diagnostics_addr,optional" validate:"omitempty,hostname_port"`

	// MetricsNamespace prefixes exported metric names.
	MetricsNamespace string `hcl:"metrics_namespace,optional"`
}

type configFile struct {
	Engine *Config `hcl:"engine,block"`
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() *Config {
	return &Config{
		DiagnosticsAddr:  ":8081",
		MetricsNamespace: "eclipse",
	}
}

func (c *Config) Validate(_ context.Context) error {
	return configValidator.Struct(c)
}

// accepts reports whether a module with the given name passes the target and exclusion filters.
func (c *Config) accepts(name string) bool {
	if slices.Contains(c.ExcludedModules, name) {
		return false
	}
	return len(c.TargetModules) == 0 || slices.Contains(c.TargetModules, name)
}

// LoadConfigFile reads an HCL file with an `engine` block. Attributes missing from the file
// keep their DefaultConfig values.
//
//	engine {
//	  max_concurrency  = 4
//	  excluded_modules = ["broken-mod"]
//	}
func LoadConfigFile(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	cfg := configFile{Engine: DefaultConfig()}
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if err := cfg.Engine.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg.Engine, nil
}
