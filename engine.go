package eclipse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type ContextKey int

const (
	// CtxValue is the context key the engine is stored under during lifecycle passes.
	CtxValue ContextKey = iota
	// CtxUnloadSettings is the context key of the current UnloadSettings during Unload.
	CtxUnloadSettings
)

// State is the lifecycle state of the engine.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Initialized
	Unloading
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	case Unloading:
		return "unloading"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// UnloadSettings are passed to services through the context of Unload.
type UnloadSettings struct {
	// UnloadAssets asks services to release loaded assets, not only their state.
	UnloadAssets bool
}

var (
	// UnloadEverything is used when the engine shuts down for good.
	UnloadEverything = UnloadSettings{UnloadAssets: true}
	// ReloadSettings is used when the engine is unloaded to be initialized again.
	ReloadSettings = UnloadSettings{UnloadAssets: false}
)

// UnloadSettingsFromContext returns the settings of the running Unload, ReloadSettings outside of it.
func UnloadSettingsFromContext(ctx context.Context) UnloadSettings {
	if s, ok := ctx.Value(CtxUnloadSettings).(UnloadSettings); ok {
		return s
	}
	return ReloadSettings
}

// Engine discovers services from modules, initializes them in stages and unloads them.
type Engine struct {
	config  *Config
	core    []*Module
	source  ModuleSource
	logger  *slog.Logger
	metrics *Metrics

	// lifecycle serializes Initialize and Unload.
	lifecycle sync.Mutex
	state     atomic.Int32
	failures  atomic.Int32

	queueMu   sync.Mutex
	queue     []*Module
	queueRead bool

	servicesMu sync.RWMutex
	registry   map[reflect.Type]*instance
	instances  []*instance
	plan       *plan

	initMu        sync.Mutex
	initialized   bool
	onInitialized []func()

	resettingMu sync.Mutex
	onResetting []func()
}

// New creates an engine. Core modules are discovered on every initialization pass before
// modules from the source and queued modules.
func New(core ...*Module) *Engine {
	config := DefaultConfig()

	return &Engine{
		config:   config,
		core:     core,
		logger:   slog.New(slog.DiscardHandler),
		metrics:  NewMetrics(config.MetricsNamespace),
		registry: map[reflect.Type]*instance{},
	}
}

// FromContext retrieves the *Engine from the context passed to Initialize, Unload and hooks.
// Panics if ctx misses the value.
func FromContext(ctx context.Context) *Engine {
	return ctx.Value(CtxValue).(*Engine)
}

// WithConfig replaces the whole configuration.
func (e *Engine) WithConfig(config *Config) *Engine {
	return e.configure(func(c *Config) {
		*c = *config
	})
}

// MaxConcurrency limits services initialized in parallel during threaded phases.
func (e *Engine) MaxConcurrency(n int) *Engine {
	return e.configure(func(c *Config) { c.MaxConcurrency = n })
}

// Debug enables extra discovery diagnostics.
func (e *Engine) Debug(debug bool) *Engine {
	return e.configure(func(c *Config) { c.Debug = debug })
}

// TargetModules restricts modules accepted from the source to the given names.
func (e *Engine) TargetModules(names ...string) *Engine {
	return e.configure(func(c *Config) { c.TargetModules = names })
}

// ExcludedModules rejects the given modules from the source.
func (e *Engine) ExcludedModules(names ...string) *Engine {
	return e.configure(func(c *Config) { c.ExcludedModules = names })
}

// DiagnosticsAddr sets the address RunDiagnostics listens on.
func (e *Engine) DiagnosticsAddr(addr string) *Engine {
	return e.configure(func(c *Config) { c.DiagnosticsAddr = addr })
}

// Source sets the module source queried on every initialization pass.
func (e *Engine) Source(source ModuleSource) *Engine {
	if err := e.AssertModifiable(); err != nil {
		e.logger.Error("Ignoring module source", "error", err)
		return e
	}
	e.source = source
	return e
}

// SetLogger sets the logger instance to be used by the engine
func (e *Engine) SetLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

func (e *Engine) configure(fn func(*Config)) *Engine {
	if err := e.AssertModifiable(); err != nil {
		e.logger.Error("Ignoring config change", "error", err)
		return e
	}

	namespace := e.config.MetricsNamespace
	fn(e.config)
	if e.config.MetricsNamespace != namespace {
		e.metrics = NewMetrics(e.config.MetricsNamespace)
	}
	return e
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	return *e.config
}

func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.metrics.recordState(s)
}

// IsInitialized reports whether the last initialization pass has completed.
func (e *Engine) IsInitialized() bool {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	return e.initialized
}

// AssertModifiable returns ErrNotModifiable once the engine has left the uninitialized state.
func (e *Engine) AssertModifiable() error {
	if s := e.State(); s != Uninitialized {
		return fmt.Errorf("%w: engine is %s", ErrNotModifiable, s)
	}
	return nil
}

// Failures returns the number of failures caught during the last pass.
func (e *Engine) Failures() int {
	return int(e.failures.Load())
}

// Enqueue queues modules for the next initialization pass. Once the pass has started reading
// the queue, modules are rejected with ErrNotModifiable until the engine is unloaded.
func (e *Engine) Enqueue(modules ...*Module) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	if e.queueRead {
		err := fmt.Errorf("%w: modules were already discovered", ErrNotModifiable)
		e.logger.Error("Cannot enqueue modules", "error", err)
		return err
	}

	e.queue = append(e.queue, modules...)
	return nil
}

// OnEngineInitialized registers fn to run once the engine is initialized. If it already is,
// fn runs immediately on the calling goroutine.
func (e *Engine) OnEngineInitialized(fn func()) {
	if fn == nil {
		return
	}

	e.initMu.Lock()
	if e.initialized {
		e.initMu.Unlock()
		e.invokeCallback("initialized", fn)
		return
	}
	e.onInitialized = append(e.onInitialized, fn)
	e.initMu.Unlock()
}

// OnEngineResetting registers fn to run once during the next Unload, after services are unloaded.
func (e *Engine) OnEngineResetting(fn func()) {
	if fn == nil {
		return
	}

	e.resettingMu.Lock()
	defer e.resettingMu.Unlock()

	e.onResetting = append(e.onResetting, fn)
}

func (e *Engine) setInitialized(initialized bool) {
	e.initMu.Lock()
	e.initialized = initialized
	callbacks := e.onInitialized
	if initialized {
		e.onInitialized = nil
	}
	e.initMu.Unlock()

	if !initialized {
		return
	}
	for _, fn := range callbacks {
		e.invokeCallback("initialized", fn)
	}
}

func (e *Engine) fireResetting() {
	e.resettingMu.Lock()
	callbacks := e.onResetting
	e.onResetting = nil
	e.resettingMu.Unlock()

	for _, fn := range callbacks {
		e.invokeCallback("resetting", fn)
	}
}

func (e *Engine) invokeCallback(event string, fn func()) {
	err := tryWrap(func() error {
		fn()
		return nil
	})()
	if err != nil {
		e.logger.Warn("Engine callback failed", "event", event, "error", err)
	}
}

// Initialize runs one initialization pass: discovers services from modules, instantiates them and
// initializes them in stages. Failures of individual services and hooks are logged and counted,
// they never abort the pass. An error is returned only when the pass cannot start.
func (e *Engine) Initialize(ctx context.Context) error {
	if !e.lifecycle.TryLock() {
		return fmt.Errorf("%w: lifecycle pass in progress", ErrEngineBusy)
	}
	defer e.lifecycle.Unlock()

	if e.State() == Initialized {
		return nil
	}

	if err := e.config.Validate(ctx); err != nil {
		return err
	}

	ctx = context.WithValue(ctx, CtxValue, e)
	start := time.Now()
	e.failures.Store(0)
	e.setState(Initializing)

	modules := e.collectModules(ctx)
	p := discover(modules, e.config.Debug, e.logger)

	instances := make([]*instance, 0, len(p.services))
	registry := make(map[reflect.Type]*instance, len(p.services))
	for _, summary := range p.services {
		inst, err := buildService(summary, e.logger)
		if err != nil {
			e.fail("instantiate", "instantiate")
			continue
		}

		instances = append(instances, inst)
		for _, key := range summary.Keys {
			if _, ok := registry[key]; !ok {
				registry[key] = inst
			}
		}
	}

	e.servicesMu.Lock()
	e.registry = registry
	e.instances = instances
	e.plan = p
	e.servicesMu.Unlock()

	in := &initializer{metrics: e.metrics, limit: e.config.MaxConcurrency}
	in.run(ctx, instances)
	e.failures.Add(in.failures.Load())

	duration := time.Since(start)
	e.metrics.recordPass("initialize", len(instances), p.droppedHooks, duration)

	log := e.logger.Info
	if e.Failures() > 0 {
		log = e.logger.Warn
	}
	log("Engine initialized",
		"services", len(instances),
		"failures", e.Failures(),
		"dropped_hooks", p.droppedHooks,
		"replacements", p.replacements.EdgeCount(),
		"duration", duration,
	)

	e.setState(Initialized)
	e.setInitialized(true)

	return nil
}

func (e *Engine) collectModules(ctx context.Context) []*Module {
	modules := slices.Clone(e.core)

	if e.source != nil {
		found, err := e.source.Modules(ctx)
		if err != nil {
			e.fail("discover", "source")
			e.logger.Warn("Module source failed", "error", errors.Join(ErrModuleSource, err))
		}

		for _, m := range found {
			if m == nil {
				continue
			}
			if !e.config.accepts(m.Name) {
				e.logger.Info("Skipping module", "module", m.Name)
				continue
			}
			modules = append(modules, m)
		}
	}

	e.queueMu.Lock()
	modules = append(modules, e.queue...)
	e.queue = nil
	e.queueRead = true
	e.queueMu.Unlock()

	return modules
}

func (e *Engine) fail(phase, kind string) {
	e.failures.Add(1)
	e.metrics.recordFailure(phase, kind)
}

// Unload unloads every live service in registry order, clears the registry, fires resetting
// callbacks once and returns the engine to the uninitialized state. Failures are logged, never returned.
// Unload does nothing unless the engine is initialized.
func (e *Engine) Unload(ctx context.Context, settings UnloadSettings) {
	if !e.lifecycle.TryLock() {
		e.logger.Warn("Cannot unload engine", "error", fmt.Errorf("%w: lifecycle pass in progress", ErrEngineBusy))
		return
	}
	defer e.lifecycle.Unlock()

	if e.State() != Initialized {
		e.logger.Debug("Engine is not initialized, nothing to unload")
		return
	}

	ctx = context.WithValue(ctx, CtxValue, e)
	ctx = context.WithValue(ctx, CtxUnloadSettings, settings)
	start := time.Now()
	e.failures.Store(0)
	e.setState(Unloading)

	e.servicesMu.RLock()
	instances := e.instances
	e.servicesMu.RUnlock()

	for _, inst := range instances {
		if err := unloadService(ctx, inst); err != nil {
			e.fail("unload", "unload")
		}
	}

	e.servicesMu.Lock()
	e.registry = map[reflect.Type]*instance{}
	e.instances = nil
	e.plan = nil
	e.servicesMu.Unlock()

	e.fireResetting()

	e.setInitialized(false)
	e.queueMu.Lock()
	e.queueRead = false
	e.queueMu.Unlock()

	duration := time.Since(start)
	e.metrics.recordPass("unload", 0, 0, duration)
	e.logger.Info("Engine unloaded",
		"services", len(instances),
		"failures", e.Failures(),
		"unload_assets", settings.UnloadAssets,
		"duration", duration,
	)

	e.setState(Uninitialized)
}

// Reload unloads the engine and initializes it again.
func (e *Engine) Reload(ctx context.Context, settings UnloadSettings) error {
	e.Unload(ctx, settings)
	return e.Initialize(ctx)
}

func (e *Engine) lookup(key reflect.Type) (any, bool) {
	e.servicesMu.RLock()
	defer e.servicesMu.RUnlock()

	if inst, ok := e.registry[key]; ok {
		return inst.value, true
	}

	if e.plan != nil {
		if inst, ok := e.registry[e.plan.replacements.Sink(key)]; ok {
			return inst.value, true
		}
	}

	return nil, false
}

// Services returns the live service instances in initialization order.
func (e *Engine) Services() []any {
	e.servicesMu.RLock()
	defer e.servicesMu.RUnlock()

	services := make([]any, len(e.instances))
	for i, inst := range e.instances {
		services[i] = inst.value
	}
	return services
}

// Plan returns the summaries of the live services in initialization order.
func (e *Engine) Plan() []*ServiceSummary {
	e.servicesMu.RLock()
	defer e.servicesMu.RUnlock()

	summaries := make([]*ServiceSummary, len(e.instances))
	for i, inst := range e.instances {
		summaries[i] = inst.summary
	}
	return summaries
}

// Replacements maps every replaced service type to the type finally replacing it.
func (e *Engine) Replacements() map[reflect.Type]reflect.Type {
	e.servicesMu.RLock()
	defer e.servicesMu.RUnlock()

	replacements := map[reflect.Type]reflect.Type{}
	if e.plan == nil {
		return replacements
	}

	for t := range e.plan.replacements.Vertices() {
		if sink := e.plan.replacements.Sink(t); sink != t {
			replacements[t] = sink
		}
	}
	return replacements
}

// Replacement is a single step of a replacement chain.
type Replacement struct {
	Replaced     reflect.Type
	ReplacedName string
	Replacer     reflect.Type
	ReplacerName string
}

// ReplacementSteps returns every direct replacement, ordered so that a replaced type appears
// before the steps replacing its replacer.
func (e *Engine) ReplacementSteps() []Replacement {
	e.servicesMu.RLock()
	defer e.servicesMu.RUnlock()

	if e.plan == nil {
		return nil
	}

	graph := e.plan.replacements
	var steps []Replacement
	for t, name := range graph.TopologicalOrder() {
		for _, next := range graph.OutEdges(t) {
			nextName, _ := graph.GetVertex(next)
			steps = append(steps, Replacement{Replaced: t, ReplacedName: name, Replacer: next, ReplacerName: nextName})
		}
	}
	return steps
}
