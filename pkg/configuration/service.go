// Package configuration provides the engine service owning every user parameter: it registers
// parameters, applies or reverts pending changes, groups parameters by category and persists them.
package configuration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/darkjune/eclipse"
	"github.com/darkjune/eclipse/pkg/event"
	"github.com/darkjune/eclipse/pkg/naming"
	"github.com/darkjune/eclipse/pkg/parameter"
	"github.com/darkjune/eclipse/pkg/storage"
	"github.com/robfig/cron/v3"
)

// ModuleName is the name of the module returned by Module.
const ModuleName = "configuration"

// Service is the configuration engine service.
type Service struct {
	storage  storage.Storage
	settings Settings
	logger   *slog.Logger
	engine   *eclipse.Engine

	mu         sync.RWMutex
	parameters map[string]parameter.Parameter
	order      []parameter.Parameter
	categories map[string]*Category
	catOrder   []*Category

	statesMu sync.Mutex
	states   map[string]any

	dirty       atomic.Bool
	initialized atomic.Bool

	categorization *debouncer
	autosave       *cron.Cron

	OnBeforeApply           event.Event[*Service]
	OnAfterApply            event.Event[*Service]
	OnBeforeRevert          event.Event[*Service]
	OnAfterRevert           event.Event[*Service]
	OnCategorizationChanged event.Event[*Service]
	OnParameterRegistered   event.Event[parameter.Parameter]
}

type Option func(*Service)

// WithStorage sets where parameters are persisted. Defaults to an in-memory storage.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) {
		svc.storage = s
	}
}

func WithSettings(settings Settings) Option {
	return func(svc *Service) {
		svc.settings = settings
	}
}

// WithLogger sets the logger. Defaults to the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

func New(opts ...Option) *Service {
	s := &Service{
		settings:   DefaultSettings(),
		parameters: map[string]parameter.Parameter{},
		categories: map[string]*Category{},
		states:     map[string]any{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.categorization = newDebouncer(s.settings.CategorizationDelay, s.fireCategorizationChanged)
	return s
}

// Module returns an engine module providing the configuration service. A new Service is built
// with opts on every initialization pass.
func Module(opts ...Option) *eclipse.Module {
	return eclipse.NewModule(ModuleName,
		eclipse.ProvideFn(func() *Service { return New(opts...) }).
			Order(InitializationOrder).
			Mode(eclipse.MainThread),
	)
}

func (s *Service) Initialize(ctx context.Context) error {
	engine := eclipse.FromContext(ctx)
	s.engine = engine

	if s.logger == nil {
		s.logger = engine.Logger().With("service", "configuration")
	}
	if s.storage == nil {
		s.storage = storage.NewMemory()
	}
	if err := s.settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration settings: %w", err)
	}

	s.initialized.Store(true)
	err := s.Load(ctx)

	engine.OnEngineInitialized(s.ApplyForceCallbacks)

	if s.settings.AutoSave {
		if err := s.startAutoSave(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Autosave disabled", "error", err)
		}
	}

	return err
}

func (s *Service) Unload(ctx context.Context) error {
	if s.autosave != nil {
		<-s.autosave.Stop().Done()
		s.autosave = nil
	}
	s.categorization.flush()

	err := s.Save(ctx)
	s.initialized.Store(false)
	return err
}

func (s *Service) startAutoSave(ctx context.Context) error {
	s.autosave = cron.New()

	_, err := s.autosave.AddFunc(fmt.Sprintf("@every %s", s.settings.autoSaveDelay()), func() {
		if err := s.Save(ctx); err != nil {
			s.logger.Warn("Autosave failed", "error", err)
		}
	})
	if err != nil {
		s.autosave = nil
		return err
	}

	s.autosave.Start()
	return nil
}

func (s *Service) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Register adds p to the registry. Parameters without a name are ignored. When a parameter with
// the same name is already registered, the first registration wins and false is returned.
// Parameters registered after the service is initialized are loaded from storage right away, and
// applied right away once the engine is initialized too.
func (s *Service) Register(ctx context.Context, p parameter.Parameter) bool {
	if p == nil || p.Name().IsEmpty() {
		s.log().Warn("Ignoring parameter without name")
		return false
	}

	name := p.Name()

	s.mu.Lock()
	if _, ok := s.parameters[name.String()]; ok {
		s.mu.Unlock()
		s.log().Error("Parameter already registered", "parameter", name.String())
		return false
	}
	s.parameters[name.String()] = p
	s.order = append(s.order, p)
	category := s.categoryLocked(p.Category())
	s.mu.Unlock()

	p.Attach(s)
	category.add(p)

	if s.initialized.Load() {
		if err := s.load(ctx, p); err == nil && s.engine.IsInitialized() {
			p.ApplyChanges()
		}
	}

	s.OnParameterRegistered.Fire(p)
	s.categorization.trigger()
	return true
}

func (s *Service) categoryLocked(c naming.FullCategory) *Category {
	category, ok := s.categories[c.Name]
	if !ok {
		category = newCategory(c.Name, c.Visible)
		s.categories[c.Name] = category
		s.catOrder = append(s.catOrder, category)
	}
	return category
}

// Find returns the parameter registered under name.
func (s *Service) Find(name naming.FullName) (parameter.Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parameters[name.String()]
	return p, ok
}

// FindOrError is like Find but returns ErrParameterNotFound.
func (s *Service) FindOrError(name naming.FullName) (parameter.Parameter, error) {
	p, ok := s.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrParameterNotFound, name)
	}
	return p, nil
}

// FindTyped returns the parameter registered under name as a *parameter.Value[T].
func FindTyped[T comparable](s *Service, name naming.FullName) (*parameter.Value[T], error) {
	p, err := s.FindOrError(name)
	if err != nil {
		return nil, err
	}

	typed, ok := p.(*parameter.Value[T])
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is %T", ErrParameterTypeMismatch, name, p)
	}
	return typed, nil
}

// Parameters returns registered parameters in registration order.
func (s *Service) Parameters() []parameter.Parameter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]parameter.Parameter(nil), s.order...)
}

// TryGetCategory returns the category with the given name. An empty name selects the default category.
func (s *Service) TryGetCategory(name string) (*Category, bool) {
	if name == "" {
		name = naming.DefaultCategory
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[name]
	return c, ok
}

// Categories returns categories in creation order.
func (s *Service) Categories() []*Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*Category(nil), s.catOrder...)
}

// IsDirty reports whether any parameter changed since the last Apply or Revert.
func (s *Service) IsDirty() bool {
	return s.dirty.Load()
}

// Apply applies every parameter when the service is dirty.
func (s *Service) Apply() {
	if !s.dirty.Load() {
		return
	}
	s.broadcast(&s.OnBeforeApply, &s.OnAfterApply, "apply", parameter.Parameter.ApplyChanges)
}

// Revert reverts every parameter when the service is dirty.
func (s *Service) Revert() {
	if !s.dirty.Load() {
		return
	}
	s.broadcast(&s.OnBeforeRevert, &s.OnAfterRevert, "revert", parameter.Parameter.RevertChanges)
}

// ApplyForceCallbacks applies every parameter firing callbacks even for clean parameters.
func (s *Service) ApplyForceCallbacks() {
	s.broadcast(&s.OnBeforeApply, &s.OnAfterApply, "apply", parameter.Parameter.ApplyChangesForceFireCallbacks)
}

// RevertForceCallbacks reverts every parameter firing callbacks even for clean parameters.
func (s *Service) RevertForceCallbacks() {
	s.broadcast(&s.OnBeforeRevert, &s.OnAfterRevert, "revert", parameter.Parameter.RevertChangesForceFireCallbacks)
}

func (s *Service) broadcast(before, after *event.Event[*Service], op string, fn func(parameter.Parameter)) {
	s.guard(op+":before", func() { before.Fire(s) })

	for _, p := range s.Parameters() {
		s.guard(op+":"+p.Name().String(), func() { fn(p) })
	}
	s.dirty.Store(false)

	s.guard(op+":after", func() { after.Fire(s) })
}

func (s *Service) guard(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("Configuration callback failed", "callback", what, "error", fmt.Errorf("panic: %v", r))
		}
	}()

	fn()
}

// ParameterChanged marks the service dirty, or applies p right away with AutoApply.
func (s *Service) ParameterChanged(p parameter.Parameter) {
	if s.settings.AutoApply {
		p.ApplyChanges()
		return
	}
	s.dirty.Store(true)
}

// ParameterRenamed moves p to its new name. When the new name is taken, p stays registered under
// the previous one.
func (s *Service) ParameterRenamed(p parameter.Parameter, previous naming.FullName) {
	name := p.Name()

	s.mu.Lock()
	if current, ok := s.parameters[previous.String()]; !ok || current != p {
		s.mu.Unlock()
		return
	}
	if _, taken := s.parameters[name.String()]; taken || name.IsEmpty() {
		s.mu.Unlock()
		s.log().Error("Cannot rename parameter", "parameter", previous.String(), "name", name.String())
		return
	}
	delete(s.parameters, previous.String())
	s.parameters[name.String()] = p
	s.mu.Unlock()

	s.categorization.trigger()
}

// ParameterRecategorized moves p between categories.
func (s *Service) ParameterRecategorized(p parameter.Parameter, previous naming.FullCategory) {
	current := p.Category()

	s.mu.Lock()
	if _, ok := s.parameters[p.Name().String()]; !ok {
		s.mu.Unlock()
		return
	}
	from := s.categories[previous.Name]
	to := s.categoryLocked(current)
	s.mu.Unlock()

	if from != to {
		if from != nil {
			from.remove(p)
		}
		to.add(p)
	} else {
		to.changed()
	}

	s.categorization.trigger()
}

func (s *Service) fireCategorizationChanged() {
	s.guard("categorization", func() { s.OnCategorizationChanged.Fire(s) })
}

// Load reads every registered parameter from storage.
func (s *Service) Load(ctx context.Context) error {
	var errs []error
	for _, p := range s.Parameters() {
		errs = append(errs, s.load(ctx, p))
	}
	return errors.Join(errs...)
}

func (s *Service) load(ctx context.Context, p parameter.Parameter) error {
	raw, ok, err := s.storage.Load(ctx, p.Name())
	if err != nil {
		s.log().Warn("Failed to load parameter", "parameter", p.Name().String(), "error", err)
		return err
	}
	if !ok {
		return nil
	}

	if err := p.Deserialize(raw); err != nil {
		s.log().Warn("Failed to deserialize parameter", "parameter", p.Name().String(), "error", err)
		return err
	}
	return nil
}

// Save writes every registered parameter and every game state to storage.
func (s *Service) Save(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	var errs []error
	for _, p := range s.Parameters() {
		raw, err := p.Serialize()
		if err == nil {
			err = s.storage.Save(ctx, p.Name(), raw)
		}
		if err != nil {
			s.log().Warn("Failed to save parameter", "parameter", p.Name().String(), "error", err)
			errs = append(errs, err)
		}
	}

	errs = append(errs, s.SaveStates(ctx), storage.Flush(ctx, s.storage))
	return errors.Join(errs...)
}
