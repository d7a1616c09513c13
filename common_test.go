package eclipse_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/darkjune/eclipse"
	"github.com/stretchr/testify/mock"
)

var (
	errTest = errors.New("test error")
)

// recorder collects lifecycle events from services and hooks.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

func (r *recorder) hook(event string) eclipse.HookFn {
	return func(context.Context) error {
		r.add(event)
		return nil
	}
}

// Labeled is implemented by every tracked service.
type Labeled interface {
	Label() string
}

type (
	alpha struct{}
	beta  struct{}
	gamma struct{}
	delta struct{}
)

// tracked is a service recording its lifecycle. N only makes distinct service types.
type tracked[N any] struct {
	label  string
	rec    *recorder
	onInit func(ctx context.Context) error
}

func (s *tracked[N]) Label() string {
	return s.label
}

func (s *tracked[N]) Initialize(ctx context.Context) error {
	s.rec.add("init:" + s.label)
	if s.onInit != nil {
		return s.onInit(ctx)
	}
	return nil
}

func (s *tracked[N]) Unload(ctx context.Context) error {
	if eclipse.UnloadSettingsFromContext(ctx).UnloadAssets {
		s.rec.add("unload-all:" + s.label)
		return nil
	}
	s.rec.add("unload:" + s.label)
	return nil
}

func provide[N any](rec *recorder, label string) *eclipse.ServiceProvider[tracked[N]] {
	return provideWith[N](rec, label, nil)
}

func provideWith[N any](rec *recorder, label string, onInit func(ctx context.Context) error) *eclipse.ServiceProvider[tracked[N]] {
	return eclipse.ProvideFn(func() *tracked[N] {
		return &tracked[N]{label: label, rec: rec, onInit: onInit}
	})
}

// MockService is a service with mocked lifecycle methods.
type MockService struct {
	mock.Mock
}

func (m *MockService) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockService) Unload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// plain has no lifecycle methods.
type plain struct {
	value int
}

func newEngine(modules ...*eclipse.Module) *eclipse.Engine {
	return eclipse.New(modules...).
		SetLogger(slog.New(slog.DiscardHandler))
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
