package eclipse_test

import (
	"testing"

	"github.com/darkjune/eclipse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initializedEngine(t *testing.T) *eclipse.Engine {
	t.Helper()

	rec := &recorder{}
	e := newEngine(eclipse.NewModule("core",
		eclipse.Provide[plain](),
		provide[alpha](rec, "a").As(eclipse.TypeOf[Labeled]()),
	))
	require.NoError(t, e.Initialize(t.Context()))
	return e
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("returns the service by concrete type", func(t *testing.T) {
		t.Parallel()

		e := initializedEngine(t)

		p, err := eclipse.Get[*plain](e)
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("returns the service by interface", func(t *testing.T) {
		t.Parallel()

		e := initializedEngine(t)

		l, err := eclipse.Get[Labeled](e)
		require.NoError(t, err)
		assert.Equal(t, "a", l.Label())
		assert.Same(t, eclipse.MustGet[*tracked[alpha]](e), l)
	})

	t.Run("when service is missing", func(t *testing.T) {
		t.Parallel()

		e := initializedEngine(t)

		_, err := eclipse.Get[*tracked[beta]](e)
		assert.ErrorIs(t, err, eclipse.ErrServiceNotFound)
	})
}

func TestMustGet(t *testing.T) {
	t.Parallel()

	e := initializedEngine(t)

	assert.NotPanics(t, func() { eclipse.MustGet[*plain](e) })
	assert.Panics(t, func() { eclipse.MustGet[*tracked[beta]](e) })
}

func TestTryGet(t *testing.T) {
	t.Parallel()

	e := initializedEngine(t)

	_, ok := eclipse.TryGet[*plain](e)
	assert.True(t, ok)

	missing, ok := eclipse.TryGet[*tracked[beta]](e)
	assert.False(t, ok)
	assert.Nil(t, missing)
}

func TestGetOrDefault(t *testing.T) {
	t.Parallel()

	e := initializedEngine(t)
	def := &tracked[beta]{label: "default"}

	assert.Same(t, def, eclipse.GetOrDefault(e, def))
	assert.Equal(t, "a", eclipse.GetOrDefault[Labeled](e, nil).Label())
}

func TestGetOrDefaultFn(t *testing.T) {
	t.Parallel()

	e := initializedEngine(t)

	t.Run("does not call fn when the service exists", func(t *testing.T) {
		t.Parallel()

		called := false
		eclipse.GetOrDefaultFn(e, func() *plain {
			called = true
			return nil
		})

		assert.False(t, called)
	})

	t.Run("calls fn when the service is missing", func(t *testing.T) {
		t.Parallel()

		s := eclipse.GetOrDefaultFn(e, func() *tracked[beta] {
			return &tracked[beta]{label: "fallback"}
		})

		assert.Equal(t, "fallback", s.Label())
	})
}
