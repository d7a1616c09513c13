package configuration_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darkjune/eclipse"
	"github.com/darkjune/eclipse/pkg/configuration"
	"github.com/darkjune/eclipse/pkg/naming"
	"github.com/darkjune/eclipse/pkg/parameter"
	"github.com/darkjune/eclipse/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	volumeName  = naming.NewFullName("core", "volume")
	qualityName = naming.NewFullName("core", "quality")
)

func newService(opts ...configuration.Option) *configuration.Service {
	settings := configuration.DefaultSettings()
	settings.AutoSave = false
	settings.CategorizationDelay = 10 * time.Millisecond

	return configuration.New(append([]configuration.Option{
		configuration.WithSettings(settings),
		configuration.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)...)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("registers and finds parameters", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)

		assert.True(t, s.Register(t.Context(), volume))

		found, ok := s.Find(volumeName)
		require.True(t, ok)
		assert.Same(t, volume, found)

		typed, err := configuration.FindTyped[float64](s, volumeName)
		require.NoError(t, err)
		assert.Same(t, volume, typed)
	})

	t.Run("ignores parameters without name", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		s := newService(configuration.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

		assert.False(t, s.Register(t.Context(), parameter.New(naming.FullName{}, 1)))
		assert.False(t, s.Register(t.Context(), parameter.New(naming.NewFullName("core", "  "), 1)))
		assert.Empty(t, s.Parameters())
		assert.Contains(t, logs.String(), `level=WARN msg="Ignoring parameter without name"`)
		assert.NotContains(t, logs.String(), "level=ERROR")
	})

	t.Run("keeps the first registration", func(t *testing.T) {
		t.Parallel()

		s := newService()
		first := parameter.New(volumeName, 0.5)

		assert.True(t, s.Register(t.Context(), first))
		assert.False(t, s.Register(t.Context(), parameter.New(volumeName, 0.7)))

		found, _ := s.Find(volumeName)
		assert.Same(t, first, found)
		assert.Len(t, s.Parameters(), 1)
	})

	t.Run("when parameter is missing", func(t *testing.T) {
		t.Parallel()

		s := newService()

		_, err := s.FindOrError(volumeName)
		assert.ErrorIs(t, err, configuration.ErrParameterNotFound)
	})

	t.Run("when parameter has another type", func(t *testing.T) {
		t.Parallel()

		s := newService()
		s.Register(t.Context(), parameter.New(volumeName, 0.5))

		_, err := configuration.FindTyped[int](s, volumeName)
		assert.ErrorIs(t, err, configuration.ErrParameterTypeMismatch)
	})

	t.Run("renaming moves the registry key", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)

		volume.SetName(volumeName.WithName("master"))

		_, ok := s.Find(volumeName)
		assert.False(t, ok)
		found, ok := s.Find(naming.NewFullName("core", "master"))
		assert.True(t, ok)
		assert.Same(t, volume, found)
	})

	t.Run("renaming onto a taken name keeps the previous key", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)
		s.Register(t.Context(), parameter.New(qualityName, 1))

		volume.SetName(qualityName)

		found, ok := s.Find(volumeName)
		assert.True(t, ok)
		assert.Same(t, volume, found)
	})
}

func TestService_ApplyRevert(t *testing.T) {
	t.Parallel()

	t.Run("apply commits dirty parameters between broadcast events", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)

		var events []string
		s.OnBeforeApply.Subscribe(func(*configuration.Service) { events = append(events, "before") })
		volume.ValueApplied.Subscribe(func(parameter.Change[float64]) { events = append(events, "applied") })
		s.OnAfterApply.Subscribe(func(*configuration.Service) { events = append(events, "after") })

		s.Apply()
		assert.Empty(t, events)

		volume.Set(0.8)
		assert.True(t, s.IsDirty())

		s.Apply()

		assert.Equal(t, []string{"before", "applied", "after"}, events)
		assert.False(t, s.IsDirty())
		assert.False(t, volume.IsDirty())
	})

	t.Run("revert restores applied values", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)

		reverted := 0
		s.OnAfterRevert.Subscribe(func(*configuration.Service) { reverted++ })

		volume.Set(0.8)
		s.Revert()

		assert.InDelta(t, 0.5, volume.Value(), 0)
		assert.False(t, s.IsDirty())
		assert.Equal(t, 1, reverted)
	})

	t.Run("force callbacks fire for clean parameters", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)

		applied := 0
		volume.ValueApplied.Subscribe(func(parameter.Change[float64]) { applied++ })

		s.ApplyForceCallbacks()
		s.RevertForceCallbacks()

		assert.Equal(t, 2, applied)
	})

	t.Run("survives panicking subscribers", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)
		s.OnBeforeApply.Subscribe(func(*configuration.Service) { panic("boom") })

		volume.Set(0.9)
		s.Apply()

		assert.False(t, volume.IsDirty())
	})

	t.Run("auto apply commits on change", func(t *testing.T) {
		t.Parallel()

		settings := configuration.DefaultSettings()
		settings.AutoApply = true
		settings.AutoSave = false
		s := configuration.New(configuration.WithSettings(settings))

		volume := parameter.New(volumeName, 0.5)
		s.Register(t.Context(), volume)

		var events []string
		volume.ValueChanged.Subscribe(func(parameter.Change[float64]) { events = append(events, "changed") })
		volume.ValueApplied.Subscribe(func(parameter.Change[float64]) { events = append(events, "applied") })

		volume.Set(0.1)

		assert.False(t, volume.IsDirty())
		assert.False(t, s.IsDirty())
		assert.Equal(t, []string{"changed", "applied"}, events)
	})
}

func TestService_Categories(t *testing.T) {
	t.Parallel()

	t.Run("groups parameters by category order", func(t *testing.T) {
		t.Parallel()

		s := newService()
		audio := naming.NewCategory("Audio")
		volume := parameter.New(volumeName, 0.5).WithCategory(audio.WithOrder(2))
		music := parameter.New(naming.NewFullName("core", "music"), 0.5).WithCategory(audio.WithOrder(1))
		quality := parameter.New(qualityName, 1)

		s.Register(t.Context(), volume)
		s.Register(t.Context(), music)
		s.Register(t.Context(), quality)

		category, ok := s.TryGetCategory("Audio")
		require.True(t, ok)
		assert.Equal(t, []parameter.Parameter{music, volume}, category.Parameters())

		uncategorized, ok := s.TryGetCategory("")
		require.True(t, ok)
		assert.Equal(t, naming.DefaultCategory, uncategorized.Name())
		assert.Len(t, s.Categories(), 2)

		_, ok = s.TryGetCategory("Video")
		assert.False(t, ok)
	})

	t.Run("moves recategorized parameters", func(t *testing.T) {
		t.Parallel()

		s := newService()
		volume := parameter.New(volumeName, 0.5).WithCategory(naming.NewCategory("Audio"))
		s.Register(t.Context(), volume)

		audio, _ := s.TryGetCategory("Audio")
		changes := 0
		audio.OnParameterListChanged.Subscribe(func(*configuration.Category) { changes++ })

		volume.SetCategory(naming.NewCategory("Sound"))

		sound, ok := s.TryGetCategory("Sound")
		require.True(t, ok)
		assert.Equal(t, 0, audio.Len())
		assert.Equal(t, 1, sound.Len())
		assert.Equal(t, 1, changes)
	})

	t.Run("debounces categorization changes", func(t *testing.T) {
		t.Parallel()

		s := newService()
		var fired atomic.Int32
		s.OnCategorizationChanged.Subscribe(func(*configuration.Service) { fired.Add(1) })

		for i := range 5 {
			s.Register(t.Context(), parameter.New(naming.NewFullName("core", string(rune('a'+i))), i))
		}

		assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(1), fired.Load())
	})
}

type progress struct {
	Level int `json:"level"`
}

func TestState(t *testing.T) {
	t.Parallel()

	t.Run("returns the same object", func(t *testing.T) {
		t.Parallel()

		s := newService()

		a := configuration.State[progress](t.Context(), s)
		a.Level = 3

		assert.Same(t, a, configuration.State[progress](t.Context(), s))
	})

	t.Run("saves states as json", func(t *testing.T) {
		t.Parallel()

		mem := storage.NewMemory()
		s := newService(configuration.WithStorage(mem))
		configuration.State[progress](t.Context(), s).Level = 7

		require.NoError(t, s.SaveStates(t.Context()))

		assert.Equal(t, 1, mem.Len())
	})
}

type audioService struct {
	Volume *parameter.Value[float64]
	Mode   *parameter.Value[int8]

	applied []float64
}

func (a *audioService) Initialize(ctx context.Context) error {
	config := eclipse.MustGet[*configuration.Service](eclipse.FromContext(ctx))

	a.Volume = parameter.New(volumeName, 0.5)
	a.Volume.ValueApplied.Subscribe(func(c parameter.Change[float64]) { a.applied = append(a.applied, c.New) })
	a.Mode = parameter.NewEnum(qualityName, int8(1))

	config.Register(ctx, a.Volume)
	config.Register(ctx, a.Mode)
	return nil
}

func TestService_Engine(t *testing.T) {
	t.Parallel()

	t.Run("loads, applies and saves parameters over the engine lifecycle", func(t *testing.T) {
		t.Parallel()

		mem := storage.NewMemory()
		require.NoError(t, mem.Save(t.Context(), volumeName, "0.25"))

		settings := configuration.DefaultSettings()
		settings.AutoSave = false

		e := eclipse.New(
			configuration.Module(configuration.WithStorage(mem), configuration.WithSettings(settings)),
			eclipse.NewModule("audio", eclipse.Provide[audioService]()),
		).SetLogger(slog.New(slog.DiscardHandler))

		require.NoError(t, e.Initialize(t.Context()))
		require.Equal(t, 0, e.Failures())

		audio := eclipse.MustGet[*audioService](e)
		assert.InDelta(t, 0.25, audio.Volume.Value(), 0)
		assert.False(t, audio.Volume.IsDirty())
		assert.Equal(t, []float64{0.25}, audio.applied)

		config := eclipse.MustGet[*configuration.Service](e)
		assert.Equal(t, eclipse.ServiceDescriptor{InitializationOrder: configuration.InitializationOrder}, e.Plan()[0].Descriptor)
		assert.False(t, config.IsDirty())

		audio.Mode.Set(-1)
		config.Apply()
		e.Unload(t.Context(), eclipse.UnloadEverything)

		raw, ok, err := mem.Load(t.Context(), qualityName)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "3+", raw)
	})

	t.Run("when settings are invalid", func(t *testing.T) {
		t.Parallel()

		settings := configuration.DefaultSettings()
		settings.AutoSaveDelay = time.Millisecond

		e := eclipse.New(configuration.Module(configuration.WithSettings(settings)))

		require.NoError(t, e.Initialize(t.Context()))
		assert.Equal(t, 1, e.Failures())
	})

	t.Run("when autosave is off the delay is not checked", func(t *testing.T) {
		t.Parallel()

		settings := configuration.Settings{AutoApply: true, CategorizationDelay: time.Millisecond}
		require.NoError(t, settings.Validate())

		settings.AutoSaveDelay = time.Millisecond
		require.NoError(t, settings.Validate())

		e := eclipse.New(
			configuration.Module(configuration.WithSettings(settings)),
			eclipse.NewModule("audio", eclipse.Provide[audioService]()),
		).SetLogger(slog.New(slog.DiscardHandler))

		require.NoError(t, e.Initialize(t.Context()))
		assert.Equal(t, 0, e.Failures())
		assert.Equal(t, []float64{0.5}, eclipse.MustGet[*audioService](e).applied)

		settings.AutoSave = true
		assert.Error(t, settings.Validate())
	})

	t.Run("saves automatically", func(t *testing.T) {
		t.Parallel()

		mem := storage.NewMemory()
		settings := configuration.DefaultSettings()
		settings.AutoSaveDelay = configuration.MinAutoSaveDelay

		e := eclipse.New(
			configuration.Module(configuration.WithStorage(mem), configuration.WithSettings(settings)),
			eclipse.NewModule("audio", eclipse.Provide[audioService]()),
		)
		require.NoError(t, e.Initialize(t.Context()))
		t.Cleanup(func() { e.Unload(context.Background(), eclipse.UnloadEverything) })

		assert.Eventually(t, func() bool {
			_, ok, _ := mem.Load(t.Context(), qualityName)
			return ok
		}, 3*time.Second, 50*time.Millisecond)
	})
}
