package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darkjune/eclipse"
	"github.com/darkjune/eclipse/pkg/configuration"
	"github.com/darkjune/eclipse/pkg/naming"
	"github.com/darkjune/eclipse/pkg/parameter"
)

var volumeName = naming.NewFullName("audio", "volume")

// Audio is the service other services look the audio backend up by.
type Audio interface {
	Volume() *parameter.Value[float64]
	Describe() string
}

var audioModule = eclipse.NewModule("audio",
	eclipse.Provide[mixer]().As(eclipse.TypeOf[Audio]()),
	eclipse.Preload[*mixer](func(ctx context.Context) error {
		eclipse.FromContext(ctx).Logger().Debug("Preparing audio device")
		return nil
	}).Named("prepare-device"),
	eclipse.Afterload[*mixer](func(ctx context.Context) error {
		audio := eclipse.MustGet[Audio](eclipse.FromContext(ctx))
		eclipse.FromContext(ctx).Logger().Info("Audio loaded", "service", audio.Describe())
		return nil
	}).Named("announce"),
)

var modModule = eclipse.NewModule("surround-mod",
	eclipse.Provide[surround]().
		Replaces(eclipse.TypeOf[*mixer]()).
		As(eclipse.TypeOf[Audio]()),
)

type mixer struct {
	volume *parameter.Value[float64]
}

func (m *mixer) Initialize(ctx context.Context) error {
	m.volume = registerVolume(ctx, "stereo")
	return nil
}

func (m *mixer) Volume() *parameter.Value[float64] {
	return m.volume
}

func (m *mixer) Describe() string {
	return "stereo mixer"
}

type surround struct {
	mixer

	channels int
}

func (s *surround) Initialize(ctx context.Context) error {
	s.channels = 6
	s.volume = registerVolume(ctx, "surround")
	return nil
}

func (s *surround) Describe() string {
	return fmt.Sprintf("surround mixer, %d channels", s.channels)
}

func registerVolume(ctx context.Context, backend string) *parameter.Value[float64] {
	e := eclipse.FromContext(ctx)
	volume := parameter.New(volumeName, 0.8).
		WithCategory(naming.NewFullCategory("Audio", 10, true))
	volume.ValueApplied.Subscribe(func(c parameter.Change[float64]) {
		e.Logger().Info("Volume applied", slog.String("backend", backend),
			slog.Float64("from", c.Old), slog.Float64("volume", c.New))
	})

	eclipse.MustGet[*configuration.Service](e).Register(ctx, volume)
	return volume
}
