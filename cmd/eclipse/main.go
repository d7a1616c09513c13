package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkjune/eclipse"
	"github.com/darkjune/eclipse/pkg/configuration"
	"github.com/darkjune/eclipse/pkg/draw"
	"github.com/darkjune/eclipse/pkg/storage"
	"github.com/go-redis/redis/v8"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to an HCL engine config")
		storagePath = flag.String("storage", storage.DefaultConfigPath(), "path to the parameters file")
		redisAddr   = flag.String("redis", "", "store parameters in redis at this address instead of a file")
		volume      = flag.Float64("volume", -1, "set and apply the audio volume")
		mod         = flag.Bool("mod", false, "enable the mod replacing the audio service")
		plan        = flag.Bool("plan", false, "print the initialization plan as DOT and exit")
		serve       = flag.Bool("serve", false, "serve diagnostics until interrupted")
		debug       = flag.Bool("debug", false, "enable debug checks")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	config := eclipse.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = eclipse.LoadConfigFile(*configPath); err != nil {
			logger.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
	}
	config.Debug = config.Debug || *debug
	if !*mod {
		config.ExcludedModules = append(config.ExcludedModules, modModule.Name)
	}

	var store storage.Storage = storage.NewFile(*storagePath)
	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer client.Close()
		store = storage.NewRedis(client, "")
	}

	e := eclipse.New(
		configuration.Module(configuration.WithStorage(store)),
	).
		WithConfig(config).
		SetLogger(logger).
		Source(eclipse.StaticModules(audioModule, modModule))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer e.Unload(context.WithoutCancel(ctx), eclipse.UnloadEverything)

	if *plan {
		os.Stdout.Write(draw.RenderEngine(e))
		return
	}

	audio := eclipse.MustGet[Audio](e)
	if *volume >= 0 {
		audio.Volume().Set(*volume)
		eclipse.MustGet[*configuration.Service](e).Apply()
	}
	logger.Info("Audio ready", "service", audio.Describe(), "volume", audio.Volume().Value())

	if *serve {
		if err := e.RunDiagnostics(ctx); err != nil {
			logger.Error("Diagnostics server failed", "error", err)
		}
	}
}
