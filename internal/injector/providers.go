// Package injector assembles the runner from configuration.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/vipers/internal/config"
	"github.com/zeusync/vipers/internal/core/events/bus"
	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/game"
	"github.com/zeusync/vipers/internal/server"
)

// App is everything the runner needs. Spectator is nil when the feed is
// disabled.
type App struct {
	Config    config.Config
	Logger    log.Log
	Bus       bus.EventBus
	Scene     *game.Scene
	Spectator *server.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideSceneConfig,
	ProvideScene,
	ProvideSpectator,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) log.Log {
	return log.NewWithConfig(cfg.LoggerConfig())
}

func ProvideBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger))
	return b
}

func ProvideSceneConfig(cfg config.Config) game.Config {
	return game.Config{
		Seed:            cfg.Simulation.Seed,
		FixedStep:       cfg.Simulation.FixedStep,
		MaxTicksPerStep: cfg.Simulation.MaxTicksPerStep,
		Vipers:          cfg.Simulation.Vipers,
		Width:           cfg.Arena.Width,
		Height:          cfg.Arena.Height,
		WallThickness:   cfg.Arena.WallThickness,
		SpawnAttempts:   cfg.Arena.SpawnAttempts,
		Viper:           cfg.Viper,
		FoodCount:       cfg.Food.Count,
		FoodRadius:      cfg.Food.Radius,
		FoodGrowth:      cfg.Food.Growth,
	}
}

// ProvideScene builds the arena and spawns the configured vipers.
func ProvideScene(cfg game.Config, logger log.Log, events bus.EventBus) (*game.Scene, error) {
	scene, err := game.New(cfg, logger, events)
	if err != nil {
		return nil, err
	}
	if err := scene.Populate(); err != nil {
		return nil, err
	}
	return scene, nil
}

// ProvideSpectator returns nil when the feed is disabled.
func ProvideSpectator(cfg config.Config, scene *game.Scene, events bus.EventBus, logger log.Log) (*server.Server, error) {
	sc := cfg.Spectator
	if !sc.Enabled {
		return nil, nil
	}
	srv, err := server.New(server.Config{
		Addr:       sc.Addr,
		Path:       sc.Path,
		Period:     sc.Period,
		MaxClients: sc.MaxClients,
		Auth:       server.TokenAuth{Token: sc.Token},
	}, scene, logger)
	if err != nil {
		return nil, err
	}
	if _, err := srv.Forward(events, game.EventViperSpawned, game.EventViperDied, game.EventFoodEaten); err != nil {
		return nil, err
	}
	return srv, nil
}
