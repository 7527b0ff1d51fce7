package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/vipers/internal/config"
	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	seed := flag.String("seed", "", "override simulation.seed")
	vipers := flag.Int("vipers", -1, "override simulation.vipers")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "vipers:", err)
			os.Exit(2)
		}
	}
	if *seed != "" {
		cfg.Simulation.Seed = *seed
	}
	if *vipers >= 0 {
		cfg.Simulation.Vipers = *vipers
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vipers:", err)
		os.Exit(1)
	}
	err = run(app)
	if err != nil {
		app.Logger.Error("runner failed", log.Error(err))
	}
	app.Scene.Close()
	_ = app.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(app *injector.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := app.Config.Simulation.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	// the feed stops with the scene
	sceneCtx, sceneDone := context.WithCancel(ctx)
	defer sceneDone()

	g, gctx := errgroup.WithContext(sceneCtx)
	g.Go(func() error {
		defer sceneDone()
		ticker := time.NewTicker(app.Config.Simulation.FixedStep)
		defer ticker.Stop()
		return app.Scene.Run(gctx, ticker.C)
	})
	if app.Spectator != nil {
		g.Go(func() error { return app.Spectator.Run(gctx) })
	}

	app.Logger.Info("simulation started",
		log.String("seed", app.Config.Simulation.Seed),
		log.Int("vipers", app.Scene.Alive()),
		log.Duration("fixed_step", app.Config.Simulation.FixedStep))

	err := g.Wait()

	m := app.Scene.Metrics()
	app.Logger.Info("simulation finished",
		log.Uint64("ticks", m.Ticks),
		log.Uint64("collisions", m.Collisions),
		log.Uint64("food_eaten", m.FoodEaten),
		log.Uint64("deaths", m.Deaths),
		log.Int("alive", m.VipersAlive),
		log.Duration("avg_tick", m.AverageTickTime),
		log.Duration("max_tick", m.MaxTickTime),
		log.Duration("dropped_debt", m.DroppedDebt))
	return err
}
