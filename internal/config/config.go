// Package config loads the runner configuration from YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/viper"
)

// Config is the root document.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Simulation SimulationConfig `yaml:"simulation"`
	Arena      ArenaConfig      `yaml:"arena"`
	Viper      viper.Config     `yaml:"viper"`
	Food       FoodConfig       `yaml:"food"`
	Spectator  SpectatorConfig  `yaml:"spectator"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
}

// SimulationConfig drives the fixed-step loop. A zero Duration runs until
// interrupted or until every viper is dead.
type SimulationConfig struct {
	Seed            string        `yaml:"seed"`
	FixedStep       time.Duration `yaml:"fixed_step"`
	MaxTicksPerStep int           `yaml:"max_ticks_per_step"`
	Duration        time.Duration `yaml:"duration"`
	Vipers          int           `yaml:"vipers"`
}

type ArenaConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	WallThickness float64 `yaml:"wall_thickness"`
	SpawnAttempts int     `yaml:"spawn_attempts"`
}

type FoodConfig struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	// Growth is the temporal length in seconds one food item adds.
	Growth float64 `yaml:"growth"`
}

// SpectatorConfig controls the websocket feed. An empty Token lets anyone
// watch; MaxClients of zero means no limit.
type SpectatorConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Addr       string        `yaml:"addr"`
	Path       string        `yaml:"path"`
	Period     time.Duration `yaml:"period"`
	Token      string        `yaml:"token"`
	MaxClients int           `yaml:"max_clients"`
}

// Default returns a runnable configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Encoding: "json"},
		Simulation: SimulationConfig{
			Seed:            "vipers",
			FixedStep:       time.Second / 60,
			MaxTicksPerStep: 8,
			Vipers:          4,
		},
		Arena: ArenaConfig{
			Width:         800,
			Height:        600,
			WallThickness: 10,
			SpawnAttempts: 64,
		},
		Viper: viper.DefaultConfig(),
		Food: FoodConfig{
			Count:  20,
			Radius: 4,
			Growth: 0.2,
		},
		Spectator: SpectatorConfig{
			Addr:   ":8080",
			Path:   "/ws",
			Period: 100 * time.Millisecond,
		},
	}
}

// Load decodes YAML on top of Default and validates the result.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the file at path.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load %s", path)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return invalid("log.encoding", c.Log.Encoding)
	}

	s := c.Simulation
	if s.FixedStep <= 0 {
		return invalid("simulation.fixed_step", s.FixedStep)
	}
	if s.MaxTicksPerStep < 1 {
		return invalid("simulation.max_ticks_per_step", s.MaxTicksPerStep)
	}
	if s.Duration < 0 {
		return invalid("simulation.duration", s.Duration)
	}
	if s.Vipers < 0 {
		return invalid("simulation.vipers", s.Vipers)
	}

	a := c.Arena
	if a.WallThickness <= 0 {
		return invalid("arena.wall_thickness", a.WallThickness)
	}
	if a.Width <= 2*a.WallThickness {
		return invalid("arena.width", a.Width)
	}
	if a.Height <= 2*a.WallThickness {
		return invalid("arena.height", a.Height)
	}
	if a.SpawnAttempts < 1 {
		return invalid("arena.spawn_attempts", a.SpawnAttempts)
	}

	if err := c.Viper.Validate(); err != nil {
		return err
	}

	f := c.Food
	if f.Count < 0 {
		return invalid("food.count", f.Count)
	}
	if f.Radius <= 0 {
		return invalid("food.radius", f.Radius)
	}
	if f.Growth < 0 {
		return invalid("food.growth", f.Growth)
	}

	if c.Spectator.Enabled {
		if c.Spectator.Addr == "" {
			return invalid("spectator.addr", c.Spectator.Addr)
		}
		if c.Spectator.Path == "" || c.Spectator.Path[0] != '/' {
			return invalid("spectator.path", c.Spectator.Path)
		}
		if c.Spectator.Period <= 0 {
			return invalid("spectator.period", c.Spectator.Period)
		}
		if c.Spectator.MaxClients < 0 {
			return invalid("spectator.max_clients", c.Spectator.MaxClients)
		}
	}
	return nil
}

// LoggerConfig maps the log section onto the logger.
func (c Config) LoggerConfig() log.Config {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Config{Level: level, Encoding: c.Log.Encoding, Development: c.Log.Development}
}

func invalid(key string, value any) error {
	return fmt.Errorf("%s: bad value %v: %w", key, value, ErrInvalid)
}
