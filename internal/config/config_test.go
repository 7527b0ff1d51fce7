package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/viper"
)

const sample = `
log:
  level: debug
  encoding: console
simulation:
  seed: arena-7
  fixed_step: 20ms
  max_ticks_per_step: 4
  duration: 30s
  vipers: 6
arena:
  width: 400
  height: 300
viper:
  speed: 80
  boost_factor: 2
food:
  count: 5
spectator:
  enabled: true
  addr: 127.0.0.1:9000
  path: /feed
`

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "arena-7", cfg.Simulation.Seed)
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.FixedStep)
	assert.Equal(t, 30*time.Second, cfg.Simulation.Duration)
	assert.Equal(t, 6, cfg.Simulation.Vipers)
	assert.Equal(t, 400.0, cfg.Arena.Width)
	assert.Equal(t, 80.0, cfg.Viper.Speed)
	assert.Equal(t, 2.0, cfg.Viper.BoostFactor)
	assert.Equal(t, "/feed", cfg.Spectator.Path)

	// untouched keys keep their defaults
	def := Default()
	assert.Equal(t, def.Arena.WallThickness, cfg.Arena.WallThickness)
	assert.Equal(t, def.Viper.Width, cfg.Viper.Width)
	assert.Equal(t, def.Food.Radius, cfg.Food.Radius)
	assert.Equal(t, def.Spectator.Period, cfg.Spectator.Period)

	lc := cfg.LoggerConfig()
	assert.Equal(t, log.LevelDebug, lc.Level)
	assert.Equal(t, "console", lc.Encoding)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("arena:\n  depth: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"level":     "log:\n  level: loud\n",
		"encoding":  "log:\n  encoding: xml\n",
		"step":      "simulation:\n  fixed_step: 0s\n",
		"ticks":     "simulation:\n  max_ticks_per_step: 0\n",
		"narrow":    "arena:\n  width: 15\n",
		"attempts":  "arena:\n  spawn_attempts: 0\n",
		"radius":    "food:\n  radius: 0\n",
		"spec path": "spectator:\n  enabled: true\n  path: feed\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			require.Error(t, err)
		})
	}

	_, err := Load(strings.NewReader("food:\n  count: -1\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(strings.NewReader("viper:\n  speed: 0\n"))
	assert.ErrorIs(t, err, viper.ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vipers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "arena-7", cfg.Simulation.Seed)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
