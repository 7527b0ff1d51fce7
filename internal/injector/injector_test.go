package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vipers/internal/config"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	assert.Nil(t, app.Spectator)
	assert.Equal(t, cfg.Simulation.Vipers, app.Scene.Alive())
	assert.Equal(t, uint64(cfg.Simulation.Vipers), app.Bus.Metrics().Published)

	cfg.Spectator.Enabled = true
	app, err = InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Spectator)
	assert.Zero(t, app.Spectator.Stats().Clients)
}

func TestInitializeAppFailsWithoutRoom(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Arena.Width, cfg.Arena.Height = 40, 40
	cfg.Simulation.Vipers = 1

	_, err := InitializeApp(cfg)
	require.Error(t, err)
}

func TestProvideSceneConfig(t *testing.T) {
	cfg := config.Default()
	sc := ProvideSceneConfig(cfg)
	assert.Equal(t, cfg.Simulation.FixedStep, sc.FixedStep)
	assert.Equal(t, cfg.Arena.Width, sc.Width)
	assert.Equal(t, cfg.Food.Growth, sc.FoodGrowth)
	assert.Equal(t, cfg.Viper, sc.Viper)
}
