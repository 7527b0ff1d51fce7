package game

import (
	"time"

	"github.com/zeusync/vipers/internal/core/viper"
)

// Config sizes the arena and drives the fixed-step loop.
type Config struct {
	Seed            string
	FixedStep       time.Duration
	MaxTicksPerStep int
	Vipers          int

	Width         float64
	Height        float64
	WallThickness float64
	SpawnAttempts int

	Viper viper.Config

	FoodCount  int
	FoodRadius float64
	FoodGrowth float64
}
