package game

import "github.com/zeusync/vipers/internal/core/systems/physics"

// Event types published on the bus.
const (
	EventViperSpawned = "viper.spawned"
	EventViperDied    = "viper.died"
	EventFoodEaten    = "food.eaten"
)

// Death causes.
const (
	CauseWall  = "wall"
	CauseViper = "viper"
)

type ViperSpawned struct {
	ViperID  string       `json:"viper_id"`
	Position physics.Vec2 `json:"position"`
	Angle    float64      `json:"angle"`
}

type ViperDied struct {
	ViperID string `json:"viper_id"`
	Cause   string `json:"cause"`
	// KilledBy is the other viper for CauseViper.
	KilledBy string  `json:"killed_by,omitempty"`
	Length   float64 `json:"length"`
	Score    int     `json:"score"`
}

type FoodEaten struct {
	ViperID string       `json:"viper_id"`
	FoodID  string       `json:"food_id"`
	At      physics.Vec2 `json:"at"`
	Length  float64      `json:"length"`
}
