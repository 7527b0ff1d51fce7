package game

import (
	"math"
	"math/rand/v2"

	"github.com/zeusync/vipers/internal/core/systems/physics"
	"github.com/zeusync/vipers/internal/core/viper"
)

// Steerer supplies steering for one viper, once per tick.
type Steerer interface {
	Steer(v *viper.Viper) viper.Steering
}

// SteererFunc adapts a function to Steerer.
type SteererFunc func(v *viper.Viper) viper.Steering

func (f SteererFunc) Steer(v *viper.Viper) viper.Steering { return f(v) }

// WanderSteerer drifts randomly and turns back toward the center once the
// head leaves the safe zone.
type WanderSteerer struct {
	rng    *rand.Rand
	turn   float64
	safe   physics.Bounds
	center physics.Vec2
}

// NewWanderSteerer builds a steerer whose choices depend only on seed.
func NewWanderSteerer(seed uint64, safe physics.Bounds) *WanderSteerer {
	return &WanderSteerer{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		safe:   safe,
		center: safe.Min.Add(safe.Max).Mul(0.5),
	}
}

func (w *WanderSteerer) Steer(v *viper.Viper) viper.Steering {
	head := v.Head()
	if !w.safe.Contains(head) {
		w.turn = turnToward(v.Angle(), physics.Angle(w.center.Sub(head)))
		return viper.Steering{Turn: w.turn}
	}
	w.turn = math.Max(-1, math.Min(1, w.turn+(w.rng.Float64()*2-1)*0.3))
	return viper.Steering{Turn: w.turn, Boost: w.rng.IntN(50) == 0}
}

// turnToward returns full turn in the direction of the shorter arc.
func turnToward(from, to float64) float64 {
	diff := math.Remainder(to-from, 2*math.Pi)
	switch {
	case diff > 0.05:
		return 1
	case diff < -0.05:
		return -1
	default:
		return 0
	}
}
