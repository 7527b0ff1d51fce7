package game

import (
	"math"

	"github.com/zeusync/vipers/internal/core/systems/physics"
)

// Snapshot is a JSON view of the scene at one tick.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Time   float64     `json:"time"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Vipers []ViperView `json:"vipers"`
	Food   []FoodView  `json:"food"`
}

type ViperView struct {
	ID        string         `json:"id"`
	Alive     bool           `json:"alive"`
	Score     int            `json:"score"`
	Length    float64        `json:"length"`
	ArcLength float64        `json:"arc_length"`
	Angle     float64        `json:"angle"`
	Width     float64        `json:"width"`
	Body      []physics.Vec2 `json:"body"`
}

type FoodView struct {
	ID       string       `json:"id"`
	Position physics.Vec2 `json:"position"`
	Radius   float64      `json:"radius"`
}

// Snapshot samples every live viper's body and lists the food. Dead vipers
// are reported without a body.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tick:   s.tick,
		Time:   s.now,
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
		Vipers: make([]ViperView, 0, len(s.players)),
		Food:   make([]FoodView, 0, len(s.foods)),
	}
	for _, p := range s.players {
		v := p.viper
		view := ViperView{
			ID:     v.ID(),
			Alive:  v.Alive(),
			Score:  p.score,
			Length: v.TemporalLength(),
			Angle:  v.Angle(),
			Width:  v.Config().Width,
		}
		if view.Alive {
			n := int(math.Ceil(v.TemporalLength()/v.Config().SegmentDuration)) + 1
			view.Body = v.Sample(n)
			view.ArcLength = v.ArcLength()
		}
		snap.Vipers = append(snap.Vipers, view)
	}
	for _, f := range s.foods {
		c := f.circle()
		snap.Food = append(snap.Food, FoodView{ID: f.id, Position: c.Center, Radius: c.Radius})
	}
	return snap
}
