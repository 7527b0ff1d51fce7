package game

import "time"

// Metrics describes the tick loop so far.
type Metrics struct {
	Ticks           uint64
	Collisions      uint64
	TotalTickTime   time.Duration
	AverageTickTime time.Duration
	MaxTickTime     time.Duration
	MinTickTime     time.Duration
	DroppedDebt     time.Duration
	LastTick        time.Time
	VipersAlive     int
	FoodEaten       uint64
	Deaths          uint64
}

func (m *Metrics) observe(took time.Duration, collisions int) {
	m.Ticks++
	m.Collisions += uint64(collisions)
	m.TotalTickTime += took
	m.AverageTickTime = m.TotalTickTime / time.Duration(m.Ticks)
	if took > m.MaxTickTime {
		m.MaxTickTime = took
	}
	if m.MinTickTime == 0 || took < m.MinTickTime {
		m.MinTickTime = took
	}
	m.LastTick = time.Now()
}
