package viper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vipers/internal/core/systems/collision"
	"github.com/zeusync/vipers/internal/core/systems/physics"
)

func testConfig() Config {
	return Config{
		Speed:           10,
		BoostFactor:     2,
		TurnRate:        math.Pi,
		Width:           2,
		HeadDuration:    0.1,
		SegmentDuration: 0.25,
		InitialLength:   1,
		MinLength:       0.5,
		BoostCost:       0.5,
		GrowthRate:      0.5,
	}
}

func newViper(t *testing.T) *Viper {
	t.Helper()
	v, err := New(testConfig(), physics.V2(0, 0), 0, 10, WithID("v1"))
	require.NoError(t, err)
	return v
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, testConfig().Validate())

	cases := map[string]func(*Config){
		"speed":        func(c *Config) { c.Speed = 0 },
		"boost":        func(c *Config) { c.BoostFactor = 0.5 },
		"width":        func(c *Config) { c.Width = -1 },
		"head":         func(c *Config) { c.HeadDuration = 0 },
		"segment":      func(c *Config) { c.SegmentDuration = 0 },
		"min length":   func(c *Config) { c.MinLength = 0.05 },
		"initial":      func(c *Config) { c.InitialLength = 0.2 },
		"growth zero":  func(c *Config) { c.GrowthRate = 0 },
		"growth large": func(c *Config) { c.GrowthRate = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	_, err := New(Config{}, physics.V2(0, 0), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewSeedsStraightBody(t *testing.T) {
	v := newViper(t)

	assert.Equal(t, "v1", v.ID())
	assert.Equal(t, "v1", v.Collider().ID())
	assert.Same(t, v, v.Collider().Tag())
	assert.True(t, v.Alive())
	assert.True(t, v.Collider().Active())
	assert.Equal(t, 2, v.Track().Len())

	tail, ok := v.Track().Tail()
	require.True(t, ok)
	assert.InDelta(t, -10, tail.Position.X(), 1e-9)
	assert.InDelta(t, 9, tail.Time, 1e-9)
	assert.InDelta(t, 10, v.ArcLength(), 1e-9)
}

func TestSegmentLayout(t *testing.T) {
	v := newViper(t)
	c := v.Collider()

	// head 0.1s then 0.25s pieces down to 1s: 0.1, 0.35, 0.6, 0.85, 1.0
	require.Equal(t, 5, c.Len())
	assert.True(t, c.SegmentActive(HeadSegment))
	for i := 1; i < c.Len(); i++ {
		assert.False(t, c.SegmentActive(i), "segment %d", i)
	}

	head := c.Segment(HeadSegment).Bounds()
	assert.InDelta(t, -1, head.Min.X(), 1e-9)
	assert.InDelta(t, 0, head.Max.X(), 1e-9)
	assert.InDelta(t, -1, head.Min.Y(), 1e-9)
	assert.InDelta(t, 1, head.Max.Y(), 1e-9)

	b := c.Bounds()
	assert.InDelta(t, -10, b.Min.X(), 1e-9)
	assert.InDelta(t, 0, b.Max.X(), 1e-9)
}

func TestTickMovesHeadAndTrims(t *testing.T) {
	v := newViper(t)

	for range 30 {
		require.NoError(t, v.Tick(0.1, Steering{}))
	}
	assert.InDelta(t, 30, v.Head().X(), 1e-9)
	assert.InDelta(t, 0, v.Head().Y(), 1e-9)
	assert.InDelta(t, 13, v.Now(), 1e-9)

	// a one second body covers ten pushes plus the bracketing sample
	assert.LessOrEqual(t, v.Track().Len(), 12)
	tail, _ := v.Track().Tail()
	assert.LessOrEqual(t, tail.Time, v.Now()-v.TemporalLength())
	assert.InDelta(t, 10, v.ArcLength(), 1e-9)
}

func TestTickRejectsBadStep(t *testing.T) {
	v := newViper(t)
	assert.ErrorIs(t, v.Tick(0, Steering{}), ErrInvalidStep)
	assert.ErrorIs(t, v.Tick(-1, Steering{}), ErrInvalidStep)
	assert.ErrorIs(t, v.Tick(math.NaN(), Steering{}), ErrInvalidStep)
	assert.InDelta(t, 10, v.Now(), 1e-9)
}

func TestSteeringIsClamped(t *testing.T) {
	a := newViper(t)
	b := newViper(t)

	require.NoError(t, a.Tick(0.1, Steering{Turn: 1}))
	require.NoError(t, b.Tick(0.1, Steering{Turn: 50}))
	assert.InDelta(t, math.Pi*0.1, a.Angle(), 1e-9)
	assert.InDelta(t, a.Angle(), b.Angle(), 1e-12)
	assert.True(t, physics.ApproxEqual(a.Head(), b.Head(), 1e-12))

	c := newViper(t)
	require.NoError(t, c.Tick(0.1, Steering{Turn: math.NaN()}))
	assert.InDelta(t, 0, c.Angle(), 1e-12)
}

func TestHalfTurnBody(t *testing.T) {
	v := newViper(t)
	// pi rad/s for one second bends the body into a half circle
	for range 10 {
		require.NoError(t, v.Tick(0.1, Steering{Turn: 1}))
	}
	assert.InDelta(t, math.Pi, v.Angle(), 1e-9)
	assert.Less(t, v.Head().X(), 10.0)
	assert.Greater(t, v.Head().Y(), 0.0)
	assert.InDelta(t, 10, v.ArcLength(), 1e-6)
}

func TestBoost(t *testing.T) {
	v := newViper(t)

	require.NoError(t, v.Tick(0.1, Steering{Boost: true}))
	assert.InDelta(t, 20, v.Speed(), 1e-9)
	assert.InDelta(t, 2, v.Head().X(), 1e-9)
	assert.InDelta(t, 0.95, v.TemporalLength(), 1e-9)

	for range 20 {
		require.NoError(t, v.Tick(0.1, Steering{Boost: true}))
	}
	assert.InDelta(t, 0.5, v.TemporalLength(), 1e-9)

	// at the floor boosting is refused
	require.NoError(t, v.Tick(0.1, Steering{Boost: true}))
	assert.InDelta(t, 10, v.Speed(), 1e-9)
	assert.InDelta(t, 0.5, v.TemporalLength(), 1e-9)
}

func TestGrowAndShrink(t *testing.T) {
	v := newViper(t)

	v.Grow(1)
	v.Grow(-3)
	assert.InDelta(t, 1, v.PendingGrowth(), 1e-9)

	require.NoError(t, v.Tick(0.5, Steering{}))
	assert.InDelta(t, 1.25, v.TemporalLength(), 1e-9)
	assert.InDelta(t, 0.75, v.PendingGrowth(), 1e-9)

	for range 10 {
		require.NoError(t, v.Tick(0.5, Steering{}))
	}
	assert.InDelta(t, 2, v.TemporalLength(), 1e-9)
	assert.Zero(t, v.PendingGrowth())

	v.Shrink(10)
	assert.InDelta(t, 0.5, v.TemporalLength(), 1e-9)
}

func TestKill(t *testing.T) {
	v := newViper(t)
	v.Kill()
	v.Kill()

	assert.False(t, v.Alive())
	assert.False(t, v.Collider().Active())

	head := v.Head()
	require.NoError(t, v.Tick(0.1, Steering{}))
	assert.Equal(t, head, v.Head())
}

func TestSample(t *testing.T) {
	v := newViper(t)

	pts := v.Sample(5)
	require.Len(t, pts, 5)
	for i, p := range pts {
		assert.InDelta(t, -2.5*float64(i), p.X(), 1e-9)
		assert.InDelta(t, 0, p.Y(), 1e-9)
	}
	assert.Len(t, v.Sample(0), 2)
}

func TestHeadCollidesBodyDoesNot(t *testing.T) {
	v := newViper(t)
	m := collision.NewManager(nil)
	_, err := m.Register(v.Collider())
	require.NoError(t, err)

	food := collision.NewBody(physics.Circle{Center: physics.V2(0.5, 0), Radius: 1}, false)
	_, err = m.Register(food)
	require.NoError(t, err)

	// food resting on the body, far from the head
	bodyFood := collision.NewBody(physics.Circle{Center: physics.V2(-6, 0), Radius: 1}, false)
	_, err = m.Register(bodyFood)
	require.NoError(t, err)

	results := m.CheckForCollisions()
	require.Len(t, results, 1)
	self, other, ok := results[0].Involving(v.Collider())
	require.True(t, ok)
	assert.Equal(t, HeadSegment, self.Segment)
	assert.Same(t, food, other.Collider)
}

func BenchmarkTick(b *testing.B) {
	v, err := New(DefaultConfig(), physics.V2(0, 0), 0, 0)
	require.NoError(b, err)
	steer := Steering{Turn: 0.3}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Tick(1.0/60, steer)
	}
}
