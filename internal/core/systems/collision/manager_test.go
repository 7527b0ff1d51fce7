package collision

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/systems/physics"
)

func TestRegisterAndDeregister(t *testing.T) {
	m := NewManager(log.NewNop())
	a := NewBody(circle(0, 0, 1), true)
	b := NewBody(circle(5, 0, 1), false)

	ra, err := m.Register(a)
	require.NoError(t, err)
	_, err = m.Register(b)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Contains(a))
	assert.True(t, ra.Registered())
	assert.Equal(t, a, ra.Collider())

	_, err = m.Register(a)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 2, m.Len(), "rejected registration changes nothing")

	_, err = m.Register(nil)
	assert.ErrorIs(t, err, ErrNilCollider)
	_, err = m.Register((*Body)(nil))
	assert.ErrorIs(t, err, ErrNilCollider)
	_, err = m.Register((*Segmented)(nil))
	assert.ErrorIs(t, err, ErrNilCollider)

	m.Deregister(a)
	assert.False(t, m.Contains(a))
	assert.False(t, ra.Registered())
	m.Deregister(a)
	m.Deregister(NewBody(circle(0, 0, 1), true))
	assert.Equal(t, 1, m.Len())

	var order []Collider
	for c := range m.Colliders() {
		order = append(order, c)
	}
	assert.Equal(t, []Collider{b}, order)
}

func TestReleaseIsIdempotentAndNeverStale(t *testing.T) {
	m := NewManager(nil)
	a := NewBody(circle(0, 0, 1), true)

	first, err := m.Register(a)
	require.NoError(t, err)
	first.Release()
	first.Release()
	assert.Equal(t, 0, m.Len())

	second, err := m.Register(a)
	require.NoError(t, err)
	first.Release()
	assert.True(t, second.Registered(), "stale handle must not remove the new registration")
	assert.True(t, m.Contains(a))

	second.Release()
	assert.False(t, m.Contains(a))

	var nilReg *Registration
	assert.False(t, nilReg.Registered())
}

func TestCheckForCollisions(t *testing.T) {
	m := NewManager(log.NewNop())

	wallA := NewBody(square(0, 0, 10), false, WithID("wallA"))
	wallB := NewBody(square(5, 0, 10), false, WithID("wallB"))
	mover := NewBody(circle(12, 5, 2), true, WithID("mover"))
	far := NewBody(circle(100, 100, 2), true, WithID("far"))
	for _, c := range []Collider{wallA, wallB, mover, far} {
		_, err := m.Register(c)
		require.NoError(t, err)
	}

	res := m.CheckForCollisions()
	require.Len(t, res, 1, "overlapping static walls are not tested")
	assert.Equal(t, wallB, res[0].A.Collider)
	assert.Equal(t, mover, res[0].B.Collider)

	m.Deregister(wallB)
	assert.Empty(t, m.CheckForCollisions())
}

func TestCheckForCollisionsVisitsEachPairOnce(t *testing.T) {
	m := NewManager(log.NewNop())
	for i := range 5 {
		_, err := m.Register(NewBody(circle(float64(i), 0, 10), true))
		require.NoError(t, err)
	}
	assert.Len(t, m.CheckForCollisions(), 10)
}

func TestCheckCandidate(t *testing.T) {
	m := NewManager(log.NewNop())
	wall := NewSegmented(false)
	wall.Append(square(0, 0, 10), true)
	wall.Append(square(20, 0, 10), true)
	_, err := m.Register(wall)
	require.NoError(t, err)

	probe := NewBody(physics.Rect(physics.V2(8, 2), physics.V2(14, 2)), true)
	res := m.CheckCandidate(probe)
	require.Len(t, res, 2)
	assert.Equal(t, Part{probe, NoSegment}, res[0].A)
	assert.Equal(t, Part{wall, 0}, res[0].B)
	assert.Equal(t, Part{wall, 1}, res[1].B)
	assert.False(t, m.Contains(probe))

	// A registered candidate is not tested against itself.
	_, err = m.Register(probe)
	require.NoError(t, err)
	assert.Len(t, m.CheckCandidate(probe), 2)
}

func TestIsOccupied(t *testing.T) {
	m := NewManager(log.NewNop())
	wall := NewSegmented(false)
	wall.Append(square(0, 0, 10), false)
	food := NewBody(circle(50, 50, 3), false)
	for _, c := range []Collider{wall, food} {
		_, err := m.Register(c)
		require.NoError(t, err)
	}

	assert.True(t, m.IsOccupied(square(5, 5, 2)), "inactive wall segments still occupy space")
	assert.True(t, m.IsOccupied(circle(52, 50, 2)))
	assert.False(t, m.IsOccupied(square(20, 20, 5)))
	assert.False(t, m.IsOccupied(square(10, 0, 5)), "touching is free")
}

func BenchmarkCheckForCollisions(b *testing.B) {
	m := NewManager(log.NewNop())
	for i := range 64 {
		s := NewSegmented(true, WithID(fmt.Sprintf("viper-%d", i)))
		x := float64(i%8) * 40
		y := float64(i/8) * 40
		for j := range 20 {
			s.Append(square(x+float64(j), y, 2), j == 0)
		}
		if _, err := m.Register(s); err != nil {
			b.Fatal(err)
		}
	}
	for i := range 128 {
		if _, err := m.Register(NewBody(circle(float64(i*3%320), float64(i*7%320), 1), false)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for range b.N {
		_ = m.CheckForCollisions()
	}
}
