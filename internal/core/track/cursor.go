package track

import (
	"fmt"

	"github.com/zeusync/vipers/internal/core/systems/physics"
)

// Cursor answers Position and Gradient queries for callers that sweep the
// track in one direction, typically from the head toward the tail. It keeps
// the last bracketing segment, so a sweep costs O(points + queries) instead
// of a walk from the head per query. Any mutation of the track resets it.
type Cursor struct {
	track *Track
	gen   uint64
	newer int
}

// Cursor returns a cursor positioned at the head segment.
func (t *Track) Cursor() *Cursor {
	return &Cursor{track: t, gen: t.gen, newer: t.head}
}

// Position matches Track.Position.
func (c *Cursor) Position(at Time) (physics.Vec2, error) {
	n, o, err := c.seek(at)
	if err != nil {
		return physics.Vec2{}, fmt.Errorf("position at %v: %w", at, err)
	}
	return c.track.interpolate(n, o, at), nil
}

// Gradient matches Track.Gradient.
func (c *Cursor) Gradient(at Time) (physics.Vec2, error) {
	n, o, err := c.seek(at)
	if err != nil {
		return physics.Vec2{}, fmt.Errorf("gradient at %v: %w", at, err)
	}
	return c.track.gradient(n, o), nil
}

func (c *Cursor) seek(at Time) (newer, older int, err error) {
	t := c.track
	if t.count < 2 {
		return none, none, ErrTooFewPoints
	}
	if c.gen != t.gen || c.newer == none {
		c.gen, c.newer = t.gen, t.head
	}
	n := c.newer
	// Step head-ward if the query moved back toward the present.
	for t.slots[n].time <= at && t.slots[n].newer != none {
		n = t.slots[n].newer
	}
	n, o := t.bracketFrom(n, at)
	c.newer = n
	return n, o, nil
}
