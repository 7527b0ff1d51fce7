// Package collision implements narrow-phase SAT tests over circles, convex
// polygons and segmented bodies, and a broad-phase registry that reports
// every colliding pair once per tick.
package collision

import (
	"github.com/google/uuid"

	"github.com/zeusync/vipers/internal/core/systems/physics"
)

// Collider is the closed set of collidable things: *Body and *Segmented.
type Collider interface {
	// ID is a stable identifier, unique per collider.
	ID() string
	// Active marks a mover. Two inactive colliders are never tested.
	Active() bool
	SetActive(active bool)
	// Tag is an opaque value owned by game logic.
	Tag() any
	// Bounds covers every shape of the collider.
	Bounds() physics.Bounds

	collider()
}

var (
	_ Collider = (*Body)(nil)
	_ Collider = (*Segmented)(nil)
)

// isNil reports whether c is nil or wraps a nil pointer.
func isNil(c Collider) bool {
	switch v := c.(type) {
	case *Body:
		return v == nil
	case *Segmented:
		return v == nil
	}
	return c == nil
}

// Option configures a collider at construction.
type Option func(*options)

type options struct {
	id  string
	tag any
}

// WithTag attaches a game-logic value to the collider.
func WithTag(tag any) Option {
	return func(o *options) { o.tag = tag }
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	return o
}

// Body wraps a single shape.
type Body struct {
	id     string
	tag    any
	shape  physics.Shape
	active bool
}

// NewBody wraps shape. Static geometry passes active=false.
func NewBody(shape physics.Shape, active bool, opts ...Option) *Body {
	o := buildOptions(opts)
	return &Body{id: o.id, tag: o.tag, shape: shape, active: active}
}

func (*Body) collider() {}

func (b *Body) ID() string               { return b.id }
func (b *Body) Active() bool             { return b.active }
func (b *Body) SetActive(active bool)    { b.active = active }
func (b *Body) Tag() any                 { return b.tag }
func (b *Body) Bounds() physics.Bounds   { return b.shape.Bounds() }
func (b *Body) Shape() physics.Shape     { return b.shape }
func (b *Body) SetShape(s physics.Shape) { b.shape = s }

// Segmented is an ordered set of convex polygon segments that together may
// form a non-convex body. Segments of the same Segmented are never tested
// against each other.
type Segmented struct {
	id        string
	tag       any
	active    bool
	segments  []*physics.Polygon
	segActive []bool
	bounds    physics.Bounds
}

// NewSegmented returns an empty segmented collider.
func NewSegmented(active bool, opts ...Option) *Segmented {
	o := buildOptions(opts)
	return &Segmented{id: o.id, tag: o.tag, active: active, bounds: physics.EmptyBounds()}
}

func (*Segmented) collider() {}

func (s *Segmented) ID() string             { return s.id }
func (s *Segmented) Active() bool           { return s.active }
func (s *Segmented) SetActive(active bool)  { s.active = active }
func (s *Segmented) Tag() any               { return s.tag }
func (s *Segmented) Bounds() physics.Bounds { return s.bounds }

// Len returns the number of segments.
func (s *Segmented) Len() int { return len(s.segments) }

// Segment returns segment i.
func (s *Segmented) Segment(i int) *physics.Polygon { return s.segments[i] }

// SegmentActive reports the flag of segment i.
func (s *Segmented) SegmentActive(i int) bool { return s.segActive[i] }

// SetSegmentActive changes the flag of segment i.
func (s *Segmented) SetSegmentActive(i int, active bool) { s.segActive[i] = active }

// Append adds a segment at the end.
func (s *Segmented) Append(segment *physics.Polygon, active bool) {
	s.segments = append(s.segments, segment)
	s.segActive = append(s.segActive, active)
	s.bounds = s.bounds.Union(segment.Bounds())
}

// Reset drops every segment and keeps the backing storage.
func (s *Segmented) Reset() {
	clear(s.segments)
	s.segments = s.segments[:0]
	s.segActive = s.segActive[:0]
	s.bounds = physics.EmptyBounds()
}

// SetSegments replaces all segments. active may be nil (all active) or must
// have one flag per segment.
func (s *Segmented) SetSegments(segments []*physics.Polygon, active []bool) {
	if active != nil && len(active) != len(segments) {
		panic("collision: segment and flag counts differ")
	}
	s.Reset()
	for i, seg := range segments {
		s.Append(seg, active == nil || active[i])
	}
}

// partActive is the activity of one addressable part: a plain body, or one
// segment of a segmented collider (its own flag and its collider's).
func partActive(c Collider, segment int) bool {
	if s, ok := c.(*Segmented); ok && segment >= 0 {
		return s.active && s.segActive[segment]
	}
	return c.Active()
}
