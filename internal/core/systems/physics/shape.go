package physics

import "math"

// Shape is the closed set of collision primitives: Circle and *Polygon.
// The unexported marker keeps other packages from adding variants, so
// dispatch code can switch over the two cases exhaustively.
type Shape interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() Bounds
	// Project returns the extent of the shape along axis.
	Project(axis Vec2) Interval

	shape()
}

var (
	_ Shape = Circle{}
	_ Shape = (*Polygon)(nil)
)

// Circle is a disc with a center and radius.
type Circle struct {
	Center Vec2
	Radius float64
}

func (Circle) shape() {}

func (c Circle) Bounds() Bounds {
	return Bounds{
		Min: Vec2{c.Center[0] - c.Radius, c.Center[1] - c.Radius},
		Max: Vec2{c.Center[0] + c.Radius, c.Center[1] + c.Radius},
	}
}

func (c Circle) Project(axis Vec2) Interval {
	p := Project(c.Center, axis)
	r := c.Radius * axis.Len()
	return Interval{Min: p - r, Max: p + r}
}

// Polygon is a convex loop of corners with consistent winding.
//
// Preconditions, not checked at runtime: at least three corners, convex,
// not self-intersecting. A Polygon is immutable once built.
type Polygon struct {
	corners []Vec2
	bounds  Bounds
}

func (*Polygon) shape() {}

// NewPolygon copies corners into a new polygon.
func NewPolygon(corners ...Vec2) *Polygon {
	p := &Polygon{corners: make([]Vec2, len(corners)), bounds: EmptyBounds()}
	copy(p.corners, corners)
	for _, c := range p.corners {
		p.bounds = p.bounds.Extend(c)
	}
	return p
}

// Rect builds an axis-aligned rectangle with its minimum corner at min.
func Rect(min, size Vec2) *Polygon {
	max := min.Add(size)
	return NewPolygon(
		min,
		Vec2{max[0], min[1]},
		max,
		Vec2{min[0], max[1]},
	)
}

// Quad builds the four-corner polygon spanning a strip between two center
// points, each with its own half-width offset along normal.
func Quad(front, back, frontNormal, backNormal Vec2) *Polygon {
	return NewPolygon(
		front.Add(frontNormal),
		back.Add(backNormal),
		back.Sub(backNormal),
		front.Sub(frontNormal),
	)
}

// Corners returns the polygon's corners. The slice must not be modified.
func (p *Polygon) Corners() []Vec2 { return p.corners }

// Len returns the number of corners.
func (p *Polygon) Len() int { return len(p.corners) }

// Axis returns the SAT candidate axis of edge i: the edge from corner i to
// corner i+1 rotated by 90 degrees. Edge Len()-1 closes the loop.
func (p *Polygon) Axis(i int) Vec2 {
	a := p.corners[i]
	b := p.corners[(i+1)%len(p.corners)]
	return Perp(b.Sub(a))
}

// Axes returns every edge normal, closing edge included.
func (p *Polygon) Axes() []Vec2 {
	axes := make([]Vec2, len(p.corners))
	for i := range p.corners {
		axes[i] = p.Axis(i)
	}
	return axes
}

func (p *Polygon) Bounds() Bounds { return p.bounds }

func (p *Polygon) Project(axis Vec2) Interval {
	iv := EmptyInterval()
	for _, c := range p.corners {
		iv = iv.Extend(Project(c, axis))
	}
	return iv
}

// Center returns the mean of the corners.
func (p *Polygon) Center() Vec2 {
	var sum Vec2
	for _, c := range p.corners {
		sum = sum.Add(c)
	}
	if len(p.corners) == 0 {
		return sum
	}
	return sum.Mul(1 / float64(len(p.corners)))
}

// NearestCorner returns the corner closest to pt.
func (p *Polygon) NearestCorner(pt Vec2) Vec2 {
	best, bestDist := Vec2{}, math.Inf(1)
	for _, c := range p.corners {
		if d := c.Sub(pt).LenSqr(); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Translate returns a copy moved by offset.
func (p *Polygon) Translate(offset Vec2) *Polygon {
	moved := make([]Vec2, len(p.corners))
	for i, c := range p.corners {
		moved[i] = c.Add(offset)
	}
	return NewPolygon(moved...)
}
