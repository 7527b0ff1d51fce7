package physics

import "math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec2
	Max Vec2
}

// EmptyBounds returns a box that the first Extend call replaces.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Min: Vec2{inf, inf}, Max: Vec2{-inf, -inf}}
}

// Extend grows the box to contain p.
func (b Bounds) Extend(p Vec2) Bounds {
	b.Min = Vec2{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1])}
	b.Max = Vec2{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1])}
	return b
}

// Union returns the smallest box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	return b.Extend(o.Min).Extend(o.Max)
}

// Expand pads the box by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		Min: Vec2{b.Min[0] - margin, b.Min[1] - margin},
		Max: Vec2{b.Max[0] + margin, b.Max[1] + margin},
	}
}

// Overlaps uses the same strict convention as Interval.Overlaps.
func (b Bounds) Overlaps(o Bounds) bool {
	return b.Max[0] > o.Min[0] && o.Max[0] > b.Min[0] &&
		b.Max[1] > o.Min[1] && o.Max[1] > b.Min[1]
}

// Contains reports whether p lies inside or on the box.
func (b Bounds) Contains(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

// Size returns the box extent.
func (b Bounds) Size() Vec2 { return b.Max.Sub(b.Min) }
