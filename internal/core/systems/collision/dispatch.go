package collision

import "github.com/zeusync/vipers/internal/core/systems/physics"

// Collide tests a against b and returns every overlapping part pair, or nil.
//
// A pair is skipped outright when neither collider is active, and a collider
// is never tested against itself: a plain body cannot overlap itself and a
// segmented body's own segments are excluded as a whole. Within segmented
// colliders the same rule applies per part: a segment pair is only tested
// when at least one side is active.
func Collide(a, b Collider) []Result {
	if isNil(a) || isNil(b) || a == b {
		return nil
	}
	if !a.Active() && !b.Active() {
		return nil
	}
	if !a.Bounds().Overlaps(b.Bounds()) {
		return nil
	}

	switch a := a.(type) {
	case *Body:
		switch b := b.(type) {
		case *Body:
			if Overlap(a.shape, b.shape) {
				return []Result{{A: Part{a, NoSegment}, B: Part{b, NoSegment}}}
			}
			return nil
		case *Segmented:
			return swapAll(segmentedBody(b, a))
		}
	case *Segmented:
		switch b := b.(type) {
		case *Body:
			return segmentedBody(a, b)
		case *Segmented:
			return segmentedSegmented(a, b)
		}
	}
	return nil
}

func segmentedBody(s *Segmented, b *Body) []Result {
	var out []Result
	bounds := b.Bounds()
	for i, seg := range s.segments {
		if !partActive(s, i) && !b.active {
			continue
		}
		if !seg.Bounds().Overlaps(bounds) {
			continue
		}
		if Overlap(seg, b.shape) {
			out = append(out, Result{A: Part{s, i}, B: Part{b, NoSegment}})
		}
	}
	return out
}

func segmentedSegmented(a, b *Segmented) []Result {
	var out []Result
	for i, segA := range a.segments {
		activeA := partActive(a, i)
		boundsA := segA.Bounds()
		if !boundsA.Overlaps(b.bounds) {
			continue
		}
		for j, segB := range b.segments {
			if !activeA && !partActive(b, j) {
				continue
			}
			if !boundsA.Overlaps(segB.Bounds()) {
				continue
			}
			if Overlap(segA, segB) {
				out = append(out, Result{A: Part{a, i}, B: Part{b, j}})
			}
		}
	}
	return out
}

func swapAll(results []Result) []Result {
	for i := range results {
		results[i] = results[i].Swap()
	}
	return results
}

// Overlap is the narrow phase for two shapes. Touching shapes do not
// overlap.
func Overlap(a, b physics.Shape) bool {
	switch a := a.(type) {
	case physics.Circle:
		switch b := b.(type) {
		case physics.Circle:
			return circleCircle(a, b)
		case *physics.Polygon:
			return circlePolygon(a, b)
		}
	case *physics.Polygon:
		switch b := b.(type) {
		case physics.Circle:
			return circlePolygon(b, a)
		case *physics.Polygon:
			return polygonPolygon(a, b)
		}
	}
	return false
}

func circleCircle(a, b physics.Circle) bool {
	r := a.Radius + b.Radius
	return a.Center.Sub(b.Center).LenSqr() < r*r
}

// circlePolygon runs SAT over the polygon's edge normals plus the axis
// toward the polygon corner nearest the circle center. The extra axis covers
// the corner region that edge normals alone miss.
func circlePolygon(c physics.Circle, p *physics.Polygon) bool {
	for i := range p.Len() {
		if separated(p.Axis(i), c, p) {
			return false
		}
	}
	return !separated(p.NearestCorner(c.Center).Sub(c.Center), c, p)
}

// polygonPolygon tests the axes of the polygon with fewer corners first,
// since polygons that miss each other usually do so on an early axis. Both
// axis sets are always exhausted before reporting an overlap.
func polygonPolygon(a, b *physics.Polygon) bool {
	if a == b {
		return false
	}
	if !a.Bounds().Overlaps(b.Bounds()) {
		return false
	}
	first, second := a, b
	if b.Len() < a.Len() {
		first, second = b, a
	}
	for _, p := range [2]*physics.Polygon{first, second} {
		for i := range p.Len() {
			if separated(p.Axis(i), a, b) {
				return false
			}
		}
	}
	return true
}

// separated reports whether axis splits the two projections. Degenerate
// axes (from repeated corners) prove nothing and are ignored.
func separated(axis physics.Vec2, a, b physics.Shape) bool {
	if axis[0] == 0 && axis[1] == 0 {
		return false
	}
	return !a.Project(axis).Overlaps(b.Project(axis))
}
