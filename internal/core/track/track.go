// Package track records the time-indexed path of a moving point and answers
// position, direction and arc-length queries at arbitrary past times.
package track

import (
	"fmt"
	"iter"

	"github.com/zeusync/vipers/internal/core/systems/physics"
)

// Time is a simulation timestamp in seconds.
type Time = float64

// MinPoints is the floor below which pops are refused.
const MinPoints = 2

const none = -1

// point is an arena record. older and newer are slot indices or none.
type point struct {
	pos   physics.Vec2
	time  Time
	dist  float64 // distance to older, 0 at the tail
	older int
	newer int
}

// Point is a read-only snapshot of one stored sample.
type Point struct {
	Position        physics.Vec2
	Time            Time
	DistanceToOlder float64
}

// Track is a chain of samples ordered by time, stored in an arena of slots.
// Head is the newest sample, tail the oldest. Only the track frees slots, so
// no index handed out internally can dangle.
//
// A Track is not safe for concurrent use; it has exactly one owner.
type Track struct {
	slots []point
	free  []int
	head  int
	tail  int
	count int

	// gen changes on every mutation so cursors can detect staleness.
	gen uint64
}

// New returns an empty track.
func New() *Track {
	return &Track{head: none, tail: none}
}

// Len returns the number of stored points.
func (t *Track) Len() int { return t.count }

// Head returns the newest point.
func (t *Track) Head() (Point, bool) {
	if t.count == 0 {
		return Point{}, false
	}
	return t.snapshot(t.head), true
}

// Tail returns the oldest point.
func (t *Track) Tail() (Point, bool) {
	if t.count == 0 {
		return Point{}, false
	}
	return t.snapshot(t.tail), true
}

// Duration returns head.time - tail.time, or 0 for fewer than two points.
func (t *Track) Duration() Time {
	if t.count < 2 {
		return 0
	}
	return t.slots[t.head].time - t.slots[t.tail].time
}

// Points iterates from head to tail.
func (t *Track) Points() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for i := t.head; i != none; i = t.slots[i].older {
			if !yield(t.snapshot(i)) {
				return
			}
		}
	}
}

// PushFront appends a new head sample. at must be strictly after the
// current head.
func (t *Track) PushFront(pos physics.Vec2, at Time) error {
	if t.count > 0 {
		head := &t.slots[t.head]
		if !(at > head.time) {
			return fmt.Errorf("push front at %v, head at %v: %w", at, head.time, ErrOrdering)
		}
	}

	idx := t.alloc(point{pos: pos, time: at, older: t.head, newer: none})
	if t.count == 0 {
		t.tail = idx
	} else {
		t.slots[idx].dist = physics.Distance(pos, t.slots[t.head].pos)
		t.slots[t.head].newer = idx
	}
	t.head = idx
	t.count++
	t.gen++
	return nil
}

// PushBack appends a new tail sample. at must be strictly before the
// current tail.
func (t *Track) PushBack(pos physics.Vec2, at Time) error {
	if t.count > 0 {
		tail := &t.slots[t.tail]
		if !(at < tail.time) {
			return fmt.Errorf("push back at %v, tail at %v: %w", at, tail.time, ErrOrdering)
		}
	}

	idx := t.alloc(point{pos: pos, time: at, older: none, newer: t.tail})
	if t.count == 0 {
		t.head = idx
	} else {
		old := &t.slots[t.tail]
		old.older = idx
		old.dist = physics.Distance(old.pos, pos)
	}
	t.tail = idx
	t.count++
	t.gen++
	return nil
}

// PopFront removes the head. It fails with ErrTooFewPoints at the two-point
// floor and leaves the track unchanged.
func (t *Track) PopFront() (Point, error) {
	if t.count <= MinPoints {
		return Point{}, fmt.Errorf("pop front with %d points: %w", t.count, ErrTooFewPoints)
	}
	removed := t.head
	p := t.snapshot(removed)
	t.head = t.slots[removed].older
	t.slots[t.head].newer = none
	t.release(removed)
	return p, nil
}

// PopBack removes the tail. It fails with ErrTooFewPoints at the two-point
// floor and leaves the track unchanged.
func (t *Track) PopBack() (Point, error) {
	if t.count <= MinPoints {
		return Point{}, fmt.Errorf("pop back with %d points: %w", t.count, ErrTooFewPoints)
	}
	removed := t.tail
	p := t.snapshot(removed)
	t.tail = t.slots[removed].newer
	t.slots[t.tail].older = none
	t.slots[t.tail].dist = 0
	t.release(removed)
	return p, nil
}

// TrimBefore pops tail points while the point newer than the tail is not
// after cutoff, so that cutoff stays bracketed by stored samples. It never
// goes below two points and returns how many points were dropped.
func (t *Track) TrimBefore(cutoff Time) int {
	dropped := 0
	for t.count > MinPoints {
		next := t.slots[t.tail].newer
		if t.slots[next].time > cutoff {
			break
		}
		if _, err := t.PopBack(); err != nil {
			break
		}
		dropped++
	}
	return dropped
}

// Position returns the interpolated position at time at. Outside the stored
// range it extrapolates along the nearest end segment.
func (t *Track) Position(at Time) (physics.Vec2, error) {
	if t.count < 2 {
		return physics.Vec2{}, fmt.Errorf("position at %v: %w", at, ErrTooFewPoints)
	}
	n, o := t.bracketFrom(t.head, at)
	return t.interpolate(n, o, at), nil
}

// Gradient returns the velocity of the bracketing segment at time at:
// (newer.pos - older.pos) / (newer.time - older.time).
func (t *Track) Gradient(at Time) (physics.Vec2, error) {
	if t.count < 2 {
		return physics.Vec2{}, fmt.Errorf("gradient at %v: %w", at, ErrTooFewPoints)
	}
	n, o := t.bracketFrom(t.head, at)
	return t.gradient(n, o), nil
}

// Length returns the arc length travelled between t2 and t1. With t1 on the
// head side the result is non-negative; swapping the arguments negates it.
// Both times must lie inside [tail.time, head.time].
func (t *Track) Length(t1, t2 Time) (float64, error) {
	if t.count < 2 {
		return 0, fmt.Errorf("length %v..%v: %w", t1, t2, ErrTooFewPoints)
	}
	lo, hi := t.slots[t.tail].time, t.slots[t.head].time
	for _, at := range [2]Time{t1, t2} {
		if !(at >= lo && at <= hi) {
			return 0, fmt.Errorf("length %v..%v, track spans %v..%v: %w", t1, t2, lo, hi, ErrRange)
		}
	}
	return t.distanceFromHead(t2) - t.distanceFromHead(t1), nil
}

// distanceFromHead is the arc length between the head and time at, which
// must be in range.
func (t *Track) distanceFromHead(at Time) float64 {
	acc := 0.0
	n := t.head
	for {
		o := t.slots[n].older
		if t.slots[o].time <= at {
			newer, older := &t.slots[n], &t.slots[o]
			return acc + newer.dist*(newer.time-at)/(newer.time-older.time)
		}
		acc += t.slots[n].dist
		n = o
	}
}

// bracketFrom walks tail-ward from slot n until older.time <= at, stopping at
// the last segment. Callers guarantee n has an older neighbor.
func (t *Track) bracketFrom(n int, at Time) (newer, older int) {
	o := t.slots[n].older
	for t.slots[o].time > at && t.slots[o].older != none {
		n, o = o, t.slots[o].older
	}
	return n, o
}

func (t *Track) interpolate(n, o int, at Time) physics.Vec2 {
	newer, older := &t.slots[n], &t.slots[o]
	f := (at - older.time) / (newer.time - older.time)
	return physics.Lerp(older.pos, newer.pos, f)
}

func (t *Track) gradient(n, o int) physics.Vec2 {
	newer, older := &t.slots[n], &t.slots[o]
	return newer.pos.Sub(older.pos).Mul(1 / (newer.time - older.time))
}

func (t *Track) snapshot(i int) Point {
	p := &t.slots[i]
	return Point{Position: p.pos, Time: p.time, DistanceToOlder: p.dist}
}

func (t *Track) alloc(p point) int {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[idx] = p
		return idx
	}
	t.slots = append(t.slots, p)
	return len(t.slots) - 1
}

func (t *Track) release(i int) {
	t.slots[i] = point{older: none, newer: none}
	t.free = append(t.free, i)
	t.count--
	t.gen++
}
