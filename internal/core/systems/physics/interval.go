package physics

import "math"

// Interval is the [Min, Max] extent of a shape projected onto an axis.
type Interval struct {
	Min float64
	Max float64
}

// EmptyInterval returns an interval that any Extend call replaces.
func EmptyInterval() Interval {
	return Interval{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Extend grows the interval to cover v.
func (i Interval) Extend(v float64) Interval {
	if v < i.Min {
		i.Min = v
	}
	if v > i.Max {
		i.Max = v
	}
	return i
}

// Overlaps reports strict overlap. Intervals that only share an endpoint
// are separated.
func (i Interval) Overlaps(o Interval) bool {
	return i.Max > o.Min && o.Max > i.Min
}

// Length returns Max-Min, or 0 for an empty interval.
func (i Interval) Length() float64 {
	if i.Max < i.Min {
		return 0
	}
	return i.Max - i.Min
}
