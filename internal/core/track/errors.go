package track

import "errors"

var (
	// ErrOrdering is returned when a point would break the time order of the
	// chain.
	ErrOrdering = errors.New("track point out of temporal order")
	// ErrTooFewPoints is returned when an operation needs more points than the
	// track holds: queries need two, and pops never go below two.
	ErrTooFewPoints = errors.New("track has too few points")
	// ErrRange is returned when a query time lies outside the stored range.
	ErrRange = errors.New("time outside track range")
)
