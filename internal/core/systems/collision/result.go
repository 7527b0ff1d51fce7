package collision

// NoSegment is the Segment value of a Part that refers to a plain Body.
const NoSegment = -1

// Part names a collider at the finest available granularity.
type Part struct {
	Collider Collider
	Segment  int
}

// Result is one overlapping pair. A and B keep the operand order of the
// call that produced them.
type Result struct {
	A Part
	B Part
}

// Swap returns the result with its parts exchanged.
func (r Result) Swap() Result { return Result{A: r.B, B: r.A} }

// Involving orients r so that c is the first part. ok is false when c is
// not part of r.
func (r Result) Involving(c Collider) (self, other Part, ok bool) {
	switch {
	case r.A.Collider == c:
		return r.A, r.B, true
	case r.B.Collider == c:
		return r.B, r.A, true
	default:
		return Part{}, Part{}, false
	}
}
