package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D vector. Arithmetic (Add, Sub, Mul, Dot, Len, Normalize)
// comes from mgl64; the helpers below cover what mgl64 leaves out.
type Vec2 = mgl64.Vec2

// V2 builds a Vec2 from components.
func V2(x, y float64) Vec2 { return Vec2{x, y} }

// FromAngle returns a vector of the given magnitude pointing along angle (radians).
func FromAngle(angle, magnitude float64) Vec2 {
	return Vec2{magnitude * math.Cos(angle), magnitude * math.Sin(angle)}
}

// Perp rotates v by +90 degrees.
func Perp(v Vec2) Vec2 { return Vec2{-v[1], v[0]} }

// Rotate rotates v counter-clockwise by angle radians.
func Rotate(v Vec2, angle float64) Vec2 {
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

// Project returns the scalar projection of v onto axis. The axis does not
// need to be normalized; every shape projected onto the same axis is scaled
// by the same factor, which is all SAT needs.
func Project(v, axis Vec2) float64 { return v.Dot(axis) }

// Distance computes Euclidean distance between two points.
func Distance(a, b Vec2) float64 { return math.Hypot(b[0]-a[0], b[1]-a[1]) }

// Lerp interpolates from a (f=0) to b (f=1). f outside [0,1] extrapolates.
func Lerp(a, b Vec2, f float64) Vec2 {
	return Vec2{a[0] + (b[0]-a[0])*f, a[1] + (b[1]-a[1])*f}
}

// Angle returns the heading of v in radians.
func Angle(v Vec2) float64 { return math.Atan2(v[1], v[0]) }

// ApproxEqual reports whether each component of a and b differs by at most
// eps. The tolerance is absolute, including near zero.
func ApproxEqual(a, b Vec2, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps
}
