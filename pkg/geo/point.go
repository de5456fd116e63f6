package geo

import "math"

// Point is a location or direction vector in the site-local metric plane.
// Coordinates are metres; callers supply already-projected values.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Epsilon is the coordinate tolerance used for point equality and ring
// closure checks (1 µm).
const Epsilon = 1e-6

// Pt is a shorthand constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z-component of the 3D cross product; its sign tells
// whether q lies counterclockwise (positive) or clockwise of p.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the Euclidean norm of the vector.
func (p Point) Length() float64 {
	return math.Sqrt(p.Dot(p))
}

// Distance returns the Euclidean distance from p to q.
func (p Point) Distance(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Normalize scales the vector to unit length; the zero vector stays zero.
func (p Point) Normalize() Point {
	l := p.Length()
	if l < 1e-12 {
		return Point{}
	}
	return p.Scale(1 / l)
}

// Angle returns the direction of the vector in radians from the +x axis.
func (p Point) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

// Rotate returns p rotated by angle radians about the origin.
func (p Point) Rotate(angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{
		X: cos*p.X - sin*p.Y,
		Y: sin*p.X + cos*p.Y,
	}
}

// RotateAround returns p rotated by angle radians about center.
func (p Point) RotateAround(center Point, angle float64) Point {
	return p.Sub(center).Rotate(angle).Add(center)
}

// Lerp interpolates from p toward q; t=0 gives p, t=1 gives q.
func (p Point) Lerp(q Point, t float64) Point {
	return p.Add(q.Sub(p).Scale(t))
}

// Perp returns the vector rotated a quarter turn counterclockwise. For a
// CCW ring edge this points into the interior.
func (p Point) Perp() Point {
	return Point{-p.Y, p.X}
}

// Equals reports whether p and q coincide within Epsilon.
func (p Point) Equals(q Point) bool {
	return math.Abs(p.X-q.X) < Epsilon && math.Abs(p.Y-q.Y) < Epsilon
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// MidPoint returns the midpoint between p and q.
func MidPoint(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// DistancePointToSegment returns the distance from p to the closest point
// of the segment a-b.
func DistancePointToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-12 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	switch {
	case t <= 0:
		return p.Distance(a)
	case t >= 1:
		return p.Distance(b)
	default:
		return p.Distance(a.Add(ab.Scale(t)))
	}
}
