package geo

import (
	"fmt"
	"math"
)

// Polygon is a closed simple polygon defined by its vertices in order.
// The closing edge from the last vertex back to the first is implicit.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Vertices: pts}
}

// Rect returns the axis-aligned rectangle spanning (minX,minY)-(maxX,maxY).
func Rect(minX, minY, maxX, maxY float64) Polygon {
	return NewPolygon(Pt(minX, minY), Pt(maxX, minY), Pt(maxX, maxY), Pt(minX, maxY))
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.Vertices)
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// Validate checks the polygon invariants: finite coordinates, at least
// three distinct vertices, non-zero area, and no self-intersection.
// Returns ErrInvalidInput describing the first violation found.
func (p Polygon) Validate() error {
	if len(p.Vertices) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrInvalidInput, len(p.Vertices))
	}
	for i, v := range p.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("%w: non-finite vertex %d", ErrInvalidInput, i)
		}
	}
	if p.Area() < Epsilon {
		return fmt.Errorf("%w: zero area", ErrInvalidInput)
	}
	if p.selfIntersects() {
		return fmt.Errorf("%w: self-intersecting ring", ErrInvalidInput)
	}
	return nil
}

// selfIntersects tests all non-adjacent edge pairs for proper crossings.
// O(n²); rings in this system are small.
func (p Polygon) selfIntersects() bool {
	n := len(p.Vertices)
	for i := 0; i < n; i++ {
		a1 := p.Vertices[i]
		a2 := p.Vertices[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			b1 := p.Vertices[j]
			b2 := p.Vertices[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing of the open segments a1-a2 and b1-b2.
func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := a2.Sub(a1).Cross(b1.Sub(a1))
	d2 := a2.Sub(a1).Cross(b2.Sub(a1))
	d3 := b2.Sub(b1).Cross(a1.Sub(b1))
	d4 := b2.Sub(b1).Cross(a2.Sub(b1))
	return ((d1 > Epsilon && d2 < -Epsilon) || (d1 < -Epsilon && d2 > Epsilon)) &&
		((d3 > Epsilon && d4 < -Epsilon) || (d3 < -Epsilon && d4 > Epsilon))
}

// Edge returns the i-th edge as (start, end). Wraps around.
func (p Polygon) Edge(i int) (Point, Point) {
	n := len(p.Vertices)
	return p.Vertices[i%n], p.Vertices[(i+1)%n]
}

// SignedArea returns the shoelace area: positive for counterclockwise
// winding, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	if len(p.Vertices) < 3 {
		return 0
	}
	sum := 0.0
	prev := p.Vertices[len(p.Vertices)-1]
	for _, v := range p.Vertices {
		sum += prev.Cross(v)
		prev = v
	}
	return sum / 2
}

// Area returns the unsigned area of the polygon.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// IsCounterClockwise returns true if vertices are in CCW order.
func (p Polygon) IsCounterClockwise() bool {
	return p.SignedArea() > 0
}

// EnsureCCW returns the polygon with vertices in counterclockwise order.
func (p Polygon) EnsureCCW() Polygon {
	if p.SignedArea() < 0 {
		return p.Reverse()
	}
	return p
}

// Reverse returns the polygon with the opposite winding.
func (p Polygon) Reverse() Polygon {
	rev := append([]Point{}, p.Vertices...)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return Polygon{Vertices: rev}
}

// vertexMean is the fallback centre for degenerate rings.
func (p Polygon) vertexMean() Point {
	var sum Point
	for _, v := range p.Vertices {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(p.Vertices)))
}

// Centroid returns the area centroid of the polygon, or the vertex mean
// when the ring is degenerate.
func (p Polygon) Centroid() Point {
	if len(p.Vertices) == 0 {
		return Point{}
	}
	var weighted Point
	area2 := 0.0
	prev := p.Vertices[len(p.Vertices)-1]
	for _, v := range p.Vertices {
		w := prev.Cross(v)
		area2 += w
		weighted = weighted.Add(prev.Add(v).Scale(w))
		prev = v
	}
	if math.Abs(area2) < 1e-12 {
		return p.vertexMean()
	}
	return weighted.Scale(1 / (3 * area2))
}

// Bounds returns the axis-aligned bounding box as (min, max).
func (p Polygon) Bounds() (Point, Point) {
	if len(p.Vertices) == 0 {
		return Point{}, Point{}
	}
	min := p.Vertices[0]
	max := p.Vertices[0]
	for _, v := range p.Vertices[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}

// Contains reports whether the point lies inside the polygon, using the
// winding number so either vertex order works.
func (p Polygon) Contains(pt Point) bool {
	if len(p.Vertices) < 3 {
		return false
	}
	winding := 0
	prev := p.Vertices[len(p.Vertices)-1]
	for _, v := range p.Vertices {
		if prev.Y <= pt.Y {
			// Upward crossing with pt strictly left of the edge.
			if v.Y > pt.Y && v.Sub(prev).Cross(pt.Sub(prev)) > 0 {
				winding++
			}
		} else {
			// Downward crossing with pt strictly right of the edge.
			if v.Y <= pt.Y && v.Sub(prev).Cross(pt.Sub(prev)) < 0 {
				winding--
			}
		}
		prev = v
	}
	return winding != 0
}

// ContainsPolygon reports whether every vertex of q lies inside p.
// Sufficient when q is known not to cross p's boundary.
func (p Polygon) ContainsPolygon(q Polygon) bool {
	for _, v := range q.Vertices {
		if !p.Contains(v) {
			return false
		}
	}
	return len(q.Vertices) > 0
}

// Intersects reports whether p and q overlap: either one contains a vertex
// of the other, or any pair of edges crosses.
func (p Polygon) Intersects(q Polygon) bool {
	if p.IsEmpty() || q.IsEmpty() {
		return false
	}
	if p.Contains(q.Vertices[0]) || q.Contains(p.Vertices[0]) {
		return true
	}
	np, nq := len(p.Vertices), len(q.Vertices)
	for i := 0; i < np; i++ {
		a1, a2 := p.Edge(i)
		for j := 0; j < nq; j++ {
			b1, b2 := q.Edge(j)
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// Perimeter returns the ring length including the closing edge.
func (p Polygon) Perimeter() float64 {
	if len(p.Vertices) < 2 {
		return 0
	}
	total := 0.0
	prev := p.Vertices[len(p.Vertices)-1]
	for _, v := range p.Vertices {
		total += prev.Distance(v)
		prev = v
	}
	return total
}

// Translate returns the polygon shifted by d.
func (p Polygon) Translate(d Point) Polygon {
	out := make([]Point, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Add(d)
	}
	return Polygon{Vertices: out}
}

// Rotate returns the polygon rotated by angle radians around origin.
func (p Polygon) Rotate(angle float64, origin Point) Polygon {
	out := make([]Point, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.RotateAround(origin, angle)
	}
	return Polygon{Vertices: out}
}

// Simplify removes vertices whose perpendicular deviation from the chord of
// their neighbours is below tol (Douglas-Peucker over the closed ring).
func (p Polygon) Simplify(tol float64) Polygon {
	n := len(p.Vertices)
	if n <= 4 || tol <= 0 {
		return p
	}
	keep := make([]bool, n)
	keep[0] = true
	// Split the ring at its two extreme vertices so the recursion works on
	// open chains.
	far := 0
	for i, v := range p.Vertices {
		if v.Distance(p.Vertices[0]) > p.Vertices[far].Distance(p.Vertices[0]) {
			far = i
		}
	}
	keep[far] = true
	simplifyRange(p.Vertices, 0, far, tol, keep)
	simplifyRangeWrap(p.Vertices, far, n, tol, keep)

	out := make([]Point, 0, n)
	for i, v := range p.Vertices {
		if keep[i] {
			out = append(out, v)
		}
	}
	if len(out) < 3 {
		return p
	}
	return Polygon{Vertices: out}
}

func simplifyRange(pts []Point, lo, hi int, tol float64, keep []bool) {
	if hi <= lo+1 {
		return
	}
	maxDist, maxIdx := 0.0, -1
	for i := lo + 1; i < hi; i++ {
		d := DistancePointToSegment(pts[i], pts[lo], pts[hi])
		if d > maxDist {
			maxDist, maxIdx = d, i
		}
	}
	if maxDist > tol && maxIdx >= 0 {
		keep[maxIdx] = true
		simplifyRange(pts, lo, maxIdx, tol, keep)
		simplifyRange(pts, maxIdx, hi, tol, keep)
	}
}

// simplifyRangeWrap handles the chain from index lo back around to index 0.
func simplifyRangeWrap(pts []Point, lo, n int, tol float64, keep []bool) {
	maxDist, maxIdx := 0.0, -1
	for i := lo + 1; i < n; i++ {
		d := DistancePointToSegment(pts[i], pts[lo], pts[0])
		if d > maxDist {
			maxDist, maxIdx = d, i
		}
	}
	if maxDist > tol && maxIdx >= 0 {
		keep[maxIdx] = true
		simplifyRange(pts, lo, maxIdx, tol, keep)
		simplifyRangeWrap(pts, maxIdx, n, tol, keep)
	}
}

// Snap rounds all coordinates to the Epsilon grid and drops consecutive
// duplicate vertices. Applied on output of boolean operations to eliminate
// spurious vertices.
func (p Polygon) Snap() Polygon {
	if p.IsEmpty() {
		return Polygon{}
	}
	out := make([]Point, 0, len(p.Vertices))
	for _, v := range p.Vertices {
		s := Point{snapCoord(v.X), snapCoord(v.Y)}
		if len(out) > 0 && out[len(out)-1].Equals(s) {
			continue
		}
		out = append(out, s)
	}
	// Closing duplicate.
	for len(out) > 1 && out[0].Equals(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return Polygon{}
	}
	return Polygon{Vertices: out}
}

func snapCoord(c float64) float64 {
	return math.Round(c/Epsilon) * Epsilon
}
