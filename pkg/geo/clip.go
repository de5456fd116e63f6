package geo

import "math"

// ClipToConvex intersects the subject polygon with a convex clipper by
// clipping the subject against each clipper edge's half-plane in turn
// (Sutherland-Hodgman). The subject may be concave; the clipper must be
// convex. Returns the snapped intersection, or empty.
func ClipToConvex(subject, clipper Polygon) Polygon {
	if subject.IsEmpty() || clipper.IsEmpty() {
		return Polygon{}
	}
	clipper = clipper.EnsureCCW()
	result := subject
	n := len(clipper.Vertices)
	for i := 0; i < n && !result.IsEmpty(); i++ {
		a, b := clipper.Edge(i)
		result = ClipToHalfPlane(result, a, b)
	}
	if result.IsEmpty() {
		return Polygon{}
	}
	return result.Snap()
}

// ClipToHalfPlane keeps the part of the polygon on the left of the
// directed line a->b. Each vertex is emitted if it is inside, preceded by
// the boundary crossing when the edge from its predecessor crosses the
// line.
func ClipToHalfPlane(poly Polygon, a, b Point) Polygon {
	if poly.IsEmpty() {
		return Polygon{}
	}
	out := make([]Point, 0, len(poly.Vertices)+2)
	prev := poly.Vertices[len(poly.Vertices)-1]
	prevIn := leftOfLine(prev, a, b)
	for _, cur := range poly.Vertices {
		curIn := leftOfLine(cur, a, b)
		if curIn != prevIn {
			if ix, ok := lineIntersection(prev, cur, a, b); ok {
				out = append(out, ix)
			}
		}
		if curIn {
			out = append(out, cur)
		}
		prev, prevIn = cur, curIn
	}
	if len(out) < 3 {
		return Polygon{}
	}
	return Polygon{Vertices: out}
}

// Erode offsets the polygon inward by d by clipping against each edge's
// inward-shifted half-plane. Exact for convex polygons; a conservative
// approximation for concave ones. Returns empty if the polygon collapses.
func Erode(p Polygon, d float64) Polygon {
	if p.IsEmpty() {
		return Polygon{}
	}
	if d <= 0 {
		return p
	}
	p = p.EnsureCCW()
	result := p
	n := len(p.Vertices)
	for i := 0; i < n; i++ {
		a, b := p.Edge(i)
		dir := b.Sub(a).Normalize()
		if dir.Length() < 0.5 {
			continue
		}
		// Interior is left of each CCW edge; shift the edge line inward.
		inward := dir.Perp()
		oa := a.Add(inward.Scale(d))
		ob := b.Add(inward.Scale(d))
		result = ClipToHalfPlane(result, oa, ob)
		if result.IsEmpty() {
			return Polygon{}
		}
	}
	result = result.Snap()
	if result.Area() < Epsilon {
		return Polygon{}
	}
	return result
}

// BufferSegment returns the rectangular footprint of the segment a-b widened
// to the given width with flat caps extended by half the width, so adjacent
// segment footprints overlap cleanly at elbows (mitre-style joins).
func BufferSegment(a, b Point, width float64) Polygon {
	dir := b.Sub(a).Normalize()
	if dir.Length() < 0.5 {
		return Polygon{}
	}
	half := width / 2
	side := dir.Perp().Scale(half)
	ext := dir.Scale(half)
	a = a.Sub(ext)
	b = b.Add(ext)
	return NewPolygon(a.Add(side), a.Sub(side), b.Sub(side), b.Add(side)).EnsureCCW()
}

// BufferPolyline buffers each segment of the polyline to its rectangular
// footprint. The returned polygons jointly cover the mitre-joined buffer of
// the line at the given width.
func BufferPolyline(line []Point, width float64) []Polygon {
	var out []Polygon
	for i := 0; i+1 < len(line); i++ {
		seg := BufferSegment(line[i], line[i+1], width)
		if !seg.IsEmpty() {
			out = append(out, seg)
		}
	}
	return out
}

// leftOfLine reports whether p lies on or left of the directed line a->b.
func leftOfLine(p, a, b Point) bool {
	return b.Sub(a).Cross(p.Sub(a)) >= 0
}

// lineIntersection intersects the infinite lines through p1->p2 and
// p3->p4 parametrically; false when they are (near-)parallel.
func lineIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	r := p2.Sub(p1)
	s := p4.Sub(p3)
	denom := r.Cross(s)
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	t := p3.Sub(p1).Cross(s) / denom
	return p1.Add(r.Scale(t)), true
}
