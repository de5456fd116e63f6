package geo

import "sort"

// ClipSegmentToPolygon returns the sub-segments of a-b that lie inside the
// polygon, ordered from a to b. Used to trim road centrelines to the site.
func ClipSegmentToPolygon(a, b Point, poly Polygon) [][2]Point {
	if poly.IsEmpty() {
		return nil
	}
	ts := []float64{0, 1}
	n := len(poly.Vertices)
	d := b.Sub(a)
	for i := 0; i < n; i++ {
		e1, e2 := poly.Edge(i)
		ix, ok := lineIntersection(a, b, e1, e2)
		if !ok {
			continue
		}
		// Parameter along a-b.
		var t float64
		if absf(d.X) >= absf(d.Y) {
			if absf(d.X) < 1e-12 {
				continue
			}
			t = (ix.X - a.X) / d.X
		} else {
			t = (ix.Y - a.Y) / d.Y
		}
		if t <= 0 || t >= 1 {
			continue
		}
		// Must actually lie on the polygon edge.
		if DistancePointToSegment(ix, e1, e2) > 1e-6 {
			continue
		}
		ts = append(ts, t)
	}
	sort.Float64s(ts)

	var out [][2]Point
	for i := 0; i+1 < len(ts); i++ {
		t0, t1 := ts[i], ts[i+1]
		if t1-t0 < 1e-9 {
			continue
		}
		mid := a.Lerp(b, (t0+t1)/2)
		if poly.Contains(mid) {
			out = append(out, [2]Point{a.Lerp(b, t0), a.Lerp(b, t1)})
		}
	}
	return out
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
