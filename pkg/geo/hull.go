package geo

import (
	"math"
	"sort"
)

// ConvexHull returns the convex hull of the given points in CCW order
// using Andrew's monotone chain.
func ConvexHull(pts []Point) Polygon {
	n := len(pts)
	if n < 3 {
		return Polygon{}
	}
	sorted := make([]Point, n)
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	hull := make([]Point, 0, 2*n)
	// Lower chain.
	for _, p := range sorted {
		for len(hull) >= 2 && hull[len(hull)-1].Sub(hull[len(hull)-2]).Cross(p.Sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper chain.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && hull[len(hull)-1].Sub(hull[len(hull)-2]).Cross(p.Sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return Polygon{}
	}
	return Polygon{Vertices: hull}
}

// OBB describes a minimum rotated bounding rectangle.
type OBB struct {
	Center Point
	// Axis is the unit vector along the longer rectangle edge.
	Axis Point
	// Length and Width are the extents along and across Axis (Length >= Width).
	Length float64
	Width  float64
}

// Area returns the rectangle area.
func (o OBB) Area() float64 {
	return o.Length * o.Width
}

// Polygon returns the rectangle's four corners in CCW order.
func (o OBB) Polygon() Polygon {
	u := o.Axis.Scale(o.Length / 2)
	v := o.Axis.Perp().Scale(o.Width / 2)
	return NewPolygon(
		o.Center.Sub(u).Sub(v),
		o.Center.Add(u).Sub(v),
		o.Center.Add(u).Add(v),
		o.Center.Sub(u).Add(v),
	)
}

// MinimumRotatedRectangle computes the minimum-area oriented bounding
// rectangle of the polygon via rotating calipers over its convex hull.
func MinimumRotatedRectangle(p Polygon) OBB {
	hull := ConvexHull(p.Vertices)
	if hull.IsEmpty() {
		return OBB{}
	}
	best := OBB{Length: math.Inf(1), Width: math.Inf(1)}
	bestArea := math.Inf(1)
	n := len(hull.Vertices)
	for i := 0; i < n; i++ {
		a, b := hull.Edge(i)
		dir := b.Sub(a).Normalize()
		if dir.Length() < 0.5 {
			continue
		}
		perp := dir.Perp()
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, v := range hull.Vertices {
			u := v.Dot(dir)
			w := v.Dot(perp)
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, w)
			maxV = math.Max(maxV, w)
		}
		du, dv := maxU-minU, maxV-minV
		area := du * dv
		if area < bestArea {
			bestArea = area
			center := dir.Scale((minU + maxU) / 2).Add(perp.Scale((minV + maxV) / 2))
			o := OBB{Center: center}
			if du >= dv {
				o.Axis, o.Length, o.Width = dir, du, dv
			} else {
				o.Axis, o.Length, o.Width = perp, dv, du
			}
			best = o
		}
	}
	return best
}

// Rectangularity returns area(p) / area(OBB(p)); 1.0 for rectangles,
// 0 for degenerate polygons.
func Rectangularity(p Polygon) float64 {
	obb := MinimumRotatedRectangle(p)
	if obb.Area() < Epsilon {
		return 0
	}
	return p.Area() / obb.Area()
}
