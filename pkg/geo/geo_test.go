package geo

import (
	"errors"
	"math"
	"testing"
)

const tol = 0.01

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// --- Point tests ---

func TestPointVectorOps(t *testing.T) {
	// Opposite corners of a 40x30 m lot.
	front := Pt(12, 5)
	rear := Pt(52, 35)
	if !closeTo(front.Distance(rear), 50, tol) {
		t.Errorf("expected diagonal 50, got %f", front.Distance(rear))
	}
	diag := rear.Sub(front)
	if !closeTo(diag.Length(), 50, tol) {
		t.Errorf("expected vector length 50, got %f", diag.Length())
	}
	if !closeTo(diag.Dot(Pt(1, 0)), 40, tol) {
		t.Errorf("expected frontage projection 40, got %f", diag.Dot(Pt(1, 0)))
	}
	unit := diag.Normalize()
	if !closeTo(unit.X, 0.8, tol) || !closeTo(unit.Y, 0.6, tol) {
		t.Errorf("expected unit (0.8, 0.6), got (%f, %f)", unit.X, unit.Y)
	}
	perp := unit.Perp()
	if !closeTo(perp.Dot(unit), 0, tol) || perp.Cross(unit) >= 0 {
		t.Errorf("Perp must be a CCW quarter turn, got %+v", perp)
	}
}

func TestPointAngleRotate(t *testing.T) {
	// A dominant edge climbing at 30 degrees.
	edge := Pt(math.Sqrt(3)/2, 0.5)
	if !closeTo(edge.Angle(), math.Pi/6, tol) {
		t.Errorf("expected 30 degrees, got %f rad", edge.Angle())
	}
	// Rotating a 40 m frontage into that frame and back is lossless.
	frontage := Pt(40, 0)
	turned := frontage.Rotate(math.Pi / 6)
	if !closeTo(turned.X, 34.641, tol) || !closeTo(turned.Y, 20, tol) {
		t.Errorf("expected (34.641, 20), got (%f, %f)", turned.X, turned.Y)
	}
	back := turned.Rotate(-math.Pi / 6)
	if !closeTo(back.X, 40, tol) || !closeTo(back.Y, 0, tol) {
		t.Errorf("round trip drifted to (%f, %f)", back.X, back.Y)
	}
}

func TestDistancePointToSegment(t *testing.T) {
	// A lot centroid 5 m off a road centreline.
	d := DistancePointToSegment(Pt(18, 5), Pt(0, 0), Pt(36, 0))
	if !closeTo(d, 5, tol) {
		t.Errorf("expected 5, got %f", d)
	}
	// Beyond the segment end the distance is to the endpoint.
	d = DistancePointToSegment(Pt(42, 8), Pt(0, 0), Pt(36, 0))
	if !closeTo(d, 10, tol) {
		t.Errorf("expected 10, got %f", d)
	}
}

// --- Polygon tests ---

func TestPolygonAreaAndPerimeter(t *testing.T) {
	lot := Rect(100, 200, 140, 225) // 40x25 m lot
	if !closeTo(lot.Area(), 1000, tol) {
		t.Errorf("expected area 1000, got %f", lot.Area())
	}
	if !closeTo(lot.Perimeter(), 130, tol) {
		t.Errorf("expected perimeter 130, got %f", lot.Perimeter())
	}
	// A trapezoidal block left over at a road junction.
	block := NewPolygon(Pt(0, 0), Pt(60, 0), Pt(45, 30), Pt(10, 30))
	if !closeTo(block.Area(), 1425, tol) {
		t.Errorf("expected area 1425, got %f", block.Area())
	}
	if !closeTo(block.Reverse().SignedArea(), -1425, tol) {
		t.Errorf("expected reversed winding to flip the sign, got %f", block.Reverse().SignedArea())
	}
}

func TestPolygonCentroid(t *testing.T) {
	lot := Rect(100, 200, 140, 225)
	c := lot.Centroid()
	if !closeTo(c.X, 120, tol) || !closeTo(c.Y, 212.5, tol) {
		t.Errorf("expected centroid (120, 212.5), got (%f, %f)", c.X, c.Y)
	}
	// Winding order must not move the centroid.
	r := lot.Reverse().Centroid()
	if !closeTo(r.X, 120, tol) || !closeTo(r.Y, 212.5, tol) {
		t.Errorf("reversed centroid moved to (%f, %f)", r.X, r.Y)
	}
}

func TestPolygonContains(t *testing.T) {
	block := NewPolygon(Pt(0, 0), Pt(60, 0), Pt(45, 30), Pt(10, 30))
	if !block.Contains(Pt(30, 15)) {
		t.Error("expected block interior point inside")
	}
	if block.Contains(Pt(55, 28)) {
		t.Error("expected point past the slanted edge outside")
	}
	if block.Contains(Pt(30, -2)) {
		t.Error("expected point below the frontage outside")
	}
	// Containment is winding-independent.
	if !block.Reverse().Contains(Pt(30, 15)) {
		t.Error("expected CW ring to contain the same interior point")
	}
}

func TestPolygonValidate(t *testing.T) {
	ok := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	degenerate := NewPolygon(Pt(0, 0), Pt(10, 0))
	if err := degenerate.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	nonFinite := NewPolygon(Pt(0, 0), Pt(math.NaN(), 0), Pt(10, 10))
	if err := nonFinite.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NaN, got %v", err)
	}

	bowtie := NewPolygon(Pt(0, 0), Pt(10, 10), Pt(10, 0), Pt(0, 10))
	if err := bowtie.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for self-intersection, got %v", err)
	}
}

func TestPolygonRotateRoundTrip(t *testing.T) {
	poly := NewPolygon(Pt(2, 1), Pt(12, 3), Pt(11, 9), Pt(1, 8))
	origin := poly.Centroid()
	round := poly.Rotate(0.7, origin).Rotate(-0.7, origin)
	for i, v := range poly.Vertices {
		if v.Distance(round.Vertices[i]) > 1e-9 {
			t.Errorf("vertex %d moved by %g after round trip", i, v.Distance(round.Vertices[i]))
		}
	}
}

func TestPolygonTranslate(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	moved := sq.Translate(Pt(5, -3))
	if !closeTo(moved.Vertices[0].X, 5, tol) || !closeTo(moved.Vertices[0].Y, -3, tol) {
		t.Errorf("unexpected translation result: %+v", moved.Vertices[0])
	}
	if !closeTo(moved.Area(), 100, tol) {
		t.Errorf("translation changed area: %f", moved.Area())
	}
}

func TestPolygonSimplify(t *testing.T) {
	// Square with a redundant collinear midpoint on each edge.
	poly := NewPolygon(
		Pt(0, 0), Pt(5, 0), Pt(10, 0), Pt(10, 5), Pt(10, 10),
		Pt(5, 10), Pt(0, 10), Pt(0, 5),
	)
	simple := poly.Simplify(0.01)
	if simple.Len() >= poly.Len() {
		t.Errorf("expected fewer vertices, got %d of %d", simple.Len(), poly.Len())
	}
	if !closeTo(simple.Area(), 100, 0.5) {
		t.Errorf("simplify changed area: %f", simple.Area())
	}
}

func TestPolygonSnap(t *testing.T) {
	poly := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10+1e-9, 1e-9), Pt(10, 10), Pt(0, 10))
	snapped := poly.Snap()
	if snapped.Len() != 4 {
		t.Errorf("expected 4 vertices after snapping, got %d", snapped.Len())
	}
}

// --- Clipping tests ---

func TestClipToConvexOverlap(t *testing.T) {
	subject := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	clipper := NewPolygon(Pt(5, 5), Pt(15, 5), Pt(15, 15), Pt(5, 15))
	result := ClipToConvex(subject, clipper)
	if !closeTo(result.Area(), 25, 0.1) {
		t.Errorf("expected area 25, got %f", result.Area())
	}
}

func TestClipToConvexDisjoint(t *testing.T) {
	subject := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	clipper := NewPolygon(Pt(20, 20), Pt(30, 20), Pt(30, 30), Pt(20, 30))
	if !ClipToConvex(subject, clipper).IsEmpty() {
		t.Error("expected empty result for disjoint polygons")
	}
}

func TestClipConcaveSubject(t *testing.T) {
	// L-shape clipped by a square over the notch.
	lShape := NewPolygon(
		Pt(0, 0), Pt(20, 0), Pt(20, 10), Pt(10, 10), Pt(10, 20), Pt(0, 20),
	)
	clipper := NewPolygon(Pt(5, 5), Pt(15, 5), Pt(15, 15), Pt(5, 15))
	result := ClipToConvex(lShape, clipper)
	// Intersection is a 10x10 square minus the 5x5 notch corner.
	if !closeTo(result.Area(), 75, 0.5) {
		t.Errorf("expected area 75, got %f", result.Area())
	}
}

func TestErodeSquare(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(20, 0), Pt(20, 20), Pt(0, 20))
	inner := Erode(sq, 5)
	if !closeTo(inner.Area(), 100, 0.5) {
		t.Errorf("expected 10x10 core, got area %f", inner.Area())
	}
	if !Erode(sq, 11).IsEmpty() {
		t.Error("expected collapse when offset exceeds half-width")
	}
}

func TestBufferSegment(t *testing.T) {
	fp := BufferSegment(Pt(0, 0), Pt(10, 0), 4)
	// 10m segment widened to 4m with 2m end caps: 14 x 4.
	if !closeTo(fp.Area(), 56, 0.5) {
		t.Errorf("expected area 56, got %f", fp.Area())
	}
	if !fp.Contains(Pt(5, 1.5)) {
		t.Error("expected footprint to cover the widened band")
	}
}

func TestClipSegmentToPolygon(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	segs := ClipSegmentToPolygon(Pt(-5, 5), Pt(15, 5), sq)
	if len(segs) != 1 {
		t.Fatalf("expected 1 inside segment, got %d", len(segs))
	}
	length := segs[0][0].Distance(segs[0][1])
	if !closeTo(length, 10, 0.1) {
		t.Errorf("expected clipped length 10, got %f", length)
	}

	if segs := ClipSegmentToPolygon(Pt(-5, 20), Pt(15, 20), sq); len(segs) != 0 {
		t.Errorf("expected no segments outside, got %d", len(segs))
	}
}

// --- Hull and OBB tests ---

func TestConvexHull(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10), Pt(5, 5), Pt(3, 7)}
	hull := ConvexHull(pts)
	if hull.Len() != 4 {
		t.Errorf("expected 4 hull vertices, got %d", hull.Len())
	}
	if !closeTo(hull.Area(), 100, tol) {
		t.Errorf("expected hull area 100, got %f", hull.Area())
	}
}

func TestMinimumRotatedRectangle(t *testing.T) {
	// A 20x10 rectangle rotated 30 degrees.
	rect := Rect(0, 0, 20, 10).Rotate(math.Pi/6, Pt(10, 5))
	obb := MinimumRotatedRectangle(rect)
	if !closeTo(obb.Area(), 200, 1) {
		t.Errorf("expected OBB area 200, got %f", obb.Area())
	}
	if !closeTo(obb.Length, 20, 0.1) || !closeTo(obb.Width, 10, 0.1) {
		t.Errorf("expected 20x10 extents, got %f x %f", obb.Length, obb.Width)
	}
}

func TestRectangularity(t *testing.T) {
	rect := Rect(0, 0, 20, 10)
	if !closeTo(Rectangularity(rect), 1.0, 0.01) {
		t.Errorf("expected rectangularity 1.0, got %f", Rectangularity(rect))
	}
	tri := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(0, 10))
	if Rectangularity(tri) > 0.6 {
		t.Errorf("expected triangle rectangularity ~0.5, got %f", Rectangularity(tri))
	}
}

// --- Polyline tests ---

func TestPolylineLength(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(3, 4), Pt(3, 14))
	if !closeTo(pl.Length(), 15, tol) {
		t.Errorf("expected length 15, got %f", pl.Length())
	}
}

func TestPolylinePointAt(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(10, 0))
	mid := pl.PointAt(0.5)
	if !closeTo(mid.X, 5, tol) {
		t.Errorf("expected midpoint at x=5, got %f", mid.X)
	}
}

func TestPolylineNearestPoint(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(10, 0))
	pt, dist := pl.NearestPoint(Pt(5, 3))
	if !closeTo(dist, 3, tol) || !closeTo(pt.X, 5, tol) {
		t.Errorf("expected (5,0) at distance 3, got %+v at %f", pt, dist)
	}
}
