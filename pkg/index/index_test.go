package index

import (
	"testing"

	"github.com/nxc1802/REMB/pkg/geo"
)

func tile(x, y float64) geo.Polygon {
	return geo.Rect(x, y, x+10, y+10)
}

func TestQueryEnvelopeFindsAllOverlaps(t *testing.T) {
	var polys []geo.Polygon
	for x := 0.0; x < 100; x += 10 {
		for y := 0.0; y < 100; y += 10 {
			polys = append(polys, tile(x, y))
		}
	}
	ix := Build(polys)
	if ix.Len() != 100 {
		t.Fatalf("expected 100 indexed polygons, got %d", ix.Len())
	}

	// Query window overlapping a 2x2 patch of tiles.
	hits := ix.QueryEnvelope(geo.Pt(15, 15), geo.Pt(25, 25))
	found := make(map[int]bool)
	for _, h := range hits {
		found[h] = true
	}
	// Exhaustive check: no true positive may be missing.
	for i, p := range polys {
		minB, maxB := p.Bounds()
		overlaps := minB.X <= 25 && maxB.X >= 15 && minB.Y <= 25 && maxB.Y >= 15
		if overlaps && !found[i] {
			t.Errorf("index missed overlapping polygon %d", i)
		}
	}
}

func TestQueryNearest(t *testing.T) {
	polys := []geo.Polygon{tile(0, 0), tile(50, 50), tile(200, 200)}
	ix := Build(polys)
	hits := ix.QueryNearest(geo.Pt(52, 52), 1)
	if len(hits) != 1 || hits[0] != 1 {
		t.Errorf("expected nearest polygon 1, got %v", hits)
	}
}

func TestBuildSkipsEmpty(t *testing.T) {
	ix := Build([]geo.Polygon{{}, tile(0, 0)})
	if ix.Len() != 1 {
		t.Errorf("expected 1 indexed polygon, got %d", ix.Len())
	}
}
