package layout

import (
	"testing"

	"github.com/nxc1802/REMB/pkg/geo"
)

func classifyOpts() ClassifyOptions {
	return ClassifyOptions{
		MinLotArea:        250,
		MinRectangularity: 0.65,
		MaxAspect:         4.0,
		ServiceAreaRatio:  0.10,
	}
}

func TestClassifyDiscardSmall(t *testing.T) {
	site := geo.Rect(0, 0, 1000, 1000)
	blocks := ClassifyBlocks([]geo.Polygon{geo.Rect(400, 400, 410, 410)}, site, classifyOpts())
	if blocks[0].Class != BlockDiscard {
		t.Errorf("expected discard for 100 m² block, got %s", blocks[0].Class)
	}
}

func TestClassifyGreenForPoorShape(t *testing.T) {
	site := geo.Rect(0, 0, 1000, 1000)
	// Thin sliver: aspect 12.5 with plenty of area.
	sliver := geo.Rect(100, 100, 350, 120)
	blocks := ClassifyBlocks([]geo.Polygon{sliver}, site, classifyOpts())
	if blocks[0].Class != BlockGreen {
		t.Errorf("expected green for high-aspect block, got %s", blocks[0].Class)
	}

	// Triangle: rectangularity 0.5.
	tri := geo.NewPolygon(geo.Pt(100, 300), geo.Pt(160, 300), geo.Pt(100, 360))
	blocks = ClassifyBlocks([]geo.Polygon{tri}, site, classifyOpts())
	if blocks[0].Class != BlockGreen {
		t.Errorf("expected green for triangle, got %s", blocks[0].Class)
	}
}

func TestClassifyCommercialInterior(t *testing.T) {
	site := geo.Rect(0, 0, 1000, 1000)
	block := geo.Rect(400, 400, 460, 440)
	blocks := ClassifyBlocks([]geo.Polygon{block}, site, classifyOpts())
	if blocks[0].Class != BlockCommercial {
		t.Errorf("expected commercial for well-shaped interior block, got %s", blocks[0].Class)
	}
}

func TestClassifyElevationAllocation(t *testing.T) {
	site := geo.Rect(0, 0, 1000, 200)
	// A row of identical commercial-quality blocks.
	var polys []geo.Polygon
	for x := 100.0; x+60 <= 900; x += 80 {
		polys = append(polys, geo.Rect(x, 80, x+60, 120))
	}
	opts := classifyOpts()
	// A quarter of the area goes to service so the interleave kicks in.
	opts.ServiceAreaRatio = 0.25
	// Terrain slopes down toward +x, so the right-most block is lowest.
	opts.Elevation = func(x, y float64) float64 { return -x }

	blocks := ClassifyBlocks(polys, site, opts)

	var utility, service, commercial int
	var utilityBlock *Block
	for i := range blocks {
		switch blocks[i].Class {
		case BlockUtility:
			utility++
			utilityBlock = &blocks[i]
		case BlockService:
			service++
		case BlockCommercial:
			commercial++
		}
	}
	if utility != 1 {
		t.Fatalf("expected exactly 1 utility block, got %d", utility)
	}
	// The treatment plant block must be the lowest (largest x).
	c := utilityBlock.Polygon.Centroid()
	for _, b := range blocks {
		if b.Polygon.Centroid().X > c.X+1 {
			t.Errorf("utility block is not the lowest: %f < %f", c.X, b.Polygon.Centroid().X)
		}
	}
	if commercial == 0 {
		t.Error("expected commercial blocks to remain")
	}
	if service == 0 {
		t.Error("expected interleaved service blocks")
	}
}

func TestAestheticScore(t *testing.T) {
	square := NewBlock(0, geo.Rect(0, 0, 40, 40))
	thin := NewBlock(1, geo.Rect(0, 0, 160, 10))
	if square.AestheticScore() <= thin.AestheticScore() {
		t.Errorf("square should score higher: %f vs %f",
			square.AestheticScore(), thin.AestheticScore())
	}
}
