package layout

import (
	"sort"

	"github.com/nxc1802/REMB/pkg/geo"
)

// ClassifyOptions holds the shape-quality thresholds and service allocation
// parameters for block classification.
type ClassifyOptions struct {
	MinLotArea        float64 // below this the block is discarded
	MinRectangularity float64 // below this the block becomes green space
	MaxAspect         float64 // above this the block becomes green space
	ServiceAreaRatio  float64 // share of total area reserved for service blocks
	// Elevation returns terrain height at a point; nil means flat terrain.
	// The lowest block hosts the wastewater treatment plant.
	Elevation func(x, y float64) float64
}

// boundaryTouchTolerance is how close a block edge must run to the site
// boundary to count as touching it.
const boundaryTouchTolerance = 12.0

// ClassifyBlocks measures and labels the given block polygons. First match
// wins: undersized blocks are discarded, poorly shaped ones become green
// space, blocks hanging off the site boundary by a single short edge become
// utility, the rest are commercial. The lowest-elevation commercial block is
// then converted to utility (treatment plant) and service blocks are
// interleaved through the elevation order until the service area target is
// met.
func ClassifyBlocks(polys []geo.Polygon, site geo.Polygon, opts ClassifyOptions) []Block {
	blocks := make([]Block, 0, len(polys))
	for i, poly := range polys {
		b := NewBlock(i, poly)
		switch {
		case b.Area < opts.MinLotArea:
			b.Class = BlockDiscard
		case b.Rectangularity < opts.MinRectangularity || b.Aspect > opts.MaxAspect:
			b.Class = BlockGreen
		case touchesBoundaryOnShortEdge(b, site):
			b.Class = BlockUtility
		default:
			b.Class = BlockCommercial
		}
		blocks = append(blocks, b)
	}
	allocateService(blocks, opts)
	return blocks
}

// touchesBoundaryOnShortEdge reports whether the block touches the site
// boundary on exactly one edge that is shorter than the block's OBB width.
func touchesBoundaryOnShortEdge(b Block, site geo.Polygon) bool {
	if site.IsEmpty() {
		return false
	}
	boundary := geo.Polyline{Points: append(append([]geo.Point{}, site.Vertices...), site.Vertices[0])}
	obb := geo.MinimumRotatedRectangle(b.Polygon)

	touching := 0
	shortTouch := false
	n := b.Polygon.Len()
	for i := 0; i < n; i++ {
		e1, e2 := b.Polygon.Edge(i)
		if boundary.DistanceTo(e1) < boundaryTouchTolerance && boundary.DistanceTo(e2) < boundaryTouchTolerance {
			touching++
			if e1.Distance(e2) < obb.Width {
				shortTouch = true
			}
		}
	}
	return touching == 1 && shortTouch
}

// allocateService implements the elevation-driven allocation: the lowest
// commercial block hosts the treatment plant (utility), then service blocks
// are spread evenly through the remaining elevation order until roughly the
// requested share of total area is reached.
func allocateService(blocks []Block, opts ClassifyOptions) {
	elev := opts.Elevation
	if elev == nil {
		elev = func(x, y float64) float64 { return 0 }
	}

	var commercial []int
	totalArea := 0.0
	for i := range blocks {
		if blocks[i].Class == BlockCommercial {
			commercial = append(commercial, i)
		}
		if blocks[i].Class != BlockDiscard {
			totalArea += blocks[i].Area
		}
	}
	if len(commercial) < 2 || opts.ServiceAreaRatio <= 0 {
		return
	}

	sort.SliceStable(commercial, func(a, b int) bool {
		ca := blocks[commercial[a]].Polygon.Centroid()
		cb := blocks[commercial[b]].Polygon.Centroid()
		ea, eb := elev(ca.X, ca.Y), elev(cb.X, cb.Y)
		if ea != eb {
			return ea < eb
		}
		return commercial[a] < commercial[b]
	})

	// Lowest block drains everything: it becomes the treatment plant site.
	blocks[commercial[0]].Class = BlockUtility
	accumulated := blocks[commercial[0]].Area
	remaining := commercial[1:]

	target := totalArea * opts.ServiceAreaRatio
	if accumulated >= target || len(remaining) < 2 {
		return
	}
	avgArea := 0.0
	for _, i := range remaining {
		avgArea += blocks[i].Area
	}
	avgArea /= float64(len(remaining))
	serviceCount := int((target - accumulated) / avgArea)
	if serviceCount < 1 {
		serviceCount = 1
	}
	if limit := len(remaining) * 3 / 10; serviceCount > limit && limit >= 1 {
		serviceCount = limit
	}
	if serviceCount >= len(remaining) {
		serviceCount = len(remaining) - 1
	}

	// Interleave service blocks to avoid clumping.
	step := float64(len(remaining)) / float64(serviceCount)
	for i := 0; i < serviceCount; i++ {
		blocks[remaining[int(float64(i)*step)]].Class = BlockService
	}
}
