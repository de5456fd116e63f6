package layout

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/nxc1802/REMB/pkg/geo"
)

// VoronoiOptions configures the Voronoi road generator.
type VoronoiOptions struct {
	Seeds           int
	LloydIterations int     // 0 disables relaxation
	LloydTolerance  float64 // max seed movement to stop, metres
	MainWidth       float64
	InternalWidth   float64
	MinBlockArea    float64
	LatinHypercube  bool
	// MainRoads optionally pre-splits the site: Voronoi runs within each
	// sub-region so the supplied roads stay straight.
	MainRoads []geo.Polyline
}

// VoronoiResult is the output of the Voronoi road generator.
type VoronoiResult struct {
	Network         RoadNetwork
	Blocks          []geo.Polygon
	Seeds           []geo.Point
	LloydIterations int
}

// mainRoadLength is the centreline length above which a Voronoi edge is
// classified as a main road; mainRoadCentreDist promotes edges passing near
// the site centroid the same way.
const (
	mainRoadLength     = 400.0
	mainRoadCentreDist = 100.0
)

// GenerateVoronoiRoads seeds the site, optionally Lloyd-relaxes the seeds
// into a centroidal tessellation, and derives road segments from the cell
// boundaries and blocks from the eroded cells.
func GenerateVoronoiRoads(site geo.Polygon, opts VoronoiOptions, rng *rand.Rand) (VoronoiResult, error) {
	if site.IsEmpty() {
		return VoronoiResult{}, fmt.Errorf("voronoi roads: %w", geo.ErrInvalidInput)
	}
	if opts.Seeds < 2 {
		return VoronoiResult{}, fmt.Errorf("voronoi roads: need at least 2 seeds, got %d", opts.Seeds)
	}

	if len(opts.MainRoads) > 0 {
		return generateConstrained(site, opts, rng)
	}

	var seeds []geo.Point
	if opts.LatinHypercube {
		seeds = geo.SampleSeedsLatin(site, opts.Seeds, rng)
	} else {
		seeds = geo.SampleSeeds(site, opts.Seeds, rng)
	}

	iters := 0
	if opts.LloydIterations > 0 {
		tol := opts.LloydTolerance
		if tol <= 0 {
			tol = 0.1
		}
		seeds, iters = geo.LloydRelax(seeds, site, opts.LloydIterations, tol)
	}

	cells, _ := clippedCells(seeds, site, rng)
	if len(cells) == 0 {
		return VoronoiResult{}, fmt.Errorf("voronoi roads: all %d cells degenerate", opts.Seeds)
	}

	network := extractRoads(cells, site, opts)
	blocks := deriveBlocks(cells, opts)

	return VoronoiResult{
		Network:         network,
		Blocks:          blocks,
		Seeds:           seeds,
		LloydIterations: iters,
	}, nil
}

// generateConstrained pre-splits the site by the supplied main roads and
// runs the unconstrained generator inside each sub-region.
func generateConstrained(site geo.Polygon, opts VoronoiOptions, rng *rand.Rand) (VoronoiResult, error) {
	regions := splitByRoads(site, opts.MainRoads, opts.MainWidth)
	sub := opts
	sub.MainRoads = nil

	var result VoronoiResult
	for _, line := range opts.MainRoads {
		result.Network.Segments = append(result.Network.Segments, RoadSegment{
			Centreline: line,
			Width:      opts.MainWidth,
			Class:      RoadMain,
		})
	}

	totalArea := 0.0
	for _, r := range regions {
		totalArea += r.Area()
	}
	for _, region := range regions {
		if region.Area() < opts.MinBlockArea {
			continue
		}
		// Seeds proportional to region share, at least 2.
		sub.Seeds = int(math.Max(2, math.Round(float64(opts.Seeds)*region.Area()/totalArea)))
		rr, err := GenerateVoronoiRoads(region, sub, rng)
		if err != nil {
			// Small leftover region: keep it as one block.
			result.Blocks = append(result.Blocks, region)
			continue
		}
		result.Network.Segments = append(result.Network.Segments, rr.Network.Segments...)
		result.Blocks = append(result.Blocks, rr.Blocks...)
		result.Seeds = append(result.Seeds, rr.Seeds...)
	}
	if len(result.Blocks) == 0 {
		return VoronoiResult{}, fmt.Errorf("voronoi roads: constrained split produced no blocks")
	}
	return result, nil
}

// splitByRoads cuts the site along each road centreline's half-planes.
// Roads are assumed axis-aligned or near-straight; each polyline's first and
// last points define the cut line.
func splitByRoads(site geo.Polygon, roads []geo.Polyline, width float64) []geo.Polygon {
	regions := []geo.Polygon{site}
	for _, road := range roads {
		if len(road.Points) < 2 {
			continue
		}
		a := road.Points[0]
		b := road.Points[len(road.Points)-1]
		dir := b.Sub(a).Normalize()
		off := dir.Perp().Scale(width / 2)
		var next []geo.Polygon
		for _, region := range regions {
			left := geo.ClipToHalfPlane(region, a.Add(off), b.Add(off))
			right := geo.ClipToHalfPlane(region, b.Sub(off), a.Sub(off))
			for _, part := range []geo.Polygon{left, right} {
				if !part.IsEmpty() && part.Area() > geo.Epsilon {
					next = append(next, part.Snap())
				}
			}
		}
		regions = next
	}
	return regions
}

// clippedCells computes Voronoi cells clipped to the site. A seed whose cell
// degenerates is retried once with a small perturbation, then dropped.
func clippedCells(seeds []geo.Point, site geo.Polygon, rng *rand.Rand) ([]geo.Polygon, int) {
	minB, maxB := site.Bounds()
	bounds := geo.Rect(minB.X, minB.Y, maxB.X, maxB.Y)

	dropped := 0
	current := make([]geo.Point, len(seeds))
	copy(current, seeds)
	for attempt := 0; attempt < 2; attempt++ {
		cells := geo.Voronoi(current, bounds)
		var out []geo.Polygon
		var badIdx []int
		for i, cell := range cells {
			clipped := geo.ClipToConvex(site, cell.Polygon)
			if clipped.IsEmpty() || clipped.Area() < geo.Epsilon {
				badIdx = append(badIdx, i)
				continue
			}
			out = append(out, clipped)
		}
		if len(badIdx) == 0 || attempt == 1 {
			return out, len(badIdx)
		}
		// Perturb the failed seeds and retry the whole diagram once.
		for _, i := range badIdx {
			current[i] = current[i].Add(geo.Pt(rng.Float64()-0.5, rng.Float64()-0.5))
		}
		dropped = len(badIdx)
	}
	return nil, dropped
}

// extractRoads deduplicates the shared cell boundaries and buffers them into
// classified road segments.
func extractRoads(cells []geo.Polygon, site geo.Polygon, opts VoronoiOptions) RoadNetwork {
	type edgeKey struct{ ax, ay, bx, by int64 }
	quantize := func(p geo.Point) (int64, int64) {
		return int64(math.Round(p.X * 100)), int64(math.Round(p.Y * 100))
	}
	keyOf := func(a, b geo.Point) edgeKey {
		ax, ay := quantize(a)
		bx, by := quantize(b)
		if ax > bx || (ax == bx && ay > by) {
			ax, ay, bx, by = bx, by, ax, ay
		}
		return edgeKey{ax, ay, bx, by}
	}

	type edge struct{ a, b geo.Point }
	seen := make(map[edgeKey]bool)
	var edges []edge
	for _, cell := range cells {
		for i := 0; i < cell.Len(); i++ {
			a, b := cell.Edge(i)
			if a.Distance(b) < 0.5 {
				continue
			}
			k := keyOf(a, b)
			if seen[k] {
				continue
			}
			seen[k] = true
			edges = append(edges, edge{a, b})
		}
	}
	// Stable order regardless of map iteration.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].a.X != edges[j].a.X {
			return edges[i].a.X < edges[j].a.X
		}
		if edges[i].a.Y != edges[j].a.Y {
			return edges[i].a.Y < edges[j].a.Y
		}
		if edges[i].b.X != edges[j].b.X {
			return edges[i].b.X < edges[j].b.X
		}
		return edges[i].b.Y < edges[j].b.Y
	})

	centre := site.Centroid()
	var network RoadNetwork
	for _, e := range edges {
		length := e.a.Distance(e.b)
		mid := geo.MidPoint(e.a, e.b)
		class, width := RoadInternal, opts.InternalWidth
		if length > mainRoadLength || mid.Distance(centre) < mainRoadCentreDist {
			class, width = RoadMain, opts.MainWidth
		}
		network.Segments = append(network.Segments, RoadSegment{
			Centreline: geo.NewPolyline(e.a, e.b),
			Width:      width,
			Class:      class,
		})
	}
	return network
}

// deriveBlocks erodes each clipped cell by half the internal road width so
// the cell boundaries become road corridors, and filters tiny leftovers.
func deriveBlocks(cells []geo.Polygon, opts VoronoiOptions) []geo.Polygon {
	var blocks []geo.Polygon
	for _, cell := range cells {
		block := geo.Erode(cell, opts.InternalWidth/2)
		if block.IsEmpty() {
			continue
		}
		block = block.Simplify(0.1)
		if block.Area() < opts.MinBlockArea {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}
