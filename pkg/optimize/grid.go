package optimize

import (
	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/index"
	"github.com/nxc1802/REMB/pkg/layout"
)

// goodBlockRectangularity is the quality gate for counting a clipped tile's
// area toward the usable-area objective.
const goodBlockRectangularity = 0.75

// GridProblem scores grid parameters (spacing x/y, rotation, offsets) by
// carving the site into tiles and measuring how much well-shaped block area
// survives clipping.
//
// Objectives (both minimised):
//
//	f1 = -sum of clipped block areas with rectangularity >= 0.75
//	f2 = number of fragments below MinLotArea
type GridProblem struct {
	Site       geo.Polygon
	Obstacles  []geo.Polygon // tiles touching an obstacle are excluded
	SpacingMin float64
	SpacingMax float64
	AngleMin   float64 // degrees
	AngleMax   float64
	MinLotArea float64

	obstacleIndex *index.Index
}

// NewGridProblem prepares the problem, indexing the obstacles for the
// per-evaluation envelope prefilter.
func NewGridProblem(site geo.Polygon, obstacles []geo.Polygon, spacingMin, spacingMax, angleMin, angleMax, minLotArea float64) *GridProblem {
	return &GridProblem{
		Site:          site,
		Obstacles:     obstacles,
		SpacingMin:    spacingMin,
		SpacingMax:    spacingMax,
		AngleMin:      angleMin,
		AngleMax:      angleMax,
		MinLotArea:    minLotArea,
		obstacleIndex: index.Build(obstacles),
	}
}

// Bounds returns the gene bounds: (spacingX, spacingY, angleDeg, offsetX, offsetY).
func (p *GridProblem) Bounds() (lo, hi []float64) {
	lo = []float64{p.SpacingMin, p.SpacingMin, p.AngleMin, 0, 0}
	hi = []float64{p.SpacingMax, p.SpacingMax, p.AngleMax, p.SpacingMax, p.SpacingMax}
	return lo, hi
}

// Params decodes a gene vector.
func (p *GridProblem) Params(genes []float64) layout.GridParams {
	return layout.GridParams{
		SpacingX: genes[0],
		SpacingY: genes[1],
		AngleDeg: genes[2],
		OffsetX:  genes[3],
		OffsetY:  genes[4],
	}
}

// Evaluate clips every candidate tile to the site and scores the layout.
// Pure: no state is mutated and the same genes always produce the same
// objective vector.
func (p *GridProblem) Evaluate(genes []float64) Evaluation {
	params := p.Params(genes)
	tiles := layout.GridCandidates(p.Site, params)

	usable := 0.0
	fragments := 0
	for _, tile := range tiles {
		if p.blocked(tile) {
			continue
		}
		inter := geo.ClipToConvex(p.Site, tile)
		if inter.IsEmpty() {
			continue
		}
		area := inter.Area()
		if area < geo.Epsilon {
			continue
		}
		if area < p.MinLotArea {
			fragments++
			continue
		}
		if geo.Rectangularity(inter) >= goodBlockRectangularity {
			usable += area
		}
	}
	return Evaluation{Objectives: []float64{-usable, float64(fragments)}}
}

// Blocks materialises the usable block polygons for the given genes,
// shrinking each clipped tile by half the road width to leave corridors.
func (p *GridProblem) Blocks(genes []float64, roadWidth, minBlockArea float64) []geo.Polygon {
	params := p.Params(genes)
	tiles := layout.GridCandidates(p.Site, params)

	var blocks []geo.Polygon
	for _, tile := range tiles {
		if p.blocked(tile) {
			continue
		}
		inter := geo.ClipToConvex(p.Site, tile)
		if inter.IsEmpty() || inter.Area() < minBlockArea {
			continue
		}
		block := geo.Erode(inter, roadWidth/2).Simplify(0.1)
		if block.IsEmpty() || block.Area() < minBlockArea {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// blocked reports whether the tile touches any obstacle. The R-tree narrows
// the candidates; the exact intersects test filters false positives.
func (p *GridProblem) blocked(tile geo.Polygon) bool {
	if p.obstacleIndex == nil || p.obstacleIndex.Len() == 0 {
		return false
	}
	minB, maxB := tile.Bounds()
	for _, i := range p.obstacleIndex.QueryEnvelope(minB, maxB) {
		if tile.Intersects(p.Obstacles[i]) {
			return true
		}
	}
	return false
}
