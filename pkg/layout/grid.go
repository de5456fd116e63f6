package layout

import (
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
)

// GridParams are the genes of one grid candidate: rectangular tile sizes,
// rotation about the site centroid, and lattice offsets.
type GridParams struct {
	SpacingX float64 `json:"spacing_x"`
	SpacingY float64 `json:"spacing_y"`
	AngleDeg float64 `json:"angle_deg"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
}

// GridCandidates produces the rectangular tiles of a lattice sized to cover
// the site's bounding circle, rotated by AngleDeg around the site centroid.
// Only tiles that intersect the site are returned; each is a convex quad.
func GridCandidates(site geo.Polygon, p GridParams) []geo.Polygon {
	if site.IsEmpty() || p.SpacingX <= 0 || p.SpacingY <= 0 {
		return nil
	}
	center := site.Centroid()
	radius := boundingRadius(site, center)
	angle := p.AngleDeg * math.Pi / 180

	sMin, sMax := site.Bounds()
	var tiles []geo.Polygon
	// Lattice in the unrotated frame centred on the site centroid.
	for x := -radius + math.Mod(p.OffsetX, p.SpacingX); x < radius; x += p.SpacingX {
		for y := -radius + math.Mod(p.OffsetY, p.SpacingY); y < radius; y += p.SpacingY {
			tile := geo.Rect(center.X+x, center.Y+y, center.X+x+p.SpacingX, center.Y+y+p.SpacingY)
			if angle != 0 {
				tile = tile.Rotate(angle, center)
			}
			tMin, tMax := tile.Bounds()
			if tMax.X < sMin.X || tMin.X > sMax.X || tMax.Y < sMin.Y || tMin.Y > sMax.Y {
				continue
			}
			if tile.Intersects(site) {
				tiles = append(tiles, tile)
			}
		}
	}
	return tiles
}

// GridRoadNetwork derives road centrelines along the lattice lines of the
// given grid parameters, clipped to the site. Lines are spaced one tile
// apart, so each carries the internal road width; the lattice rows/columns
// closest to the centroid are promoted to main roads.
func GridRoadNetwork(site geo.Polygon, p GridParams, mainWidth, internalWidth float64) RoadNetwork {
	if site.IsEmpty() || p.SpacingX <= 0 || p.SpacingY <= 0 {
		return RoadNetwork{}
	}
	center := site.Centroid()
	radius := boundingRadius(site, center)
	angle := p.AngleDeg * math.Pi / 180

	var network RoadNetwork
	addLine := func(a, b geo.Point, main bool) {
		if angle != 0 {
			a = a.RotateAround(center, angle)
			b = b.RotateAround(center, angle)
		}
		for _, seg := range geo.ClipSegmentToPolygon(a, b, site) {
			class, width := RoadInternal, internalWidth
			if main {
				class, width = RoadMain, mainWidth
			}
			network.Segments = append(network.Segments, RoadSegment{
				Centreline: geo.NewPolyline(seg[0], seg[1]),
				Width:      width,
				Class:      class,
			})
		}
	}

	// The lattice line closest to the centroid in each direction carries the
	// main road; the rest are internal.
	xs := latticeOffsets(p.OffsetX, p.SpacingX, radius)
	ys := latticeOffsets(p.OffsetY, p.SpacingY, radius)
	mainX := closestToZero(xs)
	mainY := closestToZero(ys)
	for i, x := range xs {
		addLine(geo.Pt(center.X+x, center.Y-radius), geo.Pt(center.X+x, center.Y+radius), i == mainX)
	}
	for i, y := range ys {
		addLine(geo.Pt(center.X-radius, center.Y+y), geo.Pt(center.X+radius, center.Y+y), i == mainY)
	}
	return network
}

// latticeOffsets returns the lattice line offsets from the centre covering
// [-radius, radius].
func latticeOffsets(offset, spacing, radius float64) []float64 {
	var out []float64
	for v := -radius + math.Mod(offset, spacing); v < radius; v += spacing {
		out = append(out, v)
	}
	return out
}

func closestToZero(vals []float64) int {
	best := -1
	for i, v := range vals {
		if best < 0 || math.Abs(v) < math.Abs(vals[best]) {
			best = i
		}
	}
	return best
}

// boundingRadius returns the radius of the bounding circle of the site
// around the given center.
func boundingRadius(site geo.Polygon, center geo.Point) float64 {
	r := 0.0
	for _, v := range site.Vertices {
		if d := v.Distance(center); d > r {
			r = d
		}
	}
	return r + 1
}
