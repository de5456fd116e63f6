// Package layout holds the geometric building blocks of an estate plan:
// road networks, blocks, and lots, together with the grid and Voronoi
// generators that produce them.
package layout

import (
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
)

// BlockClass identifies the land use assigned to a block.
type BlockClass string

const (
	BlockCommercial BlockClass = "commercial"
	BlockService    BlockClass = "service"
	BlockGreen      BlockClass = "green"
	BlockUtility    BlockClass = "utility"
	BlockDiscard    BlockClass = "discard"
)

// Block is a buildable area derived from the site minus roads.
type Block struct {
	ID             int         `json:"id"`
	Class          BlockClass  `json:"class"`
	Polygon        geo.Polygon `json:"polygon"`
	Area           float64     `json:"area_m2"`
	Perimeter      float64     `json:"perimeter_m"`
	Rectangularity float64     `json:"rectangularity"`
	Aspect         float64     `json:"aspect"`
	DominantEdge   geo.Point   `json:"dominant_edge"` // unit vector along the longer OBB edge
}

// NewBlock measures the polygon and returns an unclassified block.
func NewBlock(id int, poly geo.Polygon) Block {
	b := Block{ID: id, Polygon: poly}
	b.Area = poly.Area()
	b.Perimeter = poly.Perimeter()
	obb := geo.MinimumRotatedRectangle(poly)
	if obb.Area() > geo.Epsilon {
		b.Rectangularity = b.Area / obb.Area()
		b.DominantEdge = obb.Axis
		if obb.Width > geo.Epsilon {
			b.Aspect = obb.Length / obb.Width
		} else {
			// Degenerate sliver; any finite aspect above every threshold
			// keeps the block out of the commercial pool and the record
			// JSON-encodable.
			b.Aspect = math.MaxFloat64
		}
	}
	return b
}

// AestheticScore favours compact, rectangular blocks; used for tie-breaking.
func (b Block) AestheticScore() float64 {
	if b.Aspect < 1 {
		return 0.7 * b.Rectangularity
	}
	return 0.7*b.Rectangularity + 0.3/b.Aspect
}

// Lot is an axis-oriented rectangle sliced out of a block and clipped back
// to it. Lots reference their parent block by index, never by pointer.
type Lot struct {
	ID       int         `json:"id"`
	BlockID  int         `json:"block_id"`
	Polygon  geo.Polygon `json:"polygon"`
	Width    float64     `json:"width_m"`
	Depth    float64     `json:"depth_m"`
	Area     float64     `json:"area_m2"`
	Centroid geo.Point   `json:"centroid"`
}

// RoadClass identifies a road segment's role in the network.
type RoadClass string

const (
	RoadMain     RoadClass = "main"
	RoadInternal RoadClass = "internal"
)

// RoadSegment is a centreline plus a width; its footprint is the centreline
// buffered by width/2 with mitre joins.
type RoadSegment struct {
	Centreline geo.Polyline `json:"centreline"`
	Width      float64      `json:"width_m"`
	Class      RoadClass    `json:"class"`
}

// Footprint returns the buffered polygons covering the segment.
func (s RoadSegment) Footprint() []geo.Polygon {
	return geo.BufferPolyline(s.Centreline.Points, s.Width)
}

// RoadNetwork is the set of road segments carved out of the site.
type RoadNetwork struct {
	Segments []RoadSegment `json:"segments"`
}

// TotalLength returns the summed centreline length.
func (n RoadNetwork) TotalLength() float64 {
	total := 0.0
	for _, s := range n.Segments {
		total += s.Centreline.Length()
	}
	return total
}

// Footprint returns the buffered polygons of all segments.
func (n RoadNetwork) Footprint() []geo.Polygon {
	var out []geo.Polygon
	for _, s := range n.Segments {
		out = append(out, s.Footprint()...)
	}
	return out
}
