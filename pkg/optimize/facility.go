package optimize

import (
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
)

// Facility describes one plot to place in the constrained layout variant.
type Facility struct {
	Name    string
	Type    string
	MinSize float64 // m², square root bounds the plot dimensions
	MaxSize float64
}

// RoadChecker reports whether a point can reach the road network; wired to
// the A* validator by the pipeline.
type RoadChecker interface {
	CanReach(p geo.Point) bool
}

// FacilityProblem places n rectangular facilities inside a buildable area
// under hard constraints: pairwise separation (with per-type-pair minima),
// containment, and optional road reachability.
//
// Objectives (minimised): -total plot area, centroid spread (compactness),
// summed pairwise centroid distance (road length estimate).
type FacilityProblem struct {
	Site          geo.Polygon
	Buildable     geo.Polygon
	Facilities    []Facility
	MinSeparation float64
	// TypeSeparation holds minimum separations per unordered type pair.
	TypeSeparation map[[2]string]float64
	Roads         RoadChecker
}

// Plot is one decoded facility rectangle.
type Plot struct {
	Facility Facility
	Center   geo.Point
	Width    float64
	Height   float64
}

// Polygon returns the plot rectangle.
func (p Plot) Polygon() geo.Polygon {
	return geo.Rect(p.Center.X-p.Width/2, p.Center.Y-p.Height/2,
		p.Center.X+p.Width/2, p.Center.Y+p.Height/2)
}

// Bounds returns gene bounds: per facility (x, y normalised; width, height
// in metres between sqrt(MinSize) and sqrt(MaxSize)).
func (p *FacilityProblem) Bounds() (lo, hi []float64) {
	for _, f := range p.Facilities {
		minDim := math.Sqrt(f.MinSize)
		maxDim := math.Sqrt(f.MaxSize)
		lo = append(lo, 0, 0, minDim, minDim)
		hi = append(hi, 1, 1, maxDim, maxDim)
	}
	return lo, hi
}

// Decode converts a gene vector to plots in site coordinates.
func (p *FacilityProblem) Decode(genes []float64) []Plot {
	minB, maxB := p.Buildable.Bounds()
	w := maxB.X - minB.X
	h := maxB.Y - minB.Y
	plots := make([]Plot, len(p.Facilities))
	for i, f := range p.Facilities {
		g := genes[i*4:]
		plots[i] = Plot{
			Facility: f,
			Center:   geo.Pt(minB.X+g[0]*w, minB.Y+g[1]*h),
			Width:    g[2],
			Height:   g[3],
		}
	}
	return plots
}

// separation returns the required clearance between two facilities.
func (p *FacilityProblem) separation(a, b Facility) float64 {
	sep := p.MinSeparation
	key := [2]string{a.Type, b.Type}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if s, ok := p.TypeSeparation[key]; ok && s > sep {
		sep = s
	}
	return sep
}

// Evaluate scores a layout. The violation is the sum of positive constraint
// excesses, so the constraint-domination rule can order infeasibles.
func (p *FacilityProblem) Evaluate(genes []float64) Evaluation {
	plots := p.Decode(genes)
	n := len(plots)

	totalArea := 0.0
	var cx, cy float64
	for _, pl := range plots {
		totalArea += pl.Width * pl.Height
		cx += pl.Center.X
		cy += pl.Center.Y
	}
	mean := geo.Pt(cx/float64(n), cy/float64(n))

	spread := 0.0
	pairDist := 0.0
	violation := 0.0
	for i, a := range plots {
		spread += a.Center.Distance(mean)
		for j := i + 1; j < n; j++ {
			b := plots[j]
			pairDist += a.Center.Distance(b.Center)

			// Edge-to-edge separation per axis; plots clear each other when
			// the larger of the two is at least the required clearance.
			sepX := math.Abs(a.Center.X-b.Center.X) - a.Width/2 - b.Width/2
			sepY := math.Abs(a.Center.Y-b.Center.Y) - a.Height/2 - b.Height/2
			g := p.separation(a.Facility, b.Facility) - math.Max(sepX, sepY)
			if g > 0 {
				violation += g
			}
		}
		// Containment: vertices outside the buildable area.
		rect := a.Polygon()
		for _, v := range rect.Vertices {
			if !p.Buildable.Contains(v) {
				violation += boundaryDistance(p.Buildable, v)
			}
		}
		if p.Roads != nil && !p.Roads.CanReach(a.Center) {
			violation += 1
		}
	}

	return Evaluation{
		Objectives: []float64{-totalArea, spread, pairDist},
		Violation:  violation,
	}
}

// boundaryDistance returns the distance from v to the polygon boundary.
func boundaryDistance(poly geo.Polygon, v geo.Point) float64 {
	best := math.Inf(1)
	for i := 0; i < poly.Len(); i++ {
		a, b := poly.Edge(i)
		if d := geo.DistancePointToSegment(v, a, b); d < best {
			best = d
		}
	}
	return best
}
