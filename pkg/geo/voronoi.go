package geo

import (
	"math"
	"math/rand"
	"sort"
)

// VoronoiCell represents one cell in a Voronoi diagram.
type VoronoiCell struct {
	SeedIndex int     // index into the original seed array
	Seed      Point   // the seed point
	Polygon   Polygon // the cell boundary, clipped to the bounds
	Neighbors []int   // indices of neighboring seed points
}

// Voronoi computes the Voronoi diagram of the seed points clipped to the
// given convex bounding polygon. Cell geometry comes from intersecting
// bisector half-planes (robust for the seed counts this pipeline uses);
// adjacency comes from the Delaunay triangulation.
func Voronoi(seeds []Point, bounds Polygon) []VoronoiCell {
	n := len(seeds)
	if n == 0 {
		return nil
	}
	neighbors := DelaunayNeighbors(seeds, bounds)
	cells := make([]VoronoiCell, n)
	for i, s := range seeds {
		cells[i] = VoronoiCell{
			SeedIndex: i,
			Seed:      s,
			Polygon:   bisectorCell(i, seeds, bounds),
			Neighbors: neighbors[i],
		}
	}
	return cells
}

// bisectorCell clips the bounds against the bisector of seed i and every
// other seed, keeping seed i's side each time.
func bisectorCell(i int, seeds []Point, bounds Polygon) Polygon {
	cell := bounds
	for j, other := range seeds {
		if j == i || cell.IsEmpty() {
			continue
		}
		a, b := bisector(seeds[i], other)
		cell = ClipToHalfPlane(cell, a, b)
	}
	return cell
}

// bisector returns two points spanning the perpendicular bisector of s and
// o, directed so that s lies on the left (kept) side.
func bisector(s, o Point) (Point, Point) {
	mid := MidPoint(s, o)
	return mid, mid.Add(o.Sub(s).Perp())
}

// LloydRelax moves each seed to the centroid of its cell clipped to the site,
// iterating until maxIter or until the largest seed movement drops below tol.
// Returns the relaxed seeds and the number of iterations performed.
func LloydRelax(seeds []Point, site Polygon, maxIter int, tol float64) ([]Point, int) {
	if len(seeds) == 0 || site.IsEmpty() {
		return seeds, 0
	}
	minB, maxB := site.Bounds()
	bounds := Rect(minB.X, minB.Y, maxB.X, maxB.Y)
	current := make([]Point, len(seeds))
	copy(current, seeds)

	iter := 0
	for ; iter < maxIter; iter++ {
		cells := Voronoi(current, bounds)
		maxMove := 0.0
		for i, cell := range cells {
			clipped := ClipToConvex(site, cell.Polygon)
			if clipped.IsEmpty() {
				continue
			}
			c := clipped.Centroid()
			move := c.Distance(current[i])
			if move > maxMove {
				maxMove = move
			}
			current[i] = c
		}
		if maxMove < tol {
			iter++
			break
		}
	}
	return current, iter
}

// SampleSeeds draws n seed points inside the site by rejection sampling from
// its bounding box using the supplied generator. A seed that cannot be placed
// after 100 attempts falls back to a jittered centroid.
func SampleSeeds(site Polygon, n int, rng *rand.Rand) []Point {
	minB, maxB := site.Bounds()
	w, h := maxB.X-minB.X, maxB.Y-minB.Y
	seeds := make([]Point, 0, n)
	for len(seeds) < n {
		placed := false
		for attempt := 0; attempt < 100; attempt++ {
			p := Pt(minB.X+rng.Float64()*w, minB.Y+rng.Float64()*h)
			if site.Contains(p) {
				seeds = append(seeds, p)
				placed = true
				break
			}
		}
		if !placed {
			c := site.Centroid()
			seeds = append(seeds, c.Add(Pt(rng.Float64()-0.5, rng.Float64()-0.5)))
		}
	}
	return seeds
}

// SampleSeedsLatin draws n seeds with Latin-hypercube stratification over the
// bounding box, keeping only in-site points and topping up by rejection.
func SampleSeedsLatin(site Polygon, n int, rng *rand.Rand) []Point {
	minB, maxB := site.Bounds()
	w, h := maxB.X-minB.X, maxB.Y-minB.Y
	xi := rng.Perm(n)
	yi := rng.Perm(n)
	seeds := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		p := Pt(
			minB.X+(float64(xi[i])+rng.Float64())/float64(n)*w,
			minB.Y+(float64(yi[i])+rng.Float64())/float64(n)*h,
		)
		if site.Contains(p) {
			seeds = append(seeds, p)
		}
	}
	if missing := n - len(seeds); missing > 0 {
		seeds = append(seeds, SampleSeeds(site, missing, rng)...)
	}
	return seeds
}

// Triangle is one Delaunay triangle given by seed indices.
type Triangle struct {
	A, B, C int
}

// Centroid returns the centroid of the triangle over the given points.
func (t Triangle) Centroid(pts []Point) Point {
	return pts[t.A].Add(pts[t.B]).Add(pts[t.C]).Scale(1.0 / 3.0)
}

// DelaunayNeighbors returns, per seed, the sorted indices of its Delaunay
// neighbours. Two seeds are trivially each other's neighbour.
func DelaunayNeighbors(seeds []Point, bounds Polygon) [][]int {
	n := len(seeds)
	out := make([][]int, n)
	if n == 2 {
		out[0] = []int{1}
		out[1] = []int{0}
		return out
	}

	adjacency := make([]map[int]bool, n)
	for i := range adjacency {
		adjacency[i] = make(map[int]bool)
	}
	for _, t := range DelaunayTriangles(seeds, bounds) {
		adjacency[t.A][t.B] = true
		adjacency[t.B][t.A] = true
		adjacency[t.B][t.C] = true
		adjacency[t.C][t.B] = true
		adjacency[t.C][t.A] = true
		adjacency[t.A][t.C] = true
	}
	for i, set := range adjacency {
		for j := range set {
			out[i] = append(out[i], j)
		}
		sort.Ints(out[i])
	}
	return out
}

// delTriangle is a working triangle with its cached circumcircle.
type delTriangle struct {
	v      [3]int
	center Point
	radSq  float64
}

// circumscribes reports whether p falls inside the cached circumcircle.
func (t delTriangle) circumscribes(p Point) bool {
	d := p.Sub(t.center)
	return d.Dot(d) < t.radSq
}

// delEdge is an undirected triangle edge with a canonical vertex order.
type delEdge struct {
	lo, hi int
}

func edgeOf(a, b int) delEdge {
	if a > b {
		a, b = b, a
	}
	return delEdge{lo: a, hi: b}
}

// DelaunayTriangles computes the Delaunay triangulation of the seeds with
// incremental Bowyer-Watson insertion: each new point removes the triangles
// whose circumcircle covers it and re-triangulates the cavity boundary.
func DelaunayTriangles(seeds []Point, bounds Polygon) []Triangle {
	n := len(seeds)
	if n < 3 {
		return nil
	}

	// A tiny index-dependent shear breaks cocircular and collinear ties
	// without disturbing the result at site scale.
	pts := make([]Point, n, n+3)
	for i, s := range seeds {
		k := float64(i + 1)
		pts[i] = s.Add(Pt(1e-8*k, 1e-8*float64((i*i+3*i)%89)))
	}

	// Enclosing triangle: an equilateral circumscribing a circle that
	// comfortably covers the bounds.
	bMin, bMax := bounds.Bounds()
	centre := MidPoint(bMin, bMax)
	radius := bMin.Distance(bMax)*4 + 1
	for k := 0; k < 3; k++ {
		angle := math.Pi/2 + 2*math.Pi*float64(k)/3
		pts = append(pts, centre.Add(Pt(2*radius*math.Cos(angle), 2*radius*math.Sin(angle))))
	}

	tris := []delTriangle{newDelTriangle(pts, n, n+1, n+2)}
	for pi := 0; pi < n; pi++ {
		p := pts[pi]

		// Split the mesh into surviving triangles and the cavity around p,
		// counting how often each cavity edge is shared.
		var kept []delTriangle
		var cavity []delTriangle
		edgeUse := make(map[delEdge]int)
		for _, t := range tris {
			if !t.circumscribes(p) {
				kept = append(kept, t)
				continue
			}
			cavity = append(cavity, t)
			edgeUse[edgeOf(t.v[0], t.v[1])]++
			edgeUse[edgeOf(t.v[1], t.v[2])]++
			edgeUse[edgeOf(t.v[2], t.v[0])]++
		}

		// Edges used once form the cavity boundary; connect each to p.
		// Walking the cavity triangles (not the map) keeps the order
		// deterministic.
		for _, t := range cavity {
			for e := 0; e < 3; e++ {
				a, b := t.v[e], t.v[(e+1)%3]
				if edgeUse[edgeOf(a, b)] == 1 {
					kept = append(kept, newDelTriangle(pts, a, b, pi))
				}
			}
		}
		tris = kept
	}

	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		// Triangles leaning on the enclosing-triangle corners are scaffolding.
		if t.v[0] >= n || t.v[1] >= n || t.v[2] >= n {
			continue
		}
		out = append(out, Triangle{A: t.v[0], B: t.v[1], C: t.v[2]})
	}
	return out
}

// newDelTriangle caches the circumcircle of (a, b, c). A degenerate
// (collinear) triple gets an unbounded circle so the next insertion
// replaces it.
func newDelTriangle(pts []Point, a, b, c int) delTriangle {
	t := delTriangle{v: [3]int{a, b, c}}
	pa, pb, pc := pts[a], pts[b], pts[c]

	d := 2 * (pa.X*(pb.Y-pc.Y) + pb.X*(pc.Y-pa.Y) + pc.X*(pa.Y-pb.Y))
	if math.Abs(d) < 1e-12 {
		t.center = pa
		t.radSq = math.MaxFloat64
		return t
	}
	aSq := pa.Dot(pa)
	bSq := pb.Dot(pb)
	cSq := pc.Dot(pc)
	t.center = Pt(
		(aSq*(pb.Y-pc.Y)+bSq*(pc.Y-pa.Y)+cSq*(pa.Y-pb.Y))/d,
		(aSq*(pc.X-pb.X)+bSq*(pa.X-pc.X)+cSq*(pb.X-pa.X))/d,
	)
	r := pa.Sub(t.center)
	t.radSq = r.Dot(r)
	return t
}
