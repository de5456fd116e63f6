// Package index provides an R-tree over polygon envelopes for candidate
// queries. Queries never miss a true positive; callers filter the returned
// candidates with an exact predicate.
package index

import (
	"github.com/dhconnelly/rtreego"

	"github.com/nxc1802/REMB/pkg/geo"
)

// entry wraps one indexed polygon for R-tree storage.
type entry struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is an R-tree over the envelopes of a polygon collection. It is
// rebuilt per collection and does not outlive it.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// Build indexes the given polygons. Empty polygons are skipped; their
// indices are never returned from queries.
func Build(polys []geo.Polygon) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	n := 0
	for i, p := range polys {
		if p.IsEmpty() {
			continue
		}
		minB, maxB := p.Bounds()
		rect, err := envelopeRect(minB, maxB)
		if err != nil {
			continue
		}
		tree.Insert(&entry{idx: i, rect: rect})
		n++
	}
	return &Index{tree: tree, size: n}
}

// Len returns the number of indexed polygons.
func (ix *Index) Len() int {
	return ix.size
}

// QueryEnvelope returns the indices of polygons whose envelope intersects
// the rectangle (min, max). May contain false positives.
func (ix *Index) QueryEnvelope(min, max geo.Point) []int {
	rect, err := envelopeRect(min, max)
	if err != nil {
		return nil
	}
	results := ix.tree.SearchIntersect(rect)
	out := make([]int, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*entry).idx)
	}
	return out
}

// QueryNearest returns the indices of the k polygons whose envelopes are
// nearest to p, closest first.
func (ix *Index) QueryNearest(p geo.Point, k int) []int {
	results := ix.tree.NearestNeighbors(k, rtreego.Point{p.X, p.Y})
	out := make([]int, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, r.(*entry).idx)
	}
	return out
}

// envelopeRect converts a min/max pair to an rtreego rectangle with
// degenerate extents padded to a small positive size.
func envelopeRect(min, max geo.Point) (rtreego.Rect, error) {
	w := max.X - min.X
	h := max.Y - min.Y
	if w < geo.Epsilon {
		w = geo.Epsilon
	}
	if h < geo.Epsilon {
		h = geo.Epsilon
	}
	return rtreego.NewRect(rtreego.Point{min.X, min.Y}, []float64{w, h})
}
