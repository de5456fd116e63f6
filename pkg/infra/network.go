// Package infra plans the utility infrastructure of a layout: the
// electrical loop network over lot centroids, transformer placement, and
// drainage direction vectors toward the treatment plant.
package infra

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/nxc1802/REMB/pkg/geo"
)

// ErrDisconnected is returned when the distance-capped graph does not span
// all nodes; the error carries the connected components.
var ErrDisconnected = errors.New("infra: network disconnected")

// DisconnectedError wraps ErrDisconnected with component detail.
type DisconnectedError struct {
	Components [][]int
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("infra: network disconnected into %d components", len(e.Components))
}

func (e *DisconnectedError) Unwrap() error {
	return ErrDisconnected
}

// Edge connects two node indices with a Euclidean weight.
type Edge struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight_m"`
}

// Network is the planned cable network: a spanning tree plus loop-closing
// redundancy edges.
type Network struct {
	Nodes     []geo.Point `json:"nodes"`
	TreeEdges []Edge      `json:"tree_edges"`
	LoopEdges []Edge      `json:"loop_edges"`
	// SteinerNodes marks which node indices are Steiner points rather than
	// lot terminals (advanced variant only).
	SteinerNodes []int `json:"steiner_nodes,omitempty"`
}

// TotalLength sums tree and loop edge weights.
func (n Network) TotalLength() float64 {
	total := 0.0
	for _, e := range n.TreeEdges {
		total += e.Weight
	}
	for _, e := range n.LoopEdges {
		total += e.Weight
	}
	return total
}

// Options bounds the graph construction.
type Options struct {
	// MaxEdgeDistance drops candidate edges longer than this (metres).
	MaxEdgeDistance float64
	// LoopRedundancyRatio adds ceil(ratio*n) shortest non-tree edges.
	LoopRedundancyRatio float64
}

// PlanNetwork builds the distance-capped complete graph over the nodes,
// extracts the minimum spanning tree with Kruskal's algorithm, and closes
// loops with the shortest non-tree edges. When the graph does not span all
// nodes the MST of the components found so far is returned together with a
// DisconnectedError.
func PlanNetwork(nodes []geo.Point, opts Options) (Network, error) {
	n := len(nodes)
	net := Network{Nodes: nodes}
	if n < 2 {
		return net, nil
	}
	if opts.MaxEdgeDistance <= 0 {
		opts.MaxEdgeDistance = 500
	}

	var candidates []Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := nodes[i].Distance(nodes[j])
			if d <= opts.MaxEdgeDistance {
				candidates = append(candidates, Edge{A: i, B: j, Weight: d})
			}
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Weight != candidates[b].Weight {
			return candidates[a].Weight < candidates[b].Weight
		}
		if candidates[a].A != candidates[b].A {
			return candidates[a].A < candidates[b].A
		}
		return candidates[a].B < candidates[b].B
	})

	uf := newUnionFind(n)
	var nonTree []Edge
	for _, e := range candidates {
		if uf.union(e.A, e.B) {
			net.TreeEdges = append(net.TreeEdges, e)
		} else {
			nonTree = append(nonTree, e)
		}
	}

	// Loop redundancy: the shortest non-tree edges each close a ring in the
	// spanning forest.
	if opts.LoopRedundancyRatio > 0 {
		want := int(math.Ceil(opts.LoopRedundancyRatio * float64(n)))
		for _, e := range nonTree {
			if len(net.LoopEdges) >= want {
				break
			}
			net.LoopEdges = append(net.LoopEdges, e)
		}
	}

	if len(net.TreeEdges) < n-1 {
		return net, &DisconnectedError{Components: uf.components()}
	}
	return net, nil
}

// SteinerCandidates returns the Delaunay triangle centroids of the
// terminals: candidate junction points that can shorten the network.
func SteinerCandidates(terminals []geo.Point, bounds geo.Polygon) []geo.Point {
	tris := geo.DelaunayTriangles(terminals, bounds)
	out := make([]geo.Point, 0, len(tris))
	for _, t := range tris {
		out = append(out, t.Centroid(terminals))
	}
	return out
}

// PlanNetworkSteiner builds an approximate Steiner tree: the MST over
// terminals plus candidate junctions, pruned of junction-only leaves. The
// returned network keeps the terminal indices first; SteinerNodes lists the
// surviving junction indices.
func PlanNetworkSteiner(terminals []geo.Point, candidates []geo.Point, opts Options) (Network, error) {
	all := append(append([]geo.Point{}, terminals...), candidates...)
	net, err := PlanNetwork(all, Options{
		MaxEdgeDistance:     opts.MaxEdgeDistance,
		LoopRedundancyRatio: 0,
	})
	if err != nil {
		return net, err
	}

	// Iteratively drop degree-1 Steiner leaves: they only lengthen the tree.
	nTerm := len(terminals)
	removed := make([]bool, len(all))
	for {
		degree := make([]int, len(all))
		for _, e := range net.TreeEdges {
			degree[e.A]++
			degree[e.B]++
		}
		pruned := false
		keep := net.TreeEdges[:0]
		for _, e := range net.TreeEdges {
			drop := false
			for _, end := range []int{e.A, e.B} {
				if end >= nTerm && degree[end] == 1 && !removed[end] {
					removed[end] = true
					drop = true
					pruned = true
				}
			}
			if !drop {
				keep = append(keep, e)
			}
		}
		net.TreeEdges = keep
		if !pruned {
			break
		}
	}
	for i := nTerm; i < len(all); i++ {
		if !removed[i] {
			net.SteinerNodes = append(net.SteinerNodes, i)
		}
	}
	return net, nil
}

// unionFind is a path-compressed, rank-balanced disjoint set.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets of a and b; false if already joined.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	return true
}

// components groups node indices by root, in ascending order.
func (uf *unionFind) components() [][]int {
	groups := make(map[int][]int)
	for i := range uf.parent {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)
	out := make([][]int, 0, len(groups))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	return out
}
