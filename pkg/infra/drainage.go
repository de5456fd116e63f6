package infra

import (
	"container/heap"
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/layout"
)

// DrainageArrow points from a lot toward the wastewater treatment plant.
type DrainageArrow struct {
	Origin    geo.Point `json:"origin"`
	Direction geo.Point `json:"direction"` // unit vector
	Magnitude float64   `json:"magnitude_m"`
}

// ChooseWWTP returns the treatment plant location: when an elevation model
// is supplied, the site vertex lying strictly lower than the centroid and
// every other vertex, or the centroid when no vertex lies lower; otherwise
// the site centroid. Deterministic given its inputs.
func ChooseWWTP(site geo.Polygon, elevation func(x, y float64) float64) geo.Point {
	if elevation == nil {
		return site.Centroid()
	}
	best := site.Centroid()
	bestElev := elevation(best.X, best.Y)
	for _, v := range site.Vertices {
		if e := elevation(v.X, v.Y); e < bestElev {
			bestElev = e
			best = v
		}
	}
	return best
}

// DrainageArrows computes one arrow per origin pointing straight at the
// treatment plant (simple mode).
func DrainageArrows(origins []geo.Point, wwtp geo.Point, arrowLength float64) []DrainageArrow {
	if arrowLength <= 0 {
		arrowLength = 30
	}
	out := make([]DrainageArrow, 0, len(origins))
	for _, o := range origins {
		dir := wwtp.Sub(o).Normalize()
		if dir.Length() < 0.5 {
			// The origin sits on the plant; drain downward by convention.
			dir = geo.Pt(0, -1)
		}
		out = append(out, DrainageArrow{Origin: o, Direction: dir, Magnitude: arrowLength})
	}
	return out
}

// DrainageArrowsAlongRoads computes arrows that follow the road network:
// each origin attaches to its nearest road node and the arrow points along
// the first edge of the shortest path toward the plant's attach node
// (network mode). Falls back to the direct direction when the road graph
// cannot serve an origin.
func DrainageArrowsAlongRoads(origins []geo.Point, wwtp geo.Point, network layout.RoadNetwork, arrowLength float64) []DrainageArrow {
	if arrowLength <= 0 {
		arrowLength = 30
	}
	graph := buildRoadGraph(network)
	if len(graph.nodes) == 0 {
		return DrainageArrows(origins, wwtp, arrowLength)
	}
	sink := graph.nearest(wwtp)
	distTo, next := graph.dijkstraToward(sink)

	out := make([]DrainageArrow, 0, len(origins))
	for _, o := range origins {
		attach := graph.nearest(o)
		dir := geo.Point{}
		if !math.IsInf(distTo[attach], 1) && next[attach] >= 0 {
			dir = graph.nodes[next[attach]].Sub(graph.nodes[attach]).Normalize()
		}
		if dir.Length() < 0.5 {
			dir = wwtp.Sub(o).Normalize()
		}
		if dir.Length() < 0.5 {
			dir = geo.Pt(0, -1)
		}
		out = append(out, DrainageArrow{Origin: o, Direction: dir, Magnitude: arrowLength})
	}
	return out
}

// roadGraph is an undirected graph over road segment endpoints; endpoints
// within a metre of each other are merged into one node via a spatial hash
// of endpoint buckets.
type roadGraph struct {
	nodes []geo.Point
	adj   [][]int
}

const nodeMergeTolerance = 1.0

func buildRoadGraph(network layout.RoadNetwork) *roadGraph {
	g := &roadGraph{}
	buckets := make(map[[2]int][]int)
	key := func(p geo.Point) [2]int {
		return [2]int{
			int(math.Floor(p.X / (nodeMergeTolerance * 2))),
			int(math.Floor(p.Y / (nodeMergeTolerance * 2))),
		}
	}
	nodeFor := func(p geo.Point) int {
		k := key(p)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, idx := range buckets[[2]int{k[0] + dx, k[1] + dy}] {
					if g.nodes[idx].Distance(p) <= nodeMergeTolerance {
						return idx
					}
				}
			}
		}
		idx := len(g.nodes)
		g.nodes = append(g.nodes, p)
		g.adj = append(g.adj, nil)
		buckets[k] = append(buckets[k], idx)
		return idx
	}

	for _, seg := range network.Segments {
		pts := seg.Centreline.Points
		for i := 0; i+1 < len(pts); i++ {
			a := nodeFor(pts[i])
			b := nodeFor(pts[i+1])
			if a == b {
				continue
			}
			g.adj[a] = append(g.adj[a], b)
			g.adj[b] = append(g.adj[b], a)
		}
	}
	return g
}

func (g *roadGraph) nearest(p geo.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, n := range g.nodes {
		if d := n.Distance(p); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// dijkstraToward runs single-source Dijkstra from the sink and returns, for
// every node, its distance to the sink and the neighbour that is one step
// closer (-1 at the sink or when unreachable).
func (g *roadGraph) dijkstraToward(sink int) (dist []float64, next []int) {
	n := len(g.nodes)
	dist = make([]float64, n)
	next = make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		next[i] = -1
	}
	dist[sink] = 0

	pq := &distHeap{{node: sink, dist: 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distNode)
		if cur.dist > dist[cur.node] {
			continue
		}
		for _, nb := range g.adj[cur.node] {
			d := cur.dist + g.nodes[cur.node].Distance(g.nodes[nb])
			if d < dist[nb] {
				dist[nb] = d
				next[nb] = cur.node
				heap.Push(pq, distNode{node: nb, dist: d})
			}
		}
	}
	return dist, next
}

type distNode struct {
	node int
	dist float64
}

type distHeap []distNode

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].node < h[j].node
}
func (h distHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)   { *h = append(*h, x.(distNode)) }
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
