package routing

import (
	"container/heap"
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/layout"
)

// defaultSearchRadius bounds the nearest-road scan, in cells.
const defaultSearchRadius = 100

// FindPath runs A* from start to goal over the grid. Step costs are 1 for
// orthogonal moves and sqrt(2) for diagonals (when enabled); the heuristic
// is Manhattan for 4-connectivity and octile for 8-connectivity, both
// admissible, so the returned path is optimal. Returns nil when the goal is
// unreachable.
func (g *Grid) FindPath(start, goal Cell) []Cell {
	if start.X < 0 || start.X >= g.W || start.Y < 0 || start.Y >= g.H ||
		goal.X < 0 || goal.X >= g.W || goal.Y < 0 || goal.Y >= g.H {
		return nil
	}

	open := &nodeHeap{}
	heap.Init(open)
	gScore := map[Cell]float64{start: 0}
	parent := map[Cell]Cell{}
	closed := map[Cell]bool{}
	heap.Push(open, &node{cell: start, f: g.heuristic(start, goal)})

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if closed[current.cell] {
			continue
		}
		if current.cell == goal {
			return reconstruct(parent, start, goal)
		}
		closed[current.cell] = true

		for _, nb := range g.neighbors(current.cell) {
			if closed[nb] {
				continue
			}
			step := 1.0
			if nb.X != current.cell.X && nb.Y != current.cell.Y {
				step = math.Sqrt2
			}
			tentative := gScore[current.cell] + step
			if prev, ok := gScore[nb]; ok && tentative >= prev {
				continue
			}
			gScore[nb] = tentative
			parent[nb] = current.cell
			heap.Push(open, &node{cell: nb, f: tentative + g.heuristic(nb, goal)})
		}
	}
	return nil
}

// heuristic is Manhattan for 4-connectivity, octile for 8-connectivity.
func (g *Grid) heuristic(a, b Cell) float64 {
	dx := float64(absInt(a.X - b.X))
	dy := float64(absInt(a.Y - b.Y))
	if g.Diagonal {
		return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
	}
	return dx + dy
}

func (g *Grid) neighbors(c Cell) []Cell {
	steps := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	if g.Diagonal {
		steps = append(steps, [2]int{1, 1}, [2]int{-1, 1}, [2]int{1, -1}, [2]int{-1, -1})
	}
	out := make([]Cell, 0, len(steps))
	for _, s := range steps {
		nb := Cell{c.X + s[0], c.Y + s[1]}
		if nb.X < 0 || nb.X >= g.W || nb.Y < 0 || nb.Y >= g.H {
			continue
		}
		if g.blocked(nb) {
			continue
		}
		out = append(out, nb)
	}
	return out
}

func reconstruct(parent map[Cell]Cell, start, goal Cell) []Cell {
	path := []Cell{goal}
	for cur := goal; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	// Reverse to start → goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// CanReachRoad reports whether the cell has a path to its nearest road cell
// within the search radius.
func (g *Grid) CanReachRoad(from Cell, radius int) bool {
	if radius <= 0 {
		radius = defaultSearchRadius
	}
	if g.IsRoad(from) {
		return true
	}
	goal, ok := g.NearestRoadCell(from, radius)
	if !ok {
		return false
	}
	return g.FindPath(from, goal) != nil
}

// CanReach is the point-coordinate convenience used by the constrained
// optimizer.
func (g *Grid) CanReach(p geo.Point) bool {
	return g.CanReachRoad(g.ToCell(p), defaultSearchRadius)
}

// ValidateLots checks road access for every lot centroid. The layout is
// road-valid iff the returned slice has no false entries.
func (g *Grid) ValidateLots(lots []layout.Lot) []bool {
	out := make([]bool, len(lots))
	for i, lot := range lots {
		out[i] = g.CanReachRoad(g.ToCell(lot.Centroid), defaultSearchRadius)
	}
	return out
}

// node and nodeHeap implement the A* priority queue.
type node struct {
	cell Cell
	f    float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	// Stable order for equal scores keeps paths deterministic.
	if h[i].cell.Y != h[j].cell.Y {
		return h[i].cell.Y < h[j].cell.Y
	}
	return h[i].cell.X < h[j].cell.X
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
