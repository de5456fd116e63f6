// Package routing validates road connectivity: the road network is
// rasterised onto a grid and A* verifies that every lot can reach a road
// cell.
package routing

import (
	"math"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/layout"
)

// maxGridCells caps the raster size; the cell size is coarsened to stay
// below it on large sites.
const maxGridCells = 1_000_000

// Cell is one grid position.
type Cell struct {
	X int
	Y int
}

// Grid is a rasterisation of the road network over the site bounds.
type Grid struct {
	W, H     int
	CellSize float64
	Min      geo.Point

	road     []bool
	obstacle []bool
	// Diagonal enables 8-connectivity with octile costs.
	Diagonal bool
}

// Rasterize builds the road grid. Cells on or within a road half-width of a
// centreline become road cells. cellSize defaults to 1 m and is coarsened
// automatically so the grid stays under a million cells.
func Rasterize(network layout.RoadNetwork, min, max geo.Point, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	w := max.X - min.X
	h := max.Y - min.Y
	for (w/cellSize)*(h/cellSize) > maxGridCells {
		cellSize *= 2
	}
	g := &Grid{
		W:        int(math.Ceil(w/cellSize)) + 1,
		H:        int(math.Ceil(h/cellSize)) + 1,
		CellSize: cellSize,
		Min:      min,
	}
	g.road = make([]bool, g.W*g.H)
	g.obstacle = make([]bool, g.W*g.H)

	for _, seg := range network.Segments {
		pts := seg.Centreline.Points
		halfCells := int(math.Ceil(seg.Width / 2 / cellSize))
		for i := 0; i+1 < len(pts); i++ {
			a := g.ToCell(pts[i])
			b := g.ToCell(pts[i+1])
			for _, c := range bresenham(a, b) {
				g.markRoad(c, halfCells)
			}
		}
	}
	return g
}

// markRoad sets the cell and its half-width neighbourhood as road.
func (g *Grid) markRoad(c Cell, radius int) {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			x, y := c.X+dx, c.Y+dy
			if x < 0 || x >= g.W || y < 0 || y >= g.H {
				continue
			}
			g.road[y*g.W+x] = true
		}
	}
}

// SetObstacles marks cells that block movement.
func (g *Grid) SetObstacles(cells []Cell) {
	for _, c := range cells {
		if c.X < 0 || c.X >= g.W || c.Y < 0 || c.Y >= g.H {
			continue
		}
		g.obstacle[c.Y*g.W+c.X] = true
	}
}

// ToCell converts site coordinates to a clamped grid cell.
func (g *Grid) ToCell(p geo.Point) Cell {
	x := int((p.X - g.Min.X) / g.CellSize)
	y := int((p.Y - g.Min.Y) / g.CellSize)
	if x < 0 {
		x = 0
	}
	if x >= g.W {
		x = g.W - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= g.H {
		y = g.H - 1
	}
	return Cell{x, y}
}

// IsRoad reports whether the cell carries road surface.
func (g *Grid) IsRoad(c Cell) bool {
	if c.X < 0 || c.X >= g.W || c.Y < 0 || c.Y >= g.H {
		return false
	}
	return g.road[c.Y*g.W+c.X]
}

func (g *Grid) blocked(c Cell) bool {
	return g.obstacle[c.Y*g.W+c.X]
}

// NearestRoadCell scans outward for the closest road cell by Manhattan
// distance within the search radius.
func (g *Grid) NearestRoadCell(from Cell, radius int) (Cell, bool) {
	best := Cell{}
	bestDist := math.MaxInt32
	found := false
	for y := maxInt(0, from.Y-radius); y <= minInt(g.H-1, from.Y+radius); y++ {
		for x := maxInt(0, from.X-radius); x <= minInt(g.W-1, from.X+radius); x++ {
			if !g.road[y*g.W+x] {
				continue
			}
			d := absInt(x-from.X) + absInt(y-from.Y)
			if d < bestDist {
				bestDist = d
				best = Cell{x, y}
				found = true
			}
		}
	}
	return best, found
}

// bresenham returns all cells on the line from a to b.
func bresenham(a, b Cell) []Cell {
	var cells []Cell
	x0, y0, x1, y1 := a.X, a.Y, b.X, b.Y
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		cells = append(cells, Cell{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
	return cells
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
