package layout

import (
	"errors"
	"fmt"
	"time"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/subdivide"
)

// SliceOptions configures block slicing.
type SliceOptions struct {
	MinWidth    float64
	MaxWidth    float64
	TargetWidth float64
	Setback     float64 // front and rear offset subtracted from the lot depth
	MinLotArea  float64 // clipped lots below this are relabelled green space
	TimeLimit   time.Duration
}

// SliceResult carries the lots cut from one block plus the residual pieces
// that were demoted to green space.
type SliceResult struct {
	Lots    []Lot
	Green   []geo.Polygon
	Partial bool
}

// clipKeepRatio: a lot whose clipped area falls below this share of its
// rectangle was cut by a non-rectangular block boundary and is dropped.
const clipKeepRatio = 0.9

// SliceBlock rotates the block so its dominant edge lies along +x, solves
// the frontage widths, emits setback-inset lot rectangles, and rotates them
// back, clipping each to the block.
func SliceBlock(b Block, opts SliceOptions) (SliceResult, error) {
	if b.Polygon.IsEmpty() {
		return SliceResult{}, fmt.Errorf("slice block %d: %w", b.ID, geo.ErrInvalidInput)
	}
	theta := b.DominantEdge.Angle()
	centroid := b.Polygon.Centroid()
	aligned := b.Polygon.Rotate(-theta, centroid)

	minB, maxB := aligned.Bounds()
	frontage := maxB.X - minB.X
	depth := maxB.Y - minB.Y
	lotDepth := depth - 2*opts.Setback
	if lotDepth <= 0 {
		return SliceResult{}, fmt.Errorf("slice block %d: depth %.1f m leaves no room after %.1f m setbacks: %w",
			b.ID, depth, opts.Setback, subdivide.ErrInfeasible)
	}

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}
	sol, err := subdivide.Solve(frontage, subdivide.Params{
		MinWidth:    opts.MinWidth,
		MaxWidth:    opts.MaxWidth,
		TargetWidth: opts.TargetWidth,
	}, deadline)
	if err != nil {
		if errors.Is(err, subdivide.ErrTimeout) {
			return SliceResult{Partial: true}, err
		}
		return SliceResult{}, err
	}

	result := SliceResult{Partial: sol.Partial}
	x := minB.X
	for _, w := range sol.Widths {
		rect := geo.Rect(x, minB.Y+opts.Setback, x+w, maxB.Y-opts.Setback)
		x += w

		global := rect.Rotate(theta, centroid)
		clipped := geo.ClipToConvex(b.Polygon, global)
		if clipped.IsEmpty() {
			continue
		}
		area := clipped.Area()
		if area < clipKeepRatio*rect.Area() {
			// The block was not rectangular here; the sliver is green space.
			if area > geo.Epsilon {
				result.Green = append(result.Green, clipped)
			}
			continue
		}
		if area < opts.MinLotArea {
			result.Green = append(result.Green, clipped)
			continue
		}
		result.Lots = append(result.Lots, Lot{
			ID:       len(result.Lots),
			BlockID:  b.ID,
			Polygon:  clipped,
			Width:    w,
			Depth:    lotDepth,
			Area:     area,
			Centroid: clipped.Centroid(),
		})
	}
	if len(result.Lots) == 0 {
		return result, fmt.Errorf("slice block %d: no usable lots: %w", b.ID, subdivide.ErrInfeasible)
	}
	return result, nil
}
