// Package render draws a plan view of a Layout as SVG for quick visual
// inspection from the CLI and the dev server.
package render

import (
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/pipeline"
)

// Options sizes the output image.
type Options struct {
	// Width is the image width in pixels; height follows the site aspect.
	Width int
	// Margin is the blank border in pixels.
	Margin int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Margin <= 0 {
		o.Margin = 20
	}
	return o
}

var classFill = map[layout.BlockClass]string{
	layout.BlockCommercial: "fill:#d7ecd9;stroke:#2d7d36;stroke-width:1",
	layout.BlockService:    "fill:#fff2b8;stroke:#b38f00;stroke-width:1",
	layout.BlockGreen:      "fill:#a8d5a2;stroke:#4a7d44;stroke-width:1",
	layout.BlockUtility:    "fill:#d9c8e8;stroke:#6a4b8a;stroke-width:1",
	layout.BlockDiscard:    "fill:#eeeeee;stroke:#999999;stroke-width:1",
}

// WriteSVG renders the layout plan to w.
func WriteSVG(w io.Writer, l *pipeline.Layout, opts Options) {
	opts = opts.withDefaults()
	minB, maxB := l.Site.Bounds()
	spanX := maxB.X - minB.X
	spanY := maxB.Y - minB.Y
	if spanX < 1 {
		spanX = 1
	}
	if spanY < 1 {
		spanY = 1
	}
	scale := float64(opts.Width-2*opts.Margin) / spanX
	height := int(spanY*scale) + 2*opts.Margin

	// Site coordinates grow upward; SVG grows downward.
	px := func(p geo.Point) (int, int) {
		return opts.Margin + int((p.X-minB.X)*scale),
			height - opts.Margin - int((p.Y-minB.Y)*scale)
	}
	ringCoords := func(poly geo.Polygon) ([]int, []int) {
		xs := make([]int, poly.Len())
		ys := make([]int, poly.Len())
		for i, v := range poly.Vertices {
			xs[i], ys[i] = px(v)
		}
		return xs, ys
	}

	canvas := svg.New(w)
	canvas.Start(opts.Width, height)
	defer canvas.End()

	// Site boundary.
	xs, ys := ringCoords(l.Site)
	canvas.Polygon(xs, ys, "fill:#eef7fa;stroke:#1565c0;stroke-width:2")

	// Road footprints.
	for _, seg := range l.Roads.Segments {
		for _, fp := range seg.Footprint() {
			xs, ys := ringCoords(fp)
			canvas.Polygon(xs, ys, "fill:#c9c9c9;stroke:none")
		}
	}

	// Blocks by class.
	for _, b := range l.Blocks {
		style, ok := classFill[b.Class]
		if !ok || b.Class == layout.BlockDiscard {
			continue
		}
		xs, ys := ringCoords(b.Polygon)
		canvas.Polygon(xs, ys, style)
	}

	// Green residuals.
	for _, g := range l.GreenSpaces {
		xs, ys := ringCoords(g)
		canvas.Polygon(xs, ys, classFill[layout.BlockGreen])
	}

	// Lots on top of their blocks.
	for _, lot := range l.Lots {
		xs, ys := ringCoords(lot.Polygon)
		canvas.Polygon(xs, ys, "fill:#b9dff0;stroke:#1b6698;stroke-width:1")
	}

	// Electrical network.
	for _, e := range l.Network.TreeEdges {
		x1, y1 := px(l.Network.Nodes[e.A])
		x2, y2 := px(l.Network.Nodes[e.B])
		canvas.Line(x1, y1, x2, y2, "stroke:#d84315;stroke-width:1")
	}
	for _, e := range l.Network.LoopEdges {
		x1, y1 := px(l.Network.Nodes[e.A])
		x2, y2 := px(l.Network.Nodes[e.B])
		canvas.Line(x1, y1, x2, y2, "stroke:#d84315;stroke-width:1;stroke-dasharray:4")
	}

	// Drainage arrows.
	for _, d := range l.Drainage {
		tip := d.Origin.Add(d.Direction.Scale(d.Magnitude))
		x1, y1 := px(d.Origin)
		x2, y2 := px(tip)
		canvas.Line(x1, y1, x2, y2, "stroke:#0277bd;stroke-width:1")
		canvas.Circle(x2, y2, 2, "fill:#0277bd")
	}

	// Transformers.
	for _, t := range l.Transformers {
		x, y := px(t.Position)
		canvas.Rect(x-4, y-4, 8, 8, "fill:#c62828")
	}

	// Treatment plant.
	x, y := px(l.WWTP)
	canvas.Circle(x, y, 6, "fill:#4a148c")
}
