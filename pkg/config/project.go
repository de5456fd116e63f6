package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nxc1802/REMB/pkg/geo"
)

// Project binds a site polygon, optional internal roads and obstacles, an
// optional elevation model, and the planner configuration.
type Project struct {
	// Site is the outer ring as (x, y) metre pairs; first and last point
	// must be identical.
	Site [][2]float64 `yaml:"site" json:"site"`
	// Obstacles are rings excluded from the buildable area (water bodies,
	// existing structures).
	Obstacles [][][2]float64 `yaml:"obstacles,omitempty" json:"obstacles,omitempty"`
	// Roads are fixed main-road centrelines the generator must respect.
	Roads []RoadInput `yaml:"roads,omitempty" json:"roads,omitempty"`
	// Elevation is an optional linear terrain model; the lowest point of
	// the site hosts the treatment plant.
	Elevation *ElevationModel `yaml:"elevation,omitempty" json:"elevation,omitempty"`

	Config Config `yaml:"config" json:"config"`
}

// RoadInput is one fixed road polyline.
type RoadInput struct {
	Points [][2]float64 `yaml:"points" json:"points"`
	Width  float64      `yaml:"width" json:"width"`
}

// Polyline converts the road input to geometry.
func (r RoadInput) Polyline() geo.Polyline {
	pts := make([]geo.Point, len(r.Points))
	for i, p := range r.Points {
		pts[i] = geo.Pt(p[0], p[1])
	}
	return geo.Polyline{Points: pts}
}

// ElevationModel is a planar terrain gradient: height = Base + SlopeX*x + SlopeY*y.
type ElevationModel struct {
	Base   float64 `yaml:"base" json:"base"`
	SlopeX float64 `yaml:"slope_x" json:"slope_x"`
	SlopeY float64 `yaml:"slope_y" json:"slope_y"`
}

// At evaluates the terrain height.
func (e *ElevationModel) At(x, y float64) float64 {
	return e.Base + e.SlopeX*x + e.SlopeY*y
}

// Load reads a project from a YAML file. Unset config keys take the
// defaults.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	project := &Project{Config: Default()}
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, fmt.Errorf("parsing project YAML: %w", err)
	}
	return project, nil
}

// LoadProject loads a project from a directory; it looks for site.yaml.
func LoadProject(projectDir string) (*Project, error) {
	return Load(filepath.Join(projectDir, "site.yaml"))
}

// SitePolygon converts and validates the site ring. The closing point is
// required on input and stripped from the polygon.
func (p *Project) SitePolygon() (geo.Polygon, error) {
	n := len(p.Site)
	if n < 4 {
		return geo.Polygon{}, fmt.Errorf("site ring has %d points: %w", n, geo.ErrInvalidInput)
	}
	first, last := p.Site[0], p.Site[n-1]
	if !geo.Pt(first[0], first[1]).Equals(geo.Pt(last[0], last[1])) {
		return geo.Polygon{}, fmt.Errorf("site ring is not closed: %w", geo.ErrInvalidInput)
	}
	pts := make([]geo.Point, n-1)
	for i := 0; i < n-1; i++ {
		pts[i] = geo.Pt(p.Site[i][0], p.Site[i][1])
	}
	poly := geo.Polygon{Vertices: pts}
	if err := poly.Validate(); err != nil {
		return geo.Polygon{}, err
	}
	return poly, nil
}

// ObstaclePolygons converts the obstacle rings, skipping invalid ones.
func (p *Project) ObstaclePolygons() []geo.Polygon {
	var out []geo.Polygon
	for _, ring := range p.Obstacles {
		n := len(ring)
		if n < 3 {
			continue
		}
		if n >= 4 && geo.Pt(ring[0][0], ring[0][1]).Equals(geo.Pt(ring[n-1][0], ring[n-1][1])) {
			ring = ring[:n-1]
		}
		pts := make([]geo.Point, len(ring))
		for i, c := range ring {
			pts[i] = geo.Pt(c[0], c[1])
		}
		poly := geo.Polygon{Vertices: pts}
		if poly.Validate() == nil {
			out = append(out, poly)
		}
	}
	return out
}
