package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad method", func(c *Config) { c.LayoutMethod = "spiral" }},
		{"inverted spacing", func(c *Config) { c.SpacingMin = 100; c.SpacingMax = 50 }},
		{"negative spacing", func(c *Config) { c.SpacingMin = -1 }},
		{"tiny population", func(c *Config) { c.PopulationSize = 1 }},
		{"zero generations", func(c *Config) { c.Generations = 0 }},
		{"crossover out of range", func(c *Config) { c.CrossoverProb = 1.5 }},
		{"inverted lot widths", func(c *Config) { c.MinLotWidth = 90; c.MaxLotWidth = 80 }},
		{"zero road width", func(c *Config) { c.RoadMainWidth = 0 }},
		{"one voronoi seed", func(c *Config) { c.VoronoiSeeds = 1 }},
		{"zero capacity", func(c *Config) { c.TransformerCapacityKVA = 0 }},
		{"redundancy above one", func(c *Config) { c.LoopRedundancyRatio = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

const projectYAML = `
site:
  - [0, 0]
  - [100, 0]
  - [100, 100]
  - [0, 100]
  - [0, 0]
obstacles:
  - [[40, 40], [60, 40], [60, 60], [40, 60], [40, 40]]
roads:
  - points: [[0, 50], [100, 50]]
    width: 20
elevation:
  base: 50
  slope_x: -0.02
  slope_y: -0.03
config:
  layout_method: grid
  seed: 7
  spacing_min: 20
  spacing_max: 30
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadProject(t *testing.T) {
	dir := writeProject(t, projectYAML)
	project, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "grid", project.Config.LayoutMethod)
	assert.Equal(t, int64(7), project.Config.Seed)
	assert.Equal(t, 20.0, project.Config.SpacingMin)
	// Unset keys keep their defaults.
	assert.Equal(t, Default().TargetLotWidth, project.Config.TargetLotWidth)

	site, err := project.SitePolygon()
	require.NoError(t, err)
	assert.Equal(t, 4, site.Len())
	assert.InDelta(t, 10_000, site.Area(), 0.1)

	obstacles := project.ObstaclePolygons()
	require.Len(t, obstacles, 1)
	assert.InDelta(t, 400, obstacles[0].Area(), 0.1)

	require.Len(t, project.Roads, 1)
	assert.InDelta(t, 100, project.Roads[0].Polyline().Length(), 0.1)

	require.NotNil(t, project.Elevation)
	assert.InDelta(t, 45, project.Elevation.At(100, 100), 1e-9)
}

func TestSitePolygonRejectsOpenRing(t *testing.T) {
	dir := writeProject(t, `
site:
  - [0, 0]
  - [100, 0]
  - [100, 100]
  - [0, 100]
config: {}
`)
	project, err := LoadProject(dir)
	require.NoError(t, err)
	_, err = project.SitePolygon()
	require.Error(t, err)
}

func TestLoadProjectMissingFile(t *testing.T) {
	_, err := LoadProject(t.TempDir())
	require.Error(t, err)
}
