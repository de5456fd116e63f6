package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxc1802/REMB/pkg/config"
	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/validation"
)

// gridConfig tunes the planner for a small 100x100 m test site.
func gridConfig() config.Config {
	cfg := config.Default()
	cfg.LayoutMethod = config.MethodGrid
	cfg.SpacingMin = 20
	cfg.SpacingMax = 30
	cfg.PopulationSize = 20
	cfg.Generations = 8
	cfg.TargetLotWidth = 10
	cfg.MinLotWidth = 8
	cfg.MaxLotWidth = 20
	cfg.SetbackDistance = 2
	cfg.RoadMainWidth = 8
	cfg.RoadInternalWidth = 4
	cfg.MinBlockArea = 150
	cfg.MinLotArea = 100
	cfg.Seed = 42
	return cfg
}

func unitSquareSite() geo.Polygon {
	return geo.Rect(0, 0, 100, 100)
}

func TestPipelineGridUnitSquare(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)

	result, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, config.MethodGrid, result.Method)
	require.NotNil(t, result.GridParams)

	commercial := 0
	for _, b := range result.Blocks {
		if b.Class == layout.BlockCommercial {
			commercial++
		}
	}
	assert.GreaterOrEqual(t, commercial, 1, "expected at least one commercial block")
	assert.GreaterOrEqual(t, len(result.Lots), 10, "expected a usable number of lots")

	// Utilization is a valid ratio and the site is meaningfully used.
	assert.GreaterOrEqual(t, result.Metrics.UtilizationRatio, 0.2)
	assert.LessOrEqual(t, result.Metrics.UtilizationRatio, 1.0)

	// Every lot lies inside the site.
	for _, lot := range result.Lots {
		assert.True(t, result.Site.Contains(lot.Centroid), "lot centroid outside site")
	}
}

func TestPipelineLotsDoNotOverlap(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)
	result, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	totalLotArea := 0.0
	for _, lot := range result.Lots {
		totalLotArea += lot.Area
	}
	overlap := 0.0
	for i := 0; i < len(result.Lots); i++ {
		for j := i + 1; j < len(result.Lots); j++ {
			inter := geo.ClipToConvex(result.Lots[i].Polygon, result.Lots[j].Polygon)
			overlap += inter.Area()
		}
	}
	assert.Less(t, overlap, 1e-6*totalLotArea+0.01, "lots must not overlap")
}

func TestPipelineEveryLotInsideOneBlock(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)
	result, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	for _, lot := range result.Lots {
		require.GreaterOrEqual(t, lot.BlockID, 0)
		require.Less(t, lot.BlockID, len(result.Blocks))
		block := result.Blocks[lot.BlockID]
		assert.True(t, block.Polygon.Contains(lot.Centroid),
			"lot centroid must be inside its parent block")
	}
}

func TestPipelineDeterministicReplay(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)
	a, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	planner2, err := New(gridConfig(), nil)
	require.NoError(t, err)
	b, err := planner2.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj), "identical inputs and seed must replay byte-identically")
}

func TestPipelineTransformerCapacity(t *testing.T) {
	cfg := gridConfig()
	cfg.TransformerCapacityKVA = 500
	cfg.LoadPerLotKW = 100
	planner, err := New(cfg, nil)
	require.NoError(t, err)
	result, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	// Either every transformer honours the cap, or the planner surfaced the
	// infeasibility as a warning.
	warned := false
	for _, w := range result.Warnings {
		if w.Level == validation.LevelInfra {
			warned = true
		}
	}
	if !warned {
		for i, tr := range result.Transformers {
			assert.LessOrEqualf(t, tr.LoadKW, 500.0, "transformer %d overloaded", i)
		}
	}
}

func TestPipelineVoronoiLShape(t *testing.T) {
	cfg := config.Default()
	cfg.LayoutMethod = config.MethodVoronoi
	cfg.VoronoiSeeds = 15
	cfg.LloydIterations = 20
	cfg.Seed = 7
	planner, err := New(cfg, nil)
	require.NoError(t, err)

	site := geo.NewPolygon(
		geo.Pt(0, 0), geo.Pt(200, 0), geo.Pt(200, 100),
		geo.Pt(100, 100), geo.Pt(100, 200), geo.Pt(0, 200),
	)
	result, err := planner.Run(context.Background(), site, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, config.MethodVoronoi, result.Method)
	assert.GreaterOrEqual(t, len(result.Blocks), 5, "expected at least 5 blocks")

	// No block vertex may land inside the notch.
	for _, b := range result.Blocks {
		for _, v := range b.Polygon.Vertices {
			assert.False(t, v.X > 101 && v.Y > 101, "block geometry crosses the notch")
		}
	}

	// Deterministic road network across replays.
	planner2, err := New(cfg, nil)
	require.NoError(t, err)
	again, err := planner2.Run(context.Background(), site, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, result.Roads.TotalLength(), again.Roads.TotalLength())
}

func TestPipelineAutoModeSelection(t *testing.T) {
	cfg := config.Default()
	planner, err := New(cfg, nil)
	require.NoError(t, err)

	// Small site: grid.
	assert.Equal(t, config.MethodGrid, planner.chooseMethod(geo.Rect(0, 0, 100, 100), nil))
	// Large unconstrained site: voronoi.
	assert.Equal(t, config.MethodVoronoi, planner.chooseMethod(geo.Rect(0, 0, 400, 400), nil))
	// Large site with fixed roads: grid.
	roads := []geo.Polyline{geo.NewPolyline(geo.Pt(0, 0), geo.Pt(400, 0))}
	assert.Equal(t, config.MethodGrid, planner.chooseMethod(geo.Rect(0, 0, 400, 400), roads))
}

func TestPipelineInvalidSite(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)

	bowtie := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(10, 10), geo.Pt(10, 0), geo.Pt(0, 10))
	result, err := planner.Run(context.Background(), bowtie, nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidSite)
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "InvalidSite", result.FatalError)
	assert.Empty(t, result.Lots)
}

func TestPipelineInvalidConfig(t *testing.T) {
	cfg := gridConfig()
	cfg.PopulationSize = 0
	_, err := New(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPipelineCancellation(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := planner.Run(ctx, unitSquareSite(), nil, nil, nil)
	// A pre-cancelled context either aborts the run or yields a partial
	// layout, depending on where the first check lands.
	if err != nil {
		assert.ErrorIs(t, err, ErrCancelled)
	} else {
		assert.Equal(t, StatusPartial, result.Status)
	}
}

func TestPipelineMetricsConsistent(t *testing.T) {
	planner, err := New(gridConfig(), nil)
	require.NoError(t, err)
	result, err := planner.Run(context.Background(), unitSquareSite(), nil, nil, nil)
	require.NoError(t, err)

	m := result.Metrics
	assert.InDelta(t, 10_000, m.SiteArea, 1)
	assert.Equal(t, len(result.Lots), m.LotCount)
	assert.Equal(t, len(result.Transformers), m.TransformerCount)
	if m.LotCount > 0 {
		assert.InDelta(t, m.TotalCommercialArea/float64(m.LotCount), m.AverageLotArea, 0.01)
	}
	assert.GreaterOrEqual(t, m.MSTLength, 0.0)
	assert.Greater(t, m.RoadLength, 0.0)
}
