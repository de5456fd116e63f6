// Package config defines the planner configuration record and the project
// file format binding a site polygon, optional roads, and parameters.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks a configuration the pipeline refuses to run with.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Layout methods for stage 1.
const (
	MethodGrid    = "grid"
	MethodVoronoi = "voronoi"
	MethodAuto    = "auto"
)

// Config is the single configuration record the orchestrator accepts.
type Config struct {
	LayoutMethod string `yaml:"layout_method" json:"layout_method"`

	// Grid gene bounds.
	SpacingMin float64 `yaml:"spacing_min" json:"spacing_min"`
	SpacingMax float64 `yaml:"spacing_max" json:"spacing_max"`
	AngleMin   float64 `yaml:"angle_min" json:"angle_min"`
	AngleMax   float64 `yaml:"angle_max" json:"angle_max"`

	// Evolutionary search.
	PopulationSize int     `yaml:"population_size" json:"population_size"`
	Generations    int     `yaml:"generations" json:"generations"`
	CrossoverProb  float64 `yaml:"crossover_prob" json:"crossover_prob"`
	MutationProb   float64 `yaml:"mutation_prob" json:"mutation_prob"`

	// Subdivision.
	TargetLotWidth     float64 `yaml:"target_lot_width" json:"target_lot_width"`
	MinLotWidth        float64 `yaml:"min_lot_width" json:"min_lot_width"`
	MaxLotWidth        float64 `yaml:"max_lot_width" json:"max_lot_width"`
	SetbackDistance    float64 `yaml:"setback_distance" json:"setback_distance"`
	SolverTimeLimitSec float64 `yaml:"solver_time_limit_sec" json:"solver_time_limit_sec"`

	// Roads.
	RoadMainWidth     float64 `yaml:"road_main_width" json:"road_main_width"`
	RoadInternalWidth float64 `yaml:"road_internal_width" json:"road_internal_width"`
	GridCellSize      float64 `yaml:"grid_cell_size" json:"grid_cell_size"`

	// Block quality thresholds.
	MinBlockArea      float64 `yaml:"min_block_area" json:"min_block_area"`
	MinLotArea        float64 `yaml:"min_lot_area" json:"min_lot_area"`
	MinRectangularity float64 `yaml:"min_rectangularity" json:"min_rectangularity"`
	MaxAspectRatio    float64 `yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	ServiceAreaRatio  float64 `yaml:"service_area_ratio" json:"service_area_ratio"`

	// Voronoi road generation.
	VoronoiSeeds    int `yaml:"voronoi_seeds" json:"voronoi_seeds"`
	LloydIterations int `yaml:"lloyd_iterations" json:"lloyd_iterations"`

	// Infrastructure.
	LoopRedundancyRatio    float64 `yaml:"loop_redundancy_ratio" json:"loop_redundancy_ratio"`
	MaxEdgeDistance        float64 `yaml:"max_edge_distance" json:"max_edge_distance"`
	TransformerCapacityKVA float64 `yaml:"transformer_capacity_kva" json:"transformer_capacity_kva"`
	LotsPerTransformer     int     `yaml:"lots_per_transformer" json:"lots_per_transformer"`
	LoadPerLotKW           float64 `yaml:"load_per_lot_kw" json:"load_per_lot_kw"`
	DrainageArrowLength    float64 `yaml:"drainage_arrow_length" json:"drainage_arrow_length"`

	Seed int64 `yaml:"seed" json:"seed"`
}

// Default returns the planner defaults (TCVN-derived road and lot figures).
func Default() Config {
	return Config{
		LayoutMethod:           MethodAuto,
		SpacingMin:             50,
		SpacingMax:             150,
		AngleMin:               0,
		AngleMax:               90,
		PopulationSize:         30,
		Generations:            15,
		CrossoverProb:          0.9,
		MutationProb:           0, // 1/nGenes at run time
		TargetLotWidth:         40,
		MinLotWidth:            20,
		MaxLotWidth:            80,
		SetbackDistance:        6,
		SolverTimeLimitSec:     5,
		RoadMainWidth:          20,
		RoadInternalWidth:      10,
		GridCellSize:           1,
		MinBlockArea:           400,
		MinLotArea:             250,
		MinRectangularity:      0.65,
		MaxAspectRatio:         4.0,
		ServiceAreaRatio:       0.10,
		VoronoiSeeds:           15,
		LloydIterations:        30,
		LoopRedundancyRatio:    0.15,
		MaxEdgeDistance:        500,
		TransformerCapacityKVA: 1000,
		LotsPerTransformer:     15,
		LoadPerLotKW:           100,
		DrainageArrowLength:    30,
		Seed:                   42,
	}
}

// Validate rejects configurations the pipeline cannot honour.
func (c Config) Validate() error {
	switch c.LayoutMethod {
	case MethodGrid, MethodVoronoi, MethodAuto:
	default:
		return fmt.Errorf("%w: layout_method %q", ErrInvalidConfig, c.LayoutMethod)
	}
	if c.SpacingMin <= 0 || c.SpacingMax < c.SpacingMin {
		return fmt.Errorf("%w: spacing bounds [%.1f, %.1f]", ErrInvalidConfig, c.SpacingMin, c.SpacingMax)
	}
	if c.AngleMin < 0 || c.AngleMax > 360 || c.AngleMax < c.AngleMin {
		return fmt.Errorf("%w: angle bounds [%.1f, %.1f]", ErrInvalidConfig, c.AngleMin, c.AngleMax)
	}
	if c.PopulationSize < 2 {
		return fmt.Errorf("%w: population_size %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations < 1 {
		return fmt.Errorf("%w: generations %d", ErrInvalidConfig, c.Generations)
	}
	if c.CrossoverProb < 0 || c.CrossoverProb > 1 {
		return fmt.Errorf("%w: crossover_prob %.2f", ErrInvalidConfig, c.CrossoverProb)
	}
	if c.MutationProb < 0 || c.MutationProb > 1 {
		return fmt.Errorf("%w: mutation_prob %.2f", ErrInvalidConfig, c.MutationProb)
	}
	if c.MinLotWidth <= 0 || c.MaxLotWidth < c.MinLotWidth {
		return fmt.Errorf("%w: lot width bounds [%.1f, %.1f]", ErrInvalidConfig, c.MinLotWidth, c.MaxLotWidth)
	}
	if c.RoadMainWidth <= 0 || c.RoadInternalWidth <= 0 {
		return fmt.Errorf("%w: road widths %.1f/%.1f", ErrInvalidConfig, c.RoadMainWidth, c.RoadInternalWidth)
	}
	if c.VoronoiSeeds < 2 {
		return fmt.Errorf("%w: voronoi_seeds %d", ErrInvalidConfig, c.VoronoiSeeds)
	}
	if c.TransformerCapacityKVA <= 0 {
		return fmt.Errorf("%w: transformer_capacity_kva %.1f", ErrInvalidConfig, c.TransformerCapacityKVA)
	}
	if c.LoopRedundancyRatio < 0 || c.LoopRedundancyRatio > 1 {
		return fmt.Errorf("%w: loop_redundancy_ratio %.2f", ErrInvalidConfig, c.LoopRedundancyRatio)
	}
	return nil
}
