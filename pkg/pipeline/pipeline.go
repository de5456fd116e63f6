package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/nxc1802/REMB/pkg/config"
	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/infra"
	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/optimize"
	"github.com/nxc1802/REMB/pkg/routing"
	"github.com/nxc1802/REMB/pkg/subdivide"
	"github.com/nxc1802/REMB/pkg/validation"
)

// voronoiAreaThreshold switches auto mode to the Voronoi generator on
// large, unconstrained sites.
const voronoiAreaThreshold = 50_000.0

// Planner runs the full three-stage pipeline for one configuration.
type Planner struct {
	cfg    config.Config
	logger *log.Logger
}

// New validates the configuration and returns a planner. A nil logger
// silences all output.
func New(cfg config.Config, logger *log.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Planner{cfg: cfg, logger: logger}, nil
}

// RunProject plans the project's site with its roads, obstacles, and
// elevation model.
func (p *Planner) RunProject(ctx context.Context, project *config.Project) (*Layout, error) {
	site, err := project.SitePolygon()
	if err != nil {
		l := p.failedLayout(site, "InvalidSite")
		return l, fmt.Errorf("%w: %v", ErrInvalidSite, err)
	}
	var elevation func(x, y float64) float64
	if project.Elevation != nil {
		elevation = project.Elevation.At
	}
	var roads []geo.Polyline
	for _, r := range project.Roads {
		roads = append(roads, r.Polyline())
	}
	return p.Run(ctx, site, project.ObstaclePolygons(), roads, elevation)
}

// Run plans a site. Obstacles exclude the grid optimizer's tiles that touch
// them (the Voronoi generator does not receive them), fixed roads constrain
// the Voronoi generator, and the elevation model picks the
// treatment plant location. The returned layout is frozen; with identical
// inputs and seed two runs produce identical layouts.
func (p *Planner) Run(ctx context.Context, site geo.Polygon, obstacles []geo.Polygon, fixedRoads []geo.Polyline, elevation func(x, y float64) float64) (*Layout, error) {
	started := time.Now()
	report := validation.NewReport()

	if err := site.Validate(); err != nil {
		return p.failedLayout(site, "InvalidSite"), fmt.Errorf("%w: %v", ErrInvalidSite, err)
	}

	result := &Layout{
		ID:     layoutID(site, p.cfg),
		Seed:   p.cfg.Seed,
		Site:   site,
		Status: StatusOK,
	}

	// Stage 1: road network and raw blocks.
	method := p.chooseMethod(site, fixedRoads)
	result.Method = method
	p.logger.Info("stage 1: road network", "method", method, "site_area", site.Area())

	blockPolys, network, gridParams, partial, err := p.stage1(ctx, site, obstacles, fixedRoads, method, report)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return p.failedLayout(site, "Cancelled"), fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return p.failedLayout(site, "NoFeasibleSolution"), err
	}
	result.Roads = network
	result.GridParams = gridParams
	result.Partial = partial

	// Stage 2: classification and subdivision.
	if err := ctx.Err(); err != nil {
		return p.failedLayout(site, "Cancelled"), fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	blocks := layout.ClassifyBlocks(blockPolys, site, layout.ClassifyOptions{
		MinLotArea:        p.cfg.MinLotArea,
		MinRectangularity: p.cfg.MinRectangularity,
		MaxAspect:         p.cfg.MaxAspectRatio,
		ServiceAreaRatio:  p.cfg.ServiceAreaRatio,
		Elevation:         elevation,
	})
	p.logger.Info("stage 2: subdivision", "blocks", len(blocks))

	lots, green, subPartial := p.stage2(ctx, blocks, report)
	result.Blocks = blocks
	result.GreenSpaces = green
	result.Partial = result.Partial || subPartial

	// Road connectivity: unreachable lots become green space.
	lots = p.validateConnectivity(site, network, lots, &result.GreenSpaces, report)
	result.Lots = lots

	// Stage 3: infrastructure.
	if err := ctx.Err(); err != nil {
		return p.failedLayout(site, "Cancelled"), fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	p.stage3(result, blocks, elevation, report)

	result.Metrics = p.metrics(result, blocks)
	result.Warnings = report.Warnings
	if result.Partial {
		result.Status = StatusPartial
	}
	p.logger.Info("pipeline complete",
		"lots", len(result.Lots),
		"status", result.Status,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

// chooseMethod implements the auto rule: large unconstrained sites get the
// organic Voronoi tessellation, everything else the grid optimizer.
func (p *Planner) chooseMethod(site geo.Polygon, fixedRoads []geo.Polyline) string {
	if p.cfg.LayoutMethod != config.MethodAuto {
		return p.cfg.LayoutMethod
	}
	if site.Area() > voronoiAreaThreshold && len(fixedRoads) == 0 {
		return config.MethodVoronoi
	}
	return config.MethodGrid
}

func (p *Planner) stage1(ctx context.Context, site geo.Polygon, obstacles []geo.Polygon, fixedRoads []geo.Polyline, method string, report *validation.Report) ([]geo.Polygon, layout.RoadNetwork, *layout.GridParams, bool, error) {
	if method == config.MethodVoronoi {
		rng := rand.New(rand.NewSource(p.cfg.Seed))
		res, err := layout.GenerateVoronoiRoads(site, layout.VoronoiOptions{
			Seeds:           p.cfg.VoronoiSeeds,
			LloydIterations: p.cfg.LloydIterations,
			MainWidth:       p.cfg.RoadMainWidth,
			InternalWidth:   p.cfg.RoadInternalWidth,
			MinBlockArea:    p.cfg.MinBlockArea,
			MainRoads:       fixedRoads,
		}, rng)
		if err == nil && len(res.Blocks) > 0 {
			return res.Blocks, res.Network, nil, false, nil
		}
		if p.cfg.LayoutMethod == config.MethodVoronoi {
			return nil, layout.RoadNetwork{}, nil, false, fmt.Errorf("voronoi generation failed: %w", err)
		}
		report.AddWarning(validation.Result{
			Level:   validation.LevelGeometry,
			Message: "voronoi generation produced no blocks, falling back to grid",
		})
	}

	problem := optimize.NewGridProblem(site, obstacles,
		p.cfg.SpacingMin, p.cfg.SpacingMax, p.cfg.AngleMin, p.cfg.AngleMax, p.cfg.MinLotArea)
	res, err := optimize.Run(ctx, problem, optimize.Options{
		PopulationSize:  p.cfg.PopulationSize,
		Generations:     p.cfg.Generations,
		CrossoverProb:   p.cfg.CrossoverProb,
		MutationProb:    p.cfg.MutationProb,
		Seed:            p.cfg.Seed,
		EarlyStopWindow: 10,
		Logger:          p.logger,
	})
	if err != nil {
		return nil, layout.RoadNetwork{}, nil, false, err
	}
	params := problem.Params(res.Best.Genes)
	blocks := problem.Blocks(res.Best.Genes, p.cfg.RoadInternalWidth, p.cfg.MinBlockArea)
	network := layout.GridRoadNetwork(site, params, p.cfg.RoadMainWidth, p.cfg.RoadInternalWidth)
	if len(blocks) == 0 {
		return nil, layout.RoadNetwork{}, nil, false,
			fmt.Errorf("grid optimizer found no usable blocks: %w", optimize.ErrNoFeasibleSolution)
	}
	return blocks, network, &params, res.Partial, nil
}

// stage2 slices every commercial block into lots. Infeasible blocks are
// reclassified as green space; solver timeouts keep their best widths and
// mark the layout partial.
func (p *Planner) stage2(ctx context.Context, blocks []layout.Block, report *validation.Report) ([]layout.Lot, []geo.Polygon, bool) {
	var lots []layout.Lot
	var green []geo.Polygon
	partial := false

	sliceOpts := layout.SliceOptions{
		MinWidth:    p.cfg.MinLotWidth,
		MaxWidth:    p.cfg.MaxLotWidth,
		TargetWidth: p.cfg.TargetLotWidth,
		Setback:     p.cfg.SetbackDistance,
		MinLotArea:  p.cfg.MinLotArea,
		TimeLimit:   time.Duration(p.cfg.SolverTimeLimitSec * float64(time.Second)),
	}

	for i := range blocks {
		if ctx.Err() != nil {
			partial = true
			break
		}
		if blocks[i].Class != layout.BlockCommercial {
			if blocks[i].Class == layout.BlockGreen {
				green = append(green, blocks[i].Polygon)
			}
			continue
		}
		res, err := layout.SliceBlock(blocks[i], sliceOpts)
		if err != nil {
			if errors.Is(err, subdivide.ErrTimeout) {
				partial = true
			}
			blocks[i].Class = layout.BlockGreen
			green = append(green, blocks[i].Polygon)
			report.AddWarning(validation.Result{
				Level:   validation.LevelSolver,
				Message: fmt.Sprintf("subdivision infeasible, block reclassified as green: %v", err),
				Subject: fmt.Sprintf("block %d", blocks[i].ID),
			})
			continue
		}
		partial = partial || res.Partial
		for _, lot := range res.Lots {
			lot.ID = len(lots)
			lots = append(lots, lot)
		}
		green = append(green, res.Green...)
	}
	return lots, green, partial
}

// validateConnectivity drops lots that cannot reach a road cell,
// reclassifying their ground as green space.
func (p *Planner) validateConnectivity(site geo.Polygon, network layout.RoadNetwork, lots []layout.Lot, green *[]geo.Polygon, report *validation.Report) []layout.Lot {
	if len(network.Segments) == 0 || len(lots) == 0 {
		if len(lots) > 0 {
			report.AddWarning(validation.Result{
				Level:   validation.LevelConnectivity,
				Message: "no road segments to validate against",
			})
		}
		return lots
	}
	minB, maxB := site.Bounds()
	grid := routing.Rasterize(network, minB, maxB, p.cfg.GridCellSize)
	reachable := grid.ValidateLots(lots)

	kept := lots[:0]
	for i, lot := range lots {
		if reachable[i] {
			lot.ID = len(kept)
			kept = append(kept, lot)
			continue
		}
		*green = append(*green, lot.Polygon)
		report.AddWarning(validation.Result{
			Level:   validation.LevelConnectivity,
			Message: "lot cannot reach the road network, reclassified as green",
			Subject: fmt.Sprintf("block %d lot %d", lot.BlockID, i),
		})
	}
	return kept
}

// stage3 plans the electrical loop network, transformers, and drainage.
func (p *Planner) stage3(result *Layout, blocks []layout.Block, elevation func(x, y float64) float64, report *validation.Report) {
	// Network nodes: lots plus service and utility block centroids, in that
	// order so lot indices match network node indices.
	var nodes []geo.Point
	for _, lot := range result.Lots {
		nodes = append(nodes, lot.Centroid)
	}
	lotNodes := len(nodes)
	for _, b := range blocks {
		if b.Class == layout.BlockService || b.Class == layout.BlockUtility {
			nodes = append(nodes, b.Polygon.Centroid())
		}
	}

	network, err := infra.PlanNetwork(nodes, infra.Options{
		MaxEdgeDistance:     p.cfg.MaxEdgeDistance,
		LoopRedundancyRatio: p.cfg.LoopRedundancyRatio,
	})
	result.Network = network
	if err != nil {
		var disc *infra.DisconnectedError
		if errors.As(err, &disc) {
			report.AddWarning(validation.Result{
				Level:   validation.LevelInfra,
				Message: fmt.Sprintf("electrical network split into %d components", len(disc.Components)),
				Detail:  disc.Components,
			})
		}
	}

	if lotNodes > 0 {
		transformers, err := infra.PlanTransformers(nodes[:lotNodes], nil, infra.TransformerOptions{
			CapacityKVA:        p.cfg.TransformerCapacityKVA,
			LoadPerLotKW:       p.cfg.LoadPerLotKW,
			LotsPerTransformer: p.cfg.LotsPerTransformer,
			Seed:               p.cfg.Seed,
		})
		result.Transformers = transformers
		if err != nil {
			report.AddWarning(validation.Result{
				Level:   validation.LevelInfra,
				Message: err.Error(),
			})
		}
	}

	result.WWTP = p.chooseWWTP(result.Site, blocks, elevation)
	result.Drainage = infra.DrainageArrows(nodes[:lotNodes], result.WWTP, p.cfg.DrainageArrowLength)
}

// chooseWWTP prefers the utility block chosen by the elevation-ordered
// classification; otherwise infra.ChooseWWTP picks from the site centroid
// and vertices.
func (p *Planner) chooseWWTP(site geo.Polygon, blocks []layout.Block, elevation func(x, y float64) float64) geo.Point {
	for _, b := range blocks {
		if b.Class == layout.BlockUtility {
			return b.Polygon.Centroid()
		}
	}
	return infra.ChooseWWTP(site, elevation)
}

func (p *Planner) metrics(result *Layout, blocks []layout.Block) Metrics {
	m := Metrics{
		SiteArea:         result.Site.Area(),
		RoadLength:       result.Roads.TotalLength(),
		LotCount:         len(result.Lots),
		BlockCount:       len(blocks),
		TransformerCount: len(result.Transformers),
	}
	lotAreas := make([]float64, len(result.Lots))
	for i, lot := range result.Lots {
		lotAreas[i] = lot.Area
	}
	m.TotalCommercialArea = floats.Sum(lotAreas)
	if len(lotAreas) > 0 {
		m.AverageLotArea = m.TotalCommercialArea / float64(len(lotAreas))
	}
	for _, g := range result.GreenSpaces {
		m.TotalGreenArea += g.Area()
	}
	for _, b := range blocks {
		if b.Class == layout.BlockDiscard {
			m.DiscardedBlocks++
		}
	}
	for _, e := range result.Network.TreeEdges {
		m.MSTLength += e.Weight
	}
	for _, e := range result.Network.LoopEdges {
		m.LoopLength += e.Weight
	}
	if m.SiteArea > 0 {
		m.UtilizationRatio = math.Min(1, m.TotalCommercialArea/m.SiteArea)
	}
	return m
}

// failedLayout builds the empty-geometry record for a fatal error.
func (p *Planner) failedLayout(site geo.Polygon, code string) *Layout {
	return &Layout{
		ID:         layoutID(site, p.cfg),
		Seed:       p.cfg.Seed,
		Status:     StatusFailed,
		FatalError: code,
	}
}

// layoutID derives a stable UUID from the site geometry and configuration,
// so identical runs replay with identical IDs.
func layoutID(site geo.Polygon, cfg config.Config) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range site.Vertices {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.X))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.Y))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(cfg.Seed))
	h.Write(buf[:])
	sum := h.Sum(nil)
	return uuid.NewSHA1(uuid.NameSpaceOID, sum).String()
}
