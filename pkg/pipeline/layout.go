// Package pipeline sequences the three planning stages — road network,
// block subdivision, infrastructure — and assembles the final Layout record.
package pipeline

import (
	"errors"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/infra"
	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/validation"
)

// Pipeline failure modes. Geometry and solver errors inside a stage are
// recovered locally; these two abort the run.
var (
	ErrInvalidSite = errors.New("pipeline: invalid site")
	ErrCancelled   = errors.New("pipeline: cancelled")
)

// Status summarises how a run ended.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Metrics are the summary figures of a layout.
type Metrics struct {
	SiteArea            float64 `json:"site_area_m2"`
	TotalCommercialArea float64 `json:"total_commercial_area_m2"`
	TotalGreenArea      float64 `json:"total_green_area_m2"`
	UtilizationRatio    float64 `json:"utilization_ratio"`
	MSTLength           float64 `json:"mst_length_m"`
	LoopLength          float64 `json:"loop_length_m"`
	RoadLength          float64 `json:"road_length_m"`
	AverageLotArea      float64 `json:"average_lot_area_m2"`
	LotCount            int     `json:"lot_count"`
	BlockCount          int     `json:"block_count"`
	DiscardedBlocks     int     `json:"discarded_blocks"`
	TransformerCount    int     `json:"transformer_count"`
}

// Layout is the frozen output of one pipeline run. A failed layout carries
// empty geometry and a single fatal error code.
type Layout struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Method string `json:"method"` // stage-1 algorithm actually used
	Seed   int64  `json:"seed"`

	Site         geo.Polygon           `json:"site"`
	Roads        layout.RoadNetwork    `json:"roads"`
	Blocks       []layout.Block        `json:"blocks"`
	Lots         []layout.Lot          `json:"lots"`
	GreenSpaces  []geo.Polygon         `json:"green_spaces"`
	Network      infra.Network         `json:"network"`
	Transformers []infra.Transformer   `json:"transformers"`
	Drainage     []infra.DrainageArrow `json:"drainage"`
	WWTP         geo.Point             `json:"wwtp"`

	// GridParams is set when the grid optimizer produced the layout.
	GridParams *layout.GridParams `json:"grid_params,omitempty"`

	Metrics  Metrics             `json:"metrics"`
	Warnings []validation.Result `json:"warnings"`
	// FatalError is the error code of a failed run, empty otherwise.
	FatalError string `json:"fatal_error,omitempty"`
	Partial    bool   `json:"partial"`
}
