// Package cost estimates estate development cost from the generated layout
// quantities: earthworks, roads, utility networks, and landscaping.
package cost

import (
	"math"

	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/pipeline"
)

// Unit costs in USD, metric units. Rough figures for feasibility-stage
// estimates of Vietnamese industrial estates.
const (
	SitePrepCostPerM2       = 8.0
	RoadMainCostPerM2       = 95.0
	RoadInternalCostPerM2   = 70.0
	CableCostPerM           = 45.0
	TransformerCost         = 28_000.0
	DrainagePipeCostPerM    = 60.0
	GreenLandscapeCostPerM2 = 12.0
)

// Breakdown itemizes costs by category.
type Breakdown struct {
	SitePreparation float64 `json:"site_preparation"`
	Roads           float64 `json:"roads"`
	Electrical      float64 `json:"electrical"`
	Drainage        float64 `json:"drainage"`
	Landscaping     float64 `json:"landscaping"`
	Total           float64 `json:"total"`
}

// Report is the complete cost output.
type Report struct {
	Estimate Breakdown `json:"estimate"`

	Summary struct {
		TotalConstruction   float64 `json:"total_construction"`
		PerSellableM2       float64 `json:"per_sellable_m2"`
		AnnualDebtService   float64 `json:"annual_debt_service"`
		BreakEvenPricePerM2 float64 `json:"break_even_price_per_m2"`
	} `json:"summary"`
}

// FinanceTerms drive the break-even figures.
type FinanceTerms struct {
	InterestRate float64
	TermYears    int
}

// Estimate computes the bottom-up cost of a planned layout.
func Estimate(l *pipeline.Layout, terms FinanceTerms) *Report {
	report := &Report{}

	sitePrep := l.Metrics.SiteArea * SitePrepCostPerM2

	roads := 0.0
	for _, seg := range l.Roads.Segments {
		unit := RoadInternalCostPerM2
		if seg.Class == layout.RoadMain {
			unit = RoadMainCostPerM2
		}
		roads += seg.Centreline.Length() * seg.Width * unit
	}

	cableLength := l.Metrics.MSTLength + l.Metrics.LoopLength
	electrical := cableLength*CableCostPerM + float64(len(l.Transformers))*TransformerCost

	// Drainage piping roughly follows the cable network to the plant.
	drainage := cableLength * DrainagePipeCostPerM

	landscaping := l.Metrics.TotalGreenArea * GreenLandscapeCostPerM2

	report.Estimate = Breakdown{
		SitePreparation: sitePrep,
		Roads:           roads,
		Electrical:      electrical,
		Drainage:        drainage,
		Landscaping:     landscaping,
		Total:           sitePrep + roads + electrical + drainage + landscaping,
	}

	total := report.Estimate.Total
	report.Summary.TotalConstruction = total
	if l.Metrics.TotalCommercialArea > 0 {
		report.Summary.PerSellableM2 = total / l.Metrics.TotalCommercialArea
	}
	annualDebt := annualDebtService(total, terms.InterestRate, terms.TermYears)
	report.Summary.AnnualDebtService = annualDebt
	if l.Metrics.TotalCommercialArea > 0 && terms.TermYears > 0 {
		report.Summary.BreakEvenPricePerM2 =
			annualDebt * float64(terms.TermYears) / l.Metrics.TotalCommercialArea
	}
	return report
}

// annualDebtService uses the standard annuity formula
// P * r(1+r)^n / ((1+r)^n - 1). At 0% interest, returns principal / term.
func annualDebtService(principal, rate float64, termYears int) float64 {
	if termYears <= 0 {
		return 0
	}
	if rate <= 0 {
		return principal / float64(termYears)
	}
	n := float64(termYears)
	factor := math.Pow(1+rate, n)
	return principal * rate * factor / (factor - 1)
}
