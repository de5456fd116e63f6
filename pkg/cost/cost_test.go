package cost

import (
	"math"
	"testing"

	"github.com/nxc1802/REMB/pkg/geo"
	"github.com/nxc1802/REMB/pkg/infra"
	"github.com/nxc1802/REMB/pkg/layout"
	"github.com/nxc1802/REMB/pkg/pipeline"
)

func sampleLayout() *pipeline.Layout {
	return &pipeline.Layout{
		Site: geo.Rect(0, 0, 100, 100),
		Roads: layout.RoadNetwork{Segments: []layout.RoadSegment{
			{Centreline: geo.NewPolyline(geo.Pt(0, 50), geo.Pt(100, 50)), Width: 10, Class: layout.RoadMain},
			{Centreline: geo.NewPolyline(geo.Pt(50, 0), geo.Pt(50, 100)), Width: 5, Class: layout.RoadInternal},
		}},
		Transformers: []infra.Transformer{{Position: geo.Pt(50, 50), LoadKW: 500}},
		Metrics: pipeline.Metrics{
			SiteArea:            10_000,
			TotalCommercialArea: 5_000,
			TotalGreenArea:      1_000,
			MSTLength:           400,
			LoopLength:          100,
		},
	}
}

func TestEstimateBreakdown(t *testing.T) {
	report := Estimate(sampleLayout(), FinanceTerms{InterestRate: 0.08, TermYears: 15})

	wantSitePrep := 10_000 * SitePrepCostPerM2
	if math.Abs(report.Estimate.SitePreparation-wantSitePrep) > 0.01 {
		t.Errorf("site prep: got %f, want %f", report.Estimate.SitePreparation, wantSitePrep)
	}

	wantRoads := 100*10*RoadMainCostPerM2 + 100*5*RoadInternalCostPerM2
	if math.Abs(report.Estimate.Roads-wantRoads) > 0.01 {
		t.Errorf("roads: got %f, want %f", report.Estimate.Roads, wantRoads)
	}

	wantElectrical := 500*CableCostPerM + TransformerCost
	if math.Abs(report.Estimate.Electrical-wantElectrical) > 0.01 {
		t.Errorf("electrical: got %f, want %f", report.Estimate.Electrical, wantElectrical)
	}

	sum := report.Estimate.SitePreparation + report.Estimate.Roads +
		report.Estimate.Electrical + report.Estimate.Drainage + report.Estimate.Landscaping
	if math.Abs(report.Estimate.Total-sum) > 0.01 {
		t.Errorf("total %f does not match category sum %f", report.Estimate.Total, sum)
	}
	if report.Summary.PerSellableM2 <= 0 {
		t.Error("expected positive per-sellable cost")
	}
}

func TestAnnualDebtService(t *testing.T) {
	// Zero interest amortises linearly.
	if got := annualDebtService(1500, 0, 15); math.Abs(got-100) > 1e-9 {
		t.Errorf("expected 100/yr at 0%%, got %f", got)
	}
	// Positive interest raises the annuity above the linear payment.
	if got := annualDebtService(1500, 0.08, 15); got <= 100 {
		t.Errorf("expected annuity above 100, got %f", got)
	}
	if got := annualDebtService(1500, 0.08, 0); got != 0 {
		t.Errorf("expected 0 for zero term, got %f", got)
	}
}
