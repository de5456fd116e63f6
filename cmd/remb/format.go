package main

import (
	"fmt"
	"os"

	"github.com/nxc1802/REMB/pkg/cost"
	"github.com/nxc1802/REMB/pkg/pipeline"
)

// printWarnings lists the run's findings on stderr.
func printWarnings(l *pipeline.Layout) {
	if len(l.Warnings) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "WARNINGS (%d):\n", len(l.Warnings))
	for _, w := range l.Warnings {
		if w.Subject != "" {
			fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", w.Level, w.Subject, w.Message)
			continue
		}
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", w.Level, w.Message)
	}
}

func printCostReport(r *cost.Report) {
	fmt.Println("Development Cost Estimate")
	fmt.Println("=========================")
	fmt.Println()

	rows := []struct {
		label string
		value float64
	}{
		{"Site preparation", r.Estimate.SitePreparation},
		{"Roads", r.Estimate.Roads},
		{"Electrical", r.Estimate.Electrical},
		{"Drainage", r.Estimate.Drainage},
		{"Landscaping", r.Estimate.Landscaping},
		{"TOTAL", r.Estimate.Total},
	}
	for _, row := range rows {
		fmt.Printf("  %-18s $%s\n", row.label, formatMoney(row.value))
	}

	fmt.Println()
	fmt.Println("Summary")
	fmt.Println("-------")
	fmt.Printf("  Per sellable m²:        $%.2f\n", r.Summary.PerSellableM2)
	fmt.Printf("  Annual debt service:    $%s\n", formatMoney(r.Summary.AnnualDebtService))
	fmt.Printf("  Break-even price/m²:    $%.2f\n", r.Summary.BreakEvenPricePerM2)
}

func formatMoney(v float64) string {
	if v >= 1_000_000_000 {
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	}
	if v >= 1_000_000 {
		return fmt.Sprintf("%.2fM", v/1_000_000)
	}
	if v >= 1_000 {
		return fmt.Sprintf("%.0fK", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}
