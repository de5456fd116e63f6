package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nxc1802/REMB/pkg/config"
	"github.com/nxc1802/REMB/pkg/cost"
	"github.com/nxc1802/REMB/pkg/pipeline"
	"github.com/nxc1802/REMB/pkg/render"
)

// loadProject reads the project file and checks its configuration.
func loadProject(projectPath string) (*config.Project, error) {
	project, err := config.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	if err := project.Config.Validate(); err != nil {
		return nil, err
	}
	return project, nil
}

func runValidate(projectPath string) error {
	project, err := loadProject(projectPath)
	if err != nil {
		return err
	}
	site, err := project.SitePolygon()
	if err != nil {
		return err
	}
	fmt.Printf("Site: %.2f ha, %d vertices, %d obstacles, %d fixed roads\n",
		site.Area()/10_000, site.Len(), len(project.Obstacles), len(project.Roads))
	fmt.Println("Result: VALID")
	return nil
}

func planLayout(projectPath string, logger *log.Logger) (*pipeline.Layout, error) {
	project, err := loadProject(projectPath)
	if err != nil {
		return nil, err
	}
	planner, err := pipeline.New(project.Config, logger)
	if err != nil {
		return nil, err
	}
	return planner.RunProject(context.Background(), project)
}

func runPlan(projectPath string, logger *log.Logger) error {
	result, err := planLayout(projectPath, logger)
	if err != nil {
		if result != nil {
			printWarnings(result)
		}
		return err
	}
	printWarnings(result)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runCost(projectPath string, rate float64, term int, logger *log.Logger) error {
	result, err := planLayout(projectPath, logger)
	if err != nil {
		return err
	}
	report := cost.Estimate(result, cost.FinanceTerms{InterestRate: rate, TermYears: term})
	printCostReport(report)
	return nil
}

func runRender(projectPath, output string, logger *log.Logger) error {
	result, err := planLayout(projectPath, logger)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()
	render.WriteSVG(f, result, render.Options{})
	logger.Info("layout rendered", "path", output, "lots", len(result.Lots))
	return nil
}
