package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/CargoFit/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name        string
	Settings    model.Settings
	Constraints *model.Constraints // nil keeps the request constraints
}

// ComparisonResult holds the placement result and headline figures for a
// single scenario.
type ComparisonResult struct {
	Scenario          ComparisonScenario
	Result            model.PlacementResult
	VolumeUtilization float64
	WeightUtilization float64
	UnplacedCount     int
	WarningCount      int
}

// CompareScenarios runs every scenario concurrently and returns the results
// in scenario order. Each run owns its optimizer, so scenarios share no
// state. The first failing scenario cancels the rest.
func CompareScenarios(ctx context.Context, req model.Request, scenarios []ComparisonScenario) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	for i, scenario := range scenarios {
		g.Go(func() error {
			r := req
			if scenario.Constraints != nil {
				r.Constraints = *scenario.Constraints
			}
			result, err := New(scenario.Settings).Optimize(ctx, r)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			results[i] = ComparisonResult{
				Scenario:          scenario,
				Result:            result,
				VolumeUtilization: result.VolumeUtilization,
				WeightUtilization: result.WeightUtilization,
				UnplacedCount:     result.UnplacedCount(),
				WarningCount:      len(result.Warnings),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.Settings, constraints model.Constraints) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: Try the other algorithm
	alt := base
	if base.Algorithm == model.AlgorithmGenetic {
		alt.Algorithm = model.AlgorithmGreedy
		scenarios = append(scenarios, ComparisonScenario{Name: "Greedy Planner", Settings: alt})
	} else {
		alt.Algorithm = model.AlgorithmGenetic
		scenarios = append(scenarios, ComparisonScenario{Name: "Genetic Optimizer", Settings: alt})
	}

	// Scenario: Different seed for the genetic search
	reseeded := base
	reseeded.Algorithm = model.AlgorithmGenetic
	reseeded.Seed = base.Seed + 1
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Genetic (seed %d)", reseeded.Seed),
		Settings: reseeded,
	})

	// Scenario: Rotation toggled
	toggled := constraints
	toggled.AllowRotation = !constraints.AllowRotation
	name := "Rotation Allowed"
	if !toggled.AllowRotation {
		name = "No Rotation"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Settings: base, Constraints: &toggled})

	// Scenario: Finer position grid
	step := base.GridStep
	if step <= 0 {
		step = model.DefaultGridStep
	}
	if step > 2 {
		fine := base
		fine.GridStep = step / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Grid %.0f (half)", fine.GridStep),
			Settings: fine,
		})
	}

	return scenarios
}
