package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/piwi3910/CargoFit/internal/model"
)

// ProgressFunc receives completion updates in percent. Implementations must
// not block.
type ProgressFunc func(percent float64)

// Optimizer runs the configured placement strategy.
type Optimizer struct {
	Settings model.Settings
}

func New(settings model.Settings) *Optimizer {
	return &Optimizer{Settings: settings}
}

// Optimize validates the request and places the cargo with the configured
// algorithm.
func (o *Optimizer) Optimize(ctx context.Context, req model.Request) (model.PlacementResult, error) {
	return o.OptimizeWithProgress(ctx, req, nil)
}

// OptimizeWithProgress is Optimize with progress reporting. The greedy
// planner runs to completion regardless of ctx and reports a single 100%
// update.
func (o *Optimizer) OptimizeWithProgress(ctx context.Context, req model.Request, progress ProgressFunc) (model.PlacementResult, error) {
	if o.Settings.Algorithm == model.AlgorithmGenetic {
		return OptimizeGenetic(ctx, o.Settings, req, progress)
	}
	result, err := NewPlanner(o.Settings).Plan(req)
	if err == nil && progress != nil {
		progress(100)
	}
	return result, err
}

// Planner is the deterministic greedy placement strategy. Identical input
// always yields identical output.
type Planner struct {
	Settings model.Settings
}

func NewPlanner(settings model.Settings) *Planner {
	return &Planner{Settings: settings}
}

// Plan places every piece of the request in priority order: later stops
// first, then larger footprints, then taller pieces.
func (pl *Planner) Plan(req model.Request) (model.PlacementResult, error) {
	if err := req.Validate(); err != nil {
		return model.PlacementResult{}, fmt.Errorf("plan load: %w", err)
	}

	pieces := model.ExpandPieces(req.Items)
	sortForLoading(pieces)

	p := newPlacer(req.Container, req.Constraints, pl.Settings.GridStep)
	var unplaced []string
	var violations []model.Violation

	for _, piece := range pieces {
		if !p.canCarry(piece.Item.Weight) {
			unplaced = append(unplaced, piece.ID)
			violations = append(violations, weightViolation(piece))
			continue
		}
		if _, ok := p.place(piece, searchGroundThenStack); !ok {
			unplaced = append(unplaced, piece.ID)
			violations = append(violations, spaceViolation(piece))
		}
	}

	return buildResult(model.AlgorithmGreedy, req, p.placed, unplaced, violations), nil
}

// sortForLoading orders pieces so the last delivery is loaded first and
// sits deepest in the container.
func sortForLoading(pieces []model.Piece) {
	sort.SliceStable(pieces, func(i, j int) bool {
		a, b := pieces[i].Item, pieces[j].Item
		if a.StopSequence != b.StopSequence {
			return a.StopSequence > b.StopSequence
		}
		if fa, fb := a.Length*a.Width, b.Length*b.Width; fa != fb {
			return fa > fb
		}
		return a.Height > b.Height
	})
}

func weightViolation(piece model.Piece) model.Violation {
	return model.Violation{
		Type:     model.ViolationWeightExceeded,
		Message:  fmt.Sprintf("Weight limit exceeded for %s", skuOf(piece.Item)),
		PieceIDs: []string{piece.ID},
	}
}

func spaceViolation(piece model.Piece) model.Violation {
	return model.Violation{
		Type:     model.ViolationCollision,
		Message:  fmt.Sprintf("No available space for %s", skuOf(piece.Item)),
		PieceIDs: []string{piece.ID},
	}
}

func skuOf(it model.CargoItem) string {
	if it.SKU != "" {
		return it.SKU
	}
	return it.ID
}

// placementWarnings flags fragile pieces above the floor and every
// hazardous piece.
func placementWarnings(placed []model.PlacedItem) []model.Warning {
	var warnings []model.Warning
	for _, p := range placed {
		if p.Fragile && p.Layer > 0 {
			warnings = append(warnings, model.Warning{
				Type:     model.WarningFragileStacking,
				Message:  fmt.Sprintf("Fragile item %s placed on layer %d", p.SKU, p.Layer),
				Severity: model.SeverityMedium,
				PieceIDs: []string{p.PieceID},
			})
		}
		if p.Hazardous {
			warnings = append(warnings, model.Warning{
				Type:     model.WarningHazardousProximity,
				Message:  fmt.Sprintf("Hazardous item %s requires segregation from other cargo", p.SKU),
				Severity: model.SeverityHigh,
				PieceIDs: []string{p.PieceID},
			})
		}
	}
	return warnings
}

// buildResult assembles a result with utilization figures and warnings.
func buildResult(strategy model.Algorithm, req model.Request, placed []model.PlacedItem, unplaced []string, violations []model.Violation) model.PlacementResult {
	if placed == nil {
		placed = []model.PlacedItem{}
	}
	if unplaced == nil {
		unplaced = []string{}
	}
	r := model.PlacementResult{
		Strategy:    strategy,
		Placed:      placed,
		Unplaced:    unplaced,
		Warnings:    placementWarnings(placed),
		Violations:  violations,
		TotalPieces: req.TotalPieces(),
	}
	if v := req.Container.Volume(); v > 0 {
		r.VolumeUtilization = r.PlacedVolume() / v * 100
	}
	if req.Container.MaxWeight > 0 {
		r.WeightUtilization = r.PlacedWeight() / req.Container.MaxWeight * 100
	}
	r.Success = len(violations) == 0
	return r
}
