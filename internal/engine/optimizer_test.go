package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoFit/internal/model"
)

func defaultTestSettings() model.Settings {
	return model.DefaultSettings()
}

func testContainer() model.Container {
	return model.Container{ID: "c1", Label: "Test", Length: 600, Width: 240, Height: 260, MaxWeight: 1000}
}

func cube(id string, size, weight float64, qty int) model.CargoItem {
	return model.CargoItem{
		ID: id, SKU: "SKU-" + id, Length: size, Width: size, Height: size,
		Weight: weight, Quantity: qty, StopSequence: 1, Stackable: true, Rotatable: true,
	}
}

func assertConservation(t *testing.T, r model.PlacementResult) {
	t.Helper()
	assert.Equal(t, r.TotalPieces, r.PlacedCount()+r.UnplacedCount(), "every piece is placed or unplaced")
}

func TestPlan_SimpleFit(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{cube("a", 100, 10, 10)})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Len(t, result.Placed, 10)
	assert.Empty(t, result.Unplaced)
	assert.Empty(t, result.Violations)
	assert.InDelta(t, 10.0e6/(600*240*260)*100, result.VolumeUtilization, 1e-9)
	assert.InDelta(t, 10.0, result.WeightUtilization, 1e-9)
	for _, p := range result.Placed {
		assert.Zero(t, p.Z, "ten cubes fit on the floor")
		assert.Zero(t, p.Layer)
	}
	require.NoError(t, VerifyLayout(result.Placed, req.Container))
	assertConservation(t, result)
}

func TestPlan_FloorScanIsXMajor(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{cube("a", 100, 10, 3)})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)
	require.Len(t, result.Placed, 3)

	assert.Equal(t, [2]float64{0, 0}, [2]float64{result.Placed[0].X, result.Placed[0].Y})
	assert.Equal(t, [2]float64{0, 100}, [2]float64{result.Placed[1].X, result.Placed[1].Y})
	assert.Equal(t, [2]float64{100, 0}, [2]float64{result.Placed[2].X, result.Placed[2].Y})
}

func slab(id string) model.CargoItem {
	return model.CargoItem{
		ID: id, Length: 600, Width: 240, Height: 130, Weight: 100,
		Quantity: 1, StopSequence: 1, Stackable: true, Rotatable: true,
	}
}

func TestPlan_StacksWhenFloorIsFull(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{slab("a"), slab("b")})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	require.Len(t, result.Placed, 2)
	assert.Equal(t, 0.0, result.Placed[0].Z)
	assert.Equal(t, 130.0, result.Placed[1].Z)
	assert.Equal(t, 1, result.Placed[1].Layer)
	assert.True(t, result.Success)
}

func TestPlan_MaxStackHeightBlocksStacking(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{slab("a"), slab("b")})
	req.Constraints.MaxStackHeight = 100

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	assert.Len(t, result.Placed, 1)
	assert.Equal(t, []string{"b-1"}, result.Unplaced)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, model.ViolationCollision, result.Violations[0].Type)
	assert.False(t, result.Success)
	assertConservation(t, result)
}

func TestPlan_NonStackableSupportBlocksStacking(t *testing.T) {
	a := slab("a")
	a.Stackable = false
	req := model.NewRequest(testContainer(), []model.CargoItem{a, slab("b")})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	assert.Len(t, result.Placed, 1)
	assert.Equal(t, []string{"b-1"}, result.Unplaced)
}

func TestPlan_WeightLimit(t *testing.T) {
	c := testContainer()
	c.MaxWeight = 100
	req := model.NewRequest(c, []model.CargoItem{cube("a", 50, 60, 1), cube("b", 50, 60, 1)})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	assert.Len(t, result.Placed, 1)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, model.ViolationWeightExceeded, result.Violations[0].Type)
	assert.False(t, result.Success)
	assert.LessOrEqual(t, result.PlacedWeight(), c.MaxWeight)
	assertConservation(t, result)
}

func TestPlan_WeightLimitSkipsOnlyHeavyPieces(t *testing.T) {
	c := testContainer()
	c.MaxWeight = 100
	heavy := cube("heavy", 100, 90, 1)
	heavy.StopSequence = 3
	mid := cube("mid", 90, 50, 1)
	mid.StopSequence = 2
	light := cube("light", 80, 10, 1)

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(c, []model.CargoItem{light, mid, heavy}))
	require.NoError(t, err)

	assert.Equal(t, []string{"mid-1"}, result.Unplaced)
	assert.InDelta(t, 100, result.PlacedWeight(), 1e-9)
}

func TestPlan_FragileAndHazardousWarnings(t *testing.T) {
	c := model.Container{Length: 100, Width: 100, Height: 200, MaxWeight: 1000}
	base := cube("base", 100, 50, 1)
	base.StopSequence = 2
	fragile := model.CargoItem{ID: "glass", SKU: "GLASS", Length: 100, Width: 100, Height: 50,
		Weight: 5, Quantity: 1, StopSequence: 1, Fragile: true, Hazardous: true, Stackable: true}

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(c, []model.CargoItem{fragile, base}))
	require.NoError(t, err)
	require.Len(t, result.Placed, 2)

	glass := result.Placed[1]
	assert.Equal(t, "glass-1", glass.PieceID)
	assert.Equal(t, 1, glass.Layer)

	require.Len(t, result.Warnings, 2)
	assert.Equal(t, model.WarningFragileStacking, result.Warnings[0].Type)
	assert.Equal(t, model.SeverityMedium, result.Warnings[0].Severity)
	assert.Equal(t, model.WarningHazardousProximity, result.Warnings[1].Type)
	assert.Equal(t, model.SeverityHigh, result.Warnings[1].Severity)
	assert.True(t, result.Success, "warnings do not fail a result")
}

func TestPlan_LaterStopsLoadFirst(t *testing.T) {
	first := cube("first", 100, 10, 1)
	last := cube("last", 50, 10, 1)
	last.StopSequence = 3

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(testContainer(), []model.CargoItem{first, last}))
	require.NoError(t, err)
	require.Len(t, result.Placed, 2)

	assert.Equal(t, "last-1", result.Placed[0].PieceID)
	assert.Equal(t, 0.0, result.Placed[0].X)
}

func TestPlan_SortsByFootprintThenHeight(t *testing.T) {
	pieces := []model.Piece{
		{ID: "small", Item: model.CargoItem{Length: 10, Width: 10, Height: 50}},
		{ID: "tall", Item: model.CargoItem{Length: 20, Width: 20, Height: 90}},
		{ID: "flat", Item: model.CargoItem{Length: 20, Width: 20, Height: 10}},
	}
	sortForLoading(pieces)

	assert.Equal(t, "tall", pieces[0].ID)
	assert.Equal(t, "flat", pieces[1].ID)
	assert.Equal(t, "small", pieces[2].ID)
}

func TestPlan_Rotation(t *testing.T) {
	c := model.Container{Length: 100, Width: 300, Height: 100, MaxWeight: 1000}
	long := model.CargoItem{ID: "long", Length: 300, Width: 100, Height: 100, Weight: 1,
		Quantity: 1, StopSequence: 1, Stackable: true, Rotatable: true}

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(c, []model.CargoItem{long}))
	require.NoError(t, err)
	require.Len(t, result.Placed, 1)
	assert.Equal(t, model.Orientation90, result.Placed[0].Orientation)
	assert.Equal(t, 100.0, result.Placed[0].Length)
	assert.Equal(t, 300.0, result.Placed[0].Width)

	req := model.NewRequest(c, []model.CargoItem{long})
	req.Constraints.AllowRotation = false
	result, err = NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)
	assert.Empty(t, result.Placed)
	assert.Equal(t, []string{"long-1"}, result.Unplaced)
}

func TestPlan_StacksBeforeRotating(t *testing.T) {
	base := model.CargoItem{ID: "a", Length: 600, Width: 200, Height: 100, Weight: 10,
		Quantity: 1, StopSequence: 1, Stackable: true, Rotatable: true}
	plank := model.CargoItem{ID: "b", Length: 40, Width: 240, Height: 50, Weight: 5,
		Quantity: 1, StopSequence: 1, Stackable: true, Rotatable: true}

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(testContainer(), []model.CargoItem{base, plank}))
	require.NoError(t, err)
	require.Len(t, result.Placed, 2)

	b := result.Placed[1]
	assert.Equal(t, "b-1", b.PieceID)
	assert.Equal(t, model.OrientationNormal, b.Orientation, "stacking in the current orientation wins over rotating onto the floor")
	assert.Equal(t, 100.0, b.Z)
	assert.Equal(t, 1, b.Layer)
	require.NoError(t, VerifyLayout(result.Placed, testContainer()))
}

func TestPlan_ItemRotationFlag(t *testing.T) {
	c := model.Container{Length: 100, Width: 300, Height: 100, MaxWeight: 1000}
	long := model.CargoItem{ID: "long", Length: 300, Width: 100, Height: 100, Weight: 1,
		Quantity: 1, StopSequence: 1, Rotatable: false}

	result, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(c, []model.CargoItem{long}))
	require.NoError(t, err)
	assert.Empty(t, result.Placed)
}

func TestPlan_Deterministic(t *testing.T) {
	items := []model.CargoItem{cube("a", 100, 10, 4), cube("b", 70, 5, 6), slab("c")}
	items[1].StopSequence = 2
	req := model.NewRequest(testContainer(), items)

	first, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)
	second, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("planner not deterministic (-first +second):\n%s", diff)
	}
	require.NoError(t, VerifyLayout(first.Placed, req.Container))
	assertConservation(t, first)
}

func TestPlan_InvalidRequest(t *testing.T) {
	_, err := NewPlanner(defaultTestSettings()).Plan(model.NewRequest(testContainer(), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEmptyItems)

	bad := model.NewRequest(testContainer(), []model.CargoItem{{ID: "x", Length: -1, Width: 1, Height: 1, Quantity: 1}})
	_, err = NewPlanner(defaultTestSettings()).Plan(bad)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "items[0]", verr.Field)
}

func TestPlan_OversizedPiece(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{cube("huge", 700, 10, 1)})

	result, err := NewPlanner(defaultTestSettings()).Plan(req)
	require.NoError(t, err)
	assert.Empty(t, result.Placed)
	assert.NotNil(t, result.Placed)
	assert.Equal(t, 0.0, result.VolumeUtilization)
	assert.False(t, result.Success)
}

func TestOptimize_DispatchesOnAlgorithm(t *testing.T) {
	req := model.NewRequest(testContainer(), []model.CargoItem{cube("a", 100, 10, 4)})

	s := defaultTestSettings()
	greedy, err := New(s).Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmGreedy, greedy.Strategy)

	s.Algorithm = model.AlgorithmGenetic
	s.PopulationSize = 6
	s.Generations = 3
	genetic, err := New(s).Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmGenetic, genetic.Strategy)
	assert.Equal(t, 3, genetic.Generations)
}

func TestOptimize_GreedyReportsCompletion(t *testing.T) {
	var got []float64
	_, err := New(defaultTestSettings()).OptimizeWithProgress(context.Background(),
		model.NewRequest(testContainer(), []model.CargoItem{cube("a", 100, 10, 1)}),
		func(p float64) { got = append(got, p) })
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, got)
}
