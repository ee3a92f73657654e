package validator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoFit/internal/model"
)

func testContainer() model.Container {
	return model.Container{
		Length: 600, Width: 240, Height: 260, MaxWeight: 10000, TareWeight: 5000,
		Axles: []model.Axle{
			{Name: "front", Position: 100, Capacity: 2000},
			{Name: "rear", Position: 500, Capacity: 3000},
		},
	}
}

func box(id string, x, y, z, l, w, h, weight float64) model.PlacedItem {
	return model.PlacedItem{PieceID: id, X: x, Y: y, Z: z, Length: l, Width: w, Height: h, Weight: weight}
}

func TestCenterOfGravitySymmetricLoad(t *testing.T) {
	placed := []model.PlacedItem{
		box("a", 0, 0, 0, 100, 240, 100, 500),
		box("b", 500, 0, 0, 100, 240, 100, 500),
	}
	cog := CenterOfGravity(placed)

	assert.InDelta(t, 300, cog.X, 1e-9, "symmetric load centers on the midpoint")
	assert.InDelta(t, 120, cog.Y, 1e-9)
	assert.InDelta(t, 50, cog.Z, 1e-9)
}

func TestCenterOfGravityIsWeightWeighted(t *testing.T) {
	placed := []model.PlacedItem{
		box("a", 0, 0, 0, 100, 100, 100, 300),
		box("b", 200, 0, 0, 100, 100, 100, 100),
	}
	cog := CenterOfGravity(placed)

	// (50*300 + 250*100) / 400
	assert.InDelta(t, 100, cog.X, 1e-9)
}

func TestCenterOfGravityWithoutWeightFallsBackToGeometry(t *testing.T) {
	placed := []model.PlacedItem{
		box("a", 0, 0, 0, 100, 100, 100, 0),
		box("b", 200, 0, 0, 100, 100, 100, 0),
	}
	assert.InDelta(t, 150, CenterOfGravity(placed).X, 1e-9)
	assert.Equal(t, model.Vec3{}, CenterOfGravity(nil))
}

func TestAxleLoadsFixedSplit(t *testing.T) {
	placed := []model.PlacedItem{box("a", 0, 0, 0, 100, 100, 100, 1000)}
	loads := AxleLoads(placed, testContainer(), model.AxlePolicyFixedSplit)

	require.Len(t, loads, 2)
	assert.InDelta(t, 400, loads[0].Load, 1e-9)
	assert.InDelta(t, 600, loads[1].Load, 1e-9)
	assert.InDelta(t, 20, loads[0].Percent, 1e-9)
	assert.InDelta(t, 20, loads[1].Percent, 1e-9)
}

func TestAxleLoadsFixedSplitFollowsAxlePositions(t *testing.T) {
	c := testContainer()
	c.Axles[0], c.Axles[1] = c.Axles[1], c.Axles[0]
	loads := AxleLoads([]model.PlacedItem{box("a", 0, 0, 0, 10, 10, 10, 1000)}, c, model.AxlePolicyFixedSplit)

	assert.Equal(t, "rear", loads[0].Name)
	assert.InDelta(t, 600, loads[0].Load, 1e-9)
	assert.InDelta(t, 400, loads[1].Load, 1e-9)
}

func TestAxleLoadsPositionWeighted(t *testing.T) {
	c := testContainer()
	tests := []struct {
		name        string
		item        model.PlacedItem
		front, rear float64
	}{
		{"midpoint", box("a", 250, 0, 0, 100, 100, 100, 1000), 500, 500},
		{"over front axle", box("a", 50, 0, 0, 100, 100, 100, 1000), 1000, 0},
		{"ahead of front axle", box("a", 0, 0, 0, 20, 100, 100, 1000), 1000, 0},
		{"behind rear axle", box("a", 560, 0, 0, 40, 100, 100, 1000), 0, 1000},
		{"three quarters back", box("a", 350, 0, 0, 100, 100, 100, 1000), 250, 750},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loads := AxleLoads([]model.PlacedItem{tt.item}, c, model.AxlePolicyPositionWeighted)
			assert.InDelta(t, tt.front, loads[0].Load, 1e-9)
			assert.InDelta(t, tt.rear, loads[1].Load, 1e-9)
		})
	}
}

func TestAxleLoadsFlagOverload(t *testing.T) {
	placed := []model.PlacedItem{box("a", 0, 0, 0, 100, 100, 100, 6000)}
	loads := AxleLoads(placed, testContainer(), model.AxlePolicyFixedSplit)

	assert.True(t, loads[0].Overloaded(), "front carries 2400 of 2000")
	assert.True(t, loads[1].Overloaded(), "rear carries 3600 of 3000")
}

func TestAxleLoadsWithoutAxles(t *testing.T) {
	c := testContainer()
	c.Axles = nil
	loads := AxleLoads([]model.PlacedItem{box("a", 0, 0, 0, 1, 1, 1, 1)}, c, model.AxlePolicyFixedSplit)
	assert.Empty(t, loads)
}

func TestFixedShareForMultipleAxles(t *testing.T) {
	assert.Equal(t, 1.0, fixedShare(0, 1))
	assert.InDelta(t, 0.4, fixedShare(0, 3), 1e-9)
	assert.InDelta(t, 0.3, fixedShare(1, 3), 1e-9)
	assert.InDelta(t, 0.3, fixedShare(2, 3), 1e-9)
}

func TestValidateIsIdempotent(t *testing.T) {
	result := model.PlacementResult{Placed: []model.PlacedItem{
		box("a", 0, 0, 0, 100, 100, 100, 300),
		box("b", 100, 0, 0, 100, 100, 100, 200),
		box("c", 0, 0, 100, 100, 100, 50, 50),
	}}
	c := testContainer()

	first := Validate(result, c, model.AxlePolicyPositionWeighted)
	second := Validate(result, c, model.AxlePolicyPositionWeighted)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Validate not idempotent (-first +second):\n%s", diff)
	}

	assert.Equal(t, 550.0, first.TotalWeight)
	assert.Equal(t, 5550.0, first.GrossWeight)
	assert.Equal(t, 200.0, first.LoadLength)
	assert.Equal(t, model.AxlePolicyPositionWeighted, first.Policy)
}

func TestValidateDefaultsToFixedSplit(t *testing.T) {
	m := Validate(model.PlacementResult{}, testContainer(), "")
	assert.Equal(t, model.AxlePolicyFixedSplit, m.Policy)
	assert.Zero(t, m.TotalWeight)

	m = Validate(model.PlacementResult{}, testContainer(), "bogus")
	assert.Equal(t, model.AxlePolicyFixedSplit, m.Policy, "metrics name the policy that was applied")
}

func TestStabilityScore(t *testing.T) {
	low := []model.PlacedItem{box("a", 0, 0, 0, 100, 100, 20, 100)}
	high := []model.PlacedItem{box("a", 0, 0, 200, 100, 100, 20, 100)}

	lowScore := StabilityScore(low, 260)
	highScore := StabilityScore(high, 260)

	// Center at 10: (1 - 10/260)*50 + 50
	assert.InDelta(t, (1-10.0/260)*50+50, lowScore, 1e-9)
	assert.Greater(t, lowScore, highScore)
	assert.Zero(t, StabilityScore(nil, 260))
}
