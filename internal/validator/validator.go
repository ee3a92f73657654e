// Package validator derives physical load metrics from a placement: center
// of gravity, per-axle loads and a stability score.
package validator

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/CargoFit/internal/model"
)

// frontShare is the cargo share carried by the front axle under the fixed
// split policy.
const frontShare = 0.4

// Validate computes load metrics for a result. It has no side effects and
// returns the same metrics for the same input. Unknown policies fall back to
// the fixed split, and the metrics name the policy actually applied.
func Validate(result model.PlacementResult, c model.Container, policy model.AxlePolicy) model.LoadMetrics {
	if !policy.Valid() {
		policy = model.AxlePolicyFixedSplit
	}
	total := totalWeight(result.Placed)
	return model.LoadMetrics{
		TotalWeight:     total,
		GrossWeight:     c.TareWeight + total,
		CenterOfGravity: CenterOfGravity(result.Placed),
		AxleLoads:       AxleLoads(result.Placed, c, policy),
		LoadLength:      LoadLength(result.Placed),
		StabilityScore:  StabilityScore(result.Placed, c.Height),
		Policy:          policy,
	}
}

func totalWeight(placed []model.PlacedItem) float64 {
	w := make([]float64, len(placed))
	for i, p := range placed {
		w[i] = p.Weight
	}
	return floats.Sum(w)
}

// CenterOfGravity returns the weight-weighted mean of item centers. When no
// piece carries weight the plain geometric mean is used.
func CenterOfGravity(placed []model.PlacedItem) model.Vec3 {
	if len(placed) == 0 {
		return model.Vec3{}
	}
	xs := make([]float64, len(placed))
	ys := make([]float64, len(placed))
	zs := make([]float64, len(placed))
	ws := make([]float64, len(placed))
	for i, p := range placed {
		c := p.Box().Center()
		xs[i], ys[i], zs[i] = c.X, c.Y, c.Z
		ws[i] = p.Weight
	}
	if floats.Sum(ws) <= 0 {
		ws = nil
	}
	return model.Vec3{
		X: stat.Mean(xs, ws),
		Y: stat.Mean(ys, ws),
		Z: stat.Mean(zs, ws),
	}
}

// AxleLoads splits the cargo weight across the container axles.
func AxleLoads(placed []model.PlacedItem, c model.Container, policy model.AxlePolicy) []model.AxleLoad {
	if len(c.Axles) == 0 {
		return []model.AxleLoad{}
	}

	// Indices of axles from front to back.
	order := make([]int, len(c.Axles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return c.Axles[order[i]].Position < c.Axles[order[j]].Position
	})

	loads := make([]float64, len(c.Axles))
	switch policy {
	case model.AxlePolicyPositionWeighted:
		for _, p := range placed {
			distributeByPosition(loads, order, c.Axles, p.Box().Center().X, p.Weight)
		}
	default:
		total := totalWeight(placed)
		for rank, idx := range order {
			loads[idx] = total * fixedShare(rank, len(order))
		}
	}

	out := make([]model.AxleLoad, len(c.Axles))
	for i, a := range c.Axles {
		out[i] = model.AxleLoad{Name: a.Name, Load: loads[i], Limit: a.Capacity}
		if a.Capacity > 0 {
			out[i].Percent = loads[i] / a.Capacity * 100
		}
	}
	return out
}

// fixedShare returns the cargo share of the axle at the given front-to-back
// rank: 40% front, the remainder shared evenly by the axles behind it.
func fixedShare(rank, n int) float64 {
	if n == 1 {
		return 1
	}
	if rank == 0 {
		return frontShare
	}
	return (1 - frontShare) / float64(n-1)
}

// distributeByPosition applies the lever rule between the two axles that
// bracket x. Weight ahead of the first or behind the last axle goes to that
// axle entirely.
func distributeByPosition(loads []float64, order []int, axles []model.Axle, x, w float64) {
	first, last := order[0], order[len(order)-1]
	if x <= axles[first].Position {
		loads[first] += w
		return
	}
	if x >= axles[last].Position {
		loads[last] += w
		return
	}
	for k := 0; k < len(order)-1; k++ {
		a, b := order[k], order[k+1]
		pa, pb := axles[a].Position, axles[b].Position
		if x < pa || x > pb {
			continue
		}
		if pb == pa {
			loads[a] += w / 2
			loads[b] += w / 2
			return
		}
		rear := w * (x - pa) / (pb - pa)
		loads[b] += rear
		loads[a] += w - rear
		return
	}
}

// LoadLength returns the furthest occupied point along the container length.
func LoadLength(placed []model.PlacedItem) float64 {
	var furthest float64
	for _, p := range placed {
		furthest = max(furthest, p.X+p.Length)
	}
	return furthest
}

// StabilityScore rates a layout from 0 to 100: half for a low mean center
// height, half for the share of weight in the lower third of the container.
func StabilityScore(placed []model.PlacedItem, containerHeight float64) float64 {
	if len(placed) == 0 || containerHeight <= 0 {
		return 0
	}
	heights := make([]float64, len(placed))
	var total, low float64
	for i, p := range placed {
		heights[i] = p.Z + p.Height/2
		total += p.Weight
		if p.Z < containerHeight/3 {
			low += p.Weight
		}
	}
	heightScore := (1 - stat.Mean(heights, nil)/containerHeight) * 50
	weightScore := 0.0
	if total > 0 {
		weightScore = low / total * 50
	}
	return heightScore + weightScore
}
