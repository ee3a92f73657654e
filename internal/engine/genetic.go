package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/piwi3910/CargoFit/internal/model"
	"github.com/piwi3910/CargoFit/internal/validator"
)

// GeneticConfig holds parameters for the genetic algorithm optimizer.
type GeneticConfig struct {
	PopulationSize   int
	Generations      int
	MutationRate     float64
	TournamentSize   int
	EliteFraction    float64
	VolumeWeight     float64 // fitness weight of volume utilization
	StabilityWeight  float64 // fitness weight of the stability score
	YieldEvery       int     // generations between scheduler yields
	MutationAttempts int     // random positions tried per mutation
	GridStep         float64
	Seed             int64
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize:   30,
		Generations:      50,
		MutationRate:     0.15,
		TournamentSize:   3,
		EliteFraction:    0.1,
		VolumeWeight:     0.6,
		StabilityWeight:  0.4,
		YieldEvery:       5,
		MutationAttempts: 8,
		GridStep:         model.DefaultGridStep,
		Seed:             42,
	}
}

// ScaleForPieces shrinks the search for large loads so run time stays
// bounded: fewer candidates, fewer generations and a coarser grid.
func (c GeneticConfig) ScaleForPieces(n int) GeneticConfig {
	switch {
	case n > 400:
		c.PopulationSize, c.Generations, c.GridStep = 12, 18, 36
	case n > 200:
		c.PopulationSize, c.Generations, c.GridStep = 18, 28, 24
	case n > 120:
		c.PopulationSize, c.Generations, c.GridStep = 24, 36, 18
	}
	return c
}

// configFromSettings derives the run configuration: defaults scaled to the
// load size, then explicit overrides from the settings.
func configFromSettings(s model.Settings, pieces int) GeneticConfig {
	cfg := DefaultGeneticConfig()
	if s.GridStep > 0 {
		cfg.GridStep = s.GridStep
	}
	cfg = cfg.ScaleForPieces(pieces)
	if s.PopulationSize > 0 {
		cfg.PopulationSize = s.PopulationSize
	}
	if s.Generations > 0 {
		cfg.Generations = s.Generations
	}
	if s.MutationRate > 0 {
		cfg.MutationRate = s.MutationRate
	}
	if s.TournamentSize > 0 {
		cfg.TournamentSize = s.TournamentSize
	}
	if s.EliteFraction > 0 {
		cfg.EliteFraction = s.EliteFraction
	}
	if s.YieldEvery > 0 {
		cfg.YieldEvery = s.YieldEvery
	}
	if s.VolumeWeight > 0 || s.StabilityWeight > 0 {
		cfg.VolumeWeight = s.VolumeWeight
		cfg.StabilityWeight = s.StabilityWeight
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg
}

// candidate is one complete layout in the population.
type candidate struct {
	placed  []model.PlacedItem
	fitness float64
}

// geneticOptimizer implements the genetic algorithm for load placement.
type geneticOptimizer struct {
	config   GeneticConfig
	req      model.Request
	pieces   []model.Piece
	rng      *rand.Rand
	progress ProgressFunc

	history []float64 // best fitness after each generation
}

// newGeneticOptimizer creates a new genetic optimizer instance.
func newGeneticOptimizer(config GeneticConfig, req model.Request, progress ProgressFunc) *geneticOptimizer {
	return &geneticOptimizer{
		config:   config,
		req:      req,
		pieces:   model.ExpandPieces(req.Items),
		rng:      rand.New(rand.NewSource(config.Seed)),
		progress: progress,
	}
}

// OptimizeGenetic runs the genetic optimizer on a validated request. A
// cancelled context stops the search at the next generation and returns the
// best layout found so far.
func OptimizeGenetic(ctx context.Context, settings model.Settings, req model.Request, progress ProgressFunc) (model.PlacementResult, error) {
	if err := req.Validate(); err != nil {
		return model.PlacementResult{}, fmt.Errorf("optimize load: %w", err)
	}
	cfg := configFromSettings(settings, req.TotalPieces())
	g := newGeneticOptimizer(cfg, req, progress)
	best, gens, cancelled := g.optimize(ctx)
	return g.result(best, gens, cancelled), nil
}

// optimize runs the evolution loop and returns the best candidate seen in
// any generation.
func (g *geneticOptimizer) optimize(ctx context.Context) (candidate, int, bool) {
	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}
	best := g.copyCandidate(fittest(population))

	gen := 0
	for ; gen < g.config.Generations; gen++ {
		if ctx.Err() != nil {
			return best, gen, true
		}

		sortByFitness(population)

		newPop := make([]candidate, 0, g.config.PopulationSize)
		for i := 0; i < g.eliteCount(len(population)); i++ {
			newPop = append(newPop, g.copyCandidate(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.crossover(parent1, parent2)
			g.repair(&child)
			g.mutate(&child)

			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}
		population = newPop

		if top := fittest(population); top.fitness > best.fitness {
			best = g.copyCandidate(top)
		}
		g.history = append(g.history, best.fitness)

		if g.progress != nil {
			g.progress(float64(gen+1) / float64(g.config.Generations) * 100)
		}
		if g.config.YieldEvery > 0 && (gen+1)%g.config.YieldEvery == 0 {
			runtime.Gosched()
		}
	}
	return best, gen, false
}

func (g *geneticOptimizer) eliteCount(popSize int) int {
	n := int(math.Ceil(g.config.EliteFraction*float64(g.config.PopulationSize) - eps))
	return min(max(n, 1), popSize)
}

// initPopulation seeds one candidate from the largest-volume-first order
// and fills the rest with random orders.
func (g *geneticOptimizer) initPopulation() []candidate {
	size := max(g.config.PopulationSize, 1)
	population := make([]candidate, size)
	population[0] = g.decode(g.greedyOrder())
	for i := 1; i < size; i++ {
		population[i] = g.decode(g.rng.Perm(len(g.pieces)))
	}
	return population
}

func (g *geneticOptimizer) greedyOrder() []int {
	order := make([]int, len(g.pieces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.pieces[order[i]].Item.Volume() > g.pieces[order[j]].Item.Volume()
	})
	return order
}

// decode places pieces in the given order with the bottom-up first fit.
func (g *geneticOptimizer) decode(order []int) candidate {
	p := g.newPlacer()
	for _, idx := range order {
		piece := g.pieces[idx]
		if !p.canCarry(piece.Item.Weight) {
			continue
		}
		p.place(piece, searchBottomUp)
	}
	return candidate{placed: p.placed}
}

func (g *geneticOptimizer) newPlacer() *placer {
	return newPlacer(g.req.Container, g.req.Constraints, g.config.GridStep)
}

// evaluate scores a layout by volume utilization and stability.
func (g *geneticOptimizer) evaluate(c candidate) float64 {
	var volume float64
	for _, p := range c.placed {
		volume += p.Volume()
	}
	util := 0.0
	if v := g.req.Container.Volume(); v > 0 {
		util = volume / v * 100
	}
	stability := validator.StabilityScore(c.placed, g.req.Container.Height)
	return g.config.VolumeWeight*util + g.config.StabilityWeight*stability
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []candidate) candidate {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		c := population[g.rng.Intn(len(population))]
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

// crossover joins the first half of parent1's placements with the second
// half of parent2's. The child usually needs repair.
func (g *geneticOptimizer) crossover(parent1, parent2 candidate) candidate {
	a := parent1.placed[:len(parent1.placed)/2]
	b := parent2.placed[len(parent2.placed)/2:]
	child := make([]model.PlacedItem, 0, len(a)+len(b))
	child = append(child, a...)
	child = append(child, b...)
	return candidate{placed: child}
}

// repair turns an arbitrary set of placements into a valid layout. Items
// are replayed bottom-up; duplicates and items that collide, float, leave
// the container or break the weight limit are dropped. Pieces missing
// afterwards are re-inserted with the first-fit search.
func (g *geneticOptimizer) repair(c *candidate) {
	items := make([]model.PlacedItem, len(c.placed))
	copy(items, c.placed)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Z < items[j].Z })

	p := g.newPlacer()
	kept := make(map[string]bool, len(items))
	for _, it := range items {
		if kept[it.PieceID] || !p.canCarry(it.Weight) {
			continue
		}
		layer, ok := p.fits(it.Box())
		if !ok {
			continue
		}
		it.Layer = layer
		p.add(it)
		kept[it.PieceID] = true
	}

	for _, piece := range g.pieces {
		if kept[piece.ID] || !p.canCarry(piece.Item.Weight) {
			continue
		}
		p.place(piece, searchBottomUp)
	}
	c.placed = p.placed
}

// mutate moves one uncovered item to a random x position. The move is kept
// only if the item still fits there.
func (g *geneticOptimizer) mutate(c *candidate) {
	if len(c.placed) == 0 || g.rng.Float64() >= g.config.MutationRate {
		return
	}
	i := g.rng.Intn(len(c.placed))
	target := c.placed[i]
	if covered(target, c.placed) {
		return
	}

	p := g.newPlacer()
	for j, it := range c.placed {
		if j != i {
			p.add(it)
		}
	}

	span := g.req.Container.Length - target.Length
	for attempt := 0; attempt < g.config.MutationAttempts; attempt++ {
		b := target.Box()
		b.X = g.rng.Float64() * span
		if layer, ok := p.fits(b); ok {
			c.placed[i].X = b.X
			c.placed[i].Layer = layer
			return
		}
	}
}

// covered reports whether another item rests on top of it.
func covered(it model.PlacedItem, placed []model.PlacedItem) bool {
	for _, other := range placed {
		if other.PieceID == it.PieceID {
			continue
		}
		if math.Abs(other.Z-it.Top()) <= eps && footprintOverlap(other.Box(), it.Box()) > 0 {
			return true
		}
	}
	return false
}

func (g *geneticOptimizer) copyCandidate(c candidate) candidate {
	placed := make([]model.PlacedItem, len(c.placed))
	copy(placed, c.placed)
	return candidate{placed: placed, fitness: c.fitness}
}

// result converts the best candidate into a placement result. Missing
// pieces are reported as weight or space violations in piece order.
func (g *geneticOptimizer) result(best candidate, generations int, cancelled bool) model.PlacementResult {
	placedIDs := make(map[string]bool, len(best.placed))
	var weight float64
	for _, p := range best.placed {
		placedIDs[p.PieceID] = true
		weight += p.Weight
	}

	var unplaced []string
	var violations []model.Violation
	for _, piece := range g.pieces {
		if placedIDs[piece.ID] {
			continue
		}
		unplaced = append(unplaced, piece.ID)
		if weight+piece.Item.Weight > g.req.Container.MaxWeight+eps {
			violations = append(violations, weightViolation(piece))
		} else {
			violations = append(violations, spaceViolation(piece))
		}
	}

	r := buildResult(model.AlgorithmGenetic, g.req, best.placed, unplaced, violations)
	r.Fitness = best.fitness
	r.Generations = generations
	r.Cancelled = cancelled
	return r
}

func sortByFitness(population []candidate) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

func fittest(population []candidate) candidate {
	best := population[0]
	for _, c := range population[1:] {
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}
