package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidOrientation is returned for orientation tags outside the supported set.
var ErrInvalidOrientation = errors.New("unsupported orientation")

// Orientation is a rotation of a cargo item about the vertical axis.
type Orientation string

const (
	OrientationNormal Orientation = "NORMAL"
	Orientation90     Orientation = "ROTATED_90"
	Orientation180    Orientation = "ROTATED_180"
	Orientation270    Orientation = "ROTATED_270"
)

// Orientations returns the orientations to try, in the fixed order used by
// every placement search. Without rotation only NORMAL is allowed.
func Orientations(allowRotation bool) []Orientation {
	if !allowRotation {
		return []Orientation{OrientationNormal}
	}
	return []Orientation{OrientationNormal, Orientation90, Orientation180, Orientation270}
}

// Valid reports whether o is one of the supported orientation tags.
func (o Orientation) Valid() bool {
	switch o {
	case OrientationNormal, Orientation90, Orientation180, Orientation270:
		return true
	}
	return false
}

// Axle is a load-bearing axle (or axle group) of the carrying vehicle.
type Axle struct {
	Name     string  `json:"name"`
	Position float64 `json:"position"` // distance from the front wall along the length
	Capacity float64 `json:"capacity"`
}

// Container is the rectangular load space of one trailer or container.
// All dimensions share one length unit, weights share one weight unit.
type Container struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	MaxWeight  float64 `json:"maxWeight"`  // maximum cargo weight
	TareWeight float64 `json:"tareWeight"` // empty vehicle weight
	Axles      []Axle  `json:"axles,omitempty"`
}

// Volume returns the interior volume of the container.
func (c Container) Volume() float64 {
	return c.Length * c.Width * c.Height
}

// CargoItem is one line of the shipment. Quantity expands into identical pieces.
type CargoItem struct {
	ID           string  `json:"id"`
	SKU          string  `json:"sku"`
	Description  string  `json:"description,omitempty"`
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"` // per piece
	Quantity     int     `json:"quantity"`
	StopSequence int     `json:"stopSequence"`
	Stackable    bool    `json:"stackable"` // other pieces may rest on top
	Fragile      bool    `json:"fragile"`
	Hazardous    bool    `json:"hazardous"`
	Rotatable    bool    `json:"rotatable"`
}

func NewCargoItem(sku string, l, w, h, weight float64, qty int) CargoItem {
	return CargoItem{
		ID:           uuid.New().String()[:8],
		SKU:          sku,
		Length:       l,
		Width:        w,
		Height:       h,
		Weight:       weight,
		Quantity:     qty,
		StopSequence: 1,
		Stackable:    true,
		Rotatable:    true,
	}
}

// UnmarshalJSON applies the same defaults as NewCargoItem to absent fields.
func (c *CargoItem) UnmarshalJSON(data []byte) error {
	type plain CargoItem
	p := plain{Quantity: 1, StopSequence: 1, Stackable: true, Rotatable: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CargoItem(p)
	return nil
}

// Volume returns the volume of a single piece.
func (c CargoItem) Volume() float64 {
	return c.Length * c.Width * c.Height
}

// DimensionsFor returns the length, width and height of an item placed in
// the given orientation. Quarter turns swap length and width; height never
// changes.
func DimensionsFor(item CargoItem, o Orientation) (l, w, h float64, err error) {
	switch o {
	case OrientationNormal, Orientation180:
		return item.Length, item.Width, item.Height, nil
	case Orientation90, Orientation270:
		return item.Width, item.Length, item.Height, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidOrientation, string(o))
	}
}

// Vec3 is a point in container coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned box. X runs along the container length, Y across
// the width and Z is the vertical stacking axis.
type Box struct {
	X, Y, Z float64
	L, W, H float64
}

// Center returns the geometric center of the box.
func (b Box) Center() Vec3 {
	return Vec3{X: b.X + b.L/2, Y: b.Y + b.W/2, Z: b.Z + b.H/2}
}

// Top returns the z coordinate of the upper face.
func (b Box) Top() float64 { return b.Z + b.H }

// Piece is a single physical unit expanded from a CargoItem.
type Piece struct {
	ID   string
	Item CargoItem
}

// ExpandPieces expands items by quantity into individual pieces, keeping
// input order. Piece IDs are "<item id>-<n>" with n starting at 1.
func ExpandPieces(items []CargoItem) []Piece {
	var pieces []Piece
	for _, it := range items {
		for n := 1; n <= it.Quantity; n++ {
			cp := it
			cp.Quantity = 1
			pieces = append(pieces, Piece{ID: fmt.Sprintf("%s-%d", it.ID, n), Item: cp})
		}
	}
	return pieces
}

// PlacedItem is a piece at its final position. Length, Width and Height are
// the footprint after rotation.
type PlacedItem struct {
	PieceID      string      `json:"pieceId"`
	ItemID       string      `json:"itemId"`
	SKU          string      `json:"sku"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Z            float64     `json:"z"`
	Orientation  Orientation `json:"orientation"`
	Layer        int         `json:"layer"`
	Length       float64     `json:"length"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	Weight       float64     `json:"weight"`
	StopSequence int         `json:"stopSequence"`
	Stackable    bool        `json:"stackable"`
	Fragile      bool        `json:"fragile"`
	Hazardous    bool        `json:"hazardous"`
}

// Box returns the occupied region of the placed item.
func (p PlacedItem) Box() Box {
	return Box{X: p.X, Y: p.Y, Z: p.Z, L: p.Length, W: p.Width, H: p.Height}
}

func (p PlacedItem) Volume() float64 { return p.Length * p.Width * p.Height }

func (p PlacedItem) Top() float64 { return p.Z + p.Height }

// Algorithm selects the placement strategy.
type Algorithm string

const (
	AlgorithmGreedy  Algorithm = "greedy"  // Deterministic first-fit (fast, reproducible)
	AlgorithmGenetic Algorithm = "genetic" // Evolutionary search (slower, usually denser)
)

// Valid reports whether a names a known strategy.
func (a Algorithm) Valid() bool {
	return a == AlgorithmGreedy || a == AlgorithmGenetic
}

// AxlePolicy selects how the validator splits cargo weight across axles.
type AxlePolicy string

const (
	AxlePolicyFixedSplit       AxlePolicy = "fixed-split"
	AxlePolicyPositionWeighted AxlePolicy = "position-weighted"
)

func (p AxlePolicy) Valid() bool {
	return p == AxlePolicyFixedSplit || p == AxlePolicyPositionWeighted
}

// Settings holds engine configuration for one run.
type Settings struct {
	Algorithm  Algorithm  `json:"algorithm"`
	GridStep   float64    `json:"grid_step"` // position search step, 0 = default
	AxlePolicy AxlePolicy `json:"axle_policy"`

	// Genetic overrides; zero values keep the size-adapted defaults.
	Seed           int64   `json:"seed"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`
	EliteFraction  float64 `json:"elite_fraction"`
	YieldEvery     int     `json:"yield_every"`

	// Fitness weights. Setting either one replaces both defaults, so a
	// weight of 0 can switch a term off.
	VolumeWeight    float64 `json:"volume_weight"`
	StabilityWeight float64 `json:"stability_weight"`
}

const DefaultGridStep = 10.0

// DefaultSettings returns settings for the deterministic planner.
func DefaultSettings() Settings {
	return Settings{
		Algorithm:  AlgorithmGreedy,
		GridStep:   DefaultGridStep,
		AxlePolicy: AxlePolicyFixedSplit,
		Seed:       42,
	}
}
