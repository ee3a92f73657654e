package engine

import (
	"fmt"

	"github.com/piwi3910/CargoFit/internal/model"
)

// eps absorbs floating point noise in coordinate comparisons.
const eps = 1e-6

// Overlaps reports whether two boxes share interior volume. Boxes that only
// touch along a face, edge or corner do not overlap.
func Overlaps(a, b model.Box) bool {
	return a.X < b.X+b.L-eps && b.X < a.X+a.L-eps &&
		a.Y < b.Y+b.W-eps && b.Y < a.Y+a.W-eps &&
		a.Z < b.Z+b.H-eps && b.Z < a.Z+a.H-eps
}

// Collides reports whether the box overlaps any placed item.
func Collides(box model.Box, placed []model.PlacedItem) bool {
	for _, p := range placed {
		if Overlaps(box, p.Box()) {
			return true
		}
	}
	return false
}

// InBounds reports whether the box lies fully inside the container.
func InBounds(b model.Box, c model.Container) bool {
	return b.X >= -eps && b.Y >= -eps && b.Z >= -eps &&
		b.X+b.L <= c.Length+eps &&
		b.Y+b.W <= c.Width+eps &&
		b.Z+b.H <= c.Height+eps
}

// footprintOverlap returns the shared floor area of two boxes.
func footprintOverlap(a, b model.Box) float64 {
	dx := min(a.X+a.L, b.X+b.L) - max(a.X, b.X)
	dy := min(a.Y+a.W, b.Y+b.W) - max(a.Y, b.Y)
	if dx <= eps || dy <= eps {
		return 0
	}
	return dx * dy
}

// supporters returns the placed items whose top face carries the box.
func supporters(b model.Box, placed []model.PlacedItem) []model.PlacedItem {
	var out []model.PlacedItem
	for _, p := range placed {
		top := p.Top()
		if top < b.Z-eps || top > b.Z+eps {
			continue
		}
		if footprintOverlap(b, p.Box()) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// SupportRatio returns the share of the box footprint resting on the tops of
// placed items. A box on the floor is fully supported.
func SupportRatio(b model.Box, placed []model.PlacedItem) float64 {
	if b.Z <= eps {
		return 1
	}
	area := b.L * b.W
	if area <= 0 {
		return 0
	}
	var supported float64
	for _, s := range supporters(b, placed) {
		supported += footprintOverlap(b, s.Box())
	}
	return min(supported/area, 1)
}

// VerifyLayout checks that every placed item is inside the container and
// that no two items overlap.
func VerifyLayout(placed []model.PlacedItem, c model.Container) error {
	for i, p := range placed {
		if !InBounds(p.Box(), c) {
			return fmt.Errorf("piece %s at (%.1f, %.1f, %.1f) exceeds container bounds", p.PieceID, p.X, p.Y, p.Z)
		}
		for _, q := range placed[i+1:] {
			if Overlaps(p.Box(), q.Box()) {
				return fmt.Errorf("pieces %s and %s overlap", p.PieceID, q.PieceID)
			}
		}
	}
	return nil
}
