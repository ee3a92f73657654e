package engine

import (
	"sort"

	"github.com/piwi3910/CargoFit/internal/model"
)

// searchOrder selects how the placer walks candidate positions.
type searchOrder int

const (
	// searchGroundThenStack tries every floor position, then stacks on top
	// of the highest placed items, one orientation at a time.
	searchGroundThenStack searchOrder = iota
	// searchBottomUp walks the floor and then every top face from the lowest
	// upwards, taking the first position that fits.
	searchBottomUp
)

// position is a candidate corner plus the layer it would occupy.
type position struct {
	x, y, z float64
	layer   int
}

// placer is the first-fit primitive shared by every strategy. It owns the
// growing layout of a single run and is not safe for concurrent use.
type placer struct {
	container   model.Container
	constraints model.Constraints
	step        float64
	placed      []model.PlacedItem
	weight      float64
}

func newPlacer(c model.Container, k model.Constraints, step float64) *placer {
	if step <= 0 {
		step = model.DefaultGridStep
	}
	return &placer{container: c, constraints: k, step: step}
}

// canCarry reports whether adding w keeps the cargo within the weight limit.
func (p *placer) canCarry(w float64) bool {
	return p.weight+w <= p.container.MaxWeight+eps
}

// add records an already positioned item.
func (p *placer) add(item model.PlacedItem) {
	p.placed = append(p.placed, item)
	p.weight += item.Weight
}

// fits checks bounds, collisions and stacking rules for a box and returns
// the layer it would sit on.
func (p *placer) fits(b model.Box) (int, bool) {
	if !InBounds(b, p.container) || Collides(b, p.placed) {
		return 0, false
	}
	if b.Z <= eps {
		return 0, true
	}
	if p.constraints.MaxStackHeight > 0 && b.Top() > p.constraints.MaxStackHeight+eps {
		return 0, false
	}

	below := supporters(b, p.placed)
	if len(below) == 0 {
		return 0, false
	}
	layer := 0
	for _, s := range below {
		if !s.Stackable || (p.constraints.FragileOnTop && s.Fragile) {
			return 0, false
		}
		layer = max(layer, s.Layer+1)
	}
	if p.constraints.MinSupportRatio > 0 && SupportRatio(b, p.placed) < p.constraints.MinSupportRatio-eps {
		return 0, false
	}
	return layer, true
}

// place finds the first position for the piece in the given search order,
// records it and returns the placed item. Orientations are tried in order;
// within one orientation every phase of the search order is exhausted
// before the next orientation is considered.
func (p *placer) place(piece model.Piece, order searchOrder) (model.PlacedItem, bool) {
	var phases []func(l, w, h float64) (position, bool)
	switch order {
	case searchBottomUp:
		phases = append(phases, p.scanLevels)
	default:
		phases = append(phases, p.scanGround, p.stackOnTop)
	}

	for _, o := range model.Orientations(p.constraints.AllowRotation && piece.Item.Rotatable) {
		l, w, h, err := model.DimensionsFor(piece.Item, o)
		if err != nil {
			continue
		}
		for _, phase := range phases {
			if pos, ok := phase(l, w, h); ok {
				item := newPlacedItem(piece, o, pos, l, w, h)
				p.add(item)
				return item, true
			}
		}
	}
	return model.PlacedItem{}, false
}

// scanGround walks floor positions x-major, then y.
func (p *placer) scanGround(l, w, h float64) (position, bool) {
	return p.scanLevel(0, l, w, h)
}

// scanLevels walks the floor and then each distinct top face, lowest first.
func (p *placer) scanLevels(l, w, h float64) (position, bool) {
	for _, z := range p.levels() {
		if z+h > p.container.Height+eps {
			break
		}
		if pos, ok := p.scanLevel(z, l, w, h); ok {
			return pos, true
		}
	}
	return position{}, false
}

func (p *placer) scanLevel(z, l, w, h float64) (position, bool) {
	xs := p.candidates(p.container.Length-l, func(it model.PlacedItem) float64 { return it.X + it.Length })
	ys := p.candidates(p.container.Width-w, func(it model.PlacedItem) float64 { return it.Y + it.Width })
	for _, x := range xs {
		for _, y := range ys {
			b := model.Box{X: x, Y: y, Z: z, L: l, W: w, H: h}
			if layer, ok := p.fits(b); ok {
				return position{x: x, y: y, z: z, layer: layer}, true
			}
		}
	}
	return position{}, false
}

// stackOnTop tries to rest the box directly on an item whose top is the
// current maximum occupied height, in placement order.
func (p *placer) stackOnTop(l, w, h float64) (position, bool) {
	if len(p.placed) == 0 {
		return position{}, false
	}
	maxTop := 0.0
	for _, it := range p.placed {
		maxTop = max(maxTop, it.Top())
	}
	if p.constraints.MaxStackHeight > 0 && maxTop+h > p.constraints.MaxStackHeight+eps {
		return position{}, false
	}
	for _, it := range p.placed {
		if it.Top() < maxTop-eps {
			continue
		}
		b := model.Box{X: it.X, Y: it.Y, Z: maxTop, L: l, W: w, H: h}
		if layer, ok := p.fits(b); ok {
			return position{x: b.X, y: b.Y, z: b.Z, layer: layer}, true
		}
	}
	return position{}, false
}

// candidates returns grid coordinates plus the far edges of placed items,
// ascending and limited to limit.
func (p *placer) candidates(limit float64, edge func(model.PlacedItem) float64) []float64 {
	if limit < -eps {
		return nil
	}
	seen := make(map[float64]bool)
	var out []float64
	push := func(v float64) {
		if v > limit+eps || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for i := 0; ; i++ {
		v := float64(i) * p.step
		if v > limit+eps {
			break
		}
		push(v)
	}
	for _, it := range p.placed {
		push(edge(it))
	}
	sort.Float64s(out)
	return out
}

// levels returns 0 and every distinct top face of placed items, ascending.
func (p *placer) levels() []float64 {
	seen := map[float64]bool{0: true}
	out := []float64{0}
	for _, it := range p.placed {
		top := it.Top()
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	sort.Float64s(out)
	return out
}

func newPlacedItem(piece model.Piece, o model.Orientation, pos position, l, w, h float64) model.PlacedItem {
	it := piece.Item
	sku := it.SKU
	if sku == "" {
		sku = it.ID
	}
	return model.PlacedItem{
		PieceID:      piece.ID,
		ItemID:       it.ID,
		SKU:          sku,
		X:            pos.x,
		Y:            pos.y,
		Z:            pos.z,
		Orientation:  o,
		Layer:        pos.layer,
		Length:       l,
		Width:        w,
		Height:       h,
		Weight:       it.Weight,
		StopSequence: it.StopSequence,
		Stackable:    it.Stackable,
		Fragile:      it.Fragile,
		Hazardous:    it.Hazardous,
	}
}
