package model

import "sort"

// EquipmentClass groups presets for alternative-equipment suggestions.
type EquipmentClass string

const (
	ClassDryVan    EquipmentClass = "dry-van"
	ClassReefer    EquipmentClass = "reefer"
	ClassFlatbed   EquipmentClass = "flatbed"
	ClassStepDeck  EquipmentClass = "step-deck"
	ClassContainer EquipmentClass = "container"
	ClassBoxTruck  EquipmentClass = "box-truck"
)

// Equipment is a named trailer or container type. Dimensions are inches,
// weights are pounds.
type Equipment struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Class          EquipmentClass `json:"class"`
	Length         float64        `json:"length"`
	Width          float64        `json:"width"`
	Height         float64        `json:"height"`
	TareWeight     float64        `json:"tareWeight"`
	MaxGrossWeight float64        `json:"maxGrossWeight"`
	Axles          []Axle         `json:"axles"`
	IsBuiltIn      bool           `json:"-"`
}

// Payload is the cargo weight the equipment may carry.
func (e Equipment) Payload() float64 {
	return e.MaxGrossWeight - e.TareWeight
}

func (e Equipment) Volume() float64 {
	return e.Length * e.Width * e.Height
}

// Container returns the load space of the equipment.
func (e Equipment) Container() Container {
	axles := make([]Axle, len(e.Axles))
	copy(axles, e.Axles)
	return Container{
		ID:         e.ID,
		Label:      e.Name,
		Length:     e.Length,
		Width:      e.Width,
		Height:     e.Height,
		MaxWeight:  e.Payload(),
		TareWeight: e.TareWeight,
		Axles:      axles,
	}
}

func tandem(length, front, rear float64) []Axle {
	return []Axle{
		{Name: "kingpin", Position: 36, Capacity: front},
		{Name: "tandem", Position: length - 60, Capacity: rear},
	}
}

// BuiltInEquipment returns the standard equipment library.
func BuiltInEquipment() []Equipment {
	return []Equipment{
		{ID: "dry-van-53", Name: "53' Dry Van", Class: ClassDryVan, Length: 636, Width: 102, Height: 110,
			TareWeight: 14000, MaxGrossWeight: 80000, Axles: tandem(636, 34000, 34000), IsBuiltIn: true},
		{ID: "reefer-53", Name: "53' Reefer", Class: ClassReefer, Length: 630, Width: 100, Height: 108,
			TareWeight: 16000, MaxGrossWeight: 80000, Axles: tandem(630, 34000, 34000), IsBuiltIn: true},
		{ID: "flatbed-48", Name: "48' Flatbed", Class: ClassFlatbed, Length: 576, Width: 102, Height: 108,
			TareWeight: 12000, MaxGrossWeight: 80000, Axles: tandem(576, 34000, 34000), IsBuiltIn: true},
		{ID: "step-deck-48", Name: "48' Step Deck", Class: ClassStepDeck, Length: 576, Width: 102, Height: 132,
			TareWeight: 15000, MaxGrossWeight: 80000, Axles: []Axle{
				{Name: "kingpin", Position: 36, Capacity: 34000},
				{Name: "tridem", Position: 516, Capacity: 42000},
			}, IsBuiltIn: true},
		{ID: "container-40", Name: "40' Intermodal", Class: ClassContainer, Length: 480, Width: 94, Height: 110,
			TareWeight: 8600, MaxGrossWeight: 67200, Axles: tandem(480, 34000, 34000), IsBuiltIn: true},
		{ID: "container-20", Name: "20' Intermodal", Class: ClassContainer, Length: 240, Width: 94, Height: 110,
			TareWeight: 5070, MaxGrossWeight: 67200, Axles: tandem(240, 34000, 34000), IsBuiltIn: true},
		{ID: "box-truck-26", Name: "26' Box Truck", Class: ClassBoxTruck, Length: 312, Width: 96, Height: 102,
			TareWeight: 12000, MaxGrossWeight: 26000, Axles: []Axle{
				{Name: "steer", Position: 0, Capacity: 10000},
				{Name: "drive", Position: 240, Capacity: 19000},
			}, IsBuiltIn: true},
	}
}

// FindEquipment looks up a preset by ID in the given library.
func FindEquipment(library []Equipment, id string) (Equipment, bool) {
	for _, e := range library {
		if e.ID == id {
			return e, true
		}
	}
	return Equipment{}, false
}

// MergeEquipment appends custom equipment to the library. Custom entries
// replace built-ins with the same ID.
func MergeEquipment(library, custom []Equipment) []Equipment {
	byID := make(map[string]int, len(library))
	out := make([]Equipment, 0, len(library)+len(custom))
	for _, e := range library {
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	for _, e := range custom {
		e.IsBuiltIn = false
		if i, ok := byID[e.ID]; ok {
			out[i] = e
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// SortByPayload orders equipment by payload descending, then by ID.
func SortByPayload(list []Equipment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Payload() != list[j].Payload() {
			return list[i].Payload() > list[j].Payload()
		}
		return list[i].ID < list[j].ID
	})
}
