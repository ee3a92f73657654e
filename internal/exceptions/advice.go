package exceptions

import "github.com/piwi3910/CargoFit/internal/model"

// Suggestions returns the distinct exception suggestions in first-seen
// order, followed by advice for combinations of exception types.
func Suggestions(exceptions []Exception) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, e := range exceptions {
		add(e.Suggestion)
	}

	has := typesOf(exceptions)
	if has[TypeOverload] && has[TypeUnplaced] {
		add("Consider splitting the load across multiple trailers")
	}
	if has[TypeStability] && has[TypeOverload] {
		add("Try a different algorithm that considers weight distribution")
	}
	if len(exceptions) == 0 {
		add("Load optimization looks good! Consider running with different constraints for comparison")
	}
	return out
}

// Alternative is a suggested replacement for the current equipment.
type Alternative struct {
	Type        string  `json:"type"` // equipment name, e.g. "53' Reefer"
	EquipmentID string  `json:"equipmentId"`
	Reason      string  `json:"reason"`
	Capacity    float64 `json:"capacity"` // max gross weight
}

var classReasons = map[model.EquipmentClass]string{
	model.ClassReefer:    "Higher weight capacity and better insulation",
	model.ClassFlatbed:   "No height restrictions, better for oversized items",
	model.ClassContainer: "Smaller size for better utilization",
	model.ClassBoxTruck:  "Perfect for smaller loads",
}

// AlternativeEquipment suggests other equipment from the library. Overloads
// and unplaced cargo point to reefer and flatbed units; low utilization
// points to smaller containers and box trucks.
func AlternativeEquipment(current model.Container, exceptions []Exception, library []model.Equipment) []Alternative {
	has := typesOf(exceptions)
	out := []Alternative{}
	pick := func(classes map[model.EquipmentClass]bool, smallerOnly bool) {
		for _, eq := range library {
			if !classes[eq.Class] || eq.ID == current.ID {
				continue
			}
			if smallerOnly && eq.Volume() >= current.Volume() {
				continue
			}
			out = append(out, Alternative{
				Type:        eq.Name,
				EquipmentID: eq.ID,
				Reason:      classReasons[eq.Class],
				Capacity:    eq.MaxGrossWeight,
			})
		}
	}

	if has[TypeOverload] || has[TypeUnplaced] {
		pick(map[model.EquipmentClass]bool{model.ClassReefer: true, model.ClassFlatbed: true}, false)
	}
	if has[TypeEfficiency] {
		pick(map[model.EquipmentClass]bool{model.ClassContainer: true, model.ClassBoxTruck: true}, true)
	}
	return out
}

// AutoFix groups auto-fixable exceptions under one remediation action.
type AutoFix struct {
	Action       string   `json:"action"`
	Description  string   `json:"description"`
	ExceptionIDs []string `json:"exceptionIds"`
}

var fixActions = []struct {
	typ         Type
	action      string
	description string
}{
	{TypeUnplaced, "retry-optimization", "Retry with different algorithm"},
	{TypeStability, "rebalance-load", "Automatically rebalance center of gravity"},
}

// AutoFixGroups returns one group per remediation action that has at least
// one auto-fixable exception.
func AutoFixGroups(exceptions []Exception) []AutoFix {
	out := []AutoFix{}
	for _, fa := range fixActions {
		var ids []string
		for _, e := range exceptions {
			if e.AutoFixable && e.Type == fa.typ {
				ids = append(ids, e.ID)
			}
		}
		if len(ids) > 0 {
			out = append(out, AutoFix{Action: fa.action, Description: fa.description, ExceptionIDs: ids})
		}
	}
	return out
}

func typesOf(exceptions []Exception) map[Type]bool {
	has := make(map[Type]bool)
	for _, e := range exceptions {
		has[e.Type] = true
	}
	return has
}
