package exceptions

import (
	"fmt"
	"math"
)

// Thresholds tune the baseline rules.
type Thresholds struct {
	AxleWarningPct     float64 `yaml:"axle_warning_pct" json:"axle_warning_pct"`
	UnplacedHighCount  int     `yaml:"unplaced_high_count" json:"unplaced_high_count"`
	LowUtilizationPct  float64 `yaml:"low_utilization_pct" json:"low_utilization_pct"`
	CoGMediumDeviation float64 `yaml:"cog_medium_deviation" json:"cog_medium_deviation"`
	CoGHighDeviation   float64 `yaml:"cog_high_deviation" json:"cog_high_deviation"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AxleWarningPct:     80,
		UnplacedHighCount:  3,
		LowUtilizationPct:  60,
		CoGMediumDeviation: 0.3,
		CoGHighDeviation:   0.5,
	}
}

// Baseline rule IDs.
const (
	RuleAxleOverload    = "axle-overload"
	RuleUnplacedItems   = "unplaced-items"
	RuleLowUtilization  = "low-utilization"
	RuleCenterOfGravity = "center-of-gravity"
	RuleAxleWarning     = "axle-warning"
)

// BaselineRules returns a fresh copy of the standard rules.
func BaselineRules(th Thresholds) RuleSet {
	return RuleSet{
		{
			ID:       RuleAxleOverload,
			Name:     "Axle Overload Detection",
			Priority: 1,
			Enabled:  true,
			Condition: func(in Input) bool {
				for _, a := range in.Metrics.AxleLoads {
					if a.Percent > 100 {
						return true
					}
				}
				return false
			},
			Action: func(in Input) ([]Exception, error) {
				var out []Exception
				for i, a := range in.Metrics.AxleLoads {
					if a.Percent <= 100 {
						continue
					}
					out = append(out, Exception{
						ID:          fmt.Sprintf("overload-%d", i),
						Type:        TypeOverload,
						Severity:    SeverityCritical,
						Message:     fmt.Sprintf("Axle %d (%s) is overloaded at %.1f%%", i+1, a.Name, a.Percent),
						Suggestion:  "Consider redistributing weight or using a larger trailer",
						AutoFixable: false,
					})
				}
				return out, nil
			},
		},
		{
			ID:       RuleUnplacedItems,
			Name:     "Unplaced Items Detection",
			Priority: 2,
			Enabled:  true,
			Condition: func(in Input) bool {
				return len(in.Result.Unplaced) > 0
			},
			Action: func(in Input) ([]Exception, error) {
				n := len(in.Result.Unplaced)
				severity := SeverityMedium
				if n > th.UnplacedHighCount {
					severity = SeverityHigh
				}
				return []Exception{{
					ID:          "unplaced-items",
					Type:        TypeUnplaced,
					Severity:    severity,
					Message:     fmt.Sprintf("%d items could not be placed", n),
					PieceIDs:    append([]string(nil), in.Result.Unplaced...),
					Suggestion:  "Try different algorithm or split into multiple loads",
					AutoFixable: true,
				}}, nil
			},
		},
		{
			ID:       RuleLowUtilization,
			Name:     "Low Utilization Warning",
			Priority: 3,
			Enabled:  true,
			Condition: func(in Input) bool {
				return in.Result.VolumeUtilization < th.LowUtilizationPct
			},
			Action: func(in Input) ([]Exception, error) {
				return []Exception{{
					ID:          "low-utilization",
					Type:        TypeEfficiency,
					Severity:    SeverityLow,
					Message:     fmt.Sprintf("Low volume utilization at %.1f%%", in.Result.VolumeUtilization),
					Suggestion:  "Consider adding more items or using a smaller trailer",
					AutoFixable: false,
				}}, nil
			},
		},
		{
			ID:       RuleCenterOfGravity,
			Name:     "Center of Gravity Analysis",
			Priority: 4,
			Enabled:  true,
			Condition: func(in Input) bool {
				if len(in.Result.Placed) == 0 {
					return false
				}
				d, err := cogDeviation(in)
				return err == nil && d > th.CoGMediumDeviation
			},
			Action: func(in Input) ([]Exception, error) {
				d, err := cogDeviation(in)
				if err != nil {
					return nil, err
				}
				severity := SeverityMedium
				if d > th.CoGHighDeviation {
					severity = SeverityHigh
				}
				return []Exception{{
					ID:          "cog-warning",
					Type:        TypeStability,
					Severity:    severity,
					Message:     fmt.Sprintf("Center of gravity is %.1f from the front (%.0f%% from center)", in.Metrics.CenterOfGravity.X, d*100),
					Suggestion:  "Reposition items to balance the load",
					AutoFixable: true,
				}}, nil
			},
		},
		{
			ID:       RuleAxleWarning,
			Name:     "Axle Load Warning",
			Priority: 5,
			Enabled:  true,
			Condition: func(in Input) bool {
				for _, a := range in.Metrics.AxleLoads {
					if a.Percent > th.AxleWarningPct && a.Percent <= 100 {
						return true
					}
				}
				return false
			},
			Action: func(in Input) ([]Exception, error) {
				var out []Exception
				for i, a := range in.Metrics.AxleLoads {
					if a.Percent <= th.AxleWarningPct || a.Percent > 100 {
						continue
					}
					out = append(out, Exception{
						ID:          fmt.Sprintf("warning-%d", i),
						Type:        TypeOverload,
						Severity:    SeverityMedium,
						Message:     fmt.Sprintf("Axle %d (%s) is at %.1f%% capacity", i+1, a.Name, a.Percent),
						Suggestion:  "Monitor closely or redistribute weight",
						AutoFixable: false,
					})
				}
				return out, nil
			},
		},
	}
}

// cogDeviation returns the longitudinal distance of the center of gravity
// from the container midpoint as a share of half the container length.
func cogDeviation(in Input) (float64, error) {
	half := in.Container.Length / 2
	if half <= 0 {
		return 0, fmt.Errorf("container length %g is not positive", in.Container.Length)
	}
	return math.Abs(in.Metrics.CenterOfGravity.X-half) / half, nil
}
