// Package exceptions evaluates operational rules against a placement and
// its load metrics, and turns the findings into suggestions.
package exceptions

import (
	"sort"
	"time"

	"github.com/piwi3910/CargoFit/internal/model"
)

// Type classifies an exception.
type Type string

const (
	TypeOverload   Type = "overload"
	TypeUnplaced   Type = "unplaced"
	TypeStability  Type = "stability"
	TypeConstraint Type = "constraint"
	TypeEfficiency Type = "efficiency"
)

// Severity ranks an exception.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Exception is an operational problem found in a load plan.
type Exception struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	PieceIDs    []string  `json:"pieceIds"`
	Suggestion  string    `json:"suggestion"`
	AutoFixable bool      `json:"autoFixable"`
	Timestamp   time.Time `json:"timestamp"`
}

// Input is everything a rule may inspect.
type Input struct {
	Result    model.PlacementResult
	Metrics   model.LoadMetrics
	Container model.Container
}

// Rule is a prioritized condition/action pair. Lower priority values run
// first.
type Rule struct {
	ID        string
	Name      string
	Priority  int
	Enabled   bool
	Condition func(Input) bool
	Action    func(Input) ([]Exception, error)
}

// RuleSet is an ordered collection of rules owned by the caller. Methods
// return modified copies and never change the receiver.
type RuleSet []Rule

// Clone returns an independent copy of the rule set.
func (rs RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(rs))
	copy(out, rs)
	return out
}

// Sorted returns the rules ordered by priority, keeping insertion order for
// equal priorities.
func (rs RuleSet) Sorted() RuleSet {
	out := rs.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Find returns the rule with the given ID.
func (rs RuleSet) Find(id string) (Rule, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// WithEnabled returns a copy with the rule switched on or off.
func (rs RuleSet) WithEnabled(id string, enabled bool) RuleSet {
	out := rs.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Enabled = enabled
		}
	}
	return out
}

// WithPriority returns a copy with the rule's priority changed.
func (rs RuleSet) WithPriority(id string, priority int) RuleSet {
	out := rs.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Priority = priority
		}
	}
	return out
}

// With returns a copy with the rule added, replacing any rule with the same ID.
func (rs RuleSet) With(rule Rule) RuleSet {
	out := rs.Clone()
	for i := range out {
		if out[i].ID == rule.ID {
			out[i] = rule
			return out
		}
	}
	return append(out, rule)
}

// IDs lists the rule IDs in set order.
func (rs RuleSet) IDs() []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}
