package exceptions

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/CargoFit/internal/model"
)

// RuleFailure records a rule that errored or panicked during analysis.
type RuleFailure struct {
	RuleID string `json:"ruleId"`
	Error  string `json:"error"`
}

// Report is the outcome of one analysis.
type Report struct {
	ID           string        `json:"id"`
	GeneratedAt  time.Time     `json:"generatedAt"`
	Exceptions   []Exception   `json:"exceptions"`
	Suggestions  []string      `json:"suggestions"`
	Alternatives  []Alternative `json:"alternativeEquipment"`
	AutoFixGroups []AutoFix     `json:"autoFixGroups"`
	Failures      []RuleFailure `json:"ruleFailures,omitempty"`
}

// HasCritical reports whether any exception is critical.
func (r Report) HasCritical() bool {
	for _, e := range r.Exceptions {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Engine runs rule sets. It holds no rules itself, so one engine can serve
// concurrent analyses with different rule sets.
type Engine struct {
	Logger  *slog.Logger
	Now     func() time.Time
	Library []model.Equipment // candidates for alternative equipment
}

// NewEngine returns an engine using the built-in equipment library.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Logger: logger, Now: time.Now, Library: model.BuiltInEquipment()}
}

// Analyze runs the enabled rules in priority order. A rule that fails or
// panics is logged and skipped; the remaining rules still run.
func (e *Engine) Analyze(rules RuleSet, in Input) Report {
	now := e.now()
	report := Report{
		ID:          uuid.New().String(),
		GeneratedAt: now,
		Exceptions:  []Exception{},
	}

	for _, rule := range rules.Sorted() {
		if !rule.Enabled {
			continue
		}
		found, err := e.run(rule, in)
		if err != nil {
			e.logger().Warn("exception rule failed", "rule", rule.ID, "error", err)
			report.Failures = append(report.Failures, RuleFailure{RuleID: rule.ID, Error: err.Error()})
			continue
		}
		for _, ex := range found {
			if ex.Timestamp.IsZero() {
				ex.Timestamp = now
			}
			if ex.PieceIDs == nil {
				ex.PieceIDs = []string{}
			}
			report.Exceptions = append(report.Exceptions, ex)
		}
	}

	report.Suggestions = Suggestions(report.Exceptions)
	report.Alternatives = AlternativeEquipment(in.Container, report.Exceptions, e.Library)
	report.AutoFixGroups = AutoFixGroups(report.Exceptions)

	e.logger().Debug("exception analysis complete",
		"report", report.ID,
		"exceptions", len(report.Exceptions),
		"failures", len(report.Failures))
	return report
}

// run evaluates one rule, converting panics into errors.
func (e *Engine) run(rule Rule, in Input) (found []Exception, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if rule.Condition == nil || rule.Action == nil {
		return nil, fmt.Errorf("rule %q is missing a condition or action", rule.ID)
	}
	if !rule.Condition(in) {
		return nil, nil
	}
	return rule.Action(in)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
