package exceptions

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoFit/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEngine(buf *bytes.Buffer) *Engine {
	e := NewEngine(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	e.Now = func() time.Time { return fixedNow }
	return e
}

func testInput() Input {
	c := model.BuiltInEquipment()[0].Container()
	return Input{
		Container: c,
		Result: model.PlacementResult{
			Placed:            []model.PlacedItem{{PieceID: "a-1", X: 300, Length: 36, Width: 40, Height: 40, Weight: 100}},
			VolumeUtilization: 75,
		},
		Metrics: model.LoadMetrics{
			CenterOfGravity: model.Vec3{X: c.Length / 2},
			AxleLoads: []model.AxleLoad{
				{Name: "kingpin", Percent: 40},
				{Name: "tandem", Percent: 60},
			},
		},
	}
}

func ids(exceptions []Exception) []string {
	out := make([]string, len(exceptions))
	for i, e := range exceptions {
		out[i] = e.ID
	}
	return out
}

func TestAnalyze_CleanLoad(t *testing.T) {
	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), testInput())

	assert.Empty(t, report.Exceptions)
	assert.NotNil(t, report.Exceptions)
	assert.Len(t, report.ID, 36)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Equal(t, []string{"Load optimization looks good! Consider running with different constraints for comparison"}, report.Suggestions)
	assert.Empty(t, report.Alternatives)
	assert.Empty(t, report.AutoFixGroups)
}

func TestAnalyze_OverloadAndUnplaced(t *testing.T) {
	in := testInput()
	in.Metrics.AxleLoads[1].Percent = 110
	in.Result.Unplaced = []string{"b-1", "b-2", "b-3"}

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)

	require.Equal(t, []string{"overload-1", "unplaced-items"}, ids(report.Exceptions))

	overload := report.Exceptions[0]
	assert.Equal(t, TypeOverload, overload.Type)
	assert.Equal(t, SeverityCritical, overload.Severity)
	assert.False(t, overload.AutoFixable)
	assert.Equal(t, "Consider redistributing weight or using a larger trailer", overload.Suggestion)
	assert.Equal(t, fixedNow, overload.Timestamp)

	unplaced := report.Exceptions[1]
	assert.Equal(t, SeverityMedium, unplaced.Severity, "three unplaced is not yet high")
	assert.True(t, unplaced.AutoFixable)
	assert.Equal(t, []string{"b-1", "b-2", "b-3"}, unplaced.PieceIDs)

	assert.Contains(t, report.Suggestions, "Consider splitting the load across multiple trailers")
	require.Len(t, report.AutoFixGroups, 1)
	assert.Equal(t, "retry-optimization", report.AutoFixGroups[0].Action)
	assert.Equal(t, []string{"unplaced-items"}, report.AutoFixGroups[0].ExceptionIDs)

	var names []string
	for _, a := range report.Alternatives {
		names = append(names, a.EquipmentID)
	}
	assert.Equal(t, []string{"reefer-53", "flatbed-48"}, names)
	assert.True(t, report.HasCritical())
}

func TestReportJSONShape(t *testing.T) {
	in := testInput()
	in.Metrics.AxleLoads[1].Percent = 110
	in.Result.Unplaced = []string{"b-1"}

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)
	data, err := json.Marshal(report)
	require.NoError(t, err)

	var doc struct {
		Exceptions    []map[string]any `json:"exceptions"`
		Alternatives  []map[string]any `json:"alternativeEquipment"`
		AutoFixGroups []map[string]any `json:"autoFixGroups"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Exceptions, 2)
	overload := doc.Exceptions[0]
	assert.Equal(t, "critical", overload["severity"])
	assert.Equal(t, []any{}, overload["pieceIds"], "exceptions without pieces still carry the list")
	assert.Equal(t, "medium", doc.Exceptions[1]["severity"])

	require.NotEmpty(t, doc.Alternatives)
	for _, a := range doc.Alternatives {
		assert.Contains(t, a, "type")
		assert.Contains(t, a, "reason")
		assert.Contains(t, a, "capacity")
	}
	assert.Equal(t, "53' Reefer", doc.Alternatives[0]["type"])

	require.Len(t, doc.AutoFixGroups, 1)
	group := doc.AutoFixGroups[0]
	assert.Equal(t, "retry-optimization", group["action"])
	assert.Equal(t, "Retry with different algorithm", group["description"])
	assert.Equal(t, []any{"unplaced-items"}, group["exceptionIds"])
}

func TestAnalyze_UnplacedSeverityHigh(t *testing.T) {
	in := testInput()
	in.Result.Unplaced = []string{"a", "b", "c", "d"}

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, SeverityHigh, report.Exceptions[0].Severity)
}

func TestAnalyze_AxleWarningBand(t *testing.T) {
	in := testInput()
	in.Metrics.AxleLoads[0].Percent = 85
	in.Metrics.AxleLoads[1].Percent = 100

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)

	assert.Equal(t, []string{"warning-0", "warning-1"}, ids(report.Exceptions), "100% is a warning, not an overload")
	for _, e := range report.Exceptions {
		assert.Equal(t, SeverityMedium, e.Severity)
		assert.Equal(t, "Monitor closely or redistribute weight", e.Suggestion)
	}
}

func TestAnalyze_CenterOfGravity(t *testing.T) {
	tests := []struct {
		name     string
		share    float64 // cog x as share of length
		want     bool
		severity Severity
	}{
		{"centered", 0.5, false, ""},
		{"slightly forward", 0.4, false, ""},
		{"forward", 0.3, true, SeverityMedium},
		{"far forward", 0.2, true, SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput()
			in.Metrics.CenterOfGravity.X = in.Container.Length * tt.share

			report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)
			if !tt.want {
				assert.Empty(t, report.Exceptions)
				return
			}
			require.Len(t, report.Exceptions, 1)
			e := report.Exceptions[0]
			assert.Equal(t, "cog-warning", e.ID)
			assert.Equal(t, TypeStability, e.Type)
			assert.Equal(t, tt.severity, e.Severity)
			assert.True(t, e.AutoFixable)
			require.Len(t, report.AutoFixGroups, 1)
			assert.Equal(t, "rebalance-load", report.AutoFixGroups[0].Action)
		})
	}
}

func TestAnalyze_CenterOfGravitySkippedForEmptyLoad(t *testing.T) {
	in := testInput()
	in.Result.Placed = nil
	in.Metrics.CenterOfGravity = model.Vec3{}

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)
	assert.Empty(t, report.Exceptions)
}

func TestAnalyze_LowUtilizationSuggestsSmallerEquipment(t *testing.T) {
	in := testInput()
	in.Result.VolumeUtilization = 35

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)

	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, TypeEfficiency, report.Exceptions[0].Type)
	assert.Equal(t, SeverityLow, report.Exceptions[0].Severity)

	var names []string
	for _, a := range report.Alternatives {
		names = append(names, a.EquipmentID)
	}
	assert.Equal(t, []string{"container-40", "container-20", "box-truck-26"}, names)
}

func TestAnalyze_StabilityAndOverloadSuggestion(t *testing.T) {
	in := testInput()
	in.Metrics.AxleLoads[0].Percent = 120
	in.Metrics.CenterOfGravity.X = in.Container.Length * 0.1

	report := testEngine(&bytes.Buffer{}).Analyze(BaselineRules(DefaultThresholds()), in)
	assert.Contains(t, report.Suggestions, "Try a different algorithm that considers weight distribution")
}

func TestAnalyze_PriorityOrderAndDisabledRules(t *testing.T) {
	in := testInput()
	in.Metrics.AxleLoads[1].Percent = 110
	in.Result.Unplaced = []string{"b-1"}

	rules := BaselineRules(DefaultThresholds()).
		WithPriority(RuleUnplacedItems, 0).
		WithEnabled(RuleAxleOverload, false)
	report := testEngine(&bytes.Buffer{}).Analyze(rules, in)
	assert.Equal(t, []string{"unplaced-items"}, ids(report.Exceptions))

	rules = rules.WithEnabled(RuleAxleOverload, true)
	report = testEngine(&bytes.Buffer{}).Analyze(rules, in)
	assert.Equal(t, []string{"unplaced-items", "overload-1"}, ids(report.Exceptions))
}

func TestAnalyze_FailingRulesAreIsolated(t *testing.T) {
	var buf bytes.Buffer
	rules := BaselineRules(DefaultThresholds()).
		With(Rule{
			ID: "panics", Priority: 0, Enabled: true,
			Condition: func(Input) bool { return true },
			Action:    func(Input) ([]Exception, error) { panic("boom") },
		}).
		With(Rule{
			ID: "errors", Priority: 0, Enabled: true,
			Condition: func(Input) bool { return true },
			Action:    func(Input) ([]Exception, error) { return nil, errors.New("bad data") },
		})

	in := testInput()
	in.Result.Unplaced = []string{"b-1"}
	report := testEngine(&buf).Analyze(rules, in)

	assert.Equal(t, []string{"unplaced-items"}, ids(report.Exceptions), "later rules still run")
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "panics", report.Failures[0].RuleID)
	assert.Contains(t, report.Failures[0].Error, "boom")
	assert.Equal(t, "errors", report.Failures[1].RuleID)
	assert.Contains(t, buf.String(), "exception rule failed")
	assert.Contains(t, buf.String(), "rule=panics")
}

func TestRuleSetCopiesDoNotAlias(t *testing.T) {
	base := BaselineRules(DefaultThresholds())
	changed := base.WithEnabled(RuleLowUtilization, false)

	r, ok := base.Find(RuleLowUtilization)
	require.True(t, ok)
	assert.True(t, r.Enabled, "source set is unchanged")

	r, _ = changed.Find(RuleLowUtilization)
	assert.False(t, r.Enabled)

	assert.Equal(t, []string{RuleAxleOverload, RuleUnplacedItems, RuleLowUtilization, RuleCenterOfGravity, RuleAxleWarning}, base.IDs())
}

func TestSuggestionsAreDeduplicated(t *testing.T) {
	got := Suggestions([]Exception{
		{Type: TypeOverload, Suggestion: "A"},
		{Type: TypeOverload, Suggestion: "A"},
		{Type: TypeEfficiency, Suggestion: "B"},
	})
	assert.Equal(t, []string{"A", "B"}, got)
}
