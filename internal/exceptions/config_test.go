package exceptions

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseRuleConfig([]byte(`
thresholds:
  low_utilization_pct: 45
rules:
  - id: low-utilization
    priority: 9
  - id: axle-warning
    enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, 45.0, cfg.Thresholds.LowUtilizationPct)
	assert.Equal(t, 80.0, cfg.Thresholds.AxleWarningPct, "unspecified thresholds keep defaults")

	rules, err := cfg.RuleSet()
	require.NoError(t, err)

	low, _ := rules.Find(RuleLowUtilization)
	assert.Equal(t, 9, low.Priority)
	assert.True(t, low.Enabled)
	warn, _ := rules.Find(RuleAxleWarning)
	assert.False(t, warn.Enabled)
}

func TestRuleConfigThresholdsReachRules(t *testing.T) {
	cfg := DefaultRuleConfig()
	cfg.Thresholds.LowUtilizationPct = 80
	rules, err := cfg.RuleSet()
	require.NoError(t, err)

	report := testEngine(&bytes.Buffer{}).Analyze(rules, testInput())
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, "low-utilization", report.Exceptions[0].ID)
}

func TestRuleConfigUnknownRule(t *testing.T) {
	cfg, err := ParseRuleConfig([]byte("rules:\n  - id: nope\n    enabled: false\n"))
	require.NoError(t, err)
	_, err = cfg.RuleSet()
	assert.ErrorContains(t, err, "nope")
}

func TestParseRuleConfigInvalidYAML(t *testing.T) {
	_, err := ParseRuleConfig([]byte("thresholds: [1, 2"))
	assert.Error(t, err)
}

func TestLoadRuleConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadRuleConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleConfig(), cfg)

	path := filepath.Join(dir, "rules.yaml")
	disabled := false
	cfg.Rules = []RuleOverride{{ID: RuleCenterOfGravity, Enabled: &disabled}}
	require.NoError(t, cfg.Save(path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadRuleConfig(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rules, 1)
	assert.Equal(t, RuleCenterOfGravity, loaded.Rules[0].ID)
	assert.False(t, *loaded.Rules[0].Enabled)
	assert.Nil(t, loaded.Rules[0].Priority)
}
