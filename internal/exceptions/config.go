package exceptions

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleOverride changes one baseline rule. Nil fields keep the default.
type RuleOverride struct {
	ID       string `yaml:"id"`
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Priority *int   `yaml:"priority,omitempty"`
}

// RuleConfig is the on-disk rule configuration.
//
//	thresholds:
//	  low_utilization_pct: 50
//	rules:
//	  - id: low-utilization
//	    enabled: false
type RuleConfig struct {
	Thresholds Thresholds     `yaml:"thresholds"`
	Rules      []RuleOverride `yaml:"rules"`
}

// DefaultRuleConfig returns the configuration matching BaselineRules with
// default thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{Thresholds: DefaultThresholds()}
}

// ParseRuleConfig decodes YAML on top of the defaults, so a file only needs
// the values it changes.
func ParseRuleConfig(data []byte) (RuleConfig, error) {
	cfg := DefaultRuleConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RuleConfig{}, fmt.Errorf("parse rule config: %w", err)
	}
	return cfg, nil
}

// LoadRuleConfig reads a rule configuration file. A missing file yields the
// defaults.
func LoadRuleConfig(path string) (RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRuleConfig(), nil
		}
		return RuleConfig{}, fmt.Errorf("read rule config: %w", err)
	}
	return ParseRuleConfig(data)
}

// RuleSet builds the baseline rules with the configured thresholds and
// overrides applied.
func (c RuleConfig) RuleSet() (RuleSet, error) {
	rules := BaselineRules(c.Thresholds)
	for _, o := range c.Rules {
		if _, ok := rules.Find(o.ID); !ok {
			return nil, fmt.Errorf("rule config: unknown rule %q", o.ID)
		}
		if o.Enabled != nil {
			rules = rules.WithEnabled(o.ID, *o.Enabled)
		}
		if o.Priority != nil {
			rules = rules.WithPriority(o.ID, *o.Priority)
		}
	}
	return rules, nil
}

// Save writes the configuration as YAML.
func (c RuleConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode rule config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
