package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	DefaultAlgorithm  Algorithm  `json:"default_algorithm"`
	DefaultGridStep   float64    `json:"default_grid_step"`
	DefaultAxlePolicy AxlePolicy `json:"default_axle_policy"`
	DefaultSeed       int64      `json:"default_seed"`
	DefaultEquipment  string     `json:"default_equipment"`

	// Genetic search tuning, 0 = engine default
	TournamentSize  int     `json:"tournament_size"`
	EliteFraction   float64 `json:"elite_fraction"`
	VolumeWeight    float64 `json:"volume_weight"`
	StabilityWeight float64 `json:"stability_weight"`

	// Optimizer time limit in seconds, 0 = no limit
	TimeoutSeconds int `json:"timeout_seconds"`

	LogLevel  string `json:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `json:"log_format"` // "json" or "text"
	RulesFile string `json:"rules_file"` // optional YAML rule overrides

	RecentRequests []string `json:"recent_requests"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultAlgorithm:  defaults.Algorithm,
		DefaultGridStep:   defaults.GridStep,
		DefaultAxlePolicy: defaults.AxlePolicy,
		DefaultSeed:       defaults.Seed,
		DefaultEquipment:  "dry-van-53",
		TimeoutSeconds:    30,
		LogLevel:          "info",
		LogFormat:         "text",
		RecentRequests:    []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into a Settings struct.
// Empty values leave the setting untouched.
func (c AppConfig) ApplyToSettings(s *Settings) {
	if c.DefaultAlgorithm != "" {
		s.Algorithm = c.DefaultAlgorithm
	}
	if c.DefaultGridStep > 0 {
		s.GridStep = c.DefaultGridStep
	}
	if c.DefaultAxlePolicy != "" {
		s.AxlePolicy = c.DefaultAxlePolicy
	}
	if c.DefaultSeed != 0 {
		s.Seed = c.DefaultSeed
	}
	if c.TournamentSize > 0 {
		s.TournamentSize = c.TournamentSize
	}
	if c.EliteFraction > 0 {
		s.EliteFraction = c.EliteFraction
	}
	if c.VolumeWeight > 0 || c.StabilityWeight > 0 {
		s.VolumeWeight = c.VolumeWeight
		s.StabilityWeight = c.StabilityWeight
	}
}
