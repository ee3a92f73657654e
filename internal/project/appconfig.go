// Package project persists CargoFit's local state: application config,
// saved load plans, and the custom equipment library.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/piwi3910/CargoFit/internal/model"
)

// maxRecentRequests bounds the recent request list kept in the config.
const maxRecentRequests = 10

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.cargofit/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cargofit")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Fields missing from the file keep their defaults.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentRequests == nil {
		config.RecentRequests = []string{}
	}
	return config, nil
}

// AddRecentRequest moves path to the front of the recent list, dropping
// duplicates and the oldest entries past the limit.
func AddRecentRequest(config model.AppConfig, path string) model.AppConfig {
	recent := make([]string, 0, maxRecentRequests)
	recent = append(recent, path)
	for _, p := range config.RecentRequests {
		if p != path && len(recent) < maxRecentRequests {
			recent = append(recent, p)
		}
	}
	config.RecentRequests = slices.Clip(recent)
	return config
}

// writeJSON marshals v with indentation and writes it to path, creating
// parent directories as needed.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
