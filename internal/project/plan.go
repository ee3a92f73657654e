package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/CargoFit/internal/model"
)

// PlanVersion is written into every saved plan file.
const PlanVersion = "1.0.0"

// Plan is a saved load plan: the request, the settings it ran with, and the
// result when one has been computed.
type Plan struct {
	Version   string                 `json:"version"`
	CreatedAt string                 `json:"created_at"`
	Name      string                 `json:"name,omitempty"`
	Request   model.Request          `json:"request"`
	Settings  model.Settings         `json:"settings"`
	Result    *model.PlacementResult `json:"result,omitempty"`
	Metrics   *model.LoadMetrics     `json:"metrics,omitempty"`
}

// NewPlan wraps a request and its settings for saving.
func NewPlan(name string, req model.Request, settings model.Settings) Plan {
	return Plan{
		Version:   PlanVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Name:      name,
		Request:   req,
		Settings:  settings,
	}
}

// SavePlan writes a plan to path as JSON.
func SavePlan(path string, plan Plan) error {
	if plan.Version == "" {
		plan.Version = PlanVersion
	}
	if err := writeJSON(path, plan); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// LoadPlan reads a plan file written by SavePlan.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan file: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan file: %w", err)
	}
	if plan.Version == "" {
		return Plan{}, fmt.Errorf("invalid plan file: missing version field")
	}
	return plan, nil
}

// LoadRequest reads a bare placement request document. Omitted fields take
// the request defaults.
func LoadRequest(path string) (model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Request{}, fmt.Errorf("failed to read request file: %w", err)
	}
	var req model.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return model.Request{}, fmt.Errorf("failed to parse request file: %w", err)
	}
	return req, nil
}

// SaveRequest writes a placement request document.
func SaveRequest(path string, req model.Request) error {
	if err := writeJSON(path, req); err != nil {
		return fmt.Errorf("failed to write request file: %w", err)
	}
	return nil
}
