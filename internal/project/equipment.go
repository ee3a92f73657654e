package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/CargoFit/internal/model"
)

// DefaultEquipmentPath returns the default file path for custom equipment.
func DefaultEquipmentPath() string {
	return filepath.Join(DefaultConfigDir(), "equipment.json")
}

// SaveCustomEquipment saves custom equipment to a JSON file.
func SaveCustomEquipment(path string, list []model.Equipment) error {
	return writeJSON(path, list)
}

// LoadCustomEquipment loads custom equipment from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadCustomEquipment(path string) ([]model.Equipment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Equipment{}, nil
		}
		return nil, err
	}

	var list []model.Equipment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}

	for i := range list {
		list[i].IsBuiltIn = false
	}
	return list, nil
}

// LoadEquipmentLibrary returns the built-in presets merged with the custom
// equipment stored at path. Custom entries replace presets with the same ID.
func LoadEquipmentLibrary(path string) ([]model.Equipment, error) {
	custom, err := LoadCustomEquipment(path)
	if err != nil {
		return model.BuiltInEquipment(), err
	}
	return model.MergeEquipment(model.BuiltInEquipment(), custom), nil
}

// ExportEquipment exports a single equipment definition to a JSON file (for sharing).
func ExportEquipment(path string, e model.Equipment) error {
	e.IsBuiltIn = false
	return writeJSON(path, e)
}

// ImportEquipment imports a single equipment definition from a JSON file.
func ImportEquipment(path string) (model.Equipment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Equipment{}, err
	}

	var e model.Equipment
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Equipment{}, err
	}

	e.IsBuiltIn = false
	if e.ID == "" {
		return model.Equipment{}, errors.New("imported equipment has no id")
	}
	if e.Length <= 0 || e.Width <= 0 || e.Height <= 0 {
		return model.Equipment{}, errors.New("imported equipment has no dimensions")
	}
	return e, nil
}
