package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Preset is a named set of variable selections.
type Preset struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Selections  map[string][]string `yaml:"selections"`
}

// PresetRegistry holds every saved preset.
type PresetRegistry struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresetRegistry loads the preset registry from disk
func LoadPresetRegistry() (*PresetRegistry, error) {
	path, err := GetPresetsFile()
	if err != nil {
		return nil, err
	}

	registry := PresetRegistry{Presets: []Preset{}}

	// If file doesn't exist, start with empty registry
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	// Expand environment variables in selected values
	for _, p := range registry.Presets {
		for name, values := range p.Selections {
			for i, v := range values {
				values[i] = expandEnvVars(v)
			}
			p.Selections[name] = values
		}
	}

	return &registry, nil
}

// SavePresetRegistry saves the preset registry to disk
func SavePresetRegistry(registry *PresetRegistry) error {
	path, err := GetPresetsFile()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}

	return nil
}

// Put adds a preset, replacing one with the same name.
func (r *PresetRegistry) Put(p Preset) {
	for i, existing := range r.Presets {
		if existing.Name == p.Name {
			r.Presets[i] = p
			return
		}
	}
	r.Presets = append(r.Presets, p)
}

// Remove removes a preset by name
func (r *PresetRegistry) Remove(name string) error {
	i := slices.IndexFunc(r.Presets, func(p Preset) bool { return p.Name == name })
	if i < 0 {
		return fmt.Errorf("preset '%s' not found", name)
	}
	r.Presets = slices.Delete(r.Presets, i, i+1)
	return nil
}

// Get returns a preset by name
func (r *PresetRegistry) Get(name string) (*Preset, error) {
	for i := range r.Presets {
		if r.Presets[i].Name == name {
			return &r.Presets[i], nil
		}
	}
	return nil, fmt.Errorf("preset '%s' not found", name)
}
