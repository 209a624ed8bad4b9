package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the content of settings.yaml.
type Settings struct {
	DefaultLayout string        `yaml:"default_layout"`
	DatabasePath  string        `yaml:"database_path,omitempty"`
	DashboardsDir string        `yaml:"dashboards_dir,omitempty"`
	WatchDebounce time.Duration `yaml:"watch_debounce,omitempty"`
	Color         string        `yaml:"color,omitempty"`
}

// DefaultSettings is used for anything settings.yaml leaves out.
func DefaultSettings() Settings {
	return Settings{
		DefaultLayout: "grid",
		DashboardsDir: ".",
		WatchDebounce: 250 * time.Millisecond,
		Color:         "auto",
	}
}

// LoadSettings reads settings.yaml, falling back to the defaults when it is
// missing. String values may reference the environment as ${VAR_NAME}.
func LoadSettings() (*Settings, error) {
	path, err := GetSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile reads settings from path.
func LoadSettingsFile(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	settings.DatabasePath = expandEnvVars(settings.DatabasePath)
	settings.DashboardsDir = expandEnvVars(settings.DashboardsDir)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings validates s and writes it to settings.yaml.
func SaveSettings(s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	path, err := GetSettingsFile()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Validate checks the enumerated settings.
func (s *Settings) Validate() error {
	switch s.DefaultLayout {
	case "grid", "auto-grid", "rows", "tabs":
	default:
		return fmt.Errorf("default_layout must be grid, auto-grid, rows or tabs, got: %s", s.DefaultLayout)
	}
	switch s.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never, got: %s", s.Color)
	}
	if s.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce cannot be negative")
	}
	return nil
}

// ResolveDatabasePath returns the configured database path or the default one.
func (s *Settings) ResolveDatabasePath() (string, error) {
	if s.DatabasePath != "" {
		return s.DatabasePath, nil
	}
	return GetDatabasePath()
}

// expandEnvVars expands environment variables in the format ${VAR_NAME}
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
