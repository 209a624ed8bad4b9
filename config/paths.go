package config

import (
	"os"
	"path/filepath"
)

const AppName = "dashgrid"

func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", AppName)

	// Ensure the directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// GetSettingsFile returns the path of settings.yaml.
func GetSettingsFile() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "settings.yaml"), nil
}

// GetPresetsFile returns the path of presets.yaml.
func GetPresetsFile() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "presets.yaml"), nil
}

func GetDatabasePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "dashgrid.db"), nil
}

func GetLogsDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	logsDir := filepath.Join(configDir, "logs")

	// Ensure the directory exists
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", err
	}

	return logsDir, nil
}

func GetLogPath() (string, error) {
	logsDir, err := GetLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(logsDir, "dash.log"), nil
}

func EnsureConfigExists() error {
	settingsFile, err := GetSettingsFile()
	if err != nil {
		return err
	}

	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		defaultSettings := `# Layout new dashboards start with: grid, auto-grid, rows or tabs.
default_layout: grid

# Where "dash store" keeps dashboards. Empty means ~/.config/dashgrid/dashgrid.db.
database_path: ""

# Directory "dash lint" and "dash watch" resolve relative globs against.
dashboards_dir: "./dashboards"

# Quiet period before a changed file is reloaded.
watch_debounce: 250ms

# auto, always or never.
color: auto
`

		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return err
		}
	}

	return nil
}
