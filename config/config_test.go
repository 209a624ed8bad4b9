package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestEnsureConfigExists_WritesLoadableDefaults(t *testing.T) {
	home := setupHome(t)

	if err := EnsureConfigExists(); err != nil {
		t.Fatalf("EnsureConfigExists failed: %v", err)
	}
	path := filepath.Join(home, ".config", AppName, "settings.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected settings file at %s: %v", path, err)
	}

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.DefaultLayout != "grid" || s.WatchDebounce != 250*time.Millisecond || s.DashboardsDir != "./dashboards" {
		t.Errorf("Expected the written defaults, got %+v", s)
	}
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	setupHome(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if *s != DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	t.Setenv("DASH_DATA", "/srv/dash")

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, s *Settings)
		wantErr bool
	}{
		{
			name:    "expands environment",
			content: "database_path: ${DASH_DATA}/store.db\nwatch_debounce: 1s\n",
			check: func(t *testing.T, s *Settings) {
				if s.DatabasePath != "/srv/dash/store.db" {
					t.Errorf("Expected expanded path, got %q", s.DatabasePath)
				}
				if s.WatchDebounce != time.Second {
					t.Errorf("Expected 1s debounce, got %v", s.WatchDebounce)
				}
				if s.DefaultLayout != "grid" {
					t.Errorf("Expected default layout kept, got %q", s.DefaultLayout)
				}
			},
		},
		{
			name:    "rejects unknown layout",
			content: "default_layout: masonry\n",
			wantErr: true,
		},
		{
			name:    "rejects unknown color mode",
			content: "color: sometimes\n",
			wantErr: true,
		},
		{
			name:    "rejects malformed yaml",
			content: "default_layout: [\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			s, err := LoadSettingsFile(path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got %+v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadSettingsFile failed: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestPresetRegistry_RoundTrip(t *testing.T) {
	setupHome(t)
	t.Setenv("DASH_REGION", "eu")

	r, err := LoadPresetRegistry()
	if err != nil {
		t.Fatalf("LoadPresetRegistry failed: %v", err)
	}
	if len(r.Presets) != 0 {
		t.Fatalf("Expected an empty registry, got %d", len(r.Presets))
	}

	r.Put(Preset{Name: "prod", Selections: map[string][]string{"region": {"${DASH_REGION}"}, "server": {"a", "b"}}})
	r.Put(Preset{Name: "dev", Selections: map[string][]string{"server": {"c"}}})
	r.Put(Preset{Name: "dev", Description: "replaced", Selections: map[string][]string{"server": {"d"}}})
	if err := SavePresetRegistry(r); err != nil {
		t.Fatalf("SavePresetRegistry failed: %v", err)
	}

	loaded, err := LoadPresetRegistry()
	if err != nil {
		t.Fatalf("LoadPresetRegistry failed: %v", err)
	}
	if len(loaded.Presets) != 2 {
		t.Fatalf("Expected 2 presets, got %d", len(loaded.Presets))
	}
	prod, err := loaded.Get("prod")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := prod.Selections["region"]; len(got) != 1 || got[0] != "eu" {
		t.Errorf("Expected region expanded to eu, got %v", got)
	}
	dev, _ := loaded.Get("dev")
	if dev.Description != "replaced" || dev.Selections["server"][0] != "d" {
		t.Errorf("Expected dev replaced, got %+v", dev)
	}

	if err := loaded.Remove("prod"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := loaded.Get("prod"); err == nil {
		t.Errorf("Expected prod gone")
	}
	if err := loaded.Remove("prod"); err == nil {
		t.Errorf("Expected an error removing a missing preset")
	}
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	setupHome(t)

	s := DefaultSettings()
	s.DefaultLayout = "tabs"
	s.WatchDebounce = time.Second
	if err := SaveSettings(&s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if loaded.DefaultLayout != "tabs" || loaded.WatchDebounce != time.Second {
		t.Errorf("Expected tabs and 1s, got %+v", loaded)
	}

	s.Color = "sometimes"
	if err := SaveSettings(&s); err == nil {
		t.Errorf("Expected invalid settings to be rejected")
	}
}
