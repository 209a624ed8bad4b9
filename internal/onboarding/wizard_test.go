package onboarding

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"dashgrid/config"
)

func TestIsFirstRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if !IsFirstRun() {
		t.Fatalf("Expected first run without settings")
	}
	if err := config.EnsureConfigExists(); err != nil {
		t.Fatalf("EnsureConfigExists failed: %v", err)
	}
	if IsFirstRun() {
		t.Errorf("Expected settings to end the first run")
	}
}

func TestAnswers_Settings(t *testing.T) {
	defaults := config.DefaultSettings()
	a := answersFrom(&defaults)
	if a.Debounce != "250ms" {
		t.Fatalf("Expected 250ms, got %q", a.Debounce)
	}

	a.Layout = "rows"
	a.Debounce = " 1s "
	a.DashboardsDir = "  "
	s, err := a.settings()
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if s.DefaultLayout != "rows" || s.WatchDebounce != time.Second || s.DashboardsDir != "." {
		t.Errorf("Unexpected settings %+v", s)
	}

	a.Debounce = "soon"
	if _, err := a.settings(); err == nil {
		t.Errorf("Expected an invalid debounce to fail")
	}
	a.Debounce = "1s"
	a.Layout = "masonry"
	if _, err := a.settings(); err == nil {
		t.Errorf("Expected an unknown layout to fail")
	}
}

func TestValidateDuration(t *testing.T) {
	for _, v := range []string{"250ms", "2s", "0s"} {
		if err := validateDuration(v); err != nil {
			t.Errorf("Expected %q to be valid, got %v", v, err)
		}
	}
	for _, v := range []string{"", "fast", "-1s"} {
		if err := validateDuration(v); err == nil {
			t.Errorf("Expected %q to be rejected", v)
		}
	}
}

func TestHeader(t *testing.T) {
	plain := header("setup", termenv.Ascii)
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("Expected no escape sequences without colour, got %q", plain)
	}
	if !strings.HasPrefix(plain, "setup ▚") {
		t.Errorf("Expected the title before the pattern, got %q", plain)
	}

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	if got := applyGradient(r, "ab", primaryHex, accentHex); strings.Count(got, "\x1b[") < 2 {
		t.Errorf("Expected one colour per rune, got %q", got)
	}
}
