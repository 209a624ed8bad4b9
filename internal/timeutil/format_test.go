package timeutil

import (
	"testing"
	"time"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		age  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{-5 * time.Second, "just now"},
		{time.Minute, "a minute ago"},
		{12 * time.Minute, "12 minutes ago"},
		{time.Hour, "an hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{30 * time.Hour, "yesterday"},
		{4 * 24 * time.Hour, "4 days ago"},
		{20 * 24 * time.Hour, "on May 26"},
		{400 * 24 * time.Hour, "on May 11 2024"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.age), now); got != tt.want {
			t.Errorf("Expected %q for %v, got %q", tt.want, tt.age, got)
		}
	}
	if got := FormatAge(time.Time{}, now); got != "" {
		t.Errorf("Expected empty string for zero time, got %q", got)
	}
}
