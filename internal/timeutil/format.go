package timeutil

import (
	"fmt"
	"time"
)

// FormatAge describes how long before now t was, the way version listings
// show it: "just now", "5 minutes ago", "yesterday", "on Mar 4".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	minutes := int(age.Minutes())
	hours := int(age.Hours())
	days := hours / 24

	switch {
	case age < 30*time.Second:
		return "just now"
	case age < 90*time.Second:
		return "a minute ago"
	case minutes < 45:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 90:
		return "an hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case t.Year() == now.Year():
		return "on " + t.Format("Jan 2")
	default:
		return "on " + t.Format("Jan 2 2006")
	}
}
