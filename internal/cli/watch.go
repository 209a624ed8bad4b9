package cli

import (
	"context"
	"os"

	"dashgrid/config"
	"dashgrid/internal/preview"
	"dashgrid/internal/tui"
)

// Watch opens the interactive viewer on a dashboard file.
func Watch(ctx context.Context, path, color string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	if color == "" {
		color = settings.Color
	}
	return tui.Run(ctx, tui.Options{
		Path:     path,
		Debounce: settings.WatchDebounce,
		Profile:  preview.Profile(color, os.Stdout),
	})
}
