package tui

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"dashgrid/internal/layout"
	"dashgrid/internal/schema"
	"dashgrid/internal/watch"
)

// Run opens the viewer on the dashboard file at opts.Path and reloads it
// whenever the file changes.
func Run(ctx context.Context, opts Options) error {
	doc, err := schema.ReadFile(opts.Path)
	if err != nil {
		return err
	}
	d, err := layout.Load(doc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(d, opts)
	defer m.Close()

	go func() {
		err := watch.File(ctx, opts.Path, opts.Debounce, func(doc *schema.Dashboard, err error) {
			select {
			case m.reloads <- reloadMsg{doc: doc, err: err, watched: true}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			log.Printf("Warning: viewer stopped watching %s: %v", opts.Path, err)
		}
	}()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
