// Package watch reloads a dashboard document whenever its file changes.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"dashgrid/internal/schema"
)

// Handler receives every reload. err is set when the file could not be read
// or parsed; doc is nil then.
type Handler func(doc *schema.Dashboard, err error)

// File watches path until ctx is done, calling fn once changes have been
// quiet for debounce. Editors that save by renaming a temporary file over
// path are handled by watching the parent directory.
func File(ctx context.Context, path string, debounce time.Duration, fn Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			log.Printf("Dashboard file changed, reloading %s", target)
			doc, err := schema.ReadFile(target)
			if err != nil {
				fn(nil, err)
				continue
			}
			fn(doc, nil)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: dashboard watcher error: %v", err)
		}
	}
}
