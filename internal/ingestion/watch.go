package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

// Watch imports the *.json files already in dir, then keeps importing files
// as they are created or rewritten until ctx is cancelled. Rapid successive
// writes to one file are debounced into a single import.
func (im *FileImporter) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if _, err := im.ImportDir(dir); err != nil {
		logger.L.Warn("initial import had errors", "dir", dir, "error", err)
	}
	logger.L.Info("watching for question files", "dir", dir)

	poll := im.config.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	// path -> time of the last change seen
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isQuestionFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(pending, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.L.Error("watcher error", "dir", dir, "error", err)

		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < im.config.Debounce {
					continue
				}
				delete(pending, path)
				if _, err := im.ImportFile(path); err != nil {
					logger.L.Error("importing watched file", "path", path, "error", err)
				}
			}
		}
	}
}

func isQuestionFile(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}
