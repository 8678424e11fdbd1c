package pricing

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"aimeter/internal/utils"
)

// Watcher hot-reloads a pricing table whenever its backing file changes, so
// an operator can reprice models without restarting the service.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchFile starts watching path and reloads table on every write. Reload
// failures are logged and the previous table stays in effect.
func WatchFile(path string, table *Table, logger *utils.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create pricing watcher: %w", err)
	}

	// Watch the directory, not the file: editors and configmap mounts
	// replace the file, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch pricing directory: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		done:    make(chan struct{}),
	}

	go w.run(path, table, logger)

	return w, nil
}

func (w *Watcher) run(path string, table *Table, logger *utils.Logger) {
	defer close(w.done)

	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := table.ReloadFile(path); err != nil {
				logger.Error("Pricing reload failed, keeping previous table", "path", path, "error", err)
				continue
			}
			logger.Info("Pricing table reloaded", "path", path, "models", len(table.Models()))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Pricing watcher error", "error", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
