package interrupt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DecisionWatcher feeds resume decisions from a directory into a Controller.
// A decision is a JSON file named <interrupt-id>.json containing a Decision.
// This is the non-interactive surface: another process (or the operator with
// an editor) drops a file and the suspended run continues.
type DecisionWatcher struct {
	dir        string
	controller *Controller

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDecisionWatcher creates a watcher over the given directory, creating it
// if needed. If the fsnotify watcher cannot be started the watcher still
// works through explicit Scan calls.
func NewDecisionWatcher(dir string, controller *Controller) (*DecisionWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := &DecisionWatcher{
		dir:        dir,
		controller: controller,
		done:       make(chan struct{}),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher, Scan remains available
		return w, nil
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return w, nil
	}
	w.watcher = fsw

	go w.watch()

	return w, nil
}

func (w *DecisionWatcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0 {
				w.consume(event.Name)
			}
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Scan processes any decision files already present in the directory.
// It returns the number of decisions applied.
func (w *DecisionWatcher) Scan() int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0
	}
	applied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if w.consume(filepath.Join(w.dir, entry.Name())) {
			applied++
		}
	}
	return applied
}

// consume parses a decision file and applies it. The file is removed once
// applied so a decision fires exactly once.
func (w *DecisionWatcher) consume(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return false
	}
	id := strings.TrimSuffix(base, ".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var d Decision
	if err := json.Unmarshal(data, &d); err != nil {
		return false
	}
	if err := w.controller.Decide(id, d); err != nil {
		return false
	}
	os.Remove(path)
	return true
}

// Dir returns the watched directory.
func (w *DecisionWatcher) Dir() string {
	return w.dir
}

// Close stops the watcher.
func (w *DecisionWatcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
