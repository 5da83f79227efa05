package taskgraph

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads template overrides when the override file changes.
// Editors often replace files via rename, so the watcher follows the parent
// directory rather than the file itself.
type Watcher struct {
	set     *TemplateSet
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher loads the override file and starts watching it for changes.
// The initial load must succeed; later reload failures are logged and the
// previous overrides stay in effect.
func NewWatcher(set *TemplateSet, path string) (*Watcher, error) {
	if err := set.LoadOverrides(path); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		set:     set,
		path:    path,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	base := filepath.Base(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.set.LoadOverrides(w.path); err != nil {
				log.Printf("[taskgraph] template reload failed, keeping previous set: %v", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[taskgraph] template watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
