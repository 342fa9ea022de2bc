package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports when a config file has been rewritten. It watches the parent directory so
// editors that replace the file by renaming are still seen. Poll never blocks; it is meant to be
// called once per frame from the render loop.
type Watcher struct {
	fs   *fsnotify.Watcher
	path string
}

// NewWatcher starts watching path.
//
// Parameters:
//   - path: the config file to watch; its directory must exist
//
// Returns:
//   - *Watcher: the watcher
//   - error: an error if the watch could not be registered
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{fs: fsWatch, path: abs}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Poll drains pending file events without blocking. When the watched file was created, written
// or renamed into place since the last call, it is reloaded.
//
// Returns:
//   - Config: the reloaded configuration, valid only when changed is true and err is nil
//   - bool: true if the file changed
//   - error: a watcher error, or the load error of a changed file
func (w *Watcher) Poll() (Config, bool, error) {
	changed := false
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return Config{}, false, fmt.Errorf("config watcher closed")
			}
			if filepath.Clean(e.Name) == w.path && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				changed = true
			}
		case err, ok := <-w.fs.Errors:
			if ok && err != nil {
				return Config{}, false, err
			}
		default:
			if !changed {
				return Config{}, false, nil
			}
			cfg, err := Load(w.path)
			return cfg, true, err
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
