package preset

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Update is a reload attempt delivered by a Watcher.
type Update struct {
	File *File
	Err  error
}

// Watcher reloads a preset whenever it is written, created or renamed into
// place. It watches the parent directory because editors commonly replace
// files instead of writing them in place.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	updates chan Update
	done    chan struct{}
}

// Watch starts watching path.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating preset watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		updates: make(chan Update, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Updates delivers reloads. Only the latest pending update is kept.
func (w *Watcher) Updates() <-chan Update { return w.updates }

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			f, err := Load(w.path)
			w.publish(Update{File: f, Err: err})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.publish(Update{Err: fmt.Errorf("preset watcher: %w", err)})
		}
	}
}

// publish replaces any unread update so the frame loop only sees the newest.
func (w *Watcher) publish(u Update) {
	for {
		select {
		case w.updates <- u:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}
