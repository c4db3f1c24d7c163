package main

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/baxromumarov/pace/chanx"
)

// watcher adds directories to an fsnotify watcher and, when recursive,
// follows directories created below them.
type watcher struct {
	fs        *fsnotify.Watcher
	recursive bool
}

func (w *watcher) add(dir string) error {
	if !w.recursive {
		return w.fs.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fs.Add(path); err != nil {
				log.Printf("Warning: could not watch %s: %v", path, err)
			}
		}
		return nil
	})
}

// relevant reports whether e changes content. A created directory is
// added to the watch list first when recursive.
func (w *watcher) relevant(e fsnotify.Event) bool {
	if e.Op == fsnotify.Chmod {
		return false
	}
	if w.recursive && e.Has(fsnotify.Create) {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			if err := w.add(e.Name); err != nil {
				log.Printf("Warning: could not watch %s: %v", e.Name, err)
			}
		}
	}
	return true
}

// changes turns raw events into one batch of distinct paths per burst.
// A burst ends once no event arrived for d.
func changes(ctx context.Context, events <-chan fsnotify.Event, keep func(fsnotify.Event) bool, d time.Duration) <-chan []string {
	kept := chanx.Filter(ctx, events, keep)
	paths := chanx.Map(ctx, kept, func(e fsnotify.Event) string { return e.Name })
	return chanx.Compact(ctx, chanx.DebounceBatch(ctx, paths, d))
}
