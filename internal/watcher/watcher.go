// Package watcher turns filesystem notifications under a vault directory
// into document store events.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
)

// Sink receives translated events. *docstore.FSStore implements it.
type Sink interface {
	Rel(abs string) (string, bool)
	Notify(ev docstore.Event)
}

// Watcher recursively watches a vault and forwards changes to markdown
// documents to a Sink. Debouncing is left to the consumer.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string
	sink Sink
	log  *slog.Logger
}

// New creates a Watcher over root and every non-hidden directory below it.
func New(root string, sink Sink, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{fsw: fsw, root: filepath.Clean(root), sink: sink, log: log}
	if err := w.addRecursive(w.root, false); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run starts the watch loop. It blocks until the context is canceled.
// Errors from the underlying watcher are passed to the optional errFn callback.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, ok := w.sink.Rel(event.Name)
	if !ok || hiddenPath(rel) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A directory moved into the vault arrives as a single create.
			if err := w.addRecursive(event.Name, true); err != nil {
				w.log.Warn("watching new directory", "path", rel, "err", err)
			}
			return
		}
		w.emit(docstore.Create, rel)
	case event.Op&fsnotify.Write != 0:
		w.emit(docstore.Modify, rel)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// fsnotify reports the old name of a rename; the new name arrives as
		// a separate create. Directory removals are forwarded too so the
		// consumer can drop every document below them.
		w.log.Debug("document removed", "path", rel)
		w.sink.Notify(docstore.Event{Op: docstore.Delete, Path: rel})
	}
}

func (w *Watcher) emit(op docstore.Op, rel string) {
	if !docstore.IsDocument(rel) {
		return
	}
	w.log.Debug("document changed", "op", op.String(), "path", rel)
	w.sink.Notify(docstore.Event{Op: op, Path: rel})
}

func (w *Watcher) addRecursive(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if announce {
				if rel, ok := w.sink.Rel(p); ok {
					w.emit(docstore.Create, rel)
				}
			}
			return nil
		}
		if p != w.root && docstore.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func hiddenPath(rel string) bool {
	for part := range strings.SplitSeq(rel, "/") {
		if docstore.IsHidden(part) {
			return true
		}
	}
	return false
}
