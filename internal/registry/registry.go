// Package registry holds the canonical set of tasks parsed from a vault and
// keeps it in sync with document changes.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/checkboard/internal/bus"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/debounce"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// Unordered is the order index of tasks absent from the priority order.
const Unordered = math.MaxInt

// ErrStale reports that a task id no longer points at a task line. Rescan
// and retry, or give up.
var ErrStale = errors.New("stale task reference")

// ErrNotScanned is returned when a write targets a document that a rebuild
// would skip: not markdown, hidden, or outside the folder rules.
var ErrNotScanned = errors.New("document is not scanned for tasks")

// StaleError carries the id of a task that no longer points at a task line.
// It matches ErrStale.
type StaleError struct {
	ID task.ID
}

func (e *StaleError) Error() string { return e.ID.String() + ": " + ErrStale.Error() }

// Unwrap returns ErrStale.
func (e *StaleError) Unwrap() error { return ErrStale }

// EventKind says what caused a registry notification.
type EventKind int

// Event kinds.
const (
	Rescanned EventKind = iota
	Removed
	Rebuilt
	MetadataChanged
)

func (k EventKind) String() string {
	switch k {
	case Rescanned:
		return "rescanned"
	case Removed:
		return "removed"
	case Rebuilt:
		return "rebuilt"
	case MetadataChanged:
		return "metadata"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is published once per mutation. Paths lists the affected documents
// when known.
type Event struct {
	Kind  EventKind
	Paths []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithDebounce overrides the settings' debounce window.
func WithDebounce(d time.Duration) Option {
	return func(r *Registry) { r.delay = d }
}

// Registry owns every parsed task. Methods are safe for concurrent use;
// notifications are delivered after the registry lock is released.
type Registry struct {
	store    docstore.Store
	settings *config.Settings
	log      *slog.Logger
	delay    time.Duration

	mu     sync.RWMutex
	docs   map[string][]*task.Task
	byID   map[task.ID]*task.Task
	closed bool

	// wmu serializes write-backs so concurrent edits of one document do not
	// overwrite each other.
	wmu sync.Mutex

	events bus.Bus[Event]
	deb    *debounce.Debouncer
	unsub  func()
}

// New creates a registry over store. It subscribes to store events right
// away; call Rebuild to load the initial task set. The registry owns the
// global fields of settings (pins, priorities, archive, order) and mutates
// them under its lock.
func New(store docstore.Store, settings *config.Settings, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		settings: settings,
		docs:     make(map[string][]*task.Task),
		byID:     make(map[task.ID]*task.Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.delay <= 0 {
		r.delay = settings.DebounceDelay()
	}
	r.deb = debounce.New(r.delay, r.flush)
	r.unsub = store.Subscribe(docstore.Handler{
		OnCreate: r.HandleCreate,
		OnModify: r.HandleModify,
		OnDelete: r.HandleDelete,
		OnRename: r.HandleRename,
	})
	return r
}

// Subscribe registers fn for change notifications.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	return r.events.Subscribe(fn)
}

// Close cancels the pending debounce timer and the store subscription.
// Events arriving afterwards are ignored.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.deb.Stop()
	r.unsub()
}

// View runs fn with the registry read lock held, giving a consistent view of
// the settings it owns.
func (r *Registry) View(fn func(s *config.Settings)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.settings)
}

// RescanDocument replaces every task of path with the tasks parsed from
// content and publishes one notification.
func (r *Registry) RescanDocument(path, content string) {
	r.mu.Lock()
	r.replace(path, content)
	r.mu.Unlock()

	r.events.Publish(Event{Kind: Rescanned, Paths: []string{path}})
}

// RemoveDocument drops every task of path. A directory path drops every
// document below it.
func (r *Registry) RemoveDocument(path string) {
	r.mu.Lock()
	removed := r.remove(path)
	r.mu.Unlock()

	r.events.Publish(Event{Kind: Removed, Paths: removed})
}

// Rebuild rescans every document that passes the folder rules. Documents
// that cannot be read are logged and skipped.
func (r *Registry) Rebuild() error {
	docs, err := r.store.List()
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	r.mu.RLock()
	folders := r.settings.Folders
	r.mu.RUnlock()

	contents := make(map[string]string, len(docs))
	for _, path := range docs {
		if !folders.Allows(path) {
			continue
		}
		content, err := r.store.Read(path)
		if err != nil {
			r.log.Warn("skipping unreadable document", "path", path, "err", err)
			continue
		}
		contents[path] = content
	}

	r.mu.Lock()
	clear(r.docs)
	clear(r.byID)
	for path, content := range contents {
		r.replace(path, content)
	}
	count := len(r.byID)
	r.mu.Unlock()

	r.log.Debug("rebuilt task registry", "documents", len(contents), "tasks", count)
	r.events.Publish(Event{Kind: Rebuilt, Paths: slices.Sorted(maps.Keys(contents))})
	return nil
}

// HandleCreate enqueues a debounced rescan of a new document.
func (r *Registry) HandleCreate(path string) { r.enqueue(path) }

// HandleModify enqueues a debounced rescan of a changed document.
func (r *Registry) HandleModify(path string) { r.enqueue(path) }

// HandleDelete removes the document immediately and cancels any pending
// rescan of it.
func (r *Registry) HandleDelete(path string) {
	if r.isClosed() {
		return
	}
	r.deb.Remove(path)
	r.RemoveDocument(path)
}

// HandleRename removes the old path immediately and enqueues the new one.
func (r *Registry) HandleRename(oldPath, newPath string) {
	r.HandleDelete(oldPath)
	r.HandleCreate(newPath)
}

// FlushPending rescans queued documents now instead of waiting for the
// debounce window.
func (r *Registry) FlushPending() {
	r.deb.Flush()
}

func (r *Registry) enqueue(path string) {
	if r.isClosed() || !r.Scanned(path) {
		return
	}
	r.deb.Add(path)
}

// Scanned reports whether path is a document a rebuild would parse.
func (r *Registry) Scanned(path string) bool {
	if !docstore.Listed(path) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Folders.Allows(path)
}

// flush reads each pending document once and applies all of them under a
// single lock, followed by one aggregate notification.
func (r *Registry) flush(paths []string) {
	if r.isClosed() {
		return
	}
	contents := make(map[string]string, len(paths))
	var gone []string
	for _, path := range paths {
		content, err := r.store.Read(path)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			gone = append(gone, path)
		case err != nil:
			r.log.Warn("rescan failed", "path", path, "err", err)
		default:
			contents[path] = content
		}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	for path, content := range contents {
		r.replace(path, content)
	}
	for _, path := range gone {
		r.remove(path)
	}
	r.mu.Unlock()

	r.log.Debug("debounced rescan", "paths", paths)
	r.events.Publish(Event{Kind: Rescanned, Paths: paths})
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// replace must be called with mu held.
func (r *Registry) replace(path, content string) {
	for _, t := range r.docs[path] {
		delete(r.byID, t.ID)
	}
	tasks := task.Parse(path, content)
	for _, t := range tasks {
		r.applyMetadata(t)
		r.byID[t.ID] = t
	}
	if len(tasks) == 0 {
		delete(r.docs, path)
		return
	}
	r.docs[path] = tasks
}

// remove must be called with mu held.
func (r *Registry) remove(path string) []string {
	var removed []string
	prefix := strings.TrimSuffix(path, "/") + "/"
	for doc, tasks := range r.docs {
		if doc != path && !strings.HasPrefix(doc, prefix) {
			continue
		}
		for _, t := range tasks {
			delete(r.byID, t.ID)
		}
		delete(r.docs, doc)
		removed = append(removed, doc)
	}
	slices.Sort(removed)
	return removed
}

// applyMetadata copies the global flags for t from settings. Must be called
// with mu held.
func (r *Registry) applyMetadata(t *task.Task) {
	key := t.ID.String()
	t.Pinned = slices.Contains(r.settings.Pinned, key)
	t.Archived = slices.Contains(r.settings.Archived, key)
	t.Priority = r.settings.Priorities[key]
	t.OrderIndex = orderIndex(r.settings.PriorityOrder, key)
}

func orderIndex(order []string, key string) int {
	if i := slices.Index(order, key); i >= 0 {
		return i
	}
	return Unordered
}
