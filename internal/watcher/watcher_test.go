package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
)

type recordingSink struct {
	*docstore.FSStore
	mu     sync.Mutex
	events []docstore.Event
}

func (r *recordingSink) Notify(ev docstore.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) has(op docstore.Op, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, docstore.Event{Op: op, Path: path})
}

func startWatcher(t *testing.T) (string, *recordingSink) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".obsidian"), 0o755))

	sink := &recordingSink{FSStore: docstore.NewOS(dir)}
	w, err := New(dir, sink, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx, nil)
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	return dir, sink
}

func TestWatcherForwardsDocumentEvents(t *testing.T) {
	dir, sink := startWatcher(t)
	file := filepath.Join(dir, "notes", "todo.md")

	require.NoError(t, os.WriteFile(file, []byte("- [ ] a"), 0o644))
	assert.Eventually(t, func() bool { return sink.has(docstore.Create, "notes/todo.md") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(file, []byte("- [x] a"), 0o644))
	assert.Eventually(t, func() bool { return sink.has(docstore.Modify, "notes/todo.md") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Rename(file, filepath.Join(dir, "done.md")))
	assert.Eventually(t, func() bool {
		return sink.has(docstore.Delete, "notes/todo.md") && sink.has(docstore.Create, "done.md")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir, sink := startWatcher(t)

	sub := filepath.Join(dir, "projects")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "p.md"), []byte("- [ ] p"), 0o644))

	assert.Eventually(t, func() bool { return sink.has(docstore.Create, "projects/p.md") }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresHiddenAndNonDocuments(t *testing.T) {
	dir, sink := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".obsidian", "cfg.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.md"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return sink.has(docstore.Create, "marker.md") }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, sink.has(docstore.Create, ".obsidian/cfg.md"))
	assert.False(t, sink.has(docstore.Create, "image.png"))
}
