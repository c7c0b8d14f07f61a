package registry

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// countingStore counts reads per document.
type countingStore struct {
	*docstore.FSStore
	mu    sync.Mutex
	reads map[string]int
}

func (c *countingStore) Read(path string) (string, error) {
	c.mu.Lock()
	c.reads[path]++
	c.mu.Unlock()
	return c.FSStore.Read(path)
}

func (c *countingStore) readsOf(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[path]
}

type fixture struct {
	fs       afero.Fs
	store    *countingStore
	settings *config.Settings
	reg      *Registry

	mu     sync.Mutex
	events []Event
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/vault", name), []byte(content), 0o644))
	}
	f := &fixture{
		fs:       fs,
		store:    &countingStore{FSStore: docstore.New(fs, "/vault"), reads: map[string]int{}},
		settings: config.NewDefault(),
	}
	f.reg = New(f.store, f.settings, WithDebounce(20*time.Millisecond))
	t.Cleanup(f.reg.Close)
	require.NoError(t, f.reg.Rebuild())
	f.reg.Subscribe(func(ev Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	return f
}

func (f *fixture) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join("/vault", name), []byte(content), 0o644))
}

func texts(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func id(path string, line int) task.ID { return task.ID{Path: path, Line: line} }

func TestRebuildHonoursFolderRules(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/vault/work/a.md", []byte("- [ ] work"), 0o644)
	_ = afero.WriteFile(fs, "/vault/work/old/b.md", []byte("- [ ] old"), 0o644)
	_ = afero.WriteFile(fs, "/vault/home.md", []byte("- [ ] home"), 0o644)

	settings := config.NewDefault()
	settings.Folders = config.Folders{Include: []string{"work"}, Exclude: []string{"work/old"}}
	reg := New(docstore.New(fs, "/vault"), settings)
	defer reg.Close()

	require.NoError(t, reg.Rebuild())
	assert.Equal(t, []string{"work"}, texts(reg.Query(QueryOptions{})))
	assert.Equal(t, []string{"work/a.md"}, reg.Documents())
}

func TestIdentityStableUnderTextEdit(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# list\n- [ ] draft\n- [ ] keep"})
	before, ok := f.reg.Get(id("a.md", 2))
	require.True(t, ok)

	f.reg.RescanDocument("a.md", "# list\n- [ ] draft, now longer #tag\n- [ ] keep")
	after, ok := f.reg.Get(id("a.md", 2))
	require.True(t, ok)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "draft, now longer #tag", after.Text)
}

func TestRescanIsAtomic(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":     "- [ ] A\n- [ ] B\n- [ ] C",
		"other.md": "- [ ] untouched",
	})

	var seen []int
	f.reg.Subscribe(func(Event) { seen = append(seen, f.reg.Len()) })

	f.reg.RescanDocument("a.md", "- [ ] A edited\n\n\n- [ ] D")

	assert.Equal(t, []int{3}, seen, "exactly one notification with the final state")
	a, ok := f.reg.Get(id("a.md", 1))
	require.True(t, ok)
	assert.Equal(t, "A edited", a.Text)

	d, ok := f.reg.Get(id("a.md", 4))
	require.True(t, ok)
	assert.Equal(t, "D", d.Text)

	_, ok = f.reg.Get(id("a.md", 2))
	assert.False(t, ok)
	_, ok = f.reg.Get(id("a.md", 3))
	assert.False(t, ok)
	assert.NotContains(t, texts(f.reg.Query(QueryOptions{})), "B")
	assert.Contains(t, texts(f.reg.Query(QueryOptions{})), "untouched")
}

func TestRemoveDocument(t *testing.T) {
	f := newFixture(t, map[string]string{
		"dir/a.md": "- [ ] a",
		"dir/b.md": "- [ ] b",
		"c.md":     "- [ ] c",
	})
	f.reg.RemoveDocument("dir")
	assert.Equal(t, []string{"c.md"}, f.reg.Documents())
	assert.Equal(t, 1, f.eventCount())
}

func TestFindDuplicates(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "- [ ] Buy Milk\n- [ ] unique one\n- [ ] ",
		"b.md": "- [x]   buy   milk  \n- [ ] other",
		"c.md": "- [ ] OTHER\n* [ ]  ",
	})
	groups := f.reg.FindDuplicates()
	require.Len(t, groups, 3)

	assert.Equal(t, []task.ID{id("a.md", 1), id("b.md", 1)}, []task.ID{groups[0][0].ID, groups[0][1].ID})
	assert.Equal(t, []task.ID{id("a.md", 3), id("c.md", 2)}, []task.ID{groups[1][0].ID, groups[1][1].ID})
	assert.Equal(t, []task.ID{id("b.md", 2), id("c.md", 1)}, []task.ID{groups[2][0].ID, groups[2][1].ID})

	for _, g := range groups {
		for _, tk := range g {
			assert.NotEqual(t, "unique one", tk.Text)
		}
	}
}

func TestDebounceCoalescesModifyEvents(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] v0"})
	readsBefore := f.store.readsOf("a.md")

	for i := 1; i <= 5; i++ {
		f.write(t, "a.md", "- [ ] v"+string(rune('0'+i)))
		f.store.Notify(docstore.Event{Op: docstore.Modify, Path: "a.md"})
	}

	require.Eventually(t, func() bool { return f.eventCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, f.eventCount())
	assert.Equal(t, 1, f.store.readsOf("a.md")-readsBefore)
	got, ok := f.reg.Get(id("a.md", 1))
	require.True(t, ok)
	assert.Equal(t, "v5", got.Text)
}

func TestDeleteEventsApplyImmediately(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] a", "b.md": "- [ ] b"})

	f.store.Notify(docstore.Event{Op: docstore.Modify, Path: "a.md"})
	f.store.Notify(docstore.Event{Op: docstore.Delete, Path: "a.md"})

	assert.Equal(t, []string{"b.md"}, f.reg.Documents())
	assert.Equal(t, 1, f.eventCount())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, f.eventCount(), "pending rescan of the deleted path is dropped")
}

func TestRenameEvent(t *testing.T) {
	f := newFixture(t, map[string]string{"old.md": "- [ ] moving"})
	require.NoError(t, f.fs.Rename("/vault/old.md", "/vault/new.md"))

	f.store.Notify(docstore.Event{Op: docstore.Rename, OldPath: "old.md", Path: "new.md"})
	assert.Empty(t, f.reg.Documents(), "old path removed before the debounce fires")

	require.Eventually(t, func() bool {
		_, ok := f.reg.Get(id("new.md", 1))
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestIgnoresNonDocumentsAndExcludedFolders(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.Folders.Exclude = []string{"private"}
	f.write(t, "private/x.md", "- [ ] secret")
	f.write(t, "notes.txt", "- [ ] text")

	f.store.Notify(docstore.Event{Op: docstore.Create, Path: "private/x.md"})
	f.store.Notify(docstore.Event{Op: docstore.Create, Path: "notes.txt"})
	f.reg.FlushPending()

	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, 0, f.eventCount())
}

func TestCloseCancelsPendingRescan(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] a"})
	f.write(t, "a.md", "- [ ] changed")
	f.store.Notify(docstore.Event{Op: docstore.Modify, Path: "a.md"})
	f.reg.Close()

	time.Sleep(60 * time.Millisecond)
	f.store.Notify(docstore.Event{Op: docstore.Delete, Path: "a.md"})

	got, ok := f.reg.Get(id("a.md", 1))
	require.True(t, ok)
	assert.Equal(t, "a", got.Text)
	assert.Equal(t, 0, f.eventCount())
}

func TestUpdatePriorities(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] X\n- [ ] Y\n- [ ] Z"})
	x, y, z := id("a.md", 1), id("a.md", 2), id("a.md", 3)

	f.reg.UpdatePriorities([]task.ID{z, x})
	assert.Equal(t, []string{"Z", "X", "Y"}, texts(f.reg.Query(QueryOptions{})))

	got, _ := f.reg.Get(y)
	assert.Equal(t, Unordered, got.OrderIndex)
	assert.Equal(t, []string{"a.md:3", "a.md:1"}, f.settings.PriorityOrder)
	assert.Equal(t, []task.ID{z, x}, f.reg.PriorityOrder())

	// Order survives a rescan because it is looked up from settings.
	f.reg.RescanDocument("a.md", "- [ ] X\n- [ ] Y\n- [ ] Z")
	assert.Equal(t, []string{"Z", "X", "Y"}, texts(f.reg.Query(QueryOptions{})))
}

func TestPinnedSortFirst(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] X\n- [ ] Y\n- [ ] Z"})
	f.reg.UpdatePriorities([]task.ID{id("a.md", 1), id("a.md", 2)})

	pinned, ok := f.reg.TogglePin(id("a.md", 3))
	require.True(t, ok)
	assert.True(t, pinned)
	assert.Equal(t, []string{"Z", "X", "Y"}, texts(f.reg.Query(QueryOptions{})))

	pinned, ok = f.reg.TogglePin(id("a.md", 3))
	require.True(t, ok)
	assert.False(t, pinned)
	assert.Empty(t, f.settings.Pinned)

	_, ok = f.reg.TogglePin(id("a.md", 99))
	assert.False(t, ok)
}

func TestSubTaskProgress(t *testing.T) {
	doc := "- [ ] parent\n  - [x] one\n  - [ ] two\n  - [ ] three\n- [ ] sibling\n  - [ ] s1"
	f := newFixture(t, map[string]string{"a.md": doc})
	parent, sibling := id("a.md", 1), id("a.md", 5)

	assert.Equal(t, task.Progress{Completed: 1, Total: 3}, f.reg.SubTaskProgress(parent))
	assert.Len(t, f.reg.SubTasks(parent), 3)

	require.NoError(t, f.reg.Toggle(id("a.md", 3)))
	assert.Equal(t, task.Progress{Completed: 2, Total: 3}, f.reg.SubTaskProgress(parent))
	assert.Equal(t, task.Progress{Completed: 0, Total: 1}, f.reg.SubTaskProgress(sibling))
}

func TestGlobalMetadata(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] a\n- [ ] b"})
	a := id("a.md", 1)

	assert.True(t, f.reg.SetPriority(a, config.PriorityHigh))
	got, _ := f.reg.Get(a)
	assert.Equal(t, 1, got.Priority)
	assert.Equal(t, 1, f.settings.Priorities["a.md:1"])

	assert.False(t, f.reg.SetPriority(a, 7))
	assert.False(t, f.reg.SetPriority(id("a.md", 9), 2))
	assert.True(t, f.reg.SetPriority(a, config.PriorityNone))
	assert.NotContains(t, f.settings.Priorities, "a.md:1")

	assert.True(t, f.reg.Archive(a))
	assert.False(t, f.reg.Archive(a))
	assert.Equal(t, []string{"b"}, texts(f.reg.Query(QueryOptions{})))
	assert.Equal(t, []string{"a"}, texts(f.reg.Query(QueryOptions{ArchivedOnly: true})))
	assert.Len(t, f.reg.Query(QueryOptions{IncludeArchived: true}), 2)

	assert.True(t, f.reg.Unarchive(a))
	assert.False(t, f.reg.Unarchive(a))
	assert.Len(t, f.reg.Query(QueryOptions{}), 2)
}

func TestQueryFilters(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [x] done #work\n- [ ] open #home\n- [ ] plain"})

	f.settings.HideCompleted = true
	assert.Equal(t, []string{"open #home", "plain"}, texts(f.reg.Query(QueryOptions{})))
	assert.Len(t, f.reg.Query(QueryOptions{Unfiltered: true}), 3)

	f.settings.HideCompleted = false
	f.settings.TagFilter = []string{"work", "home"}
	assert.Equal(t, []string{"done #work", "open #home"}, texts(f.reg.Query(QueryOptions{})))
	assert.Equal(t, []string{"open #home"}, texts(f.reg.Query(QueryOptions{Tags: []string{"#HOME"}})))
}

func TestSearch(t *testing.T) {
	f := newFixture(t, map[string]string{
		"Projects/Alpha.md": "- [ ] write docs",
		"b.md":              "- [ ] Review DOCS\n- [ ] lunch",
	})
	assert.Equal(t, []string{"write docs", "Review DOCS"}, texts(f.reg.Search("docs", QueryOptions{})))
	assert.Equal(t, []string{"write docs"}, texts(f.reg.Search("alpha", QueryOptions{})))
	assert.Len(t, f.reg.Search("  ", QueryOptions{}), 3)
}

func TestAllTags(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "- [ ] x #b #a #b",
		"b.md": "- [ ] y #c #a",
	})
	assert.Equal(t, []string{"#b", "#a", "#c"}, f.reg.AllTags())
}

func TestWriteBackStale(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "heading\n- [ ] a"})

	assert.ErrorIs(t, f.reg.Toggle(id("a.md", 1)), ErrStale)
	assert.ErrorIs(t, f.reg.Toggle(id("a.md", 40)), ErrStale)
	assert.ErrorIs(t, f.reg.Delete(id("missing.md", 1)), ErrStale)
	_, err := f.reg.Move(id("a.md", 1), "b.md")
	assert.ErrorIs(t, err, ErrStale)

	content, err := f.store.FSStore.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "heading\n- [ ] a", content, "stale operations never touch the document")
}

func TestWriteBackFailureIsReported(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/vault/a.md", []byte("- [ ] a"), 0o644))
	reg := New(docstore.New(afero.NewReadOnlyFs(base), "/vault"), config.NewDefault())
	defer reg.Close()
	require.NoError(t, reg.Rebuild())

	err := reg.Toggle(id("a.md", 1))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStale))

	got, _ := reg.Get(id("a.md", 1))
	assert.False(t, got.Completed)
}

func TestToggleAndDelete(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] a\n- [ ] b"})

	require.NoError(t, f.reg.Toggle(id("a.md", 1)))
	got, _ := f.reg.Get(id("a.md", 1))
	assert.True(t, got.Completed)

	require.NoError(t, f.reg.Delete(id("a.md", 1)))
	content, _ := f.store.FSStore.Read("a.md")
	assert.Equal(t, "- [ ] b", content)
	assert.Equal(t, []string{"b"}, texts(f.reg.Query(QueryOptions{})))
}

func TestMoveAndAdd(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "- [ ] parent\n  - [ ] child\n- [ ] last",
		"b.md": "# B\n",
	})

	newID, err := f.reg.Move(id("a.md", 2), "b.md")
	require.NoError(t, err)
	assert.Equal(t, id("b.md", 2), newID)

	moved, ok := f.reg.Get(newID)
	require.True(t, ok)
	assert.Equal(t, "child", moved.Text)
	assert.Equal(t, 0, moved.Level)

	content, _ := f.store.FSStore.Read("a.md")
	assert.Equal(t, "- [ ] parent\n- [ ] last", content)

	newID, err = f.reg.Move(id("a.md", 1), "fresh/c.md")
	require.NoError(t, err)
	assert.Equal(t, id("fresh/c.md", 1), newID)

	added, err := f.reg.Add("b.md", task.NewLine("new one", []string{"x"}, nil))
	require.NoError(t, err)
	assert.Equal(t, id("b.md", 3), added)
	got, ok := f.reg.Get(added)
	require.True(t, ok)
	assert.Equal(t, []string{"#x"}, got.Tags)

	_, err = f.reg.Add("b.md", "just prose")
	assert.ErrorIs(t, err, ErrNotTaskLine)
}

func TestWritesStayInScannedDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "- [ ] keep me"})
	f.settings.Folders.Exclude = []string{"archive"}

	for _, dest := range []string{"notes.txt", "archive/old.md", ".hidden/x.md"} {
		_, err := f.reg.Move(id("a.md", 1), dest)
		assert.ErrorIs(t, err, ErrNotScanned, dest)
		_, err = f.reg.Add(dest, "- [ ] new")
		assert.ErrorIs(t, err, ErrNotScanned, dest)

		_, err = f.fs.Stat(filepath.Join("/vault", dest))
		assert.True(t, os.IsNotExist(err), "%s must not be written", dest)
	}

	content, _ := f.store.FSStore.Read("a.md")
	assert.Equal(t, "- [ ] keep me", content)
	require.NoError(t, f.reg.Rebuild())
	_, ok := f.reg.Get(id("a.md", 1))
	assert.True(t, ok)
}

func TestStaleErrorCarriesID(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "prose"})

	err := f.reg.Toggle(id("a.md", 1))
	var stale *StaleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, id("a.md", 1), stale.ID)
	assert.ErrorIs(t, err, ErrStale)

	err = f.reg.Delete(id("gone.md", 2))
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, id("gone.md", 2), stale.ID)
}
