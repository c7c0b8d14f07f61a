package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T, files map[string]string) *FSStore {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/vault", name), []byte(content), 0o644))
	}
	return New(fs, "/vault")
}

func TestList(t *testing.T) {
	s := newMemStore(t, map[string]string{
		"inbox.md":              "- [ ] a",
		"projects/alpha.md":     "- [ ] b",
		"projects/notes.txt":    "- [ ] ignored",
		".obsidian/plugin.md":   "- [ ] hidden",
		"archive/.trash/old.md": "- [ ] hidden too",
		"README.MD":             "upper-case extension",
	})

	docs, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.MD", "inbox.md", "projects/alpha.md"}, docs)
}

func TestListMissingVault(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/nowhere")
	docs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadWrite(t *testing.T) {
	s := newMemStore(t, nil)

	_, err := s.Read("missing.md")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Write("deep/dir/new.md", "- [ ] x\n"))
	got, err := s.Read("deep/dir/new.md")
	require.NoError(t, err)
	assert.Equal(t, "- [ ] x\n", got)
}

func TestWriteFailureIsWrapped(t *testing.T) {
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/vault")
	err := s.Write("a.md", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.md")
}

func TestRel(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/vault")
	rel, ok := s.Rel("/vault/a/b.md")
	assert.True(t, ok)
	assert.Equal(t, "a/b.md", rel)

	_, ok = s.Rel("/elsewhere/b.md")
	assert.False(t, ok)
	_, ok = s.Rel("/vault")
	assert.False(t, ok)
}

func TestSubscribeDispatch(t *testing.T) {
	s := newMemStore(t, nil)
	var got []string
	unsub := s.Subscribe(Handler{
		OnCreate: func(p string) { got = append(got, "create "+p) },
		OnModify: func(p string) { got = append(got, "modify "+p) },
		OnRename: func(o, n string) { got = append(got, "rename "+o+" "+n) },
	})

	s.Notify(Event{Op: Create, Path: "a.md"})
	s.Notify(Event{Op: Modify, Path: "a.md"})
	s.Notify(Event{Op: Delete, Path: "a.md"})
	s.Notify(Event{Op: Rename, OldPath: "a.md", Path: "b.md"})
	unsub()
	s.Notify(Event{Op: Create, Path: "c.md"})

	assert.Equal(t, []string{"create a.md", "modify a.md", "rename a.md b.md"}, got)
}

func TestNewOSWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	s := NewOS(dir)
	require.NoError(t, s.Write("sub/a.md", "- [ ] x"))

	data, err := os.ReadFile(filepath.Join(dir, "sub", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "- [ ] x", string(data))

	docs, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/a.md"}, docs)
}
