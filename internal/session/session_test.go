package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

func newVault(t *testing.T) string {
	t.Helper()
	vault := t.TempDir()
	_, err := config.Init(config.DefaultPath(vault))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(vault, "a.md"), []byte("- [ ] one\n- [x] two\n"), 0o644))
	return vault
}

func TestOpenScansVault(t *testing.T) {
	vault := newVault(t)
	s, err := Open(Options{Vault: vault})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 2, s.Tasks.Len())
	b, ok := s.Boards.ActiveBoard()
	require.True(t, ok)
	assert.Equal(t, config.DefaultBoardName, b.Name)
	assert.Equal(t, filepath.Join(vault, config.DefaultDir, "activity.jsonl"), s.Activity.Path())
}

func TestOpenMissingSettings(t *testing.T) {
	_, err := Open(Options{Vault: t.TempDir()})
	assert.ErrorIs(t, err, config.ErrNotFound)
}

func TestResolveVaultFromSettingsPath(t *testing.T) {
	vault := newVault(t)
	got, err := ResolveVault(Options{SettingsPath: config.DefaultPath(vault)})
	require.NoError(t, err)
	assert.Equal(t, vault, got)
}

func TestSavePersistsBothRegistries(t *testing.T) {
	vault := newVault(t)
	s, err := Open(Options{Vault: vault, Lock: true})
	require.NoError(t, err)

	b, _ := s.Boards.ActiveBoard()
	require.True(t, s.Boards.RenameBoard(b.ID, "Home"))
	_, ok := s.Tasks.TogglePin(task.ID{Path: "a.md", Line: 1})
	require.True(t, ok)
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	loaded, err := config.Load(config.DefaultPath(vault))
	require.NoError(t, err)
	assert.Equal(t, "Home", loaded.Boards[0].Name)
	assert.Equal(t, []string{"a.md:1"}, loaded.Pinned)
}

func TestWatchPicksUpNewDocuments(t *testing.T) {
	vault := newVault(t)
	s, err := Open(Options{Vault: vault, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Watch(t.Context()))
	require.NoError(t, s.Watch(t.Context()), "second call is a no-op")

	require.NoError(t, os.WriteFile(filepath.Join(vault, "b.md"), []byte("- [ ] three\n"), 0o644))
	assert.Eventually(t, func() bool { return s.Tasks.Len() == 3 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(vault, "a.md")))
	assert.Eventually(t, func() bool { return s.Tasks.Len() == 1 }, 2*time.Second, 20*time.Millisecond)
}
