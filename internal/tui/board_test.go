package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

func newTestBoard(t *testing.T) (*Board, *session.Session, string) {
	t.Helper()
	vault := t.TempDir()
	_, err := config.Init(config.DefaultPath(vault))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(vault, "a.md"), []byte("- [ ] one #work\n- [ ] two\n"), 0o644))

	sess, err := session.Open(session.Options{Vault: vault})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	b := NewBoard(sess)
	b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return b, sess, vault
}

func press(b *Board, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		b.Update(msg)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBoardLoadsDefaultColumns(t *testing.T) {
	b, _, _ := newTestBoard(t)
	require.Len(t, b.columns, 3)
	assert.Equal(t, "To Do", b.columns[0].col.Name)
	assert.Len(t, b.columns[0].tasks, 2)
	assert.Empty(t, b.columns[2].tasks)

	view := b.View()
	assert.Contains(t, view, "To Do (2)")
	assert.Contains(t, view, "one")
	assert.Contains(t, view, "#work")
}

func TestNavigation(t *testing.T) {
	b, _, _ := newTestBoard(t)
	press(b, "j")
	assert.Equal(t, 1, b.activeRow)
	press(b, "j")
	assert.Equal(t, 1, b.activeRow, "stays on the last card")
	press(b, "l")
	assert.Equal(t, 1, b.activeCol)
	assert.Equal(t, 0, b.activeRow, "row clamps to the empty column")
	press(b, "h", "k")
	assert.Equal(t, 0, b.activeCol)
	assert.Equal(t, 0, b.activeRow)
}

func TestMoveAssignsToNextManualColumn(t *testing.T) {
	b, sess, vault := newTestBoard(t)
	id := b.selectedTask().ID

	press(b, "L")
	require.NoError(t, b.err)
	assert.Equal(t, 1, b.activeCol)
	require.NotNil(t, b.selectedTask())
	assert.Equal(t, id, b.selectedTask().ID)

	colID, ok := sess.Boards.ColumnOf(b.boardID, id)
	require.True(t, ok)
	assert.Equal(t, b.columns[1].col.ID, colID)

	// Done is a rule column, so moving right again is a no-op.
	press(b, "L")
	assert.Equal(t, 1, b.activeCol)

	saved, err := config.Load(config.DefaultPath(vault))
	require.NoError(t, err)
	assert.Equal(t, colID, saved.Boards[0].Assignments[id.String()])
}

func TestMoveRespectsWorkLimit(t *testing.T) {
	b, sess, _ := newTestBoard(t)
	require.True(t, sess.Boards.SetWorkLimit(b.boardID, b.columns[1].col.ID, 1))
	b.loadTasks()

	press(b, "L")
	require.NoError(t, b.err)
	press(b, "h", "L")
	require.Error(t, b.err)
	assert.Contains(t, b.View(), "Error:")
	assert.Len(t, b.columns[1].tasks, 1)
}

func TestToggleWritesDocument(t *testing.T) {
	b, _, vault := newTestBoard(t)
	press(b, "x")
	require.NoError(t, b.err)
	assert.Equal(t, "- [x] one #work\n- [ ] two\n", readFile(t, filepath.Join(vault, "a.md")))
	assert.Len(t, b.columns[2].tasks, 1)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b, _, vault := newTestBoard(t)
	press(b, "d")
	assert.Equal(t, viewConfirmDelete, b.view)
	assert.Contains(t, b.View(), "Delete task?")
	press(b, "n")
	assert.Equal(t, viewBoard, b.view)
	assert.Len(t, b.columns[0].tasks, 2)

	press(b, "j", "d", "y")
	assert.Equal(t, viewBoard, b.view)
	assert.Equal(t, "- [ ] one #work\n", readFile(t, filepath.Join(vault, "a.md")))
	assert.Len(t, b.columns[0].tasks, 1)
}

func TestAddTaskAppendsToSelectedDocument(t *testing.T) {
	b, sess, vault := newTestBoard(t)
	press(b, "n")
	assert.Equal(t, viewAdd, b.view)
	press(b, "three", "enter")
	assert.Equal(t, viewBoard, b.view)
	require.NoError(t, b.err)

	assert.Equal(t, "- [ ] one #work\n- [ ] two\n- [ ] three\n", readFile(t, filepath.Join(vault, "a.md")))
	colID, ok := sess.Boards.ColumnOf(b.boardID, task.ID{Path: "a.md", Line: 3})
	require.True(t, ok)
	assert.Equal(t, b.columns[0].col.ID, colID)
}

func TestAddTaskCancel(t *testing.T) {
	b, _, vault := newTestBoard(t)
	press(b, "n", "nope", "esc")
	assert.Equal(t, viewBoard, b.view)
	assert.Equal(t, "- [ ] one #work\n- [ ] two\n", readFile(t, filepath.Join(vault, "a.md")))
}

func TestPinAndPriority(t *testing.T) {
	b, sess, _ := newTestBoard(t)
	press(b, "j", "p")
	bd, _ := sess.Boards.Board(b.boardID)
	assert.Equal(t, []string{"a.md:2"}, bd.Pinned)
	assert.Equal(t, "a.md:2", b.columns[0].tasks[0].ID.String(), "pinned cards sort first")

	press(b, "1")
	bd, _ = sess.Boards.Board(b.boardID)
	assert.Equal(t, config.PriorityHigh, bd.Priorities["a.md:1"])
}

func TestHideEmpty(t *testing.T) {
	b, _, _ := newTestBoard(t)
	press(b, "e")
	require.Len(t, b.columns, 1)
	press(b, "e")
	assert.Len(t, b.columns, 3)
}

func TestDoubleClickToggles(t *testing.T) {
	b, _, vault := newTestBoard(t)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	b.SetNow(func() time.Time { return now })

	click := tea.MouseMsg{X: 2, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	b.Update(click)
	assert.Equal(t, "- [ ] one #work\n- [ ] two\n", readFile(t, filepath.Join(vault, "a.md")))

	now = now.Add(100 * time.Millisecond)
	b.Update(click)
	assert.Equal(t, "- [x] one #work\n- [ ] two\n", readFile(t, filepath.Join(vault, "a.md")))
}

func TestWrapTitle(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrapTitle("short", 10, 3))
	assert.Equal(t, []string{"one two", "three four"}, wrapTitle("one two three four", 10, 3))
	assert.Equal(t, []string{"one two", "three f..."}, wrapTitle("one two three four five", 10, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
