package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
)

func TestParseEmptyBlob(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, s.Version)
	assert.Equal(t, DefaultDebounce, s.Debounce)
	assert.Equal(t, 150*time.Millisecond, s.DebounceDelay())
	require.Len(t, s.Boards, 1)
	assert.Equal(t, s.Boards[0].ID, s.ActiveBoard)

	cols := s.Boards[0].Columns
	require.Len(t, cols, 3)
	assert.Equal(t, []ColumnType{Manual, Manual, Completed}, []ColumnType{cols[0].Type, cols[1].Type, cols[2].Type})
	assert.NotEmpty(t, cols[0].ID)
	assert.NotEqual(t, cols[0].ID, cols[1].ID)
}

func TestParseMissingFieldsDefault(t *testing.T) {
	s, err := Parse([]byte("version: 3\nhide_completed: true\n"))
	require.NoError(t, err)
	assert.True(t, s.HideCompleted)
	assert.Empty(t, s.Boards)
	assert.Empty(t, s.ActiveBoard)
	assert.NotNil(t, s.Priorities)
	assert.Equal(t, DefaultDebounce, s.Debounce)
}

func TestMigrateNormalizesColumns(t *testing.T) {
	blob := `
version: 2
boards:
  - id: b1
    name: Work
    columns:
      - {id: c1, name: Inbox, type: kanban}
      - {id: c2, name: Soon, type: dated, date_from: 7, date_to: 2}
      - {id: c3, name: Done, type: completed, date_from: 4}
      - {id: c4, name: Tagged, type: namedTag}
`
	s, err := Parse([]byte(blob))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, s.Version)
	assert.True(t, s.migrated)

	cols := s.Boards[0].Columns
	assert.Equal(t, Manual, cols[0].Type)
	assert.Equal(t, Dated, cols[1].Type)
	assert.Equal(t, 2, cols[1].DateFrom)
	assert.Equal(t, 7, cols[1].DateTo)
	assert.Equal(t, 0, cols[2].DateFrom)
	assert.Equal(t, Manual, cols[3].Type)
	assert.Equal(t, "b1", s.ActiveBoard)
}

func TestParseRejectsNewerVersion(t *testing.T) {
	_, err := Parse([]byte("version: 99\n"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		s := NewDefault()
		return s
	}

	s := valid()
	require.NoError(t, s.Validate())

	s = valid()
	s.Priorities["a.md:1"] = 4
	assert.True(t, errors.Is(s.Validate(), ErrInvalid))

	s = valid()
	s.Boards[0].Columns[0].Type = Dated
	s.Boards[0].Columns[0].DateFrom = 3
	s.Boards[0].Columns[0].DateTo = 1
	assert.True(t, errors.Is(s.Validate(), ErrInvalid))

	s = valid()
	s.Boards[0].Columns[0].WorkLimit = -1
	assert.True(t, errors.Is(s.Validate(), ErrInvalid))

	s = valid()
	s.Boards[0].Columns[1].ID = s.Boards[0].Columns[0].ID
	assert.ErrorContains(t, s.Validate(), "duplicate column id")

	s = valid()
	s.Boards[0].Columns[0].Sort = &SortConfig{By: "colour"}
	assert.ErrorContains(t, s.Validate(), "must be one of")

	s = valid()
	s.Debounce = "soon"
	assert.True(t, errors.Is(s.Validate(), ErrInvalid))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := DefaultPath(t.TempDir())
	s, err := Init(path)
	require.NoError(t, err)

	s.HideCompleted = true
	s.Pinned = []string{"notes/a.md:3"}
	s.Priorities["notes/a.md:3"] = PriorityHigh
	s.Boards[0].Assignments["notes/a.md:3"] = s.Boards[0].Columns[1].ID
	s.Boards[0].Columns[0].Filter = &ColumnFilter{Completion: CompletionIncomplete, Tags: []string{"#work"}}
	require.NoError(t, s.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Path())
	assert.True(t, loaded.HideCompleted)
	assert.Equal(t, s.Pinned, loaded.Pinned)
	assert.Equal(t, s.Priorities, loaded.Priorities)
	assert.Equal(t, s.Boards[0].Assignments, loaded.Boards[0].Assignments)
	assert.Equal(t, s.Boards[0].Columns[0].Filter, loaded.Boards[0].Columns[0].Filter)

	_, err = Init(path)
	var cliErr *clierr.Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierr.SettingsExist, cliErr.Code)
}

func TestLoadMigratesAndPersists(t *testing.T) {
	path := DefaultPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("hide_completed: true\n"), 0o600))

	_, err := Load(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 3")
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindVault(t *testing.T) {
	vault := t.TempDir()
	_, err := Init(DefaultPath(vault))
	require.NoError(t, err)

	nested := filepath.Join(vault, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	found, err := FindVault(nested)
	require.NoError(t, err)
	assert.Equal(t, vault, found)
}

func TestFoldersAllows(t *testing.T) {
	f := Folders{Include: []string{"work/", "personal"}, Exclude: []string{"work/archive", ""}}
	assert.True(t, f.Allows("work/todo.md"))
	assert.True(t, f.Allows("personal/x/y.md"))
	assert.False(t, f.Allows("work/archive/old.md"))
	assert.False(t, f.Allows("workshop/a.md"))
	assert.False(t, f.Allows("inbox.md"))

	assert.True(t, Folders{}.Allows("anything.md"))
}

func TestTagAllowed(t *testing.T) {
	s := &Settings{}
	assert.True(t, s.TagAllowed(nil))

	s.TagFilter = []string{"work", "#Home"}
	assert.True(t, s.TagAllowed([]string{"#home"}))
	assert.True(t, s.TagAllowed([]string{"#x", "#Work"}))
	assert.False(t, s.TagAllowed([]string{"#other"}))
	assert.False(t, s.TagAllowed(nil))
}

func TestFindBoardAndColumn(t *testing.T) {
	s := NewDefault()
	s.Boards = append(s.Boards, NewBoard("Personal"))
	b := s.FindBoard("personal")
	require.NotNil(t, b)
	assert.Equal(t, "Personal", b.Name)
	assert.Same(t, b, s.FindBoard(b.ID[:8]))
	assert.Nil(t, s.FindBoard("nope"))

	col := b.FindColumn("done")
	require.NotNil(t, col)
	assert.Equal(t, Completed, col.Type)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewDefault()
	s.Pinned = []string{"a.md:1"}
	c := s.Clone()
	c.Pinned[0] = "b.md:1"
	c.Boards[0].Columns[0].Name = "changed"
	c.Boards[0].Assignments["x"] = "y"

	assert.Equal(t, "a.md:1", s.Pinned[0])
	assert.Equal(t, "To Do", s.Boards[0].Columns[0].Name)
	assert.Empty(t, s.Boards[0].Assignments)
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]int{"high": 1, "2": 2, "low": 3, "none": 0} {
		got, ok := ParsePriority(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParsePriority("urgent")
	assert.False(t, ok)
}

func TestLock(t *testing.T) {
	path := DefaultPath(t.TempDir())
	unlock, err := Lock(path)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
