package task

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/date"
)

const sample = `# Groceries

- [ ] buy milk #shop 📅 2024-05-01
  - [x] check fridge #home
  - [ ] skim or whole
* [X] call mom due::2024-05-02 #family #family
not a task
- [] broken
-[ ] also broken
    - [ ] deep child
- [ ] second root`

func TestParse(t *testing.T) {
	tasks := Parse("notes/list.md", sample)
	require.Len(t, tasks, 6)

	root := tasks[0]
	assert.Equal(t, ID{Path: "notes/list.md", Line: 3}, root.ID)
	assert.Equal(t, "buy milk #shop 📅 2024-05-01", root.Text)
	assert.False(t, root.Completed)
	assert.Equal(t, 0, root.Level)
	assert.Nil(t, root.Parent)
	require.NotNil(t, root.Due)
	assert.Equal(t, date.New(2024, time.May, 1), *root.Due)
	assert.Equal(t, []string{"#shop"}, root.Tags)

	child := tasks[1]
	assert.True(t, child.Completed)
	assert.Equal(t, 2, child.Indent)
	assert.Equal(t, 1, child.Level)
	require.NotNil(t, child.Parent)
	assert.Equal(t, root.ID, *child.Parent)

	sibling := tasks[2]
	require.NotNil(t, sibling.Parent)
	assert.Equal(t, root.ID, *sibling.Parent)

	star := tasks[3]
	assert.Equal(t, byte('*'), star.Marker)
	assert.True(t, star.Completed)
	assert.Nil(t, star.Parent)
	assert.Equal(t, []string{"#family", "#family"}, star.Tags)
	require.NotNil(t, star.Due)
	assert.Equal(t, "2024-05-02", star.Due.String())

	deep := tasks[4]
	assert.Equal(t, 10, deep.Line())
	assert.Equal(t, 2, deep.Level)
	require.NotNil(t, deep.Parent)
	assert.Equal(t, star.ID, *deep.Parent)

	assert.Nil(t, tasks[5].Parent)
	assert.Equal(t, 11, tasks[5].Line())
}

func TestParseDueMarkers(t *testing.T) {
	cases := map[string]string{
		"- [ ] a 📅2024-01-02":                  "2024-01-02",
		"- [ ] a 🗓 2024-01-03":                 "2024-01-03",
		"- [ ] a 🗓️2024-01-04":                 "2024-01-04",
		"- [ ] a due:2024-01-05":               "2024-01-05",
		"- [ ] a due:: 2024-01-06":             "2024-01-06",
		"- [ ] a due:2024-01-07 📅 2025-01-01": "2024-01-07",
	}
	for line, want := range cases {
		tasks := Parse("a.md", line)
		require.Len(t, tasks, 1, line)
		require.NotNil(t, tasks[0].Due, line)
		assert.Equal(t, want, tasks[0].Due.String(), line)
	}

	for _, line := range []string{
		"- [ ] no date",
		"- [ ] bad 📅 2024-02-30",
		"- [ ] plain 2024-01-01",
	} {
		tasks := Parse("a.md", line)
		require.Len(t, tasks, 1, line)
		assert.Nil(t, tasks[0].Due, line)
	}
}

func TestParseCRLF(t *testing.T) {
	tasks := Parse("a.md", "- [ ] one\r\n- [x] two\r\n")
	require.Len(t, tasks, 2)
	assert.Equal(t, "one", tasks[0].Text)
	assert.True(t, tasks[1].Completed)
}

func TestNewLine(t *testing.T) {
	due := date.New(2024, time.June, 1)
	line := NewLine("  write report ", []string{"work", "#q2", ""}, &due)
	assert.Equal(t, "- [ ] write report #work #q2 📅 2024-06-01", line)

	tasks := Parse("a.md", line)
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"#work", "#q2"}, tasks[0].Tags)
	assert.Equal(t, "write report", tasks[0].Description())
	require.NotNil(t, tasks[0].Due)
	assert.Equal(t, due, *tasks[0].Due)
}

func TestIdentityStableUnderTextEdit(t *testing.T) {
	before := Parse("a.md", "intro\n- [ ] draft\n- [ ] other")
	after := Parse("a.md", "intro\n- [ ] draft v2 #edited\n- [ ] other")
	require.Len(t, before, 2)
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[1].ID, after[1].ID)
}

func TestIdentityShiftsWhenLinesInserted(t *testing.T) {
	before := Parse("a.md", "- [ ] task")
	after := Parse("a.md", "new heading\n- [ ] task")
	assert.NotEqual(t, before[0].ID, after[0].ID)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("dir/c:weird.md:12")
	require.NoError(t, err)
	assert.Equal(t, ID{Path: "dir/c:weird.md", Line: 12}, id)
	assert.Equal(t, "dir/c:weird.md:12", id.String())

	for _, bad := range []string{"", "a.md", "a.md:", ":3", "a.md:x", "a.md:0"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestToggleLine(t *testing.T) {
	content := "# x\n  - [ ] a\r\n- [x] b\n"
	out, ok := ToggleLine(content, 2)
	require.True(t, ok)
	assert.Equal(t, "# x\n  - [x] a\r\n- [x] b\n", out)

	out, ok = ToggleLine(out, 3)
	require.True(t, ok)
	assert.Equal(t, "# x\n  - [x] a\r\n- [ ] b\n", out)

	_, ok = ToggleLine(content, 1)
	assert.False(t, ok)
	_, ok = ToggleLine(content, 99)
	assert.False(t, ok)
}

func TestToggleLineKeepsLayout(t *testing.T) {
	lines := map[string]string{
		"-   [X]   t":                    "-   [ ]   t",
		"\t* [ ]\tbuy milk #shop":         "\t* [x]\tbuy milk #shop",
		"  - [x] [ ] literal 📅 2024-05-01": "  - [ ] [ ] literal 📅 2024-05-01",
	}
	for in, want := range lines {
		out, ok := ToggleLine("# h\n"+in+"\n", 2)
		require.True(t, ok, in)
		assert.Equal(t, "# h\n"+want+"\n", out, in)

		back, ok := ToggleLine(out, 2)
		require.True(t, ok, in)
		assert.Equal(t, "# h\n"+strings.Replace(in, "[X]", "[x]", 1)+"\n", back, in)
	}
}

func TestDeleteAndAppendLine(t *testing.T) {
	out, removed, ok := DeleteLine("a\n- [ ] b\nc", 2)
	require.True(t, ok)
	assert.Equal(t, "a\nc", out)
	assert.Equal(t, "- [ ] b", removed)

	_, _, ok = DeleteLine("a\nb", 2)
	assert.False(t, ok)

	out, line := AppendLine("", "- [ ] x")
	assert.Equal(t, "- [ ] x\n", out)
	assert.Equal(t, 1, line)

	out, line = AppendLine("a\nb\n\n", "- [ ] x")
	assert.Equal(t, "a\nb\n- [ ] x\n", out)
	assert.Equal(t, 3, line)
}

func TestHasTagAndClone(t *testing.T) {
	tk := Parse("a.md", "- [ ] a #Work 📅 2024-01-01")[0]
	assert.True(t, tk.HasTag("work"))
	assert.True(t, tk.HasTag("#WORK"))
	assert.False(t, tk.HasTag("home"))

	c := tk.Clone()
	c.Tags[0] = "#other"
	*c.Due = c.Due.AddDays(1)
	assert.Equal(t, "#Work", tk.Tags[0])
	assert.Equal(t, "2024-01-01", tk.Due.String())
}
