package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

func init() { DisableColor() }

func sampleTask() *task.Task {
	due := date.New(2024, time.June, 9)
	return &task.Task{
		ID:       task.ID{Path: "notes/a.md", Line: 4},
		Text:     "ship it #work 📅 2024-06-09",
		Tags:     []string{"#work"},
		Due:      &due,
		Priority: config.PriorityHigh,
		Pinned:   true,
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatJSON, Detect(Flags{JSON: true, Compact: true}, "table"))
	assert.Equal(t, FormatCompact, Detect(Flags{Compact: true}, "json"))
	assert.Equal(t, FormatTable, Detect(Flags{Table: true}, "json"))
	assert.Equal(t, FormatJSON, Detect(Flags{}, "JSON"))
	assert.Equal(t, FormatCompact, Detect(Flags{}, "oneline"))
	assert.Equal(t, FormatTable, Detect(Flags{}, ""))
}

func TestFormatTaskLine(t *testing.T) {
	assert.Equal(t, "notes/a.md:4 [ ] !high * ship it (#work) due:2024-06-09", formatTaskLine(sampleTask()))

	done := &task.Task{ID: task.ID{Path: "b.md", Line: 1}, Text: "plain", Completed: true}
	assert.Equal(t, "b.md:1 [x] plain", formatTaskLine(done))
}

func TestTaskTable(t *testing.T) {
	var buf bytes.Buffer
	TaskTable(&buf, []*task.Task{sampleTask()})
	out := buf.String()
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "notes/a.md:4")
	assert.Contains(t, out, "* ship it")
	assert.Contains(t, out, "2024-06-09")
}

func TestOverviewCompact(t *testing.T) {
	var buf bytes.Buffer
	OverviewCompact(&buf, board.Overview{
		BoardName: "Tasks",
		Total:     5,
		Columns: []board.ColumnSummary{
			{Name: "To Do", Count: 4, WorkLimit: 3, OverLimit: true, Overdue: 1},
			{Name: "Done", Count: 1},
		},
	})
	assert.Equal(t, "Tasks (5 tasks)\n  To Do: 4/3 (over limit, 1 overdue)\n  Done: 1\n", buf.String())
}

func TestSourceExcerpt(t *testing.T) {
	content := "1\n2\n3\n4\n5\n6\n7\n8\n9"
	assert.Equal(t, "2\n3\n4\n5\n6\n7\n8\n", SourceExcerpt(content, 5))
	assert.Equal(t, "1\n2\n3\n4\n", SourceExcerpt(content, 1))
	assert.Empty(t, SourceExcerpt(content, 10))
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, ErrorResponse{Code: "STALE_REFERENCE", Error: "gone", Task: "a.md:1"})
	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "STALE_REFERENCE", resp["code"])
	assert.Equal(t, "a.md:1", resp["task"])
	assert.NotContains(t, resp, "details")
}
