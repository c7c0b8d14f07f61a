package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, d Detail) {
	line := formatTaskLine(d.Task)
	if d.Progress.Total > 0 {
		line += " sub:" + strconv.Itoa(d.Progress.Completed) + "/" + strconv.Itoa(d.Progress.Total)
	}
	fmt.Fprintln(w, line)
	if d.Task.Parent != nil {
		fmt.Fprintln(w, "  parent:"+d.Task.Parent.String())
	}
	for _, p := range d.Placements {
		fmt.Fprintln(w, "  board:"+p.Board+"/"+p.Column)
	}
}

// BoardCompact renders a board as one line per task prefixed by its column.
func BoardCompact(w io.Writer, b config.Board, columns []board.ColumnView) {
	fmt.Fprintln(w, b.Name)
	for _, v := range columns {
		fmt.Fprintf(w, "%s (%d)\n", v.Column.Name, len(v.Tasks))
		for _, t := range v.Tasks {
			fmt.Fprintln(w, "  "+formatTaskLine(t))
		}
	}
}

// BoardsCompact lists boards one per line.
func BoardsCompact(w io.Writer, boards []config.Board, active string) {
	for _, b := range boards {
		line := ShortID(b.ID) + " " + b.Name + " (" + strconv.Itoa(len(b.Columns)) + " columns)"
		if b.ID == active {
			line += " active"
		}
		fmt.Fprintln(w, line)
	}
}

// OverviewCompact renders a board summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d tasks)\n", s.BoardName, s.Total)

	for _, cs := range s.Columns {
		line := "  " + cs.Name + ": " + strconv.Itoa(cs.Count)
		if cs.WorkLimit > 0 {
			line += "/" + strconv.Itoa(cs.WorkLimit)
		}
		var annotations []string
		if cs.OverLimit {
			annotations = append(annotations, "over limit")
		}
		if cs.Overdue > 0 {
			annotations = append(annotations, strconv.Itoa(cs.Overdue)+" overdue")
		}
		if len(annotations) > 0 {
			line += " (" + strings.Join(annotations, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// GroupedCompact renders grouped tasks, one header line per group.
func GroupedCompact(w io.Writer, gs board.GroupedSummary) {
	for _, g := range gs.Groups {
		fmt.Fprintf(w, "%s: %d open, %d done\n", g.Key, g.Open, g.Done)
		for _, t := range g.Tasks {
			fmt.Fprintln(w, "  "+formatTaskLine(t))
		}
	}
}

// DuplicatesCompact prints each duplicate group on one line.
func DuplicatesCompact(w io.Writer, groups [][]*task.Task) {
	for _, g := range groups {
		ids := make([]string, len(g))
		for i, t := range g {
			ids[i] = t.ID.String()
		}
		fmt.Fprintf(w, "%s: %s\n", g[0].Description(), strings.Join(ids, " "))
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	line := t.ID.String() + " " + mark
	if t.Priority != config.PriorityNone {
		line += " !" + PriorityName(t.Priority)
	}
	if t.Pinned {
		line += " *"
	}
	line += " " + t.Description()

	if len(t.Tags) > 0 {
		line += " (" + strings.Join(t.Tags, ", ") + ")"
	}
	if t.Due != nil {
		line += " due:" + t.Due.String()
	}

	return line
}
