package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Priority colors matching TUI priority palette.
	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	tagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	pinStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)

	colorEnabled = true
)

// ColorEnabled reports whether styled output is on.
func ColorEnabled() bool { return colorEnabled }

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, prioW, textW, tagsW := 4, 10, 6, 6
	for _, t := range tasks {
		idW = max(idW, len(t.ID.String())+pad)
		textW = max(textW, min(lipgloss.Width(t.Description())+pad, 50)) //nolint:mnd // max text column width
		tagsW = max(tagsW, min(len(strings.Join(t.Tags, ","))+pad, 30)) //nolint:mnd // max tags column width
	}

	header := fmt.Sprintf("%-*s %-3s %-*s %-*s %-*s %s",
		idW, "ID", "", prioW, "PRIORITY", textW, "TASK", tagsW, "TAGS", "DUE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		tags := strings.Join(t.Tags, ",")
		if tags == "" {
			tags = dimStyle.Render("--")
		} else {
			tags = tagStyle.Render(truncate(tags, tagsW-pad))
		}
		due := dimStyle.Render("--")
		if t.Due != nil {
			due = t.Due.String()
		}

		row := fmt.Sprintf("%-*s %s %s %s %s %s",
			idW, t.ID.String(),
			padRight(checkbox(t), 3), //nolint:mnd // "[x]"
			padRight(styledValue(PriorityName(t.Priority), priorityStyles), prioW),
			padRight(pinMark(t)+truncate(t.Description(), textW-pad), textW),
			padRight(tags, tagsW),
			due)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail.
func TaskDetail(w io.Writer, d Detail) {
	t := d.Task
	titleLine := d.Task.ID.String() + ": " + t.Description()
	fmt.Fprintln(w, titleStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	status := "open"
	if t.Completed {
		status = doneStyle.Render("done")
	}
	printField(w, "Status", status)
	printField(w, "Priority", styledValue(PriorityName(t.Priority), priorityStyles))
	if t.Pinned {
		printField(w, "Pinned", pinStyle.Render("yes"))
	}
	if t.Archived {
		printField(w, "Archived", "yes")
	}
	if len(t.Tags) > 0 {
		printField(w, "Tags", tagStyle.Render(strings.Join(t.Tags, ", ")))
	} else {
		printField(w, "Tags", dimStyle.Render("--"))
	}
	if t.Due != nil {
		printField(w, "Due", t.Due.String())
	} else {
		printField(w, "Due", dimStyle.Render("--"))
	}
	if t.Parent != nil {
		printField(w, "Parent", t.Parent.String())
	}
	if d.Progress.Total > 0 {
		printField(w, "Sub-tasks", strconv.Itoa(d.Progress.Completed)+"/"+strconv.Itoa(d.Progress.Total))
	}
	for _, p := range d.Placements {
		printField(w, "Board", p.Board+" / "+p.Column)
	}

	if d.Source != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, d.Source)
	}
}

// BoardTable renders a board as one block per column.
func BoardTable(w io.Writer, b config.Board, columns []board.ColumnView) {
	fmt.Fprintln(w, titleStyle.Render(b.Name))
	if len(columns) == 0 {
		fmt.Fprintln(os.Stderr, "No columns to show.")
		return
	}
	for _, v := range columns {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(columnTitle(v)))
		if len(v.Tasks) == 0 {
			fmt.Fprintln(w, "  "+dimStyle.Render("(empty)"))
			continue
		}
		for _, t := range v.Tasks {
			line := "  " + checkbox(t) + " " + pinMark(t) + t.Description()
			if t.Due != nil {
				line += " " + dimStyle.Render(t.Due.String())
			}
			line += " " + dimStyle.Render(t.ID.String())
			fmt.Fprintln(w, line)
		}
	}
}

// BoardsTable lists boards, marking the active one.
func BoardsTable(w io.Writer, boards []config.Board, active string) {
	if len(boards) == 0 {
		fmt.Fprintln(os.Stderr, "No boards found.")
		return
	}
	idW, nameW := 10, 6 //nolint:mnd // short id width
	for _, b := range boards {
		nameW = max(nameW, lipgloss.Width(b.Name)+2)
	}
	header := fmt.Sprintf("  %-*s %-*s %s", idW, "ID", nameW, "NAME", "COLUMNS")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, b := range boards {
		mark := " "
		if b.ID == active {
			mark = pinStyle.Render("*")
		}
		names := make([]string, len(b.Columns))
		for i, c := range b.Columns {
			names[i] = c.Name
		}
		fmt.Fprintf(w, "%s %-*s %s %s\n", mark, idW, ShortID(b.ID), padRight(b.Name, nameW), strings.Join(names, ", "))
	}
}

// OverviewTable renders a board summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, titleStyle.Render(s.BoardName))
	fmt.Fprintf(w, "Total: %d tasks\n\n", s.Total)

	const nameW = 20
	header := fmt.Sprintf("%-*s %-10s %6s %8s %8s", nameW, "COLUMN", "TYPE", "COUNT", "LIMIT", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, cs := range s.Columns {
		limit := dimStyle.Render("--")
		if cs.WorkLimit > 0 {
			limit = strconv.Itoa(cs.Count) + "/" + strconv.Itoa(cs.WorkLimit)
			if cs.OverLimit {
				limit = overStyle.Render(limit)
			}
		}
		fmt.Fprintf(w, "%s %-10s %6d %s %8d\n",
			padRight(truncate(cs.Name, nameW-1), nameW), cs.Type, cs.Count, padLeft(limit, 8), cs.Overdue) //nolint:mnd // column width
	}
}

// GroupedTable renders tasks grouped by a field with open/done counts.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d open, %d done)", g.Key, g.Open, g.Done)
		fmt.Fprintln(w, titleStyle.Render(title))
		for _, t := range g.Tasks {
			fmt.Fprintf(w, "  %s %s%s %s\n", checkbox(t), pinMark(t), t.Description(), dimStyle.Render(t.ID.String()))
		}
	}
}

// DuplicatesTable renders groups of tasks sharing the same text.
func DuplicatesTable(w io.Writer, groups [][]*task.Task) {
	if len(groups) == 0 {
		fmt.Fprintln(os.Stderr, "No duplicates found.")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d copies)", g[0].Description(), len(g))))
		for _, t := range g {
			fmt.Fprintf(w, "  %s %s\n", checkbox(t), t.ID.String())
		}
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// PriorityName returns the label of a priority level.
func PriorityName(level int) string {
	if name, ok := config.PriorityNames[level]; ok {
		return name
	}
	return "--"
}

// ShortID shortens a uuid for display.
func ShortID(id string) string {
	const n = 8
	if len(id) > n {
		return id[:n]
	}
	return id
}

func columnTitle(v board.ColumnView) string {
	title := v.Column.Name
	if v.Column.Type != config.Manual {
		title += " [" + string(v.Column.Type) + "]"
	}
	count := strconv.Itoa(len(v.Tasks))
	if v.Column.WorkLimit > 0 {
		count += "/" + strconv.Itoa(v.Column.WorkLimit)
	}
	return title + " (" + count + ")"
}

func checkbox(t *task.Task) string {
	if t.Completed {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}

func pinMark(t *task.Task) string {
	if t.Pinned {
		return pinStyle.Render("*") + " "
	}
	return ""
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

func truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width { //nolint:mnd // room for "..."
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func padLeft(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return strings.Repeat(" ", width-visible) + s
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
