package tui

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	overLimitHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("124")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pinStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	priorityStyles = map[int]lipgloss.Style{
		config.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		config.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		config.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	}

	// tagColorPalette is a set of distinct, readable terminal colors for auto-coloring tags.
	tagColorPalette = []lipgloss.Color{"33", "36", "35", "32", "91", "34", "93", "96"}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// tagStyle returns a consistent lipgloss style for a tag, derived by hashing
// the tag name into the tagColorPalette. Same tag always gets the same color.
func tagStyle(tag string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(tagColor(tag))
}

func tagColor(tag string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(tag)))
	return tagColorPalette[h.Sum32()%uint32(len(tagColorPalette))]
}

// --- Layout ---

// chromeHeight returns the number of lines consumed by non-card elements below
// the column area: blank line + status bar (+ error line when an error is shown).
func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.err != nil {
		h += errorChrome
	}
	if b.help.ShowAll {
		h += len(keys.FullHelp()[0]) - 1
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for the "↑ N more" and "↓ N more" indicator lines.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Header line.
	avail := budget - 1
	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)
	if col.scrollOff+n < len(col.tasks) {
		n = max(1, b.fitCardsInHeight(col, avail-1, width))
	}
	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil {
		return
	}
	if col.scrollOff > max(0, len(col.tasks)-1) {
		col.scrollOff = max(0, len(col.tasks)-1)
	}
	if b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.tasks) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.tasks) == 0 || avail < 1 {
		return 1
	}

	used, count := 0, 0
	for i := col.scrollOff; i < len(col.tasks); i++ {
		lines := b.cardHeight(col, col.tasks[i], width)
		if count > 0 && used+lines > avail {
			break
		}
		count++
		used += lines
		if used >= avail {
			break
		}
	}
	return max(1, count)
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	// JoinHorizontal adds no gaps, so the columns split the width evenly.
	const maxColWidth = 60
	return min(b.width/len(b.columns), maxColWidth)
}

// --- View rendering ---

func (b *Board) viewBoard() string {
	if b.boardID == "" {
		return "No boards configured. Create one with `checkboard board create`."
	}
	if len(b.columns) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, "No columns to show.", "", b.renderStatusBar())
	}

	colWidth := b.columnWidth()
	rendered := make([]string, len(b.columns))
	for i := range b.columns {
		rendered[i] = b.renderColumn(i, &b.columns[i], colWidth)
	}
	boardView := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	// A single tall card can exceed the budget on tiny terminals. Clamp from
	// the bottom so headers stay visible, and pad short boards.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			lines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(lines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) renderColumn(colIdx int, col *column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", col.col.Name, len(col.tasks))
	if col.col.WorkLimit > 0 {
		headerText = fmt.Sprintf("%s (%d/%d)", col.col.Name, len(col.tasks), col.col.WorkLimit)
	}
	if col.col.Type != config.Manual {
		headerText += " " + ruleLabel(col.col)
	}
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	style := columnHeaderStyle
	switch {
	case col.col.WorkLimit > 0 && len(col.tasks) > col.col.WorkLimit:
		style = overLimitHeaderStyle
	case colIdx == b.activeCol:
		style = activeColumnHeaderStyle
	}
	parts := []string{style.Width(width).Render(headerText)}

	maxVis := b.visibleCardsForColumn(col, width)
	start := min(col.scrollOff, len(col.tasks))
	end := min(start+maxVis, len(col.tasks))

	if start > 0 {
		parts = append(parts, dimStyle.Width(width).Render(truncate(fmt.Sprintf("  ↑ %d more", start), width)))
	}
	if len(col.tasks) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
	}
	for rowIdx := start; rowIdx < end; rowIdx++ {
		active := colIdx == b.activeCol && rowIdx == b.activeRow
		parts = append(parts, b.renderCard(col, col.tasks[rowIdx], active, width))
	}
	if end < len(col.tasks) {
		indicator := fmt.Sprintf("  ↓ %d more", len(col.tasks)-end)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// ruleLabel is the short marker shown after a rule column's name.
func ruleLabel(c config.Column) string {
	switch c.Type {
	case config.Dated:
		return fmt.Sprintf("[+%d..+%dd]", c.DateFrom, c.DateTo)
	case config.NamedTag:
		return "[" + task.NormalizeTag(c.Tag) + "]"
	default:
		return "[" + string(c.Type) + "]"
	}
}

func (b *Board) renderCard(col *column, t *task.Task, active bool, width int) string {
	content := strings.Join(b.cardContentLines(col, t, width), "\n")

	// Border color follows the first tag.
	style := cardStyle
	if len(t.Tags) > 0 {
		style = style.BorderForeground(tagColor(t.Tags[0]))
	}
	if active {
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(col *column, t *task.Task, width int) int {
	return len(b.cardContentLines(col, t, width)) + 2 //nolint:mnd // top and bottom borders
}

func (b *Board) cardContentLines(col *column, t *task.Task, width int) []string {
	const (
		cardChrome    = 4 // border (2) + padding (2)
		maxTitleLines = 3
	)
	cardWidth := max(1, width-cardChrome)

	prefix := "[ ] "
	if t.Completed {
		prefix = "[x] "
	}
	if slices.Contains(b.current.Pinned, t.ID.String()) {
		prefix = "★ " + prefix
	}

	titleStyle := lipgloss.NewStyle()
	if t.Completed {
		titleStyle = doneStyle
	}
	var lines []string
	for i, line := range wrapTitle(prefix+t.Description(), cardWidth, maxTitleLines) {
		if i == 0 && strings.HasPrefix(line, "★ ") {
			lines = append(lines, pinStyle.Render("★ ")+titleStyle.Render(strings.TrimPrefix(line, "★ ")))
			continue
		}
		lines = append(lines, titleStyle.Render(line))
	}

	var meta []string
	if p := b.priorityOf(t); p != config.PriorityNone {
		meta = append(meta, priorityStyles[p].Render("!"+config.PriorityNames[p]))
	}
	if t.Due != nil {
		due := "📅 " + t.Due.String()
		if !t.Completed && t.Due.Before(date.Of(b.now())) {
			meta = append(meta, overdueStyle.Render(due))
		} else {
			meta = append(meta, dimStyle.Render(due))
		}
	}
	if p, ok := col.progress[t.ID]; ok {
		meta = append(meta, dimStyle.Render(fmt.Sprintf("%d/%d", p.Completed, p.Total)))
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " "))
	}

	if len(t.Tags) > 0 {
		tags := make([]string, 0, len(t.Tags))
		used := 0
		for _, tag := range t.Tags {
			if used+lipgloss.Width(tag) > cardWidth && len(tags) > 0 {
				break
			}
			tags = append(tags, tagStyle(tag).Render(tag))
			used += lipgloss.Width(tag) + 1
		}
		lines = append(lines, strings.Join(tags, " "))
	}

	lines = append(lines, dimStyle.Render(truncate(t.ID.String(), cardWidth)))
	return lines
}

// priorityOf is the board priority of t, falling back to its global one.
func (b *Board) priorityOf(t *task.Task) int {
	if p, ok := b.current.Priorities[t.ID.String()]; ok && config.ValidPriority(p) {
		return p
	}
	return t.Priority
}

// wrapTitle splits a title across maxLines lines, word-wrapping at word
// boundaries. Each line is at most maxWidth characters.
func wrapTitle(title string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= maxWidth || maxLines == 1 {
		return []string{truncate(title, maxWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
			continue
		}
		lines = append(lines, truncate(current.String(), maxWidth))
		current.Reset()
		current.WriteString(word)
		if len(lines) == maxLines-1 {
			// Last line: append all remaining words.
			for _, w := range words[i+1:] {
				current.WriteByte(' ')
				current.WriteString(w)
			}
			break
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

func (b *Board) renderStatusBar() string {
	total := 0
	for _, c := range b.columns {
		total += len(c.tasks)
	}
	status := truncate(fmt.Sprintf(" %s | %d cards | ", b.boardName, total), b.width)
	status = statusBarStyle.Render(status) + b.help.View(keys)

	if b.err != nil {
		errStr := errorStyle.Render(truncate("Error: "+b.err.Error(), b.width))
		return errStr + "\n" + status
	}
	return status
}

func (b *Board) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		"  " + b.deleteID.String() + ": " + b.deleteText + "\n\n" +
		dimStyle.Render("The line is removed from the file.  y:yes  n:no")

	return dialogStyle.Render(content)
}

func (b *Board) viewAddTask() string {
	target := inboxFile
	if t := b.selectedTask(); t != nil {
		target = t.Path()
	}
	content := lipgloss.NewStyle().Bold(true).Render("New task") + "\n\n" +
		b.input.View() + "\n\n" +
		dimStyle.Render("Appends to "+target+"  enter:add  esc:cancel")

	return dialogStyle.Render(content)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}
