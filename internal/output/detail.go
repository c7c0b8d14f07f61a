package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// Placement is the column a task shows up in on one board.
type Placement struct {
	Board  string `json:"board"`
	Column string `json:"column"`
}

// Detail is everything `show` prints about a task.
type Detail struct {
	Task       *task.Task    `json:"task"`
	Progress   task.Progress `json:"progress"`
	SubTasks   []*task.Task  `json:"subtasks,omitempty"`
	Placements []Placement   `json:"boards,omitempty"`
	// Source is the markdown around the task line, rendered for the
	// terminal in table mode.
	Source string `json:"source,omitempty"`
}

const sourceContext = 3 // lines shown above and below the task line

// SourceExcerpt returns the lines around line (1-based) of a document.
func SourceExcerpt(content string, line int) string {
	lines := task.SplitLines(content)
	if line < 1 || line > len(lines) {
		return ""
	}
	from := max(0, line-1-sourceContext)
	to := min(len(lines), line+sourceContext)
	excerpt := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		excerpt = append(excerpt, strings.TrimRight(lines[i], "\r"))
	}
	return strings.Join(excerpt, "\n") + "\n"
}

// RenderMarkdown renders markdown for a terminal of the given width. With
// color disabled it uses the plain style.
func RenderMarkdown(source string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if !colorEnabled {
		opts = []glamour.TermRendererOption{glamour.WithStandardStyle("notty")}
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(source)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
