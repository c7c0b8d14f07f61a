package cmd

import (
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

const defaultRenderWidth = 80

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show task details",
	Long: `Displays a task with its sub-task progress, the boards and columns it appears
in, and the surrounding lines of its document rendered as markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List tasks with identical text",
	Long:  `Groups tasks whose text matches after trimming, case folding and collapsing whitespace.`,
	Args:  cobra.NoArgs,
	RunE:  runDupes,
}

func init() {
	showCmd.Flags().Bool("raw", false, "print the source excerpt without markdown rendering")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dupesCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := task.ParseID(args[0])
	if err != nil {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q: expected path:line", args[0])
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	t, err := requireTask(sess, id)
	if err != nil {
		return err
	}
	d := output.Detail{
		Task:       t,
		Progress:   sess.Tasks.SubTaskProgress(id),
		SubTasks:   sess.Tasks.SubTasks(id),
		Placements: placements(sess, id),
	}
	if content, err := sess.Store.Read(id.Path); err == nil {
		d.Source = output.SourceExcerpt(content, id.Line)
	}

	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(w, d)
	case output.FormatCompact:
		output.TaskDetailCompact(w, d)
		return nil
	}

	raw, _ := cmd.Flags().GetBool("raw")
	if d.Source != "" && !raw {
		rendered, err := output.RenderMarkdown(d.Source, terminalWidth())
		if err != nil {
			return err
		}
		d.Source = rendered
	}
	output.TaskDetail(w, d)
	return nil
}

// placements lists every board column that currently shows id.
func placements(sess *session.Session, id task.ID) []output.Placement {
	var out []output.Placement
	for _, b := range sess.Boards.Boards() {
		for _, v := range sess.Boards.Columns(b.ID) {
			if slices.ContainsFunc(v.Tasks, func(t *task.Task) bool { return t.ID == id }) {
				out = append(out, output.Placement{Board: b.Name, Column: v.Column.Name})
			}
		}
	}
	return out
}

// terminalWidth returns the width of stdout, or a default when stdout is
// not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd()) //nolint:gosec // fd fits in int
	if !term.IsTerminal(fd) {
		return defaultRenderWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultRenderWidth
	}
	return w
}

func runDupes(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	groups := sess.Tasks.FindDuplicates()
	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		if groups == nil {
			groups = [][]*task.Task{}
		}
		return output.JSON(w, groups)
	case output.FormatCompact:
		output.DuplicatesCompact(w, groups)
	default:
		output.DuplicatesTable(w, groups)
	}
	return nil
}
