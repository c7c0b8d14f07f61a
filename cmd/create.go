package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var createCmd = &cobra.Command{
	Use:     "add FILE TEXT...",
	Aliases: []string{"create"},
	Short:   "Append a new task to a document",
	Long: `Appends "- [ ] TEXT" to FILE (vault-relative; created if missing) and prints
the new task's ID. Tags and a due date can be given as flags or written
inline. With --column the task is also assigned on a board.`,
	Args: cobra.MinimumNArgs(2), //nolint:mnd // file and text
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	createCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	createCmd.Flags().String("priority", "", "global priority (high, medium, low or 1-3)")
	createCmd.Flags().String("column", "", "assign the task to this column")
	boardOption(createCmd, "board for --column (default: active board)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	path := filepath.ToSlash(filepath.Clean(args[0]))
	if filepath.IsAbs(path) || strings.HasPrefix(path, "../") {
		return clierr.Newf(clierr.InvalidInput, "file %q must be inside the vault", args[0])
	}
	if !docstore.IsDocument(path) {
		return clierr.Newf(clierr.InvalidInput, "file %q is not a markdown document", args[0])
	}

	line, err := buildTaskLine(cmd, args[1:])
	if err != nil {
		return err
	}

	priority := config.PriorityNone
	if p, _ := cmd.Flags().GetString("priority"); p != "" {
		level, ok := config.ParsePriority(p)
		if !ok {
			return clierr.Newf(clierr.InvalidPriority, "invalid priority %q", p)
		}
		priority = level
	}

	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	colRef, _ := cmd.Flags().GetString("column")
	var b config.Board
	var col config.Column
	if colRef != "" {
		boardRef, _ := cmd.Flags().GetString("board")
		if b, err = resolveBoard(sess, boardRef); err != nil {
			return err
		}
		if col, err = resolveColumn(b, colRef); err != nil {
			return err
		}
	}

	id, err := sess.Tasks.Add(path, line)
	if err != nil {
		return err
	}

	saveSettings := false
	if priority != config.PriorityNone {
		saveSettings = sess.Tasks.SetPriority(id, priority)
	}
	if colRef != "" {
		if err := sess.Boards.CheckWIPLimit(b.ID, col.ID, id); err != nil {
			logger.Warn("task added outside its column", "id", id.String(), "error", err)
		} else {
			saveSettings = sess.Boards.AssignTodoToColumn(b.ID, id, col.ID) || saveSettings
		}
	}
	if saveSettings {
		if err := sess.Save(); err != nil {
			return err
		}
	}
	logActivity(sess, "add", b.ID, id.String(), line)

	t, err := requireTask(sess, id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, t)
	}
	output.Messagef(w, "Added %s: %s", id, t.Description())
	return nil
}

// buildTaskLine joins the text arguments and appends tags and due date.
func buildTaskLine(cmd *cobra.Command, words []string) (string, error) {
	text := strings.Join(strings.Fields(strings.Join(words, " ")), " ")
	if text == "" {
		return "", clierr.New(clierr.InvalidInput, "task text is required")
	}

	var b strings.Builder
	b.WriteString("- [ ] ")
	b.WriteString(text)

	tags, _ := cmd.Flags().GetStringSlice("tags")
	for _, tag := range tags {
		tag = task.NormalizeTag(tag)
		if tag == "#" {
			continue
		}
		b.WriteString(" " + tag)
	}

	if due, _ := cmd.Flags().GetString("due"); due != "" {
		d, err := date.Parse(due)
		if err != nil {
			return "", clierr.Newf(clierr.InvalidDate, "invalid due date %q: expected YYYY-MM-DD", due)
		}
		b.WriteString(" 📅 " + d.String())
	}
	return b.String(), nil
}
