package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
	Long:  `Boards arrange the vault's tasks into columns. Without a subcommand the active board is shown.`,
	Args:  cobra.NoArgs,
	RunE:  runBoardShow,
}

var boardListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List boards",
	Args:    cobra.NoArgs,
	RunE:    runBoardList,
}

var boardCreateCmd = &cobra.Command{
	Use:   "create [NAME]",
	Short: "Create a board with the default columns",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBoardCreate,
}

var boardDeleteCmd = &cobra.Command{
	Use:     "rm BOARD",
	Aliases: []string{"delete"},
	Short:   "Delete a board",
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardDelete,
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename BOARD NAME",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2), //nolint:mnd // board and name
	RunE:  runBoardRename,
}

var boardUseCmd = &cobra.Command{
	Use:   "use BOARD",
	Short: "Make a board the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardUse,
}

var boardShowCmd = &cobra.Command{
	Use:   "show [BOARD]",
	Short: "Show a board's columns and tasks",
	Long: `Renders every column of a board with its tasks. --summary prints counts,
work limits and overdue tasks per column instead.

Use --watch to keep the display live-updating. The board re-renders whenever
a document of the vault changes. Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoardShow,
}

var boardAssignCmd = &cobra.Command{
	Use:   "assign ID COLUMN",
	Short: "Put a task into a manual column",
	Long: `Records the column of a task on a board. Rule columns pick their tasks
themselves, so an assignment only shows once the column is manual.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // id and column
	RunE: runBoardAssign,
}

var boardHideEmptyCmd = &cobra.Command{
	Use:   "hide-empty [on|off]",
	Short: "Hide empty columns of a board",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBoardHideEmpty,
}

func init() {
	boardShowCmd.Flags().BoolP("watch", "w", false, "live-update the board on file changes")
	boardShowCmd.Flags().Bool("summary", false, "print per-column counts instead of tasks")
	boardShowCmd.Flags().String("group-by", "", "group the board's tasks by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	boardDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	boardOption(boardAssignCmd, "board to assign on (default: active board)")
	boardAssignCmd.Flags().Bool("force", false, "ignore the column's work limit")
	boardOption(boardHideEmptyCmd, "board to change (default: active board)")

	boardCmd.AddCommand(boardListCmd, boardCreateCmd, boardDeleteCmd, boardRenameCmd,
		boardUseCmd, boardShowCmd, boardAssignCmd, boardHideEmptyCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardList(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	boards := sess.Boards.Boards()
	active, _ := sess.Boards.ActiveBoard()
	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		if boards == nil {
			boards = []config.Board{}
		}
		return output.JSON(w, map[string]any{"active": active.ID, "boards": boards})
	case output.FormatCompact:
		output.BoardsCompact(w, boards, active.ID)
	default:
		output.BoardsTable(w, boards, active.ID)
	}
	return nil
}

func runBoardCreate(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	return mutateBoards(cmd, "board-create", func(sess *session.Session) (string, any, error) {
		b := sess.Boards.CreateBoard(name)
		return fmt.Sprintf("Created board %q (%s)", b.Name, output.ShortID(b.ID)), b, nil
	})
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	return mutateBoards(cmd, "board-delete", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, args[0])
		if err != nil {
			return "", nil, err
		}
		if !yes {
			ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete board %q?", b.Name))
			if err != nil {
				return "", nil, err
			}
			if !ok {
				return "", nil, clierr.New(clierr.NoChanges, "aborted")
			}
		}
		sess.Boards.DeleteBoard(b.ID)
		return fmt.Sprintf("Deleted board %q", b.Name), map[string]string{"status": "deleted", "id": b.ID}, nil
	})
}

func runBoardRename(cmd *cobra.Command, args []string) error {
	return mutateBoards(cmd, "board-rename", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, args[0])
		if err != nil {
			return "", nil, err
		}
		if !sess.Boards.RenameBoard(b.ID, args[1]) {
			return "", nil, notApplied("board name must not be empty")
		}
		renamed, _ := sess.Boards.Board(b.ID)
		return fmt.Sprintf("Renamed board %q to %q", b.Name, renamed.Name), renamed, nil
	})
}

func runBoardUse(cmd *cobra.Command, args []string) error {
	return mutateBoards(cmd, "board-use", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, args[0])
		if err != nil {
			return "", nil, err
		}
		sess.Boards.SetActiveBoard(b.ID)
		return fmt.Sprintf("Active board is now %q", b.Name), map[string]string{"active": b.ID}, nil
	})
}

func runBoardAssign(cmd *cobra.Command, args []string) error {
	id, err := task.ParseID(args[0])
	if err != nil {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q: expected path:line", args[0])
	}
	boardRef, _ := cmd.Flags().GetString("board")
	force, _ := cmd.Flags().GetBool("force")

	return mutateBoards(cmd, "assign", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, boardRef)
		if err != nil {
			return "", nil, err
		}
		col, err := resolveColumn(b, args[1])
		if err != nil {
			return "", nil, err
		}
		if _, err := requireTask(sess, id); err != nil {
			return "", nil, err
		}
		if !force {
			if err := sess.Boards.CheckWIPLimit(b.ID, col.ID, id); err != nil {
				return "", nil, err
			}
		}
		sess.Boards.AssignTodoToColumn(b.ID, id, col.ID)
		msg := fmt.Sprintf("Assigned %s to %s / %s", id, b.Name, col.Name)
		if col.Type.IsRule() {
			msg += fmt.Sprintf(" (%s is a %s column and ignores assignments)", col.Name, col.Type)
		}
		return msg, map[string]string{"id": id.String(), "board": b.ID, "column": col.ID}, nil
	})
}

func runBoardHideEmpty(cmd *cobra.Command, args []string) error {
	boardRef, _ := cmd.Flags().GetString("board")
	return mutateBoards(cmd, "hide-empty", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, boardRef)
		if err != nil {
			return "", nil, err
		}
		hide := !b.HideEmpty
		if len(args) > 0 {
			if hide, err = parseSwitch(args[0]); err != nil {
				return "", nil, err
			}
		}
		sess.Boards.SetHideEmpty(b.ID, hide)
		state := "shown"
		if hide {
			state = "hidden"
		}
		return fmt.Sprintf("Empty columns of %q are %s", b.Name, state), map[string]any{"board": b.ID, "hide_empty": hide}, nil
	})
}

// mutateBoards runs fn in a locked session, saves the settings and prints
// either the message or the JSON value fn returns.
func mutateBoards(cmd *cobra.Command, action string, fn func(*session.Session) (string, any, error)) error {
	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	msg, value, err := fn(sess)
	if err != nil {
		return err
	}
	if err := sess.Save(); err != nil {
		return err
	}
	logActivity(sess, action, "", "", msg)

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, value)
	}
	output.Messagef(w, "%s", msg)
	return nil
}

// parseSwitch accepts on/off style arguments.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	return false, clierr.Newf(clierr.InvalidInput, "expected on or off, got %q", s)
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	watch, _ := cmd.Flags().GetBool("watch")
	summary, _ := cmd.Flags().GetBool("summary")
	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	b, err := resolveBoard(sess, ref)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	render := func() error {
		return renderBoard(w, sess, b.ID, summary, groupBy)
	}
	if err := render(); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return watchBoard(cmd, sess, render)
}

func renderBoard(w io.Writer, sess *session.Session, boardID string, summary bool, groupBy string) error {
	b, ok := sess.Boards.Board(boardID)
	if !ok {
		return clierr.Newf(clierr.BoardNotFound, "board %s no longer exists", boardID)
	}
	format := outputFormat()

	if groupBy != "" {
		grouped := board.GroupBy(boardTasks(sess.Boards.Columns(b.ID)), groupBy)
		switch format {
		case output.FormatJSON:
			return output.JSON(w, grouped)
		case output.FormatCompact:
			output.GroupedCompact(w, grouped)
		default:
			output.GroupedTable(w, grouped)
		}
		return nil
	}

	if summary {
		overview, _ := sess.Boards.Summary(b.ID)
		switch format {
		case output.FormatJSON:
			return output.JSON(w, overview)
		case output.FormatCompact:
			output.OverviewCompact(w, overview)
		default:
			output.OverviewTable(w, overview)
		}
		return nil
	}

	columns := sess.Boards.VisibleColumns(b.ID)
	switch format {
	case output.FormatJSON:
		return output.JSON(w, map[string]any{"board": b, "columns": columns})
	case output.FormatCompact:
		output.BoardCompact(w, b, columns)
	default:
		output.BoardTable(w, b, columns)
	}
	return nil
}

// boardTasks returns the distinct tasks shown on a board, in column order.
func boardTasks(columns []board.ColumnView) []*task.Task {
	seen := make(map[task.ID]bool)
	var out []*task.Task
	for _, v := range columns {
		for _, t := range v.Tasks {
			if !seen[t.ID] {
				seen[t.ID] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func watchBoard(cmd *cobra.Command, sess *session.Session, render func() error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	unsubscribe := sess.Boards.Subscribe(func(board.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if err := sess.Watch(ctx); err != nil {
		return err
	}
	errw := cmd.ErrOrStderr()
	fmt.Fprintln(errw, "Watching for changes... (Ctrl+C to stop)")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			clearScreen(cmd.OutOrStdout())
			if err := render(); err != nil {
				fmt.Fprintf(errw, "Warning: rendering board: %v\n", err)
			}
		}
	}
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen(w io.Writer) {
	if outputFormat() == output.FormatJSON {
		return
	}
	fmt.Fprint(w, "\033[2J\033[H")
}
