package cmd

import (
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var pinCmd = &cobra.Command{
	Use:   "pin ID",
	Short: "Toggle the pin of a task",
	Long: `Pinned tasks sort first. Without --board the pin is global and applies to
list output; with --board it applies to that board's columns only.`,
	Args: cobra.ExactArgs(1),
	RunE: runPin,
}

var priorityCmd = &cobra.Command{
	Use:   "priority ID LEVEL",
	Short: "Set the priority of a task",
	Long: `LEVEL is high, medium, low (or 1-3), or none/0 to clear. Without --board the
priority is global; a board priority overrides it on that board.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // id and level
	RunE: runPriority,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder ID...",
	Short: "Set the global priority order",
	Long: `Replaces the global order with the given IDs. Listed tasks sort ahead of all
others in the given order. Use --clear to drop the order.`,
	RunE: runReorder,
}

var archiveCmd = &cobra.Command{
	Use:   "archive [ID...]",
	Short: "Archive tasks",
	Long: `Globally archived tasks disappear from lists and every board. With --board
the task is hidden from that board only. --completed archives every
completed task.`,
	RunE: runArchive,
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive ID...",
	Short: "Restore archived tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnarchive,
}

func init() {
	boardOption(pinCmd, "pin on this board only")
	boardOption(priorityCmd, "set the priority on this board only")
	reorderCmd.Flags().Bool("clear", false, "remove the global order")
	boardOption(archiveCmd, "archive on this board only")
	archiveCmd.Flags().Bool("completed", false, "archive every completed task")
	boardOption(unarchiveCmd, "restore on this board only")
	rootCmd.AddCommand(pinCmd, priorityCmd, reorderCmd, archiveCmd, unarchiveCmd)
}

// metadataTarget is the board named by --board, or nil for global metadata.
func metadataTarget(cmd *cobra.Command, sess *session.Session) (*config.Board, error) {
	ref, _ := cmd.Flags().GetString("board")
	if ref == "" {
		return nil, nil //nolint:nilnil // nil board means global scope
	}
	b, err := resolveBoard(sess, ref)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func runPin(cmd *cobra.Command, args []string) error {
	id, err := task.ParseID(args[0])
	if err != nil {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q: expected path:line", args[0])
	}
	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := requireTask(sess, id); err != nil {
		return err
	}
	b, err := metadataTarget(cmd, sess)
	if err != nil {
		return err
	}

	var pinned bool
	boardID := ""
	if b != nil {
		boardID = b.ID
		pinned, _ = sess.Boards.ToggleBoardPin(b.ID, id)
	} else {
		pinned, _ = sess.Tasks.TogglePin(id)
	}
	if err := sess.Save(); err != nil {
		return err
	}
	action := "unpin"
	if pinned {
		action = "pin"
	}
	logActivity(sess, action, boardID, id.String(), "")

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{"id": id.String(), "pinned": pinned, "board": boardID})
	}
	if pinned {
		output.Messagef(w, "Pinned %s", id)
	} else {
		output.Messagef(w, "Unpinned %s", id)
	}
	return nil
}

func runPriority(cmd *cobra.Command, args []string) error {
	id, err := task.ParseID(args[0])
	if err != nil {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q: expected path:line", args[0])
	}
	level, ok := config.ParsePriority(args[1])
	if !ok {
		return clierr.Newf(clierr.InvalidPriority, "invalid priority %q; allowed: high, medium, low, none", args[1])
	}

	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := requireTask(sess, id); err != nil {
		return err
	}
	b, err := metadataTarget(cmd, sess)
	if err != nil {
		return err
	}
	boardID := ""
	if b != nil {
		boardID = b.ID
		ok = sess.Boards.SetTodoPriority(b.ID, id, level)
	} else {
		ok = sess.Tasks.SetPriority(id, level)
	}
	if !ok {
		return notApplied("priority %q was not applied to %s", args[1], id)
	}
	if err := sess.Save(); err != nil {
		return err
	}
	logActivity(sess, "priority", boardID, id.String(), output.PriorityName(level))

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{"id": id.String(), "priority": level, "board": boardID})
	}
	output.Messagef(w, "Set priority of %s to %s", id, output.PriorityName(level))
	return nil
}

func runReorder(cmd *cobra.Command, args []string) error {
	clearOrder, _ := cmd.Flags().GetBool("clear")
	if clearOrder == (len(args) > 0) {
		return clierr.New(clierr.InvalidInput, "give task IDs or --clear")
	}
	var ids []task.ID
	if !clearOrder {
		var err error
		if ids, err = parseTaskIDs(args); err != nil {
			return err
		}
	}

	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, id := range ids {
		if _, err := requireTask(sess, id); err != nil {
			return err
		}
	}
	sess.Tasks.UpdatePriorities(ids)
	if err := sess.Save(); err != nil {
		return err
	}
	logActivity(sess, "reorder", "", "", "")

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		order := make([]string, len(ids))
		for i, id := range ids {
			order[i] = id.String()
		}
		return output.JSON(w, map[string]any{"order": order})
	}
	if clearOrder {
		output.Messagef(w, "Cleared the priority order")
		return nil
	}
	output.Messagef(w, "Priority order set for %d tasks", len(ids))
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	completed, _ := cmd.Flags().GetBool("completed")
	if completed == (len(args) > 0) {
		return clierr.New(clierr.InvalidInput, "give task IDs or --completed")
	}
	var ids []task.ID
	if !completed {
		var err error
		if ids, err = parseTaskIDs(args); err != nil {
			return err
		}
	}

	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	b, err := metadataTarget(cmd, sess)
	if err != nil {
		return err
	}

	if completed {
		return archiveCompleted(cmd, sess, b)
	}

	err = runBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), ids, func(id task.ID) error {
		if _, err := requireTask(sess, id); err != nil {
			return err
		}
		if b != nil {
			sess.Boards.ArchiveTodo(b.ID, id)
			logActivity(sess, "archive", b.ID, id.String(), "")
			return nil
		}
		sess.Tasks.Archive(id)
		logActivity(sess, "archive", "", id.String(), "")
		return nil
	})
	if saveErr := sess.Save(); saveErr != nil {
		return saveErr
	}
	return err
}

func archiveCompleted(cmd *cobra.Command, sess *session.Session, b *config.Board) error {
	n := 0
	boardID := ""
	if b != nil {
		boardID = b.ID
		n = sess.Boards.ArchiveCompletedTodos(b.ID)
	} else {
		for _, t := range sess.Tasks.Query(registry.QueryOptions{Unfiltered: true}) {
			if t.Completed && sess.Tasks.Archive(t.ID) {
				n++
			}
		}
	}
	if n > 0 {
		if err := sess.Save(); err != nil {
			return err
		}
	}
	logActivity(sess, "archive-completed", boardID, "", "")

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{"archived": n, "board": boardID})
	}
	output.Messagef(w, "Archived %d completed tasks", n)
	return nil
}

func runUnarchive(cmd *cobra.Command, args []string) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return err
	}

	sess, err := openSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	b, err := metadataTarget(cmd, sess)
	if err != nil {
		return err
	}

	err = runBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), ids, func(id task.ID) error {
		var ok bool
		boardID := ""
		if b != nil {
			boardID = b.ID
			ok = sess.Boards.UnarchiveTodo(b.ID, id)
		} else {
			ok = sess.Tasks.Unarchive(id)
		}
		if !ok {
			return clierr.Newf(clierr.NoChanges, "%s is not archived", id)
		}
		logActivity(sess, "unarchive", boardID, id.String(), "")
		return nil
	})
	if saveErr := sess.Save(); saveErr != nil {
		return saveErr
	}
	return err
}
