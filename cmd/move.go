package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var moveCmd = &cobra.Command{
	Use:   "mv ID FILE",
	Short: "Move a task line to another document",
	Long: `Cuts the task's line from its document and appends it, unindented, to FILE.
The destination is created if missing. Because IDs are positional, the task
gets a new ID, and lines below the old position shift up by one.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // id and file
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	id, err := task.ParseID(args[0])
	if err != nil {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q: expected path:line", args[0])
	}
	dest := filepath.ToSlash(filepath.Clean(args[1]))
	if filepath.IsAbs(dest) || strings.HasPrefix(dest, "../") {
		return clierr.Newf(clierr.InvalidInput, "file %q must be inside the vault", args[1])
	}
	if !docstore.IsDocument(dest) {
		return clierr.Newf(clierr.InvalidInput, "file %q is not a markdown document", args[1])
	}
	if dest == id.Path {
		return clierr.Newf(clierr.NoChanges, "%s is already in %s", id, dest)
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := requireTask(sess, id); err != nil {
		return err
	}
	newID, err := sess.Tasks.Move(id, dest)
	if err != nil {
		return err
	}
	logActivity(sess, "move", "", newID.String(), "from "+id.String())

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]string{"from": id.String(), "id": newID.String()})
	}
	output.Messagef(w, "Moved %s -> %s", id, newID)
	return nil
}
