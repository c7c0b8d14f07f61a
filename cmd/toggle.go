package cmd

import (
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var toggleCmd = &cobra.Command{
	Use:     "toggle ID...",
	Aliases: []string{"done"},
	Short:   "Flip the checkbox of tasks",
	Long: `Rewrites "- [ ]" to "- [x]" (or back) on each task's line. IDs can be given
as separate arguments or comma-separated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return err
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(ids) > 1 {
		return runBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), ids, func(id task.ID) error {
			_, err := toggleTask(sess, id)
			return err
		})
	}

	t, err := toggleTask(sess, ids[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, t)
	}
	state := "open"
	if t.Completed {
		state = "done"
	}
	output.Messagef(w, "Marked %s %s: %s", t.ID, state, t.Description())
	return nil
}

func toggleTask(sess *session.Session, id task.ID) (*task.Task, error) {
	if _, err := requireTask(sess, id); err != nil {
		return nil, err
	}
	if err := sess.Tasks.Toggle(id); err != nil {
		return nil, err
	}
	t, err := requireTask(sess, id)
	if err != nil {
		return nil, err
	}
	logActivity(sess, "toggle", "", id.String(), t.Description())
	return t, nil
}
