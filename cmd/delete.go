package cmd

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var deleteCmd = &cobra.Command{
	Use:     "rm ID...",
	Aliases: []string{"delete"},
	Short:   "Delete task lines",
	Long: `Removes each task's line from its document. Prompts for confirmation in
interactive mode. Deleting several tasks requires --yes. IDs of the same
document are deleted bottom-up so the remaining IDs stay valid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")

	// Batch mode requires --yes.
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(ids) > 1 {
		return runBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), bottomUp(ids), func(id task.ID) error {
			_, err := deleteTask(sess, id)
			return err
		})
	}

	id := ids[0]
	t, err := requireTask(sess, id)
	if err != nil {
		return err
	}
	if !yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %s %q?", id, t.Description()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
			return nil
		}
	}

	if _, err := deleteTask(sess, id); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{
			"status": "deleted",
			"id":     id.String(),
			"text":   t.Text,
		})
	}
	output.Messagef(w, "Deleted %s: %s", id, t.Description())
	return nil
}

func deleteTask(sess *session.Session, id task.ID) (*task.Task, error) {
	t, err := requireTask(sess, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Tasks.Delete(id); err != nil {
		return nil, err
	}
	logActivity(sess, "delete", "", id.String(), t.Description())
	return t, nil
}

// bottomUp orders ids by document, later lines first.
func bottomUp(ids []task.ID) []task.ID {
	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b task.ID) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(b.Line, a.Line)
	})
	return out
}

// confirm asks a yes/no question on a terminal. A non-terminal stdin is an
// error so scripts must pass --yes.
func confirm(in io.Reader, prompt io.Writer, question string) (bool, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(prompt, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
