package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
)

const defaultLogEntries = 20

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent activity",
	Long:  `Prints the newest entries of the activity log kept next to the settings, oldest first.`,
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", defaultLogEntries, "number of entries (0 for all)")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("limit")
	if n < 0 {
		return clierr.New(clierr.InvalidInput, "--limit must not be negative")
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.Activity.Recent(n)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		if entries == nil {
			entries = []board.LogEntry{}
		}
		return output.JSON(w, entries)
	}
	if len(entries) == 0 {
		output.Messagef(w, "No activity yet")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-18s", e.Timestamp.Local().Format(time.DateTime), e.Action)
		if e.TaskID != "" {
			line += " " + e.TaskID
		}
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
