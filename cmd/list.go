package cmd

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `Lists the tasks of the vault, pinned first and then in priority order.
Completed tasks and tags outside the tag filter are hidden according to the
settings unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "search task text and paths (case-insensitive)")
	listCmd.Flags().StringSlice("tag", nil, "only tasks carrying any of these tags")
	listCmd.Flags().StringSlice("file", nil, "only tasks of these documents")
	listCmd.Flags().BoolP("all", "a", false, "ignore hide-completed and the tag filter")
	listCmd.Flags().Bool("archived", false, "show only archived tasks")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	search, _ := cmd.Flags().GetString("search")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	files, _ := cmd.Flags().GetStringSlice("file")
	all, _ := cmd.Flags().GetBool("all")
	archived, _ := cmd.Flags().GetBool("archived")
	limit, _ := cmd.Flags().GetInt("limit")
	groupBy, _ := cmd.Flags().GetString("group-by")

	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}
	if limit < 0 {
		return clierr.New(clierr.InvalidInput, "--limit must not be negative")
	}

	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := registry.QueryOptions{
		Unfiltered:   all || archived,
		ArchivedOnly: archived,
		Tags:         tags,
		Paths:        files,
	}
	var tasks []*task.Task
	if search != "" {
		tasks = sess.Tasks.Search(search, opts)
	} else {
		tasks = sess.Tasks.Query(opts)
	}
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	if groupBy != "" {
		return outputGroupedList(cmd, board.GroupBy(tasks, groupBy))
	}
	return outputTaskList(cmd, tasks)
}

func outputGroupedList(cmd *cobra.Command, grouped board.GroupedSummary) error {
	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(w, grouped)
	case output.FormatCompact:
		output.GroupedCompact(w, grouped)
	default:
		output.GroupedTable(w, grouped)
	}
	return nil
}

func outputTaskList(cmd *cobra.Command, tasks []*task.Task) error {
	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return output.JSON(w, tasks)
	case output.FormatCompact:
		output.TaskCompact(w, tasks)
	default:
		output.TaskTable(w, tasks)
	}
	return nil
}
