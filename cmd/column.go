package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var columnCmd = &cobra.Command{
	Use:     "column",
	Aliases: []string{"col"},
	Short:   "Manage the columns of a board",
	Long: `Columns are referenced by id, id prefix or name. Every subcommand works on
the active board unless --board is given.

Column types:
  manual     tasks assigned by hand (unassigned tasks land in the first one)
  completed  completed tasks
  undated    incomplete tasks without a due date
  overdue    incomplete tasks due before today
  dated      incomplete tasks due between --from and --to days from today
  namedTag   tasks carrying --tag`,
}

var columnAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Append a column",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumnAdd,
}

var columnDeleteCmd = &cobra.Command{
	Use:     "rm COLUMN",
	Aliases: []string{"delete"},
	Short:   "Remove a column and its assignments",
	Args:    cobra.ExactArgs(1),
	RunE:    runColumnDelete,
}

var columnRenameCmd = &cobra.Command{
	Use:   "rename COLUMN NAME",
	Short: "Rename a column",
	Args:  cobra.ExactArgs(2), //nolint:mnd // column and name
	RunE:  runColumnRename,
}

var columnMoveCmd = &cobra.Command{
	Use:   "move COLUMN POSITION",
	Short: "Move a column to a 1-based position",
	Args:  cobra.ExactArgs(2), //nolint:mnd // column and position
	RunE:  runColumnMove,
}

var columnLeftCmd = &cobra.Command{
	Use:   "left COLUMN",
	Short: "Swap a column with its left neighbour",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumnShift(-1),
}

var columnRightCmd = &cobra.Command{
	Use:   "right COLUMN",
	Short: "Swap a column with its right neighbour",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumnShift(1),
}

var columnLimitCmd = &cobra.Command{
	Use:   "limit COLUMN N",
	Short: "Set the work-in-progress limit of a column (0 removes it)",
	Args:  cobra.ExactArgs(2), //nolint:mnd // column and limit
	RunE:  runColumnLimit,
}

var columnSortCmd = &cobra.Command{
	Use:   "sort COLUMN priority|date|name|manual|none",
	Short: "Set how a column orders its tasks",
	Args:  cobra.ExactArgs(2), //nolint:mnd // column and criterion
	RunE:  runColumnSort,
}

var columnFilterCmd = &cobra.Command{
	Use:   "filter COLUMN",
	Short: "Restrict a column's members further",
	Long: `Adds AND conditions to a column's membership: completion state, effective
priority and tags. --clear drops the filter.`,
	Args: cobra.ExactArgs(1),
	RunE: runColumnFilter,
}

var columnTypeCmd = &cobra.Command{
	Use:   "type COLUMN TYPE",
	Short: "Change how a column selects its tasks",
	Args:  cobra.ExactArgs(2), //nolint:mnd // column and type
	RunE:  runColumnType,
}

func init() {
	for _, c := range []*cobra.Command{columnAddCmd, columnTypeCmd} {
		c.Flags().Int("from", 0, "dated: first day offset from today")
		c.Flags().Int("to", 0, "dated: last day offset from today")
		c.Flags().String("tag", "", "namedTag: the tag to collect")
	}
	columnAddCmd.Flags().String("type", string(config.Manual), "column type")
	columnAddCmd.Flags().Int("limit", 0, "work-in-progress limit")
	columnSortCmd.Flags().Bool("desc", false, "sort descending")
	columnFilterCmd.Flags().String("completion", "", "all, completed or incomplete")
	columnFilterCmd.Flags().StringSlice("priority", nil, "effective priorities to keep (high, medium, low)")
	columnFilterCmd.Flags().StringSlice("tag", nil, "keep tasks carrying any of these tags")
	columnFilterCmd.Flags().Bool("clear", false, "remove the filter")

	subs := []*cobra.Command{
		columnAddCmd, columnDeleteCmd, columnRenameCmd, columnMoveCmd, columnLeftCmd,
		columnRightCmd, columnLimitCmd, columnSortCmd, columnFilterCmd, columnTypeCmd,
	}
	for _, c := range subs {
		boardOption(c, "board to change (default: active board)")
	}
	columnCmd.AddCommand(subs...)
	rootCmd.AddCommand(columnCmd)
}

// mutateColumn resolves --board and the COLUMN argument, then runs fn via
// mutateBoards.
func mutateColumn(cmd *cobra.Command, action, colRef string,
	fn func(sess *session.Session, b config.Board, col config.Column) (string, error),
) error {
	boardRef, _ := cmd.Flags().GetString("board")
	return mutateBoards(cmd, action, func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, boardRef)
		if err != nil {
			return "", nil, err
		}
		col, err := resolveColumn(b, colRef)
		if err != nil {
			return "", nil, err
		}
		msg, err := fn(sess, b, col)
		if err != nil {
			return "", nil, err
		}
		updated, _ := sess.Boards.Board(b.ID)
		if c, _ := updated.Column(col.ID); c != nil {
			return msg, c, nil
		}
		return msg, map[string]string{"status": "deleted", "id": col.ID}, nil
	})
}

func ruleFromFlags(cmd *cobra.Command, typeName string) (board.Rule, error) {
	typ, ok := config.ParseColumnType(typeName)
	if !ok {
		names := make([]string, len(config.ColumnTypes))
		for i, t := range config.ColumnTypes {
			names[i] = string(t)
		}
		return board.Rule{}, clierr.Newf(clierr.InvalidColumn, "invalid column type %q; valid: %s",
			typeName, strings.Join(names, ", "))
	}
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	tag, _ := cmd.Flags().GetString("tag")
	rule := board.Rule{Type: typ, DateFrom: from, DateTo: to, Tag: tag}
	switch typ {
	case config.Dated:
		if from < 0 || from > to {
			return rule, clierr.New(clierr.InvalidInput, "dated columns need 0 <= --from <= --to")
		}
	case config.NamedTag:
		if strings.TrimLeft(strings.TrimSpace(tag), "#") == "" {
			return rule, clierr.New(clierr.InvalidInput, "namedTag columns need --tag")
		}
		rule.Tag = task.NormalizeTag(tag)
	}
	return rule, nil
}

func runColumnAdd(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	rule, err := ruleFromFlags(cmd, typeName)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return clierr.New(clierr.InvalidInput, "--limit must not be negative")
	}
	if strings.TrimSpace(args[0]) == "" {
		return clierr.New(clierr.InvalidInput, "column name must not be empty")
	}
	boardRef, _ := cmd.Flags().GetString("board")

	return mutateBoards(cmd, "column-add", func(sess *session.Session) (string, any, error) {
		b, err := resolveBoard(sess, boardRef)
		if err != nil {
			return "", nil, err
		}
		col := config.NewColumn(args[0], rule.Type)
		col.DateFrom, col.DateTo, col.Tag = rule.DateFrom, rule.DateTo, rule.Tag
		col.WorkLimit = limit
		added, ok := sess.Boards.AddColumn(b.ID, col)
		if !ok {
			return "", nil, notApplied("column %q could not be added to %q", args[0], b.Name)
		}
		return fmt.Sprintf("Added %s column %q to %q", added.Type, added.Name, b.Name), added, nil
	})
}

func runColumnDelete(cmd *cobra.Command, args []string) error {
	return mutateColumn(cmd, "column-delete", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if !sess.Boards.RemoveColumn(b.ID, col.ID) {
			return "", notApplied("column %q was not removed", col.Name)
		}
		return fmt.Sprintf("Removed column %q from %q", col.Name, b.Name), nil
	})
}

func runColumnRename(cmd *cobra.Command, args []string) error {
	return mutateColumn(cmd, "column-rename", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if !sess.Boards.RenameColumn(b.ID, col.ID, args[1]) {
			return "", notApplied("column name must not be empty")
		}
		return fmt.Sprintf("Renamed column %q to %q", col.Name, strings.TrimSpace(args[1])), nil
	})
}

func runColumnMove(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(args[1])
	if err != nil {
		return clierr.Newf(clierr.InvalidInput, "invalid position %q", args[1])
	}
	return mutateColumn(cmd, "column-move", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if pos < 1 || pos > len(b.Columns) {
			return "", clierr.Newf(clierr.InvalidInput, "position must be between 1 and %d", len(b.Columns))
		}
		ids := make([]string, 0, len(b.Columns))
		for _, c := range b.Columns {
			if c.ID != col.ID {
				ids = append(ids, c.ID)
			}
		}
		ids = slices.Insert(ids, pos-1, col.ID)
		if !sess.Boards.ReorderColumns(b.ID, ids) {
			return "", notApplied("columns of %q were not reordered", b.Name)
		}
		return fmt.Sprintf("Moved column %q to position %d", col.Name, pos), nil
	})
}

func runColumnShift(delta int) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return mutateColumn(cmd, "column-move", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
			var ok bool
			if delta < 0 {
				ok = sess.Boards.MoveColumnLeft(b.ID, col.ID)
			} else {
				ok = sess.Boards.MoveColumnRight(b.ID, col.ID)
			}
			if !ok {
				return "", clierr.Newf(clierr.NoChanges, "column %q is already at the edge", col.Name)
			}
			return fmt.Sprintf("Moved column %q", col.Name), nil
		})
	}
}

func runColumnLimit(cmd *cobra.Command, args []string) error {
	limit, err := strconv.Atoi(args[1])
	if err != nil || limit < 0 {
		return clierr.Newf(clierr.InvalidInput, "invalid limit %q: expected a number >= 0", args[1])
	}
	return mutateColumn(cmd, "column-limit", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		sess.Boards.SetWorkLimit(b.ID, col.ID, limit)
		if limit == 0 {
			return fmt.Sprintf("Removed the limit of %q", col.Name), nil
		}
		return fmt.Sprintf("Limited %q to %d tasks", col.Name, limit), nil
	})
}

func runColumnSort(cmd *cobra.Command, args []string) error {
	desc, _ := cmd.Flags().GetBool("desc")
	by := strings.ToLower(args[1])
	var sc *config.SortConfig
	switch config.SortBy(by) {
	case config.SortPriority, config.SortDate, config.SortName, config.SortManual:
		sc = &config.SortConfig{By: config.SortBy(by), Desc: desc}
	default:
		if by != "none" {
			return clierr.Newf(clierr.InvalidInput, "invalid sort %q; valid: priority, date, name, manual, none", args[1])
		}
	}
	return mutateColumn(cmd, "column-sort", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if !sess.Boards.SetSortConfig(b.ID, col.ID, sc) {
			return "", notApplied("sort of %q was not changed", col.Name)
		}
		if sc == nil {
			return fmt.Sprintf("Column %q uses the default order", col.Name), nil
		}
		return fmt.Sprintf("Column %q sorts by %s", col.Name, sc.By), nil
	})
}

func runColumnFilter(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	return mutateColumn(cmd, "column-filter", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if !sess.Boards.SetFilter(b.ID, col.ID, f) {
			return "", notApplied("filter of %q was not changed", col.Name)
		}
		if f == nil {
			return fmt.Sprintf("Cleared the filter of %q", col.Name), nil
		}
		return fmt.Sprintf("Updated the filter of %q", col.Name), nil
	})
}

// filterFromFlags builds a column filter; nil means clear.
func filterFromFlags(cmd *cobra.Command) (*config.ColumnFilter, error) {
	if clearFilter, _ := cmd.Flags().GetBool("clear"); clearFilter {
		return nil, nil //nolint:nilnil // nil filter clears
	}
	completion, _ := cmd.Flags().GetString("completion")
	priorities, _ := cmd.Flags().GetStringSlice("priority")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	f := &config.ColumnFilter{Completion: config.Completion(strings.ToLower(completion))}
	switch f.Completion {
	case "", config.CompletionAll, config.CompletionCompleted, config.CompletionIncomplete:
	default:
		return nil, clierr.Newf(clierr.InvalidInput, "invalid completion %q; valid: all, completed, incomplete", completion)
	}
	for _, p := range priorities {
		level, ok := config.ParsePriority(strings.ToLower(p))
		if !ok || !config.ValidPriority(level) {
			return nil, clierr.Newf(clierr.InvalidPriority, "invalid priority %q; allowed: high, medium, low", p)
		}
		f.Priorities = append(f.Priorities, level)
	}
	for _, tag := range tags {
		if strings.TrimLeft(strings.TrimSpace(tag), "#") != "" {
			f.Tags = append(f.Tags, task.NormalizeTag(tag))
		}
	}
	if f.IsZero() {
		return nil, clierr.New(clierr.InvalidInput, "give --completion, --priority, --tag or --clear")
	}
	return f, nil
}

func runColumnType(cmd *cobra.Command, args []string) error {
	rule, err := ruleFromFlags(cmd, args[1])
	if err != nil {
		return err
	}
	return mutateColumn(cmd, "column-type", args[0], func(sess *session.Session, b config.Board, col config.Column) (string, error) {
		if !sess.Boards.SetColumnType(b.ID, col.ID, rule) {
			return "", clierr.Newf(clierr.InvalidColumn, "column %q cannot become %s", col.Name, rule.Type)
		}
		return fmt.Sprintf("Column %q is now %s", col.Name, rule.Type), nil
	})
}
