package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// ColumnSummary holds metrics for a single column.
type ColumnSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Count     int    `json:"count"`
	WorkLimit int    `json:"work_limit,omitempty"`
	OverLimit bool   `json:"over_limit,omitempty"`
	Overdue   int    `json:"overdue"`
}

// Overview is the aggregate view of a board.
type Overview struct {
	BoardID   string          `json:"board_id"`
	BoardName string          `json:"board_name"`
	Total     int             `json:"total_tasks"`
	Columns   []ColumnSummary `json:"columns"`
}

// Summary computes per-column metrics for a board. Total counts distinct
// tasks, since rule columns may overlap.
func (r *Registry) Summary(boardID string) (Overview, bool) {
	b, ok := r.Board(boardID)
	if !ok {
		return Overview{}, false
	}
	today := r.today()
	ov := Overview{BoardID: b.ID, BoardName: b.Name}
	seen := make(map[task.ID]bool)
	for _, v := range r.Columns(boardID) {
		cs := ColumnSummary{
			ID:        v.Column.ID,
			Name:      v.Column.Name,
			Type:      string(v.Column.Type),
			Count:     len(v.Tasks),
			WorkLimit: v.Column.WorkLimit,
		}
		cs.OverLimit = cs.WorkLimit > 0 && cs.Count > cs.WorkLimit
		for _, t := range v.Tasks {
			if isOverdue(t, today) {
				cs.Overdue++
			}
			seen[t.ID] = true
		}
		ov.Columns = append(ov.Columns, cs)
	}
	ov.Total = len(seen)
	return ov, true
}

func isOverdue(t *task.Task, today date.Date) bool {
	return !t.Completed && t.Due != nil && t.Due.Before(today)
}

// CheckWIPLimit verifies that assigning id to a column would not exceed
// the column's work limit. A task already in the column does not add to
// the count. It returns nil for unknown boards and columns.
func (r *Registry) CheckWIPLimit(boardID, columnID string, id task.ID) error {
	b, ok := r.Board(boardID)
	if !ok {
		return nil
	}
	col, _ := b.Column(columnID)
	if col == nil || col.WorkLimit == 0 {
		return nil
	}
	members := r.TasksForColumn(boardID, columnID)
	for _, t := range members {
		if t.ID == id {
			return nil
		}
	}
	if len(members) >= col.WorkLimit {
		return clierr.Newf(clierr.WIPLimitExceeded,
			"column %q is at its work limit (%d/%d)", col.Name, len(members), col.WorkLimit).
			WithDetails(map[string]any{
				"column":  col.Name,
				"limit":   col.WorkLimit,
				"current": len(members),
			})
	}
	return nil
}

// ParseIDs parses task ids given as separate arguments or comma-separated
// lists, dropping duplicates while keeping the first occurrence's order.
func ParseIDs(args []string) ([]task.ID, error) {
	seen := make(map[task.ID]bool, len(args))
	ids := make([]task.ID, 0, len(args))
	for _, arg := range args {
		for p := range strings.SplitSeq(arg, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			id, err := task.ParseID(p)
			if err != nil {
				return nil, clierr.Newf(clierr.InvalidTaskID, "invalid task id %q: expected path:line", p)
			}
			if !seen[id] {
				ids = append(ids, id)
				seen[id] = true
			}
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}
