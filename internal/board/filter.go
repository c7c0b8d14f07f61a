package board

import (
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// resolveColumn returns the column a task sits in for manual membership:
// its assignment when that column still exists, otherwise the first column.
func resolveColumn(b *config.Board, t *task.Task) string {
	if colID, ok := b.Assignments[t.ID.String()]; ok {
		if c, _ := b.Column(colID); c != nil {
			return colID
		}
	}
	if len(b.Columns) == 0 {
		return ""
	}
	return b.Columns[0].ID
}

// isMember selects the membership function by column type. Rule columns
// ignore assignments entirely.
func isMember(b *config.Board, col *config.Column, t *task.Task, today date.Date) bool {
	switch col.Type {
	case config.Manual:
		return resolveColumn(b, t) == col.ID
	case config.Completed:
		return t.Completed
	case config.Undated:
		return t.Due == nil
	case config.Overdue:
		return t.Due != nil && t.Due.Before(today)
	case config.Dated:
		return t.Due != nil && t.Due.Between(today.AddDays(col.DateFrom), today.AddDays(col.DateTo))
	case config.NamedTag:
		return matchesNamedTag(t, col.Tag)
	}
	return false
}

func matchesNamedTag(t *task.Task, tag string) bool {
	if strings.TrimLeft(strings.TrimSpace(tag), "#") == "" {
		return false
	}
	want := task.NormalizeTag(tag)
	return t.HasTag(want) || strings.Contains(strings.ToLower(t.Text), strings.ToLower(want))
}

// matchesFilter applies the column's optional filter (AND logic).
func matchesFilter(b *config.Board, f *config.ColumnFilter, t *task.Task) bool {
	if f.IsZero() {
		return true
	}
	switch f.Completion {
	case config.CompletionCompleted:
		if !t.Completed {
			return false
		}
	case config.CompletionIncomplete:
		if t.Completed {
			return false
		}
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, effectivePriority(b, t)) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(t, f.Tags) {
		return false
	}
	return true
}

// effectivePriority is the board-scoped priority, falling back to the
// global one.
func effectivePriority(b *config.Board, t *task.Task) int {
	if p, ok := b.Priorities[t.ID.String()]; ok && config.ValidPriority(p) {
		return p
	}
	return t.Priority
}

func hasAnyTag(t *task.Task, tags []string) bool {
	for _, tag := range tags {
		if t.HasTag(tag) {
			return true
		}
	}
	return false
}
