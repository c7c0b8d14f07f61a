package board

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// ColumnView is a column together with its current members.
type ColumnView struct {
	Column config.Column `json:"column"`
	Tasks  []*task.Task  `json:"tasks"`
}

// Rule is the membership definition of a column.
type Rule struct {
	Type     config.ColumnType
	DateFrom int
	DateTo   int
	Tag      string
}

// TasksForColumn returns the members of a column in display order. Unknown
// boards and columns yield nil.
func (r *Registry) TasksForColumn(boardID, columnID string) []*task.Task {
	all := r.tasks.Query(registry.QueryOptions{Unfiltered: true})
	today := r.today()

	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.settings.Board(boardID)
	if b == nil {
		return nil
	}
	col, _ := b.Column(columnID)
	if col == nil {
		return nil
	}
	return columnTasks(b, col, all, today)
}

// Columns returns every column of a board with its members.
func (r *Registry) Columns(boardID string) []ColumnView {
	all := r.tasks.Query(registry.QueryOptions{Unfiltered: true})
	today := r.today()

	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.settings.Board(boardID)
	if b == nil {
		return nil
	}
	views := make([]ColumnView, 0, len(b.Columns))
	for i := range b.Columns {
		col := &b.Columns[i]
		views = append(views, ColumnView{Column: col.Clone(), Tasks: columnTasks(b, col, all, today)})
	}
	return views
}

// VisibleColumns is Columns without the empty ones when the board hides
// them.
func (r *Registry) VisibleColumns(boardID string) []ColumnView {
	views := r.Columns(boardID)
	r.mu.RLock()
	b := r.settings.Board(boardID)
	hide := b != nil && b.HideEmpty
	r.mu.RUnlock()
	if !hide {
		return views
	}
	return slices.DeleteFunc(views, func(v ColumnView) bool { return len(v.Tasks) == 0 })
}

func columnTasks(b *config.Board, col *config.Column, all []*task.Task, today date.Date) []*task.Task {
	var out []*task.Task
	for _, t := range all {
		if slices.Contains(b.Archived, t.ID.String()) {
			continue
		}
		if !isMember(b, col, t, today) || !matchesFilter(b, col.Filter, t) {
			continue
		}
		out = append(out, t)
	}
	sortColumn(out, b, col.Sort)
	return out
}

// AddColumn appends a column to a board. The column gets a fresh id when it
// has none. Invalid columns are rejected.
func (r *Registry) AddColumn(boardID string, col config.Column) (config.Column, bool) {
	col = col.Clone()
	col.Name = strings.TrimSpace(col.Name)
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	if col.Type == "" {
		col.Type = config.Manual
	}
	if col.Type != config.Dated {
		col.DateFrom, col.DateTo = 0, 0
	}
	if config.ValidateColumn(&col) != nil {
		return config.Column{}, false
	}
	ok := r.mutate(boardID, func(b *config.Board) bool {
		if c, _ := b.Column(col.ID); c != nil {
			return false
		}
		b.Columns = append(b.Columns, col)
		return true
	})
	if !ok {
		return config.Column{}, false
	}
	return col.Clone(), true
}

// RemoveColumn deletes a column and every assignment to it on that board.
func (r *Registry) RemoveColumn(boardID, columnID string) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		_, i := b.Column(columnID)
		if i < 0 {
			return false
		}
		b.Columns = slices.Delete(b.Columns, i, i+1)
		for id, c := range b.Assignments {
			if c == columnID {
				delete(b.Assignments, id)
			}
		}
		return true
	})
}

// RenameColumn sets a column's name. Blank names are rejected.
func (r *Registry) RenameColumn(boardID, columnID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return r.mutateColumn(boardID, columnID, func(c *config.Column) bool {
		c.Name = name
		return true
	})
}

// ReorderColumns puts the columns in the given order. ids must be a
// permutation of the board's column ids.
func (r *Registry) ReorderColumns(boardID string, ids []string) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		if len(ids) != len(b.Columns) {
			return false
		}
		reordered := make([]config.Column, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			c, _ := b.Column(id)
			if c == nil || seen[id] {
				return false
			}
			seen[id] = true
			reordered = append(reordered, *c)
		}
		b.Columns = reordered
		return true
	})
}

// MoveColumnLeft swaps a column with its left neighbour.
func (r *Registry) MoveColumnLeft(boardID, columnID string) bool {
	return r.shiftColumn(boardID, columnID, -1)
}

// MoveColumnRight swaps a column with its right neighbour.
func (r *Registry) MoveColumnRight(boardID, columnID string) bool {
	return r.shiftColumn(boardID, columnID, 1)
}

func (r *Registry) shiftColumn(boardID, columnID string, delta int) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		_, i := b.Column(columnID)
		j := i + delta
		if i < 0 || j < 0 || j >= len(b.Columns) {
			return false
		}
		b.Columns[i], b.Columns[j] = b.Columns[j], b.Columns[i]
		return true
	})
}

// SetWorkLimit sets the soft WIP limit of a column; 0 removes it.
func (r *Registry) SetWorkLimit(boardID, columnID string, limit int) bool {
	if limit < 0 {
		return false
	}
	return r.mutateColumn(boardID, columnID, func(c *config.Column) bool {
		c.WorkLimit = limit
		return true
	})
}

// SetSortConfig sets how a column orders its tasks; nil restores the
// default order.
func (r *Registry) SetSortConfig(boardID, columnID string, sc *config.SortConfig) bool {
	if sc != nil {
		s := *sc
		sc = &s
	}
	return r.mutateColumn(boardID, columnID, func(c *config.Column) bool {
		next := *c
		next.Sort = sc
		if config.ValidateColumn(&next) != nil {
			return false
		}
		c.Sort = sc
		return true
	})
}

// SetFilter sets the extra membership filter of a column; nil clears it.
func (r *Registry) SetFilter(boardID, columnID string, f *config.ColumnFilter) bool {
	if f != nil {
		cp := *f
		cp.Priorities = slices.Clone(f.Priorities)
		cp.Tags = slices.Clone(f.Tags)
		f = &cp
	}
	return r.mutateColumn(boardID, columnID, func(c *config.Column) bool {
		next := *c
		next.Filter = f
		if config.ValidateColumn(&next) != nil {
			return false
		}
		c.Filter = f
		return true
	})
}

// SetColumnType changes how a column selects its members. Dated columns
// need 0 <= DateFrom <= DateTo and namedTag columns need a tag. Existing
// assignments are left alone.
func (r *Registry) SetColumnType(boardID, columnID string, rule Rule) bool {
	if !rule.Type.Known() {
		return false
	}
	return r.mutateColumn(boardID, columnID, func(c *config.Column) bool {
		next := *c
		next.Type = rule.Type
		next.DateFrom, next.DateTo, next.Tag = 0, 0, ""
		switch rule.Type {
		case config.Dated:
			if rule.DateFrom < 0 || rule.DateFrom > rule.DateTo {
				return false
			}
			next.DateFrom, next.DateTo = rule.DateFrom, rule.DateTo
		case config.NamedTag:
			next.Tag = strings.TrimSpace(rule.Tag)
		}
		if config.ValidateColumn(&next) != nil {
			return false
		}
		*c = next
		return true
	})
}

func (r *Registry) mutateColumn(boardID, columnID string, fn func(c *config.Column) bool) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		c, _ := b.Column(columnID)
		return c != nil && fn(c)
	})
}
