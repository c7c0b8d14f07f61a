package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// sortColumn orders a column in place. The optional sort config is applied
// first, then board-pinned tasks are moved to the front. Both passes are
// stable, so ties keep the task registry's order.
func sortColumn(tasks []*task.Task, b *config.Board, sc *config.SortConfig) {
	if sc != nil && sc.By != config.SortManual && sc.By != "" {
		slices.SortStableFunc(tasks, func(x, y *task.Task) int {
			return compareTasks(x, y, b, sc)
		})
	}
	slices.SortStableFunc(tasks, func(x, y *task.Task) int {
		px, py := slices.Contains(b.Pinned, x.ID.String()), slices.Contains(b.Pinned, y.ID.String())
		switch {
		case px && !py:
			return -1
		case py && !px:
			return 1
		}
		return 0
	})
}

func compareTasks(x, y *task.Task, b *config.Board, sc *config.SortConfig) int {
	dir := 1
	if sc.Desc {
		dir = -1
	}
	switch sc.By {
	case config.SortPriority:
		return compareMissingLast(effectivePriority(b, x), effectivePriority(b, y), 0, dir)
	case config.SortDate:
		return compareDue(x, y, dir)
	case config.SortName:
		return dir * strings.Compare(strings.ToLower(x.Description()), strings.ToLower(y.Description()))
	}
	return 0
}

// compareMissingLast compares a and b in direction dir, keeping the missing
// value after everything else regardless of direction.
func compareMissingLast(a, b, missing, dir int) int {
	switch {
	case a == missing && b == missing:
		return 0
	case a == missing:
		return 1
	case b == missing:
		return -1
	}
	return dir * cmp.Compare(a, b)
}

func compareDue(x, y *task.Task, dir int) int {
	switch {
	case x.Due == nil && y.Due == nil:
		return 0
	case x.Due == nil:
		return 1 // undated sorts last
	case y.Due == nil:
		return -1
	}
	return dir * x.Due.Compare(y.Due.Time)
}
