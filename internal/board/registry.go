// Package board organizes tasks into Kanban boards. Manual columns hold
// explicitly assigned tasks; rule columns derive their members from task
// attributes on every query.
package board

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/twiced-technology-gmbh/checkboard/internal/bus"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// TaskSource is the slice of the task registry a board registry reads.
type TaskSource interface {
	Query(opts registry.QueryOptions) []*task.Task
	Get(id task.ID) (*task.Task, bool)
	Subscribe(fn func(registry.Event)) (unsubscribe func())
}

// EventKind says what a board notification is about.
type EventKind int

// Event kinds.
const (
	// TasksChanged republishes a task registry notification.
	TasksChanged EventKind = iota
	// BoardChanged reports a change inside one board.
	BoardChanged
	// BoardsChanged reports a board added, removed, renamed or activated.
	BoardsChanged
)

func (k EventKind) String() string {
	switch k {
	case TasksChanged:
		return "tasks"
	case BoardChanged:
		return "board"
	case BoardsChanged:
		return "boards"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is published once per mutation.
type Event struct {
	Kind    EventKind
	BoardID string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides how today's date is determined.
func WithClock(today func() date.Date) Option {
	return func(r *Registry) { r.today = today }
}

// WithLogger sets the logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// Registry owns the boards of a settings blob. It reads tasks from a
// TaskSource and never holds its own lock while calling into it.
type Registry struct {
	tasks    TaskSource
	settings *config.Settings
	today    func() date.Date
	log      *slog.Logger

	mu     sync.RWMutex
	closed bool

	events bus.Bus[Event]
	unsub  func()
}

// New creates a board registry over tasks. It shares settings with the task
// registry but only touches the board fields.
func New(tasks TaskSource, settings *config.Settings, opts ...Option) *Registry {
	r := &Registry{
		tasks:    tasks,
		settings: settings,
		today:    date.Today,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	r.unsub = tasks.Subscribe(func(e registry.Event) {
		r.log.Debug("task registry changed", "kind", e.Kind, "paths", e.Paths)
		r.events.Publish(Event{Kind: TasksChanged})
	})
	return r
}

// Subscribe registers fn for board notifications.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	return r.events.Subscribe(fn)
}

// Close detaches from the task registry.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.unsub()
}

// View runs fn with the board fields read-locked.
func (r *Registry) View(fn func(s *config.Settings)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.settings)
}

// Boards returns copies of every board in settings order.
func (r *Registry) Boards() []config.Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]config.Board, len(r.settings.Boards))
	for i, b := range r.settings.Boards {
		out[i] = b.Clone()
	}
	return out
}

// Board returns a copy of the board with id.
func (r *Registry) Board(id string) (config.Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b := r.settings.Board(id); b != nil {
		return b.Clone(), true
	}
	return config.Board{}, false
}

// FindBoard resolves a board by id, id prefix or name.
func (r *Registry) FindBoard(ref string) (config.Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b := r.settings.FindBoard(ref); b != nil {
		return b.Clone(), true
	}
	return config.Board{}, false
}

// ActiveBoard returns the board views open by default.
func (r *Registry) ActiveBoard() (config.Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b := r.settings.Board(r.settings.ActiveBoard); b != nil {
		return b.Clone(), true
	}
	return config.Board{}, false
}

// CreateBoard adds a board with the default columns. The first board
// becomes active.
func (r *Registry) CreateBoard(name string) config.Board {
	name = strings.TrimSpace(name)
	if name == "" {
		name = config.DefaultBoardName
	}
	b := config.NewBoard(name)
	b.Priorities = map[string]int{}
	b.Assignments = map[string]string{}

	r.mu.Lock()
	r.settings.Boards = append(r.settings.Boards, b)
	if r.settings.Board(r.settings.ActiveBoard) == nil {
		r.settings.ActiveBoard = b.ID
	}
	r.mu.Unlock()

	r.events.Publish(Event{Kind: BoardsChanged, BoardID: b.ID})
	return b.Clone()
}

// DeleteBoard removes a board. When it was active, the first remaining
// board takes over.
func (r *Registry) DeleteBoard(id string) bool {
	r.mu.Lock()
	i := slices.IndexFunc(r.settings.Boards, func(b config.Board) bool { return b.ID == id })
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	r.settings.Boards = slices.Delete(r.settings.Boards, i, i+1)
	if r.settings.ActiveBoard == id {
		r.settings.ActiveBoard = ""
		if len(r.settings.Boards) > 0 {
			r.settings.ActiveBoard = r.settings.Boards[0].ID
		}
	}
	r.mu.Unlock()

	r.events.Publish(Event{Kind: BoardsChanged, BoardID: id})
	return true
}

// RenameBoard sets a board's name. Blank names are rejected.
func (r *Registry) RenameBoard(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return r.mutateBoards(id, func(b *config.Board) bool {
		b.Name = name
		return true
	})
}

// SetActiveBoard selects the board views open by default.
func (r *Registry) SetActiveBoard(id string) bool {
	return r.mutateBoards(id, func(*config.Board) bool {
		r.settings.ActiveBoard = id
		return true
	})
}

// SetHideEmpty toggles whether empty columns are shown.
func (r *Registry) SetHideEmpty(id string, hide bool) bool {
	return r.mutate(id, func(b *config.Board) bool {
		b.HideEmpty = hide
		return true
	})
}

// AssignTodoToColumn records that a task sits in a column, replacing any
// previous assignment on that board. Rule columns ignore assignments, but
// they are kept for when the column becomes manual again.
func (r *Registry) AssignTodoToColumn(boardID string, id task.ID, columnID string) bool {
	if _, ok := r.tasks.Get(id); !ok {
		return false
	}
	return r.mutate(boardID, func(b *config.Board) bool {
		if c, _ := b.Column(columnID); c == nil {
			return false
		}
		if b.Assignments == nil {
			b.Assignments = map[string]string{}
		}
		b.Assignments[id.String()] = columnID
		return true
	})
}

// ColumnOf returns the manual column a task sits in: its assignment when
// that column exists, otherwise the board's first column.
func (r *Registry) ColumnOf(boardID string, id task.ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.settings.Board(boardID)
	if b == nil || len(b.Columns) == 0 {
		return "", false
	}
	return resolveColumn(b, &task.Task{ID: id}), true
}

// ToggleBoardPin flips a board-scoped pin. It reports the new state and
// whether the board exists.
func (r *Registry) ToggleBoardPin(boardID string, id task.ID) (pinned, ok bool) {
	ok = r.mutate(boardID, func(b *config.Board) bool {
		b.Pinned, pinned = config.Toggle(b.Pinned, id.String())
		return true
	})
	return pinned, ok
}

// SetTodoPriority sets a board-scoped priority. Level 0 clears it.
func (r *Registry) SetTodoPriority(boardID string, id task.ID, level int) bool {
	if level != config.PriorityNone && !config.ValidPriority(level) {
		return false
	}
	return r.mutate(boardID, func(b *config.Board) bool {
		if level == config.PriorityNone {
			delete(b.Priorities, id.String())
			return true
		}
		if b.Priorities == nil {
			b.Priorities = map[string]int{}
		}
		b.Priorities[id.String()] = level
		return true
	})
}

// ArchiveTodo hides a task from one board.
func (r *Registry) ArchiveTodo(boardID string, id task.ID) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		var added bool
		b.Archived, added = config.AddUnique(b.Archived, id.String())
		return added
	})
}

// UnarchiveTodo shows a board-archived task again.
func (r *Registry) UnarchiveTodo(boardID string, id task.ID) bool {
	return r.mutate(boardID, func(b *config.Board) bool {
		var removed bool
		b.Archived, removed = config.Remove(b.Archived, id.String())
		return removed
	})
}

// ArchiveCompletedTodos archives every completed task on a board and
// returns how many were newly archived.
func (r *Registry) ArchiveCompletedTodos(boardID string) int {
	all := r.tasks.Query(registry.QueryOptions{Unfiltered: true})
	n := 0
	r.mutate(boardID, func(b *config.Board) bool {
		for _, t := range all {
			if !t.Completed {
				continue
			}
			var added bool
			if b.Archived, added = config.AddUnique(b.Archived, t.ID.String()); added {
				n++
			}
		}
		return n > 0
	})
	return n
}

// mutate applies fn to a board under the lock and publishes BoardChanged
// when fn reports a change. It returns false for unknown boards or when fn
// declined.
func (r *Registry) mutate(boardID string, fn func(b *config.Board) bool) bool {
	return r.apply(boardID, BoardChanged, fn)
}

func (r *Registry) mutateBoards(boardID string, fn func(b *config.Board) bool) bool {
	return r.apply(boardID, BoardsChanged, fn)
}

func (r *Registry) apply(boardID string, kind EventKind, fn func(b *config.Board) bool) bool {
	r.mu.Lock()
	b := r.settings.Board(boardID)
	changed := b != nil && fn(b)
	r.mu.Unlock()

	if changed {
		r.events.Publish(Event{Kind: kind, BoardID: boardID})
	}
	return changed
}
