// Package tui implements a terminal Kanban view of checkboard boards.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewConfirmDelete
	viewAdd
)

// Key and layout constants.
const (
	keyEsc = "esc"

	boardChrome = 2 // blank line + status bar below the column area
	errorChrome = 1 // extra line when error toast is displayed

	tickInterval = time.Minute            // how often rule columns are recomputed
	doubleClick  = 500 * time.Millisecond // max gap between clicks of a double-click
	inboxFile    = "Inbox.md"             // where new tasks go when nothing is selected
)

// Board is the top-level bubbletea model.
type Board struct {
	sess      *session.Session
	boardID   string
	boardName string
	current   config.Board // snapshot of the active board's metadata
	columns   []column
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	err       error
	now       func() time.Time

	help  help.Model
	input textinput.Model

	// Delete confirmation.
	deleteID   task.ID
	deleteText string

	// Double-click tracking.
	lastClickCol  int
	lastClickRow  int
	lastClickTime time.Time
}

// column is one board column with its scroll state.
type column struct {
	col       config.Column
	tasks     []*task.Task
	progress  map[task.ID]task.Progress
	scrollOff int // first visible row index
}

// NewBoard creates a Board model over the session's active board.
func NewBoard(sess *session.Session) *Board {
	ti := textinput.New()
	ti.Placeholder = "task text #tag 📅 2025-01-31"
	ti.CharLimit = 500
	b := &Board{sess: sess, now: time.Now, help: help.New(), input: ti}
	b.loadTasks()
	return b
}

// SetNow overrides the clock used for double-click detection (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.help.Width = msg.Width
		b.ensureVisible()
		return b, nil
	case ReloadMsg:
		b.loadTasks()
		return b, nil
	case TickMsg:
		b.loadTasks()
		return b, tickCmd()
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	case viewAdd:
		return b.viewAddTask()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		return b.handleBoardKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	case viewAdd:
		return b.handleAddKey(msg)
	}
	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, keys.Left):
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case key.Matches(msg, keys.Right):
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case key.Matches(msg, keys.Down):
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.tasks)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Up):
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case key.Matches(msg, keys.MoveLeft):
		b.moveSelected(-1)
	case key.Matches(msg, keys.MoveRight):
		b.moveSelected(1)
	case key.Matches(msg, keys.Toggle):
		b.toggleSelected()
	case key.Matches(msg, keys.Pin):
		if t := b.selectedTask(); t != nil {
			b.sess.Boards.ToggleBoardPin(b.boardID, t.ID)
			b.persist("pin", t.ID.String())
		}
	case key.Matches(msg, keys.Priority):
		if t := b.selectedTask(); t != nil {
			level, _ := strconv.Atoi(msg.String())
			b.sess.Boards.SetTodoPriority(b.boardID, t.ID, level)
			b.persist("priority", t.ID.String())
		}
	case key.Matches(msg, keys.Archive):
		if t := b.selectedTask(); t != nil {
			b.sess.Boards.ArchiveTodo(b.boardID, t.ID)
			b.persist("archive", t.ID.String())
		}
	case key.Matches(msg, keys.ArchiveDone):
		if n := b.sess.Boards.ArchiveCompletedTodos(b.boardID); n > 0 {
			b.persist("archive-completed", "")
		}
	case key.Matches(msg, keys.Delete):
		b.handleDeleteStart()
	case key.Matches(msg, keys.Add):
		b.input.Reset()
		b.view = viewAdd
		return b, b.input.Focus()
	case key.Matches(msg, keys.NextBoard):
		b.nextBoard()
	case key.Matches(msg, keys.HideEmpty):
		if bd, ok := b.sess.Boards.Board(b.boardID); ok {
			b.sess.Boards.SetHideEmpty(b.boardID, !bd.HideEmpty)
			b.persist("hide-empty", "")
		}
	case key.Matches(msg, keys.Help):
		b.help.ShowAll = !b.help.ShowAll
	}
	return b, nil
}

func (b *Board) handleDeleteStart() {
	if t := b.selectedTask(); t != nil {
		b.deleteID = t.ID
		b.deleteText = t.Description()
		b.view = viewConfirmDelete
	}
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		return b.executeDelete()
	case key.Matches(msg, keys.Cancel):
		b.view = viewBoard
	}
	return b, nil
}

func (b *Board) executeDelete() (tea.Model, tea.Cmd) {
	b.view = viewBoard
	if err := b.sess.Tasks.Delete(b.deleteID); err != nil {
		b.err = fmt.Errorf("deleting %s: %w", b.deleteID, err)
		return b, nil
	}
	b.sess.Activity.Record("delete", b.boardID, b.deleteID.String(), b.deleteText)
	b.loadTasks()
	return b, nil
}

func (b *Board) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		b.input.Blur()
		b.view = viewBoard
		return b, nil
	case "enter":
		text := strings.TrimSpace(b.input.Value())
		b.input.Blur()
		b.view = viewBoard
		if text != "" {
			b.addTask(text)
		}
		return b, nil
	}
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

// addTask appends a new task to the selected task's document, or to the
// inbox, and assigns it to the current column when that is manual.
func (b *Board) addTask(text string) {
	path := inboxFile
	if t := b.selectedTask(); t != nil {
		path = t.Path()
	}
	id, err := b.sess.Tasks.Add(path, "- [ ] "+text)
	if err != nil {
		b.err = err
		return
	}
	if col := b.currentColumn(); col != nil && col.col.Type == config.Manual {
		b.sess.Boards.AssignTodoToColumn(b.boardID, id, col.col.ID)
	}
	b.persist("add", id.String())
}

// moveSelected assigns the selected task to the nearest manual column in
// direction dir. Rule columns are skipped since they ignore assignments.
func (b *Board) moveSelected(dir int) {
	t := b.selectedTask()
	if t == nil {
		return
	}
	for i := b.activeCol + dir; i >= 0 && i < len(b.columns); i += dir {
		target := b.columns[i].col
		if target.Type != config.Manual {
			continue
		}
		if err := b.sess.Boards.CheckWIPLimit(b.boardID, target.ID, t.ID); err != nil {
			b.err = err
			return
		}
		b.sess.Boards.AssignTodoToColumn(b.boardID, t.ID, target.ID)
		b.persist("move", t.ID.String()+" -> "+target.Name)
		b.activeCol = i
		b.selectTask(t.ID)
		return
	}
}

func (b *Board) toggleSelected() {
	t := b.selectedTask()
	if t == nil {
		return
	}
	if err := b.sess.Tasks.Toggle(t.ID); err != nil {
		if errors.Is(err, registry.ErrStale) {
			err = fmt.Errorf("%s changed on disk, reloaded", t.ID)
			b.loadTasks()
		}
		b.err = err
		return
	}
	b.sess.Activity.Record("toggle", b.boardID, t.ID.String(), "")
	b.loadTasks()
}

func (b *Board) nextBoard() {
	boards := b.sess.Boards.Boards()
	if len(boards) < 2 { //nolint:mnd // nothing to cycle
		return
	}
	next := boards[0].ID
	for i, bd := range boards {
		if bd.ID == b.boardID {
			next = boards[(i+1)%len(boards)].ID
			break
		}
	}
	b.sess.Boards.SetActiveBoard(next)
	b.activeCol, b.activeRow = 0, 0
	b.persist("use-board", "")
}

// persist saves settings after a metadata change and reloads the view.
func (b *Board) persist(action, detail string) {
	if err := b.sess.Save(); err != nil {
		b.err = err
	} else {
		b.err = nil
		b.sess.Activity.Record(action, b.boardID, "", detail)
	}
	b.loadTasks()
}

// loadTasks rebuilds the columns of the active board.
func (b *Board) loadTasks() {
	active, ok := b.sess.Boards.ActiveBoard()
	if !ok {
		b.boardID, b.boardName, b.columns = "", "", nil
		b.current = config.Board{}
		return
	}
	b.boardID, b.boardName, b.current = active.ID, active.Name, active

	views := b.sess.Boards.VisibleColumns(active.ID)
	cols := make([]column, len(views))
	for i, v := range views {
		cols[i] = column{col: v.Column, tasks: v.Tasks, progress: make(map[task.ID]task.Progress)}
		for _, t := range v.Tasks {
			if p := b.sess.Tasks.SubTaskProgress(t.ID); p.Total > 0 {
				cols[i].progress[t.ID] = p
			}
		}
		// Keep scroll position for columns that survive the reload.
		for _, old := range b.columns {
			if old.col.ID == v.Column.ID {
				cols[i].scrollOff = old.scrollOff
			}
		}
	}
	b.columns = cols
	if b.activeCol >= len(b.columns) {
		b.activeCol = max(0, len(b.columns)-1)
	}
	b.clampRow()
}

func (b *Board) selectTask(id task.ID) {
	col := b.currentColumn()
	if col == nil {
		return
	}
	for i, t := range col.tasks {
		if t.ID == id {
			b.activeRow = i
			break
		}
	}
	b.clampRow()
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedTask() *task.Task {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.tasks) {
		return col.tasks[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.tasks) {
		b.activeRow = len(col.tasks) - 1
	}
	b.ensureVisible()
}

// handleMouse selects the clicked card. A double-click toggles it.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return b, nil
	}
	if b.view != viewBoard || len(b.columns) == 0 {
		return b, nil
	}

	colWidth := b.columnWidth()
	clickedCol := msg.X / colWidth
	if clickedCol >= len(b.columns) {
		return b, nil
	}

	col := &b.columns[clickedCol]
	lineY := msg.Y - 1
	clickedRow := -1
	cardLine := 0
	for rowIdx := col.scrollOff; lineY >= 0 && rowIdx < len(col.tasks); rowIdx++ {
		cardH := b.cardHeight(col, col.tasks[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			clickedRow = rowIdx
			break
		}
		cardLine += cardH
	}

	b.activeCol = clickedCol
	if clickedRow < 0 {
		b.clampRow()
		return b, nil
	}

	now := b.now()
	isDoubleClick := clickedCol == b.lastClickCol &&
		clickedRow == b.lastClickRow &&
		now.Sub(b.lastClickTime) < doubleClick

	b.activeRow = clickedRow
	b.lastClickCol = clickedCol
	b.lastClickRow = clickedRow
	b.lastClickTime = now
	b.ensureVisible()

	if isDoubleClick {
		b.toggleSelected()
	}
	return b, nil
}

// --- Messages ---

// ReloadMsg is sent when the board registry publishes a change.
type ReloadMsg struct{}

// TickMsg is sent periodically so date-based columns roll over.
type TickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

// Subscribe forwards board notifications to send as ReloadMsg. Notifications
// raised by the model's own mutations arrive while Update is running, so
// send is called on its own goroutine. It returns the unsubscribe func.
func Subscribe(boards *board.Registry, send func(tea.Msg)) func() {
	return boards.Subscribe(func(board.Event) {
		go send(ReloadMsg{})
	})
}
