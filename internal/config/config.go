package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/filelock"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("no checkboard settings found (run 'checkboard init' to create them)")
	ErrInvalid  = errors.New("invalid settings")
)

var validate = validator.New()

// ColumnType selects the membership function of a column.
type ColumnType string

// Column types.
const (
	Manual    ColumnType = "manual"
	Completed ColumnType = "completed"
	Undated   ColumnType = "undated"
	Overdue   ColumnType = "overdue"
	Dated     ColumnType = "dated"
	NamedTag  ColumnType = "namedTag"
)

// ColumnTypes lists every known column type in display order.
var ColumnTypes = []ColumnType{Manual, Completed, Undated, Overdue, Dated, NamedTag}

// IsRule reports whether membership is computed from task attributes
// rather than manual assignment.
func (t ColumnType) IsRule() bool { return t != Manual }

// Known reports whether t is one of ColumnTypes.
func (t ColumnType) Known() bool { return slices.Contains(ColumnTypes, t) }

// ParseColumnType matches s case-insensitively against the known types.
func ParseColumnType(s string) (ColumnType, bool) {
	for _, t := range ColumnTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	if strings.EqualFold(s, "tag") {
		return NamedTag, true
	}
	return "", false
}

// SortBy names a column sort criterion.
type SortBy string

// Sort criteria.
const (
	SortPriority SortBy = "priority"
	SortDate     SortBy = "date"
	SortName     SortBy = "name"
	SortManual   SortBy = "manual"
)

// SortConfig orders the tasks of a column.
type SortConfig struct {
	By   SortBy `yaml:"by" json:"by" validate:"oneof=priority date name manual"`
	Desc bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Completion restricts a column to completed or incomplete tasks.
type Completion string

// Completion filter values.
const (
	CompletionAll        Completion = "all"
	CompletionCompleted  Completion = "completed"
	CompletionIncomplete Completion = "incomplete"
)

// ColumnFilter is an additional AND condition on column membership.
type ColumnFilter struct {
	Completion Completion `yaml:"completion,omitempty" json:"completion,omitempty" validate:"omitempty,oneof=all completed incomplete"`
	Priorities []int      `yaml:"priorities,omitempty" json:"priorities,omitempty" validate:"dive,min=1,max=3"`
	Tags       []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// IsZero reports whether the filter lets every task through.
func (f *ColumnFilter) IsZero() bool {
	return f == nil || ((f.Completion == "" || f.Completion == CompletionAll) &&
		len(f.Priorities) == 0 && len(f.Tags) == 0)
}

// Column is one lane of a board.
type Column struct {
	ID        string        `yaml:"id" json:"id" validate:"required"`
	Name      string        `yaml:"name" json:"name" validate:"required"`
	Type      ColumnType    `yaml:"type" json:"type" validate:"oneof=manual completed undated overdue dated namedTag"`
	DateFrom  int           `yaml:"date_from,omitempty" json:"date_from,omitempty" validate:"gte=0"`
	DateTo    int           `yaml:"date_to,omitempty" json:"date_to,omitempty" validate:"gtefield=DateFrom"`
	Tag       string        `yaml:"tag,omitempty" json:"tag,omitempty" validate:"required_if=Type namedTag"`
	WorkLimit int           `yaml:"work_limit,omitempty" json:"work_limit,omitempty" validate:"gte=0"`
	Sort      *SortConfig   `yaml:"sort,omitempty" json:"sort,omitempty"`
	Filter    *ColumnFilter `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// NewColumn returns a column with a fresh id.
func NewColumn(name string, typ ColumnType) Column {
	return Column{ID: uuid.NewString(), Name: name, Type: typ}
}

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	if c.Sort != nil {
		s := *c.Sort
		c.Sort = &s
	}
	if c.Filter != nil {
		f := *c.Filter
		f.Priorities = slices.Clone(f.Priorities)
		f.Tags = slices.Clone(f.Tags)
		c.Filter = &f
	}
	return c
}

// Board is a named set of columns plus board-scoped task metadata. Task ids
// are stored in their "path:line" form.
type Board struct {
	ID          string            `yaml:"id" json:"id" validate:"required"`
	Name        string            `yaml:"name" json:"name" validate:"required"`
	Columns     []Column          `yaml:"columns" json:"columns" validate:"dive"`
	Pinned      []string          `yaml:"pinned,omitempty" json:"pinned,omitempty"`
	Priorities  map[string]int    `yaml:"priorities,omitempty" json:"priorities,omitempty" validate:"dive,min=1,max=3"`
	Archived    []string          `yaml:"archived,omitempty" json:"archived,omitempty"`
	Assignments map[string]string `yaml:"assignments,omitempty" json:"assignments,omitempty"`
	HideEmpty   bool              `yaml:"hide_empty,omitempty" json:"hide_empty,omitempty"`
}

// NewBoard returns a board with a fresh id and the default columns.
func NewBoard(name string) Board {
	b := Board{ID: uuid.NewString(), Name: name}
	for _, c := range DefaultColumns {
		b.Columns = append(b.Columns, NewColumn(c.Name, c.Type))
	}
	return b
}

// Column returns the column with the given id and its index, or nil and -1.
func (b *Board) Column(id string) (*Column, int) {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i], i
		}
	}
	return nil, -1
}

// FindColumn resolves a column by id, unique id prefix, or case-insensitive
// name.
func (b *Board) FindColumn(ref string) *Column {
	if c, _ := b.Column(ref); c != nil {
		return c
	}
	var match *Column
	for i := range b.Columns {
		c := &b.Columns[i]
		if strings.EqualFold(c.Name, ref) {
			return c
		}
		if ref != "" && strings.HasPrefix(c.ID, ref) {
			if match != nil {
				return nil
			}
			match = c
		}
	}
	return match
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	cols := make([]Column, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = c.Clone()
	}
	b.Columns = cols
	b.Pinned = slices.Clone(b.Pinned)
	b.Archived = slices.Clone(b.Archived)
	b.Priorities = maps.Clone(b.Priorities)
	b.Assignments = maps.Clone(b.Assignments)
	return b
}

// Folders limits which documents are scanned. Entries are vault-relative
// directory paths.
type Folders struct {
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Allows reports whether the document at rel passes the folder rules. An
// empty include list allows the whole vault; exclusions always win.
func (f Folders) Allows(rel string) bool {
	for _, ex := range f.Exclude {
		if strings.TrimSpace(ex) != "" && underFolder(rel, ex) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		if underFolder(rel, in) {
			return true
		}
	}
	return false
}

func underFolder(rel, folder string) bool {
	folder = strings.Trim(filepath.ToSlash(folder), "/")
	if folder == "" || folder == "." {
		return true
	}
	return rel == folder || strings.HasPrefix(rel, folder+"/")
}

// Settings is the persisted state shared by the task and board registries.
type Settings struct {
	Version       int            `yaml:"version" json:"version"`
	HideCompleted bool           `yaml:"hide_completed" json:"hide_completed"`
	Folders       Folders        `yaml:"folders,omitempty" json:"folders"`
	TagFilter     []string       `yaml:"tag_filter,omitempty" json:"tag_filter,omitempty"`
	PriorityOrder []string       `yaml:"priority_order,omitempty" json:"priority_order,omitempty"`
	Pinned        []string       `yaml:"pinned,omitempty" json:"pinned,omitempty"`
	Priorities    map[string]int `yaml:"priorities,omitempty" json:"priorities,omitempty" validate:"dive,min=1,max=3"`
	Archived      []string       `yaml:"archived,omitempty" json:"archived,omitempty"`
	Boards        []Board        `yaml:"boards,omitempty" json:"boards,omitempty" validate:"dive"`
	ActiveBoard   string         `yaml:"active_board,omitempty" json:"active_board,omitempty"`
	Debounce      string         `yaml:"debounce,omitempty" json:"debounce,omitempty"`

	// path is the settings file location (not serialized).
	path     string `yaml:"-"`
	migrated bool
}

// NewDefault creates Settings with one default board.
func NewDefault() *Settings {
	b := NewBoard(DefaultBoardName)
	s := &Settings{
		Version:     CurrentVersion,
		Boards:      []Board{b},
		ActiveBoard: b.ID,
		Debounce:    DefaultDebounce,
	}
	s.normalize()
	return s
}

// Path returns the settings file location.
func (s *Settings) Path() string { return s.path }

// SetPath sets the settings file location.
func (s *Settings) SetPath(path string) { s.path = path }

// Dir returns the directory holding the settings file.
func (s *Settings) Dir() string { return filepath.Dir(s.path) }

// DebounceDelay parses Debounce, falling back to DefaultDebounce.
func (s *Settings) DebounceDelay() time.Duration {
	if d, err := time.ParseDuration(s.Debounce); err == nil && d > 0 {
		return d
	}
	return defaultDebounceDuration()
}

// Board returns the board with the given id, or nil.
func (s *Settings) Board(id string) *Board {
	for i := range s.Boards {
		if s.Boards[i].ID == id {
			return &s.Boards[i]
		}
	}
	return nil
}

// FindBoard resolves a board by id, unique id prefix, or case-insensitive
// name.
func (s *Settings) FindBoard(ref string) *Board {
	if b := s.Board(ref); b != nil {
		return b
	}
	var match *Board
	for i := range s.Boards {
		b := &s.Boards[i]
		if strings.EqualFold(b.Name, ref) {
			return b
		}
		if ref != "" && strings.HasPrefix(b.ID, ref) {
			if match != nil {
				return nil
			}
			match = b
		}
	}
	return match
}

// TagAllowed reports whether a task with tags passes the global tag filter.
func (s *Settings) TagAllowed(tags []string) bool {
	if len(s.TagFilter) == 0 {
		return true
	}
	for _, want := range s.TagFilter {
		want = "#" + strings.TrimLeft(want, "#")
		for _, have := range tags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, s.Version, CurrentVersion)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if s.Debounce != "" {
		if _, err := time.ParseDuration(s.Debounce); err != nil {
			return fmt.Errorf("%w: invalid debounce %q: %w", ErrInvalid, s.Debounce, err)
		}
	}
	boardIDs := make(map[string]bool, len(s.Boards))
	for _, b := range s.Boards {
		if boardIDs[b.ID] {
			return fmt.Errorf("%w: duplicate board id %q", ErrInvalid, b.ID)
		}
		boardIDs[b.ID] = true
		colIDs := make(map[string]bool, len(b.Columns))
		for _, c := range b.Columns {
			if colIDs[c.ID] {
				return fmt.Errorf("%w: board %q has duplicate column id %q", ErrInvalid, b.Name, c.ID)
			}
			colIDs[c.ID] = true
		}
	}
	if s.ActiveBoard != "" && !boardIDs[s.ActiveBoard] {
		return fmt.Errorf("%w: active_board %q does not exist", ErrInvalid, s.ActiveBoard)
	}
	return nil
}

// ValidateColumn checks a single column against its field rules.
func ValidateColumn(c *Column) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if c.Type == NamedTag && strings.TrimLeft(strings.TrimSpace(c.Tag), "#") == "" {
		return fmt.Errorf("%w: column %q needs a tag", ErrInvalid, c.Name)
	}
	if c.Sort != nil {
		if err := validate.Struct(c.Sort); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
		}
	}
	if c.Filter != nil {
		if err := validate.Struct(c.Filter); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Settings.")
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "min", "max", "gte":
			msgs = append(msgs, fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param()))
		case "gtefield":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// normalize fills absent fields with defaults so that loading never fails
// because something is missing.
func (s *Settings) normalize() {
	if s.Debounce == "" {
		s.Debounce = DefaultDebounce
	}
	if s.Priorities == nil {
		s.Priorities = map[string]int{}
	}
	for i := range s.Boards {
		b := &s.Boards[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.Name == "" {
			b.Name = DefaultBoardName
		}
		if b.Priorities == nil {
			b.Priorities = map[string]int{}
		}
		if b.Assignments == nil {
			b.Assignments = map[string]string{}
		}
		for j := range b.Columns {
			c := &b.Columns[j]
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			if c.Name == "" {
				c.Name = "Column " + strconv.Itoa(j+1)
			}
			if !c.Type.Known() || (c.Type == NamedTag && strings.TrimSpace(c.Tag) == "") {
				c.Type = Manual
			}
		}
	}
	if s.ActiveBoard != "" && s.Board(s.ActiveBoard) == nil {
		s.ActiveBoard = ""
	}
	if s.ActiveBoard == "" && len(s.Boards) > 0 {
		s.ActiveBoard = s.Boards[0].ID
	}
}

// Save writes the settings to their file atomically.
func (s *Settings) Save() error {
	if s.path == "" {
		return errors.New("settings path not set")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Init creates default settings at path. It fails if the file exists.
func Init(path string) (*Settings, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if _, err := os.Stat(absPath); err == nil {
		return nil, clierr.Newf(clierr.SettingsExist, "settings already exist at %s", absPath)
	}

	s := NewDefault()
	s.SetPath(absPath)
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads, migrates and validates the settings file at path.
func Load(path string) (*Settings, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // settings path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.path = absPath

	if s.migrated {
		if err := s.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated settings: %w", err)
		}
	}
	return s, nil
}

// Parse decodes, migrates, fills defaults and validates a settings blob.
// An empty blob yields empty settings.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: parsing settings: %w", ErrInvalid, err)
	}
	// A blob without a version predates versioning.
	if s.Version == 0 {
		s.Version = 1
	}

	oldVersion := s.Version
	if err := migrate(&s); err != nil {
		return nil, err
	}
	s.migrated = s.Version != oldVersion

	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Lock takes the advisory lock that serializes settings read-modify-write
// cycles across processes.
func Lock(settingsPath string) (unlock func() error, err error) {
	dir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}
	return filelock.Lock(filepath.Join(dir, LockFileName))
}

// DefaultPath returns the settings file location for a vault.
func DefaultPath(vault string) string {
	return filepath.Join(vault, DefaultDir, SettingsFileName)
}

// FindVault walks upward from startDir looking for a directory containing
// the settings directory. Returns the absolute path to the vault.
func FindVault(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		if _, err := os.Stat(DefaultPath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.SettingsNotFound,
				"no checkboard vault found (run 'checkboard init' to create one)")
		}
		dir = parent
	}
}

// Toggle adds item to list if absent, otherwise removes it. It reports
// whether item is present afterwards.
func Toggle(list []string, item string) ([]string, bool) {
	if i := slices.Index(list, item); i >= 0 {
		return slices.Delete(list, i, i+1), false
	}
	return append(list, item), true
}

// AddUnique appends item if absent and reports whether it was added.
func AddUnique(list []string, item string) ([]string, bool) {
	if slices.Contains(list, item) {
		return list, false
	}
	return append(list, item), true
}

// Remove deletes item from list and reports whether it was present.
func Remove(list []string, item string) ([]string, bool) {
	i := slices.Index(list, item)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

// Clone returns a deep copy of s, including its path.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Folders.Include = slices.Clone(s.Folders.Include)
	c.Folders.Exclude = slices.Clone(s.Folders.Exclude)
	c.TagFilter = slices.Clone(s.TagFilter)
	c.PriorityOrder = slices.Clone(s.PriorityOrder)
	c.Pinned = slices.Clone(s.Pinned)
	c.Archived = slices.Clone(s.Archived)
	c.Priorities = maps.Clone(s.Priorities)
	c.Boards = make([]Board, len(s.Boards))
	for i, b := range s.Boards {
		c.Boards[i] = b.Clone()
	}
	return &c
}
