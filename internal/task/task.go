// Package task extracts checkbox tasks from markdown documents and edits
// their source lines.
package task

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/date"
)

// ID identifies a task by the document it lives in and its 1-based line
// number. Inserting or deleting lines above a task changes its ID.
type ID struct {
	Path string
	Line int
}

// String renders the ID as "path:line", the form stored in settings.
func (id ID) String() string {
	return id.Path + ":" + strconv.Itoa(id.Line)
}

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool {
	return id.Path == "" && id.Line == 0
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses "path:line". The path may itself contain colons; the line
// number is taken after the last one.
func ParseID(s string) (ID, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return ID{}, fmt.Errorf("invalid task id %q: expected path:line", s)
	}
	line, err := strconv.Atoi(s[idx+1:])
	if err != nil || line < 1 {
		return ID{}, fmt.Errorf("invalid task id %q: bad line number", s)
	}
	return ID{Path: s[:idx], Line: line}, nil
}

// Task is one checkbox line found in a document.
type Task struct {
	ID        ID         `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Indent    int        `json:"indent"`
	Level     int        `json:"level"`
	Parent    *ID        `json:"parent,omitempty"`
	Due       *date.Date `json:"due,omitempty"`
	Tags      []string   `json:"tags,omitempty"`

	// Global metadata, refreshed from settings on every rescan.
	Priority   int  `json:"priority,omitempty"`
	Pinned     bool `json:"pinned,omitempty"`
	Archived   bool `json:"archived,omitempty"`
	OrderIndex int  `json:"-"`

	// Prefix and Marker preserve the original line shape for write-back.
	Prefix string `json:"-"`
	Marker byte   `json:"-"`
}

// Path returns the document the task was parsed from.
func (t *Task) Path() string { return t.ID.Path }

// Line returns the task's 1-based line number.
func (t *Task) Line() int { return t.ID.Line }

// HasTag reports whether the task carries tag (with or without the leading
// '#'), compared case-insensitively.
func (t *Task) HasTag(tag string) bool {
	want := NormalizeTag(tag)
	for _, have := range t.Tags {
		if strings.EqualFold(have, want) {
			return true
		}
	}
	return false
}

// Description returns the task text with due-date markers and tags removed
// and whitespace collapsed.
func (t *Task) Description() string {
	s := dueRe.ReplaceAllString(t.Text, "")
	s = tagRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Clone returns a copy that shares no mutable state with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Parent != nil {
		p := *t.Parent
		c.Parent = &p
	}
	if t.Due != nil {
		d := *t.Due
		c.Due = &d
	}
	c.Tags = append([]string(nil), t.Tags...)
	return &c
}

// NormalizeTag returns tag with exactly one leading '#'.
func NormalizeTag(tag string) string {
	return "#" + strings.TrimLeft(strings.TrimSpace(tag), "#")
}

// Progress counts completed and total direct sub-tasks.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
