// Package docstore abstracts the vault of markdown documents that tasks are
// parsed from.
package docstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"

	"github.com/twiced-technology-gmbh/checkboard/internal/bus"
)

// ErrNotFound is returned by Read when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Handler receives document change events. Nil callbacks are skipped.
type Handler struct {
	OnCreate func(path string)
	OnModify func(path string)
	OnDelete func(path string)
	OnRename func(oldPath, newPath string)
}

// Store lists, reads and writes documents by vault-relative slash path and
// notifies subscribers about external changes.
type Store interface {
	List() ([]string, error)
	Read(path string) (string, error)
	Write(path, content string) error
	Subscribe(h Handler) (unsubscribe func())
}

// Op is the kind of a document change.
type Op int

const (
	Create Op = iota
	Modify
	Delete
	Rename
)

func (o Op) String() string {
	switch o {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	case Rename:
		return "rename"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Event is a single document change. OldPath is set for renames only.
type Event struct {
	Op      Op
	Path    string
	OldPath string
}

// Ext is the extension of documents that are scanned for tasks.
const Ext = ".md"

// FSStore is a Store backed by an afero filesystem rooted at a vault
// directory.
type FSStore struct {
	fs     afero.Fs
	root   string
	write  func(name string, data []byte) error
	events bus.Bus[Event]
}

// New returns a store over fsys rooted at root. Use afero.NewMemMapFs() in
// tests.
func New(fsys afero.Fs, root string) *FSStore {
	s := &FSStore{fs: fsys, root: filepath.Clean(root)}
	s.write = func(name string, data []byte) error {
		return afero.WriteFile(s.fs, name, data, 0o644)
	}
	return s
}

// NewOS returns a store over the operating system filesystem. Writes replace
// documents atomically so a crash never leaves a half-written note.
func NewOS(root string) *FSStore {
	s := New(afero.NewOsFs(), root)
	s.write = func(name string, data []byte) error {
		return atomic.WriteFile(name, strings.NewReader(string(data)))
	}
	return s
}

// Root returns the vault directory.
func (s *FSStore) Root() string { return s.root }

// Abs maps a vault-relative path to a filesystem path.
func (s *FSStore) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Rel maps a filesystem path back to a vault-relative slash path. It
// reports false for paths outside the vault.
func (s *FSStore) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// List returns every markdown document in the vault, sorted. Hidden
// directories such as .git or .obsidian are skipped.
func (s *FSStore) List() ([]string, error) {
	exists, err := afero.DirExists(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("checking vault %s: %w", s.root, err)
	}
	if !exists {
		return nil, nil
	}

	var docs []string
	err = afero.Walk(s.fs, s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != s.root && IsHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDocument(info.Name()) {
			return nil
		}
		if rel, ok := s.Rel(p); ok {
			docs = append(docs, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking vault %s: %w", s.root, err)
	}
	slices.Sort(docs)
	return docs, nil
}

// Read returns the document's content.
func (s *FSStore) Read(rel string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.Abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading %s: %w", rel, ErrNotFound)
		}
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), nil
}

// Write replaces the document's content, creating parent directories.
func (s *FSStore) Write(rel, content string) error {
	abs := s.Abs(rel)
	if err := s.fs.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := s.write(abs, []byte(content)); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

// Subscribe registers h for change events delivered through Notify.
func (s *FSStore) Subscribe(h Handler) func() {
	return s.events.Subscribe(func(ev Event) {
		switch ev.Op {
		case Create:
			if h.OnCreate != nil {
				h.OnCreate(ev.Path)
			}
		case Modify:
			if h.OnModify != nil {
				h.OnModify(ev.Path)
			}
		case Delete:
			if h.OnDelete != nil {
				h.OnDelete(ev.Path)
			}
		case Rename:
			if h.OnRename != nil {
				h.OnRename(ev.OldPath, ev.Path)
			}
		}
	})
}

// Notify delivers ev to all subscribers. The file watcher calls it; tests
// may call it directly.
func (s *FSStore) Notify(ev Event) {
	s.events.Publish(ev)
}

// IsDocument reports whether name has the markdown extension.
func IsDocument(name string) bool {
	return strings.EqualFold(path.Ext(name), Ext)
}

// Listed reports whether List would return the vault-relative path rel:
// a markdown document outside hidden directories.
func Listed(rel string) bool {
	if !IsDocument(rel) {
		return false
	}
	for _, part := range strings.Split(path.Dir(rel), "/") {
		if IsHidden(part) {
			return false
		}
	}
	return true
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
