package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// ErrNotTaskLine is returned by Add when the line does not match the task
// grammar.
var ErrNotTaskLine = errors.New("not a task line")

// Toggle flips the checkbox of id in its document.
func (r *Registry) Toggle(id task.ID) error {
	r.wmu.Lock()
	defer r.wmu.Unlock()

	content, err := r.read(id)
	if err != nil {
		return err
	}
	updated, ok := task.ToggleLine(content, id.Line)
	if !ok {
		return fmt.Errorf("toggling: %w", &StaleError{ID: id})
	}
	if err := r.store.Write(id.Path, updated); err != nil {
		return fmt.Errorf("toggling %s: %w", id, err)
	}
	r.RescanDocument(id.Path, updated)
	return nil
}

// Delete removes the line of id from its document.
func (r *Registry) Delete(id task.ID) error {
	r.wmu.Lock()
	defer r.wmu.Unlock()

	content, err := r.read(id)
	if err != nil {
		return err
	}
	updated, _, ok := task.DeleteLine(content, id.Line)
	if !ok {
		return fmt.Errorf("deleting: %w", &StaleError{ID: id})
	}
	if err := r.store.Write(id.Path, updated); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	r.RescanDocument(id.Path, updated)
	return nil
}

// Move cuts the line of id and appends it, unindented, to destPath. The
// destination is created if missing and must be a scanned document. It
// returns the task's new id.
func (r *Registry) Move(id task.ID, destPath string) (task.ID, error) {
	if !r.Scanned(destPath) {
		return task.ID{}, fmt.Errorf("moving %s to %s: %w", id, destPath, ErrNotScanned)
	}

	r.wmu.Lock()
	defer r.wmu.Unlock()

	content, err := r.read(id)
	if err != nil {
		return task.ID{}, err
	}
	remaining, line, ok := task.DeleteLine(content, id.Line)
	if !ok {
		return task.ID{}, fmt.Errorf("moving: %w", &StaleError{ID: id})
	}
	line = strings.TrimLeft(line, " \t")

	if destPath == id.Path {
		updated, n := task.AppendLine(remaining, line)
		if err := r.store.Write(id.Path, updated); err != nil {
			return task.ID{}, fmt.Errorf("moving %s: %w", id, err)
		}
		r.RescanDocument(id.Path, updated)
		return task.ID{Path: destPath, Line: n}, nil
	}

	dest, err := r.store.Read(destPath)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return task.ID{}, fmt.Errorf("moving %s: %w", id, err)
	}
	updated, n := task.AppendLine(dest, line)

	// Write the destination first so a failure leaves a duplicate rather
	// than a lost task.
	if err := r.store.Write(destPath, updated); err != nil {
		return task.ID{}, fmt.Errorf("moving %s: %w", id, err)
	}
	if err := r.store.Write(id.Path, remaining); err != nil {
		r.RescanDocument(destPath, updated)
		return task.ID{}, fmt.Errorf("moving %s: %w", id, err)
	}

	r.mu.Lock()
	r.replace(destPath, updated)
	r.replace(id.Path, remaining)
	r.mu.Unlock()
	r.events.Publish(Event{Kind: Rescanned, Paths: []string{id.Path, destPath}})

	return task.ID{Path: destPath, Line: n}, nil
}

// Add appends line to path, creating the document if needed, and returns
// the id of the new task. path must be a scanned document.
func (r *Registry) Add(path, line string) (task.ID, error) {
	if !task.IsTaskLine(line) {
		return task.ID{}, fmt.Errorf("adding to %s: %w", path, ErrNotTaskLine)
	}
	if !r.Scanned(path) {
		return task.ID{}, fmt.Errorf("adding to %s: %w", path, ErrNotScanned)
	}

	r.wmu.Lock()
	defer r.wmu.Unlock()

	content, err := r.store.Read(path)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return task.ID{}, fmt.Errorf("adding to %s: %w", path, err)
	}
	updated, n := task.AppendLine(content, line)
	if err := r.store.Write(path, updated); err != nil {
		return task.ID{}, fmt.Errorf("adding to %s: %w", path, err)
	}
	r.RescanDocument(path, updated)
	return task.ID{Path: path, Line: n}, nil
}

// read loads the document of id for write-back. A missing document is stale.
func (r *Registry) read(id task.ID) (string, error) {
	content, err := r.store.Read(id.Path)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", &StaleError{ID: id}
	}
	if err != nil {
		return "", err
	}
	return content, nil
}
