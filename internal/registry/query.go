package registry

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// QueryOptions narrows Query results. The zero value applies the global
// settings filters and hides globally archived tasks.
type QueryOptions struct {
	// Unfiltered skips hide-completed and the tag allow-list.
	Unfiltered bool
	// IncludeArchived keeps globally archived tasks.
	IncludeArchived bool
	// ArchivedOnly returns only globally archived tasks.
	ArchivedOnly bool
	// Tags further restricts results to tasks carrying any of these tags.
	Tags []string
	// Paths restricts results to these documents.
	Paths []string
}

// Len returns the number of tasks held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Documents returns the paths that currently contain tasks, sorted.
func (r *Registry) Documents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.docs))
}

// Get returns a copy of the task with id.
func (r *Registry) Get(id task.ID) (*task.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Query returns copies of the tasks passing opts, pinned first and then by
// ascending order index. Ties keep document order.
func (r *Registry) Query(opts QueryOptions) []*task.Task {
	r.mu.RLock()
	hideCompleted := r.settings.HideCompleted && !opts.Unfiltered
	var out []*task.Task
	r.each(func(t *task.Task) {
		switch {
		case opts.ArchivedOnly && !t.Archived:
			return
		case t.Archived && !opts.IncludeArchived && !opts.ArchivedOnly:
			return
		case hideCompleted && t.Completed:
			return
		case !opts.Unfiltered && !r.settings.TagAllowed(t.Tags):
			return
		case len(opts.Tags) > 0 && !hasAnyTag(t, opts.Tags):
			return
		case len(opts.Paths) > 0 && !slices.Contains(opts.Paths, t.Path()):
			return
		}
		out = append(out, t.Clone())
	})
	r.mu.RUnlock()

	slices.SortStableFunc(out, compareDefault)
	return out
}

// Search returns the Query results whose text or path contains text,
// compared case-insensitively.
func (r *Registry) Search(text string, opts QueryOptions) []*task.Task {
	results := r.Query(opts)
	needle := fold(strings.TrimSpace(text))
	if needle == "" {
		return results
	}
	out := results[:0]
	for _, t := range results {
		if strings.Contains(fold(t.Text), needle) || strings.Contains(fold(t.Path()), needle) {
			out = append(out, t)
		}
	}
	return out
}

// FindDuplicates groups every task, regardless of filters, by its trimmed
// case-folded text with inner whitespace collapsed. Only groups of two or
// more are returned, ordered by their first member in document order.
func (r *Registry) FindDuplicates() [][]*task.Task {
	r.mu.RLock()
	groups := make(map[string][]*task.Task)
	var keys []string
	r.each(func(t *task.Task) {
		key := normalizeText(t.Text)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], t.Clone())
	})
	r.mu.RUnlock()

	var out [][]*task.Task
	for _, key := range keys {
		if len(groups[key]) >= 2 {
			out = append(out, groups[key])
		}
	}
	return out
}

// SubTasks returns the direct children of id in document order.
func (r *Registry) SubTasks(id task.ID) []*task.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*task.Task
	for _, t := range r.docs[id.Path] {
		if t.Parent != nil && *t.Parent == id {
			out = append(out, t.Clone())
		}
	}
	return out
}

// SubTaskProgress counts completed and total direct children of id.
func (r *Registry) SubTaskProgress(id task.ID) task.Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var p task.Progress
	for _, t := range r.docs[id.Path] {
		if t.Parent == nil || *t.Parent != id {
			continue
		}
		p.Total++
		if t.Completed {
			p.Completed++
		}
	}
	return p
}

// AllTags returns every distinct tag in document order of first use.
func (r *Registry) AllTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	r.each(func(t *task.Task) {
		for _, tag := range t.Tags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	})
	return out
}

// each visits tasks in document order: paths sorted, then by line. Must be
// called with mu held.
func (r *Registry) each(fn func(t *task.Task)) {
	for _, path := range slices.Sorted(maps.Keys(r.docs)) {
		for _, t := range r.docs[path] {
			fn(t)
		}
	}
}

func compareDefault(a, b *task.Task) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	switch {
	case a.OrderIndex < b.OrderIndex:
		return -1
	case a.OrderIndex > b.OrderIndex:
		return 1
	}
	return 0
}

func hasAnyTag(t *task.Task, tags []string) bool {
	for _, tag := range tags {
		if t.HasTag(tag) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func normalizeText(s string) string {
	return fold(strings.Join(strings.Fields(s), " "))
}
