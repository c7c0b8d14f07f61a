package registry

import (
	"slices"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// UpdatePriorities replaces the global priority order and recomputes the
// order index of every task by lookup in the new list.
func (r *Registry) UpdatePriorities(ids []task.ID) {
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		order = append(order, id.String())
	}

	r.mu.Lock()
	r.settings.PriorityOrder = order
	for _, t := range r.byID {
		t.OrderIndex = orderIndex(order, t.ID.String())
	}
	r.mu.Unlock()

	r.events.Publish(Event{Kind: MetadataChanged})
}

// TogglePin flips the global pin of id. It reports the new state and
// whether the task exists.
func (r *Registry) TogglePin(id task.ID) (pinned, ok bool) {
	r.mu.Lock()
	t, ok := r.byID[id]
	if ok {
		r.settings.Pinned, pinned = config.Toggle(r.settings.Pinned, id.String())
		t.Pinned = pinned
	}
	r.mu.Unlock()

	if ok {
		r.events.Publish(Event{Kind: MetadataChanged, Paths: []string{id.Path}})
	}
	return pinned, ok
}

// SetPriority sets the global priority of id. Level 0 clears it; levels
// outside 1..3 and unknown ids are rejected.
func (r *Registry) SetPriority(id task.ID, level int) bool {
	if level != config.PriorityNone && !config.ValidPriority(level) {
		return false
	}

	r.mu.Lock()
	t, ok := r.byID[id]
	if ok {
		if r.settings.Priorities == nil {
			r.settings.Priorities = map[string]int{}
		}
		if level == config.PriorityNone {
			delete(r.settings.Priorities, id.String())
		} else {
			r.settings.Priorities[id.String()] = level
		}
		t.Priority = level
	}
	r.mu.Unlock()

	if ok {
		r.events.Publish(Event{Kind: MetadataChanged, Paths: []string{id.Path}})
	}
	return ok
}

// Archive hides id from default queries. It reports false for unknown ids
// and tasks that are already archived.
func (r *Registry) Archive(id task.ID) bool {
	r.mu.Lock()
	t, ok := r.byID[id]
	if ok {
		r.settings.Archived, ok = config.AddUnique(r.settings.Archived, id.String())
		t.Archived = true
	}
	r.mu.Unlock()

	if ok {
		r.events.Publish(Event{Kind: MetadataChanged, Paths: []string{id.Path}})
	}
	return ok
}

// Unarchive restores id. Archived ids whose task has since disappeared can
// still be removed.
func (r *Registry) Unarchive(id task.ID) bool {
	r.mu.Lock()
	var removed bool
	r.settings.Archived, removed = config.Remove(r.settings.Archived, id.String())
	if t, ok := r.byID[id]; ok {
		t.Archived = false
	}
	r.mu.Unlock()

	if removed {
		r.events.Publish(Event{Kind: MetadataChanged, Paths: []string{id.Path}})
	}
	return removed
}

// PriorityOrder returns the current global order as task ids. Entries that
// no longer parse are skipped.
func (r *Registry) PriorityOrder() []task.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]task.ID, 0, len(r.settings.PriorityOrder))
	for _, s := range r.settings.PriorityOrder {
		if id, err := task.ParseID(s); err == nil {
			out = append(out, id)
		}
	}
	return slices.Clip(out)
}
