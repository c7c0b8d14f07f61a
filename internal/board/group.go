package board

import (
	"cmp"
	"maps"
	"slices"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

const (
	fieldTag      = "tag"
	fieldFile     = "file"
	fieldPriority = "priority"
	fieldStatus   = "status"

	statusOpen   = "open"
	statusDone   = "done"
	priorityNone = "none"
)

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key   string       `json:"key"`
	Open  int          `json:"open"`
	Done  int          `json:"done"`
	Total int          `json:"total"`
	Tasks []*task.Task `json:"tasks"`
}

// GroupBy groups tasks by the specified field. A task with several tags
// appears in each of their groups. Tasks keep their input order within a
// group.
func GroupBy(tasks []*task.Task, field string) GroupedSummary {
	groups := make(map[string][]*task.Task)
	for _, t := range tasks {
		for _, key := range extractGroupKeys(t, field) {
			groups[key] = append(groups[key], t)
		}
	}

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(groups))}
	for _, key := range sortGroupKeys(groups, field) {
		g := GroupSummary{Key: key, Tasks: groups[key], Total: len(groups[key])}
		for _, t := range g.Tasks {
			if t.Completed {
				g.Done++
			} else {
				g.Open++
			}
		}
		result.Groups = append(result.Groups, g)
	}
	return result
}

func extractGroupKeys(t *task.Task, field string) []string {
	switch field {
	case fieldTag:
		if len(t.Tags) == 0 {
			return []string{"(untagged)"}
		}
		return slices.Compact(slices.Sorted(slices.Values(normalizedTags(t.Tags))))
	case fieldFile:
		return []string{t.Path()}
	case fieldPriority:
		return []string{priorityKey(t.Priority)}
	case fieldStatus:
		if t.Completed {
			return []string{statusDone}
		}
		return []string{statusOpen}
	default:
		return []string{"(all)"}
	}
}

func normalizedTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = task.NormalizeTag(tag)
	}
	return out
}

func priorityKey(level int) string {
	if name, ok := config.PriorityNames[level]; ok {
		return name
	}
	return priorityNone
}

// priorityRank orders groups high, medium, low, none.
func priorityRank(key string) int {
	for level, name := range config.PriorityNames {
		if name == key {
			return level
		}
	}
	return config.PriorityLow + 1
}

func sortGroupKeys(groups map[string][]*task.Task, field string) []string {
	keys := slices.Sorted(maps.Keys(groups))
	switch field {
	case fieldPriority:
		slices.SortStableFunc(keys, func(a, b string) int {
			return cmp.Compare(priorityRank(a), priorityRank(b))
		})
	case fieldStatus:
		// open before done
		slices.Reverse(keys)
	}
	return keys
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldTag, fieldFile, fieldPriority, fieldStatus}
}
