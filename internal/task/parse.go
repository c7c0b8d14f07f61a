package task

import (
	"regexp"
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/date"
)

var (
	lineRe = regexp.MustCompile(`^(\s*)([-*])\s+\[([ xX])\]\s+(.*)$`)
	dueRe  = regexp.MustCompile(`(?:📅|🗓️?|due::?)\s*(\d{4}-\d{2}-\d{2})`)
	tagRe  = regexp.MustCompile(`#[\w\-/]+`)
)

type openTask struct {
	id     ID
	indent int
}

// Parse extracts every task line from content in document order. Lines
// that do not match the task grammar are skipped.
func Parse(path, content string) []*Task {
	var (
		tasks []*Task
		stack []openTask
	)
	for i, raw := range SplitLines(content) {
		t, ok := parseLine(path, i+1, raw)
		if !ok {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].indent >= t.Indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].id
			t.Parent = &parent
		}
		stack = append(stack, openTask{id: t.ID, indent: t.Indent})
		tasks = append(tasks, t)
	}
	return tasks
}

// IsTaskLine reports whether a single line matches the task grammar.
func IsTaskLine(line string) bool {
	return lineRe.MatchString(strings.TrimSuffix(line, "\r"))
}

func parseLine(path string, lineNo int, raw string) (*Task, bool) {
	m := lineRe.FindStringSubmatch(strings.TrimSuffix(raw, "\r"))
	if m == nil {
		return nil, false
	}
	prefix, marker, mark, text := m[1], m[2], m[3], m[4]
	t := &Task{
		ID:        ID{Path: path, Line: lineNo},
		Text:      text,
		Completed: mark != " ",
		Indent:    len(prefix),
		Level:     len(prefix) / 2,
		Prefix:    prefix,
		Marker:    marker[0],
		Tags:      ExtractTags(text),
	}
	if due, ok := ExtractDue(text); ok {
		t.Due = &due
	}
	return t, true
}

// ExtractDue returns the first due-date marker in text. A marker followed by
// an impossible date such as 2024-02-30 yields no due date.
func ExtractDue(text string) (date.Date, bool) {
	m := dueRe.FindStringSubmatch(text)
	if m == nil {
		return date.Date{}, false
	}
	d, err := date.Parse(m[1])
	if err != nil {
		return date.Date{}, false
	}
	return d, true
}

// ExtractTags returns all tags in order of appearance, duplicates included.
func ExtractTags(text string) []string {
	return tagRe.FindAllString(text, -1)
}
