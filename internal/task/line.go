package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/checkboard/internal/date"
)

// SplitLines splits content on '\n'. A trailing '\r' stays on each line so
// that JoinLines restores the original bytes.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// NewLine composes an unchecked top-level task line.
func NewLine(desc string, tags []string, due *date.Date) string {
	var b strings.Builder
	b.WriteString("- [ ] ")
	b.WriteString(strings.TrimSpace(desc))
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(NormalizeTag(tag))
	}
	if due != nil {
		b.WriteString(" 📅 ")
		b.WriteString(due.String())
	}
	return b.String()
}

// LineAt returns the 1-based line of content if it exists and is a task line.
func LineAt(content string, line int) (string, bool) {
	lines := SplitLines(content)
	if line < 1 || line > len(lines) || !IsTaskLine(lines[line-1]) {
		return "", false
	}
	return lines[line-1], true
}

// ToggleLine flips the checkbox on the given 1-based line, rewriting only the
// mark between the brackets. It reports false when the line is out of range
// or no longer a task line.
func ToggleLine(content string, line int) (string, bool) {
	lines := SplitLines(content)
	if line < 1 || line > len(lines) {
		return content, false
	}
	raw := lines[line-1]
	loc := lineRe.FindStringSubmatchIndex(strings.TrimSuffix(raw, "\r"))
	if loc == nil {
		return content, false
	}
	at := loc[6] // start of the mark group
	mark := "x"
	if raw[at] != ' ' {
		mark = " "
	}
	lines[line-1] = raw[:at] + mark + raw[at+1:]
	return JoinLines(lines), true
}

// DeleteLine removes the task on the given 1-based line and returns the new
// content together with the removed line.
func DeleteLine(content string, line int) (string, string, bool) {
	lines := SplitLines(content)
	if line < 1 || line > len(lines) || !IsTaskLine(lines[line-1]) {
		return content, "", false
	}
	removed := strings.TrimSuffix(lines[line-1], "\r")
	lines = append(lines[:line-1], lines[line:]...)
	return JoinLines(lines), removed, true
}

// AppendLine adds line at the end of content, after the last non-empty line,
// and returns the new content with the 1-based number of the added line.
func AppendLine(content, line string) (string, int) {
	trimmed := strings.TrimRight(content, "\r\n")
	if trimmed == "" {
		return line + "\n", 1
	}
	return trimmed + "\n" + line + "\n", len(SplitLines(trimmed)) + 1
}
