package board

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logFileName   = "activity.jsonl"
	logFileMode   = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// LogEntry represents a single activity log entry.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	TaskID    string    `json:"task_id,omitempty"`
	BoardID   string    `json:"board_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// ActivityLog appends mutations to a JSONL file next to the settings.
type ActivityLog struct {
	path string
	max  int
}

// NewActivityLog returns the log kept in dir.
func NewActivityLog(dir string) *ActivityLog {
	return &ActivityLog{path: filepath.Join(dir, logFileName), max: maxLogEntries}
}

// Path returns the log file location.
func (l *ActivityLog) Path() string { return l.path }

// Append writes entry to the log. If the log exceeds its size, the oldest
// entries are truncated.
func (l *ActivityLog) Append(entry LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // path under the settings dir
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}

	// Best-effort; a failed truncation leaves a longer log.
	_ = l.truncate()
	return nil
}

// Record appends an entry and discards errors. Logging should never fail a
// command.
func (l *ActivityLog) Record(action, boardID, taskID, detail string) {
	_ = l.Append(LogEntry{Action: action, BoardID: boardID, TaskID: taskID, Detail: detail})
}

// Recent returns up to n newest entries, oldest first. n <= 0 returns all.
// Malformed lines are skipped.
func (l *ActivityLog) Recent(n int) ([]LogEntry, error) {
	lines, err := l.lines()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		var e LogEntry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (l *ActivityLog) lines() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// truncate rewrites the log keeping only the most recent entries.
func (l *ActivityLog) truncate() error {
	lines, err := l.lines()
	if err != nil {
		return err
	}
	if len(lines) <= l.max {
		return nil
	}
	lines = lines[len(lines)-l.max:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(l.path, []byte(buf.String()), logFileMode)
}
