// Package config handles the persisted checkboard settings.
package config

import "time"

const (
	// DefaultDir is the settings directory created inside the vault.
	DefaultDir = ".checkboard"

	// SettingsFileName is the name of the settings file within DefaultDir.
	SettingsFileName = "settings.yml"

	// LockFileName guards read-modify-write cycles on the settings file.
	LockFileName = ".lock"

	// CurrentVersion is the current settings schema version.
	CurrentVersion = 3

	// DefaultDebounce is the rescan quiet window as a duration string.
	DefaultDebounce = "150ms"

	// DefaultBoardName names the board created by init.
	DefaultBoardName = "Tasks"

	dirMode = 0o750
)

// Priority levels shared by global and board-scoped priority maps.
const (
	PriorityNone   = 0
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// PriorityNames maps a level to its display label.
var PriorityNames = map[int]string{
	PriorityHigh:   "high",
	PriorityMedium: "medium",
	PriorityLow:    "low",
}

// DefaultColumns is the column set given to every new board. IDs are
// assigned when the board is created.
var DefaultColumns = []Column{
	{Name: "To Do", Type: Manual},
	{Name: "Doing", Type: Manual},
	{Name: "Done", Type: Completed},
}

// ValidPriority reports whether level is a settable priority (1..3).
func ValidPriority(level int) bool {
	return level >= PriorityHigh && level <= PriorityLow
}

// ParsePriority accepts a level number or its label.
func ParsePriority(s string) (int, bool) {
	switch s {
	case "0", "none", "":
		return PriorityNone, true
	case "1", "high":
		return PriorityHigh, true
	case "2", "medium":
		return PriorityMedium, true
	case "3", "low":
		return PriorityLow, true
	}
	return 0, false
}

func defaultDebounceDuration() time.Duration {
	d, _ := time.ParseDuration(DefaultDebounce)
	return d
}
