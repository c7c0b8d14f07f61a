package config

import "fmt"

// migrate upgrades settings from their current version to CurrentVersion.
// Each migration function transforms the settings one version forward.
// Returns nil if no migration is needed (already at current version).
// Returns an error if the version is newer than what this binary supports.
func migrate(s *Settings) error {
	if s.Version == CurrentVersion {
		return nil
	}
	if s.Version > CurrentVersion {
		return fmt.Errorf(
			"%w: settings version %d is newer than supported version %d (upgrade checkboard)",
			ErrInvalid, s.Version, CurrentVersion,
		)
	}
	if s.Version < 1 {
		return fmt.Errorf("%w: settings version %d is invalid", ErrInvalid, s.Version)
	}

	for s.Version < CurrentVersion {
		fn, ok := migrations[s.Version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, s.Version)
		}
		if err := fn(s); err != nil {
			return fmt.Errorf("migrating settings from v%d: %w", s.Version, err)
		}
	}

	return nil
}

// migrations maps each version to the function that migrates it to the next
// version. The function must increment s.Version after a successful migration.
var migrations = map[int]func(*Settings) error{
	1: migrateV1ToV2,
	2: migrateV2ToV3,
}

// migrateV1ToV2 adds the debounce window and gives settings without any
// board a default one.
func migrateV1ToV2(s *Settings) error { //nolint:unparam // signature must match migrations map type
	if s.Debounce == "" {
		s.Debounce = DefaultDebounce
	}
	if len(s.Boards) == 0 {
		b := NewBoard(DefaultBoardName)
		s.Boards = []Board{b}
		s.ActiveBoard = b.ID
	}
	s.Version = 2
	return nil
}

// migrateV2ToV3 retires column types that are no longer supported, turning
// them into manual columns, and drops rule parameters that only make sense
// for the type they belong to.
func migrateV2ToV3(s *Settings) error { //nolint:unparam // signature must match migrations map type
	for i := range s.Boards {
		for j := range s.Boards[i].Columns {
			c := &s.Boards[i].Columns[j]
			if !c.Type.Known() {
				c.Type = Manual
			}
			if c.Type != Dated {
				c.DateFrom, c.DateTo = 0, 0
			}
			if c.Type == Dated {
				c.DateFrom, c.DateTo = max(c.DateFrom, 0), max(c.DateTo, 0)
				if c.DateTo < c.DateFrom {
					c.DateFrom, c.DateTo = c.DateTo, c.DateFrom
				}
			}
		}
	}
	s.Version = 3
	return nil
}
