package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify settings",
	Long:  `View all settings, get a specific key, or set a writable value.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a setting",
	Long: `Sets a writable key. List values (folders.include, folders.exclude,
tag_filter) are comma-separated; an empty VALUE clears them.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a settings key.
type configAccessor struct {
	get      func(*config.Settings) any
	set      func(*config.Settings, string) error
	writable bool
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(s *config.Settings) any { return s.Version },
		},
		"hide_completed": {
			get: func(s *config.Settings) any { return s.HideCompleted },
			set: func(s *config.Settings, v string) error {
				b, err := parseSwitch(v)
				if err != nil {
					return err
				}
				s.HideCompleted = b
				return nil
			},
			writable: true,
		},
		"folders.include": {
			get:      func(s *config.Settings) any { return nonNil(s.Folders.Include) },
			set:      func(s *config.Settings, v string) error { s.Folders.Include = splitList(v, cleanFolder); return nil },
			writable: true,
		},
		"folders.exclude": {
			get:      func(s *config.Settings) any { return nonNil(s.Folders.Exclude) },
			set:      func(s *config.Settings, v string) error { s.Folders.Exclude = splitList(v, cleanFolder); return nil },
			writable: true,
		},
		"tag_filter": {
			get:      func(s *config.Settings) any { return nonNil(s.TagFilter) },
			set:      func(s *config.Settings, v string) error { s.TagFilter = splitList(v, task.NormalizeTag); return nil },
			writable: true,
		},
		"debounce": {
			get: func(s *config.Settings) any { return s.DebounceDelay().String() },
			set: func(s *config.Settings, v string) error {
				d, err := time.ParseDuration(v)
				if err != nil || d < 0 {
					return clierr.Newf(clierr.InvalidInput, "invalid debounce %q: expected a duration like 300ms", v)
				}
				s.Debounce = d.String()
				return nil
			},
			writable: true,
		},
		"active_board": {
			get: func(s *config.Settings) any {
				if b := s.Board(s.ActiveBoard); b != nil {
					return b.Name
				}
				return ""
			},
			set: func(s *config.Settings, v string) error {
				b := s.FindBoard(v)
				if b == nil {
					return clierr.Newf(clierr.BoardNotFound, "board %q not found", v)
				}
				s.ActiveBoard = b.ID
				return nil
			},
			writable: true,
		},
		"boards": {
			get: func(s *config.Settings) any {
				names := make([]string, len(s.Boards))
				for i, b := range s.Boards {
					names[i] = b.Name
				}
				return names
			},
		},
		"pinned": {
			get: func(s *config.Settings) any { return nonNil(s.Pinned) },
		},
		"archived": {
			get: func(s *config.Settings) any { return nonNil(s.Archived) },
		},
		"priority_order": {
			get: func(s *config.Settings) any { return nonNil(s.PriorityOrder) },
		},
		"priorities": {
			get: func(s *config.Settings) any {
				if s.Priorities == nil {
					return map[string]int{}
				}
				return s.Priorities
			},
		},
	}
}

// allConfigKeys returns settings keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"hide_completed",
		"folders.include",
		"folders.exclude",
		"tag_filter",
		"debounce",
		"active_board",
		"boards",
		"pinned",
		"archived",
		"priority_order",
		"priorities",
	}
}

// settingsPath resolves the settings file named by the global flags.
func settingsPath() (string, error) {
	if p := viper.GetString("settings"); p != "" {
		return p, nil
	}
	vault, err := session.ResolveVault(session.Options{Vault: viper.GetString("vault")})
	if err != nil {
		return "", err
	}
	return config.DefaultPath(vault), nil
}

func loadSettings() (*config.Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	accessors := configAccessors()
	w := cmd.OutOrStdout()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(s)
		}
		return output.JSON(w, m)
	}

	for _, key := range allConfigKeys() {
		fmt.Fprintf(w, "%-20s %v\n", key, formatConfigValue(accessors[key].get(s)))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	acc, ok := configAccessors()[args[0]]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", args[0])
	}
	val := acc.get(s)

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, val)
	}
	fmt.Fprintln(w, formatConfigValue(val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	path, err := settingsPath()
	if err != nil {
		return err
	}
	// Fail on a missing vault before the lock creates its directory.
	if _, err := config.Load(path); err != nil {
		return err
	}
	unlock, err := config.Lock(path)
	if err != nil {
		return fmt.Errorf("locking settings: %w", err)
	}
	defer func() { _ = unlock() }()

	s, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := acc.set(s, value); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	logger.Info("setting changed", "key", key, "value", value)

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{"key": key, "value": acc.get(s)})
	}
	output.Messagef(w, "Set %s = %v", key, formatConfigValue(acc.get(s)))
	return nil
}

// splitList splits a comma-separated value, normalizing and dropping empty
// entries.
func splitList(v string, normalize func(string) string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if strings.Trim(part, "#/") == "" {
			continue
		}
		out = append(out, normalize(part))
	}
	return out
}

func cleanFolder(f string) string {
	return strings.Trim(strings.ReplaceAll(f, `\`, "/"), "/")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		if len(v) == 0 {
			return "--"
		}
		return strings.Join(v, ", ")
	case map[string]int:
		if len(v) == 0 {
			return "--"
		}
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, k+"="+strconv.Itoa(v[k]))
		}
		return strings.Join(parts, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
