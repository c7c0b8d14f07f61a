// Package cmd implements the checkboard CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/clierr"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/logging"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
	"github.com/twiced-technology-gmbh/checkboard/internal/task"
)

// version is set at build time via ldflags.
var version = "dev"

// envPrefix namespaces the environment variables bound to global flags,
// e.g. CHECKBOARD_VAULT or CHECKBOARD_OUTPUT.
const envPrefix = "CHECKBOARD"

var (
	logger      = logging.Discard()
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "checkboard",
	Short: "Kanban boards over the checkbox tasks of a markdown vault",
	Long: `checkboard collects every "- [ ]" task line of a markdown vault and arranges
them on Kanban boards. Run checkboard with no arguments to open the TUI.
Tasks are addressed as path:line, e.g. notes/today.md:12.`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	RunE:              runTUI,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLogger()
	},
}

func init() {
	cobra.OnInitialize(initViper)

	flags := rootCmd.PersistentFlags()
	flags.String("vault", "", "vault root (default: nearest directory with .checkboard/)")
	flags.String("settings", "", "settings file (default: <vault>/.checkboard/settings.yml)")
	flags.Bool("json", false, "output as JSON")
	flags.Bool("table", false, "output as table")
	flags.Bool("compact", false, "compact one-line-per-record output")
	flags.Bool("no-color", false, "disable color output")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write debug logs as JSON lines to this file")
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "oneline" {
			name = "compact"
		}
		return pflag.NormalizedName(name)
	})

	for _, name := range []string{"vault", "settings", "json", "table", "compact", "no-color", "log-level", "log-file"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initViper() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// CHECKBOARD_OUTPUT picks the default format: json, table or compact.
	_ = viper.BindEnv("output")
}

func setup(_ *cobra.Command, _ []string) error {
	if viper.GetBool("no-color") || os.Getenv("NO_COLOR") != "" {
		output.DisableColor()
	}
	l, closeFn, err := logging.New(logging.Options{
		Level: viper.GetString("log-level"),
		File:  viper.GetString("log-file"),
	})
	if err != nil {
		return clierr.New(clierr.InvalidInput, err.Error())
	}
	logger, closeLogger = l, closeFn
	return nil
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stdout, os.Stderr, err))
}

// reportError writes err in the active output format and returns the exit
// code.
func reportError(stdout, stderr io.Writer, err error) int {
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		return silent.Code
	}

	cliErr := classify(err)
	if outputFormat() == output.FormatJSON {
		output.JSONError(stdout, output.ErrorResponse{
			Code:    cliErr.Code,
			Error:   cliErr.Message,
			Task:    cliErr.Task,
			Details: cliErr.Details,
		})
		return cliErr.ExitCode()
	}

	fmt.Fprintln(stderr, "Error: "+cliErr.Message)
	return cliErr.ExitCode()
}

// classify maps package errors onto CLI error codes.
func classify(err error) *clierr.Error {
	var cliErr *clierr.Error
	var stale *registry.StaleError
	switch {
	case errors.As(err, &cliErr):
		return cliErr
	case errors.As(err, &stale):
		return clierr.New(clierr.StaleReference, err.Error()).ForTask(stale.ID.String())
	case errors.Is(err, config.ErrNotFound):
		return clierr.New(clierr.SettingsNotFound, err.Error())
	case errors.Is(err, config.ErrInvalid):
		return clierr.New(clierr.InvalidInput, err.Error())
	case errors.Is(err, registry.ErrStale):
		return clierr.New(clierr.StaleReference, err.Error())
	case errors.Is(err, registry.ErrNotTaskLine), errors.Is(err, registry.ErrNotScanned):
		return clierr.New(clierr.InvalidInput, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return clierr.New(clierr.DocumentNotFound, err.Error())
	}
	return clierr.New(clierr.InternalError, err.Error())
}

// outputFormat returns the detected output format from flags and env.
func outputFormat() output.Format {
	return output.Detect(output.Flags{
		JSON:    viper.GetBool("json"),
		Table:   viper.GetBool("table"),
		Compact: viper.GetBool("compact"),
	}, viper.GetString("output"))
}

// openSession opens the vault named by the global flags. Commands that
// change settings pass lock so the read-modify-write cannot interleave with
// another process.
func openSession(lock bool) (*session.Session, error) {
	return session.Open(session.Options{
		Vault:        viper.GetString("vault"),
		SettingsPath: viper.GetString("settings"),
		Lock:         lock,
		Logger:       logger,
	})
}

// logActivity appends an entry to the activity log. Errors are silently
// discarded because logging should never fail a command.
func logActivity(sess *session.Session, action, boardID, taskID, detail string) {
	logger.Debug("activity", slog.String("action", action), slog.String("task", taskID))
	sess.Activity.Record(action, boardID, taskID, detail)
}

// requireTask returns the task with id or a TASK_NOT_FOUND error.
func requireTask(sess *session.Session, id task.ID) (*task.Task, error) {
	t, ok := sess.Tasks.Get(id)
	if !ok {
		return nil, clierr.Newf(clierr.TaskNotFound, "no task at %s", id).ForTask(id.String())
	}
	return t, nil
}

// resolveBoard finds a board by id, id prefix or name. An empty ref means
// the active board.
func resolveBoard(sess *session.Session, ref string) (config.Board, error) {
	if ref == "" {
		if b, ok := sess.Boards.ActiveBoard(); ok {
			return b, nil
		}
		return config.Board{}, clierr.New(clierr.BoardNotFound, "no active board (create one with 'checkboard board create')")
	}
	if b, ok := sess.Boards.FindBoard(ref); ok {
		return b, nil
	}
	return config.Board{}, clierr.Newf(clierr.BoardNotFound, "board %q not found", ref).
		WithDetails(map[string]any{"board": ref})
}

// resolveColumn finds a column of b by id, id prefix or name.
func resolveColumn(b config.Board, ref string) (config.Column, error) {
	if c := b.FindColumn(ref); c != nil {
		return *c, nil
	}
	return config.Column{}, clierr.Newf(clierr.ColumnNotFound, "column %q not found on board %q", ref, b.Name).
		WithDetails(map[string]any{"board": b.Name, "column": ref})
}

// notApplied is returned when a registry call rejects its input.
func notApplied(format string, args ...any) error {
	return clierr.Newf(clierr.InvalidInput, format, args...)
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(w, errw io.Writer, ids []task.ID, fn func(task.ID) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err == nil {
			results = append(results, output.BatchResult{ID: id.String(), OK: true})
			continue
		}
		anyFailed = true
		cliErr := classify(err)
		results = append(results, output.BatchResult{ID: id.String(), Error: cliErr.Message, Code: cliErr.Code})
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(w, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(errw, "Error: task %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(w, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}

// boardOption adds the --board flag shared by board-scoped commands.
func boardOption(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("board", "b", "", usage)
}

// parseTaskIDs wraps board.ParseIDs for positional arguments.
func parseTaskIDs(args []string) ([]task.ID, error) {
	return board.ParseIDs(args)
}
