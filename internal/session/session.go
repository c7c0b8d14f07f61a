// Package session wires a vault's document store, task registry, board
// registry and watcher together for one process.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/checkboard/internal/board"
	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/date"
	"github.com/twiced-technology-gmbh/checkboard/internal/docstore"
	"github.com/twiced-technology-gmbh/checkboard/internal/registry"
	"github.com/twiced-technology-gmbh/checkboard/internal/watcher"
)

// Options control how a session is opened.
type Options struct {
	// Vault is the vault root. Empty searches upward from the working
	// directory.
	Vault string
	// SettingsPath overrides <vault>/.checkboard/settings.yml.
	SettingsPath string
	// Lock holds the settings lock for the whole session. Short-lived
	// commands set it so that their read-modify-write cannot interleave
	// with another process.
	Lock bool
	// Debounce overrides the settings' debounce window.
	Debounce time.Duration
	// Clock overrides today's date for rule columns.
	Clock func() date.Date
	Logger *slog.Logger
}

// Session is an open vault.
type Session struct {
	Vault    string
	Settings *config.Settings
	Store    *docstore.FSStore
	Tasks    *registry.Registry
	Boards   *board.Registry
	Activity *board.ActivityLog

	log    *slog.Logger
	unlock func() error

	mu      sync.Mutex
	watcher *watcher.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

// ResolveVault returns the absolute vault root for opts.
func ResolveVault(opts Options) (string, error) {
	if opts.Vault != "" {
		return filepath.Abs(opts.Vault)
	}
	if opts.SettingsPath != "" {
		abs, err := filepath.Abs(opts.SettingsPath)
		if err != nil {
			return "", err
		}
		// <vault>/.checkboard/settings.yml
		return filepath.Dir(filepath.Dir(abs)), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindVault(wd)
}

// Open loads the settings of a vault and builds its registries. The task
// set is scanned before Open returns.
func Open(opts Options) (*Session, error) {
	vault, err := ResolveVault(opts)
	if err != nil {
		return nil, err
	}
	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = config.DefaultPath(vault)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Session{Vault: vault, log: log}
	if opts.Lock {
		unlock, err := config.Lock(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("locking settings: %w", err)
		}
		s.unlock = unlock
	}

	settings, err := config.Load(settingsPath)
	if err != nil {
		s.release()
		return nil, err
	}
	s.Settings = settings
	s.Store = docstore.NewOS(vault)
	s.Activity = board.NewActivityLog(settings.Dir())

	taskOpts := []registry.Option{registry.WithLogger(log.With("component", "registry"))}
	if opts.Debounce > 0 {
		taskOpts = append(taskOpts, registry.WithDebounce(opts.Debounce))
	}
	s.Tasks = registry.New(s.Store, settings, taskOpts...)
	if err := s.Tasks.Rebuild(); err != nil {
		s.Tasks.Close()
		s.release()
		return nil, err
	}

	boardOpts := []board.Option{board.WithLogger(log.With("component", "board"))}
	if opts.Clock != nil {
		boardOpts = append(boardOpts, board.WithClock(opts.Clock))
	}
	s.Boards = board.New(s.Tasks, settings, boardOpts...)

	log.Debug("session opened", "vault", vault, "settings", settingsPath, "tasks", s.Tasks.Len())
	return s, nil
}

// Watch starts forwarding filesystem changes to the registries until ctx
// ends or the session is closed.
func (s *Session) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	if s.watcher != nil {
		return nil
	}
	w, err := watcher.New(s.Vault, s.Store, s.log.With("component", "watcher"))
	if err != nil {
		return fmt.Errorf("watching vault: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.watcher, s.cancel, s.done = w, cancel, make(chan struct{})
	go func() {
		defer close(s.done)
		w.Run(ctx, func(err error) {
			s.log.Warn("watcher error", "error", err)
		})
	}()
	return nil
}

// Save persists the shared settings. Both registries are read-locked in
// their lock order while the file is written. A session that does not hold
// the settings lock takes it for the write.
func (s *Session) Save() error {
	if s.unlock == nil {
		unlock, err := config.Lock(s.Settings.Path())
		if err != nil {
			return fmt.Errorf("locking settings: %w", err)
		}
		defer func() { _ = unlock() }()
	}

	var err error
	s.Tasks.View(func(*config.Settings) {
		s.Boards.View(func(settings *config.Settings) {
			err = settings.Save()
		})
	})
	return err
}

// Close stops the watcher, detaches the registries and releases the
// settings lock. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w, cancel, done := s.watcher, s.cancel, s.done
	s.mu.Unlock()

	var errs []error
	if w != nil {
		cancel()
		errs = append(errs, w.Close())
		<-done
	}
	s.Boards.Close()
	s.Tasks.Close()
	errs = append(errs, s.release())
	return errors.Join(errs...)
}

func (s *Session) release() error {
	if s.unlock == nil {
		return nil
	}
	err := s.unlock()
	s.unlock = nil
	return err
}
