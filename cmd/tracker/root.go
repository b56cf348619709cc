package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/config"
	"github.com/ShayCichocki/tracker/internal/persist"
	"github.com/ShayCichocki/tracker/internal/store"
)

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	configPath string
	backend    string
	path       string

	cfg    *config.Config
	logger *slog.Logger
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tracker",
		Short: "Task, epic and subtask tracker",
		Long: `Tracker keeps tasks, epics and their subtasks in a local file.

Epic status and time window are derived from their subtasks. Dated items
are kept in a start-time ordered schedule that refuses overlapping windows,
and every lookup is remembered in a recency-ordered history.

Storage is a CSV, YAML or SQLite file chosen by configuration:
  ~/.config/tracker/config.yaml   user settings
  .tracker.yaml                   project overrides (searched upward)
  TRACKER_STORAGE_BACKEND=...     environment overrides`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: user and project config)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "Storage backend: csv, yaml or sqlite")
	root.PersistentFlags().StringVar(&a.path, "path", "", "Storage file path")

	root.AddCommand(
		newTaskCmd(a),
		newEpicCmd(a),
		newSubtaskCmd(a),
		newHistoryCmd(a),
		newScheduleCmd(a),
		newExportCmd(a),
		newSnapshotsCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printStatus(os.Stderr, "✗", err.Error(), color.FgRed)
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(logOut io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.backend != "" {
		cfg.Storage.Backend = strings.ToLower(a.backend)
	}
	if a.path != "" {
		cfg.Storage.Path = a.path
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !cfg.Display.Color {
		color.NoColor = true
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.Log, logOut)
	return nil
}

// newLogger builds the structured logger described by lc.
func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// storagePath returns the file the configured backend reads and writes.
func (a *app) storagePath() string {
	return a.cfg.StoragePath(persist.Extension(a.cfg.Storage.Backend))
}

// openStore opens the configured backend and loads it into a store.
func (a *app) openStore(ctx context.Context) (*persist.Store, error) {
	path := a.storagePath()
	b, err := persist.Open(a.cfg.Storage.Backend, path, a.logger)
	if err != nil {
		return nil, err
	}

	s, err := persist.NewStore(ctx, b,
		store.WithLogger(a.logger),
		store.WithHistoryLimit(a.cfg.History.Limit),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	s.Autosave(a.cfg.Storage.Autosave)

	a.logger.Debug("store opened",
		slog.String("backend", a.cfg.Storage.Backend),
		slog.String("path", path),
		slog.Int("items", len(s.Tasks())+len(s.Epics())+len(s.Subtasks())))
	return s, nil
}

// withStore runs fn against the configured store. With autosave off the
// state is flushed once after fn succeeds.
func (a *app) withStore(cmd *cobra.Command, fn func(s *persist.Store) error) error {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	if !a.cfg.Storage.Autosave {
		return s.Flush(ctx)
	}
	return nil
}
