package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/persist"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reprint the schedule whenever the storage file changes",
		Long: `Print the schedule, then reload and reprint it every time another
tracker process (or an editor) writes the storage file. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := a.storagePath()
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			p := a.printer(out)
			show := func() {
				p.items(scheduled(s), "Nothing is scheduled.")
			}

			show()
			printStatus(cmd.ErrOrStderr(), "…", "Watching "+path, color.FgCyan)

			return persist.Watch(ctx, path, a.logger, func() {
				if err := s.Reload(ctx); err != nil {
					// A half-written file is retried on the next event.
					a.logger.Warn("reload failed", "path", path, "error", err)
					return
				}
				fmt.Fprintln(out)
				show()
			})
		},
	}
}
