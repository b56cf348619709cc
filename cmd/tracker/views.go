package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/persist"
	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

var errNotSQLite = errors.New("snapshots are only recorded by the sqlite backend")

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List viewed items, least recent first",
		Long: `List the items looked up with get, least recently viewed first.
Each item appears once; deleting an item removes it from the history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				a.printer(cmd.OutOrStdout()).items(s.History(), "History is empty.")
				return nil
			})
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"prioritized"},
		Short:   "List scheduled tasks and subtasks by start time",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				a.printer(cmd.OutOrStdout()).items(scheduled(s), "Nothing is scheduled.")
				return nil
			})
		},
	}
}

// scheduled returns the dated tasks and subtasks in start-time order.
func scheduled(s *persist.Store) []models.Entity {
	view := s.Prioritized()
	items := make([]models.Entity, 0, view.Len())
	for _, e := range view.All() {
		items = append(items, e)
	}
	return items
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as CSV or YAML",
		Example: `  tracker export --format yaml --out backup.yaml
  tracker --backend sqlite export --format csv > tasks.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != persist.BackendCSV && format != persist.BackendYAML {
				return fmt.Errorf("unknown export format %q (valid: csv, yaml)", format)
			}
			return a.withStore(cmd, func(s *persist.Store) error {
				snap := s.Snapshot()
				data, err := encodeExport(format, snap)
				if err != nil {
					return err
				}

				if out == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				// WriteFile returns the close error.
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				printOK(cmd.ErrOrStderr(), "Exported %d items to %s", snap.Len(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", persist.BackendCSV, "Export format: csv or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// encodeExport renders snap in the named format. Encoding finishes before
// anything is written, so a failed export leaves no partial file.
func encodeExport(format string, snap store.Snapshot) ([]byte, error) {
	if format == persist.BackendYAML {
		return persist.EncodeYAML(snap)
	}
	var buf bytes.Buffer
	if err := persist.EncodeCSV(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newSnapshotsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List saves recorded by the sqlite backend, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				db, ok := s.Backend().(*persist.DB)
				if !ok {
					return errNotSQLite
				}
				records, err := db.Snapshots(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshots.")
					return nil
				}
				w := cmd.OutOrStdout()
				for _, rec := range records {
					fmt.Fprintf(w, "%s  %s  items=%d last_id=%d\n",
						rec.ID, rec.SavedAt.Local().Format(a.cfg.Display.TimeLayout), rec.Items, rec.LastID)
				}
				return nil
			})
		},
	}
}
