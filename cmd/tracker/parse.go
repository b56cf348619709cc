package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// noneValue clears an optional field when passed to --start or --duration.
const noneValue = "none"

// itemFlags holds the field flags shared by add and update commands.
type itemFlags struct {
	title    string
	desc     string
	status   string
	start    string
	duration string
	epic     int64
}

func (f *itemFlags) register(cmd *cobra.Command, withStatus, withSchedule bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().StringVar(&f.desc, "desc", "", "Description")
	if withStatus {
		cmd.Flags().StringVar(&f.status, "status", "", "Status: new, in_progress or done")
	}
	if withSchedule {
		cmd.Flags().StringVar(&f.start, "start", "", `Start time in the display layout, RFC 3339, or "none"`)
		cmd.Flags().StringVar(&f.duration, "duration", "", `Duration such as 90m, 1h30m or 45, or "none"`)
	}
}

// apply copies every flag the user set onto t. Unset flags leave fields alone.
func (f *itemFlags) apply(cmd *cobra.Command, t *models.Task, layout string) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		t.Title = f.title
	}
	if flags.Changed("desc") {
		t.Description = f.desc
	}
	if flags.Changed("status") {
		s, err := parseStatus(f.status)
		if err != nil {
			return err
		}
		t.Status = s
	}
	if flags.Changed("start") {
		start, err := parseStart(f.start, layout)
		if err != nil {
			return err
		}
		t.StartTime = start
	}
	if flags.Changed("duration") {
		d, err := parseDuration(f.duration)
		if err != nil {
			return err
		}
		t.Duration = d
	}
	return nil
}

// parseID parses a positional item id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// parseStatus accepts status names in any case, with '-' or ' ' for '_'.
func parseStatus(s string) (models.Status, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	return models.ParseStatus(norm)
}

// parseStart parses a start time in local time. "none" and "" clear it.
func parseStart(s, layout string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, noneValue) {
		return nil, nil
	}
	for _, l := range []string{layout, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid start time %q (layout %q)", s, layout)
}

// parseDuration parses a Go duration or a bare number of minutes.
// "none" and "" clear it.
func parseDuration(s string) (*time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, noneValue) {
		return nil, nil
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(n) * time.Minute
	} else if d, err = time.ParseDuration(s); err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return &d, nil
}

// idArg is the positional-args validator for commands taking one id.
func idArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	_, err := parseID(args[0])
	return err
}

// find returns the item with id without touching the view history.
func find[T models.Entity](items []T, id int64) (T, error) {
	for _, it := range items {
		if it.Base().ID == id {
			return it, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("id %d: %w", id, store.ErrNotFound)
}
