package store

import (
	"log/slog"

	"github.com/ShayCichocki/tracker/internal/history"
	"github.com/ShayCichocki/tracker/internal/schedule"
)

// Option configures a Store.
type Option func(*Store)

// WithHistory sets the history tracker. The store takes ownership of it.
func WithHistory(h *history.Tracker) Option {
	return func(s *Store) {
		if h != nil {
			s.history = h
		}
	}
}

// WithHistoryLimit bounds the view history to n entries. n <= 0 is unbounded.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		s.history = history.New(history.WithLimit(n))
	}
}

// WithScheduler sets the scheduler. The store takes ownership of it.
func WithScheduler(sch *schedule.Scheduler) Option {
	return func(s *Store) {
		if sch != nil {
			s.schedule = sch
		}
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
