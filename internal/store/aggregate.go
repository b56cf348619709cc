package store

import (
	"time"

	"github.com/ShayCichocki/tracker/pkg/models"
)

// epicStatus derives an epic's status from its member subtasks.
//
//	no subtasks      -> NEW
//	all DONE         -> DONE
//	not all NEW      -> IN_PROGRESS
//	otherwise        -> NEW
func (s *Store) epicStatus(e *models.Epic) models.Status {
	var total, fresh, done int
	for _, id := range e.SubtaskIDs {
		st, ok := s.subtasks[id]
		if !ok {
			continue
		}
		total++
		switch st.Status {
		case models.StatusNew:
			fresh++
		case models.StatusDone:
			done++
		}
	}

	switch {
	case total == 0:
		return models.StatusNew
	case done == total:
		return models.StatusDone
	case fresh != total:
		return models.StatusInProgress
	default:
		return models.StatusNew
	}
}

// epicSpan derives an epic's time span. The duration is the sum of the
// subtask durations, the start is the earliest subtask start and the end is
// the latest subtask start. An epic with no subtasks has no start or end and
// a zero duration.
func (s *Store) epicSpan(e *models.Epic) {
	var (
		total time.Duration
		start *time.Time
		end   *time.Time
	)
	for _, id := range e.SubtaskIDs {
		st, ok := s.subtasks[id]
		if !ok {
			continue
		}
		if st.Duration != nil {
			total += *st.Duration
		}
		if st.StartTime == nil {
			continue
		}
		if start == nil || st.StartTime.Before(*start) {
			t := *st.StartTime
			start = &t
		}
		if end == nil || st.StartTime.After(*end) {
			t := *st.StartTime
			end = &t
		}
	}

	e.Duration = &total
	e.StartTime = start
	e.End = end
}

// recompute refreshes both the status and the time span of e.
func (s *Store) recompute(e *models.Epic) {
	e.Status = s.epicStatus(e)
	s.epicSpan(e)
}
