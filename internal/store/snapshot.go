package store

import (
	"fmt"
	"time"

	"github.com/ShayCichocki/tracker/pkg/models"
)

// Snapshot is the full externalizable state of a Store.
type Snapshot struct {
	// Tasks are ordered by ID.
	Tasks []models.Task
	// Epics are ordered by ID.
	Epics []models.Epic
	// Subtasks are grouped by epic, each group in membership order.
	Subtasks []models.Subtask
	// History lists viewed IDs from least to most recent.
	History []int64
	// LastID is the most recently assigned ID.
	LastID int64
}

// Len returns the number of entities in the snapshot.
func (snap Snapshot) Len() int {
	return len(snap.Tasks) + len(snap.Epics) + len(snap.Subtasks)
}

// MaxID returns the largest entity ID in the snapshot, or zero.
func (snap Snapshot) MaxID() int64 {
	var id int64
	for _, t := range snap.Tasks {
		id = max(id, t.ID)
	}
	for _, e := range snap.Epics {
		id = max(id, e.ID)
	}
	for _, st := range snap.Subtasks {
		id = max(id, st.ID)
	}
	return id
}

// Snapshot captures the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		History: s.history.IDs(),
		LastID:  s.lastID,
	}
	for _, t := range s.sortedTasks() {
		snap.Tasks = append(snap.Tasks, *t)
	}
	for _, e := range s.sortedEpics() {
		snap.Epics = append(snap.Epics, *e)
		for _, id := range e.SubtaskIDs {
			if st, ok := s.subtasks[id]; ok {
				snap.Subtasks = append(snap.Subtasks, *st.Clone())
			}
		}
	}
	return snap
}

// Restore replaces the whole state with snap.
//
// Tasks and epics are loaded first, then subtasks are linked to their epics
// in the order given. Subtasks whose epic is missing are dropped. Every epic
// is recomputed, dated work is rescheduled without conflict checks and the
// history is replayed for IDs that still resolve. The ID counter becomes the
// larger of snap.LastID and the largest ID seen.
//
// Invalid data is reported before anything changes.
func (s *Store) Restore(snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.tasks)
	clear(s.epics)
	clear(s.subtasks)
	s.history.Clear()
	s.schedule.Clear()

	for i := range snap.Tasks {
		t := snap.Tasks[i].Clone()
		s.tasks[t.ID] = t
	}
	for i := range snap.Epics {
		e := snap.Epics[i].Clone()
		e.ClearSubtasks()
		s.epics[e.ID] = e
	}
	for i := range snap.Subtasks {
		st := snap.Subtasks[i].Clone()
		e, ok := s.epics[st.EpicID]
		if !ok {
			s.logger.Warn("dropping subtask with missing epic", "id", st.ID, "epic_id", st.EpicID)
			continue
		}
		s.subtasks[st.ID] = st
		if !e.HasSubtask(st.ID) {
			e.AddSubtask(st.ID)
		}
	}
	for _, e := range s.epics {
		s.recompute(e)
	}

	s.lastID = max(snap.LastID, snap.MaxID())
	for _, t := range s.sortedTasks() {
		s.schedule.Insert(t)
	}
	for _, st := range s.sortedSubtasks() {
		s.schedule.Insert(st)
	}
	for _, id := range snap.History {
		if e := s.lookup(id); e != nil {
			_ = s.history.Record(e)
		}
	}

	s.logger.Debug("state restored",
		"tasks", len(s.tasks), "epics", len(s.epics), "subtasks", len(s.subtasks), "last_id", s.lastID)
	return nil
}

func validate(snap Snapshot) error {
	check := func(kind models.Kind, t models.Task) error {
		if t.ID <= 0 {
			return fmt.Errorf("restore %s %q: id %d: %w", kind, t.Title, t.ID, ErrInvalid)
		}
		if !t.Status.Valid() {
			return fmt.Errorf("restore %s %d: status %q: %w", kind, t.ID, t.Status, ErrInvalid)
		}
		if negative(t.Duration) {
			return fmt.Errorf("restore %s %d: duration %v: %w", kind, t.ID, *t.Duration, ErrInvalid)
		}
		return nil
	}
	for _, t := range snap.Tasks {
		if err := check(models.KindTask, t); err != nil {
			return err
		}
	}
	for _, e := range snap.Epics {
		if err := check(models.KindEpic, e.Task); err != nil {
			return err
		}
	}
	for _, st := range snap.Subtasks {
		if err := check(models.KindSubtask, st.Task); err != nil {
			return err
		}
	}
	return nil
}

// negative reports whether d is set and below zero.
func negative(d *time.Duration) bool {
	return d != nil && *d < 0
}
