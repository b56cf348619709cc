// Package store provides the in-memory task store.
// It owns tasks, epics and subtasks, derives epic state from subtasks,
// records view history and keeps dated work free of overlaps.
package store

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ShayCichocki/tracker/internal/history"
	"github.com/ShayCichocki/tracker/internal/schedule"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// Store is an in-memory repository of tasks, epics and subtasks.
// All operations hold one exclusive lock and hand out copies only.
type Store struct {
	mu sync.Mutex

	tasks    map[int64]*models.Task
	epics    map[int64]*models.Epic
	subtasks map[int64]*models.Subtask

	// lastID is the most recently assigned ID. IDs are never reused.
	lastID int64

	history  *history.Tracker
	schedule *schedule.Scheduler
	logger   *slog.Logger
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tasks:    make(map[int64]*models.Task),
		epics:    make(map[int64]*models.Epic),
		subtasks: make(map[int64]*models.Subtask),
		history:  history.New(),
		schedule: schedule.New(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextID returns the ID the next successful create will receive.
func (s *Store) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID + 1
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

// CreateTask stores a copy of t under a fresh ID with status NEW.
// The caller's ID and status are ignored.
func (s *Store) CreateTask(t *models.Task) (*models.Task, error) {
	if t == nil {
		return nil, fmt.Errorf("create task: %w", ErrInvalid)
	}
	if negative(t.Duration) {
		return nil, fmt.Errorf("create task %q: duration %v: %w", t.Title, *t.Duration, ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := t.Clone()
	c.ID = 0
	if !s.schedule.CanSchedule(c) {
		s.logger.Warn("task overlaps scheduled work", "title", c.Title, "start", c.StartTime)
		return nil, fmt.Errorf("create task %q: %w", c.Title, ErrConflict)
	}

	c.ID = s.nextID()
	c.Status = models.StatusNew
	s.tasks[c.ID] = c
	s.schedule.Insert(c)

	s.logger.Debug("task created", "id", c.ID)
	return c.Clone(), nil
}

// CreateEpic stores a copy of e under a fresh ID with status NEW, no members,
// no start and a zero duration.
func (s *Store) CreateEpic(e *models.Epic) (*models.Epic, error) {
	if e == nil {
		return nil, fmt.Errorf("create epic: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := e.Clone()
	c.ID = s.nextID()
	c.Status = models.StatusNew
	c.ClearSubtasks()
	s.epicSpan(c)
	s.epics[c.ID] = c

	s.logger.Debug("epic created", "id", c.ID)
	return c.Clone(), nil
}

// CreateSubtask stores a copy of st under a fresh ID with status NEW and
// attaches it to its epic. Nothing changes when the subtask is rejected.
func (s *Store) CreateSubtask(st *models.Subtask) (*models.Subtask, error) {
	if st == nil {
		return nil, fmt.Errorf("create subtask: %w", ErrInvalid)
	}
	if negative(st.Duration) {
		return nil, fmt.Errorf("create subtask %q: duration %v: %w", st.Title, *st.Duration, ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := st.Clone()
	c.ID = 0
	if !s.schedule.CanSchedule(c) {
		s.logger.Warn("subtask overlaps scheduled work", "title", c.Title, "start", c.StartTime)
		return nil, fmt.Errorf("create subtask %q: %w", c.Title, ErrConflict)
	}
	if c.EpicID == 0 {
		s.logger.Warn("subtask has no epic", "title", c.Title)
		return nil, fmt.Errorf("create subtask %q: %w", c.Title, ErrNoEpic)
	}
	epic, ok := s.epics[c.EpicID]
	if !ok {
		s.logger.Warn("subtask epic not found", "epic_id", c.EpicID)
		return nil, fmt.Errorf("create subtask %q: epic %d: %w", c.Title, c.EpicID, ErrEpicNotFound)
	}

	c.ID = s.nextID()
	c.Status = models.StatusNew
	s.subtasks[c.ID] = c
	epic.AddSubtask(c.ID)
	s.recompute(epic)
	s.schedule.Insert(c)

	s.logger.Debug("subtask created", "id", c.ID, "epic_id", c.EpicID)
	return c.Clone(), nil
}

// GetTask returns the task with the given ID and records the view.
func (s *Store) GetTask(id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		s.logger.Warn("task not found", "id", id)
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	_ = s.history.Record(t)
	return t.Clone(), nil
}

// GetEpic returns the epic with the given ID and records the view.
func (s *Store) GetEpic(id int64) (*models.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.epics[id]
	if !ok {
		s.logger.Warn("epic not found", "id", id)
		return nil, fmt.Errorf("get epic %d: %w", id, ErrNotFound)
	}
	_ = s.history.Record(e)
	return e.Clone(), nil
}

// GetSubtask returns the subtask with the given ID and records the view.
func (s *Store) GetSubtask(id int64) (*models.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.subtasks[id]
	if !ok {
		s.logger.Warn("subtask not found", "id", id)
		return nil, fmt.Errorf("get subtask %d: %w", id, ErrNotFound)
	}
	_ = s.history.Record(st)
	return st.Clone(), nil
}

// UpdateTask replaces the stored task with a copy of t.
// The schedule is re-indexed without a conflict check.
func (s *Store) UpdateTask(t *models.Task) (*models.Task, error) {
	if t == nil {
		return nil, fmt.Errorf("update task: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		s.logger.Warn("task not found", "id", t.ID)
		return nil, fmt.Errorf("update task %d: %w", t.ID, ErrNotFound)
	}
	if !t.Status.Valid() {
		return nil, fmt.Errorf("update task %d: status %q: %w", t.ID, t.Status, ErrInvalid)
	}
	if negative(t.Duration) {
		return nil, fmt.Errorf("update task %d: duration %v: %w", t.ID, *t.Duration, ErrInvalid)
	}

	c := t.Clone()
	s.tasks[c.ID] = c
	s.schedule.Insert(c)

	s.logger.Debug("task updated", "id", c.ID)
	return c.Clone(), nil
}

// UpdateEpic replaces the epic's title and description. Membership, status
// and time span stay derived from the stored subtasks whatever the caller
// passes.
func (s *Store) UpdateEpic(e *models.Epic) (*models.Epic, error) {
	if e == nil {
		return nil, fmt.Errorf("update epic: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.epics[e.ID]
	if !ok {
		s.logger.Warn("epic not found", "id", e.ID)
		return nil, fmt.Errorf("update epic %d: %w", e.ID, ErrNotFound)
	}

	c := e.Clone()
	c.ReplaceSubtasks(current.SubtaskIDs)
	c.Status = current.Status
	c.StartTime, c.Duration, c.End = current.StartTime, current.Duration, current.End
	if e.Status != current.Status {
		s.recompute(c)
	}
	s.epics[c.ID] = c

	s.logger.Debug("epic updated", "id", c.ID)
	return c.Clone(), nil
}

// UpdateSubtask replaces the stored subtask with a copy of st, moving it
// between epics when its EpicID changed. Every epic touched is recomputed.
func (s *Store) UpdateSubtask(st *models.Subtask) (*models.Subtask, error) {
	if st == nil {
		return nil, fmt.Errorf("update subtask: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.subtasks[st.ID]
	if !ok {
		s.logger.Warn("subtask not found", "id", st.ID)
		return nil, fmt.Errorf("update subtask %d: %w", st.ID, ErrNotFound)
	}
	if st.EpicID == 0 {
		s.logger.Warn("subtask has no epic", "id", st.ID)
		return nil, fmt.Errorf("update subtask %d: %w", st.ID, ErrNoEpic)
	}
	target, ok := s.epics[st.EpicID]
	if !ok {
		s.logger.Warn("subtask epic not found", "id", st.ID, "epic_id", st.EpicID)
		return nil, fmt.Errorf("update subtask %d: epic %d: %w", st.ID, st.EpicID, ErrEpicNotFound)
	}
	if !st.Status.Valid() {
		return nil, fmt.Errorf("update subtask %d: status %q: %w", st.ID, st.Status, ErrInvalid)
	}
	if negative(st.Duration) {
		return nil, fmt.Errorf("update subtask %d: duration %v: %w", st.ID, *st.Duration, ErrInvalid)
	}

	c := st.Clone()
	s.subtasks[c.ID] = c

	if old.EpicID != c.EpicID {
		if prev, ok := s.epics[old.EpicID]; ok {
			prev.RemoveSubtask(c.ID)
			s.recompute(prev)
		}
	}
	if !target.HasSubtask(c.ID) {
		target.AddSubtask(c.ID)
	}
	s.recompute(target)
	s.schedule.Insert(c)

	s.logger.Debug("subtask updated", "id", c.ID, "epic_id", c.EpicID)
	return c.Clone(), nil
}

// DeleteTask removes a task from the store, the history and the schedule.
func (s *Store) DeleteTask(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		s.logger.Warn("task not found", "id", id)
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	s.forget(id)
	delete(s.tasks, id)

	s.logger.Debug("task deleted", "id", id)
	return nil
}

// DeleteEpic removes an epic together with all of its subtasks.
func (s *Store) DeleteEpic(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.epics[id]
	if !ok {
		s.logger.Warn("epic not found", "id", id)
		return fmt.Errorf("delete epic %d: %w", id, ErrNotFound)
	}
	for _, sid := range e.SubtaskIDs {
		s.forget(sid)
		delete(s.subtasks, sid)
	}
	s.forget(id)
	delete(s.epics, id)

	s.logger.Debug("epic deleted", "id", id, "subtasks", len(e.SubtaskIDs))
	return nil
}

// DeleteSubtask removes a subtask and detaches it from its epic.
func (s *Store) DeleteSubtask(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.subtasks[id]
	if !ok {
		s.logger.Warn("subtask not found", "id", id)
		return fmt.Errorf("delete subtask %d: %w", id, ErrNotFound)
	}
	s.forget(id)
	delete(s.subtasks, id)
	if e, ok := s.epics[st.EpicID]; ok {
		e.RemoveSubtask(id)
		s.recompute(e)
	}

	s.logger.Debug("subtask deleted", "id", id, "epic_id", st.EpicID)
	return nil
}

// DeleteAllTasks removes every task.
func (s *Store) DeleteAllTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule.RemoveKind(models.KindTask)
	for id := range s.tasks {
		s.history.Forget(id)
	}
	clear(s.tasks)
	s.logger.Debug("all tasks deleted")
}

// DeleteAllEpics removes every epic and, with them, every subtask.
func (s *Store) DeleteAllEpics() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteAllSubtasks()
	for id := range s.epics {
		s.history.Forget(id)
	}
	clear(s.epics)
	s.logger.Debug("all epics deleted")
}

// DeleteAllSubtasks removes every subtask and resets every epic to NEW with
// no members and no time span.
func (s *Store) DeleteAllSubtasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteAllSubtasks()
	s.logger.Debug("all subtasks deleted")
}

func (s *Store) deleteAllSubtasks() {
	for _, e := range s.epics {
		e.ClearSubtasks()
		s.recompute(e)
	}
	s.schedule.RemoveKind(models.KindSubtask)
	for id := range s.subtasks {
		s.history.Forget(id)
	}
	clear(s.subtasks)
}

// forget purges id from the history and the schedule.
func (s *Store) forget(id int64) {
	s.history.Forget(id)
	s.schedule.Remove(id)
}

// Tasks returns every task ordered by ID.
func (s *Store) Tasks() []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTasks()
}

func (s *Store) sortedTasks() []*models.Task {
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Epics returns every epic ordered by ID.
func (s *Store) Epics() []*models.Epic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEpics()
}

func (s *Store) sortedEpics() []*models.Epic {
	out := make([]*models.Epic, 0, len(s.epics))
	for _, e := range s.epics {
		out = append(out, e.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Epic) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Subtasks returns every subtask ordered by ID.
func (s *Store) Subtasks() []*models.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSubtasks()
}

func (s *Store) sortedSubtasks() []*models.Subtask {
	out := make([]*models.Subtask, 0, len(s.subtasks))
	for _, st := range s.subtasks {
		out = append(out, st.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Subtask) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// EpicSubtasks returns the subtasks of an epic in the order they were attached.
func (s *Store) EpicSubtasks(epicID int64) ([]*models.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.epics[epicID]
	if !ok {
		s.logger.Warn("epic not found", "id", epicID)
		return nil, fmt.Errorf("list subtasks of epic %d: %w", epicID, ErrNotFound)
	}
	out := make([]*models.Subtask, 0, len(e.SubtaskIDs))
	for _, id := range e.SubtaskIDs {
		if st, ok := s.subtasks[id]; ok {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

// History returns the viewed entities from least to most recent, each in its
// current state.
func (s *Store) History() []models.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.history.IDs()
	out := make([]models.Entity, 0, len(ids))
	for _, id := range ids {
		if e := s.lookup(id); e != nil {
			out = append(out, models.CloneEntity(e))
		}
	}
	return out
}

// Prioritized returns the dated tasks and subtasks ordered by start time.
func (s *Store) Prioritized() schedule.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Snapshot()
}

// lookup resolves id to the stored entity of whichever kind holds it.
func (s *Store) lookup(id int64) models.Entity {
	if t, ok := s.tasks[id]; ok {
		return t
	}
	if e, ok := s.epics[id]; ok {
		return e
	}
	if st, ok := s.subtasks[id]; ok {
		return st
	}
	return nil
}
