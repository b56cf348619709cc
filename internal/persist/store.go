package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// Store is a store.Store that saves its state to a Backend after every
// change. Successful gets also save, since they update the view history.
//
// When the operation succeeds but saving fails, the operation's result is
// returned together with the save error.
type Store struct {
	*store.Store

	backend Backend

	mu       sync.Mutex
	autosave bool
}

// NewStore creates a store backed by b and loads whatever b holds.
func NewStore(ctx context.Context, b Backend, opts ...store.Option) (*Store, error) {
	s := &Store{
		Store:    store.New(opts...),
		backend:  b,
		autosave: true,
	}

	snap, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Len() > 0 || snap.LastID > 0 {
		if err := s.Store.Restore(snap); err != nil {
			return nil, fmt.Errorf("restore %s: %w", b.Path(), err)
		}
	}
	return s, nil
}

// Backend returns the backend the store saves to.
func (s *Store) Backend() Backend {
	return s.backend
}

// Autosave turns saving after every change on or off.
// With autosave off, call Flush to save.
func (s *Store) Autosave(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave = on
}

// Flush saves the current state.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Save(ctx, s.Store.Snapshot())
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) changed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.autosave {
		return nil
	}
	if err := s.backend.Save(context.Background(), s.Store.Snapshot()); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

// check asks the backend whether it can represent t.
func (s *Store) check(t *models.Task) error {
	c, ok := s.backend.(Checker)
	if !ok {
		return nil
	}
	return c.Check(t)
}

// after saves when op succeeded and returns op's result with any error.
func after[T any](s *Store, v T, err error) (T, error) {
	if err != nil {
		return v, err
	}
	return v, s.changed()
}

// CreateTask creates a task and saves.
func (s *Store) CreateTask(t *models.Task) (*models.Task, error) {
	if err := s.check(t); err != nil {
		return nil, err
	}
	v, err := s.Store.CreateTask(t)
	return after(s, v, err)
}

// CreateEpic creates an epic and saves.
func (s *Store) CreateEpic(e *models.Epic) (*models.Epic, error) {
	v, err := s.Store.CreateEpic(e)
	return after(s, v, err)
}

// CreateSubtask creates a subtask and saves.
func (s *Store) CreateSubtask(st *models.Subtask) (*models.Subtask, error) {
	if err := s.check(st.Base()); err != nil {
		return nil, err
	}
	v, err := s.Store.CreateSubtask(st)
	return after(s, v, err)
}

// GetTask returns a task and saves the updated history.
func (s *Store) GetTask(id int64) (*models.Task, error) {
	v, err := s.Store.GetTask(id)
	return after(s, v, err)
}

// GetEpic returns an epic and saves the updated history.
func (s *Store) GetEpic(id int64) (*models.Epic, error) {
	v, err := s.Store.GetEpic(id)
	return after(s, v, err)
}

// GetSubtask returns a subtask and saves the updated history.
func (s *Store) GetSubtask(id int64) (*models.Subtask, error) {
	v, err := s.Store.GetSubtask(id)
	return after(s, v, err)
}

// UpdateTask updates a task and saves.
func (s *Store) UpdateTask(t *models.Task) (*models.Task, error) {
	if err := s.check(t); err != nil {
		return nil, err
	}
	v, err := s.Store.UpdateTask(t)
	return after(s, v, err)
}

// UpdateEpic updates an epic and saves.
func (s *Store) UpdateEpic(e *models.Epic) (*models.Epic, error) {
	v, err := s.Store.UpdateEpic(e)
	return after(s, v, err)
}

// UpdateSubtask updates a subtask and saves.
func (s *Store) UpdateSubtask(st *models.Subtask) (*models.Subtask, error) {
	if err := s.check(st.Base()); err != nil {
		return nil, err
	}
	v, err := s.Store.UpdateSubtask(st)
	return after(s, v, err)
}

// DeleteTask deletes a task and saves.
func (s *Store) DeleteTask(id int64) error {
	if err := s.Store.DeleteTask(id); err != nil {
		return err
	}
	return s.changed()
}

// DeleteEpic deletes an epic with its subtasks and saves.
func (s *Store) DeleteEpic(id int64) error {
	if err := s.Store.DeleteEpic(id); err != nil {
		return err
	}
	return s.changed()
}

// DeleteSubtask deletes a subtask and saves.
func (s *Store) DeleteSubtask(id int64) error {
	if err := s.Store.DeleteSubtask(id); err != nil {
		return err
	}
	return s.changed()
}

// DeleteAllTasks deletes every task and saves.
func (s *Store) DeleteAllTasks() error {
	s.Store.DeleteAllTasks()
	return s.changed()
}

// DeleteAllEpics deletes every epic and subtask and saves.
func (s *Store) DeleteAllEpics() error {
	s.Store.DeleteAllEpics()
	return s.changed()
}

// DeleteAllSubtasks deletes every subtask and saves.
func (s *Store) DeleteAllSubtasks() error {
	s.Store.DeleteAllSubtasks()
	return s.changed()
}

// Restore replaces the state with snap and saves.
func (s *Store) Restore(snap store.Snapshot) error {
	if err := s.Store.Restore(snap); err != nil {
		return err
	}
	return s.changed()
}

// Reload discards the in-memory state and loads it from the backend again.
func (s *Store) Reload(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.Store.Restore(snap); err != nil {
		return fmt.Errorf("restore %s: %w", s.backend.Path(), err)
	}
	return nil
}
