package store

import (
	"github.com/ShayCichocki/tracker/internal/schedule"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// TaskManager handles standalone task lifecycle operations.
type TaskManager interface {
	CreateTask(t *models.Task) (*models.Task, error)
	GetTask(id int64) (*models.Task, error)
	UpdateTask(t *models.Task) (*models.Task, error)
	DeleteTask(id int64) error
	DeleteAllTasks()
	Tasks() []*models.Task
}

// EpicManager handles epic lifecycle operations.
type EpicManager interface {
	CreateEpic(e *models.Epic) (*models.Epic, error)
	GetEpic(id int64) (*models.Epic, error)
	UpdateEpic(e *models.Epic) (*models.Epic, error)
	DeleteEpic(id int64) error
	DeleteAllEpics()
	Epics() []*models.Epic

	// EpicSubtasks returns the subtasks of an epic in membership order.
	EpicSubtasks(epicID int64) ([]*models.Subtask, error)
}

// SubtaskManager handles subtask lifecycle operations.
type SubtaskManager interface {
	CreateSubtask(st *models.Subtask) (*models.Subtask, error)
	GetSubtask(id int64) (*models.Subtask, error)
	UpdateSubtask(st *models.Subtask) (*models.Subtask, error)
	DeleteSubtask(id int64) error
	DeleteAllSubtasks()
	Subtasks() []*models.Subtask
}

// Viewer exposes the derived read-only views.
type Viewer interface {
	// History returns viewed entities from least to most recent.
	History() []models.Entity

	// Prioritized returns dated work ordered by start time.
	Prioritized() schedule.View
}

// Snapshotter externalizes and restores the whole state.
type Snapshotter interface {
	Snapshot() Snapshot
	Restore(snap Snapshot) error
}

// Manager is the full task store surface.
// It composes the focused interfaces so callers can depend on only what
// they use.
type Manager interface {
	TaskManager
	EpicManager
	SubtaskManager
	Viewer
	Snapshotter
}

// Compile-time verification that Store implements all interfaces.
var (
	_ TaskManager    = (*Store)(nil)
	_ EpicManager    = (*Store)(nil)
	_ SubtaskManager = (*Store)(nil)
	_ Viewer         = (*Store)(nil)
	_ Snapshotter    = (*Store)(nil)
	_ Manager        = (*Store)(nil)
)
