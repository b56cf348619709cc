package models

import (
	"fmt"
	"time"
)

// Status represents the current state of a task.
type Status string

const (
	// StatusNew indicates the task has not started.
	StatusNew Status = "NEW"
	// StatusInProgress indicates the task is being worked on.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusDone indicates the task completed.
	StatusDone Status = "DONE"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q (valid: NEW, IN_PROGRESS, DONE)", s)
	}
	return status, nil
}

// Kind discriminates the three entity shapes.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// Valid returns true if the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindEpic, KindSubtask:
		return true
	default:
		return false
	}
}

// ParseKind converts a type discriminator into a Kind.
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("invalid type %q (valid: TASK, EPIC, SUBTASK)", s)
	}
	return kind, nil
}

// Entity is the capability shared by tasks, epics and subtasks.
type Entity interface {
	// Kind reports which of the three shapes this is.
	Kind() Kind
	// Base returns the common task fields.
	Base() *Task
	// EndTime returns the end of the entity's time window, if any.
	EndTime() *time.Time
}

// SameEntity reports whether a and b refer to the same stored entity.
// Identity is the ID alone; content is never compared.
func SameEntity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	x, y := a.Base(), b.Base()
	return x != nil && y != nil && x.ID == y.ID
}

// Task represents a unit of work.
type Task struct {
	// ID is assigned by the store. Zero means unassigned.
	ID int64 `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Status is the current state of the task.
	Status Status `json:"status"`
	// StartTime is when the task is planned to begin, if dated.
	StartTime *time.Time `json:"start_time,omitempty"`
	// Duration is how long the task is planned to take, if known.
	Duration *time.Duration `json:"duration,omitempty"`
}

// NewTask returns an unsaved task in the NEW state.
func NewTask(title, description string) *Task {
	return &Task{
		Title:       title,
		Description: description,
		Status:      StatusNew,
	}
}

// Schedule sets the start time and duration and returns the task.
func (t *Task) Schedule(start time.Time, d time.Duration) *Task {
	t.StartTime = &start
	t.Duration = &d
	return t
}

// Kind implements Entity.
func (t *Task) Kind() Kind { return KindTask }

// Base implements Entity.
func (t *Task) Base() *Task { return t }

// EndTime returns StartTime plus Duration, or nil when either is missing.
func (t *Task) EndTime() *time.Time {
	if t.StartTime == nil || t.Duration == nil {
		return nil
	}
	end := t.StartTime.Add(*t.Duration)
	return &end
}

// Dated reports whether the task has both a start time and a duration.
func (t *Task) Dated() bool {
	return t.StartTime != nil && t.Duration != nil
}

// IntersectsWith reports whether the time windows of t and other overlap.
func (t *Task) IntersectsWith(other *Task) bool {
	return Intersects(t, other)
}

// Intersects reports whether two dated tasks overlap in time.
// Windows are half-open, so a task ending exactly when another starts does
// not conflict with it. Undated tasks never intersect anything.
func Intersects(a, b *Task) bool {
	if a == nil || b == nil || !a.Dated() || !b.Dated() {
		return false
	}
	aEnd := a.StartTime.Add(*a.Duration)
	bEnd := b.StartTime.Add(*b.Duration)
	return a.StartTime.Before(bEnd) && b.StartTime.Before(aEnd)
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.StartTime = cloneTime(t.StartTime)
	c.Duration = cloneDuration(t.Duration)
	return &c
}

// Epic is a task whose status and time span are derived from its subtasks.
type Epic struct {
	Task
	// SubtaskIDs lists member subtasks in the order they were attached.
	SubtaskIDs []int64 `json:"subtask_ids,omitempty"`
	// End is the latest subtask start time.
	End *time.Time `json:"end_time,omitempty"`
}

// NewEpic returns an unsaved epic in the NEW state.
func NewEpic(title, description string) *Epic {
	return &Epic{Task: *NewTask(title, description)}
}

// Kind implements Entity.
func (e *Epic) Kind() Kind { return KindEpic }

// Base implements Entity. A nil epic has no base.
func (e *Epic) Base() *Task {
	if e == nil {
		return nil
	}
	return &e.Task
}

// EndTime returns the derived end of the epic.
// This is the latest subtask start, not start plus duration.
func (e *Epic) EndTime() *time.Time {
	return e.End
}

// HasSubtask reports whether id is a member of the epic.
func (e *Epic) HasSubtask(id int64) bool {
	for _, sid := range e.SubtaskIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// AddSubtask appends id to the membership list.
func (e *Epic) AddSubtask(id int64) {
	e.SubtaskIDs = append(e.SubtaskIDs, id)
}

// RemoveSubtask drops id from the membership list, keeping order.
func (e *Epic) RemoveSubtask(id int64) {
	kept := e.SubtaskIDs[:0]
	for _, sid := range e.SubtaskIDs {
		if sid != id {
			kept = append(kept, sid)
		}
	}
	e.SubtaskIDs = kept
}

// ReplaceSubtasks sets the membership list to a copy of ids.
func (e *Epic) ReplaceSubtasks(ids []int64) {
	e.SubtaskIDs = append([]int64(nil), ids...)
}

// ClearSubtasks empties the membership list.
func (e *Epic) ClearSubtasks() {
	e.SubtaskIDs = nil
}

// Clone returns a deep copy of e.
func (e *Epic) Clone() *Epic {
	if e == nil {
		return nil
	}
	return &Epic{
		Task:       *e.Task.Clone(),
		SubtaskIDs: append([]int64(nil), e.SubtaskIDs...),
		End:        cloneTime(e.End),
	}
}

// Subtask is a task owned by exactly one epic.
type Subtask struct {
	Task
	// EpicID references the owning epic. Zero means unset.
	EpicID int64 `json:"epic_id"`
}

// NewSubtask returns an unsaved subtask of the given epic in the NEW state.
func NewSubtask(title, description string, epicID int64) *Subtask {
	return &Subtask{Task: *NewTask(title, description), EpicID: epicID}
}

// Kind implements Entity.
func (s *Subtask) Kind() Kind { return KindSubtask }

// Base implements Entity. A nil subtask has no base.
func (s *Subtask) Base() *Task {
	if s == nil {
		return nil
	}
	return &s.Task
}

// Clone returns a deep copy of s.
func (s *Subtask) Clone() *Subtask {
	if s == nil {
		return nil
	}
	return &Subtask{Task: *s.Task.Clone(), EpicID: s.EpicID}
}

// CloneEntity deep-copies any Entity, preserving its concrete kind.
func CloneEntity(e Entity) Entity {
	switch v := e.(type) {
	case *Epic:
		return v.Clone()
	case *Subtask:
		return v.Clone()
	case *Task:
		return v.Clone()
	default:
		return e
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
