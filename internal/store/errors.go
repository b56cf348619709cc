package store

import "errors"

var (
	// ErrNotFound indicates no entity of the requested kind has the given ID.
	ErrNotFound = errors.New("not found")

	// ErrNoEpic indicates a subtask without an owning epic ID.
	ErrNoEpic = errors.New("no epic specified")

	// ErrEpicNotFound indicates a subtask references an epic that does not exist.
	ErrEpicNotFound = errors.New("epic not found")

	// ErrConflict indicates the entity's time window overlaps a scheduled item.
	ErrConflict = errors.New("time window overlaps a scheduled task")

	// ErrInvalid indicates a nil entity or malformed snapshot data.
	ErrInvalid = errors.New("invalid entity")
)
