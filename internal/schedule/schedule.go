// Package schedule keeps dated tasks ordered by start time and rejects
// overlapping windows.
package schedule

import (
	"iter"
	"slices"
	"sort"

	"github.com/ShayCichocki/tracker/pkg/models"
)

// Scheduler holds every dated task and subtask ordered by start time.
// Items with equal start times keep their insertion order.
//
// Scheduler is not safe for concurrent use; the owning store serializes access.
type Scheduler struct {
	items []models.Entity
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// CanSchedule reports whether e fits without overlapping a scheduled item.
// Undated entities always fit.
func (s *Scheduler) CanSchedule(e models.Entity) bool {
	if e == nil || !e.Base().Dated() {
		return true
	}
	candidate := e.Base()
	for _, item := range s.items {
		if models.Intersects(candidate, item.Base()) {
			return false
		}
	}
	return true
}

// Insert adds e to the schedule, replacing any item with the same ID.
// Undated entities are not scheduled; inserting one still drops a previous
// entry for its ID.
func (s *Scheduler) Insert(e models.Entity) {
	if e == nil {
		return
	}
	s.Remove(e.Base().ID)
	if !e.Base().Dated() {
		return
	}

	start := *e.Base().StartTime
	pos := sort.Search(len(s.items), func(i int) bool {
		return s.items[i].Base().StartTime.After(start)
	})
	s.items = slices.Insert(s.items, pos, models.CloneEntity(e))
}

// Remove drops the item with the given ID, if scheduled.
func (s *Scheduler) Remove(id int64) {
	s.items = slices.DeleteFunc(s.items, func(item models.Entity) bool {
		return item.Base().ID == id
	})
}

// RemoveKind drops every item of the given kind.
func (s *Scheduler) RemoveKind(kind models.Kind) {
	s.items = slices.DeleteFunc(s.items, func(item models.Entity) bool {
		return item.Kind() == kind
	})
}

// Clear drops every item.
func (s *Scheduler) Clear() {
	s.items = nil
}

// Len returns the number of scheduled items.
func (s *Scheduler) Len() int {
	return len(s.items)
}

// Snapshot returns a read-only view of the current schedule.
func (s *Scheduler) Snapshot() View {
	items := make([]models.Entity, len(s.items))
	for i, item := range s.items {
		items[i] = models.CloneEntity(item)
	}
	return View{items: items}
}

// View is an immutable, start-ordered listing of scheduled items.
// It exposes no mutators.
type View struct {
	items []models.Entity
}

// Len returns the number of items in the view.
func (v View) Len() int {
	return len(v.items)
}

// At returns a copy of the i-th item.
func (v View) At(i int) models.Entity {
	return models.CloneEntity(v.items[i])
}

// All iterates the items in start order, yielding copies.
func (v View) All() iter.Seq2[int, models.Entity] {
	return func(yield func(int, models.Entity) bool) {
		for i, item := range v.items {
			if !yield(i, models.CloneEntity(item)) {
				return
			}
		}
	}
}

// IDs returns the item IDs in start order.
func (v View) IDs() []int64 {
	out := make([]int64, len(v.items))
	for i, item := range v.items {
		out[i] = item.Base().ID
	}
	return out
}
