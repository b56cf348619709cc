// Package history tracks the order in which entities were last viewed.
package history

import (
	"errors"

	"github.com/ShayCichocki/tracker/pkg/models"
)

// ErrInvalidEntity indicates a nil entity or one without an assigned ID.
var ErrInvalidEntity = errors.New("entity has no id")

// nilSlot marks the absence of a neighbour in the arena.
const nilSlot = -1

// node is one arena slot. prev and next are slot indices, not pointers.
type node struct {
	entity models.Entity
	prev   int
	next   int
}

// Tracker keeps a recency-ordered sequence of entities with no duplicate IDs.
// The least recent entry is at the head, the most recent at the tail.
//
// Tracker is not safe for concurrent use; the owning store serializes access.
type Tracker struct {
	// nodes is the arena. Freed slots are reused through free.
	nodes []node
	// free holds indices of unused slots.
	free []int
	// index maps entity ID to its slot.
	index map[int64]int
	head  int
	tail  int
	// limit caps the number of entries. Zero means unbounded.
	limit int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLimit bounds the tracker to n entries, evicting the least recent entry
// when a new one would exceed it. n <= 0 means unbounded.
func WithLimit(n int) Option {
	return func(t *Tracker) {
		if n < 0 {
			n = 0
		}
		t.limit = n
	}
}

// New creates an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		index: make(map[int64]int),
		head:  nilSlot,
		tail:  nilSlot,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record marks e as the most recently viewed entity. An entity already present
// is moved to the tail rather than duplicated.
func (t *Tracker) Record(e models.Entity) error {
	if e == nil || e.Base() == nil || e.Base().ID == 0 {
		return ErrInvalidEntity
	}
	id := e.Base().ID

	if slot, ok := t.index[id]; ok {
		t.unlink(slot)
		t.release(slot)
		delete(t.index, id)
	}

	if t.limit > 0 && len(t.index) >= t.limit {
		t.evictHead()
	}

	slot := t.alloc(e)
	t.index[id] = slot
	t.linkTail(slot)
	return nil
}

// Forget removes the entity with the given ID. Unknown IDs are ignored.
func (t *Tracker) Forget(id int64) {
	slot, ok := t.index[id]
	if !ok {
		return
	}
	t.unlink(slot)
	t.release(slot)
	delete(t.index, id)
}

// Snapshot returns the entries from least to most recent.
func (t *Tracker) Snapshot() []models.Entity {
	out := make([]models.Entity, 0, len(t.index))
	for slot := t.head; slot != nilSlot; slot = t.nodes[slot].next {
		out = append(out, t.nodes[slot].entity)
	}
	return out
}

// IDs returns the recorded IDs from least to most recent.
func (t *Tracker) IDs() []int64 {
	out := make([]int64, 0, len(t.index))
	for slot := t.head; slot != nilSlot; slot = t.nodes[slot].next {
		out = append(out, t.nodes[slot].entity.Base().ID)
	}
	return out
}

// Len returns the number of recorded entities.
func (t *Tracker) Len() int {
	return len(t.index)
}

// Contains reports whether id is recorded.
func (t *Tracker) Contains(id int64) bool {
	_, ok := t.index[id]
	return ok
}

// Clear drops every entry and releases the arena.
func (t *Tracker) Clear() {
	t.nodes = nil
	t.free = nil
	t.index = make(map[int64]int)
	t.head = nilSlot
	t.tail = nilSlot
}

func (t *Tracker) alloc(e models.Entity) int {
	n := node{entity: e, prev: nilSlot, next: nilSlot}
	if k := len(t.free); k > 0 {
		slot := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[slot] = n
		return slot
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *Tracker) release(slot int) {
	t.nodes[slot] = node{prev: nilSlot, next: nilSlot}
	t.free = append(t.free, slot)
}

func (t *Tracker) linkTail(slot int) {
	t.nodes[slot].prev = t.tail
	t.nodes[slot].next = nilSlot
	if t.tail != nilSlot {
		t.nodes[t.tail].next = slot
	} else {
		t.head = slot
	}
	t.tail = slot
}

func (t *Tracker) unlink(slot int) {
	n := t.nodes[slot]
	if n.prev != nilSlot {
		t.nodes[n.prev].next = n.next
	} else {
		t.head = n.next
	}
	if n.next != nilSlot {
		t.nodes[n.next].prev = n.prev
	} else {
		t.tail = n.prev
	}
}

func (t *Tracker) evictHead() {
	if t.head == nilSlot {
		return
	}
	slot := t.head
	id := t.nodes[slot].entity.Base().ID
	t.unlink(slot)
	t.release(slot)
	delete(t.index, id)
}
