package history

import (
	"errors"
	"slices"
	"testing"

	"github.com/ShayCichocki/tracker/pkg/models"
)

func task(id int64) *models.Task {
	return &models.Task{ID: id, Title: "Title", Status: models.StatusNew}
}

func ids(entities []models.Entity) []int64 {
	out := make([]int64, len(entities))
	for i, e := range entities {
		out[i] = e.Base().ID
	}
	return out
}

func TestTracker_EmptySnapshot(t *testing.T) {
	tr := New()
	if got := tr.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty", got)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
}

func TestTracker_RecordOrder(t *testing.T) {
	tests := []struct {
		name   string
		record []int64
		want   []int64
	}{
		{"single", []int64{1}, []int64{1}},
		{"distinct", []int64{1, 2, 3}, []int64{1, 2, 3}},
		{"repeat moves to end", []int64{1, 2, 3, 1}, []int64{2, 3, 1}},
		{"repeat tail is stable", []int64{1, 2, 2}, []int64{1, 2}},
		{"repeat middle", []int64{1, 2, 3, 2, 4}, []int64{1, 3, 4, 2}},
		{"same id many times", []int64{5, 5, 5, 5}, []int64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for _, id := range tt.record {
				if err := tr.Record(task(id)); err != nil {
					t.Fatalf("Record(%d) failed: %v", id, err)
				}
			}
			if got := ids(tr.Snapshot()); !slices.Equal(got, tt.want) {
				t.Errorf("Snapshot() = %v, want %v", got, tt.want)
			}
			if got := tr.IDs(); !slices.Equal(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_RecordKeepsLatestValue(t *testing.T) {
	tr := New()
	_ = tr.Record(&models.Task{ID: 1, Title: "old"})
	_ = tr.Record(&models.Task{ID: 1, Title: "new"})

	snap := tr.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() len = %d, want 1", len(snap))
	}
	if snap[0].Base().Title != "new" {
		t.Errorf("Title = %q, want %q", snap[0].Base().Title, "new")
	}
}

func TestTracker_RecordInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   models.Entity
	}{
		{"nil", nil},
		{"id 0", task(0)},
		{"nil task", (*models.Task)(nil)},
		{"nil epic", (*models.Epic)(nil)},
		{"nil subtask", (*models.Subtask)(nil)},
		{"epic id 0", models.NewEpic("Epic", "")},
		{"subtask id 0", models.NewSubtask("Subtask", "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			_ = tr.Record(task(1))

			if err := tr.Record(tt.in); !errors.Is(err, ErrInvalidEntity) {
				t.Errorf("Record error = %v, want ErrInvalidEntity", err)
			}
			if got := tr.IDs(); !slices.Equal(got, []int64{1}) {
				t.Errorf("IDs() = %v, want [1]", got)
			}
		})
	}
}

func TestTracker_Forget(t *testing.T) {
	tests := []struct {
		name   string
		forget int64
		want   []int64
	}{
		{"head", 1, []int64{2, 3}},
		{"middle", 2, []int64{1, 3}},
		{"tail", 3, []int64{1, 2}},
		{"absent", 42, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for _, id := range []int64{1, 2, 3} {
				_ = tr.Record(task(id))
			}
			tr.Forget(tt.forget)
			if got := tr.IDs(); !slices.Equal(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
			if tr.Contains(tt.forget) {
				t.Errorf("Contains(%d) = true after Forget", tt.forget)
			}
		})
	}
}

func TestTracker_ForgetAllThenRecord(t *testing.T) {
	tr := New()
	for _, id := range []int64{1, 2} {
		_ = tr.Record(task(id))
	}
	tr.Forget(1)
	tr.Forget(2)
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tr.Len())
	}

	_ = tr.Record(task(3))
	_ = tr.Record(task(4))
	if got := tr.IDs(); !slices.Equal(got, []int64{3, 4}) {
		t.Errorf("IDs() = %v, want [3 4]", got)
	}
	if len(tr.nodes) != 2 {
		t.Errorf("arena grew to %d slots, want freed slots reused", len(tr.nodes))
	}
}

func TestTracker_SnapshotDoesNotMutate(t *testing.T) {
	tr := New()
	for _, id := range []int64{1, 2, 3} {
		_ = tr.Record(task(id))
	}
	first := tr.Snapshot()
	first[0] = task(99)
	second := tr.Snapshot()

	if got := ids(second); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("second Snapshot() = %v, want [1 2 3]", got)
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := New()
	for _, id := range []int64{1, 2, 3} {
		_ = tr.Record(task(id))
	}
	tr.Clear()

	if tr.Len() != 0 || len(tr.Snapshot()) != 0 {
		t.Errorf("tracker not empty after Clear: %v", tr.IDs())
	}
	_ = tr.Record(task(7))
	if got := tr.IDs(); !slices.Equal(got, []int64{7}) {
		t.Errorf("IDs() after Clear+Record = %v, want [7]", got)
	}
}

func TestTracker_WithLimit(t *testing.T) {
	tr := New(WithLimit(3))
	for _, id := range []int64{1, 2, 3, 4, 5} {
		_ = tr.Record(task(id))
	}
	if got := tr.IDs(); !slices.Equal(got, []int64{3, 4, 5}) {
		t.Errorf("IDs() = %v, want [3 4 5]", got)
	}

	// Re-recording an existing entry never evicts.
	_ = tr.Record(task(3))
	if got := tr.IDs(); !slices.Equal(got, []int64{4, 5, 3}) {
		t.Errorf("IDs() = %v, want [4 5 3]", got)
	}
	if tr.Contains(1) || tr.Contains(2) {
		t.Error("evicted ids still reported as contained")
	}
}

func TestTracker_MixedKinds(t *testing.T) {
	tr := New()
	_ = tr.Record(task(1))
	_ = tr.Record(&models.Epic{Task: models.Task{ID: 2}})
	_ = tr.Record(&models.Subtask{Task: models.Task{ID: 3}, EpicID: 2})

	snap := tr.Snapshot()
	kinds := []models.Kind{snap[0].Kind(), snap[1].Kind(), snap[2].Kind()}
	want := []models.Kind{models.KindTask, models.KindEpic, models.KindSubtask}
	if !slices.Equal(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}
