package models

import (
	"testing"
	"time"
)

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"NEW is valid", StatusNew, true},
		{"IN_PROGRESS is valid", StatusInProgress, true},
		{"DONE is valid", StatusDone, true},
		{"empty string is invalid", Status(""), false},
		{"lowercase is invalid", Status("done"), false},
		{"unknown status is invalid", Status("BLOCKED"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Status(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("IN_PROGRESS")
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	if got != StatusInProgress {
		t.Errorf("ParseStatus = %q, want %q", got, StatusInProgress)
	}

	if _, err := ParseStatus("later"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"TASK", KindTask, false},
		{"EPIC", KindEpic, false},
		{"SUBTASK", KindSubtask, false},
		{"task", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewTask_DefaultValues(t *testing.T) {
	task := NewTask("Title", "Description")

	if task.ID != 0 {
		t.Errorf("ID = %d, want 0", task.ID)
	}
	if task.Status != StatusNew {
		t.Errorf("Status = %q, want %q", task.Status, StatusNew)
	}
	if task.StartTime != nil {
		t.Errorf("StartTime = %v, want nil", task.StartTime)
	}
	if task.Duration != nil {
		t.Errorf("Duration = %v, want nil", task.Duration)
	}
	if task.EndTime() != nil {
		t.Errorf("EndTime() = %v, want nil", task.EndTime())
	}
}

func TestTask_EndTime(t *testing.T) {
	now := time.Date(2025, 3, 25, 16, 15, 0, 0, time.UTC)

	task := NewTask("Title", "Description").Schedule(now, 30*time.Minute)
	want := now.Add(30 * time.Minute)
	if got := task.EndTime(); got == nil || !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}

	noDuration := NewTask("Title", "Description")
	noDuration.StartTime = &now
	if got := noDuration.EndTime(); got != nil {
		t.Errorf("EndTime() without duration = %v, want nil", got)
	}
}

func TestIntersects(t *testing.T) {
	now := time.Date(2025, 3, 25, 12, 0, 0, 0, time.UTC)
	at := func(offset, length time.Duration) *Task {
		return NewTask("t", "d").Schedule(now.Add(offset), length)
	}

	tests := []struct {
		name string
		a, b *Task
		want bool
	}{
		{"both undated", NewTask("a", ""), NewTask("b", ""), false},
		{"one undated", at(0, 5*time.Minute), NewTask("b", ""), false},
		{"disjoint", at(0, 5*time.Minute), at(10*time.Minute, 5*time.Minute), false},
		{"overlap later start", at(0, 5*time.Minute), at(2*time.Minute, 5*time.Minute), true},
		{"overlap earlier start", at(0, 5*time.Minute), at(-2*time.Minute, 5*time.Minute), true},
		{"contained", at(0, 10*time.Minute), at(2*time.Minute, 5*time.Minute), true},
		{"short inside long", at(0, 2*time.Minute), at(-2*time.Minute, 5*time.Minute), true},
		{"identical", at(0, 10*time.Minute), at(0, 10*time.Minute), true},
		{"touching endpoints", at(0, 10*time.Minute), at(10*time.Minute, 10*time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersects(a, b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.IntersectsWith(tt.a); got != tt.want {
				t.Errorf("b.IntersectsWith(a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameEntity_ComparesIDOnly(t *testing.T) {
	a := &Epic{Task: Task{ID: 1, Title: "Title", Status: StatusNew}}
	b := &Epic{Task: Task{ID: 1, Title: "Title updated", Status: StatusDone}}
	c := &Task{ID: 2, Title: "Title"}

	if !SameEntity(a, b) {
		t.Error("entities with the same ID should be the same entity")
	}
	if SameEntity(a, c) {
		t.Error("entities with different IDs should differ")
	}
	if SameEntity(a, nil) {
		t.Error("nil is never the same entity")
	}
	if SameEntity(a, (*Epic)(nil)) || SameEntity((*Subtask)(nil), (*Subtask)(nil)) {
		t.Error("a nil pointer is never the same entity")
	}
}

func TestEntity_Kinds(t *testing.T) {
	entities := []struct {
		e    Entity
		want Kind
	}{
		{NewTask("t", ""), KindTask},
		{NewEpic("e", ""), KindEpic},
		{NewSubtask("s", "", 1), KindSubtask},
	}

	for _, tt := range entities {
		if got := tt.e.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
	}
}

func TestEpic_Membership(t *testing.T) {
	epic := NewEpic("Title", "Description")
	if len(epic.SubtaskIDs) != 0 {
		t.Fatalf("new epic has %d subtasks, want 0", len(epic.SubtaskIDs))
	}

	epic.ReplaceSubtasks([]int64{2, 3, 4})
	if len(epic.SubtaskIDs) != 3 {
		t.Fatalf("after replace: %d subtasks, want 3", len(epic.SubtaskIDs))
	}

	epic.RemoveSubtask(3)
	if len(epic.SubtaskIDs) != 2 || epic.SubtaskIDs[0] != 2 || epic.SubtaskIDs[1] != 4 {
		t.Errorf("after remove: %v, want [2 4]", epic.SubtaskIDs)
	}

	epic.AddSubtask(5)
	if last := epic.SubtaskIDs[len(epic.SubtaskIDs)-1]; last != 5 {
		t.Errorf("last subtask = %d, want 5", last)
	}
	if !epic.HasSubtask(4) || epic.HasSubtask(3) {
		t.Errorf("HasSubtask mismatch for %v", epic.SubtaskIDs)
	}

	epic.ClearSubtasks()
	if len(epic.SubtaskIDs) != 0 {
		t.Errorf("after clear: %v, want empty", epic.SubtaskIDs)
	}
}

func TestEpic_ReplaceSubtasksCopies(t *testing.T) {
	ids := []int64{1, 2}
	epic := NewEpic("Title", "")
	epic.ReplaceSubtasks(ids)
	ids[0] = 99

	if epic.SubtaskIDs[0] != 1 {
		t.Errorf("membership aliased caller slice: %v", epic.SubtaskIDs)
	}
}

func TestEpic_EndTimeIsDerived(t *testing.T) {
	start := time.Date(2025, 3, 28, 12, 10, 0, 0, time.UTC)
	epic := NewEpic("Epic", "")
	epic.Schedule(start, time.Hour)

	if epic.EndTime() != nil {
		t.Errorf("EndTime() = %v, want nil until derived", epic.EndTime())
	}

	end := start.Add(24 * time.Hour)
	epic.End = &end
	if got := epic.EndTime(); got == nil || !got.Equal(end) {
		t.Errorf("EndTime() = %v, want %v", got, end)
	}
}

func TestClone_IsDeep(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	epic := &Epic{
		Task:       *NewTask("Epic", "").Schedule(start, time.Hour),
		SubtaskIDs: []int64{2, 3},
	}

	c := epic.Clone()
	c.SubtaskIDs[0] = 42
	*c.StartTime = start.Add(time.Hour)
	*c.Duration = time.Minute

	if epic.SubtaskIDs[0] != 2 {
		t.Error("clone shares SubtaskIDs with original")
	}
	if !epic.StartTime.Equal(start) {
		t.Error("clone shares StartTime with original")
	}
	if *epic.Duration != time.Hour {
		t.Error("clone shares Duration with original")
	}

	sub := NewSubtask("Sub", "", 7)
	sc, ok := CloneEntity(sub).(*Subtask)
	if !ok {
		t.Fatalf("CloneEntity returned %T, want *Subtask", CloneEntity(sub))
	}
	if sc == sub || sc.EpicID != 7 {
		t.Errorf("CloneEntity(subtask) = %+v", sc)
	}
}
