package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind string
		want string
	}{
		{BackendCSV, "*persist.CSVFile"},
		{BackendYAML, "*persist.YAMLFile"},
		{BackendSQLite, "*persist.DB"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b, err := Open(tt.kind, filepath.Join(dir, "tasks"+Extension(tt.kind)), nil)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer b.Close()

			var got string
			switch b.(type) {
			case *CSVFile:
				got = "*persist.CSVFile"
			case *YAMLFile:
				got = "*persist.YAMLFile"
			case *DB:
				got = "*persist.DB"
			}
			if got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}

	if _, err := Open("json", filepath.Join(dir, "tasks.json"), nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(json) error = %v, want ErrUnknownBackend", err)
	}
}

func TestStore_AutosaveAndAutoload(t *testing.T) {
	for _, kind := range []string{BackendCSV, BackendYAML, BackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks"+Extension(kind))
			ctx := context.Background()

			b, err := Open(kind, path, nil)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			s, err := NewStore(ctx, b)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}

			task, err := s.CreateTask(models.NewTask("Task", "Description").Schedule(day, time.Hour))
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			epic, err := s.CreateEpic(models.NewEpic("Epic", ""))
			if err != nil {
				t.Fatalf("CreateEpic failed: %v", err)
			}
			sub, err := s.CreateSubtask(models.NewSubtask("Sub", "", epic.ID))
			if err != nil {
				t.Fatalf("CreateSubtask failed: %v", err)
			}
			sub.Status = models.StatusInProgress
			if _, err := s.UpdateSubtask(sub); err != nil {
				t.Fatalf("UpdateSubtask failed: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			b2, err := Open(kind, path, nil)
			if err != nil {
				t.Fatalf("reopen failed: %v", err)
			}
			reloaded, err := NewStore(ctx, b2)
			if err != nil {
				t.Fatalf("NewStore (reload) failed: %v", err)
			}
			defer reloaded.Close()

			assertSameEntities(t, s.Store, reloaded.Store)
			e, err := reloaded.GetEpic(epic.ID)
			if err != nil {
				t.Fatalf("GetEpic failed: %v", err)
			}
			if e.Status != models.StatusInProgress {
				t.Errorf("epic Status = %q, want IN_PROGRESS", e.Status)
			}
			if reloaded.Prioritized().Len() != 1 || reloaded.Prioritized().IDs()[0] != task.ID {
				t.Errorf("Prioritized() = %v, want [%d]", reloaded.Prioritized().IDs(), task.ID)
			}
			if reloaded.NextID() != 4 {
				t.Errorf("NextID() = %d, want 4", reloaded.NextID())
			}
		})
	}
}

func TestStore_FailedOperationDoesNotSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	s, err := NewStore(context.Background(), NewCSVFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := s.GetTask(1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetTask error = %v, want ErrNotFound", err)
	}
	if _, err := s.CreateSubtask(models.NewSubtask("Sub", "", 0)); !errors.Is(err, store.ErrNoEpic) {
		t.Fatalf("CreateSubtask error = %v, want ErrNoEpic", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file written after failed operations: %v", err)
	}
}

func TestStore_PartialMinuteDurations(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr error
	}{
		{BackendCSV, ErrPartialMinute},
		{BackendYAML, nil},
		{BackendSQLite, nil},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "tasks"+Extension(tt.kind))
			b, err := Open(tt.kind, path, nil)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			s, err := NewStore(ctx, b)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			defer s.Close()

			start := time.Date(2025, 3, 25, 10, 0, 0, 0, time.Local)
			task, err := s.CreateTask(models.NewTask("A", "").Schedule(start, time.Minute))
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			epic, err := s.CreateEpic(models.NewEpic("Epic", ""))
			if err != nil {
				t.Fatalf("CreateEpic failed: %v", err)
			}
			sub := models.NewSubtask("Sub", "", epic.ID)
			sub.Schedule(start.Add(time.Hour), 90*time.Second)
			if _, err := s.CreateSubtask(sub); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateSubtask error = %v, want %v", err, tt.wantErr)
			}

			c := task.Clone()
			c.Duration = ptr(90 * time.Second)
			if _, err := s.UpdateTask(c); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateTask error = %v, want %v", err, tt.wantErr)
			}

			reloaded, err := NewStore(ctx, b)
			if err != nil {
				t.Fatalf("reload failed: %v", err)
			}
			got, err := reloaded.GetTask(task.ID)
			if err != nil {
				t.Fatalf("GetTask failed: %v", err)
			}
			want := 90 * time.Second
			if tt.wantErr != nil {
				want = time.Minute
			}
			if got.Duration == nil || *got.Duration != want {
				t.Errorf("reloaded duration = %v, want %v", got.Duration, want)
			}
		})
	}
}

func TestStore_AutosaveOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	ctx := context.Background()
	s, err := NewStore(ctx, NewCSVFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	s.Autosave(false)

	if _, err := s.CreateTask(models.NewTask("Task", "")); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file written with autosave off: %v", err)
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	snap, err := NewCSVFile(path, nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Tasks) != 1 {
		t.Errorf("saved %d tasks, want 1", len(snap.Tasks))
	}
}

func TestStore_SaveErrorReturnedWithResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	s, err := NewStore(context.Background(), NewCSVFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	task, err := s.CreateTask(models.NewTask("Task", ""))
	if err == nil {
		t.Fatal("expected save error writing over a directory")
	}
	if task == nil || task.ID != 1 {
		t.Errorf("CreateTask result = %v, want the created task", task)
	}
	if len(s.Tasks()) != 1 {
		t.Errorf("Tasks() len = %d, want 1", len(s.Tasks()))
	}
}

func TestStore_DeleteAllSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	ctx := context.Background()
	s, err := NewStore(ctx, NewYAMLFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	epic, _ := s.CreateEpic(models.NewEpic("Epic", ""))
	if _, err := s.CreateSubtask(models.NewSubtask("Sub", "", epic.ID)); err != nil {
		t.Fatalf("CreateSubtask failed: %v", err)
	}
	if err := s.DeleteAllEpics(); err != nil {
		t.Fatalf("DeleteAllEpics failed: %v", err)
	}

	snap, err := NewYAMLFile(path, nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Len() != 0 || snap.LastID != 2 {
		t.Errorf("saved %+v, want no items and last id 2", snap)
	}
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	ctx := context.Background()

	a, err := NewStore(ctx, NewCSVFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	b, err := NewStore(ctx, NewCSVFile(path, nil))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := a.CreateTask(models.NewTask("Task", "")); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if len(b.Tasks()) != 0 {
		t.Fatal("second store saw the task before reloading")
	}
	if err := b.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(b.Tasks()) != 1 {
		t.Errorf("Tasks() after Reload = %d, want 1", len(b.Tasks()))
	}
}

func ptr[T any](v T) *T { return &v }
