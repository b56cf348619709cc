package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// yamlDocument is the on-disk layout of a YAML state file.
type yamlDocument struct {
	LastID   int64      `yaml:"last_id"`
	Tasks    []yamlItem `yaml:"tasks,omitempty"`
	Epics    []yamlItem `yaml:"epics,omitempty"`
	Subtasks []yamlItem `yaml:"subtasks,omitempty"`
	History  []int64    `yaml:"history,omitempty"`
}

// yamlItem is one entity. Durations are stored as Go duration strings.
type yamlItem struct {
	ID          int64      `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description,omitempty"`
	Status      string     `yaml:"status"`
	Epic        int64      `yaml:"epic,omitempty"`
	Start       *time.Time `yaml:"start,omitempty"`
	Duration    string     `yaml:"duration,omitempty"`
	Subtasks    []int64    `yaml:"subtasks,omitempty"`
}

// YAMLFile stores state, including view history, as a YAML document.
type YAMLFile struct {
	path   string
	logger *slog.Logger
}

// NewYAMLFile returns a YAML backend for path.
func NewYAMLFile(path string, logger *slog.Logger) *YAMLFile {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &YAMLFile{path: path, logger: logger}
}

// Path returns the YAML file path.
func (f *YAMLFile) Path() string { return f.path }

// Close is a no-op; the file is opened per call.
func (f *YAMLFile) Close() error { return nil }

// Save writes snap to the file, replacing its contents.
func (f *YAMLFile) Save(_ context.Context, snap store.Snapshot) error {
	data, err := EncodeYAML(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	if err := writeFile(f.path, data); err != nil {
		f.logger.Error("save failed", "path", f.path, "error", err)
		return err
	}
	f.logger.Debug("state saved", "path", f.path, "items", snap.Len())
	return nil
}

// Load reads the file. A missing file yields an empty snapshot.
func (f *YAMLFile) Load(_ context.Context) (store.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	snap, err := DecodeYAML(data)
	if err != nil {
		f.logger.Error("load failed", "path", f.path, "error", err)
		return store.Snapshot{}, fmt.Errorf("load %s: %w", f.path, err)
	}
	f.logger.Debug("state loaded", "path", f.path, "items", snap.Len())
	return snap, nil
}

// EncodeYAML renders snap as a YAML document.
func EncodeYAML(snap store.Snapshot) ([]byte, error) {
	doc := yamlDocument{
		LastID:  snap.LastID,
		History: snap.History,
	}
	for i := range snap.Tasks {
		doc.Tasks = append(doc.Tasks, toYAMLItem(&snap.Tasks[i]))
	}
	for i := range snap.Epics {
		item := toYAMLItem(&snap.Epics[i].Task)
		item.Subtasks = snap.Epics[i].SubtaskIDs
		doc.Epics = append(doc.Epics, item)
	}
	for i := range snap.Subtasks {
		item := toYAMLItem(&snap.Subtasks[i].Task)
		item.Epic = snap.Subtasks[i].EpicID
		doc.Subtasks = append(doc.Subtasks, item)
	}
	return yaml.Marshal(&doc)
}

// DecodeYAML parses a document produced by EncodeYAML.
func DecodeYAML(data []byte) (store.Snapshot, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return store.Snapshot{}, fmt.Errorf("parse yaml: %w", err)
	}

	snap := store.Snapshot{
		LastID:  doc.LastID,
		History: doc.History,
	}
	for _, item := range doc.Tasks {
		t, err := item.task()
		if err != nil {
			return store.Snapshot{}, err
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	for _, item := range doc.Epics {
		t, err := item.task()
		if err != nil {
			return store.Snapshot{}, err
		}
		snap.Epics = append(snap.Epics, models.Epic{Task: t, SubtaskIDs: item.Subtasks})
	}
	for _, item := range doc.Subtasks {
		t, err := item.task()
		if err != nil {
			return store.Snapshot{}, err
		}
		snap.Subtasks = append(snap.Subtasks, models.Subtask{Task: t, EpicID: item.Epic})
	}
	return snap, nil
}

func toYAMLItem(t *models.Task) yamlItem {
	item := yamlItem{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Start:       t.StartTime,
	}
	if t.Duration != nil {
		item.Duration = t.Duration.String()
	}
	return item
}

func (item yamlItem) task() (models.Task, error) {
	status, err := models.ParseStatus(item.Status)
	if err != nil {
		return models.Task{}, fmt.Errorf("item %d: %w", item.ID, err)
	}
	t := models.Task{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Status:      status,
		StartTime:   item.Start,
	}
	if item.Duration != "" {
		d, err := time.ParseDuration(item.Duration)
		if err != nil {
			return models.Task{}, fmt.Errorf("item %d: parse duration %q: %w", item.ID, item.Duration, err)
		}
		t.Duration = &d
	}
	return t, nil
}
