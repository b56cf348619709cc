package persist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// TimeLayout is the wall-clock layout used for CSV time columns.
const TimeLayout = "2006-01-02T15:04:05.999999999"

// csvHeader names the nine CSV columns.
var csvHeader = []string{"id", "type", "name", "status", "description", "epic", "startTime", "duration", "endTime"}

// nullToken is accepted on read as an alias for an empty field.
const nullToken = "null"

// ErrPartialMinute indicates a duration the CSV format would truncate.
var ErrPartialMinute = errors.New("duration is not a whole number of minutes")

// CSVFile stores state as one comma-separated record per entity.
// History is not part of the format.
type CSVFile struct {
	path   string
	logger *slog.Logger
}

// NewCSVFile returns a CSV backend for path.
func NewCSVFile(path string, logger *slog.Logger) *CSVFile {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CSVFile{path: path, logger: logger}
}

// Path returns the CSV file path.
func (f *CSVFile) Path() string { return f.path }

// Close is a no-op; the file is opened per call.
func (f *CSVFile) Close() error { return nil }

// Check rejects durations that are not whole minutes.
func (f *CSVFile) Check(t *models.Task) error {
	if t == nil || t.Duration == nil || *t.Duration%time.Minute == 0 {
		return nil
	}
	return fmt.Errorf("%s: %q duration %v: %w", f.path, t.Title, *t.Duration, ErrPartialMinute)
}

// Save writes snap to the file, replacing its contents.
// Tasks come first, then epics, then subtasks grouped by epic. The file is
// left untouched when snap cannot be encoded.
func (f *CSVFile) Save(_ context.Context, snap store.Snapshot) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, snap); err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	if err := writeFile(f.path, buf.Bytes()); err != nil {
		f.logger.Error("save failed", "path", f.path, "error", err)
		return err
	}
	f.logger.Debug("state saved", "path", f.path, "items", snap.Len())
	return nil
}

// Load reads the file. A missing file yields an empty snapshot.
func (f *CSVFile) Load(_ context.Context) (store.Snapshot, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	snap, err := DecodeCSV(file)
	if err != nil {
		f.logger.Error("load failed", "path", f.path, "error", err)
		return store.Snapshot{}, fmt.Errorf("load %s: %w", f.path, err)
	}
	f.logger.Debug("state loaded", "path", f.path, "items", snap.Len())
	return snap, nil
}

// EncodeCSV writes snap as CSV to w, header first. Nothing is written when a
// duration is not a whole number of minutes.
func EncodeCSV(w io.Writer, snap store.Snapshot) error {
	if err := wholeMinutes(snap); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		if err := cw.Write(csvRecord(t, models.KindTask, "", t.EndTime())); err != nil {
			return err
		}
	}
	for i := range snap.Epics {
		e := &snap.Epics[i]
		if err := cw.Write(csvRecord(&e.Task, models.KindEpic, "", e.EndTime())); err != nil {
			return err
		}
	}
	for i := range snap.Subtasks {
		st := &snap.Subtasks[i]
		epic := strconv.FormatInt(st.EpicID, 10)
		if err := cw.Write(csvRecord(&st.Task, models.KindSubtask, epic, st.EndTime())); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(t *models.Task, kind models.Kind, epic string, end *time.Time) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		string(kind),
		t.Title,
		string(t.Status),
		t.Description,
		epic,
		formatTime(t.StartTime),
		formatMinutes(t.Duration),
		formatTime(end),
	}
}

// DecodeCSV reads CSV produced by EncodeCSV. The header line is skipped and
// the end time column is ignored; epic spans are recomputed on restore.
func DecodeCSV(r io.Reader) (store.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var snap store.Snapshot
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return store.Snapshot{}, err
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == csvHeader[0] {
				continue
			}
		}
		line, _ := cr.FieldPos(0)
		if err := decodeRecord(rec, &snap); err != nil {
			return store.Snapshot{}, fmt.Errorf("line %d: %w", line, err)
		}
	}
	snap.LastID = snap.MaxID()
	return snap, nil
}

func decodeRecord(rec []string, snap *store.Snapshot) error {
	if len(rec) < 8 {
		return fmt.Errorf("expected at least 8 fields, got %d", len(rec))
	}

	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", rec[0], err)
	}
	kind, err := models.ParseKind(rec[1])
	if err != nil {
		return err
	}
	status, err := models.ParseStatus(rec[3])
	if err != nil {
		return err
	}
	start, err := parseTime(rec[6])
	if err != nil {
		return fmt.Errorf("parse start time %q: %w", rec[6], err)
	}
	duration, err := parseMinutes(rec[7])
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", rec[7], err)
	}

	t := models.Task{
		ID:          id,
		Title:       rec[2],
		Description: rec[4],
		Status:      status,
		StartTime:   start,
		Duration:    duration,
	}

	switch kind {
	case models.KindTask:
		snap.Tasks = append(snap.Tasks, t)
	case models.KindEpic:
		snap.Epics = append(snap.Epics, models.Epic{Task: t})
	case models.KindSubtask:
		var epicID int64
		if v := nullable(rec[5]); v != "" {
			epicID, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("parse epic id %q: %w", rec[5], err)
			}
		}
		snap.Subtasks = append(snap.Subtasks, models.Subtask{Task: t, EpicID: epicID})
	}
	return nil
}

func nullable(s string) string {
	if s == nullToken {
		return ""
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(time.Local).Format(TimeLayout)
}

func parseTime(s string) (*time.Time, error) {
	s = nullable(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func wholeMinutes(snap store.Snapshot) error {
	check := func(t *models.Task) error {
		if t.Duration != nil && *t.Duration%time.Minute != 0 {
			return fmt.Errorf("item %d duration %v: %w", t.ID, *t.Duration, ErrPartialMinute)
		}
		return nil
	}
	for i := range snap.Tasks {
		if err := check(&snap.Tasks[i]); err != nil {
			return err
		}
	}
	for i := range snap.Epics {
		if err := check(&snap.Epics[i].Task); err != nil {
			return err
		}
	}
	for i := range snap.Subtasks {
		if err := check(&snap.Subtasks[i].Task); err != nil {
			return err
		}
	}
	return nil
}

func formatMinutes(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return strconv.FormatInt(int64(*d/time.Minute), 10)
}

func parseMinutes(s string) (*time.Duration, error) {
	s = nullable(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	d := time.Duration(n) * time.Minute
	return &d, nil
}

// writeFile replaces path with data, creating parent directories.
// The data is written to a temporary file first and renamed into place.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("write %s: is a directory", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
