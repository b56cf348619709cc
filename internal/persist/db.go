package persist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// DB stores state in an SQLite database.
// Each Save replaces the item and history tables and appends a row to the
// snapshots journal.
type DB struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// SnapshotRecord describes one saved snapshot.
type SnapshotRecord struct {
	ID      string
	SavedAt time.Time
	Items   int
	LastID  int64
}

// OpenDB opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
func OpenDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &DB{conn: conn, path: path, logger: slog.New(slog.DiscardHandler)}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Items},
		{2, migrationV2History},
		{3, migrationV3Snapshots},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Items = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	kind TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'NEW',
	epic_id INTEGER,
	start_time TEXT,
	duration_ns INTEGER
);

CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind, position);
`

const migrationV2History = `
CREATE TABLE IF NOT EXISTS history (
	position INTEGER PRIMARY KEY,
	item_id INTEGER NOT NULL
);
`

const migrationV3Snapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	saved_at DATETIME NOT NULL,
	item_count INTEGER NOT NULL DEFAULT 0,
	last_id INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);
`

// Save replaces the stored items and history with snap in one transaction
// and records the snapshot in the journal.
func (db *DB) Save(ctx context.Context, snap store.Snapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := saveTx(ctx, tx, snap); err != nil {
		tx.Rollback()
		db.logger.Error("save failed", "path", db.path, "error", err)
		return fmt.Errorf("save %s: %w", db.path, err)
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("save failed", "path", db.path, "error", err)
		return fmt.Errorf("commit save: %w", err)
	}
	db.logger.Debug("state saved", "path", db.path, "items", snap.Len())
	return nil
}

func saveTx(ctx context.Context, tx *sql.Tx, snap store.Snapshot) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, kind, position, title, description, status, epic_id, start_time, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert item: %w", err)
	}
	defer stmt.Close()

	insert := func(kind models.Kind, pos int, t *models.Task, epicID int64) error {
		var epic sql.NullInt64
		if epicID != 0 {
			epic = sql.NullInt64{Int64: epicID, Valid: true}
		}
		var start sql.NullString
		if t.StartTime != nil {
			start = sql.NullString{String: formatTimestamp(*t.StartTime), Valid: true}
		}
		var duration sql.NullInt64
		if t.Duration != nil {
			duration = sql.NullInt64{Int64: int64(*t.Duration), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, t.ID, string(kind), pos, t.Title, t.Description, string(t.Status), epic, start, duration)
		if err != nil {
			return fmt.Errorf("insert %s %d: %w", kind, t.ID, err)
		}
		return nil
	}

	for i := range snap.Tasks {
		if err := insert(models.KindTask, i, &snap.Tasks[i], 0); err != nil {
			return err
		}
	}
	for i := range snap.Epics {
		if err := insert(models.KindEpic, i, &snap.Epics[i].Task, 0); err != nil {
			return err
		}
	}
	for i := range snap.Subtasks {
		if err := insert(models.KindSubtask, i, &snap.Subtasks[i].Task, snap.Subtasks[i].EpicID); err != nil {
			return err
		}
	}

	for i, id := range snap.History {
		if _, err := tx.ExecContext(ctx, "INSERT INTO history (position, item_id) VALUES (?, ?)", i, id); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, saved_at, item_count, last_id) VALUES (?, ?, ?, ?)
	`, uuid.Must(uuid.NewV7()).String(), formatTimestamp(time.Now()), snap.Len(), snap.LastID)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// Load rebuilds a snapshot from the stored items and history.
// An empty database yields an empty snapshot.
func (db *DB) Load(ctx context.Context) (store.Snapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var snap store.Snapshot

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, title, description, status, epic_id, start_time, duration_ns
		FROM items
		ORDER BY CASE kind WHEN 'TASK' THEN 0 WHEN 'EPIC' THEN 1 ELSE 2 END, position
	`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t           models.Task
			kind        string
			status      string
			description sql.NullString
			epicID      sql.NullInt64
			start       sql.NullString
			duration    sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &kind, &t.Title, &description, &status, &epicID, &start, &duration); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan item: %w", err)
		}
		t.Description = description.String
		t.Status = models.Status(status)
		if t.StartTime, err = parseNullableTime(start); err != nil {
			return store.Snapshot{}, fmt.Errorf("item %d start time: %w", t.ID, err)
		}
		if duration.Valid {
			d := time.Duration(duration.Int64)
			t.Duration = &d
		}

		switch models.Kind(kind) {
		case models.KindTask:
			snap.Tasks = append(snap.Tasks, t)
		case models.KindEpic:
			snap.Epics = append(snap.Epics, models.Epic{Task: t})
		case models.KindSubtask:
			snap.Subtasks = append(snap.Subtasks, models.Subtask{Task: t, EpicID: epicID.Int64})
		default:
			return store.Snapshot{}, fmt.Errorf("item %d: unknown kind %q", t.ID, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate items: %w", err)
	}

	hrows, err := db.conn.QueryContext(ctx, "SELECT item_id FROM history ORDER BY position")
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var id int64
		if err := hrows.Scan(&id); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan history: %w", err)
		}
		snap.History = append(snap.History, id)
	}
	if err := hrows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate history: %w", err)
	}

	var lastID sql.NullInt64
	row := db.conn.QueryRowContext(ctx, "SELECT MAX(last_id) FROM snapshots")
	if err := row.Scan(&lastID); err != nil {
		return store.Snapshot{}, fmt.Errorf("get last id: %w", err)
	}
	snap.LastID = max(lastID.Int64, snap.MaxID())

	db.logger.Debug("state loaded", "path", db.path, "items", snap.Len())
	return snap, nil
}

// Snapshots lists the saved snapshots, most recent first.
func (db *DB) Snapshots(ctx context.Context) ([]SnapshotRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, saved_at, item_count, last_id FROM snapshots ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var (
			rec     SnapshotRecord
			savedAt string
		)
		if err := rows.Scan(&rec.ID, &savedAt, &rec.Items, &rec.LastID); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if t, err := parseTimestamp(savedAt); err == nil {
			rec.SavedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// formatTimestamp formats a time.Time for SQLite storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp parses a time string from SQLite.
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses a nullable time string from SQLite.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
