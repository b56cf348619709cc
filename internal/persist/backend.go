// Package persist saves and restores task store state.
//
// Three backends share one interface: a flat CSV file, a YAML document and an
// SQLite database. Store wraps a store.Store and saves after every change.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

// Backend names accepted by Open.
const (
	BackendCSV    = "csv"
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend indicates a backend name Open does not recognise.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Backend externalizes store snapshots.
type Backend interface {
	io.Closer

	// Load reads the saved state. A backend with nothing saved yet returns
	// an empty snapshot and no error.
	Load(ctx context.Context) (store.Snapshot, error)

	// Save replaces the saved state with snap.
	Save(ctx context.Context, snap store.Snapshot) error

	// Path returns the file the backend reads and writes.
	Path() string
}

// Checker is implemented by backends that cannot represent every value the
// store accepts. Store calls Check before creating or updating an entity.
type Checker interface {
	Check(t *models.Task) error
}

// Compile-time verification that every backend implements Backend.
var (
	_ Backend = (*CSVFile)(nil)
	_ Backend = (*YAMLFile)(nil)
	_ Backend = (*DB)(nil)

	_ Checker = (*CSVFile)(nil)
)

// Open returns the named backend for path. SQLite databases are migrated
// before they are returned.
func Open(kind, path string, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch kind {
	case BackendCSV:
		return NewCSVFile(path, logger), nil
	case BackendYAML:
		return NewYAMLFile(path, logger), nil
	case BackendSQLite:
		db, err := OpenDB(path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s: %w", path, err)
		}
		db.logger = logger
		return db, nil
	default:
		return nil, fmt.Errorf("open %q: %w (valid: csv, yaml, sqlite)", kind, ErrUnknownBackend)
	}
}

// Extension returns the conventional file extension for a backend name.
func Extension(kind string) string {
	switch kind {
	case BackendYAML:
		return ".yaml"
	case BackendSQLite:
		return ".db"
	default:
		return ".csv"
	}
}
