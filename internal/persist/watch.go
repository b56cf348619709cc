package persist

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn whenever the file at path is written or replaced, until ctx
// is done. The parent directory is watched so atomic renames are seen.
// Writes to the SQLite write-ahead log beside path count as writes to path.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func()) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	target := filepath.Clean(path)
	wal := target + "-wal"

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name := filepath.Clean(event.Name); name != target && name != wal {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug("storage file changed", "path", target, "op", event.Op.String())
				fn()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", target, "error", err)
		}
	}
}
