package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/Tiliavir/tasker/internal/config"
	"github.com/Tiliavir/tasker/internal/model"
)

// Open returns the backend selected in cfg.
func Open(cfg config.Storage) (KV, error) {
	dir := cfg.Dir
	if dir == "" {
		base, err := BaseDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "data")
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		path := cfg.SQLiteFile
		if path == "" {
			path = config.DefaultSQLiteFile
		}
		if path != ":memory:" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return OpenSQLite(path)
	case config.BackendFile, "":
		return NewFileKV(dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ReadTasks loads the task snapshot. ErrNotFound is passed through; a value
// that does not decode is reported as ErrCorrupt.
func ReadTasks(ctx context.Context, kv KV) ([]model.Task, error) {
	var tasks []model.Task
	if err := read(ctx, kv, KeyTasks, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	for i := range tasks {
		if tasks[i].Logs == nil {
			tasks[i].Logs = []model.Interval{}
		}
	}
	return tasks, nil
}

// WriteTasks stores the full task snapshot.
func WriteTasks(ctx context.Context, kv KV, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return write(ctx, kv, KeyTasks, tasks)
}

// ReadTiers loads the tier snapshot.
func ReadTiers(ctx context.Context, kv KV) ([]model.Tier, error) {
	var tiers []model.Tier
	if err := read(ctx, kv, KeyTiers, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// WriteTiers stores the full tier snapshot.
func WriteTiers(ctx context.Context, kv KV, tiers []model.Tier) error {
	return write(ctx, kv, KeyTiers, tiers)
}

func read(ctx context.Context, kv KV, key string, v any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		// Back up a corrupt file so the next save does not destroy it.
		if fkv, ok := kv.(*FileKV); ok {
			if backupPath, qErr := fkv.Quarantine(key); qErr == nil {
				return fmt.Errorf("%w: %s (backed up to %s): %v", ErrCorrupt, key, backupPath, err)
			}
		}
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func write(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage error marshalling %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
