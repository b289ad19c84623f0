package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/josephgoksu/azubihub/internal/task"
)

// LocalBackend keeps one JSON document per user in a sqlite key-value table.
// Every write reads the document, merges the changed fields and writes it
// back in one transaction.
type LocalBackend struct {
	db *sql.DB
}

// NewLocalBackend opens (or creates) local.db under dir. Use ":memory:" for
// an ephemeral store.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	dbPath := ":memory:"
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "local.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// read-merge-write cycles.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}
	return &LocalBackend{db: db}, nil
}

func (l *LocalBackend) Name() string { return "local" }

func (l *LocalBackend) Capabilities() Capabilities { return Capabilities{} }

func (l *LocalBackend) Close() error { return l.db.Close() }

func (l *LocalBackend) Load(ctx context.Context, id Identity) (*UserData, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, id.LocalKey()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read local data: %w", err)
	}
	return decodeUserData(raw)
}

func (l *LocalBackend) SaveTasks(ctx context.Context, id Identity, tasks []task.Task) error {
	return l.update(ctx, id, func(d *UserData) {
		d.Tasks = slices.Clone(tasks)
	})
}

func (l *LocalBackend) DeleteTask(ctx context.Context, id Identity, taskID string) error {
	return l.update(ctx, id, func(d *UserData) {
		d.Tasks = slices.DeleteFunc(d.Tasks, func(t task.Task) bool { return t.ID == taskID })
	})
}

func (l *LocalBackend) SaveProgress(ctx context.Context, id Identity, xp int, completedReports []string) error {
	return l.update(ctx, id, func(d *UserData) {
		d.XP = xp
		d.CompletedReports = slices.Clone(completedReports)
	})
}

// SaveFiles keeps file bytes inline for offline access.
func (l *LocalBackend) SaveFiles(ctx context.Context, id Identity, files []StoredFile) error {
	return l.update(ctx, id, func(d *UserData) {
		for _, f := range files {
			i := slices.IndexFunc(d.Files, func(x StoredFile) bool { return x.ID == f.ID })
			switch {
			case i < 0:
				d.Files = append(d.Files, f)
			case len(f.Content) == 0:
				// Metadata update; keep bytes we already hold.
				f.Content = d.Files[i].Content
				d.Files[i] = f
			default:
				d.Files[i] = f
			}
		}
	})
}

func (l *LocalBackend) DeleteFile(ctx context.Context, id Identity, fileID string) error {
	return l.update(ctx, id, func(d *UserData) {
		d.Files = slices.DeleteFunc(d.Files, func(f StoredFile) bool { return f.ID == fileID })
	})
}

// HydrateFiles serves inline bytes; files without them cannot be retrieved
// locally.
func (l *LocalBackend) HydrateFiles(_ context.Context, _ Identity, files []StoredFile) ([]FileView, error) {
	out := make([]FileView, 0, len(files))
	for _, f := range files {
		out = append(out, viewOf(f))
	}
	return out, nil
}

// update applies fn to the stored document inside a transaction.
func (l *LocalBackend) update(ctx context.Context, id Identity, fn func(*UserData)) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin local update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	data := &UserData{}
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, id.LocalKey()).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read local data: %w", err)
	default:
		if data, err = decodeUserData(raw); err != nil {
			return err
		}
	}

	fn(data)

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode local data: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id.LocalKey(), string(encoded), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write local data: %w", err)
	}
	return tx.Commit()
}

func decodeUserData(raw string) (*UserData, error) {
	var d UserData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode local data: %w", err)
	}
	if d.Tasks == nil {
		d.Tasks = []task.Task{}
	}
	if d.Files == nil {
		d.Files = []StoredFile{}
	}
	if d.CompletedReports == nil {
		d.CompletedReports = []string{}
	}
	return &d, nil
}
