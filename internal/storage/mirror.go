package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/josephgoksu/azubihub/internal/task"
)

// mirrored writes to the remote backend and keeps a local copy for offline
// reads. Writes report the remote result; cache failures are only logged.
type mirrored struct {
	remote Backend
	cache  Backend
	logger *slog.Logger
}

func newMirrored(remote, cache Backend, logger *slog.Logger) *mirrored {
	return &mirrored{remote: remote, cache: cache, logger: logger}
}

func (m *mirrored) Name() string { return m.remote.Name() }

func (m *mirrored) Capabilities() Capabilities { return m.remote.Capabilities() }

// Load prefers the remote data and refreshes the cache from it. When the
// remote read fails the cached copy is served.
func (m *mirrored) Load(ctx context.Context, id Identity) (*UserData, error) {
	data, err := m.remote.Load(ctx, id)
	if err == nil {
		m.refresh(ctx, id, data)
		return data, nil
	}

	m.logger.Warn("remote load failed, reading local cache", "error", err)
	cached, cacheErr := m.cache.Load(ctx, id)
	if cacheErr != nil {
		if errors.Is(cacheErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(err, cacheErr)
	}
	return cached, nil
}

func (m *mirrored) refresh(ctx context.Context, id Identity, data *UserData) {
	if err := m.cache.SaveTasks(ctx, id, data.Tasks); err != nil {
		m.logger.Debug("cache refresh failed", "what", "tasks", "error", err)
	}
	if err := m.cache.SaveProgress(ctx, id, data.XP, data.CompletedReports); err != nil {
		m.logger.Debug("cache refresh failed", "what", "progress", "error", err)
	}
	if len(data.Files) > 0 {
		if err := m.cache.SaveFiles(ctx, id, data.Files); err != nil {
			m.logger.Debug("cache refresh failed", "what", "files", "error", err)
		}
	}
}

func (m *mirrored) SaveTasks(ctx context.Context, id Identity, tasks []task.Task) error {
	err := m.remote.SaveTasks(ctx, id, tasks)
	m.mirror("tasks", m.cache.SaveTasks(ctx, id, tasks))
	return err
}

func (m *mirrored) DeleteTask(ctx context.Context, id Identity, taskID string) error {
	err := m.remote.DeleteTask(ctx, id, taskID)
	m.mirror("delete task", m.cache.DeleteTask(ctx, id, taskID))
	return err
}

func (m *mirrored) SaveProgress(ctx context.Context, id Identity, xp int, completedReports []string) error {
	err := m.remote.SaveProgress(ctx, id, xp, completedReports)
	m.mirror("progress", m.cache.SaveProgress(ctx, id, xp, completedReports))
	return err
}

func (m *mirrored) SaveFiles(ctx context.Context, id Identity, files []StoredFile) error {
	err := m.remote.SaveFiles(ctx, id, files)
	m.mirror("files", m.cache.SaveFiles(ctx, id, files))
	return err
}

func (m *mirrored) DeleteFile(ctx context.Context, id Identity, fileID string) error {
	err := m.remote.DeleteFile(ctx, id, fileID)
	m.mirror("delete file", m.cache.DeleteFile(ctx, id, fileID))
	return err
}

func (m *mirrored) HydrateFiles(ctx context.Context, id Identity, files []StoredFile) ([]FileView, error) {
	return m.remote.HydrateFiles(ctx, id, files)
}

func (m *mirrored) Close() error {
	return errors.Join(m.remote.Close(), m.cache.Close())
}

func (m *mirrored) mirror(what string, err error) {
	if err != nil {
		m.logger.Warn("local cache write failed", "what", what, "error", err)
	}
}
