package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josephgoksu/azubihub/internal/task"
)

// Backend is the storage port. Implementations are selected once by Open;
// callers never branch on which one they got.
type Backend interface {
	Name() string
	Capabilities() Capabilities

	// Load returns everything stored for id, or ErrNotFound.
	Load(ctx context.Context, id Identity) (*UserData, error)

	// SaveTasks upserts tasks by id.
	SaveTasks(ctx context.Context, id Identity, tasks []task.Task) error
	DeleteTask(ctx context.Context, id Identity, taskID string) error

	// SaveProgress stores xp and the completed report ids together.
	SaveProgress(ctx context.Context, id Identity, xp int, completedReports []string) error

	// SaveFiles upserts files by id, placing inline content in object
	// storage where available.
	SaveFiles(ctx context.Context, id Identity, files []StoredFile) error
	DeleteFile(ctx context.Context, id Identity, fileID string) error

	// HydrateFiles makes stored files retrievable: inline bytes directly,
	// object-stored bytes through a signed URL.
	HydrateFiles(ctx context.Context, id Identity, files []StoredFile) ([]FileView, error)

	Close() error
}

// Session binds a backend to one identity. It satisfies task.Saver and
// progress.Saver.
type Session struct {
	backend Backend
	id      Identity
	now     func() time.Time
}

// BindOption configures a Session.
type BindOption func(*Session)

// WithClock sets the time source used to stamp seed data.
func WithClock(now func() time.Time) BindOption {
	return func(s *Session) { s.now = now }
}

// Bind returns a session for id on b.
func Bind(b Backend, id Identity, opts ...BindOption) *Session {
	s := &Session{backend: b, id: id.Normalize(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns the bound identity.
func (s *Session) Identity() Identity { return s.id }

// Capabilities of the underlying backend.
func (s *Session) Capabilities() Capabilities { return s.backend.Capabilities() }

// Load returns the stored data, or the seed data when nothing was stored yet.
func (s *Session) Load(ctx context.Context) (*UserData, error) {
	data, err := s.backend.Load(ctx, s.id)
	if errors.Is(err, ErrNotFound) {
		return SeedData(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user data: %w", err)
	}
	return data, nil
}

func (s *Session) SaveTasks(ctx context.Context, tasks []task.Task) error {
	return s.backend.SaveTasks(ctx, s.id, tasks)
}

func (s *Session) DeleteTask(ctx context.Context, id string) error {
	return s.backend.DeleteTask(ctx, s.id, id)
}

func (s *Session) SaveProgress(ctx context.Context, xp int, completedReports []string) error {
	return s.backend.SaveProgress(ctx, s.id, xp, completedReports)
}

func (s *Session) SaveFiles(ctx context.Context, files []StoredFile) error {
	return s.backend.SaveFiles(ctx, s.id, files)
}

func (s *Session) DeleteFile(ctx context.Context, id string) error {
	return s.backend.DeleteFile(ctx, s.id, id)
}

func (s *Session) HydrateFiles(ctx context.Context, files []StoredFile) ([]FileView, error) {
	return s.backend.HydrateFiles(ctx, s.id, files)
}
